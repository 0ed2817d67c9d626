package usecase

import (
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/kirillkom/meeting-assistant/internal/core/domain"
)

func chunk(id, content string) domain.Chunk {
	return domain.Chunk{ID: id, MeetingID: "m-1", Content: content, Strategy: domain.ChunkingSpeakerTurn}
}

func scored(id string, score float64) domain.ScoredChunk {
	return domain.ScoredChunk{Chunk: chunk(id, "content "+id), Score: score}
}

func resultIDs(results []domain.RetrievalResult) []string {
	out := make([]string, 0, len(results))
	for _, r := range results {
		out = append(out, r.Chunk.ID)
	}
	return out
}

type indexFake struct {
	mu            sync.Mutex
	vector        []domain.ScoredChunk
	lexical       []domain.ScoredChunk
	vectorErr     error
	lexicalErr    error
	block         bool
	vectorCalls   int
	lexicalCalls  int
	vectorLimits  []int
	lexicalLimits []int
	filters       []domain.SearchFilter
}

func (f *indexFake) VectorSearch(ctx context.Context, _ []float32, limit int, filter domain.SearchFilter) ([]domain.ScoredChunk, error) {
	f.mu.Lock()
	f.vectorCalls++
	f.vectorLimits = append(f.vectorLimits, limit)
	f.filters = append(f.filters, filter)
	f.mu.Unlock()

	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.vectorErr != nil {
		return nil, f.vectorErr
	}
	return limitHits(f.vector, limit), nil
}

func (f *indexFake) LexicalSearch(ctx context.Context, _ string, limit int, filter domain.SearchFilter) ([]domain.ScoredChunk, error) {
	f.mu.Lock()
	f.lexicalCalls++
	f.lexicalLimits = append(f.lexicalLimits, limit)
	f.filters = append(f.filters, filter)
	f.mu.Unlock()

	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.lexicalErr != nil {
		return nil, f.lexicalErr
	}
	return limitHits(f.lexical, limit), nil
}

func limitHits(hits []domain.ScoredChunk, limit int) []domain.ScoredChunk {
	out := append([]domain.ScoredChunk(nil), hits...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

type embedderFake struct {
	mu        sync.Mutex
	err       error
	dim       int
	calls     int
	batches   [][]string
	queryText string
}

func (f *embedderFake) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.batches = append(f.batches, append([]string(nil), texts...))
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = textVector(text, f.dim)
	}
	return out, nil
}

func (f *embedderFake) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.queryText = text
	if f.err != nil {
		return nil, f.err
	}
	return textVector(text, f.dim), nil
}

// textVector encodes text length so tests can check which vector belongs to
// which chunk.
func textVector(text string, dim int) []float32 {
	if dim <= 0 {
		dim = 3
	}
	vec := make([]float32, dim)
	vec[0] = float32(len(text))
	return vec
}

type generatorFake struct {
	text    string
	err     error
	block   bool
	prompts []string
}

func (f *generatorFake) Generate(ctx context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

type classifierFake struct {
	routed domain.RoutedQuery
}

func (f *classifierFake) Classify(_ context.Context, question string) domain.RoutedQuery {
	out := f.routed
	out.Question = question
	return out
}

type itemStoreFake struct {
	items       []domain.ExtractedItem
	err         error
	filters     []domain.ItemFilter
	replacedFor string
	replaced    []domain.ExtractedItem
}

func (f *itemStoreFake) ListItems(_ context.Context, filter domain.ItemFilter) ([]domain.ExtractedItem, error) {
	f.filters = append(f.filters, filter)
	if f.err != nil {
		return nil, f.err
	}
	var out []domain.ExtractedItem
	for _, item := range f.items {
		if !filter.Matches(item) {
			continue
		}
		out = append(out, item)
	}
	return out, nil
}

func (f *itemStoreFake) ReplaceItems(_ context.Context, meetingID string, items []domain.ExtractedItem) error {
	if f.err != nil {
		return f.err
	}
	f.replacedFor = meetingID
	f.replaced = items
	return nil
}

type chunkWriterFake struct {
	mu       sync.Mutex
	err      error
	replaced map[domain.ChunkingStrategy][]domain.Chunk
	counts   map[domain.ChunkingStrategy]int
	countErr error
}

func (f *chunkWriterFake) ReplaceChunks(_ context.Context, _ string, strategy domain.ChunkingStrategy, chunks []domain.Chunk) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if f.replaced == nil {
		f.replaced = make(map[domain.ChunkingStrategy][]domain.Chunk)
	}
	f.replaced[strategy] = chunks
	return nil
}

func (f *chunkWriterFake) CountChunks(context.Context, string) (map[domain.ChunkingStrategy]int, error) {
	if f.countErr != nil {
		return nil, f.countErr
	}
	return f.counts, nil
}

type statusCall struct {
	status domain.MeetingStatus
	errMsg string
}

type meetingRepoFake struct {
	meetings    map[string]*domain.Meeting
	created     *domain.Meeting
	createErr   error
	statusErr   error
	statusCalls []statusCall
	speakers    int
	deleted     string
}

func newMeetingRepoFake(meetings ...domain.Meeting) *meetingRepoFake {
	f := &meetingRepoFake{meetings: make(map[string]*domain.Meeting)}
	for i := range meetings {
		m := meetings[i]
		f.meetings[m.ID] = &m
	}
	return f
}

func (f *meetingRepoFake) Create(_ context.Context, meeting *domain.Meeting) error {
	if f.createErr != nil {
		return f.createErr
	}
	copyMeeting := *meeting
	f.created = &copyMeeting
	f.meetings[meeting.ID] = &copyMeeting
	return nil
}

func (f *meetingRepoFake) GetByID(_ context.Context, id string) (*domain.Meeting, error) {
	m, ok := f.meetings[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrMeetingNotFound, "get meeting", errors.New(id))
	}
	copyMeeting := *m
	return &copyMeeting, nil
}

func (f *meetingRepoFake) List(context.Context) ([]domain.Meeting, error) {
	out := make([]domain.Meeting, 0, len(f.meetings))
	for _, m := range f.meetings {
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *meetingRepoFake) UpdateStatus(_ context.Context, _ string, status domain.MeetingStatus, errMessage string) error {
	f.statusCalls = append(f.statusCalls, statusCall{status: status, errMsg: errMessage})
	return f.statusErr
}

func (f *meetingRepoFake) UpdateSpeakers(_ context.Context, _ string, numSpeakers int) error {
	f.speakers = numSpeakers
	return nil
}

func (f *meetingRepoFake) Delete(_ context.Context, id string) error {
	if _, ok := f.meetings[id]; !ok {
		return domain.WrapError(domain.ErrMeetingNotFound, "delete meeting", errors.New(id))
	}
	delete(f.meetings, id)
	f.deleted = id
	return nil
}

type storageFake struct {
	files   map[string]string
	saveErr error
	openErr error
}

func (f *storageFake) Save(_ context.Context, key string, data io.Reader) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	raw, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	if f.files == nil {
		f.files = make(map[string]string)
	}
	f.files[key] = string(raw)
	return nil
}

func (f *storageFake) Open(_ context.Context, key string) (io.ReadCloser, error) {
	if f.openErr != nil {
		return nil, f.openErr
	}
	body, ok := f.files[key]
	if !ok {
		return nil, errors.New("no such object")
	}
	return io.NopCloser(strings.NewReader(body)), nil
}

func (f *storageFake) Delete(_ context.Context, key string) error {
	delete(f.files, key)
	return nil
}

type queueFake struct {
	jobs []domain.IngestJob
	err  error
}

func (f *queueFake) PublishIngestJob(_ context.Context, job domain.IngestJob) error {
	if f.err != nil {
		return f.err
	}
	f.jobs = append(f.jobs, job)
	return nil
}

func (f *queueFake) SubscribeIngestJobs(context.Context, func(context.Context, domain.IngestJob) error) error {
	return errors.New("not implemented")
}

// lineParserFake splits "Speaker: text" lines.
type lineParserFake struct {
	err error
}

func (f *lineParserFake) Parse(_ context.Context, raw []byte, _ string) ([]domain.TranscriptSegment, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []domain.TranscriptSegment
	for _, line := range strings.Split(string(raw), "\n") {
		speaker, text, ok := strings.Cut(line, ":")
		if !ok || strings.TrimSpace(text) == "" {
			continue
		}
		out = append(out, domain.TranscriptSegment{
			Speaker: domain.StringPtr(strings.TrimSpace(speaker)),
			Text:    strings.TrimSpace(text),
		})
	}
	return out, nil
}

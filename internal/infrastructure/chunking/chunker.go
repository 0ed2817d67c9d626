package chunking

import (
	"fmt"
	"strings"

	"github.com/kirillkom/meeting-assistant/internal/core/domain"
)

// Chunker splits transcripts into retrievable units. Sizes are counted in
// whitespace-delimited words.
type Chunker struct {
	MaxUnitSize int
	Overlap     int
}

func NewChunker(maxUnitSize, overlap int) *Chunker {
	if maxUnitSize <= 0 {
		maxUnitSize = 500
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= maxUnitSize {
		overlap = maxUnitSize / 4
	}
	return &Chunker{
		MaxUnitSize: maxUnitSize,
		Overlap:     overlap,
	}
}

func (c *Chunker) Chunk(segments []domain.TranscriptSegment, strategy domain.ChunkingStrategy) ([]domain.Chunk, error) {
	switch strategy {
	case domain.ChunkingNaive:
		return c.naive(segments), nil
	case domain.ChunkingSpeakerTurn:
		return c.speakerTurn(segments), nil
	default:
		return nil, domain.WrapError(
			domain.ErrMalformedStrategyConfig,
			"chunk transcript",
			fmt.Errorf("unknown chunking strategy %q", strategy),
		)
	}
}

// naive ignores speaker boundaries, so speaker and timing are dropped.
func (c *Chunker) naive(segments []domain.TranscriptSegment) []domain.Chunk {
	words := make([]string, 0, len(segments)*16)
	for _, seg := range segments {
		words = append(words, strings.Fields(seg.Text)...)
	}

	windows := c.windows(words)
	out := make([]domain.Chunk, 0, len(windows))
	for i, text := range windows {
		out = append(out, domain.Chunk{
			ChunkIndex: i,
			Content:    text,
			Strategy:   domain.ChunkingNaive,
		})
	}
	return out
}

type turn struct {
	speaker *string
	words   []string
	start   *float64
	end     *float64
}

func (c *Chunker) speakerTurn(segments []domain.TranscriptSegment) []domain.Chunk {
	turns := groupTurns(segments)

	out := make([]domain.Chunk, 0, len(turns))
	for _, t := range turns {
		for _, text := range c.windows(t.words) {
			out = append(out, domain.Chunk{
				ChunkIndex: len(out),
				Content:    text,
				Speaker:    copyString(t.speaker),
				StartTime:  copyFloat(t.start),
				EndTime:    copyFloat(t.end),
				Strategy:   domain.ChunkingSpeakerTurn,
			})
		}
	}
	return out
}

// groupTurns merges consecutive segments of the same speaker. A turn spans
// the earliest start and latest end of its segments.
func groupTurns(segments []domain.TranscriptSegment) []turn {
	turns := make([]turn, 0, len(segments))
	for _, seg := range segments {
		speaker := normalizeSpeaker(seg.Speaker)
		if len(turns) == 0 || !sameSpeaker(turns[len(turns)-1].speaker, speaker) {
			turns = append(turns, turn{speaker: speaker})
		}
		t := &turns[len(turns)-1]
		t.words = append(t.words, strings.Fields(seg.Text)...)
		if seg.StartTime != nil && (t.start == nil || *seg.StartTime < *t.start) {
			t.start = seg.StartTime
		}
		if seg.EndTime != nil && (t.end == nil || *seg.EndTime > *t.end) {
			t.end = seg.EndTime
		}
	}
	return turns
}

// windows splits words into windows of MaxUnitSize sharing Overlap words
// with their predecessor. Input shorter than one window yields one window.
func (c *Chunker) windows(words []string) []string {
	if len(words) == 0 {
		return nil
	}

	step := c.MaxUnitSize - c.Overlap
	if step <= 0 {
		step = c.MaxUnitSize
	}

	out := make([]string, 0, len(words)/step+1)
	for start := 0; start < len(words); start += step {
		end := start + c.MaxUnitSize
		if end > len(words) {
			end = len(words)
		}
		out = append(out, strings.Join(words[start:end], " "))
		if end == len(words) {
			break
		}
	}
	return out
}

func normalizeSpeaker(speaker *string) *string {
	if speaker == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*speaker)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func sameSpeaker(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func copyFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}

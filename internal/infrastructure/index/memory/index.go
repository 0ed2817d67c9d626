// Package memory is an in-process Chunk Index: bleve for lexical ranking and
// brute-force cosine similarity for vectors. It suits single-process tools
// and tests; the services use the Postgres store.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/blevesearch/bleve"
	"github.com/blevesearch/bleve/mapping"

	"github.com/kirillkom/meeting-assistant/internal/core/domain"
)

const contentField = "content"

type Index struct {
	mu     sync.RWMutex
	text   bleve.Index
	chunks map[string]domain.Chunk
	titles map[string]string
}

func NewIndex() (*Index, error) {
	text, err := bleve.NewMemOnly(newIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("create bleve index: %w", err)
	}
	return &Index{
		text:   text,
		chunks: make(map[string]domain.Chunk),
		titles: make(map[string]string),
	}, nil
}

func newIndexMapping() *mapping.IndexMappingImpl {
	indexMapping := bleve.NewIndexMapping()
	doc := bleve.NewDocumentMapping()

	content := bleve.NewTextFieldMapping()
	content.Store = false
	doc.AddFieldMappingsAt(contentField, content)

	indexMapping.DefaultMapping = doc
	return indexMapping
}

func (i *Index) Close() error {
	return i.text.Close()
}

// SetMeetingTitle attaches a title to hits of meetingID.
func (i *Index) SetMeetingTitle(meetingID, title string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.titles[meetingID] = title
}

func (i *Index) ReplaceChunks(ctx context.Context, meetingID string, strategy domain.ChunkingStrategy, chunks []domain.Chunk) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	batch := i.text.NewBatch()
	for id, existing := range i.chunks {
		if existing.MeetingID == meetingID && existing.Strategy == strategy {
			batch.Delete(id)
		}
	}
	for _, chunk := range chunks {
		if chunk.Strategy != strategy {
			return fmt.Errorf("chunk %s has strategy %s, want %s", chunk.ID, chunk.Strategy, strategy)
		}
		if err := batch.Index(chunk.ID, map[string]any{contentField: chunk.Content}); err != nil {
			return fmt.Errorf("index chunk %s: %w", chunk.ID, err)
		}
	}
	if err := i.text.Batch(batch); err != nil {
		return fmt.Errorf("apply bleve batch: %w", err)
	}

	for id, existing := range i.chunks {
		if existing.MeetingID == meetingID && existing.Strategy == strategy {
			delete(i.chunks, id)
		}
	}
	for _, chunk := range chunks {
		chunk.MeetingID = meetingID
		if chunk.MeetingTitle != "" {
			i.titles[meetingID] = chunk.MeetingTitle
		}
		chunk.Embedding = append([]float32(nil), chunk.Embedding...)
		i.chunks[chunk.ID] = chunk
	}
	return nil
}

func (i *Index) CountChunks(_ context.Context, meetingID string) (map[domain.ChunkingStrategy]int, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	counts := make(map[domain.ChunkingStrategy]int)
	for _, chunk := range i.chunks {
		if chunk.MeetingID == meetingID {
			counts[chunk.Strategy]++
		}
	}
	return counts, nil
}

func (i *Index) VectorSearch(ctx context.Context, queryVector []float32, limit int, filter domain.SearchFilter) ([]domain.ScoredChunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 || len(queryVector) == 0 {
		return []domain.ScoredChunk{}, nil
	}

	i.mu.RLock()
	defer i.mu.RUnlock()

	hits := make([]domain.ScoredChunk, 0, len(i.chunks))
	for _, chunk := range i.chunks {
		if !matches(chunk, filter) || len(chunk.Embedding) == 0 {
			continue
		}
		hits = append(hits, domain.ScoredChunk{
			Chunk: i.withTitle(chunk),
			Score: clampUnit(cosine(queryVector, chunk.Embedding)),
		})
	}
	return topHits(hits, limit), nil
}

func (i *Index) LexicalSearch(ctx context.Context, queryText string, limit int, filter domain.SearchFilter) ([]domain.ScoredChunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 || strings.TrimSpace(queryText) == "" {
		return []domain.ScoredChunk{}, nil
	}

	i.mu.RLock()
	defer i.mu.RUnlock()

	if len(i.chunks) == 0 {
		return []domain.ScoredChunk{}, nil
	}

	query := bleve.NewMatchQuery(queryText)
	query.SetField(contentField)
	// Filters are applied after ranking, so every match is requested.
	request := bleve.NewSearchRequestOptions(query, len(i.chunks), 0, false)
	result, err := i.text.SearchInContext(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("bleve search: %w", err)
	}

	hits := make([]domain.ScoredChunk, 0, len(result.Hits))
	for _, hit := range result.Hits {
		chunk, ok := i.chunks[hit.ID]
		if !ok || !matches(chunk, filter) || hit.Score <= 0 {
			continue
		}
		hits = append(hits, domain.ScoredChunk{Chunk: i.withTitle(chunk), Score: hit.Score})
	}
	return topHits(hits, limit), nil
}

func (i *Index) withTitle(chunk domain.Chunk) domain.Chunk {
	chunk.Embedding = nil
	if title, ok := i.titles[chunk.MeetingID]; ok {
		chunk.MeetingTitle = title
	}
	return chunk
}

func matches(chunk domain.Chunk, filter domain.SearchFilter) bool {
	if filter.MeetingID != "" && chunk.MeetingID != filter.MeetingID {
		return false
	}
	if filter.Strategy != "" && chunk.Strategy != filter.Strategy {
		return false
	}
	return true
}

func topHits(hits []domain.ScoredChunk, limit int) []domain.ScoredChunk {
	sort.SliceStable(hits, func(a, b int) bool {
		if hits[a].Score != hits[b].Score {
			return hits[a].Score > hits[b].Score
		}
		return hits[a].Chunk.ID < hits[b].Chunk.ID
	})
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits
}

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	n := min(len(a), len(b))
	for k := 0; k < n; k++ {
		ak := float64(a[k])
		bk := float64(b[k])
		dot += ak * bk
		na += ak * ak
		nb += bk * bk
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func clampUnit(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/pgvector/pgvector-go"

	"github.com/kirillkom/meeting-assistant/internal/core/domain"
)

// ChunkStore keeps embeddings and the generated tsvector column on the same
// row, so one write path serves both search capabilities.
type ChunkStore struct {
	db *sql.DB
}

func NewChunkStore(db *sql.DB) *ChunkStore {
	return &ChunkStore{db: db}
}

const chunkSelect = `
SELECT c.id, c.meeting_id, m.title, c.chunk_index, c.content, c.speaker, c.start_time, c.end_time, c.strategy`

const chunkFilter = `
  AND ($2::text = '' OR c.meeting_id = $2::text)
  AND ($3::text = '' OR c.strategy = $3::text)`

func (s *ChunkStore) VectorSearch(ctx context.Context, queryVector []float32, limit int, filter domain.SearchFilter) ([]domain.ScoredChunk, error) {
	if limit <= 0 || len(queryVector) == 0 {
		return []domain.ScoredChunk{}, nil
	}

	rows, err := s.db.QueryContext(ctx, chunkSelect+`, 1 - (c.embedding <=> $1) AS score
FROM chunks c
JOIN meetings m ON m.id = c.meeting_id
WHERE TRUE`+chunkFilter+`
ORDER BY c.embedding <=> $1, c.id
LIMIT $4
`, pgvector.NewVector(queryVector), filter.MeetingID, string(filter.Strategy), limit)
	if err != nil {
		return nil, fmt.Errorf("query vector search: %w", err)
	}
	defer rows.Close()

	hits, err := scanScoredChunks(rows)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	for i := range hits {
		hits[i].Score = clampUnit(hits[i].Score)
	}
	return hits, nil
}

func (s *ChunkStore) LexicalSearch(ctx context.Context, queryText string, limit int, filter domain.SearchFilter) ([]domain.ScoredChunk, error) {
	if limit <= 0 || strings.TrimSpace(queryText) == "" {
		return []domain.ScoredChunk{}, nil
	}

	rows, err := s.db.QueryContext(ctx, chunkSelect+`, ts_rank_cd(c.content_tsv, q) AS score
FROM chunks c
JOIN meetings m ON m.id = c.meeting_id,
     plainto_tsquery('english', $1) q
WHERE c.content_tsv @@ q`+chunkFilter+`
ORDER BY score DESC, c.id
LIMIT $4
`, queryText, filter.MeetingID, string(filter.Strategy), limit)
	if err != nil {
		return nil, fmt.Errorf("query lexical search: %w", err)
	}
	defer rows.Close()

	hits, err := scanScoredChunks(rows)
	if err != nil {
		return nil, fmt.Errorf("lexical search: %w", err)
	}
	return hits, nil
}

func (s *ChunkStore) ReplaceChunks(ctx context.Context, meetingID string, strategy domain.ChunkingStrategy, chunks []domain.Chunk) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin chunks tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE meeting_id = $1 AND strategy = $2`, meetingID, string(strategy)); err != nil {
		return fmt.Errorf("delete chunks: %w", err)
	}

	for _, chunk := range chunks {
		if chunk.Strategy != strategy {
			return fmt.Errorf("chunk %s has strategy %s, want %s", chunk.ID, chunk.Strategy, strategy)
		}
		if len(chunk.Embedding) == 0 {
			return fmt.Errorf("chunk %s has no embedding", chunk.ID)
		}
		_, err := tx.ExecContext(ctx, `
INSERT INTO chunks (id, meeting_id, strategy, chunk_index, content, speaker, start_time, end_time, embedding)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
`,
			chunk.ID, meetingID, string(strategy), chunk.ChunkIndex, chunk.Content,
			nullString(chunk.Speaker), nullFloat(chunk.StartTime), nullFloat(chunk.EndTime),
			pgvector.NewVector(chunk.Embedding),
		)
		if err != nil {
			return fmt.Errorf("insert chunk %s: %w", chunk.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit chunks tx: %w", err)
	}
	return nil
}

func (s *ChunkStore) CountChunks(ctx context.Context, meetingID string) (map[domain.ChunkingStrategy]int, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT strategy, COUNT(*)
FROM chunks
WHERE meeting_id = $1
GROUP BY strategy
`, meetingID)
	if err != nil {
		return nil, fmt.Errorf("count chunks: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.ChunkingStrategy]int)
	for rows.Next() {
		var strategy string
		var count int
		if err := rows.Scan(&strategy, &count); err != nil {
			return nil, fmt.Errorf("scan chunk count: %w", err)
		}
		counts[domain.ChunkingStrategy(strategy)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chunk counts: %w", err)
	}
	return counts, nil
}

func scanScoredChunks(rows *sql.Rows) ([]domain.ScoredChunk, error) {
	hits := make([]domain.ScoredChunk, 0)
	for rows.Next() {
		var (
			hit       domain.ScoredChunk
			speaker   sql.NullString
			startTime sql.NullFloat64
			endTime   sql.NullFloat64
			strategy  string
		)
		if err := rows.Scan(
			&hit.Chunk.ID, &hit.Chunk.MeetingID, &hit.Chunk.MeetingTitle, &hit.Chunk.ChunkIndex, &hit.Chunk.Content,
			&speaker, &startTime, &endTime, &strategy, &hit.Score,
		); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		hit.Chunk.Strategy = domain.ChunkingStrategy(strategy)
		if speaker.Valid {
			hit.Chunk.Speaker = domain.StringPtr(speaker.String)
		}
		if startTime.Valid {
			hit.Chunk.StartTime = domain.FloatPtr(startTime.Float64)
		}
		if endTime.Valid {
			hit.Chunk.EndTime = domain.FloatPtr(endTime.Float64)
		}
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chunks: %w", err)
	}
	return hits, nil
}

func clampUnit(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

func nullString(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

package usecase

import (
	"sort"

	"github.com/kirillkom/meeting-assistant/internal/core/domain"
)

type fusedCandidate struct {
	chunk  domain.Chunk
	vector *float64
	text   *float64
}

// fuseWeighted full-outer-joins both candidate lists on chunk id. A signal
// missing for a chunk counts as 0 in the combined score but stays nil on
// the result.
func fuseWeighted(vector, lexical []domain.ScoredChunk, vectorWeight, textWeight float64) []domain.RetrievalResult {
	acc := make(map[string]*fusedCandidate, len(vector)+len(lexical))
	order := make([]string, 0, len(vector)+len(lexical))

	candidate := func(chunk domain.Chunk) *fusedCandidate {
		key := chunk.ID
		c, ok := acc[key]
		if !ok {
			c = &fusedCandidate{chunk: chunk}
			acc[key] = c
			order = append(order, key)
		}
		c.chunk = preferRicherChunk(c.chunk, chunk)
		return c
	}

	for _, hit := range vector {
		score := hit.Score
		candidate(hit.Chunk).vector = &score
	}
	for _, hit := range lexical {
		score := hit.Score
		candidate(hit.Chunk).text = &score
	}

	out := make([]domain.RetrievalResult, 0, len(order))
	for _, key := range order {
		c := acc[key]
		combined := scoreOrZero(c.vector)*vectorWeight + scoreOrZero(c.text)*textWeight
		out = append(out, domain.RetrievalResult{
			Chunk:         c.chunk,
			VectorScore:   c.vector,
			TextScore:     c.text,
			CombinedScore: &combined,
		})
	}

	sortResults(out)
	return out
}

// semanticResults wraps vector hits without fusion.
func semanticResults(vector []domain.ScoredChunk) []domain.RetrievalResult {
	out := make([]domain.RetrievalResult, 0, len(vector))
	for _, hit := range vector {
		score := hit.Score
		out = append(out, domain.RetrievalResult{
			Chunk:       hit.Chunk,
			VectorScore: &score,
		})
	}
	sortResults(out)
	return out
}

// sortResults orders by rank score descending, ties by chunk id ascending.
func sortResults(results []domain.RetrievalResult) {
	sort.SliceStable(results, func(i, j int) bool {
		si, sj := results[i].RankScore(), results[j].RankScore()
		if si != sj {
			return si > sj
		}
		return results[i].Chunk.ID < results[j].Chunk.ID
	})
}

func trimResults(results []domain.RetrievalResult, limit int) []domain.RetrievalResult {
	if limit <= 0 || len(results) <= limit {
		return results
	}
	return results[:limit]
}

func scoreOrZero(score *float64) float64 {
	if score == nil {
		return 0
	}
	return *score
}

func preferRicherChunk(current, candidate domain.Chunk) domain.Chunk {
	if current.Content == "" && candidate.Content != "" {
		current.Content = candidate.Content
	}
	if current.MeetingTitle == "" && candidate.MeetingTitle != "" {
		current.MeetingTitle = candidate.MeetingTitle
	}
	if current.Speaker == nil && candidate.Speaker != nil {
		current.Speaker = candidate.Speaker
	}
	if current.StartTime == nil && candidate.StartTime != nil {
		current.StartTime = candidate.StartTime
	}
	if current.EndTime == nil && candidate.EndTime != nil {
		current.EndTime = candidate.EndTime
	}
	return current
}

package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/kirillkom/meeting-assistant/internal/core/domain"
)

var compareChunkings = []domain.ChunkingStrategy{domain.ChunkingNaive, domain.ChunkingSpeakerTurn}

var compareRetrievals = []domain.RetrievalStrategy{domain.RetrievalSemantic, domain.RetrievalHybrid}

// Compare runs the question against every chunking x retrieval combination
// derived from base. The query is embedded once. A failed combination is
// reported on its run; the call fails only when every combination failed.
func (uc *QueryUseCase) Compare(
	ctx context.Context,
	question string,
	base domain.StrategyConfig,
	filter domain.SearchFilter,
) ([]domain.StrategyRun, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "compare", errors.New("question is required"))
	}
	base = strategyOrDefault(base)

	configs := make([]domain.StrategyConfig, 0, len(compareChunkings)*len(compareRetrievals))
	for _, chunking := range compareChunkings {
		for _, retrieval := range compareRetrievals {
			cfg, err := base.With(domain.StrategyOptions{
				ChunkingStrategy:  chunking,
				RetrievalStrategy: retrieval,
			})
			if err != nil {
				return nil, err
			}
			configs = append(configs, cfg)
		}
	}

	queryVector, err := uc.embedQuery(ctx, question)
	if err != nil {
		return nil, err
	}

	// each run pins its own chunking strategy
	filter.Strategy = ""

	runs := make([]domain.StrategyRun, len(configs))
	errs := make([]error, len(configs))
	var wg sync.WaitGroup
	for i, cfg := range configs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results, err := uc.retrieve(ctx, question, queryVector, cfg, filter)
			runs[i] = domain.StrategyRun{
				Label:    cfg.Label(),
				Strategy: cfg,
				Results:  results,
			}
			if err != nil {
				errs[i] = err
				runs[i].Error = err.Error()
				runs[i].Results = []domain.RetrievalResult{}
			}
		}()
	}
	wg.Wait()

	for _, err := range errs {
		if err == nil {
			return runs, nil
		}
	}
	return nil, errs[0]
}

package usecase

import (
	"context"
	"time"

	"github.com/kirillkom/meeting-assistant/internal/core/domain"
	"github.com/kirillkom/meeting-assistant/internal/core/ports"
)

// AnswerSynthesizer turns evidence into an attributed answer. Generation is
// invoked for every call, including the empty-evidence case.
type AnswerSynthesizer struct {
	generator ports.Generator
	timeout   time.Duration
}

func NewAnswerSynthesizer(generator ports.Generator, timeout time.Duration) *AnswerSynthesizer {
	return &AnswerSynthesizer{generator: generator, timeout: timeout}
}

func (s *AnswerSynthesizer) FromChunks(ctx context.Context, question string, evidence []domain.RetrievalResult) (*domain.Answer, error) {
	text, err := s.generate(ctx, buildChunkPrompt(question, evidence))
	if err != nil {
		return nil, err
	}
	if evidence == nil {
		evidence = []domain.RetrievalResult{}
	}
	return &domain.Answer{
		Text:         text,
		Route:        domain.RouteRetrieval,
		CitedSources: evidence,
		NoEvidence:   len(evidence) == 0,
	}, nil
}

func (s *AnswerSynthesizer) FromItems(ctx context.Context, question string, itemType domain.ItemType, evidence []domain.ExtractedItem) (*domain.Answer, error) {
	text, err := s.generate(ctx, buildItemPrompt(question, evidence))
	if err != nil {
		return nil, err
	}
	if evidence == nil {
		evidence = []domain.ExtractedItem{}
	}
	return &domain.Answer{
		Text:         text,
		Route:        domain.RouteStructured,
		ItemType:     itemType,
		CitedSources: []domain.RetrievalResult{},
		CitedItems:   evidence,
		NoEvidence:   len(evidence) == 0,
	}, nil
}

func (s *AnswerSynthesizer) generate(ctx context.Context, prompt string) (string, error) {
	callCtx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	text, err := s.generator.Generate(callCtx, prompt)
	if err != nil {
		return "", domain.WrapExternal(domain.ErrGenerationFailure, "generate answer", err)
	}
	return text, nil
}

package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
)

type RetrievalStrategy string

const (
	RetrievalSemantic RetrievalStrategy = "semantic"
	RetrievalHybrid   RetrievalStrategy = "hybrid"
)

func (s RetrievalStrategy) Valid() bool {
	return s == RetrievalSemantic || s == RetrievalHybrid
}

const (
	DefaultTopK            = 10
	DefaultVectorWeight    = 0.7
	DefaultTextWeight      = 0.3
	DefaultOverfetchFactor = 2
)

// StrategyOptions is the mutable, partially filled request-side form of a
// StrategyConfig. Nil or empty fields mean "keep the base value".
type StrategyOptions struct {
	ChunkingStrategy  ChunkingStrategy  `json:"chunking_strategy,omitempty" yaml:"chunking_strategy,omitempty"`
	RetrievalStrategy RetrievalStrategy `json:"retrieval_strategy,omitempty" yaml:"retrieval_strategy,omitempty"`
	VectorWeight      *float64          `json:"vector_weight,omitempty" yaml:"vector_weight,omitempty"`
	TextWeight        *float64          `json:"text_weight,omitempty" yaml:"text_weight,omitempty"`
	TopK              *int              `json:"top_k,omitempty" yaml:"top_k,omitempty"`
	OverfetchFactor   *int              `json:"overfetch_factor,omitempty" yaml:"overfetch_factor,omitempty"`
}

// StrategyConfig carries every strategic choice of one ingestion or query
// request. It has no setters: derive a new value with With.
type StrategyConfig struct {
	chunking        ChunkingStrategy
	retrieval       RetrievalStrategy
	vectorWeight    float64
	textWeight      float64
	topK            int
	overfetchFactor int
}

// DefaultStrategyConfig is speaker-turn chunking with hybrid 0.7/0.3 retrieval.
func DefaultStrategyConfig() StrategyConfig {
	return StrategyConfig{
		chunking:        ChunkingSpeakerTurn,
		retrieval:       RetrievalHybrid,
		vectorWeight:    DefaultVectorWeight,
		textWeight:      DefaultTextWeight,
		topK:            DefaultTopK,
		overfetchFactor: DefaultOverfetchFactor,
	}
}

// NewStrategyConfig applies opts over the defaults and validates the result.
func NewStrategyConfig(opts StrategyOptions) (StrategyConfig, error) {
	return DefaultStrategyConfig().With(opts)
}

// With returns a copy of c with the non-empty fields of opts applied.
func (c StrategyConfig) With(opts StrategyOptions) (StrategyConfig, error) {
	out := c
	if opts.ChunkingStrategy != "" {
		out.chunking = opts.ChunkingStrategy
	}
	if opts.RetrievalStrategy != "" {
		out.retrieval = opts.RetrievalStrategy
	}
	if opts.VectorWeight != nil {
		out.vectorWeight = *opts.VectorWeight
	}
	if opts.TextWeight != nil {
		out.textWeight = *opts.TextWeight
	}
	if opts.TopK != nil {
		out.topK = *opts.TopK
	}
	if opts.OverfetchFactor != nil {
		out.overfetchFactor = *opts.OverfetchFactor
	}
	if err := out.validate(); err != nil {
		return StrategyConfig{}, WrapError(ErrMalformedStrategyConfig, "strategy config", err)
	}
	return out, nil
}

func (c StrategyConfig) validate() error {
	var errs []error
	if !c.chunking.Valid() {
		errs = append(errs, fmt.Errorf("unknown chunking strategy %q", c.chunking))
	}
	if !c.retrieval.Valid() {
		errs = append(errs, fmt.Errorf("unknown retrieval strategy %q", c.retrieval))
	}
	if c.vectorWeight < 0 || math.IsNaN(c.vectorWeight) || math.IsInf(c.vectorWeight, 0) {
		errs = append(errs, fmt.Errorf("vector_weight must be a non-negative number, got %v", c.vectorWeight))
	}
	if c.textWeight < 0 || math.IsNaN(c.textWeight) || math.IsInf(c.textWeight, 0) {
		errs = append(errs, fmt.Errorf("text_weight must be a non-negative number, got %v", c.textWeight))
	}
	if c.topK <= 0 {
		errs = append(errs, fmt.Errorf("top_k must be positive, got %d", c.topK))
	}
	if c.overfetchFactor < 1 {
		errs = append(errs, fmt.Errorf("overfetch_factor must be at least 1, got %d", c.overfetchFactor))
	}
	return errors.Join(errs...)
}

func (c StrategyConfig) ChunkingStrategy() ChunkingStrategy   { return c.chunking }
func (c StrategyConfig) RetrievalStrategy() RetrievalStrategy { return c.retrieval }
func (c StrategyConfig) VectorWeight() float64                { return c.vectorWeight }
func (c StrategyConfig) TextWeight() float64                  { return c.textWeight }
func (c StrategyConfig) TopK() int                            { return c.topK }
func (c StrategyConfig) OverfetchFactor() int                 { return c.overfetchFactor }

// CandidateLimit is the per-signal fetch size used before hybrid fusion.
func (c StrategyConfig) CandidateLimit() int {
	return c.topK * c.overfetchFactor
}

// IsZero reports whether c was never constructed.
func (c StrategyConfig) IsZero() bool {
	return c == StrategyConfig{}
}

// Label names the chunking/retrieval combination, e.g. "speaker_turn/hybrid".
func (c StrategyConfig) Label() string {
	return string(c.chunking) + "/" + string(c.retrieval)
}

// Options returns the fully populated options form of c.
func (c StrategyConfig) Options() StrategyOptions {
	vw, tw, k, f := c.vectorWeight, c.textWeight, c.topK, c.overfetchFactor
	return StrategyOptions{
		ChunkingStrategy:  c.chunking,
		RetrievalStrategy: c.retrieval,
		VectorWeight:      &vw,
		TextWeight:        &tw,
		TopK:              &k,
		OverfetchFactor:   &f,
	}
}

func (c StrategyConfig) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Options())
}

func (c StrategyConfig) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("chunking", string(c.chunking)),
		slog.String("retrieval", string(c.retrieval)),
		slog.Float64("vector_weight", c.vectorWeight),
		slog.Float64("text_weight", c.textWeight),
		slog.Int("top_k", c.topK),
	)
}

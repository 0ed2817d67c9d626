package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/meeting-assistant/internal/core/domain"
	"github.com/kirillkom/meeting-assistant/internal/infrastructure/resilience"
)

type Client struct {
	baseURL    string
	genModel   string
	embedModel string
	httpClient *http.Client
	executor   *resilience.Executor
}

func New(baseURL, genModel, embedModel string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		genModel:   genModel,
		embedModel: embedModel,
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}
}

// NewWithResilience routes every call through executor.
func NewWithResilience(baseURL, genModel, embedModel string, executor *resilience.Executor) *Client {
	c := New(baseURL, genModel, embedModel)
	c.executor = executor
	return c
}

// Embedder is the embedding gateway backed by /api/embed.
type Embedder struct {
	client     *Client
	dimensions int
}

// NewEmbedder checks every returned vector against dimensions when it is positive.
func NewEmbedder(client *Client, dimensions int) *Embedder {
	return &Embedder{client: client, dimensions: dimensions}
}

func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	request := map[string]any{
		"model": e.client.embedModel,
		"input": texts,
	}

	var response struct {
		Embeddings [][]float32 `json:"embeddings"`
	}
	if err := e.client.postJSON(ctx, "/api/embed", request, &response, "embed"); err != nil {
		return nil, wrapKind(domain.ErrEmbeddingFailure, "ollama embed", err)
	}
	if len(response.Embeddings) != len(texts) {
		return nil, domain.WrapError(
			domain.ErrEmbeddingFailure,
			"ollama embed",
			fmt.Errorf("got %d vectors for %d inputs", len(response.Embeddings), len(texts)),
		)
	}
	if e.dimensions > 0 {
		for i, vec := range response.Embeddings {
			if len(vec) != e.dimensions {
				return nil, domain.WrapError(
					domain.ErrEmbeddingFailure,
					"ollama embed",
					fmt.Errorf("vector %d has dimension %d, want %d", i, len(vec), e.dimensions),
				)
			}
		}
	}
	return response.Embeddings, nil
}

func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, domain.WrapError(domain.ErrEmbeddingFailure, "ollama embed query", fmt.Errorf("empty embedding result"))
	}
	return vectors[0], nil
}

type Generator struct {
	client *Client
}

func NewGenerator(client *Client) *Generator {
	return &Generator{client: client}
}

func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	text, err := g.client.generateText(ctx, prompt)
	if err != nil {
		return "", wrapKind(domain.ErrGenerationFailure, "ollama generate", err)
	}
	return text, nil
}

// QueryClassifier asks the generation model to route a question. Any
// failure or unusable output routes to OPEN_ENDED.
type QueryClassifier struct {
	client *Client
	logger *slog.Logger
}

func NewQueryClassifier(client *Client, logger *slog.Logger) *QueryClassifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &QueryClassifier{client: client, logger: logger}
}

func (c *QueryClassifier) Classify(ctx context.Context, question string) domain.RoutedQuery {
	fallback := domain.RoutedQuery{Class: domain.QueryOpenEnded, Question: question}

	respText, err := c.client.generateJSON(ctx, buildQueryClassificationPrompt(question))
	if err != nil {
		c.logger.WarnContext(ctx, "query_classifier_fallback", "reason", "generate", "error", err.Error())
		return fallback
	}

	var result struct {
		Class    string `json:"class"`
		ItemType string `json:"item_type"`
		Assignee string `json:"assignee"`
	}
	if err := json.Unmarshal([]byte(extractJSONObject(respText)), &result); err != nil {
		c.logger.WarnContext(ctx, "query_classifier_fallback", "reason", "parse", "error", err.Error())
		return fallback
	}

	if domain.QueryClass(strings.ToLower(strings.TrimSpace(result.Class))) != domain.QueryStructured {
		return fallback
	}
	routed := domain.RoutedQuery{Class: domain.QueryStructured, Question: question}
	if itemType := domain.ItemType(strings.ToLower(strings.TrimSpace(result.ItemType))); itemType.Valid() {
		routed.ItemType = itemType
	}
	routed.Assignee = strings.TrimSpace(result.Assignee)
	return routed
}

func (c *Client) generateJSON(ctx context.Context, prompt string) (string, error) {
	reqBody := map[string]any{
		"model":  c.genModel,
		"prompt": prompt,
		"stream": false,
		"format": "json",
	}
	return c.generate(ctx, reqBody)
}

func (c *Client) generateText(ctx context.Context, prompt string) (string, error) {
	reqBody := map[string]any{
		"model":  c.genModel,
		"prompt": prompt,
		"stream": false,
	}
	return c.generate(ctx, reqBody)
}

func (c *Client) generate(ctx context.Context, reqBody map[string]any) (string, error) {
	var response struct {
		Response string `json:"response"`
	}
	if err := c.postJSON(ctx, "/api/generate", reqBody, &response, "generate"); err != nil {
		return "", err
	}
	return response.Response, nil
}

func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}

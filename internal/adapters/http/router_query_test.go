package httpadapter

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kirillkom/meeting-assistant/internal/core/domain"
	"github.com/kirillkom/meeting-assistant/internal/observability/metrics"
)

func TestQueryAppliesStrategyOverridesOverDefaults(t *testing.T) {
	queries := &queryServiceFake{}
	handler := NewRouter(testConfig(), &meetingServiceFake{}, queries, nil).Handler()

	payload := []byte(`{"question":"What did Alice say about the budget?","meeting_id":"m-1","strategy":{"chunking_strategy":"naive","text_weight":0.5}}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/query", bytes.NewReader(payload))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
	if queries.filter.MeetingID != "m-1" {
		t.Fatalf("expected meeting filter, got %+v", queries.filter)
	}
	cfg := queries.cfg
	if cfg.ChunkingStrategy() != domain.ChunkingNaive || cfg.TextWeight() != 0.5 {
		t.Fatalf("expected overrides applied, got %s tw=%v", cfg.Label(), cfg.TextWeight())
	}
	if cfg.VectorWeight() != 0.7 || cfg.TopK() != 5 || cfg.RetrievalStrategy() != domain.RetrievalHybrid {
		t.Fatalf("expected untouched fields from defaults, got %+v", cfg.Options())
	}

	var answer map[string]any
	if err := json.NewDecoder(res.Body).Decode(&answer); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if answer["route"] != "retrieval" || answer["text"] != "ok" {
		t.Fatalf("unexpected answer %+v", answer)
	}
}

func TestSearchReturnsNullableScores(t *testing.T) {
	vector := 0.9
	queries := &queryServiceFake{results: []domain.RetrievalResult{
		{Chunk: domain.Chunk{ID: "m-1:speaker_turn:000000", Content: "ship friday"}, VectorScore: &vector},
	}}
	handler := NewRouter(testConfig(), &meetingServiceFake{}, queries, nil).Handler()

	payload := []byte(`{"question":"release date","strategy":{"retrieval_strategy":"semantic"}}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/search", bytes.NewReader(payload))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	body := res.Body.String()
	for _, want := range []string{`"vector_score":0.9`, `"text_score":null`, `"combined_score":null`, `"retrieval_strategy":"semantic"`} {
		if !strings.Contains(body, want) {
			t.Fatalf("response missing %s: %s", want, body)
		}
	}
}

func TestCompareReturnsRunsAndRecordsMetrics(t *testing.T) {
	queries := &queryServiceFake{runs: []domain.StrategyRun{
		{Label: "naive/semantic", Results: []domain.RetrievalResult{}},
		{Label: "naive/hybrid", Error: "index unavailable"},
	}}
	httpMetrics := metrics.NewHTTPServerMetrics(serviceName)
	handler := NewRouter(testConfig(), &meetingServiceFake{}, queries, httpMetrics).Handler()

	req := httptest.NewRequest(http.MethodPost, "/v1/query/compare", bytes.NewReader([]byte(`{"question":"budget"}`)))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	var resp compareResponse
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Question != "budget" || len(resp.Runs) != 2 || resp.Runs[1].Error == "" {
		t.Fatalf("unexpected compare response %+v", resp)
	}

	scrape := httptest.NewRecorder()
	handler.ServeHTTP(scrape, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(scrape.Body.String(), `meeting_assistant_compare_runs_total{service="api",status="error",strategy="naive/hybrid"} 1`) {
		t.Fatalf("expected compare run metric, got:\n%s", scrape.Body.String())
	}
}

func TestQueryRejectsUnknownFields(t *testing.T) {
	handler := newTestHandler(testConfig())

	req := httptest.NewRequest(http.MethodPost, "/v1/query", bytes.NewReader([]byte(`{"question":"q","limit":3}`)))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestNormalizePath(t *testing.T) {
	cases := map[string]string{
		"/v1/meetings":            "/v1/meetings",
		"/v1/meetings/":           "/v1/meetings/",
		"/v1/meetings/abc":        "/v1/meetings/{meeting_id}",
		"/v1/meetings/abc/items":  "/v1/meetings/{meeting_id}/items",
		"/v1/meetings/abc/ingest": "/v1/meetings/{meeting_id}/ingest",
		"/v1/query/compare":       "/v1/query/compare",
	}
	for in, want := range cases {
		if got := normalizePath(in); got != want {
			t.Fatalf("normalizePath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMiddlewareExposesRequestCounters(t *testing.T) {
	m := NewHTTPServerMetrics("api")
	handler := m.Middleware("api", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/meetings/m-1", nil))
	m.RecordQueryRoute("api", "structured", "")
	m.RecordRetrieval("api", "query", "speaker_turn/hybrid", 0, 10*time.Millisecond)

	res := httptest.NewRecorder()
	m.Handler().ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(res.Body)
	text := string(body)

	for _, want := range []string{
		`meeting_assistant_http_requests_total{method="GET",path="/v1/meetings/{meeting_id}",service="api",status="404"} 1`,
		`meeting_assistant_query_route_total{item_type="all",route="structured",service="api"} 1`,
		`meeting_assistant_retrieval_no_evidence_total{endpoint="query",service="api"} 1`,
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("metrics output missing %q\n%s", want, text)
		}
	}
}

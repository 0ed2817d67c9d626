package httpadapter

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/kirillkom/meeting-assistant/internal/config"
	"github.com/kirillkom/meeting-assistant/internal/core/domain"
	"github.com/kirillkom/meeting-assistant/internal/core/ports"
	"github.com/kirillkom/meeting-assistant/internal/observability/metrics"
)

const (
	serviceName    = "api"
	maxUploadBytes = 32 << 20
	maxJSONBytes   = 4 << 20
)

type Router struct {
	meetings ports.MeetingService
	queries  ports.QueryService
	metrics  *metrics.HTTPServerMetrics

	defaultStrategy domain.StrategyConfig
	rateLimitRPS    float64
	rateLimitBurst  int
	maxInFlight     int
	queueWait       time.Duration
}

func NewRouter(
	cfg config.Config,
	meetings ports.MeetingService,
	queries ports.QueryService,
	httpMetrics *metrics.HTTPServerMetrics,
) *Router {
	strategy, err := cfg.DefaultStrategy()
	if err != nil {
		slog.Warn("default_strategy_invalid", "error", err.Error())
		strategy = domain.DefaultStrategyConfig()
	}
	return &Router{
		meetings:        meetings,
		queries:         queries,
		metrics:         httpMetrics,
		defaultStrategy: strategy,
		rateLimitRPS:    cfg.APIRateLimitRPS,
		rateLimitBurst:  cfg.APIRateLimitBurst,
		maxInFlight:     cfg.APIMaxInFlight,
		queueWait:       cfg.APIQueueWait,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", rt.healthz)
	if rt.metrics != nil {
		mux.Handle("GET /metrics", rt.metrics.Handler())
	}

	mux.HandleFunc("POST /v1/query", rt.ask)
	mux.HandleFunc("POST /v1/search", rt.search)
	mux.HandleFunc("POST /v1/query/compare", rt.compare)

	mux.HandleFunc("POST /v1/meetings", rt.uploadMeeting)
	mux.HandleFunc("GET /v1/meetings", rt.listMeetings)
	mux.HandleFunc("GET /v1/meetings/{id}", rt.getMeeting)
	mux.HandleFunc("DELETE /v1/meetings/{id}", rt.deleteMeeting)
	mux.HandleFunc("POST /v1/meetings/{id}/ingest", rt.reindexMeeting)
	mux.HandleFunc("PUT /v1/meetings/{id}/items", rt.replaceItems)
	mux.HandleFunc("GET /v1/meetings/{id}/items", rt.listItems)

	var handler http.Handler = mux
	handler = backpressureMiddleware(handler, rt.maxInFlight, rt.queueWait)
	handler = rateLimitMiddleware(handler, rt.rateLimitRPS, rt.rateLimitBurst)
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := mapErrorToHTTPStatus(err)
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "request_failed",
			"request_id", requestIDFromContext(r.Context()),
			"path", r.URL.Path,
			"status", status,
			"error", err.Error(),
		)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// decodeOptionalJSON treats an empty body as an empty object.
func decodeOptionalJSON(r *http.Request, out any) error {
	err := decodeJSON(r, out)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func decodeJSON(r *http.Request, out any) error {
	decoder := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxJSONBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(out); err != nil {
		return domain.WrapError(domain.ErrInvalidInput, "decode request", err)
	}
	return nil
}

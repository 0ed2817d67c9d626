package httpadapter

import (
	"net/http"
	"time"

	"github.com/kirillkom/meeting-assistant/internal/core/domain"
)

type queryRequest struct {
	Question  string                 `json:"question"`
	MeetingID string                 `json:"meeting_id,omitempty"`
	Strategy  domain.StrategyOptions `json:"strategy,omitempty"`
}

type searchResponse struct {
	Strategy domain.StrategyConfig    `json:"strategy"`
	Results  []domain.RetrievalResult `json:"results"`
}

type compareResponse struct {
	Question string               `json:"question"`
	Runs     []domain.StrategyRun `json:"runs"`
}

func (rt *Router) decodeQuery(r *http.Request) (queryRequest, domain.StrategyConfig, error) {
	var req queryRequest
	if err := decodeJSON(r, &req); err != nil {
		return req, domain.StrategyConfig{}, err
	}
	cfg, err := rt.defaultStrategy.With(req.Strategy)
	if err != nil {
		return req, domain.StrategyConfig{}, err
	}
	return req, cfg, nil
}

func (rt *Router) ask(w http.ResponseWriter, r *http.Request) {
	req, cfg, err := rt.decodeQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	start := time.Now()
	answer, err := rt.queries.Ask(r.Context(), req.Question, cfg, domain.SearchFilter{MeetingID: req.MeetingID})
	if err != nil {
		writeError(w, r, err)
		return
	}

	if rt.metrics != nil {
		rt.metrics.RecordQueryRoute(serviceName, string(answer.Route), string(answer.ItemType))
		if answer.Route == domain.RouteRetrieval {
			rt.metrics.RecordRetrieval(serviceName, "query", cfg.Label(), len(answer.CitedSources), time.Since(start))
		} else {
			rt.metrics.ObserveQueryDuration(serviceName, "query", time.Since(start))
		}
	}
	writeJSON(w, http.StatusOK, answer)
}

func (rt *Router) search(w http.ResponseWriter, r *http.Request) {
	req, cfg, err := rt.decodeQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	start := time.Now()
	results, err := rt.queries.Search(r.Context(), req.Question, cfg, domain.SearchFilter{MeetingID: req.MeetingID})
	if err != nil {
		writeError(w, r, err)
		return
	}
	if rt.metrics != nil {
		rt.metrics.RecordRetrieval(serviceName, "search", cfg.Label(), len(results), time.Since(start))
	}
	writeJSON(w, http.StatusOK, searchResponse{Strategy: cfg, Results: results})
}

func (rt *Router) compare(w http.ResponseWriter, r *http.Request) {
	req, cfg, err := rt.decodeQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	runs, err := rt.queries.Compare(r.Context(), req.Question, cfg, domain.SearchFilter{MeetingID: req.MeetingID})
	if err != nil {
		writeError(w, r, err)
		return
	}
	if rt.metrics != nil {
		for _, run := range runs {
			rt.metrics.RecordCompareRun(serviceName, run.Label, run.Error != "")
		}
	}
	writeJSON(w, http.StatusOK, compareResponse{Question: req.Question, Runs: runs})
}

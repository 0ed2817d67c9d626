package httpadapter

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/kirillkom/meeting-assistant/internal/core/domain"
	"github.com/kirillkom/meeting-assistant/internal/core/ports"
)

type meetingsResponse struct {
	Meetings []domain.Meeting `json:"meetings"`
}

type itemsResponse struct {
	Items []domain.ExtractedItem `json:"items"`
}

type reindexRequest struct {
	ChunkingStrategy domain.ChunkingStrategy `json:"chunking_strategy"`
}

func (rt *Router) uploadMeeting(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, domain.WrapError(domain.ErrInvalidInput, "upload meeting", errors.New("multipart field 'file' is required")))
		return
	}
	defer file.Close()

	strategies, err := parseStrategies(r.FormValue("strategies"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	meeting, err := rt.meetings.Upload(r.Context(), ports.UploadRequest{
		Title:      strings.TrimSpace(r.FormValue("title")),
		SourceFile: fileHeader.Filename,
		Format:     strings.TrimSpace(r.FormValue("format")),
		Strategies: strategies,
		Body:       file,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	if rt.metrics != nil {
		rt.metrics.RecordUpload(serviceName, meeting.TranscriptFormat)
	}
	writeJSON(w, http.StatusAccepted, meeting)
}

func parseStrategies(raw string) ([]domain.ChunkingStrategy, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var out []domain.ChunkingStrategy
	for _, part := range strings.Split(raw, ",") {
		strategy := domain.ChunkingStrategy(strings.ToLower(strings.TrimSpace(part)))
		if strategy == "" {
			continue
		}
		if !strategy.Valid() {
			return nil, domain.WrapError(domain.ErrMalformedStrategyConfig, "parse strategies", fmt.Errorf("unknown chunking strategy %q", strategy))
		}
		out = append(out, strategy)
	}
	return out, nil
}

func (rt *Router) listMeetings(w http.ResponseWriter, r *http.Request) {
	meetings, err := rt.meetings.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if meetings == nil {
		meetings = []domain.Meeting{}
	}
	writeJSON(w, http.StatusOK, meetingsResponse{Meetings: meetings})
}

func (rt *Router) getMeeting(w http.ResponseWriter, r *http.Request) {
	meeting, err := rt.meetings.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, meeting)
}

func (rt *Router) deleteMeeting(w http.ResponseWriter, r *http.Request) {
	if err := rt.meetings.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (rt *Router) reindexMeeting(w http.ResponseWriter, r *http.Request) {
	var req reindexRequest
	if err := decodeOptionalJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	meetingID := r.PathValue("id")
	strategy, err := rt.meetings.Reindex(r.Context(), meetingID, req.ChunkingStrategy)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{
		"meeting_id":        meetingID,
		"chunking_strategy": string(strategy),
		"status":            "queued",
	})
}

func (rt *Router) replaceItems(w http.ResponseWriter, r *http.Request) {
	var req itemsResponse
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	items, err := rt.meetings.ReplaceItems(r.Context(), r.PathValue("id"), req.Items)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, itemsResponse{Items: items})
}

func (rt *Router) listItems(w http.ResponseWriter, r *http.Request) {
	items, err := rt.meetings.ListItems(r.Context(), domain.ItemFilter{
		MeetingID: r.PathValue("id"),
		ItemType:  domain.ItemType(strings.ToLower(strings.TrimSpace(r.URL.Query().Get("item_type")))),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, itemsResponse{Items: items})
}

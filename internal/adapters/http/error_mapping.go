package httpadapter

import (
	"net/http"

	"github.com/kirillkom/meeting-assistant/internal/core/domain"
)

// mapErrorToHTTPStatus checks ErrTimeout before the stage kinds it is
// combined with.
func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrMalformedStrategyConfig),
		domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrMeetingNotFound):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrTimeout):
		return http.StatusGatewayTimeout
	case domain.IsKind(err, domain.ErrEmbeddingFailure),
		domain.IsKind(err, domain.ErrIndexUnavailable),
		domain.IsKind(err, domain.ErrGenerationFailure),
		domain.IsKind(err, domain.ErrStorageUnavailable),
		domain.IsKind(err, domain.ErrQueueUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

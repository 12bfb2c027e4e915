package httpadapter

import (
	"net/http"

	"github.com/vietlawhub/legal-gateway/internal/core/domain"
)

// mapErrorToHTTPStatus translates domain error kinds to status codes.
// Anything unclassified is a 500.
func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrDocumentNotFound):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

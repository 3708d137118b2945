package respond

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"cvbuilder-backend/internal/query"
	"cvbuilder-backend/internal/shared/apperr"
	"cvbuilder-backend/internal/shared/telemetry"
)

// Failure maps the shared error kinds to standardized responses.
// Query construction errors are server faults; their message is only exposed outside release mode.
func Failure(c *gin.Context, err error) {
	switch {
	case apperr.IsNotFound(err):
		Error(c, http.StatusNotFound, "not_found", err.Error(), nil)
	case apperr.IsBadRequest(err):
		Error(c, http.StatusBadRequest, "invalid_request", err.Error(), nil)
	case errors.Is(err, query.ErrInvalidOptions):
		Error(c, http.StatusBadRequest, "invalid_request", err.Error(), nil)
	case errors.Is(err, query.ErrColumnNotFound), errors.Is(err, query.ErrUnsupportedOperator):
		msg := "Query could not be built"
		if gin.Mode() != gin.ReleaseMode {
			msg = err.Error()
		}
		Error(c, http.StatusInternalServerError, "query_error", msg, nil)
	default:
		telemetry.Error("handler.failure", map[string]any{
			"request_id": c.GetString("requestId"),
			"error":      err,
		})
		Error(c, http.StatusInternalServerError, "internal", "Unexpected server error", nil)
	}
}

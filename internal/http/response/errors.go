package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mindforge-ai/mindforge-backend/internal/platform/kberr"
)

// statusFor maps domain sentinels to an HTTP status and a stable error code.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, kberr.ErrNotFound):
		return http.StatusNotFound, "knowledge_not_found"
	case errors.Is(err, kberr.ErrBrainNotFound):
		return http.StatusNotFound, "brain_not_found"
	case errors.Is(err, kberr.ErrNotLinked):
		return http.StatusNotFound, "not_linked"
	case errors.Is(err, kberr.ErrValidation):
		return http.StatusUnprocessableEntity, "validation_failed"
	case errors.Is(err, kberr.ErrInvalidTransition):
		return http.StatusUnprocessableEntity, "invalid_status_transition"
	case errors.Is(err, kberr.ErrDuplicateContent):
		return http.StatusConflict, "duplicate_content"
	case errors.Is(err, kberr.ErrConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, kberr.ErrInconsistentTree):
		return http.StatusInternalServerError, "inconsistent_tree"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// RespondDomainError translates a service error into the envelope. Use it
// for any error that crossed the service boundary.
func RespondDomainError(c *gin.Context, err error) {
	status, code := statusFor(err)
	RespondError(c, status, code, err)
}

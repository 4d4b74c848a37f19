package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mindforge-ai/mindforge-backend/internal/http/response"
)

const (
	headerUserID = "X-User-ID"
	ctxKeyUserID = "user_id"
)

// RequireUser resolves the calling user from the X-User-ID header set by the
// upstream gateway. Requests without a parseable id are rejected before any
// handler runs.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(headerUserID))
		if raw == "" {
			response.RespondError(c, http.StatusUnauthorized, "missing_user", nil)
			c.Abort()
			return
		}
		id, err := uuid.Parse(raw)
		if err != nil || id == uuid.Nil {
			response.RespondError(c, http.StatusUnauthorized, "invalid_user", err)
			c.Abort()
			return
		}
		c.Set(ctxKeyUserID, id)
		c.Next()
	}
}

// UserID returns the id stored by RequireUser.
func UserID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(ctxKeyUserID)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok && id != uuid.Nil
}

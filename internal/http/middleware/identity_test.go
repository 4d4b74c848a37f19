package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func identityRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequireUser())
	r.GET("/whoami", func(c *gin.Context) {
		id, ok := UserID(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.String(http.StatusOK, id.String())
	})
	return r
}

func TestRequireUserAcceptsValidHeader(t *testing.T) {
	t.Parallel()
	r := identityRouter()
	id := uuid.New()

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("X-User-ID", id.String())
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: got=%d want=%d body=%s", rec.Code, http.StatusOK, rec.Body.String())
	}
	if rec.Body.String() != id.String() {
		t.Fatalf("unexpected body: got=%q want=%q", rec.Body.String(), id)
	}
}

func TestRequireUserRejectsBadHeaders(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name  string
		value string
	}{
		{"missing", ""},
		{"garbage", "not-a-uuid"},
		{"nil uuid", uuid.Nil.String()},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			r := identityRouter()
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			if tc.value != "" {
				req.Header.Set("X-User-ID", tc.value)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("unexpected status: got=%d want=%d", rec.Code, http.StatusUnauthorized)
			}
		})
	}
}

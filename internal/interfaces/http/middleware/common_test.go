package middleware

import (
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/storehub/backend/tests/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func okRouter(mw ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(mw...)
	r.Any("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"request_id": GetRequestID(c)})
	})
	return r
}

func TestCORS(t *testing.T) {
	cfg := DefaultCORSConfig()
	cfg.AllowOrigins = []string{"https://admin.example.com"}
	r := okRouter(CORSWithConfig(cfg))

	t.Run("allowed origin gets headers", func(t *testing.T) {
		w := testutil.PerformRequest(t, r, http.MethodGet, "/test", nil,
			map[string]string{"Origin": "https://admin.example.com"})
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "https://admin.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("unknown origin gets none", func(t *testing.T) {
		w := testutil.PerformRequest(t, r, http.MethodGet, "/test", nil,
			map[string]string{"Origin": "https://evil.example.com"})
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight is answered directly", func(t *testing.T) {
		w := testutil.PerformRequest(t, r, http.MethodOptions, "/test", nil,
			map[string]string{"Origin": "https://admin.example.com"})
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.NotEmpty(t, w.Header().Get("Access-Control-Allow-Methods"))
	})
}

func TestRequestID(t *testing.T) {
	r := okRouter(RequestID())

	t.Run("generates one", func(t *testing.T) {
		w := testutil.PerformRequest(t, r, http.MethodGet, "/test", nil, nil)
		id := w.Header().Get(RequestIDHeader)
		assert.Len(t, id, 36)
		assert.Equal(t, id, testutil.JSONBody(t, w)["request_id"])
	})

	t.Run("keeps the caller's", func(t *testing.T) {
		w := testutil.PerformRequest(t, r, http.MethodGet, "/test", nil,
			map[string]string{RequestIDHeader: "abc-123"})
		assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
	})

	t.Run("replaces oversized ids", func(t *testing.T) {
		long := strings.Repeat("x", MaxRequestIDLength+1)
		w := testutil.PerformRequest(t, r, http.MethodGet, "/test", nil,
			map[string]string{RequestIDHeader: long})
		assert.NotEqual(t, long, w.Header().Get(RequestIDHeader))
		assert.Len(t, w.Header().Get(RequestIDHeader), 36)
	})
}

func TestSecure(t *testing.T) {
	cfg := DefaultSecurityConfig()
	cfg.HSTSEnabled = true
	r := okRouter(SecureWithConfig(cfg))

	w := testutil.PerformRequest(t, r, http.MethodGet, "/test", nil, nil)

	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Contains(t, w.Header().Get("Strict-Transport-Security"), "max-age=")
}

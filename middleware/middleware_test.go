package middleware

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

const secret = "8f742231b10e8888abcd99yyyzzz85a5"

func init() {
	gin.SetMode(gin.TestMode)
}

func sign(t *testing.T, req *http.Request, body string, ts time.Time) {
	t.Helper()
	stamp := strconv.FormatInt(ts.Unix(), 10)
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "v0:%s:%s", stamp, body)
	req.Header.Set("X-Slack-Request-Timestamp", stamp)
	req.Header.Set("X-Slack-Signature", "v0="+hex.EncodeToString(mac.Sum(nil)))
}

func echoRouter(t *testing.T, mw gin.HandlerFunc) *gin.Engine {
	t.Helper()
	r := gin.New()
	r.POST("/hook", mw, func(c *gin.Context) {
		body, _ := io.ReadAll(c.Request.Body)
		c.String(http.StatusOK, string(body))
	})
	return r
}

func TestSlackVerifier(t *testing.T) {
	body := "command=%2Fshiritori&text=2"

	tests := []struct {
		name   string
		secret string
		prep   func(*http.Request)
		want   int
	}{
		{"valid", secret, func(r *http.Request) { sign(t, r, body, time.Now()) }, http.StatusOK},
		{"missing headers", secret, func(*http.Request) {}, http.StatusUnauthorized},
		{"stale timestamp", secret, func(r *http.Request) { sign(t, r, body, time.Now().Add(-10*time.Minute)) }, http.StatusUnauthorized},
		{"tampered body", secret, func(r *http.Request) { sign(t, r, "text=48", time.Now()) }, http.StatusUnauthorized},
		{"no secret configured", "", func(r *http.Request) { sign(t, r, body, time.Now()) }, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := echoRouter(t, SlackVerifier(tt.secret, zaptest.NewLogger(t)))
			req := httptest.NewRequest(http.MethodPost, "/hook", strings.NewReader(body))
			tt.prep(req)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
			if tt.want == http.StatusOK {
				assert.Equal(t, body, w.Body.String(), "handler sees the original body")
			}
		})
	}
}

func TestSweepToken(t *testing.T) {
	router := echoRouter(t, SweepToken("s3cret"))

	for header, want := range map[string]int{
		"":              http.StatusUnauthorized,
		"Bearer nope":   http.StatusUnauthorized,
		"Bearer s3cret": http.StatusOK,
	} {
		req := httptest.NewRequest(http.MethodPost, "/hook", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, want, w.Code, "header %q", header)
	}

	open := echoRouter(t, SweepToken(""))
	w := httptest.NewRecorder()
	open.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/hook", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	r := gin.New()
	r.Use(RequestLogger(zap.New(core)))
	r.GET("/games/:id", func(c *gin.Context) {
		c.String(http.StatusOK, RequestID(c))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/games/3", nil))

	id := w.Header().Get(RequestIDHeader)
	require.NotEmpty(t, id)
	assert.Equal(t, id, w.Body.String())

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "/games/:id", fields["path"])
	assert.Equal(t, int64(http.StatusOK), fields["status"])
	assert.Equal(t, id, fields["request_id"])

	req := httptest.NewRequest(http.MethodGet, "/games/4", nil)
	req.Header.Set(RequestIDHeader, "upstream-id")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "upstream-id", w.Header().Get(RequestIDHeader))
}

func TestCORSPreflight(t *testing.T) {
	r := gin.New()
	r.Use(CORS())
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/health", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

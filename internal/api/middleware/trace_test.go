package middleware_test

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/phrazzld/policyhub-api/internal/api/middleware"
	"github.com/phrazzld/policyhub-api/internal/api/shared"
	"github.com/phrazzld/policyhub-api/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTraceMiddleware(t *testing.T) {
	var logBuf strings.Builder
	base := slog.New(slog.NewTextHandler(&logBuf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	var seenTraceID string
	handler := middleware.TraceMiddleware(base)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenTraceID = shared.GetTraceID(r.Context())
		logger.FromContext(r.Context()).Info("inside handler")
		w.WriteHeader(http.StatusAccepted)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/schedule-message", nil))

	require.Len(t, seenTraceID, 32)
	assert.Equal(t, seenTraceID, w.Header().Get(shared.TraceIDHeader))
	assert.Equal(t, http.StatusAccepted, w.Code)

	logs := logBuf.String()
	assert.Contains(t, logs, "msg=\"inside handler\" trace_id="+seenTraceID)
	assert.Contains(t, logs, "request completed")
	assert.Contains(t, logs, "status=202")
}

func TestTraceMiddleware_DistinctIDs(t *testing.T) {
	var ids []string
	handler := middleware.TraceMiddleware(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ids = append(ids, shared.GetTraceID(r.Context()))
	}))

	for i := 0; i < 2; i++ {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	}

	require.Len(t, ids, 2)
	assert.NotEqual(t, ids[0], ids[1])
}

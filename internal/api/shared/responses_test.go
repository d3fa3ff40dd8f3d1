package shared

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/phrazzld/policyhub-api/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// requestWithLogger returns a request whose context carries a trace ID and a
// logger writing to buf.
func requestWithLogger(buf *strings.Builder) *http.Request {
	log := slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	ctx := context.WithValue(context.Background(), TraceIDKey, "test-trace-id")
	ctx = logger.WithLogger(ctx, log.With("trace_id", "test-trace-id"))
	return httptest.NewRequest(http.MethodGet, "/api/upload/csv", nil).WithContext(ctx)
}

func TestRespondWithJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()

	RespondWithJSON(w, req, http.StatusCreated, map[string]interface{}{"job_id": "msg_1", "count": 2})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "msg_1", body["job_id"])
	assert.Equal(t, float64(2), body["count"])
}

func TestRespondWithJSON_EncodingError(t *testing.T) {
	var logBuf strings.Builder
	req := requestWithLogger(&logBuf)
	w := httptest.NewRecorder()

	RespondWithJSON(w, req, http.StatusOK, map[string]interface{}{"bad": make(chan int)})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, logBuf.String(), "failed to encode JSON response")
}

func TestRespondWithError(t *testing.T) {
	var logBuf strings.Builder
	req := requestWithLogger(&logBuf)
	w := httptest.NewRecorder()

	RespondWithError(w, req, http.StatusBadRequest, "Invalid request")

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Invalid request", resp.Error)
	assert.Equal(t, "test-trace-id", resp.TraceID)
}

func TestRespondWithError_NoTraceID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()

	RespondWithError(w, req, http.StatusNotFound, "Not found")

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Empty(t, resp.TraceID)
	assert.NotContains(t, w.Body.String(), "trace_id")
}

func TestRespondWithErrorAndLog(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		err       error
		opts      []ResponseOption
		wantLevel string
	}{
		{"server error", http.StatusInternalServerError, errors.New("connection reset"), nil, "level=ERROR"},
		{"client error", http.StatusBadRequest, errors.New("bad day"), nil, "level=DEBUG"},
		{"elevated client error", http.StatusConflict, errors.New("in flight"),
			[]ResponseOption{WithElevatedLogLevel()}, "level=WARN"},
		{"queue full", http.StatusServiceUnavailable, errors.New("queue full"), nil, "level=WARN"},
		{"rate limited", http.StatusTooManyRequests, errors.New("slow down"), nil, "level=WARN"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var logBuf strings.Builder
			req := requestWithLogger(&logBuf)
			w := httptest.NewRecorder()

			RespondWithErrorAndLog(w, req, tc.status, "Something went wrong", tc.err, tc.opts...)

			assert.Equal(t, tc.status, w.Code)

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, "Something went wrong", resp.Error)
			assert.Equal(t, "test-trace-id", resp.TraceID)

			logs := logBuf.String()
			assert.Contains(t, logs, tc.wantLevel)
			assert.Contains(t, logs, "trace_id=test-trace-id")
			assert.Contains(t, logs, "error_type=")
		})
	}
}

func TestRespondWithErrorAndLog_RedactsDetails(t *testing.T) {
	var logBuf strings.Builder
	req := requestWithLogger(&logBuf)
	w := httptest.NewRecorder()

	err := errors.New("open /var/lib/policyhub/uploads/1.csv: user ada@example.com")
	RespondWithErrorAndLog(w, req, http.StatusInternalServerError, "Failed to process file", err)

	assert.NotContains(t, w.Body.String(), "ada@example.com")
	assert.NotContains(t, logBuf.String(), "ada@example.com")
	assert.NotContains(t, logBuf.String(), "/var/lib/policyhub")
}

func TestRespondWithErrorAndLog_RetryAfter(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	w := httptest.NewRecorder()

	RespondWithErrorAndLog(w, req, http.StatusServiceUnavailable, "Busy", nil, WithRetryAfter(5))

	assert.Equal(t, "5", w.Header().Get("Retry-After"))
}

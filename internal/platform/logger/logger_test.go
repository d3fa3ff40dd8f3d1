// Package logger_test contains tests for the logger package
package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/phrazzld/policyhub-api/internal/config"
	"github.com/phrazzld/policyhub-api/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupWithWriter_Levels(t *testing.T) {
	original := slog.Default()
	t.Cleanup(func() { slog.SetDefault(original) })

	tests := []struct {
		level       string
		debugLogged bool
		infoLogged  bool
		warnLogged  bool
	}{
		{level: "debug", debugLogged: true, infoLogged: true, warnLogged: true},
		{level: "info", debugLogged: false, infoLogged: true, warnLogged: true},
		{level: "warn", debugLogged: false, infoLogged: false, warnLogged: true},
		{level: "ERROR", debugLogged: false, infoLogged: false, warnLogged: false},
		{level: "bogus", debugLogged: false, infoLogged: true, warnLogged: true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			l, err := logger.SetupWithWriter(config.ServerConfig{LogLevel: tt.level}, &buf)
			require.NoError(t, err)
			require.NotNil(t, l)

			l.Debug("debug message")
			l.Info("info message")
			l.Warn("warn message")

			out := buf.String()
			assert.Equal(t, tt.debugLogged, strings.Contains(out, "debug message"))
			assert.Equal(t, tt.infoLogged, strings.Contains(out, "info message"))
			assert.Equal(t, tt.warnLogged, strings.Contains(out, "warn message"))
		})
	}
}

func TestSetupWithWriter_JSONAndDefault(t *testing.T) {
	original := slog.Default()
	t.Cleanup(func() { slog.SetDefault(original) })

	var buf bytes.Buffer
	_, err := logger.SetupWithWriter(config.ServerConfig{LogLevel: "info"}, &buf)
	require.NoError(t, err)

	slog.Info("via default", "job_id", "msg_1")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "via default", entry["msg"])
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "msg_1", entry["job_id"])
}

func TestContextHelpers(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(slog.NewJSONHandler(&buf, nil))
	fallback := slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))

	ctx := logger.WithLogger(context.Background(), l)

	assert.Same(t, l, logger.FromContext(ctx))
	assert.Same(t, l, logger.FromContextOrDefault(ctx, fallback))
	assert.Same(t, fallback, logger.FromContextOrDefault(context.Background(), fallback))
	assert.Same(t, slog.Default(), logger.FromContext(context.Background()))
	assert.Same(t, slog.Default(), logger.FromContextOrDefault(context.Background(), nil))
}

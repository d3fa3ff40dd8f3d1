package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/policyhub-api/internal/api"
	"github.com/phrazzld/policyhub-api/internal/domain"
	"github.com/phrazzld/policyhub-api/internal/ingest"
	"github.com/phrazzld/policyhub-api/internal/platform/memory"
	"github.com/phrazzld/policyhub-api/internal/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// schedulerServer serves the scheduling API backed by a memory store.
func schedulerServer(t *testing.T) *httptest.Server {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	scheduler := task.NewScheduler(
		memory.NewDB().ScheduledMessages(),
		func(context.Context, *domain.ScheduledMessage) error { return nil },
		task.SchedulerConfig{Location: time.UTC},
		logger,
	)
	require.NoError(t, scheduler.Start(context.Background()))
	t.Cleanup(scheduler.Stop)

	h := api.NewScheduleHandler(scheduler, logger)
	r := chi.NewRouter()
	r.Post("/api/schedule-message", h.ScheduleMessage)
	r.Get("/api/scheduled-messages", h.ListScheduledMessages)
	r.Delete("/api/scheduled-messages/{id}", h.CancelScheduledMessage)
	r.Get("/api/scheduler/stats", h.Stats)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

// execute runs policyctl with args and returns its stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)

	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func memoryConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := fmt.Sprintf("server:\n  log_level: error\ndatabase:\n  driver: memory\ningest:\n  upload_dir: %q\nscheduler:\n  timezone: UTC\n",
		t.TempDir())
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestScheduleListCancelStats(t *testing.T) {
	srv := schedulerServer(t)

	out, err := execute(t, "--server", srv.URL, "schedule",
		"--message", "Renewal reminder", "--day", "2099-01-02", "--time", "09:30")
	require.NoError(t, err)

	var created api.ScheduledMessageResponse
	require.NoError(t, json.Unmarshal([]byte(out), &created))
	assert.Equal(t, "pending", created.Status)
	assert.Equal(t, "2099-01-02", created.ScheduledDate)
	require.NotEmpty(t, created.JobID)

	out, err = execute(t, "--server", srv.URL, "list", "--status", "pending")
	require.NoError(t, err)
	var list api.ScheduledMessageListResponse
	require.NoError(t, json.Unmarshal([]byte(out), &list))
	require.Equal(t, 1, list.Count)
	assert.Equal(t, created.JobID, list.Messages[0].JobID)

	out, err = execute(t, "--server", srv.URL, "cancel", created.JobID)
	require.NoError(t, err)
	var cancelled api.CancelResponse
	require.NoError(t, json.Unmarshal([]byte(out), &cancelled))
	assert.Equal(t, created.JobID, cancelled.JobID)
	assert.Equal(t, "cancelled", cancelled.Status)

	out, err = execute(t, "--server", srv.URL, "stats")
	require.NoError(t, err)
	var stats task.SchedulerStats
	require.NoError(t, json.Unmarshal([]byte(out), &stats))
	assert.Equal(t, 1, stats.Total)
	assert.Equal(t, 1, stats.Cancelled)
	assert.Zero(t, stats.Pending)
}

func TestServerErrorsCarryExitCodes(t *testing.T) {
	srv := schedulerServer(t)

	t.Run("rejected schedule", func(t *testing.T) {
		_, err := execute(t, "--server", srv.URL, "schedule",
			"--message", "late", "--day", "2000-01-01", "--time", "09:00")
		require.Error(t, err)
		assert.Equal(t, exitValidation, exitCode(err))
		assert.Contains(t, err.Error(), "server returned 400")
	})

	t.Run("unknown job", func(t *testing.T) {
		_, err := execute(t, "--server", srv.URL, "cancel", "does-not-exist")
		require.Error(t, err)
		assert.Equal(t, exitValidation, exitCode(err))
		assert.Contains(t, err.Error(), "server returned 404")
	})

	t.Run("server down", func(t *testing.T) {
		dead := httptest.NewServer(http.NotFoundHandler())
		url := dead.URL
		dead.Close()

		_, err := execute(t, "--server", url, "stats")
		require.Error(t, err)
		assert.Equal(t, exitAPI, exitCode(err))
	})

	t.Run("bad server url", func(t *testing.T) {
		_, err := execute(t, "--server", "localhost", "stats")
		require.Error(t, err)
		assert.Equal(t, exitUsage, exitCode(err))
	})
}

func TestResponseError(t *testing.T) {
	err := responseError(http.StatusServiceUnavailable, []byte(`{"error":"Import service is busy","trace_id":"abc"}`))
	assert.Equal(t, exitAPI, exitCode(err))
	assert.EqualError(t, err, "server returned 503: Import service is busy (trace_id=abc)")

	err = responseError(http.StatusBadGateway, []byte("<html>bad gateway</html>"))
	assert.EqualError(t, err, "http status=502 body=<html>bad gateway</html>")
}

func TestImport(t *testing.T) {
	cfg := memoryConfig(t)
	path := filepath.Join(t.TempDir(), "policies.csv")
	require.NoError(t, os.WriteFile(path, []byte(
		"Policy Number,Email,Policy Category Name,Carrier Company Name\n"+
			"POL-1,ada@example.com,Auto,Acme Mutual\n"+
			"POL-2,grace@example.com,,Acme Mutual\n"), 0o600))

	out, err := execute(t, "--config", cfg, "import", path)
	require.NoError(t, err)

	var report ingest.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 2, report.TotalRecords)
	assert.Equal(t, 1, report.SuccessfulInserts)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, 2, report.Errors[0].Row)

	_, statErr := os.Stat(path)
	assert.NoError(t, statErr, "import leaves the source file in place")

	_, err = execute(t, "--config", cfg, "import", "--strict", path)
	require.Error(t, err)
	assert.Equal(t, exitValidation, exitCode(err))
	assert.Contains(t, err.Error(), "1 of 2 rows failed")
}

func TestImport_Rejections(t *testing.T) {
	cfg := memoryConfig(t)
	dir := t.TempDir()

	txt := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(txt, []byte("hello"), 0o600))
	_, err := execute(t, "--config", cfg, "import", txt)
	assert.Equal(t, exitUsage, exitCode(err))
	assert.ErrorIs(t, err, ingest.ErrUnsupportedFileType)

	fake := filepath.Join(dir, "policies.xlsx")
	require.NoError(t, os.WriteFile(fake, []byte("Policy Number\nPOL-1\n"), 0o600))
	_, err = execute(t, "--config", cfg, "import", fake)
	assert.Equal(t, exitValidation, exitCode(err))
	assert.ErrorIs(t, err, ingest.ErrUnsupportedFileType)

	_, err = execute(t, "--config", cfg, "import", filepath.Join(dir, "missing.csv"))
	assert.Equal(t, exitUsage, exitCode(err))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestMigrate_RequiresPostgres(t *testing.T) {
	cfg := memoryConfig(t)

	_, err := execute(t, "--config", cfg, "migrate", "sideways")
	assert.Equal(t, exitUsage, exitCode(err))
	assert.ErrorContains(t, err, `unknown migration command "sideways"`)

	_, err = execute(t, "--config", cfg, "migrate", "status")
	assert.Equal(t, exitUsage, exitCode(err))
	assert.ErrorContains(t, err, "requires the postgres driver")
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, exitOK, exitCode(nil))
	assert.Equal(t, exitFailure, exitCode(errors.New("plain")))
	assert.Equal(t, exitDB, exitCode(fmt.Errorf("wrapped: %w", withCode(exitDB, errors.New("db")))))
	assert.NoError(t, withCode(exitDB, nil))
}

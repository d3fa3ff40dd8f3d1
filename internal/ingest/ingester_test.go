package ingest

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/phrazzld/policyhub-api/internal/platform/memory"
	"github.com/phrazzld/policyhub-api/internal/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIngester(t *testing.T, queueSize, workers int) *Ingester {
	t.Helper()

	logger := discardLogger()
	queue := task.NewTaskQueue(queueSize, logger)
	if workers > 0 {
		pool := task.NewWorkerPool(queue, task.WorkerPoolConfig{WorkerCount: workers}, logger)
		pool.Start()
		t.Cleanup(pool.Stop)
	}

	return NewIngester(queue, newTestPipeline(memory.NewDB().Stores()), workers, logger)
}

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestIngester_Ingest(t *testing.T) {
	ing := newTestIngester(t, 4, 2)
	path := writeTempFile(t, "upload.csv",
		"Policy Number,Email,Policy Category Name,Carrier Company Name\n"+
			"POL-1,ada@example.com,Health,Acme Mutual\n"+
			"POL-1,ada@example.com,Health,Acme Mutual\n"+
			"POL-2,grace@example.com,,Acme Mutual\n")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	report, err := ing.Ingest(ctx, path, FileTypeCSV)
	require.NoError(t, err)
	assert.Equal(t, 3, report.TotalRecords)
	assert.Equal(t, 2, report.SuccessfulInserts)
	assert.Equal(t, 1, report.Summary.Policies)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, 3, report.Errors[0].Row)

	_, statErr := os.Stat(path)
	assert.ErrorIs(t, statErr, os.ErrNotExist)

	status := ing.Status()
	assert.Equal(t, 2, status.Workers)
	assert.Equal(t, 4, status.QueueCapacity)
	assert.Equal(t, uint64(1), status.CompletedTotal)
	assert.Zero(t, status.FailedTotal)
	assert.Zero(t, status.InFlight)
}

func TestIngester_ParseFailureRemovesFile(t *testing.T) {
	ing := newTestIngester(t, 4, 1)
	path := writeTempFile(t, "upload.xlsx", "not a workbook")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	report, err := ing.Ingest(ctx, path, FileTypeXLSX)
	assert.Nil(t, report)

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)

	_, statErr := os.Stat(path)
	assert.ErrorIs(t, statErr, os.ErrNotExist)
	assert.Equal(t, uint64(1), ing.Status().FailedTotal)
}

func TestIngester_QueueFull(t *testing.T) {
	ing := newTestIngester(t, 0, 0)
	path := writeTempFile(t, "upload.csv", "Policy Number\nPOL-1\n")

	_, err := ing.Ingest(context.Background(), path, FileTypeCSV)
	assert.ErrorIs(t, err, task.ErrQueueFull)

	_, statErr := os.Stat(path)
	assert.ErrorIs(t, statErr, os.ErrNotExist)
	assert.Zero(t, ing.Status().InFlight)
}

func TestIngester_CallerGivesUp(t *testing.T) {
	ing := newTestIngester(t, 1, 0)
	path := writeTempFile(t, "upload.csv", "Policy Number\nPOL-1\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ing.Ingest(ctx, path, FileTypeCSV)
	assert.ErrorIs(t, err, context.Canceled)

	status := ing.Status()
	assert.Equal(t, 1, status.QueueLength)
	assert.Equal(t, int64(1), status.InFlight)
}

func TestJob_TaskContract(t *testing.T) {
	p := newTestPipeline(memory.NewDB().Stores())
	path := writeTempFile(t, "upload.csv", "Policy Number\n")

	j := newJob(path, FileTypeCSV, p, discardLogger(), nil)
	assert.Equal(t, task.TaskTypeIngestion, j.Type())
	assert.Equal(t, task.TaskStatusPending, j.Status())

	var payload map[string]string
	require.NoError(t, json.Unmarshal(j.Payload(), &payload))
	assert.Equal(t, map[string]string{"path": path, "file_type": "csv"}, payload)

	require.NoError(t, j.Execute(context.Background()))
	assert.Equal(t, task.TaskStatusCompleted, j.Status())

	res := <-j.result
	require.NoError(t, res.err)
	assert.Zero(t, res.report.TotalRecords)
}

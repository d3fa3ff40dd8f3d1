package api

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/phrazzld/policyhub-api/internal/domain"
	"github.com/phrazzld/policyhub-api/internal/ingest"
)

// sniffLen is how much of an upload is inspected to detect its content type.
const sniffLen = 3072

// saveUpload checks the leading bytes of src against ft and then streams the
// whole upload into a new file in dir. It returns the file's path; the caller
// owns the file from then on.
func saveUpload(src io.Reader, dir string, ft ingest.FileType) (string, error) {
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(src, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}
	head = head[:n]

	if err := ingest.SniffContent(head, ft); err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}

	dst, err := os.CreateTemp(dir, "upload-*."+string(ft))
	if err != nil {
		return "", fmt.Errorf("failed to create upload file: %w", err)
	}

	_, copyErr := io.Copy(dst, io.MultiReader(bytes.NewReader(head), src))
	closeErr := dst.Close()
	if err := errors.Join(copyErr, closeErr); err != nil {
		_ = os.Remove(dst.Name())
		return "", fmt.Errorf("failed to save upload: %w", err)
	}

	return dst.Name(), nil
}

// parseStatusFilter reads the optional status query parameter. An empty value
// means no filter; unknown values are passed through for the scheduler to reject.
func parseStatusFilter(raw string) *domain.ScheduledMessageStatus {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return nil
	}
	status := domain.ScheduledMessageStatus(raw)
	return &status
}

func scheduledMessageToResponse(msg *domain.ScheduledMessage) ScheduledMessageResponse {
	return ScheduledMessageResponse{
		JobID:         msg.JobID,
		Message:       msg.Message,
		ScheduledDate: msg.ScheduledDate,
		ScheduledTime: msg.ScheduledTime,
		Timezone:      msg.Timezone,
		ScheduledFor:  msg.FireAt,
		Status:        string(msg.Status),
		LastError:     msg.LastError,
		CreatedAt:     msg.CreatedAt,
		ExecutedAt:    msg.ExecutedAt,
	}
}

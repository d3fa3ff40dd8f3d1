package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"

	"github.com/phrazzld/policyhub-api/internal/api/shared"
	"github.com/phrazzld/policyhub-api/internal/ingest"
	"github.com/phrazzld/policyhub-api/internal/platform/logger"
)

// uploadFormField is the multipart field carrying the import file.
const uploadFormField = "file"

// multipartOverhead allows for the multipart framing around the file itself.
const multipartOverhead = 64 << 10

// retryAfterSeconds is advertised when the import queue is full.
const retryAfterSeconds = 5

// FileIngester runs an import and reports worker capacity.
type FileIngester interface {
	Ingest(ctx context.Context, path string, fileType ingest.FileType) (*ingest.Report, error)
	Status() ingest.UploadStatus
}

// UploadHandler handles policy file imports.
type UploadHandler struct {
	ingester  FileIngester
	uploadDir string
	maxBytes  int64
	logger    *slog.Logger
}

// NewUploadHandler creates an UploadHandler. Uploads are saved under
// uploadDir until their import finishes; files larger than maxBytes are
// rejected.
func NewUploadHandler(ingester FileIngester, uploadDir string, maxBytes int64, logger *slog.Logger) *UploadHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &UploadHandler{
		ingester:  ingester,
		uploadDir: uploadDir,
		maxBytes:  maxBytes,
		logger:    logger.With("component", "upload_handler"),
	}
}

// UploadCSV handles POST /api/upload/csv requests
func (h *UploadHandler) UploadCSV(w http.ResponseWriter, r *http.Request) {
	h.handleUpload(w, r, "CSV", ingest.FileTypeCSV)
}

// UploadXLSX handles POST /api/upload/xlsx requests. Legacy .xls names are
// accepted here so the client gets a specific message once the content is
// inspected.
func (h *UploadHandler) UploadXLSX(w http.ResponseWriter, r *http.Request) {
	h.handleUpload(w, r, "Excel", ingest.FileTypeXLSX, ingest.FileTypeXLS)
}

// Status handles GET /api/upload/status requests
func (h *UploadHandler) Status(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, h.ingester.Status())
}

func (h *UploadHandler) handleUpload(
	w http.ResponseWriter,
	r *http.Request,
	label string,
	allowed ...ingest.FileType,
) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	limit := h.maxBytes + multipartOverhead

	if r.ContentLength > limit {
		err := &http.MaxBytesError{Limit: h.maxBytes}
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	file, header, err := r.FormFile(uploadFormField)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxBytesErr):
			tooLarge := &http.MaxBytesError{Limit: h.maxBytes}
			shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(tooLarge), GetSafeErrorMessage(tooLarge), err)
		case errors.Is(err, http.ErrMissingFile):
			shared.RespondWithError(w, r, http.StatusBadRequest, "No file uploaded")
		default:
			shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid multipart form", err)
		}
		return
	}
	defer func() { _ = file.Close() }()

	if header.Size > h.maxBytes {
		err := &http.MaxBytesError{Limit: h.maxBytes}
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	fileType, err := ingest.FileTypeFromName(header.Filename)
	if err == nil && !slices.Contains(allowed, fileType) {
		err = fmt.Errorf("%w: %s upload expected", ingest.ErrUnsupportedFileType, label)
	}
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	path, err := saveUpload(file, h.uploadDir, fileType)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	log.Info("import file received",
		"file_type", fileType,
		"size_bytes", header.Size)

	report, err := h.ingester.Ingest(r.Context(), path, fileType)
	if err != nil {
		status := MapErrorToStatusCode(err)
		var opts []shared.ResponseOption
		if status == http.StatusServiceUnavailable {
			opts = append(opts, shared.WithRetryAfter(retryAfterSeconds))
		}
		shared.RespondWithErrorAndLog(w, r, status, GetSafeErrorMessage(err), err, opts...)
		return
	}

	log.Info("import file processed",
		"file_type", fileType,
		"total_records", report.TotalRecords,
		"successful_inserts", report.SuccessfulInserts,
		"failed_rows", len(report.Errors))

	shared.RespondWithJSON(w, r, http.StatusOK, UploadResponse{
		Message: label + " file processed successfully",
		Report:  report,
	})
}

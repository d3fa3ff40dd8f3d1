package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/policyhub-api/internal/domain"
	"github.com/phrazzld/policyhub-api/internal/ingest"
	"github.com/phrazzld/policyhub-api/internal/store"
	"github.com/phrazzld/policyhub-api/internal/task"
)

// MapErrorToStatusCode maps internal errors to HTTP status codes without
// exposing internal error types to clients.
func MapErrorToStatusCode(err error) int {
	var (
		validationErr *task.ValidationError
		parseErr      *ingest.ParseError
		maxBytesErr   *http.MaxBytesError
	)

	switch {
	case errors.As(err, &maxBytesErr):
		return http.StatusRequestEntityTooLarge

	case errors.Is(err, ingest.ErrUnsupportedFileType):
		return http.StatusUnsupportedMediaType

	case errors.As(err, &parseErr):
		return http.StatusUnprocessableEntity

	case errors.As(err, &validationErr),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, store.ErrInvalidEntity):
		return http.StatusBadRequest

	case errors.Is(err, task.ErrNotCancellable),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	case errors.Is(err, task.ErrTaskInFlight),
		errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict

	case errors.Is(err, task.ErrQueueFull),
		errors.Is(err, task.ErrQueueClosed):
		return http.StatusServiceUnavailable

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a client-facing message for err. Validation
// messages are built from fixed domain text and are passed through; anything
// else gets a generic message.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	var (
		validationErr *task.ValidationError
		parseErr      *ingest.ParseError
		maxBytesErr   *http.MaxBytesError
	)

	switch {
	case errors.As(err, &maxBytesErr):
		return fmt.Sprintf("File exceeds the %d byte upload limit", maxBytesErr.Limit)

	case errors.Is(err, ingest.ErrLegacyWorkbook):
		return "Legacy .xls workbooks are not supported, save the file as .xlsx"

	case errors.Is(err, ingest.ErrUnsupportedFileType):
		return "Unsupported file type, upload a .csv or .xlsx file"

	case errors.As(err, &parseErr):
		return fmt.Sprintf("Could not read %s file", parseErr.FileType)

	case errors.As(err, &validationErr), errors.Is(err, domain.ErrValidation):
		return strings.TrimPrefix(err.Error(), domain.ErrValidation.Error()+": ")

	case errors.Is(err, task.ErrNotCancellable):
		return "Scheduled message not found or no longer pending"

	case errors.Is(err, task.ErrTaskInFlight):
		return "Scheduled message is being processed"

	case errors.Is(err, task.ErrQueueFull), errors.Is(err, task.ErrQueueClosed):
		return "Import service is busy, try again later"

	case errors.Is(err, store.ErrNotFound):
		return "Resource not found"

	case errors.Is(err, store.ErrDuplicate):
		return "Resource already exists"

	case errors.Is(err, store.ErrInvalidEntity):
		return "Invalid entity data"

	default:
		return "An unexpected error occurred"
	}
}

// SanitizeValidationError turns a request validation failure into a short
// message naming the first failing field.
func SanitizeValidationError(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Validation error"
	}

	fe := verrs[0]
	return fmt.Sprintf("Invalid %s: %s", strings.ToLower(fe.Field()), validationTagMessage(fe.Tag()))
}

func validationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "max":
		return "too long"
	case "oneof":
		return "invalid value"
	default:
		return "validation failed"
	}
}

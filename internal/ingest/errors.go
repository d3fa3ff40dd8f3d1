package ingest

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedFileType is returned for uploads that are neither CSV nor a spreadsheet.
	ErrUnsupportedFileType = errors.New("unsupported file type")

	// ErrLegacyWorkbook rejects binary .xls workbooks, which cannot be decoded.
	ErrLegacyWorkbook = fmt.Errorf("%w: legacy binary .xls workbooks are not supported, save as .xlsx",
		ErrUnsupportedFileType)
)

// ParseError reports an input that could not be decoded at all. It aborts
// the whole batch; no row is processed.
type ParseError struct {
	FileType FileType
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("error processing %s file: %v", e.FileType, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func newParseError(ft FileType, err error) *ParseError {
	return &ParseError{FileType: ft, Err: err}
}

// RowError records a failure isolated to one input row. Data carries the raw
// record so it can be corrected and resubmitted.
//
// Row is the 1-based position among decoded data rows. The header and blank
// lines are not counted, so after a blank line it is not the file line number.
type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"error"`
	Data    Row    `json:"data"`
}

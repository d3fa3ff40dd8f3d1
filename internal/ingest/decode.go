package ingest

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/xuri/excelize/v2"
)

// FileType is the declared format of an import file.
type FileType string

const (
	FileTypeCSV  FileType = "csv"
	FileTypeXLSX FileType = "xlsx"
	FileTypeXLS  FileType = "xls"
)

// IsSpreadsheet reports whether ft is a workbook format.
func (ft FileType) IsSpreadsheet() bool {
	return ft == FileTypeXLSX || ft == FileTypeXLS
}

// FileTypeFromName derives the FileType from a file name's extension.
func FileTypeFromName(name string) (FileType, error) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	switch FileType(ext) {
	case FileTypeCSV, FileTypeXLSX, FileTypeXLS:
		return FileType(ext), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFileType, filepath.Ext(name))
}

// spreadsheetMIMEs are the detected types accepted for workbook uploads.
// Legacy binary .xls workbooks are detected but cannot be decoded.
var spreadsheetMIMEs = []string{
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"application/zip",
}

// SniffContent checks that head, the first bytes of an upload, matches the
// declared type. CSV must be text; spreadsheets must be OOXML workbooks.
func SniffContent(head []byte, ft FileType) error {
	mime := mimetype.Detect(head)

	switch {
	case ft == FileTypeCSV:
		for m := mime; m != nil; m = m.Parent() {
			if m.Is("text/plain") {
				return nil
			}
		}
	case ft.IsSpreadsheet():
		for _, accepted := range spreadsheetMIMEs {
			if mime.Is(accepted) {
				return nil
			}
		}
		if mime.Is("application/vnd.ms-excel") || mime.Is("application/x-ole-storage") {
			return ErrLegacyWorkbook
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFileType, ft)
	}

	return fmt.Errorf("%w: content detected as %s, declared %s", ErrUnsupportedFileType, mime.String(), ft)
}

// Decode reads all rows from r. The first row is the header; each later row
// maps header names to cell text. Blank rows are skipped. An input with no
// header or no data rows yields no rows and no error, so it produces an empty
// report. Any decode failure is returned as a *ParseError.
func Decode(r io.Reader, ft FileType) ([]Row, error) {
	var (
		rows []Row
		err  error
	)

	switch {
	case ft == FileTypeCSV:
		rows, err = decodeCSV(r)
	case ft.IsSpreadsheet():
		rows, err = decodeSpreadsheet(r)
	default:
		err = fmt.Errorf("%w: %q", ErrUnsupportedFileType, ft)
	}

	if err != nil {
		return nil, newParseError(ft, err)
	}
	return rows, nil
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func decodeCSV(r io.Reader) ([]Row, error) {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	reader := csv.NewReader(br)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return []Row{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}

	return toRows(header, records), nil
}

func decodeSpreadsheet(r io.Reader) ([]Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}

	// Raw values keep date cells as day serials instead of display text.
	records, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	if len(records) == 0 {
		return []Row{}, nil
	}

	return toRows(records[0], records[1:]), nil
}

// toRows pairs cells with trimmed header names. Cells under a blank header
// and blank cells are dropped; rows left empty are skipped.
func toRows(header []string, records [][]string) []Row {
	names := make([]string, len(header))
	for i, h := range header {
		names[i] = strings.TrimSpace(h)
	}

	rows := make([]Row, 0, len(records))
	for _, record := range records {
		row := make(Row, len(record))
		for i, cell := range record {
			if i >= len(names) || names[i] == "" {
				continue
			}
			if _, dup := row[names[i]]; dup {
				continue
			}
			if v := strings.TrimSpace(cell); v != "" {
				row[names[i]] = v
			}
		}
		if len(row) > 0 {
			rows = append(rows, row)
		}
	}
	return rows
}

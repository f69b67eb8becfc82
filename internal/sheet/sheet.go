// Package sheet loads spreadsheet and delimited text files into coverage tables.
package sheet

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/inodb/genecov/internal/coverage"
)

// Format is an input file format.
type Format int

const (
	FormatCSV Format = iota
	FormatTSV
	FormatXLSX
)

func (f Format) String() string {
	switch f {
	case FormatTSV:
		return "tsv"
	case FormatXLSX:
		return "xlsx"
	}
	return "csv"
}

// DetectFormat detects the input format from the file extension. Anything
// that is not a spreadsheet or a .tsv/.txt file is read as CSV.
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm", ".xls":
		return FormatXLSX
	case ".tsv", ".txt":
		return FormatTSV
	}
	return FormatCSV
}

// BaseName returns the file name without directory and extension, used to
// name every output derived from an input.
func BaseName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ReadFile loads a table from path. headerRow is the 0-based row holding
// column names in spreadsheets; earlier rows are skipped.
func ReadFile(path string, headerRow int) (*coverage.Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return Read(bytes.NewReader(data), DetectFormat(path), headerRow)
}

// Read loads a table in the given format.
func Read(r io.Reader, format Format, headerRow int) (*coverage.Table, error) {
	switch format {
	case FormatXLSX:
		return ReadXLSX(r, headerRow)
	case FormatTSV:
		return ReadDelimited(r, '\t')
	}
	return ReadDelimited(r, ',')
}

// ReadXLSX reads the first worksheet of a workbook. Cell values are read
// raw, without number formatting. Blank rows after the header are skipped.
func ReadXLSX(r io.Reader, headerRow int) (*coverage.Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &ParseError{Message: "workbook has no worksheets"}
	}

	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read worksheet %q: %w", sheets[0], err)
	}
	if headerRow < 0 {
		headerRow = 0
	}
	if len(rows) <= headerRow {
		return nil, &ParseError{
			Line:    len(rows),
			Message: fmt.Sprintf("no header at row %d (worksheet has %d rows)", headerRow+1, len(rows)),
		}
	}

	t := &coverage.Table{Header: rows[headerRow]}
	for _, row := range rows[headerRow+1:] {
		if blank(row) {
			continue
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// ReadDelimited reads a delimited text table whose first record is the
// header. Column names are whitespace-trimmed.
func ReadDelimited(r io.Reader, comma rune) (*coverage.Table, error) {
	cr := csv.NewReader(r)
	cr.Comma = comma
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &ParseError{Line: 0, Message: "no header line found"}
		}
		return nil, wrapCSVError(err)
	}
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		header[i] = strings.TrimSpace(h)
	}

	t := &coverage.Table{Header: header}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, wrapCSVError(err)
		}
		if blank(rec) {
			continue
		}
		t.Rows = append(t.Rows, rec)
	}
	return t, nil
}

func wrapCSVError(err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return &ParseError{Line: pe.Line, Message: pe.Err.Error()}
	}
	return fmt.Errorf("read delimited table: %w", err)
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// ParseError represents an error during table loading with line context.
type ParseError struct {
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("table parse error at line %d: %s", e.Line, e.Message)
}

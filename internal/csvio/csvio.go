// Package csvio loads delimited text into header-keyed records and writes
// them back out. Loading tolerates real-world files: UTF-8 BOMs, comment
// lines, blank leading lines, preamble text before the header, and footer
// rows whose width does not match the header.
package csvio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/yzaremba/rt/internal/document"
	"github.com/yzaremba/rt/internal/sniff"
)

// ErrInvalidDelimiter indicates a delimiter flag that is not a single
// character.
var ErrInvalidDelimiter = errors.New("csvio: delimiter must be a single character")

// Options controls how a CSV byte stream is interpreted.
type Options struct {
	Delimiter     rune   // 0 means auto-detect
	NoHeader      bool   // first row is data; columns become col0..colN
	SkipLines     int    // drop this many preamble lines; the next line is the header
	CommentPrefix string // drop lines starting with this prefix
}

// Table is a parsed CSV file. HeaderRow is the 1-based position of the
// header among parsed rows, 0 when the file has no header. Column order
// lives in Columns; each row maps column name to cell text.
type Table struct {
	Columns   []string
	Rows      []map[string]string
	HeaderRow int
	Delimiter rune
}

// Load reads and parses the CSV file at path; "" or "-" reads stdin.
func Load(path string, opts Options) (*Table, error) {
	text, err := document.ReadText(path)
	if err != nil {
		return nil, err
	}
	return Parse(text, opts)
}

// Parse interprets raw CSV text. Only rows matching the header width are
// kept, which drops footers and stray partial lines.
func Parse(text string, opts Options) (*Table, error) {
	text = strings.TrimPrefix(text, "\ufeff")
	lines := splitLines(text)

	delimiter := opts.Delimiter
	if delimiter == 0 {
		delimiter = sniff.DetectDelimiter(lines, opts.CommentPrefix)
	}
	empty := &Table{Columns: []string{}, Rows: []map[string]string{}, Delimiter: delimiter}

	lines = sniff.FilterComments(lines, opts.CommentPrefix)
	for len(lines) > 0 && strings.TrimSpace(lines[0]) == "" {
		lines = lines[1:]
	}
	if opts.SkipLines > 0 {
		if opts.SkipLines >= len(lines) {
			return empty, nil
		}
		lines = lines[opts.SkipLines:]
	}
	if len(lines) == 0 {
		return empty, nil
	}

	r := csv.NewReader(strings.NewReader(strings.Join(lines, "\n")))
	r.Comma = delimiter
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("csvio: parse: %w", err)
	}

	for len(records) > 0 && sniff.IsBlankRow(records[0]) {
		records = records[1:]
	}
	if len(records) == 0 {
		return empty, nil
	}

	var (
		header    []string
		data      [][]string
		headerRow int
	)
	switch {
	case opts.NoHeader:
		header = make([]string, len(records[0]))
		for i := range header {
			header[i] = fmt.Sprintf("col%d", i)
		}
		data = records
	case opts.SkipLines > 0:
		header = records[0]
		data = records[1:]
		headerRow = 1
	default:
		idx := sniff.FindHeaderRow(records, 2)
		header = records[idx]
		data = records[idx+1:]
		headerRow = idx + 1
	}

	rows := make([]map[string]string, 0, len(data))
	for _, record := range data {
		if len(record) != len(header) {
			continue
		}
		row := make(map[string]string, len(header))
		for i, col := range header {
			row[col] = record[i]
		}
		rows = append(rows, row)
	}

	return &Table{
		Columns:   header,
		Rows:      rows,
		HeaderRow: headerRow,
		Delimiter: delimiter,
	}, nil
}

// Write emits a header line followed by the rows, in column order.
// Missing cells write as empty strings; extra cells are ignored.
func Write(w io.Writer, columns []string, rows []map[string]string, delimiter rune) error {
	cw := csv.NewWriter(w)
	cw.Comma = delimiter
	if err := cw.Write(columns); err != nil {
		return fmt.Errorf("csvio: write: %w", err)
	}
	record := make([]string, len(columns))
	for _, row := range rows {
		for i, col := range columns {
			record[i] = row[col]
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("csvio: write: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("csvio: write: %w", err)
	}
	return nil
}

// Report summarizes a column-count consistency check.
type Report struct {
	Empty           bool
	RecordCount     int
	SkippedRows     int
	ExpectedColumns int
}

// Validate parses the raw text with minimal cleanup (comment filtering
// only) and counts rows whose width differs from the first row.
func Validate(text string, opts Options) Report {
	lines := sniff.FilterComments(splitLines(text), opts.CommentPrefix)
	if len(lines) == 0 {
		return Report{Empty: true}
	}

	r := csv.NewReader(strings.NewReader(strings.Join(lines, "\n")))
	r.Comma = opts.Delimiter
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	records, err := r.ReadAll()
	if err != nil || len(records) == 0 {
		return Report{Empty: true}
	}

	expected := len(records[0])
	data := records
	if !opts.NoHeader {
		data = records[1:]
	}
	kept, skipped := 0, 0
	for _, record := range data {
		if len(record) == expected {
			kept++
		} else {
			skipped++
		}
	}
	return Report{
		RecordCount:     kept,
		SkippedRows:     skipped,
		ExpectedColumns: expected,
	}
}

// ParseDelimiter turns a CLI delimiter flag into a rune; "\t" and "tab"
// select a tab.
func ParseDelimiter(s string) (rune, error) {
	if s == `\t` || s == "tab" {
		return '\t', nil
	}
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 || size != len(s) || r == utf8.RuneError {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDelimiter, s)
	}
	return r, nil
}

// CellType classifies a cell as "empty", "number" or "string".
func CellType(cell string) string {
	s := strings.TrimSpace(cell)
	if s == "" {
		return "empty"
	}
	if _, err := strconv.ParseFloat(s, 64); err == nil {
		return "number"
	}
	return "string"
}

// splitLines splits on \n, \r\n and lone \r, without a trailing empty
// line for newline-terminated text.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.TrimSuffix(text, "\n")
	return strings.Split(text, "\n")
}

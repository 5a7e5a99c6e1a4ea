// Package source loads the human-authored spreadsheets the pipeline reads:
// delimited text in whatever encoding the exporting tool chose, XLSX
// workbooks, and the Regaty/<year>/<league>/<round>/ results tree. It also
// maps loosely named headers onto logical fields.
package source

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
)

// Sheet is a loaded table: trimmed headers and rows padded to the header
// width. Line numbers count the header as line 1.
type Sheet struct {
	Path   string
	Header []string
	Rows   [][]string

	lines []int // source line of each row; blank rows are skipped in Rows
}

// Line returns the 1-based source line of row i.
func (s *Sheet) Line(i int) int {
	if i < len(s.lines) {
		return s.lines[i]
	}
	return i + 2
}

// Cell returns a trimmed cell, or "" when col is out of range.
func (s *Sheet) Cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}

// Column returns every cell of one column.
func (s *Sheet) Column(col int) []string {
	out := make([]string, 0, len(s.Rows))
	for _, r := range s.Rows {
		out = append(out, s.Cell(r, col))
	}
	return out
}

// ErrUnsupported is returned for files that are neither CSV nor XLSX.
var ErrUnsupported = errors.New("unsupported file type")

// IsSupported reports whether path has a loadable extension.
func IsSupported(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, "~$") || strings.HasPrefix(base, ".") {
		return false
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".xlsx":
		return true
	}
	return false
}

// Load reads a CSV or XLSX file.
func Load(path string) (*Sheet, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return LoadCSV(path)
	case ".xlsx":
		return LoadXLSX(path)
	default:
		return nil, fmt.Errorf("%s: %w", path, ErrUnsupported)
	}
}

// LoadCSV reads a delimited text file. UTF-8 (with or without BOM) is tried
// first, then Windows-1250, then Latin-1. The delimiter is sniffed from the
// header line.
func LoadCSV(path string) (*Sheet, error) {
	raw, err := os.ReadFile(path) //nolint:gosec // path comes from discovery or flags
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	text, err := decode(raw)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	r := csv.NewReader(strings.NewReader(text))
	r.Comma = sniffDelimiter(text)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var records [][]string
	var lines []int
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		line, _ := r.FieldPos(0)
		records = append(records, rec)
		lines = append(lines, line)
	}
	return newSheet(path, records, lines)
}

// LoadXLSX reads the first worksheet of a workbook.
func LoadXLSX(path string) (*Sheet, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%s: workbook has no sheets", path)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read rows %s: %w", path, err)
	}
	lines := make([]int, len(rows))
	for i := range rows {
		lines[i] = i + 1
	}
	return newSheet(path, rows, lines)
}

// newSheet builds a sheet from raw records; lines[i] is the source line of
// records[i].
func newSheet(path string, records [][]string, lines []int) (*Sheet, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("%s: empty file", path)
	}
	s := &Sheet{Path: path}
	for _, h := range records[0] {
		s.Header = append(s.Header, strings.TrimSpace(h))
	}
	for i, rec := range records[1:] {
		if blank(rec) {
			continue
		}
		s.lines = append(s.lines, lines[i+1])
		row := make([]string, len(s.Header))
		copy(row, rec)
		s.Rows = append(s.Rows, row)
	}
	return s, nil
}

func blank(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func decode(raw []byte) (string, error) {
	raw = bytes.TrimPrefix(raw, utf8BOM)
	if utf8.Valid(raw) {
		return string(raw), nil
	}
	if out, err := charmap.Windows1250.NewDecoder().Bytes(raw); err == nil && !bytes.ContainsRune(out, utf8.RuneError) {
		return string(out), nil
	}
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func sniffDelimiter(text string) rune {
	line := text
	if i := strings.IndexAny(text, "\r\n"); i >= 0 {
		line = text[:i]
	}
	best, bestCount := ',', strings.Count(line, ",")
	for _, d := range []rune{';', '\t'} {
		if n := strings.Count(line, string(d)); n > bestCount {
			best, bestCount = d, n
		}
	}
	return best
}

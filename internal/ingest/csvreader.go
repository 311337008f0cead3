package ingest

import (
	"strings"

	"github.com/iho/ledgerimport/internal/domain"
)

// Table is a tokenized export: a header row and the data rows below it.
type Table struct {
	Headers []string
	Rows    [][]string
	// Numeric parallels Rows for workbook input and marks cells stored as
	// numbers. It is nil for text input.
	Numeric   [][]bool
	Delimiter rune
}

// IsNumeric reports whether the cell at row, col was stored as a number.
func (t Table) IsNumeric(row, col int) bool {
	if row < 0 || row >= len(t.Numeric) || col < 0 || col >= len(t.Numeric[row]) {
		return false
	}
	return t.Numeric[row][col]
}

// CheckStructure rejects tables that cannot hold any transaction.
func (t Table) CheckStructure() error {
	if len(t.Headers) == 0 {
		return domain.ErrEmptyFile
	}
	if len(t.Rows) == 0 {
		return domain.ErrNoDataRows
	}
	return nil
}

// DetectDelimiter picks ';' when the first line contains one and ',' otherwise.
func DetectDelimiter(firstLine string) rune {
	if strings.ContainsRune(firstLine, ';') {
		return ';'
	}
	return ','
}

// Parse splits text into lines, drops blank ones and tokenizes every line with a
// delimiter chosen once from the first line. Malformed quoting never fails: an
// unterminated quote simply runs to the end of its line.
func Parse(text string) Table {
	lines := splitLines(text)
	if len(lines) == 0 {
		return Table{Delimiter: ','}
	}

	delim := DetectDelimiter(lines[0])
	headers := tokenizeLine(lines[0], delim)
	for i := range headers {
		headers[i] = strings.TrimSpace(headers[i])
	}

	rows := make([][]string, 0, len(lines)-1)
	for _, line := range lines[1:] {
		rows = append(rows, tokenizeLine(line, delim))
	}

	return Table{Headers: headers, Rows: rows, Delimiter: delim}
}

func splitLines(text string) []string {
	raw := strings.Split(text, "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

func tokenizeLine(line string, delim rune) []string {
	var (
		fields   []string
		field    strings.Builder
		inQuotes bool
	)

	chars := []rune(line)
	for i := 0; i < len(chars); i++ {
		c := chars[i]
		switch {
		case c == '"' && inQuotes && i+1 < len(chars) && chars[i+1] == '"':
			field.WriteRune('"')
			i++
		case c == '"':
			inQuotes = !inQuotes
		case c == delim && !inQuotes:
			fields = append(fields, field.String())
			field.Reset()
		default:
			field.WriteRune(c)
		}
	}

	return append(fields, field.String())
}

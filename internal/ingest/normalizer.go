package ingest

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/schollz/closestmatch"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/iho/ledgerimport/internal/domain"
)

// maxReportedHeaders bounds how many discovered headers a MappingError lists.
const maxReportedHeaders = 10

var aliases = buildAliasIndex()

func buildAliasIndex() map[string]domain.CanonicalField {
	index := make(map[string]domain.CanonicalField, 512)
	for _, group := range aliasGroups {
		for _, alias := range group.aliases {
			index[alias] = group.field
		}
		// the canonical name itself is always accepted
		index[NormalizeHeader(string(group.field))] = group.field
	}
	return index
}

// NormalizeHeader lower-cases h, strips diacritics, turns '_' and '-' into
// spaces and collapses runs of whitespace.
func NormalizeHeader(h string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, strings.ToLower(h))
	if err != nil {
		stripped = strings.ToLower(h)
	}

	stripped = strings.Map(func(r rune) rune {
		if r == '_' || r == '-' {
			return ' '
		}
		return r
	}, stripped)

	return strings.Join(strings.Fields(stripped), " ")
}

// Lookup maps a raw header to its canonical field.
func Lookup(header string) (domain.CanonicalField, bool) {
	field, ok := aliases[NormalizeHeader(header)]
	return field, ok
}

// ColumnMapping records which column feeds each canonical field.
type ColumnMapping struct {
	headers []string
	columns map[domain.CanonicalField]int
}

// BuildMapping applies Lookup to every header. When several headers resolve to
// the same field the right-most one wins; unknown headers are ignored.
func BuildMapping(headers []string) ColumnMapping {
	m := ColumnMapping{
		headers: headers,
		columns: make(map[domain.CanonicalField]int, len(headers)),
	}
	for i, h := range headers {
		if field, ok := Lookup(h); ok {
			m.columns[field] = i
		}
	}
	return m
}

// Headers returns the header row the mapping was built from.
func (m ColumnMapping) Headers() []string {
	return m.headers
}

// Index returns the column feeding field.
func (m ColumnMapping) Index(field domain.CanonicalField) (int, bool) {
	i, ok := m.columns[field]
	return i, ok
}

// Has reports whether some column feeds field.
func (m ColumnMapping) Has(field domain.CanonicalField) bool {
	_, ok := m.columns[field]
	return ok
}

// Len is the number of mapped fields.
func (m ColumnMapping) Len() int {
	return len(m.columns)
}

// Fields returns the mapped fields in column order.
func (m ColumnMapping) Fields() []domain.CanonicalField {
	fields := make([]domain.CanonicalField, 0, len(m.columns))
	for f := range m.columns {
		fields = append(fields, f)
	}
	sort.Slice(fields, func(i, j int) bool {
		return m.columns[fields[i]] < m.columns[fields[j]]
	})
	return fields
}

// Unmapped returns the headers that did not resolve to any field.
func (m ColumnMapping) Unmapped() []string {
	var out []string
	for _, h := range m.headers {
		if _, ok := Lookup(h); !ok {
			out = append(out, h)
		}
	}
	return out
}

// Validate requires a transaction id column and a net value column.
func (m ColumnMapping) Validate() error {
	if !m.Has(domain.FieldTransactionID) {
		return m.mappingError(domain.ErrMissingTransactionColumn)
	}
	if !m.Has(domain.FieldNetValue) && !m.Has(domain.FieldNetValueBRL) {
		return m.mappingError(domain.ErrMissingNetValueColumn)
	}
	return nil
}

func (m ColumnMapping) mappingError(cause error) *MappingError {
	discovered := m.headers
	if len(discovered) > maxReportedHeaders {
		discovered = discovered[:maxReportedHeaders]
	}
	return &MappingError{
		Err:         cause,
		Headers:     append([]string(nil), discovered...),
		Suggestions: suggestAliases(m.Unmapped()),
	}
}

// MappingError explains why a header row cannot be imported.
type MappingError struct {
	Err         error
	Headers     []string
	Suggestions map[string]string // unmapped header -> closest known alias
}

func (e *MappingError) Error() string {
	var b strings.Builder
	b.WriteString(e.Err.Error())
	fmt.Fprintf(&b, "; headers found: %s", strings.Join(e.Headers, ", "))

	if len(e.Suggestions) > 0 {
		keys := make([]string, 0, len(e.Suggestions))
		for k := range e.Suggestions {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		hints := make([]string, 0, len(keys))
		for _, k := range keys {
			hints = append(hints, fmt.Sprintf("%q ~ %q", k, e.Suggestions[k]))
		}
		fmt.Fprintf(&b, "; closest known columns: %s", strings.Join(hints, ", "))
	}
	return b.String()
}

func (e *MappingError) Unwrap() error {
	return e.Err
}

func suggestAliases(unmapped []string) map[string]string {
	if len(unmapped) == 0 {
		return nil
	}

	keys := make([]string, 0, len(aliases))
	for k := range aliases {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	cm := closestmatch.New(keys, []int{2, 3})

	suggestions := make(map[string]string)
	for _, h := range unmapped {
		normalized := NormalizeHeader(h)
		if normalized == "" {
			continue
		}
		if best := cm.Closest(normalized); best != "" {
			suggestions[h] = best
		}
	}
	if len(suggestions) == 0 {
		return nil
	}
	return suggestions
}

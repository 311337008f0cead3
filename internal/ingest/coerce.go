package ingest

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/ledgerimport/internal/domain"
)

// NumberFormat selects the thousands/decimal separator convention of an export.
type NumberFormat string

const (
	// NumberFormatBR reads "1.234,56": '.' groups thousands, ',' separates decimals.
	NumberFormatBR NumberFormat = "br"
	// NumberFormatUS reads "1,234.56".
	NumberFormatUS NumberFormat = "us"
)

// ParseNumberFormat validates a configured or requested format name.
func ParseNumberFormat(s string) (NumberFormat, error) {
	switch NumberFormat(strings.ToLower(strings.TrimSpace(s))) {
	case "", NumberFormatBR:
		return NumberFormatBR, nil
	case NumberFormatUS:
		return NumberFormatUS, nil
	default:
		return "", fmt.Errorf("%w: %q", domain.ErrUnsupportedNumberFormat, s)
	}
}

var currencySymbols = []string{"US$", "R$", "$", "€", "£"}

// ParseNumber coerces a monetary cell. It returns false for empty or
// unparseable input instead of a zero value.
func ParseNumber(raw string, format NumberFormat) (decimal.Decimal, bool) {
	s := CleanCell(raw)
	for _, sym := range currencySymbols {
		s = strings.ReplaceAll(s, sym, "")
	}
	s = strings.Map(func(r rune) rune {
		if r == ' ' || r == '\t' || r == '\u00a0' || r == '\u202f' {
			return -1
		}
		return r
	}, s)
	if s == "" {
		return decimal.Decimal{}, false
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}

	switch format {
	case NumberFormatUS:
		s = strings.ReplaceAll(s, ",", "")
	default:
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false
	}
	if negative {
		d = d.Neg()
	}
	return d, true
}

// ParseNumericCell reads a cell a workbook stored as a number. Its text always
// uses '.' as the decimal point, whatever the export's NumberFormat.
func ParseNumericCell(raw string) (decimal.Decimal, bool) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

var (
	dayFirstLayouts = []string{"2/1/2006 15:04:05", "2/1/2006 15:04", "2/1/2006"}
	isoLayouts      = []string{"2006-01-02 15:04:05", "2006-01-02 15:04", "2006-01-02"}
	fallbackLayouts = []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02T15:04:05.000",
		"2-1-2006 15:04:05", "2-1-2006",
		"2.1.2006",
		"2006/01/02 15:04:05", "2006/01/02",
		"2 Jan 2006", "Jan 2, 2006",
		"20060102",
	}
)

// Excel stores dates as days since 1899-12-30. Serials in this window cover
// 1995..2028, which keeps plain integers from being read as dates.
const (
	minExcelSerial = 35000
	maxExcelSerial = 47000
)

// ParseDate coerces a date cell to an instant at UTC. Day-first dates are tried
// before ISO dates; a missing time of day means midnight.
func ParseDate(raw string) (time.Time, bool) {
	s := CleanCell(raw)
	if s == "" {
		return time.Time{}, false
	}

	for _, group := range [][]string{dayFirstLayouts, isoLayouts, fallbackLayouts} {
		for _, layout := range group {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC(), true
			}
		}
	}

	if f, err := strconv.ParseFloat(s, 64); err == nil && f > minExcelSerial && f < maxExcelSerial {
		return excelSerialToTime(f), true
	}

	return time.Time{}, false
}

// ParseDateSerial reads a date cell a workbook stored as an Excel serial.
func ParseDateSerial(raw string) (time.Time, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || f <= 0 {
		return time.Time{}, false
	}
	return excelSerialToTime(f), true
}

func excelSerialToTime(serial float64) time.Time {
	base := time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)
	days := int64(serial)
	frac := serial - float64(days)
	return base.AddDate(0, 0, int(days)).Add(time.Duration(frac * float64(24*time.Hour))).Truncate(time.Second)
}

// ParseInteger coerces an integer cell such as an installment count ("3", "12x").
func ParseInteger(raw string) (int, bool) {
	s := strings.TrimRight(CleanCell(raw), "xX")
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}

	d, err := decimal.NewFromString(strings.ReplaceAll(s, ",", "."))
	if err != nil || !d.Equal(d.Truncate(0)) {
		return 0, false
	}
	return int(d.IntPart()), true
}

// CleanCell trims a cell and unwraps the ="..." form spreadsheets use to keep
// leading zeros. Once tokenized that form arrives as a bare leading '='.
func CleanCell(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, `="`) && strings.HasSuffix(s, `"`) && len(s) >= 3 {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}
	return strings.TrimSpace(s)
}

package ingest

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shakinm/xlsReader/xls"
	"github.com/shakinm/xlsReader/xls/record"
	"github.com/shakinm/xlsReader/xls/structure"
	"github.com/xuri/excelize/v2"

	"github.com/iho/ledgerimport/internal/domain"
)

// ReadWorkbook reads the first sheet of an XLSX export. The first non-empty row
// is the header; empty rows below it are skipped. Cells are read unformatted, so
// numbers keep a '.' decimal point and dates arrive as Excel serials; such cells
// are flagged in Table.Numeric.
func ReadWorkbook(r io.Reader) (Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return Table{}, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return Table{}, domain.ErrEmptyFile
	}
	sheet := sheets[0]

	all, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return Table{}, fmt.Errorf("read sheet %q: %w", sheet, err)
	}

	numeric := make([][]bool, len(all))
	for i, row := range all {
		numeric[i] = make([]bool, len(row))
		for j, value := range row {
			if value == "" {
				continue
			}
			ref, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				return Table{}, fmt.Errorf("cell reference: %w", err)
			}
			kind, err := f.GetCellType(sheet, ref)
			if err != nil {
				return Table{}, fmt.Errorf("read cell %s: %w", ref, err)
			}
			numeric[i][j] = isNumericCellType(kind, value)
		}
	}

	return tableFromRows(all, numeric), nil
}

// Number cells written without an explicit type carry no type tag at all.
func isNumericCellType(kind excelize.CellType, value string) bool {
	if kind != excelize.CellTypeNumber && kind != excelize.CellTypeUnset {
		return false
	}
	_, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	return err == nil
}

// ReadLegacyWorkbook reads the first sheet of a BIFF8 (.xls) export the same
// way ReadWorkbook does.
func ReadLegacyWorkbook(r io.ReadSeeker) (Table, error) {
	wb, err := xls.OpenReader(r)
	if err != nil {
		return Table{}, fmt.Errorf("open legacy workbook: %w", err)
	}
	if len(wb.GetSheets()) == 0 {
		return Table{}, domain.ErrEmptyFile
	}

	sheet, err := wb.GetSheet(0)
	if err != nil {
		return Table{}, fmt.Errorf("read legacy sheet: %w", err)
	}

	var (
		all     [][]string
		numeric [][]bool
	)
	for _, row := range sheet.GetRows() {
		cells, flags := legacyCells(row.GetCols())
		all = append(all, cells)
		numeric = append(numeric, flags)
	}

	return tableFromRows(all, numeric), nil
}

// legacyCells renders BIFF cells. NUMBER and RK records format as plain
// floats, dates included, and are flagged numeric.
func legacyCells(cols []structure.CellData) ([]string, []bool) {
	cells := make([]string, len(cols))
	flags := make([]bool, len(cols))
	for i, c := range cols {
		cells[i] = c.GetString()
		switch c.(type) {
		case *record.Number, *record.Rk:
			flags[i] = true
		}
	}
	return cells, flags
}

func tableFromRows(all [][]string, numeric [][]bool) Table {
	t := Table{Delimiter: ','}
	for i, row := range all {
		if isBlankRow(row) {
			continue
		}
		if t.Headers == nil {
			t.Headers = make([]string, len(row))
			for j, h := range row {
				t.Headers[j] = strings.TrimSpace(h)
			}
			continue
		}
		t.Rows = append(t.Rows, row)
		if numeric != nil {
			t.Numeric = append(t.Numeric, numeric[i])
		}
	}
	return t
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

package ingest

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"
	"time"

	"github.com/shakinm/xlsReader/xls/record"
	"github.com/shakinm/xlsReader/xls/structure"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/iho/ledgerimport/internal/domain"
)

func TestDecodeText(t *testing.T) {
	t.Run("strips bom", func(t *testing.T) {
		got, err := DecodeText(append([]byte{0xEF, 0xBB, 0xBF}, "Transação;Valor"...))
		require.NoError(t, err)
		assert.Equal(t, "Transação;Valor", got)
	})

	t.Run("windows-1252 fallback", func(t *testing.T) {
		// "Transação" encoded as cp1252
		raw := []byte{'T', 'r', 'a', 'n', 's', 'a', 0xE7, 0xE3, 'o'}
		got, err := DecodeText(raw)
		require.NoError(t, err)
		assert.Equal(t, "Transação", got)
	})
}

func TestKindOf(t *testing.T) {
	kind, err := KindOf("Vendas.XLSX")
	require.NoError(t, err)
	assert.Equal(t, FileKindXLSX, kind)

	kind, err = KindOf("relatorio.xls")
	require.NoError(t, err)
	assert.Equal(t, FileKindXLS, kind)

	kind, err = KindOf("vendas.csv")
	require.NoError(t, err)
	assert.Equal(t, FileKindCSV, kind)

	_, err = KindOf("vendas.pdf")
	assert.ErrorIs(t, err, domain.ErrUnsupportedFileType)
}

func TestReadTable_Empty(t *testing.T) {
	_, err := ReadTable("x.csv", []byte("  \n"))
	assert.ErrorIs(t, err, domain.ErrEmptyFile)
}

func TestReadTable_Workbook(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]any{"Transação", "Valor Líquido", "Data de Venda"}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]any{"ABC123", "150,00", "15/03/2024"}))
	require.NoError(t, f.SetSheetRow(sheet, "A5", &[]any{"ABC124", "10,00", "16/03/2024"}))

	table, err := ReadTable("export.xlsx", workbookBytes(t, f))
	require.NoError(t, err)
	assert.Equal(t, []string{"Transação", "Valor Líquido", "Data de Venda"}, table.Headers)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "ABC124", table.Rows[1][0])
	assert.False(t, table.IsNumeric(0, 1))
}

func TestReadTable_WorkbookNativeCells(t *testing.T) {
	saleDate := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		value   any
		style   *excelize.Style
		format  NumberFormat
		wantNet string
	}{
		{name: "float cell with br import", value: 1234.56, format: NumberFormatBR, wantNet: "1234.56"},
		{name: "float cell with us import", value: 1234.56, format: NumberFormatUS, wantNet: "1234.56"},
		{name: "integer cell", value: 150, format: NumberFormatBR, wantNet: "150"},
		{
			name:    "currency formatted cell",
			value:   98765.4,
			style:   &excelize.Style{CustomNumFmt: strPtr(`"R$" #,##0.00`)},
			format:  NumberFormatBR,
			wantNet: "98765.4",
		},
		{name: "text cell keeps br parsing", value: "1.234,56", format: NumberFormatBR, wantNet: "1234.56"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := excelize.NewFile()
			sheet := f.GetSheetName(0)
			require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{"Transação", "Valor Líquido", "Data de Venda"}))
			require.NoError(t, f.SetSheetRow(sheet, "A2", &[]any{"ABC123", tt.value, saleDate}))
			if tt.style != nil {
				style, err := f.NewStyle(tt.style)
				require.NoError(t, err)
				require.NoError(t, f.SetCellStyle(sheet, "B2", "B2", style))
			}

			table, err := ReadTable("export.xlsx", workbookBytes(t, f))
			require.NoError(t, err)
			require.Len(t, table.Rows, 1)
			assert.True(t, table.IsNumeric(0, 2), "date cell should be flagged numeric")

			mapping := BuildMapping(table.Headers)
			require.NoError(t, mapping.Validate())
			rows, dropped := NewMaterializer(mapping, tt.format, "proj-1", "export.xlsx").MaterializeTable(table)
			require.Zero(t, dropped)
			require.Len(t, rows, 1)

			requireDecimal(t, tt.wantNet, rows[0].NetValueBRL)
			require.NotNil(t, rows[0].SaleDate)
			assert.True(t, rows[0].SaleDate.Equal(saleDate), "got %s", rows[0].SaleDate)
		})
	}
}

func TestLegacyCells(t *testing.T) {
	label := &record.LabelBIFF5{}
	label.Read(append([]byte{0, 0, 0, 0, 0, 0, 6, 0}, "ABC123"...))

	number := &record.Number{}
	numStream := make([]byte, 14)
	binary.LittleEndian.PutUint64(numStream[6:], math.Float64bits(1234.56))
	number.Read(numStream)

	// RK integer form: value << 2 | 0b10
	serial := &record.Rk{}
	rkStream := make([]byte, 10)
	binary.LittleEndian.PutUint32(rkStream[6:], 45366<<2|2)
	serial.Read(rkStream)

	cells, flags := legacyCells([]structure.CellData{label, number, serial, &record.FakeBlank{}})
	assert.Equal(t, []string{"ABC123", "1234.56", "45366", ""}, cells)
	assert.Equal(t, []bool{false, true, true, false}, flags)

	table := tableFromRows(
		[][]string{{"Transação", "Valor Líquido", "Data de Venda"}, cells[:3]},
		[][]bool{{false, false, false}, flags[:3]},
	)
	rows, dropped := NewMaterializer(BuildMapping(table.Headers), NumberFormatBR, "proj-1", "export.xls").MaterializeTable(table)
	require.Zero(t, dropped)
	require.Len(t, rows, 1)
	requireDecimal(t, "1234.56", rows[0].NetValueBRL)
	require.NotNil(t, rows[0].SaleDate)
	assert.Equal(t, "2024-03-15T00:00:00.000Z", domain.FormatInstant(*rows[0].SaleDate))
}

func workbookBytes(t *testing.T, f *excelize.File) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	require.NoError(t, f.Close())
	return buf.Bytes()
}

func strPtr(s string) *string { return &s }

func TestReadTable_LegacyWorkbookRejectsGarbage(t *testing.T) {
	_, err := ReadTable("export.xls", []byte("not a compound document"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open legacy workbook")
}

package ingest

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/ledgerimport/internal/domain"
)

func materializeText(t *testing.T, text string) ([]*domain.LedgerRow, int) {
	t.Helper()
	table := Parse(text)
	require.NoError(t, table.CheckStructure())
	mapping := BuildMapping(table.Headers)
	require.NoError(t, mapping.Validate())
	return NewMaterializer(mapping, NumberFormatBR, "proj-1", "vendas.csv").MaterializeAll(table.Rows)
}

func requireDecimal(t *testing.T, want string, got *decimal.Decimal) {
	t.Helper()
	require.NotNil(t, got)
	assert.True(t, got.Equal(decimal.RequireFromString(want)), "got %s want %s", got, want)
}

func TestMaterialize_Scenario(t *testing.T) {
	rows, dropped := materializeText(t, "Transação;Valor Líquido;Data de Venda\nABC123;150,00;15/03/2024\n")

	require.Len(t, rows, 1)
	assert.Zero(t, dropped)

	row := rows[0]
	assert.Equal(t, "ABC123", row.TransactionID)
	requireDecimal(t, "150", row.NetValueBRL)
	require.NotNil(t, row.SaleDate)
	assert.Equal(t, "2024-03-15T00:00:00.000Z", domain.FormatInstant(*row.SaleDate))
	assert.Equal(t, "proj-1", row.ProjectID)
	assert.Equal(t, "vendas.csv", row.SourceFileName)
	assert.Equal(t, 2, row.SourceRowNumber)
	assert.Equal(t, map[string]string{
		"Transação":     "ABC123",
		"Valor Líquido": "150,00",
		"Data de Venda": "15/03/2024",
	}, row.RawCSVRow)
}

func TestMaterialize_DropRules(t *testing.T) {
	text := "Transação;Valor Líquido;Valor em Reais\n" +
		"A1;0;\n" + // zero net, no brl: dropped
		";10,00;\n" + // no id: dropped
		"A2;-3,00;0\n" + // nothing positive: dropped
		"A3;abc;5,00\n" + // brl alone keeps the row
		"A4;7,00;\n"

	rows, dropped := materializeText(t, text)
	assert.Equal(t, 3, dropped)
	require.Len(t, rows, 2)
	assert.Equal(t, "A3", rows[0].TransactionID)
	assert.Nil(t, rows[0].NetValue)
	assert.Equal(t, 5, rows[0].SourceRowNumber)
	assert.Equal(t, "A4", rows[1].TransactionID)
}

func TestMaterialize_GrossDerivation(t *testing.T) {
	text := "transaction_id,net_value,platform_fee,affiliate_commission,taxes\nT1,80,10,5,5\n"
	rows, _ := materializeText(t, text)

	require.Len(t, rows, 1)
	requireDecimal(t, "100", rows[0].GrossValue)
	requireDecimal(t, "80", rows[0].NetValueBRL)
}

func TestMaterialize_GrossKeptWhenPresent(t *testing.T) {
	rows, _ := materializeText(t, "transaction_id;gross_value;net_value;platform_fee\nT1;120,00;80,00;10,00\n")

	require.Len(t, rows, 1)
	requireDecimal(t, "120", rows[0].GrossValue)
}

func TestMaterialize_ExchangeRate(t *testing.T) {
	text := "Transação;Valor Líquido;Moeda;Taxa de Câmbio\n" +
		"U1;10,00;USD;5,1234\n" +
		"U2;10,00;BRL;5,1234\n" +
		"U3;10,00;USD;\n"

	rows, _ := materializeText(t, text)
	require.Len(t, rows, 3)
	requireDecimal(t, "51.23", rows[0].NetValueBRL)
	requireDecimal(t, "10", rows[1].NetValueBRL)
	requireDecimal(t, "10", rows[2].NetValueBRL)
}

func TestMaterialize_FieldClasses(t *testing.T) {
	text := "Transação;Valor Líquido;Parcelas;Data de Confirmação;Código do Produto;Status;Email do Comprador\n" +
		`="000123";1.234,56;12;2024-03-16 10:30:00;="0042"; approved ;ana@example.com` + "\n" +
		"X2;1,00;muitas;ontem;P1;;\n"

	rows, _ := materializeText(t, text)
	require.Len(t, rows, 2)

	first := rows[0]
	assert.Equal(t, "000123", first.TransactionID)
	requireDecimal(t, "1234.56", first.NetValue)
	require.NotNil(t, first.Installments)
	assert.Equal(t, 12, *first.Installments)
	require.NotNil(t, first.ConfirmationDate)
	assert.Equal(t, "2024-03-16T10:30:00.000Z", domain.FormatInstant(*first.ConfirmationDate))
	assert.Equal(t, "0042", first.ProductCode)
	assert.Equal(t, "approved", first.Status)
	assert.Equal(t, "ana@example.com", first.BuyerEmail)

	second := rows[1]
	assert.Nil(t, second.Installments)
	assert.Nil(t, second.ConfirmationDate)
}

func TestMaterialize_ShortRow(t *testing.T) {
	table := Table{Headers: []string{"Transação", "Valor Líquido", "Status"}}
	m := NewMaterializer(BuildMapping(table.Headers), "", "p", "f.csv")

	row, ok := m.Materialize([]string{"S1", "3,00"}, 7)
	require.True(t, ok)
	assert.Equal(t, "", row.Status)
	assert.Equal(t, "", row.RawCSVRow["Status"])
	assert.Equal(t, 7, row.SourceRowNumber)
}

func TestMaterialize_USFormat(t *testing.T) {
	table := Parse("transaction_id,net_value\nT1,\"1,234.50\"\n")
	m := NewMaterializer(BuildMapping(table.Headers), NumberFormatUS, "p", "f.csv")

	rows, dropped := m.MaterializeAll(table.Rows)
	require.Len(t, rows, 1)
	assert.Zero(t, dropped)
	requireDecimal(t, "1234.5", rows[0].NetValue)
}

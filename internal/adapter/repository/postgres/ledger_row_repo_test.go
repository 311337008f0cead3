package postgres

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"

	"github.com/iho/ledgerimport/internal/domain"
)

func ledgerRow(id, net string) *domain.LedgerRow {
	v := decimal.RequireFromString(net)
	return &domain.LedgerRow{
		ProjectID:     "7f9c2a34-5b1e-4c8d-9a0f-1e2d3c4b5a69",
		TransactionID: id,
		ImportBatchID: "01HBATCH",
		NetValue:      &v,
		NetValueBRL:   &v,
		RawCSVRow:     map[string]string{"Transação": id},
	}
}

func anyArgs(n int) []any {
	args := make([]any, n)
	for i := range args {
		args[i] = pgxmock.AnyArg()
	}
	return args
}

func TestLedgerRowRepositoryUpsertBatchDeduplicates(t *testing.T) {
	mockPool := newMockPool(t)
	mockPool.ExpectExec(regexp.QuoteMeta("INSERT INTO ledger_rows")).
		WithArgs(anyArgs(2 * ledgerRowColumnCount)...).
		WillReturnResult(pgxmock.NewResult("INSERT", 2))

	repo := newLedgerRowRepository(mockPool)
	rows := []*domain.LedgerRow{ledgerRow("A", "10"), ledgerRow("B", "20"), ledgerRow("A", "30")}

	n, err := repo.UpsertBatch(context.Background(), rows)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 persisted rows, got %d", n)
	}

	assertExpectations(t, mockPool)
}

func TestLedgerRowRepositoryUpsertBatchError(t *testing.T) {
	mockPool := newMockPool(t)
	mockErr := errors.New("deadlock")
	mockPool.ExpectExec(regexp.QuoteMeta("INSERT INTO ledger_rows")).WillReturnError(mockErr)

	repo := newLedgerRowRepository(mockPool)
	n, err := repo.UpsertBatch(context.Background(), []*domain.LedgerRow{ledgerRow("A", "10")})
	if !errors.Is(err, mockErr) {
		t.Fatalf("expected wrapped upsert error, got %v", err)
	}
	if n != 0 {
		t.Fatalf("expected 0 persisted rows on failure, got %d", n)
	}
}

func TestLedgerRowRepositoryUpsertBatchEmpty(t *testing.T) {
	mockPool := newMockPool(t)
	repo := newLedgerRowRepository(mockPool)

	n, err := repo.UpsertBatch(context.Background(), nil)
	if err != nil || n != 0 {
		t.Fatalf("expected no-op, got n=%d err=%v", n, err)
	}
	assertExpectations(t, mockPool)
}

func TestUpsertStatementPlaceholders(t *testing.T) {
	stmt := upsertStatement(2)

	if !strings.Contains(stmt, "($1, $2,") {
		t.Fatalf("expected first tuple to start at $1: %s", stmt[:120])
	}
	last := "$84)"
	if !strings.Contains(stmt, last) {
		t.Fatalf("expected statement to end tuples with %s", last)
	}
	if strings.Contains(stmt, "$85") {
		t.Fatalf("unexpected placeholder beyond two rows")
	}
	if !strings.Contains(stmt, "ON CONFLICT (project_id, transaction_id) DO UPDATE SET") {
		t.Fatalf("expected upsert clause")
	}
	if strings.Contains(stmt, "created_at = EXCLUDED.created_at") {
		t.Fatalf("created_at must survive re-imports")
	}
}

func TestLedgerRowArgsMatchColumns(t *testing.T) {
	row := ledgerRow("A", "10.5")
	args := ledgerRowArgs(row, time.Now())

	if got := len(strings.Split(ledgerRowColumns, ",")); got != ledgerRowColumnCount {
		t.Fatalf("column list has %d entries, expected %d", got, ledgerRowColumnCount)
	}
	if len(args) != ledgerRowColumnCount {
		t.Fatalf("expected %d args, got %d", ledgerRowColumnCount, len(args))
	}

	gross, ok := args[21].(pgtype.Numeric)
	if !ok || gross.Valid {
		t.Fatalf("expected absent gross value to encode as NULL, got %#v", args[21])
	}
	raw, ok := args[39].([]byte)
	if !ok || !strings.Contains(string(raw), "Transação") {
		t.Fatalf("expected raw csv snapshot, got %#v", args[39])
	}
}

func TestLedgerRowRepositoryListDivergent(t *testing.T) {
	mockPool := newMockPool(t)

	cols := strings.Split(strings.Join(strings.Fields(ledgerRowColumns), ""), ",")
	values := make([]any, len(cols))
	for i, col := range cols {
		switch col {
		case "payout_date", "sale_date", "confirmation_date", "installments", "divergence_type",
			"gross_value", "product_price", "offer_price", "platform_fee", "affiliate_commission",
			"coproducer_commission", "taxes", "exchange_rate":
			values[i] = nil
		case "net_value", "net_value_brl", "divergence_csv_value":
			values[i] = decimalToNumeric(decimal.RequireFromString("100.00"))
		case "divergence_webhook_value":
			values[i] = decimalToNumeric(decimal.RequireFromString("90.00"))
		case "divergence_amount":
			values[i] = decimalToNumeric(decimal.RequireFromString("10.00"))
		case "is_reconciled":
			values[i] = false
		case "has_divergence":
			values[i] = true
		case "source_row_number":
			values[i] = int32(2)
		case "raw_csv_row":
			values[i] = []byte(`{"Transação":"ABC"}`)
		case "created_at", "updated_at":
			values[i] = timeToPgTimestamptz(time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC))
		case "transaction_id":
			values[i] = "ABC"
		case "import_batch_id":
			values[i] = "01HBATCH"
		default:
			values[i] = ""
		}
	}

	mockPool.ExpectQuery(regexp.QuoteMeta("FROM ledger_rows")).
		WithArgs("01HBATCH", int32(50), int32(0)).
		WillReturnRows(pgxmock.NewRows(cols).AddRow(values...))

	repo := newLedgerRowRepository(mockPool)
	rows, err := repo.ListDivergent(context.Background(), "01HBATCH", 50, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}

	row := rows[0]
	if row.TransactionID != "ABC" || !row.HasDivergence {
		t.Fatalf("unexpected row: %+v", row)
	}
	if row.GrossValue != nil {
		t.Fatalf("expected NULL gross value to stay absent")
	}
	if row.DivergenceAmount == nil || !row.DivergenceAmount.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("unexpected divergence amount: %v", row.DivergenceAmount)
	}
	if row.RawCSVRow["Transação"] != "ABC" {
		t.Fatalf("expected raw csv snapshot to round-trip, got %v", row.RawCSVRow)
	}

	assertExpectations(t, mockPool)
}

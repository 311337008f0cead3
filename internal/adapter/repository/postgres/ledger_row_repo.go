package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/ledgerimport/internal/domain"
	"github.com/iho/ledgerimport/internal/infrastructure/postgres/generated"
)

var errForeignTransaction = errors.New("postgres: transaction was not started by this package")

// ledgerRowColumns is the insert order of ledgerRowArgs.
const ledgerRowColumns = `project_id, transaction_id, import_batch_id, payout_id, payout_date, sale_date,
	confirmation_date, product_code, product_name, offer_code, offer_name, affiliate_code,
	affiliate_name, coproducer_name, buyer_email, buyer_name, original_currency, status,
	payment_method, payment_type, installments, gross_value, product_price, offer_price,
	platform_fee, affiliate_commission, coproducer_commission, taxes, net_value, net_value_brl,
	exchange_rate, is_reconciled, has_divergence, divergence_type, divergence_webhook_value, divergence_csv_value,
	divergence_amount, source_file_name, source_row_number, raw_csv_row, created_at, updated_at`

const ledgerRowColumnCount = 42

// Postgres accepts at most 65535 bind parameters per statement.
const maxRowsPerStatement = 65535 / ledgerRowColumnCount

const upsertLedgerRowsConflict = `
ON CONFLICT (project_id, transaction_id) DO UPDATE SET
	import_batch_id = EXCLUDED.import_batch_id,
	payout_id = EXCLUDED.payout_id,
	payout_date = EXCLUDED.payout_date,
	sale_date = EXCLUDED.sale_date,
	confirmation_date = EXCLUDED.confirmation_date,
	product_code = EXCLUDED.product_code,
	product_name = EXCLUDED.product_name,
	offer_code = EXCLUDED.offer_code,
	offer_name = EXCLUDED.offer_name,
	affiliate_code = EXCLUDED.affiliate_code,
	affiliate_name = EXCLUDED.affiliate_name,
	coproducer_name = EXCLUDED.coproducer_name,
	buyer_email = EXCLUDED.buyer_email,
	buyer_name = EXCLUDED.buyer_name,
	original_currency = EXCLUDED.original_currency,
	status = EXCLUDED.status,
	payment_method = EXCLUDED.payment_method,
	payment_type = EXCLUDED.payment_type,
	installments = EXCLUDED.installments,
	gross_value = EXCLUDED.gross_value,
	product_price = EXCLUDED.product_price,
	offer_price = EXCLUDED.offer_price,
	platform_fee = EXCLUDED.platform_fee,
	affiliate_commission = EXCLUDED.affiliate_commission,
	coproducer_commission = EXCLUDED.coproducer_commission,
	taxes = EXCLUDED.taxes,
	net_value = EXCLUDED.net_value,
	net_value_brl = EXCLUDED.net_value_brl,
	exchange_rate = EXCLUDED.exchange_rate,
	is_reconciled = EXCLUDED.is_reconciled,
	has_divergence = EXCLUDED.has_divergence,
	divergence_type = EXCLUDED.divergence_type,
	divergence_webhook_value = EXCLUDED.divergence_webhook_value,
	divergence_csv_value = EXCLUDED.divergence_csv_value,
	divergence_amount = EXCLUDED.divergence_amount,
	source_file_name = EXCLUDED.source_file_name,
	source_row_number = EXCLUDED.source_row_number,
	raw_csv_row = EXCLUDED.raw_csv_row,
	updated_at = EXCLUDED.updated_at`

type pgxDB interface {
	generated.DBTX
	pgxPool
}

// LedgerRowRepository implements usecase.LedgerRowRepository.
type LedgerRowRepository struct {
	db      pgxDB
	queries *generated.Queries
	now     func() time.Time
}

// NewLedgerRowRepository creates a new LedgerRowRepository.
func NewLedgerRowRepository(pool *pgxpool.Pool) *LedgerRowRepository {
	return newLedgerRowRepository(pool)
}

func newLedgerRowRepository(db pgxDB) *LedgerRowRepository {
	return &LedgerRowRepository{
		db:      db,
		queries: generated.New(db),
		now:     time.Now,
	}
}

// UpsertBatch writes rows keyed by (project_id, transaction_id). A transaction
// id repeated within rows keeps its last occurrence, matching what sequential
// upserts would leave behind. All rows count as persisted on success.
func (r *LedgerRowRepository) UpsertBatch(ctx context.Context, rows []*domain.LedgerRow) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	unique := lastOccurrence(rows)
	now := r.now().UTC()

	if len(unique) <= maxRowsPerStatement {
		if _, err := r.db.Exec(ctx, upsertStatement(len(unique)), upsertArgs(unique, now)...); err != nil {
			return 0, fmt.Errorf("upsert ledger rows: %w", err)
		}
		return len(rows), nil
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	for start := 0; start < len(unique); start += maxRowsPerStatement {
		end := min(start+maxRowsPerStatement, len(unique))
		part := unique[start:end]
		if _, err := tx.Exec(ctx, upsertStatement(len(part)), upsertArgs(part, now)...); err != nil {
			return 0, fmt.Errorf("upsert ledger rows: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return len(rows), nil
}

// ListDivergent returns rows of a batch flagged as divergent, in file order.
func (r *LedgerRowRepository) ListDivergent(ctx context.Context, batchID string, limit, offset int) ([]*domain.LedgerRow, error) {
	rows, err := r.queries.ListDivergentLedgerRows(ctx, generated.ListDivergentLedgerRowsParams{
		ImportBatchID: batchID,
		Limit:         int32(limit),
		Offset:        int32(offset),
	})
	if err != nil {
		return nil, err
	}

	out := make([]*domain.LedgerRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, rowToLedgerRow(row))
	}
	return out, nil
}

func lastOccurrence(rows []*domain.LedgerRow) []*domain.LedgerRow {
	index := make(map[string]int, len(rows))
	out := make([]*domain.LedgerRow, 0, len(rows))
	for _, row := range rows {
		key := row.ProjectID + "\x00" + row.TransactionID
		if i, ok := index[key]; ok {
			out[i] = row
			continue
		}
		index[key] = len(out)
		out = append(out, row)
	}
	return out
}

func upsertStatement(n int) string {
	var b strings.Builder
	b.WriteString("INSERT INTO ledger_rows (")
	b.WriteString(ledgerRowColumns)
	b.WriteString(") VALUES ")
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('(')
		for j := 0; j < ledgerRowColumnCount; j++ {
			if j > 0 {
				b.WriteString(", ")
			}
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(i*ledgerRowColumnCount + j + 1))
		}
		b.WriteByte(')')
	}
	b.WriteString(upsertLedgerRowsConflict)
	return b.String()
}

func upsertArgs(rows []*domain.LedgerRow, now time.Time) []any {
	args := make([]any, 0, len(rows)*ledgerRowColumnCount)
	for _, row := range rows {
		args = append(args, ledgerRowArgs(row, now)...)
	}
	return args
}

func ledgerRowArgs(row *domain.LedgerRow, now time.Time) []any {
	raw, _ := json.Marshal(row.RawCSVRow)
	if row.RawCSVRow == nil {
		raw = []byte("{}")
	}

	return []any{
		row.ProjectID,
		row.TransactionID,
		row.ImportBatchID,
		row.PayoutID,
		optionalTimestamptz(row.PayoutDate),
		optionalTimestamptz(row.SaleDate),
		optionalTimestamptz(row.ConfirmationDate),
		row.ProductCode,
		row.ProductName,
		row.OfferCode,
		row.OfferName,
		row.AffiliateCode,
		row.AffiliateName,
		row.CoproducerName,
		row.BuyerEmail,
		row.BuyerName,
		row.OriginalCurrency,
		row.Status,
		row.PaymentMethod,
		row.PaymentType,
		optionalInt4(row.Installments),
		optionalNumeric(row.GrossValue),
		optionalNumeric(row.ProductPrice),
		optionalNumeric(row.OfferPrice),
		optionalNumeric(row.PlatformFee),
		optionalNumeric(row.AffiliateCommission),
		optionalNumeric(row.CoproducerCommission),
		optionalNumeric(row.Taxes),
		optionalNumeric(row.NetValue),
		optionalNumeric(row.NetValueBRL),
		optionalNumeric(row.ExchangeRate),
		row.IsReconciled,
		row.HasDivergence,
		optionalText(row.DivergenceType),
		optionalNumeric(row.DivergenceWebhookValue),
		optionalNumeric(row.DivergenceCSVValue),
		optionalNumeric(row.DivergenceAmount),
		row.SourceFileName,
		int32(row.SourceRowNumber),
		raw,
		timeToPgTimestamptz(now),
		timeToPgTimestamptz(now),
	}
}

func rowToLedgerRow(row generated.LedgerRow) *domain.LedgerRow {
	var raw map[string]string
	if len(row.RawCsvRow) > 0 {
		_ = json.Unmarshal(row.RawCsvRow, &raw)
	}

	return &domain.LedgerRow{
		ProjectID:              row.ProjectID,
		TransactionID:          row.TransactionID,
		GrossValue:             numericToOptional(row.GrossValue),
		ProductPrice:           numericToOptional(row.ProductPrice),
		OfferPrice:             numericToOptional(row.OfferPrice),
		PlatformFee:            numericToOptional(row.PlatformFee),
		AffiliateCommission:    numericToOptional(row.AffiliateCommission),
		CoproducerCommission:   numericToOptional(row.CoproducerCommission),
		Taxes:                  numericToOptional(row.Taxes),
		NetValue:               numericToOptional(row.NetValue),
		NetValueBRL:            numericToOptional(row.NetValueBrl),
		ExchangeRate:           numericToOptional(row.ExchangeRate),
		OriginalCurrency:       row.OriginalCurrency,
		PayoutID:               row.PayoutID,
		PayoutDate:             timestamptzToOptional(row.PayoutDate),
		SaleDate:               timestamptzToOptional(row.SaleDate),
		ConfirmationDate:       timestamptzToOptional(row.ConfirmationDate),
		Status:                 row.Status,
		PaymentMethod:          row.PaymentMethod,
		PaymentType:            row.PaymentType,
		Installments:           int4ToOptional(row.Installments),
		ProductCode:            row.ProductCode,
		ProductName:            row.ProductName,
		OfferCode:              row.OfferCode,
		OfferName:              row.OfferName,
		BuyerEmail:             row.BuyerEmail,
		BuyerName:              row.BuyerName,
		AffiliateCode:          row.AffiliateCode,
		AffiliateName:          row.AffiliateName,
		CoproducerName:         row.CoproducerName,
		IsReconciled:           row.IsReconciled,
		HasDivergence:          row.HasDivergence,
		DivergenceType:         textToOptional(row.DivergenceType),
		DivergenceWebhookValue: numericToOptional(row.DivergenceWebhookValue),
		DivergenceCSVValue:     numericToOptional(row.DivergenceCsvValue),
		DivergenceAmount:       numericToOptional(row.DivergenceAmount),
		ImportBatchID:          row.ImportBatchID,
		SourceFileName:         row.SourceFileName,
		SourceRowNumber:        int(row.SourceRowNumber),
		RawCSVRow:              raw,
		CreatedAt:              row.CreatedAt.Time,
		UpdatedAt:              row.UpdatedAt.Time,
	}
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

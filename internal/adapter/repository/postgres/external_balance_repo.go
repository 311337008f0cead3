package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/iho/ledgerimport/internal/infrastructure/postgres/generated"
)

// ExternalBalanceRepository implements usecase.ExternalBalanceRepository on top
// of the webhook ledger. Credits add to a transaction's balance, debits
// (fees, commissions, taxes, refunds) subtract.
type ExternalBalanceRepository struct {
	queries *generated.Queries
}

// NewExternalBalanceRepository creates a new ExternalBalanceRepository.
func NewExternalBalanceRepository(pool *pgxpool.Pool) *ExternalBalanceRepository {
	return newExternalBalanceRepository(pool)
}

func newExternalBalanceRepository(db generated.DBTX) *ExternalBalanceRepository {
	return &ExternalBalanceRepository{queries: generated.New(db)}
}

// FetchExternalBalances sums the webhook ledger per transaction id in one query.
func (r *ExternalBalanceRepository) FetchExternalBalances(ctx context.Context, projectID string, transactionIDs []string) (map[string]decimal.Decimal, error) {
	balances := make(map[string]decimal.Decimal, len(transactionIDs))
	if len(transactionIDs) == 0 {
		return balances, nil
	}

	rows, err := r.queries.SumExternalBalances(ctx, generated.SumExternalBalancesParams{
		ProjectID:      projectID,
		TransactionIds: transactionIDs,
	})
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		balances[row.TransactionID] = numericToDecimal(row.Balance)
	}
	return balances, nil
}

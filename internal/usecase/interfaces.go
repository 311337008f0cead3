package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/ledgerimport/internal/domain"
)

// ExternalBalanceRepository reads the webhook-derived ledger, owned by another service.
type ExternalBalanceRepository interface {
	// FetchExternalBalances returns the signed net contribution per transaction id.
	// Ids without any recorded entry are absent from the map.
	FetchExternalBalances(ctx context.Context, projectID string, transactionIDs []string) (map[string]decimal.Decimal, error)
}

// LedgerRowRepository defines data access for imported ledger rows.
type LedgerRowRepository interface {
	// UpsertBatch writes rows keyed by (project_id, transaction_id) and returns how many were persisted.
	UpsertBatch(ctx context.Context, rows []*domain.LedgerRow) (int, error)
	ListDivergent(ctx context.Context, batchID string, limit, offset int) ([]*domain.LedgerRow, error)
}

// ImportBatchRepository defines data access for import batch bookkeeping.
type ImportBatchRepository interface {
	Create(ctx context.Context, batch *domain.ImportBatch) error
	Complete(ctx context.Context, tx Transaction, batch *domain.ImportBatch) error
	GetByID(ctx context.Context, id string) (*domain.ImportBatch, error)
	List(ctx context.Context, projectID string, limit, offset int) ([]*domain.ImportBatch, error)
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
}

// AuditRepository defines data access for audit logs.
type AuditRepository interface {
	Create(ctx context.Context, log *domain.AuditLog) error
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// Retrier re-runs an operation on transient storage errors.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// ProgressReporter receives progress events while an import runs.
type ProgressReporter interface {
	Report(ctx context.Context, p Progress)
}

// ImportLock serializes imports of the same project.
type ImportLock interface {
	// Acquire returns domain.ErrImportInProgress when the project is already locked.
	Acquire(ctx context.Context, projectID string, ttl time.Duration) (token string, err error)
	// Refresh extends a held lock to ttl. It returns domain.ErrImportLockLost
	// when token no longer owns the lock.
	Refresh(ctx context.Context, projectID, token string, ttl time.Duration) error
	Release(ctx context.Context, projectID, token string) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Delete releases a key whose request failed so the client can retry.
	Delete(ctx context.Context, key string) error
}

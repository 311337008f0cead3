package mocks

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/ledgerimport/internal/domain"
	"github.com/iho/ledgerimport/internal/usecase"
)

// MemoryLedgerRowRepository is an in-memory LedgerRowRepository keyed by
// (project_id, transaction_id).
type MemoryLedgerRowRepository struct {
	mu    sync.RWMutex
	rows  map[string]domain.LedgerRow
	calls int

	// UpsertBatchFunc, when set, runs before the in-memory write. A non-nil
	// error aborts the write. call is 1-based.
	UpsertBatchFunc func(ctx context.Context, call int, rows []*domain.LedgerRow) error
}

func NewMemoryLedgerRowRepository() *MemoryLedgerRowRepository {
	return &MemoryLedgerRowRepository{
		rows: make(map[string]domain.LedgerRow),
	}
}

func (m *MemoryLedgerRowRepository) UpsertBatch(ctx context.Context, rows []*domain.LedgerRow) (int, error) {
	m.mu.Lock()
	m.calls++
	call := m.calls
	m.mu.Unlock()

	if m.UpsertBatchFunc != nil {
		if err := m.UpsertBatchFunc(ctx, call, rows); err != nil {
			return 0, err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range rows {
		m.rows[row.ProjectID+"|"+row.TransactionID] = *row
	}
	return len(rows), nil
}

func (m *MemoryLedgerRowRepository) ListDivergent(ctx context.Context, batchID string, limit, offset int) ([]*domain.LedgerRow, error) {
	var out []*domain.LedgerRow
	for _, row := range m.Rows() {
		if row.ImportBatchID == batchID && row.HasDivergence {
			out = append(out, row)
		}
	}
	if offset >= len(out) {
		return []*domain.LedgerRow{}, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

// Rows returns a copy of every stored row ordered by transaction id.
func (m *MemoryLedgerRowRepository) Rows() []*domain.LedgerRow {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.LedgerRow, 0, len(m.rows))
	for _, row := range m.rows {
		row := row
		out = append(out, &row)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].TransactionID < out[j].TransactionID
	})
	return out
}

// Calls returns the number of UpsertBatch calls so far.
func (m *MemoryLedgerRowRepository) Calls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.calls
}

// MemoryImportBatchRepository is an in-memory ImportBatchRepository.
type MemoryImportBatchRepository struct {
	mu      sync.RWMutex
	batches map[string]domain.ImportBatch
	order   []string

	CreateFunc   func(ctx context.Context, batch *domain.ImportBatch) error
	CompleteFunc func(ctx context.Context, tx usecase.Transaction, batch *domain.ImportBatch) error
}

func NewMemoryImportBatchRepository() *MemoryImportBatchRepository {
	return &MemoryImportBatchRepository{
		batches: make(map[string]domain.ImportBatch),
	}
}

func (m *MemoryImportBatchRepository) Create(ctx context.Context, batch *domain.ImportBatch) error {
	if m.CreateFunc != nil {
		if err := m.CreateFunc(ctx, batch); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batches[batch.ID] = *batch
	m.order = append(m.order, batch.ID)
	return nil
}

func (m *MemoryImportBatchRepository) Complete(ctx context.Context, tx usecase.Transaction, batch *domain.ImportBatch) error {
	if m.CompleteFunc != nil {
		if err := m.CompleteFunc(ctx, tx, batch); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.batches[batch.ID]; !ok {
		return domain.ErrImportBatchNotFound
	}
	m.batches[batch.ID] = *batch
	return nil
}

func (m *MemoryImportBatchRepository) GetByID(ctx context.Context, id string) (*domain.ImportBatch, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if b, ok := m.batches[id]; ok {
		return &b, nil
	}
	return nil, domain.ErrImportBatchNotFound
}

func (m *MemoryImportBatchRepository) List(ctx context.Context, projectID string, limit, offset int) ([]*domain.ImportBatch, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.ImportBatch
	for i := len(m.order) - 1; i >= 0; i-- {
		b := m.batches[m.order[i]]
		if b.ProjectID == projectID {
			out = append(out, &b)
		}
	}
	if offset >= len(out) {
		return []*domain.ImportBatch{}, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

// MemoryOutboxRepository is an in-memory OutboxRepository.
type MemoryOutboxRepository struct {
	mu     sync.Mutex
	events []*domain.OutboxEvent
}

func NewMemoryOutboxRepository() *MemoryOutboxRepository {
	return &MemoryOutboxRepository{}
}

func (m *MemoryOutboxRepository) Create(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *MemoryOutboxRepository) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.OutboxEvent
	for _, e := range m.events {
		if e.PublishedAt == nil {
			out = append(out, e)
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *MemoryOutboxRepository) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.events {
		if e.ID == id {
			at := publishedAt
			e.PublishedAt = &at
		}
	}
	return nil
}

// Events returns every event created so far.
func (m *MemoryOutboxRepository) Events() []*domain.OutboxEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*domain.OutboxEvent(nil), m.events...)
}

// MemoryAuditRepository is an in-memory AuditRepository.
type MemoryAuditRepository struct {
	mu   sync.Mutex
	logs []*domain.AuditLog
}

func NewMemoryAuditRepository() *MemoryAuditRepository {
	return &MemoryAuditRepository{}
}

func (m *MemoryAuditRepository) Create(ctx context.Context, log *domain.AuditLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs = append(m.logs, log)
	return nil
}

func (m *MemoryAuditRepository) Logs() []*domain.AuditLog {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*domain.AuditLog(nil), m.logs...)
}

// StaticBalanceRepository serves external balances from a fixed map.
type StaticBalanceRepository struct {
	Balances map[string]decimal.Decimal
	Err      error
}

func (s *StaticBalanceRepository) FetchExternalBalances(ctx context.Context, projectID string, transactionIDs []string) (map[string]decimal.Decimal, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	out := make(map[string]decimal.Decimal, len(transactionIDs))
	for _, id := range transactionIDs {
		if v, ok := s.Balances[id]; ok {
			out[id] = v
		}
	}
	return out, nil
}

// NoopTransactionManager hands out transactions that do nothing.
type NoopTransactionManager struct{}

func (NoopTransactionManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	return noopTransaction{}, nil
}

type noopTransaction struct{}

func (noopTransaction) Commit(ctx context.Context) error   { return nil }
func (noopTransaction) Rollback(ctx context.Context) error { return nil }

// SequenceIDGenerator returns prefix-1, prefix-2, ...
type SequenceIDGenerator struct {
	Prefix  string
	mu      sync.Mutex
	counter int
}

func (g *SequenceIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.counter++
	prefix := g.Prefix
	if prefix == "" {
		prefix = "id"
	}
	return prefix + "-" + strconv.Itoa(g.counter)
}

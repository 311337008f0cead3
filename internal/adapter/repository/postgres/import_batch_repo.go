package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/ledgerimport/internal/domain"
	"github.com/iho/ledgerimport/internal/infrastructure/postgres/generated"
	"github.com/iho/ledgerimport/internal/usecase"
)

// ImportBatchRepository implements usecase.ImportBatchRepository.
type ImportBatchRepository struct {
	queries *generated.Queries
}

// NewImportBatchRepository creates a new ImportBatchRepository.
func NewImportBatchRepository(pool *pgxpool.Pool) *ImportBatchRepository {
	return newImportBatchRepository(pool)
}

func newImportBatchRepository(db generated.DBTX) *ImportBatchRepository {
	return &ImportBatchRepository{queries: generated.New(db)}
}

// Create inserts a batch record outside of any transaction, so the batch is
// visible to progress queries while rows are still being written.
func (r *ImportBatchRepository) Create(ctx context.Context, batch *domain.ImportBatch) error {
	err := r.queries.CreateImportBatch(ctx, generated.CreateImportBatchParams{
		ID:             batch.ID,
		ProjectID:      batch.ProjectID,
		SourceFileName: batch.SourceFileName,
		CreatedBy:      batch.CreatedBy,
		Status:         string(batch.Status),
		TotalRows:      int32(batch.TotalRows),
		CreatedAt:      timeToPgTimestamptz(batch.CreatedAt),
		UpdatedAt:      timeToPgTimestamptz(batch.UpdatedAt),
	})
	if isUniqueViolation(err) {
		return fmt.Errorf("import batch %s already exists: %w", batch.ID, err)
	}
	return err
}

// Complete writes the final aggregates within a transaction.
func (r *ImportBatchRepository) Complete(ctx context.Context, tx usecase.Transaction, batch *domain.ImportBatch) error {
	pgxTx, err := pgxTxFrom(tx)
	if err != nil {
		return err
	}

	totals, err := json.Marshal(batch.Totals)
	if err != nil {
		return err
	}
	errs, err := marshalStrings(batch.Errors)
	if err != nil {
		return err
	}
	messages, err := marshalStrings(batch.Messages)
	if err != nil {
		return err
	}

	affected, err := r.queries.WithTx(pgxTx).CompleteImportBatch(ctx, generated.CompleteImportBatchParams{
		ID:              batch.ID,
		Status:          string(batch.Status),
		ImportedRows:    int32(batch.ImportedRows),
		SkippedRows:     int32(batch.SkippedRows),
		ErroredRows:     int32(batch.ErroredRows),
		ReconciledCount: int32(batch.ReconciledCount),
		DivergentCount:  int32(batch.DivergentCount),
		NewCount:        int32(batch.NewCount),
		Totals:          totals,
		PeriodStart:     optionalTimestamptz(batch.Period.Start),
		PeriodEnd:       optionalTimestamptz(batch.Period.End),
		Errors:          errs,
		Messages:        messages,
		UpdatedAt:       timeToPgTimestamptz(batch.UpdatedAt),
		CompletedAt:     optionalTimestamptz(batch.CompletedAt),
	})
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrImportBatchNotFound
	}
	return nil
}

// GetByID retrieves an import batch by ID.
func (r *ImportBatchRepository) GetByID(ctx context.Context, id string) (*domain.ImportBatch, error) {
	row, err := r.queries.GetImportBatch(ctx, id)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrImportBatchNotFound
		}
		return nil, err
	}
	return rowToImportBatch(row), nil
}

// List returns a project's batches, newest first.
func (r *ImportBatchRepository) List(ctx context.Context, projectID string, limit, offset int) ([]*domain.ImportBatch, error) {
	rows, err := r.queries.ListImportBatches(ctx, generated.ListImportBatchesParams{
		ProjectID: projectID,
		Limit:     int32(limit),
		Offset:    int32(offset),
	})
	if err != nil {
		return nil, err
	}

	batches := make([]*domain.ImportBatch, 0, len(rows))
	for _, row := range rows {
		batches = append(batches, rowToImportBatch(row))
	}
	return batches, nil
}

func marshalStrings(values []string) ([]byte, error) {
	if values == nil {
		values = []string{}
	}
	return json.Marshal(values)
}

func rowToImportBatch(row generated.ImportBatch) *domain.ImportBatch {
	batch := &domain.ImportBatch{
		ID:              row.ID,
		ProjectID:       row.ProjectID,
		SourceFileName:  row.SourceFileName,
		CreatedBy:       row.CreatedBy,
		Status:          domain.BatchStatus(row.Status),
		TotalRows:       int(row.TotalRows),
		ImportedRows:    int(row.ImportedRows),
		SkippedRows:     int(row.SkippedRows),
		ErroredRows:     int(row.ErroredRows),
		ReconciledCount: int(row.ReconciledCount),
		DivergentCount:  int(row.DivergentCount),
		NewCount:        int(row.NewCount),
		Period: domain.Period{
			Start: timestamptzToOptional(row.PeriodStart),
			End:   timestamptzToOptional(row.PeriodEnd),
		},
		CreatedAt:   row.CreatedAt.Time,
		UpdatedAt:   row.UpdatedAt.Time,
		CompletedAt: timestamptzToOptional(row.CompletedAt),
	}

	if len(row.Totals) > 0 {
		_ = json.Unmarshal(row.Totals, &batch.Totals)
	}
	if len(row.Errors) > 0 {
		_ = json.Unmarshal(row.Errors, &batch.Errors)
	}
	if len(row.Messages) > 0 {
		_ = json.Unmarshal(row.Messages, &batch.Messages)
	}

	return batch
}

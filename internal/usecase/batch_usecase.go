package usecase

import (
	"context"

	"github.com/iho/ledgerimport/internal/domain"
)

// BatchUseCase answers queries about finished and running imports.
type BatchUseCase struct {
	batchRepo  ImportBatchRepository
	ledgerRepo LedgerRowRepository
}

// NewBatchUseCase creates a new BatchUseCase.
func NewBatchUseCase(batchRepo ImportBatchRepository, ledgerRepo LedgerRowRepository) *BatchUseCase {
	return &BatchUseCase{
		batchRepo:  batchRepo,
		ledgerRepo: ledgerRepo,
	}
}

// GetBatch retrieves an import batch by ID.
func (uc *BatchUseCase) GetBatch(ctx context.Context, id string) (*domain.ImportBatch, error) {
	return uc.batchRepo.GetByID(ctx, id)
}

// ListBatchesInput represents input for listing import batches.
type ListBatchesInput struct {
	ProjectID string
	Limit     int
	Offset    int
}

// ListBatches lists a project's import batches, newest first.
func (uc *BatchUseCase) ListBatches(ctx context.Context, input ListBatchesInput) ([]*domain.ImportBatch, error) {
	projectID, err := domain.ValidateProjectID(input.ProjectID)
	if err != nil {
		return nil, err
	}

	limit, offset, _ := domain.ValidatePagination(input.Limit, input.Offset)

	return uc.batchRepo.List(ctx, projectID, limit, offset)
}

// ListDivergencesInput represents input for listing divergent rows of a batch.
type ListDivergencesInput struct {
	BatchID string
	Limit   int
	Offset  int
}

// ListDivergences returns the rows a batch flagged as divergent. Rows later
// overwritten by another import no longer belong to this batch.
func (uc *BatchUseCase) ListDivergences(ctx context.Context, input ListDivergencesInput) ([]*domain.LedgerRow, error) {
	if _, err := uc.batchRepo.GetByID(ctx, input.BatchID); err != nil {
		return nil, err
	}

	limit, offset, _ := domain.ValidatePagination(input.Limit, input.Offset)

	return uc.ledgerRepo.ListDivergent(ctx, input.BatchID, limit, offset)
}

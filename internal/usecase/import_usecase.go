package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/ledgerimport/internal/domain"
	"github.com/iho/ledgerimport/internal/infrastructure/metrics"
	"github.com/iho/ledgerimport/internal/ingest"
)

// ImportUseCase ingests financial exports into the ledger.
type ImportUseCase struct {
	txManager   TransactionManager
	batchRepo   ImportBatchRepository
	ledgerRepo  LedgerRowRepository
	balanceRepo ExternalBalanceRepository
	outboxRepo  OutboxRepository
	auditRepo   AuditRepository
	idGen       IDGenerator
	reconciler  *Reconciler
	retrier     Retrier
	metrics     *metrics.Metrics
	logger      zerolog.Logger
	opts        ImportOptions
}

// ImportOptions holds import-wide defaults.
type ImportOptions struct {
	BatchSize    int
	NumberFormat ingest.NumberFormat
}

// NewImportUseCase creates a new ImportUseCase. retrier and metrics may be nil.
func NewImportUseCase(
	txManager TransactionManager,
	batchRepo ImportBatchRepository,
	ledgerRepo LedgerRowRepository,
	balanceRepo ExternalBalanceRepository,
	outboxRepo OutboxRepository,
	auditRepo AuditRepository,
	idGen IDGenerator,
	reconciler *Reconciler,
	retrier Retrier,
	metrics *metrics.Metrics,
	logger zerolog.Logger,
	opts ImportOptions,
) *ImportUseCase {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.NumberFormat == "" {
		opts.NumberFormat = ingest.NumberFormatBR
	}
	if reconciler == nil {
		reconciler = NewReconciler(DefaultAbsoluteTolerance, DefaultRelativeTolerance)
	}

	return &ImportUseCase{
		txManager:   txManager,
		batchRepo:   batchRepo,
		ledgerRepo:  ledgerRepo,
		balanceRepo: balanceRepo,
		outboxRepo:  outboxRepo,
		auditRepo:   auditRepo,
		idGen:       idGen,
		reconciler:  reconciler,
		retrier:     retrier,
		metrics:     metrics,
		logger:      logger.With().Str("component", "import").Logger(),
		opts:        opts,
	}
}

// ImportInput represents input for one import.
type ImportInput struct {
	ProjectID      string
	SourceFileName string
	Content        []byte
	CreatedBy      string
	RequestID      string
	// NumberFormat overrides the configured default when set.
	NumberFormat ingest.NumberFormat
	// Progress is optional.
	Progress ProgressReporter
}

// Progress is emitted after every row batch.
type Progress struct {
	ProjectID    string `json:"project_id"`
	BatchID      string `json:"batch_id"`
	BatchIndex   int    `json:"batch_index"`
	TotalBatches int    `json:"total_batches"`
	Message      string `json:"message"`
}

// ProgressFunc adapts a function to ProgressReporter.
type ProgressFunc func(ctx context.Context, p Progress)

// Report calls f.
func (f ProgressFunc) Report(ctx context.Context, p Progress) {
	f(ctx, p)
}

// ImportReport summarizes a finished import.
type ImportReport struct {
	BatchID         string
	TotalRows       int
	Imported        int
	Reconciled      int
	Divergent       int
	NewTransactions int
	Skipped         int
	Errored         int
	Errors          []string
	Messages        []string
	Cancelled       bool
	Totals          domain.Totals
	Period          domain.Period
	Divergences     []domain.Divergence
}

// chunkResult accumulates one row batch until its upsert succeeds.
type chunkResult struct {
	rows        []*domain.LedgerRow
	totals      domain.Totals
	period      domain.Period
	reconciled  int
	divergent   int
	newRows     int
	divergences []domain.Divergence
}

// Import runs the whole pipeline. Structural and schema problems are returned
// before anything is written. Once the batch record exists, persistence errors
// are collected into the report and the batch always completes. Cancelling ctx
// stops the import at the next row or batch boundary; rows already staged are
// still written.
func (uc *ImportUseCase) Import(ctx context.Context, input ImportInput) (*ImportReport, error) {
	start := time.Now()

	projectID, err := domain.ValidateProjectID(input.ProjectID)
	if err != nil {
		return nil, err
	}

	format := input.NumberFormat
	if format == "" {
		format = uc.opts.NumberFormat
	}
	if _, err := ingest.ParseNumberFormat(string(format)); err != nil {
		return nil, err
	}

	fileName := domain.SanitizeFileName(input.SourceFileName)

	table, err := ingest.ReadTable(fileName, input.Content)
	if err != nil {
		return nil, err
	}
	if err := table.CheckStructure(); err != nil {
		return nil, err
	}

	mapping := ingest.BuildMapping(table.Headers)
	if err := mapping.Validate(); err != nil {
		return nil, err
	}

	rows, dropped := ingest.NewMaterializer(mapping, format, projectID, fileName).MaterializeTable(table)

	balances, err := uc.fetchBalances(ctx, projectID, rows)
	if err != nil {
		return nil, fmt.Errorf("fetch external balances: %w", err)
	}

	now := time.Now().UTC()
	batch := &domain.ImportBatch{
		ID:             uc.idGen.Generate(),
		ProjectID:      projectID,
		SourceFileName: fileName,
		CreatedBy:      input.CreatedBy,
		Status:         domain.BatchStatusProcessing,
		TotalRows:      len(table.Rows),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := uc.batchRepo.Create(ctx, batch); err != nil {
		return nil, fmt.Errorf("create import batch: %w", err)
	}

	log := uc.logger.With().
		Str("batch_id", batch.ID).
		Str("project_id", projectID).
		Str("file", fileName).
		Logger()
	log.Info().
		Int("rows", len(table.Rows)).
		Int("materialized", len(rows)).
		Int("skipped", dropped).
		Int("mapped_columns", mapping.Len()).
		Msg("import started")

	report := &ImportReport{
		BatchID:   batch.ID,
		TotalRows: len(table.Rows),
		Skipped:   dropped,
	}

	chunks := chunkRows(rows, uc.opts.BatchSize)
	processed := 0

	for i, chunk := range chunks {
		if ctx.Err() != nil {
			report.Cancelled = true
			break
		}

		res, cancelled := uc.stageChunk(ctx, batch.ID, chunk, balances)
		processed += len(res.rows)

		msg := uc.persistChunk(ctx, report, res, i, len(chunks), log)
		uc.reportProgress(ctx, input.Progress, Progress{
			ProjectID:    projectID,
			BatchID:      batch.ID,
			BatchIndex:   i + 1,
			TotalBatches: len(chunks),
			Message:      msg,
		})

		if cancelled {
			report.Cancelled = true
			break
		}
	}

	if report.Cancelled {
		msg := fmt.Sprintf("import cancelled after %d of %d rows; partial results kept", processed, len(rows))
		report.Messages = append(report.Messages, msg)
		log.Info().Int("processed", processed).Int("materialized", len(rows)).Msg("import cancelled")
	}

	// completion ignores cancellation
	persistCtx := context.WithoutCancel(ctx)

	if err := uc.complete(persistCtx, batch, report); err != nil {
		return nil, fmt.Errorf("complete import batch %s: %w", batch.ID, err)
	}

	uc.audit(persistCtx, batch, report, input.RequestID, log)
	uc.observe(report, time.Since(start))

	log.Info().
		Int("imported", report.Imported).
		Int("reconciled", report.Reconciled).
		Int("divergent", report.Divergent).
		Int("new", report.NewTransactions).
		Int("errored", report.Errored).
		Dur("duration", time.Since(start)).
		Msg("import completed")

	return report, nil
}

func (uc *ImportUseCase) fetchBalances(ctx context.Context, projectID string, rows []*domain.LedgerRow) (map[string]decimal.Decimal, error) {
	if len(rows) == 0 {
		return map[string]decimal.Decimal{}, nil
	}

	seen := make(map[string]struct{}, len(rows))
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		if _, ok := seen[row.TransactionID]; ok {
			continue
		}
		seen[row.TransactionID] = struct{}{}
		ids = append(ids, row.TransactionID)
	}

	start := time.Now()
	balances, err := uc.balanceRepo.FetchExternalBalances(ctx, projectID, ids)
	if uc.metrics != nil {
		uc.metrics.BalanceLookupDuration.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		return nil, err
	}
	if balances == nil {
		balances = map[string]decimal.Decimal{}
	}
	return balances, nil
}

// stageChunk reconciles rows in file order and reports whether ctx was
// cancelled before the chunk was fully staged.
func (uc *ImportUseCase) stageChunk(
	ctx context.Context,
	batchID string,
	chunk []*domain.LedgerRow,
	balances map[string]decimal.Decimal,
) (chunkResult, bool) {
	res := chunkResult{rows: make([]*domain.LedgerRow, 0, len(chunk))}

	for _, row := range chunk {
		if ctx.Err() != nil {
			return res, true
		}

		row.ImportBatchID = batchID

		var external *decimal.Decimal
		if v, ok := balances[row.TransactionID]; ok {
			external = &v
		}

		outcome := uc.reconciler.Reconcile(row, external)
		outcome.Apply(row)

		switch outcome.Outcome {
		case domain.OutcomeReconciled:
			res.reconciled++
		case domain.OutcomeDivergent:
			res.divergent++
			res.divergences = append(res.divergences, outcome.Divergence(row))
		case domain.OutcomeNew:
			res.newRows++
		}

		res.totals.Add(row)
		res.period.Observe(row.SaleDate)
		res.rows = append(res.rows, row)
	}

	return res, false
}

// persistChunk upserts the staged rows and folds them into the report only when
// the write succeeded. It returns the progress message for the chunk.
func (uc *ImportUseCase) persistChunk(
	ctx context.Context,
	report *ImportReport,
	res chunkResult,
	index, total int,
	log zerolog.Logger,
) string {
	if len(res.rows) == 0 {
		return fmt.Sprintf("batch %d/%d: nothing to persist", index+1, total)
	}

	persistCtx := context.WithoutCancel(ctx)

	var persisted int
	err := uc.retry(persistCtx, func() error {
		var err error
		persisted, err = uc.ledgerRepo.UpsertBatch(persistCtx, res.rows)
		return err
	})
	if err != nil {
		report.Errored += len(res.rows)
		report.Errors = append(report.Errors, fmt.Sprintf("batch %d/%d: %v", index+1, total, err))
		if uc.metrics != nil {
			uc.metrics.BatchPersistFailures.Inc()
		}
		log.Warn().Err(err).Int("batch", index+1).Int("rows", len(res.rows)).Msg("row batch persistence failed")
		return fmt.Sprintf("batch %d/%d failed: %v", index+1, total, err)
	}

	report.Imported += persisted
	report.Reconciled += res.reconciled
	report.Divergent += res.divergent
	report.NewTransactions += res.newRows
	report.Totals.Merge(res.totals)
	report.Period.Merge(res.period)
	report.Divergences = append(report.Divergences, res.divergences...)

	return fmt.Sprintf("batch %d/%d: %d rows persisted", index+1, total, persisted)
}

func (uc *ImportUseCase) complete(ctx context.Context, batch *domain.ImportBatch, report *ImportReport) error {
	now := time.Now().UTC()

	batch.Status = domain.BatchStatusCompleted
	batch.ImportedRows = report.Imported
	batch.SkippedRows = report.Skipped
	batch.ErroredRows = report.Errored
	batch.ReconciledCount = report.Reconciled
	batch.DivergentCount = report.Divergent
	batch.NewCount = report.NewTransactions
	batch.Totals = report.Totals
	batch.Period = report.Period
	batch.Errors = report.Errors
	batch.Messages = report.Messages
	batch.UpdatedAt = now
	batch.CompletedAt = &now

	events := uc.completionEvents(batch, report, now)

	return uc.retry(ctx, func() error {
		txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
		defer cancel()

		tx, err := uc.txManager.Begin(txCtx)
		if err != nil {
			return err
		}
		defer tx.Rollback(txCtx)

		if err := uc.batchRepo.Complete(txCtx, tx, batch); err != nil {
			return err
		}

		for _, event := range events {
			if err := uc.outboxRepo.Create(txCtx, tx, event); err != nil {
				return err
			}
		}

		return tx.Commit(txCtx)
	})
}

func (uc *ImportUseCase) completionEvents(batch *domain.ImportBatch, report *ImportReport, now time.Time) []*domain.OutboxEvent {
	events := make([]*domain.OutboxEvent, 0, 1+len(report.Divergences))

	events = append(events, &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   batch.ID,
		AggregateType: domain.AggregateTypeImportBatch,
		EventType:     domain.EventTypeImportCompleted,
		Payload: domain.MarshalState(domain.ImportCompletedEvent{
			BatchID:         batch.ID,
			ProjectID:       batch.ProjectID,
			SourceFileName:  batch.SourceFileName,
			Imported:        report.Imported,
			Reconciled:      report.Reconciled,
			Divergent:       report.Divergent,
			NewTransactions: report.NewTransactions,
			Skipped:         report.Skipped,
			Errored:         report.Errored,
			NetTotal:        report.Totals.Net.StringFixed(2),
			EventAt:         domain.FormatInstant(now),
		}),
		CreatedAt: now,
	})

	for _, d := range report.Divergences {
		events = append(events, &domain.OutboxEvent{
			ID:            uc.idGen.Generate(),
			AggregateID:   batch.ID,
			AggregateType: domain.AggregateTypeImportBatch,
			EventType:     domain.EventTypeDivergenceDetected,
			Payload: domain.MarshalState(domain.DivergenceDetectedEvent{
				BatchID:       batch.ID,
				ProjectID:     batch.ProjectID,
				TransactionID: d.TransactionID,
				CSVNet:        d.CSVNet.String(),
				WebhookNet:    d.WebhookNet.String(),
				Difference:    d.Difference.String(),
				Severity:      string(d.Severity),
			}),
			CreatedAt: now,
		})
	}

	return events
}

func (uc *ImportUseCase) audit(ctx context.Context, batch *domain.ImportBatch, report *ImportReport, requestID string, log zerolog.Logger) {
	if uc.auditRepo == nil {
		return
	}

	status := domain.AuditStatusSuccess
	if len(report.Errors) > 0 {
		status = domain.AuditStatusFailure
	}

	entry := &domain.AuditLog{
		ProjectID:    batch.ProjectID,
		UserID:       batch.CreatedBy,
		Action:       string(domain.AuditActionImportCompleted),
		ResourceType: domain.ResourceTypeImportBatch,
		ResourceID:   batch.ID,
		RequestID:    requestID,
		Details: domain.JSON{
			"source_file_name": batch.SourceFileName,
			"total_rows":       report.TotalRows,
			"imported":         report.Imported,
			"reconciled":       report.Reconciled,
			"divergent":        report.Divergent,
			"new_transactions": report.NewTransactions,
			"skipped":          report.Skipped,
			"errored":          report.Errored,
			"cancelled":        report.Cancelled,
			"totals":           domain.MarshalState(report.Totals),
		},
		Status:    string(status),
		CreatedAt: time.Now().UTC(),
	}

	if err := uc.auditRepo.Create(ctx, entry); err != nil {
		log.Error().Err(err).Msg("failed to append audit log")
		return
	}
	if uc.metrics != nil {
		uc.metrics.AuditLogsCreated.WithLabelValues(entry.Action, entry.Status).Inc()
	}
}

func (uc *ImportUseCase) observe(report *ImportReport, elapsed time.Duration) {
	if uc.metrics == nil {
		return
	}

	status := "completed"
	if report.Cancelled {
		status = "cancelled"
	} else if len(report.Errors) > 0 {
		status = "partial"
	}

	uc.metrics.ImportsTotal.WithLabelValues(status).Inc()
	uc.metrics.ImportDuration.Observe(elapsed.Seconds())
	uc.metrics.ImportRows.WithLabelValues(string(domain.OutcomeReconciled)).Add(float64(report.Reconciled))
	uc.metrics.ImportRows.WithLabelValues(string(domain.OutcomeDivergent)).Add(float64(report.Divergent))
	uc.metrics.ImportRows.WithLabelValues(string(domain.OutcomeNew)).Add(float64(report.NewTransactions))
	uc.metrics.ImportRows.WithLabelValues("skipped").Add(float64(report.Skipped))
	uc.metrics.ImportRows.WithLabelValues("errored").Add(float64(report.Errored))
	for _, d := range report.Divergences {
		amount, _ := d.Difference.Abs().Float64()
		uc.metrics.DivergenceAmount.Observe(amount)
	}
}

func (uc *ImportUseCase) reportProgress(ctx context.Context, reporter ProgressReporter, p Progress) {
	if reporter == nil {
		return
	}
	reporter.Report(context.WithoutCancel(ctx), p)
}

func (uc *ImportUseCase) retry(ctx context.Context, op func() error) error {
	if uc.retrier == nil {
		return op()
	}
	return uc.retrier.Retry(ctx, op)
}

func chunkRows(rows []*domain.LedgerRow, size int) [][]*domain.LedgerRow {
	chunks := make([][]*domain.LedgerRow, 0, (len(rows)+size-1)/size)
	for start := 0; start < len(rows); start += size {
		end := start + size
		if end > len(rows) {
			end = len(rows)
		}
		chunks = append(chunks, rows[start:end])
	}
	return chunks
}

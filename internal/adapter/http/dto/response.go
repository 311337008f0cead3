package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/ledgerimport/internal/domain"
	"github.com/iho/ledgerimport/internal/usecase"
)

// TotalsResponse represents monetary totals in API responses.
type TotalsResponse struct {
	Gross                 decimal.Decimal `json:"gross"`
	Net                   decimal.Decimal `json:"net"`
	PlatformFees          decimal.Decimal `json:"platform_fees"`
	AffiliateCommissions  decimal.Decimal `json:"affiliate_commissions"`
	CoproducerCommissions decimal.Decimal `json:"coproducer_commissions"`
	Taxes                 decimal.Decimal `json:"taxes"`
}

func totalsFromDomain(t domain.Totals) TotalsResponse {
	return TotalsResponse{
		Gross:                 t.Gross,
		Net:                   t.Net,
		PlatformFees:          t.PlatformFees,
		AffiliateCommissions:  t.AffiliateCommissions,
		CoproducerCommissions: t.CoproducerCommissions,
		Taxes:                 t.Taxes,
	}
}

// PeriodResponse is the sale-date range of an import.
type PeriodResponse struct {
	Start *time.Time `json:"start"`
	End   *time.Time `json:"end"`
}

// ImportReportResponse represents the outcome of an upload.
type ImportReportResponse struct {
	BatchID         string              `json:"batch_id"`
	TotalRows       int                 `json:"total_rows"`
	Imported        int                 `json:"imported"`
	Reconciled      int                 `json:"reconciled"`
	Divergent       int                 `json:"divergent"`
	NewTransactions int                 `json:"new_transactions"`
	Skipped         int                 `json:"skipped"`
	Errored         int                 `json:"errored"`
	Cancelled       bool                `json:"cancelled"`
	Errors          []string            `json:"errors"`
	Messages        []string            `json:"messages"`
	Totals          TotalsResponse      `json:"totals"`
	Period          PeriodResponse      `json:"period"`
	Divergences     []domain.Divergence `json:"divergences"`
}

// ImportReportFromUseCase converts an import report to response.
func ImportReportFromUseCase(r *usecase.ImportReport) *ImportReportResponse {
	return &ImportReportResponse{
		BatchID:         r.BatchID,
		TotalRows:       r.TotalRows,
		Imported:        r.Imported,
		Reconciled:      r.Reconciled,
		Divergent:       r.Divergent,
		NewTransactions: r.NewTransactions,
		Skipped:         r.Skipped,
		Errored:         r.Errored,
		Cancelled:       r.Cancelled,
		Errors:          nonNil(r.Errors),
		Messages:        nonNil(r.Messages),
		Totals:          totalsFromDomain(r.Totals),
		Period:          PeriodResponse{Start: r.Period.Start, End: r.Period.End},
		Divergences:     nonNilDivergences(r.Divergences),
	}
}

// ImportBatchResponse represents an import batch in API responses.
type ImportBatchResponse struct {
	ID              string         `json:"id"`
	ProjectID       string         `json:"project_id"`
	SourceFileName  string         `json:"source_file_name"`
	CreatedBy       string         `json:"created_by"`
	Status          string         `json:"status"`
	TotalRows       int            `json:"total_rows"`
	ImportedRows    int            `json:"imported_rows"`
	SkippedRows     int            `json:"skipped_rows"`
	ErroredRows     int            `json:"errored_rows"`
	ReconciledCount int            `json:"reconciled_count"`
	DivergentCount  int            `json:"divergent_count"`
	NewCount        int            `json:"new_count"`
	Totals          TotalsResponse `json:"totals"`
	Period          PeriodResponse `json:"period"`
	Errors          []string       `json:"errors"`
	Messages        []string       `json:"messages"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	CompletedAt     *time.Time     `json:"completed_at,omitempty"`
}

// ImportBatchFromDomain converts a domain batch to response.
func ImportBatchFromDomain(b *domain.ImportBatch) *ImportBatchResponse {
	return &ImportBatchResponse{
		ID:              b.ID,
		ProjectID:       b.ProjectID,
		SourceFileName:  b.SourceFileName,
		CreatedBy:       b.CreatedBy,
		Status:          string(b.Status),
		TotalRows:       b.TotalRows,
		ImportedRows:    b.ImportedRows,
		SkippedRows:     b.SkippedRows,
		ErroredRows:     b.ErroredRows,
		ReconciledCount: b.ReconciledCount,
		DivergentCount:  b.DivergentCount,
		NewCount:        b.NewCount,
		Totals:          totalsFromDomain(b.Totals),
		Period:          PeriodResponse{Start: b.Period.Start, End: b.Period.End},
		Errors:          nonNil(b.Errors),
		Messages:        nonNil(b.Messages),
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
		CompletedAt:     b.CompletedAt,
	}
}

// ImportBatchesFromDomain converts domain batches to responses.
func ImportBatchesFromDomain(batches []*domain.ImportBatch) []*ImportBatchResponse {
	result := make([]*ImportBatchResponse, len(batches))
	for i, b := range batches {
		result[i] = ImportBatchFromDomain(b)
	}
	return result
}

// DivergentRowResponse represents a ledger row flagged as divergent.
type DivergentRowResponse struct {
	TransactionID   string           `json:"transaction_id"`
	ProductName     string           `json:"product_name,omitempty"`
	OfferName       string           `json:"offer_name,omitempty"`
	SaleDate        *time.Time       `json:"sale_date,omitempty"`
	NetValueBRL     *decimal.Decimal `json:"net_value_brl"`
	DivergenceType  string           `json:"divergence_type"`
	CSVValue        *decimal.Decimal `json:"csv_value"`
	WebhookValue    *decimal.Decimal `json:"webhook_value"`
	Difference      *decimal.Decimal `json:"difference"`
	SourceFileName  string           `json:"source_file_name"`
	SourceRowNumber int              `json:"source_row_number"`
}

// DivergentRowsFromDomain converts divergent ledger rows to responses.
func DivergentRowsFromDomain(rows []*domain.LedgerRow) []*DivergentRowResponse {
	result := make([]*DivergentRowResponse, len(rows))
	for i, row := range rows {
		divergenceType := ""
		if row.DivergenceType != nil {
			divergenceType = *row.DivergenceType
		}
		result[i] = &DivergentRowResponse{
			TransactionID:   row.TransactionID,
			ProductName:     row.ProductName,
			OfferName:       row.OfferName,
			SaleDate:        row.SaleDate,
			NetValueBRL:     row.NetValueBRL,
			DivergenceType:  divergenceType,
			CSVValue:        row.DivergenceCSVValue,
			WebhookValue:    row.DivergenceWebhookValue,
			Difference:      row.DivergenceAmount,
			SourceFileName:  row.SourceFileName,
			SourceRowNumber: row.SourceRowNumber,
		}
	}
	return result
}

// ProgressResponse is the latest progress event of an import.
type ProgressResponse struct {
	ProjectID    string `json:"project_id"`
	BatchID      string `json:"batch_id"`
	BatchIndex   int    `json:"batch_index"`
	TotalBatches int    `json:"total_batches"`
	Message      string `json:"message"`
}

// ProgressFromUseCase converts a progress event to response.
func ProgressFromUseCase(p usecase.Progress) *ProgressResponse {
	return &ProgressResponse{
		ProjectID:    p.ProjectID,
		BatchID:      p.BatchID,
		BatchIndex:   p.BatchIndex,
		TotalBatches: p.TotalBatches,
		Message:      p.Message,
	}
}

// ErrorResponse represents an error in API responses. Headers and Suggestions
// are filled for schema errors so the uploader can fix the export.
type ErrorResponse struct {
	Error       string            `json:"error"`
	Message     string            `json:"message,omitempty"`
	Headers     []string          `json:"headers,omitempty"`
	Suggestions map[string]string `json:"suggestions,omitempty"`
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonNilDivergences(d []domain.Divergence) []domain.Divergence {
	if d == nil {
		return []domain.Divergence{}
	}
	return d
}

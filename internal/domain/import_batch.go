package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// BatchStatus is the lifecycle state of an import batch.
type BatchStatus string

const (
	BatchStatusPending    BatchStatus = "pending"
	BatchStatusProcessing BatchStatus = "processing"
	BatchStatusCompleted  BatchStatus = "completed"
)

// Totals aggregates the monetary fields of persisted rows.
type Totals struct {
	Gross                 decimal.Decimal `json:"gross"`
	Net                   decimal.Decimal `json:"net"`
	PlatformFees          decimal.Decimal `json:"platform_fees"`
	AffiliateCommissions  decimal.Decimal `json:"affiliate_commissions"`
	CoproducerCommissions decimal.Decimal `json:"coproducer_commissions"`
	Taxes                 decimal.Decimal `json:"taxes"`
}

// Add accumulates the monetary fields of row. Net is taken in BRL.
func (t *Totals) Add(row *LedgerRow) {
	t.Gross = t.Gross.Add(Money(row.GrossValue))
	t.Net = t.Net.Add(Money(row.NetValueBRL))
	t.PlatformFees = t.PlatformFees.Add(Money(row.PlatformFee))
	t.AffiliateCommissions = t.AffiliateCommissions.Add(Money(row.AffiliateCommission))
	t.CoproducerCommissions = t.CoproducerCommissions.Add(Money(row.CoproducerCommission))
	t.Taxes = t.Taxes.Add(Money(row.Taxes))
}

// Merge adds other into t.
func (t *Totals) Merge(other Totals) {
	t.Gross = t.Gross.Add(other.Gross)
	t.Net = t.Net.Add(other.Net)
	t.PlatformFees = t.PlatformFees.Add(other.PlatformFees)
	t.AffiliateCommissions = t.AffiliateCommissions.Add(other.AffiliateCommissions)
	t.CoproducerCommissions = t.CoproducerCommissions.Add(other.CoproducerCommissions)
	t.Taxes = t.Taxes.Add(other.Taxes)
}

// Period is the inclusive sale-date range seen by a batch.
type Period struct {
	Start *time.Time
	End   *time.Time
}

// Observe widens the period to include t.
func (p *Period) Observe(t *time.Time) {
	if t == nil {
		return
	}
	if p.Start == nil || t.Before(*p.Start) {
		v := *t
		p.Start = &v
	}
	if p.End == nil || t.After(*p.End) {
		v := *t
		p.End = &v
	}
}

// Merge widens the period to include other.
func (p *Period) Merge(other Period) {
	p.Observe(other.Start)
	p.Observe(other.End)
}

// ImportBatch is the bookkeeping record of one import invocation.
type ImportBatch struct {
	ID             string
	ProjectID      string
	SourceFileName string
	CreatedBy      string
	Status         BatchStatus

	TotalRows    int
	ImportedRows int
	SkippedRows  int
	ErroredRows  int

	ReconciledCount int
	DivergentCount  int
	NewCount        int

	Totals Totals
	Period Period

	Errors   []string
	Messages []string

	CreatedAt   time.Time
	UpdatedAt   time.Time
	CompletedAt *time.Time
}

// IsCompleted reports whether the batch reached its terminal state.
func (b *ImportBatch) IsCompleted() bool {
	return b.Status == BatchStatusCompleted
}

package domain

import "github.com/shopspring/decimal"

// Outcome classifies one imported row against the webhook ledger.
type Outcome string

const (
	OutcomeReconciled Outcome = "reconciled"
	OutcomeDivergent  Outcome = "divergent"
	OutcomeNew        Outcome = "new"
)

// DivergenceTypeNetValue marks a net value mismatch between CSV and webhook ledgers.
const DivergenceTypeNetValue = "net_value"

// Severity ranks divergences for operator triage.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

var (
	severityMediumPct = decimal.NewFromFloat(0.01)
	severityHighPct   = decimal.NewFromFloat(0.05)
	severityCritPct   = decimal.NewFromFloat(0.20)
)

// SeverityFor ranks a relative difference (0.05 is 5%).
func SeverityFor(differencePct decimal.Decimal) Severity {
	switch {
	case differencePct.LessThan(severityMediumPct):
		return SeverityLow
	case differencePct.LessThan(severityHighPct):
		return SeverityMedium
	case differencePct.LessThan(severityCritPct):
		return SeverityHigh
	default:
		return SeverityCritical
	}
}

// Divergence is the audit record of a row whose CSV net disagrees with the webhook ledger.
type Divergence struct {
	TransactionID  string          `json:"transaction_id"`
	CSVNet         decimal.Decimal `json:"csv_net"`
	WebhookNet     decimal.Decimal `json:"webhook_net"`
	Difference     decimal.Decimal `json:"difference"`
	DifferencePct  decimal.Decimal `json:"difference_pct"`
	Status         string          `json:"status"`
	DivergenceType string          `json:"divergence_type"`
	Severity       Severity        `json:"severity"`
}

// ReconciliationResult is the classification of one row.
type ReconciliationResult struct {
	Outcome       Outcome
	CSVNet        decimal.Decimal
	WebhookNet    decimal.Decimal
	Difference    decimal.Decimal // signed, csv - webhook
	DifferencePct decimal.Decimal
}

// Apply writes the outcome fields onto row.
func (r ReconciliationResult) Apply(row *LedgerRow) {
	row.IsReconciled = r.Outcome == OutcomeReconciled
	row.HasDivergence = r.Outcome == OutcomeDivergent
	row.DivergenceType = nil
	row.DivergenceWebhookValue = nil
	row.DivergenceCSVValue = nil
	row.DivergenceAmount = nil

	if r.Outcome != OutcomeDivergent {
		return
	}

	kind := DivergenceTypeNetValue
	webhook := r.WebhookNet
	csv := r.CSVNet
	diff := r.Difference
	row.DivergenceType = &kind
	row.DivergenceWebhookValue = &webhook
	row.DivergenceCSVValue = &csv
	row.DivergenceAmount = &diff
}

// Divergence builds the report entry for a divergent row.
func (r ReconciliationResult) Divergence(row *LedgerRow) Divergence {
	return Divergence{
		TransactionID:  row.TransactionID,
		CSVNet:         r.CSVNet,
		WebhookNet:     r.WebhookNet,
		Difference:     r.Difference,
		DifferencePct:  r.DifferencePct,
		Status:         row.Status,
		DivergenceType: DivergenceTypeNetValue,
		Severity:       SeverityFor(r.DifferencePct),
	}
}

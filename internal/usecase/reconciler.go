package usecase

import (
	"github.com/shopspring/decimal"

	"github.com/iho/ledgerimport/internal/domain"
)

// Reconciler classifies imported rows against the webhook ledger.
type Reconciler struct {
	absTolerance decimal.Decimal
	relTolerance decimal.Decimal
}

// NewReconciler creates a Reconciler. Non-positive tolerances fall back to the defaults.
func NewReconciler(absTolerance, relTolerance decimal.Decimal) *Reconciler {
	if !absTolerance.IsPositive() {
		absTolerance = DefaultAbsoluteTolerance
	}
	if !relTolerance.IsPositive() {
		relTolerance = DefaultRelativeTolerance
	}
	return &Reconciler{absTolerance: absTolerance, relTolerance: relTolerance}
}

// Reconcile compares the row's BRL net value with the external balance. A nil
// balance means the webhook ledger never saw the transaction. Either tolerance
// is enough for the row to count as reconciled.
func (r *Reconciler) Reconcile(row *domain.LedgerRow, external *decimal.Decimal) domain.ReconciliationResult {
	csvNet := domain.Money(row.NetValueBRL)
	if external == nil {
		return domain.ReconciliationResult{Outcome: domain.OutcomeNew, CSVNet: csvNet}
	}

	webhookNet := *external
	signed := csvNet.Sub(webhookNet)
	diff := signed.Abs()

	pct := decimal.Zero
	if !webhookNet.IsZero() {
		pct = diff.Div(webhookNet.Abs())
	}

	result := domain.ReconciliationResult{
		Outcome:       domain.OutcomeDivergent,
		CSVNet:        csvNet,
		WebhookNet:    webhookNet,
		Difference:    signed,
		DifferencePct: pct.Round(6),
	}
	if diff.LessThan(r.absTolerance) || pct.LessThan(r.relTolerance) {
		result.Outcome = domain.OutcomeReconciled
	}
	return result
}

package dto

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/ledgerimport/internal/domain"
	"github.com/iho/ledgerimport/internal/usecase"
)

func TestImportReportFromUseCaseNeverEmitsNullLists(t *testing.T) {
	resp := ImportReportFromUseCase(&usecase.ImportReport{BatchID: "b1", Imported: 2})

	data, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	body := string(data)
	for _, field := range []string{`"errors":[]`, `"messages":[]`, `"divergences":[]`} {
		if !strings.Contains(body, field) {
			t.Fatalf("expected %s in %s", field, body)
		}
	}
}

func TestImportBatchFromDomain(t *testing.T) {
	completed := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	batch := &domain.ImportBatch{
		ID:           "b1",
		Status:       domain.BatchStatusCompleted,
		ImportedRows: 3,
		Totals:       domain.Totals{Net: decimal.RequireFromString("150.00")},
		CompletedAt:  &completed,
	}

	resp := ImportBatchFromDomain(batch)
	if resp.Status != "completed" || resp.ImportedRows != 3 || !resp.Totals.Net.Equal(decimal.NewFromInt(150)) {
		t.Fatalf("unexpected response %+v", resp)
	}
	if resp.CompletedAt == nil || !resp.CompletedAt.Equal(completed) {
		t.Fatalf("expected completed_at to be carried")
	}
}

func TestDivergentRowsFromDomain(t *testing.T) {
	kind := domain.DivergenceTypeNetValue
	csv := decimal.RequireFromString("100")
	hook := decimal.RequireFromString("90")
	diff := decimal.RequireFromString("10")

	rows := DivergentRowsFromDomain([]*domain.LedgerRow{{
		TransactionID:          "T2",
		DivergenceType:         &kind,
		DivergenceCSVValue:     &csv,
		DivergenceWebhookValue: &hook,
		DivergenceAmount:       &diff,
		SourceRowNumber:        3,
	}})

	if len(rows) != 1 || rows[0].DivergenceType != kind || !rows[0].Difference.Equal(diff) {
		t.Fatalf("unexpected rows %+v", rows)
	}
}

package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/iho/ledgerimport/internal/adapter/http/dto"
	"github.com/iho/ledgerimport/internal/domain"
	"github.com/iho/ledgerimport/internal/ingest"
)

func TestMapDomainError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"batch not found", domain.ErrImportBatchNotFound, http.StatusNotFound},
		{"import in progress", domain.ErrImportInProgress, http.StatusConflict},
		{"file too large", domain.ErrFileTooLarge, http.StatusRequestEntityTooLarge},
		{"unsupported file", domain.ErrUnsupportedFileType, http.StatusUnsupportedMediaType},
		{"empty file", domain.ErrEmptyFile, http.StatusUnprocessableEntity},
		{"no data rows", fmt.Errorf("read: %w", domain.ErrNoDataRows), http.StatusUnprocessableEntity},
		{"missing transaction column", &ingest.MappingError{Err: domain.ErrMissingTransactionColumn}, http.StatusUnprocessableEntity},
		{"invalid project", fmt.Errorf("%w: x", domain.ErrInvalidProjectID), http.StatusBadRequest},
		{"number format", domain.ErrUnsupportedNumberFormat, http.StatusBadRequest},
		{"insufficient role", domain.ErrInsufficientRole, http.StatusForbidden},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mapDomainError(tt.err); got != tt.want {
				t.Fatalf("mapDomainError(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestWriteDomainErrorIncludesSchemaDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	writeDomainError(rec, "import rejected", &ingest.MappingError{
		Err:         domain.ErrMissingNetValueColumn,
		Headers:     []string{"Transação", "Valr Liquido"},
		Suggestions: map[string]string{"valr liquido": "valor liquido"},
	})

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}

	var resp dto.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Headers) != 2 || resp.Suggestions["valr liquido"] != "valor liquido" {
		t.Fatalf("expected schema details, got %+v", resp)
	}
}

func TestParseIntQuery(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?limit=25&offset=bad", nil)

	if got := parseIntQuery(req, "limit", 50); got != 25 {
		t.Fatalf("expected 25, got %d", got)
	}
	if got := parseIntQuery(req, "offset", 0); got != 0 {
		t.Fatalf("expected default for invalid value, got %d", got)
	}
	if got := parseIntQuery(req, "missing", 7); got != 7 {
		t.Fatalf("expected default for missing value, got %d", got)
	}
}

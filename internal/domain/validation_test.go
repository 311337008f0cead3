package domain

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateProjectID(t *testing.T) {
	t.Parallel()

	t.Run("valid uuid is canonicalized", func(t *testing.T) {
		got, err := ValidateProjectID("  6F9619FF-8B86-D011-B42D-00C04FC964FF ")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got != "6f9619ff-8b86-d011-b42d-00c04fc964ff" {
			t.Fatalf("unexpected canonical id %q", got)
		}
	})

	t.Run("empty id rejected", func(t *testing.T) {
		if _, err := ValidateProjectID("   "); !errors.Is(err, ErrInvalidProjectID) {
			t.Fatalf("expected ErrInvalidProjectID, got %v", err)
		}
	})

	t.Run("non uuid rejected", func(t *testing.T) {
		if _, err := ValidateProjectID("project-1"); !errors.Is(err, ErrInvalidProjectID) {
			t.Fatalf("expected ErrInvalidProjectID, got %v", err)
		}
	})
}

func TestSanitizeFileName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"vendas.csv", "vendas.csv"},
		{"/tmp/uploads/vendas.csv", "vendas.csv"},
		{`C:\Users\ops\vendas marco.csv`, "vendas marco.csv"},
		{"", ""},
		{"/", ""},
	}

	for _, tt := range tests {
		if got := SanitizeFileName(tt.in); got != tt.want {
			t.Fatalf("SanitizeFileName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	long := strings.Repeat("a", MaxFileNameLength+20)
	if got := SanitizeFileName(long); len(got) != MaxFileNameLength {
		t.Fatalf("expected truncation to %d, got %d", MaxFileNameLength, len(got))
	}
}

func TestValidatePagination(t *testing.T) {
	t.Parallel()

	limit, offset, err := ValidatePagination(0, -5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if limit != DefaultPageSize || offset != 0 {
		t.Fatalf("expected defaults, got limit=%d offset=%d", limit, offset)
	}

	limit, _, _ = ValidatePagination(MaxPageSize+1, 0)
	if limit != MaxPageSize {
		t.Fatalf("expected limit to be capped at %d, got %d", MaxPageSize, limit)
	}
}

func TestIsSchemaError(t *testing.T) {
	t.Parallel()

	if !IsSchemaError(ErrMissingTransactionColumn) {
		t.Fatal("expected missing transaction column to be a schema error")
	}
	if IsSchemaError(ErrImportInProgress) {
		t.Fatal("did not expect import lock error to be a schema error")
	}
}

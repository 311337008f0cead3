package domain

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Validation constants
const (
	MaxFileNameLength = 255
	MaxPageSize       = 1000
	DefaultPageSize   = 50
)

// ValidateProjectID checks that id is a UUID and returns its canonical form.
func ValidateProjectID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", fmt.Errorf("%w: project id is required", ErrInvalidProjectID)
	}

	parsed, err := uuid.Parse(id)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrInvalidProjectID, id)
	}

	return parsed.String(), nil
}

// SanitizeFileName strips any directory component and bounds the length.
func SanitizeFileName(name string) string {
	name = strings.TrimSpace(strings.ReplaceAll(name, "\\", "/"))
	name = filepath.Base(name)
	if name == "." || name == "/" {
		return ""
	}
	if len(name) > MaxFileNameLength {
		name = name[:MaxFileNameLength]
	}
	return name
}

// ValidatePagination validates and limits pagination parameters
func ValidatePagination(limit, offset int) (int, int, error) {
	if limit <= 0 {
		limit = DefaultPageSize
	}

	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	if offset < 0 {
		offset = 0
	}

	return limit, offset, nil
}

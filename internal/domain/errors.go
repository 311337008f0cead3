package domain

import "errors"

var (
	// Structural errors
	ErrEmptyFile    = errors.New("file is empty")
	ErrNoDataRows   = errors.New("file has a header but no data rows")
	ErrFileTooLarge = errors.New("file exceeds maximum allowed size")

	// Schema errors
	ErrMissingTransactionColumn = errors.New("no column maps to transaction_id")
	ErrMissingNetValueColumn    = errors.New("no column maps to net_value or net_value_brl")
	ErrMissingColumn            = errors.New("missing column")

	// Import errors
	ErrImportBatchNotFound     = errors.New("import batch not found")
	ErrImportInProgress        = errors.New("another import is running for this project")
	ErrImportLockLost          = errors.New("import lock expired or was taken over")
	ErrInvalidProjectID        = errors.New("invalid project id")
	ErrUnsupportedNumberFormat = errors.New("unsupported number format")
	ErrUnsupportedFileType     = errors.New("unsupported file type")
)

// IsSchemaError reports whether err aborts an import before any row is processed.
func IsSchemaError(err error) bool {
	return errors.Is(err, ErrEmptyFile) ||
		errors.Is(err, ErrNoDataRows) ||
		errors.Is(err, ErrMissingTransactionColumn) ||
		errors.Is(err, ErrMissingNetValueColumn) ||
		errors.Is(err, ErrMissingColumn) ||
		errors.Is(err, ErrUnsupportedFileType)
}

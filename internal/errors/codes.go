// Package errors provides structured error handling for docpin.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: IO and extraction errors
//   - 3XX: Storage and pool errors
//   - 4XX: Validation and anchor errors
//   - 5XX: Internal errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryIO indicates file, disk, and document extraction errors.
	CategoryIO Category = "IO"
	// CategoryStorage indicates persistence and resource-pool errors.
	CategoryStorage Category = "STORAGE"
	// CategoryValidation indicates input validation and anchor errors.
	CategoryValidation Category = "VALIDATION"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates unrecoverable error, must abort.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates operation failed but can continue.
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates degraded operation, continuing.
	SeverityWarning Severity = "WARNING"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigNotFound = "ERR_101_CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  = "ERR_102_CONFIG_INVALID"

	// IO / extraction errors (200-299)
	ErrCodeFileNotFound    = "ERR_201_FILE_NOT_FOUND"
	ErrCodeFilePermission  = "ERR_202_FILE_PERMISSION"
	ErrCodeFileTooLarge    = "ERR_203_FILE_TOO_LARGE"
	ErrCodeDocumentCorrupt = "ERR_204_DOCUMENT_CORRUPT"
	ErrCodeExtractFailed   = "ERR_205_EXTRACT_FAILED"

	// Storage / pool errors (300-399)
	ErrCodeStoreCorrupt       = "ERR_301_STORE_CORRUPT"
	ErrCodePoolNotInitialized = "ERR_302_POOL_NOT_INITIALIZED"
	ErrCodePoolExhausted      = "ERR_303_POOL_EXHAUSTED"
	ErrCodeStoreBusy          = "ERR_304_STORE_BUSY"

	// Validation / anchor errors (400-499)
	ErrCodeInvalidInput   = "ERR_401_INVALID_INPUT"
	ErrCodeInvalidAnchor  = "ERR_402_INVALID_ANCHOR"
	ErrCodeAnchorNotFound = "ERR_403_ANCHOR_NOT_FOUND"
	ErrCodeInvalidCellRef = "ERR_404_INVALID_CELL_REF"

	// Internal errors (500-599)
	ErrCodeInternal = "ERR_501_INTERNAL"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}
	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryIO
	case '3':
		return CategoryStorage
	case '4':
		return CategoryValidation
	default:
		return CategoryInternal
	}
}

// severityFromCode determines severity based on error code.
func severityFromCode(code string) Severity {
	if code == ErrCodeStoreCorrupt {
		return SeverityFatal
	}
	if isRetryableCode(code) {
		return SeverityWarning
	}
	return SeverityError
}

// isRetryableCode checks if an error code represents a retryable error.
// Pool exhaustion and a busy store are transient conditions.
func isRetryableCode(code string) bool {
	switch code {
	case ErrCodePoolExhausted, ErrCodeStoreBusy:
		return true
	default:
		return false
	}
}

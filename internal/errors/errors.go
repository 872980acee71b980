// Package errors provides custom error types for the Moneta API.
// All service-layer errors should use AppError to ensure consistent,
// secure error responses that never leak internal details to clients.
package errors

import "net/http"

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, and optional internal error.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// Authentication errors.
var (
	ErrUnauthorized  = &AppError{Code: "UNAUTHORIZED", Message: "Authentication required", StatusCode: http.StatusUnauthorized}
	ErrInvalidAPIKey = &AppError{Code: "INVALID_API_KEY", Message: "Invalid API key", StatusCode: http.StatusUnauthorized}
)

// General errors.
var (
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrNotFound       = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)

// Import pipeline errors. Row-level failures (ROW_PARSE, AMBIGUOUS_DATE) are
// collected into the batch summary rather than aborting sibling rows; only
// UNRECOGNIZED_FORMAT and ledger-write failures are batch-fatal.
var (
	ErrUnrecognizedFormat = &AppError{Code: "UNRECOGNIZED_FORMAT", Message: "Could not recognize the statement format", StatusCode: http.StatusUnprocessableEntity}
	ErrRowParse           = &AppError{Code: "ROW_PARSE", Message: "Row could not be parsed", StatusCode: http.StatusUnprocessableEntity}
	ErrAmbiguousDate      = &AppError{Code: "AMBIGUOUS_DATE", Message: "Two-digit years are ambiguous", StatusCode: http.StatusUnprocessableEntity}
	ErrEmptyImport        = &AppError{Code: "EMPTY_IMPORT", Message: "Import contains no header or rows", StatusCode: http.StatusBadRequest}
)

// Currency errors.
var (
	ErrRateUnavailable = &AppError{Code: "RATE_UNAVAILABLE", Message: "Exchange rate unavailable for the requested date", StatusCode: http.StatusServiceUnavailable}
	ErrUnknownCurrency = &AppError{Code: "UNKNOWN_CURRENCY", Message: "Unknown currency code", StatusCode: http.StatusBadRequest}
)

// Account errors.
var (
	ErrAccountNotFound = &AppError{Code: "ACCOUNT_NOT_FOUND", Message: "Account not found", StatusCode: http.StatusNotFound}
	ErrDuplicateName   = &AppError{Code: "DUPLICATE_ACCOUNT_NAME", Message: "An account with this name already exists", StatusCode: http.StatusConflict}
)

// Transaction errors.
var (
	ErrTransactionNotFound = &AppError{Code: "TRANSACTION_NOT_FOUND", Message: "Transaction not found", StatusCode: http.StatusNotFound}
	ErrUnknownCategory     = &AppError{Code: "UNKNOWN_CATEGORY", Message: "Category is not defined in the active rule set", StatusCode: http.StatusBadRequest}
)

// Budget errors.
var (
	ErrBudgetNotFound = &AppError{Code: "BUDGET_NOT_FOUND", Message: "Budget not found", StatusCode: http.StatusNotFound}
)

// Subscription errors.
var (
	ErrSubscriptionNotFound = &AppError{Code: "SUBSCRIPTION_NOT_FOUND", Message: "Subscription not found", StatusCode: http.StatusNotFound}
	ErrInvalidBillingCycle  = &AppError{Code: "INVALID_BILLING_CYCLE", Message: "Unsupported billing cycle", StatusCode: http.StatusBadRequest}
)

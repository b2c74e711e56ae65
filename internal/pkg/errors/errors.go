package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// AppError represents an application error with additional context
type AppError struct {
	Code       string      `json:"code"`
	Message    string      `json:"message"`
	StatusCode int         `json:"-"`
	Internal   error       `json:"-"`
	Details    interface{} `json:"details,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Internal)
	}
	return e.Message
}

// Unwrap returns the internal error for errors.Is and errors.As
func (e *AppError) Unwrap() error {
	return e.Internal
}

// Common error codes
const (
	ErrCodeInternal           = "INTERNAL_ERROR"
	ErrCodeBadRequest         = "BAD_REQUEST"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeConflict           = "CONFLICT"
	ErrCodeValidation         = "VALIDATION_ERROR"
	ErrCodeDatabase           = "DATABASE_ERROR"
	ErrCodeRateLimited        = "RATE_LIMITED"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
)

// Token economy error codes
const (
	ErrCodeInsufficientTokens  = "INSUFFICIENT_TOKENS"
	ErrCodeInvalidNftState     = "INVALID_NFT_STATE"
	ErrCodeTrialAlreadyUsed    = "TRIAL_ALREADY_USED"
	ErrCodeSubscriptionExpired = "SUBSCRIPTION_EXPIRED"
	ErrCodePoolRoundMismatch   = "POOL_ROUND_MISMATCH"
	ErrCodeLedgerFrozen        = "LEDGER_FROZEN"
)

// New creates a new AppError
func New(code, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

// Wrap wraps an error with an AppError
func Wrap(err error, code, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Internal:   err,
	}
}

// WithDetails adds details to an AppError
func (e *AppError) WithDetails(details interface{}) *AppError {
	e.Details = details
	return e
}

// As returns the first AppError in err's chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HasCode reports whether err carries an AppError with the given code.
func HasCode(err error, code string) bool {
	appErr, ok := As(err)
	return ok && appErr.Code == code
}

// Common error constructors

// Internal creates an internal server error
func Internal(message string, err error) *AppError {
	return Wrap(err, ErrCodeInternal, message, http.StatusInternalServerError)
}

// BadRequest creates a bad request error
func BadRequest(message string) *AppError {
	return New(ErrCodeBadRequest, message, http.StatusBadRequest)
}

// Unauthorized creates an unauthorized error
func Unauthorized(message string) *AppError {
	return New(ErrCodeUnauthorized, message, http.StatusUnauthorized)
}

// Forbidden creates a forbidden error
func Forbidden(message string) *AppError {
	return New(ErrCodeForbidden, message, http.StatusForbidden)
}

// NotFound creates a not found error
func NotFound(resource string) *AppError {
	return New(ErrCodeNotFound, fmt.Sprintf("%s not found", resource), http.StatusNotFound)
}

// Conflict creates a conflict error
func Conflict(message string) *AppError {
	return New(ErrCodeConflict, message, http.StatusConflict)
}

// ValidationError creates a validation error
func ValidationError(message string, details interface{}) *AppError {
	return New(ErrCodeValidation, message, http.StatusBadRequest).WithDetails(details)
}

// DatabaseError creates a database error
func DatabaseError(message string, err error) *AppError {
	return Wrap(err, ErrCodeDatabase, message, http.StatusInternalServerError)
}

// RateLimited creates a rate limited error
func RateLimited(message string) *AppError {
	return New(ErrCodeRateLimited, message, http.StatusTooManyRequests)
}

// ServiceUnavailable creates a service unavailable error
func ServiceUnavailable(message string) *AppError {
	return New(ErrCodeServiceUnavailable, message, http.StatusServiceUnavailable)
}

// InsufficientTokens is returned when a debit or transfer exceeds the balance.
func InsufficientTokens(balance, requested int64) *AppError {
	return New(ErrCodeInsufficientTokens,
		fmt.Sprintf("Insufficient tokens: balance %d, requested %d", balance, requested),
		http.StatusUnprocessableEntity,
	).WithDetails(map[string]int64{"balance": balance, "requested": requested})
}

// InvalidNftState is returned when an NFT transition is not allowed or the
// caller does not own the NFT.
func InvalidNftState(nftID int64, status string) *AppError {
	return New(ErrCodeInvalidNftState,
		fmt.Sprintf("NFT %d cannot transition from state %q", nftID, status),
		http.StatusConflict,
	)
}

// TrialAlreadyUsed is returned when a user requests a second trial.
func TrialAlreadyUsed() *AppError {
	return New(ErrCodeTrialAlreadyUsed, "Trial has already been used", http.StatusConflict)
}

// SubscriptionExpired is returned when a premium-gated operation is attempted
// on an expired entitlement.
func SubscriptionExpired(entitlement string) *AppError {
	return New(ErrCodeSubscriptionExpired,
		fmt.Sprintf("Subscription expired (%s)", entitlement),
		http.StatusPaymentRequired,
	)
}

// PoolRoundMismatch is returned when a contribution targets a round that has
// already been distributed.
func PoolRoundMismatch(expected, actual int64) *AppError {
	return New(ErrCodePoolRoundMismatch,
		fmt.Sprintf("Pool round mismatch: contribution for round %d, pool is at round %d", expected, actual),
		http.StatusConflict,
	)
}

// LedgerFrozen is returned for users whose balance diverged from their ledger.
func LedgerFrozen(userID int64) *AppError {
	return New(ErrCodeLedgerFrozen,
		fmt.Sprintf("Token ledger for user %d is frozen pending reconciliation", userID),
		http.StatusLocked,
	)
}

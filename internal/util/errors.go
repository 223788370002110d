// internal/util/errors.go
package util

import "errors"

// Common application-specific errors.
var (
	ErrNotFound       = errors.New("resource not found")
	ErrInvalidInput   = errors.New("invalid input provided")
	ErrUserNotFound   = errors.New("user not found")
	ErrDuplicateEntry = errors.New("duplicate entry")
)

// Errors returned by the invest flow. Every expected business outcome has its
// own sentinel so callers can tell them apart with errors.Is.
var (
	ErrUnauthenticated   = errors.New("caller is not authenticated")
	ErrWalletNotFound    = errors.New("wallet not found")
	ErrFundNotFound      = errors.New("fund not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidFundState  = errors.New("fund has no valid net asset value")
	ErrPersistence       = errors.New("persistence failure")
)

// ErrForbidden is returned when the caller may not act on another user's records.
var ErrForbidden = errors.New("forbidden")

// ErrInvalidCredentials is returned by login for an unknown user or a wrong password.
var ErrInvalidCredentials = errors.New("invalid credentials")

// IsError reports whether any error in err's chain matches target.
func IsError(err, target error) bool {
	return errors.Is(err, target)
}

// models/errors.go
package models

import "errors"

// Stable error kinds surfaced by the payment and ledger services. Controllers
// map these onto HTTP status codes; the message strings are shown to the user
// as-is for conflict and validation failures.
var (
	ErrGigNotFound               = errors.New("gig not found")
	ErrPackageUnavailable        = errors.New("selected package is not available")
	ErrInvalidRequirements       = errors.New("order requirements must not be empty")
	ErrUnknownMemo               = errors.New("payment memo was not issued for this buyer")
	ErrPaymentVerificationFailed = errors.New("no matching transfer found on chain")
	ErrDuplicatePayment          = errors.New("transaction or memo already used for an order")
	ErrOracleUnavailable         = errors.New("chain verification service unavailable")

	ErrWithdrawalNotFound  = errors.New("withdrawal not found")
	ErrInsufficientBalance = errors.New("withdrawal amount exceeds available balance")
	ErrAlreadyProcessed    = errors.New("withdrawal has already been processed")
	ErrLockConflict        = errors.New("withdrawal is locked by another staff member")
	ErrRejectionReason     = errors.New("rejection reason must not be empty")

	ErrTicketNotFound = errors.New("ticket not found")
	ErrTicketClosed   = errors.New("ticket is closed")

	ErrStaffNotFound   = errors.New("staff member not found")
	ErrLockedByAdmin   = errors.New("availability is locked by an administrator")
	ErrNotPermitted    = errors.New("actor lacks the required role or permission")
	ErrUserSuspended   = errors.New("account is suspended")
	ErrOrderNotFound   = errors.New("order not found")
	ErrOrderNotPaid    = errors.New("order earnings have already been released")
	ErrUserNotFound    = errors.New("user not found")
	ErrMemoUnavailable = errors.New("unable to issue a payment memo")
)

// ValidationError reports caller-fixable bad input.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// NewValidationError builds a ValidationError with the given message.
func NewValidationError(msg string) error {
	return &ValidationError{Msg: msg}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

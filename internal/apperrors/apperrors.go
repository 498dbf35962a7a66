// Package apperrors holds the error kinds shared by every domain package.
// Callers wrap them with fmt.Errorf("%w: ...") and match with errors.Is.
package apperrors

import "errors"

var (
	ErrDuplicateIdentity      = errors.New("identity already exists")
	ErrNotFound               = errors.New("not found")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrAlreadyCheckedIn       = errors.New("already checked in")
	ErrAlreadyCheckedOut      = errors.New("already checked out")
	ErrNotCheckedIn           = errors.New("not checked in")
	ErrDuplicatePeriod        = errors.New("payroll record already exists for period")
	ErrInvalidCredential      = errors.New("invalid credential")
	ErrForbidden              = errors.New("forbidden")
	ErrValidation             = errors.New("validation failed")
	ErrConflict               = errors.New("conflict")
	ErrLedgerRegistered       = errors.New("ledger entry already registered")
)

package services

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrWrongPassword      = errors.New("current password is incorrect")
	ErrNotLoggedIn        = errors.New("not logged in")
	ErrForbidden          = errors.New("not allowed")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrLeadQuotaExceeded  = errors.New("daily lead limit reached")
	ErrValidation         = errors.New("validation failed")
)

// validationError wraps ErrValidation with the offending field
func validationError(field, reason string) error {
	return fmt.Errorf("%w: %s %s", ErrValidation, field, reason)
}

package store

import "errors"

var (
	ErrPatientNotFound      = errors.New("patient not found")
	ErrStaffNotFound        = errors.New("staff member not found")
	ErrPaymentNotFound      = errors.New("payment not found")
	ErrEntryNotFound        = errors.New("queue entry not found")
	ErrSessionNotFound      = errors.New("visit session not found")
	ErrNoEntry              = errors.New("no queue entry available")
	ErrInvalidTransition    = errors.New("invalid visit transition")
	ErrDuplicateActiveEntry = errors.New("active queue entry already exists for payment")
	ErrProviderRequired     = errors.New("provider assignment required")
)

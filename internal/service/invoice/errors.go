package invoice

import "errors"

var (
	ErrNotFound      = errors.New("invoice not found")
	ErrForbidden     = errors.New("invoice belongs to another patient")
	ErrNotPayable    = errors.New("invoice is not unpaid")
	ErrAlreadyIssued = errors.New("appointment already has an invoice")
	ErrPaymentFailed = errors.New("payment failed")
)

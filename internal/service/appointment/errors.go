package appointment

import "errors"

var (
	ErrNotFound         = errors.New("appointment not found")
	ErrUnauthorized     = errors.New("actor role may not perform this action")
	ErrDoctorNotFound   = errors.New("doctor not found")
	ErrInvalidInput     = errors.New("invalid appointment input")
	ErrInvalidStatus    = errors.New("appointment status is not valid for this action")
	ErrInvoiceNotIssued = errors.New("appointment saved but its invoice could not be issued")
)

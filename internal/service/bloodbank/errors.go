package bloodbank

import "errors"

var (
	ErrUnknownGroup       = errors.New("unknown blood group")
	ErrUnknownAction      = errors.New("stock action must be add or remove")
	ErrInvalidUnits       = errors.New("units must be positive")
	ErrDonationNotFound   = errors.New("donation not found")
	ErrDonationNotPending = errors.New("donation is not pending")
)

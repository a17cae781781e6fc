package assistant

import "errors"

var (
	ErrEmptyInput      = errors.New("message must not be empty")
	ErrPatientNotFound = errors.New("patient not found")
	ErrUnknownModality = errors.New("unknown diagnostic type")
)

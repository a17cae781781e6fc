package vault

import "errors"

var (
	ErrNotFound     = errors.New("vault file not found")
	ErrForbidden    = errors.New("vault file belongs to another patient")
	ErrEmptyFile    = errors.New("uploaded file is empty")
	ErrFileTooLarge = errors.New("uploaded file exceeds the size limit")
)

package chat

import "errors"

var (
	ErrNotFound          = errors.New("chat message not found")
	ErrEmptyMessage      = errors.New("message must not be empty")
	ErrUnknownDepartment = errors.New("no doctor works in that department")
	ErrReplyForbidden    = errors.New("only doctors can reply")
)

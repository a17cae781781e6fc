package capacity

import "errors"

var (
	ErrWardNotFound     = errors.New("ward not found")
	ErrInvalidOccupancy = errors.New("occupied beds must lie between zero and the ward total")
)

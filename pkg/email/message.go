package email

import (
	"errors"
	"fmt"
)

// KindHeader carries the notification kind so mail filters can sort portal
// traffic.
const KindHeader = "X-MedTrack-Kind"

// Message is one transactional mail to a patient or staff member.
type Message struct {
	To      []string
	Subject string
	Kind    string
	Text    string
	HTML    string
}

var (
	ErrDisabled       = errors.New("email: delivery disabled")
	ErrInvalidMessage = errors.New("email: invalid message")
)

func invalid(reason string) error {
	return fmt.Errorf("%w: %s", ErrInvalidMessage, reason)
}

// SendError wraps a failure reported by the SMTP relay.
type SendError struct {
	Host string
	Err  error
}

func (e *SendError) Error() string { return fmt.Sprintf("email: smtp %s: %v", e.Host, e.Err) }
func (e *SendError) Unwrap() error { return e.Err }

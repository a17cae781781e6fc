// Package notifier dispatches best-effort messages to patients, doctors and
// operations staff. Callers never wait for delivery and never see delivery
// errors.
package notifier

import (
	"context"
	"errors"
)

// Message kinds. The kind is the last token of the bus subject.
const (
	KindAppointmentBooked = "appointment_booked"
	KindAppointmentStatus = "appointment_status"
	KindInvoiceIssued     = "invoice_issued"
	KindInvoicePaid       = "invoice_paid"
	KindChatReply         = "chat_reply"
	KindBloodRequest      = "blood_request"
	KindDonationVerified  = "donation_verified"
	KindOps               = "ops"
)

// Recipient lists every address a channel may use. Channels pick what they
// understand and skip the message otherwise.
type Recipient struct {
	UserID string `json:"user_id,omitempty"`
	Name   string `json:"name,omitempty"`
	Email  string `json:"email,omitempty"`
	Phone  string `json:"phone,omitempty"`
	Topic  string `json:"topic,omitempty"`
}

type Message struct {
	Kind      string            `json:"kind"`
	Subject   string            `json:"subject"`
	Body      string            `json:"body"`
	Recipient Recipient         `json:"recipient"`
	Data      map[string]string `json:"data,omitempty"`
}

// Notifier is what services depend on.
type Notifier interface {
	Notify(ctx context.Context, msg Message)
}

// Channel delivers one message over one medium.
type Channel interface {
	Name() string
	Send(ctx context.Context, msg Message) error
}

// ErrSkipped is returned by a channel that has no address for the recipient.
var ErrSkipped = errors.New("notifier: channel skipped")

// Nop drops every message.
type Nop struct{}

func (Nop) Notify(context.Context, Message) {}

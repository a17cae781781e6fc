package schema

import "time"

type InvoiceStatus string

const (
	InvoiceUnpaid  InvoiceStatus = "Unpaid"
	InvoicePaid    InvoiceStatus = "Paid"
	InvoiceClaimed InvoiceStatus = "Claimed"
)

// Invoice bills one appointment. Amount never changes after issue.
type Invoice struct {
	ID               string        `json:"id"`
	PatientID        string        `json:"patient_id"`
	AppointmentID    string        `json:"appointment_id"`
	Amount           int64         `json:"amount"`
	Currency         string        `json:"currency"`
	Status           InvoiceStatus `json:"status"`
	InsuranceClaimed bool          `json:"insurance_claimed"`
	Description      string        `json:"description"`
	PaymentProvider  string        `json:"payment_provider,omitempty"`
	PaymentRef       string        `json:"payment_ref,omitempty"`
	PaidAt           *time.Time    `json:"paid_at,omitempty"`
	Timestamps
}

func (i Invoice) RecordID() string { return i.ID }

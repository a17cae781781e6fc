// Package payments settles invoices through a payment provider.
package payments

import (
	"context"
	"errors"
	"fmt"

	"github.com/Alijeyrad/medtrack_backend/config"
)

var (
	ErrDeclined        = errors.New("payments: payment declined")
	ErrInvalidRequest  = errors.New("payments: invalid charge request")
	ErrUnknownProvider = errors.New("payments: unknown provider")
)

// ChargeRequest describes one invoice settlement. Amount is in whole
// currency units as stored on the invoice.
type ChargeRequest struct {
	InvoiceID      string
	PatientID      string
	Amount         int64
	Currency       string
	Method         string
	Description    string
	IdempotencyKey string
}

func (r ChargeRequest) validate() error {
	if r.InvoiceID == "" {
		return fmt.Errorf("%w: invoice id", ErrInvalidRequest)
	}
	if r.Amount <= 0 {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidRequest)
	}
	if r.Currency == "" {
		return fmt.Errorf("%w: currency", ErrInvalidRequest)
	}
	return nil
}

// IdempotencyKey scopes a charge to one invoice and payment method, so a
// retry with the same method replays while a new method starts a new charge.
func IdempotencyKey(invoiceID, method string) string {
	if method == "" {
		return "invoice:" + invoiceID
	}
	return "invoice:" + invoiceID + ":" + method
}

// Receipt is the provider's confirmation.
type Receipt struct {
	Provider  string
	Reference string
}

type Gateway interface {
	Name() string
	Charge(ctx context.Context, req ChargeRequest) (Receipt, error)
}

// New picks the gateway named by payments.provider.
func New(cfg config.PaymentsConfig) (Gateway, error) {
	switch cfg.Provider {
	case "", "manual":
		return NewManual(), nil
	case "stripe":
		return NewStripe(cfg.Stripe.SecretKey)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Provider)
	}
}

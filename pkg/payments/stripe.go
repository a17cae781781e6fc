package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/paymentintent"
)

// Stripe confirms a PaymentIntent server side with the payment method the
// client collected.
type Stripe struct {
	create func(*stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
}

func NewStripe(secretKey string) (*Stripe, error) {
	secretKey = strings.TrimSpace(secretKey)
	if secretKey == "" {
		return nil, errors.New("payments: stripe secret key is required")
	}
	stripe.Key = secretKey
	return &Stripe{create: paymentintent.New}, nil
}

func (*Stripe) Name() string { return "stripe" }

func (s *Stripe) Charge(ctx context.Context, req ChargeRequest) (Receipt, error) {
	if err := req.validate(); err != nil {
		return Receipt{}, err
	}
	if req.Method == "" {
		return Receipt{}, fmt.Errorf("%w: payment method", ErrInvalidRequest)
	}

	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(req.Amount * 100),
		Currency:           stripe.String(strings.ToLower(req.Currency)),
		PaymentMethod:      stripe.String(req.Method),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Confirm:            stripe.Bool(true),
		Description:        stripe.String(req.Description),
	}
	params.Context = ctx
	params.AddMetadata("invoice_id", req.InvoiceID)
	params.AddMetadata("patient_id", req.PatientID)
	key := req.IdempotencyKey
	if key == "" {
		key = IdempotencyKey(req.InvoiceID, req.Method)
	}
	params.IdempotencyKey = stripe.String(key)

	pi, err := s.create(params)
	if err != nil {
		var se *stripe.Error
		if errors.As(err, &se) && se.Type == stripe.ErrorTypeCard {
			return Receipt{}, fmt.Errorf("%w: %s", ErrDeclined, se.Msg)
		}
		return Receipt{}, fmt.Errorf("stripe payment intent: %w", err)
	}
	if pi.Status != stripe.PaymentIntentStatusSucceeded {
		return Receipt{}, fmt.Errorf("%w: status %s", ErrDeclined, pi.Status)
	}

	return Receipt{Provider: "stripe", Reference: pi.ID}, nil
}

package invoice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Alijeyrad/medtrack_backend/config"
	"github.com/Alijeyrad/medtrack_backend/internal/notifier"
	"github.com/Alijeyrad/medtrack_backend/internal/schema"
	"github.com/Alijeyrad/medtrack_backend/internal/store"
	"github.com/Alijeyrad/medtrack_backend/pkg/observability"
	"github.com/Alijeyrad/medtrack_backend/pkg/payments"
)

// Issue triggers.
const (
	TriggerBooking    = "booking"
	TriggerCompletion = "completion"
)

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type IssueRequest struct {
	Appointment schema.Appointment
	Trigger     string
	Description string
}

type PayRequest struct {
	InvoiceID string
	PatientID string
	Method    string
}

// ---------------------------------------------------------------------------
// Interface
// ---------------------------------------------------------------------------

type Service interface {
	Issue(ctx context.Context, req IssueRequest) (schema.Invoice, error)
	Get(ctx context.Context, invoiceID, patientID string) (schema.Invoice, error)
	ListForPatient(ctx context.Context, patientID string) ([]schema.Invoice, error)
	ListForAppointment(ctx context.Context, appointmentID string) ([]schema.Invoice, error)
	Pay(ctx context.Context, req PayRequest) (schema.Invoice, error)
	Claim(ctx context.Context, invoiceID, patientID string) (schema.Invoice, error)
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type invoiceService struct {
	store    *store.Store
	fees     *FeePolicy
	currency string
	gateway  payments.Gateway
	notify   notifier.Notifier
	metrics  *observability.Metrics
	now      func() time.Time
}

func New(
	st *store.Store,
	fees *FeePolicy,
	billing config.BillingConfig,
	gateway payments.Gateway,
	n notifier.Notifier,
	m *observability.Metrics,
) Service {
	currency := billing.Currency
	if currency == "" {
		currency = "INR"
	}
	return &invoiceService{
		store:    st,
		fees:     fees,
		currency: currency,
		gateway:  gateway,
		notify:   n,
		metrics:  m,
		now:      time.Now,
	}
}

func (s *invoiceService) Issue(ctx context.Context, req IssueRequest) (schema.Invoice, error) {
	appt := req.Appointment

	existing, err := s.store.Invoices.ListBy(ctx, store.ByAppointmentID, appt.ID)
	if err != nil {
		return schema.Invoice{}, fmt.Errorf("issue invoice: %w", err)
	}
	if len(existing) > 0 {
		return existing[0], ErrAlreadyIssued
	}

	amount := s.fees.Amount()
	if req.Trigger == TriggerBooking {
		amount = s.fees.FixedAmount()
	}

	inv := schema.Invoice{
		ID:            IDFor(appt.ID),
		PatientID:     appt.PatientID,
		AppointmentID: appt.ID,
		Amount:        amount,
		Currency:      s.currency,
		Status:        schema.InvoiceUnpaid,
		Description:   req.Description,
	}
	inv.Touch(s.now().UTC())

	if err := s.store.Invoices.Create(ctx, inv); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return schema.Invoice{}, ErrAlreadyIssued
		}
		return schema.Invoice{}, fmt.Errorf("issue invoice: %w", err)
	}
	s.metrics.InvoiceIssued(ctx, req.Trigger)

	return inv, nil
}

func (s *invoiceService) Get(ctx context.Context, invoiceID, patientID string) (schema.Invoice, error) {
	inv, err := s.store.Invoices.Get(ctx, invoiceID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return schema.Invoice{}, ErrNotFound
		}
		return schema.Invoice{}, fmt.Errorf("get invoice: %w", err)
	}
	if patientID != "" && inv.PatientID != patientID {
		return schema.Invoice{}, ErrForbidden
	}
	return inv, nil
}

func (s *invoiceService) ListForPatient(ctx context.Context, patientID string) ([]schema.Invoice, error) {
	out, err := s.store.Invoices.ListBy(ctx, store.ByPatientID, patientID)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	return out, nil
}

func (s *invoiceService) ListForAppointment(ctx context.Context, appointmentID string) ([]schema.Invoice, error) {
	out, err := s.store.Invoices.ListBy(ctx, store.ByAppointmentID, appointmentID)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	return out, nil
}

func (s *invoiceService) Pay(ctx context.Context, req PayRequest) (schema.Invoice, error) {
	inv, err := s.Get(ctx, req.InvoiceID, req.PatientID)
	if err != nil {
		return schema.Invoice{}, err
	}
	if inv.Status != schema.InvoiceUnpaid {
		return schema.Invoice{}, ErrNotPayable
	}

	receipt, err := s.gateway.Charge(ctx, payments.ChargeRequest{
		InvoiceID:      inv.ID,
		PatientID:      inv.PatientID,
		Amount:         inv.Amount,
		Currency:       inv.Currency,
		Method:         req.Method,
		Description:    inv.Description,
		IdempotencyKey: payments.IdempotencyKey(inv.ID, req.Method),
	})
	if err != nil {
		return schema.Invoice{}, fmt.Errorf("%w: %w", ErrPaymentFailed, err)
	}

	now := s.now().UTC()
	paid, err := s.store.Invoices.Update(ctx, inv.ID, func(i *schema.Invoice) error {
		if i.Status != schema.InvoiceUnpaid {
			return ErrNotPayable
		}
		i.Status = schema.InvoicePaid
		i.PaymentProvider = receipt.Provider
		i.PaymentRef = receipt.Reference
		i.PaidAt = &now
		i.Touch(now)
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNotPayable) {
			slog.WarnContext(ctx, "invoice settled concurrently after charge", "invoice_id", inv.ID, "payment_ref", receipt.Reference)
			return schema.Invoice{}, err
		}
		return schema.Invoice{}, fmt.Errorf("pay invoice: %w", err)
	}

	s.notify.Notify(ctx, notifier.Message{
		Kind:      notifier.KindInvoicePaid,
		Subject:   "MedTrack - Payment Received",
		Body:      fmt.Sprintf("We received %d %s for %s.", paid.Amount, paid.Currency, paid.Description),
		Recipient: notifier.Recipient{UserID: paid.PatientID},
		Data:      map[string]string{"invoice_id": paid.ID},
	})
	return paid, nil
}

func (s *invoiceService) Claim(ctx context.Context, invoiceID, patientID string) (schema.Invoice, error) {
	now := s.now().UTC()
	inv, err := s.store.Invoices.Update(ctx, invoiceID, func(i *schema.Invoice) error {
		if i.PatientID != patientID {
			return ErrForbidden
		}
		if i.Status != schema.InvoiceUnpaid {
			return ErrNotPayable
		}
		i.Status = schema.InvoiceClaimed
		i.InsuranceClaimed = true
		i.Touch(now)
		return nil
	})
	switch {
	case err == nil:
		return inv, nil
	case errors.Is(err, store.ErrNotFound):
		return schema.Invoice{}, ErrNotFound
	case errors.Is(err, ErrForbidden), errors.Is(err, ErrNotPayable):
		return schema.Invoice{}, err
	default:
		return schema.Invoice{}, fmt.Errorf("claim invoice: %w", err)
	}
}

package invoice

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/Alijeyrad/medtrack_backend/config"
	"github.com/Alijeyrad/medtrack_backend/internal/notifier"
	"github.com/Alijeyrad/medtrack_backend/internal/schema"
	"github.com/Alijeyrad/medtrack_backend/internal/store"
	"github.com/Alijeyrad/medtrack_backend/pkg/payments"
)

type declineGateway struct{}

func (declineGateway) Name() string { return "decline" }
func (declineGateway) Charge(context.Context, payments.ChargeRequest) (payments.Receipt, error) {
	return payments.Receipt{}, payments.ErrDeclined
}

// firstDeclines declines the first charge and records every key it sees.
type firstDeclines struct {
	keys []string
}

func (g *firstDeclines) Name() string { return "first-declines" }
func (g *firstDeclines) Charge(_ context.Context, req payments.ChargeRequest) (payments.Receipt, error) {
	g.keys = append(g.keys, req.IdempotencyKey)
	if len(g.keys) == 1 {
		return payments.Receipt{}, payments.ErrDeclined
	}
	return payments.Receipt{Provider: g.Name(), Reference: "ref-2"}, nil
}

func billing(policy string) config.BillingConfig {
	return config.BillingConfig{
		InvoiceOn: config.InvoiceOnCompletion,
		FeePolicy: policy,
		FixedFee:  500,
		MinFee:    500,
		MaxFee:    2000,
		Currency:  "INR",
	}
}

func newService(t *testing.T, gw payments.Gateway) (Service, *store.Store) {
	t.Helper()
	st := store.NewMemoryStore()
	b := billing(config.FeeRandom)
	fees := NewFeePolicy(b, rand.New(rand.NewPCG(1, 2)))
	return New(st, fees, b, gw, notifier.Nop{}, nil), st
}

func TestFeePolicy(t *testing.T) {
	fixed := NewFeePolicy(billing(config.FeeFixed), nil)
	for i := 0; i < 10; i++ {
		if got := fixed.Amount(); got != 500 {
			t.Fatalf("fixed Amount() = %d, want 500", got)
		}
	}

	random := NewFeePolicy(billing(config.FeeRandom), rand.New(rand.NewPCG(7, 7)))
	for i := 0; i < 1000; i++ {
		got := random.Amount()
		if got < 500 || got > 2000 {
			t.Fatalf("random Amount() = %d, want within [500,2000]", got)
		}
	}
	if got := random.FixedAmount(); got != 500 {
		t.Errorf("FixedAmount() = %d, want 500", got)
	}
}

func TestIDFor(t *testing.T) {
	if IDFor("a1") != IDFor("a1") {
		t.Error("IDFor() is not stable")
	}
	if IDFor("a1") == IDFor("a2") {
		t.Error("IDFor() collides for different appointments")
	}
}

func TestIssue(t *testing.T) {
	ctx := context.Background()
	svc, st := newService(t, payments.NewManual())
	appt := schema.Appointment{ID: "a1", PatientID: "p1", DoctorName: "Dr. Rao"}

	tests := []struct {
		name    string
		trigger string
		wantMin int64
		wantMax int64
	}{
		{"booking charges the flat fee", TriggerBooking, 500, 500},
		{"completion uses the fee policy", TriggerCompletion, 500, 2000},
	}
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := appt
			a.ID = appt.ID + string(rune('a'+i))
			inv, err := svc.Issue(ctx, IssueRequest{Appointment: a, Trigger: tt.trigger, Description: "Consultation"})
			if err != nil {
				t.Fatalf("Issue() error = %v", err)
			}
			if inv.Status != schema.InvoiceUnpaid || inv.Currency != "INR" || inv.PatientID != "p1" {
				t.Errorf("invoice = %+v", inv)
			}
			if inv.Amount < tt.wantMin || inv.Amount > tt.wantMax {
				t.Errorf("amount = %d, want [%d,%d]", inv.Amount, tt.wantMin, tt.wantMax)
			}
		})
	}

	t.Run("second issue for the same appointment", func(t *testing.T) {
		first, err := svc.Issue(ctx, IssueRequest{Appointment: appt, Trigger: TriggerCompletion})
		if err != nil {
			t.Fatalf("Issue() error = %v", err)
		}
		got, err := svc.Issue(ctx, IssueRequest{Appointment: appt, Trigger: TriggerCompletion})
		if !errors.Is(err, ErrAlreadyIssued) {
			t.Fatalf("Issue() error = %v, want ErrAlreadyIssued", err)
		}
		if got.ID != first.ID {
			t.Errorf("returned %q, want existing %q", got.ID, first.ID)
		}
		all, _ := st.Invoices.ListBy(ctx, store.ByAppointmentID, "a1")
		if len(all) != 1 {
			t.Errorf("invoices for a1 = %d, want 1", len(all))
		}
	})
}

func TestPayAndClaimAreTerminal(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, payments.NewManual())

	inv1, _ := svc.Issue(ctx, IssueRequest{Appointment: schema.Appointment{ID: "a1", PatientID: "p1"}, Trigger: TriggerBooking})
	inv2, _ := svc.Issue(ctx, IssueRequest{Appointment: schema.Appointment{ID: "a2", PatientID: "p1"}, Trigger: TriggerBooking})

	if _, err := svc.Pay(ctx, PayRequest{InvoiceID: inv1.ID, PatientID: "p2"}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("Pay() by another patient error = %v, want ErrForbidden", err)
	}

	paid, err := svc.Pay(ctx, PayRequest{InvoiceID: inv1.ID, PatientID: "p1", Method: "cash"})
	if err != nil {
		t.Fatalf("Pay() error = %v", err)
	}
	if paid.Status != schema.InvoicePaid || paid.PaymentProvider != "manual" || paid.PaidAt == nil {
		t.Errorf("paid invoice = %+v", paid)
	}
	if paid.Amount != inv1.Amount {
		t.Errorf("amount changed from %d to %d", inv1.Amount, paid.Amount)
	}
	if _, err := svc.Pay(ctx, PayRequest{InvoiceID: inv1.ID, PatientID: "p1"}); !errors.Is(err, ErrNotPayable) {
		t.Errorf("second Pay() error = %v, want ErrNotPayable", err)
	}
	if _, err := svc.Claim(ctx, inv1.ID, "p1"); !errors.Is(err, ErrNotPayable) {
		t.Errorf("Claim() on paid invoice error = %v, want ErrNotPayable", err)
	}

	claimed, err := svc.Claim(ctx, inv2.ID, "p1")
	if err != nil {
		t.Fatalf("Claim() error = %v", err)
	}
	if claimed.Status != schema.InvoiceClaimed || !claimed.InsuranceClaimed {
		t.Errorf("claimed invoice = %+v", claimed)
	}
	if _, err := svc.Pay(ctx, PayRequest{InvoiceID: inv2.ID, PatientID: "p1"}); !errors.Is(err, ErrNotPayable) {
		t.Errorf("Pay() on claimed invoice error = %v, want ErrNotPayable", err)
	}
	if _, err := svc.Claim(ctx, "missing", "p1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Claim(missing) error = %v, want ErrNotFound", err)
	}
}

func TestPayDeclined(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, declineGateway{})
	inv, _ := svc.Issue(ctx, IssueRequest{Appointment: schema.Appointment{ID: "a1", PatientID: "p1"}, Trigger: TriggerBooking})

	_, err := svc.Pay(ctx, PayRequest{InvoiceID: inv.ID, PatientID: "p1"})
	if !errors.Is(err, ErrPaymentFailed) || !errors.Is(err, payments.ErrDeclined) {
		t.Fatalf("Pay() error = %v, want ErrPaymentFailed wrapping ErrDeclined", err)
	}
	got, _ := svc.Get(ctx, inv.ID, "p1")
	if got.Status != schema.InvoiceUnpaid {
		t.Errorf("status = %s after declined payment, want Unpaid", got.Status)
	}
}

func TestPayRetryWithAnotherMethod(t *testing.T) {
	ctx := context.Background()
	gw := &firstDeclines{}
	svc, _ := newService(t, gw)
	inv, _ := svc.Issue(ctx, IssueRequest{Appointment: schema.Appointment{ID: "a1", PatientID: "p1"}, Trigger: TriggerBooking})

	if _, err := svc.Pay(ctx, PayRequest{InvoiceID: inv.ID, PatientID: "p1", Method: "pm_card_declined"}); !errors.Is(err, payments.ErrDeclined) {
		t.Fatalf("first Pay() error = %v, want ErrDeclined", err)
	}
	paid, err := svc.Pay(ctx, PayRequest{InvoiceID: inv.ID, PatientID: "p1", Method: "pm_card_visa"})
	if err != nil {
		t.Fatalf("second Pay() error = %v", err)
	}
	if paid.Status != schema.InvoicePaid || paid.PaymentRef != "ref-2" {
		t.Errorf("paid = %+v", paid)
	}

	if len(gw.keys) != 2 {
		t.Fatalf("gateway saw %d charges, want 2", len(gw.keys))
	}
	if gw.keys[0] == gw.keys[1] {
		t.Errorf("both attempts used idempotency key %q", gw.keys[0])
	}
}

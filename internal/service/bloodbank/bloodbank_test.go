package bloodbank

import (
	"context"
	"errors"
	"testing"

	"github.com/Alijeyrad/medtrack_backend/internal/notifier"
	"github.com/Alijeyrad/medtrack_backend/internal/schema"
	"github.com/Alijeyrad/medtrack_backend/internal/store"
)

func seeded(t *testing.T) Service {
	t.Helper()
	svc := New(store.NewMemoryStore(), notifier.Nop{}, "")
	if err := svc.Seed(context.Background()); err != nil {
		t.Fatalf("Seed() error = %v", err)
	}
	return svc
}

func stockOf(t *testing.T, svc Service, group string) schema.BloodStock {
	t.Helper()
	all, err := svc.Stock(context.Background())
	if err != nil {
		t.Fatalf("Stock() error = %v", err)
	}
	for _, b := range all {
		if b.Group == group {
			return b
		}
	}
	t.Fatalf("group %s missing from stock", group)
	return schema.BloodStock{}
}

func TestSeed(t *testing.T) {
	svc := seeded(t)
	all, _ := svc.Stock(context.Background())
	if len(all) != len(schema.BloodGroups) {
		t.Fatalf("Stock() = %d rows, want %d", len(all), len(schema.BloodGroups))
	}
	for _, b := range all {
		if b.Units != DefaultStock[b.Group] || b.Status != schema.StockStatusFor(b.Units) {
			t.Errorf("%s = %d %s", b.Group, b.Units, b.Status)
		}
	}
	if err := svc.Seed(context.Background()); err != nil {
		t.Fatalf("second Seed() error = %v", err)
	}
}

func TestAdjust(t *testing.T) {
	ctx := context.Background()
	svc := seeded(t)

	tests := []struct {
		name       string
		group      string
		action     string
		wantUnits  int
		wantStatus schema.StockStatus
		wantErr    error
	}{
		{"add crosses into Low", "A-", ActionAdd, 5, schema.StockLow, nil},
		{"remove within Low", "B-", ActionRemove, 5, schema.StockLow, nil},
		{"remove from Available to Low", "AB+", ActionRemove, 9, schema.StockLow, nil},
		{"unknown group", "C+", ActionAdd, 0, "", ErrUnknownGroup},
		{"unknown action", "A+", "double", 0, "", ErrUnknownAction},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.Adjust(ctx, tt.group, tt.action)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Adjust() error = %v, want %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if got.Units != tt.wantUnits || got.Status != tt.wantStatus {
				t.Errorf("Adjust() = %d %s, want %d %s", got.Units, got.Status, tt.wantUnits, tt.wantStatus)
			}
		})
	}
}

func TestAdjust_RemoveNeverBelowZero(t *testing.T) {
	ctx := context.Background()
	svc := seeded(t)
	for i := 0; i < 5; i++ {
		if _, err := svc.Adjust(ctx, "O-", ActionRemove); err != nil {
			t.Fatalf("Adjust() error = %v", err)
		}
	}
	if got := stockOf(t, svc, "O-"); got.Units != 0 || got.Status != schema.StockCritical {
		t.Errorf("O- = %+v, want 0 Critical", got)
	}
}

func TestAdjust_UnseededGroup(t *testing.T) {
	svc := New(store.NewMemoryStore(), notifier.Nop{}, "")
	got, err := svc.Adjust(context.Background(), "AB-", ActionAdd)
	if err != nil {
		t.Fatalf("Adjust() error = %v", err)
	}
	if got.Units != 1 || got.Status != schema.StockCritical {
		t.Errorf("Adjust() = %+v", got)
	}
}

func TestVerifyDonation_AddsOneUnitOnce(t *testing.T) {
	ctx := context.Background()
	svc := seeded(t)

	d, err := svc.SubmitDonation(ctx, DonationRequest{DonorID: "p1", DonorName: "Asha", Group: "A-"})
	if err != nil {
		t.Fatalf("SubmitDonation() error = %v", err)
	}
	pending, _ := svc.PendingDonations(ctx)
	if len(pending) != 1 || pending[0].ID != d.ID {
		t.Fatalf("PendingDonations() = %+v", pending)
	}

	v, err := svc.VerifyDonation(ctx, d.ID)
	if err != nil || v.Status != schema.DonationVerified {
		t.Fatalf("VerifyDonation() = %+v, %v", v, err)
	}
	if got := stockOf(t, svc, "A-"); got.Units != 5 || got.Status != schema.StockLow {
		t.Errorf("A- after verify = %d %s, want 5 Low", got.Units, got.Status)
	}

	if _, err := svc.VerifyDonation(ctx, d.ID); !errors.Is(err, ErrDonationNotPending) {
		t.Errorf("second VerifyDonation() error = %v, want ErrDonationNotPending", err)
	}
	if got := stockOf(t, svc, "A-"); got.Units != 5 {
		t.Errorf("A- after second verify = %d, want 5", got.Units)
	}
	if pending, _ := svc.PendingDonations(ctx); len(pending) != 0 {
		t.Errorf("PendingDonations() after verify = %d, want 0", len(pending))
	}
	if _, err := svc.VerifyDonation(ctx, "missing"); !errors.Is(err, ErrDonationNotFound) {
		t.Errorf("VerifyDonation(missing) error = %v, want ErrDonationNotFound", err)
	}
}

func TestRequestBlood(t *testing.T) {
	ctx := context.Background()
	svc := seeded(t)

	approved, err := svc.RequestBlood(ctx, BloodRequestInput{DoctorID: "d1", Group: "O+", Units: 25})
	if err != nil || approved.Status != schema.RequestApproved {
		t.Fatalf("RequestBlood() = %+v, %v", approved, err)
	}
	if got := stockOf(t, svc, "O+"); got.Units != 5 || got.Status != schema.StockLow {
		t.Errorf("O+ after reservation = %d %s", got.Units, got.Status)
	}

	pending, err := svc.RequestBlood(ctx, BloodRequestInput{DoctorID: "d1", Group: "O-", Units: 3})
	if err != nil || pending.Status != schema.RequestPendingStock {
		t.Fatalf("RequestBlood() = %+v, %v", pending, err)
	}
	if got := stockOf(t, svc, "O-"); got.Units != 2 {
		t.Errorf("O- changed by a pending request: %d", got.Units)
	}

	if _, err := svc.RequestBlood(ctx, BloodRequestInput{Group: "O+", Units: 0}); !errors.Is(err, ErrInvalidUnits) {
		t.Errorf("RequestBlood(0 units) error = %v", err)
	}
}

func TestLowStockAlerts(t *testing.T) {
	svc := seeded(t)
	alerts, err := svc.LowStockAlerts(context.Background())
	if err != nil {
		t.Fatalf("LowStockAlerts() error = %v", err)
	}
	got := make(map[string]bool)
	for _, a := range alerts {
		got[a.Group] = true
	}
	for _, g := range []string{"A-", "B-", "O-", "AB-"} {
		if !got[g] {
			t.Errorf("missing alert for %s", g)
		}
	}
	if len(alerts) != 4 {
		t.Errorf("alerts = %d, want 4", len(alerts))
	}
}

// stockOutage fails blood stock writes while down is set.
type stockOutage struct {
	store.Backend
	down bool
}

func (b *stockOutage) Mutate(ctx context.Context, table, id string, fn store.Mutation) error {
	if b.down && table == store.TableBloodStock {
		return errors.New("stock table unavailable")
	}
	return b.Backend.Mutate(ctx, table, id, fn)
}

func TestVerifyDonation_StockFailureLeavesDonationPending(t *testing.T) {
	ctx := context.Background()
	backend := &stockOutage{Backend: store.NewMemory()}
	svc := New(store.New(backend), notifier.Nop{}, "")
	if err := svc.Seed(ctx); err != nil {
		t.Fatalf("Seed() error = %v", err)
	}

	d, err := svc.SubmitDonation(ctx, DonationRequest{DonorID: "p1", DonorName: "Asha", Group: "O-"})
	if err != nil {
		t.Fatalf("SubmitDonation() error = %v", err)
	}

	backend.down = true
	if _, err := svc.VerifyDonation(ctx, d.ID); err == nil {
		t.Fatal("VerifyDonation() should fail while stock is unavailable")
	}
	backend.down = false

	pending, _ := svc.PendingDonations(ctx)
	if len(pending) != 1 || pending[0].ID != d.ID {
		t.Fatalf("PendingDonations() = %+v, want the failed donation", pending)
	}

	if _, err := svc.VerifyDonation(ctx, d.ID); err != nil {
		t.Fatalf("retried VerifyDonation() error = %v", err)
	}
	if got := stockOf(t, svc, "O-"); got.Units != DefaultStock["O-"]+1 {
		t.Errorf("O- = %d, want %d", got.Units, DefaultStock["O-"]+1)
	}
}

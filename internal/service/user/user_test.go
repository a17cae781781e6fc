package user

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/Alijeyrad/medtrack_backend/internal/store"
	"github.com/Alijeyrad/medtrack_backend/pkg/util/password"
)

func seeded(t *testing.T) (*UserService, *password.Hasher) {
	t.Helper()
	h := password.NewHasher(password.Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32})
	svc := New(store.NewMemoryStore(), h)
	if err := svc.Seed(context.Background()); err != nil {
		t.Fatalf("Seed() error = %v", err)
	}
	return svc, h
}

func TestSeed_Idempotent(t *testing.T) {
	svc, _ := seeded(t)
	ctx := context.Background()
	if err := svc.Seed(ctx); err != nil {
		t.Fatalf("second Seed() error = %v", err)
	}
	docs, err := svc.ListDoctors(ctx, "")
	if err != nil || len(docs) != len(seedDoctors) {
		t.Errorf("ListDoctors() = %d, %v; want %d", len(docs), err, len(seedDoctors))
	}
}

func TestSeed_DemoPasswordsVerify(t *testing.T) {
	svc, h := seeded(t)
	ctx := context.Background()

	admin, _ := svc.store.Admins.Get(ctx, "admin")
	doc, _ := svc.store.Doctors.Get(ctx, "doctor")
	pat, _ := svc.store.Patients.Get(ctx, "patient")

	for _, tt := range []struct{ hash, pw string }{
		{admin.PasswordHash, "admin123"},
		{doc.PasswordHash, "doctor123"},
		{pat.PasswordHash, "patient123"},
	} {
		if err := h.Verify(tt.hash, tt.pw); err != nil {
			t.Errorf("Verify(%q) error = %v", tt.pw, err)
		}
	}

	other, _ := svc.store.Doctors.Get(ctx, "d1")
	if other.PasswordHash != "" {
		t.Error("directory doctors must not have a login")
	}
}

func TestDirectory(t *testing.T) {
	svc, _ := seeded(t)
	ctx := context.Background()

	depts, err := svc.Departments(ctx)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"Cardiology", "Dermatology", "General Medicine", "Orthopedics", "Pediatrics"}
	if !slices.Equal(depts, want) {
		t.Errorf("Departments() = %v, want %v", depts, want)
	}

	gm, _ := svc.ListDoctors(ctx, "General Medicine")
	if len(gm) != 2 {
		t.Errorf("ListDoctors(General Medicine) = %d, want 2", len(gm))
	}

	pats, _ := svc.ListPatients(ctx)
	if len(pats) != 1 || pats[0].Email != "patient@medtrack.com" {
		t.Errorf("ListPatients() = %+v", pats)
	}
}

func TestMe(t *testing.T) {
	svc, _ := seeded(t)
	ctx := context.Background()

	tests := []struct {
		id, role string
		wantName string
		wantErr  error
	}{
		{"doctor", "doctor", "Dr. Sarah Johnson", nil},
		{"patient", "patient", "John Doe", nil},
		{"admin", "admin", "System Administrator", nil},
		{"patient", "doctor", "", ErrUserNotFound},
		{"admin", "nurse", "", ErrUnknownRole},
	}
	for _, tt := range tests {
		t.Run(tt.role+"/"+tt.id, func(t *testing.T) {
			p, err := svc.Me(ctx, tt.id, tt.role)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Me() error = %v, want %v", err, tt.wantErr)
			}
			if err == nil && (p.Name != tt.wantName || p.Role != tt.role) {
				t.Errorf("Me() = %+v", p)
			}
		})
	}
}

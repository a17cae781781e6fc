package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Alijeyrad/medtrack_backend/internal/schema"
	"github.com/Alijeyrad/medtrack_backend/internal/store"
	pasetotoken "github.com/Alijeyrad/medtrack_backend/pkg/paseto"
	"github.com/Alijeyrad/medtrack_backend/pkg/util/password"
)

type memThrottle struct {
	mu    sync.Mutex
	fails map[string]int
}

func (m *memThrottle) Locked(_ context.Context, k string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fails[k] >= maxLoginAttempts, nil
}

func (m *memThrottle) Fail(_ context.Context, k string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fails[k]++
	return nil
}

func (m *memThrottle) Reset(_ context.Context, k string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.fails, k)
	return nil
}

func fastHasher() *password.Hasher {
	return password.NewHasher(password.Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32})
}

func newTestAuth(t *testing.T) (*authService, *store.Store, *pasetotoken.Manager) {
	t.Helper()
	keys, err := pasetotoken.EphemeralKeys(pasetotoken.ModeLocal)
	if err != nil {
		t.Fatal(err)
	}
	pm, err := pasetotoken.New(pasetotoken.Config{
		Mode: pasetotoken.ModeLocal, Issuer: "medtrack", Audience: "medtrack-web", AccessTTL: time.Hour,
	}, keys)
	if err != nil {
		t.Fatal(err)
	}
	st := store.NewMemoryStore()
	svc := New(st, fastHasher(), pm, Options{
		SessionTTL:  time.Hour,
		PhoneRegion: "IN",
		Throttle:    &memThrottle{fails: map[string]int{}},
	}).(*authService)
	return svc, st, pm
}

func TestRegisterPatient(t *testing.T) {
	svc, _, _ := newTestAuth(t)
	ctx := context.Background()

	p, err := svc.RegisterPatient(ctx, RegisterRequest{
		Name: "John Doe", Email: "John@Example.com", Phone: "098765 43210", Password: "patient123", Age: 35, Gender: "Male",
	})
	if err != nil {
		t.Fatalf("RegisterPatient() error = %v", err)
	}
	if p.Email != "john@example.com" || p.Phone != "+919876543210" {
		t.Errorf("RegisterPatient() = %+v", p)
	}
	if p.PasswordHash == "" || p.PasswordHash == "patient123" {
		t.Errorf("password not hashed: %q", p.PasswordHash)
	}

	tests := []struct {
		name string
		req  RegisterRequest
		want error
	}{
		{"duplicate email", RegisterRequest{Name: "J", Email: "john@example.com", Password: "secret1"}, ErrEmailAlreadyExists},
		{"blank name", RegisterRequest{Name: " ", Email: "a@b.com", Password: "secret1"}, ErrInvalidName},
		{"bad email", RegisterRequest{Name: "A", Email: "not-an-email", Password: "secret1"}, ErrInvalidEmail},
		{"short password", RegisterRequest{Name: "A", Email: "a@b.com", Password: "123"}, ErrPasswordTooShort},
		{"bad phone", RegisterRequest{Name: "A", Email: "a@b.com", Password: "secret1", Phone: "12"}, ErrInvalidPhone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.RegisterPatient(ctx, tt.req); !errors.Is(err, tt.want) {
				t.Errorf("RegisterPatient() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestLoginLogout(t *testing.T) {
	svc, st, pm := newTestAuth(t)
	ctx := context.Background()

	hash, _ := svc.hasher.Hash("doctor123")
	doc := schema.Doctor{ID: "d1", Name: "Dr. Sarah Johnson", Department: "General Medicine"}
	doc.Email = "doctor@medtrack.com"
	doc.PasswordHash = hash
	if err := st.Doctors.Create(ctx, doc); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		req  LoginRequest
		want error
	}{
		{"wrong role", LoginRequest{Role: "patient", Email: "doctor@medtrack.com", Password: "doctor123"}, ErrInvalidCredentials},
		{"unknown role", LoginRequest{Role: "nurse", Email: "doctor@medtrack.com", Password: "doctor123"}, ErrUnknownRole},
		{"wrong password", LoginRequest{Role: "doctor", Email: "doctor@medtrack.com", Password: "nope"}, ErrInvalidCredentials},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Login(ctx, tt.req); !errors.Is(err, tt.want) {
				t.Errorf("Login() error = %v, want %v", err, tt.want)
			}
		})
	}

	tok, err := svc.Login(ctx, LoginRequest{Role: "doctor", Email: "Doctor@MedTrack.com", Password: "doctor123"})
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if tok.User.ID != "d1" || tok.User.Department != "General Medicine" {
		t.Errorf("Login().User = %+v", tok.User)
	}

	claims, err := pm.Verify(tok.AccessToken)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if claims.UserID != "d1" || claims.Role != "doctor" || claims.SessionID != tok.SessionID {
		t.Errorf("claims = %+v", claims)
	}

	if _, err := svc.ValidateSession(ctx, tok.SessionID); err != nil {
		t.Fatalf("ValidateSession() error = %v", err)
	}
	if err := svc.Logout(ctx, tok.SessionID); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	if _, err := svc.ValidateSession(ctx, tok.SessionID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("ValidateSession() after logout error = %v, want ErrSessionNotFound", err)
	}
	if err := svc.Logout(ctx, "unknown"); err != nil {
		t.Errorf("Logout(unknown) error = %v", err)
	}
}

func TestLogin_LocksAfterRepeatedFailures(t *testing.T) {
	svc, st, _ := newTestAuth(t)
	ctx := context.Background()

	hash, _ := svc.hasher.Hash("admin123")
	a := schema.Admin{ID: "a1", Name: "System Administrator"}
	a.Email = "admin@medtrack.com"
	a.PasswordHash = hash
	if err := st.Admins.Create(ctx, a); err != nil {
		t.Fatal(err)
	}

	for range maxLoginAttempts {
		if _, err := svc.Login(ctx, LoginRequest{Role: "admin", Email: a.Email, Password: "bad"}); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("Login() error = %v", err)
		}
	}
	if _, err := svc.Login(ctx, LoginRequest{Role: "admin", Email: a.Email, Password: "admin123"}); !errors.Is(err, ErrAccountLocked) {
		t.Errorf("Login() after lockout error = %v, want ErrAccountLocked", err)
	}
}

func TestValidateSession_Expired(t *testing.T) {
	svc, st, _ := newTestAuth(t)
	ctx := context.Background()
	sess := schema.Session{ID: "s1", UserID: "p1", Role: "patient", ExpiresAt: time.Now().Add(-time.Minute)}
	if err := st.Sessions.Create(ctx, sess); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.ValidateSession(ctx, "s1"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("ValidateSession() error = %v, want ErrSessionNotFound", err)
	}
}

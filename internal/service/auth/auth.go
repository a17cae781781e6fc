package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/Alijeyrad/medtrack_backend/internal/schema"
	"github.com/Alijeyrad/medtrack_backend/internal/store"
	"github.com/Alijeyrad/medtrack_backend/pkg/authorize"
	pasetotoken "github.com/Alijeyrad/medtrack_backend/pkg/paseto"
	"github.com/Alijeyrad/medtrack_backend/pkg/sms"
	"github.com/Alijeyrad/medtrack_backend/pkg/util/password"
)

const minPasswordLen = 6

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type RegisterRequest struct {
	Name     string
	Email    string
	Phone    string // optional
	Password string
	Age      int
	Gender   string
}

type LoginRequest struct {
	Role     string
	Email    string
	Password string
}

type AuthTokens struct {
	AccessToken string
	SessionID   string
	ExpiresIn   int64 // seconds until the access token expires
	User        schema.Profile
}

// ---------------------------------------------------------------------------
// Service interface
// ---------------------------------------------------------------------------

type Service interface {
	RegisterPatient(ctx context.Context, req RegisterRequest) (schema.Patient, error)
	Login(ctx context.Context, req LoginRequest) (*AuthTokens, error)
	Logout(ctx context.Context, sessionID string) error
	// ValidateSession reports ErrSessionNotFound for revoked, expired or
	// unknown sessions.
	ValidateSession(ctx context.Context, sessionID string) (schema.Session, error)
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type Options struct {
	SessionTTL  time.Duration
	PhoneRegion string
	Throttle    Throttle
}

type authService struct {
	store    *store.Store
	hasher   *password.Hasher
	paseto   *pasetotoken.Manager
	throttle Throttle
	ttl      time.Duration
	region   string
	now      func() time.Time
}

func New(st *store.Store, hasher *password.Hasher, pm *pasetotoken.Manager, opts Options) Service {
	if opts.Throttle == nil {
		opts.Throttle = nopThrottle{}
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 12 * time.Hour
	}
	return &authService{
		store:    st,
		hasher:   hasher,
		paseto:   pm,
		throttle: opts.Throttle,
		ttl:      opts.SessionTTL,
		region:   opts.PhoneRegion,
		now:      time.Now,
	}
}

// ---------------------------------------------------------------------------
// RegisterPatient
// ---------------------------------------------------------------------------

func (s *authService) RegisterPatient(ctx context.Context, req RegisterRequest) (schema.Patient, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return schema.Patient{}, ErrInvalidName
	}
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return schema.Patient{}, err
	}
	if len(req.Password) < minPasswordLen {
		return schema.Patient{}, ErrPasswordTooShort
	}

	var phone string
	if strings.TrimSpace(req.Phone) != "" {
		phone, err = sms.Normalize(req.Phone, s.region)
		if err != nil {
			return schema.Patient{}, ErrInvalidPhone
		}
	}

	existing, err := s.store.Patients.ListBy(ctx, store.ByEmail, email)
	if err != nil {
		return schema.Patient{}, fmt.Errorf("check email: %w", err)
	}
	if len(existing) > 0 {
		return schema.Patient{}, ErrEmailAlreadyExists
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return schema.Patient{}, fmt.Errorf("hash password: %w", err)
	}

	p := schema.Patient{
		ID:     schema.NewID(),
		Name:   name,
		Age:    req.Age,
		Gender: strings.TrimSpace(req.Gender),
		Account: schema.Account{
			Email:        email,
			Phone:        phone,
			PasswordHash: hash,
		},
	}
	p.Touch(s.now().UTC())
	if err := s.store.Patients.Create(ctx, p); err != nil {
		return schema.Patient{}, fmt.Errorf("create patient: %w", err)
	}
	return p, nil
}

// ---------------------------------------------------------------------------
// Login
// ---------------------------------------------------------------------------

func (s *authService) Login(ctx context.Context, req LoginRequest) (*AuthTokens, error) {
	role := authorize.Role(req.Role)
	if _, ok := authorize.KnownRoles[role]; !ok {
		return nil, ErrUnknownRole
	}
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	throttleKey := string(role) + ":" + email
	locked, err := s.throttle.Locked(ctx, throttleKey)
	if err != nil {
		slog.WarnContext(ctx, "login throttle unavailable", "error", err)
	}
	if locked {
		return nil, ErrAccountLocked
	}

	acct, profile, err := s.findAccount(ctx, role, email)
	if err != nil {
		return nil, err
	}
	if acct.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}
	if err := s.hasher.Verify(acct.PasswordHash, req.Password); err != nil {
		if ferr := s.throttle.Fail(ctx, throttleKey); ferr != nil {
			slog.WarnContext(ctx, "record failed login", "error", ferr)
		}
		return nil, ErrInvalidCredentials
	}
	if err := s.throttle.Reset(ctx, throttleKey); err != nil {
		slog.WarnContext(ctx, "reset login throttle", "error", err)
	}

	return s.createSession(ctx, profile)
}

func (s *authService) findAccount(ctx context.Context, role authorize.Role, email string) (schema.Account, schema.Profile, error) {
	var (
		acct    schema.Account
		profile schema.Profile
		found   bool
	)
	switch role {
	case authorize.RolePatient:
		rows, err := s.store.Patients.ListBy(ctx, store.ByEmail, email)
		if err != nil {
			return acct, profile, fmt.Errorf("find patient: %w", err)
		}
		if found = len(rows) > 0; found {
			acct, profile = rows[0].Account, rows[0].Profile()
		}
	case authorize.RoleDoctor:
		rows, err := s.store.Doctors.ListBy(ctx, store.ByEmail, email)
		if err != nil {
			return acct, profile, fmt.Errorf("find doctor: %w", err)
		}
		if found = len(rows) > 0; found {
			acct, profile = rows[0].Account, rows[0].Profile()
		}
	case authorize.RoleAdmin:
		rows, err := s.store.Admins.ListBy(ctx, store.ByEmail, email)
		if err != nil {
			return acct, profile, fmt.Errorf("find admin: %w", err)
		}
		if found = len(rows) > 0; found {
			acct, profile = rows[0].Account, rows[0].Profile()
		}
	}
	if !found {
		return acct, profile, ErrInvalidCredentials
	}
	return acct, profile, nil
}

// ---------------------------------------------------------------------------
// Sessions
// ---------------------------------------------------------------------------

func (s *authService) createSession(ctx context.Context, p schema.Profile) (*AuthTokens, error) {
	now := s.now().UTC()
	sess := schema.Session{
		ID:        schema.NewID(),
		UserID:    p.ID,
		Role:      p.Role,
		ExpiresAt: now.Add(s.ttl),
	}
	sess.Touch(now)
	if err := s.store.Sessions.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}

	access, err := s.paseto.IssueAccess(p.ID, p.Role, sess.ID)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}

	return &AuthTokens{
		AccessToken: access,
		SessionID:   sess.ID,
		ExpiresIn:   int64(s.paseto.AccessTTL().Seconds()),
		User:        p,
	}, nil
}

func (s *authService) Logout(ctx context.Context, sessionID string) error {
	now := s.now().UTC()
	_, err := s.store.Sessions.Update(ctx, sessionID, func(sess *schema.Session) error {
		if sess.Revoked {
			return store.ErrNoChange
		}
		sess.Revoked = true
		sess.Touch(now)
		return nil
	})
	if errors.Is(err, store.ErrNotFound) {
		// Already gone; not an error from the client's perspective.
		slog.DebugContext(ctx, "logout: session not found", "session_id", sessionID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

func (s *authService) ValidateSession(ctx context.Context, sessionID string) (schema.Session, error) {
	sess, err := s.store.Sessions.Get(ctx, sessionID)
	if errors.Is(err, store.ErrNotFound) {
		return schema.Session{}, ErrSessionNotFound
	}
	if err != nil {
		return schema.Session{}, fmt.Errorf("load session: %w", err)
	}
	if !sess.Valid(s.now()) {
		return schema.Session{}, ErrSessionNotFound
	}
	return sess, nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func normalizeEmail(raw string) (string, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(raw))
	if err != nil || addr.Name != "" {
		return "", ErrInvalidEmail
	}
	return strings.ToLower(addr.Address), nil
}

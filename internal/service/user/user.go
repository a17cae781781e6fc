package user

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/Alijeyrad/medtrack_backend/internal/schema"
	"github.com/Alijeyrad/medtrack_backend/internal/store"
	"github.com/Alijeyrad/medtrack_backend/pkg/authorize"
	"github.com/Alijeyrad/medtrack_backend/pkg/util/password"
)

type Service interface {
	Me(ctx context.Context, userID, role string) (schema.Profile, error)
	// ListDoctors returns the directory, filtered by department when set.
	ListDoctors(ctx context.Context, department string) ([]schema.Profile, error)
	Departments(ctx context.Context) ([]string, error)
	ListPatients(ctx context.Context) ([]schema.Profile, error)
	// Seed writes the demo accounts and the doctor directory. Existing
	// records are left untouched.
	Seed(ctx context.Context) error
}

type UserService struct {
	store  *store.Store
	hasher *password.Hasher
	now    func() time.Time
}

func New(st *store.Store, hasher *password.Hasher) *UserService {
	return &UserService{store: st, hasher: hasher, now: time.Now}
}

func (s *UserService) Me(ctx context.Context, userID, role string) (schema.Profile, error) {
	var (
		p   schema.Profile
		err error
	)
	switch authorize.Role(role) {
	case authorize.RolePatient:
		var rec schema.Patient
		if rec, err = s.store.Patients.Get(ctx, userID); err == nil {
			p = rec.Profile()
		}
	case authorize.RoleDoctor:
		var rec schema.Doctor
		if rec, err = s.store.Doctors.Get(ctx, userID); err == nil {
			p = rec.Profile()
		}
	case authorize.RoleAdmin:
		var rec schema.Admin
		if rec, err = s.store.Admins.Get(ctx, userID); err == nil {
			p = rec.Profile()
		}
	default:
		return p, ErrUnknownRole
	}
	if errors.Is(err, store.ErrNotFound) {
		return p, ErrUserNotFound
	}
	if err != nil {
		return p, fmt.Errorf("load profile: %w", err)
	}
	return p, nil
}

func (s *UserService) ListDoctors(ctx context.Context, department string) ([]schema.Profile, error) {
	var (
		docs []schema.Doctor
		err  error
	)
	if department == "" {
		docs, err = s.store.Doctors.Scan(ctx)
	} else {
		docs, err = s.store.Doctors.ListBy(ctx, store.ByDepartment, department)
	}
	if err != nil {
		return nil, fmt.Errorf("list doctors: %w", err)
	}
	out := make([]schema.Profile, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.Profile())
	}
	return out, nil
}

func (s *UserService) Departments(ctx context.Context) ([]string, error) {
	docs, err := s.store.Doctors.Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}
	out := make([]string, 0, len(docs))
	for _, d := range docs {
		if d.Department != "" {
			out = append(out, d.Department)
		}
	}
	slices.Sort(out)
	return slices.Compact(out), nil
}

func (s *UserService) ListPatients(ctx context.Context) ([]schema.Profile, error) {
	rows, err := s.store.Patients.Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}
	out := make([]schema.Profile, 0, len(rows))
	for _, p := range rows {
		out = append(out, p.Profile())
	}
	return out, nil
}

func (s *UserService) Seed(ctx context.Context) error {
	now := s.now().UTC()
	creds := make(map[string]schema.Account, len(DemoAccounts))
	for _, a := range DemoAccounts {
		hash, err := s.hasher.Hash(a.Password)
		if err != nil {
			return fmt.Errorf("seed %s: %w", a.Email, err)
		}
		creds[a.Role] = schema.Account{Email: a.Email, PasswordHash: hash}
	}

	admin := seedAdmin
	admin.Account = creds["admin"]
	admin.Touch(now)
	if err := create(ctx, s.store.Admins, admin); err != nil {
		return err
	}

	patient := seedPatient
	patient.Account = creds["patient"]
	patient.Touch(now)
	if err := create(ctx, s.store.Patients, patient); err != nil {
		return err
	}

	for i, d := range seedDoctors {
		if i == 0 {
			d.Account = creds["doctor"]
		}
		d.Touch(now)
		if err := create(ctx, s.store.Doctors, d); err != nil {
			return err
		}
	}
	return nil
}

func create[T store.Record](ctx context.Context, t *store.Table[T], rec T) error {
	if err := t.Create(ctx, rec); err != nil && !errors.Is(err, store.ErrConflict) {
		return fmt.Errorf("seed %s %s: %w", t.Name(), rec.RecordID(), err)
	}
	return nil
}

package capacity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Alijeyrad/medtrack_backend/internal/schema"
	"github.com/Alijeyrad/medtrack_backend/internal/store"
)

// DefaultWards is the bed layout written by the seed command.
var DefaultWards = []schema.Ward{
	{Name: "ICU", Total: 20, Occupied: 16, Status: "High Load"},
	{Name: "General Ward", Total: 100, Occupied: 45, Status: "Normal"},
	{Name: "Emergency", Total: 15, Occupied: 5, Status: "Normal"},
	{Name: "Operation Theatre", Total: 8, Occupied: 7, Status: "Critical"},
}

type UpdateRequest struct {
	Ward     string
	Occupied int
	// Status is kept as is when empty.
	Status string
}

type Service interface {
	List(ctx context.Context) ([]schema.Ward, error)
	Update(ctx context.Context, req UpdateRequest) (schema.Ward, error)
	Seed(ctx context.Context) error
}

type capacityService struct {
	store *store.Store
	now   func() time.Time
}

func New(st *store.Store) Service {
	return &capacityService{store: st, now: time.Now}
}

func (s *capacityService) List(ctx context.Context) ([]schema.Ward, error) {
	out, err := s.store.Wards.Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list wards: %w", err)
	}
	return out, nil
}

func (s *capacityService) Update(ctx context.Context, req UpdateRequest) (schema.Ward, error) {
	now := s.now().UTC()
	w, err := s.store.Wards.Update(ctx, req.Ward, func(w *schema.Ward) error {
		if req.Occupied < 0 || req.Occupied > w.Total {
			return ErrInvalidOccupancy
		}
		w.Occupied = req.Occupied
		if req.Status != "" {
			w.Status = req.Status
		}
		w.Touch(now)
		return nil
	})
	switch {
	case errors.Is(err, store.ErrNotFound):
		return schema.Ward{}, ErrWardNotFound
	case errors.Is(err, ErrInvalidOccupancy):
		return schema.Ward{}, err
	case err != nil:
		return schema.Ward{}, fmt.Errorf("update ward: %w", err)
	}
	return w, nil
}

func (s *capacityService) Seed(ctx context.Context) error {
	now := s.now().UTC()
	for _, w := range DefaultWards {
		w.Touch(now)
		if err := s.store.Wards.Create(ctx, w); err != nil && !errors.Is(err, store.ErrConflict) {
			return fmt.Errorf("seed wards: %w", err)
		}
	}
	return nil
}

// Package mood records a patient's daily mood score.
package mood

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Alijeyrad/medtrack_backend/internal/schema"
	"github.com/Alijeyrad/medtrack_backend/internal/store"
)

const (
	MinScore = 1
	MaxScore = 5

	// HistorySize is how many entries the history chart shows.
	HistorySize = 7
)

type Service interface {
	Log(ctx context.Context, patientID string, score int, note string) (schema.MoodEntry, error)
	// History returns the latest entries, oldest first.
	History(ctx context.Context, patientID string) ([]schema.MoodEntry, error)
}

type moodService struct {
	store *store.Store
	now   func() time.Time
}

func New(st *store.Store) Service {
	return &moodService{store: st, now: time.Now}
}

func (s *moodService) Log(ctx context.Context, patientID string, score int, note string) (schema.MoodEntry, error) {
	if score < MinScore || score > MaxScore {
		return schema.MoodEntry{}, ErrInvalidScore
	}
	e := schema.MoodEntry{
		ID:        schema.NewID(),
		PatientID: patientID,
		Score:     score,
		Note:      strings.TrimSpace(note),
	}
	e.Touch(s.now().UTC())
	if err := s.store.Moods.Create(ctx, e); err != nil {
		return schema.MoodEntry{}, fmt.Errorf("log mood: %w", err)
	}
	return e, nil
}

// IDs are time ordered, so the store's id order is insertion order.
func (s *moodService) History(ctx context.Context, patientID string) ([]schema.MoodEntry, error) {
	all, err := s.store.Moods.ListBy(ctx, store.ByPatientID, patientID)
	if err != nil {
		return nil, fmt.Errorf("mood history: %w", err)
	}
	if len(all) > HistorySize {
		all = all[len(all)-HistorySize:]
	}
	return all, nil
}

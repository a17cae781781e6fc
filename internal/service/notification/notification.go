// Package notification is the in-app inbox written by the notifier's
// in-app channel.
package notification

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/Alijeyrad/medtrack_backend/internal/schema"
	"github.com/Alijeyrad/medtrack_backend/internal/store"
)

type ListRequest struct {
	UserID     string
	UnreadOnly bool
	Page       int
	PerPage    int
}

type Service interface {
	// List returns the inbox newest first.
	List(ctx context.Context, req ListRequest) ([]schema.Notification, error)
	MarkRead(ctx context.Context, notifID, userID string) (schema.Notification, error)
	// MarkAllRead returns how many notifications changed.
	MarkAllRead(ctx context.Context, userID string) (int, error)
}

type notificationService struct {
	store *store.Store
	now   func() time.Time
}

func New(st *store.Store) Service {
	return &notificationService{store: st, now: time.Now}
}

func (s *notificationService) List(ctx context.Context, req ListRequest) ([]schema.Notification, error) {
	page, perPage := req.Page, req.PerPage
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	all, err := s.store.Notifications.ListBy(ctx, store.ByUserID, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	slices.Reverse(all)

	if req.UnreadOnly {
		all = slices.DeleteFunc(all, func(n schema.Notification) bool { return n.Read })
	}

	offset := (page - 1) * perPage
	if offset >= len(all) {
		return []schema.Notification{}, nil
	}
	return all[offset:min(offset+perPage, len(all))], nil
}

func (s *notificationService) MarkRead(ctx context.Context, notifID, userID string) (schema.Notification, error) {
	now := s.now().UTC()
	n, err := s.store.Notifications.Update(ctx, notifID, func(n *schema.Notification) error {
		// Someone else's notification reads as missing.
		if n.UserID != userID {
			return store.ErrNotFound
		}
		if n.Read {
			return store.ErrNoChange
		}
		n.Read = true
		n.Touch(now)
		return nil
	})
	if errors.Is(err, store.ErrNotFound) {
		return schema.Notification{}, ErrNotFound
	}
	if err != nil {
		return schema.Notification{}, fmt.Errorf("mark notification read: %w", err)
	}
	return n, nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID string) (int, error) {
	all, err := s.store.Notifications.ListBy(ctx, store.ByUserID, userID)
	if err != nil {
		return 0, fmt.Errorf("mark all read: %w", err)
	}
	changed := 0
	for _, n := range all {
		if n.Read {
			continue
		}
		if _, err := s.MarkRead(ctx, n.ID, userID); err != nil {
			return changed, err
		}
		changed++
	}
	return changed, nil
}

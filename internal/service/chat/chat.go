// Package chat is the per-department question board between patients and
// doctors.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Alijeyrad/medtrack_backend/internal/notifier"
	"github.com/Alijeyrad/medtrack_backend/internal/schema"
	"github.com/Alijeyrad/medtrack_backend/internal/store"
	"github.com/Alijeyrad/medtrack_backend/pkg/authorize"
)

type SendRequest struct {
	SenderID   string
	SenderName string
	Role       string
	Department string
	Message    string
}

type ReplyRequest struct {
	ChatID     string
	ActorRole  string
	DoctorName string
	Reply      string
}

type Service interface {
	Send(ctx context.Context, req SendRequest) (schema.ChatMessage, error)
	// List returns one department's thread, or every thread when dept is empty.
	List(ctx context.Context, dept string) ([]schema.ChatMessage, error)
	Reply(ctx context.Context, req ReplyRequest) (schema.ChatMessage, error)
}

type chatService struct {
	store  *store.Store
	notify notifier.Notifier
	now    func() time.Time
}

func New(st *store.Store, n notifier.Notifier) Service {
	return &chatService{store: st, notify: n, now: time.Now}
}

func (s *chatService) Send(ctx context.Context, req SendRequest) (schema.ChatMessage, error) {
	msg := strings.TrimSpace(req.Message)
	if msg == "" {
		return schema.ChatMessage{}, ErrEmptyMessage
	}
	docs, err := s.store.Doctors.ListBy(ctx, store.ByDepartment, req.Department)
	if err != nil {
		return schema.ChatMessage{}, fmt.Errorf("send chat: %w", err)
	}
	if len(docs) == 0 {
		return schema.ChatMessage{}, ErrUnknownDepartment
	}

	m := schema.ChatMessage{
		ID:         schema.NewID(),
		SenderID:   req.SenderID,
		SenderName: req.SenderName,
		Role:       req.Role,
		Department: req.Department,
		Message:    msg,
	}
	m.Touch(s.now().UTC())
	if err := s.store.Chats.Create(ctx, m); err != nil {
		return schema.ChatMessage{}, fmt.Errorf("send chat: %w", err)
	}
	return m, nil
}

func (s *chatService) List(ctx context.Context, dept string) ([]schema.ChatMessage, error) {
	var (
		out []schema.ChatMessage
		err error
	)
	if dept == "" {
		out, err = s.store.Chats.Scan(ctx)
	} else {
		out, err = s.store.Chats.ListBy(ctx, store.ByDepartment, dept)
	}
	if err != nil {
		return nil, fmt.Errorf("list chat: %w", err)
	}
	return out, nil
}

func (s *chatService) Reply(ctx context.Context, req ReplyRequest) (schema.ChatMessage, error) {
	if authorize.Role(req.ActorRole) != authorize.RoleDoctor {
		return schema.ChatMessage{}, ErrReplyForbidden
	}
	reply := strings.TrimSpace(req.Reply)
	if reply == "" {
		return schema.ChatMessage{}, ErrEmptyMessage
	}

	now := s.now().UTC()
	m, err := s.store.Chats.Update(ctx, req.ChatID, func(m *schema.ChatMessage) error {
		m.Reply = reply
		m.ReplyAuthor = req.DoctorName
		m.Touch(now)
		return nil
	})
	if errors.Is(err, store.ErrNotFound) {
		return schema.ChatMessage{}, ErrNotFound
	}
	if err != nil {
		return schema.ChatMessage{}, fmt.Errorf("reply chat: %w", err)
	}

	if authorize.Role(m.Role) == authorize.RolePatient {
		s.notify.Notify(ctx, notifier.Message{
			Kind:      notifier.KindChatReply,
			Subject:   "MedTrack - New reply from " + m.Department,
			Body:      fmt.Sprintf("%s replied to your question: %s", req.DoctorName, reply),
			Recipient: s.recipient(ctx, m.SenderID),
			Data:      map[string]string{"chat_id": m.ID, "department": m.Department},
		})
	}
	return m, nil
}

func (s *chatService) recipient(ctx context.Context, patientID string) notifier.Recipient {
	r := notifier.Recipient{UserID: patientID}
	p, err := s.store.Patients.Get(ctx, patientID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			slog.WarnContext(ctx, "patient lookup for notification failed", "patient_id", patientID, "error", err)
		}
		return r
	}
	r.Name, r.Email, r.Phone = p.Name, p.Email, p.Phone
	return r
}

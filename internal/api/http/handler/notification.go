package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/medtrack_backend/internal/service/notification"
)

type NotificationHandler struct {
	svc notification.Service
}

func NewNotificationHandler(svc notification.Service) *NotificationHandler {
	return &NotificationHandler{svc: svc}
}

func mapNotificationError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, notification.ErrNotFound):
		return notFound(c, err.Error())
	default:
		return internalError(c, err)
	}
}

// GET /notifications
func (h *NotificationHandler) List(c fiber.Ctx) error {
	id, _, found := actor(c)
	if !found {
		return unauthorized(c)
	}

	var q struct {
		UnreadOnly bool `query:"unread_only"`
		Page       int  `query:"page"`
		PerPage    int  `query:"per_page"`
	}
	if err := c.Bind().Query(&q); err != nil {
		return badRequest(c, "invalid query")
	}

	notifs, err := h.svc.List(c.Context(), notification.ListRequest{
		UserID:     id,
		UnreadOnly: q.UnreadOnly,
		Page:       q.Page,
		PerPage:    q.PerPage,
	})
	if err != nil {
		return mapNotificationError(c, err)
	}
	return ok(c, notifs)
}

// PATCH /notifications/:id/read
func (h *NotificationHandler) MarkRead(c fiber.Ctx) error {
	id, _, found := actor(c)
	if !found {
		return unauthorized(c)
	}
	n, err := h.svc.MarkRead(c.Context(), c.Params("id"), id)
	if err != nil {
		return mapNotificationError(c, err)
	}
	return ok(c, n)
}

// PATCH /notifications/read-all
func (h *NotificationHandler) MarkAllRead(c fiber.Ctx) error {
	id, _, found := actor(c)
	if !found {
		return unauthorized(c)
	}
	changed, err := h.svc.MarkAllRead(c.Context(), id)
	if err != nil {
		return mapNotificationError(c, err)
	}
	return ok(c, fiber.Map{"updated": changed})
}

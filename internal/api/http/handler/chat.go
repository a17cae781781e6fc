package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/medtrack_backend/internal/service/chat"
	"github.com/Alijeyrad/medtrack_backend/internal/service/user"
)

type ChatHandler struct {
	svc   chat.Service
	users user.Service
}

func NewChatHandler(svc chat.Service, users user.Service) *ChatHandler {
	return &ChatHandler{svc: svc, users: users}
}

func mapChatError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, chat.ErrNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, chat.ErrEmptyMessage), errors.Is(err, chat.ErrUnknownDepartment):
		return badRequest(c, err.Error())
	case errors.Is(err, chat.ErrReplyForbidden):
		return forbiddenMsg(c, err.Error())
	default:
		return internalError(c, err)
	}
}

// POST /chat
func (h *ChatHandler) Send(c fiber.Ctx) error {
	id, role, found := actor(c)
	if !found {
		return unauthorized(c)
	}

	var body struct {
		Department string `json:"department" validate:"required"`
		Message    string `json:"message" validate:"required,max=2000"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, bindError(err))
	}

	me, err := h.users.Me(c.Context(), id, role)
	if err != nil {
		return mapUserError(c, err)
	}

	m, err := h.svc.Send(c.Context(), chat.SendRequest{
		SenderID:   id,
		SenderName: me.Name,
		Role:       role,
		Department: body.Department,
		Message:    body.Message,
	})
	if err != nil {
		return mapChatError(c, err)
	}
	return created(c, m)
}

// GET /chat?department=
func (h *ChatHandler) List(c fiber.Ctx) error {
	msgs, err := h.svc.List(c.Context(), c.Query("department"))
	if err != nil {
		return mapChatError(c, err)
	}
	return ok(c, msgs)
}

// POST /chat/:id/reply
func (h *ChatHandler) Reply(c fiber.Ctx) error {
	id, role, found := actor(c)
	if !found {
		return unauthorized(c)
	}

	var body struct {
		Reply string `json:"reply" validate:"required,max=2000"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, bindError(err))
	}

	me, err := h.users.Me(c.Context(), id, role)
	if err != nil {
		return mapUserError(c, err)
	}

	m, err := h.svc.Reply(c.Context(), chat.ReplyRequest{
		ChatID:     c.Params("id"),
		ActorRole:  role,
		DoctorName: me.Name,
		Reply:      body.Reply,
	})
	if err != nil {
		return mapChatError(c, err)
	}
	return ok(c, m)
}

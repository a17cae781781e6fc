package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/medtrack_backend/internal/service/mood"
)

type MoodHandler struct {
	svc mood.Service
}

func NewMoodHandler(svc mood.Service) *MoodHandler {
	return &MoodHandler{svc: svc}
}

// POST /mood
func (h *MoodHandler) Log(c fiber.Ctx) error {
	id, _, found := actor(c)
	if !found {
		return unauthorized(c)
	}

	var body struct {
		Score int    `json:"score" validate:"required,min=1,max=5"`
		Note  string `json:"note" validate:"max=500"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, bindError(err))
	}

	e, err := h.svc.Log(c.Context(), id, body.Score, body.Note)
	if errors.Is(err, mood.ErrInvalidScore) {
		return badRequest(c, err.Error())
	}
	if err != nil {
		return internalError(c, err)
	}
	return created(c, e)
}

// GET /mood/history
func (h *MoodHandler) History(c fiber.Ctx) error {
	id, _, found := actor(c)
	if !found {
		return unauthorized(c)
	}
	entries, err := h.svc.History(c.Context(), id)
	if err != nil {
		return internalError(c, err)
	}
	return ok(c, entries)
}

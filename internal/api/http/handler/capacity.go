package handler

import (
	"errors"
	"net/url"

	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/medtrack_backend/internal/service/capacity"
)

type CapacityHandler struct {
	svc capacity.Service
}

func NewCapacityHandler(svc capacity.Service) *CapacityHandler {
	return &CapacityHandler{svc: svc}
}

func mapCapacityError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, capacity.ErrWardNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, capacity.ErrInvalidOccupancy):
		return badRequest(c, err.Error())
	default:
		return internalError(c, err)
	}
}

// GET /capacity
func (h *CapacityHandler) List(c fiber.Ctx) error {
	wards, err := h.svc.List(c.Context())
	if err != nil {
		return mapCapacityError(c, err)
	}
	return ok(c, wards)
}

// PUT /capacity/:ward
func (h *CapacityHandler) Update(c fiber.Ctx) error {
	ward, err := url.PathUnescape(c.Params("ward"))
	if err != nil {
		return badRequest(c, "invalid ward")
	}

	var body struct {
		Occupied *int   `json:"occupied" validate:"required"`
		Status   string `json:"status" validate:"max=50"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, bindError(err))
	}

	w, err := h.svc.Update(c.Context(), capacity.UpdateRequest{
		Ward:     ward,
		Occupied: *body.Occupied,
		Status:   body.Status,
	})
	if err != nil {
		return mapCapacityError(c, err)
	}
	return ok(c, w)
}

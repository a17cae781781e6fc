package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/medtrack_backend/internal/service/user"
)

type UserHandler struct {
	svc user.Service
}

func NewUserHandler(svc user.Service) *UserHandler {
	return &UserHandler{svc: svc}
}

func mapUserError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, user.ErrUserNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, user.ErrUnknownRole):
		return forbidden(c)
	default:
		return internalError(c, err)
	}
}

// GET /users/me
func (h *UserHandler) Me(c fiber.Ctx) error {
	id, role, found := actor(c)
	if !found {
		return unauthorized(c)
	}
	p, err := h.svc.Me(c.Context(), id, role)
	if err != nil {
		return mapUserError(c, err)
	}
	return ok(c, p)
}

// GET /doctors
func (h *UserHandler) ListDoctors(c fiber.Ctx) error {
	docs, err := h.svc.ListDoctors(c.Context(), c.Query("department"))
	if err != nil {
		return mapUserError(c, err)
	}
	return ok(c, docs)
}

// GET /doctors/departments
func (h *UserHandler) Departments(c fiber.Ctx) error {
	depts, err := h.svc.Departments(c.Context())
	if err != nil {
		return mapUserError(c, err)
	}
	return ok(c, depts)
}

// GET /patients
func (h *UserHandler) ListPatients(c fiber.Ctx) error {
	pats, err := h.svc.ListPatients(c.Context())
	if err != nil {
		return mapUserError(c, err)
	}
	return ok(c, pats)
}

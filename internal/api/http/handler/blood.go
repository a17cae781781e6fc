package handler

import (
	"errors"
	"net/url"

	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/medtrack_backend/internal/service/bloodbank"
	"github.com/Alijeyrad/medtrack_backend/internal/service/user"
)

type BloodHandler struct {
	svc   bloodbank.Service
	users user.Service
}

func NewBloodHandler(svc bloodbank.Service, users user.Service) *BloodHandler {
	return &BloodHandler{svc: svc, users: users}
}

func mapBloodError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, bloodbank.ErrUnknownGroup),
		errors.Is(err, bloodbank.ErrUnknownAction),
		errors.Is(err, bloodbank.ErrInvalidUnits):
		return badRequest(c, err.Error())
	case errors.Is(err, bloodbank.ErrDonationNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, bloodbank.ErrDonationNotPending):
		return conflict(c, err.Error())
	default:
		return internalError(c, err)
	}
}

// GET /blood/stock
func (h *BloodHandler) Stock(c fiber.Ctx) error {
	rows, err := h.svc.Stock(c.Context())
	if err != nil {
		return mapBloodError(c, err)
	}
	return ok(c, rows)
}

// GET /blood/alerts
func (h *BloodHandler) Alerts(c fiber.Ctx) error {
	rows, err := h.svc.LowStockAlerts(c.Context())
	if err != nil {
		return mapBloodError(c, err)
	}
	return ok(c, rows)
}

// POST /blood/stock/:group/:action
// Groups carry a sign, so clients send them escaped (A%2B).
func (h *BloodHandler) Adjust(c fiber.Ctx) error {
	group, err := url.PathUnescape(c.Params("group"))
	if err != nil {
		return badRequest(c, "invalid blood group")
	}
	row, err := h.svc.Adjust(c.Context(), group, c.Params("action"))
	if err != nil {
		return mapBloodError(c, err)
	}
	return ok(c, row)
}

// POST /blood/donations
func (h *BloodHandler) Donate(c fiber.Ctx) error {
	id, role, found := actor(c)
	if !found {
		return unauthorized(c)
	}

	var body struct {
		Group string `json:"blood_group" validate:"required"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, bindError(err))
	}

	me, err := h.users.Me(c.Context(), id, role)
	if err != nil {
		return mapUserError(c, err)
	}

	d, err := h.svc.SubmitDonation(c.Context(), bloodbank.DonationRequest{
		DonorID:   id,
		DonorName: me.Name,
		Group:     body.Group,
	})
	if err != nil {
		return mapBloodError(c, err)
	}
	return created(c, d)
}

// GET /blood/donations/pending
func (h *BloodHandler) PendingDonations(c fiber.Ctx) error {
	rows, err := h.svc.PendingDonations(c.Context())
	if err != nil {
		return mapBloodError(c, err)
	}
	return ok(c, rows)
}

// POST /blood/donations/:id/verify
func (h *BloodHandler) VerifyDonation(c fiber.Ctx) error {
	d, err := h.svc.VerifyDonation(c.Context(), c.Params("id"))
	if err != nil {
		return mapBloodError(c, err)
	}
	return ok(c, d)
}

// POST /blood/requests
func (h *BloodHandler) Request(c fiber.Ctx) error {
	id, _, found := actor(c)
	if !found {
		return unauthorized(c)
	}

	var body struct {
		Group string `json:"blood_group" validate:"required"`
		Units int    `json:"units" validate:"required,gt=0"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, bindError(err))
	}

	req, err := h.svc.RequestBlood(c.Context(), bloodbank.BloodRequestInput{
		DoctorID: id,
		Group:    body.Group,
		Units:    body.Units,
	})
	if err != nil {
		return mapBloodError(c, err)
	}
	return created(c, req)
}

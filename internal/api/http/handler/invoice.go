package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/medtrack_backend/internal/service/invoice"
)

type InvoiceHandler struct {
	svc invoice.Service
}

func NewInvoiceHandler(svc invoice.Service) *InvoiceHandler {
	return &InvoiceHandler{svc: svc}
}

func mapInvoiceError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, invoice.ErrNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, invoice.ErrForbidden):
		return forbidden(c)
	case errors.Is(err, invoice.ErrNotPayable), errors.Is(err, invoice.ErrAlreadyIssued):
		return conflict(c, err.Error())
	case errors.Is(err, invoice.ErrPaymentFailed):
		return paymentRequired(c, err.Error())
	default:
		return internalError(c, err)
	}
}

// GET /invoices
func (h *InvoiceHandler) List(c fiber.Ctx) error {
	id, _, found := actor(c)
	if !found {
		return unauthorized(c)
	}
	invs, err := h.svc.ListForPatient(c.Context(), id)
	if err != nil {
		return mapInvoiceError(c, err)
	}
	return ok(c, invs)
}

// POST /invoices/:id/pay
func (h *InvoiceHandler) Pay(c fiber.Ctx) error {
	id, _, found := actor(c)
	if !found {
		return unauthorized(c)
	}

	var body struct {
		Method string `json:"payment_method"`
	}
	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&body); err != nil {
			return badRequest(c, bindError(err))
		}
	}

	inv, err := h.svc.Pay(c.Context(), invoice.PayRequest{
		InvoiceID: c.Params("id"),
		PatientID: id,
		Method:    body.Method,
	})
	if err != nil {
		return mapInvoiceError(c, err)
	}
	return ok(c, inv)
}

// POST /invoices/:id/claim
func (h *InvoiceHandler) Claim(c fiber.Ctx) error {
	id, _, found := actor(c)
	if !found {
		return unauthorized(c)
	}
	inv, err := h.svc.Claim(c.Context(), c.Params("id"), id)
	if err != nil {
		return mapInvoiceError(c, err)
	}
	return ok(c, inv)
}

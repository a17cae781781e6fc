package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/medtrack_backend/internal/api/http/handler"
	"github.com/Alijeyrad/medtrack_backend/pkg/authorize"
)

func (r *Router) registerInvoiceRoutes(
	api fiber.Router,
	h *handler.InvoiceHandler,
	authRequired fiber.Handler,
	requirePerm permFunc,
) {
	invoices := api.Group("/invoices", authRequired)

	invoices.Get("/", requirePerm(authorize.ResourceInvoice, authorize.ActionList), h.List)
	invoices.Post("/:id/pay", requirePerm(authorize.ResourceInvoice, authorize.ActionPay), h.Pay)
	invoices.Post("/:id/claim", requirePerm(authorize.ResourceInvoice, authorize.ActionClaim), h.Claim)
}

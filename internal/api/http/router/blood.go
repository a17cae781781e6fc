package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/medtrack_backend/internal/api/http/handler"
	"github.com/Alijeyrad/medtrack_backend/pkg/authorize"
)

func (r *Router) registerBloodRoutes(
	api fiber.Router,
	h *handler.BloodHandler,
	authRequired fiber.Handler,
	requirePerm permFunc,
) {
	blood := api.Group("/blood", authRequired)

	blood.Get("/stock", requirePerm(authorize.ResourceBloodStock, authorize.ActionRead), h.Stock)
	blood.Get("/alerts", requirePerm(authorize.ResourceBloodStock, authorize.ActionRead), h.Alerts)
	blood.Post("/stock/:group/:action", requirePerm(authorize.ResourceBloodStock, authorize.ActionUpdate), h.Adjust)

	blood.Post("/donations", requirePerm(authorize.ResourceDonation, authorize.ActionCreate), h.Donate)
	blood.Get("/donations/pending", requirePerm(authorize.ResourceDonation, authorize.ActionList), h.PendingDonations)
	blood.Post("/donations/:id/verify", requirePerm(authorize.ResourceDonation, authorize.ActionVerify), h.VerifyDonation)

	blood.Post("/requests", requirePerm(authorize.ResourceBloodRequest, authorize.ActionCreate), h.Request)
}

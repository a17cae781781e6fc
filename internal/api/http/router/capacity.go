package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/medtrack_backend/internal/api/http/handler"
	"github.com/Alijeyrad/medtrack_backend/pkg/authorize"
)

func (r *Router) registerCapacityRoutes(
	api fiber.Router,
	h *handler.CapacityHandler,
	authRequired fiber.Handler,
	requirePerm permFunc,
) {
	wards := api.Group("/capacity", authRequired)
	wards.Get("/", requirePerm(authorize.ResourceCapacity, authorize.ActionRead), h.List)
	wards.Put("/:ward", requirePerm(authorize.ResourceCapacity, authorize.ActionUpdate), h.Update)
}

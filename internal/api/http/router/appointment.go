package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/medtrack_backend/internal/api/http/handler"
	"github.com/Alijeyrad/medtrack_backend/pkg/authorize"
)

func (r *Router) registerAppointmentRoutes(
	api fiber.Router,
	ah *handler.AppointmentHandler,
	authRequired fiber.Handler,
	requirePerm permFunc,
) {
	appts := api.Group("/appointments", authRequired)

	appts.Get("/", requirePerm(authorize.ResourceAppointment, authorize.ActionList), ah.List)
	appts.Post("/", requirePerm(authorize.ResourceAppointment, authorize.ActionCreate), ah.Book)
	appts.Get("/load", requirePerm(authorize.ResourceCapacity, authorize.ActionRead), ah.Load)
	appts.Get("/weekly-stats", requirePerm(authorize.ResourceStats, authorize.ActionRead), ah.WeeklyStats)

	a := appts.Group("/:id")
	a.Get("/", requirePerm(authorize.ResourceAppointment, authorize.ActionRead), ah.GetByID)
	a.Patch("/advance", requirePerm(authorize.ResourceAppointment, authorize.ActionAdvance), ah.Advance)
	a.Put("/review", requirePerm(authorize.ResourceAppointment, authorize.ActionReview), ah.Review)
}

package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/medtrack_backend/internal/api/http/handler"
	"github.com/Alijeyrad/medtrack_backend/pkg/authorize"
)

func (r *Router) registerMoodRoutes(
	api fiber.Router,
	h *handler.MoodHandler,
	authRequired fiber.Handler,
	requirePerm permFunc,
) {
	moods := api.Group("/mood", authRequired)
	moods.Post("/", requirePerm(authorize.ResourceMood, authorize.ActionCreate), h.Log)
	moods.Get("/history", requirePerm(authorize.ResourceMood, authorize.ActionRead), h.History)
}

package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/medtrack_backend/internal/api/http/handler"
	"github.com/Alijeyrad/medtrack_backend/pkg/authorize"
)

func (r *Router) registerAssistantRoutes(
	api fiber.Router,
	h *handler.AssistantHandler,
	authRequired fiber.Handler,
	requirePerm permFunc,
) {
	ai := api.Group("/assistant", authRequired)

	patient := requirePerm(authorize.ResourceAssistant, authorize.ActionExecute)
	ai.Post("/chat", patient, h.Chat)
	ai.Post("/symptoms", patient, h.Symptoms)

	ai.Post("/multimodal", requirePerm(authorize.ResourceDiagnostics, authorize.ActionExecute), h.Multimodal)
}

package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/medtrack_backend/internal/api/http/handler"
	"github.com/Alijeyrad/medtrack_backend/pkg/authorize"
)

func (r *Router) registerUserRoutes(
	api fiber.Router,
	h *handler.UserHandler,
	assistantH *handler.AssistantHandler,
	vaultH *handler.VaultHandler,
	authRequired fiber.Handler,
	requirePerm permFunc,
) {
	users := api.Group("/users", authRequired)
	users.Get("/me", requirePerm(authorize.ResourceProfile, authorize.ActionRead), h.Me)

	doctors := api.Group("/doctors", authRequired, requirePerm(authorize.ResourceDoctor, authorize.ActionList))
	doctors.Get("/", h.ListDoctors)
	doctors.Get("/departments", h.Departments)

	patients := api.Group("/patients", authRequired)
	patients.Get("/", requirePerm(authorize.ResourcePatient, authorize.ActionList), h.ListPatients)
	patients.Get("/:id/vault", requirePerm(authorize.ResourceVault, authorize.ActionList), vaultH.ListForPatient)
	patients.Get("/:id/ai-summary", requirePerm(authorize.ResourceAssistant, authorize.ActionRead), assistantH.PatientSummary)
}

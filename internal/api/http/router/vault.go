package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/medtrack_backend/internal/api/http/handler"
	"github.com/Alijeyrad/medtrack_backend/pkg/authorize"
)

func (r *Router) registerVaultRoutes(
	app *fiber.App,
	api fiber.Router,
	h *handler.VaultHandler,
	authRequired fiber.Handler,
	requirePerm permFunc,
) {
	v := api.Group("/vault", authRequired)
	v.Post("/", requirePerm(authorize.ResourceVault, authorize.ActionCreate), h.Upload)
	v.Get("/", requirePerm(authorize.ResourceVault, authorize.ActionList), h.ListOwn)
	v.Get("/:id/download", requirePerm(authorize.ResourceVault, authorize.ActionRead), h.Download)

	base := r.p.Cfg.Vault.PublicBase
	if base == "" {
		base = "/uploads"
	}
	staticVault(app, r.p.Blobs, base,
		authRequired,
		requirePerm(authorize.ResourceVault, authorize.ActionRead),
		h.LocalFile(base),
	)
}

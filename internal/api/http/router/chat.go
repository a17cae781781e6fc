package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/medtrack_backend/internal/api/http/handler"
	"github.com/Alijeyrad/medtrack_backend/pkg/authorize"
)

func (r *Router) registerChatRoutes(
	api fiber.Router,
	h *handler.ChatHandler,
	authRequired fiber.Handler,
	requirePerm permFunc,
) {
	chats := api.Group("/chat", authRequired)
	chats.Post("/", requirePerm(authorize.ResourceChat, authorize.ActionCreate), h.Send)
	chats.Get("/", requirePerm(authorize.ResourceChat, authorize.ActionList), h.List)
	chats.Post("/:id/reply", requirePerm(authorize.ResourceChat, authorize.ActionReply), h.Reply)
}

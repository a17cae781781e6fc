package router

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/static"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"

	"github.com/Alijeyrad/medtrack_backend/config"
	"github.com/Alijeyrad/medtrack_backend/internal/api/http/handler"
	"github.com/Alijeyrad/medtrack_backend/internal/api/http/middleware"
	"github.com/Alijeyrad/medtrack_backend/internal/service/appointment"
	"github.com/Alijeyrad/medtrack_backend/internal/service/assistant"
	"github.com/Alijeyrad/medtrack_backend/internal/service/auth"
	"github.com/Alijeyrad/medtrack_backend/internal/service/bloodbank"
	"github.com/Alijeyrad/medtrack_backend/internal/service/capacity"
	"github.com/Alijeyrad/medtrack_backend/internal/service/chat"
	"github.com/Alijeyrad/medtrack_backend/internal/service/invoice"
	"github.com/Alijeyrad/medtrack_backend/internal/service/mood"
	"github.com/Alijeyrad/medtrack_backend/internal/service/notification"
	"github.com/Alijeyrad/medtrack_backend/internal/service/user"
	"github.com/Alijeyrad/medtrack_backend/internal/service/vault"
	"github.com/Alijeyrad/medtrack_backend/internal/store"
	"github.com/Alijeyrad/medtrack_backend/pkg/authorize"
	pasetotoken "github.com/Alijeyrad/medtrack_backend/pkg/paseto"
)

// Module provides the Router to the fx graph.
var Module = fx.Module("router", fx.Provide(NewRouter))

type Params struct {
	fx.In

	Cfg             *config.Config
	Store           *store.Store
	Auth            authorize.IAuthorization
	PasetoMgr       *pasetotoken.Manager
	AuthSvc         auth.Service
	UserSvc         user.Service
	AppointmentSvc  appointment.Service
	InvoiceSvc      invoice.Service
	BloodSvc        bloodbank.Service
	CapacitySvc     capacity.Service
	VaultSvc        vault.Service
	Blobs           vault.BlobStore
	ChatSvc         chat.Service
	MoodSvc         mood.Service
	AssistantSvc    assistant.Service
	NotificationSvc notification.Service
}

type Router struct {
	p Params
}

func NewRouter(p Params) *Router {
	return &Router{p: p}
}

type permFunc func(authorize.Resource, authorize.Action) fiber.Handler

func (r *Router) Register(app *fiber.App) {
	// 1. Health & Metrics
	r.registerSystemRoutes(app)

	// 2. Initialize Middlewares
	authRequired := middleware.AuthRequired(r.p.PasetoMgr, r.p.AuthSvc)

	requirePerm := func(res authorize.Resource, act authorize.Action) fiber.Handler {
		return middleware.RequirePermission(r.p.Auth, res, act)
	}

	// 3. Initialize Handlers
	authH := handler.NewAuthHandler(r.p.AuthSvc)
	userH := handler.NewUserHandler(r.p.UserSvc)
	appointmentH := handler.NewAppointmentHandler(r.p.AppointmentSvc)
	invoiceH := handler.NewInvoiceHandler(r.p.InvoiceSvc)
	bloodH := handler.NewBloodHandler(r.p.BloodSvc, r.p.UserSvc)
	capacityH := handler.NewCapacityHandler(r.p.CapacitySvc)
	vaultH := handler.NewVaultHandler(r.p.VaultSvc)
	chatH := handler.NewChatHandler(r.p.ChatSvc, r.p.UserSvc)
	moodH := handler.NewMoodHandler(r.p.MoodSvc)
	assistantH := handler.NewAssistantHandler(r.p.AssistantSvc)
	notificationH := handler.NewNotificationHandler(r.p.NotificationSvc)

	api := app.Group("/api/v1")

	// 4. Delegate to sub-files
	r.registerAuthRoutes(api, authH, authRequired)
	r.registerUserRoutes(api, userH, assistantH, vaultH, authRequired, requirePerm)
	r.registerAppointmentRoutes(api, appointmentH, authRequired, requirePerm)
	r.registerInvoiceRoutes(api, invoiceH, authRequired, requirePerm)
	r.registerBloodRoutes(api, bloodH, authRequired, requirePerm)
	r.registerCapacityRoutes(api, capacityH, authRequired, requirePerm)
	r.registerVaultRoutes(app, api, vaultH, authRequired, requirePerm)
	r.registerChatRoutes(api, chatH, authRequired, requirePerm)
	r.registerMoodRoutes(api, moodH, authRequired, requirePerm)
	r.registerAssistantRoutes(api, assistantH, authRequired, requirePerm)
	r.registerNotificationRoutes(api, notificationH, authRequired, requirePerm)
}

func (r *Router) registerSystemRoutes(app *fiber.App) {
	app.Get(healthcheck.LivenessEndpoint, healthcheck.New())
	app.Get(healthcheck.ReadinessEndpoint, healthcheck.New(healthcheck.Config{
		Probe: func(c fiber.Ctx) bool { return r.storeReachable(c) },
	}))
	app.Get(healthcheck.StartupEndpoint, healthcheck.New())

	if r.p.Cfg.Observability.Enabled && r.p.Cfg.Observability.Metrics.Enabled {
		path := r.p.Cfg.Observability.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		app.Get(path, adaptor.HTTPHandler(promhttp.Handler()))
	}
}

// staticVault serves locally stored vault blobs behind the same access rules
// as the download endpoint.
func staticVault(app *fiber.App, blobs vault.BlobStore, base string, guard ...any) {
	local, isLocal := blobs.(*vault.LocalBlobs)
	if !isLocal {
		return
	}
	args := append([]any{base}, guard...)
	args = append(args, static.New(local.Dir()))
	app.Use(args...)
}

// storeReachable reports whether the backend answers a point read.
func (r *Router) storeReachable(c fiber.Ctx) bool {
	_, err := r.p.Store.Wards.Get(c.Context(), "__readiness__")
	return err == nil || errors.Is(err, store.ErrNotFound)
}

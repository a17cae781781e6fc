package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/helmet"
	"github.com/gofiber/fiber/v3/middleware/logger"
	recoverer "github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/Alijeyrad/medtrack_backend/config"
	"github.com/Alijeyrad/medtrack_backend/internal/api/http/handler"
	"github.com/Alijeyrad/medtrack_backend/internal/api/http/middleware"
	"github.com/Alijeyrad/medtrack_backend/internal/api/http/router"
	"github.com/Alijeyrad/medtrack_backend/pkg/observability"
)

// Module provides the HTTP Server to the fx graph.
var Module = fx.Module("http", fx.Provide(NewServer))

type Params struct {
	fx.In

	Lifecycle fx.Lifecycle
	Cfg       *config.Config
	Redis     redis.UniversalClient `optional:"true"`
	Router    *router.Router
	OTel      *observability.Telemetry `optional:"true"`
}

func NewServer(p Params) *fiber.App {
	app := NewApp(p.Cfg, p.Redis, p.OTel != nil)

	p.Router.Register(app)

	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			addr := fmt.Sprintf(":%d", p.Cfg.Server.Port)
			go func() {
				if err := app.Listen(addr); err != nil {
					slog.Error("HTTP server error", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return app.ShutdownWithContext(ctx)
		},
	})

	return app
}

// NewApp builds the fiber app with the global middleware stack but no routes.
func NewApp(cfg *config.Config, rdb redis.UniversalClient, telemetry bool) *fiber.App {
	bodyLimit := cfg.Server.BodyLimitMB
	if bodyLimit <= 0 {
		bodyLimit = 16
	}

	app := fiber.New(fiber.Config{
		AppName:         "medtrack",
		BodyLimit:       bodyLimit << 20,
		JSONEncoder:     json.Marshal,
		JSONDecoder:     json.Unmarshal,
		StructValidator: handler.NewStructValidator(),
		ErrorHandler:    errorHandler,
	})

	if telemetry && (cfg.Observability.Tracing.Enabled || cfg.Observability.Metrics.Enabled) {
		app.Use(observability.FiberMiddleware())
	}

	configureGlobalMiddleware(app, cfg, rdb)
	return app
}

// errorHandler renders errors that escape handlers in the API envelope.
func errorHandler(c fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := "internal server error"

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		msg = fe.Message
	} else {
		rid, _ := middleware.RequestIDFromFiber(c)
		slog.ErrorContext(c.Context(), "unhandled error",
			"error", err,
			"request_id", rid,
			"path", c.Path(),
		)
	}

	return c.Status(code).JSON(fiber.Map{"error": msg})
}

func configureGlobalMiddleware(app *fiber.App, cfg *config.Config, rdb redis.UniversalClient) {
	app.Use(middleware.RequestID())
	app.Use(recoverer.New())

	if cfg.IsProduction() {
		app.Use(helmet.New())
	}
	if cfg.Server.CORS.Enabled {
		app.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.Server.CORS.AllowOrigins,
			AllowCredentials: cfg.Server.CORS.AllowCredentials,
		}))
	}
	if cfg.Server.RateLimit.Enabled {
		app.Use(middleware.NewLimiter(rdb, cfg.Server.RateLimit))
	}

	app.Use(logger.New(logger.Config{
		Format: "${ip} - [${time}] [req_id=${requestId}] ${method} ${url} ${status}\n",
	}))
}

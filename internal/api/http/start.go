package http

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/Alijeyrad/medtrack_backend/config"
	"github.com/Alijeyrad/medtrack_backend/internal/api/http/router"
	"github.com/Alijeyrad/medtrack_backend/internal/app"
)

// Start builds the application graph and blocks until a shutdown signal.
func Start(cfg *config.Config, logger *slog.Logger, timeout time.Duration) {
	fx.New(
		fx.Supply(cfg, logger),
		app.InfraModule,
		app.ServiceModule,
		app.WorkerModule,
		router.Module,
		Module,

		// NewServer registers the listen hook, so the app must be requested.
		fx.Invoke(func(*fiber.App) {}),

		fx.StopTimeout(timeout),
		fx.WithLogger(func() fxevent.Logger { return &fxevent.SlogLogger{Logger: logger} }),
	).Run()
}

package app

import (
	"context"
	"log/slog"

	"go.uber.org/fx"

	"github.com/Alijeyrad/medtrack_backend/internal/notifier"
	"github.com/Alijeyrad/medtrack_backend/pkg/events"
)

// WorkerModule registers the event bus consumers.
var WorkerModule = fx.Module("workers",
	fx.Invoke(RegisterWorkers),
)

type WorkerParams struct {
	fx.In

	Lc         fx.Lifecycle
	Bus        events.Bus `optional:"true"`
	Dispatcher *notifier.Dispatcher
}

// RegisterWorkers starts the notification relay, which feeds messages
// published by any instance into this instance's dispatcher.
func RegisterWorkers(p WorkerParams) {
	if p.Bus == nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	p.Lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			if err := notifier.Relay(ctx, p.Bus, p.Dispatcher); err != nil {
				cancel()
				return err
			}
			slog.Info("notification_relay: started", "pattern", notifier.SubjectPattern)
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
}

package app

import (
	"context"
	"log/slog"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/Alijeyrad/medtrack_backend/config"
	"github.com/Alijeyrad/medtrack_backend/internal/notifier"
	"github.com/Alijeyrad/medtrack_backend/internal/service/vault"
	"github.com/Alijeyrad/medtrack_backend/internal/store"
	"github.com/Alijeyrad/medtrack_backend/pkg/authorize"
	"github.com/Alijeyrad/medtrack_backend/pkg/email"
	"github.com/Alijeyrad/medtrack_backend/pkg/events"
	"github.com/Alijeyrad/medtrack_backend/pkg/observability"
	"github.com/Alijeyrad/medtrack_backend/pkg/payments"
	redispkg "github.com/Alijeyrad/medtrack_backend/pkg/redis"
	"github.com/Alijeyrad/medtrack_backend/pkg/sms"
	snspkg "github.com/Alijeyrad/medtrack_backend/pkg/sns"
	"github.com/Alijeyrad/medtrack_backend/pkg/util/password"
)

// InfraModule provides all infrastructure dependencies. The caller supplies
// the *config.Config and the *slog.Logger.
var InfraModule = fx.Module("infra",
	fx.Provide(ProvideRedis),
	fx.Provide(ProvideStore),
	fx.Provide(ProvideAuthorization),
	fx.Provide(ProvidePasswordHasher),
	fx.Provide(ProvideOTel),
	fx.Provide(ProvideMetrics),
	fx.Provide(ProvideEventBus),
	fx.Provide(ProvideDispatcher),
	fx.Provide(ProvideNotifier),
	fx.Provide(ProvidePaymentGateway),
	fx.Provide(ProvideBlobStore),
)

// needsRedis reports whether any configured component talks to Redis.
func needsRedis(cfg *config.Config) bool {
	return cfg.Store.Driver == config.StoreRedis || cfg.Server.RateLimit.Enabled
}

// ProvideRedis connects only when a component needs Redis; otherwise it
// provides a nil client.
func ProvideRedis(lc fx.Lifecycle, cfg *config.Config) (redis.UniversalClient, error) {
	if !needsRedis(cfg) {
		return nil, nil
	}
	rdb, err := redispkg.NewRedisFromCentral(cfg.Redis)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			slog.Debug("closing Redis connection")
			return rdb.Close()
		},
	})
	return rdb, nil
}

func ProvideStore(lc fx.Lifecycle, cfg *config.Config, rdb redis.UniversalClient) (*store.Store, error) {
	b, err := store.NewBackend(context.Background(), cfg, rdb)
	if err != nil {
		return nil, err
	}
	st := store.New(b)
	slog.Info("record store ready", "driver", cfg.Store.Driver)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			slog.Debug("closing record store")
			return st.Close()
		},
	})
	return st, nil
}

func ProvideAuthorization(logger *slog.Logger) (authorize.IAuthorization, error) {
	base, err := authorize.New(authorize.DefaultPolicies())
	if err != nil {
		return nil, err
	}
	return authorize.NewAuditedAuthorization(base, logger), nil
}

func ProvidePasswordHasher(cfg *config.Config) *password.Hasher {
	return password.NewHasher(password.FromCentralConfig(cfg.Password))
}

func ProvideOTel(lc fx.Lifecycle, cfg *config.Config) (*observability.Telemetry, error) {
	if !cfg.Observability.Enabled {
		return nil, nil
	}
	provider, err := observability.Start(context.Background(), observability.FromCentralConfig(cfg))
	if err != nil {
		return nil, err
	}
	slog.Info("observability initialized",
		"tracing", cfg.Observability.Tracing.Enabled,
		"metrics", cfg.Observability.Metrics.Enabled,
	)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			slog.Debug("shutting down observability providers")
			return provider.Shutdown(ctx)
		},
	})
	return provider, nil
}

// ProvideMetrics registers the domain counters after telemetry has installed
// the global meter provider.
func ProvideMetrics(_ *observability.Telemetry) *observability.Metrics {
	return observability.NewMetrics()
}

// ProvideEventBus connects the configured bus, or provides nil when events
// are disabled.
func ProvideEventBus(lc fx.Lifecycle, cfg *config.Config) (events.Bus, error) {
	var (
		bus events.Bus
		err error
	)
	switch cfg.Events.Driver {
	case config.EventsNats:
		var nc *nats.Conn
		nc, err = nats.Connect(cfg.Events.Nats.URL, nats.Name("medtrack"))
		if err != nil {
			return nil, err
		}
		bus = events.NewNats(nc, cfg.Events.Nats.Queue)
	case config.EventsKafka:
		bus, err = events.NewKafka(events.KafkaConfig{
			Brokers: cfg.Events.Kafka.Brokers,
			GroupID: cfg.Events.Kafka.GroupID,
			Topic:   cfg.Events.Kafka.Topic,
		})
		if err != nil {
			return nil, err
		}
	default:
		return nil, nil
	}

	slog.Info("event bus connected", "driver", cfg.Events.Driver)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			slog.Debug("closing event bus")
			return bus.Close()
		},
	})
	return bus, nil
}

// ProvideDispatcher builds the delivery pool over the enabled channels.
func ProvideDispatcher(
	lc fx.Lifecycle,
	cfg *config.Config,
	st *store.Store,
	m *observability.Metrics,
	logger *slog.Logger,
) (*notifier.Dispatcher, error) {
	ch := cfg.Notifications.Channels
	var channels []notifier.Channel

	if ch.Email {
		c, err := email.NewFromCentral(cfg.Email)
		if err != nil {
			return nil, err
		}
		channels = append(channels, notifier.NewEmailChannel(c))
	}
	if ch.SMS && cfg.SMS.Enabled {
		c, err := sms.NewFromConfig(cfg.SMS)
		if err != nil {
			return nil, err
		}
		channels = append(channels, notifier.NewSMSChannel(c))
	}
	if ch.SNS {
		pub, err := snspkg.New(context.Background(), cfg.AWS)
		if err != nil {
			return nil, err
		}
		// SNS texts patients only when sms.ir is not carrying SMS.
		channels = append(channels, notifier.NewSNSChannel(pub, ch.SMS && !cfg.SMS.Enabled, cfg.SMS.DefaultRegion))
	}
	if ch.InApp {
		channels = append(channels, notifier.NewInAppChannel(st.Notifications))
	}
	if ch.Log {
		channels = append(channels, notifier.NewLogChannel(logger))
	}

	opts := notifier.OptionsFromConfig(cfg.Notifications, m)
	opts.Logger = logger
	d := notifier.NewDispatcher(opts, channels...)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			d.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			slog.Debug("draining notification queue")
			return d.Stop(ctx)
		},
	})
	return d, nil
}

// ProvideNotifier routes notifications over the bus when one is configured,
// so every instance's relay shares the delivery work.
func ProvideNotifier(lc fx.Lifecycle, cfg *config.Config, d *notifier.Dispatcher, bus events.Bus) notifier.Notifier {
	if bus == nil {
		return d
	}
	n := notifier.NewBusNotifier(bus, d, notifier.OptionsFromConfig(cfg.Notifications, nil))
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			n.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			slog.Debug("flushing bus notifications")
			return n.Stop(ctx)
		},
	})
	return n
}

func ProvidePaymentGateway(cfg *config.Config) (payments.Gateway, error) {
	return payments.New(cfg.Payments)
}

func ProvideBlobStore(cfg *config.Config) (vault.BlobStore, error) {
	return vault.NewBlobStore(context.Background(), cfg)
}

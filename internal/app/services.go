package app

import (
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/Alijeyrad/medtrack_backend/config"
	"github.com/Alijeyrad/medtrack_backend/internal/notifier"
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
	"github.com/Alijeyrad/medtrack_backend/pkg/observability"
	pasetotoken "github.com/Alijeyrad/medtrack_backend/pkg/paseto"
	"github.com/Alijeyrad/medtrack_backend/pkg/payments"
	"github.com/Alijeyrad/medtrack_backend/pkg/util/password"
)

// ServiceModule provides all application service dependencies.
var ServiceModule = fx.Module("services",
	fx.Provide(
		ProvidePasetoManager,
		ProvideAuthService,
		ProvideUserService,
		ProvideInvoiceService,
		ProvideAppointmentService,
		ProvideBloodBankService,
		ProvideCapacityService,
		ProvideClassifiers,
		ProvideAssistantService,
		ProvideVaultService,
		ProvideChatService,
		ProvideMoodService,
		ProvideNotificationService,
	),
)

func ProvidePasetoManager(cfg *config.Config) (*pasetotoken.Manager, error) {
	return pasetotoken.NewPasetoManager(cfg)
}

func ProvideAuthService(
	st *store.Store,
	hasher *password.Hasher,
	pm *pasetotoken.Manager,
	rdb redis.UniversalClient,
	cfg *config.Config,
) auth.Service {
	opts := auth.Options{
		SessionTTL:  time.Duration(cfg.Authentication.SessionTTLMinutes) * time.Minute,
		PhoneRegion: cfg.SMS.DefaultRegion,
	}
	if rdb != nil {
		opts.Throttle = auth.NewRedisThrottle(rdb, cfg.Store.KeyPrefix)
	}
	return auth.New(st, hasher, pm, opts)
}

func ProvideUserService(st *store.Store, hasher *password.Hasher) user.Service {
	return user.New(st, hasher)
}

func ProvideInvoiceService(
	st *store.Store,
	cfg *config.Config,
	gateway payments.Gateway,
	n notifier.Notifier,
	m *observability.Metrics,
) invoice.Service {
	return invoice.New(st, invoice.NewFeePolicy(cfg.Billing, nil), cfg.Billing, gateway, n, m)
}

func ProvideAppointmentService(
	st *store.Store,
	invoices invoice.Service,
	n notifier.Notifier,
	m *observability.Metrics,
	cfg *config.Config,
) appointment.Service {
	return appointment.New(st, invoices, n, m, appointment.OptionsFromConfig(cfg))
}

func ProvideBloodBankService(st *store.Store, n notifier.Notifier, cfg *config.Config) bloodbank.Service {
	return bloodbank.New(st, n, cfg.Notifications.OpsTopicARN)
}

func ProvideCapacityService(st *store.Store) capacity.Service {
	return capacity.New(st)
}

func ProvideClassifiers() assistant.Classifiers {
	return assistant.DefaultClassifiers(nil)
}

func ProvideAssistantService(st *store.Store, c assistant.Classifiers) assistant.Service {
	return assistant.New(st, c)
}

func ProvideVaultService(st *store.Store, blobs vault.BlobStore, c assistant.Classifiers, cfg *config.Config) vault.Service {
	return vault.New(st, blobs, c.Reports, cfg.Vault.MaxSizeMB)
}

func ProvideChatService(st *store.Store, n notifier.Notifier) chat.Service {
	return chat.New(st, n)
}

func ProvideMoodService(st *store.Store) mood.Service {
	return mood.New(st)
}

func ProvideNotificationService(st *store.Store) notification.Service {
	return notification.New(st)
}

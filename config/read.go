package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/Alijeyrad/medtrack_backend/pkg/constants"
)

var GlobalConf *Config

func ReadConfig(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigName(constants.ConfigName)
	v.SetConfigType(constants.ConfigFormat)
	v.AddConfigPath(configPath)

	setDefaults(v)

	// Allow env vars to override config values.
	// e.g. MEDTRACK_STORE_DRIVER overrides store.driver
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// The config file is optional; defaults plus env vars are enough to boot.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

func MustReadConfig(path string) *Config {
	config, err := ReadConfig(path)
	if err != nil {
		panic(err)
	}

	GlobalConf = config

	return config
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.timeout_seconds", 30)
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.body_limit_mb", 16)
	v.SetDefault("server.rate_limit.max", 20)
	v.SetDefault("server.rate_limit.expiration_seconds", 30)

	v.SetDefault("store.driver", StoreMemory)
	v.SetDefault("store.key_prefix", constants.KeyPrefix)
	v.SetDefault("store.dynamodb.table", "medtrack_records")

	v.SetDefault("redis.addr", "localhost:6379")

	v.SetDefault("aws.region", "ap-south-1")
	v.SetDefault("s3.presign_ttl_sec", 300)
	v.SetDefault("s3.path_style", true)

	v.SetDefault("vault.driver", "local")
	v.SetDefault("vault.local_dir", "uploads")
	v.SetDefault("vault.max_size_mb", 10)
	v.SetDefault("vault.public_base", "/uploads")

	v.SetDefault("authentication.session_ttl_minutes", 720)
	v.SetDefault("authentication.paseto.mode", "local")
	v.SetDefault("authentication.paseto.issuer", "medtrack")
	v.SetDefault("authentication.paseto.audience", "medtrack-web")
	v.SetDefault("authentication.paseto.access_ttl_minutes", 60)

	v.SetDefault("password.memory_kib", 64*1024)
	v.SetDefault("password.iterations", 3)
	v.SetDefault("password.parallelism", 2)
	v.SetDefault("password.salt_length", 16)
	v.SetDefault("password.key_length", 32)

	v.SetDefault("billing.invoice_on", InvoiceOnCompletion)
	v.SetDefault("billing.fee_policy", FeeRandom)
	v.SetDefault("billing.fixed_fee", 500)
	v.SetDefault("billing.min_fee", 500)
	v.SetDefault("billing.max_fee", 2000)
	v.SetDefault("billing.currency", "INR")

	v.SetDefault("payments.provider", "manual")

	v.SetDefault("notifications.workers", 4)
	v.SetDefault("notifications.queue_size", 256)
	v.SetDefault("notifications.timeout_seconds", 10)
	v.SetDefault("notifications.channels.inapp", true)
	v.SetDefault("notifications.channels.log", true)

	v.SetDefault("sms.default_region", "IN")
	v.SetDefault("email.smtp.port", 587)

	v.SetDefault("events.driver", EventsNone)
	v.SetDefault("events.nats.queue", "medtrack-notifier")
	v.SetDefault("events.kafka.group_id", "medtrack-notifier")
	v.SetDefault("events.kafka.topic", "medtrack.events")

	v.SetDefault("observability.service_name", constants.ServiceName)
	v.SetDefault("observability.metrics.path", "/metrics")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output.stdout", true)
}

package config

import (
	"errors"
	"fmt"
	"strings"
)

type Config struct {
	Server         ServerConfig         `mapstructure:"server"`
	Store          StoreConfig          `mapstructure:"store"`
	Redis          RedisConfig          `mapstructure:"redis"`
	AWS            AWSConfig            `mapstructure:"aws"`
	S3             S3Config             `mapstructure:"s3"`
	Vault          VaultConfig          `mapstructure:"vault"`
	Authentication AuthenticationConfig `mapstructure:"authentication"`
	Password       PasswordConfig       `mapstructure:"password"`
	Billing        BillingConfig        `mapstructure:"billing"`
	Payments       PaymentsConfig       `mapstructure:"payments"`
	Notifications  NotificationsConfig  `mapstructure:"notifications"`
	Email          EmailConfig          `mapstructure:"email"`
	SMS            SMSConfig            `mapstructure:"sms"`
	Events         EventsConfig         `mapstructure:"events"`
	Observability  ObservabilityConfig  `mapstructure:"observability"`
	Logging        LoggingConfig        `mapstructure:"logging"`
}

type ServerConfig struct {
	Port           int        `mapstructure:"port"`
	TimeoutSeconds int        `mapstructure:"timeout_seconds"`
	Environment    string     `mapstructure:"environment"`
	BodyLimitMB    int        `mapstructure:"body_limit_mb"`
	CORS           CORSConfig `mapstructure:"cors"`
	RateLimit      RateLimit  `mapstructure:"rate_limit"`
}

type CORSConfig struct {
	Enabled          bool     `mapstructure:"enabled"`
	AllowOrigins     []string `mapstructure:"allow_origins"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
}

type RateLimit struct {
	Enabled           bool `mapstructure:"enabled"`
	Max               int  `mapstructure:"max"`
	ExpirationSeconds int  `mapstructure:"expiration_seconds"`
}

// Store drivers.
const (
	StoreMemory   = "memory"
	StoreRedis    = "redis"
	StoreDynamoDB = "dynamodb"
)

type StoreConfig struct {
	Driver    string         `mapstructure:"driver"`
	KeyPrefix string         `mapstructure:"key_prefix"`
	DynamoDB  DynamoDBConfig `mapstructure:"dynamodb"`
}

type DynamoDBConfig struct {
	Table string `mapstructure:"table"`
}

type RedisConfig struct {
	Addr                string `mapstructure:"addr"`
	DB                  int    `mapstructure:"db"`
	Username            string `mapstructure:"username"`
	Password            string `mapstructure:"password"`
	PoolSize            int    `mapstructure:"pool_size"`
	MinIdleConns        int    `mapstructure:"min_idle_conns"`
	DialTimeoutSeconds  int    `mapstructure:"dial_timeout_seconds"`
	ReadTimeoutSeconds  int    `mapstructure:"read_timeout_seconds"`
	WriteTimeoutSeconds int    `mapstructure:"write_timeout_seconds"`
}

type AWSConfig struct {
	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
}

type S3Config struct {
	Endpoint      string `mapstructure:"endpoint"`
	Bucket        string `mapstructure:"bucket"`
	PathStyle     bool   `mapstructure:"path_style"`
	PresignTTLSec int    `mapstructure:"presign_ttl_sec"`
}

type VaultConfig struct {
	Driver     string `mapstructure:"driver"` // s3, local
	LocalDir   string `mapstructure:"local_dir"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	PublicBase string `mapstructure:"public_base"`
}

type AuthenticationConfig struct {
	Paseto            PasetoConfig `mapstructure:"paseto"`
	SessionTTLMinutes int          `mapstructure:"session_ttl_minutes"`
}

type PasetoConfig struct {
	Mode             string `mapstructure:"mode"`
	LocalKeyHex      string `mapstructure:"local_key_hex"`
	SecretKeyHex     string `mapstructure:"secret_key_hex"`
	PublicKeyHex     string `mapstructure:"public_key_hex"`
	Issuer           string `mapstructure:"issuer"`
	Audience         string `mapstructure:"audience"`
	AccessTTLMinutes int    `mapstructure:"access_ttl_minutes"`
}

type PasswordConfig struct {
	MemoryKiB     uint32 `mapstructure:"memory_kib"`
	Iterations    uint32 `mapstructure:"iterations"`
	Parallelism   uint8  `mapstructure:"parallelism"`
	SaltLength    uint32 `mapstructure:"salt_length"`
	KeyLength     uint32 `mapstructure:"key_length"`
	LowMemoryMode bool   `mapstructure:"low_memory_mode"`
}

// Invoice issuing moments.
const (
	InvoiceOnBooking    = "booking"
	InvoiceOnCompletion = "completion"
)

// Fee policies.
const (
	FeeFixed  = "fixed"
	FeeRandom = "random"
)

type BillingConfig struct {
	InvoiceOn string `mapstructure:"invoice_on"`
	FeePolicy string `mapstructure:"fee_policy"`
	FixedFee  int64  `mapstructure:"fixed_fee"`
	MinFee    int64  `mapstructure:"min_fee"`
	MaxFee    int64  `mapstructure:"max_fee"`
	Currency  string `mapstructure:"currency"`
}

type PaymentsConfig struct {
	Provider string       `mapstructure:"provider"` // manual, stripe
	Stripe   StripeConfig `mapstructure:"stripe"`
}

type StripeConfig struct {
	SecretKey string `mapstructure:"secret_key"`
}

type NotificationsConfig struct {
	Workers        int                `mapstructure:"workers"`
	QueueSize      int                `mapstructure:"queue_size"`
	TimeoutSeconds int                `mapstructure:"timeout_seconds"`
	OpsTopicARN    string             `mapstructure:"ops_topic_arn"`
	Channels       NotificationToggle `mapstructure:"channels"`
}

type NotificationToggle struct {
	Email bool `mapstructure:"email"`
	SMS   bool `mapstructure:"sms"`
	SNS   bool `mapstructure:"sns"`
	InApp bool `mapstructure:"inapp"`
	Log   bool `mapstructure:"log"`
}

type EmailConfig struct {
	Enabled bool       `mapstructure:"enabled"`
	From    string     `mapstructure:"from"`
	SMTP    SMTPConfig `mapstructure:"smtp"`
}

type SMTPConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Username       string `mapstructure:"username"`
	Password       string `mapstructure:"password"`
	UseTLS         bool   `mapstructure:"use_tls"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

type SMSConfig struct {
	Enabled       bool        `mapstructure:"enabled"`
	DefaultRegion string      `mapstructure:"default_region"`
	SMSIR         SMSIRConfig `mapstructure:"smsir"`
}

type SMSIRConfig struct {
	APIKey     string `mapstructure:"api_key"`
	SecretKey  string `mapstructure:"secret_key"`
	TemplateID string `mapstructure:"template_id"`
}

// Event bus drivers.
const (
	EventsNone  = "none"
	EventsNats  = "nats"
	EventsKafka = "kafka"
)

type EventsConfig struct {
	Driver string      `mapstructure:"driver"`
	Nats   NatsConfig  `mapstructure:"nats"`
	Kafka  KafkaConfig `mapstructure:"kafka"`
}

type NatsConfig struct {
	URL   string `mapstructure:"url"`
	Queue string `mapstructure:"queue"`
}

type KafkaConfig struct {
	Brokers string `mapstructure:"brokers"` // comma separated
	GroupID string `mapstructure:"group_id"`
	Topic   string `mapstructure:"topic"`
}

type ObservabilityConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	ServiceName    string        `mapstructure:"service_name"`
	ServiceVersion string        `mapstructure:"service_version"`
	Tracing        TracingConfig `mapstructure:"tracing"`
	Metrics        MetricsConfig `mapstructure:"metrics"`
}

type TracingConfig struct {
	Enabled      bool    `mapstructure:"enabled"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	OTLPInsecure bool    `mapstructure:"otlp_insecure"`
	SamplingRate float64 `mapstructure:"sampling_rate"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type LoggingConfig struct {
	Level  string       `mapstructure:"level"`  // debug, info, warn, error
	Format string       `mapstructure:"format"` // text, json
	Output OutputConfig `mapstructure:"output"`
}

type OutputConfig struct {
	Stdout bool          `mapstructure:"stdout"`
	File   FileLogConfig `mapstructure:"file"`
	Loki   LokiConfig    `mapstructure:"loki"`
}

type FileLogConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Path       string `mapstructure:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

type LokiConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"` // e.g. "http://localhost:3100"
	TenantID string `mapstructure:"tenant_id"`
}

func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port out of range: %d", c.Server.Port))
	}

	switch c.Store.Driver {
	case StoreMemory:
	case StoreRedis:
		if c.Redis.Addr == "" {
			errs = append(errs, errors.New("redis.addr is required for the redis store"))
		}
	case StoreDynamoDB:
		if c.Store.DynamoDB.Table == "" {
			errs = append(errs, errors.New("store.dynamodb.table is required for the dynamodb store"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store.driver %q", c.Store.Driver))
	}

	switch c.Billing.InvoiceOn {
	case InvoiceOnBooking, InvoiceOnCompletion:
	default:
		errs = append(errs, fmt.Errorf("unknown billing.invoice_on %q", c.Billing.InvoiceOn))
	}

	switch c.Billing.FeePolicy {
	case FeeFixed:
		if c.Billing.FixedFee <= 0 {
			errs = append(errs, errors.New("billing.fixed_fee must be positive"))
		}
	case FeeRandom:
		if c.Billing.MinFee <= 0 || c.Billing.MaxFee < c.Billing.MinFee {
			errs = append(errs, fmt.Errorf("billing fee range [%d,%d] is invalid", c.Billing.MinFee, c.Billing.MaxFee))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown billing.fee_policy %q", c.Billing.FeePolicy))
	}

	if c.Payments.Provider == "stripe" && strings.TrimSpace(c.Payments.Stripe.SecretKey) == "" {
		errs = append(errs, errors.New("payments.stripe.secret_key is required for the stripe provider"))
	}

	switch c.Events.Driver {
	case EventsNone, "":
	case EventsNats:
		if c.Events.Nats.URL == "" {
			errs = append(errs, errors.New("events.nats.url is required for the nats driver"))
		}
	case EventsKafka:
		if c.Events.Kafka.Brokers == "" {
			errs = append(errs, errors.New("events.kafka.brokers is required for the kafka driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown events.driver %q", c.Events.Driver))
	}

	return errors.Join(errs...)
}

// IsProduction reports whether the server runs with production hardening.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Server.Environment, "production")
}

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration. Both binaries load the same
// file; each picks the server section it listens on.
type Config struct {
	SubscriptionServer ServerConfig      `mapstructure:"subscription_server"`
	PaymentServer      ServerConfig      `mapstructure:"payment_server"`
	Database           DatabaseConfig    `mapstructure:"database"`
	Redis              RedisConfig       `mapstructure:"redis"`
	JWT                JWTConfig         `mapstructure:"jwt"`
	Webhook            WebhookConfig     `mapstructure:"webhook"`
	Billing            BillingConfig     `mapstructure:"billing"`
	Idempotency        IdempotencyConfig `mapstructure:"idempotency"`
	Log                LogConfig         `mapstructure:"log"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug, release, test
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Addr returns the Redis address string.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type JWTConfig struct {
	Secret string        `mapstructure:"secret"`
	Expiry time.Duration `mapstructure:"expiry"`
	Issuer string        `mapstructure:"issuer"`
}

// WebhookConfig drives outbound delivery from the payment service and
// signature verification plus dedup on the subscription side.
type WebhookConfig struct {
	Endpoint    string        `mapstructure:"endpoint"`     // Subscription service receiver URL
	Secret      string        `mapstructure:"secret"`       // Shared HMAC secret
	MaxAttempts int           `mapstructure:"max_attempts"` // Total delivery attempts, retries included
	RetryDelay  time.Duration `mapstructure:"retry_delay"`  // Base delay, doubled per retry
	Timeout     time.Duration `mapstructure:"timeout"`      // Per-attempt HTTP timeout
	DedupTTL    time.Duration `mapstructure:"dedup_ttl"`    // Receiver-side replay window
}

// BillingConfig drives the subscription service's charge submission and the
// payment service's outcome simulation.
type BillingConfig struct {
	PaymentBaseURL     string        `mapstructure:"payment_base_url"`
	APIKey             string        `mapstructure:"api_key"`
	SuccessRate        float64       `mapstructure:"success_rate"` // 0..1 share of simulated charges that succeed
	MinProcessingDelay time.Duration `mapstructure:"min_processing_delay"`
	MaxProcessingDelay time.Duration `mapstructure:"max_processing_delay"`
}

type IdempotencyConfig struct {
	TTL           time.Duration `mapstructure:"ttl"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Pretty bool   `mapstructure:"pretty"` // human-readable output (dev only)
}

// Load reads configuration from file and environment variables.
// Environment variables override file values. Prefix: SUBPAY_.
// Nested keys use underscore: SUBPAY_DATABASE_HOST, SUBPAY_WEBHOOK_SECRET, etc.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("subscription_server.host", "0.0.0.0")
	v.SetDefault("subscription_server.port", 8080)
	v.SetDefault("subscription_server.mode", "debug")
	v.SetDefault("payment_server.host", "0.0.0.0")
	v.SetDefault("payment_server.port", 8081)
	v.SetDefault("payment_server.mode", "debug")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "subpay")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.min_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expiry", "24h")
	v.SetDefault("jwt.issuer", "subpay")
	v.SetDefault("webhook.endpoint", "http://localhost:8080/api/v1/webhooks/payments")
	v.SetDefault("webhook.secret", "")
	v.SetDefault("webhook.max_attempts", 3)
	v.SetDefault("webhook.retry_delay", "1s")
	v.SetDefault("webhook.timeout", "10s")
	v.SetDefault("webhook.dedup_ttl", "24h")
	v.SetDefault("billing.payment_base_url", "http://localhost:8081")
	v.SetDefault("billing.api_key", "")
	v.SetDefault("billing.success_rate", 0.9)
	v.SetDefault("billing.min_processing_delay", "100ms")
	v.SetDefault("billing.max_processing_delay", "2s")
	v.SetDefault("idempotency.ttl", "24h")
	v.SetDefault("idempotency.sweep_interval", "1h")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	// File config
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables: SUBPAY_DATABASE_HOST -> database.host
	v.SetEnvPrefix("SUBPAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (not required, env vars can suffice)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

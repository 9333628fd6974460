// Package config loads the storefront server configuration from the
// environment.
package config

import (
	"errors"
	"fmt"
	"time"

	pkgconfig "github.com/utafrali/electroshop/pkg/config"
	"github.com/utafrali/electroshop/pkg/database"
	"github.com/utafrali/electroshop/pkg/middleware"
	"github.com/utafrali/electroshop/pkg/tracing"
)

// ServiceName identifies the server in logs, metrics and traces.
const ServiceName = "storefront"

// Config holds all configuration for the storefront server.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	Version     string `env:"SERVICE_VERSION" envDefault:"dev"`

	// HTTP server
	HTTPPort        int           `env:"HTTP_PORT" envDefault:"8080"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"15s"`
	CORSOrigins     []string      `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
	RateLimitRPS    float64       `env:"RATE_LIMIT_RPS" envDefault:"20"`
	RateLimitBurst  int           `env:"RATE_LIMIT_BURST" envDefault:"40"`

	// PostgreSQL
	DBHost             string        `env:"DB_HOST" envDefault:"localhost"`
	DBPort             int           `env:"DB_PORT" envDefault:"5432"`
	DBUser             string        `env:"DB_USER" envDefault:"electroshop"`
	DBPassword         string        `env:"DB_PASSWORD" envDefault:"electroshop"`
	DBName             string        `env:"DB_NAME" envDefault:"electroshop"`
	DBSSLMode          string        `env:"DB_SSLMODE" envDefault:"disable"`
	DBMaxConns         int32         `env:"DB_MAX_CONNS" envDefault:"10"`
	DBMinConns         int32         `env:"DB_MIN_CONNS" envDefault:"1"`
	DBRunMigrations    bool          `env:"DB_RUN_MIGRATIONS" envDefault:"true"`
	SlowQueryThreshold time.Duration `env:"DB_SLOW_QUERY_THRESHOLD" envDefault:"200ms"`

	// Redis
	RedisHost     string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// Cart sessions held in memory are dropped after this long without use.
	// The Redis mirror is kept.
	SessionIdleTTL time.Duration `env:"CART_SESSION_IDLE_TTL" envDefault:"30m"`

	// Kafka
	KafkaEnabled    bool     `env:"KAFKA_ENABLED" envDefault:"false"`
	KafkaBrokers    []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`
	CartEventsTopic string   `env:"KAFKA_CART_EVENTS_TOPIC" envDefault:"electroshop.cart.events"`

	// Tracing
	TracingEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	TracingEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	TracingSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load storefront config: %w", err)
	}
	return cfg, nil
}

// Validate checks configuration invariants. It is called by pkgconfig.Load.
func (c *Config) Validate() error {
	var errs []error
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		errs = append(errs, fmt.Errorf("invalid HTTP port: %d", c.HTTPPort))
	}
	if c.DBMaxConns < 1 || c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
		errs = append(errs, fmt.Errorf("invalid DB pool bounds: min %d max %d", c.DBMinConns, c.DBMaxConns))
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst < 1 {
		errs = append(errs, fmt.Errorf("invalid rate limit: %g rps burst %d", c.RateLimitRPS, c.RateLimitBurst))
	}
	if c.KafkaEnabled && len(c.KafkaBrokers) == 0 {
		errs = append(errs, errors.New("KAFKA_BROKERS is required when KAFKA_ENABLED is set"))
	}
	if c.TracingSampleRate < 0 || c.TracingSampleRate > 1 {
		errs = append(errs, fmt.Errorf("OTEL_SAMPLE_RATE must be within [0,1], got %g", c.TracingSampleRate))
	}
	return errors.Join(errs...)
}

// Postgres returns the connection settings of the products database.
func (c *Config) Postgres() database.PostgresConfig {
	return database.PostgresConfig{
		Host:     c.DBHost,
		Port:     c.DBPort,
		User:     c.DBUser,
		Password: c.DBPassword,
		DBName:   c.DBName,
		SSLMode:  c.DBSSLMode,
		MaxConns: c.DBMaxConns,
		MinConns: c.DBMinConns,
	}
}

// Redis returns the connection settings of the cart mirror.
func (c *Config) Redis() database.RedisConfig {
	return database.RedisConfig{
		Host:     c.RedisHost,
		Port:     c.RedisPort,
		Password: c.RedisPassword,
		DB:       c.RedisDB,
	}
}

// Tracing returns the OpenTelemetry exporter settings.
func (c *Config) Tracing() tracing.Config {
	return tracing.Config{
		ServiceName:    ServiceName,
		ServiceVersion: c.Version,
		Environment:    c.Environment,
		OTLPEndpoint:   c.TracingEndpoint,
		SampleRate:     c.TracingSampleRate,
		Enabled:        c.TracingEnabled,
	}
}

// CORS returns the CORS policy for the API.
func (c *Config) CORS() middleware.CORSConfig {
	cfg := middleware.DefaultCORSConfig()
	cfg.AllowedOrigins = c.CORSOrigins
	return cfg
}

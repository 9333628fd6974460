package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, "localhost", cfg.RedisHost)
	assert.Equal(t, 30*time.Minute, cfg.SessionIdleTTL)
	assert.False(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Equal(t, "localhost:6379", cfg.Redis().Addr())
	assert.Equal(t, ServiceName, cfg.Tracing().ServiceName)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://shop.example.com,https://admin.example.com")
	t.Setenv("DB_HOST", "db")
	t.Setenv("CART_SESSION_IDLE_TTL", "5m")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.HTTPPort)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "db", cfg.Postgres().Host)
	assert.Equal(t, 5*time.Minute, cfg.SessionIdleTTL)
	assert.Equal(t, []string{"https://shop.example.com", "https://admin.example.com"}, cfg.CORS().AllowedOrigins)
}

func TestLoad_InvalidPort(t *testing.T) {
	t.Setenv("HTTP_PORT", "70000")

	cfg, err := Load()

	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "invalid HTTP port")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			HTTPPort:          8080,
			DBMaxConns:        10,
			DBMinConns:        1,
			RateLimitRPS:      5,
			RateLimitBurst:    10,
			TracingSampleRate: 0.5,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"pool bounds", func(c *Config) { c.DBMinConns = 20 }, "invalid DB pool bounds"},
		{"rate limit", func(c *Config) { c.RateLimitRPS = 0 }, "invalid rate limit"},
		{"kafka brokers", func(c *Config) { c.KafkaEnabled = true }, "KAFKA_BROKERS is required"},
		{"sample rate", func(c *Config) { c.TracingSampleRate = 2 }, "OTEL_SAMPLE_RATE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

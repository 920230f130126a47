package config

import (
	"context"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadWith_Defaults(t *testing.T) {
	cfg, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET": "s3cret",
	}))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
	assert.Equal(t, 60*60*60*time.Second, cfg.Auth.TokenTTL)
	assert.Equal(t, 10*time.Minute, cfg.Auth.OTPTTL)
	assert.Equal(t, 100, cfg.RateLimit.Limit)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)
	assert.Equal(t, uint64(3), cfg.Mail.MaxRetries)
	assert.Equal(t, 4, cfg.Audit.Workers)
	assert.Equal(t, 10, cfg.Redis.PoolSize)
	assert.Equal(t, 3*time.Second, cfg.Redis.Timeout)
	assert.Equal(t, uint64(20), cfg.Mongo.MaxPoolSize)
	assert.Equal(t, 10*time.Second, cfg.Mail.Timeout)
	assert.Equal(t, time.Minute, cfg.Mail.SendTimeout)
	assert.Equal(t, 256, cfg.Mail.QueueSize)
	assert.Empty(t, cfg.TrustedProxies)
}

func TestLoadWith_Overrides(t *testing.T) {
	cfg, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET":      "s3cret",
		"ENV":             "production",
		"TOKEN_TTL":       "15m",
		"OTP_TTL":         "2m",
		"RATE_LIMIT":      "5",
		"RATE_DELAY":      "3m",
		"REDIS_ADDR":      "cache:6379",
		"REDIS_PASSWORD":  "hunter2",
		"SMTP_TIMEOUT":    "4s",
		"TRUSTED_PROXIES": "10.0.0.0/8,192.168.1.10/32",
	}))
	require.NoError(t, err)

	assert.False(t, cfg.IsDevelopment())
	assert.Equal(t, 15*time.Minute, cfg.Auth.TokenTTL)
	assert.Equal(t, 2*time.Minute, cfg.Auth.OTPTTL)
	assert.Equal(t, 5, cfg.RateLimit.Limit)
	assert.Equal(t, 3*time.Minute, cfg.RateLimit.Window)
	assert.Equal(t, "cache:6379", cfg.Redis.Addr)
	assert.Equal(t, "hunter2", cfg.Redis.Password)
	assert.Equal(t, 4*time.Second, cfg.Mail.Timeout)
	assert.Equal(t, []string{"10.0.0.0/8", "192.168.1.10/32"}, cfg.TrustedProxies)
}

func TestLoadWith_MissingSecret(t *testing.T) {
	_, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{}))
	require.Error(t, err)
}

func TestLoadWith_RejectsNonPositiveTTL(t *testing.T) {
	_, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET": "s3cret",
		"OTP_TTL":    "0s",
	}))
	require.Error(t, err)
}

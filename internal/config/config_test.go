package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTokenKey = "0123456789abcdef0123456789abcdef"

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("TOKEN_KEY", testTokenKey)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.True(t, cfg.Server.IsDevelopment())
	assert.Equal(t, "http://localhost:8080", cfg.Server.BaseURL)
	assert.Equal(t, time.Hour, cfg.Auth.ActivationTokenDuration)
	assert.Equal(t, 14*24*time.Hour, cfg.Auth.SessionDuration)
	assert.Equal(t, 7*24*time.Hour, cfg.Auth.RememberCookieDuration)
	assert.Equal(t, 4, cfg.Email.Workers)
}

func TestLoad_RejectsBadTokenKey(t *testing.T) {
	t.Setenv("TOKEN_KEY", "too short")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("TOKEN_KEY", testTokenKey)
	t.Setenv("APP_ENV", "prod")
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("ACTIVATION_TOKEN_DURATION", "600")
	t.Setenv("TRUSTED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.False(t, cfg.Server.IsDevelopment())
	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, 10*time.Minute, cfg.Auth.ActivationTokenDuration)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.TrustedOrigins)
}

func TestDatabaseConnectionString(t *testing.T) {
	c := DatabaseConfig{
		Host:     "db",
		Port:     "5432",
		User:     "app",
		Password: "pw",
		DBName:   "freshcart",
		SSLMode:  "disable",
	}
	assert.Equal(t,
		"host=db port=5432 user=app password=pw dbname=freshcart sslmode=disable",
		c.ConnectionString(),
	)
}

func TestRedisAddress(t *testing.T) {
	c := RedisConfig{Host: "cache", Port: "6379"}
	assert.Equal(t, "cache:6379", c.Address())
}

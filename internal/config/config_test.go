package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"PORT", "GIN_MODE", "SESSION_SECRET", "SESSION_BACKEND", "SESSION_TTL_MS",
		"USER_STORE", "BCRYPT_COST", "CORS_ALLOWED_ORIGINS",
	} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, BackendMongo, cfg.SessionBackend)
	assert.Equal(t, BackendMongo, cfg.UserStore)
	assert.Equal(t, time.Hour, cfg.SessionTTL)
	assert.Equal(t, 12, cfg.BcryptCost)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.AllowedOrigins())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("GIN_MODE", "debug")
	t.Setenv("PORT", "8081")
	t.Setenv("SESSION_BACKEND", "Redis")
	t.Setenv("SESSION_TTL_MS", "60000")
	t.Setenv("USER_STORE", "memory")
	t.Setenv("BCRYPT_COST", "not-a-number")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test, http://b.test,")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8081", cfg.Port)
	assert.Equal(t, BackendRedis, cfg.SessionBackend)
	assert.Equal(t, BackendMemory, cfg.UserStore)
	assert.Equal(t, time.Minute, cfg.SessionTTL)
	assert.Equal(t, 12, cfg.BcryptCost)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.AllowedOrigins())
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			GinMode:        "debug",
			SessionBackend: BackendMongo,
			UserStore:      BackendMongo,
			SessionTTL:     time.Hour,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "unknown session backend", mutate: func(c *Config) { c.SessionBackend = "file" }, wantErr: true},
		{name: "unknown user store", mutate: func(c *Config) { c.UserStore = "sqlite" }, wantErr: true},
		{name: "zero ttl", mutate: func(c *Config) { c.SessionTTL = 0 }, wantErr: true},
		{name: "postgres without dsn", mutate: func(c *Config) { c.UserStore = BackendPostgres }, wantErr: true},
		{name: "release without secret", mutate: func(c *Config) { c.GinMode = "release" }, wantErr: true},
		{name: "release with memory store", mutate: func(c *Config) {
			c.GinMode = "release"
			c.SessionSecret = "s3cret"
			c.SessionBackend = BackendMemory
		}, wantErr: true},
		{name: "release ok", mutate: func(c *Config) {
			c.GinMode = "release"
			c.SessionSecret = "s3cret"
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

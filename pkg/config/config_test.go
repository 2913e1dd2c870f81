package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "")
	t.Setenv("ENV", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, 8000, cfg.Port)
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, 24*time.Hour, cfg.JWT.Expiration)
	assert.Equal(t, time.Minute, cfg.Cache.TTL)
	assert.Equal(t, "https://www.google.com/recaptcha/api/siteverify", cfg.Recaptcha.VerifyURL)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DB_DRIVER", "MONGO")
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")
	t.Setenv("SUPERUSER_EMAIL", " Owner@Example.com ")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, http://b.test,,")
	t.Setenv("JWT_EXPIRATION", "2h")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, DriverMongo, cfg.Database.Driver)
	assert.Equal(t, "owner@example.com", cfg.SuperUserEmail)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, 2*time.Hour, cfg.JWT.Expiration)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Env:      EnvDevelopment,
			Port:     8000,
			Database: DatabaseConfig{Driver: DriverPostgres},
			JWT:      JWTConfig{Secret: "secret", Expiration: time.Hour},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid development config", mutate: func(c *Config) {}},
		{name: "bad port", mutate: func(c *Config) { c.Port = 0 }, wantErr: true},
		{name: "unknown driver", mutate: func(c *Config) { c.Database.Driver = "sqlite" }, wantErr: true},
		{name: "mongo without uri", mutate: func(c *Config) { c.Database.Driver = DriverMongo }, wantErr: true},
		{name: "production default secret", mutate: func(c *Config) {
			c.Env = EnvProduction
			c.JWT.Secret = defaultJWTSecret
		}, wantErr: true},
		{name: "production complete", mutate: func(c *Config) {
			c.Env = EnvProduction
			c.Google.ClientID = "client"
			c.Recaptcha.Secret = "captcha"
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Supported persistence backends.
const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

type Config struct {
	Env  string
	Port int

	Database  DatabaseConfig
	Mongo     MongoConfig
	Redis     RedisConfig
	Cache     CacheConfig
	JWT       JWTConfig
	Google    GoogleConfig
	Recaptcha RecaptchaConfig
	CORS      CORSConfig
	RateLimit RateLimitConfig
	Log       LogConfig

	// SuperUserEmail designates the single superuser account.
	SuperUserEmail string
}

type DatabaseConfig struct {
	Driver       string
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

// MongoConfig is used when Database.Driver is DriverMongo.
type MongoConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// CacheConfig governs caching of catalog listings.
type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
}

// GoogleConfig holds the OAuth client used to verify Google ID tokens.
type GoogleConfig struct {
	ClientID string
}

// RecaptchaConfig configures the reCAPTCHA v2 siteverify client.
type RecaptchaConfig struct {
	Secret    string
	VerifyURL string
	Timeout   time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

// RateLimitConfig bounds per-IP request rates on public mutating endpoints.
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

type LogConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.SuperUserEmail = strings.ToLower(strings.TrimSpace(v.GetString("SUPERUSER_EMAIL")))

	cfg.Database = DatabaseConfig{
		Driver:       strings.ToLower(v.GetString("DB_DRIVER")),
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Mongo = MongoConfig{
		URI:      v.GetString("MONGO_URI"),
		Database: v.GetString("MONGO_DATABASE"),
		Timeout:  parseDuration(v.GetString("MONGO_TIMEOUT"), 10*time.Second),
	}

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("REDIS_ENABLED"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.Cache = CacheConfig{
		Enabled: v.GetBool("CACHE_ENABLED"),
		TTL:     parseDuration(v.GetString("CACHE_TTL"), time.Minute),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
	}

	cfg.Google = GoogleConfig{ClientID: v.GetString("GOOGLE_CLIENT_ID")}

	cfg.Recaptcha = RecaptchaConfig{
		Secret:    v.GetString("RECAPTCHA_SECRET"),
		VerifyURL: v.GetString("RECAPTCHA_VERIFY_URL"),
		Timeout:   parseDuration(v.GetString("RECAPTCHA_TIMEOUT"), 5*time.Second),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.RateLimit = RateLimitConfig{
		RequestsPerSecond: v.GetFloat64("RATE_LIMIT_RPS"),
		Burst:             v.GetInt("RATE_LIMIT_BURST"),
	}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	if c.Port <= 0 {
		return errors.New("invalid port provided")
	}

	switch c.Database.Driver {
	case DriverPostgres:
	case DriverMongo:
		if c.Mongo.URI == "" {
			return errors.New("MONGO_URI is required when DB_DRIVER=mongo")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}

	if c.Env == EnvProduction {
		if c.JWT.Secret == "" || c.JWT.Secret == defaultJWTSecret {
			return errors.New("JWT_SECRET must be set in production")
		}
		if c.Google.ClientID == "" {
			return errors.New("GOOGLE_CLIENT_ID must be set in production")
		}
		if c.Recaptcha.Secret == "" {
			return errors.New("RECAPTCHA_SECRET must be set in production")
		}
	}

	if c.JWT.Expiration <= 0 {
		return errors.New("JWT_EXPIRATION must be positive")
	}

	return nil
}

const defaultJWTSecret = "dev_secret"

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8000)
	v.SetDefault("SUPERUSER_EMAIL", "")

	v.SetDefault("DB_DRIVER", DriverPostgres)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "fairu")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("MONGO_URI", "")
	v.SetDefault("MONGO_DATABASE", "fairu")
	v.SetDefault("MONGO_TIMEOUT", "10s")

	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("CACHE_ENABLED", true)
	v.SetDefault("CACHE_TTL", "1m")

	v.SetDefault("JWT_SECRET", defaultJWTSecret)
	v.SetDefault("JWT_EXPIRATION", "24h")

	v.SetDefault("GOOGLE_CLIENT_ID", "")

	v.SetDefault("RECAPTCHA_SECRET", "")
	v.SetDefault("RECAPTCHA_VERIFY_URL", "https://www.google.com/recaptcha/api/siteverify")
	v.SetDefault("RECAPTCHA_TIMEOUT", "5s")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("RATE_LIMIT_RPS", 2)
	v.SetDefault("RATE_LIMIT_BURST", 10)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

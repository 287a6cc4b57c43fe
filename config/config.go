package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig
	Backend   BackendConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Session   SessionConfig
	RateLimit RateLimitConfig
}

type AppConfig struct {
	Port          string
	Env           string
	LogLevel      string
	AllowedOrigin string
}

// IsProduction reports whether cookies must be marked Secure.
func (c AppConfig) IsProduction() bool {
	return c.Env == "production"
}

// BackendConfig describes the MedHead API the form submits to.
type BackendConfig struct {
	URL             string
	Timeout         time.Duration
	Token           string
	InsecureTLS     bool
	SimulateSuccess bool
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret       string
	Subject      string
	AccessExpiry time.Duration
}

type SessionConfig struct {
	TTL time.Duration
}

type RateLimitConfig struct {
	RPS   float64
	Burst int
	// TrustedProxies lists the IPs or CIDRs allowed to set X-Forwarded-For
	TrustedProxies []string
}

func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CORS_ALLOWED_ORIGIN", "*")
	v.SetDefault("BACKEND_URL", "https://localhost:8443")
	v.SetDefault("BACKEND_SIMULATE_SUCCESS", true)
	v.SetDefault("JWT_SUBJECT", "medhead-reservation")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("RATE_LIMIT_RPS", 5)
	v.SetDefault("RATE_LIMIT_BURST", 10)

	// .env is optional, plain environment variables are enough
	if err := v.ReadInConfig(); err != nil {
		var pathErr *fs.PathError
		if !errors.As(err, &pathErr) {
			return nil, err
		}
	}

	return &Config{
		App: AppConfig{
			Port:          v.GetString("APP_PORT"),
			Env:           v.GetString("APP_ENV"),
			LogLevel:      v.GetString("LOG_LEVEL"),
			AllowedOrigin: v.GetString("CORS_ALLOWED_ORIGIN"),
		},
		Backend: BackendConfig{
			URL:             v.GetString("BACKEND_URL"),
			Timeout:         parseDuration(v.GetString("BACKEND_TIMEOUT"), 10*time.Second),
			Token:           v.GetString("BACKEND_TOKEN"),
			InsecureTLS:     v.GetBool("BACKEND_INSECURE_TLS"),
			SimulateSuccess: v.GetBool("BACKEND_SIMULATE_SUCCESS"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetString("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		JWT: JWTConfig{
			Secret:       v.GetString("JWT_SECRET"),
			Subject:      v.GetString("JWT_SUBJECT"),
			AccessExpiry: parseDuration(v.GetString("JWT_ACCESS_EXPIRY"), 15*time.Minute),
		},
		Session: SessionConfig{
			TTL: parseDuration(v.GetString("SESSION_TTL"), 30*time.Minute),
		},
		RateLimit: RateLimitConfig{
			RPS:            v.GetFloat64("RATE_LIMIT_RPS"),
			Burst:          v.GetInt("RATE_LIMIT_BURST"),
			TrustedProxies: splitList(v.GetString("TRUSTED_PROXIES")),
		},
	}, nil
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// splitList parses a comma separated value, dropping empty entries
func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
// It is the single source of truth for runtime parameters.
type Config struct {
	Port      string
	Env       string
	JWTSecret string
	// APIKeys are the keys accepted on payment routes (PAYMENT_API_KEYS, comma separated).
	APIKeys []string
	// CORSAllowedHosts are admin dashboard hosts (CORS_ALLOWED_HOSTS).
	CORSAllowedHosts []string

	DB       DatabaseConfig
	Redis    RedisConfig
	Gateways GatewaysConfig
	Worker   WorkerConfig
	Admin    AdminConfig
}

// AdminConfig controls admin tokens, the bootstrap admin account and
// throttling of invalid API keys.
type AdminConfig struct {
	TokenTTL          time.Duration
	BootstrapEmail    string
	BootstrapPassword string
	InvalidAuthLimit  int
	InvalidAuthWindow time.Duration
}

// DatabaseConfig contains PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// RedisConfig contains Redis connection parameters.
type RedisConfig struct {
	Host      string
	Port      string
	Password  string
	DB        int
	KeyPrefix string // namespaces every key this service writes
}

// StripeConfig contains Stripe API credentials.
type StripeConfig struct {
	SecretKey string
	BaseURL   string
}

// PayPalConfig contains PayPal REST credentials.
type PayPalConfig struct {
	ClientID     string
	ClientSecret string
	BaseURL      string
}

// AuthorizeNetConfig contains Authorize.Net API credentials.
type AuthorizeNetConfig struct {
	LoginID        string
	TransactionKey string
	URL            string
}

// CyberSourceConfig contains CyberSource REST credentials.
type CyberSourceConfig struct {
	MerchantID   string
	KeyID        string
	SharedSecret string
	BaseURL      string
}

// GatewaysConfig holds the default provider credentials. Values stored on a
// gateway config record override these.
type GatewaysConfig struct {
	Sandbox      bool
	HTTPTimeout  time.Duration
	Stripe       StripeConfig
	PayPal       PayPalConfig
	AuthorizeNet AuthorizeNetConfig
	CyberSource  CyberSourceConfig
}

// WorkerConfig contains interval configuration for background workers.
type WorkerConfig struct {
	ConfigCacheTTL        time.Duration
	ConfigRefreshInterval time.Duration
}

// Load reads configuration from environment variables. If a .env file exists
// in the working directory, it will be loaded first. It returns a populated
// Config or an error with a human-friendly message.
func Load() (*Config, error) {
	// Production relies on real environment variables only.
	_ = godotenv.Load()

	cfg := &Config{}

	// Server
	cfg.Port = getEnv("PORT", "8080")
	cfg.Env = getEnv("ENV", "development")
	cfg.JWTSecret = getEnv("JWT_SECRET", "")
	cfg.APIKeys = splitList(getEnv("PAYMENT_API_KEYS", ""))
	cfg.CORSAllowedHosts = splitList(getEnv("CORS_ALLOWED_HOSTS", "localhost:3000,127.0.0.1:3000"))

	// Database
	cfg.DB = DatabaseConfig{
		Host:     getEnv("DB_HOST", ""),
		Port:     getEnv("DB_PORT", "5432"),
		User:     getEnv("DB_USER", ""),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", ""),
		SSLMode:  getEnv("DB_SSLMODE", "disable"),
	}

	// Redis
	cfg.Redis = RedisConfig{
		Host:      getEnv("REDIS_HOST", "redis"),
		Port:      getEnv("REDIS_PORT", "6379"),
		Password:  getEnv("REDIS_PASSWORD", ""),
		DB:        getEnvInt("REDIS_DB", 0),
		KeyPrefix: getEnv("REDIS_KEY_PREFIX", "payments:"),
	}

	// Gateways
	cfg.Gateways = GatewaysConfig{
		Sandbox: getEnvBool("GATEWAY_SANDBOX", cfg.Env != "production"),
		Stripe: StripeConfig{
			SecretKey: getEnv("STRIPE_SECRET_KEY", ""),
			BaseURL:   getEnv("STRIPE_BASE_URL", ""),
		},
		PayPal: PayPalConfig{
			ClientID:     getEnv("PAYPAL_CLIENT_ID", ""),
			ClientSecret: getEnv("PAYPAL_CLIENT_SECRET", ""),
			BaseURL:      getEnv("PAYPAL_BASE_URL", ""),
		},
		AuthorizeNet: AuthorizeNetConfig{
			LoginID:        getEnv("AUTHORIZENET_API_LOGIN_ID", ""),
			TransactionKey: getEnv("AUTHORIZENET_TRANSACTION_KEY", ""),
			URL:            getEnv("AUTHORIZENET_URL", ""),
		},
		CyberSource: CyberSourceConfig{
			MerchantID:   getEnv("CYBERSOURCE_MERCHANT_ID", ""),
			KeyID:        getEnv("CYBERSOURCE_KEY_ID", ""),
			SharedSecret: getEnv("CYBERSOURCE_SHARED_SECRET", ""),
			BaseURL:      getEnv("CYBERSOURCE_BASE_URL", ""),
		},
	}

	// Admin
	cfg.Admin = AdminConfig{
		BootstrapEmail:    getEnv("ADMIN_EMAIL", ""),
		BootstrapPassword: getEnv("ADMIN_PASSWORD", ""),
		InvalidAuthLimit:  getEnvInt("INVALID_AUTH_LIMIT", 20),
	}

	// Durations
	var err error
	if cfg.Admin.TokenTTL, err = parseDurationEnv("ADMIN_TOKEN_TTL", "24h"); err != nil {
		return nil, fmt.Errorf("invalid ADMIN_TOKEN_TTL: %w", err)
	}
	if cfg.Admin.InvalidAuthWindow, err = parseDurationEnv("INVALID_AUTH_WINDOW", "1m"); err != nil {
		return nil, fmt.Errorf("invalid INVALID_AUTH_WINDOW: %w", err)
	}
	if cfg.Gateways.HTTPTimeout, err = parseDurationEnv("PROVIDER_HTTP_TIMEOUT", "30s"); err != nil {
		return nil, fmt.Errorf("invalid PROVIDER_HTTP_TIMEOUT: %w", err)
	}
	if cfg.Worker.ConfigCacheTTL, err = parseDurationEnv("CONFIG_CACHE_TTL", "5m"); err != nil {
		return nil, fmt.Errorf("invalid CONFIG_CACHE_TTL: %w", err)
	}
	if cfg.Worker.ConfigRefreshInterval, err = parseDurationEnv("CONFIG_REFRESH_INTERVAL", "1m"); err != nil {
		return nil, fmt.Errorf("invalid CONFIG_REFRESH_INTERVAL: %w", err)
	}

	if cfg.DB.Host == "" || cfg.DB.User == "" || cfg.DB.Name == "" {
		return nil, errors.New("database configuration incomplete: ensure DB_HOST, DB_USER, and DB_NAME are set")
	}

	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET must be set for authentication")
	}

	if len(cfg.APIKeys) == 0 {
		return nil, errors.New("PAYMENT_API_KEYS must contain at least one key")
	}

	return cfg, nil
}

// IsProduction reports whether ENV is production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// getEnv returns the value of an environment variable or a default if empty.
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getEnvInt returns the value of an environment variable as an integer or a default if empty/invalid.
func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getEnvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// splitList splits a comma separated value, dropping blanks.
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseDurationEnv reads an environment variable and parses it as time.Duration.
// If the variable is empty, it falls back to the provided default value.
func parseDurationEnv(key, def string) (time.Duration, error) {
	raw := getEnv(key, def)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("duration must be >= 0")
	}
	return d, nil
}

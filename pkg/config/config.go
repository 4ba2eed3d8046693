package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config is the explicit application configuration, constructed once at
// process start and passed by reference to each component. Business logic
// never reads the environment directly.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Email    EmailConfig
	App      AppConfig
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port        string
	CORSOrigins string
	Env         string
}

// DatabaseConfig configures the Postgres connection pool.
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DSN returns the Postgres connection string.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

// RedisConfig configures the Redis client used for send rate limiting.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// Address returns the host:port address for the Redis client.
func (c *RedisConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// JWTConfig configures token signing. Tokens are signed with RS256; the key
// pair is provisioned out-of-band and referenced here by file path.
type JWTConfig struct {
	PrivateKeyPEM   []byte
	PublicKeyPEM    []byte
	Issuer          string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	OneTimeTokenTTL time.Duration
}

// EmailConfig configures the outbound email provider.
type EmailConfig struct {
	Provider    string // "ses" or "console"
	FromAddress string
	FromName    string
	AWSRegion   string
}

// AppConfig configures multi-tenancy behavior.
type AppConfig struct {
	// SingleApp bypasses the app-name header and auto-resolves a default app.
	SingleApp         bool
	DefaultAppName    string
	DefaultAppTitle   string
	ResendLimitWindow time.Duration
}

// Load builds the Config from the environment and validates it.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "8080"),
			CORSOrigins: getEnv("CORS_ORIGINS", "*"),
			Env:         getEnv("APP_ENV", "development"),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvInt("DB_PORT", 5432),
			User:            getEnv("DB_USER", "wakka"),
			Password:        getEnv("DB_PASSWORD", "wakka"),
			Name:            getEnv("DB_NAME", "wakka_auth"),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", time.Hour),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Issuer:          getEnv("JWT_ISSUER", "wakka-auth"),
			AccessTokenTTL:  getEnvDuration("JWT_ACCESS_TOKEN_TTL", 15*time.Minute),
			RefreshTokenTTL: getEnvDuration("JWT_REFRESH_TOKEN_TTL", 7*24*time.Hour),
			OneTimeTokenTTL: getEnvDuration("JWT_ONE_TIME_TOKEN_TTL", 30*time.Minute),
		},
		Email: EmailConfig{
			Provider:    getEnv("EMAIL_PROVIDER", "console"),
			FromAddress: getEnv("EMAIL_FROM_ADDRESS", "noreply@wakka.dev"),
			FromName:    getEnv("EMAIL_FROM_NAME", "Wakka Auth"),
			AWSRegion:   getEnv("AWS_REGION", "us-east-1"),
		},
		App: AppConfig{
			SingleApp:         getEnvBool("SINGLE_APP", false),
			DefaultAppName:    getEnv("DEFAULT_APP_NAME", "default"),
			DefaultAppTitle:   getEnv("DEFAULT_APP_TITLE", "Default"),
			ResendLimitWindow: getEnvDuration("EMAIL_RESEND_LIMIT_WINDOW", time.Minute),
		},
	}

	privateKey, err := os.ReadFile(getEnv("JWT_PRIVATE_KEY_PATH", "keys/jwt_private.pem"))
	if err != nil {
		return nil, fmt.Errorf("read jwt private key: %w", err)
	}
	publicKey, err := os.ReadFile(getEnv("JWT_PUBLIC_KEY_PATH", "keys/jwt_public.pem"))
	if err != nil {
		return nil, fmt.Errorf("read jwt public key: %w", err)
	}
	cfg.JWT.PrivateKeyPEM = privateKey
	cfg.JWT.PublicKeyPEM = publicKey

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field invariants.
func (c *Config) Validate() error {
	if c.JWT.RefreshTokenTTL < c.JWT.AccessTokenTTL {
		return fmt.Errorf("refresh token TTL (%s) must not be shorter than access token TTL (%s)",
			c.JWT.RefreshTokenTTL, c.JWT.AccessTokenTTL)
	}
	if c.JWT.Issuer == "" {
		return fmt.Errorf("JWT issuer must not be empty")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

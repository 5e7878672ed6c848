package config

import (
	"os"
	"strconv"
)

type Config struct {
	Server   ServerConfig
	Auth     AuthConfig
	Fyers    FyersConfig
	Refresh  RefreshConfig
	User     UserConfig
	Postgres PostgresConfig
}

type ServerConfig struct {
	Port string
}

type AuthConfig struct {
	JWTSecret    string
	JWTAccessTTL string
}

type FyersConfig struct {
	BaseURL string
	AuthURL string
	Timeout string
}

type RefreshConfig struct {
	SweepInterval string
}

// UserConfig pins the single tenant of this deployment to a fixed user id.
// The row is seeded at startup when missing.
type UserConfig struct {
	DefaultUserID int64
	Name          string
	Email         string
}

type PostgresConfig struct {
	DatabaseURL string
	Host        string
	Port        string
	User        string
	Password    string
	Database    string
	SSLMode     string
}

func Load() Config {
	return Config{
		Server: ServerConfig{
			Port: getenv("PORT", "8080"),
		},
		Auth: AuthConfig{
			JWTSecret:    os.Getenv("JWT_SECRET"),
			JWTAccessTTL: getenv("JWT_ACCESS_TTL", "60m"),
		},
		Fyers: FyersConfig{
			BaseURL: getenv("FYERS_BASE_URL", "https://api.fyers.in/api/v3"),
			AuthURL: getenv("FYERS_AUTH_URL", "https://api.fyers.in/api/v3/generate-authcode"),
			Timeout: getenv("FYERS_TIMEOUT", "15s"),
		},
		Refresh: RefreshConfig{
			SweepInterval: getenv("TOKEN_SWEEP_INTERVAL", "15m"),
		},
		User: UserConfig{
			DefaultUserID: getenvInt64("DEFAULT_USER_ID", 1),
			Name:          getenv("DEFAULT_USER_NAME", "Trader"),
			Email:         getenv("DEFAULT_USER_EMAIL", "trader@localhost"),
		},
		Postgres: PostgresConfig{
			DatabaseURL: os.Getenv("DATABASE_URL"),
			Host:        getenv("PGHOST", "localhost"),
			Port:        getenv("PGPORT", "5432"),
			User:        os.Getenv("PGUSER"),
			Password:    os.Getenv("PGPASSWORD"),
			Database:    os.Getenv("PGDATABASE"),
			SSLMode:     getenv("PGSSLMODE", "disable"),
		},
	}
}

func getenv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getenvInt64(key string, fallback int64) int64 {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

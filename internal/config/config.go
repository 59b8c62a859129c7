// Package config loads service settings from the environment (and an
// optional .env file) through viper.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// DatabaseConfig describes the relational store and its connection pool.
type DatabaseConfig struct {
	Driver          string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxIdleTime time.Duration
	ConnectRetries  uint64
}

// Config holds every setting used by the auth and catalog services.
type Config struct {
	Env      string
	LogLevel string

	AuthAddr    string
	CatalogAddr string
	CORSOrigins string

	Database DatabaseConfig

	// JWTSecret signs and checks tokens. Never log it.
	JWTSecret      string
	JWTTTL         time.Duration
	LoginRateLimit int

	AuthServiceURL    string
	AuthVerifyTimeout time.Duration

	RabbitMQURL string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", EnvDevelopment)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("AUTH_PORT", ":5001")
	v.SetDefault("CATALOG_PORT", ":5002")
	v.SetDefault("CORS_ORIGINS", "*")
	v.SetDefault("DATABASE_DRIVER", DriverPostgres)
	v.SetDefault("DATABASE_DSN", "host=localhost user=postgres password=postgres dbname=pern_app port=5432 sslmode=disable")
	v.SetDefault("DATABASE_MAX_OPEN_CONNS", 10)
	v.SetDefault("DATABASE_MAX_IDLE_CONNS", 5)
	v.SetDefault("DATABASE_CONN_MAX_IDLE_TIME", "10s")
	v.SetDefault("DATABASE_CONNECT_RETRIES", 5)
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_TTL", "24h")
	v.SetDefault("LOGIN_RATE_LIMIT", 20)
	v.SetDefault("AUTH_SERVICE_URL", "http://localhost:5001")
	v.SetDefault("AUTH_VERIFY_TIMEOUT", "5s")
	v.SetDefault("RABBITMQ_URL", "")
}

// Load reads the configuration. A .env file in the working directory is
// applied first when present; real environment variables win over it.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()
	return FromViper(v)
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Env:         strings.ToLower(v.GetString("APP_ENV")),
		LogLevel:    v.GetString("LOG_LEVEL"),
		AuthAddr:    v.GetString("AUTH_PORT"),
		CatalogAddr: v.GetString("CATALOG_PORT"),
		CORSOrigins: v.GetString("CORS_ORIGINS"),
		Database: DatabaseConfig{
			Driver:          strings.ToLower(v.GetString("DATABASE_DRIVER")),
			DSN:             v.GetString("DATABASE_DSN"),
			MaxOpenConns:    v.GetInt("DATABASE_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DATABASE_MAX_IDLE_CONNS"),
			ConnMaxIdleTime: v.GetDuration("DATABASE_CONN_MAX_IDLE_TIME"),
			ConnectRetries:  v.GetUint64("DATABASE_CONNECT_RETRIES"),
		},
		JWTSecret:         strings.TrimSpace(v.GetString("JWT_SECRET")),
		JWTTTL:            v.GetDuration("JWT_TTL"),
		LoginRateLimit:    v.GetInt("LOGIN_RATE_LIMIT"),
		AuthServiceURL:    strings.TrimRight(v.GetString("AUTH_SERVICE_URL"), "/"),
		AuthVerifyTimeout: v.GetDuration("AUTH_VERIFY_TIMEOUT"),
		RabbitMQURL:       v.GetString("RABBITMQ_URL"),
	}

	if err := cfg.validateCommon(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// IsDevelopment reports whether internal error details may be exposed.
func (c *Config) IsDevelopment() bool {
	return c.Env == EnvDevelopment
}

func (c *Config) validateCommon() error {
	switch c.Database.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("DATABASE_DRIVER must be %q or %q, got %q", DriverPostgres, DriverSQLite, c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return errors.New("DATABASE_DSN is required")
	}
	return nil
}

// ValidateAuth checks the settings the auth service cannot start without.
func (c *Config) ValidateAuth() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.JWTTTL <= 0 {
		return errors.New("JWT_TTL must be positive")
	}
	if c.AuthAddr == "" {
		return errors.New("AUTH_PORT cannot be empty")
	}
	return nil
}

// ValidateCatalog checks the settings the catalog service cannot start without.
func (c *Config) ValidateCatalog() error {
	if c.AuthServiceURL == "" {
		return errors.New("AUTH_SERVICE_URL is required")
	}
	if !strings.HasPrefix(c.AuthServiceURL, "http://") && !strings.HasPrefix(c.AuthServiceURL, "https://") {
		return fmt.Errorf("AUTH_SERVICE_URL must be an http(s) URL, got %q", c.AuthServiceURL)
	}
	if c.AuthVerifyTimeout <= 0 {
		return errors.New("AUTH_VERIFY_TIMEOUT must be positive")
	}
	if c.CatalogAddr == "" {
		return errors.New("CATALOG_PORT cannot be empty")
	}
	return nil
}

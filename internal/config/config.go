// Package config loads runtime settings from the environment (and an optional
// config.yaml file) through viper and validates them.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Database drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// Config is the root configuration object for the application.
type Config struct {
	AppPort         string         `mapstructure:"APP_PORT" validate:"required"`
	ShutdownTimeout time.Duration  `mapstructure:"SHUTDOWN_TIMEOUT" validate:"gt=0"`
	LogLevel        string         `mapstructure:"LOG_LEVEL"`
	LogFormat       string         `mapstructure:"LOG_FORMAT" validate:"oneof=json console"`
	SeedProducts    bool           `mapstructure:"SEED_PRODUCTS"`
	RabbitMQURL     string         `mapstructure:"RABBITMQ_URL" validate:"omitempty,url"`
	Database        DatabaseConfig `mapstructure:",squash"`
}

// DatabaseConfig selects and tunes the storage backend.
type DatabaseConfig struct {
	Driver       string `mapstructure:"DATABASE_DRIVER" validate:"oneof=postgres sqlite memory"`
	DSN          string `mapstructure:"DATABASE_DSN" validate:"required_unless=Driver memory"`
	MaxOpenConns int    `mapstructure:"DATABASE_MAX_OPEN_CONNS" validate:"gte=0"`
	MaxIdleConns int    `mapstructure:"DATABASE_MAX_IDLE_CONNS" validate:"gte=0"`
}

// EventsEnabled reports whether product events should be published.
func (c *Config) EventsEnabled() bool {
	return c.RabbitMQURL != ""
}

// SetDefaults registers the default value of every setting on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("SHUTDOWN_TIMEOUT", 10*time.Second)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("SEED_PRODUCTS", false)
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("DATABASE_DRIVER", DriverPostgres)
	v.SetDefault("DATABASE_DSN", "host=127.0.0.1 user=postgres password=postgres dbname=produtos port=5432 sslmode=disable")
	v.SetDefault("DATABASE_MAX_OPEN_CONNS", 10)
	v.SetDefault("DATABASE_MAX_IDLE_CONNS", 5)
}

// Load reads configuration into a Config. Environment variables win over the
// optional config file, which wins over defaults.
func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	if v.ConfigFileUsed() == "" {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.AllowEmptyEnv(true)
	// Every key has a default, so AutomaticEnv sees all of them on Unmarshal.
	v.AutomaticEnv()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

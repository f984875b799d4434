package backend

import (
	"fmt"
	"time"

	"bills/internal/config"

	"github.com/shopspring/decimal"
)

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	SQLiteDBPath string
	SeedFile     string
	Budget       decimal.Decimal

	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	RedisURL     string
	CacheSize    int
	CacheTTL     time.Duration
	CacheCleanup time.Duration
}

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	backendType := BackendType(appConfig.DataBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}

	return Config{
		Type:         backendType,
		SQLiteDBPath: appConfig.SQLiteDBPath,
		SeedFile:     appConfig.SeedFile,
		Budget:       appConfig.Budget(),
		AMQPURL:      appConfig.AMQPURL,
		AMQPExchange: appConfig.AMQPExchange,
		AMQPQueue:    appConfig.AMQPQueue,
		RedisURL:     appConfig.RedisURL,
		CacheSize:    64,
		CacheTTL:     5 * time.Minute,
		CacheCleanup: time.Minute,
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}
	if c.Type == SQLiteBackend && c.SQLiteDBPath == "" {
		return fmt.Errorf("SQLite database path is required for sqlite backend")
	}
	if c.Budget.IsNegative() {
		return fmt.Errorf("default budget must not be negative")
	}
	return nil
}

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

type Config struct {
	HTTPAddr        string        `env:"HTTP_ADDR" envDefault:":8080"`
	GRPCAddr        string        `env:"GRPC_ADDR" envDefault:":50051"`
	StorageDriver   string        `env:"STORAGE_DRIVER" envDefault:"sqlite"`
	MySQLDSN        string        `env:"MYSQL_DSN"`
	SQLitePath      string        `env:"SQLITE_PATH" envDefault:"data/listings.db"`
	DBMaxOpenConns  int           `env:"DB_MAX_OPEN_CONNS" envDefault:"50"`
	RedisAddr       string        `env:"REDIS_ADDR"`
	CacheTTL        time.Duration `env:"CACHE_TTL" envDefault:"10m"`
	LockTimeout     time.Duration `env:"LOCK_TIMEOUT" envDefault:"60s"`
	LogMode         string        `env:"LOG_MODE" envDefault:"dev"`
	OTelEndpoint    string        `env:"OTEL_ENDPOINT"`
	ServiceName     string        `env:"SERVICE_NAME" envDefault:"estate-listings"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"5s"`
}

// Load reads LISTINGS_* environment variables.
func Load() (Config, error) {
	cfg, err := env.ParseAsWithOptions[Config](env.Options{Prefix: "LISTINGS_"})
	if err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch strings.ToLower(c.StorageDriver) {
	case DriverSQLite:
		if strings.TrimSpace(c.SQLitePath) == "" {
			return fmt.Errorf("sqlite path is required")
		}
	case DriverMySQL:
		if strings.TrimSpace(c.MySQLDSN) == "" {
			return fmt.Errorf("mysql dsn is required")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.StorageDriver)
	}
	if c.LockTimeout <= 0 {
		return fmt.Errorf("lock timeout must be positive")
	}
	return nil
}

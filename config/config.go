// Package config loads runtime settings from HRDESK_* environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Prefix is prepended to every variable name, e.g. HRDESK_ADDR.
const Prefix = "HRDESK"

// Config holds the runtime configuration.
type Config struct {
	Addr         string        `envconfig:"ADDR" default:":8080"`
	ReadTimeout  time.Duration `envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout time.Duration `envconfig:"WRITE_TIMEOUT" default:"30s"`

	DBDriver string `envconfig:"DB_DRIVER" default:"sqlite3"`
	DBDSN    string `envconfig:"DB_DSN" default:"hrdesk.db"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"console"`

	// Empty means the in-process change bus.
	RedisAddr string `envconfig:"REDIS_ADDR"`

	CompanyName         string        `envconfig:"COMPANY_NAME" default:"My Company"`
	DocumentWarningDays int           `envconfig:"DOCUMENT_WARNING_DAYS" default:"30"`
	ExpirySweepInterval time.Duration `envconfig:"EXPIRY_SWEEP_INTERVAL" default:"1h"`
	FiscalStartMonth    int           `envconfig:"FISCAL_START_MONTH" default:"1"`

	AdminEmail    string `envconfig:"ADMIN_EMAIL"`
	AdminPassword string `envconfig:"ADMIN_PASSWORD"`

	CORSOrigins     []string `envconfig:"CORS_ORIGINS" default:"http://localhost:5173"`
	IntakeRateLimit int      `envconfig:"INTAKE_RATE_LIMIT" default:"10"` // requests per minute per IP
	Production      bool     `envconfig:"PRODUCTION"`
}

// Load reads the environment and validates the result.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to read configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values envconfig cannot.
func (c *Config) Validate() error {
	switch c.DBDriver {
	case "sqlite3", "pgx":
	default:
		return fmt.Errorf("HRDESK_DB_DRIVER must be sqlite3 or pgx, got %q", c.DBDriver)
	}
	switch strings.ToLower(c.LogFormat) {
	case "console", "json":
	default:
		return fmt.Errorf("HRDESK_LOG_FORMAT must be console or json, got %q", c.LogFormat)
	}
	if c.DocumentWarningDays < 0 || c.DocumentWarningDays > 365 {
		return fmt.Errorf("HRDESK_DOCUMENT_WARNING_DAYS must be between 0 and 365")
	}
	if c.FiscalStartMonth < 1 || c.FiscalStartMonth > 12 {
		return fmt.Errorf("HRDESK_FISCAL_START_MONTH must be between 1 and 12")
	}
	if c.IntakeRateLimit <= 0 {
		return fmt.Errorf("HRDESK_INTAKE_RATE_LIMIT must be positive")
	}
	if (c.AdminEmail == "") != (c.AdminPassword == "") {
		return fmt.Errorf("HRDESK_ADMIN_EMAIL and HRDESK_ADMIN_PASSWORD must be set together")
	}
	return nil
}

package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"replipack/internal/errors"
)

// Config represents the service-level configuration: everything that is not
// part of a run's scientific parameters (those live in artefact.RunConfig).
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Export   ExportConfig
}

// DatabaseConfig holds the optional run-ledger connection settings. An empty
// URL disables the ledger entirely.
type DatabaseConfig struct {
	URL     string
	Enabled bool
}

// ServerConfig holds the artefact inspection server settings.
type ServerConfig struct {
	Addr string
}

// ExportConfig holds table export settings.
type ExportConfig struct {
	ExcelEnabled bool
}

// Load reads configuration from the environment, with an optional .env file.
func Load() (*Config, error) {
	// .env is a convenience for local use; absence is not an error.
	_ = godotenv.Load()

	cfg := &Config{
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		Server: ServerConfig{
			Addr: getEnvOrDefault("SERVE_ADDR", ":8093"),
		},
		Export: ExportConfig{
			ExcelEnabled: getEnvBoolOrDefault("EXPORT_XLSX", false),
		},
	}
	cfg.Database.Enabled = cfg.Database.URL != ""

	if err := validate(cfg); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.Server.Addr == "" {
		return errors.ConfigInvalid("SERVE_ADDR cannot be empty")
	}
	return nil
}

func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvBoolOrDefault(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}

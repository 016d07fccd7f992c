package config

import (
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("SERVE_ADDR", "")
	t.Setenv("EXPORT_XLSX", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Database.Enabled {
		t.Error("ledger should be disabled without DATABASE_URL")
	}
	if cfg.Server.Addr != ":8093" {
		t.Errorf("addr = %q, want :8093", cfg.Server.Addr)
	}
	if cfg.Export.ExcelEnabled {
		t.Error("excel export should default off")
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/replipack")
	t.Setenv("SERVE_ADDR", ":9000")
	t.Setenv("EXPORT_XLSX", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if !cfg.Database.Enabled || cfg.Database.URL != "postgres://localhost/replipack" {
		t.Errorf("database config not picked up: %+v", cfg.Database)
	}
	if cfg.Server.Addr != ":9000" {
		t.Errorf("addr = %q, want :9000", cfg.Server.Addr)
	}
	if !cfg.Export.ExcelEnabled {
		t.Error("EXPORT_XLSX=true should enable the excel export")
	}
}

func TestGetEnvBoolOrDefault(t *testing.T) {
	t.Setenv("REPLIPACK_TEST_BOOL", "not-a-bool")
	if getEnvBoolOrDefault("REPLIPACK_TEST_BOOL", false) {
		t.Error("unparseable value should fall back to the default")
	}
}

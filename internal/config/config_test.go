package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_RequiresDatabaseURL(t *testing.T) {
	// Clear any existing env vars
	t.Setenv("DATABASE_URL", "")

	_, err := Load("")
	if err == nil {
		t.Error("expected error when DATABASE_URL is missing")
	}
	if err.Error() != "database_url is required (env: DATABASE_URL)" {
		t.Errorf("unexpected error message: %v", err)
	}
}

func TestLoad_DefaultValues(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/test")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Check defaults
	if cfg.HTTPPort != 7070 {
		t.Errorf("expected HTTPPort 7070, got %d", cfg.HTTPPort)
	}
	if cfg.SweepSchedule != "0 6 * * *" {
		t.Errorf("expected daily 06:00 schedule, got %s", cfg.SweepSchedule)
	}
	if cfg.SweepConcurrency != 4 {
		t.Errorf("expected SweepConcurrency 4, got %d", cfg.SweepConcurrency)
	}
	if cfg.MaxCatchUp != 24 {
		t.Errorf("expected MaxCatchUp 24, got %d", cfg.MaxCatchUp)
	}
	if cfg.StaleClaimAfter != 10*time.Minute {
		t.Errorf("expected StaleClaimAfter 10m, got %v", cfg.StaleClaimAfter)
	}
	if cfg.HistorySize != 100 {
		t.Errorf("expected HistorySize 100, got %d", cfg.HistorySize)
	}
	if cfg.OTELEndpoint != "localhost:4317" {
		t.Errorf("expected OTELEndpoint localhost:4317, got %s", cfg.OTELEndpoint)
	}
	if cfg.SchedulerURL != "http://localhost:7070" {
		t.Errorf("expected SchedulerURL http://localhost:7070, got %s", cfg.SchedulerURL)
	}
}

func TestLoad_EnvVarOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://custom/db")
	t.Setenv("PORT", "9999")
	t.Setenv("SWEEP_SCHEDULE", "30 2 * * *")
	t.Setenv("SWEEP_CONCURRENCY", "8")
	t.Setenv("STALE_CLAIM_AFTER", "5m")
	t.Setenv("HISTORY_SIZE", "50")
	t.Setenv("SYSTEM_SECRET", "hunter2")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "otel-collector:4317")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.DatabaseURL != "postgres://custom/db" {
		t.Errorf("expected DatabaseURL from env, got %s", cfg.DatabaseURL)
	}
	if cfg.HTTPPort != 9999 {
		t.Errorf("expected HTTPPort 9999, got %d", cfg.HTTPPort)
	}
	if cfg.SweepSchedule != "30 2 * * *" {
		t.Errorf("expected SweepSchedule 30 2 * * *, got %s", cfg.SweepSchedule)
	}
	if cfg.SweepConcurrency != 8 {
		t.Errorf("expected SweepConcurrency 8, got %d", cfg.SweepConcurrency)
	}
	if cfg.StaleClaimAfter != 5*time.Minute {
		t.Errorf("expected StaleClaimAfter 5m, got %v", cfg.StaleClaimAfter)
	}
	if cfg.HistorySize != 50 {
		t.Errorf("expected HistorySize 50, got %d", cfg.HistorySize)
	}
	if cfg.SystemSecret != "hunter2" {
		t.Errorf("expected SystemSecret from env, got %s", cfg.SystemSecret)
	}
	if cfg.OTELEndpoint != "otel-collector:4317" {
		t.Errorf("expected OTELEndpoint otel-collector:4317, got %s", cfg.OTELEndpoint)
	}
}

func TestLoad_InvalidSweepSchedule(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/test")
	t.Setenv("SWEEP_SCHEDULE", "not a cron spec")

	_, err := Load("")
	if err == nil {
		t.Error("expected error for invalid sweep schedule")
	}
}

func TestLoad_InvalidConcurrency(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/test")
	t.Setenv("SWEEP_CONCURRENCY", "0")

	_, err := Load("")
	if err == nil {
		t.Error("expected error for zero concurrency")
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	// Create temp config file
	tmpFile, err := os.CreateTemp("", "finsweep-test-*.yaml")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	defer os.Remove(tmpFile.Name())

	configContent := `
database_url: "postgres://config-file/db"
http_port: 7777
sweep_concurrency: 10
sweep_schedule: "0 3 * * *"
`
	if _, err := tmpFile.WriteString(configContent); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	tmpFile.Close()

	// Clear env vars that would override
	t.Setenv("DATABASE_URL", "")
	t.Setenv("PORT", "")
	t.Setenv("SWEEP_CONCURRENCY", "")
	t.Setenv("SWEEP_SCHEDULE", "")

	cfg, err := Load(tmpFile.Name())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.DatabaseURL != "postgres://config-file/db" {
		t.Errorf("expected DatabaseURL from config file, got %s", cfg.DatabaseURL)
	}
	if cfg.HTTPPort != 7777 {
		t.Errorf("expected HTTPPort 7777, got %d", cfg.HTTPPort)
	}
	if cfg.SweepConcurrency != 10 {
		t.Errorf("expected SweepConcurrency 10, got %d", cfg.SweepConcurrency)
	}
	if cfg.SweepSchedule != "0 3 * * *" {
		t.Errorf("expected SweepSchedule 0 3 * * *, got %s", cfg.SweepSchedule)
	}
}

func TestLoad_EnvOverridesConfigFile(t *testing.T) {
	// Create temp config file
	tmpFile, err := os.CreateTemp("", "finsweep-test-*.yaml")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	defer os.Remove(tmpFile.Name())

	configContent := `
database_url: "postgres://from-file/db"
http_port: 7777
`
	if _, err := tmpFile.WriteString(configContent); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	tmpFile.Close()

	// Set env var to override config file
	t.Setenv("DATABASE_URL", "postgres://from-env/db")
	t.Setenv("PORT", "8888")

	cfg, err := Load(tmpFile.Name())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Env should override config file
	if cfg.DatabaseURL != "postgres://from-env/db" {
		t.Errorf("expected DatabaseURL from env, got %s", cfg.DatabaseURL)
	}
	if cfg.HTTPPort != 8888 {
		t.Errorf("expected HTTPPort 8888 from env, got %d", cfg.HTTPPort)
	}
}

func TestLoad_InvalidConfigFile(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/test")

	_, err := Load("/nonexistent/path/to/config.yaml")
	if err == nil {
		t.Error("expected error for nonexistent config file")
	}
}

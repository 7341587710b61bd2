// Package config handles configuration loading from an optional YAML file
// and environment variables, with the environment taking precedence.
package config

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

// Config holds all configuration values for the application.
type Config struct {
	// Database connection string
	DatabaseURL string

	// HTTP server port for the scheduler
	HTTPPort int

	// Cron expression for the scheduled sweep
	SweepSchedule string

	// Rules processed in parallel within one sweep
	SweepConcurrency int

	// Occurrences an overdue rule may catch up per sweep
	MaxCatchUp int

	// Age after which a processing claim is considered abandoned
	StaleClaimAfter time.Duration

	// Execution records retained in memory
	HistorySize int

	// Bearer secret for the internal trigger endpoint
	SystemSecret string

	// OTLP collector address for traces
	OTELEndpoint string

	// Base URL of the scheduler API (used by the CLI)
	SchedulerURL string
}

// Load reads configuration from the given YAML file (or finsweep.yaml in the
// current directory when path is empty) and from environment variables.
// Environment variables override file values.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("http_port", 7070)
	v.SetDefault("sweep_schedule", "0 6 * * *") // Daily at 06:00
	v.SetDefault("sweep_concurrency", 4)
	v.SetDefault("sweep_max_catch_up", 24)
	v.SetDefault("stale_claim_after", 10*time.Minute)
	v.SetDefault("history_size", 100)
	v.SetDefault("otel_endpoint", "localhost:4317")
	v.SetDefault("scheduler_url", "http://localhost:7070")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	} else {
		v.SetConfigName("finsweep")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		// Optional when no explicit path was given.
		_ = v.ReadInConfig()
	}

	bindings := map[string]string{
		"database_url":       "DATABASE_URL",
		"http_port":          "PORT",
		"sweep_schedule":     "SWEEP_SCHEDULE",
		"sweep_concurrency":  "SWEEP_CONCURRENCY",
		"sweep_max_catch_up": "SWEEP_MAX_CATCH_UP",
		"stale_claim_after":  "STALE_CLAIM_AFTER",
		"history_size":       "HISTORY_SIZE",
		"system_secret":      "SYSTEM_SECRET",
		"otel_endpoint":      "OTEL_EXPORTER_OTLP_ENDPOINT",
		"scheduler_url":      "SCHEDULER_URL",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("binding %s: %w", env, err)
		}
	}

	cfg := &Config{
		DatabaseURL:      v.GetString("database_url"),
		HTTPPort:         v.GetInt("http_port"),
		SweepSchedule:    v.GetString("sweep_schedule"),
		SweepConcurrency: v.GetInt("sweep_concurrency"),
		MaxCatchUp:       v.GetInt("sweep_max_catch_up"),
		StaleClaimAfter:  v.GetDuration("stale_claim_after"),
		HistorySize:      v.GetInt("history_size"),
		SystemSecret:     v.GetString("system_secret"),
		OTELEndpoint:     v.GetString("otel_endpoint"),
		SchedulerURL:     v.GetString("scheduler_url"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("database_url is required (env: DATABASE_URL)")
	}
	// Validate the sweep schedule up front so a bad expression fails at
	// boot rather than at first trigger.
	if _, err := cron.ParseStandard(cfg.SweepSchedule); err != nil {
		return nil, fmt.Errorf("invalid sweep_schedule %q: %w", cfg.SweepSchedule, err)
	}
	if cfg.SweepConcurrency < 1 {
		return nil, fmt.Errorf("sweep_concurrency must be at least 1, got %d", cfg.SweepConcurrency)
	}

	return cfg, nil
}

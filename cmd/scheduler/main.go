// Package main is the entry point for the finsweep scheduler.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"finsweep/internal/config"
	"finsweep/internal/engine"
	"finsweep/internal/logger"
	"finsweep/internal/observability"
	"finsweep/internal/server"
	"finsweep/internal/store/postgres"
	"finsweep/internal/tracker"
)

func main() {
	// Parse flags
	migrateFlag := flag.Bool("migrate", false, "Run database migrations before starting")
	configPath := flag.String("config", "", "Path to config file (default: finsweep.yaml in current directory)")
	flag.Parse()

	// Load Config
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	slogger := logger.New()

	// Setup Database
	ctx := context.Background()
	st, err := postgres.New(ctx, cfg.DatabaseURL,
		postgres.WithStaleClaimAfter(cfg.StaleClaimAfter),
	)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer st.Close()

	// Run migrations if requested
	if *migrateFlag {
		log.Println("Running database migrations...")
		if err := postgres.Migrate(st.DB()); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		log.Println("Migrations completed successfully")
	}

	// Tracing
	shutdownTracer, err := observability.InitTracer(ctx, "finsweep-scheduler", cfg.OTELEndpoint)
	if err != nil {
		log.Fatalf("Failed to init tracing: %v", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			log.Printf("Failed to shutdown tracer: %v", err)
		}
	}()

	// Metrics
	metricsHandler, shutdownMetrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatalf("Failed to init metrics: %v", err)
	}
	defer func() {
		if err := shutdownMetrics(context.Background()); err != nil {
			log.Printf("Failed to shutdown metrics: %v", err)
		}
	}()

	// Due backlog gauge, queried only when scraped.
	err = observability.RegisterBacklogGauge("finsweep-scheduler", func(ctx context.Context) (int64, error) {
		return st.CountDueRules(ctx, time.Now())
	}, slogger)
	if err != nil {
		log.Printf("Failed to register backlog gauge: %v", err)
	}

	// Sweep engine and execution tracker
	tr := tracker.New(slogger, tracker.WithCapacity(cfg.HistorySize))
	sweeper := engine.New(st, tr, slogger,
		engine.WithConcurrency(cfg.SweepConcurrency),
		engine.WithMaxCatchUp(cfg.MaxCatchUp),
	)

	// Scheduled sweep
	c := cron.New()
	_, err = c.AddFunc(cfg.SweepSchedule, func() {
		if _, err := sweeper.RunSweep(ctx, time.Now()); err != nil {
			slogger.Error("scheduled sweep failed", "err", err.Error())
		}
	})
	if err != nil {
		log.Fatalf("Failed to schedule sweep: %v", err)
	}
	c.Start()
	defer c.Stop()

	// Start Server
	addr := fmt.Sprintf(":%d", cfg.HTTPPort)
	srv := server.New(addr, st, sweeper, tr, cfg, metricsHandler, slogger)

	go func() {
		log.Printf("Finsweep scheduler starting on %s (sweep schedule %q)", addr, cfg.SweepSchedule)
		if err := srv.Run(ctx); err != nil {
			log.Printf("Server stopped: %v", err)
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down scheduler...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
	log.Println("Server exited properly")
}

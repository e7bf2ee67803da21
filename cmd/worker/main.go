package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gymtrack_app_echo/internal/app"
	"gymtrack_app_echo/internal/config"
	"gymtrack_app_echo/internal/logger"
	"gymtrack_app_echo/internal/metrics"
)

// The worker runs the scheduler without the web app. Use it with
// SCHEDULER_ENABLED=false on the server so only one process ticks.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logg := logger.New(cfg.Env)

	// Create context that cancels on interrupt
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logg)
	if err != nil {
		log.Fatalf("Failed to initialize app: %v", err)
	}
	defer a.Close()

	sched, err := a.Schedule()
	if err != nil {
		log.Fatalf("Invalid SCHEDULER_RRULE: %v", err)
	}

	port := os.Getenv("WORKER_PORT")
	if port == "" {
		port = "9090"
	}
	srv := metrics.NewServer(":"+port, cfg.MetricsEnabled)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error("metrics server failed", "err", err)
		}
	}()

	logg.Info("worker started", "rrule", cfg.Scheduler.RRule, "daily_hour", cfg.Scheduler.DailyAt)
	a.Runner.Start(ctx, sched, cfg.Scheduler.RunOnBoot)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	logg.Info("worker stopped")
}

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

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"gymtrack_app_echo/internal/app"
	"gymtrack_app_echo/internal/config"
	"gymtrack_app_echo/internal/handlers"
	"gymtrack_app_echo/internal/logger"
	authMiddleware "gymtrack_app_echo/internal/middleware"
	"gymtrack_app_echo/web"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logg := logger.New(cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logg)
	if err != nil {
		log.Fatalf("Failed to initialize app: %v", err)
	}
	defer a.Close()

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.HTTPErrorHandler = authMiddleware.CustomErrorHandler

	// Template renderer with per-page cloning
	renderer, err := web.NewTemplateRenderer(web.Templates(), a.Location)
	if err != nil {
		log.Fatalf("Failed to parse templates: %v", err)
	}
	e.Renderer = renderer

	// Static file serving
	e.StaticFS("/static", web.Static())

	if cfg.MetricsEnabled {
		e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	}

	handlers.RegisterRoutes(e, handlers.Deps{
		Users:         a.Users,
		Memberships:   a.Memberships,
		Attendance:    a.Attendance,
		Health:        a.Health,
		Notifications: a.Notifications,
		Reports:       a.Reports,
		Runner:        a.Runner,
		JobRuns:       a.Store,
		Tokens:        a.Tokens,
		Clock:         a.Clock,
		Location:      a.Location,
		SecureCookies: cfg.Session.Secure,
	})

	// In-process scheduler
	if cfg.Scheduler.Enabled {
		sched, err := a.Schedule()
		if err != nil {
			log.Fatalf("Invalid SCHEDULER_RRULE: %v", err)
		}
		go a.Runner.Start(ctx, sched, cfg.Scheduler.RunOnBoot)
	} else {
		logg.Info("scheduler disabled, run cmd/worker or cmd/runjobs instead")
	}

	// Start server
	go func() {
		logg.Info("server starting", "port", cfg.Port, "env", cfg.Env)
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	logg.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logg.Error("server shutdown failed", "err", err)
	}
}

// Package app wires configuration, persistence, transports and services into
// the pieces each binary needs.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"gymtrack_app_echo/internal/auth"
	"gymtrack_app_echo/internal/clock"
	"gymtrack_app_echo/internal/config"
	"gymtrack_app_echo/internal/services"
	"gymtrack_app_echo/internal/store"
	"gymtrack_app_echo/internal/tasks"
)

// App holds the assembled services
type App struct {
	Config   *config.Config
	Log      *slog.Logger
	Location *time.Location
	Clock    clock.Clock

	DB    *gorm.DB
	Store *store.GormStore
	Cache *services.RedisCache

	Messenger     *services.ChannelMessenger
	Users         *services.UserService
	Memberships   *services.MembershipService
	Engagement    *services.EngagementService
	Attendance    *services.AttendanceService
	Health        *services.HealthService
	Notifications *services.NotificationService
	Reports       *services.ReportService

	Tokens *auth.TokenManager
	Runner *tasks.Runner
}

// Option adjusts how New assembles the app
type Option func(*App)

// WithClock replaces the real clock. runjobs uses it to replay a past day so
// notification windows and timestamps follow the replayed date.
func WithClock(c clock.Clock) Option {
	return func(a *App) {
		a.Clock = c
	}
}

// New connects to the database, runs migrations and builds every service
func New(ctx context.Context, cfg *config.Config, log *slog.Logger, opts ...Option) (*App, error) {
	loc := cfg.Location()
	a := &App{
		Config:   cfg,
		Log:      log,
		Location: loc,
		Clock:    clock.NewReal(loc),
	}
	for _, opt := range opts {
		opt(a)
	}

	db, err := services.InitDB(cfg.Database.Driver, cfg.Database.URL, cfg.IsDev())
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := services.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	a.DB = db
	a.Store = store.NewGormStore(db)

	if cfg.RedisURL != "" {
		cache, err := services.NewRedisCache(cfg.RedisURL)
		if err != nil {
			log.Warn("redis unavailable, reports are not cached", "err", err)
		} else {
			a.Cache = cache
		}
	}

	email, err := services.NewEmailSender(ctx, cfg.Email)
	if err != nil {
		return nil, fmt.Errorf("email transport: %w", err)
	}
	a.assemble(a.Store, email)

	return a, nil
}

// assemble builds the services and the job runner over st using a.Clock
func (a *App) assemble(st store.Store, email services.EmailSender) {
	cfg, clk, log := a.Config, a.Clock, a.Log

	a.Messenger = NewMessenger(cfg, st, email, log)
	a.Users = services.NewUserService(st, email, clk, cfg.AppURL, log)
	a.Memberships = services.NewMembershipService(st, clk, log)
	a.Engagement = services.NewEngagementService(st)
	a.Attendance = services.NewAttendanceService(st, clk, log)
	a.Health = services.NewHealthService(st, clk)
	a.Notifications = services.NewNotificationService(st, a.Messenger, clk, log)
	a.Reports = services.NewReportService(st, a.Cache, clk)
	a.Tokens = auth.NewTokenManager(cfg.Session.Secret, cfg.SessionTTL())

	reg := tasks.NewRegistry()
	tasks.DefineTasks(reg, tasks.Deps{
		Memberships: a.Memberships,
		Engagement:  a.Engagement,
		Notifier:    a.Notifications,
		Log:         log,
	})
	a.Runner = tasks.NewRunner(reg, tasks.NewDailyGate(cfg.Scheduler.DailyAt), st, clk, log)
}

// NewMessenger builds the channel messenger from whichever transports are configured
func NewMessenger(cfg *config.Config, st store.UserStore, email services.EmailSender, log *slog.Logger) *services.ChannelMessenger {
	var whatsapp services.WhatsappSender
	if cfg.Waha.BaseURL != "" {
		whatsapp = services.NewWahaService(cfg.Waha)
	}

	var telegram services.TelegramSender
	if cfg.Telegram.BotToken != "" {
		tg, err := services.NewTelegramService(cfg.Telegram.BotToken)
		if err != nil {
			log.Warn("telegram disabled", "err", err)
		} else {
			telegram = tg
		}
	}

	return services.NewChannelMessenger(st, email, whatsapp, telegram, log)
}

// Schedule parses the configured tick rule in the app location
func (a *App) Schedule() (*tasks.Schedule, error) {
	return tasks.ParseSchedule(a.Config.Scheduler.RRule, a.Location)
}

// Close releases the database and cache connections
func (a *App) Close() {
	if a.Cache != nil {
		if err := a.Cache.Close(); err != nil {
			a.Log.Warn("close redis", "err", err)
		}
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Env      string
	Port     string
	AppURL   string
	Timezone string

	Database  DatabaseConfig
	RedisURL  string
	Session   SessionConfig
	Scheduler SchedulerConfig
	Email     EmailConfig
	Waha      WahaConfig
	Telegram  TelegramConfig

	MetricsEnabled bool
}

// DatabaseConfig selects the gorm dialector and DSN
type DatabaseConfig struct {
	Driver string // "postgres" or "mysql"
	URL    string
}

// SessionConfig holds session cookie settings
type SessionConfig struct {
	Secret string
	Hours  int
	Secure bool
}

// SchedulerConfig drives the hourly sweep and the daily notification job
type SchedulerConfig struct {
	Enabled   bool
	RRule     string
	DailyAt   int // hour of day the daily job becomes eligible
	RunOnBoot bool
}

// EmailConfig selects the email transport
type EmailConfig struct {
	Transport string // "smtp" or "ses"
	SMTPHost  string
	SMTPPort  string
	SMTPUser  string
	SMTPPass  string
	From      string
	AWSRegion string
	SESFrom   string
}

type WahaConfig struct {
	BaseURL string
	APIKey  string
}

type TelegramConfig struct {
	BotToken string
}

// Load reads configuration from .env and environment variables
func Load() (*Config, error) {
	// Load .env file (ignore error if file doesn't exist in production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment")
	}

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		Env:      strings.TrimSpace(v.GetString("APP_ENV")),
		Port:     v.GetString("PORT"),
		AppURL:   strings.TrimRight(v.GetString("APP_URL"), "/"),
		Timezone: v.GetString("APP_TIMEZONE"),
		Database: DatabaseConfig{
			Driver: strings.ToLower(v.GetString("DATABASE_DRIVER")),
			URL:    v.GetString("DATABASE_URL"),
		},
		RedisURL: v.GetString("REDIS_URL"),
		Session: SessionConfig{
			Secret: v.GetString("JWT_SECRET"),
			Hours:  v.GetInt("SESSION_HOURS"),
		},
		Scheduler: SchedulerConfig{
			Enabled:   v.GetBool("SCHEDULER_ENABLED"),
			RRule:     v.GetString("SCHEDULER_RRULE"),
			DailyAt:   v.GetInt("DAILY_JOB_HOUR"),
			RunOnBoot: v.GetBool("SCHEDULER_RUN_ON_BOOT"),
		},
		Email: EmailConfig{
			Transport: strings.ToLower(v.GetString("EMAIL_TRANSPORT")),
			SMTPHost:  v.GetString("SMTP_HOST"),
			SMTPPort:  v.GetString("SMTP_PORT"),
			SMTPUser:  v.GetString("SMTP_USER"),
			SMTPPass:  v.GetString("SMTP_PASS"),
			From:      v.GetString("EMAIL_FROM"),
			AWSRegion: v.GetString("AWS_REGION"),
			SESFrom:   v.GetString("SES_EMAIL"),
		},
		Waha: WahaConfig{
			BaseURL: v.GetString("WAHA_BASE_URL"),
			APIKey:  v.GetString("WAHA_API_KEY"),
		},
		Telegram: TelegramConfig{
			BotToken: v.GetString("TELEGRAM_BOT_TOKEN"),
		},
		MetricsEnabled: v.GetBool("METRICS_ENABLED"),
	}
	cfg.Session.Secure = cfg.IsProd()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "dev")
	v.SetDefault("PORT", "8080")
	v.SetDefault("APP_URL", "http://localhost:8080")
	v.SetDefault("APP_TIMEZONE", "Local")
	v.SetDefault("DATABASE_DRIVER", "postgres")
	v.SetDefault("JWT_SECRET", "default_secret")
	v.SetDefault("SESSION_HOURS", 24*5)
	v.SetDefault("SCHEDULER_ENABLED", true)
	v.SetDefault("SCHEDULER_RRULE", "FREQ=HOURLY;BYMINUTE=0;BYSECOND=0")
	v.SetDefault("SCHEDULER_RUN_ON_BOOT", true)
	v.SetDefault("DAILY_JOB_HOUR", 9)
	v.SetDefault("EMAIL_TRANSPORT", "smtp")
	v.SetDefault("WAHA_BASE_URL", "http://waha:3000")
	v.SetDefault("METRICS_ENABLED", true)
}

func (c *Config) validate() error {
	if c.Env != "dev" && c.Env != "prod" {
		return fmt.Errorf("invalid APP_ENV: '%s' (must be 'dev' or 'prod')", c.Env)
	}
	if c.Database.Driver != "postgres" && c.Database.Driver != "mysql" {
		return fmt.Errorf("invalid DATABASE_DRIVER: '%s' (must be 'postgres' or 'mysql')", c.Database.Driver)
	}
	if c.Scheduler.DailyAt < 0 || c.Scheduler.DailyAt > 23 {
		return fmt.Errorf("invalid DAILY_JOB_HOUR: %d (must be 0-23)", c.Scheduler.DailyAt)
	}
	if c.Email.Transport != "smtp" && c.Email.Transport != "ses" {
		return fmt.Errorf("invalid EMAIL_TRANSPORT: '%s' (must be 'smtp' or 'ses')", c.Email.Transport)
	}
	if c.IsProd() && c.Session.Secret == "default_secret" {
		return fmt.Errorf("JWT_SECRET must be set in prod")
	}
	return nil
}

// IsDev returns true if running in development mode
func (c *Config) IsDev() bool {
	return c.Env == "dev"
}

// IsProd returns true if running in production mode
func (c *Config) IsProd() bool {
	return c.Env == "prod"
}

// Location resolves APP_TIMEZONE, falling back to time.Local
func (c *Config) Location() *time.Location {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		log.Printf("Warning: unknown APP_TIMEZONE %q, using local time", c.Timezone)
		return time.Local
	}
	return loc
}

// SessionTTL is the lifetime of a login session
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.Session.Hours) * time.Hour
}

package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

type Config struct {
	// Server
	Port           string        `env:"PORT" envDefault:"9091"`
	Env            string        `env:"ENV" envDefault:"development"`
	LogLevel       string        `env:"LOG_LEVEL" envDefault:"info"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"5s"`
	AllowedOrigins []string      `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`

	// Database
	DatabaseURL    string `env:"DATABASE_URL,required,notEmpty"`
	DBMaxConns     int    `env:"DB_MAX_CONNS" envDefault:"25"`
	DBMinConns     int    `env:"DB_MIN_CONNS" envDefault:"5"`
	MigrateOnStart bool   `env:"MIGRATE_ON_START" envDefault:"true"`

	// Auth
	JWTSecret  string        `env:"JWT_SECRET,required,notEmpty"`
	TokenTTL   time.Duration `env:"TOKEN_TTL" envDefault:"168h"`
	BcryptCost int           `env:"BCRYPT_COST" envDefault:"10"`

	// Streaks
	StreakTimezone string `env:"STREAK_TIMEZONE" envDefault:"UTC"`

	// Rate limiting
	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS" envDefault:"5"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST" envDefault:"30"`

	// Operations
	MetricsUser string `env:"METRICS_USER"`
	MetricsPass string `env:"METRICS_PASS"`
	PprofSecret string `env:"PPROF_SECRET"`

	// Notifications
	FCMCredentialsJSON  string `env:"FCM_SERVICE_ACCOUNT_JSON"`
	FCMCredentialsFile  string `env:"FCM_CREDENTIALS_FILE" envDefault:"./serviceAccountKey.json"`
	NotificationWorkers int    `env:"NOTIFICATION_WORKERS" envDefault:"5"`
	ReminderCron        string `env:"REMINDER_CRON" envDefault:"0 19 * * *"`

	streakLocation *time.Location
}

// Load reads an optional .env file, then the process environment.
func Load() (*Config, error) {
	// A missing .env file is normal outside local development.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	loc, err := time.LoadLocation(c.StreakTimezone)
	if err != nil {
		return fmt.Errorf("invalid STREAK_TIMEZONE %q: %w", c.StreakTimezone, err)
	}
	c.streakLocation = loc

	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	if c.TokenTTL <= 0 {
		return errors.New("TOKEN_TTL must be positive")
	}
	if c.RequestTimeout <= 0 {
		return errors.New("REQUEST_TIMEOUT must be positive")
	}
	if c.DBMinConns > c.DBMaxConns {
		return errors.New("DB_MIN_CONNS cannot exceed DB_MAX_CONNS")
	}
	if c.NotificationWorkers < 1 {
		c.NotificationWorkers = 1
	}
	return nil
}

// StreakLocation is the timezone whose calendar days define streak days.
func (c *Config) StreakLocation() *time.Location {
	if c.streakLocation == nil {
		return time.UTC
	}
	return c.streakLocation
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

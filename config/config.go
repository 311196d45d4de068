package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	SearchTitle        = "title"
	SearchTitleContent = "title_content"

	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

type Config struct {
	Port string `env:"PORT" envDefault:"8080"`

	// Storage is "postgres" or "memory"; memory keeps nothing across restarts.
	Storage string `env:"STORAGE" envDefault:"postgres"`

	DatabaseURL string `env:"DATABASE_URL"`
	DBHost      string `env:"DB_HOST" envDefault:"localhost"`
	DBPort      string `env:"DB_PORT" envDefault:"5432"`
	DBUser      string `env:"DB_USER"`
	DBPassword  string `env:"DB_PASSWORD"`
	DBName      string `env:"DB_NAME" envDefault:"notevault"`
	DBSSLMode   string `env:"DB_SSLMODE" envDefault:"require"`

	JWTSecret string        `env:"JWT_SECRET"`
	JWTIssuer string        `env:"JWT_ISSUER" envDefault:"notevault"`
	TokenTTL  time.Duration `env:"TOKEN_TTL" envDefault:"15m"`

	SearchScope     string `env:"SEARCH_SCOPE" envDefault:"title_content"`
	DisplayTimezone string `env:"DISPLAY_TIMEZONE" envDefault:"Asia/Kolkata"`

	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`

	RedisURL        string        `env:"REDIS_URL"`
	LoginRateLimit  int           `env:"LOGIN_RATE_LIMIT" envDefault:"10"`
	LoginRateWindow time.Duration `env:"LOGIN_RATE_WINDOW" envDefault:"1m"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load reads an optional .env file and then the process environment.
// The boolean reports whether a .env file was found.
func Load() (*Config, bool, error) {
	dotenv := godotenv.Load() == nil

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, dotenv, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, dotenv, err
	}
	return &cfg, dotenv, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.JWTSecret) == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.TokenTTL <= 0 {
		return errors.New("TOKEN_TTL must be positive")
	}
	if c.Storage != StoragePostgres && c.Storage != StorageMemory {
		return fmt.Errorf("STORAGE must be %q or %q, got %q", StoragePostgres, StorageMemory, c.Storage)
	}
	if c.SearchScope != SearchTitle && c.SearchScope != SearchTitleContent {
		return fmt.Errorf("SEARCH_SCOPE must be %q or %q, got %q", SearchTitle, SearchTitleContent, c.SearchScope)
	}
	if _, err := time.LoadLocation(c.DisplayTimezone); err != nil {
		return fmt.Errorf("DISPLAY_TIMEZONE: %w", err)
	}
	if c.RedisURL != "" && (c.LoginRateLimit <= 0 || c.LoginRateWindow <= 0) {
		return errors.New("LOGIN_RATE_LIMIT and LOGIN_RATE_WINDOW must be positive when REDIS_URL is set")
	}
	return nil
}

// DSN returns DATABASE_URL when set, otherwise a postgres URL built from
// the DB_* parts.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     c.DBHost + ":" + c.DBPort,
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=" + url.QueryEscape(c.DBSSLMode),
	}
	return u.String()
}

// Location returns the display zone. Validate has already checked it loads.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.DisplayTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

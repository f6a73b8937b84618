// Package server parses server command flags and launches the trainer API.
package server

import (
	"context"
	"flag"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	platformcmd "github.com/louisbranch/cardtrainer/internal/platform/cmd"
	"github.com/louisbranch/cardtrainer/internal/platform/config"
	"github.com/louisbranch/cardtrainer/internal/platform/logging"
	platformotel "github.com/louisbranch/cardtrainer/internal/platform/otel"
	trainer "github.com/louisbranch/cardtrainer/internal/services/trainer/app"
	"go.uber.org/zap"
)

// Config holds server command configuration.
type Config struct {
	Port     int    `env:"PORT" envDefault:"5000"`
	HTTPAddr string `env:"CARDTRAINER_HTTP_ADDR"`

	DatabaseURL string `env:"DATABASE_URL"`
	DBPath      string `env:"CARDTRAINER_DB_PATH" envDefault:"data/cardtrainer.db"`

	Dev           bool   `env:"CARDTRAINER_DEV"`
	SessionSecret string `env:"SESSION_SECRET"`

	ClashRoyaleAPIKey string `env:"CLASH_ROYALE_API_KEY"`
	ClashRoyaleAPIURL string `env:"CLASH_ROYALE_API_URL"`

	CookieSecure   bool          `env:"CARDTRAINER_COOKIE_SECURE"`
	CookieSameSite string        `env:"CARDTRAINER_COOKIE_SAMESITE" envDefault:"lax"`
	SessionTTL     time.Duration `env:"CARDTRAINER_SESSION_TTL" envDefault:"168h"`
	TokenTTL       time.Duration `env:"CARDTRAINER_TOKEN_TTL" envDefault:"1h"`
	AllowedOrigins []string      `env:"CARDTRAINER_ALLOWED_ORIGINS" envSeparator:","`

	AdminEmail    string `env:"CARDTRAINER_ADMIN_EMAIL"`
	AdminPassword string `env:"CARDTRAINER_ADMIN_PASSWORD"`

	LogLevel string `env:"CARDTRAINER_LOG_LEVEL" envDefault:"info"`

	OTel platformotel.Config
}

// EnvLookup returns the value for a key when present.
type EnvLookup func(string) (string, bool)

// ParseConfig parses environment and flags into a Config. Flags win over env.
func ParseConfig(fs *flag.FlagSet, args []string, lookup EnvLookup) (Config, error) {
	var cfg Config
	if err := config.ParseEnvWithLookup(&cfg, lookup); err != nil {
		return Config{}, err
	}

	fs.IntVar(&cfg.Port, "port", cfg.Port, "The HTTP port, used when -http-addr is empty")
	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "The HTTP listen address")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "The SQLite database path, used when DATABASE_URL is not a Postgres URL")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	fs.BoolVar(&cfg.Dev, "dev", cfg.Dev, "Development mode: human-readable logs and an ephemeral session secret")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return Config{}, fmt.Errorf("port must be between 1 and 65535, got %d", cfg.Port)
	}
	return cfg, nil
}

// ListenAddr resolves the HTTP listen address.
func (c Config) ListenAddr() string {
	if addr := strings.TrimSpace(c.HTTPAddr); addr != "" {
		return addr
	}
	return net.JoinHostPort("", strconv.Itoa(c.Port))
}

// Run starts the trainer server.
func Run(ctx context.Context, cfg Config) error {
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	appCfg := trainer.Config{
		HTTPAddr:          cfg.ListenAddr(),
		DatabaseURL:       cfg.DatabaseURL,
		DBPath:            cfg.DBPath,
		Dev:               cfg.Dev,
		SessionSecret:     cfg.SessionSecret,
		ClashRoyaleAPIKey: cfg.ClashRoyaleAPIKey,
		ClashRoyaleAPIURL: cfg.ClashRoyaleAPIURL,
		CookieSecure:      cfg.CookieSecure,
		CookieSameSite:    cfg.CookieSameSite,
		SessionTTL:        cfg.SessionTTL,
		TokenTTL:          cfg.TokenTTL,
		AllowedOrigins:    cfg.AllowedOrigins,
		AdminEmail:        cfg.AdminEmail,
		AdminPassword:     cfg.AdminPassword,
		Logger:            logger,
	}
	options := platformcmd.RunOptions{OTel: cfg.OTel, Logger: logger}
	return platformcmd.RunWithTelemetry(ctx, platformcmd.ServiceServer, options, func(ctx context.Context) error {
		return trainer.Run(ctx, appCfg)
	})
}

func newLogger(cfg Config) (*zap.Logger, error) {
	if cfg.Dev {
		return logging.NewDevelopment(strings.EqualFold(cfg.LogLevel, "debug"))
	}
	return logging.New(cfg.LogLevel)
}

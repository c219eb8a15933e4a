// Package config reads process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Server configures cmd/cropseason.
type Server struct {
	Port            int           `env:"PORT" envDefault:"8080"`
	DatabasePath    string        `env:"DATABASE_PATH" envDefault:"cropseason.db"`
	LogLevel        slog.Level    `env:"LOG_LEVEL" envDefault:"info"`
	Environment     string        `env:"OTEL_ENVIRONMENT" envDefault:"development"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	JobWorkers      int           `env:"JOB_WORKERS" envDefault:"2"`
}

// CLI configures cmd/seasonctl. Flags override these values.
type CLI struct {
	APIURL  string        `env:"SEASONCTL_API_URL" envDefault:"http://localhost:8080"`
	Timeout time.Duration `env:"SEASONCTL_TIMEOUT" envDefault:"10s"`
}

// Parse loads T from environment variables.
func Parse[T any]() (T, error) {
	cfg, err := env.ParseAs[T]()
	if err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// LoadDotEnv copies variables from the given files (".env" when none are
// named) into the environment. Missing files are skipped and variables that
// are already set win.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// NewLogger returns a JSON logger in production and a text logger elsewhere.
func NewLogger(cfg Server, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	if cfg.Environment == "production" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

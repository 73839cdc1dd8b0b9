// Package board parses board command flags and composes the transport
// entrypoint.
package board

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"strings"

	entrypoint "github.com/tkondo/handraise/internal/platform/cmd"
	server "github.com/tkondo/handraise/internal/services/board/app"
)

// Config holds board command configuration.
//
// ADMIN_PASSWORD has no default on purpose: the shared admin secret must
// be chosen by the operator, never shipped baked in.
type Config struct {
	Port          string `env:"PORT"           envDefault:"3000"`
	AdminPassword string `env:"ADMIN_PASSWORD"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.Port, "port", cfg.Port, "HTTP listen port")
	fs.StringVar(&cfg.AdminPassword, "admin-password", cfg.AdminPassword, "shared admin secret")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run builds the board app and starts realtime transport behavior.
func Run(ctx context.Context, cfg Config) error {
	if strings.TrimSpace(cfg.AdminPassword) == "" {
		return errors.New("ADMIN_PASSWORD is required")
	}

	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceBoard, func(context.Context) error {
		if err := server.Run(ctx, server.Config{
			HTTPAddr:      net.JoinHostPort("", strings.TrimSpace(cfg.Port)),
			AdminPassword: cfg.AdminPassword,
		}); err != nil {
			return fmt.Errorf("serve board: %w", err)
		}
		return nil
	})
}

// Package console parses console service flags and launches the service.
package console

import (
	"context"
	"flag"
	"fmt"

	"github.com/festfun/console/internal/console/api/httpapi"
	"github.com/festfun/console/internal/console/storage/sqlite"
	entrypoint "github.com/festfun/console/internal/platform/cmd"
)

// Config holds console command configuration.
type Config struct {
	Port   int    `env:"FESTFUN_CONSOLE_PORT" envDefault:"8090"`
	DBPath string `env:"FESTFUN_CONSOLE_DB_PATH" envDefault:"console.db"`
}

// ParseConfig parses environment and flags into Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.IntVar(&cfg.Port, "port", cfg.Port, "The console API port")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "Path to the SQLite database file")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the console API service.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceConsole, func(ctx context.Context) error {
		store, err := sqlite.Open(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer func() {
			_ = store.Close()
		}()

		listener, err := httpapi.NewListener(cfg.Port, httpapi.NewServer(store))
		if err != nil {
			return err
		}
		return listener.Serve(ctx)
	})
}

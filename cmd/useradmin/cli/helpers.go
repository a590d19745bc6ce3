package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/viper"

	"github.com/faucetdb/useradmin/internal/config"
	"github.com/faucetdb/useradmin/internal/store"
)

// loadConfig decodes and validates the effective configuration.
func loadConfig() (*config.File, error) {
	return config.Load(viper.GetViper())
}

// openStore connects to the configured database. The caller closes it.
func openStore(ctx context.Context, cfg *config.File) (*store.Store, error) {
	st, err := store.Open(ctx, cfg.Connection())
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Database.Driver, err)
	}
	return st, nil
}

// newLogger builds the process logger from the logging section. dev forces
// debug level.
func newLogger(w io.Writer, cfg config.LoggingConfig, dev bool) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	if dev {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// versionString returns a display version string.
func versionString() string {
	if appVersion == "" || appVersion == "dev" {
		return "dev"
	}
	if strings.HasPrefix(appVersion, "v") {
		return appVersion
	}
	return "v" + appVersion
}

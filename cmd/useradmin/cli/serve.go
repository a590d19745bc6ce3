package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/faucetdb/useradmin/internal/config"
	"github.com/faucetdb/useradmin/internal/server"
	"github.com/faucetdb/useradmin/internal/service"
	"github.com/faucetdb/useradmin/internal/ui"
)

func newServeCmd() *cobra.Command {
	var dev bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the admin console",
		Long:  "Apply the schema migrations, then serve the admin console over HTTP.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), dev)
		},
	}

	cmd.Flags().IntP("port", "p", 5000, "HTTP listen port")
	cmd.Flags().String("host", "0.0.0.0", "HTTP listen host")
	cmd.Flags().BoolVar(&dev, "dev", false, "Enable development mode (debug logging)")

	viper.BindPFlag("server.port", cmd.Flags().Lookup("port"))
	viper.BindPFlag("server.host", cmd.Flags().Lookup("host"))

	return cmd
}

func runServe(ctx context.Context, dev bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(os.Stderr, cfg.Logging, dev)

	if cfg.UsesDefaultSecret() {
		logger.Warn("auth.secret_key is the development default; set USERADMIN_AUTH_SECRET_KEY before exposing this server")
	}

	// 1. Connect and migrate
	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	logger.Info("store ready", "driver", cfg.Database.Driver)

	// 2. First-run check
	hasAdmin, err := st.HasAnyAdmin(ctx)
	if err != nil {
		logger.Warn("failed to check for admin", "error", err)
	} else if !hasAdmin {
		logger.Warn("no admin account found - run: useradmin admin create --username <name>")
	}

	// 3. Auth and templates
	authSvc := service.NewAuthService(st, cfg.Auth.SecretKey, cfg.Auth.SessionTTL)
	renderer, err := ui.NewRenderer()
	if err != nil {
		return fmt.Errorf("load templates: %w", err)
	}

	// 4. HTTP server
	srv := server.New(serverConfig(cfg), st, authSvc, renderer, logger)

	fmt.Printf("→ useradmin %s\n", versionString())
	fmt.Printf("→ Listening on http://%s:%d\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Printf("→ Health:     http://%s:%d/healthz\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Println()

	return srv.ListenAndServe()
}

func serverConfig(cfg *config.File) server.Config {
	sc := server.DefaultConfig()
	sc.Host = cfg.Server.Host
	sc.Port = cfg.Server.Port
	if cfg.Server.ShutdownTimeout > 0 {
		sc.ShutdownTimeout = cfg.Server.ShutdownTimeout
	}
	sc.SecretKey = cfg.Auth.SecretKey
	sc.CookieSecure = cfg.Auth.CookieSecure
	sc.LoginRateLimit = cfg.Auth.LoginRateLimit
	sc.CSRFKey = cfg.Auth.CSRFKey
	return sc
}

package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
)

func newDBCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "db",
		Aliases: []string{"database"},
		Short:   "Manage the user database",
		Long:    "Apply schema migrations and test connectivity to the configured database.",
	}

	cmd.AddCommand(newDBMigrateCmd())
	cmd.AddCommand(newDBPingCmd())

	return cmd
}

// ---------- db migrate ----------

func newDBMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the admin_users and users tables if missing",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDBMigrate(cmd.Context(), cmd.OutOrStdout())
		},
	}
}

func runDBMigrate(ctx context.Context, out io.Writer) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	fmt.Fprintf(out, "Schema is up to date (%s)\n", cfg.Database.Driver)
	return nil
}

// ---------- db ping ----------

func newDBPingCmd() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "ping",
		Short: "Test the database connection",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			return runDBPing(ctx, cmd.OutOrStdout())
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "Connection timeout")

	return cmd
}

func runDBPing(ctx context.Context, out io.Writer) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	start := time.Now()
	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.Ping(ctx); err != nil {
		return fmt.Errorf("ping %s: %w", cfg.Database.Driver, err)
	}
	fmt.Fprintf(out, "Connection OK (%s, %s)\n", cfg.Database.Driver, time.Since(start).Round(time.Millisecond))
	return nil
}

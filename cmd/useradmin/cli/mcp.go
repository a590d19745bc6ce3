package cli

import (
	"os"

	"github.com/spf13/cobra"

	umcp "github.com/faucetdb/useradmin/internal/mcp"
)

func newMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Start the MCP server for AI agents",
		Long: `Start a Model Context Protocol (MCP) server on stdin/stdout that exposes
list_users, get_user, create_user, update_user and delete_user as tools.
Validation matches the web console.

Logs go to stderr so stdout stays a clean JSON-RPC stream.`,
		Example: `  useradmin mcp --config /etc/useradmin.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger := newLogger(os.Stderr, cfg.Logging, false)

			st, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			if err := st.Migrate(cmd.Context()); err != nil {
				return err
			}

			return umcp.NewMCPServer(st, versionString(), logger.With("component", "mcp")).ServeStdio()
		},
	}
}

package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Inspect managed users",
	}

	cmd.AddCommand(newUserListCmd())

	return cmd
}

func newUserListCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List managed users, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUserList(cmd.Context(), cmd.OutOrStdout(), jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func runUserList(ctx context.Context, out io.Writer, jsonOutput bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	users, err := st.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}

	if jsonOutput {
		return writeJSON(out, users)
	}

	if len(users) == 0 {
		fmt.Fprintln(out, "No users.")
		return nil
	}

	fmt.Fprintf(out, "%-6s %-24s %-32s %-8s %s\n", "ID", "NAME", "EMAIL", "ROLE", "CREATED")
	for _, u := range users {
		fmt.Fprintf(out, "%-6d %-24s %-32s %-8s %s\n",
			u.ID, u.Name, u.Email, u.Role, u.CreatedAt.Format("2006-01-02 15:04"))
	}
	return nil
}

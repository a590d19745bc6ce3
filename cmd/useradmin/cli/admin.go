package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/faucetdb/useradmin/internal/model"
	"github.com/faucetdb/useradmin/internal/service"
)

func newAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage administrator accounts",
		Long:  "Create, list and hash passwords for the accounts that can sign in to the console.",
	}

	cmd.AddCommand(newAdminCreateCmd())
	cmd.AddCommand(newAdminListCmd())
	cmd.AddCommand(newAdminHashCmd())

	return cmd
}

// ---------- admin create ----------

func newAdminCreateCmd() *cobra.Command {
	var (
		username string
		password string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new administrator",
		Example: `  useradmin admin create --username admin --password secret
  useradmin admin create --username admin  # prompts for password`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdminCreate(cmd.Context(), cmd.OutOrStdout(), username, password)
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "Admin username (required)")
	cmd.Flags().StringVar(&password, "password", "", "Admin password (prompted if omitted)")
	cmd.MarkFlagRequired("username")

	return cmd
}

func runAdminCreate(ctx context.Context, out io.Writer, username, password string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return fmt.Errorf("username must not be empty")
	}

	if password == "" {
		var err error
		password, err = promptPassword(out, true)
		if err != nil {
			return err
		}
	}
	if password == "" {
		return fmt.Errorf("password must not be empty")
	}

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

	hash, err := service.HashPassword(password)
	if err != nil {
		return err
	}
	admin := &model.Admin{Username: username, PasswordHash: hash}
	if err := st.CreateAdmin(ctx, admin); err != nil {
		return fmt.Errorf("create admin: %w", err)
	}

	fmt.Fprintf(out, "Created admin %q (id %d)\n", admin.Username, admin.ID)
	return nil
}

// promptPassword reads a password from the terminal without echo. When
// stdin is not a terminal the first line is read instead, so the password
// can be piped in.
func promptPassword(out io.Writer, confirm bool) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && err != io.EOF {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	fmt.Fprint(out, "Password: ")
	pwBytes, err := term.ReadPassword(fd)
	fmt.Fprintln(out)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	if !confirm {
		return string(pwBytes), nil
	}

	fmt.Fprint(out, "Confirm password: ")
	confirmBytes, err := term.ReadPassword(fd)
	fmt.Fprintln(out)
	if err != nil {
		return "", fmt.Errorf("failed to read confirmation: %w", err)
	}
	if string(pwBytes) != string(confirmBytes) {
		return "", fmt.Errorf("passwords do not match")
	}
	return string(pwBytes), nil
}

// ---------- admin list ----------

func newAdminListCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List all administrators",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdminList(cmd.Context(), cmd.OutOrStdout(), jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func runAdminList(ctx context.Context, out io.Writer, jsonOutput bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	admins, err := st.ListAdmins(ctx)
	if err != nil {
		return fmt.Errorf("list admins: %w", err)
	}

	type adminRow struct {
		ID       int64  `json:"id"`
		Username string `json:"username"`
	}
	rows := make([]adminRow, len(admins))
	for i, a := range admins {
		rows[i] = adminRow{ID: a.ID, Username: a.Username}
	}

	if jsonOutput {
		return writeJSON(out, rows)
	}

	if len(rows) == 0 {
		fmt.Fprintln(out, "No administrators configured. Use 'useradmin admin create' to create one.")
		return nil
	}

	fmt.Fprintf(out, "%-8s %-30s\n", "ID", "USERNAME")
	fmt.Fprintf(out, "%-8s %-30s\n", "--", "--------")
	for _, r := range rows {
		fmt.Fprintf(out, "%-8d %-30s\n", r.ID, r.Username)
	}
	return nil
}

// ---------- admin hash ----------

func newAdminHashCmd() *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "hash",
		Short: "Print a password hash for manual provisioning",
		Long: `Print a bcrypt hash of a password without touching the database, for
seeding admin_users from SQL scripts.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdminHash(cmd.OutOrStdout(), password)
		},
	}

	cmd.Flags().StringVar(&password, "password", "", "Password to hash (prompted if omitted)")

	return cmd
}

func runAdminHash(out io.Writer, password string) error {
	if password == "" {
		var err error
		password, err = promptPassword(out, false)
		if err != nil {
			return err
		}
	}
	if password == "" {
		return fmt.Errorf("password must not be empty")
	}

	hash, err := service.HashPassword(password)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, hash)
	return nil
}

package cli

import (
	"errors"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/faucetdb/useradmin/internal/config"
)

var (
	cfgFile    string
	envFile    string
	appVersion string // set in Execute, reported by the MCP server
)

// Execute creates the root command tree and runs it.
func Execute(version, commit, date string) error {
	appVersion = version
	rootCmd := newRootCmd(version, commit, date)
	return rootCmd.Execute()
}

func newRootCmd(version, commit, date string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "useradmin",
		Short: "Admin console for managing user records",
		Long: `useradmin: a small server-rendered admin console for managing user records.

Administrators sign in with a username and password and can list, create,
edit and delete users stored in MySQL, PostgreSQL or SQLite.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./useradmin.yaml)")
	cmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newVersionCmd(version, commit, date))
	cmd.AddCommand(newAdminCmd())
	cmd.AddCommand(newUserCmd())
	cmd.AddCommand(newDBCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newMCPCmd())

	return cmd
}

func initConfig() error {
	// Variables already in the environment win over the file.
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}

	config.Setup(viper.GetViper())

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		return viper.ReadInConfig()
	}

	viper.SetConfigName("useradmin")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("$HOME/.useradmin")

	var notFound viper.ConfigFileNotFoundError
	if err := viper.ReadInConfig(); err != nil && !errors.As(err, &notFound) {
		return err
	}
	return nil
}

package cli

import (
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/faucetdb/useradmin/internal/store"
)

type buildInfo struct {
	Version   string   `json:"version"`
	Commit    string   `json:"commit"`
	Built     string   `json:"built"`
	GoVersion string   `json:"go_version"`
	Platform  string   `json:"platform"`
	Drivers   []string `json:"drivers"`
}

func newVersionCmd(version, commit, date string) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version and build information",
		RunE: func(cmd *cobra.Command, args []string) error {
			info := buildInfo{
				Version:   version,
				Commit:    commit,
				Built:     date,
				GoVersion: runtime.Version(),
				Platform:  runtime.GOOS + "/" + runtime.GOARCH,
				Drivers:   store.NewRegistry().Drivers(),
			}
			if jsonOutput {
				return writeJSON(cmd.OutOrStdout(), info)
			}
			printBuildInfo(cmd.OutOrStdout(), info)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output version info as JSON")

	return cmd
}

func printBuildInfo(w io.Writer, info buildInfo) {
	fmt.Fprintf(w, "useradmin %s (%s, built %s)\n", info.Version, info.Commit, info.Built)
	fmt.Fprintf(w, "  %s %s\n", info.GoVersion, info.Platform)
	fmt.Fprintf(w, "  store drivers: %s\n", strings.Join(info.Drivers, ", "))
}

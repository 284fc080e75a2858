package cmd

import (
	"github.com/spf13/cobra"

	"github.com/shoplist/api/internal/cli/api"
	"github.com/shoplist/api/internal/cli/output"
)

// Version is the CLI version, injected at build time:
//
//	go build -ldflags "-X github.com/shoplist/api/internal/cli/cmd.Version=1.2.3" ./cmd/shoplist
var Version = "dev"

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the server, session and selected household",
	Long: `Show which server the CLI talks to, its version and how it tracks
logged-out sessions, who you are logged in as and the selected household.

An unreachable server or an expired session is reported, not treated as an error.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st := output.Status{
			ServerURL:  cfg.ServerURL,
			CLIVersion: Version,
			Household:  cfg.Household,
		}

		var version api.Response[api.VersionInfo]
		if err := apiClient.Get("/version", nil, &version); err == nil {
			st.Server = &version.Data
		}
		if cfg.HasToken() {
			var me api.Response[api.User]
			if err := apiClient.Get("/auth/me", nil, &me); err == nil {
				st.User = &me.Data
			}
		}

		if flagJSON {
			output.JSON(st)
			return nil
		}
		output.StatusInfo(st)
		return nil
	},
}

func init() {
	rootCmd.Version = Version
	rootCmd.AddCommand(statusCmd)
}

package cmd

import (
	"github.com/learntrack/backend/internal/cli/api"
	"github.com/learntrack/backend/internal/cli/output"
	"github.com/spf13/cobra"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and forget the stored session",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.HasToken() {
			// Tokens are stateless on the server; this only records the sign-out.
			_ = apiClient.Post("/auth/logout", nil, nil)
		}
		sessions.Observe(nil)
		output.Println("Logged out.")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}

		var resp api.Response[api.Profile]
		if err := apiClient.Get("/auth/me", nil, &resp); err != nil {
			return describeAPIError("fetching user", err)
		}

		if flagJSON {
			output.JSON(resp.Data)
			return nil
		}
		output.UserInfo(resp.Data, sessions.Current())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
}

package cmd

import (
	"errors"
	"net/url"

	"github.com/learntrack/backend/internal/cli/api"
	"github.com/learntrack/backend/internal/cli/output"
	"github.com/spf13/cobra"
)

var (
	flagUserSection string
	flagUserRole    string
	flagUserName    string
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage the roster (admin)",
}

var usersLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List users, optionally by section",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}

		params := pageParams()
		if flagUserSection != "" {
			params.Set("section", flagUserSection)
		}

		var resp api.Response[[]api.Profile]
		if err := apiClient.Get("/users", params, &resp); err != nil {
			return describeAPIError("listing users", err)
		}

		if flagJSON {
			output.JSON(resp.Data)
			return nil
		}
		output.UserTable(resp.Data)
		printPagination(resp.Pagination)
		return nil
	},
}

var usersSetCmd = &cobra.Command{
	Use:   "set <user-id>",
	Short: "Change a user's section, role or display name",
	Long: `Change a roster entry. Pass --section "" to clear the section.

  learntrack users set 1b2c... --section mechanical
  learntrack users set 1b2c... --role admin`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}

		body := map[string]string{}
		if cmd.Flags().Changed("section") {
			body["section"] = flagUserSection
		}
		if cmd.Flags().Changed("role") {
			body["role"] = flagUserRole
		}
		if cmd.Flags().Changed("name") {
			body["displayName"] = flagUserName
		}
		if len(body) == 0 {
			return errors.New("nothing to change: pass --section, --role or --name")
		}

		var resp api.Response[api.Profile]
		if err := apiClient.Put("/users/"+url.PathEscape(args[0]), body, &resp); err != nil {
			return describeAPIError("updating user", err)
		}

		if flagJSON {
			output.JSON(resp.Data)
			return nil
		}
		output.UserTable([]api.Profile{resp.Data})
		return nil
	},
}

func init() {
	usersLsCmd.Flags().StringVar(&flagUserSection, "section", "", "Only users of this section")

	usersSetCmd.Flags().StringVar(&flagUserSection, "section", "", "New section (empty clears it)")
	usersSetCmd.Flags().StringVar(&flagUserRole, "role", "", "New role: student or admin")
	usersSetCmd.Flags().StringVar(&flagUserName, "name", "", "New display name")

	usersCmd.AddCommand(usersLsCmd, usersSetCmd)
	rootCmd.AddCommand(usersCmd)
}

package cmd

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/learntrack/backend/internal/cli/api"
	"github.com/learntrack/backend/internal/cli/output"
	"github.com/learntrack/backend/internal/models"
	"github.com/spf13/cobra"
)

var (
	flagProgressSection string
	flagPage            int
	flagLimit           int
)

var progressCmd = &cobra.Command{
	Use:   "progress",
	Short: "Show and record your progress on notes",
}

var progressLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List your section's notes with your status on each",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}

		var resp api.Response[[]api.NoteWithStatus]
		if err := apiClient.Get("/me/notes", sectionParams(flagProgressSection), &resp); err != nil {
			return describeAPIError("listing notes", err)
		}

		if flagJSON {
			output.JSON(resp.Data)
			return nil
		}
		output.StatusTable(resp.Data)
		return nil
	},
}

var progressSetCmd = &cobra.Command{
	Use:   "set <note-id> <not-started|in-progress|completed>",
	Short: "Record your status on a note",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}
		status, ok := models.ParseProgressStatus(args[1])
		if !ok {
			return fmt.Errorf("unknown status %q: use not-started, in-progress or completed", args[1])
		}

		var resp api.Response[api.ProgressRecord]
		if err := apiClient.Put("/progress/"+url.PathEscape(args[0]), map[string]string{"status": string(status)}, &resp); err != nil {
			return describeAPIError("updating progress", err)
		}

		if flagJSON {
			output.JSON(resp.Data)
			return nil
		}
		output.Printf("Marked %s as %s\n", resp.Data.NoteID, resp.Data.Status)
		return nil
	},
}

var progressSweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Remove progress records whose note no longer exists (admin)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}

		var resp api.Response[api.SweepResult]
		if err := apiClient.Post("/progress/sweep", nil, &resp); err != nil {
			return describeAPIError("sweeping progress", err)
		}

		if flagJSON {
			output.JSON(resp.Data)
			return nil
		}
		output.Printf("Removed %d orphaned record(s)\n", resp.Data.Removed)
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Completion statistics",
	Long: `Show your own completion statistics, or for admins the section,
student and roster views.

  learntrack stats
  learntrack stats sections
  learntrack stats students --page 2
  learntrack stats roster`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}

		var resp api.Response[api.StudentSummary]
		if err := apiClient.Get("/me/stats", sectionParams(flagProgressSection), &resp); err != nil {
			return describeAPIError("fetching stats", err)
		}

		if flagJSON {
			output.JSON(resp.Data)
			return nil
		}
		output.StudentStats(resp.Data)
		return nil
	},
}

var statsSectionsCmd = &cobra.Command{
	Use:   "sections",
	Short: "Per-section totals (admin)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}

		var resp api.Response[[]api.SectionSummary]
		if err := apiClient.Get("/stats/sections", nil, &resp); err != nil {
			return describeAPIError("fetching section stats", err)
		}

		if flagJSON {
			output.JSON(resp.Data)
			return nil
		}
		output.SectionTable(resp.Data)
		return nil
	},
}

var statsStudentsCmd = &cobra.Command{
	Use:   "students",
	Short: "Per-student completion (admin)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}

		var resp api.Response[[]api.StudentSummary]
		if err := apiClient.Get("/stats/students", pageParams(), &resp); err != nil {
			return describeAPIError("fetching student stats", err)
		}

		if flagJSON {
			output.JSON(resp.Data)
			return nil
		}
		output.StudentTable(resp.Data)
		printPagination(resp.Pagination)
		return nil
	},
}

var statsRosterCmd = &cobra.Command{
	Use:   "roster",
	Short: "Every progress record with student and note details (admin)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}

		var resp api.Response[[]api.ProgressRow]
		if err := apiClient.Get("/stats/progress", pageParams(), &resp); err != nil {
			return describeAPIError("fetching roster", err)
		}

		if flagJSON {
			output.JSON(resp.Data)
			return nil
		}
		output.RosterTable(resp.Data)
		printPagination(resp.Pagination)
		return nil
	},
}

func sectionParams(section string) url.Values {
	params := url.Values{}
	if section != "" {
		params.Set("section", section)
	}
	return params
}

func pageParams() url.Values {
	params := url.Values{}
	if flagPage > 0 {
		params.Set("page", strconv.Itoa(flagPage))
	}
	if flagLimit > 0 {
		params.Set("limit", strconv.Itoa(flagLimit))
	}
	return params
}

func printPagination(p *api.Pagination) {
	if p == nil || p.TotalPages <= 1 {
		return
	}
	output.Printf("\nPage %d of %d (%d total)\n", p.Page, p.TotalPages, p.Total)
}

func init() {
	progressLsCmd.Flags().StringVar(&flagProgressSection, "section", "", "View another section")
	statsCmd.Flags().StringVar(&flagProgressSection, "section", "", "View another section")

	for _, c := range []*cobra.Command{statsStudentsCmd, statsRosterCmd, usersLsCmd} {
		c.Flags().IntVar(&flagPage, "page", 0, "Page number")
		c.Flags().IntVar(&flagLimit, "limit", 0, "Rows per page (max 200)")
	}

	progressCmd.AddCommand(progressLsCmd, progressSetCmd, progressSweepCmd)
	statsCmd.AddCommand(statsSectionsCmd, statsStudentsCmd, statsRosterCmd)
	rootCmd.AddCommand(progressCmd, statsCmd)
}

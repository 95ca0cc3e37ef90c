package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/learntrack/backend/internal/cli/api"
	"github.com/learntrack/backend/internal/cli/config"
	"github.com/learntrack/backend/internal/session"
	"github.com/spf13/cobra"
)

var (
	flagJSON      bool
	flagServerURL string

	cfg       *config.Config
	apiClient *api.Client

	sessions                 = session.Default
	stdin          io.Reader = os.Stdin
	unbindSessions func()
)

var rootCmd = &cobra.Command{
	Use:   "learntrack",
	Short: "Learning tracker CLI: browse notes and record progress from the terminal",
	Long: `learntrack talks to a learntrack server to browse study notes, record
your progress and, for admins, publish notes and review section statistics.

Get started:
  learntrack login               Sign in through the browser
  learntrack login --token X     Sign in with a session token
  learntrack notes ls            List the notes of your section
  learntrack progress set ID completed`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if flagServerURL != "" {
			cfg.ServerURL = flagServerURL
		}

		if unbindSessions != nil {
			unbindSessions()
		}
		cfg.Restore(sessions, time.Now())
		unbindSessions = cfg.Bind(sessions, func(err error) {
			fmt.Fprintln(os.Stderr, "Warning: saving config:", err)
		})

		apiClient = api.NewClient(cfg.ServerURL, cfg.Token())
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Output as JSON")
	rootCmd.PersistentFlags().StringVar(&flagServerURL, "server", "", "Override server URL (default: from config or http://localhost:8080)")
}

// Execute runs the root command.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

func requireAuth() error {
	if current := sessions.Current(); current == nil || current.Expired(time.Now()) {
		return errors.New(`not signed in: run "learntrack login" first`)
	}
	return nil
}

// describeAPIError turns the common auth failures into actionable messages.
func describeAPIError(action string, err error) error {
	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Status {
		case 401:
			return fmt.Errorf("%s: session rejected, run \"learntrack login\" again", action)
		case 403:
			return fmt.Errorf("%s: %s", action, apiErr.Message)
		}
	}
	return fmt.Errorf("%s: %w", action, err)
}

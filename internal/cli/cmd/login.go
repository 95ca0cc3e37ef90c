package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/learntrack/backend/internal/cli/api"
	"github.com/learntrack/backend/internal/cli/output"
	"github.com/learntrack/backend/internal/session"
	"github.com/spf13/cobra"
)

var (
	flagToken    string
	flagRemember bool
	flagNoOpen   bool
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to your learntrack server",
	Long: `Sign in with the server's identity provider, or with a session token
you already hold.

Browser:
  learntrack login
  Opens the provider's sign-in page. After approving, paste the token
  from the callback address back into the terminal.

Token:
  learntrack login --token eyJhbGciOi...`,
	RunE: runLogin,
}

func init() {
	loginCmd.Flags().StringVar(&flagToken, "token", "", "Session token for direct sign-in")
	loginCmd.Flags().BoolVar(&flagRemember, "remember", false, "Ask for a long-lived session")
	loginCmd.Flags().BoolVar(&flagNoOpen, "no-browser", false, "Print the sign-in address instead of opening a browser")
	rootCmd.AddCommand(loginCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	token := strings.TrimSpace(flagToken)
	if token == "" {
		var err error
		token, err = browserSignIn()
		if err != nil {
			return err
		}
	}
	return loginWithToken(token, flagRemember)
}

func browserSignIn() (string, error) {
	params := url.Values{}
	if flagRemember {
		params.Set("remember", "true")
	}

	var resp api.Response[api.URLResponse]
	if err := api.NewClient(cfg.ServerURL, "").Get("/auth/oauth/login", params, &resp); err != nil {
		var apiErr *api.APIError
		if errors.As(err, &apiErr) && apiErr.Status == 404 {
			return "", errors.New("the server has no sign-in provider configured: use --token")
		}
		return "", fmt.Errorf("starting sign-in: %w", err)
	}

	output.Printf("Sign in at:\n  %s\n\n", resp.Data.URL)
	if !flagNoOpen {
		_ = openBrowser(resp.Data.URL)
	}
	output.Printf("Paste the token from the callback address: ")

	line, err := bufio.NewReader(stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("reading token: %w", err)
	}
	return extractToken(line)
}

// extractToken accepts either a bare token or the full callback address.
func extractToken(input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", errors.New("no token entered")
	}
	if strings.Contains(input, "://") {
		u, err := url.Parse(input)
		if err != nil {
			return "", fmt.Errorf("parsing callback address: %w", err)
		}
		if msg := u.Query().Get("error"); msg != "" {
			return "", fmt.Errorf("sign-in failed: %s", msg)
		}
		token := u.Query().Get("token")
		if token == "" {
			return "", errors.New("callback address carries no token")
		}
		return token, nil
	}
	return input, nil
}

func loginWithToken(token string, remember bool) error {
	client := api.NewClient(cfg.ServerURL, token)
	var resp api.Response[api.Profile]
	if err := client.Get("/auth/me", nil, &resp); err != nil {
		var apiErr *api.APIError
		if errors.As(err, &apiErr) && apiErr.Status == 401 {
			return errors.New("invalid token: server returned 401")
		}
		return fmt.Errorf("validating token: %w", err)
	}

	expiresAt, err := api.TokenExpiry(token)
	if err != nil {
		expiresAt = time.Time{}
	}

	profile := resp.Data
	sessions.Observe(&session.Session{
		Token:       token,
		UserID:      profile.ID,
		Email:       profile.Email,
		DisplayName: profile.DisplayName,
		Role:        profile.Role,
		ExpiresAt:   expiresAt,
		Remember:    remember,
	})

	output.Printf("Signed in as %s (%s)\n", profile.DisplayName, profile.Email)
	return nil
}

func openBrowser(target string) error {
	var c *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		c = exec.Command("open", target)
	case "linux":
		c = exec.Command("xdg-open", target)
	case "windows":
		c = exec.Command("rundll32", "url.dll,FileProtocolHandler", target)
	default:
		return fmt.Errorf("unsupported platform")
	}
	return c.Start()
}

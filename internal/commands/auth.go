package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/racedaylabs/racelink/internal/appctx"
	"github.com/racedaylabs/racelink/internal/auth"
	"github.com/racedaylabs/racelink/internal/config"
	"github.com/racedaylabs/racelink/internal/output"
)

// NewAuthCmd creates the auth command group.
func NewAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage authentication",
		Long:  "Manage race service authentication including login, logout, status, and token refresh.",
	}

	cmd.AddCommand(
		newAuthLoginCmd(),
		newAuthLogoutCmd(),
		newAuthStatusCmd(),
		newAuthRefreshCmd(),
	)

	return cmd
}

func newAuthLoginCmd() *cobra.Command {
	var noBrowser bool
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate with the race service",
		Long:  "Start the OAuth flow to authenticate with the race service.",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appctx.FromContext(cmd.Context())
			if app == nil {
				return fmt.Errorf("app not initialized")
			}

			fmt.Fprintln(os.Stderr, "Starting race service authentication...")

			creds, err := app.Auth.Login(cmd.Context(), auth.AuthorizeOptions{
				NoBrowser: noBrowser,
				Timeout:   timeout,
			})
			if err != nil {
				return err
			}

			return app.OK(map[string]any{
				"state":      app.Auth.State().String(),
				"token_type": creds.TokenType,
			}, output.WithSummary("Authentication successful"))
		},
	}

	cmd.Flags().BoolVar(&noBrowser, "no-browser", false, "Don't open browser automatically")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "How long to wait for the browser callback")

	return cmd
}

func newAuthLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove stored credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appctx.FromContext(cmd.Context())
			if app == nil {
				return fmt.Errorf("app not initialized")
			}

			if err := app.Auth.Logout(); err != nil {
				return err
			}

			return app.OK(map[string]string{
				"status": "logged_out",
			}, output.WithSummary("Successfully logged out"))
		},
	}
}

func newAuthStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show authentication status",
		Long:  "Display the current authentication state and token information.",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appctx.FromContext(cmd.Context())
			if app == nil {
				return fmt.Errorf("app not initialized")
			}

			origin := config.NormalizeBaseURL(app.Config.BaseURL)

			if envToken := os.Getenv("RACELINK_TOKEN"); envToken != "" {
				return app.OK(map[string]any{
					"authenticated": true,
					"origin":        origin,
					"source":        "RACELINK_TOKEN",
				}, output.WithSummary("Authenticated via RACELINK_TOKEN"))
			}

			state := app.Auth.State()
			data := map[string]any{
				"authenticated": state == auth.StateLinked,
				"state":         state.String(),
				"origin":        origin,
			}

			if creds, err := app.Auth.Credentials(); err == nil && creds != nil {
				data["token_type"] = creds.TokenType
				data["has_refresh_token"] = creds.RefreshToken != ""
				if !creds.ExpiresAt.IsZero() {
					data["expires_at"] = creds.ExpiresAt.Format(time.RFC3339)
				}
			}

			return app.OK(data, output.WithSummary("Authentication state: %s", state))
		},
	}
}

func newAuthRefreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Refresh the access token",
		Long:  "Force an access token refresh using the stored refresh token.",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appctx.FromContext(cmd.Context())
			if app == nil {
				return fmt.Errorf("app not initialized")
			}

			if err := app.Auth.Refresh(cmd.Context()); err != nil {
				return err
			}

			return app.OK(map[string]string{
				"state": app.Auth.State().String(),
			}, output.WithSummary("Token refreshed"))
		},
	}
}

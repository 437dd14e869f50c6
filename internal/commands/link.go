package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/racedaylabs/racelink/internal/appctx"
	"github.com/racedaylabs/racelink/internal/auth"
	"github.com/racedaylabs/racelink/internal/linkage"
	"github.com/racedaylabs/racelink/internal/output"
)

// NewLinkCmd creates the link command.
func NewLinkCmd() *cobra.Command {
	var noBrowser bool
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "link",
		Short: "Link a race service account",
		Long:  "Authorize with the race service and connect the account to this profile. " +
			"If the account detail lookup fails after authorization, the link is kept in a limited state.",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appctx.FromContext(cmd.Context())
			if app == nil {
				return fmt.Errorf("app not initialized")
			}

			res, err := app.Linkage.Link(cmd.Context(), auth.AuthorizeOptions{
				NoBrowser: noBrowser,
				Timeout:   timeout,
			})
			if err != nil {
				return err
			}

			summary := fmt.Sprintf("Linked as %s", res.Identity.DisplayName())
			if res.Status == linkage.StatusLinkedLimited {
				summary = "Linked (account details unavailable, some features limited)"
			}
			return app.OK(res, output.WithSummary("%s", summary))
		},
	}

	cmd.Flags().BoolVar(&noBrowser, "no-browser", false, "Don't open browser automatically")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "How long to wait for the browser callback")

	return cmd
}

// NewUnlinkCmd creates the unlink command.
func NewUnlinkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unlink",
		Short: "Disconnect the linked account",
		Long:  "Remove stored tokens and the linkage marker. Safe to run when nothing is linked.",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appctx.FromContext(cmd.Context())
			if app == nil {
				return fmt.Errorf("app not initialized")
			}

			if err := app.Linkage.Unlink(); err != nil {
				return err
			}

			return app.OK(map[string]string{
				"status": string(linkage.StatusNotLinked),
			}, output.WithSummary("Account unlinked"))
		},
	}
}

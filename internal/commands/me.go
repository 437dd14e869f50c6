package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/racedaylabs/racelink/internal/appctx"
	"github.com/racedaylabs/racelink/internal/linkage"
	"github.com/racedaylabs/racelink/internal/output"
)

// NewMeCmd creates the me command.
func NewMeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "me",
		Short: "Show the linked account",
		Long:  "Show the linked account's identity and linkage state.",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appctx.FromContext(cmd.Context())
			if app == nil {
				return fmt.Errorf("app not initialized")
			}

			state := app.Linkage.State()
			if state == linkage.StatusNotLinked {
				return output.ErrAuth("No account linked")
			}

			identity, _ := app.Linkage.Identity(cmd.Context())
			data := map[string]any{
				"state":    state,
				"identity": identity,
			}
			if identity.IsPlaceholder() {
				return app.OK(data, output.WithSummary("Linked, account details unavailable"))
			}
			return app.OK(data, output.WithSummary("Linked as %s", identity.DisplayName()))
		},
	}
}

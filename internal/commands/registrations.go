package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/racedaylabs/racelink/internal/api"
	"github.com/racedaylabs/racelink/internal/appctx"
	"github.com/racedaylabs/racelink/internal/output"
)

// NewRegistrationsCmd creates the registrations command group.
func NewRegistrationsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "registrations",
		Aliases: []string{"regs"},
		Short:   "Manage race registrations",
		Long:    "View the linked account's registration history and create new registrations.",
	}

	cmd.AddCommand(
		newRegistrationsUpcomingCmd(),
		newRegistrationsPastCmd(),
		newRegistrationsCreateCmd(),
	)

	return cmd
}

func newRegistrationsUpcomingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "upcoming",
		Short: "List upcoming registrations",
		Long:  "List the linked account's upcoming registrations, soonest first.",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appctx.FromContext(cmd.Context())
			if app == nil {
				return fmt.Errorf("app not initialized")
			}

			regs, err := app.Linkage.FetchRegistrations(cmd.Context())
			if err != nil {
				return err
			}

			return app.OK(regs.Upcoming, output.WithSummary("%s upcoming",
				pluralize(len(regs.Upcoming), "registration", "registrations")))
		},
	}
}

func newRegistrationsPastCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "past",
		Short: "List past registrations",
		Long:  "List the linked account's completed registrations, most recent first.",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appctx.FromContext(cmd.Context())
			if app == nil {
				return fmt.Errorf("app not initialized")
			}

			regs, err := app.Linkage.FetchRegistrations(cmd.Context())
			if err != nil {
				return err
			}

			return app.OK(regs.Past, output.WithSummary("%s past",
				pluralize(len(regs.Past), "registration", "registrations")))
		},
	}
}

func newRegistrationsCreateCmd() *cobra.Command {
	var raceID, eventID int64
	var req api.RegistrationRequest

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Register for a race event",
		Long:  "Create a registration for a race event. Identity fields are validated before anything is sent.",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appctx.FromContext(cmd.Context())
			if app == nil {
				return fmt.Errorf("app not initialized")
			}

			if raceID <= 0 {
				return output.ErrUsage("--race is required")
			}
			if eventID <= 0 {
				return output.ErrUsage("--event is required")
			}

			reg, err := app.Client.Registrations().Register(cmd.Context(), raceID, eventID, &req)
			if err != nil {
				return err
			}

			return app.OK(reg, output.WithSummary("Registered %s %s for race %d",
				req.FirstName, req.LastName, raceID))
		},
	}

	cmd.Flags().Int64Var(&raceID, "race", 0, "Race ID (required)")
	cmd.Flags().Int64Var(&eventID, "event", 0, "Event ID (required)")
	cmd.Flags().StringVar(&req.FirstName, "first-name", "", "Participant first name (required)")
	cmd.Flags().StringVar(&req.LastName, "last-name", "", "Participant last name (required)")
	cmd.Flags().StringVar(&req.Email, "email", "", "Participant email (required)")
	cmd.Flags().StringVar(&req.DOB, "dob", "", "Date of birth (MM/DD/YYYY)")
	cmd.Flags().StringVar(&req.Gender, "gender", "", "Gender")
	cmd.Flags().StringVar(&req.Phone, "phone", "", "Phone number")

	return cmd
}

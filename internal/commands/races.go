package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/racedaylabs/racelink/internal/api"
	"github.com/racedaylabs/racelink/internal/appctx"
	"github.com/racedaylabs/racelink/internal/dateparse"
	"github.com/racedaylabs/racelink/internal/output"
)

// NewRacesCmd creates the races command group.
func NewRacesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "races",
		Short: "Browse races",
		Long:  "List, search, and inspect races and their events.",
	}

	cmd.AddCommand(
		newRacesListCmd(),
		newRacesShowCmd(),
		newRacesSearchCmd(),
	)

	return cmd
}

func newRacesListCmd() *cobra.Command {
	var startDate, sortDir, query string
	var page, perPage int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List races",
		Long:  "List races on or after a start date. Dates accept natural language like 'today' or 'next saturday'.",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appctx.FromContext(cmd.Context())
			if app == nil {
				return fmt.Errorf("app not initialized")
			}

			if startDate != "" {
				startDate = dateparse.Parse(startDate)
				if !dateparse.IsValid(startDate) {
					return output.ErrUsage(fmt.Sprintf("Invalid start date: %q", startDate))
				}
			}
			sortDir = strings.ToLower(sortDir)
			if sortDir != "" && sortDir != "asc" && sortDir != "desc" {
				return output.ErrUsage("Invalid sort direction. Use 'asc' or 'desc'")
			}

			list, err := app.Client.Races().List(cmd.Context(), api.ListRacesOptions{
				StartDate:     startDate,
				SortDirection: sortDir,
				Query:         query,
				Page:          page,
				PerPage:       perPage,
			})
			if err != nil {
				return err
			}

			return app.OK(list, output.WithSummary("%s of %d total",
				pluralize(len(list.Races), "race", "races"), list.Total))
		},
	}

	cmd.Flags().StringVar(&startDate, "start-date", "", "Races on or after this date (YYYY-MM-DD or natural language)")
	cmd.Flags().StringVar(&query, "query", "", "Filter by name or location text")
	cmd.Flags().StringVar(&sortDir, "sort", "asc", "Sort by next race date: 'asc' or 'desc'")
	cmd.Flags().IntVar(&page, "page", 0, "Page number")
	cmd.Flags().IntVar(&perPage, "per-page", 0, "Results per page")

	return cmd
}

func newRacesShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <race-id>",
		Short: "Show race details",
		Long:  "Show a race with its events and computed status.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appctx.FromContext(cmd.Context())
			if app == nil {
				return fmt.Errorf("app not initialized")
			}

			raceID, err := parseID("race ID", args[0])
			if err != nil {
				return err
			}

			race, err := app.Client.Races().Details(cmd.Context(), raceID)
			if err != nil {
				return err
			}

			status := app.Client.Races().Status(race)
			return app.OK(map[string]any{
				"race":   race,
				"status": status,
				"date":   dateparse.FormatRaceDate(race.NextDate),
			}, output.WithSummary("%s (%s)", race.Name, status))
		},
	}
}

func newRacesSearchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Search races by name or location",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appctx.FromContext(cmd.Context())
			if app == nil {
				return fmt.Errorf("app not initialized")
			}

			query := strings.Join(args, " ")
			races, err := app.Client.Races().Search(cmd.Context(), query)
			if err != nil {
				return err
			}

			return app.OK(races, output.WithSummary("%s matching %q",
				pluralize(len(races), "race", "races"), query))
		},
	}
}

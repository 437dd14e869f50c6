// Package cli wires the root command and global flags.
package cli

import (
	"os"
	"regexp"
	"strings"

	"github.com/spf13/cobra"

	"github.com/racedaylabs/racelink/internal/appctx"
	"github.com/racedaylabs/racelink/internal/commands"
	"github.com/racedaylabs/racelink/internal/config"
	"github.com/racedaylabs/racelink/internal/output"
	"github.com/racedaylabs/racelink/internal/version"
)

// NewRootCmd creates the root cobra command.
func NewRootCmd() *cobra.Command {
	var flags appctx.GlobalFlags

	cmd := &cobra.Command{
		Use:           "racelink",
		Short:         "Command-line client for the race service",
		Long:          "racelink connects a local profile to the race service: browse races, link an account, manage registrations, and fetch photos.",
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Skip setup for help and version commands
			if cmd.Name() == "help" || cmd.Name() == "version" {
				return nil
			}

			cfg, err := config.Load(config.FlagOverrides{
				BaseURL:   flags.BaseURL,
				ConfigDir: flags.ConfigDir,
			})
			if err != nil {
				return err
			}

			app := appctx.NewApp(cfg)
			app.Flags = flags
			app.ApplyFlags()

			cmd.SetContext(appctx.WithApp(cmd.Context(), app))
			return nil
		},
	}

	// Allow flags anywhere in the command line
	cmd.Flags().SetInterspersed(true)
	cmd.PersistentFlags().SetInterspersed(true)

	cmd.PersistentFlags().BoolVarP(&flags.JSON, "json", "j", false, "Output envelope JSON (the default)")
	cmd.PersistentFlags().BoolVarP(&flags.Quiet, "quiet", "q", false, "Output data only, no envelope")
	cmd.PersistentFlags().BoolVarP(&flags.Verbose, "verbose", "v", false, "Log requests to stderr")
	cmd.PersistentFlags().StringVar(&flags.BaseURL, "base-url", "", "Race service API base URL")
	cmd.PersistentFlags().StringVar(&flags.ConfigDir, "config-dir", "", "Config directory")

	return cmd
}

// Execute runs the root command and exits with the error's exit code.
func Execute() {
	cmd := NewRootCmd()

	cmd.AddCommand(commands.NewAuthCmd())
	cmd.AddCommand(commands.NewLinkCmd())
	cmd.AddCommand(commands.NewUnlinkCmd())
	cmd.AddCommand(commands.NewMeCmd())
	cmd.AddCommand(commands.NewRacesCmd())
	cmd.AddCommand(commands.NewRegistrationsCmd())
	cmd.AddCommand(commands.NewPhotosCmd())
	cmd.AddCommand(commands.NewAPICmd())
	cmd.AddCommand(commands.NewVersionCmd())

	executedCmd, err := cmd.ExecuteC()
	if err == nil {
		return
	}

	err = transformCobraError(err)

	if app := appctx.FromContext(executedCmd.Context()); app != nil {
		os.Exit(app.Err(err))
	}

	// App not available, e.g. a flag parse error during setup
	quiet, _ := cmd.PersistentFlags().GetBool("quiet")
	format := output.FormatJSON
	if quiet {
		format = output.FormatQuiet
	}
	writer := output.New(output.Options{Format: format, Writer: os.Stdout})
	os.Exit(writer.Err(err))
}

var shorthandFlagRe = regexp.MustCompile(`unknown shorthand flag: '.' in (-\w)`)

// transformCobraError rewrites cobra's parse errors into the CLI's usage
// error taxonomy so every failure carries a code and exit status.
func transformCobraError(err error) error {
	msg := err.Error()

	if flag, ok := strings.CutPrefix(msg, "flag needs an argument: "); ok {
		return output.ErrUsage(flag + " requires a value")
	}
	if flag, ok := strings.CutPrefix(msg, "unknown flag: "); ok {
		return output.ErrUsage("Unknown option: " + flag)
	}
	if matches := shorthandFlagRe.FindStringSubmatch(msg); len(matches) > 1 {
		return output.ErrUsage("Unknown option: " + matches[1])
	}
	if strings.Contains(msg, "invalid argument") {
		return output.ErrUsage(msg)
	}
	if strings.Contains(msg, "arg(s), received") {
		return output.ErrUsage("Missing or extra arguments. See --help for usage")
	}

	return err
}

// Package appctx provides the shared application context for commands.
package appctx

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/racedaylabs/racelink/internal/api"
	"github.com/racedaylabs/racelink/internal/auth"
	"github.com/racedaylabs/racelink/internal/config"
	"github.com/racedaylabs/racelink/internal/linkage"
	"github.com/racedaylabs/racelink/internal/output"
)

// contextKey is a private type for context keys.
type contextKey string

const appKey contextKey = "app"

// App holds the shared application context for all commands.
type App struct {
	Config  *config.Config
	Auth    *auth.Manager
	Client  *api.Client
	Linkage *linkage.Facade
	Output  *output.Writer

	// Flags holds the global flag values
	Flags GlobalFlags
}

// GlobalFlags holds values for global CLI flags.
type GlobalFlags struct {
	JSON      bool
	Quiet     bool
	Verbose   bool
	BaseURL   string
	ConfigDir string
}

// NewApp creates a new App with the given configuration.
func NewApp(cfg *config.Config) *App {
	httpClient := &http.Client{Timeout: 30 * time.Second}

	store := auth.NewStore(cfg.ConfigDir)
	authMgr := auth.NewManager(cfg, store, httpClient)
	client := api.NewClient(cfg, authMgr)
	profile := linkage.NewFileProfileStore(cfg.ConfigDir)
	facade := linkage.New(authMgr, client.Users(), profile, nil)

	format := output.FormatJSON
	if cfg.Format == "quiet" {
		format = output.FormatQuiet
	}

	return &App{
		Config:  cfg,
		Auth:    authMgr,
		Client:  client,
		Linkage: facade,
		Output:  output.New(output.Options{Format: format, Writer: os.Stdout}),
	}
}

// ApplyFlags applies global flag values to the app.
func (a *App) ApplyFlags() {
	if a.Flags.Quiet {
		a.Output = output.New(output.Options{Format: output.FormatQuiet, Writer: os.Stdout})
	} else if a.Flags.JSON {
		a.Output = output.New(output.Options{Format: output.FormatJSON, Writer: os.Stdout})
	}
	if a.Flags.Verbose || os.Getenv("RACELINK_DEBUG") != "" {
		a.Client.SetVerbose(true)
	}
}

// OK outputs a success response.
func (a *App) OK(data any, opts ...output.ResponseOption) error {
	return a.Output.OK(data, opts...)
}

// Err outputs an error response and returns the exit code.
func (a *App) Err(err error) int {
	return a.Output.Err(err)
}

// WithApp stores the app in the context.
func WithApp(ctx context.Context, app *App) context.Context {
	return context.WithValue(ctx, appKey, app)
}

// FromContext retrieves the app from the context.
func FromContext(ctx context.Context) *App {
	app, _ := ctx.Value(appKey).(*App)
	return app
}

package appctx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/racedaylabs/racelink/internal/config"
)

func TestWithAppRoundTrip(t *testing.T) {
	t.Setenv("RACELINK_NO_KEYRING", "1")
	cfg := config.Default()
	cfg.ConfigDir = t.TempDir()
	app := NewApp(cfg)

	ctx := WithApp(context.Background(), app)
	assert.Same(t, app, FromContext(ctx))
	assert.Nil(t, FromContext(context.Background()))
}

func TestNewAppWiresCollaborators(t *testing.T) {
	t.Setenv("RACELINK_NO_KEYRING", "1")
	cfg := config.Default()
	cfg.ConfigDir = t.TempDir()
	app := NewApp(cfg)

	require.NotNil(t, app.Auth)
	require.NotNil(t, app.Client)
	require.NotNil(t, app.Linkage)
	require.NotNil(t, app.Output)
}

package auth

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/racedaylabs/racelink/internal/sdk"
)

func TestStoreFileBackend(t *testing.T) {
	tmpDir := t.TempDir()
	store := NewFileStore(tmpDir)

	creds := &sdk.Credentials{
		AccessToken:  "test-access-token",
		RefreshToken: "test-refresh-token",
		ExpiresAt:    time.Now().Add(time.Hour).UTC().Truncate(time.Second),
		TokenType:    "bearer",
		UserID:       12345,
	}

	require.NoError(t, store.Save(creds), "Save failed")

	// Verify file was created with correct permissions
	credFile := filepath.Join(tmpDir, "credentials.json")
	info, err := os.Stat(credFile)
	require.NoError(t, err, "Credentials file not created")
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm(), "File permissions mismatch")

	loaded, err := store.Load()
	require.NoError(t, err, "Load failed")

	assert.Equal(t, creds.AccessToken, loaded.AccessToken)
	assert.Equal(t, creds.RefreshToken, loaded.RefreshToken)
	assert.True(t, creds.ExpiresAt.Equal(loaded.ExpiresAt))
	assert.Equal(t, creds.TokenType, loaded.TokenType)
	assert.Equal(t, creds.UserID, loaded.UserID)
}

func TestStoreLoadMissing(t *testing.T) {
	store := NewFileStore(t.TempDir())
	_, err := store.Load()
	assert.ErrorIs(t, err, ErrNoCredentials)
}

func TestStoreDeleteIdempotent(t *testing.T) {
	store := NewFileStore(t.TempDir())

	require.NoError(t, store.Save(&sdk.Credentials{AccessToken: "tok"}))
	require.NoError(t, store.Delete())

	_, err := store.Load()
	assert.ErrorIs(t, err, ErrNoCredentials)

	// Deleting absent credentials is not an error
	assert.NoError(t, store.Delete())
}

func TestStoreOverwriteReplacesUnit(t *testing.T) {
	store := NewFileStore(t.TempDir())

	require.NoError(t, store.Save(&sdk.Credentials{
		AccessToken:  "first",
		RefreshToken: "first-refresh",
		ExpiresAt:    time.Now().Add(time.Hour),
	}))
	require.NoError(t, store.Save(&sdk.Credentials{
		AccessToken: "second",
		ExpiresAt:   time.Now().Add(2 * time.Hour),
	}))

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "second", loaded.AccessToken)
	// Old refresh token must not leak into the replacement
	assert.Empty(t, loaded.RefreshToken)
}

func TestNewStoreRespectsNoKeyringEnv(t *testing.T) {
	t.Setenv("RACELINK_NO_KEYRING", "1")
	store := NewStore(t.TempDir())
	assert.False(t, store.UsingKeyring())
}

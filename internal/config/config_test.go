package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "https://api.racedayhq.com/rest", cfg.BaseURL)
	assert.Equal(t, "http://127.0.0.1:8976/callback", cfg.RedirectURL)
	assert.Equal(t, "json", cfg.Format)
}

func TestLoadFromJSONFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"base_url": "https://staging.racedayhq.example",
		"api_key": "pk",
		"api_secret": "ps"
	}`), 0600))

	cfg := Default()
	loadFromFile(cfg, path, SourceGlobal)

	assert.Equal(t, "https://staging.racedayhq.example", cfg.BaseURL)
	assert.Equal(t, "pk", cfg.APIKey)
	assert.Equal(t, "ps", cfg.APISecret)
	assert.Equal(t, string(SourceGlobal), cfg.Sources["base_url"])
}

func TestLoadFromYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api_key: yk\nclient_id: cid\n"), 0600))

	cfg := Default()
	loadFromFile(cfg, path, SourceGlobal)

	assert.Equal(t, "yk", cfg.APIKey)
	assert.Equal(t, "cid", cfg.ClientID)
}

func TestRepoConfigCannotSetBaseURL(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"base_url": "https://evil.example",
		"api_key": "repo-key"
	}`), 0600))

	cfg := Default()
	loadFromFile(cfg, path, SourceRepo)

	// Authority key ignored, ordinary key accepted
	assert.Equal(t, "https://api.racedayhq.com/rest", cfg.BaseURL)
	assert.Equal(t, "repo-key", cfg.APIKey)
}

func TestRepoConfigCannotSetRedirectURL(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"redirect_url": "http://evil.example/cb"}`), 0600))

	cfg := Default()
	loadFromFile(cfg, path, SourceRepo)
	assert.Equal(t, "http://127.0.0.1:8976/callback", cfg.RedirectURL)
}

func TestMalformedFileSkipped(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0600))

	cfg := Default()
	loadFromFile(cfg, path, SourceGlobal)
	assert.Equal(t, "https://api.racedayhq.com/rest", cfg.BaseURL)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("RACELINK_BASE_URL", "https://env.racedayhq.example")
	t.Setenv("RACELINK_API_KEY", "env-key")

	cfg := Default()
	LoadFromEnv(cfg)

	assert.Equal(t, "https://env.racedayhq.example", cfg.BaseURL)
	assert.Equal(t, "env-key", cfg.APIKey)
	assert.Equal(t, string(SourceEnv), cfg.Sources["api_key"])
}

func TestFlagOverridesWinOverEnv(t *testing.T) {
	t.Setenv("RACELINK_BASE_URL", "https://env.racedayhq.example")

	cfg := Default()
	LoadFromEnv(cfg)
	ApplyOverrides(cfg, FlagOverrides{BaseURL: "https://flag.racedayhq.example"})

	assert.Equal(t, "https://flag.racedayhq.example", cfg.BaseURL)
	assert.Equal(t, string(SourceFlag), cfg.Sources["base_url"])
}

func TestNormalizeBaseURL(t *testing.T) {
	assert.Equal(t, "https://x.example", NormalizeBaseURL("https://x.example/"))
	assert.Equal(t, "https://x.example", NormalizeBaseURL("https://x.example"))
	assert.Equal(t, "https://x.example/rest", NormalizeBaseURL("https://x.example/rest//"))
}

func TestFindConfigFilePrefersJSON(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("api_key: y\n"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), []byte(`{"api_key":"j"}`), 0600))

	assert.Equal(t, filepath.Join(dir, "config.json"), findConfigFile(dir))
}

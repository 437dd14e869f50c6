// Package config provides layered configuration loading.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the resolved configuration.
type Config struct {
	// API settings
	BaseURL   string `json:"base_url" yaml:"base_url"`
	APIKey    string `json:"api_key" yaml:"api_key"`
	APISecret string `json:"api_secret" yaml:"api_secret"`

	// OAuth client settings
	ClientID     string `json:"client_id" yaml:"client_id"`
	ClientSecret string `json:"client_secret" yaml:"client_secret"`
	RedirectURL  string `json:"redirect_url" yaml:"redirect_url"`

	// Output settings
	Format string `json:"format" yaml:"format"`

	// ConfigDir is where credentials and profile state live.
	ConfigDir string `json:"config_dir" yaml:"config_dir"`

	// Sources tracks where each value came from (for debugging).
	Sources map[string]string `json:"-" yaml:"-"`
}

// Source indicates where a config value came from.
type Source string

const (
	SourceDefault Source = "default"
	SourceGlobal  Source = "global"
	SourceRepo    Source = "repo"
	SourceEnv     Source = "env"
	SourceFlag    Source = "flag"
)

// FlagOverrides holds command-line flag values.
type FlagOverrides struct {
	BaseURL   string
	Format    string
	ConfigDir string
}

// The redirect URL registered during authorization must be byte-identical in
// the code-exchange request; the provider enforces equality.
const defaultRedirectURL = "http://127.0.0.1:8976/callback"

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		BaseURL:     "https://api.racedayhq.com/rest",
		RedirectURL: defaultRedirectURL,
		Format:      "json",
		ConfigDir:   GlobalConfigDir(),
		Sources:     make(map[string]string),
	}
}

// GlobalConfigDir returns the global config directory path.
func GlobalConfigDir() string {
	if dir := os.Getenv("RACELINK_CONFIG_DIR"); dir != "" {
		return dir
	}
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "racelink")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "racelink")
}

// Load loads configuration from all sources with proper precedence.
// Precedence: flags > env > repo > global > defaults
func Load(overrides FlagOverrides) (*Config, error) {
	cfg := Default()

	loadFromFile(cfg, findConfigFile(GlobalConfigDir()), SourceGlobal)

	if repoDir, err := os.Getwd(); err == nil {
		loadFromFile(cfg, findConfigFile(filepath.Join(repoDir, ".racelink")), SourceRepo)
	}

	// .env is a convenience layer feeding the env var pass below
	_ = godotenv.Load()
	LoadFromEnv(cfg)

	ApplyOverrides(cfg, overrides)

	return cfg, nil
}

// findConfigFile returns the first existing config file in dir, preferring
// JSON over YAML.
func findConfigFile(dir string) string {
	for _, name := range []string{"config.json", "config.yaml", "config.yml"} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

func loadFromFile(cfg *Config, path string, source Source) {
	if path == "" {
		return
	}
	data, err := os.ReadFile(path) //nolint:gosec // G304: Path is from trusted config locations
	if err != nil {
		return // File doesn't exist, skip
	}

	var fileCfg map[string]any
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &fileCfg)
	default:
		err = json.Unmarshal(data, &fileCfg)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: skipping malformed config at %s: %v\n", path, err)
		return
	}

	// base_url controls where tokens are sent. Repo config must NOT set it;
	// a malicious config in a cloned repo could redirect authenticated traffic.
	if v, ok := fileCfg["base_url"].(string); ok && v != "" {
		if source == SourceRepo {
			fmt.Fprintf(os.Stderr, "warning: ignoring base_url %q from repo config at %s\n", v, path)
		} else {
			cfg.BaseURL = v
			cfg.Sources["base_url"] = string(source)
		}
	}
	if v, ok := fileCfg["api_key"].(string); ok && v != "" {
		cfg.APIKey = v
		cfg.Sources["api_key"] = string(source)
	}
	if v, ok := fileCfg["api_secret"].(string); ok && v != "" {
		cfg.APISecret = v
		cfg.Sources["api_secret"] = string(source)
	}
	if v, ok := fileCfg["client_id"].(string); ok && v != "" {
		cfg.ClientID = v
		cfg.Sources["client_id"] = string(source)
	}
	if v, ok := fileCfg["client_secret"].(string); ok && v != "" {
		cfg.ClientSecret = v
		cfg.Sources["client_secret"] = string(source)
	}
	if v, ok := fileCfg["redirect_url"].(string); ok && v != "" {
		if source == SourceRepo {
			fmt.Fprintf(os.Stderr, "warning: ignoring redirect_url %q from repo config at %s\n", v, path)
		} else {
			cfg.RedirectURL = v
			cfg.Sources["redirect_url"] = string(source)
		}
	}
	if v, ok := fileCfg["format"].(string); ok && v != "" {
		cfg.Format = v
		cfg.Sources["format"] = string(source)
	}
}

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv(cfg *Config) {
	if v := os.Getenv("RACELINK_BASE_URL"); v != "" {
		cfg.BaseURL = v
		cfg.Sources["base_url"] = string(SourceEnv)
	}
	if v := os.Getenv("RACELINK_API_KEY"); v != "" {
		cfg.APIKey = v
		cfg.Sources["api_key"] = string(SourceEnv)
	}
	if v := os.Getenv("RACELINK_API_SECRET"); v != "" {
		cfg.APISecret = v
		cfg.Sources["api_secret"] = string(SourceEnv)
	}
	if v := os.Getenv("RACELINK_CLIENT_ID"); v != "" {
		cfg.ClientID = v
		cfg.Sources["client_id"] = string(SourceEnv)
	}
	if v := os.Getenv("RACELINK_CLIENT_SECRET"); v != "" {
		cfg.ClientSecret = v
		cfg.Sources["client_secret"] = string(SourceEnv)
	}
	if v := os.Getenv("RACELINK_FORMAT"); v != "" {
		cfg.Format = v
		cfg.Sources["format"] = string(SourceEnv)
	}
}

// ApplyOverrides applies non-empty flag overrides to cfg.
func ApplyOverrides(cfg *Config, o FlagOverrides) {
	if o.BaseURL != "" {
		cfg.BaseURL = o.BaseURL
		cfg.Sources["base_url"] = string(SourceFlag)
	}
	if o.Format != "" {
		cfg.Format = o.Format
		cfg.Sources["format"] = string(SourceFlag)
	}
	if o.ConfigDir != "" {
		cfg.ConfigDir = o.ConfigDir
		cfg.Sources["config_dir"] = string(SourceFlag)
	}
}

// NormalizeBaseURL strips trailing slashes so URL building is predictable.
func NormalizeBaseURL(u string) string {
	return strings.TrimRight(u, "/")
}

package api

import (
	"context"
	"net/url"
	"strings"

	"github.com/racedaylabs/racelink/internal/config"
	"github.com/racedaylabs/racelink/internal/output"
)

// The service applies different trust levels per resource family: per-user
// data needs the user's bearer token, public race listings accept the shared
// partner key only, and registration writes need both.
type credScheme int

const (
	schemeBearerAndKey credScheme = iota // registration/participant paths
	schemeBearerOnly                     // user-scoped paths
	schemeKeyOnly                        // photo paths
	schemeDefault                        // prefer partner key, else bearer
)

func (s credScheme) String() string {
	switch s {
	case schemeBearerAndKey:
		return "bearer+key"
	case schemeBearerOnly:
		return "bearer"
	case schemeKeyOnly:
		return "key"
	default:
		return "default"
	}
}

// schemeForPath selects the credential scheme. Match order matters:
// participant paths live under /race/ and would otherwise fall through to
// the key-only photo rule or the default.
func schemeForPath(path string) credScheme {
	switch {
	case strings.Contains(path, "/participant") || strings.Contains(path, "/registration"):
		return schemeBearerAndKey
	case strings.HasPrefix(path, "/user"):
		return schemeBearerOnly
	case strings.Contains(path, "/photos"):
		return schemeKeyOnly
	default:
		return schemeDefault
	}
}

// builtURL is a fully constructed request target plus the header credential
// to attach.
type builtURL struct {
	full   string
	bearer string
	scheme credScheme
}

// buildURL assembles the request URL with format=json and the credentials
// the path's scheme requires. The bearer token is only resolved when the
// scheme calls for it, so public queries work while unauthenticated.
func (c *Client) buildURL(ctx context.Context, method, path string, params url.Values) (*builtURL, error) {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	q := url.Values{}
	for k, vs := range params {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	q.Set("format", "json")

	scheme := schemeForPath(path)

	needKey := scheme == schemeBearerAndKey || scheme == schemeKeyOnly ||
		(scheme == schemeDefault && c.cfg.APIKey != "")
	needBearer := scheme == schemeBearerAndKey || scheme == schemeBearerOnly ||
		(scheme == schemeDefault && c.cfg.APIKey == "")

	if needKey {
		if c.cfg.APIKey == "" {
			return nil, output.ErrUsageHint("No partner API key configured",
				"Set RACELINK_API_KEY and RACELINK_API_SECRET or api_key/api_secret in config")
		}
		q.Set("api_key", c.cfg.APIKey)
		if c.cfg.APISecret != "" {
			q.Set("api_secret", c.cfg.APISecret)
		}
	}

	var bearer string
	if needBearer {
		tok, err := c.tokens.Token(ctx)
		if err != nil {
			return nil, err
		}
		bearer = tok
	}

	full := config.NormalizeBaseURL(c.cfg.BaseURL) + path + "?" + q.Encode()
	return &builtURL{full: full, bearer: bearer, scheme: scheme}, nil
}

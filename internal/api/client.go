// Package api provides the HTTP client for the race service API.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/racedaylabs/racelink/internal/config"
	"github.com/racedaylabs/racelink/internal/output"
	"github.com/racedaylabs/racelink/internal/sdk"
	"github.com/racedaylabs/racelink/internal/version"
)

// Numeric error codes from the service envelope with client-side meaning.
// Everything else is terminal for the request that received it.
const (
	wireCodeAuthExpired = 102 // expired authorization, refresh and replay once
	wireCodeNoRecords   = 601 // nothing matched, normalized to empty collections
)

// Client is an HTTP client for the race service API.
type Client struct {
	httpClient *http.Client
	cfg        *config.Config
	tokens     sdk.TokenSource
	verbose    bool
}

// Response wraps an unwrapped API response payload.
type Response struct {
	Data       json.RawMessage
	StatusCode int
	Headers    http.Header
}

// UnmarshalData unmarshals the response data into the given value.
func (r *Response) UnmarshalData(v any) error {
	return json.Unmarshal(r.Data, v)
}

// NewClient creates a new API client.
func NewClient(cfg *config.Config, tokens sdk.TokenSource) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		cfg:    cfg,
		tokens: tokens,
	}
}

// SetVerbose enables verbose output for debugging.
func (c *Client) SetVerbose(v bool) {
	c.verbose = v
}

// Domain client accessors.

// Races returns the race client.
func (c *Client) Races() *RaceService { return &RaceService{client: c} }

// Users returns the user client.
func (c *Client) Users() *UserService { return &UserService{client: c} }

// Registrations returns the registration client.
func (c *Client) Registrations() *RegistrationService {
	return &RegistrationService{client: c}
}

// Photos returns the photo client.
func (c *Client) Photos() *PhotoService { return &PhotoService{client: c} }

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, path string, params url.Values) (*Response, error) {
	return c.doRequest(ctx, "GET", path, params, nil)
}

// Post performs a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, params url.Values, body any) (*Response, error) {
	return c.doRequest(ctx, "POST", path, params, body)
}

// Put performs a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, path string, params url.Values, body any) (*Response, error) {
	return c.doRequest(ctx, "PUT", path, params, body)
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, path string, params url.Values) (*Response, error) {
	return c.doRequest(ctx, "DELETE", path, params, nil)
}

// doRequest issues the request, unwrapping the service envelope. An expired
// authorization triggers exactly one refresh-then-replay; a second expiry is
// terminal so a broken provider cannot cause a retry storm.
func (c *Client) doRequest(ctx context.Context, method, path string, params url.Values, body any) (*Response, error) {
	resp, err := c.singleRequest(ctx, method, path, params, body)
	if !output.IsAuthExpired(err) {
		return resp, err
	}

	if refreshErr := c.tokens.Refresh(ctx); refreshErr != nil {
		return nil, refreshErr
	}

	resp, err = c.singleRequest(ctx, method, path, params, body)
	if output.IsAuthExpired(err) {
		return nil, output.ErrAuth("Authorization expired")
	}
	return resp, err
}

func (c *Client) singleRequest(ctx context.Context, method, path string, params url.Values, body any) (*Response, error) {
	reqURL, err := c.buildURL(ctx, method, path, params)
	if err != nil {
		return nil, err
	}

	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal body: %w", err)
		}
		bodyReader = strings.NewReader(string(bodyBytes))
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL.full, bodyReader)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", version.UserAgent())
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if reqURL.bearer != "" {
		req.Header.Set("Authorization", "Bearer "+reqURL.bearer)
	}

	if c.verbose {
		fmt.Fprintf(os.Stderr, "[racelink] %s %s (%s)\n", method, path, reqURL.scheme)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, output.ErrNetwork(err)
	}
	defer resp.Body.Close()

	if c.verbose {
		fmt.Fprintf(os.Stderr, "[racelink] HTTP %d\n", resp.StatusCode)
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	// The envelope error wins over the HTTP status: the service reports
	// failures inside 200 responses and occasionally the reverse.
	data, envErr := unwrapEnvelope(respBody)
	if envErr != nil {
		return nil, envErr
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if resp.StatusCode == http.StatusNotFound {
			return nil, output.ErrNotFound("Resource", path)
		}
		return nil, output.ErrHTTP(resp.StatusCode, fmt.Sprintf("Request failed (HTTP %d)", resp.StatusCode))
	}

	return &Response{
		Data:       data,
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
	}, nil
}

// unwrapEnvelope extracts the payload from the {data, error} wrapper. A body
// with neither field is treated as the payload itself.
func unwrapEnvelope(body []byte) (json.RawMessage, error) {
	var env struct {
		Data  json.RawMessage `json:"data"`
		Error *struct {
			Code    int    `json:"error_code"`
			Message string `json:"error_msg"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		// Not an object envelope (array payloads, plain values)
		return body, nil
	}

	if env.Error != nil {
		switch env.Error.Code {
		case wireCodeAuthExpired:
			return nil, output.ErrAuthExpired(env.Error.Code)
		case wireCodeNoRecords:
			return nil, errNoRecords
		default:
			msg := env.Error.Message
			if msg == "" {
				msg = fmt.Sprintf("Request failed (error code %d)", env.Error.Code)
			}
			return nil, output.ErrAPI(env.Error.Code, msg)
		}
	}

	if env.Data != nil {
		return env.Data, nil
	}
	return body, nil
}

// errNoRecords is the internal sentinel for the service's "nothing found"
// code. Domain clients normalize it to empty collections; it never escapes
// the package.
var errNoRecords = output.ErrAPI(wireCodeNoRecords, "No records found")

// isNoRecords reports whether err is the absence-of-data sentinel.
func isNoRecords(err error) bool {
	e := output.AsError(err)
	return e.Code == output.CodeAPI && e.WireCode == wireCodeNoRecords
}

package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/itchyny/gojq"
	"github.com/spf13/cobra"

	"github.com/racedaylabs/racelink/internal/api"
	"github.com/racedaylabs/racelink/internal/appctx"
	"github.com/racedaylabs/racelink/internal/output"
)

// NewAPICmd creates the api command for raw API access.
func NewAPICmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "api <verb> <path>",
		Short: "Raw API access",
		Long: "Make raw requests to any race service endpoint. Credentials are attached " +
			"per the path's scheme, the same as dedicated commands.",
	}

	cmd.AddCommand(
		newAPIGetCmd(),
		newAPIPostCmd(),
		newAPIPutCmd(),
		newAPIDeleteCmd(),
	)

	return cmd
}

func newAPIGetCmd() *cobra.Command {
	var jqFilter string
	var queryParams []string

	cmd := &cobra.Command{
		Use:   "get <path>",
		Short: "GET request to the API",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appctx.FromContext(cmd.Context())
			if app == nil {
				return fmt.Errorf("app not initialized")
			}

			params, err := parseQueryParams(queryParams)
			if err != nil {
				return err
			}

			resp, err := app.Client.Get(cmd.Context(), args[0], params)
			if err != nil {
				return err
			}
			return writeRawResponse(cmd.Context(), app, resp.Data, jqFilter)
		},
	}

	cmd.Flags().StringVar(&jqFilter, "jq", "", "Filter the response with a jq expression")
	cmd.Flags().StringArrayVarP(&queryParams, "param", "P", nil, "Query parameter as key=value (repeatable)")

	return cmd
}

func newAPIPostCmd() *cobra.Command {
	return newAPIWriteCmd("post", "POST request to the API")
}

func newAPIPutCmd() *cobra.Command {
	return newAPIWriteCmd("put", "PUT request to the API")
}

func newAPIWriteCmd(verb, short string) *cobra.Command {
	var data, jqFilter string

	cmd := &cobra.Command{
		Use:   verb + " <path>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appctx.FromContext(cmd.Context())
			if app == nil {
				return fmt.Errorf("app not initialized")
			}

			if data == "" {
				return output.ErrUsage("--data is required")
			}
			var body any
			if err := json.Unmarshal([]byte(data), &body); err != nil {
				return output.ErrUsageHint("Invalid JSON data", fmt.Sprintf("JSON parse error: %v", err))
			}

			var resp *api.Response
			var err error
			if verb == "post" {
				resp, err = app.Client.Post(cmd.Context(), args[0], nil, body)
			} else {
				resp, err = app.Client.Put(cmd.Context(), args[0], nil, body)
			}
			if err != nil {
				return err
			}
			return writeRawResponse(cmd.Context(), app, resp.Data, jqFilter)
		},
	}

	cmd.Flags().StringVarP(&data, "data", "d", "", "JSON request body (required)")
	cmd.Flags().StringVar(&jqFilter, "jq", "", "Filter the response with a jq expression")

	return cmd
}

func newAPIDeleteCmd() *cobra.Command {
	var jqFilter string

	cmd := &cobra.Command{
		Use:   "delete <path>",
		Short: "DELETE request to the API",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appctx.FromContext(cmd.Context())
			if app == nil {
				return fmt.Errorf("app not initialized")
			}

			resp, err := app.Client.Delete(cmd.Context(), args[0], nil)
			if err != nil {
				return err
			}
			return writeRawResponse(cmd.Context(), app, resp.Data, jqFilter)
		},
	}

	cmd.Flags().StringVar(&jqFilter, "jq", "", "Filter the response with a jq expression")

	return cmd
}

// parseQueryParams converts repeated key=value flags into url.Values.
func parseQueryParams(pairs []string) (url.Values, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	params := url.Values{}
	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		if !found || key == "" {
			return nil, output.ErrUsage(fmt.Sprintf("Invalid query parameter %q (expected key=value)", pair))
		}
		params.Add(key, value)
	}
	return params, nil
}

// writeRawResponse emits the payload, optionally piped through a jq filter.
func writeRawResponse(ctx context.Context, app *appctx.App, data json.RawMessage, jqFilter string) error {
	if jqFilter == "" {
		return app.OK(json.RawMessage(data))
	}

	query, err := gojq.Parse(jqFilter)
	if err != nil {
		return output.ErrUsageHint("Invalid jq filter", err.Error())
	}

	var input any
	if len(data) > 0 {
		if err := json.Unmarshal(data, &input); err != nil {
			return fmt.Errorf("failed to parse response for filtering: %w", err)
		}
	}

	var results []any
	iter := query.RunWithContext(ctx, input)
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}
		if err, isErr := v.(error); isErr {
			return output.ErrUsageHint("jq filter failed", err.Error())
		}
		results = append(results, v)
	}

	// A filter with one output prints the value, not a one-element array
	if len(results) == 1 {
		return app.OK(results[0])
	}
	return app.OK(results)
}

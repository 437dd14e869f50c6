package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/racedaylabs/racelink/internal/appctx"
	"github.com/racedaylabs/racelink/internal/output"
)

func bufferedApp(buf *bytes.Buffer) *appctx.App {
	return &appctx.App{
		Output: output.New(output.Options{Format: output.FormatQuiet, Writer: buf}),
	}
}

func TestWriteRawResponsePassthrough(t *testing.T) {
	var buf bytes.Buffer
	app := bufferedApp(&buf)

	err := writeRawResponse(context.Background(), app, json.RawMessage(`{"races":[]}`), "")
	require.NoError(t, err)
	assert.JSONEq(t, `{"races":[]}`, buf.String())
}

func TestWriteRawResponseJQFilter(t *testing.T) {
	var buf bytes.Buffer
	app := bufferedApp(&buf)

	payload := json.RawMessage(`{"races":[{"race":{"name":"Harbor Half"}},{"race":{"name":"Fall 5K"}}]}`)
	err := writeRawResponse(context.Background(), app, payload, ".races[].race.name")
	require.NoError(t, err)
	assert.JSONEq(t, `["Harbor Half","Fall 5K"]`, buf.String())
}

func TestWriteRawResponseJQSingleResult(t *testing.T) {
	var buf bytes.Buffer
	app := bufferedApp(&buf)

	err := writeRawResponse(context.Background(), app, json.RawMessage(`{"total":27}`), ".total")
	require.NoError(t, err)
	assert.Equal(t, "27\n", buf.String())
}

func TestWriteRawResponseBadFilter(t *testing.T) {
	var buf bytes.Buffer
	app := bufferedApp(&buf)

	err := writeRawResponse(context.Background(), app, json.RawMessage(`{}`), ".[(")
	require.Error(t, err)
	assert.Equal(t, output.CodeUsage, output.AsError(err).Code)
}

package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/racedaylabs/racelink/internal/output"
)

func TestParseID(t *testing.T) {
	id, err := parseID("race ID", "42")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	for _, bad := range []string{"", "abc", "-1", "0", "4.5"} {
		_, err := parseID("race ID", bad)
		require.Error(t, err, "input %q", bad)
		assert.Equal(t, output.CodeUsage, output.AsError(err).Code)
	}
}

func TestPluralize(t *testing.T) {
	assert.Equal(t, "1 race", pluralize(1, "race", "races"))
	assert.Equal(t, "0 races", pluralize(0, "race", "races"))
	assert.Equal(t, "3 races", pluralize(3, "race", "races"))
}

func TestParseQueryParams(t *testing.T) {
	params, err := parseQueryParams([]string{"bib_num=217", "page=2"})
	require.NoError(t, err)
	assert.Equal(t, "217", params.Get("bib_num"))
	assert.Equal(t, "2", params.Get("page"))

	params, err = parseQueryParams(nil)
	require.NoError(t, err)
	assert.Nil(t, params)

	_, err = parseQueryParams([]string{"noequals"})
	require.Error(t, err)
	_, err = parseQueryParams([]string{"=value"})
	require.Error(t, err)
}

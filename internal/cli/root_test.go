package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/racedaylabs/racelink/internal/output"
)

func TestNewRootCmdRegistersGlobalFlags(t *testing.T) {
	cmd := NewRootCmd()

	for _, name := range []string{"json", "quiet", "verbose", "base-url", "config-dir"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), "missing flag --%s", name)
	}
}

func TestTransformCobraError(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"missing value", "flag needs an argument: --start-date", "--start-date requires a value"},
		{"unknown flag", "unknown flag: --frobnicate", "Unknown option: --frobnicate"},
		{"unknown shorthand", "unknown shorthand flag: 'x' in -x", "Unknown option: -x"},
		{"arg count", "accepts 1 arg(s), received 0", "Missing or extra arguments. See --help for usage"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := transformCobraError(assertError(tt.in))
			e := output.AsError(err)
			require.Equal(t, output.CodeUsage, e.Code)
			assert.Equal(t, tt.want, e.Message)
		})
	}
}

func TestTransformCobraErrorPassesThroughUnknown(t *testing.T) {
	orig := assertError("something else entirely")
	assert.Equal(t, orig, transformCobraError(orig))
}

type assertError string

func (e assertError) Error() string { return string(e) }

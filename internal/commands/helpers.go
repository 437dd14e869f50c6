// Package commands implements the CLI commands.
package commands

import (
	"fmt"
	"strconv"

	"github.com/racedaylabs/racelink/internal/output"
)

// parseID parses a positional numeric ID argument.
func parseID(what, arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, output.ErrUsage(fmt.Sprintf("Invalid %s: %q (expected a positive number)", what, arg))
	}
	return id, nil
}

// pluralize returns the singular or plural form of a noun for a count.
func pluralize(n int, singular, plural string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, singular)
	}
	return fmt.Sprintf("%d %s", n, plural)
}

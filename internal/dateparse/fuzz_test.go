package dateparse

import (
	"testing"
	"time"
)

// FuzzParseFrom tests the ParseFrom function with arbitrary input.
// The function should never panic regardless of input.
func FuzzParseFrom(f *testing.F) {
	seeds := []string{
		"today", "tomorrow", "yesterday",
		"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday",
		"mon", "tue", "wed", "thu", "fri", "sat", "sun",
		"+1", "+7", "+365", "+0", "+-1",
		"in 1 day", "in 3 days", "in 1 week", "in 2 weeks",
		"2026-01-15", "2026-06-15",
		"", " ", "invalid", "+", "in days",
	}
	for _, s := range seeds {
		f.Add(s)
	}

	ref := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)

	f.Fuzz(func(t *testing.T, input string) {
		_ = ParseFrom(input, ref)
	})
}

// FuzzParseRaceDate ensures service date parsing never panics and that a
// successful parse round-trips through FormatRaceDate without the placeholder.
func FuzzParseRaceDate(f *testing.F) {
	seeds := []string{
		"05/17/2026", "5/7/2026", "05/17/2026 07:30",
		"2026-05-17", "2026-05-17T07:30:00Z",
		"", "garbage", "13/40/9999", "00/00/0000",
	}
	for _, s := range seeds {
		f.Add(s)
	}

	f.Fuzz(func(t *testing.T, input string) {
		if _, ok := ParseRaceDate(input); ok {
			if FormatRaceDate(input) == RaceDatePlaceholder {
				t.Errorf("parsable input %q formatted as placeholder", input)
			}
		}
	})
}

// Package dateparse provides date handling for race queries: natural
// language input for CLI filters and tolerant parsing of the date strings
// the race service emits.
package dateparse

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// RaceDatePlaceholder is returned by FormatRaceDate when the service sent a
// date the client cannot parse.
const RaceDatePlaceholder = "Date TBA"

// raceDateLayouts are tried in order. The service's primary format is
// MM/DD/YYYY; ISO forms show up on newer endpoints.
var raceDateLayouts = []string{
	"1/2/2006",
	"01/02/2006 15:04",
	"2006-01-02",
	time.RFC3339,
}

// ParseRaceDate parses a date string from a race payload.
// MM/DD/YYYY is tried before the generic layouts.
func ParseRaceDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range raceDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatRaceDate renders a race date for display. Unparsable input resolves
// to a fixed placeholder rather than an error.
func FormatRaceDate(s string) string {
	t, ok := ParseRaceDate(s)
	if !ok {
		return RaceDatePlaceholder
	}
	return t.Format("Jan 2, 2006")
}

// Parse parses a natural language date string and returns a date in
// YYYY-MM-DD format, suitable for race list filters.
// Supported formats:
//   - today, tomorrow, yesterday
//   - monday, tuesday, ... (next occurrence, same day = next week)
//   - +N (N days from now)
//   - in N days, in N weeks
//   - YYYY-MM-DD (passthrough)
//
// Unrecognized input is returned as-is.
func Parse(input string) string {
	return ParseFrom(input, time.Now())
}

// ParseFrom parses a date relative to the given reference time.
// This is useful for testing and for parsing relative to a specific date.
func ParseFrom(input string, now time.Time) string {
	input = strings.ToLower(strings.TrimSpace(input))

	switch input {
	case "today":
		return formatDate(now)
	case "tomorrow":
		return formatDate(now.AddDate(0, 0, 1))
	case "yesterday":
		return formatDate(now.AddDate(0, 0, -1))
	}

	if day, ok := parseWeekday(input); ok {
		return formatDate(nextWeekday(now, day))
	}

	if strings.HasPrefix(input, "+") {
		if days, err := strconv.Atoi(input[1:]); err == nil {
			return formatDate(now.AddDate(0, 0, days))
		}
	}

	if match := inDaysPattern.FindStringSubmatch(input); match != nil {
		if days, err := strconv.Atoi(match[1]); err == nil {
			return formatDate(now.AddDate(0, 0, days))
		}
	}

	if match := inWeeksPattern.FindStringSubmatch(input); match != nil {
		if weeks, err := strconv.Atoi(match[1]); err == nil {
			return formatDate(now.AddDate(0, 0, weeks*7))
		}
	}

	if datePattern.MatchString(input) {
		return input
	}

	return input
}

// IsValid returns true if the input resolves to a YYYY-MM-DD date.
func IsValid(input string) bool {
	return datePattern.MatchString(Parse(input))
}

var (
	datePattern    = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	inDaysPattern  = regexp.MustCompile(`^in (\d+) days?$`)
	inWeeksPattern = regexp.MustCompile(`^in (\d+) weeks?$`)
)

func formatDate(t time.Time) string {
	return t.Format("2006-01-02")
}

func parseWeekday(input string) (time.Weekday, bool) {
	switch input {
	case "sunday", "sun":
		return time.Sunday, true
	case "monday", "mon":
		return time.Monday, true
	case "tuesday", "tue":
		return time.Tuesday, true
	case "wednesday", "wed":
		return time.Wednesday, true
	case "thursday", "thu":
		return time.Thursday, true
	case "friday", "fri":
		return time.Friday, true
	case "saturday", "sat":
		return time.Saturday, true
	}
	return 0, false
}

// nextWeekday returns the next occurrence of the given weekday.
// If today IS the target weekday, it returns today plus 7 days.
func nextWeekday(now time.Time, target time.Weekday) time.Time {
	daysUntil := int(target - now.Weekday())
	if daysUntil <= 0 {
		daysUntil += 7
	}
	return now.AddDate(0, 0, daysUntil)
}

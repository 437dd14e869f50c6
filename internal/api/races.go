package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/racedaylabs/racelink/internal/dateparse"
	"github.com/racedaylabs/racelink/internal/models"
)

// RaceService exposes race listing and lookup operations.
type RaceService struct {
	client *Client
}

// RaceStatus classifies a race relative to a point in time.
type RaceStatus string

const (
	RaceLive     RaceStatus = "live"
	RaceUpcoming RaceStatus = "upcoming"
	RacePast     RaceStatus = "past"
)

// ListRacesOptions filters a race listing.
type ListRacesOptions struct {
	StartDate     string // YYYY-MM-DD, races on or after this date
	SortDirection string // "asc" or "desc" by next race date
	Query         string
	Page          int
	PerPage       int
}

// RaceList is a page of races with the total match count.
type RaceList struct {
	Races []models.Race `json:"races"`
	Total int           `json:"total"`
}

// The service wraps each race in a one-key object inside the list payload.
type raceListWire struct {
	Races []struct {
		Race models.Race `json:"race"`
	} `json:"races"`
	Total int `json:"total_results"`
}

// List fetches races matching the given filters.
func (s *RaceService) List(ctx context.Context, opts ListRacesOptions) (*RaceList, error) {
	params := url.Values{}
	if opts.StartDate != "" {
		params.Set("start_date", opts.StartDate)
	}
	if opts.SortDirection != "" {
		params.Set("sort", "next_date "+opts.SortDirection)
	}
	if opts.Query != "" {
		params.Set("search", opts.Query)
	}
	if opts.Page > 0 {
		params.Set("page", strconv.Itoa(opts.Page))
	}
	if opts.PerPage > 0 {
		params.Set("results_per_page", strconv.Itoa(opts.PerPage))
	}

	resp, err := s.client.Get(ctx, "/races", params)
	if err != nil {
		if isNoRecords(err) {
			return &RaceList{Races: []models.Race{}}, nil
		}
		return nil, err
	}

	var wire raceListWire
	if err := resp.UnmarshalData(&wire); err != nil {
		return nil, fmt.Errorf("failed to parse race list: %w", err)
	}

	list := &RaceList{
		Races: make([]models.Race, 0, len(wire.Races)),
		Total: wire.Total,
	}
	for _, entry := range wire.Races {
		list.Races = append(list.Races, entry.Race)
	}
	return list, nil
}

// Details fetches a single race with its events.
func (s *RaceService) Details(ctx context.Context, id int64) (*models.Race, error) {
	resp, err := s.client.Get(ctx, fmt.Sprintf("/race/%d", id), nil)
	if err != nil {
		return nil, err
	}

	var wire struct {
		Race models.Race `json:"race"`
	}
	if err := resp.UnmarshalData(&wire); err != nil {
		return nil, fmt.Errorf("failed to parse race: %w", err)
	}
	return &wire.Race, nil
}

// Search finds races by name or location text.
func (s *RaceService) Search(ctx context.Context, query string) ([]models.Race, error) {
	list, err := s.List(ctx, ListRacesOptions{Query: query})
	if err != nil {
		return nil, err
	}
	return list.Races, nil
}

// Status computes the race's status for the current date.
func (s *RaceService) Status(race *models.Race) RaceStatus {
	return StatusAt(race, time.Now())
}

// StatusAt classifies a race against a reference time. The [next, last]
// window is inclusive on both ends; any unparsable date resolves to
// upcoming so a malformed payload never reads as a finished race.
func StatusAt(race *models.Race, now time.Time) RaceStatus {
	next, nextOK := dateparse.ParseRaceDate(race.NextDate)
	if !nextOK {
		return RaceUpcoming
	}
	last, lastOK := dateparse.ParseRaceDate(race.LastDate)
	if !lastOK {
		last = next
	}

	today := now.Format("2006-01-02")
	nextDay := next.Format("2006-01-02")
	lastDay := last.Format("2006-01-02")

	switch {
	case today < nextDay:
		return RaceUpcoming
	case today > lastDay:
		return RacePast
	default:
		return RaceLive
	}
}

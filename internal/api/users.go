package api

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"time"

	"github.com/racedaylabs/racelink/internal/dateparse"
	"github.com/racedaylabs/racelink/internal/models"
)

// UserService exposes identity and registration-history operations.
// All paths here are user-scoped and carry the user's bearer token.
type UserService struct {
	client *Client
}

// Info fetches the identity for a linked user.
func (s *UserService) Info(ctx context.Context, id int64) (*models.Identity, error) {
	resp, err := s.client.Get(ctx, fmt.Sprintf("/user/%d", id), nil)
	if err != nil {
		return nil, err
	}

	var wire struct {
		User models.Identity `json:"user"`
	}
	if err := resp.UnmarshalData(&wire); err != nil {
		return nil, fmt.Errorf("failed to parse user: %w", err)
	}
	return &wire.User, nil
}

// UpcomingRegistrations returns the user's future registrations sorted by
// race date ascending.
func (s *UserService) UpcomingRegistrations(ctx context.Context, id int64) ([]models.Registration, error) {
	regs, err := s.registrations(ctx, id, "upcoming")
	if err != nil {
		return nil, err
	}
	sortRegistrations(regs, true)
	return regs, nil
}

// PastRegistrations returns the user's completed registrations sorted by
// race date descending.
func (s *UserService) PastRegistrations(ctx context.Context, id int64) ([]models.Registration, error) {
	regs, err := s.registrations(ctx, id, "past")
	if err != nil {
		return nil, err
	}
	sortRegistrations(regs, false)
	return regs, nil
}

func (s *UserService) registrations(ctx context.Context, id int64, period string) ([]models.Registration, error) {
	params := url.Values{}
	params.Set("period", period)

	resp, err := s.client.Get(ctx, fmt.Sprintf("/user/%d/registrations", id), params)
	if err != nil {
		if isNoRecords(err) {
			return []models.Registration{}, nil
		}
		return nil, err
	}

	var wire struct {
		Registrations []models.Registration `json:"registrations"`
	}
	if err := resp.UnmarshalData(&wire); err != nil {
		return nil, fmt.Errorf("failed to parse registrations: %w", err)
	}
	if wire.Registrations == nil {
		wire.Registrations = []models.Registration{}
	}
	return wire.Registrations, nil
}

// sortRegistrations orders by race date. Entries with a missing or
// unparsable date sort as epoch zero, landing at the earliest position.
func sortRegistrations(regs []models.Registration, asc bool) {
	key := func(r models.Registration) time.Time {
		t, ok := dateparse.ParseRaceDate(r.RaceDate)
		if !ok {
			return time.Time{}
		}
		return t
	}
	sort.SliceStable(regs, func(i, j int) bool {
		ti, tj := key(regs[i]), key(regs[j])
		if asc {
			return ti.Before(tj)
		}
		return tj.Before(ti)
	})
}

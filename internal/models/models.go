// Package models provides canonical type definitions for race service entities.
// These types are used throughout the client and CLI for API responses.
package models

// Address is a race location.
type Address struct {
	Street  string `json:"street,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	Zip     string `json:"zipcode,omitempty"`
	Country string `json:"country_code,omitempty"`
}

// Race represents a race listing. Dates arrive as strings because the
// service emits MM/DD/YYYY alongside ISO formats depending on endpoint.
type Race struct {
	ID              int64       `json:"race_id"`
	Name            string      `json:"name"`
	Description     string      `json:"description,omitempty"`
	URL             string      `json:"url,omitempty"`
	Address         Address     `json:"address,omitempty"`
	NextDate        string      `json:"next_date,omitempty"`
	LastDate        string      `json:"last_date,omitempty"`
	Events          []RaceEvent `json:"events,omitempty"`
	IsDraft         bool        `json:"is_draft_race,omitempty"`
	FundraisingGoal float64     `json:"fundraising_goal,omitempty"`
	FundraisingRaised float64   `json:"fundraising_raised,omitempty"`
}

// RaceEvent is a single event within a race (5K, 10K, ...).
// Events are always nested under a Race, never fetched standalone.
type RaceEvent struct {
	ID                int64  `json:"event_id"`
	Name              string `json:"name"`
	Distance          string `json:"distance,omitempty"`
	StartTime         string `json:"start_time,omitempty"`
	RegistrationOpens string `json:"registration_opens,omitempty"`
	RegistrationEnds  string `json:"registration_ends,omitempty"`
	Capacity          int    `json:"max_participants,omitempty"`
}

// RegistrationStatus values are server-authoritative; the client never
// infers transitions locally.
const (
	RegistrationActive      = "active"
	RegistrationCancelled   = "cancelled"
	RegistrationTransferred = "transferred"
)

// Registration represents a race registration. Race and event are
// referenced by ID only and re-resolved when details are needed.
type Registration struct {
	ID        int64  `json:"registration_id"`
	RaceID    int64  `json:"race_id"`
	EventID   int64  `json:"event_id"`
	RaceName  string `json:"race_name,omitempty"`
	EventName string `json:"event_name,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Email     string `json:"email,omitempty"`
	Bib       string `json:"bib_num,omitempty"`
	Status    string `json:"status,omitempty"`
	RaceDate  string `json:"race_date,omitempty"`
}

// PhotoVariants holds the image URLs for a photo.
type PhotoVariants struct {
	Thumbnail string `json:"thumbnail_url,omitempty"`
	Large     string `json:"large_url,omitempty"`
	Original  string `json:"original_url,omitempty"`
}

// RacePhoto is a photo attached to a race. Read-only.
type RacePhoto struct {
	ID         int64         `json:"photo_id"`
	AlbumID    int64         `json:"album_id,omitempty"`
	Bibs       []string      `json:"bib_nums,omitempty"`
	Variants   PhotoVariants `json:"images"`
	UploadedTS int64         `json:"uploaded_ts,omitempty"`
}

// Identity is the minimal identity obtained after authorization completes.
type Identity struct {
	UserID    int64  `json:"user_id"`
	Email     string `json:"email,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

// IsPlaceholder reports whether this identity was synthesized because the
// service rejected detail lookups. Placeholder identities must never drive
// dependent fetches.
func (id Identity) IsPlaceholder() bool {
	return id.UserID <= 1
}

// DisplayName returns a printable name for the identity.
func (id Identity) DisplayName() string {
	switch {
	case id.FirstName != "" && id.LastName != "":
		return id.FirstName + " " + id.LastName
	case id.FirstName != "":
		return id.FirstName
	case id.Email != "":
		return id.Email
	default:
		return "linked account"
	}
}

package sdk

import "time"

// Credentials holds OAuth tokens and metadata. AccessToken and ExpiresAt are
// written together as one unit, never independently.
type Credentials struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	ExpiresAt    time.Time `json:"expires_at,omitempty"`
	TokenType    string    `json:"token_type,omitempty"` // "bearer" or "code" (degraded exchange)
	Scope        string    `json:"scope,omitempty"`
	UserID       int64     `json:"user_id,omitempty"`
}

// Expired reports whether the access token is expired or about to expire.
// A small buffer avoids sending a token that dies in flight.
func (c *Credentials) Expired(now time.Time) bool {
	if c.AccessToken == "" {
		return true
	}
	if c.ExpiresAt.IsZero() {
		return false
	}
	return !now.Add(5 * time.Minute).Before(c.ExpiresAt)
}

// CredentialStore provides persistent storage for OAuth credentials.
// Implementations can use keychain, file storage, or other backends.
type CredentialStore interface {
	// Load retrieves the stored credentials.
	Load() (*Credentials, error)

	// Save stores credentials as a unit.
	Save(creds *Credentials) error

	// Delete removes stored credentials. Deleting absent credentials is not
	// an error.
	Delete() error
}

// ProfileStore persists the linkage marker on the signed-in user's profile.
// The profile record itself is owned by an external collaborator; this
// interface covers only the linkage fields the façade reads and writes.
type ProfileStore interface {
	// Linkage returns the linked external user ID, or false when not linked.
	Linkage() (int64, bool)

	// SetLinkage records the linked external user ID.
	SetLinkage(userID int64) error

	// ClearLinkage removes the linkage marker. Idempotent.
	ClearLinkage() error
}

// StoreError indicates a credential storage error.
type StoreError struct {
	Operation string // "load", "save", "delete"
	Message   string
	Cause     error
}

func (e *StoreError) Error() string {
	msg := e.Operation + " credentials"
	if e.Message != "" {
		msg += ": " + e.Message
	} else if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *StoreError) Unwrap() error {
	return e.Cause
}

// Package linkage coordinates account linking between the local profile and
// the race service. It composes the auth manager and the user client behind
// a single façade so callers reason about one linkage state instead of the
// auth and identity layers separately.
package linkage

import (
	"context"
	"sync"

	"github.com/racedaylabs/racelink/internal/auth"
	"github.com/racedaylabs/racelink/internal/models"
	"github.com/racedaylabs/racelink/internal/sdk"
)

// Status is the linkage state of the local profile.
type Status string

const (
	// StatusNotLinked means no external account is connected.
	StatusNotLinked Status = "not-linked"

	// StatusLinkedLimited means tokens are stored but the external user
	// detail could not be resolved. Queries that need a real user ID stay
	// disabled until a later refresh resolves it.
	StatusLinkedLimited Status = "linked-limited"

	// StatusLinkedFull means tokens and the external identity are both known.
	StatusLinkedFull Status = "linked-full"
)

// placeholderUserID marks a linkage whose external identity is unresolved.
const placeholderUserID = 1

// Authenticator is the slice of the auth manager the façade drives.
type Authenticator interface {
	Login(ctx context.Context, opts auth.AuthorizeOptions) (*sdk.Credentials, error)
	Logout() error
	State() auth.State
}

// DirectoryClient resolves user identity and registration history.
// *api.UserService satisfies this.
type DirectoryClient interface {
	Info(ctx context.Context, id int64) (*models.Identity, error)
	UpcomingRegistrations(ctx context.Context, id int64) ([]models.Registration, error)
	PastRegistrations(ctx context.Context, id int64) ([]models.Registration, error)
}

// Registrations is the cached registration history for the linked account.
type Registrations struct {
	Upcoming []models.Registration `json:"upcoming"`
	Past     []models.Registration `json:"past"`
}

// Result is the outcome of a completed link flow.
type Result struct {
	Identity models.Identity `json:"identity"`
	Status   Status          `json:"status"`
}

// Facade owns the linkage lifecycle. Concurrent Link calls coalesce onto a
// single flow; everyone gets the same result.
type Facade struct {
	auth    Authenticator
	users   DirectoryClient
	profile sdk.ProfileStore

	mu       sync.Mutex
	identity *models.Identity
	regs     *Registrations
	inflight *linkCall
}

type linkCall struct {
	done chan struct{}
	res  *Result
	err  error
}

// New builds a façade over the given collaborators. identity seeds the
// cached identity when the caller already knows who is signed in; pass nil
// otherwise and it is resolved lazily from the linkage marker.
func New(authn Authenticator, users DirectoryClient, profile sdk.ProfileStore, identity *models.Identity) *Facade {
	f := &Facade{auth: authn, users: users, profile: profile}
	if identity != nil {
		f.identity = identity
	}
	return f
}

// State derives the linkage status from the profile marker. Tokens without
// a marker (a partially torn-down link) read as not linked.
func (f *Facade) State() Status {
	userID, ok := f.profile.Linkage()
	if !ok {
		return StatusNotLinked
	}
	if userID <= placeholderUserID {
		return StatusLinkedLimited
	}
	return StatusLinkedFull
}

// Link runs the full link flow: authorize, exchange, persist the linkage
// marker, then resolve the external identity. A failed identity fetch after
// a successful exchange degrades to linked-limited rather than unwinding
// the tokens the user just granted.
func (f *Facade) Link(ctx context.Context, opts auth.AuthorizeOptions) (*Result, error) {
	f.mu.Lock()
	if call := f.inflight; call != nil {
		f.mu.Unlock()
		select {
		case <-call.done:
			return call.res, call.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	call := &linkCall{done: make(chan struct{})}
	f.inflight = call
	f.mu.Unlock()

	res, err := f.link(ctx, opts)

	f.mu.Lock()
	call.res, call.err = res, err
	f.inflight = nil
	if err == nil {
		f.identity = &res.Identity
		f.regs = nil
	}
	f.mu.Unlock()
	close(call.done)

	return res, err
}

func (f *Facade) link(ctx context.Context, opts auth.AuthorizeOptions) (*Result, error) {
	creds, err := f.auth.Login(ctx, opts)
	if err != nil {
		return nil, err
	}

	identity := f.resolveIdentity(ctx, creds)
	if err := f.profile.SetLinkage(identity.UserID); err != nil {
		return nil, err
	}

	status := StatusLinkedFull
	if identity.IsPlaceholder() {
		status = StatusLinkedLimited
	}
	return &Result{Identity: identity, Status: status}, nil
}

// resolveIdentity turns freshly exchanged credentials into an identity.
// Any failure yields the placeholder; the link itself already succeeded.
func (f *Facade) resolveIdentity(ctx context.Context, creds *sdk.Credentials) models.Identity {
	if creds.UserID <= placeholderUserID {
		return models.Identity{UserID: placeholderUserID}
	}
	info, err := f.users.Info(ctx, creds.UserID)
	if err != nil || info == nil {
		return models.Identity{UserID: placeholderUserID}
	}
	if info.UserID == 0 {
		info.UserID = creds.UserID
	}
	return *info
}

// Identity returns the linked identity, fetching it once per process when
// only the marker is known. Not linked yields ok=false.
func (f *Facade) Identity(ctx context.Context) (models.Identity, bool) {
	f.mu.Lock()
	if f.identity != nil {
		id := *f.identity
		f.mu.Unlock()
		return id, true
	}
	f.mu.Unlock()

	userID, ok := f.profile.Linkage()
	if !ok {
		return models.Identity{}, false
	}
	if userID <= placeholderUserID {
		return models.Identity{UserID: placeholderUserID}, true
	}

	info, err := f.users.Info(ctx, userID)
	if err != nil || info == nil {
		return models.Identity{UserID: userID}, true
	}

	f.mu.Lock()
	f.identity = info
	f.mu.Unlock()
	return *info, true
}

// FetchRegistrations loads the linked account's registration history and
// caches it. A placeholder linkage is a no-op: there is no real user ID to
// query, so it returns empty history without touching the network.
func (f *Facade) FetchRegistrations(ctx context.Context) (*Registrations, error) {
	userID, ok := f.profile.Linkage()
	if !ok || userID <= placeholderUserID {
		return &Registrations{
			Upcoming: []models.Registration{},
			Past:     []models.Registration{},
		}, nil
	}

	upcoming, err := f.users.UpcomingRegistrations(ctx, userID)
	if err != nil {
		return nil, err
	}
	past, err := f.users.PastRegistrations(ctx, userID)
	if err != nil {
		return nil, err
	}

	regs := &Registrations{Upcoming: upcoming, Past: past}
	f.mu.Lock()
	f.regs = regs
	f.mu.Unlock()
	return regs, nil
}

// CachedRegistrations returns the last fetched history, if any.
func (f *Facade) CachedRegistrations() (*Registrations, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.regs == nil {
		return nil, false
	}
	return f.regs, true
}

// Unlink tears down the linkage: revoke local tokens, clear the marker,
// drop cached identity and history. Safe to call when not linked.
func (f *Facade) Unlink() error {
	if err := f.auth.Logout(); err != nil {
		return err
	}
	if err := f.profile.ClearLinkage(); err != nil {
		return err
	}
	f.mu.Lock()
	f.identity = nil
	f.regs = nil
	f.mu.Unlock()
	return nil
}

package linkage

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/racedaylabs/racelink/internal/auth"
	"github.com/racedaylabs/racelink/internal/models"
	"github.com/racedaylabs/racelink/internal/output"
	"github.com/racedaylabs/racelink/internal/sdk"
)

type fakeAuth struct {
	creds     *sdk.Credentials
	loginErr  error
	loginWait time.Duration
	logins    atomic.Int64
	logouts   atomic.Int64
}

func (f *fakeAuth) Login(ctx context.Context, opts auth.AuthorizeOptions) (*sdk.Credentials, error) {
	f.logins.Add(1)
	if f.loginWait > 0 {
		time.Sleep(f.loginWait)
	}
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return f.creds, nil
}

func (f *fakeAuth) Logout() error {
	f.logouts.Add(1)
	return nil
}

func (f *fakeAuth) State() auth.State {
	if f.creds == nil {
		return auth.StateUnauthenticated
	}
	return auth.StateLinked
}

type fakeDirectory struct {
	identity *models.Identity
	infoErr  error
	upcoming []models.Registration
	past     []models.Registration
	regsErr  error
	calls    atomic.Int64
}

func (f *fakeDirectory) Info(ctx context.Context, id int64) (*models.Identity, error) {
	f.calls.Add(1)
	if f.infoErr != nil {
		return nil, f.infoErr
	}
	return f.identity, nil
}

func (f *fakeDirectory) UpcomingRegistrations(ctx context.Context, id int64) ([]models.Registration, error) {
	f.calls.Add(1)
	if f.regsErr != nil {
		return nil, f.regsErr
	}
	return f.upcoming, nil
}

func (f *fakeDirectory) PastRegistrations(ctx context.Context, id int64) ([]models.Registration, error) {
	f.calls.Add(1)
	if f.regsErr != nil {
		return nil, f.regsErr
	}
	return f.past, nil
}

type memProfile struct {
	mu     sync.Mutex
	userID int64
}

func (m *memProfile) Linkage() (int64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.userID, m.userID != 0
}

func (m *memProfile) SetLinkage(userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.userID = userID
	return nil
}

func (m *memProfile) ClearLinkage() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.userID = 0
	return nil
}

func TestLinkFullFlow(t *testing.T) {
	authn := &fakeAuth{creds: &sdk.Credentials{AccessToken: "tok", UserID: 42}}
	dir := &fakeDirectory{identity: &models.Identity{UserID: 42, FirstName: "Ana", LastName: "Ruiz"}}
	profile := &memProfile{}
	facade := New(authn, dir, profile, nil)

	res, err := facade.Link(context.Background(), auth.AuthorizeOptions{})
	require.NoError(t, err)
	assert.Equal(t, StatusLinkedFull, res.Status)
	assert.Equal(t, "Ana Ruiz", res.Identity.DisplayName())

	assert.Equal(t, StatusLinkedFull, facade.State())
	userID, ok := profile.Linkage()
	require.True(t, ok)
	assert.Equal(t, int64(42), userID)
}

func TestLinkCancelledLeavesNotLinked(t *testing.T) {
	authn := &fakeAuth{loginErr: output.ErrCancelled()}
	dir := &fakeDirectory{}
	profile := &memProfile{}
	facade := New(authn, dir, profile, nil)

	_, err := facade.Link(context.Background(), auth.AuthorizeOptions{})
	require.Error(t, err)
	assert.True(t, output.IsCancelled(err))
	assert.Equal(t, StatusNotLinked, facade.State())
	assert.Equal(t, int64(0), dir.calls.Load(), "no identity fetch after a cancelled authorize")
}

func TestLinkIdentityFetchFailureDegradesToLimited(t *testing.T) {
	authn := &fakeAuth{creds: &sdk.Credentials{AccessToken: "tok", UserID: 42}}
	dir := &fakeDirectory{infoErr: errors.New("detail endpoint down")}
	profile := &memProfile{}
	facade := New(authn, dir, profile, nil)

	res, err := facade.Link(context.Background(), auth.AuthorizeOptions{})
	require.NoError(t, err, "a failed detail fetch must not unwind the link")
	assert.Equal(t, StatusLinkedLimited, res.Status)
	assert.True(t, res.Identity.IsPlaceholder())
	assert.Equal(t, StatusLinkedLimited, facade.State())
}

func TestLinkWithoutUserIDIsLimited(t *testing.T) {
	authn := &fakeAuth{creds: &sdk.Credentials{AccessToken: "tok"}}
	dir := &fakeDirectory{}
	profile := &memProfile{}
	facade := New(authn, dir, profile, nil)

	res, err := facade.Link(context.Background(), auth.AuthorizeOptions{})
	require.NoError(t, err)
	assert.Equal(t, StatusLinkedLimited, res.Status)
	assert.Equal(t, int64(0), dir.calls.Load(), "nothing to look up without a user ID")
}

func TestLinkCoalescesConcurrentCalls(t *testing.T) {
	authn := &fakeAuth{
		creds:     &sdk.Credentials{AccessToken: "tok", UserID: 42},
		loginWait: 50 * time.Millisecond,
	}
	dir := &fakeDirectory{identity: &models.Identity{UserID: 42}}
	facade := New(authn, dir, &memProfile{}, nil)

	const callers = 8
	var wg sync.WaitGroup
	results := make([]*Result, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := facade.Link(context.Background(), auth.AuthorizeOptions{})
			assert.NoError(t, err)
			results[i] = res
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int64(1), authn.logins.Load(), "concurrent links share one flow")
	for _, res := range results {
		assert.Equal(t, StatusLinkedFull, res.Status)
	}
}

func TestSeedIdentitySkipsLookup(t *testing.T) {
	dir := &fakeDirectory{}
	seed := &models.Identity{UserID: 42, FirstName: "Ana"}
	facade := New(&fakeAuth{}, dir, &memProfile{userID: 42}, seed)

	identity, ok := facade.Identity(context.Background())
	require.True(t, ok)
	assert.Equal(t, "Ana", identity.FirstName)
	assert.Equal(t, int64(0), dir.calls.Load(), "seeded identity needs no lookup")
}

func TestFetchRegistrationsPlaceholderIsNoOp(t *testing.T) {
	dir := &fakeDirectory{}
	profile := &memProfile{userID: placeholderUserID}
	facade := New(&fakeAuth{}, dir, profile, nil)

	regs, err := facade.FetchRegistrations(context.Background())
	require.NoError(t, err)
	assert.Empty(t, regs.Upcoming)
	assert.Empty(t, regs.Past)
	assert.Equal(t, int64(0), dir.calls.Load(), "placeholder linkage must not hit the network")
}

func TestFetchRegistrationsCaches(t *testing.T) {
	dir := &fakeDirectory{
		upcoming: []models.Registration{{ID: 1, RaceDate: "9/12/2026"}},
		past:     []models.Registration{{ID: 2, RaceDate: "4/5/2025"}},
	}
	profile := &memProfile{userID: 42}
	facade := New(&fakeAuth{}, dir, profile, nil)

	_, cached := facade.CachedRegistrations()
	assert.False(t, cached)

	regs, err := facade.FetchRegistrations(context.Background())
	require.NoError(t, err)
	require.Len(t, regs.Upcoming, 1)
	require.Len(t, regs.Past, 1)

	got, cached := facade.CachedRegistrations()
	require.True(t, cached)
	assert.Equal(t, regs, got)
}

func TestUnlinkIsIdempotent(t *testing.T) {
	authn := &fakeAuth{creds: &sdk.Credentials{AccessToken: "tok", UserID: 42}}
	dir := &fakeDirectory{
		identity: &models.Identity{UserID: 42},
		upcoming: []models.Registration{{ID: 1}},
	}
	profile := &memProfile{}
	facade := New(authn, dir, profile, nil)

	_, err := facade.Link(context.Background(), auth.AuthorizeOptions{})
	require.NoError(t, err)
	_, err = facade.FetchRegistrations(context.Background())
	require.NoError(t, err)

	require.NoError(t, facade.Unlink())
	assert.Equal(t, StatusNotLinked, facade.State())
	_, cached := facade.CachedRegistrations()
	assert.False(t, cached, "unlink drops cached history")
	_, ok := facade.Identity(context.Background())
	assert.False(t, ok)

	require.NoError(t, facade.Unlink(), "unlinking twice is fine")
	assert.Equal(t, int64(2), authn.logouts.Load())
}

func TestFileProfileStore(t *testing.T) {
	dir := t.TempDir()
	store := NewFileProfileStore(dir)

	_, ok := store.Linkage()
	assert.False(t, ok)

	require.NoError(t, store.SetLinkage(42))
	userID, ok := store.Linkage()
	require.True(t, ok)
	assert.Equal(t, int64(42), userID)

	// Survives a fresh store over the same directory
	again := NewFileProfileStore(dir)
	userID, ok = again.Linkage()
	require.True(t, ok)
	assert.Equal(t, int64(42), userID)

	require.NoError(t, store.ClearLinkage())
	_, ok = store.Linkage()
	assert.False(t, ok)
	require.NoError(t, store.ClearLinkage())
}

func TestFileProfileStoreCorruptReadsAsNotLinked(t *testing.T) {
	dir := t.TempDir()
	store := NewFileProfileStore(dir)
	require.NoError(t, os.WriteFile(store.profilePath(), []byte("{not json"), 0600))

	_, ok := store.Linkage()
	assert.False(t, ok)
}

package linkage

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/racedaylabs/racelink/internal/api"
	"github.com/racedaylabs/racelink/internal/auth"
	"github.com/racedaylabs/racelink/internal/config"
)

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

// completeAuthorize acts as the user's browser: follow the authorization URL
// back to the local callback with the expected state and a fixed code.
func completeAuthorize(authURL string) error {
	u, err := url.Parse(authURL)
	if err != nil {
		return err
	}
	redirect := u.Query().Get("redirect_uri") +
		"?state=" + url.QueryEscape(u.Query().Get("state")) +
		"&code=the-code"
	resp, err := http.Get(redirect)
	if err != nil {
		return err
	}
	return resp.Body.Close()
}

// End-to-end over the real auth manager and API client: the user ID in the
// token response must flow through the exchange into a full link, not get
// dropped on the way and leave every link in the limited state.
func TestLinkThroughRealManagerReachesLinkedFull(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/oauth2/token":
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"access_token":"at","refresh_token":"rt","expires_in":3600,"user_id":42}`)
		case "/user/42":
			assert.Equal(t, "Bearer at", r.Header.Get("Authorization"))
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"data":{"user":{"user_id":42,"first_name":"Ana","last_name":"Ruiz"}}}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	cfg := config.Default()
	cfg.BaseURL = srv.URL
	cfg.ClientID = "test-client"
	cfg.RedirectURL = fmt.Sprintf("http://127.0.0.1:%d/callback", freePort(t))

	store := auth.NewFileStore(t.TempDir())
	mgr := auth.NewManager(cfg, store, &http.Client{Timeout: 5 * time.Second})
	client := api.NewClient(cfg, mgr)
	profile := NewFileProfileStore(t.TempDir())
	facade := New(mgr, client.Users(), profile, nil)

	res, err := facade.Link(context.Background(), auth.AuthorizeOptions{OpenURL: completeAuthorize})
	require.NoError(t, err)
	assert.Equal(t, StatusLinkedFull, res.Status)
	assert.Equal(t, int64(42), res.Identity.UserID)
	assert.Equal(t, "Ana Ruiz", res.Identity.DisplayName())
	assert.Equal(t, StatusLinkedFull, facade.State())

	userID, ok := profile.Linkage()
	require.True(t, ok)
	assert.Equal(t, int64(42), userID)

	saved, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, int64(42), saved.UserID)
}

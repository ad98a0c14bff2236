package authapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testCreds = Credentials{ClientID: "web", ClientSecret: "s3cret"}

// fakeTokenService mimics the remote OAuth2-style service: password grant,
// rotating refresh tokens, revoke and identity lookup.
type fakeTokenService struct {
	mu             sync.Mutex
	currentRefresh string
	currentAccess  string
	issued         int

	lastContentType string
	lastGrantType   string
}

func (f *fakeTokenService) issue() (access, refresh string) {
	f.issued++
	f.currentAccess = "access-" + strings.Repeat("x", f.issued)
	f.currentRefresh = "refresh-" + strings.Repeat("x", f.issued)
	return f.currentAccess, f.currentRefresh
}

func (f *fakeTokenService) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.lastContentType = r.Header.Get("Content-Type")

		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		f.lastGrantType = body["grant_type"]

		if body["client_id"] != testCreds.ClientID || body["client_secret"] != testCreds.ClientSecret {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"error": "invalid_client"})
			return
		}

		switch body["grant_type"] {
		case "password":
			if body["username"] != "herbalist@example.com" || body["password"] != "chamomile" {
				w.WriteHeader(http.StatusBadRequest)
				json.NewEncoder(w).Encode(map[string]string{"error": "invalid_grant"})
				return
			}
		case "refresh_token":
			if body["refresh_token"] == "" || body["refresh_token"] != f.currentRefresh {
				w.WriteHeader(http.StatusBadRequest)
				json.NewEncoder(w).Encode(map[string]string{"error": "invalid_grant"})
				return
			}
		default:
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"error": "unsupported_grant_type"})
			return
		}

		access, refresh := f.issue()
		json.NewEncoder(w).Encode(map[string]any{
			"access_token":  access,
			"refresh_token": refresh,
			"expires_in":    3600,
		})
	})

	mux.HandleFunc("/convert-token", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.lastContentType = r.Header.Get("Content-Type")

		r.ParseForm()
		f.lastGrantType = r.PostFormValue("grant_type")
		if r.PostFormValue("backend") != "google-oauth2" || r.PostFormValue("token") == "" {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"error_description": "provider token rejected"})
			return
		}

		access, refresh := f.issue()
		json.NewEncoder(w).Encode(map[string]any{
			"access_token":  access,
			"refresh_token": refresh,
			"expires_in":    3600,
		})
	})

	mux.HandleFunc("/revoke-token", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		f.mu.Lock()
		defer f.mu.Unlock()
		if body["token"] != f.currentAccess {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"error": "token not found"})
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	mux.HandleFunc("/me", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if r.Header.Get("Authorization") != "Bearer "+f.currentAccess || f.currentAccess == "" {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"detail": "Invalid token."})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"id":    7,
			"email": "herbalist@example.com",
		})
	})

	return mux
}

func newTestClient(t *testing.T) (*Client, *fakeTokenService) {
	t.Helper()
	svc := &fakeTokenService{}
	ts := httptest.NewServer(svc.handler())
	t.Cleanup(ts.Close)

	c := New(Config{
		TokenURL:        ts.URL + "/token",
		RevokeURL:       ts.URL + "/revoke-token",
		ConvertTokenURL: ts.URL + "/convert-token",
		IdentityURL:     ts.URL + "/me",
	})
	return c, svc
}

func TestLoginThenIdentityLookup(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	tokens, err := c.Login(ctx, "herbalist@example.com", "chamomile", testCreds)
	require.NoError(t, err)
	require.NotEmpty(t, tokens.AccessToken)
	require.NotEmpty(t, tokens.RefreshToken)
	assert.EqualValues(t, 3600, tokens.ExpiresIn)

	user, err := c.FetchSelf(ctx, tokens.AccessToken)
	require.NoError(t, err)
	assert.EqualValues(t, 7, user.ID)
	assert.Equal(t, "herbalist@example.com", user.Email)
}

func TestLoginInvalidCredentials(t *testing.T) {
	c, _ := newTestClient(t)

	_, err := c.Login(context.Background(), "herbalist@example.com", "wrong", testCreds)
	var ae *AuthError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, http.StatusBadRequest, ae.Status)
	assert.Equal(t, "invalid_grant", ae.Message)
}

func TestRefreshRotatesToken(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	tokens, err := c.Login(ctx, "herbalist@example.com", "chamomile", testCreds)
	require.NoError(t, err)

	rotated, err := c.Refresh(ctx, tokens.RefreshToken, testCreds)
	require.NoError(t, err)
	require.NotEqual(t, tokens.RefreshToken, rotated.RefreshToken)
	require.NotEqual(t, tokens.AccessToken, rotated.AccessToken)

	// The exchanged refresh token is single-use: presenting it again fails.
	_, err = c.Refresh(ctx, tokens.RefreshToken, testCreds)
	var ae *AuthError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, http.StatusBadRequest, ae.Status)

	// The rotated pair authorizes an identity lookup.
	user, err := c.FetchSelf(ctx, rotated.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "herbalist@example.com", user.Email)
}

func TestRevoke(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	tokens, err := c.Login(ctx, "herbalist@example.com", "chamomile", testCreds)
	require.NoError(t, err)
	require.NoError(t, c.Revoke(ctx, tokens.AccessToken, testCreds))

	// Failure is generic: the service's message is not forwarded.
	err = c.Revoke(ctx, "no-such-token", testCreds)
	var ae *AuthError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "Failed to revoke token", ae.Message)
	assert.NotContains(t, ae.Message, "token not found")
}

func TestConvertSocialTokenUsesFormEncoding(t *testing.T) {
	c, svc := newTestClient(t)
	ctx := context.Background()

	tokens, err := c.ConvertSocialToken(ctx, "google-oauth2", "provider-token", testCreds)
	require.NoError(t, err)
	require.NotEmpty(t, tokens.AccessToken)
	assert.Equal(t, "application/x-www-form-urlencoded", svc.lastContentType)
	assert.Equal(t, "convert_token", svc.lastGrantType)

	// The other exchanges stay JSON; the asymmetry is the service contract.
	_, err = c.Login(ctx, "herbalist@example.com", "chamomile", testCreds)
	require.NoError(t, err)
	assert.Equal(t, "application/json", svc.lastContentType)
}

func TestConvertSocialTokenRejected(t *testing.T) {
	c, _ := newTestClient(t)

	_, err := c.ConvertSocialToken(context.Background(), "unknown-backend", "tok", testCreds)
	var ae *AuthError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "provider token rejected", ae.Message)
}

func TestFetchSelfUnauthorized(t *testing.T) {
	c, _ := newTestClient(t)

	_, err := c.FetchSelf(context.Background(), "stale-token")
	var ae *AuthError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, http.StatusUnauthorized, ae.Status)
	assert.Equal(t, "Invalid token.", ae.Message)
}

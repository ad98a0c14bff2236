// Package client provides the storefront API client: bearer-authenticated
// requests with transparent one-shot refresh-and-retry on 401, plus typed
// accessors for the catalog and the basket.
//
// Usage:
//
//	store := session.NewStore(session.NewMemoryStorage())
//	c := client.New("http://localhost:8000", "http://localhost:3000", store)
//
//	if err := c.Login(ctx, "user@example.com", "secret"); err != nil { ... }
//	herbs, err := c.Catalog.ListHerbs(ctx, client.HerbListOptions{Search: "mint"})
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/verdantis/herbfront/authapi"
	"github.com/verdantis/herbfront/client/session"
)

// Client issues API calls with the current session's bearer token and
// recovers from expired access tokens by calling the bridge's refresh
// endpoint once per request. Credential material for that refresh lives in
// server-held cookies, carried by this client's cookie jar, never in the
// request itself.
type Client struct {
	apiBaseURL    string // catalog / account API
	bridgeBaseURL string // our own front-end server (login, logout, refresh)
	httpClient    *http.Client
	session       *session.Store
	refreshGroup  singleflight.Group

	auth        *authapi.Client
	socialCreds authapi.Credentials

	Catalog *CatalogService
	Basket  *Basket
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client. A cookie jar is attached if the
// given client has none, since the refresh endpoint is cookie-credentialed.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithSocialLogin enables LoginWithProviderToken. The social flow talks to
// the token service directly with its own credential pair, unlike the
// password flow, which goes through the bridge.
func WithSocialLogin(auth *authapi.Client, creds authapi.Credentials) Option {
	return func(c *Client) {
		c.auth = auth
		c.socialCreds = creds
	}
}

// New creates a storefront client. apiBaseURL is the catalog API root,
// bridgeBaseURL the root of our own session bridge server.
func New(apiBaseURL, bridgeBaseURL string, store *session.Store, opts ...Option) *Client {
	c := &Client{
		apiBaseURL:    strings.TrimRight(apiBaseURL, "/"),
		bridgeBaseURL: strings.TrimRight(bridgeBaseURL, "/"),
		session:       store,
	}
	for _, o := range opts {
		o(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{}
	}
	if c.httpClient.Jar == nil {
		jar, _ := cookiejar.New(nil)
		c.httpClient.Jar = jar
	}
	c.Catalog = newCatalogService(c)
	c.Basket = NewBasket(store)
	return c
}

// Session exposes the session store the client reads tokens from.
func (c *Client) Session() *session.Store {
	return c.session
}

// RequestOptions control a single wrapped request.
type RequestOptions struct {
	Method string      // default GET
	Body   any         // JSON-marshalled when non-nil
	Header http.Header // merged over the defaults
	Token  string      // overrides the session store's access token
}

// Do issues an authenticated request against the API and decodes the JSON
// response into out (skipped when out is nil). On a 401 it refreshes the
// session through the bridge and retries exactly once; a 401 on the retried
// call, like a failed refresh, surfaces as an AuthError.
func (c *Client) Do(ctx context.Context, path string, opts RequestOptions, out any) error {
	resp, err := c.do(ctx, c.apiBaseURL+path, opts, true)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("client: decode response: %w", err)
	}
	return nil
}

// DoRaw is Do without body parsing: the caller owns the response and must
// close its body.
func (c *Client) DoRaw(ctx context.Context, path string, opts RequestOptions) (*http.Response, error) {
	return c.do(ctx, c.apiBaseURL+path, opts, true)
}

func (c *Client) do(ctx context.Context, url string, opts RequestOptions, retryAllowed bool) (*http.Response, error) {
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}

	var bodyReader io.Reader
	if opts.Body != nil {
		b, err := json.Marshal(opts.Body)
		if err != nil {
			return nil, fmt.Errorf("client: marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, vs := range opts.Header {
		req.Header.Del(k)
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	token := opts.Token
	if token == "" {
		token = c.session.AccessToken()
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		// Recursion depth is bounded to one: the retried call goes out with
		// retryAllowed false, so a token that is rejected even after a
		// refresh cannot loop.
		if !retryAllowed {
			return nil, &authapi.AuthError{
				Status:  http.StatusUnauthorized,
				Message: "Unauthorized: Refresh token expired or invalid.",
			}
		}

		newToken, err := c.refreshSession(ctx)
		if err != nil {
			return nil, err
		}

		retryOpts := opts
		retryOpts.Token = newToken
		return c.do(ctx, url, retryOpts, false)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		text, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, &authapi.TransportError{Status: resp.StatusCode, Body: string(text)}
	}

	return resp, nil
}

// refreshSession calls the bridge's refresh endpoint and installs the new
// access token in the session store before any retry proceeds. Concurrent
// 401s collapse into a single refresh call; the service rotates refresh
// tokens, so letting them race would invalidate each other.
func (c *Client) refreshSession(ctx context.Context) (string, error) {
	v, err, _ := c.refreshGroup.Do("refresh", func() (any, error) {
		// The refresh is shared by every collapsed waiter, so it must not
		// die with the caller whose context happened to start it.
		ctx := context.WithoutCancel(ctx)
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.bridgeBaseURL+"/api/auth/refresh-token", nil)
		if err != nil {
			return "", err
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return "", err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			io.Copy(io.Discard, resp.Body)
			return "", &authapi.AuthError{
				Status:  http.StatusUnauthorized,
				Message: "Unauthorized: Refresh token expired or invalid.",
			}
		}

		var body struct {
			AccessToken string `json:"access_token"`
			ExpiresIn   int64  `json:"expires_in"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return "", fmt.Errorf("client: decode refresh response: %w", err)
		}

		c.session.UpdateAccessToken(body.AccessToken, body.ExpiresIn)
		return body.AccessToken, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Login authenticates against the bridge, which sets the session cookies,
// then installs and persists the returned session. This is the one place
// durable storage is written.
func (c *Client) Login(ctx context.Context, email, password string) error {
	body, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.bridgeBaseURL+"/api/auth/login", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var eb struct {
			Error string `json:"error"`
		}
		msg := "Login failed"
		if err := json.NewDecoder(resp.Body).Decode(&eb); err == nil && eb.Error != "" {
			msg = eb.Error
		}
		return &authapi.AuthError{Status: resp.StatusCode, Message: msg}
	}

	var res struct {
		AccessToken string        `json:"access_token"`
		ExpiresIn   int64         `json:"expires_in"`
		User        *authapi.User `json:"user"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return fmt.Errorf("client: decode login response: %w", err)
	}

	c.session.Set(session.Session{
		AccessToken: res.AccessToken,
		ExpiresIn:   res.ExpiresIn,
		User:        res.User,
	})
	return c.session.Persist()
}

// LoginWithProviderToken converts a social provider's token into a
// first-party session. How the provider token was obtained is out of scope
// here; this only forwards it for exchange. The user profile is fetched
// best-effort and may be nil until re-fetched.
func (c *Client) LoginWithProviderToken(ctx context.Context, backend, providerToken string) error {
	if c.auth == nil {
		return errors.New("client: social login not configured")
	}

	tokens, err := c.auth.ConvertSocialToken(ctx, backend, providerToken, c.socialCreds)
	if err != nil {
		return err
	}

	user, err := c.auth.FetchSelf(ctx, tokens.AccessToken)
	if err != nil {
		user = nil
	}

	c.session.Set(session.Session{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		ExpiresIn:    tokens.ExpiresIn,
		User:         user,
	})
	return c.session.Persist()
}

// Logout clears the bridge cookies and the local session. The local session
// is cleared even when the bridge call fails.
func (c *Client) Logout(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.bridgeBaseURL+"/api/auth/logout", nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.session.Clear()
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if err := c.session.Clear(); err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return &authapi.AuthError{Status: resp.StatusCode, Message: "Logout failed"}
	}
	return nil
}

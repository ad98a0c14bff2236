// Package authapi is a typed client for the remote OAuth2-style
// token-issuing service. Every operation is a single, stateless network
// exchange: nothing here reads or writes session state. Propagating tokens
// into cookies or the client-side store is the caller's job.
package authapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// Config holds the endpoint layout of the token service.
type Config struct {
	// TokenURL serves both the password grant and the refresh grant.
	TokenURL string
	// RevokeURL invalidates a single token.
	RevokeURL string
	// ConvertTokenURL exchanges a social provider token for a first-party
	// token pair.
	ConvertTokenURL string
	// IdentityURL returns the profile of the bearer.
	IdentityURL string
}

// Client performs the token-lifecycle exchanges against the token service.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// New creates a token service client.
func New(cfg Config, opts ...Option) *Client {
	c := &Client{
		cfg:        cfg,
		httpClient: &http.Client{},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Login performs the password grant and returns the issued token pair.
func (c *Client) Login(ctx context.Context, username, password string, creds Credentials) (*TokenSet, error) {
	body := map[string]string{
		"grant_type":    "password",
		"username":      username,
		"password":      password,
		"client_id":     creds.ClientID,
		"client_secret": creds.ClientSecret,
	}
	return c.tokenExchange(ctx, body, "Login failed")
}

// Refresh exchanges a refresh token for a new token pair. The service
// rotates refresh tokens: the returned pair supersedes the one presented,
// which is no longer valid.
func (c *Client) Refresh(ctx context.Context, refreshToken string, creds Credentials) (*TokenSet, error) {
	body := map[string]string{
		"grant_type":    "refresh_token",
		"refresh_token": refreshToken,
		"client_id":     creds.ClientID,
		"client_secret": creds.ClientSecret,
	}
	return c.tokenExchange(ctx, body, "Refresh token failed")
}

// Revoke invalidates a token. Revoke failures surface as a generic
// AuthError; the service's own error message is never forwarded.
func (c *Client) Revoke(ctx context.Context, token string, creds Credentials) error {
	body := map[string]string{
		"token":         token,
		"client_id":     creds.ClientID,
		"client_secret": creds.ClientSecret,
	}
	resp, err := c.postJSON(ctx, c.cfg.RevokeURL, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &AuthError{Status: resp.StatusCode, Message: "Failed to revoke token"}
	}
	return nil
}

// ConvertSocialToken exchanges a social provider's token for a first-party
// token pair. Unlike the other exchanges this endpoint takes a form-encoded
// body; that asymmetry is the service's contract, not ours.
func (c *Client) ConvertSocialToken(ctx context.Context, backend, providerToken string, creds Credentials) (*TokenSet, error) {
	form := url.Values{}
	form.Set("grant_type", "convert_token")
	form.Set("client_id", creds.ClientID)
	form.Set("client_secret", creds.ClientSecret)
	form.Set("backend", backend)
	form.Set("token", providerToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.ConvertTokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, authErrorFrom(resp, "Social login failed")
	}

	var ts TokenSet
	if err := json.NewDecoder(resp.Body).Decode(&ts); err != nil {
		return nil, err
	}
	return &ts, nil
}

// FetchSelf returns the profile of the user the access token belongs to.
func (c *Client) FetchSelf(ctx context.Context, accessToken string) (*User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.IdentityURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, authErrorFrom(resp, "Failed to fetch user")
	}

	var u User
	if err := json.NewDecoder(resp.Body).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// --- internal helpers ---

func (c *Client) tokenExchange(ctx context.Context, body map[string]string, fallbackMsg string) (*TokenSet, error) {
	resp, err := c.postJSON(ctx, c.cfg.TokenURL, body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, authErrorFrom(resp, fallbackMsg)
	}

	var ts TokenSet
	if err := json.NewDecoder(resp.Body).Decode(&ts); err != nil {
		return nil, err
	}
	return &ts, nil
}

func (c *Client) postJSON(ctx context.Context, endpoint string, body any) (*http.Response, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return c.httpClient.Do(req)
}

// authErrorFrom builds an AuthError from an error response, preferring the
// service's own message fields and falling back to the given message.
func authErrorFrom(resp *http.Response, fallback string) *AuthError {
	e := &AuthError{Status: resp.StatusCode, Message: fallback}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return e
	}
	var eb errorBody
	if err := json.Unmarshal(raw, &eb); err != nil {
		return e
	}
	switch {
	case eb.Error != "":
		e.Message = eb.Error
	case eb.ErrorDescription != "":
		e.Message = eb.ErrorDescription
	case eb.Detail != "":
		e.Message = eb.Detail
	}
	return e
}

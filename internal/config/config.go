// Package config loads the front-end server's configuration from the
// environment.
package config

import (
	"fmt"
	"os"

	"github.com/verdantis/herbfront/authapi"
)

// Config is everything the server needs to talk to the backing services.
type Config struct {
	ListenAddr string
	// APIBaseURL is the root of the backend serving both the token
	// endpoints and the catalog.
	APIBaseURL string

	// Password-grant credentials, never exposed to the browser.
	ClientID     string
	ClientSecret string

	// Social-conversion credentials. These are the pair the browser-side
	// social flow is provisioned with, so they are recognized separately.
	SocialClientID     string
	SocialClientSecret string
}

// Load reads the configuration. AUTH_CLIENT_ID and AUTH_CLIENT_SECRET are
// required; everything else has a default or may be empty.
func Load() (*Config, error) {
	cfg := &Config{
		ListenAddr:         getEnv("LISTEN_ADDR", ":3000"),
		APIBaseURL:         getEnv("API_BASE_URL", "http://localhost:8000"),
		ClientID:           os.Getenv("AUTH_CLIENT_ID"),
		ClientSecret:       os.Getenv("AUTH_CLIENT_SECRET"),
		SocialClientID:     os.Getenv("SOCIAL_AUTH_CLIENT_ID"),
		SocialClientSecret: os.Getenv("SOCIAL_AUTH_CLIENT_SECRET"),
	}
	if cfg.ClientID == "" {
		return nil, fmt.Errorf("AUTH_CLIENT_ID is required")
	}
	if cfg.ClientSecret == "" {
		return nil, fmt.Errorf("AUTH_CLIENT_SECRET is required")
	}
	return cfg, nil
}

// AuthEndpoints maps the base URL onto the token service's endpoint layout.
func (c *Config) AuthEndpoints() authapi.Config {
	return authapi.Config{
		TokenURL:        c.APIBaseURL + "/api/auth/token/",
		RevokeURL:       c.APIBaseURL + "/api/auth/revoke-token/",
		ConvertTokenURL: c.APIBaseURL + "/api/auth/convert-token/",
		IdentityURL:     c.APIBaseURL + "/api/v1/account/me/",
	}
}

// Credentials returns the password-grant credential pair.
func (c *Config) Credentials() authapi.Credentials {
	return authapi.Credentials{ClientID: c.ClientID, ClientSecret: c.ClientSecret}
}

// SocialCredentials returns the social-conversion credential pair, falling
// back to the password-grant pair when no separate one is configured.
func (c *Config) SocialCredentials() authapi.Credentials {
	if c.SocialClientID == "" {
		return c.Credentials()
	}
	return authapi.Credentials{ClientID: c.SocialClientID, ClientSecret: c.SocialClientSecret}
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

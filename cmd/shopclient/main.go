// shopclient is a minimal CLI for exercising the storefront client end to
// end against a running front-end server: log in, inspect the session,
// list the catalog.
//
// Usage:
//
//	SHOP_EMAIL=user@example.com SHOP_PASSWORD=secret go run ./cmd/shopclient
//
// With SHOP_PROVIDER_TOKEN set, login goes through the social conversion
// flow instead, using the configured social credential pair. That path
// talks to the token service directly, so it also needs AUTH_CLIENT_ID and
// AUTH_CLIENT_SECRET (or their SOCIAL_AUTH_* counterparts).
package main

import (
	"context"
	"os"

	"github.com/rs/zerolog"

	"github.com/verdantis/herbfront/authapi"
	"github.com/verdantis/herbfront/client"
	"github.com/verdantis/herbfront/client/session"
	"github.com/verdantis/herbfront/internal/config"
)

func main() {
	log := zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Logger()

	apiBase := envOr("API_BASE_URL", "http://localhost:8000")
	bridgeBase := envOr("BRIDGE_BASE_URL", "http://localhost:3000")
	dbPath := envOr("SESSION_DB_PATH", ".shopclient/session.db")
	providerToken := os.Getenv("SHOP_PROVIDER_TOKEN")

	storage, err := session.OpenBoltStorage(dbPath)
	if err != nil {
		log.Fatal().Err(err).Msg("open session storage")
	}
	defer storage.Close()

	store := session.NewStore(storage)
	if err := store.LoadFromStorage(); err != nil {
		log.Fatal().Err(err).Msg("load session")
	}
	cancel := store.Subscribe(func(s session.Session) {
		log.Info().Bool("logged_in", s.LoggedIn).Msg("session changed")
	})
	defer cancel()

	var opts []client.Option
	if providerToken != "" {
		cfg, err := config.Load()
		if err != nil {
			log.Fatal().Err(err).Msg("social login needs the auth client configuration")
		}
		auth := authapi.New(cfg.AuthEndpoints())
		opts = append(opts, client.WithSocialLogin(auth, cfg.SocialCredentials()))
	}

	c := client.New(apiBase, bridgeBase, store, opts...)
	ctx := context.Background()

	if !store.Current().LoggedIn {
		if providerToken != "" {
			backend := envOr("SHOP_PROVIDER_BACKEND", "google-oauth2")
			if err := c.LoginWithProviderToken(ctx, backend, providerToken); err != nil {
				log.Fatal().Err(err).Msg("social login failed")
			}
		} else {
			email, password := os.Getenv("SHOP_EMAIL"), os.Getenv("SHOP_PASSWORD")
			if email == "" || password == "" {
				log.Fatal().Msg("not logged in: set SHOP_EMAIL and SHOP_PASSWORD, or SHOP_PROVIDER_TOKEN")
			}
			if err := c.Login(ctx, email, password); err != nil {
				log.Fatal().Err(err).Msg("login failed")
			}
		}
	}

	if user := store.Current().User; user != nil {
		log.Info().Int64("id", user.ID).Str("email", user.Email).Msg("logged in as")
	}

	herbs, err := c.Catalog.ListHerbs(ctx, client.HerbListOptions{Page: 1})
	if err != nil {
		log.Fatal().Err(err).Msg("list herbs")
	}
	log.Info().Int("count", herbs.Count).Msg("catalog")
	for _, h := range herbs.Results {
		log.Info().Str("slug", h.Slug).Str("name", h.Name).Msg("herb")
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

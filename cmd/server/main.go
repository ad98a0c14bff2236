package main

import (
	"os"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/verdantis/herbfront/authapi"
	"github.com/verdantis/herbfront/internal/config"
	"github.com/verdantis/herbfront/internal/web"
)

func main() {
	log := zerolog.New(os.Stderr).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	auth := authapi.New(cfg.AuthEndpoints())

	router := gin.New()
	router.Use(gin.Recovery(), web.RequestID(), web.RequestLogger(log))
	web.RegisterRoutes(router, auth, cfg.Credentials(), log)

	log.Info().Str("addr", cfg.ListenAddr).Str("api", cfg.APIBaseURL).Msg("starting server")
	if err := router.Run(cfg.ListenAddr); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
}

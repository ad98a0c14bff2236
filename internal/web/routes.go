package web

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/verdantis/herbfront/authapi"
)

// RegisterRoutes wires the session bridge onto the router and returns the
// handler for embedding elsewhere.
func RegisterRoutes(r *gin.Engine, auth *authapi.Client, creds authapi.Credentials, log zerolog.Logger) *Handler {
	h := NewHandler(auth, creds, log)

	authGroup := r.Group("/api/auth")
	{
		authGroup.POST("/login", h.Login)
		authGroup.GET("/logout", h.Logout)
		authGroup.POST("/refresh-token", h.RefreshToken)
	}

	// Page-scope routes run the cookie reconciliation first, the way a
	// server-rendered layout would before producing page data.
	pages := r.Group("/", h.WithPageSession())
	{
		pages.GET("/api/session", h.Session)
	}

	return h
}

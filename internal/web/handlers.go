package web

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/verdantis/herbfront/authapi"
)

// Handler serves the session bridge endpoints. It owns no session state of
// its own: the session lives in the request cookies on one side and in the
// token service on the other.
type Handler struct {
	auth  *authapi.Client
	creds authapi.Credentials
	log   zerolog.Logger
}

// NewHandler builds the bridge on top of a token service client and the
// password-grant credentials it should present.
func NewHandler(auth *authapi.Client, creds authapi.Credentials, log zerolog.Logger) *Handler {
	return &Handler{auth: auth, creds: creds, log: log}
}

// Login exchanges posted credentials for a token pair, resolves the user,
// and materializes the session as httpOnly cookies.
func (h *Handler) Login(c *gin.Context) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Login Failed, please try again"})
		return
	}

	ctx := c.Request.Context()
	tokens, err := h.auth.Login(ctx, body.Email, body.Password, h.creds)
	if err != nil {
		status, msg := authFailure(err, "Login Failed, please try again")
		h.log.Info().Int("status", status).Str("email", body.Email).Msg("login rejected")
		c.JSON(status, gin.H{"error": msg})
		return
	}

	var user *authapi.User
	if u, err := h.auth.FetchSelf(ctx, tokens.AccessToken); err == nil && validUser(u) {
		user = u
	} else if err != nil {
		status, msg := authFailure(err, "Login Failed, please try again")
		c.JSON(status, gin.H{"error": msg})
		return
	}

	setSessionCookies(c, tokens.AccessToken, tokens.ExpiresIn, tokens.RefreshToken, endpointSameSite)
	c.JSON(http.StatusOK, gin.H{
		"access_token": tokens.AccessToken,
		"expires_in":   tokens.ExpiresIn,
		"user":         user,
	})
}

// Logout clears both session cookies. It requires an existing access token
// cookie; without one there is no session to end. The token itself is not
// revoked at the service, only the cookies are dropped.
func (h *Handler) Logout(c *gin.Context) {
	if token, _ := c.Cookie(accessCookie); token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "You are not logged in."})
		return
	}

	clearAccessCookie(c)
	clearRefreshCookie(c)
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Logout successful."})
}

// RefreshToken rotates the cookie-held token pair. Every failure collapses
// to a bare 401: the caller learns the session is gone, not why.
func (h *Handler) RefreshToken(c *gin.Context) {
	refreshToken, _ := c.Cookie(refreshCookie)
	if refreshToken == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "No refresh token"})
		return
	}

	tokens, err := h.auth.Refresh(c.Request.Context(), refreshToken, h.creds)
	if err != nil {
		h.log.Info().Err(err).Msg("refresh rejected")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Failed to refresh token"})
		return
	}

	setSessionCookies(c, tokens.AccessToken, tokens.ExpiresIn, tokens.RefreshToken, endpointSameSite)
	c.JSON(http.StatusOK, gin.H{
		"access_token": tokens.AccessToken,
		"expires_in":   tokens.ExpiresIn,
	})
}

// Session reports the reconciled page session, for clients that want the
// equivalent of a page load without a page.
func (h *Handler) Session(c *gin.Context) {
	sess := SessionFromContext(c)
	c.JSON(http.StatusOK, gin.H{
		"user":      sess.User,
		"logged_in": sess.User != nil,
	})
}

// authFailure maps an error from the token service onto a response status
// and message, defaulting to 400 and the given fallback.
func authFailure(err error, fallback string) (int, string) {
	var ae *authapi.AuthError
	if errors.As(err, &ae) {
		status := ae.Status
		if status == 0 {
			status = http.StatusBadRequest
		}
		msg := ae.Message
		if msg == "" {
			msg = fallback
		}
		return status, msg
	}
	return http.StatusBadRequest, fallback
}

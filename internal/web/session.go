package web

import (
	"github.com/gin-gonic/gin"

	"github.com/verdantis/herbfront/authapi"
)

const pageSessionKey = "page_session"

// PageSession is what page rendering gets to see of the auth state: the
// resolved user (nil when logged out) and the access token page-initiated
// API calls may use.
type PageSession struct {
	User        *authapi.User `json:"user"`
	AccessToken string        `json:"access_token,omitempty"`
}

// LoadSession reconciles the request's auth cookies with the token service
// before any page data is produced. A broken session degrades to logged
// out; it never fails the request.
//
// The sequence mirrors the cookies' roles: a present access token is
// validated by an identity lookup and dropped if rejected; failing that, a
// present refresh token buys a new pair, which replaces both cookies in the
// same pass before the identity lookup is retried.
func (h *Handler) LoadSession(c *gin.Context) PageSession {
	ctx := c.Request.Context()
	var sess PageSession

	accessToken, _ := c.Cookie(accessCookie)
	refreshToken, _ := c.Cookie(refreshCookie)

	if accessToken != "" {
		user, err := h.auth.FetchSelf(ctx, accessToken)
		if err == nil && validUser(user) {
			sess.User = user
		} else if err != nil {
			h.log.Debug().Err(err).Msg("access token rejected, expiring cookie")
			accessToken = ""
			clearAccessCookie(c)
		}
	}

	if accessToken == "" && refreshToken != "" {
		refreshed, err := h.auth.Refresh(ctx, refreshToken, h.creds)
		if err != nil {
			h.log.Debug().Err(err).Msg("silent refresh failed, expiring refresh cookie")
			clearRefreshCookie(c)
		} else {
			accessToken = refreshed.AccessToken
			setSessionCookies(c, refreshed.AccessToken, refreshed.ExpiresIn, refreshed.RefreshToken, pageSameSite)

			user, err := h.auth.FetchSelf(ctx, accessToken)
			if err == nil && validUser(user) {
				sess.User = user
			}
		}
	}

	sess.AccessToken = accessToken
	return sess
}

// WithPageSession runs LoadSession and stashes the result in the gin
// context for page handlers.
func (h *Handler) WithPageSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(pageSessionKey, h.LoadSession(c))
		c.Next()
	}
}

// SessionFromContext retrieves what WithPageSession stored.
func SessionFromContext(c *gin.Context) PageSession {
	v, _ := c.Get(pageSessionKey)
	sess, _ := v.(PageSession)
	return sess
}

// validUser guards against the identity endpoint answering 200 with an
// incomplete body.
func validUser(u *authapi.User) bool {
	return u != nil && u.ID != 0 && u.Email != ""
}

package web

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Cookie names shared by every bridge handler.
const (
	accessCookie  = "access_token"
	refreshCookie = "refresh_token"
)

// refreshCookieMaxAge pins the refresh cookie lifetime to the service's
// seven-day refresh token policy, regardless of what the token response
// might imply.
const refreshCookieMaxAge = 7 * 24 * 60 * 60

// Endpoint responses set cookies with Lax so they survive top-level
// navigations; silent page-load refreshes use Strict, matching the clears.
const (
	endpointSameSite = http.SameSiteLaxMode
	pageSameSite     = http.SameSiteStrictMode
)

// setSessionCookies installs a freshly issued token pair. The access cookie
// lives exactly as long as the token; the refresh cookie gets the fixed
// seven days. Endpoint responses use Lax so the cookies ride along on
// top-level navigations back to the site.
func setSessionCookies(c *gin.Context, accessToken string, expiresIn int64, refreshToken string, sameSite http.SameSite) {
	c.SetSameSite(sameSite)
	c.SetCookie(accessCookie, accessToken, int(expiresIn), "/", "", true, true)
	c.SetCookie(refreshCookie, refreshToken, refreshCookieMaxAge, "/", "", true, true)
}

func clearAccessCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(accessCookie, "", -1, "/", "", true, true)
}

func clearRefreshCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(refreshCookie, "", -1, "/", "", true, true)
}

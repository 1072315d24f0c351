package utils

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	AccessCookieName  = "accessToken"
	RefreshCookieName = "refreshToken"
)

// CookieSettings controls the session cookie attributes.
// Production cookies are Secure and SameSite=None for the cross-site client;
// elsewhere they are SameSite=Lax over plain HTTP.
type CookieSettings struct {
	Production bool
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

func (s CookieSettings) SetAuthCookies(c *gin.Context, accessToken, refreshToken string) {
	s.setCookie(c, AccessCookieName, accessToken, s.AccessTTL)
	s.setCookie(c, RefreshCookieName, refreshToken, s.RefreshTTL)
}

func (s CookieSettings) ClearAuthCookies(c *gin.Context) {
	s.setCookie(c, AccessCookieName, "", -1)
	s.setCookie(c, RefreshCookieName, "", -1)
}

func (s CookieSettings) setCookie(c *gin.Context, name, value string, expiry time.Duration) {
	maxAge := int(expiry.Seconds())
	if expiry < 0 {
		maxAge = -1
	}
	if s.Production {
		c.SetSameSite(http.SameSiteNoneMode)
	} else {
		c.SetSameSite(http.SameSiteLaxMode)
	}
	c.SetCookie(name, value, maxAge, "/", "", s.Production, true)
}

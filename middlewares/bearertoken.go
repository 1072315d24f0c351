package middlewares

import (
	"strings"

	"MediCore/utils"

	"github.com/gin-gonic/gin"
)

// bearerToken reads the access token from the http-only cookie first and
// falls back to an Authorization: Bearer header for non-browser clients.
func bearerToken(c *gin.Context) string {
	if token, err := c.Cookie(utils.AccessCookieName); err == nil && token != "" {
		return token
	}
	authHeader := c.GetHeader("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
}

// RefreshToken reads the refresh token from its cookie, or from the JSON body
// field refreshToken when no cookie was sent.
func RefreshToken(c *gin.Context) string {
	if token, err := c.Cookie(utils.RefreshCookieName); err == nil && token != "" {
		return token
	}
	var body struct {
		RefreshToken string `json:"refreshToken"`
	}
	if c.Request.ContentLength != 0 {
		_ = c.ShouldBindJSON(&body)
	}
	return body.RefreshToken
}

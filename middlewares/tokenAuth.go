package middlewares

import (
	"context"

	"MediCore/authz"
	"MediCore/models"
	"MediCore/utils"

	"github.com/gin-gonic/gin"
)

const (
	currentUserKey = "currentUser"
	identityKey    = "identity"
)

// SessionResolver turns an access token into a live identity.
type SessionResolver interface {
	Authenticate(ctx context.Context, accessToken string) (*models.User, error)
}

// Authenticate rejects the request unless it carries a valid access token of
// an existing, active identity. The identity is loaded fresh on every request.
func Authenticate(sessions SessionResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			abortWithError(c, utils.Unauthenticated("Authentication required"))
			return
		}

		user, err := sessions.Authenticate(c.Request.Context(), token)
		if err != nil {
			abortWithError(c, err)
			return
		}

		c.Set(currentUserKey, user)
		c.Set(identityKey, authz.IdentityOf(user))
		c.Next()
	}
}

// CurrentUser returns the identity resolved by Authenticate.
func CurrentUser(c *gin.Context) *models.User {
	user, _ := c.MustGet(currentUserKey).(*models.User)
	return user
}

// CurrentIdentity returns the authorization snapshot of the caller.
func CurrentIdentity(c *gin.Context) authz.Identity {
	identity, _ := c.MustGet(identityKey).(authz.Identity)
	return identity
}

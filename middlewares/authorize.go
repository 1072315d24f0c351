package middlewares

import (
	"MediCore/authz"
	"MediCore/models"

	"github.com/gin-gonic/gin"
)

// RequirePermission applies the static role policy before the handler runs.
func RequirePermission(permission authz.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := authz.Require(CurrentIdentity(c), permission); err != nil {
			abortWithError(c, err)
			return
		}
		c.Next()
	}
}

func RequirePlan(plan models.SubscriptionPlan) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := authz.RequirePlan(CurrentIdentity(c), plan); err != nil {
			abortWithError(c, err)
			return
		}
		c.Next()
	}
}

// ForbidSelf rejects requests whose path parameter names the caller.
func ForbidSelf(param, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := authz.ForbidSelfTarget(CurrentIdentity(c), c.Param(param), action); err != nil {
			abortWithError(c, err)
			return
		}
		c.Next()
	}
}

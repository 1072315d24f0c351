package controllers

import (
	"MediCore/handlers"

	"github.com/gin-gonic/gin"
)

type AuthController struct {
	Handler *handlers.AuthHandler
}

// NewAuthController creates a new AuthController with the given AuthHandler
func NewAuthController(authHandler *handlers.AuthHandler) *AuthController {
	return &AuthController{
		Handler: authHandler,
	}
}

// RegisterRoutes mounts the session endpoints. authenticate guards the routes
// that need a current identity.
func (ac *AuthController) RegisterRoutes(router *gin.RouterGroup, authenticate gin.HandlerFunc) {
	auth := router.Group("/auth")

	// Public routes: No authentication required
	auth.POST("/register", ac.Handler.Register)
	auth.POST("/login", ac.Handler.Login)
	auth.POST("/refresh-token", ac.Handler.RefreshToken)
	auth.POST("/forgot-password", ac.Handler.ForgotPassword)
	auth.POST("/reset-password", ac.Handler.ResetPassword)

	// Protected routes: Requires a valid token
	protected := auth.Group("", authenticate)
	{
		protected.POST("/logout", ac.Handler.Logout)
		protected.GET("/me", ac.Handler.Me)
	}
}

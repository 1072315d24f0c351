package controllers

import (
	"MediCore/authz"
	"MediCore/handlers"
	"MediCore/middlewares"

	"github.com/gin-gonic/gin"
)

type UserController struct {
	Handler *handlers.UserHandler
}

func NewUserController(userHandler *handlers.UserHandler) *UserController {
	return &UserController{Handler: userHandler}
}

func (uc *UserController) RegisterRoutes(router *gin.RouterGroup) {
	users := router.Group("/users")

	users.GET("", middlewares.RequirePermission(authz.ListUsers), uc.Handler.List)
	users.GET("/:id", uc.Handler.Get)
	users.PATCH("/:id/profile", uc.Handler.UpdateProfile)
	users.PATCH("/:id/change-password", uc.Handler.ChangePassword)
	users.PATCH("/:id/subscription", uc.Handler.ChangeSubscription)
	users.PATCH("/:id/deactivate", uc.Handler.Deactivate)

	// Admin routes; an administrator can never target their own account here.
	users.PATCH("/:id/role",
		middlewares.RequirePermission(authz.ManageUsers),
		middlewares.ForbidSelf("id", "change the role of"),
		uc.Handler.ChangeRole)
	users.DELETE("/:id",
		middlewares.RequirePermission(authz.ManageUsers),
		middlewares.ForbidSelf("id", "delete"),
		uc.Handler.Delete)
}

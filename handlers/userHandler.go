package handlers

import (
	"MediCore/middlewares"
	"MediCore/repositories"
	"MediCore/services"
	"MediCore/utils"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	users   *services.UserService
	cookies utils.CookieSettings
}

func NewUserHandler(users *services.UserService, cookies utils.CookieSettings) *UserHandler {
	return &UserHandler{users: users, cookies: cookies}
}

func (h *UserHandler) List(c *gin.Context) {
	var filter repositories.UserFilter
	if !bindQuery(c, &filter) {
		return
	}
	result, err := h.users.List(c.Request.Context(), middlewares.CurrentIdentity(c), filter)
	if err != nil {
		_ = c.Error(err)
		return
	}
	utils.OK(c, result, "Users fetched")
}

func (h *UserHandler) Get(c *gin.Context) {
	user, err := h.users.Get(c.Request.Context(), middlewares.CurrentIdentity(c), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	utils.OK(c, gin.H{"user": user}, "User fetched")
}

func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var input services.ProfileInput
	if !bindJSON(c, &input) {
		return
	}
	user, err := h.users.UpdateProfile(c.Request.Context(), middlewares.CurrentIdentity(c), c.Param("id"), input)
	if err != nil {
		_ = c.Error(err)
		return
	}
	utils.OK(c, gin.H{"user": user}, "Profile updated")
}

func (h *UserHandler) ChangePassword(c *gin.Context) {
	var input services.ChangePasswordInput
	if !bindJSON(c, &input) {
		return
	}
	if err := h.users.ChangePassword(c.Request.Context(), middlewares.CurrentIdentity(c), c.Param("id"), input); err != nil {
		_ = c.Error(err)
		return
	}
	h.cookies.ClearAuthCookies(c)
	utils.OK(c, nil, "Password changed, please log in again")
}

func (h *UserHandler) ChangeRole(c *gin.Context) {
	var input services.RoleInput
	if !bindJSON(c, &input) {
		return
	}
	user, err := h.users.ChangeRole(c.Request.Context(), middlewares.CurrentIdentity(c), c.Param("id"), input)
	if err != nil {
		_ = c.Error(err)
		return
	}
	utils.OK(c, gin.H{"user": user}, "Role updated")
}

func (h *UserHandler) ChangeSubscription(c *gin.Context) {
	var input services.SubscriptionInput
	if !bindJSON(c, &input) {
		return
	}
	user, err := h.users.ChangeSubscription(c.Request.Context(), middlewares.CurrentIdentity(c), c.Param("id"), input)
	if err != nil {
		_ = c.Error(err)
		return
	}
	utils.OK(c, gin.H{"user": user}, "Subscription updated")
}

func (h *UserHandler) Deactivate(c *gin.Context) {
	caller := middlewares.CurrentIdentity(c)
	user, err := h.users.Deactivate(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	if user.ID == caller.ID {
		h.cookies.ClearAuthCookies(c)
	}
	utils.OK(c, gin.H{"user": user}, "User deactivated")
}

func (h *UserHandler) Delete(c *gin.Context) {
	if err := h.users.Delete(c.Request.Context(), middlewares.CurrentIdentity(c), c.Param("id")); err != nil {
		_ = c.Error(err)
		return
	}
	utils.OK(c, nil, "User deleted")
}

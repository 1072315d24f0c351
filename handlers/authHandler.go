package handlers

import (
	"MediCore/middlewares"
	"MediCore/services"
	"MediCore/utils"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	auth    *services.AuthService
	cookies utils.CookieSettings
}

func NewAuthHandler(auth *services.AuthService, cookies utils.CookieSettings) *AuthHandler {
	return &AuthHandler{auth: auth, cookies: cookies}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var input services.RegisterInput
	if !bindJSON(c, &input) {
		return
	}
	session, err := h.auth.Register(c.Request.Context(), input)
	if err != nil {
		_ = c.Error(err)
		return
	}
	h.cookies.SetAuthCookies(c, session.AccessToken, session.RefreshToken)
	utils.Created(c, session, "Registration successful")
}

func (h *AuthHandler) Login(c *gin.Context) {
	var input services.LoginInput
	if !bindJSON(c, &input) {
		return
	}
	session, err := h.auth.Login(c.Request.Context(), input)
	if err != nil {
		_ = c.Error(err)
		return
	}
	h.cookies.SetAuthCookies(c, session.AccessToken, session.RefreshToken)
	utils.OK(c, session, "Login successful")
}

func (h *AuthHandler) RefreshToken(c *gin.Context) {
	session, err := h.auth.Refresh(c.Request.Context(), middlewares.RefreshToken(c))
	if err != nil {
		h.cookies.ClearAuthCookies(c)
		_ = c.Error(err)
		return
	}
	h.cookies.SetAuthCookies(c, session.AccessToken, session.RefreshToken)
	utils.OK(c, session, "Token refreshed")
}

func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.auth.Logout(c.Request.Context(), middlewares.CurrentUser(c).ID); err != nil {
		_ = c.Error(err)
		return
	}
	h.cookies.ClearAuthCookies(c)
	utils.OK(c, nil, "Logged out successfully")
}

func (h *AuthHandler) Me(c *gin.Context) {
	utils.OK(c, gin.H{"user": middlewares.CurrentUser(c)}, "Current user")
}

func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var input services.ForgotPasswordInput
	if !bindJSON(c, &input) {
		return
	}
	if err := h.auth.SendResetCode(c.Request.Context(), input); err != nil {
		_ = c.Error(err)
		return
	}
	utils.OK(c, nil, "If the email is registered, a reset code has been sent")
}

func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var input services.ResetPasswordInput
	if !bindJSON(c, &input) {
		return
	}
	if err := h.auth.ResetPassword(c.Request.Context(), input); err != nil {
		_ = c.Error(err)
		return
	}
	h.cookies.ClearAuthCookies(c)
	utils.OK(c, nil, "Password has been reset, please log in")
}

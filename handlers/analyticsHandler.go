package handlers

import (
	"MediCore/middlewares"
	"MediCore/services"
	"MediCore/utils"

	"github.com/gin-gonic/gin"
)

type AnalyticsHandler struct {
	analytics *services.AnalyticsService
}

func NewAnalyticsHandler(analytics *services.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics}
}

func (h *AnalyticsHandler) Admin(c *gin.Context) {
	summary, err := h.analytics.Admin(c.Request.Context(), middlewares.CurrentIdentity(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	utils.OK(c, summary, "Admin analytics fetched")
}

func (h *AnalyticsHandler) Doctor(c *gin.Context) {
	summary, err := h.analytics.Doctor(c.Request.Context(), middlewares.CurrentIdentity(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	utils.OK(c, summary, "Doctor analytics fetched")
}

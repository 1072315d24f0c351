package controllers

import (
	"MediCore/authz"
	"MediCore/handlers"
	"MediCore/middlewares"

	"github.com/gin-gonic/gin"
)

func SetupAnalyticsRoutes(router *gin.RouterGroup, analyticsHandler *handlers.AnalyticsHandler) {
	analytics := router.Group("/analytics")

	analytics.GET("/admin", middlewares.RequirePermission(authz.ViewAdminAnalytics), analyticsHandler.Admin)
	analytics.GET("/doctor", middlewares.RequirePermission(authz.ViewDoctorAnalytics), analyticsHandler.Doctor)
}

package controllers

import (
	"MediCore/authz"
	"MediCore/handlers"
	"MediCore/middlewares"

	"github.com/gin-gonic/gin"
)

func SetupAppointmentRoutes(router *gin.RouterGroup, appointmentHandler *handlers.AppointmentHandler) {
	appointments := router.Group("/appointments")
	manage := middlewares.RequirePermission(authz.ManageAppointments)

	appointments.POST("", manage, appointmentHandler.CreateAppointment)
	appointments.GET("", appointmentHandler.GetAllAppointments)
	appointments.GET("/doctor/:doctorId/schedule", middlewares.RequirePermission(authz.ViewSchedules), appointmentHandler.GetDoctorSchedule)
	appointments.GET("/:id", appointmentHandler.GetAppointmentByID)
	appointments.PATCH("/:id", manage, appointmentHandler.UpdateAppointment)
	appointments.PATCH("/:id/status", middlewares.RequirePermission(authz.SetAppointmentStatus), appointmentHandler.UpdateAppointmentStatus)
	appointments.DELETE("/:id", manage, appointmentHandler.CancelAppointment)
}

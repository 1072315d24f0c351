package controllers

import (
	"MediCore/authz"
	"MediCore/handlers"
	"MediCore/middlewares"

	"github.com/gin-gonic/gin"
)

func SetupPatientRoutes(router *gin.RouterGroup, patientHandler *handlers.PatientHandler) {
	patients := router.Group("/patients")

	patients.POST("", middlewares.RequirePermission(authz.ManagePatients), patientHandler.CreatePatient)
	patients.GET("", middlewares.RequirePermission(authz.ListPatients), patientHandler.GetAllPatients)
	patients.GET("/:id", patientHandler.GetPatientByID)
	patients.GET("/:id/history", patientHandler.GetPatientHistory)
	patients.PATCH("/:id", middlewares.RequirePermission(authz.ManagePatients), patientHandler.UpdatePatient)
	patients.DELETE("/:id", middlewares.RequirePermission(authz.DeletePatients), patientHandler.DeletePatient)
}

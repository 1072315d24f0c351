package controllers

import (
	"MediCore/authz"
	"MediCore/handlers"
	"MediCore/middlewares"

	"github.com/gin-gonic/gin"
)

func SetupPrescriptionRoutes(router *gin.RouterGroup, prescriptionHandler *handlers.PrescriptionHandler) {
	prescriptions := router.Group("/prescriptions")

	prescriptions.POST("", middlewares.RequirePermission(authz.WritePrescriptions), prescriptionHandler.CreatePrescription)
	prescriptions.GET("", prescriptionHandler.GetAllPrescriptions)
	prescriptions.GET("/patient/:patientId", prescriptionHandler.GetPatientPrescriptions)
	prescriptions.GET("/:id", prescriptionHandler.GetPrescriptionByID)
	prescriptions.PATCH("/:id", middlewares.RequirePermission(authz.EditPrescriptions), prescriptionHandler.UpdatePrescription)
}

package controllers

import (
	"MediCore/authz"
	"MediCore/handlers"
	"MediCore/middlewares"
	"MediCore/models"

	"github.com/gin-gonic/gin"
)

func SetupDiagnosisRoutes(router *gin.RouterGroup, diagnosisHandler *handlers.DiagnosisHandler) {
	diagnoses := router.Group("/diagnoses")

	diagnoses.POST("/symptom-check", middlewares.RequirePermission(authz.RunSymptomCheck), diagnosisHandler.SymptomCheck)
	diagnoses.POST("/prescription-explain", middlewares.RequirePermission(authz.ExplainPrescription), diagnosisHandler.ExplainPrescription)
	diagnoses.POST("/risk-flag/:patientId",
		middlewares.RequirePermission(authz.RunRiskFlag),
		middlewares.RequirePlan(models.PlanPro),
		diagnosisHandler.RiskFlag)
	diagnoses.GET("/logs", middlewares.RequirePermission(authz.ViewDiagnosisLogs), diagnosisHandler.GetLogs)
	diagnoses.GET("/logs/:id", middlewares.RequirePermission(authz.ViewDiagnosisLogs), diagnosisHandler.GetLogByID)
}

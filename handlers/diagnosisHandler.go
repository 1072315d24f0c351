package handlers

import (
	"MediCore/middlewares"
	"MediCore/repositories"
	"MediCore/services"
	"MediCore/utils"

	"github.com/gin-gonic/gin"
)

type DiagnosisHandler struct {
	diagnoses *services.DiagnosisService
}

func NewDiagnosisHandler(diagnoses *services.DiagnosisService) *DiagnosisHandler {
	return &DiagnosisHandler{diagnoses: diagnoses}
}

// respondDiagnosis always answers 200; a degraded run is reported in the body.
func respondDiagnosis(c *gin.Context, result *services.DiagnosisResult, success string) {
	message := success
	if result.AIFailed {
		message = "AI unavailable, log saved"
	}
	utils.OK(c, result, message)
}

func (h *DiagnosisHandler) SymptomCheck(c *gin.Context) {
	var input services.SymptomCheckInput
	if !bindJSON(c, &input) {
		return
	}
	result, err := h.diagnoses.SymptomCheck(c.Request.Context(), middlewares.CurrentIdentity(c), input)
	if err != nil {
		_ = c.Error(err)
		return
	}
	respondDiagnosis(c, result, "Symptom check completed")
}

func (h *DiagnosisHandler) ExplainPrescription(c *gin.Context) {
	var input services.PrescriptionExplainInput
	if !bindJSON(c, &input) {
		return
	}
	result, err := h.diagnoses.ExplainPrescription(c.Request.Context(), middlewares.CurrentIdentity(c), input)
	if err != nil {
		_ = c.Error(err)
		return
	}
	respondDiagnosis(c, result, "Prescription explanation generated")
}

func (h *DiagnosisHandler) RiskFlag(c *gin.Context) {
	var input services.RiskFlagInput
	if c.Request.ContentLength != 0 && !bindJSON(c, &input) {
		return
	}
	result, err := h.diagnoses.RiskFlag(c.Request.Context(), middlewares.CurrentIdentity(c), c.Param("patientId"), input)
	if err != nil {
		_ = c.Error(err)
		return
	}
	respondDiagnosis(c, result, "Risk analysis completed")
}

func (h *DiagnosisHandler) GetLogs(c *gin.Context) {
	var filter repositories.DiagnosisLogFilter
	if !bindQuery(c, &filter) {
		return
	}
	result, err := h.diagnoses.Logs(c.Request.Context(), middlewares.CurrentIdentity(c), filter)
	if err != nil {
		_ = c.Error(err)
		return
	}
	utils.OK(c, result, "Diagnosis logs fetched")
}

func (h *DiagnosisHandler) GetLogByID(c *gin.Context) {
	entry, err := h.diagnoses.Log(c.Request.Context(), middlewares.CurrentIdentity(c), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	utils.OK(c, gin.H{"log": entry}, "Diagnosis log fetched")
}

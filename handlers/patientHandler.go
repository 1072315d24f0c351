package handlers

import (
	"MediCore/middlewares"
	"MediCore/repositories"
	"MediCore/services"
	"MediCore/utils"

	"github.com/gin-gonic/gin"
)

type PatientHandler struct {
	patients *services.PatientService
}

func NewPatientHandler(patients *services.PatientService) *PatientHandler {
	return &PatientHandler{patients: patients}
}

func (h *PatientHandler) CreatePatient(c *gin.Context) {
	var input services.PatientInput
	if !bindJSON(c, &input) {
		return
	}
	patient, err := h.patients.Create(c.Request.Context(), middlewares.CurrentIdentity(c), input)
	if err != nil {
		_ = c.Error(err)
		return
	}
	utils.Created(c, gin.H{"patient": patient}, "Patient created")
}

func (h *PatientHandler) GetAllPatients(c *gin.Context) {
	var filter repositories.PatientFilter
	if !bindQuery(c, &filter) {
		return
	}
	result, err := h.patients.List(c.Request.Context(), middlewares.CurrentIdentity(c), filter)
	if err != nil {
		_ = c.Error(err)
		return
	}
	utils.OK(c, result, "Patients fetched")
}

func (h *PatientHandler) GetPatientByID(c *gin.Context) {
	patient, err := h.patients.Get(c.Request.Context(), middlewares.CurrentIdentity(c), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	utils.OK(c, gin.H{"patient": patient}, "Patient fetched")
}

func (h *PatientHandler) GetPatientHistory(c *gin.Context) {
	history, err := h.patients.History(c.Request.Context(), middlewares.CurrentIdentity(c), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	utils.OK(c, history, "Patient history fetched")
}

func (h *PatientHandler) UpdatePatient(c *gin.Context) {
	var patch services.PatientPatch
	if !bindJSON(c, &patch) {
		return
	}
	patient, err := h.patients.Update(c.Request.Context(), middlewares.CurrentIdentity(c), c.Param("id"), patch)
	if err != nil {
		_ = c.Error(err)
		return
	}
	utils.OK(c, gin.H{"patient": patient}, "Patient updated")
}

func (h *PatientHandler) DeletePatient(c *gin.Context) {
	if err := h.patients.Delete(c.Request.Context(), middlewares.CurrentIdentity(c), c.Param("id")); err != nil {
		_ = c.Error(err)
		return
	}
	utils.OK(c, nil, "Patient deleted")
}

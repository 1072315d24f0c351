package handlers

import (
	"MediCore/middlewares"
	"MediCore/repositories"
	"MediCore/services"
	"MediCore/utils"

	"github.com/gin-gonic/gin"
)

type PrescriptionHandler struct {
	prescriptions *services.PrescriptionService
}

func NewPrescriptionHandler(prescriptions *services.PrescriptionService) *PrescriptionHandler {
	return &PrescriptionHandler{prescriptions: prescriptions}
}

func (h *PrescriptionHandler) CreatePrescription(c *gin.Context) {
	var input services.PrescriptionInput
	if !bindJSON(c, &input) {
		return
	}
	prescription, err := h.prescriptions.Create(c.Request.Context(), middlewares.CurrentIdentity(c), input)
	if err != nil {
		_ = c.Error(err)
		return
	}
	utils.Created(c, gin.H{"prescription": prescription}, "Prescription created")
}

func (h *PrescriptionHandler) GetAllPrescriptions(c *gin.Context) {
	var filter repositories.PrescriptionFilter
	if !bindQuery(c, &filter) {
		return
	}
	result, err := h.prescriptions.List(c.Request.Context(), middlewares.CurrentIdentity(c), filter)
	if err != nil {
		_ = c.Error(err)
		return
	}
	utils.OK(c, result, "Prescriptions fetched")
}

func (h *PrescriptionHandler) GetPatientPrescriptions(c *gin.Context) {
	prescriptions, err := h.prescriptions.ListByPatient(c.Request.Context(), middlewares.CurrentIdentity(c), c.Param("patientId"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	utils.OK(c, gin.H{"prescriptions": prescriptions}, "Prescriptions fetched")
}

func (h *PrescriptionHandler) GetPrescriptionByID(c *gin.Context) {
	prescription, err := h.prescriptions.Get(c.Request.Context(), middlewares.CurrentIdentity(c), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	utils.OK(c, gin.H{"prescription": prescription}, "Prescription fetched")
}

func (h *PrescriptionHandler) UpdatePrescription(c *gin.Context) {
	var patch services.PrescriptionPatch
	if !bindJSON(c, &patch) {
		return
	}
	prescription, err := h.prescriptions.Update(c.Request.Context(), middlewares.CurrentIdentity(c), c.Param("id"), patch)
	if err != nil {
		_ = c.Error(err)
		return
	}
	utils.OK(c, gin.H{"prescription": prescription}, "Prescription updated")
}

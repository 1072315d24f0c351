package handlers

import (
	"MediCore/middlewares"
	"MediCore/repositories"
	"MediCore/services"
	"MediCore/utils"

	"github.com/gin-gonic/gin"
)

type AppointmentHandler struct {
	appointments *services.AppointmentService
}

func NewAppointmentHandler(appointments *services.AppointmentService) *AppointmentHandler {
	return &AppointmentHandler{appointments: appointments}
}

func (h *AppointmentHandler) CreateAppointment(c *gin.Context) {
	var input services.AppointmentInput
	if !bindJSON(c, &input) {
		return
	}
	appointment, err := h.appointments.Create(c.Request.Context(), middlewares.CurrentIdentity(c), input)
	if err != nil {
		_ = c.Error(err)
		return
	}
	utils.Created(c, gin.H{"appointment": appointment}, "Appointment booked")
}

func (h *AppointmentHandler) GetAllAppointments(c *gin.Context) {
	var filter repositories.AppointmentFilter
	if !bindQuery(c, &filter) {
		return
	}
	result, err := h.appointments.List(c.Request.Context(), middlewares.CurrentIdentity(c), filter)
	if err != nil {
		_ = c.Error(err)
		return
	}
	utils.OK(c, result, "Appointments fetched")
}

func (h *AppointmentHandler) GetDoctorSchedule(c *gin.Context) {
	schedule, err := h.appointments.Schedule(c.Request.Context(), middlewares.CurrentIdentity(c), c.Param("doctorId"), c.Query("date"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	utils.OK(c, gin.H{"appointments": schedule}, "Schedule fetched")
}

func (h *AppointmentHandler) GetAppointmentByID(c *gin.Context) {
	appointment, err := h.appointments.Get(c.Request.Context(), middlewares.CurrentIdentity(c), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	utils.OK(c, gin.H{"appointment": appointment}, "Appointment fetched")
}

func (h *AppointmentHandler) UpdateAppointment(c *gin.Context) {
	var patch services.AppointmentPatch
	if !bindJSON(c, &patch) {
		return
	}
	appointment, err := h.appointments.Update(c.Request.Context(), middlewares.CurrentIdentity(c), c.Param("id"), patch)
	if err != nil {
		_ = c.Error(err)
		return
	}
	utils.OK(c, gin.H{"appointment": appointment}, "Appointment updated")
}

func (h *AppointmentHandler) UpdateAppointmentStatus(c *gin.Context) {
	var input services.StatusInput
	if !bindJSON(c, &input) {
		return
	}
	appointment, err := h.appointments.UpdateStatus(c.Request.Context(), middlewares.CurrentIdentity(c), c.Param("id"), input)
	if err != nil {
		_ = c.Error(err)
		return
	}
	utils.OK(c, gin.H{"appointment": appointment}, "Appointment status updated")
}

func (h *AppointmentHandler) CancelAppointment(c *gin.Context) {
	appointment, err := h.appointments.Cancel(c.Request.Context(), middlewares.CurrentIdentity(c), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	utils.OK(c, gin.H{"appointment": appointment}, "Appointment cancelled")
}

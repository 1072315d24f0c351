package models

type AppointmentStatus string

const (
	StatusPending   AppointmentStatus = "pending"
	StatusConfirmed AppointmentStatus = "confirmed"
	StatusCompleted AppointmentStatus = "completed"
	StatusCancelled AppointmentStatus = "cancelled"
)

// appointmentTransitions lists the allowed direct status changes.
var appointmentTransitions = map[AppointmentStatus][]AppointmentStatus{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCompleted, StatusCancelled},
}

func (s AppointmentStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no transition may leave s.
func (s AppointmentStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// CanTransitionTo reports whether s -> next is an edge of the lifecycle.
func (s AppointmentStatus) CanTransitionTo(next AppointmentStatus) bool {
	for _, allowed := range appointmentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ActiveSlotIndex is the partial unique index guarding slot occupancy.
const ActiveSlotIndex = "ux_appointment_active_slot"

// Appointment model
type Appointment struct {
	BaseModel
	PatientID string            `gorm:"type:uuid;not null;index;column:patient_id" json:"patientId"`
	DoctorID  string            `gorm:"type:uuid;not null;index;column:doctor_id" json:"doctorId"`
	Date      string            `gorm:"size:10;not null;index;column:date" json:"date"`
	TimeSlot  string            `gorm:"size:20;not null;column:time_slot" json:"timeSlot"`
	Status    AppointmentStatus `gorm:"size:10;not null;index;column:status;check:status IN ('pending','confirmed','completed','cancelled')" json:"status"`
	Reason    string            `gorm:"type:text;column:reason" json:"reason,omitempty"`
	Notes     string            `gorm:"type:text;column:notes" json:"notes,omitempty"`
	CreatedBy string            `gorm:"type:uuid;not null;column:created_by" json:"createdBy"`
	Patient   *Patient          `gorm:"foreignKey:PatientID;references:ID" json:"patient,omitempty"`
	Doctor    *User             `gorm:"foreignKey:DoctorID;references:ID" json:"doctor,omitempty"`
}

func (Appointment) TableName() string {
	return "appointment"
}

// Occupies reports whether the appointment counts against its slot.
func (a *Appointment) Occupies(doctorID, date, timeSlot string) bool {
	return a.Status != StatusCancelled && a.DoctorID == doctorID && a.Date == date && a.TimeSlot == timeSlot
}

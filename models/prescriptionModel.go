package models

import (
	"gorm.io/datatypes"
)

type Medicine struct {
	Name         string `json:"name"`
	Dosage       string `json:"dosage"`
	Frequency    string `json:"frequency"`
	Duration     string `json:"duration"`
	Instructions string `json:"instructions,omitempty"`
}

// Prescription model
type Prescription struct {
	BaseModel
	PatientID     string                        `gorm:"type:uuid;not null;index;column:patient_id" json:"patientId"`
	DoctorID      string                        `gorm:"type:uuid;not null;index;column:doctor_id" json:"doctorId"`
	AppointmentID *string                       `gorm:"type:uuid;index;column:appointment_id" json:"appointmentId,omitempty"`
	Diagnosis     string                        `gorm:"type:text;not null;column:diagnosis" json:"diagnosis"`
	Medicines     datatypes.JSONSlice[Medicine] `gorm:"type:jsonb;not null;column:medicines" json:"medicines"`
	Notes         string                        `gorm:"type:text;column:notes" json:"notes,omitempty"`
	FollowUpDate  *string                       `gorm:"size:10;column:follow_up_date" json:"followUpDate,omitempty"`
	Patient       *Patient                      `gorm:"foreignKey:PatientID;references:ID" json:"patient,omitempty"`
	Doctor        *User                         `gorm:"foreignKey:DoctorID;references:ID" json:"doctor,omitempty"`
}

func (Prescription) TableName() string {
	return "prescription"
}

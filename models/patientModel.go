package models

import (
	"gorm.io/datatypes"
)

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

var BloodGroups = []string{"A+", "A-", "B+", "B-", "AB+", "AB-", "O+", "O-"}

// EmergencyContact is embedded into the patient row.
type EmergencyContact struct {
	Name     string `gorm:"column:name" json:"name,omitempty"`
	Phone    string `gorm:"column:phone" json:"phone,omitempty"`
	Relation string `gorm:"column:relation" json:"relation,omitempty"`
}

// Patient model
type Patient struct {
	BaseModel
	Name              string                      `gorm:"size:100;not null;index;column:name" json:"name"`
	Age               int                         `gorm:"not null;column:age;check:age >= 0 AND age <= 150" json:"age"`
	Gender            Gender                      `gorm:"size:10;not null;column:gender;check:gender IN ('male','female','other')" json:"gender"`
	Phone             string                      `gorm:"size:30;not null;index;column:phone" json:"phone"`
	Email             string                      `gorm:"size:255;column:email" json:"email,omitempty"`
	Address           string                      `gorm:"type:text;column:address" json:"address,omitempty"`
	BloodGroup        string                      `gorm:"size:3;column:blood_group" json:"bloodGroup,omitempty"`
	Allergies         datatypes.JSONSlice[string] `gorm:"type:jsonb;column:allergies" json:"allergies"`
	ChronicConditions datatypes.JSONSlice[string] `gorm:"type:jsonb;column:chronic_conditions" json:"chronicConditions"`
	EmergencyContact  EmergencyContact            `gorm:"embedded;embeddedPrefix:emergency_contact_" json:"emergencyContact"`
	UserID            *string                     `gorm:"type:uuid;index;column:user_id" json:"userId,omitempty"`
	CreatedBy         string                      `gorm:"type:uuid;not null;column:created_by" json:"createdBy"`
	IsActive          bool                        `gorm:"not null;index;column:is_active" json:"isActive"`
}

func (Patient) TableName() string {
	return "patient"
}

// OwnerID returns the owning identity id, or "" when the record is unlinked.
func (p *Patient) OwnerID() string {
	if p.UserID == nil {
		return ""
	}
	return *p.UserID
}

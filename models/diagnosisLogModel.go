package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type DiagnosisType string

const (
	DiagnosisSymptomCheck        DiagnosisType = "symptom_check"
	DiagnosisPrescriptionExplain DiagnosisType = "prescription_explain"
	DiagnosisRiskFlag            DiagnosisType = "risk_flag"
)

type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

func (r RiskLevel) Valid() bool {
	switch r {
	case RiskLow, RiskMedium, RiskHigh, RiskCritical:
		return true
	}
	return false
}

// DiagnosisLog is the append-only audit record of one AI workflow run.
// It has no update path.
type DiagnosisLog struct {
	ID             string         `gorm:"primaryKey;type:uuid;column:id" json:"id"`
	Type           DiagnosisType  `gorm:"size:30;not null;index;column:type" json:"type"`
	PatientID      string         `gorm:"type:uuid;not null;index;column:patient_id" json:"patientId"`
	RequestedBy    string         `gorm:"type:uuid;not null;index;column:requested_by" json:"requestedBy"`
	PrescriptionID *string        `gorm:"type:uuid;column:prescription_id" json:"prescriptionId,omitempty"`
	Input          datatypes.JSON `gorm:"type:jsonb;not null;column:input" json:"input"`
	AIResponse     datatypes.JSON `gorm:"type:jsonb;column:ai_response" json:"aiResponse"`
	RiskLevel      *RiskLevel     `gorm:"size:10;column:risk_level" json:"riskLevel"`
	AIFailed       bool           `gorm:"not null;column:ai_failed" json:"aiFailed"`
	CreatedAt      time.Time      `gorm:"column:created_at;autoCreateTime;index" json:"createdAt"`
}

func (DiagnosisLog) TableName() string {
	return "diagnosis_log"
}

func (d *DiagnosisLog) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return nil
}

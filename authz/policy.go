package authz

import (
	"MediCore/models"
)

// Permission names a guarded capability.
type Permission string

const (
	ListUsers            Permission = "list_users"
	ManageUsers          Permission = "manage_users"
	ListPatients         Permission = "list_patients"
	ManagePatients       Permission = "manage_patients"
	DeletePatients       Permission = "delete_patients"
	ManageAppointments   Permission = "manage_appointments"
	SetAppointmentStatus Permission = "set_appointment_status"
	ViewSchedules        Permission = "view_schedules"
	WritePrescriptions   Permission = "write_prescriptions"
	EditPrescriptions    Permission = "edit_prescriptions"
	RunSymptomCheck      Permission = "run_symptom_check"
	ExplainPrescription  Permission = "explain_prescription"
	RunRiskFlag          Permission = "run_risk_flag"
	ViewDiagnosisLogs    Permission = "view_diagnosis_logs"
	ViewAdminAnalytics   Permission = "view_admin_analytics"
	ViewDoctorAnalytics  Permission = "view_doctor_analytics"
)

var (
	admin        = models.RoleAdmin
	doctor       = models.RoleDoctor
	receptionist = models.RoleReceptionist
	patient      = models.RolePatient
)

// rolePermissions is the static role policy.
var rolePermissions = map[Permission][]models.Role{
	ListUsers:            {admin, receptionist},
	ManageUsers:          {admin},
	ListPatients:         {admin, doctor, receptionist},
	ManagePatients:       {admin, receptionist},
	DeletePatients:       {admin},
	ManageAppointments:   {admin, receptionist},
	SetAppointmentStatus: {admin, doctor, receptionist},
	ViewSchedules:        {admin, doctor, receptionist},
	WritePrescriptions:   {doctor},
	EditPrescriptions:    {doctor, admin},
	RunSymptomCheck:      {doctor},
	ExplainPrescription:  {doctor, patient},
	RunRiskFlag:          {doctor},
	ViewDiagnosisLogs:    {doctor, admin},
	ViewAdminAnalytics:   {admin},
	ViewDoctorAnalytics:  {doctor},
}

// RolesFor returns the roles granted p.
func RolesFor(p Permission) []models.Role {
	return rolePermissions[p]
}

// Require fails unless the caller's role is granted p. Unknown permissions deny.
func Require(id Identity, p Permission) error {
	return RequireRole(id, rolePermissions[p]...)
}

package authz

import (
	"errors"
	"testing"

	"MediCore/models"
	"MediCore/utils"

	"github.com/stretchr/testify/assert"
)

var (
	admin1        = Identity{ID: "admin-1", Role: models.RoleAdmin, Plan: models.PlanPro}
	doctor1       = Identity{ID: "doctor-1", Role: models.RoleDoctor, Plan: models.PlanFree}
	proDoctor     = Identity{ID: "doctor-2", Role: models.RoleDoctor, Plan: models.PlanPro}
	receptionist1 = Identity{ID: "reception-1", Role: models.RoleReceptionist, Plan: models.PlanFree}
	patient1      = Identity{ID: "patient-1", Role: models.RolePatient, Plan: models.PlanFree}
)

func TestRolePolicy(t *testing.T) {
	tests := []struct {
		permission Permission
		allowed    []Identity
		denied     []Identity
	}{
		{ManageUsers, []Identity{admin1}, []Identity{doctor1, receptionist1, patient1}},
		{ListUsers, []Identity{admin1, receptionist1}, []Identity{doctor1, patient1}},
		{ListPatients, []Identity{admin1, doctor1, receptionist1}, []Identity{patient1}},
		{DeletePatients, []Identity{admin1}, []Identity{doctor1, receptionist1, patient1}},
		{ManageAppointments, []Identity{admin1, receptionist1}, []Identity{doctor1, patient1}},
		{SetAppointmentStatus, []Identity{admin1, doctor1, receptionist1}, []Identity{patient1}},
		{WritePrescriptions, []Identity{doctor1}, []Identity{admin1, receptionist1, patient1}},
		{RunSymptomCheck, []Identity{doctor1}, []Identity{admin1, receptionist1, patient1}},
		{ExplainPrescription, []Identity{doctor1, patient1}, []Identity{admin1, receptionist1}},
		{ViewAdminAnalytics, []Identity{admin1}, []Identity{doctor1, receptionist1, patient1}},
		{ViewDoctorAnalytics, []Identity{doctor1}, []Identity{admin1, receptionist1, patient1}},
	}
	for _, tt := range tests {
		t.Run(string(tt.permission), func(t *testing.T) {
			for _, id := range tt.allowed {
				assert.NoError(t, Require(id, tt.permission), id.Role)
			}
			for _, id := range tt.denied {
				err := Require(id, tt.permission)
				assert.True(t, errors.Is(err, utils.ErrForbidden), id.Role)
			}
		})
	}
}

func TestRequireOwnerOrRole(t *testing.T) {
	assert.NoError(t, RequireOwnerOrRole(patient1, "patient-1"))
	assert.NoError(t, RequireOwnerOrRole(admin1, "patient-1", models.RoleAdmin))
	assert.Error(t, RequireOwnerOrRole(doctor1, "patient-1", models.RoleAdmin))
	assert.Error(t, RequireOwnerOrRole(Identity{Role: models.RolePatient}, ""), "empty ids never match")
}

func TestRequirePlan(t *testing.T) {
	assert.NoError(t, RequirePlan(proDoctor, models.PlanPro))
	err := RequirePlan(doctor1, models.PlanPro)
	assert.True(t, errors.Is(err, utils.ErrForbidden))
}

func TestCanReadPatient(t *testing.T) {
	assert.NoError(t, CanReadPatient(doctor1, ""))
	assert.NoError(t, CanReadPatient(receptionist1, "patient-1"))
	assert.NoError(t, CanReadPatient(patient1, "patient-1"))
	assert.Error(t, CanReadPatient(patient1, "patient-2"))
	assert.Error(t, CanReadPatient(patient1, ""))
}

func TestForbidSelfTarget(t *testing.T) {
	err := ForbidSelfTarget(admin1, "admin-1", "delete")
	assert.True(t, errors.Is(err, utils.ErrForbidden))
	assert.Equal(t, "You cannot delete your own account", utils.AsAPIError(err).Message)
	assert.NoError(t, ForbidSelfTarget(admin1, "doctor-1", "delete"))
}

func TestIdentityOf(t *testing.T) {
	user := &models.User{Role: models.RoleDoctor, SubscriptionPlan: models.PlanPro}
	user.ID = "u-1"
	assert.Equal(t, Identity{ID: "u-1", Role: models.RoleDoctor, Plan: models.PlanPro}, IdentityOf(user))
}

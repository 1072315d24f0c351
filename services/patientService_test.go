package services

import (
	"context"
	"errors"
	"testing"

	"MediCore/authz"
	"MediCore/models"
	"MediCore/repositories"
	"MediCore/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func patientInput(userID *string) PatientInput {
	age := 29
	return PatientInput{
		Name:              "Bilal Ahmed",
		Age:               &age,
		Gender:            models.GenderMale,
		Phone:             "03211234567",
		Email:             "Bilal@Example.com",
		BloodGroup:        "O+",
		Allergies:         []string{"penicillin", "penicillin", "peanuts"},
		ChronicConditions: []string{"asthma"},
		EmergencyContact:  EmergencyContactInput{Name: "Sana", Phone: "03001112223", Relation: "sister"},
		UserID:            userID,
	}
}

func TestCreatePatient(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	receptionist := f.identity(models.RoleReceptionist)
	owner := f.user(models.RolePatient, models.PlanFree)

	patient, err := f.container.Patients.Create(ctx, receptionist, patientInput(&owner.ID))
	require.NoError(t, err)
	assert.Equal(t, "bilal@example.com", patient.Email)
	assert.Equal(t, []string{"penicillin", "peanuts"}, []string(patient.Allergies))
	assert.Equal(t, receptionist.ID, patient.CreatedBy)
	assert.Equal(t, owner.ID, patient.OwnerID())
	assert.True(t, patient.IsActive)

	_, err = f.container.Patients.Create(ctx, f.identity(models.RoleDoctor), patientInput(nil))
	assert.True(t, errors.Is(err, utils.ErrForbidden))

	doctor := f.user(models.RoleDoctor, models.PlanFree)
	_, err = f.container.Patients.Create(ctx, receptionist, patientInput(&doctor.ID))
	assert.True(t, errors.Is(err, utils.ErrUnprocessable), "only patient identities can own a record")

	invalid := patientInput(nil)
	invalid.BloodGroup = "Z+"
	invalid.Age = nil
	_, err = f.container.Patients.Create(ctx, receptionist, invalid)
	apiErr := utils.AsAPIError(err)
	assert.Equal(t, utils.KindValidationFailed, apiErr.Kind)
	assert.Len(t, apiErr.Errors, 2)
}

func TestPatientOwnershipIsolation(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	ownerA := f.user(models.RolePatient, models.PlanFree)
	ownerB := f.user(models.RolePatient, models.PlanFree)
	recordA := f.patient(ownerA)
	recordB := f.patient(ownerB)

	got, err := f.container.Patients.Get(ctx, authz.IdentityOf(ownerA), recordA.ID)
	require.NoError(t, err)
	assert.Equal(t, recordA.ID, got.ID)

	_, err = f.container.Patients.Get(ctx, authz.IdentityOf(ownerA), recordB.ID)
	assert.True(t, errors.Is(err, utils.ErrForbidden))

	// a missing record looks the same as someone else's to a patient
	_, err = f.container.Patients.Get(ctx, authz.IdentityOf(ownerA), "0b7d3f5e-7a43-4a8e-9d0b-3c0b5b8f1a22")
	assert.True(t, errors.Is(err, utils.ErrForbidden))

	_, err = f.container.Patients.Get(ctx, f.identity(models.RoleDoctor), "0b7d3f5e-7a43-4a8e-9d0b-3c0b5b8f1a22")
	assert.True(t, errors.Is(err, utils.ErrNotFound))

	_, err = f.container.Patients.List(ctx, authz.IdentityOf(ownerA), repositories.PatientFilter{})
	assert.True(t, errors.Is(err, utils.ErrForbidden))

	_, err = f.container.Patients.History(ctx, authz.IdentityOf(ownerB), recordA.ID)
	assert.True(t, errors.Is(err, utils.ErrForbidden))
}

func TestUpdateAndSoftDeletePatient(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	receptionist := f.identity(models.RoleReceptionist)
	patient := f.patient(nil)

	phone := "03339998887"
	allergies := []string{"latex"}
	updated, err := f.container.Patients.Update(ctx, receptionist, patient.ID, PatientPatch{Phone: &phone, Allergies: &allergies})
	require.NoError(t, err)
	assert.Equal(t, phone, updated.Phone)
	assert.Equal(t, []string{"latex"}, []string(updated.Allergies))
	assert.Equal(t, "Ayesha Khan", updated.Name)

	err = f.container.Patients.Delete(ctx, receptionist, patient.ID)
	assert.True(t, errors.Is(err, utils.ErrForbidden), "only admins delete")

	require.NoError(t, f.container.Patients.Delete(ctx, f.identity(models.RoleAdmin), patient.ID))
	_, err = f.container.Patients.Get(ctx, receptionist, patient.ID)
	assert.True(t, errors.Is(err, utils.ErrNotFound))

	list, err := f.container.Patients.List(ctx, receptionist, repositories.PatientFilter{})
	require.NoError(t, err)
	assert.Empty(t, list.Items)
}

func TestPatientHistoryTimeline(t *testing.T) {
	f := newFixture(t, &stubModel{reply: `{"riskLevel":"low"}`})
	ctx := context.Background()
	admin := f.identity(models.RoleAdmin)
	doctorUser := f.user(models.RoleDoctor, models.PlanFree)
	owner := f.user(models.RolePatient, models.PlanFree)
	patient := f.patient(owner)

	appointment, err := f.container.Appointments.Create(ctx, admin, AppointmentInput{PatientID: patient.ID, DoctorID: doctorUser.ID, Date: bookingDate, TimeSlot: "09:00 AM"})
	require.NoError(t, err)
	writePrescription(t, f, doctorUser, patient)
	_, err = f.container.Diagnoses.SymptomCheck(ctx, authz.IdentityOf(doctorUser), symptomInput(patient.ID))
	require.NoError(t, err)

	history, err := f.container.Patients.History(ctx, authz.IdentityOf(owner), patient.ID)
	require.NoError(t, err)
	assert.Equal(t, patient.ID, history.Patient.ID)
	require.Len(t, history.Appointments, 1)
	assert.Equal(t, appointment.ID, history.Appointments[0].ID)
	assert.Len(t, history.Prescriptions, 1)
	assert.Len(t, history.DiagnosisLogs, 1)
	require.Len(t, history.Timeline, 3)
	for i := 1; i < len(history.Timeline); i++ {
		assert.False(t, history.Timeline[i].At.After(history.Timeline[i-1].At), "timeline is newest first")
	}
}

package services

import (
	"context"
	"errors"

	"MediCore/authz"
	"MediCore/models"
	"MediCore/repositories"
	"MediCore/utils"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
)

type MedicineInput struct {
	Name         string `json:"name"`
	Dosage       string `json:"dosage"`
	Frequency    string `json:"frequency"`
	Duration     string `json:"duration"`
	Instructions string `json:"instructions"`
}

func (m MedicineInput) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Name, validation.Required, validation.Length(1, 100)),
		validation.Field(&m.Dosage, validation.Required, validation.Length(1, 100)),
		validation.Field(&m.Frequency, validation.Required, validation.Length(1, 100)),
		validation.Field(&m.Duration, validation.Required, validation.Length(1, 100)),
		validation.Field(&m.Instructions, validation.Length(0, 500)),
	)
}

type PrescriptionInput struct {
	PatientID     string          `json:"patientId"`
	AppointmentID *string         `json:"appointmentId"`
	Diagnosis     string          `json:"diagnosis"`
	Medicines     []MedicineInput `json:"medicines"`
	Notes         string          `json:"notes"`
	FollowUpDate  *string         `json:"followUpDate"`
}

func (i PrescriptionInput) Validate() error {
	return validation.ValidateStruct(&i,
		validation.Field(&i.PatientID, validation.Required, is.UUID),
		validation.Field(&i.AppointmentID, validation.NilOrNotEmpty, is.UUID),
		validation.Field(&i.Diagnosis, validation.Required, validation.Length(2, 1000)),
		validation.Field(&i.Medicines, validation.Required, validation.Length(1, 50)),
		validation.Field(&i.Notes, validation.Length(0, 2000)),
		validation.Field(&i.FollowUpDate, validation.By(dateRulePtr)),
	)
}

type PrescriptionPatch struct {
	Diagnosis    *string          `json:"diagnosis"`
	Medicines    *[]MedicineInput `json:"medicines"`
	Notes        *string          `json:"notes"`
	FollowUpDate *string          `json:"followUpDate"`
}

func (p PrescriptionPatch) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Diagnosis, validation.NilOrNotEmpty, validation.Length(2, 1000)),
		validation.Field(&p.Medicines, validation.By(func(value interface{}) error {
			medicines, _ := value.(*[]MedicineInput)
			if medicines == nil {
				return nil
			}
			return validation.Validate(*medicines, validation.Required, validation.Length(1, 50))
		})),
		validation.Field(&p.Notes, validation.Length(0, 2000)),
		validation.Field(&p.FollowUpDate, validation.By(dateRulePtr)),
	)
}

func toMedicines(inputs []MedicineInput) []models.Medicine {
	return lo.Map(inputs, func(m MedicineInput, _ int) models.Medicine {
		return models.Medicine(m)
	})
}

type PrescriptionService struct {
	prescriptions repositories.PrescriptionRepository
	patients      repositories.PatientRepository
	appointments  repositories.AppointmentRepository
	log           zerolog.Logger
}

func NewPrescriptionService(deps Dependencies) *PrescriptionService {
	return &PrescriptionService{
		prescriptions: deps.Repos.Prescriptions,
		patients:      deps.Repos.Patients,
		appointments:  deps.Repos.Appointments,
		log:           deps.Log.With().Str("service", "prescriptions").Logger(),
	}
}

// Create records a prescription by the calling doctor. A linked appointment
// must belong to the same patient and is completed if still live.
func (s *PrescriptionService) Create(ctx context.Context, caller authz.Identity, input PrescriptionInput) (*models.Prescription, error) {
	if err := authz.Require(caller, authz.WritePrescriptions); err != nil {
		return nil, err
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.patients.GetByID(ctx, input.PatientID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, utils.Unprocessable("Patient not found or inactive")
		}
		return nil, err
	}
	if input.AppointmentID != nil {
		appointment, err := s.appointments.GetByID(ctx, *input.AppointmentID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return nil, utils.Unprocessable("Appointment not found")
			}
			return nil, err
		}
		if appointment.PatientID != input.PatientID {
			return nil, utils.Unprocessable("Appointment does not belong to this patient")
		}
	}

	prescription := &models.Prescription{
		PatientID:     input.PatientID,
		DoctorID:      caller.ID,
		AppointmentID: input.AppointmentID,
		Diagnosis:     input.Diagnosis,
		Medicines:     toMedicines(input.Medicines),
		Notes:         input.Notes,
		FollowUpDate:  input.FollowUpDate,
	}
	if err := s.prescriptions.Create(ctx, prescription); err != nil {
		return nil, err
	}
	s.log.Info().Str("prescription_id", prescription.ID).Str("patient_id", prescription.PatientID).
		Str("doctor_id", caller.ID).Msg("prescription written")
	return prescription, nil
}

func (s *PrescriptionService) List(ctx context.Context, caller authz.Identity, filter repositories.PrescriptionFilter) (models.PageResult[models.Prescription], error) {
	if err := validateIDs(map[string]string{"doctorId": filter.DoctorID}); err != nil {
		return models.PageResult[models.Prescription]{}, err
	}
	switch caller.Role {
	case models.RoleDoctor:
		filter.DoctorID = caller.ID
	case models.RolePatient:
		filter.OwnerUserID = caller.ID
	}
	prescriptions, total, err := s.prescriptions.List(ctx, filter)
	if err != nil {
		return models.PageResult[models.Prescription]{}, err
	}
	return models.NewPageResult(prescriptions, total, filter.Page), nil
}

func (s *PrescriptionService) ListByPatient(ctx context.Context, caller authz.Identity, patientID string) ([]models.Prescription, error) {
	if err := validateIDs(map[string]string{"patientId": patientID}); err != nil {
		return nil, err
	}
	if err := readablePatient(ctx, s.patients, caller, patientID); err != nil {
		return nil, err
	}
	return s.prescriptions.ListByPatient(ctx, patientID, 0)
}

func (s *PrescriptionService) Get(ctx context.Context, caller authz.Identity, id string) (*models.Prescription, error) {
	prescription, err := s.prescriptions.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "Prescription")
	}
	if err := readablePatient(ctx, s.patients, caller, prescription.PatientID); err != nil {
		return nil, err
	}
	return prescription, nil
}

// Update lets the prescribing doctor, or an administrator, amend a prescription.
func (s *PrescriptionService) Update(ctx context.Context, caller authz.Identity, id string, patch PrescriptionPatch) (*models.Prescription, error) {
	if err := authz.Require(caller, authz.EditPrescriptions); err != nil {
		return nil, err
	}
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	prescription, err := s.prescriptions.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "Prescription")
	}
	if err := authz.RequireOwnerOrRole(caller, prescription.DoctorID, models.RoleAdmin); err != nil {
		return nil, err
	}

	if patch.Diagnosis != nil {
		prescription.Diagnosis = *patch.Diagnosis
	}
	if patch.Medicines != nil {
		prescription.Medicines = toMedicines(*patch.Medicines)
	}
	if patch.Notes != nil {
		prescription.Notes = *patch.Notes
	}
	if patch.FollowUpDate != nil {
		prescription.FollowUpDate = patch.FollowUpDate
	}
	prescription.Patient, prescription.Doctor = nil, nil
	if err := s.prescriptions.Save(ctx, prescription); err != nil {
		return nil, notFound(err, "Prescription")
	}
	return prescription, nil
}

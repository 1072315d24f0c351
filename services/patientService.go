package services

import (
	"context"
	"errors"
	"sort"
	"time"

	"MediCore/authz"
	"MediCore/models"
	"MediCore/repositories"
	"MediCore/utils"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

var genders = []interface{}{models.GenderMale, models.GenderFemale, models.GenderOther}

func bloodGroupRule() validation.Rule {
	return validation.In(lo.ToAnySlice(models.BloodGroups)...).Error("must be a valid blood group")
}

func (c EmergencyContactInput) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Name, validation.Length(0, 100)),
		validation.Field(&c.Phone, validation.Length(0, 30)),
		validation.Field(&c.Relation, validation.Length(0, 50)),
	)
}

type EmergencyContactInput struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Relation string `json:"relation"`
}

type PatientInput struct {
	Name              string                `json:"name"`
	Age               *int                  `json:"age"`
	Gender            models.Gender         `json:"gender"`
	Phone             string                `json:"phone"`
	Email             string                `json:"email"`
	Address           string                `json:"address"`
	BloodGroup        string                `json:"bloodGroup"`
	Allergies         []string              `json:"allergies"`
	ChronicConditions []string              `json:"chronicConditions"`
	EmergencyContact  EmergencyContactInput `json:"emergencyContact"`
	UserID            *string               `json:"userId"`
}

func (i PatientInput) Validate() error {
	return validation.ValidateStruct(&i,
		validation.Field(&i.Name, validation.Required, validation.Length(2, 100)),
		validation.Field(&i.Age, validation.NotNil, validation.Min(0), validation.Max(150)),
		validation.Field(&i.Gender, validation.Required, validation.In(genders...)),
		validation.Field(&i.Phone, validation.Required, validation.Length(5, 30)),
		validation.Field(&i.Email, is.EmailFormat),
		validation.Field(&i.BloodGroup, bloodGroupRule()),
		validation.Field(&i.Allergies, validation.Each(validation.Required, validation.Length(1, 100))),
		validation.Field(&i.ChronicConditions, validation.Each(validation.Required, validation.Length(1, 100))),
		validation.Field(&i.EmergencyContact),
		validation.Field(&i.UserID, validation.NilOrNotEmpty, is.UUID),
	)
}

// PatientPatch carries a partial update; nil fields are kept.
type PatientPatch struct {
	Name              *string                `json:"name"`
	Age               *int                   `json:"age"`
	Gender            *models.Gender         `json:"gender"`
	Phone             *string                `json:"phone"`
	Email             *string                `json:"email"`
	Address           *string                `json:"address"`
	BloodGroup        *string                `json:"bloodGroup"`
	Allergies         *[]string              `json:"allergies"`
	ChronicConditions *[]string              `json:"chronicConditions"`
	EmergencyContact  *EmergencyContactInput `json:"emergencyContact"`
	UserID            *string                `json:"userId"`
}

func (p PatientPatch) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Name, validation.NilOrNotEmpty, validation.Length(2, 100)),
		validation.Field(&p.Age, validation.Min(0), validation.Max(150)),
		validation.Field(&p.Gender, validation.NilOrNotEmpty, validation.In(genders...)),
		validation.Field(&p.Phone, validation.NilOrNotEmpty, validation.Length(5, 30)),
		validation.Field(&p.Email, is.EmailFormat),
		validation.Field(&p.BloodGroup, bloodGroupRule()),
		validation.Field(&p.EmergencyContact),
		validation.Field(&p.UserID, validation.NilOrNotEmpty, is.UUID),
	)
}

// TimelineEntry is one event in a patient history.
type TimelineEntry struct {
	Kind string      `json:"kind"`
	At   time.Time   `json:"at"`
	Item interface{} `json:"item"`
}

type PatientHistory struct {
	Patient       *models.Patient       `json:"patient"`
	Appointments  []models.Appointment  `json:"appointments"`
	Prescriptions []models.Prescription `json:"prescriptions"`
	DiagnosisLogs []models.DiagnosisLog `json:"diagnosisLogs"`
	Timeline      []TimelineEntry       `json:"timeline"`
}

type PatientService struct {
	patients      repositories.PatientRepository
	users         repositories.UserRepository
	appointments  repositories.AppointmentRepository
	prescriptions repositories.PrescriptionRepository
	logs          repositories.DiagnosisLogRepository
	log           zerolog.Logger
}

func NewPatientService(deps Dependencies) *PatientService {
	return &PatientService{
		patients:      deps.Repos.Patients,
		users:         deps.Repos.Users,
		appointments:  deps.Repos.Appointments,
		prescriptions: deps.Repos.Prescriptions,
		logs:          deps.Repos.DiagnosisLogs,
		log:           deps.Log.With().Str("service", "patients").Logger(),
	}
}

func (s *PatientService) Create(ctx context.Context, caller authz.Identity, input PatientInput) (*models.Patient, error) {
	if err := authz.CanWritePatient(caller); err != nil {
		return nil, err
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkOwner(ctx, input.UserID); err != nil {
		return nil, err
	}
	patient := &models.Patient{
		Name:              input.Name,
		Age:               *input.Age,
		Gender:            input.Gender,
		Phone:             input.Phone,
		Email:             models.NormalizeEmail(input.Email),
		Address:           input.Address,
		BloodGroup:        input.BloodGroup,
		Allergies:         lo.Uniq(input.Allergies),
		ChronicConditions: lo.Uniq(input.ChronicConditions),
		EmergencyContact:  models.EmergencyContact(input.EmergencyContact),
		UserID:            input.UserID,
		CreatedBy:         caller.ID,
		IsActive:          true,
	}
	if err := s.patients.Create(ctx, patient); err != nil {
		return nil, err
	}
	s.log.Info().Str("patient_id", patient.ID).Str("by", caller.ID).Msg("patient created")
	return patient, nil
}

// checkOwner requires a linked identity to exist and hold the patient role.
func (s *PatientService) checkOwner(ctx context.Context, userID *string) error {
	if userID == nil {
		return nil
	}
	owner, err := s.users.GetByID(ctx, *userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return utils.Unprocessable("Linked user does not exist")
		}
		return err
	}
	if owner.Role != models.RolePatient {
		return utils.Unprocessable("Linked user must have the patient role")
	}
	return nil
}

func (s *PatientService) List(ctx context.Context, caller authz.Identity, filter repositories.PatientFilter) (models.PageResult[models.Patient], error) {
	if err := authz.Require(caller, authz.ListPatients); err != nil {
		return models.PageResult[models.Patient]{}, err
	}
	patients, total, err := s.patients.List(ctx, filter)
	if err != nil {
		return models.PageResult[models.Patient]{}, err
	}
	return models.NewPageResult(patients, total, filter.Page), nil
}

// Get applies the composite rule: staff read any record, a patient only their own.
func (s *PatientService) Get(ctx context.Context, caller authz.Identity, id string) (*models.Patient, error) {
	patient, err := s.patients.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) && caller.Role == models.RolePatient {
			return nil, authz.CanReadPatient(caller, "")
		}
		return nil, notFound(err, "Patient")
	}
	if err := authz.CanReadPatient(caller, patient.OwnerID()); err != nil {
		return nil, err
	}
	return patient, nil
}

func (s *PatientService) Update(ctx context.Context, caller authz.Identity, id string, patch PatientPatch) (*models.Patient, error) {
	if err := authz.CanWritePatient(caller); err != nil {
		return nil, err
	}
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	patient, err := s.patients.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "Patient")
	}
	if err := s.checkOwner(ctx, patch.UserID); err != nil {
		return nil, err
	}

	if patch.Name != nil {
		patient.Name = *patch.Name
	}
	if patch.Age != nil {
		patient.Age = *patch.Age
	}
	if patch.Gender != nil {
		patient.Gender = *patch.Gender
	}
	if patch.Phone != nil {
		patient.Phone = *patch.Phone
	}
	if patch.Email != nil {
		patient.Email = models.NormalizeEmail(*patch.Email)
	}
	if patch.Address != nil {
		patient.Address = *patch.Address
	}
	if patch.BloodGroup != nil {
		patient.BloodGroup = *patch.BloodGroup
	}
	if patch.Allergies != nil {
		patient.Allergies = lo.Uniq(*patch.Allergies)
	}
	if patch.ChronicConditions != nil {
		patient.ChronicConditions = lo.Uniq(*patch.ChronicConditions)
	}
	if patch.EmergencyContact != nil {
		patient.EmergencyContact = models.EmergencyContact(*patch.EmergencyContact)
	}
	if patch.UserID != nil {
		patient.UserID = patch.UserID
	}

	if err := s.patients.Save(ctx, patient); err != nil {
		return nil, notFound(err, "Patient")
	}
	return patient, nil
}

// Delete is a soft delete; history rows keep pointing at the record.
func (s *PatientService) Delete(ctx context.Context, caller authz.Identity, id string) error {
	if err := authz.Require(caller, authz.DeletePatients); err != nil {
		return err
	}
	if err := s.patients.Deactivate(ctx, id); err != nil {
		return notFound(err, "Patient")
	}
	s.log.Info().Str("patient_id", id).Str("by", caller.ID).Msg("patient deactivated")
	return nil
}

// History merges every appointment, prescription and diagnosis log of a
// patient into one timeline, newest first.
func (s *PatientService) History(ctx context.Context, caller authz.Identity, id string) (*PatientHistory, error) {
	patient, err := s.Get(ctx, caller, id)
	if err != nil {
		return nil, err
	}

	history := &PatientHistory{Patient: patient}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		history.Appointments, err = s.appointments.ListByPatient(gctx, id, 0)
		return err
	})
	g.Go(func() error {
		var err error
		history.Prescriptions, err = s.prescriptions.ListByPatient(gctx, id, 0)
		return err
	})
	g.Go(func() error {
		var err error
		history.DiagnosisLogs, err = s.logs.ListByPatient(gctx, id, 0)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	timeline := make([]TimelineEntry, 0, len(history.Appointments)+len(history.Prescriptions)+len(history.DiagnosisLogs))
	for _, a := range history.Appointments {
		timeline = append(timeline, TimelineEntry{Kind: "appointment", At: a.CreatedAt, Item: a})
	}
	for _, p := range history.Prescriptions {
		timeline = append(timeline, TimelineEntry{Kind: "prescription", At: p.CreatedAt, Item: p})
	}
	for _, l := range history.DiagnosisLogs {
		timeline = append(timeline, TimelineEntry{Kind: "diagnosis", At: l.CreatedAt, Item: l})
	}
	sort.SliceStable(timeline, func(i, j int) bool { return timeline[i].At.After(timeline[j].At) })
	history.Timeline = timeline
	return history, nil
}

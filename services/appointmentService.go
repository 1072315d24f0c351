package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"MediCore/authz"
	"MediCore/cache"
	"MediCore/models"
	"MediCore/repositories"
	"MediCore/utils"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	slotLockTTL      = 10 * time.Second
	slotLockAttempts = 3
	slotLockBackoff  = 100 * time.Millisecond

	slotTakenMessage = "Doctor already has an appointment at this time slot"
)

var dateRule = validation.By(func(value interface{}) error {
	date, _ := value.(string)
	if date == "" {
		return nil
	}
	if !utils.DateRegex.MatchString(date) {
		return errors.New("must be a date in YYYY-MM-DD format")
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return errors.New("must be a valid calendar date")
	}
	return nil
})

func dateRulePtr(value interface{}) error {
	if date, ok := value.(*string); ok && date != nil {
		return dateRule.Validate(*date)
	}
	return nil
}

type AppointmentInput struct {
	PatientID string `json:"patientId"`
	DoctorID  string `json:"doctorId"`
	Date      string `json:"date"`
	TimeSlot  string `json:"timeSlot"`
	Reason    string `json:"reason"`
	Notes     string `json:"notes"`
}

func (i AppointmentInput) Validate() error {
	return validation.ValidateStruct(&i,
		validation.Field(&i.PatientID, validation.Required, is.UUID),
		validation.Field(&i.DoctorID, validation.Required, is.UUID),
		validation.Field(&i.Date, validation.Required, dateRule),
		validation.Field(&i.TimeSlot, validation.Required, validation.Length(1, 20)),
		validation.Field(&i.Reason, validation.Length(0, 500)),
		validation.Field(&i.Notes, validation.Length(0, 1000)),
	)
}

// AppointmentPatch reschedules or annotates a live appointment.
type AppointmentPatch struct {
	Date     *string `json:"date"`
	TimeSlot *string `json:"timeSlot"`
	Reason   *string `json:"reason"`
	Notes    *string `json:"notes"`
}

func (p AppointmentPatch) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Date, validation.By(dateRulePtr)),
		validation.Field(&p.TimeSlot, validation.NilOrNotEmpty, validation.Length(1, 20)),
		validation.Field(&p.Reason, validation.Length(0, 500)),
		validation.Field(&p.Notes, validation.Length(0, 1000)),
	)
}

type StatusInput struct {
	Status models.AppointmentStatus `json:"status"`
	Notes  *string                  `json:"notes"`
}

func (i StatusInput) Validate() error {
	return validation.ValidateStruct(&i,
		validation.Field(&i.Status, validation.Required, validation.In(
			models.StatusPending, models.StatusConfirmed, models.StatusCompleted, models.StatusCancelled)),
		validation.Field(&i.Notes, validation.Length(0, 1000)),
	)
}

// AppointmentService books appointments under the two-layer slot guard: a
// pre-check for a friendly error, and the active slot unique index for
// correctness under concurrent writers.
type AppointmentService struct {
	appointments repositories.AppointmentRepository
	patients     repositories.PatientRepository
	users        repositories.UserRepository
	locker       cache.Locker
	log          zerolog.Logger
}

func NewAppointmentService(deps Dependencies) *AppointmentService {
	return &AppointmentService{
		appointments: deps.Repos.Appointments,
		patients:     deps.Repos.Patients,
		users:        deps.Repos.Users,
		locker:       deps.Locker,
		log:          deps.Log.With().Str("service", "appointments").Logger(),
	}
}

func (s *AppointmentService) Create(ctx context.Context, caller authz.Identity, input AppointmentInput) (*models.Appointment, error) {
	if err := authz.Require(caller, authz.ManageAppointments); err != nil {
		return nil, err
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkParticipants(ctx, input.PatientID, input.DoctorID); err != nil {
		return nil, err
	}

	release := s.lockSlot(ctx, input.DoctorID, input.Date, input.TimeSlot)
	defer release()

	if err := s.ensureSlotFree(ctx, input.DoctorID, input.Date, input.TimeSlot, ""); err != nil {
		return nil, err
	}
	appointment := &models.Appointment{
		PatientID: input.PatientID,
		DoctorID:  input.DoctorID,
		Date:      input.Date,
		TimeSlot:  input.TimeSlot,
		Status:    models.StatusPending,
		Reason:    input.Reason,
		Notes:     input.Notes,
		CreatedBy: caller.ID,
	}
	if err := s.appointments.Create(ctx, appointment); err != nil {
		return nil, slotConflict(err)
	}
	s.log.Info().Str("appointment_id", appointment.ID).Str("doctor_id", appointment.DoctorID).
		Str("date", appointment.Date).Str("time_slot", appointment.TimeSlot).Msg("appointment booked")
	return appointment, nil
}

func (s *AppointmentService) checkParticipants(ctx context.Context, patientID, doctorID string) error {
	if _, err := s.patients.GetByID(ctx, patientID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return utils.Unprocessable("Patient not found or inactive")
		}
		return err
	}
	doctor, err := s.users.GetByID(ctx, doctorID)
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return err
	}
	if doctor == nil || doctor.Role != models.RoleDoctor || !doctor.IsActive {
		return utils.Unprocessable("Doctor not found or inactive")
	}
	return nil
}

func (s *AppointmentService) ensureSlotFree(ctx context.Context, doctorID, date, timeSlot, excludeID string) error {
	existing, err := s.appointments.FindActiveInSlot(ctx, doctorID, date, timeSlot, excludeID)
	if err != nil {
		return err
	}
	if existing != nil {
		return utils.Conflict(slotTakenMessage)
	}
	return nil
}

// slotConflict maps a unique index rejection onto the same error the pre-check returns.
func slotConflict(err error) error {
	if errors.Is(err, repositories.ErrDuplicateKey) {
		return utils.Conflict(slotTakenMessage).WithCause(err)
	}
	return err
}

// lockSlot takes a short best-effort lock on the slot. Failing to get it is
// not an error: the unique index still decides.
func (s *AppointmentService) lockSlot(ctx context.Context, doctorID, date, timeSlot string) func() {
	if s.locker == nil {
		return func() {}
	}
	key := fmt.Sprintf("slot_lock:%s:%s:%s", doctorID, date, timeSlot)
	value := uuid.New().String()

	for attempt := 0; attempt < slotLockAttempts; attempt++ {
		locked, err := s.locker.Acquire(ctx, key, value, slotLockTTL)
		if err != nil {
			s.log.Warn().Err(err).Str("key", key).Msg("slot lock unavailable")
			return func() {}
		}
		if locked {
			return func() {
				if err := s.locker.Release(context.WithoutCancel(ctx), key, value); err != nil {
					s.log.Warn().Err(err).Str("key", key).Msg("failed to release slot lock")
				}
			}
		}
		select {
		case <-ctx.Done():
			return func() {}
		case <-time.After(slotLockBackoff):
		}
	}
	s.log.Debug().Str("key", key).Msg("slot lock busy, relying on unique index")
	return func() {}
}

func (s *AppointmentService) List(ctx context.Context, caller authz.Identity, filter repositories.AppointmentFilter) (models.PageResult[models.Appointment], error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return models.PageResult[models.Appointment]{}, utils.ValidationFailed("Validation failed", utils.FieldError{Field: "status", Message: "unknown status"})
	}
	if err := validateIDs(map[string]string{"doctorId": filter.DoctorID}); err != nil {
		return models.PageResult[models.Appointment]{}, err
	}
	switch caller.Role {
	case models.RoleDoctor:
		filter.DoctorID = caller.ID
	case models.RolePatient:
		filter.OwnerUserID = caller.ID
	}
	appointments, total, err := s.appointments.List(ctx, filter)
	if err != nil {
		return models.PageResult[models.Appointment]{}, err
	}
	return models.NewPageResult(appointments, total, filter.Page), nil
}

func (s *AppointmentService) Get(ctx context.Context, caller authz.Identity, id string) (*models.Appointment, error) {
	appointment, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "Appointment")
	}
	if err := readablePatient(ctx, s.patients, caller, appointment.PatientID); err != nil {
		return nil, err
	}
	return appointment, nil
}

// Schedule lists the live appointments of a doctor on one day, by time slot.
func (s *AppointmentService) Schedule(ctx context.Context, caller authz.Identity, doctorID, date string) ([]models.Appointment, error) {
	if err := authz.Require(caller, authz.ViewSchedules); err != nil {
		return nil, err
	}
	if err := validateIDs(map[string]string{"doctorId": doctorID}); err != nil {
		return nil, err
	}
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}
	if err := validation.Validate(date, dateRule); err != nil {
		return nil, utils.ValidationFailed("Validation failed", utils.FieldError{Field: "date", Message: err.Error()})
	}
	return s.appointments.DoctorSchedule(ctx, doctorID, date)
}

// Update reschedules or annotates a non-terminal appointment. Moving it to a
// new slot goes through both conflict layers again.
func (s *AppointmentService) Update(ctx context.Context, caller authz.Identity, id string, patch AppointmentPatch) (*models.Appointment, error) {
	if err := authz.Require(caller, authz.ManageAppointments); err != nil {
		return nil, err
	}
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	appointment, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "Appointment")
	}
	if appointment.Status.Terminal() {
		return nil, utils.Unprocessable(fmt.Sprintf("Cannot modify a %s appointment", appointment.Status))
	}

	date, timeSlot := appointment.Date, appointment.TimeSlot
	if patch.Date != nil {
		date = *patch.Date
	}
	if patch.TimeSlot != nil {
		timeSlot = *patch.TimeSlot
	}
	if date != appointment.Date || timeSlot != appointment.TimeSlot {
		release := s.lockSlot(ctx, appointment.DoctorID, date, timeSlot)
		defer release()
		if err := s.ensureSlotFree(ctx, appointment.DoctorID, date, timeSlot, appointment.ID); err != nil {
			return nil, err
		}
	}

	ok, err := s.appointments.Reschedule(ctx, id, repositories.AppointmentChanges{
		Date:     patch.Date,
		TimeSlot: patch.TimeSlot,
		Reason:   patch.Reason,
		Notes:    patch.Notes,
	})
	if err != nil {
		return nil, slotConflict(err)
	}
	if !ok {
		return nil, utils.Conflict("Appointment was modified concurrently, please retry")
	}

	updated, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "Appointment")
	}
	return updated, nil
}

// UpdateStatus moves an appointment along its lifecycle. Doctors may only
// touch their own appointments.
func (s *AppointmentService) UpdateStatus(ctx context.Context, caller authz.Identity, id string, input StatusInput) (*models.Appointment, error) {
	if err := authz.Require(caller, authz.SetAppointmentStatus); err != nil {
		return nil, err
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}
	return s.transition(ctx, caller, id, input.Status, input.Notes)
}

// Cancel frees the slot while keeping the row as history.
func (s *AppointmentService) Cancel(ctx context.Context, caller authz.Identity, id string) (*models.Appointment, error) {
	if err := authz.Require(caller, authz.ManageAppointments); err != nil {
		return nil, err
	}
	return s.transition(ctx, caller, id, models.StatusCancelled, nil)
}

func (s *AppointmentService) transition(ctx context.Context, caller authz.Identity, id string, next models.AppointmentStatus, notes *string) (*models.Appointment, error) {
	appointment, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "Appointment")
	}
	if caller.Role == models.RoleDoctor && appointment.DoctorID != caller.ID {
		return nil, utils.Forbidden("You can only update your own appointments")
	}
	current := appointment.Status
	if !current.CanTransitionTo(next) {
		return nil, utils.Unprocessable(fmt.Sprintf("Cannot change appointment status from %s to %s", current, next))
	}
	ok, err := s.appointments.UpdateStatus(ctx, id, []models.AppointmentStatus{current}, next, notes)
	if err != nil {
		return nil, slotConflict(err)
	}
	if !ok {
		return nil, utils.Conflict("Appointment was modified concurrently, please retry")
	}
	s.log.Info().Str("appointment_id", id).Str("from", string(current)).Str("to", string(next)).
		Str("by", caller.ID).Msg("appointment status changed")

	updated, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "Appointment")
	}
	return updated, nil
}

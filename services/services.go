package services

import (
	"context"
	"errors"
	"time"

	"MediCore/aiclient"
	"MediCore/authz"
	"MediCore/cache"
	"MediCore/events"
	"MediCore/models"
	"MediCore/repositories"
	"MediCore/utils"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/rs/zerolog"
)

// Dependencies are the collaborators shared by every service.
// Locker and Model may be nil: slot locking is then skipped and AI
// workflows run degraded.
type Dependencies struct {
	Repos         repositories.Repositories
	Cache         cache.Store
	Locker        cache.Locker
	Mailer        utils.Mailer
	Model         aiclient.DiagnosticModel
	Events        events.Publisher
	Hasher        *utils.PasswordHasher
	AccessTokens  utils.TokenMaker
	RefreshTokens utils.TokenMaker
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	AITimeout     time.Duration
	AnalyticsTTL  time.Duration
	Log           zerolog.Logger
	Now           func() time.Time
}

// Container holds the constructed services.
type Container struct {
	Auth          *AuthService
	Users         *UserService
	Patients      *PatientService
	Appointments  *AppointmentService
	Prescriptions *PrescriptionService
	Diagnoses     *DiagnosisService
	Analytics     *AnalyticsService
}

func NewContainer(deps Dependencies) *Container {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Events == nil {
		deps.Events = events.NopPublisher{}
	}
	if deps.Hasher == nil {
		deps.Hasher = utils.NewPasswordHasher(utils.DefaultBcryptCost)
	}
	if deps.AccessTTL == 0 {
		deps.AccessTTL = utils.AccessTokenExpiry
	}
	if deps.RefreshTTL == 0 {
		deps.RefreshTTL = utils.RefreshTokenExpiry
	}
	return &Container{
		Auth:          NewAuthService(deps),
		Users:         NewUserService(deps),
		Patients:      NewPatientService(deps),
		Appointments:  NewAppointmentService(deps),
		Prescriptions: NewPrescriptionService(deps),
		Diagnoses:     NewDiagnosisService(deps),
		Analytics:     NewAnalyticsService(deps),
	}
}

// notFound turns a missing row into a NotFound API error and passes other errors through.
func notFound(err error, what string) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return utils.NotFound(what + " not found")
	}
	return err
}

// validateIDs rejects path and query ids that are set but are not UUIDs,
// keyed by the field name reported to the client.
func validateIDs(ids map[string]string) error {
	errs := validation.Errors{}
	for field, id := range ids {
		if id != "" {
			errs[field] = validation.Validate(id, is.UUID)
		}
	}
	return errs.Filter()
}

// readablePatient loads the patient record behind patientID when the caller
// is a patient, and checks that it is theirs. Staff pass without a lookup.
func readablePatient(ctx context.Context, patients repositories.PatientRepository, caller authz.Identity, patientID string) error {
	if caller.Role != models.RolePatient {
		return nil
	}
	patient, err := patients.GetByID(ctx, patientID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return authz.CanReadPatient(caller, "")
		}
		return err
	}
	return authz.CanReadPatient(caller, patient.OwnerID())
}

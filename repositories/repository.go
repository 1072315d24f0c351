package repositories

import (
	"context"
	"errors"
	"strings"
	"time"

	"MediCore/models"

	"github.com/jackc/pgx/v5/pgconn"
	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"
)

var (
	// ErrNotFound means no live row matched.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateKey means a unique constraint rejected the write.
	ErrDuplicateKey = errors.New("duplicate key")
	// ErrReferenced means other rows still point at the one being deleted.
	ErrReferenced = errors.New("record is referenced")
)

const (
	queryTimeout    = 5 * time.Second
	uniqueViolation = "23505"
	fkViolation     = "23503"
	invalidTextRepr = "22P02"
)

// translateError maps driver and GORM errors onto the repository sentinels.
func translateError(err error, message string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) || hasSQLState(err, invalidTextRepr) {
		return pkgerrors.Wrap(ErrNotFound, message)
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || hasSQLState(err, uniqueViolation) {
		return pkgerrors.Wrap(ErrDuplicateKey, message)
	}
	if errors.Is(err, gorm.ErrForeignKeyViolated) || hasSQLState(err, fkViolation) {
		return pkgerrors.Wrap(ErrReferenced, message)
	}
	return pkgerrors.Wrap(err, message)
}

// hasSQLState reports whether err carries the given Postgres SQLSTATE.
// A malformed UUID (22P02) is treated as a missing row.
func hasSQLState(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}

func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, queryTimeout)
}

func likePattern(search string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + replacer.Replace(strings.TrimSpace(search)) + "%"
}

func paginate(page models.Page) func(db *gorm.DB) *gorm.DB {
	page = page.Normalize()
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(page.Offset()).Limit(page.Limit)
	}
}

// ownedPatientIDs selects the patient records linked to a patient identity.
func ownedPatientIDs(db *gorm.DB, userID string) *gorm.DB {
	return db.Model(&models.Patient{}).Select("id").Where("user_id = ?", userID)
}

type UserFilter struct {
	models.Page
	Search string      `form:"search"`
	Role   models.Role `form:"role"`
}

// UserUpdate lists the columns to change; nil fields are left untouched.
type UserUpdate struct {
	Name              *string
	Phone             *string
	Specialization    *string
	Role              *models.Role
	SubscriptionPlan  *models.SubscriptionPlan
	IsActive          *bool
	PasswordHash      *string
	ClearRefreshToken bool
}

type PatientFilter struct {
	models.Page
	Search string `form:"search"`
}

// AppointmentFilter scopes listings. OwnerUserID restricts to patient
// records linked to that identity.
type AppointmentFilter struct {
	models.Page
	DoctorID    string                   `form:"doctorId"`
	OwnerUserID string                   `form:"-"`
	Status      models.AppointmentStatus `form:"status"`
	Date        string                   `form:"date"`
}

type PrescriptionFilter struct {
	models.Page
	DoctorID    string `form:"doctorId"`
	OwnerUserID string `form:"-"`
}

type DiagnosisLogFilter struct {
	models.Page
	RequestedBy string               `form:"-"`
	Type        models.DiagnosisType `form:"type"`
}

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, filter UserFilter) ([]models.User, int64, error)
	Update(ctx context.Context, id string, update UserUpdate) (*models.User, error)
	// SetRefreshToken overwrites the stored refresh token hash; nil clears it.
	SetRefreshToken(ctx context.Context, id string, tokenHash *string) error
	// RotateRefreshToken swaps oldHash for newHash only if oldHash is still current.
	RotateRefreshToken(ctx context.Context, id, oldHash, newHash string) (bool, error)
	Delete(ctx context.Context, id string) error
}

type PatientRepository interface {
	Create(ctx context.Context, patient *models.Patient) error
	GetByID(ctx context.Context, id string) (*models.Patient, error)
	List(ctx context.Context, filter PatientFilter) ([]models.Patient, int64, error)
	Save(ctx context.Context, patient *models.Patient) error
	Deactivate(ctx context.Context, id string) error
}

// AppointmentChanges holds the editable columns of a live appointment.
// Nil fields are left untouched.
type AppointmentChanges struct {
	Date     *string
	TimeSlot *string
	Reason   *string
	Notes    *string
}

type AppointmentRepository interface {
	Create(ctx context.Context, appointment *models.Appointment) error
	GetByID(ctx context.Context, id string) (*models.Appointment, error)
	// FindActiveInSlot returns the non-cancelled appointment holding the slot,
	// ignoring excludeID, or nil when the slot is free.
	FindActiveInSlot(ctx context.Context, doctorID, date, timeSlot, excludeID string) (*models.Appointment, error)
	List(ctx context.Context, filter AppointmentFilter) ([]models.Appointment, int64, error)
	// Reschedule applies changes only while the appointment is pending or
	// confirmed, and reports whether a row matched.
	Reschedule(ctx context.Context, id string, changes AppointmentChanges) (bool, error)
	// UpdateStatus applies to only while the row is in one of from.
	UpdateStatus(ctx context.Context, id string, from []models.AppointmentStatus, to models.AppointmentStatus, notes *string) (bool, error)
	ListByPatient(ctx context.Context, patientID string, limit int) ([]models.Appointment, error)
	DoctorSchedule(ctx context.Context, doctorID, date string) ([]models.Appointment, error)
}

type PrescriptionRepository interface {
	// Create inserts the prescription and, when it references an appointment
	// that is still pending or confirmed, completes that appointment atomically.
	Create(ctx context.Context, prescription *models.Prescription) error
	GetByID(ctx context.Context, id string) (*models.Prescription, error)
	List(ctx context.Context, filter PrescriptionFilter) ([]models.Prescription, int64, error)
	ListByPatient(ctx context.Context, patientID string, limit int) ([]models.Prescription, error)
	Save(ctx context.Context, prescription *models.Prescription) error
}

type DiagnosisLogRepository interface {
	Create(ctx context.Context, log *models.DiagnosisLog) error
	GetByID(ctx context.Context, id string) (*models.DiagnosisLog, error)
	List(ctx context.Context, filter DiagnosisLogFilter) ([]models.DiagnosisLog, int64, error)
	ListByPatient(ctx context.Context, patientID string, limit int) ([]models.DiagnosisLog, error)
}

type AnalyticsRepository interface {
	AdminSummary(ctx context.Context, today time.Time) (*models.AdminAnalytics, error)
	DoctorSummary(ctx context.Context, doctorID string, today time.Time) (*models.DoctorAnalytics, error)
}

// Repositories bundles every store the services need.
type Repositories struct {
	Users         UserRepository
	Patients      PatientRepository
	Appointments  AppointmentRepository
	Prescriptions PrescriptionRepository
	DiagnosisLogs DiagnosisLogRepository
	Analytics     AnalyticsRepository
}

// NewRepositories returns the Postgres-backed repositories.
func NewRepositories(db *gorm.DB) Repositories {
	return Repositories{
		Users:         NewUserRepository(db),
		Patients:      NewPatientRepository(db),
		Appointments:  NewAppointmentRepository(db),
		Prescriptions: NewPrescriptionRepository(db),
		DiagnosisLogs: NewDiagnosisLogRepository(db),
		Analytics:     NewAnalyticsRepository(db),
	}
}

// Package memory provides process-local repositories with the same
// uniqueness guarantees as the Postgres schema. It backs the in-memory
// development server and the test suites.
package memory

import (
	"sort"
	"strings"
	"sync"
	"time"

	"MediCore/models"
	"MediCore/repositories"
)

// Store holds every table behind one lock.
type Store struct {
	mu            sync.RWMutex
	users         map[string]models.User
	patients      map[string]models.Patient
	appointments  map[string]models.Appointment
	prescriptions map[string]models.Prescription
	logs          map[string]models.DiagnosisLog
	now           func() time.Time
}

func NewStore() *Store {
	return &Store{
		users:         make(map[string]models.User),
		patients:      make(map[string]models.Patient),
		appointments:  make(map[string]models.Appointment),
		prescriptions: make(map[string]models.Prescription),
		logs:          make(map[string]models.DiagnosisLog),
		now:           time.Now,
	}
}

// Repositories exposes the store through the repository interfaces.
func (s *Store) Repositories() repositories.Repositories {
	return repositories.Repositories{
		Users:         &UserRepository{s},
		Patients:      &PatientRepository{s},
		Appointments:  &AppointmentRepository{s},
		Prescriptions: &PrescriptionRepository{s},
		DiagnosisLogs: &DiagnosisLogRepository{s},
		Analytics:     &AnalyticsRepository{s},
	}
}

func (s *Store) stamp(base *models.BaseModel, created bool) {
	now := s.now()
	base.EnsureID()
	if created || base.CreatedAt.IsZero() {
		base.CreatedAt = now
	}
	base.UpdatedAt = now
}

// ownedBy reports whether the patient record is linked to userID. Caller holds the lock.
func (s *Store) ownedBy(patientID, userID string) bool {
	patient, ok := s.patients[patientID]
	return ok && patient.OwnerID() == userID
}

func page[T any](items []T, p models.Page) []T {
	p = p.Normalize()
	start := p.Offset()
	if start >= len(items) {
		return []T{}
	}
	end := start + p.Limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

func limitTo[T any](items []T, limit int) []T {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}

func containsFold(value, search string) bool {
	return strings.Contains(strings.ToLower(value), strings.ToLower(strings.TrimSpace(search)))
}

func newestFirst[T any](items []T, created func(T) time.Time) {
	sort.SliceStable(items, func(i, j int) bool { return created(items[i]).After(created(items[j])) })
}

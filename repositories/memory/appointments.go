package memory

import (
	"context"
	"sort"
	"time"

	"MediCore/models"
	"MediCore/repositories"

	"github.com/samber/lo"
)

type AppointmentRepository struct {
	s *Store
}

// slotTaken mirrors the active slot index. Caller holds the lock.
func (r *AppointmentRepository) slotTaken(a *models.Appointment) bool {
	if a.Status == models.StatusCancelled {
		return false
	}
	for id, existing := range r.s.appointments {
		if id != a.ID && existing.Occupies(a.DoctorID, a.Date, a.TimeSlot) {
			return true
		}
	}
	return false
}

func (r *AppointmentRepository) Create(_ context.Context, appointment *models.Appointment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.slotTaken(appointment) {
		return repositories.ErrDuplicateKey
	}
	r.s.stamp(&appointment.BaseModel, true)
	stored := *appointment
	stored.Patient, stored.Doctor = nil, nil
	r.s.appointments[appointment.ID] = stored
	return nil
}

func (r *AppointmentRepository) GetByID(_ context.Context, id string) (*models.Appointment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	appointment, ok := r.s.appointments[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &appointment, nil
}

func (r *AppointmentRepository) FindActiveInSlot(_ context.Context, doctorID, date, timeSlot, excludeID string) (*models.Appointment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for id, appointment := range r.s.appointments {
		if id != excludeID && appointment.Occupies(doctorID, date, timeSlot) {
			return &appointment, nil
		}
	}
	return nil, nil
}

func (r *AppointmentRepository) List(_ context.Context, filter repositories.AppointmentFilter) ([]models.Appointment, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	appointments := lo.Filter(lo.Values(r.s.appointments), func(a models.Appointment, _ int) bool {
		return (filter.DoctorID == "" || a.DoctorID == filter.DoctorID) &&
			(filter.OwnerUserID == "" || r.s.ownedBy(a.PatientID, filter.OwnerUserID)) &&
			(filter.Status == "" || a.Status == filter.Status) &&
			(filter.Date == "" || a.Date == filter.Date)
	})
	sort.SliceStable(appointments, func(i, j int) bool {
		if appointments[i].Date != appointments[j].Date {
			return appointments[i].Date > appointments[j].Date
		}
		return appointments[i].TimeSlot < appointments[j].TimeSlot
	})
	return page(appointments, filter.Page), int64(len(appointments)), nil
}

func (r *AppointmentRepository) Reschedule(_ context.Context, id string, changes repositories.AppointmentChanges) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	appointment, ok := r.s.appointments[id]
	if !ok || appointment.Status.Terminal() {
		return false, nil
	}
	if changes.Date != nil {
		appointment.Date = *changes.Date
	}
	if changes.TimeSlot != nil {
		appointment.TimeSlot = *changes.TimeSlot
	}
	if changes.Reason != nil {
		appointment.Reason = *changes.Reason
	}
	if changes.Notes != nil {
		appointment.Notes = *changes.Notes
	}
	if r.slotTaken(&appointment) {
		return false, repositories.ErrDuplicateKey
	}
	r.s.stamp(&appointment.BaseModel, false)
	r.s.appointments[id] = appointment
	return true, nil
}

func (r *AppointmentRepository) UpdateStatus(_ context.Context, id string, from []models.AppointmentStatus, to models.AppointmentStatus, notes *string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	appointment, ok := r.s.appointments[id]
	if !ok || !lo.Contains(from, appointment.Status) {
		return false, nil
	}
	appointment.Status = to
	if notes != nil {
		appointment.Notes = *notes
	}
	// Reviving a slot must still respect the index.
	if r.slotTaken(&appointment) {
		return false, repositories.ErrDuplicateKey
	}
	r.s.stamp(&appointment.BaseModel, false)
	r.s.appointments[id] = appointment
	return true, nil
}

func (r *AppointmentRepository) ListByPatient(_ context.Context, patientID string, limit int) ([]models.Appointment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	appointments := lo.Filter(lo.Values(r.s.appointments), func(a models.Appointment, _ int) bool {
		return a.PatientID == patientID
	})
	newestFirst(appointments, func(a models.Appointment) time.Time { return a.CreatedAt })
	return limitTo(appointments, limit), nil
}

func (r *AppointmentRepository) DoctorSchedule(_ context.Context, doctorID, date string) ([]models.Appointment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	appointments := lo.Filter(lo.Values(r.s.appointments), func(a models.Appointment, _ int) bool {
		return a.DoctorID == doctorID && a.Date == date && a.Status != models.StatusCancelled
	})
	sort.Slice(appointments, func(i, j int) bool { return appointments[i].TimeSlot < appointments[j].TimeSlot })
	return appointments, nil
}

package memory

import (
	"context"
	"time"

	"MediCore/models"
	"MediCore/repositories"

	"github.com/samber/lo"
)

type PrescriptionRepository struct {
	s *Store
}

func (r *PrescriptionRepository) Create(_ context.Context, prescription *models.Prescription) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.stamp(&prescription.BaseModel, true)
	stored := *prescription
	stored.Patient, stored.Doctor = nil, nil
	r.s.prescriptions[prescription.ID] = stored

	if prescription.AppointmentID != nil {
		if appointment, ok := r.s.appointments[*prescription.AppointmentID]; ok && !appointment.Status.Terminal() {
			appointment.Status = models.StatusCompleted
			r.s.stamp(&appointment.BaseModel, false)
			r.s.appointments[appointment.ID] = appointment
		}
	}
	return nil
}

func (r *PrescriptionRepository) GetByID(_ context.Context, id string) (*models.Prescription, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	prescription, ok := r.s.prescriptions[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &prescription, nil
}

func (r *PrescriptionRepository) List(_ context.Context, filter repositories.PrescriptionFilter) ([]models.Prescription, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	prescriptions := lo.Filter(lo.Values(r.s.prescriptions), func(p models.Prescription, _ int) bool {
		return (filter.DoctorID == "" || p.DoctorID == filter.DoctorID) &&
			(filter.OwnerUserID == "" || r.s.ownedBy(p.PatientID, filter.OwnerUserID))
	})
	newestFirst(prescriptions, func(p models.Prescription) time.Time { return p.CreatedAt })
	return page(prescriptions, filter.Page), int64(len(prescriptions)), nil
}

func (r *PrescriptionRepository) ListByPatient(_ context.Context, patientID string, limit int) ([]models.Prescription, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	prescriptions := lo.Filter(lo.Values(r.s.prescriptions), func(p models.Prescription, _ int) bool {
		return p.PatientID == patientID
	})
	newestFirst(prescriptions, func(p models.Prescription) time.Time { return p.CreatedAt })
	return limitTo(prescriptions, limit), nil
}

func (r *PrescriptionRepository) Save(_ context.Context, prescription *models.Prescription) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.prescriptions[prescription.ID]; !ok {
		return repositories.ErrNotFound
	}
	r.s.stamp(&prescription.BaseModel, false)
	stored := *prescription
	stored.Patient, stored.Doctor = nil, nil
	r.s.prescriptions[prescription.ID] = stored
	return nil
}

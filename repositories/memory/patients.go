package memory

import (
	"context"
	"time"

	"MediCore/models"
	"MediCore/repositories"
)

type PatientRepository struct {
	s *Store
}

func (r *PatientRepository) Create(_ context.Context, patient *models.Patient) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.stamp(&patient.BaseModel, true)
	r.s.patients[patient.ID] = *patient
	return nil
}

func (r *PatientRepository) GetByID(_ context.Context, id string) (*models.Patient, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	patient, ok := r.s.patients[id]
	if !ok || !patient.IsActive {
		return nil, repositories.ErrNotFound
	}
	return &patient, nil
}

func (r *PatientRepository) List(_ context.Context, filter repositories.PatientFilter) ([]models.Patient, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var patients []models.Patient
	for _, patient := range r.s.patients {
		if !patient.IsActive {
			continue
		}
		if filter.Search != "" && !containsFold(patient.Name, filter.Search) &&
			!containsFold(patient.Phone, filter.Search) && !containsFold(patient.Email, filter.Search) {
			continue
		}
		patients = append(patients, patient)
	}
	newestFirst(patients, func(p models.Patient) time.Time { return p.CreatedAt })
	return page(patients, filter.Page), int64(len(patients)), nil
}

func (r *PatientRepository) Save(_ context.Context, patient *models.Patient) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.patients[patient.ID]; !ok {
		return repositories.ErrNotFound
	}
	r.s.stamp(&patient.BaseModel, false)
	r.s.patients[patient.ID] = *patient
	return nil
}

func (r *PatientRepository) Deactivate(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	patient, ok := r.s.patients[id]
	if !ok || !patient.IsActive {
		return repositories.ErrNotFound
	}
	patient.IsActive = false
	r.s.stamp(&patient.BaseModel, false)
	r.s.patients[id] = patient
	return nil
}

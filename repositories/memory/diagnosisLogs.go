package memory

import (
	"context"
	"time"

	"MediCore/models"
	"MediCore/repositories"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

type DiagnosisLogRepository struct {
	s *Store
}

func (r *DiagnosisLogRepository) Create(_ context.Context, log *models.DiagnosisLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if _, exists := r.s.logs[log.ID]; exists {
		return repositories.ErrDuplicateKey
	}
	log.CreatedAt = r.s.now()
	r.s.logs[log.ID] = *log
	return nil
}

func (r *DiagnosisLogRepository) GetByID(_ context.Context, id string) (*models.DiagnosisLog, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	log, ok := r.s.logs[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &log, nil
}

func (r *DiagnosisLogRepository) List(_ context.Context, filter repositories.DiagnosisLogFilter) ([]models.DiagnosisLog, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	logs := lo.Filter(lo.Values(r.s.logs), func(l models.DiagnosisLog, _ int) bool {
		return (filter.RequestedBy == "" || l.RequestedBy == filter.RequestedBy) &&
			(filter.Type == "" || l.Type == filter.Type)
	})
	newestFirst(logs, func(l models.DiagnosisLog) time.Time { return l.CreatedAt })
	return page(logs, filter.Page), int64(len(logs)), nil
}

func (r *DiagnosisLogRepository) ListByPatient(_ context.Context, patientID string, limit int) ([]models.DiagnosisLog, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	logs := lo.Filter(lo.Values(r.s.logs), func(l models.DiagnosisLog, _ int) bool {
		return l.PatientID == patientID
	})
	newestFirst(logs, func(l models.DiagnosisLog) time.Time { return l.CreatedAt })
	return limitTo(logs, limit), nil
}

// Count returns the number of stored diagnosis logs.
func (r *DiagnosisLogRepository) Count() int {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return len(r.s.logs)
}

package repositories

import (
	"context"

	"MediCore/models"

	"gorm.io/gorm"
)

type diagnosisLogRepository struct {
	db *gorm.DB
}

func NewDiagnosisLogRepository(db *gorm.DB) DiagnosisLogRepository {
	return &diagnosisLogRepository{db: db}
}

func (r *diagnosisLogRepository) Create(ctx context.Context, log *models.DiagnosisLog) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	return translateError(r.db.WithContext(ctx).Create(log).Error, "failed to create diagnosis log")
}

func (r *diagnosisLogRepository) GetByID(ctx context.Context, id string) (*models.DiagnosisLog, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var log models.DiagnosisLog
	if err := r.db.WithContext(ctx).First(&log, "id = ?", id).Error; err != nil {
		return nil, translateError(err, "failed to get diagnosis log")
	}
	return &log, nil
}

func (r *diagnosisLogRepository) List(ctx context.Context, filter DiagnosisLogFilter) ([]models.DiagnosisLog, int64, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := r.db.WithContext(ctx).Model(&models.DiagnosisLog{})
	if filter.RequestedBy != "" {
		query = query.Where("requested_by = ?", filter.RequestedBy)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError(err, "failed to count diagnosis logs")
	}

	var logs []models.DiagnosisLog
	if err := query.Scopes(paginate(filter.Page)).Order("created_at DESC").Find(&logs).Error; err != nil {
		return nil, 0, translateError(err, "failed to list diagnosis logs")
	}
	return logs, total, nil
}

func (r *diagnosisLogRepository) ListByPatient(ctx context.Context, patientID string, limit int) ([]models.DiagnosisLog, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := r.db.WithContext(ctx).Where("patient_id = ?", patientID).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var logs []models.DiagnosisLog
	if err := query.Find(&logs).Error; err != nil {
		return nil, translateError(err, "failed to list patient diagnosis logs")
	}
	return logs, nil
}

package repositories

import (
	"context"

	"MediCore/models"

	"gorm.io/gorm"
)

type patientRepository struct {
	db *gorm.DB
}

func NewPatientRepository(db *gorm.DB) PatientRepository {
	return &patientRepository{db: db}
}

func (r *patientRepository) Create(ctx context.Context, patient *models.Patient) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	return translateError(r.db.WithContext(ctx).Create(patient).Error, "failed to create patient")
}

// GetByID returns live patient records only.
func (r *patientRepository) GetByID(ctx context.Context, id string) (*models.Patient, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var patient models.Patient
	err := r.db.WithContext(ctx).First(&patient, "id = ? AND is_active = ?", id, true).Error
	if err != nil {
		return nil, translateError(err, "failed to get patient")
	}
	return &patient, nil
}

func (r *patientRepository) List(ctx context.Context, filter PatientFilter) ([]models.Patient, int64, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := r.db.WithContext(ctx).Model(&models.Patient{}).Where("is_active = ?", true)
	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		query = query.Where("name ILIKE ? OR phone ILIKE ? OR email ILIKE ?", pattern, pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError(err, "failed to count patients")
	}

	var patients []models.Patient
	if err := query.Scopes(paginate(filter.Page)).Order("created_at DESC").Find(&patients).Error; err != nil {
		return nil, 0, translateError(err, "failed to list patients")
	}
	return patients, total, nil
}

func (r *patientRepository) Save(ctx context.Context, patient *models.Patient) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	return translateError(r.db.WithContext(ctx).Save(patient).Error, "failed to update patient")
}

func (r *patientRepository) Deactivate(ctx context.Context, id string) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	result := r.db.WithContext(ctx).Model(&models.Patient{}).
		Where("id = ? AND is_active = ?", id, true).
		Update("is_active", false)
	if result.Error != nil {
		return translateError(result.Error, "failed to deactivate patient")
	}
	if result.RowsAffected == 0 {
		return translateError(gorm.ErrRecordNotFound, "failed to deactivate patient")
	}
	return nil
}

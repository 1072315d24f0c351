package repositories

import (
	"context"

	"MediCore/models"

	"gorm.io/gorm"
)

type prescriptionRepository struct {
	db *gorm.DB
}

func NewPrescriptionRepository(db *gorm.DB) PrescriptionRepository {
	return &prescriptionRepository{db: db}
}

func (r *prescriptionRepository) Create(ctx context.Context, prescription *models.Prescription) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Patient", "Doctor").Create(prescription).Error; err != nil {
			return err
		}
		if prescription.AppointmentID == nil {
			return nil
		}
		return tx.Model(&models.Appointment{}).
			Where("id = ? AND status IN ?", *prescription.AppointmentID,
				[]models.AppointmentStatus{models.StatusPending, models.StatusConfirmed}).
			Update("status", models.StatusCompleted).Error
	})
	return translateError(err, "failed to create prescription")
}

func (r *prescriptionRepository) GetByID(ctx context.Context, id string) (*models.Prescription, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var prescription models.Prescription
	err := r.db.WithContext(ctx).Scopes(withParticipants).First(&prescription, "id = ?", id).Error
	if err != nil {
		return nil, translateError(err, "failed to get prescription")
	}
	return &prescription, nil
}

func (r *prescriptionRepository) List(ctx context.Context, filter PrescriptionFilter) ([]models.Prescription, int64, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	db := r.db.WithContext(ctx)
	query := db.Model(&models.Prescription{})
	if filter.DoctorID != "" {
		query = query.Where("doctor_id = ?", filter.DoctorID)
	}
	if filter.OwnerUserID != "" {
		query = query.Where("patient_id IN (?)", ownedPatientIDs(db, filter.OwnerUserID))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError(err, "failed to count prescriptions")
	}

	var prescriptions []models.Prescription
	err := query.Scopes(withParticipants, paginate(filter.Page)).Order("created_at DESC").Find(&prescriptions).Error
	if err != nil {
		return nil, 0, translateError(err, "failed to list prescriptions")
	}
	return prescriptions, total, nil
}

func (r *prescriptionRepository) ListByPatient(ctx context.Context, patientID string, limit int) ([]models.Prescription, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := r.db.WithContext(ctx).
		Preload("Doctor", func(db *gorm.DB) *gorm.DB {
			return db.Select("id, name, specialization")
		}).
		Where("patient_id = ?", patientID).
		Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var prescriptions []models.Prescription
	if err := query.Find(&prescriptions).Error; err != nil {
		return nil, translateError(err, "failed to list patient prescriptions")
	}
	return prescriptions, nil
}

func (r *prescriptionRepository) Save(ctx context.Context, prescription *models.Prescription) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	return translateError(r.db.WithContext(ctx).Omit("Patient", "Doctor").Save(prescription).Error, "failed to update prescription")
}

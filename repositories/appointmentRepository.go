package repositories

import (
	"context"
	"time"

	"MediCore/models"

	"gorm.io/gorm"
)

type appointmentRepository struct {
	db *gorm.DB
}

func NewAppointmentRepository(db *gorm.DB) AppointmentRepository {
	return &appointmentRepository{db: db}
}

func withParticipants(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Patient", func(db *gorm.DB) *gorm.DB {
			return db.Select("id, name, age, gender, phone, user_id")
		}).
		Preload("Doctor", func(db *gorm.DB) *gorm.DB {
			return db.Select("id, name, email, role, specialization")
		})
}

// Create inserts the appointment. A second non-cancelled booking of the same
// doctor slot is rejected by the active slot index and surfaces as ErrDuplicateKey.
func (r *appointmentRepository) Create(ctx context.Context, appointment *models.Appointment) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	return translateError(r.db.WithContext(ctx).Omit("Patient", "Doctor").Create(appointment).Error, "failed to create appointment")
}

func (r *appointmentRepository) GetByID(ctx context.Context, id string) (*models.Appointment, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var appointment models.Appointment
	err := r.db.WithContext(ctx).Scopes(withParticipants).First(&appointment, "id = ?", id).Error
	if err != nil {
		return nil, translateError(err, "failed to get appointment")
	}
	return &appointment, nil
}

func (r *appointmentRepository) FindActiveInSlot(ctx context.Context, doctorID, date, timeSlot, excludeID string) (*models.Appointment, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := r.db.WithContext(ctx).
		Where("doctor_id = ? AND date = ? AND time_slot = ? AND status <> ?", doctorID, date, timeSlot, models.StatusCancelled)
	if excludeID != "" {
		query = query.Where("id <> ?", excludeID)
	}

	var appointments []models.Appointment
	if err := query.Limit(1).Find(&appointments).Error; err != nil {
		return nil, translateError(err, "failed to check slot")
	}
	if len(appointments) == 0 {
		return nil, nil
	}
	return &appointments[0], nil
}

func (r *appointmentRepository) List(ctx context.Context, filter AppointmentFilter) ([]models.Appointment, int64, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	db := r.db.WithContext(ctx)
	query := db.Model(&models.Appointment{})
	if filter.DoctorID != "" {
		query = query.Where("doctor_id = ?", filter.DoctorID)
	}
	if filter.OwnerUserID != "" {
		query = query.Where("patient_id IN (?)", ownedPatientIDs(db, filter.OwnerUserID))
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Date != "" {
		query = query.Where("date = ?", filter.Date)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError(err, "failed to count appointments")
	}

	var appointments []models.Appointment
	err := query.Scopes(withParticipants, paginate(filter.Page)).
		Order("date DESC, time_slot ASC").
		Find(&appointments).Error
	if err != nil {
		return nil, 0, translateError(err, "failed to list appointments")
	}
	return appointments, total, nil
}

var liveStatuses = []models.AppointmentStatus{models.StatusPending, models.StatusConfirmed}

func (r *appointmentRepository) Reschedule(ctx context.Context, id string, changes AppointmentChanges) (bool, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	fields := map[string]interface{}{"updated_at": time.Now()}
	if changes.Date != nil {
		fields["date"] = *changes.Date
	}
	if changes.TimeSlot != nil {
		fields["time_slot"] = *changes.TimeSlot
	}
	if changes.Reason != nil {
		fields["reason"] = *changes.Reason
	}
	if changes.Notes != nil {
		fields["notes"] = *changes.Notes
	}
	result := r.db.WithContext(ctx).Model(&models.Appointment{}).
		Where("id = ? AND status IN ?", id, liveStatuses).
		Updates(fields)
	if result.Error != nil {
		return false, translateError(result.Error, "failed to reschedule appointment")
	}
	return result.RowsAffected == 1, nil
}

func (r *appointmentRepository) UpdateStatus(ctx context.Context, id string, from []models.AppointmentStatus, to models.AppointmentStatus, notes *string) (bool, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	fields := map[string]interface{}{"status": to}
	if notes != nil {
		fields["notes"] = *notes
	}
	result := r.db.WithContext(ctx).Model(&models.Appointment{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(fields)
	if result.Error != nil {
		return false, translateError(result.Error, "failed to update appointment status")
	}
	return result.RowsAffected == 1, nil
}

func (r *appointmentRepository) ListByPatient(ctx context.Context, patientID string, limit int) ([]models.Appointment, error) {
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

	var appointments []models.Appointment
	if err := query.Find(&appointments).Error; err != nil {
		return nil, translateError(err, "failed to list patient appointments")
	}
	return appointments, nil
}

func (r *appointmentRepository) DoctorSchedule(ctx context.Context, doctorID, date string) ([]models.Appointment, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var appointments []models.Appointment
	err := r.db.WithContext(ctx).
		Preload("Patient", func(db *gorm.DB) *gorm.DB {
			return db.Select("id, name, age, gender, phone")
		}).
		Where("doctor_id = ? AND date = ? AND status <> ?", doctorID, date, models.StatusCancelled).
		Order("time_slot ASC").
		Find(&appointments).Error
	if err != nil {
		return nil, translateError(err, "failed to get doctor schedule")
	}
	return appointments, nil
}

package repositories

import (
	"context"
	"time"

	"MediCore/models"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const (
	dateLayout        = "2006-01-02"
	topDiagnosesLimit = 8
)

type analyticsRepository struct {
	db *gorm.DB
}

func NewAnalyticsRepository(db *gorm.DB) AnalyticsRepository {
	return &analyticsRepository{db: db}
}

func monthPrefix(day time.Time) string {
	return day.Format("2006-01") + "-%"
}

func (r *analyticsRepository) count(ctx context.Context, model interface{}, dest *int64, query string, args ...interface{}) func() error {
	return func() error {
		return r.db.WithContext(ctx).Model(model).Where(query, args...).Count(dest).Error
	}
}

func (r *analyticsRepository) AdminSummary(ctx context.Context, today time.Time) (*models.AdminAnalytics, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var stats models.AdminAnalytics
	day := today.Format(dateLayout)
	month := monthPrefix(today)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(r.count(gctx, &models.Patient{}, &stats.TotalPatients, "is_active = ?", true))
	g.Go(r.count(gctx, &models.User{}, &stats.TotalDoctors, "role = ? AND is_active = ?", models.RoleDoctor, true))
	g.Go(r.count(gctx, &models.User{}, &stats.TotalReceptionists, "role = ? AND is_active = ?", models.RoleReceptionist, true))
	g.Go(r.count(gctx, &models.Appointment{}, &stats.MonthlyAppointments, "date LIKE ?", month))
	g.Go(r.count(gctx, &models.Appointment{}, &stats.TodayAppointments, "date = ?", day))
	g.Go(r.count(gctx, &models.Appointment{}, &stats.PendingAppointments, "status = ?", models.StatusPending))
	g.Go(r.count(gctx, &models.Appointment{}, &stats.CompletedAppointments, "status = ?", models.StatusCompleted))
	g.Go(func() error {
		return r.db.WithContext(gctx).Model(&models.Prescription{}).
			Select("diagnosis AS name, COUNT(*) AS count").
			Group("diagnosis").
			Order("count DESC").
			Limit(topDiagnosesLimit).
			Scan(&stats.TopDiagnoses).Error
	})
	g.Go(func() error {
		return r.db.WithContext(gctx).Model(&models.Appointment{}).
			Select("SUBSTRING(date, 6, 2) AS name, COUNT(*) AS count").
			Where("date LIKE ?", today.Format("2006")+"-%").
			Group("name").
			Order("name ASC").
			Scan(&stats.AppointmentsByMonth).Error
	})
	if err := g.Wait(); err != nil {
		return nil, translateError(err, "failed to compute admin analytics")
	}
	return &stats, nil
}

func (r *analyticsRepository) DoctorSummary(ctx context.Context, doctorID string, today time.Time) (*models.DoctorAnalytics, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var stats models.DoctorAnalytics
	day := today.Format(dateLayout)
	month := monthPrefix(today)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(r.count(gctx, &models.Appointment{}, &stats.TodayAppointments, "doctor_id = ? AND date = ?", doctorID, day))
	g.Go(r.count(gctx, &models.Appointment{}, &stats.MonthlyAppointments, "doctor_id = ? AND date LIKE ?", doctorID, month))
	g.Go(r.count(gctx, &models.Prescription{}, &stats.TotalPrescriptions, "doctor_id = ?", doctorID))
	g.Go(r.count(gctx, &models.Appointment{}, &stats.PendingToday, "doctor_id = ? AND date = ? AND status = ?", doctorID, day, models.StatusPending))
	g.Go(r.count(gctx, &models.Appointment{}, &stats.CompletedThisMonth, "doctor_id = ? AND date LIKE ? AND status = ?", doctorID, month, models.StatusCompleted))
	g.Go(func() error {
		return r.db.WithContext(gctx).Model(&models.Appointment{}).
			Select("SUBSTRING(date, 9, 2) AS name, COUNT(*) AS count").
			Where("doctor_id = ? AND date LIKE ?", doctorID, month).
			Group("name").
			Order("name ASC").
			Scan(&stats.DailyStats).Error
	})
	if err := g.Wait(); err != nil {
		return nil, translateError(err, "failed to compute doctor analytics")
	}
	return &stats, nil
}

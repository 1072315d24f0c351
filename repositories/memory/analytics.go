package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"MediCore/models"

	"github.com/samber/lo"
)

const topDiagnosesLimit = 8

type AnalyticsRepository struct {
	s *Store
}

func (r *AnalyticsRepository) AdminSummary(_ context.Context, today time.Time) (*models.AdminAnalytics, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	day := today.Format("2006-01-02")
	month := today.Format("2006-01")
	year := today.Format("2006")

	stats := &models.AdminAnalytics{}
	for _, patient := range r.s.patients {
		if patient.IsActive {
			stats.TotalPatients++
		}
	}
	for _, user := range r.s.users {
		if !user.IsActive {
			continue
		}
		switch user.Role {
		case models.RoleDoctor:
			stats.TotalDoctors++
		case models.RoleReceptionist:
			stats.TotalReceptionists++
		}
	}

	byMonth := map[string]int64{}
	for _, appointment := range r.s.appointments {
		if strings.HasPrefix(appointment.Date, month) {
			stats.MonthlyAppointments++
		}
		if appointment.Date == day {
			stats.TodayAppointments++
		}
		switch appointment.Status {
		case models.StatusPending:
			stats.PendingAppointments++
		case models.StatusCompleted:
			stats.CompletedAppointments++
		}
		if strings.HasPrefix(appointment.Date, year+"-") && len(appointment.Date) >= 7 {
			byMonth[appointment.Date[5:7]]++
		}
	}

	diagnoses := map[string]int64{}
	for _, prescription := range r.s.prescriptions {
		diagnoses[prescription.Diagnosis]++
	}
	stats.TopDiagnoses = sortedCounts(diagnoses, func(a, b models.NamedCount) bool { return a.Count > b.Count })
	stats.TopDiagnoses = limitTo(stats.TopDiagnoses, topDiagnosesLimit)
	stats.AppointmentsByMonth = sortedCounts(byMonth, func(a, b models.NamedCount) bool { return a.Name < b.Name })
	return stats, nil
}

func (r *AnalyticsRepository) DoctorSummary(_ context.Context, doctorID string, today time.Time) (*models.DoctorAnalytics, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	day := today.Format("2006-01-02")
	month := today.Format("2006-01")

	stats := &models.DoctorAnalytics{}
	daily := map[string]int64{}
	for _, appointment := range r.s.appointments {
		if appointment.DoctorID != doctorID {
			continue
		}
		if appointment.Date == day {
			stats.TodayAppointments++
			if appointment.Status == models.StatusPending {
				stats.PendingToday++
			}
		}
		if strings.HasPrefix(appointment.Date, month) {
			stats.MonthlyAppointments++
			if appointment.Status == models.StatusCompleted {
				stats.CompletedThisMonth++
			}
			if len(appointment.Date) == 10 {
				daily[appointment.Date[8:10]]++
			}
		}
	}
	stats.TotalPrescriptions = int64(len(lo.Filter(lo.Values(r.s.prescriptions), func(p models.Prescription, _ int) bool {
		return p.DoctorID == doctorID
	})))
	stats.DailyStats = sortedCounts(daily, func(a, b models.NamedCount) bool { return a.Name < b.Name })
	return stats, nil
}

func sortedCounts(counts map[string]int64, less func(a, b models.NamedCount) bool) []models.NamedCount {
	out := lo.MapToSlice(counts, func(name string, count int64) models.NamedCount {
		return models.NamedCount{Name: name, Count: count}
	})
	sort.SliceStable(out, func(i, j int) bool {
		if less(out[i], out[j]) == less(out[j], out[i]) {
			return out[i].Name < out[j].Name
		}
		return less(out[i], out[j])
	})
	return out
}

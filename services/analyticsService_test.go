package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"MediCore/authz"
	"MediCore/models"
	"MediCore/utils"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminAnalyticsIsCachedPerDay(t *testing.T) {
	b := newBookingSetup(t)
	ctx := context.Background()
	now := time.Date(2030, 5, 12, 9, 0, 0, 0, time.UTC)
	analytics := NewAnalyticsService(Dependencies{Repos: b.repos, Cache: b.cache, Now: func() time.Time { return now }, Log: zerolog.Nop()})

	_, err := b.container.Appointments.Create(ctx, b.admin, b.input("09:00 AM"))
	require.NoError(t, err)

	first, err := analytics.Admin(ctx, b.admin)
	require.NoError(t, err)
	assert.EqualValues(t, 1, first.TotalPatients)
	assert.EqualValues(t, 1, first.TotalDoctors)
	assert.EqualValues(t, 1, first.TotalReceptionists)
	assert.EqualValues(t, 1, first.TodayAppointments)
	assert.EqualValues(t, 1, first.PendingAppointments)

	b.booked = b.fixture.patient(nil)
	cached, err := analytics.Admin(ctx, b.admin)
	require.NoError(t, err)
	assert.EqualValues(t, 1, cached.TotalPatients, "served from cache within the TTL")

	now = now.Add(24 * time.Hour)
	fresh, err := analytics.Admin(ctx, b.admin)
	require.NoError(t, err)
	assert.EqualValues(t, 2, fresh.TotalPatients, "a new day uses a new key")
	assert.EqualValues(t, 0, fresh.TodayAppointments)
}

func TestDoctorAnalyticsCoversOnlyTheCaller(t *testing.T) {
	b := newBookingSetup(t)
	ctx := context.Background()
	now := time.Date(2030, 5, 12, 9, 0, 0, 0, time.UTC)
	analytics := NewAnalyticsService(Dependencies{Repos: b.repos, Cache: b.cache, Now: func() time.Time { return now }, Log: zerolog.Nop()})

	_, err := b.container.Appointments.Create(ctx, b.admin, b.input("09:00 AM"))
	require.NoError(t, err)
	other := b.user(models.RoleDoctor, models.PlanFree)
	_, err = b.container.Appointments.Create(ctx, b.admin, AppointmentInput{PatientID: b.booked.ID, DoctorID: other.ID, Date: bookingDate, TimeSlot: "09:00 AM"})
	require.NoError(t, err)
	writePrescription(t, b.fixture, b.doctor, b.booked)

	stats, err := analytics.Doctor(ctx, authz.IdentityOf(b.doctor))
	require.NoError(t, err)
	assert.EqualValues(t, 1, stats.TodayAppointments)
	assert.EqualValues(t, 1, stats.PendingToday)
	assert.EqualValues(t, 1, stats.TotalPrescriptions)

	_, err = analytics.Doctor(ctx, b.admin)
	assert.True(t, errors.Is(err, utils.ErrForbidden))
	_, err = analytics.Admin(ctx, authz.IdentityOf(b.doctor))
	assert.True(t, errors.Is(err, utils.ErrForbidden))
}

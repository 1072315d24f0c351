package services

import (
	"context"
	"testing"
	"time"

	"MediCore/aiclient"
	"MediCore/authz"
	"MediCore/cache"
	"MediCore/models"
	"MediCore/repositories"
	"MediCore/repositories/memory"
	"MediCore/utils"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

const testPassword = "Str0ng!Pass"

type fixture struct {
	t         *testing.T
	store     *memory.Store
	repos     repositories.Repositories
	cache     *cache.MemoryCache
	mailer    *captureMailer
	container *Container
}

type captureMailer struct {
	codes map[string]string
}

func (m *captureMailer) SendResetCode(email, code string) error {
	m.codes[email] = code
	return nil
}

func newFixture(t *testing.T, model aiclient.DiagnosticModel) *fixture {
	t.Helper()

	store := memory.NewStore()
	memCache := cache.NewMemoryCache()
	access, err := utils.NewJWTMaker("access-secret-for-tests-0123456789", utils.AccessToken)
	require.NoError(t, err)
	refresh, err := utils.NewJWTMaker("refresh-secret-for-tests-0123456789", utils.RefreshToken)
	require.NoError(t, err)

	f := &fixture{
		t:      t,
		store:  store,
		repos:  store.Repositories(),
		cache:  memCache,
		mailer: &captureMailer{codes: map[string]string{}},
	}
	f.container = NewContainer(Dependencies{
		Repos:         f.repos,
		Cache:         memCache,
		Locker:        cache.NewMemoryLocker(memCache),
		Mailer:        f.mailer,
		Model:         model,
		Hasher:        utils.NewPasswordHasher(4),
		AccessTokens:  access,
		RefreshTokens: refresh,
		AITimeout:     200 * time.Millisecond,
		Log:           zerolog.Nop(),
	})
	return f
}

func (f *fixture) user(role models.Role, plan models.SubscriptionPlan) *models.User {
	f.t.Helper()
	hash, err := utils.NewPasswordHasher(4).Hash(testPassword)
	require.NoError(f.t, err)
	user := &models.User{
		Name:             string(role) + " user",
		Email:            string(role) + "-" + uuid.NewString()[:8] + "@clinic.test",
		Password:         hash,
		Role:             role,
		SubscriptionPlan: plan,
		IsActive:         true,
	}
	require.NoError(f.t, f.repos.Users.Create(context.Background(), user))
	return user
}

func (f *fixture) identity(role models.Role) authz.Identity {
	return authz.IdentityOf(f.user(role, models.PlanFree))
}

func (f *fixture) patient(owner *models.User) *models.Patient {
	f.t.Helper()
	patient := &models.Patient{
		Name:     "Ayesha Khan",
		Age:      34,
		Gender:   models.GenderFemale,
		Phone:    "03001234567",
		IsActive: true,
	}
	if owner != nil {
		patient.UserID = &owner.ID
	}
	require.NoError(f.t, f.repos.Patients.Create(context.Background(), patient))
	return patient
}

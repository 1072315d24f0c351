package services

import (
	"context"
	"errors"
	"testing"

	"MediCore/authz"
	"MediCore/models"
	"MediCore/repositories"
	"MediCore/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminCannotChangeOwnRoleOrDeleteSelf(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	adminUser := f.user(models.RoleAdmin, models.PlanPro)
	admin := authz.IdentityOf(adminUser)

	_, err := f.container.Users.ChangeRole(ctx, admin, admin.ID, RoleInput{Role: models.RolePatient})
	require.Error(t, err)
	assert.True(t, errors.Is(err, utils.ErrForbidden))

	err = f.container.Users.Delete(ctx, admin, admin.ID)
	assert.True(t, errors.Is(err, utils.ErrForbidden))

	unchanged, err := f.repos.Users.GetByID(ctx, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, unchanged.Role)
}

func TestAdminManagesOtherUsers(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	admin := f.identity(models.RoleAdmin)
	target := f.user(models.RolePatient, models.PlanFree)

	promoted, err := f.container.Users.ChangeRole(ctx, admin, target.ID, RoleInput{Role: models.RoleDoctor})
	require.NoError(t, err)
	assert.Equal(t, models.RoleDoctor, promoted.Role)

	_, err = f.container.Users.ChangeRole(ctx, admin, target.ID, RoleInput{Role: "superuser"})
	assert.Equal(t, utils.KindValidationFailed, utils.AsAPIError(err).Kind)

	require.NoError(t, f.container.Users.Delete(ctx, admin, target.ID))
	_, err = f.repos.Users.GetByID(ctx, target.ID)
	assert.True(t, errors.Is(err, repositories.ErrNotFound))

	err = f.container.Users.Delete(ctx, admin, target.ID)
	assert.True(t, errors.Is(err, utils.ErrNotFound))
}

func TestOnlyAdminsChangeRoles(t *testing.T) {
	f := newFixture(t, nil)
	receptionist := f.identity(models.RoleReceptionist)
	target := f.user(models.RolePatient, models.PlanFree)

	_, err := f.container.Users.ChangeRole(context.Background(), receptionist, target.ID, RoleInput{Role: models.RoleAdmin})
	assert.True(t, errors.Is(err, utils.ErrForbidden))
}

func TestUserReadAndProfileOwnership(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	owner := authz.IdentityOf(f.user(models.RolePatient, models.PlanFree))
	other := f.identity(models.RolePatient)

	_, err := f.container.Users.Get(ctx, other, owner.ID)
	assert.True(t, errors.Is(err, utils.ErrForbidden))

	_, err = f.container.Users.Get(ctx, f.identity(models.RoleReceptionist), owner.ID)
	assert.NoError(t, err)

	name := "Updated Name"
	updated, err := f.container.Users.UpdateProfile(ctx, owner, owner.ID, ProfileInput{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, name, updated.Name)

	_, err = f.container.Users.UpdateProfile(ctx, other, owner.ID, ProfileInput{Name: &name})
	assert.True(t, errors.Is(err, utils.ErrForbidden))
}

func TestChangePasswordEndsSession(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	user := f.user(models.RoleDoctor, models.PlanFree)

	session, err := f.container.Auth.Login(ctx, LoginInput{Email: user.Email, Password: testPassword})
	require.NoError(t, err)

	err = f.container.Users.ChangePassword(ctx, authz.IdentityOf(user), user.ID, ChangePasswordInput{CurrentPassword: "Wr0ng!Pass", NewPassword: "N3w!Password"})
	assert.True(t, errors.Is(err, utils.ErrUnprocessable))

	err = f.container.Users.ChangePassword(ctx, f.identity(models.RoleAdmin), user.ID, ChangePasswordInput{CurrentPassword: testPassword, NewPassword: "N3w!Password"})
	assert.True(t, errors.Is(err, utils.ErrForbidden), "password changes are owner only")

	require.NoError(t, f.container.Users.ChangePassword(ctx, authz.IdentityOf(user), user.ID, ChangePasswordInput{CurrentPassword: testPassword, NewPassword: "N3w!Password"}))

	_, err = f.container.Auth.Refresh(ctx, session.RefreshToken)
	assert.True(t, errors.Is(err, utils.ErrUnauthenticated))
	_, err = f.container.Auth.Login(ctx, LoginInput{Email: user.Email, Password: "N3w!Password"})
	assert.NoError(t, err)
}

func TestSubscriptionAndDeactivation(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	user := f.user(models.RoleDoctor, models.PlanFree)
	self := authz.IdentityOf(user)

	upgraded, err := f.container.Users.ChangeSubscription(ctx, self, user.ID, SubscriptionInput{Plan: models.PlanPro})
	require.NoError(t, err)
	assert.Equal(t, models.PlanPro, upgraded.SubscriptionPlan)

	_, err = f.container.Users.ChangeSubscription(ctx, f.identity(models.RoleReceptionist), user.ID, SubscriptionInput{Plan: models.PlanFree})
	assert.True(t, errors.Is(err, utils.ErrForbidden))

	deactivated, err := f.container.Users.Deactivate(ctx, self, user.ID)
	require.NoError(t, err)
	assert.False(t, deactivated.IsActive)

	_, err = f.container.Auth.Login(ctx, LoginInput{Email: user.Email, Password: testPassword})
	assert.True(t, errors.Is(err, utils.ErrUnauthenticated))
}

func TestListUsersFiltersByRole(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	receptionist := f.identity(models.RoleReceptionist)
	f.user(models.RoleDoctor, models.PlanFree)
	f.user(models.RoleDoctor, models.PlanFree)
	f.user(models.RolePatient, models.PlanFree)

	doctors, err := f.container.Users.List(ctx, receptionist, repositories.UserFilter{Role: models.RoleDoctor})
	require.NoError(t, err)
	assert.EqualValues(t, 2, doctors.Pagination.Total)

	_, err = f.container.Users.List(ctx, f.identity(models.RoleDoctor), repositories.UserFilter{})
	assert.True(t, errors.Is(err, utils.ErrForbidden))
}

func TestCreateAdmin(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	admin, err := f.container.Users.CreateAdmin(ctx, RegisterInput{Name: "Root", Email: "root@clinic.test", Password: testPassword})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, admin.Role)
	assert.Equal(t, models.PlanPro, admin.SubscriptionPlan)

	_, err = f.container.Users.CreateAdmin(ctx, RegisterInput{Name: "Root", Email: "ROOT@clinic.test", Password: testPassword})
	assert.True(t, errors.Is(err, utils.ErrConflict))
}

func TestDeleteDoctorWithHistoryIsConflict(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	admin := f.identity(models.RoleAdmin)
	doctor := f.user(models.RoleDoctor, models.PlanFree)
	patient := f.patient(nil)

	_, err := f.container.Appointments.Create(ctx, admin, AppointmentInput{
		PatientID: patient.ID, DoctorID: doctor.ID, Date: "2030-05-12", TimeSlot: "09:00 AM",
	})
	require.NoError(t, err)

	err = f.container.Users.Delete(ctx, admin, doctor.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, utils.ErrConflict))
	assert.True(t, errors.Is(err, repositories.ErrReferenced))

	kept, err := f.repos.Users.GetByID(ctx, doctor.ID)
	require.NoError(t, err)
	assert.True(t, kept.IsActive)
}

package services

import (
	"context"
	"errors"
	"testing"

	"MediCore/models"
	"MediCore/repositories"
	"MediCore/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterCreatesFreePatientWithSession(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	session, err := f.container.Auth.Register(ctx, RegisterInput{Name: "Sara", Email: "Sara@Example.COM", Password: testPassword})
	require.NoError(t, err)

	assert.Equal(t, "sara@example.com", session.User.Email)
	assert.Equal(t, models.RolePatient, session.User.Role)
	assert.Equal(t, models.PlanFree, session.User.SubscriptionPlan)
	assert.NotEmpty(t, session.AccessToken)
	assert.NotEmpty(t, session.RefreshToken)

	stored, err := f.repos.Users.GetByID(ctx, session.User.ID)
	require.NoError(t, err)
	assert.NotEqual(t, testPassword, stored.Password)
	require.NotNil(t, stored.RefreshToken)
	assert.Equal(t, utils.HashToken(session.RefreshToken), *stored.RefreshToken)
}

func TestRegisterDuplicateEmailIsConflict(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.container.Auth.Register(ctx, RegisterInput{Name: "Sara", Email: "sara@example.com", Password: testPassword})
	require.NoError(t, err)

	_, err = f.container.Auth.Register(ctx, RegisterInput{Name: "Other", Email: "SARA@example.com", Password: testPassword})
	assert.True(t, errors.Is(err, utils.ErrConflict))
}

func TestRegisterRejectsWeakPassword(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.container.Auth.Register(context.Background(), RegisterInput{Name: "Sara", Email: "sara@example.com", Password: "password"})
	require.Error(t, err)
	apiErr := utils.AsAPIError(err)
	assert.Equal(t, utils.KindValidationFailed, apiErr.Kind)
	assert.Equal(t, "password", apiErr.Errors[0].Field)
}

func TestLoginDoesNotRevealWhichPartFailed(t *testing.T) {
	f := newFixture(t, nil)
	user := f.user(models.RoleDoctor, models.PlanFree)
	ctx := context.Background()

	_, wrongPassword := f.container.Auth.Login(ctx, LoginInput{Email: user.Email, Password: "Wr0ng!Pass"})
	_, unknownEmail := f.container.Auth.Login(ctx, LoginInput{Email: "nobody@clinic.test", Password: testPassword})

	require.Error(t, wrongPassword)
	require.Error(t, unknownEmail)
	assert.Equal(t, utils.AsAPIError(wrongPassword).Message, utils.AsAPIError(unknownEmail).Message)
	assert.True(t, errors.Is(wrongPassword, utils.ErrUnauthenticated))
}

func TestRefreshRotationInvalidatesPreviousToken(t *testing.T) {
	f := newFixture(t, nil)
	user := f.user(models.RoleDoctor, models.PlanFree)
	ctx := context.Background()

	first, err := f.container.Auth.Login(ctx, LoginInput{Email: user.Email, Password: testPassword})
	require.NoError(t, err)

	second, err := f.container.Auth.Refresh(ctx, first.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)

	_, err = f.container.Auth.Refresh(ctx, first.RefreshToken)
	assert.True(t, errors.Is(err, utils.ErrUnauthenticated))

	_, err = f.container.Auth.Refresh(ctx, second.RefreshToken)
	assert.NoError(t, err)
}

func TestSecondLoginEndsFirstSession(t *testing.T) {
	f := newFixture(t, nil)
	user := f.user(models.RoleReceptionist, models.PlanFree)
	ctx := context.Background()

	first, err := f.container.Auth.Login(ctx, LoginInput{Email: user.Email, Password: testPassword})
	require.NoError(t, err)
	second, err := f.container.Auth.Login(ctx, LoginInput{Email: user.Email, Password: testPassword})
	require.NoError(t, err)

	_, err = f.container.Auth.Refresh(ctx, first.RefreshToken)
	assert.True(t, errors.Is(err, utils.ErrUnauthenticated))

	_, err = f.container.Auth.Refresh(ctx, second.RefreshToken)
	assert.NoError(t, err)

	// the first access token stays usable until it expires
	_, err = f.container.Auth.Authenticate(ctx, first.AccessToken)
	assert.NoError(t, err)
}

func TestLogoutRevokesRefreshAndIsIdempotent(t *testing.T) {
	f := newFixture(t, nil)
	user := f.user(models.RoleDoctor, models.PlanFree)
	ctx := context.Background()

	session, err := f.container.Auth.Login(ctx, LoginInput{Email: user.Email, Password: testPassword})
	require.NoError(t, err)

	require.NoError(t, f.container.Auth.Logout(ctx, user.ID))
	require.NoError(t, f.container.Auth.Logout(ctx, user.ID))

	_, err = f.container.Auth.Refresh(ctx, session.RefreshToken)
	assert.True(t, errors.Is(err, utils.ErrUnauthenticated))
}

func TestAccessTokenIsNotAcceptedAsRefreshToken(t *testing.T) {
	f := newFixture(t, nil)
	user := f.user(models.RoleDoctor, models.PlanFree)
	ctx := context.Background()

	session, err := f.container.Auth.Login(ctx, LoginInput{Email: user.Email, Password: testPassword})
	require.NoError(t, err)

	_, err = f.container.Auth.Refresh(ctx, session.AccessToken)
	assert.True(t, errors.Is(err, utils.ErrUnauthenticated))
	_, err = f.container.Auth.Authenticate(ctx, session.RefreshToken)
	assert.True(t, errors.Is(err, utils.ErrUnauthenticated))
}

func TestDeactivatedIdentityIsRejected(t *testing.T) {
	f := newFixture(t, nil)
	user := f.user(models.RoleDoctor, models.PlanFree)
	ctx := context.Background()

	session, err := f.container.Auth.Login(ctx, LoginInput{Email: user.Email, Password: testPassword})
	require.NoError(t, err)

	inactive := false
	_, err = f.repos.Users.Update(ctx, user.ID, repositories.UserUpdate{IsActive: &inactive})
	require.NoError(t, err)

	_, err = f.container.Auth.Authenticate(ctx, session.AccessToken)
	assert.True(t, errors.Is(err, utils.ErrUnauthenticated))
	_, err = f.container.Auth.Refresh(ctx, session.RefreshToken)
	assert.True(t, errors.Is(err, utils.ErrUnauthenticated))
	_, err = f.container.Auth.Login(ctx, LoginInput{Email: user.Email, Password: testPassword})
	assert.True(t, errors.Is(err, utils.ErrUnauthenticated))
}

func TestPasswordResetFlow(t *testing.T) {
	f := newFixture(t, nil)
	user := f.user(models.RolePatient, models.PlanFree)
	ctx := context.Background()

	session, err := f.container.Auth.Login(ctx, LoginInput{Email: user.Email, Password: testPassword})
	require.NoError(t, err)

	require.NoError(t, f.container.Auth.SendResetCode(ctx, ForgotPasswordInput{Email: user.Email}))
	code := f.mailer.codes[user.Email]
	require.Len(t, code, 6)

	err = f.container.Auth.ResetPassword(ctx, ResetPasswordInput{Email: user.Email, Code: "000000", Password: "N3w!Password"})
	if code != "000000" {
		assert.True(t, errors.Is(err, utils.ErrUnprocessable))
	}

	require.NoError(t, f.container.Auth.ResetPassword(ctx, ResetPasswordInput{Email: user.Email, Code: code, Password: "N3w!Password"}))

	_, err = f.container.Auth.Refresh(ctx, session.RefreshToken)
	assert.True(t, errors.Is(err, utils.ErrUnauthenticated), "reset ends the session")

	_, err = f.container.Auth.Login(ctx, LoginInput{Email: user.Email, Password: "N3w!Password"})
	assert.NoError(t, err)

	err = f.container.Auth.ResetPassword(ctx, ResetPasswordInput{Email: user.Email, Code: code, Password: "An0ther!Pass"})
	assert.True(t, errors.Is(err, utils.ErrUnprocessable), "codes are single use")
}

func TestForgotPasswordUnknownEmailSucceedsSilently(t *testing.T) {
	f := newFixture(t, nil)

	require.NoError(t, f.container.Auth.SendResetCode(context.Background(), ForgotPasswordInput{Email: "ghost@clinic.test"}))
	assert.Empty(t, f.mailer.codes)
}

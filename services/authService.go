package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"sync"
	"time"

	"MediCore/cache"
	"MediCore/models"
	"MediCore/repositories"
	"MediCore/utils"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const invalidCredentials = "Invalid email or password"

type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
}

func (i RegisterInput) Validate() error {
	return validation.ValidateStruct(&i,
		validation.Field(&i.Name, validation.Required, validation.Length(2, 50)),
		validation.Field(&i.Email, validation.Required, is.EmailFormat),
		validation.Field(&i.Password, validation.Required, utils.PasswordRule),
		validation.Field(&i.Phone, validation.Length(0, 30)),
	)
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (i LoginInput) Validate() error {
	return validation.ValidateStruct(&i,
		validation.Field(&i.Email, validation.Required, is.EmailFormat),
		validation.Field(&i.Password, validation.Required),
	)
}

type ForgotPasswordInput struct {
	Email string `json:"email"`
}

func (i ForgotPasswordInput) Validate() error {
	return validation.ValidateStruct(&i,
		validation.Field(&i.Email, validation.Required, is.EmailFormat),
	)
}

type ResetPasswordInput struct {
	Email    string `json:"email"`
	Code     string `json:"code"`
	Password string `json:"password"`
}

func (i ResetPasswordInput) Validate() error {
	return validation.ValidateStruct(&i,
		validation.Field(&i.Email, validation.Required, is.EmailFormat),
		validation.Field(&i.Code, validation.Required, validation.Length(6, 6), is.Digit),
		validation.Field(&i.Password, validation.Required, utils.PasswordRule),
	)
}

// Session is a freshly issued token pair and the identity it belongs to.
type Session struct {
	User         *models.User `json:"user"`
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
}

// AuthService owns credentials and the single-refresh-token-per-identity invariant.
type AuthService struct {
	users         repositories.UserRepository
	cache         cache.Store
	mailer        utils.Mailer
	hasher        *utils.PasswordHasher
	accessTokens  utils.TokenMaker
	refreshTokens utils.TokenMaker
	accessTTL     time.Duration
	refreshTTL    time.Duration
	log           zerolog.Logger

	dummyOnce sync.Once
	dummyHash string
}

func NewAuthService(deps Dependencies) *AuthService {
	return &AuthService{
		users:         deps.Repos.Users,
		cache:         deps.Cache,
		mailer:        deps.Mailer,
		hasher:        deps.Hasher,
		accessTokens:  deps.AccessTokens,
		refreshTokens: deps.RefreshTokens,
		accessTTL:     deps.AccessTTL,
		refreshTTL:    deps.RefreshTTL,
		log:           deps.Log.With().Str("service", "auth").Logger(),
	}
}

// Register creates a patient identity on the free plan and opens its first session.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*Session, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, utils.Internal(err)
	}
	user := &models.User{
		Name:             input.Name,
		Email:            models.NormalizeEmail(input.Email),
		Password:         hash,
		Role:             models.RolePatient,
		Phone:            input.Phone,
		SubscriptionPlan: models.PlanFree,
		IsActive:         true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, utils.Conflict("Unable to register with the provided details")
		}
		return nil, err
	}
	s.log.Info().Str("user_id", user.ID).Msg("identity registered")
	return s.IssueTokenPair(ctx, user)
}

// Login verifies credentials and opens a new session, replacing any earlier one.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*Session, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	user, err := s.users.GetByEmail(ctx, models.NormalizeEmail(input.Email))
	if err != nil {
		if !errors.Is(err, repositories.ErrNotFound) {
			return nil, err
		}
		// keep the response time of unknown emails close to a real compare
		s.hasher.Verify(input.Password, s.dummy())
		return nil, utils.Unauthenticated(invalidCredentials)
	}
	if !s.hasher.Verify(input.Password, user.Password) {
		return nil, utils.Unauthenticated(invalidCredentials)
	}
	if !user.IsActive {
		return nil, utils.Unauthenticated("Account is deactivated")
	}
	return s.IssueTokenPair(ctx, user)
}

func (s *AuthService) dummy() string {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = s.hasher.Hash("dummy-password-for-timing")
	})
	return s.dummyHash
}

// IssueTokenPair mints a new pair and persists the refresh token, overwriting
// the previous one. Concurrent issuances race and the last write wins.
func (s *AuthService) IssueTokenPair(ctx context.Context, user *models.User) (*Session, error) {
	access, _, err := s.accessTokens.CreateToken(user.ID, user.Email, string(user.Role), s.accessTTL)
	if err != nil {
		return nil, utils.Internal(err)
	}
	refresh, _, err := s.refreshTokens.CreateToken(user.ID, "", "", s.refreshTTL)
	if err != nil {
		return nil, utils.Internal(err)
	}
	hash := utils.HashToken(refresh)
	if err := s.users.SetRefreshToken(ctx, user.ID, &hash); err != nil {
		return nil, pkgerrors.Wrap(err, "persist refresh token")
	}
	return &Session{User: user, AccessToken: access, RefreshToken: refresh}, nil
}

// Refresh rotates a session. The presented token must verify and match the
// persisted one; afterwards it is dead even if it has not expired.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	if refreshToken == "" {
		return nil, utils.Unauthenticated("Refresh token is required")
	}
	claims, err := s.refreshTokens.VerifyToken(refreshToken)
	if err != nil {
		return nil, utils.Unauthenticated("Invalid or expired refresh token")
	}
	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, utils.Unauthenticated("Invalid or expired refresh token")
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, utils.Unauthenticated("Account is deactivated")
	}
	presented := utils.HashToken(refreshToken)
	if user.RefreshToken == nil || subtle.ConstantTimeCompare([]byte(*user.RefreshToken), []byte(presented)) != 1 {
		s.log.Warn().Str("user_id", user.ID).Msg("stale refresh token presented")
		return nil, utils.Unauthenticated("Refresh token has been revoked")
	}

	access, _, err := s.accessTokens.CreateToken(user.ID, user.Email, string(user.Role), s.accessTTL)
	if err != nil {
		return nil, utils.Internal(err)
	}
	next, _, err := s.refreshTokens.CreateToken(user.ID, "", "", s.refreshTTL)
	if err != nil {
		return nil, utils.Internal(err)
	}
	rotated, err := s.users.RotateRefreshToken(ctx, user.ID, presented, utils.HashToken(next))
	if err != nil {
		return nil, pkgerrors.Wrap(err, "rotate refresh token")
	}
	if !rotated {
		return nil, utils.Unauthenticated("Refresh token has been revoked")
	}
	return &Session{User: user, AccessToken: access, RefreshToken: next}, nil
}

// Logout clears the persisted refresh token. Repeating it is harmless.
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	if err := s.users.SetRefreshToken(ctx, userID, nil); err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return err
	}
	return nil
}

// Authenticate resolves an access token to a live, active identity.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (*models.User, error) {
	claims, err := s.accessTokens.VerifyToken(accessToken)
	if err != nil {
		if errors.Is(err, utils.ErrExpiredToken) {
			return nil, utils.Unauthenticated("Access token has expired")
		}
		return nil, utils.Unauthenticated("Invalid access token")
	}
	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, utils.Unauthenticated("User no longer exists")
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, utils.Unauthenticated("Account is deactivated")
	}
	return user, nil
}

// SendResetCode stores a short-lived code for an active identity and mails it.
// Unknown emails succeed silently.
func (s *AuthService) SendResetCode(ctx context.Context, input ForgotPasswordInput) error {
	if err := input.Validate(); err != nil {
		return err
	}
	email := models.NormalizeEmail(input.Email)
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil
		}
		return err
	}
	if !user.IsActive {
		return nil
	}
	code, err := utils.GenerateResetCode()
	if err != nil {
		return utils.Internal(err)
	}
	if err := s.cache.Set(ctx, utils.ResetCodeKey(email), code, utils.ResetCodeExpiry); err != nil {
		return pkgerrors.Wrap(err, "store reset code")
	}
	if err := s.mailer.SendResetCode(email, code); err != nil {
		s.log.Error().Err(err).Str("user_id", user.ID).Msg("failed to send reset code")
	}
	return nil
}

// ResetPassword consumes a reset code, sets the new password and ends the session.
func (s *AuthService) ResetPassword(ctx context.Context, input ResetPasswordInput) error {
	if err := input.Validate(); err != nil {
		return err
	}
	email := models.NormalizeEmail(input.Email)
	key := utils.ResetCodeKey(email)
	stored, err := s.cache.Get(ctx, key)
	if err != nil {
		return pkgerrors.Wrap(err, "load reset code")
	}
	if stored == "" || subtle.ConstantTimeCompare([]byte(stored), []byte(input.Code)) != 1 {
		return utils.Unprocessable("Invalid or expired reset code")
	}
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return utils.Unprocessable("Invalid or expired reset code")
		}
		return err
	}
	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return utils.Internal(err)
	}
	if _, err := s.users.Update(ctx, user.ID, repositories.UserUpdate{PasswordHash: &hash, ClearRefreshToken: true}); err != nil {
		return err
	}
	if err := s.cache.Delete(ctx, key); err != nil {
		s.log.Error().Err(err).Msg("failed to delete reset code")
	}
	s.log.Info().Str("user_id", user.ID).Msg("password reset")
	return nil
}

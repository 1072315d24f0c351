package services

import (
	"context"
	"errors"

	"MediCore/authz"
	"MediCore/models"
	"MediCore/repositories"
	"MediCore/utils"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/rs/zerolog"
)

type ProfileInput struct {
	Name           *string `json:"name"`
	Phone          *string `json:"phone"`
	Specialization *string `json:"specialization"`
}

func (i ProfileInput) Validate() error {
	return validation.ValidateStruct(&i,
		validation.Field(&i.Name, validation.NilOrNotEmpty, validation.Length(2, 50)),
		validation.Field(&i.Phone, validation.Length(0, 30)),
		validation.Field(&i.Specialization, validation.Length(0, 100)),
	)
}

type ChangePasswordInput struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func (i ChangePasswordInput) Validate() error {
	return validation.ValidateStruct(&i,
		validation.Field(&i.CurrentPassword, validation.Required),
		validation.Field(&i.NewPassword, validation.Required, utils.PasswordRule),
	)
}

type RoleInput struct {
	Role models.Role `json:"role"`
}

func (i RoleInput) Validate() error {
	return validation.ValidateStruct(&i,
		validation.Field(&i.Role, validation.Required, validation.By(func(value interface{}) error {
			if role, _ := value.(models.Role); !role.Valid() {
				return errors.New("must be one of admin, doctor, receptionist, patient")
			}
			return nil
		})),
	)
}

type SubscriptionInput struct {
	Plan models.SubscriptionPlan `json:"plan"`
}

func (i SubscriptionInput) Validate() error {
	return validation.ValidateStruct(&i,
		validation.Field(&i.Plan, validation.Required, validation.In(models.PlanFree, models.PlanPro)),
	)
}

// UserService manages identities other than through the auth flows.
type UserService struct {
	users  repositories.UserRepository
	hasher *utils.PasswordHasher
	log    zerolog.Logger
}

func NewUserService(deps Dependencies) *UserService {
	return &UserService{
		users:  deps.Repos.Users,
		hasher: deps.Hasher,
		log:    deps.Log.With().Str("service", "users").Logger(),
	}
}

func (s *UserService) List(ctx context.Context, caller authz.Identity, filter repositories.UserFilter) (models.PageResult[models.User], error) {
	if err := authz.Require(caller, authz.ListUsers); err != nil {
		return models.PageResult[models.User]{}, err
	}
	if filter.Role != "" && !filter.Role.Valid() {
		return models.PageResult[models.User]{}, utils.ValidationFailed("Validation failed", utils.FieldError{Field: "role", Message: "unknown role"})
	}
	users, total, err := s.users.List(ctx, filter)
	if err != nil {
		return models.PageResult[models.User]{}, err
	}
	return models.NewPageResult(users, total, filter.Page), nil
}

func (s *UserService) Get(ctx context.Context, caller authz.Identity, id string) (*models.User, error) {
	if err := authz.RequireOwnerOrRole(caller, id, models.RoleAdmin, models.RoleReceptionist); err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "User")
	}
	return user, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, caller authz.Identity, id string, input ProfileInput) (*models.User, error) {
	if err := authz.RequireOwnerOrRole(caller, id, models.RoleAdmin); err != nil {
		return nil, err
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}
	user, err := s.users.Update(ctx, id, repositories.UserUpdate{
		Name:           input.Name,
		Phone:          input.Phone,
		Specialization: input.Specialization,
	})
	if err != nil {
		return nil, notFound(err, "User")
	}
	return user, nil
}

// ChangePassword is owner-only. It revokes the refresh token so the caller
// has to log in again.
func (s *UserService) ChangePassword(ctx context.Context, caller authz.Identity, id string, input ChangePasswordInput) error {
	if caller.ID != id {
		return utils.Forbidden("You can only change your own password")
	}
	if err := input.Validate(); err != nil {
		return err
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return notFound(err, "User")
	}
	if !s.hasher.Verify(input.CurrentPassword, user.Password) {
		return utils.Unprocessable("Current password is incorrect")
	}
	hash, err := s.hasher.Hash(input.NewPassword)
	if err != nil {
		return utils.Internal(err)
	}
	if _, err := s.users.Update(ctx, id, repositories.UserUpdate{PasswordHash: &hash, ClearRefreshToken: true}); err != nil {
		return notFound(err, "User")
	}
	s.log.Info().Str("user_id", id).Msg("password changed")
	return nil
}

// ChangeRole is the only path that alters a role. Nobody can change their own.
func (s *UserService) ChangeRole(ctx context.Context, caller authz.Identity, id string, input RoleInput) (*models.User, error) {
	if err := authz.Require(caller, authz.ManageUsers); err != nil {
		return nil, err
	}
	if err := authz.ForbidSelfTarget(caller, id, "change the role of"); err != nil {
		return nil, err
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}
	role := input.Role
	user, err := s.users.Update(ctx, id, repositories.UserUpdate{Role: &role})
	if err != nil {
		return nil, notFound(err, "User")
	}
	s.log.Info().Str("user_id", id).Str("role", string(role)).Str("by", caller.ID).Msg("role changed")
	return user, nil
}

func (s *UserService) ChangeSubscription(ctx context.Context, caller authz.Identity, id string, input SubscriptionInput) (*models.User, error) {
	if err := authz.RequireOwnerOrRole(caller, id, models.RoleAdmin); err != nil {
		return nil, err
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}
	plan := input.Plan
	user, err := s.users.Update(ctx, id, repositories.UserUpdate{SubscriptionPlan: &plan})
	if err != nil {
		return nil, notFound(err, "User")
	}
	return user, nil
}

// Deactivate disables an identity and ends its session.
func (s *UserService) Deactivate(ctx context.Context, caller authz.Identity, id string) (*models.User, error) {
	if err := authz.RequireOwnerOrRole(caller, id, models.RoleAdmin); err != nil {
		return nil, err
	}
	inactive := false
	user, err := s.users.Update(ctx, id, repositories.UserUpdate{IsActive: &inactive, ClearRefreshToken: true})
	if err != nil {
		return nil, notFound(err, "User")
	}
	s.log.Info().Str("user_id", id).Str("by", caller.ID).Msg("identity deactivated")
	return user, nil
}

func (s *UserService) Delete(ctx context.Context, caller authz.Identity, id string) error {
	if err := authz.Require(caller, authz.ManageUsers); err != nil {
		return err
	}
	if err := authz.ForbidSelfTarget(caller, id, "delete"); err != nil {
		return err
	}
	if err := s.users.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrReferenced) {
			return utils.Conflict("User has clinical history, deactivate the account instead").WithCause(err)
		}
		return notFound(err, "User")
	}
	s.log.Info().Str("user_id", id).Str("by", caller.ID).Msg("identity deleted")
	return nil
}

// CreateAdmin bootstraps an administrator from the command line.
func (s *UserService) CreateAdmin(ctx context.Context, input RegisterInput) (*models.User, error) {
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
		Role:             models.RoleAdmin,
		SubscriptionPlan: models.PlanPro,
		IsActive:         true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, utils.Conflict("Email already registered")
		}
		return nil, err
	}
	return user, nil
}

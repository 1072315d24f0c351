package repositories

import (
	"context"

	"MediCore/models"

	"gorm.io/gorm"
)

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	user.Email = models.NormalizeEmail(user.Email)
	return translateError(r.db.WithContext(ctx).Create(user).Error, "failed to create user")
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var user models.User
	err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if err != nil {
		return nil, translateError(err, "failed to get user")
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var user models.User
	err := r.db.WithContext(ctx).First(&user, "email = ?", models.NormalizeEmail(email)).Error
	if err != nil {
		return nil, translateError(err, "failed to get user by email")
	}
	return &user, nil
}

func (r *userRepository) List(ctx context.Context, filter UserFilter) ([]models.User, int64, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := r.db.WithContext(ctx).Model(&models.User{})
	if filter.Role != "" {
		query = query.Where("role = ?", filter.Role)
	}
	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		query = query.Where("name ILIKE ? OR email ILIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError(err, "failed to count users")
	}

	var users []models.User
	if err := query.Scopes(paginate(filter.Page)).Order("created_at DESC").Find(&users).Error; err != nil {
		return nil, 0, translateError(err, "failed to list users")
	}
	return users, total, nil
}

func (r *userRepository) Update(ctx context.Context, id string, update UserUpdate) (*models.User, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	fields := map[string]interface{}{}
	if update.Name != nil {
		fields["name"] = *update.Name
	}
	if update.Phone != nil {
		fields["phone"] = *update.Phone
	}
	if update.Specialization != nil {
		fields["specialization"] = *update.Specialization
	}
	if update.Role != nil {
		fields["role"] = *update.Role
	}
	if update.SubscriptionPlan != nil {
		fields["subscription_plan"] = *update.SubscriptionPlan
	}
	if update.IsActive != nil {
		fields["is_active"] = *update.IsActive
	}
	if update.PasswordHash != nil {
		fields["password"] = *update.PasswordHash
	}
	if update.ClearRefreshToken {
		fields["refresh_token"] = nil
	}

	if len(fields) > 0 {
		result := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(fields)
		if result.Error != nil {
			return nil, translateError(result.Error, "failed to update user")
		}
		if result.RowsAffected == 0 {
			return nil, translateError(gorm.ErrRecordNotFound, "failed to update user")
		}
	}
	return r.GetByID(ctx, id)
}

func (r *userRepository) SetRefreshToken(ctx context.Context, id string, tokenHash *string) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	err := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).
		Update("refresh_token", tokenHash).Error
	return translateError(err, "failed to store refresh token")
}

func (r *userRepository) RotateRefreshToken(ctx context.Context, id, oldHash, newHash string) (bool, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	result := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND refresh_token = ? AND is_active = ?", id, oldHash, true).
		Update("refresh_token", newHash)
	if result.Error != nil {
		return false, translateError(result.Error, "failed to rotate refresh token")
	}
	return result.RowsAffected == 1, nil
}

func (r *userRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	result := r.db.WithContext(ctx).Delete(&models.User{}, "id = ?", id)
	if result.Error != nil {
		return translateError(result.Error, "failed to delete user")
	}
	if result.RowsAffected == 0 {
		return translateError(gorm.ErrRecordNotFound, "failed to delete user")
	}
	return nil
}

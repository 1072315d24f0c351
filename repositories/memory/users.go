package memory

import (
	"context"
	"time"

	"MediCore/models"
	"MediCore/repositories"
)

type UserRepository struct {
	s *Store
}

func (r *UserRepository) Create(_ context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	user.Email = models.NormalizeEmail(user.Email)
	for _, existing := range r.s.users {
		if existing.Email == user.Email {
			return repositories.ErrDuplicateKey
		}
	}
	r.s.stamp(&user.BaseModel, true)
	r.s.users[user.ID] = *user
	return nil
}

func (r *UserRepository) GetByID(_ context.Context, id string) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	user, ok := r.s.users[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &user, nil
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	email = models.NormalizeEmail(email)
	for _, user := range r.s.users {
		if user.Email == email {
			return &user, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *UserRepository) List(_ context.Context, filter repositories.UserFilter) ([]models.User, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var users []models.User
	for _, user := range r.s.users {
		if filter.Role != "" && user.Role != filter.Role {
			continue
		}
		if filter.Search != "" && !containsFold(user.Name, filter.Search) && !containsFold(user.Email, filter.Search) {
			continue
		}
		users = append(users, user)
	}
	newestFirst(users, func(u models.User) time.Time { return u.CreatedAt })
	return page(users, filter.Page), int64(len(users)), nil
}

func (r *UserRepository) Update(_ context.Context, id string, update repositories.UserUpdate) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	user, ok := r.s.users[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	if update.Name != nil {
		user.Name = *update.Name
	}
	if update.Phone != nil {
		user.Phone = *update.Phone
	}
	if update.Specialization != nil {
		user.Specialization = *update.Specialization
	}
	if update.Role != nil {
		user.Role = *update.Role
	}
	if update.SubscriptionPlan != nil {
		user.SubscriptionPlan = *update.SubscriptionPlan
	}
	if update.IsActive != nil {
		user.IsActive = *update.IsActive
	}
	if update.PasswordHash != nil {
		user.Password = *update.PasswordHash
	}
	if update.ClearRefreshToken {
		user.RefreshToken = nil
	}
	r.s.stamp(&user.BaseModel, false)
	r.s.users[id] = user
	return &user, nil
}

func (r *UserRepository) SetRefreshToken(_ context.Context, id string, tokenHash *string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	user, ok := r.s.users[id]
	if !ok {
		return repositories.ErrNotFound
	}
	if tokenHash != nil {
		hash := *tokenHash
		tokenHash = &hash
	}
	user.RefreshToken = tokenHash
	r.s.users[id] = user
	return nil
}

func (r *UserRepository) RotateRefreshToken(_ context.Context, id, oldHash, newHash string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	user, ok := r.s.users[id]
	if !ok || !user.IsActive || user.RefreshToken == nil || *user.RefreshToken != oldHash {
		return false, nil
	}
	user.RefreshToken = &newHash
	r.s.users[id] = user
	return true, nil
}

func (r *UserRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[id]; !ok {
		return repositories.ErrNotFound
	}
	// appointments and prescriptions keep a foreign key to their doctor
	for _, appointment := range r.s.appointments {
		if appointment.DoctorID == id {
			return repositories.ErrReferenced
		}
	}
	for _, prescription := range r.s.prescriptions {
		if prescription.DoctorID == id {
			return repositories.ErrReferenced
		}
	}
	delete(r.s.users, id)
	return nil
}

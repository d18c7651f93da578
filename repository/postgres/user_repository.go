package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/arunvm123/ticketbooking/model"
	"github.com/arunvm123/ticketbooking/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

var _ repository.UserRepository = (*UserRepository)(nil)

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// CreateUser relies on the unique email index instead of a prior lookup.
func (r *UserRepository) CreateUser(ctx context.Context, req model.CreateUserRequest) (*model.User, error) {
	id := req.ID
	if id == "" {
		id = uuid.NewString()
	}
	role := req.Role
	if role == "" {
		role = model.RoleUser
	}

	user := model.User{
		ID:           id,
		Email:        req.Email,
		PasswordHash: req.PasswordHash,
		Role:         role,
	}

	if err := r.db.WithContext(ctx).Create(&user).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, model.ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return &user, nil
}

// GetUserByEmail retrieves a user by email
func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).Take(&user).Error; err != nil {
		return nil, userLookupError(err)
	}
	return &user, nil
}

func (r *UserRepository) GetUserByID(ctx context.Context, userID string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("id = ?", userID).Take(&user).Error; err != nil {
		return nil, userLookupError(err)
	}
	return &user, nil
}

func userLookupError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) || isInvalidUUID(err) {
		return model.ErrUserNotFound
	}
	return fmt.Errorf("failed to get user: %w", err)
}

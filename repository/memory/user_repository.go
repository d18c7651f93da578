package memory

import (
	"context"

	"github.com/arunvm123/ticketbooking/model"
	"github.com/arunvm123/ticketbooking/repository"
	"github.com/google/uuid"
)

type UserRepository struct {
	store *Store
}

var _ repository.UserRepository = (*UserRepository)(nil)

func NewUserRepository(store *Store) *UserRepository {
	return &UserRepository{store: store}
}

func (r *UserRepository) CreateUser(ctx context.Context, req model.CreateUserRequest) (*model.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.usersByEmail[req.Email]; ok {
		return nil, model.ErrEmailTaken
	}

	id := req.ID
	if id == "" {
		id = uuid.NewString()
	}
	role := req.Role
	if role == "" {
		role = model.RoleUser
	}

	now := s.now()
	user := model.User{
		ID:           id,
		Email:        req.Email,
		PasswordHash: req.PasswordHash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.users[id] = user
	s.usersByEmail[req.Email] = id
	return &user, nil
}

func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.usersByEmail[email]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	user := s.users[id]
	return &user, nil
}

func (r *UserRepository) GetUserByID(ctx context.Context, userID string) (*model.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[userID]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	return &user, nil
}

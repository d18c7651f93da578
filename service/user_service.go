package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/arunvm123/ticketbooking/model"
	"github.com/arunvm123/ticketbooking/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// dummyHash is compared against when the email is unknown so both login
// failures take about as long.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), bcrypt.DefaultCost)

type UserService struct {
	users repository.UserRepository
	cost  int
	log   *zap.Logger
}

func NewUserService(users repository.UserRepository, log *zap.Logger) *UserService {
	if log == nil {
		log = zap.NewNop()
	}
	return &UserService{
		users: users,
		cost:  bcrypt.DefaultCost,
		log:   log,
	}
}

// Register creates a USER account.
func (s *UserService) Register(ctx context.Context, req model.RegisterRequest) (*model.User, error) {
	return s.create(ctx, req.Email, req.Password, model.RoleUser)
}

// Authenticate returns the user whose credentials match, or
// model.ErrInvalidCredentials.
func (s *UserService) Authenticate(ctx context.Context, req model.LoginRequest) (*model.User, error) {
	user, err := s.users.GetUserByEmail(ctx, normaliseEmail(req.Email))
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(req.Password))
			return nil, model.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, model.ErrInvalidCredentials
	}
	return user, nil
}

func (s *UserService) GetUser(ctx context.Context, userID string) (*model.User, error) {
	return s.users.GetUserByID(ctx, userID)
}

// EnsureAdmin creates the bootstrap admin account unless the email is
// already registered.
func (s *UserService) EnsureAdmin(ctx context.Context, email, password string) (*model.User, error) {
	existing, err := s.users.GetUserByEmail(ctx, normaliseEmail(email))
	if err == nil {
		if existing.Role != model.RoleAdmin {
			s.log.Warn("bootstrap admin email belongs to a non-admin account", zap.String("email", existing.Email))
		}
		return existing, nil
	}
	if !errors.Is(err, model.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to look up admin: %w", err)
	}

	user, err := s.create(ctx, email, password, model.RoleAdmin)
	if errors.Is(err, model.ErrEmailTaken) {
		// Another instance created it first.
		return s.users.GetUserByEmail(ctx, normaliseEmail(email))
	}
	if err != nil {
		return nil, err
	}

	s.log.Info("bootstrap admin created", zap.String("email", user.Email))
	return user, nil
}

func (s *UserService) create(ctx context.Context, email, password string, role model.Role) (*model.User, error) {
	email = normaliseEmail(email)
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", model.ErrInvalidInput)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, fmt.Errorf("%w: password is too long", model.ErrInvalidInput)
		}
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.users.CreateUser(ctx, model.CreateUserRequest{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
	})
	if err != nil {
		if errors.Is(err, model.ErrEmailTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

func normaliseEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"yatube/internal/models"
	"yatube/internal/repository"
	"yatube/internal/utils"
)

type SignupInput struct {
	Username        string `form:"username" validate:"required,max=150,username"`
	Email           string `form:"email" validate:"omitempty,email"`
	Password        string `form:"password1" validate:"required,min=8"`
	PasswordConfirm string `form:"password2" validate:"required,eqfield=Password"`
}

type AuthService struct {
	users repository.UserRepository
}

func NewAuthService(repos *repository.Repositories) *AuthService {
	return &AuthService{users: repos.Users}
}

// Register creates an ordinary (non-staff) account.
func (s *AuthService) Register(ctx context.Context, in SignupInput) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	taken, err := s.users.ExistsUsername(ctx, in.Username)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, fieldError("username", "A user with that username already exists.")
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := &models.User{Username: in.Username, Email: in.Email, Password: hash}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user %s: %w", in.Username, err)
	}
	return user, nil
}

// CreateStaff registers a user allowed to clear the listing cache.
func (s *AuthService) CreateStaff(ctx context.Context, in SignupInput) (*models.User, error) {
	in.PasswordConfirm = in.Password
	user, err := s.Register(ctx, in)
	if err != nil {
		return nil, err
	}
	user.IsStaff = true
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *AuthService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !utils.CheckPasswordHash(password, user.Password) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// User resolves a session user id.
func (s *AuthService) User(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, lookup(err, fmt.Sprintf("user %d", id))
	}
	return user, nil
}

// UserByName looks up a profile owner.
func (s *AuthService) UserByName(ctx context.Context, username string) (*models.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, lookup(err, "user "+username)
	}
	return user, nil
}

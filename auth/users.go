package auth

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"netshield/models"
)

var (
	ErrMissingFields      = errors.New("all fields are required")
	ErrUsernameTaken      = errors.New("username already exists")
	ErrEmailTaken         = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// UserStore is the account persistence capability the service consumes.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	UserByUsername(ctx context.Context, username string) (models.User, bool, error)
	UserByEmail(ctx context.Context, email string) (models.User, bool, error)
	UserByID(ctx context.Context, id int64) (models.User, bool, error)
}

// Service implements signup/login/me on top of a user store and the token
// manager.
type Service struct {
	users  UserStore
	tokens *Manager
}

func NewService(users UserStore, tokens *Manager) *Service {
	return &Service{users: users, tokens: tokens}
}

// Signup registers a new account and returns it with a fresh token.
func (s *Service) Signup(ctx context.Context, username, email, password string) (models.User, string, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || email == "" || password == "" {
		return models.User{}, "", ErrMissingFields
	}

	if _, found, err := s.users.UserByUsername(ctx, username); err != nil {
		return models.User{}, "", err
	} else if found {
		return models.User{}, "", ErrUsernameTaken
	}
	if _, found, err := s.users.UserByEmail(ctx, email); err != nil {
		return models.User{}, "", err
	} else if found {
		return models.User{}, "", ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, "", err
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return models.User{}, "", err
	}

	token, err := s.tokens.GenerateToken(user.ID, user.Username)
	if err != nil {
		return models.User{}, "", err
	}
	return *user, token, nil
}

// Login authenticates by username or email and returns the account with a
// fresh token.
func (s *Service) Login(ctx context.Context, login, password string) (models.User, string, error) {
	login = strings.TrimSpace(login)

	user, found, err := s.users.UserByUsername(ctx, login)
	if err != nil {
		return models.User{}, "", err
	}
	if !found {
		user, found, err = s.users.UserByEmail(ctx, login)
		if err != nil {
			return models.User{}, "", err
		}
	}
	if !found {
		return models.User{}, "", ErrInvalidCredentials
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return models.User{}, "", ErrInvalidCredentials
	}

	token, err := s.tokens.GenerateToken(user.ID, user.Username)
	if err != nil {
		return models.User{}, "", err
	}
	return user, token, nil
}

// Me resolves a bearer token to its account.
func (s *Service) Me(ctx context.Context, token string) (models.User, error) {
	uid, ok := s.tokens.ParseCallerID(token)
	if !ok {
		return models.User{}, ErrInvalidToken
	}

	user, found, err := s.users.UserByID(ctx, uid)
	if err != nil {
		return models.User{}, err
	}
	if !found {
		return models.User{}, ErrInvalidToken
	}
	return user, nil
}

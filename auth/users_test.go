package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"netshield/models"
)

type memoryUserStore struct {
	users  []models.User
	nextID int64
}

func (s *memoryUserStore) CreateUser(_ context.Context, user *models.User) error {
	s.nextID++
	user.ID = s.nextID
	s.users = append(s.users, *user)
	return nil
}

func (s *memoryUserStore) UserByUsername(_ context.Context, username string) (models.User, bool, error) {
	for _, user := range s.users {
		if user.Username == username {
			return user, true, nil
		}
	}
	return models.User{}, false, nil
}

func (s *memoryUserStore) UserByEmail(_ context.Context, email string) (models.User, bool, error) {
	for _, user := range s.users {
		if user.Email == email {
			return user, true, nil
		}
	}
	return models.User{}, false, nil
}

func (s *memoryUserStore) UserByID(_ context.Context, id int64) (models.User, bool, error) {
	for _, user := range s.users {
		if user.ID == id {
			return user, true, nil
		}
	}
	return models.User{}, false, nil
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	manager, err := NewManager(testSecret(), time.Hour)
	if err != nil {
		t.Fatalf("NewManager returned error: %v", err)
	}
	return NewService(&memoryUserStore{}, manager)
}

func TestSignupAndLogin(t *testing.T) {
	t.Parallel()

	service := newTestService(t)
	ctx := context.Background()

	user, token, err := service.Signup(ctx, "alice", "alice@example.com", "hunter22")
	if err != nil {
		t.Fatalf("Signup returned error: %v", err)
	}
	if user.ID == 0 || token == "" {
		t.Fatalf("expected assigned ID and token, got id=%d token=%q", user.ID, token)
	}
	if user.PasswordHash == "hunter22" {
		t.Fatal("password must not be stored in the clear")
	}

	// Login by username.
	logged, token2, err := service.Login(ctx, "alice", "hunter22")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if logged.ID != user.ID || token2 == "" {
		t.Fatalf("unexpected login result: %+v", logged)
	}

	// Login by email.
	if _, _, err := service.Login(ctx, "alice@example.com", "hunter22"); err != nil {
		t.Fatalf("Login by email returned error: %v", err)
	}

	// Me resolves the token back to the account.
	me, err := service.Me(ctx, token)
	if err != nil {
		t.Fatalf("Me returned error: %v", err)
	}
	if me.Username != "alice" {
		t.Fatalf("expected alice, got %q", me.Username)
	}
}

func TestSignupValidation(t *testing.T) {
	t.Parallel()

	service := newTestService(t)
	ctx := context.Background()

	if _, _, err := service.Signup(ctx, "", "a@b.c", "pw"); !errors.Is(err, ErrMissingFields) {
		t.Fatalf("expected ErrMissingFields, got %v", err)
	}

	if _, _, err := service.Signup(ctx, "bob", "bob@example.com", "pw"); err != nil {
		t.Fatalf("Signup returned error: %v", err)
	}
	if _, _, err := service.Signup(ctx, "bob", "other@example.com", "pw"); !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
	if _, _, err := service.Signup(ctx, "robert", "bob@example.com", "pw"); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestLoginFailures(t *testing.T) {
	t.Parallel()

	service := newTestService(t)
	ctx := context.Background()

	if _, _, err := service.Login(ctx, "ghost", "pw"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown user, got %v", err)
	}

	if _, _, err := service.Signup(ctx, "dana", "dana@example.com", "correct"); err != nil {
		t.Fatalf("Signup returned error: %v", err)
	}
	if _, _, err := service.Login(ctx, "dana", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for bad password, got %v", err)
	}
}

func TestMeRejectsBadToken(t *testing.T) {
	t.Parallel()

	service := newTestService(t)
	if _, err := service.Me(context.Background(), "not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/soaringjerry/mindbridge/internal/models"
)

type authStubStore struct {
	users map[string]*models.User
}

func newAuthStubStore() *authStubStore {
	return &authStubStore{users: map[string]*models.User{}}
}

func (s *authStubStore) FindUserByEmail(_ context.Context, email string) (*models.User, error) {
	if u, ok := s.users[email]; ok {
		copy := *u
		return &copy, nil
	}
	return nil, nil
}

func (s *authStubStore) GetUser(_ context.Context, id string) (*models.User, error) {
	for _, u := range s.users {
		if u.ID == id {
			copy := *u
			return &copy, nil
		}
	}
	return nil, nil
}

func (s *authStubStore) AddUser(_ context.Context, u *models.User) error {
	if _, ok := s.users[u.Email]; ok {
		return errors.New("duplicate user")
	}
	copy := *u
	s.users[u.Email] = &copy
	return nil
}

func TestAuthRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	store := newAuthStubStore()
	svc := NewAuthService(store, func(uid, email string, ttl time.Duration) (string, error) {
		return "token:" + uid + ":" + email, nil
	}, time.Hour)
	svc.now = func() time.Time { return time.Unix(0, 0) }
	svc.idGen = func(prefix string, n int) string { return prefix + "123456789012" }

	res, err := svc.Register(ctx, RegisterRequest{Email: " User@Example.com ", Password: "Secret123", FirstName: "Ada"})
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if res.UserID != "u123456789012" {
		t.Fatalf("unexpected user id %q", res.UserID)
	}
	if res.Token != "token:u123456789012:user@example.com" {
		t.Fatalf("unexpected token %q", res.Token)
	}

	_, err = svc.Register(ctx, RegisterRequest{Email: "user@example.com", Password: "Secret123"})
	if !IsCode(err, ErrorConflict) {
		t.Fatalf("expected conflict error on duplicate registration, got %v", err)
	}

	loginRes, err := svc.Login(ctx, "USER@example.com", "Secret123")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if loginRes.Token == "" {
		t.Fatalf("expected token in login response")
	}

	if _, err := svc.Login(ctx, "user@example.com", "wrong"); !IsCode(err, ErrorUnauthorized) {
		t.Fatalf("expected unauthorized for wrong password, got %v", err)
	}
	if _, err := svc.Login(ctx, "missing@example.com", "Secret123"); !IsCode(err, ErrorUnauthorized) {
		t.Fatalf("expected unauthorized for missing user, got %v", err)
	}

	u, err := svc.CurrentUser(ctx, res.UserID)
	if err != nil {
		t.Fatalf("CurrentUser returned error: %v", err)
	}
	if u.FirstName != "Ada" {
		t.Fatalf("first name = %q, want Ada", u.FirstName)
	}
	if _, err := svc.CurrentUser(ctx, "u-missing"); !IsCode(err, ErrorNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestAuthValidation(t *testing.T) {
	ctx := context.Background()
	svc := NewAuthService(newAuthStubStore(), func(uid, email string, ttl time.Duration) (string, error) {
		return "tok", nil
	}, 0)

	if _, err := svc.Register(ctx, RegisterRequest{}); !IsCode(err, ErrorInvalid) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := svc.Login(ctx, "", ""); !IsCode(err, ErrorInvalid) {
		t.Fatalf("expected validation error on login, got %v", err)
	}
	if svc.TokenTTL() != 30*24*time.Hour {
		t.Fatalf("default ttl = %s", svc.TokenTTL())
	}
}

func TestAuthWithoutSigner(t *testing.T) {
	svc := NewAuthService(newAuthStubStore(), nil, time.Hour)
	_, err := svc.Register(context.Background(), RegisterRequest{Email: "a@b.c", Password: "pw"})
	if !IsCode(err, ErrorInvalid) {
		t.Fatalf("expected invalid error without signer, got %v", err)
	}
}

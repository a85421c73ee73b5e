package services

import (
	"errors"
	"testing"

	"github.com/N1cus0r/chat-backend/config"
)

func newTestAuthService(t *testing.T) *AuthService {
	t.Helper()
	return NewAuthService(setupTestDB(t), &config.AuthConfig{
		JWTSecret:     "test-secret",
		TokenExpiry:   1,
		RefreshExpiry: 24,
	})
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newTestAuthService(t)

	user, err := svc.Register("alice", "correct horse battery")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if user.Password == "correct horse battery" {
		t.Error("password stored in plain text")
	}

	if _, err := svc.Register("alice", "another password"); !errors.Is(err, ErrUsernameTaken) {
		t.Errorf("second Register() error = %v, want ErrUsernameTaken", err)
	}

	logged, err := svc.Login("alice", "correct horse battery")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if logged.ID != user.ID {
		t.Errorf("expected user %d, got %d", user.ID, logged.ID)
	}

	if _, err := svc.Login("alice", "wrong password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Login() with bad password error = %v, want ErrInvalidCredentials", err)
	}
	if _, err := svc.Login("nobody", "whatever"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Login() for unknown user error = %v, want ErrInvalidCredentials", err)
	}
}

func TestTokenRoundTrip(t *testing.T) {
	svc := newTestAuthService(t)

	user, err := svc.Register("bob", "a decent password")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	tokens, err := svc.GenerateTokens(user)
	if err != nil {
		t.Fatalf("GenerateTokens() error = %v", err)
	}

	claims, err := svc.ValidateToken(tokens.AccessToken)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if claims.UserID != user.ID {
		t.Errorf("expected user id %d in claims, got %d", user.ID, claims.UserID)
	}
	if claims.Username != "bob" {
		t.Errorf("expected username in claims, got %q", claims.Username)
	}

	if _, err := svc.ValidateToken("not.a.token"); err == nil {
		t.Error("expected garbage token to be rejected")
	}
}

func TestRefreshTokens(t *testing.T) {
	svc := newTestAuthService(t)

	user, err := svc.Register("carol", "a decent password")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	tokens, err := svc.GenerateTokens(user)
	if err != nil {
		t.Fatalf("GenerateTokens() error = %v", err)
	}

	refreshed, err := svc.RefreshTokens(tokens.RefreshToken)
	if err != nil {
		t.Fatalf("RefreshTokens() error = %v", err)
	}
	if refreshed.User.ID != user.ID {
		t.Errorf("expected refreshed tokens for user %d, got %d", user.ID, refreshed.User.ID)
	}

	if _, err := svc.RefreshTokens("bogus"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("RefreshTokens() error = %v, want ErrInvalidToken", err)
	}
}

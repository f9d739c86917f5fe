package services

import (
	"context"
	"testing"

	"studyhall-backend/internal/middleware"
	"studyhall-backend/internal/models"
	"studyhall-backend/internal/store"
)

func newTestAccounts(t *testing.T) (*AccountService, store.Store) {
	t.Helper()
	s := store.NewMemory()
	if err := store.Seed(context.Background(), s); err != nil {
		t.Fatalf("seed: %v", err)
	}
	subs := NewSubscriptionService(s)
	jwt := middleware.NewJWTAuth("test-secret")
	return NewAccountService(s, subs, jwt), s
}

func TestSignUpThenLogIn(t *testing.T) {
	ctx := context.Background()
	accounts, _ := newTestAccounts(t)

	tokens, err := accounts.SignUp(ctx, models.RegisterRequest{
		Name:     "Ada",
		Email:    "ada@example.com",
		Password: "hunter22",
	})
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if tokens.AccessToken == "" {
		t.Error("expected an access token after signup")
	}
	if tokens.User.Email != "ada@example.com" {
		t.Errorf("unexpected user email %q", tokens.User.Email)
	}

	// Signed up means authenticated.
	if ok, _ := accounts.IsAuthenticated(ctx); !ok {
		t.Error("expected authenticated session after signup")
	}

	// Same credentials log in.
	if _, err := accounts.LogIn(ctx, models.LoginRequest{Email: "ada@example.com", Password: "hunter22"}); err != nil {
		t.Fatalf("LogIn with correct password: %v", err)
	}

	// Any other password fails with invalid credentials.
	_, err = accounts.LogIn(ctx, models.LoginRequest{Email: "ada@example.com", Password: "wrong"})
	if _, ok := err.(*UnauthorizedError); !ok {
		t.Fatalf("expected UnauthorizedError for wrong password, got %v", err)
	}

	// Unknown email fails the same way.
	_, err = accounts.LogIn(ctx, models.LoginRequest{Email: "nobody@example.com", Password: "hunter22"})
	if _, ok := err.(*UnauthorizedError); !ok {
		t.Fatalf("expected UnauthorizedError for unknown email, got %v", err)
	}
}

func TestSignUp_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	accounts, _ := newTestAccounts(t)

	req := models.RegisterRequest{Name: "Ada", Email: "ada@example.com", Password: "hunter22"}
	if _, err := accounts.SignUp(ctx, req); err != nil {
		t.Fatalf("first SignUp: %v", err)
	}
	_, err := accounts.SignUp(ctx, req)
	if _, ok := err.(*ConflictError); !ok {
		t.Fatalf("expected ConflictError for duplicate email, got %v", err)
	}
}

func TestSignUp_Validation(t *testing.T) {
	ctx := context.Background()
	accounts, _ := newTestAccounts(t)

	_, err := accounts.SignUp(ctx, models.RegisterRequest{Name: "", Email: "not-an-email", Password: "x"})
	vErr, ok := err.(*ValidationError)
	if !ok {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	for _, field := range []string{"name", "email", "password"} {
		if vErr.Fields[field] == "" {
			t.Errorf("expected field error for %s", field)
		}
	}
}

func TestSignUp_InvalidSubscriptionCode(t *testing.T) {
	ctx := context.Background()
	accounts, _ := newTestAccounts(t)

	_, err := accounts.SignUp(ctx, models.RegisterRequest{
		Name:             "Ada",
		Email:            "ada@example.com",
		Password:         "hunter22",
		SubscriptionCode: "NOPE",
	})
	if _, ok := err.(*ValidationError); !ok {
		t.Fatalf("expected ValidationError for bad code, got %v", err)
	}
}

func TestSignUp_ValidCodeActivatesSubscription(t *testing.T) {
	ctx := context.Background()
	accounts, _ := newTestAccounts(t)

	tokens, err := accounts.SignUp(ctx, models.RegisterRequest{
		Name:             "Ada",
		Email:            "ada@example.com",
		Password:         "hunter22",
		SubscriptionCode: "STUDY2024",
	})
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if !tokens.User.IsActive {
		t.Error("expected active subscription after signup with valid code")
	}
	if ok, _ := accounts.HasActiveSubscription(ctx); !ok {
		t.Error("expected marker to report active subscription")
	}
}

func TestLogOutClearsMarker(t *testing.T) {
	ctx := context.Background()
	accounts, _ := newTestAccounts(t)

	if _, err := accounts.SignUp(ctx, models.RegisterRequest{Name: "Ada", Email: "ada@example.com", Password: "hunter22"}); err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if err := accounts.LogOut(ctx); err != nil {
		t.Fatalf("LogOut: %v", err)
	}
	if ok, _ := accounts.IsAuthenticated(ctx); ok {
		t.Error("expected unauthenticated session after logout")
	}
	if email, _ := accounts.CurrentUserEmail(ctx); email != "" {
		t.Errorf("expected empty current email, got %q", email)
	}
}

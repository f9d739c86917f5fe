package services

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"golang.org/x/crypto/bcrypt"

	"studyhall-backend/internal/middleware"
	"studyhall-backend/internal/models"
	"studyhall-backend/internal/store"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// AccountService owns user records and the authenticated-session marker.
type AccountService struct {
	store store.Store
	subs  *SubscriptionService
	jwt   *middleware.JWTAuth
	now   func() time.Time
}

func NewAccountService(s store.Store, subs *SubscriptionService, jwt *middleware.JWTAuth) *AccountService {
	return &AccountService{store: s, subs: subs, jwt: jwt, now: time.Now}
}

func (s *AccountService) loadUsers(ctx context.Context) (map[string]models.StoredUser, error) {
	users := map[string]models.StoredUser{}
	if _, err := store.GetJSON(ctx, s.store, store.KeyUsers, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *AccountService) saveUsers(ctx context.Context, users map[string]models.StoredUser) error {
	return store.SetJSON(ctx, s.store, store.KeyUsers, users)
}

// SignUp registers a new account and authenticates it. A non-empty
// subscription code must validate (active, unexpired) or the signup fails.
func (s *AccountService) SignUp(ctx context.Context, req models.RegisterRequest) (*models.AuthTokens, error) {
	fieldErrors := make(map[string]string)
	if req.Name == "" {
		fieldErrors["name"] = "Name is required"
	}
	if !emailRegex.MatchString(req.Email) {
		fieldErrors["email"] = "Invalid email format"
	}
	if len(req.Password) < 6 {
		fieldErrors["password"] = "Password must be at least 6 characters"
	}
	if len(fieldErrors) > 0 {
		return nil, &ValidationError{Fields: fieldErrors}
	}

	users, err := s.loadUsers(ctx)
	if err != nil {
		return nil, err
	}
	if _, exists := users[req.Email]; exists {
		return nil, &ConflictError{Message: "User with this email already exists"}
	}

	isActive := false
	if req.SubscriptionCode != "" {
		if err := s.subs.Validate(ctx, req.SubscriptionCode); err != nil {
			return nil, err
		}
		isActive = true
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), 12)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.StoredUser{
		Email:            req.Email,
		Name:             req.Name,
		PasswordHash:     string(hash),
		SubscriptionCode: req.SubscriptionCode,
		IsActive:         isActive,
		CreatedAt:        s.now().UTC(),
	}
	users[req.Email] = user
	if err := s.saveUsers(ctx, users); err != nil {
		return nil, err
	}

	// Auto-login after signup
	if err := s.setMarker(ctx, user); err != nil {
		return nil, err
	}
	return s.issueTokens(user)
}

// LogIn verifies credentials, updates lastLogin, and authenticates the
// session.
func (s *AccountService) LogIn(ctx context.Context, req models.LoginRequest) (*models.AuthTokens, error) {
	users, err := s.loadUsers(ctx)
	if err != nil {
		return nil, err
	}

	user, ok := users[req.Email]
	if !ok {
		return nil, &UnauthorizedError{Message: "Invalid email or password"}
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, &UnauthorizedError{Message: "Invalid email or password"}
	}

	last := s.now().UTC()
	user.LastLogin = &last
	users[req.Email] = user
	if err := s.saveUsers(ctx, users); err != nil {
		return nil, err
	}

	if err := s.setMarker(ctx, user); err != nil {
		return nil, err
	}
	return s.issueTokens(user)
}

// LogOut clears the authenticated-session marker.
func (s *AccountService) LogOut(ctx context.Context) error {
	return s.store.Remove(ctx, store.KeyCurrentUser)
}

func (s *AccountService) marker(ctx context.Context) (*models.SessionMarker, error) {
	var m models.SessionMarker
	ok, err := store.GetJSON(ctx, s.store, store.KeyCurrentUser, &m)
	if err != nil || !ok {
		return nil, err
	}
	return &m, nil
}

func (s *AccountService) IsAuthenticated(ctx context.Context) (bool, error) {
	m, err := s.marker(ctx)
	return m != nil, err
}

func (s *AccountService) CurrentUserEmail(ctx context.Context) (string, error) {
	m, err := s.marker(ctx)
	if err != nil || m == nil {
		return "", err
	}
	return m.Email, nil
}

func (s *AccountService) CurrentUserName(ctx context.Context) (string, error) {
	m, err := s.marker(ctx)
	if err != nil || m == nil {
		return "", err
	}
	return m.Name, nil
}

func (s *AccountService) HasActiveSubscription(ctx context.Context) (bool, error) {
	m, err := s.marker(ctx)
	if err != nil || m == nil {
		return false, err
	}
	return m.IsActive, nil
}

// Get returns the public record for one user.
func (s *AccountService) Get(ctx context.Context, email string) (*models.User, error) {
	users, err := s.loadUsers(ctx)
	if err != nil {
		return nil, err
	}
	user, ok := users[email]
	if !ok {
		return nil, &NotFoundError{Message: "User not found"}
	}
	pub := user.Public()
	return &pub, nil
}

// ActivateSubscription flips the user's active flag after a successful
// code redemption and refreshes the session marker if it names the same
// user.
func (s *AccountService) ActivateSubscription(ctx context.Context, email, code string) error {
	users, err := s.loadUsers(ctx)
	if err != nil {
		return err
	}
	user, ok := users[email]
	if !ok {
		return &NotFoundError{Message: "User not found"}
	}
	user.IsActive = true
	user.SubscriptionCode = code
	users[email] = user
	if err := s.saveUsers(ctx, users); err != nil {
		return err
	}

	m, err := s.marker(ctx)
	if err != nil {
		return err
	}
	if m != nil && m.Email == email {
		return s.setMarker(ctx, user)
	}
	return nil
}

func (s *AccountService) setMarker(ctx context.Context, user models.StoredUser) error {
	return store.SetJSON(ctx, s.store, store.KeyCurrentUser, models.SessionMarker{
		Email:            user.Email,
		Name:             user.Name,
		SubscriptionCode: user.SubscriptionCode,
		IsActive:         user.IsActive,
	})
}

func (s *AccountService) issueTokens(user models.StoredUser) (*models.AuthTokens, error) {
	token, err := s.jwt.GenerateAccessToken(user.Email, user.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}
	return &models.AuthTokens{
		AccessToken: token,
		ExpiresIn:   86400,
		User:        user.Public(),
	}, nil
}

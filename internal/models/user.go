package models

import "time"

// User is a registered account, keyed by email in the users map.
type User struct {
	Email            string     `json:"email"`
	Name             string     `json:"name"`
	PasswordHash     string     `json:"-"`
	SubscriptionCode string     `json:"subscriptionCode,omitempty"`
	IsActive         bool       `json:"isActive"`
	CreatedAt        time.Time  `json:"createdAt"`
	LastLogin        *time.Time `json:"lastLogin"`
}

// StoredUser is the persisted form of User, digest included.
type StoredUser struct {
	Email            string     `json:"email"`
	Name             string     `json:"name"`
	PasswordHash     string     `json:"password"`
	SubscriptionCode string     `json:"subscriptionCode,omitempty"`
	IsActive         bool       `json:"isActive"`
	CreatedAt        time.Time  `json:"createdAt"`
	LastLogin        *time.Time `json:"lastLogin"`
}

func (u StoredUser) Public() User {
	return User{
		Email:            u.Email,
		Name:             u.Name,
		SubscriptionCode: u.SubscriptionCode,
		IsActive:         u.IsActive,
		CreatedAt:        u.CreatedAt,
		LastLogin:        u.LastLogin,
	}
}

// SessionMarker is the authenticated-session record kept under the
// currentUser store key.
type SessionMarker struct {
	Email            string `json:"email"`
	Name             string `json:"name"`
	SubscriptionCode string `json:"subscriptionCode,omitempty"`
	IsActive         bool   `json:"isActive"`
}

type RegisterRequest struct {
	Name             string `json:"name"`
	Email            string `json:"email"`
	Password         string `json:"password"`
	SubscriptionCode string `json:"subscription_code"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthTokens struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	User        User   `json:"user"`
}

// Package store wraps the single key-value namespace that every other
// component persists through. Values are JSON-encoded text; there are no
// transactions, and concurrent writers race with last-write-wins semantics.
package store

import (
	"context"
	"encoding/json"
	"fmt"
)

// Persisted store keys.
const (
	KeyUsers       = "users"             // map email -> user
	KeySessions    = "studySessions"     // list of sessions
	KeyUserStats   = "userStats"         // map email -> stats
	KeyHistory     = "sessionHistory"    // append-only list
	KeyAchievement = "achievements"      // map email -> list
	KeyCodes       = "subscriptionCodes" // map code -> code record
	KeyCurrentUser = "currentUser"       // authenticated-session marker
)

// Store is the persistence contract. Get reports whether the key exists.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
	Keys(ctx context.Context) ([]string, error)
}

// GetJSON reads key and unmarshals it into dst. A missing key leaves dst
// untouched and reports false.
func GetJSON(ctx context.Context, s Store, key string, dst any) (bool, error) {
	raw, ok, err := s.Get(ctx, key)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// SetJSON marshals v and writes it under key.
func SetJSON(ctx context.Context, s Store, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.Set(ctx, key, string(raw))
}

package services

import (
	"context"
	"strings"
	"time"

	"studyhall-backend/internal/models"
	"studyhall-backend/internal/store"
)

// SubscriptionService validates and redeems subscription codes. Codes are
// stored uppercase; lookups are case-insensitive.
type SubscriptionService struct {
	store store.Store
	now   func() time.Time
}

func NewSubscriptionService(s store.Store) *SubscriptionService {
	return &SubscriptionService{store: s, now: time.Now}
}

func (s *SubscriptionService) loadCodes(ctx context.Context) (map[string]models.SubscriptionCode, error) {
	codes := map[string]models.SubscriptionCode{}
	if _, err := store.GetJSON(ctx, s.store, store.KeyCodes, &codes); err != nil {
		return nil, err
	}
	return codes, nil
}

// Validate checks that a code exists, is active, and has not expired.
func (s *SubscriptionService) Validate(ctx context.Context, code string) error {
	codes, err := s.loadCodes(ctx)
	if err != nil {
		return err
	}

	rec, ok := codes[strings.ToUpper(code)]
	if !ok {
		return &ValidationError{Message: "Invalid code"}
	}
	if !rec.IsActive {
		return &ValidationError{Message: "Code is not active"}
	}
	expiry, err := time.Parse("2006-01-02", rec.ExpiresAt)
	if err != nil || s.now().After(expiry.Add(24*time.Hour)) {
		return &ValidationError{Message: "Code has expired"}
	}
	return nil
}

// Redeem marks a code used by the given user. A user may redeem a given
// code at most once; two different users may both redeem the same code.
func (s *SubscriptionService) Redeem(ctx context.Context, code, userEmail string) error {
	if err := s.Validate(ctx, code); err != nil {
		return err
	}

	codes, err := s.loadCodes(ctx)
	if err != nil {
		return err
	}

	key := strings.ToUpper(code)
	rec := codes[key]
	for _, used := range rec.UsedBy {
		if used == userEmail {
			return &ConflictError{Message: "You have already used this code"}
		}
	}
	rec.UsedBy = append(rec.UsedBy, userEmail)
	codes[key] = rec

	return store.SetJSON(ctx, s.store, store.KeyCodes, codes)
}

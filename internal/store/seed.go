package store

import (
	"context"
	"time"

	"golang.org/x/crypto/bcrypt"

	"studyhall-backend/internal/models"
)

// Seed writes default records for keys that do not already exist. Running
// it twice is a no-op, so a restart never clobbers live data.
func Seed(ctx context.Context, s Store) error {
	now := time.Now().UTC()

	if _, ok, err := s.Get(ctx, KeyUsers); err != nil {
		return err
	} else if !ok {
		hash, err := bcrypt.GenerateFromPassword([]byte("demo123"), 12)
		if err != nil {
			return err
		}
		users := map[string]models.StoredUser{
			"demo@library.com": {
				Email:            "demo@library.com",
				Name:             "Demo User",
				PasswordHash:     string(hash),
				SubscriptionCode: "STUDY2024",
				IsActive:         true,
				CreatedAt:        now,
			},
		}
		if err := SetJSON(ctx, s, KeyUsers, users); err != nil {
			return err
		}
	}

	if _, ok, err := s.Get(ctx, KeySessions); err != nil {
		return err
	} else if !ok {
		sessions := []models.Session{
			{
				ID:              "1",
				Title:           "Pomodoro Focus Session",
				Description:     "25-minute focused study session using the Pomodoro technique",
				Duration:        25,
				Goal:            "Complete assigned readings",
				Status:          models.SessionActive,
				Participants:    3,
				MaxParticipants: 6,
				CreatedAt:       now,
				CreatedBy:       "demo@library.com",
			},
			{
				ID:              "2",
				Title:           "Deep Work: Mathematics",
				Description:     "50-minute intensive mathematics study session",
				Duration:        50,
				Goal:            "Practice calculus problems",
				Status:          models.SessionActive,
				Participants:    2,
				MaxParticipants: 4,
				CreatedAt:       now,
				CreatedBy:       "demo@library.com",
				RequiresCode:    true,
				RoomCode:        "MATH2024",
			},
			{
				ID:              "3",
				Title:           "Language Learning Circle",
				Description:     "Practice conversation in Spanish with fellow learners",
				Duration:        90,
				Goal:            "Improve conversational skills",
				Status:          models.SessionUpcoming,
				Participants:    1,
				MaxParticipants: 8,
				CreatedAt:       now,
				CreatedBy:       "demo@library.com",
			},
			{
				ID:              "4",
				Title:           "Research Writing Workshop",
				Description:     "Collaborative writing session for research papers",
				Duration:        120,
				Goal:            "Complete research paper sections",
				Status:          models.SessionActive,
				Participants:    4,
				MaxParticipants: 6,
				CreatedAt:       now,
				CreatedBy:       "demo@library.com",
				RequiresCode:    true,
				RoomCode:        "WRITE2024",
			},
		}
		if err := SetJSON(ctx, s, KeySessions, sessions); err != nil {
			return err
		}
	}

	if _, ok, err := s.Get(ctx, KeyUserStats); err != nil {
		return err
	} else if !ok {
		if err := SetJSON(ctx, s, KeyUserStats, map[string]models.UserStats{}); err != nil {
			return err
		}
	}

	if _, ok, err := s.Get(ctx, KeyHistory); err != nil {
		return err
	} else if !ok {
		if err := SetJSON(ctx, s, KeyHistory, []models.HistoryRecord{}); err != nil {
			return err
		}
	}

	if _, ok, err := s.Get(ctx, KeyAchievement); err != nil {
		return err
	} else if !ok {
		if err := SetJSON(ctx, s, KeyAchievement, map[string][]models.Achievement{}); err != nil {
			return err
		}
	}

	if _, ok, err := s.Get(ctx, KeyCodes); err != nil {
		return err
	} else if !ok {
		year := now.AddDate(1, 0, 0).Format("2006-01-02")
		halfYear := now.AddDate(0, 6, 0).Format("2006-01-02")
		codes := map[string]models.SubscriptionCode{
			"STUDY2024": {IsActive: true, ExpiresAt: year, UsedBy: []string{}},
			"LIBRARY50": {IsActive: true, ExpiresAt: halfYear, UsedBy: []string{}},
			"FOCUS2024": {IsActive: true, ExpiresAt: year, UsedBy: []string{}},
			"MATH2024":  {IsActive: true, ExpiresAt: year, UsedBy: []string{}},
			"WRITE2024": {IsActive: true, ExpiresAt: year, UsedBy: []string{}},
		}
		if err := SetJSON(ctx, s, KeyCodes, codes); err != nil {
			return err
		}
	}

	return nil
}

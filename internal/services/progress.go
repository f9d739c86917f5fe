package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"studyhall-backend/internal/models"
	"studyhall-backend/internal/store"
)

const defaultWeeklyGoalHours = 20

// achievementDef is one unlock rule. Rules are evaluated in fixed order
// and each id is awarded at most once per user.
type achievementDef struct {
	ID          string
	Title       string
	Description string
	Icon        string
	Unlocked    func(stats models.UserStats) bool
}

var achievementDefs = []achievementDef{
	{
		ID:          "first-session",
		Title:       "First Steps",
		Description: "Completed your first study session",
		Icon:        "fas fa-star",
		Unlocked:    func(st models.UserStats) bool { return st.TotalStudyHours >= 0.5 },
	},
	{
		ID:          "five-hours",
		Title:       "Getting Started",
		Description: "Studied for 5 hours total",
		Icon:        "fas fa-graduation-cap",
		Unlocked:    func(st models.UserStats) bool { return st.TotalStudyHours >= 5 },
	},
	{
		ID:          "twenty-hours",
		Title:       "Dedicated Learner",
		Description: "Studied for 20 hours total",
		Icon:        "fas fa-book",
		Unlocked:    func(st models.UserStats) bool { return st.TotalStudyHours >= 20 },
	},
	{
		ID:          "weekly-goal",
		Title:       "Goal Crusher",
		Description: "Achieved your weekly study goal",
		Icon:        "fas fa-trophy",
		Unlocked:    func(st models.UserStats) bool { return st.CurrentWeekHours >= st.WeeklyGoal },
	},
	{
		ID:          "three-day-streak",
		Title:       "On a Roll",
		Description: "3-day study streak",
		Icon:        "fas fa-fire",
		Unlocked:    func(st models.UserStats) bool { return st.Streak >= 3 },
	},
	{
		ID:          "seven-day-streak",
		Title:       "Weekly Warrior",
		Description: "7-day study streak",
		Icon:        "fas fa-calendar-week",
		Unlocked:    func(st models.UserStats) bool { return st.Streak >= 7 },
	},
}

// ProgressService tracks per-user statistics, history, and achievements.
type ProgressService struct {
	store store.Store
	now   func() time.Time
}

func NewProgressService(s store.Store) *ProgressService {
	return &ProgressService{store: s, now: time.Now}
}

func (s *ProgressService) loadStats(ctx context.Context) (map[string]models.UserStats, error) {
	stats := map[string]models.UserStats{}
	if _, err := store.GetJSON(ctx, s.store, store.KeyUserStats, &stats); err != nil {
		return nil, err
	}
	return stats, nil
}

// Stats returns the user's statistics, lazily default-initialized.
func (s *ProgressService) Stats(ctx context.Context, userEmail string) (*models.UserStats, error) {
	all, err := s.loadStats(ctx)
	if err != nil {
		return nil, err
	}
	st, ok := all[userEmail]
	if !ok {
		st = models.UserStats{WeeklyGoal: defaultWeeklyGoalHours}
	}
	return &st, nil
}

// SetWeeklyGoal updates the user's weekly goal in hours.
func (s *ProgressService) SetWeeklyGoal(ctx context.Context, userEmail string, hours float64) (*models.UserStats, error) {
	if hours <= 0 {
		return nil, &ValidationError{Message: "Weekly goal must be positive"}
	}
	all, err := s.loadStats(ctx)
	if err != nil {
		return nil, err
	}
	st, ok := all[userEmail]
	if !ok {
		st = models.UserStats{WeeklyGoal: defaultWeeklyGoalHours}
	}
	st.WeeklyGoal = hours
	all[userEmail] = st
	if err := store.SetJSON(ctx, s.store, store.KeyUserStats, all); err != nil {
		return nil, err
	}
	return &st, nil
}

// RecordCompletion applies one completed session to the user's stats,
// evaluates achievements, and appends a history record. Week boundaries
// use ISO-8601 week numbering.
func (s *ProgressService) RecordCompletion(ctx context.Context, userEmail string, req models.CompleteSessionRequest) (*models.UserStats, error) {
	if req.Minutes <= 0 {
		return nil, &ValidationError{Message: "Minutes studied must be positive"}
	}

	all, err := s.loadStats(ctx)
	if err != nil {
		return nil, err
	}
	st, ok := all[userEmail]
	if !ok {
		st = models.UserStats{WeeklyGoal: defaultWeeklyGoalHours}
	}

	now := s.now()
	weekChanged := false
	if st.LastUpdated != nil {
		lastYear, lastWeek := st.LastUpdated.ISOWeek()
		curYear, curWeek := now.ISOWeek()
		weekChanged = lastYear != curYear || lastWeek != curWeek
	}

	hours := float64(req.Minutes) / 60
	st.TotalStudyHours += hours
	if weekChanged {
		st.CurrentWeekHours = 0
	}
	st.CurrentWeekHours += hours

	switch {
	case req.GoalAchieved && !weekChanged:
		st.Streak++
	case weekChanged && req.GoalAchieved:
		st.Streak = 1
	case weekChanged:
		st.Streak = 0
	}

	if err := s.awardAchievements(ctx, userEmail, st, now); err != nil {
		return nil, err
	}

	updated := now.UTC()
	st.LastUpdated = &updated
	all[userEmail] = st
	if err := store.SetJSON(ctx, s.store, store.KeyUserStats, all); err != nil {
		return nil, err
	}

	if err := s.appendHistory(ctx, userEmail, req, updated); err != nil {
		return nil, err
	}
	return &st, nil
}

func (s *ProgressService) awardAchievements(ctx context.Context, userEmail string, st models.UserStats, now time.Time) error {
	all := map[string][]models.Achievement{}
	if _, err := store.GetJSON(ctx, s.store, store.KeyAchievement, &all); err != nil {
		return err
	}

	held := make(map[string]bool, len(all[userEmail]))
	for _, a := range all[userEmail] {
		held[a.ID] = true
	}

	awarded := false
	for _, def := range achievementDefs {
		if held[def.ID] || !def.Unlocked(st) {
			continue
		}
		all[userEmail] = append(all[userEmail], models.Achievement{
			ID:          def.ID,
			Title:       def.Title,
			Description: def.Description,
			Icon:        def.Icon,
			EarnedAt:    now.UTC(),
		})
		awarded = true
	}
	if !awarded {
		return nil
	}
	return store.SetJSON(ctx, s.store, store.KeyAchievement, all)
}

func (s *ProgressService) appendHistory(ctx context.Context, userEmail string, req models.CompleteSessionRequest, completedAt time.Time) error {
	var history []models.HistoryRecord
	if _, err := store.GetJSON(ctx, s.store, store.KeyHistory, &history); err != nil {
		return err
	}
	history = append(history, models.HistoryRecord{
		ID:           uuid.NewString(),
		UserEmail:    userEmail,
		SessionID:    req.SessionID,
		SessionTitle: req.SessionTitle,
		Duration:     req.Minutes,
		GoalAchieved: req.GoalAchieved,
		FocusLevel:   req.FocusLevel,
		Notes:        req.Notes,
		CompletedAt:  completedAt,
	})
	return store.SetJSON(ctx, s.store, store.KeyHistory, history)
}

// History returns the user's completed-session log.
func (s *ProgressService) History(ctx context.Context, userEmail string) ([]models.HistoryRecord, error) {
	var history []models.HistoryRecord
	if _, err := store.GetJSON(ctx, s.store, store.KeyHistory, &history); err != nil {
		return nil, err
	}
	out := make([]models.HistoryRecord, 0, len(history))
	for _, rec := range history {
		if rec.UserEmail == userEmail {
			out = append(out, rec)
		}
	}
	return out, nil
}

// Achievements returns the user's earned achievements.
func (s *ProgressService) Achievements(ctx context.Context, userEmail string) ([]models.Achievement, error) {
	all := map[string][]models.Achievement{}
	if _, err := store.GetJSON(ctx, s.store, store.KeyAchievement, &all); err != nil {
		return nil, err
	}
	if all[userEmail] == nil {
		return []models.Achievement{}, nil
	}
	return all[userEmail], nil
}

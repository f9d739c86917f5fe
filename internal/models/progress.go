package models

import "time"

// UserStats accumulates per-user study totals. CurrentWeekHours resets
// whenever the ISO week number changes relative to LastUpdated.
type UserStats struct {
	TotalStudyHours  float64    `json:"totalStudyHours"`
	WeeklyGoal       float64    `json:"weeklyGoal"` // hours
	CurrentWeekHours float64    `json:"currentWeekHours"`
	Streak           int        `json:"streak"`
	LastUpdated      *time.Time `json:"lastUpdated"`
}

// HistoryRecord is one completed session; the history log is append-only.
type HistoryRecord struct {
	ID           string    `json:"id"`
	UserEmail    string    `json:"userEmail"`
	SessionID    string    `json:"sessionId"`
	SessionTitle string    `json:"sessionTitle"`
	Duration     int       `json:"duration"` // minutes
	GoalAchieved bool      `json:"goalAchieved"`
	FocusLevel   int       `json:"focusLevel"`
	Notes        string    `json:"notes"`
	CompletedAt  time.Time `json:"completedAt"`
}

// Achievement is awarded at most once per (user, id) pair.
type Achievement struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Icon        string    `json:"icon"`
	EarnedAt    time.Time `json:"earnedAt"`
}

type CompleteSessionRequest struct {
	SessionID    string `json:"session_id"`
	SessionTitle string `json:"session_title"`
	Minutes      int    `json:"minutes"`
	GoalAchieved bool   `json:"goal_achieved"`
	FocusLevel   int    `json:"focus_level"`
	Notes        string `json:"notes"`
}

type WeeklyGoalRequest struct {
	Hours float64 `json:"hours"`
}

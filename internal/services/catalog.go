package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"studyhall-backend/internal/models"
	"studyhall-backend/internal/store"
)

// CatalogService owns study-session records and the join/leave protocol.
type CatalogService struct {
	store    store.Store
	subs     *SubscriptionService
	accounts *AccountService
	now      func() time.Time
}

func NewCatalogService(s store.Store, subs *SubscriptionService, accounts *AccountService) *CatalogService {
	return &CatalogService{store: s, subs: subs, accounts: accounts, now: time.Now}
}

func (s *CatalogService) loadSessions(ctx context.Context) ([]models.Session, error) {
	var sessions []models.Session
	if _, err := store.GetJSON(ctx, s.store, store.KeySessions, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

func (s *CatalogService) saveSessions(ctx context.Context, sessions []models.Session) error {
	return store.SetJSON(ctx, s.store, store.KeySessions, sessions)
}

// List returns sessions matching the filter; a zero filter matches all.
func (s *CatalogService) List(ctx context.Context, filter models.SessionFilter) ([]models.Session, error) {
	sessions, err := s.loadSessions(ctx)
	if err != nil {
		return nil, err
	}
	if filter.Status == "" && filter.Duration == 0 {
		return sessions, nil
	}
	out := make([]models.Session, 0, len(sessions))
	for _, sess := range sessions {
		if filter.Status != "" && sess.Status != filter.Status {
			continue
		}
		if filter.Duration != 0 && sess.Duration != filter.Duration {
			continue
		}
		out = append(out, sess)
	}
	return out, nil
}

func (s *CatalogService) Get(ctx context.Context, id string) (*models.Session, error) {
	sessions, err := s.loadSessions(ctx)
	if err != nil {
		return nil, err
	}
	for i := range sessions {
		if sessions[i].ID == id {
			return &sessions[i], nil
		}
	}
	return nil, &NotFoundError{Message: "Session not found"}
}

// Create validates and stores a new session with a fresh id and zero
// participants.
func (s *CatalogService) Create(ctx context.Context, createdBy string, req models.CreateSessionRequest) (*models.Session, error) {
	fieldErrors := make(map[string]string)
	if req.Title == "" {
		fieldErrors["title"] = "Title is required"
	}
	if req.Description == "" {
		fieldErrors["description"] = "Description is required"
	}
	if req.Goal == "" {
		fieldErrors["goal"] = "Goal is required"
	}
	if req.Duration <= 0 {
		fieldErrors["duration"] = "Duration must be positive"
	}
	if req.MaxParticipants <= 0 {
		fieldErrors["max_participants"] = "Participant limit must be positive"
	}
	if req.RequiresCode && req.RoomCode == "" {
		fieldErrors["room_code"] = "Room code is required for code-gated sessions"
	}
	if len(fieldErrors) > 0 {
		return nil, &ValidationError{Fields: fieldErrors}
	}

	status := req.Status
	if status == "" {
		status = models.SessionActive
	}

	session := models.Session{
		ID:              uuid.NewString(),
		Title:           req.Title,
		Description:     req.Description,
		Duration:        req.Duration,
		Goal:            req.Goal,
		Status:          status,
		Participants:    0,
		MaxParticipants: req.MaxParticipants,
		CreatedAt:       s.now().UTC(),
		CreatedBy:       createdBy,
		RequiresCode:    req.RequiresCode,
		RoomCode:        req.RoomCode,
	}

	sessions, err := s.loadSessions(ctx)
	if err != nil {
		return nil, err
	}
	sessions = append(sessions, session)
	if err := s.saveSessions(ctx, sessions); err != nil {
		return nil, err
	}
	return &session, nil
}

// Update applies partial changes to an existing session.
func (s *CatalogService) Update(ctx context.Context, id string, req models.UpdateSessionRequest) (*models.Session, error) {
	sessions, err := s.loadSessions(ctx)
	if err != nil {
		return nil, err
	}
	for i := range sessions {
		if sessions[i].ID != id {
			continue
		}
		sess := &sessions[i]
		if req.Title != nil {
			sess.Title = *req.Title
		}
		if req.Description != nil {
			sess.Description = *req.Description
		}
		if req.Duration != nil {
			sess.Duration = *req.Duration
		}
		if req.Goal != nil {
			sess.Goal = *req.Goal
		}
		if req.Status != nil {
			sess.Status = *req.Status
		}
		if req.MaxParticipants != nil {
			sess.MaxParticipants = *req.MaxParticipants
		}
		if req.RequiresCode != nil {
			sess.RequiresCode = *req.RequiresCode
		}
		if req.RoomCode != nil {
			sess.RoomCode = *req.RoomCode
		}
		if err := s.saveSessions(ctx, sessions); err != nil {
			return nil, err
		}
		out := *sess
		return &out, nil
	}
	return nil, &NotFoundError{Message: "Session not found"}
}

// Delete removes a session; deleting an unknown id is a no-op.
func (s *CatalogService) Delete(ctx context.Context, id string) error {
	sessions, err := s.loadSessions(ctx)
	if err != nil {
		return err
	}
	out := sessions[:0]
	for _, sess := range sessions {
		if sess.ID != id {
			out = append(out, sess)
		}
	}
	return s.saveSessions(ctx, out)
}

// Join admits a user into a session: unknown session fails, a full session
// fails, and a code-gated session requires an active subscription before
// the participant count is incremented and the session is marked active.
func (s *CatalogService) Join(ctx context.Context, sessionID, userEmail string) (*models.Session, error) {
	sessions, err := s.loadSessions(ctx)
	if err != nil {
		return nil, err
	}

	for i := range sessions {
		if sessions[i].ID != sessionID {
			continue
		}
		sess := &sessions[i]
		if sess.Participants >= sess.MaxParticipants {
			return nil, &ConflictError{Message: "Session is full"}
		}
		if sess.RequiresCode {
			user, err := s.accounts.Get(ctx, userEmail)
			if err != nil {
				return nil, err
			}
			if !user.IsActive {
				return nil, &SubscriptionRequiredError{SessionID: sessionID}
			}
		}
		sess.Participants++
		sess.Status = models.SessionActive
		if err := s.saveSessions(ctx, sessions); err != nil {
			return nil, err
		}
		out := *sess
		return &out, nil
	}
	return nil, &NotFoundError{Message: "Session not found"}
}

// RedeemCode validates and consumes a subscription code for a code-gated
// session, then activates the caller's subscription. The caller retries
// Join afterwards.
func (s *CatalogService) RedeemCode(ctx context.Context, code, sessionID, userEmail string) error {
	if _, err := s.Get(ctx, sessionID); err != nil {
		return err
	}
	if err := s.subs.Redeem(ctx, code, userEmail); err != nil {
		return err
	}
	return s.accounts.ActivateSubscription(ctx, userEmail, code)
}

// Leave decrements the participant count, floored at zero.
func (s *CatalogService) Leave(ctx context.Context, sessionID string) (*models.Session, error) {
	sessions, err := s.loadSessions(ctx)
	if err != nil {
		return nil, err
	}
	for i := range sessions {
		if sessions[i].ID != sessionID {
			continue
		}
		sess := &sessions[i]
		if sess.Participants > 0 {
			sess.Participants--
		}
		if err := s.saveSessions(ctx, sessions); err != nil {
			return nil, err
		}
		out := *sess
		return &out, nil
	}
	return nil, &NotFoundError{Message: "Session not found"}
}

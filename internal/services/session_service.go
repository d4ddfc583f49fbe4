package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/soaringjerry/mindbridge/internal/models"
)

// SessionService owns session lifecycle: InProgress until completed, then terminal.
type SessionService struct {
	store   SessionStore
	answers ResponseStore
	catalog TestCatalog
	log     *zap.Logger
	now     func() time.Time
	idGen   func() string
}

func NewSessionService(store SessionStore, answers ResponseStore, catalog TestCatalog, log *zap.Logger) *SessionService {
	if log == nil {
		log = zap.NewNop()
	}
	return &SessionService{
		store:   store,
		answers: answers,
		catalog: catalog,
		log:     log,
		now:     func() time.Time { return time.Now().UTC() },
		idGen:   newID,
	}
}

// ListTests returns the catalog in declaration order.
func (s *SessionService) ListTests() []*models.Test {
	return s.catalog.Tests()
}

func (s *SessionService) GetTest(testID string) (*models.Test, error) {
	t := s.catalog.Test(testID)
	if t == nil {
		return nil, NewNotFoundError("test not found")
	}
	return t, nil
}

// Start opens a new session at question 0.
func (s *SessionService) Start(ctx context.Context, userID, testID string) (*models.Session, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, NewUnauthorizedError("unauthorized")
	}
	test := s.catalog.Test(testID)
	if test == nil {
		return nil, NewNotFoundError("test not found")
	}
	sess := &models.Session{
		ID:              s.idGen(),
		UserID:          userID,
		TestID:          test.ID,
		CurrentQuestion: 0,
		TotalQuestions:  test.TotalQuestions(),
		StartedAt:       s.now(),
	}
	if err := s.store.InsertSession(ctx, sess); err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}
	s.log.Debug("session started",
		zap.String("session_id", sess.ID),
		zap.String("user_id", userID),
		zap.String("test_id", test.ID))
	return sess, nil
}

// Get is an ownership-checked read. Foreign sessions look missing.
func (s *SessionService) Get(ctx context.Context, sessionID, userID string) (*models.Session, error) {
	return loadOwnedSession(ctx, s.store, sessionID, userID)
}

// List returns the user's sessions, newest first.
func (s *SessionService) List(ctx context.Context, userID string) ([]*models.Session, error) {
	list, err := s.store.ListSessionsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return list, nil
}

// Advance moves the pointer to req.CurrentQuestion and, when requested,
// marks the session complete. Positions outside [0, total] are rejected.
func (s *SessionService) Advance(ctx context.Context, sessionID, userID string, req AdvanceRequest) (*models.Session, error) {
	sess, err := loadOwnedSession(ctx, s.store, sessionID, userID)
	if err != nil {
		return nil, err
	}
	if sess.IsCompleted {
		return nil, NewPreconditionError("session already completed")
	}
	if req.CurrentQuestion < 0 || req.CurrentQuestion > sess.TotalQuestions {
		return nil, NewInvalidError(fmt.Sprintf("current_question must be within [0, %d]", sess.TotalQuestions))
	}
	pos := req.CurrentQuestion
	upd := SessionUpdate{CurrentQuestion: &pos}
	if req.Complete {
		at := s.now()
		if req.CompletedAt != nil && !req.CompletedAt.IsZero() {
			at = req.CompletedAt.UTC()
		}
		upd.CompletedAt = &at
	}
	updated, err := s.store.UpdateSession(ctx, sess.ID, upd)
	if err != nil {
		return nil, fmt.Errorf("update session: %w", err)
	}
	if updated == nil {
		return nil, NewNotFoundError("session not found")
	}
	if req.Complete {
		s.log.Info("session completed", zap.String("session_id", sess.ID), zap.String("user_id", userID))
	}
	return updated, nil
}

// Complete marks the session finished. Completing twice returns the
// session unchanged so CompletedAt never moves.
func (s *SessionService) Complete(ctx context.Context, sessionID, userID string) (*models.Session, error) {
	sess, err := loadOwnedSession(ctx, s.store, sessionID, userID)
	if err != nil {
		return nil, err
	}
	if sess.IsCompleted {
		return sess, nil
	}
	at := s.now()
	updated, err := s.store.UpdateSession(ctx, sess.ID, SessionUpdate{CompletedAt: &at})
	if err != nil {
		return nil, fmt.Errorf("complete session: %w", err)
	}
	if updated == nil {
		return nil, NewNotFoundError("session not found")
	}
	s.log.Info("session completed", zap.String("session_id", sess.ID), zap.String("user_id", userID))
	return updated, nil
}

// Resume reports where the user left off, including the answer already
// recorded for the current question.
func (s *SessionService) Resume(ctx context.Context, sessionID, userID string) (*ResumeState, error) {
	sess, err := loadOwnedSession(ctx, s.store, sessionID, userID)
	if err != nil {
		return nil, err
	}
	responses, err := s.answers.ListResponses(ctx, sess.ID)
	if err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}
	state := &ResumeState{Session: sess, Responses: responses}
	if test := s.catalog.Test(sess.TestID); test != nil {
		state.Question = test.Question(sess.CurrentQuestion)
	}
	for _, r := range responses {
		if r.QuestionIndex == sess.CurrentQuestion {
			v := r.Response
			state.Selected = &v
			break
		}
	}
	return state, nil
}

func loadOwnedSession(ctx context.Context, store SessionStore, sessionID, userID string) (*models.Session, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, NewInvalidError("session_id required")
	}
	sess, err := store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if sess == nil || userID == "" || sess.UserID != userID {
		return nil, NewNotFoundError("session not found")
	}
	return sess, nil
}

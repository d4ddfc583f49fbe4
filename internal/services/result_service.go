package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/soaringjerry/mindbridge/internal/models"
)

// ResultService scores completed sessions and serves stored results.
type ResultService struct {
	sessions SessionStore
	answers  ResponseStore
	results  ResultStore
	catalog  TestCatalog
	log      *zap.Logger
	now      func() time.Time
	idGen    func() string
}

func NewResultService(sessions SessionStore, answers ResponseStore, results ResultStore, catalog TestCatalog, log *zap.Logger) *ResultService {
	if log == nil {
		log = zap.NewNop()
	}
	return &ResultService{
		sessions: sessions,
		answers:  answers,
		results:  results,
		catalog:  catalog,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
		idGen:    newID,
	}
}

// ScoreSession computes and stores the result for a completed session.
// A session is scored at most once; later calls return the stored result.
func (s *ResultService) ScoreSession(ctx context.Context, sessionID, userID string) (*models.Result, error) {
	sess, err := loadOwnedSession(ctx, s.sessions, sessionID, userID)
	if err != nil {
		return nil, err
	}
	if !sess.IsCompleted {
		return nil, NewPreconditionError("session not completed")
	}
	existing, err := s.results.GetResultBySession(ctx, sess.ID)
	if err != nil {
		return nil, fmt.Errorf("get result: %w", err)
	}
	if existing != nil {
		return existing, nil
	}
	test := s.catalog.Test(sess.TestID)
	if test == nil {
		return nil, NewNotFoundError("test not found")
	}
	responses, err := s.answers.ListResponses(ctx, sess.ID)
	if err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}
	scores, typeCode := Score(responses, test.Type)
	res := &models.Result{
		ID:              s.idGen(),
		UserID:          userID,
		SessionID:       sess.ID,
		TestType:        test.Type,
		Scores:          scores,
		PersonalityType: typeCode,
		CreatedAt:       s.now(),
	}
	stored, created, err := s.results.CreateResultOnce(ctx, res)
	if err != nil {
		return nil, fmt.Errorf("create result: %w", err)
	}
	if created {
		s.log.Info("session scored",
			zap.String("session_id", sess.ID),
			zap.String("test_type", test.Type),
			zap.Int("responses", len(responses)),
			zap.String("personality_type", typeCode))
	}
	return stored, nil
}

// LatestResult returns the newest result for the user, optionally filtered
// by test type. It returns (nil, nil) when the user has none.
func (s *ResultService) LatestResult(ctx context.Context, userID, testType string) (*models.Result, error) {
	if userID == "" {
		return nil, NewUnauthorizedError("unauthorized")
	}
	r, err := s.results.LatestResult(ctx, userID, strings.TrimSpace(testType))
	if err != nil {
		return nil, fmt.Errorf("latest result: %w", err)
	}
	return r, nil
}

// ListResults returns every result for the user, newest first.
func (s *ResultService) ListResults(ctx context.Context, userID string) ([]*models.Result, error) {
	if userID == "" {
		return nil, NewUnauthorizedError("unauthorized")
	}
	rs, err := s.results.ListResults(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	return rs, nil
}

// ExportResultsCSV renders the user's result history.
func (s *ResultService) ExportResultsCSV(ctx context.Context, userID string) ([]byte, error) {
	rs, err := s.ListResults(ctx, userID)
	if err != nil {
		return nil, err
	}
	return ExportResultsCSV(rs)
}

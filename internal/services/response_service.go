package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/soaringjerry/mindbridge/internal/models"
)

// ResponseService is the answer ledger: one live answer per question index,
// last write wins, writable until the session completes.
type ResponseService struct {
	sessions SessionStore
	store    ResponseStore
	now      func() time.Time
	idGen    func() string
}

// NewResponseService constructs a ledger bound to the provided persistence interfaces.
func NewResponseService(sessions SessionStore, store ResponseStore) *ResponseService {
	return &ResponseService{
		sessions: sessions,
		store:    store,
		now:      func() time.Time { return time.Now().UTC() },
		idGen:    newID,
	}
}

// RecordAnswer validates and upserts a single answer.
func (s *ResponseService) RecordAnswer(ctx context.Context, userID string, req AnswerRequest) (*models.Response, error) {
	if req.Response < MinResponse || req.Response > MaxResponse {
		return nil, NewInvalidError(fmt.Sprintf("response must be between %d and %d", MinResponse, MaxResponse))
	}
	sess, err := loadOwnedSession(ctx, s.sessions, req.SessionID, userID)
	if err != nil {
		return nil, err
	}
	if req.QuestionIndex < 0 || req.QuestionIndex >= sess.TotalQuestions {
		return nil, NewInvalidError(fmt.Sprintf("question_index must be within [0, %d)", sess.TotalQuestions))
	}
	if sess.IsCompleted {
		return nil, NewPreconditionError("session already completed")
	}
	resp := &models.Response{
		ID:            s.idGen(),
		SessionID:     sess.ID,
		QuestionIndex: req.QuestionIndex,
		QuestionText:  req.QuestionText,
		Response:      req.Response,
		Trait:         strings.TrimSpace(req.Trait),
		CreatedAt:     s.now(),
	}
	stored, err := s.store.UpsertResponse(ctx, resp)
	if err != nil {
		return nil, fmt.Errorf("upsert response: %w", err)
	}
	if stored == nil {
		return resp, nil
	}
	return stored, nil
}

// ListAnswers returns the ledger ordered by question index.
func (s *ResponseService) ListAnswers(ctx context.Context, sessionID, userID string) ([]*models.Response, error) {
	sess, err := loadOwnedSession(ctx, s.sessions, sessionID, userID)
	if err != nil {
		return nil, err
	}
	rs, err := s.store.ListResponses(ctx, sess.ID)
	if err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}
	return rs, nil
}

// ExportAnswersCSV renders the ledger in long format.
func (s *ResponseService) ExportAnswersCSV(ctx context.Context, sessionID, userID string) ([]byte, error) {
	rs, err := s.ListAnswers(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}
	rows := make([]LongRow, 0, len(rs))
	for _, r := range rs {
		rows = append(rows, LongRow{
			SessionID:     r.SessionID,
			QuestionIndex: r.QuestionIndex,
			Trait:         r.Trait,
			Response:      r.Response,
			QuestionText:  r.QuestionText,
			SubmittedAt:   r.CreatedAt.Format(time.RFC3339),
		})
	}
	return ExportLongCSV(rows)
}

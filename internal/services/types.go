package services

import (
	"context"
	"time"

	"github.com/soaringjerry/mindbridge/internal/models"
)

// TestCatalog resolves catalog entries. *catalog.Catalog satisfies it.
type TestCatalog interface {
	Test(id string) *models.Test
	Tests() []*models.Test
}

// SessionUpdate describes a position change and optional completion.
// Stores must never clear completion: once IsCompleted is true it stays
// true and CompletedAt keeps its first value.
type SessionUpdate struct {
	CurrentQuestion *int
	CompletedAt     *time.Time
}

// SessionStore persists sessions. Get methods return (nil, nil) for missing rows.
type SessionStore interface {
	InsertSession(ctx context.Context, s *models.Session) error
	GetSession(ctx context.Context, id string) (*models.Session, error)
	UpdateSession(ctx context.Context, id string, upd SessionUpdate) (*models.Session, error)
	ListSessionsByUser(ctx context.Context, userID string) ([]*models.Session, error)
}

// ResponseStore is the answer ledger.
type ResponseStore interface {
	// UpsertResponse replaces any answer at (SessionID, QuestionIndex).
	UpsertResponse(ctx context.Context, r *models.Response) (*models.Response, error)
	// ListResponses orders by QuestionIndex ascending.
	ListResponses(ctx context.Context, sessionID string) ([]*models.Response, error)
}

// ResultStore keeps immutable scoring results.
type ResultStore interface {
	// CreateResultOnce stores r unless the session already has a result,
	// in which case the existing one is returned with created=false.
	CreateResultOnce(ctx context.Context, r *models.Result) (stored *models.Result, created bool, err error)
	GetResultBySession(ctx context.Context, sessionID string) (*models.Result, error)
	// LatestResult filters by testType when it is non-empty.
	LatestResult(ctx context.Context, userID, testType string) (*models.Result, error)
	ListResults(ctx context.Context, userID string) ([]*models.Result, error)
}

type AuthStore interface {
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
	AddUser(ctx context.Context, u *models.User) error
}

type ChatStore interface {
	AddChatMessage(ctx context.Context, m *models.ChatMessage) error
	// ListChatMessages returns the newest messages first.
	ListChatMessages(ctx context.Context, userID string, limit int) ([]*models.ChatMessage, error)
}

// AdvanceRequest mirrors the session PATCH payload.
type AdvanceRequest struct {
	CurrentQuestion int
	Complete        bool
	CompletedAt     *time.Time
}

// AnswerRequest carries one answer. The caller resolves QuestionText and
// Trait from the catalog.
type AnswerRequest struct {
	SessionID     string
	QuestionIndex int
	QuestionText  string
	Response      int
	Trait         string
}

// ResumeState is everything a client needs to redraw a paused test.
type ResumeState struct {
	Session   *models.Session    `json:"session"`
	Responses []*models.Response `json:"responses"`
	// Question is nil once the pointer has moved past the last question.
	Question *models.Question `json:"question,omitempty"`
	// Selected is the answer already on file for Question, if any.
	Selected *int `json:"selected,omitempty"`
}

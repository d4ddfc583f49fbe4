package services

import (
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/soaringjerry/mindbridge/internal/catalog"
	"github.com/soaringjerry/mindbridge/internal/models"
)

// ledgerStub implements every store interface the services need.
type ledgerStub struct {
	mu        sync.Mutex
	sessions  map[string]*models.Session
	responses map[string]map[int]*models.Response
	results   []*models.Result
	chat      []*models.ChatMessage

	failGet error
}

func newLedgerStub() *ledgerStub {
	return &ledgerStub{
		sessions:  map[string]*models.Session{},
		responses: map[string]map[int]*models.Response{},
	}
}

func (s *ledgerStub) InsertSession(_ context.Context, sess *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *sess
	s.sessions[sess.ID] = &cp
	return nil
}

func (s *ledgerStub) GetSession(_ context.Context, id string) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failGet != nil {
		return nil, s.failGet
	}
	sess, ok := s.sessions[id]
	if !ok {
		return nil, nil
	}
	cp := *sess
	return &cp, nil
}

func (s *ledgerStub) UpdateSession(_ context.Context, id string, upd SessionUpdate) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, nil
	}
	if upd.CurrentQuestion != nil {
		sess.CurrentQuestion = *upd.CurrentQuestion
	}
	if upd.CompletedAt != nil && !sess.IsCompleted {
		at := *upd.CompletedAt
		sess.IsCompleted = true
		sess.CompletedAt = &at
	}
	cp := *sess
	return &cp, nil
}

func (s *ledgerStub) ListSessionsByUser(_ context.Context, userID string) ([]*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Session
	for _, sess := range s.sessions {
		if sess.UserID == userID {
			cp := *sess
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	return out, nil
}

func (s *ledgerStub) UpsertResponse(_ context.Context, r *models.Response) (*models.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.responses[r.SessionID]
	if !ok {
		m = map[int]*models.Response{}
		s.responses[r.SessionID] = m
	}
	cp := *r
	if prev, ok := m[r.QuestionIndex]; ok {
		cp.ID = prev.ID
	}
	m[r.QuestionIndex] = &cp
	out := cp
	return &out, nil
}

func (s *ledgerStub) ListResponses(_ context.Context, sessionID string) ([]*models.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Response
	for _, r := range s.responses[sessionID] {
		cp := *r
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QuestionIndex < out[j].QuestionIndex })
	return out, nil
}

func (s *ledgerStub) CreateResultOnce(_ context.Context, r *models.Result) (*models.Result, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.results {
		if existing.SessionID == r.SessionID {
			cp := *existing
			return &cp, false, nil
		}
	}
	cp := *r
	s.results = append(s.results, &cp)
	out := cp
	return &out, true, nil
}

func (s *ledgerStub) GetResultBySession(_ context.Context, sessionID string) (*models.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.results {
		if r.SessionID == sessionID {
			cp := *r
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *ledgerStub) LatestResult(_ context.Context, userID, testType string) (*models.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var latest *models.Result
	for _, r := range s.results {
		if r.UserID != userID || (testType != "" && r.TestType != testType) {
			continue
		}
		if latest == nil || r.CreatedAt.After(latest.CreatedAt) {
			latest = r
		}
	}
	if latest == nil {
		return nil, nil
	}
	cp := *latest
	return &cp, nil
}

func (s *ledgerStub) ListResults(_ context.Context, userID string) ([]*models.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Result
	for _, r := range s.results {
		if r.UserID == userID {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *ledgerStub) AddChatMessage(_ context.Context, m *models.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *m
	s.chat = append(s.chat, &cp)
	return nil
}

func (s *ledgerStub) ListChatMessages(_ context.Context, userID string, limit int) ([]*models.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.ChatMessage
	for i := len(s.chat) - 1; i >= 0; i-- {
		if s.chat[i].UserID == userID {
			cp := *s.chat[i]
			out = append(out, &cp)
			if limit > 0 && len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.Default()
	if err != nil {
		t.Fatalf("default catalog: %v", err)
	}
	return c
}

package api

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/soaringjerry/mindbridge/internal/models"
	"github.com/soaringjerry/mindbridge/internal/services"
)

type memoryStore struct {
	mu        sync.RWMutex
	sessions  map[string]*models.Session
	responses map[string]map[int]*models.Response
	results   []*models.Result
	bySession map[string]*models.Result
	users     map[string]*models.User
	byEmail   map[string]*models.User
	chat      []*models.ChatMessage
}

// NewMemoryStore returns a process-local Store. Every read hands out copies,
// so callers may mutate what they get back.
func NewMemoryStore() Store {
	return newMemoryStore()
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		sessions:  map[string]*models.Session{},
		responses: map[string]map[int]*models.Response{},
		bySession: map[string]*models.Result{},
		users:     map[string]*models.User{},
		byEmail:   map[string]*models.User{},
	}
}

func copySession(s *models.Session) *models.Session {
	cp := *s
	if s.CompletedAt != nil {
		at := *s.CompletedAt
		cp.CompletedAt = &at
	}
	return &cp
}

func copyResult(r *models.Result) *models.Result {
	cp := *r
	cp.Scores = make(map[string]float64, len(r.Scores))
	for k, v := range r.Scores {
		cp.Scores[k] = v
	}
	return &cp
}

func (s *memoryStore) InsertSession(_ context.Context, sess *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sess.ID]; ok {
		return services.NewConflictError("session exists")
	}
	s.sessions[sess.ID] = copySession(sess)
	return nil
}

func (s *memoryStore) GetSession(_ context.Context, id string) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, nil
	}
	return copySession(sess), nil
}

func (s *memoryStore) UpdateSession(_ context.Context, id string, upd services.SessionUpdate) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, nil
	}
	if upd.CurrentQuestion != nil {
		sess.CurrentQuestion = *upd.CurrentQuestion
	}
	// completion is one-way
	if upd.CompletedAt != nil && !sess.IsCompleted {
		at := *upd.CompletedAt
		sess.IsCompleted = true
		sess.CompletedAt = &at
	}
	return copySession(sess), nil
}

func (s *memoryStore) ListSessionsByUser(_ context.Context, userID string) ([]*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*models.Session{}
	for _, sess := range s.sessions {
		if sess.UserID == userID {
			out = append(out, copySession(sess))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].StartedAt.After(out[j].StartedAt)
	})
	return out, nil
}

func (s *memoryStore) UpsertResponse(_ context.Context, r *models.Response) (*models.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ledger, ok := s.responses[r.SessionID]
	if !ok {
		ledger = map[int]*models.Response{}
		s.responses[r.SessionID] = ledger
	}
	cp := *r
	if prev, ok := ledger[r.QuestionIndex]; ok {
		cp.ID = prev.ID
	}
	ledger[r.QuestionIndex] = &cp
	out := cp
	return &out, nil
}

func (s *memoryStore) ListResponses(_ context.Context, sessionID string) ([]*models.Response, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ledger := s.responses[sessionID]
	out := make([]*models.Response, 0, len(ledger))
	for _, r := range ledger {
		cp := *r
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QuestionIndex < out[j].QuestionIndex })
	return out, nil
}

func (s *memoryStore) CreateResultOnce(_ context.Context, r *models.Result) (*models.Result, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.bySession[r.SessionID]; ok {
		return copyResult(existing), false, nil
	}
	stored := copyResult(r)
	s.results = append(s.results, stored)
	s.bySession[r.SessionID] = stored
	return copyResult(stored), true, nil
}

func (s *memoryStore) GetResultBySession(_ context.Context, sessionID string) (*models.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if r, ok := s.bySession[sessionID]; ok {
		return copyResult(r), nil
	}
	return nil, nil
}

func (s *memoryStore) LatestResult(_ context.Context, userID, testType string) (*models.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var latest *models.Result
	// results is append-only, so on equal timestamps the later insert wins
	for _, r := range s.results {
		if r.UserID != userID || (testType != "" && r.TestType != testType) {
			continue
		}
		if latest == nil || !r.CreatedAt.Before(latest.CreatedAt) {
			latest = r
		}
	}
	if latest == nil {
		return nil, nil
	}
	return copyResult(latest), nil
}

func (s *memoryStore) ListResults(_ context.Context, userID string) ([]*models.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*models.Result{}
	for i := len(s.results) - 1; i >= 0; i-- {
		if s.results[i].UserID == userID {
			out = append(out, copyResult(s.results[i]))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *memoryStore) FindUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if u, ok := s.byEmail[strings.ToLower(email)]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (s *memoryStore) GetUser(_ context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if u, ok := s.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (s *memoryStore) AddUser(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	email := strings.ToLower(u.Email)
	if _, ok := s.byEmail[email]; ok {
		return services.NewConflictError("email exists")
	}
	cp := *u
	s.users[u.ID] = &cp
	s.byEmail[email] = &cp
	return nil
}

func (s *memoryStore) AddChatMessage(_ context.Context, m *models.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *m
	s.chat = append(s.chat, &cp)
	return nil
}

func (s *memoryStore) ListChatMessages(_ context.Context, userID string, limit int) ([]*models.ChatMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*models.ChatMessage{}
	for i := len(s.chat) - 1; i >= 0; i-- {
		if s.chat[i].UserID != userID {
			continue
		}
		cp := *s.chat[i]
		out = append(out, &cp)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

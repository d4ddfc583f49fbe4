package llm

import (
	"context"
	"sync"
)

// MockProvider replays canned replies in order and records every request.
// When the queue is empty it answers with Fallback, or Err when set.
type MockProvider struct {
	mu       sync.Mutex
	replies  []string
	Fallback string
	Err      error
	Calls    []Request
}

func NewMockProvider(replies ...string) *MockProvider {
	return &MockProvider{replies: replies, Fallback: "mock reply"}
}

func (m *MockProvider) Generate(_ context.Context, req Request) (*Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, req)
	if m.Err != nil {
		return nil, m.Err
	}
	text := m.Fallback
	if len(m.replies) > 0 {
		text = m.replies[0]
		m.replies = m.replies[1:]
	}
	return &Response{Text: text, Model: "mock"}, nil
}

func (m *MockProvider) ModelID() string { return "mock" }

// CallCount is safe to read while requests are in flight.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

type disabledProvider struct{}

func (disabledProvider) Generate(context.Context, Request) (*Response, error) {
	return nil, ErrDisabled
}

func (disabledProvider) ModelID() string { return "none" }

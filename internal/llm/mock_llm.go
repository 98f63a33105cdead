package llm

import (
	"context"
	"sync"
)

// MockClient is a scripted Client for tests.
type MockClient struct {
	// Respond produces the reply for a request. When nil, Response and Err are returned.
	Respond  func(ctx context.Context, req Request) (string, error)
	Err      error
	Response string
	calls    []Request
	mu       sync.Mutex
}

// Complete implements Client.
func (m *MockClient) Complete(ctx context.Context, req Request) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, req)
	respond := m.Respond
	m.mu.Unlock()

	if respond != nil {
		return respond(ctx, req)
	}
	return m.Response, m.Err
}

// Calls returns the requests received so far.
func (m *MockClient) Calls() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Request, len(m.calls))
	copy(out, m.calls)
	return out
}

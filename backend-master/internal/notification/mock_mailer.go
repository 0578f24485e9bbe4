package notification

import (
	"context"
	"errors"
	"sync"
)

// ErrMockMailFailure is returned when MockMailer is configured to fail
var ErrMockMailFailure = errors.New("mock mail failure")

// MockMailer records messages instead of sending them
type MockMailer struct {
	mu       sync.Mutex
	messages []*Message

	ShouldFail bool
	// FailFor fails only messages addressed to these recipients
	FailFor map[string]bool
}

// NewMockMailer creates a new MockMailer
func NewMockMailer() *MockMailer {
	return &MockMailer{FailFor: make(map[string]bool)}
}

func (m *MockMailer) Send(ctx context.Context, msg *Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ShouldFail || m.FailFor[msg.To] {
		return ErrMockMailFailure
	}
	m.messages = append(m.messages, msg)
	return nil
}

// Messages returns the recorded messages
func (m *MockMailer) Messages() []*Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Message, len(m.messages))
	copy(out, m.messages)
	return out
}

package notification

import "sync"

// MockNotifier records notifications instead of delivering them. Used in
// tests and the in-memory demo server.
type MockNotifier struct {
	mutex sync.Mutex
	sent  []Data
}

// NewMockNotifier creates a new mock notifier
func NewMockNotifier() *MockNotifier {
	return &MockNotifier{}
}

// Send records the notification
func (m *MockNotifier) Send(data Data) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.sent = append(m.sent, data)
	return nil
}

// Sent returns a copy of everything recorded so far
func (m *MockNotifier) Sent() []Data {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	out := make([]Data, len(m.sent))
	copy(out, m.sent)
	return out
}

package client

import (
	"sync"
)

// MockRealtime is a test implementation of RealtimeInterface
type MockRealtime struct {
	mu sync.RWMutex

	connected  bool
	closed     bool
	connectErr error

	events      chan Event
	stateChange chan ConnectionStateUpdate
}

// NewMockRealtime creates a new mock feed
func NewMockRealtime() *MockRealtime {
	return &MockRealtime{
		events:      make(chan Event, 100),
		stateChange: make(chan ConnectionStateUpdate, 10),
	}
}

// Connect simulates connecting
func (m *MockRealtime) Connect() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.connectErr != nil {
		return m.connectErr
	}
	m.connected = true
	return nil
}

// Close closes the channels
func (m *MockRealtime) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.closed = true
	m.connected = false
	close(m.events)
	close(m.stateChange)
}

// IsConnected returns the connection status
func (m *MockRealtime) IsConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connected
}

// Events returns the event channel
func (m *MockRealtime) Events() <-chan Event {
	return m.events
}

// StateChanges returns the state channel
func (m *MockRealtime) StateChanges() <-chan ConnectionStateUpdate {
	return m.stateChange
}

// Push delivers an event as if the server sent it
func (m *MockRealtime) Push(event Event) {
	m.events <- event
}

// PushState delivers a state change
func (m *MockRealtime) PushState(update ConnectionStateUpdate) {
	m.stateChange <- update
}

// SetConnectError makes Connect fail
func (m *MockRealtime) SetConnectError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connectErr = err
}

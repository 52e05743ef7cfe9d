package client

import (
	"sync"
)

// MockState is an in-memory test implementation of StateInterface
type MockState struct {
	mu sync.RWMutex

	config map[string]string
	drafts map[string]string
	dir    string

	// Error injection
	getConfigErr error
	setConfigErr error
	draftErr     error
}

// NewMockState creates a new mock state
func NewMockState() *MockState {
	return &MockState{
		config: make(map[string]string),
		drafts: make(map[string]string),
		dir:    "/tmp/mock-state",
	}
}

// GetConfig retrieves a configuration value
func (s *MockState) GetConfig(key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.getConfigErr != nil {
		return "", s.getConfigErr
	}
	return s.config[key], nil
}

// SetConfig stores a configuration value
func (s *MockState) SetConfig(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.setConfigErr != nil {
		return s.setConfigErr
	}
	s.config[key] = value
	return nil
}

// GetLastRoomID returns the remembered room
func (s *MockState) GetLastRoomID() string {
	roomID, _ := s.GetConfig("last_room_id")
	return roomID
}

// SetLastRoomID remembers the active room
func (s *MockState) SetLastRoomID(roomID string) error {
	return s.SetConfig("last_room_id", roomID)
}

// GetDraft returns a stored draft
func (s *MockState) GetDraft(roomID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.draftErr != nil {
		return "", s.draftErr
	}
	return s.drafts[roomID], nil
}

// SaveDraft stores a draft; blank content deletes it
func (s *MockState) SaveDraft(roomID, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.draftErr != nil {
		return s.draftErr
	}
	if content == "" {
		delete(s.drafts, roomID)
		return nil
	}
	s.drafts[roomID] = content
	return nil
}

// GetStateDir returns the mock state directory
func (s *MockState) GetStateDir() string {
	return s.dir
}

// Close is a no-op
func (s *MockState) Close() error {
	return nil
}

// SetGetConfigError injects an error for GetConfig
func (s *MockState) SetGetConfigError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getConfigErr = err
}

// SetSetConfigError injects an error for SetConfig
func (s *MockState) SetSetConfigError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setConfigErr = err
}

// SetDraftError injects an error for draft reads and writes
func (s *MockState) SetDraftError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draftErr = err
}

package client

import (
	"context"

	"github.com/aeolun/crewchat/pkg/chat"
)

// Backend is the chat REST API as the Conversation View consumes it.
// The real APIClient and the in-memory MockBackend both implement it.
type Backend interface {
	// Rooms
	ListRooms(ctx context.Context) ([]chat.Room, error)
	GetRoom(ctx context.Context, roomID string) (chat.Room, error)
	CreateDirectRoom(ctx context.Context, userID string) (chat.Room, error)
	CreateGroup(ctx context.Context, name string, memberIDs []string) (chat.Room, error)
	DeleteGroup(ctx context.Context, roomID string) error

	// Membership
	AddMembers(ctx context.Context, roomID string, memberIDs []string) error
	RemoveMember(ctx context.Context, roomID, userID string) error

	// Messages
	ListMessages(ctx context.Context, roomID string) ([]chat.Message, error)
	SendMessage(ctx context.Context, roomID string, msg OutgoingMessage) (chat.Message, error)
	DeleteMessage(ctx context.Context, messageID string) error

	// Directory
	ListUsers(ctx context.Context) ([]chat.User, error)
}

// RealtimeInterface is the push feed of change events.
// This allows for mocking in tests while the real Realtime implements all these methods
type RealtimeInterface interface {
	Connect() error
	Close()
	IsConnected() bool

	Events() <-chan Event
	StateChanges() <-chan ConnectionStateUpdate
}

// StateInterface defines the interface for client state persistence
type StateInterface interface {
	// Configuration
	GetConfig(key string) (string, error)
	SetConfig(key, value string) error

	// Selection restore
	GetLastRoomID() string
	SetLastRoomID(roomID string) error

	// Per-room composer drafts
	GetDraft(roomID string) (string, error)
	SaveDraft(roomID, content string) error

	GetStateDir() string
	Close() error
}

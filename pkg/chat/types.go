package chat

import (
	"fmt"
	"strings"
	"time"
)

// MessageKind identifies how a message payload is interpreted
type MessageKind string

const (
	KindText  MessageKind = "text"
	KindVoice MessageKind = "voice"
	KindFile  MessageKind = "file"
)

// String returns the wire name of the kind
func (k MessageKind) String() string {
	return string(k)
}

// ParseMessageKind converts a wire name into a MessageKind
func ParseMessageKind(s string) (MessageKind, error) {
	switch MessageKind(strings.ToLower(strings.TrimSpace(s))) {
	case KindText:
		return KindText, nil
	case KindVoice:
		return KindVoice, nil
	case KindFile:
		return KindFile, nil
	}
	return "", fmt.Errorf("unknown message kind %q", s)
}

// User is a person known to the chat service. Read-only from the client's side.
type User struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// DisplayName joins the name parts, falling back to email and then id
func (u User) DisplayName() string {
	name := strings.TrimSpace(strings.Join(nonEmpty(u.FirstName, u.LastName), " "))
	if name != "" {
		return name
	}
	if u.Email != "" {
		return u.Email
	}
	return u.ID
}

func nonEmpty(parts ...string) []string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Message is a single chat message. Messages never change after creation; they can only be deleted.
type Message struct {
	ID        string      `json:"id"`
	RoomID    string      `json:"room_id"`
	SenderID  string      `json:"sender_id"`
	Sender    *User       `json:"sender,omitempty"`
	Kind      MessageKind `json:"kind"`
	Content   string      `json:"content,omitempty"`
	MediaURL  string      `json:"media_url,omitempty"`
	FileName  string      `json:"file_name,omitempty"`
	MimeType  string      `json:"mime_type,omitempty"`
	Size      int64       `json:"size,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

// SenderName returns the sender's display name if the backend embedded it
func (m Message) SenderName() string {
	if m.Sender != nil {
		return m.Sender.DisplayName()
	}
	return m.SenderID
}

// Preview returns a one-line summary used in room lists and notifications
func (m Message) Preview() string {
	switch m.Kind {
	case KindVoice:
		return "Voice message"
	case KindFile:
		if m.FileName != "" {
			return "File: " + m.FileName
		}
		return "File"
	default:
		return strings.Join(strings.Fields(m.Content), " ")
	}
}

// Room is a conversation: either a 1:1 room between two users or a named group
type Room struct {
	ID          string    `json:"id"`
	Name        string    `json:"name,omitempty"`
	IsGroup     bool      `json:"is_group"`
	OwnerID     string    `json:"owner_id,omitempty"`
	Members     []User    `json:"members"`
	LastMessage *Message  `json:"last_message,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// DisplayName returns the group name, or the other participant's name for 1:1 rooms
func (r Room) DisplayName(selfID string) string {
	if r.IsGroup {
		return r.Name
	}
	for _, member := range r.Members {
		if member.ID != selfID {
			return member.DisplayName()
		}
	}
	if r.Name != "" {
		return r.Name
	}
	return "(empty conversation)"
}

// HasMember reports whether userID is in the member set
func (r Room) HasMember(userID string) bool {
	for _, member := range r.Members {
		if member.ID == userID {
			return true
		}
	}
	return false
}

// MemberIDs returns the member ids in member order
func (r Room) MemberIDs() []string {
	ids := make([]string, 0, len(r.Members))
	for _, member := range r.Members {
		ids = append(ids, member.ID)
	}
	return ids
}

// Owner returns the owning member of a group room
func (r Room) Owner() (User, bool) {
	if !r.IsGroup {
		return User{}, false
	}
	for _, member := range r.Members {
		if member.ID == r.OwnerID {
			return member, true
		}
	}
	return User{}, false
}

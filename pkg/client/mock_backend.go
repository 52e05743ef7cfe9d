package client

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/aeolun/crewchat/pkg/chat"
)

// MockCall records one Backend call for verification
type MockCall struct {
	Op   string
	Args []string
}

// MockBackend is an in-memory Backend. It applies the same ownership and membership rules
// the real service does, so UI tests and demo mode see realistic failures.
type MockBackend struct {
	mu sync.Mutex

	self     chat.User
	users    []chat.User
	rooms    []chat.Room
	messages map[string][]chat.Message
	nextID   int
	now      func() time.Time

	// Error injection by operation name (e.g. "ListMessages")
	errs map[string]error

	Calls []MockCall
}

// NewMockBackend creates a backend acting as self. users is the directory; self is added if missing.
func NewMockBackend(self chat.User, users ...chat.User) *MockBackend {
	b := &MockBackend{
		self:     self,
		messages: make(map[string][]chat.Message),
		errs:     make(map[string]error),
		now:      time.Now,
	}
	b.users = append(b.users, self)
	for _, u := range users {
		if u.ID != self.ID {
			b.users = append(b.users, u)
		}
	}
	return b
}

// SetClock replaces the time source used for new rooms and messages
func (b *MockBackend) SetClock(now func() time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.now = now
}

// SetError makes op fail with err until cleared with a nil err
func (b *MockBackend) SetError(op string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err == nil {
		delete(b.errs, op)
		return
	}
	b.errs[op] = err
}

// AddRoom seeds a room
func (b *MockBackend) AddRoom(room chat.Room) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rooms = append(b.rooms, cloneRoom(room))
}

// AddMessage seeds a message at the end of its room's history
func (b *MockBackend) AddMessage(msg chat.Message) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.messages[msg.RoomID] = append(b.messages[msg.RoomID], msg)
}

// Room returns the stored room
func (b *MockBackend) Room(roomID string) (chat.Room, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if idx := b.roomIndex(roomID); idx >= 0 {
		return cloneRoom(b.rooms[idx]), true
	}
	return chat.Room{}, false
}

// Messages returns the stored messages of a room
func (b *MockBackend) Messages(roomID string) []chat.Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]chat.Message(nil), b.messages[roomID]...)
}

// CallsFor returns the recorded calls of one operation
func (b *MockBackend) CallsFor(op string) []MockCall {
	b.mu.Lock()
	defer b.mu.Unlock()
	var calls []MockCall
	for _, c := range b.Calls {
		if c.Op == op {
			calls = append(calls, c)
		}
	}
	return calls
}

// begin records the call and returns any injected error. Callers hold b.mu.
func (b *MockBackend) begin(op string, args ...string) error {
	b.Calls = append(b.Calls, MockCall{Op: op, Args: args})
	return b.errs[op]
}

func (b *MockBackend) id(prefix string) string {
	b.nextID++
	return fmt.Sprintf("%s-%d", prefix, b.nextID)
}

func (b *MockBackend) roomIndex(roomID string) int {
	for i, r := range b.rooms {
		if r.ID == roomID {
			return i
		}
	}
	return -1
}

func (b *MockBackend) user(userID string) (chat.User, bool) {
	for _, u := range b.users {
		if u.ID == userID {
			return u, true
		}
	}
	return chat.User{}, false
}

func notFound(what string) error {
	return &APIError{Status: http.StatusNotFound, Message: what + " not found"}
}

func forbidden(err error) error {
	return &APIError{Status: http.StatusForbidden, Message: err.Error()}
}

func badRequest(err error) error {
	return &APIError{Status: http.StatusBadRequest, Message: err.Error()}
}

func cloneRoom(r chat.Room) chat.Room {
	r.Members = append([]chat.User(nil), r.Members...)
	return r
}

// withLastMessage fills in the list preview. Callers hold b.mu.
func (b *MockBackend) withLastMessage(r chat.Room) chat.Room {
	r = cloneRoom(r)
	if msgs := b.messages[r.ID]; len(msgs) > 0 {
		last := msgs[len(msgs)-1]
		r.LastMessage = &last
	} else {
		r.LastMessage = nil
	}
	return r
}

// ListRooms returns the rooms self belongs to
func (b *MockBackend) ListRooms(ctx context.Context) ([]chat.Room, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.begin("ListRooms"); err != nil {
		return nil, err
	}
	rooms := make([]chat.Room, 0, len(b.rooms))
	for _, r := range b.rooms {
		if r.HasMember(b.self.ID) {
			rooms = append(rooms, b.withLastMessage(r))
		}
	}
	return rooms, nil
}

// GetRoom returns one room
func (b *MockBackend) GetRoom(ctx context.Context, roomID string) (chat.Room, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.begin("GetRoom", roomID); err != nil {
		return chat.Room{}, err
	}
	idx := b.roomIndex(roomID)
	if idx < 0 || !b.rooms[idx].HasMember(b.self.ID) {
		return chat.Room{}, notFound("room")
	}
	return b.withLastMessage(b.rooms[idx]), nil
}

// CreateDirectRoom returns the existing 1:1 room with userID or creates one
func (b *MockBackend) CreateDirectRoom(ctx context.Context, userID string) (chat.Room, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.begin("CreateDirectRoom", userID); err != nil {
		return chat.Room{}, err
	}
	other, ok := b.user(userID)
	if !ok || userID == b.self.ID {
		return chat.Room{}, notFound("user")
	}
	for _, r := range b.rooms {
		if !r.IsGroup && len(r.Members) == 2 && r.HasMember(b.self.ID) && r.HasMember(userID) {
			return b.withLastMessage(r), nil
		}
	}
	room := chat.Room{
		ID:        b.id("room"),
		Members:   []chat.User{b.self, other},
		CreatedAt: b.now(),
	}
	b.rooms = append(b.rooms, room)
	return cloneRoom(room), nil
}

// CreateGroup creates a group owned by self
func (b *MockBackend) CreateGroup(ctx context.Context, name string, memberIDs []string) (chat.Room, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.begin("CreateGroup", append([]string{name}, memberIDs...)...); err != nil {
		return chat.Room{}, err
	}
	if err := chat.ValidateGroup(name, memberIDs, b.self.ID); err != nil {
		return chat.Room{}, badRequest(err)
	}
	members := []chat.User{b.self}
	for _, id := range chat.NormalizeMembers(memberIDs, b.self.ID) {
		u, ok := b.user(id)
		if !ok {
			return chat.Room{}, notFound("user " + id)
		}
		members = append(members, u)
	}
	room := chat.Room{
		ID:        b.id("room"),
		Name:      strings.TrimSpace(name),
		IsGroup:   true,
		OwnerID:   b.self.ID,
		Members:   members,
		CreatedAt: b.now(),
	}
	b.rooms = append(b.rooms, room)
	return cloneRoom(room), nil
}

// DeleteGroup removes a group and its messages; owner only
func (b *MockBackend) DeleteGroup(ctx context.Context, roomID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.begin("DeleteGroup", roomID); err != nil {
		return err
	}
	idx := b.roomIndex(roomID)
	if idx < 0 {
		return notFound("room")
	}
	room := b.rooms[idx]
	if !room.IsGroup {
		return badRequest(chat.ErrNotGroup)
	}
	if !chat.CanDeleteGroup(room, b.self) {
		return forbidden(chat.ErrNotOwner)
	}
	b.rooms = append(b.rooms[:idx], b.rooms[idx+1:]...)
	delete(b.messages, roomID)
	return nil
}

// AddMembers adds users to a group; owner only
func (b *MockBackend) AddMembers(ctx context.Context, roomID string, memberIDs []string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.begin("AddMembers", append([]string{roomID}, memberIDs...)...); err != nil {
		return err
	}
	idx := b.roomIndex(roomID)
	if idx < 0 {
		return notFound("room")
	}
	room := &b.rooms[idx]
	if !room.IsGroup {
		return badRequest(chat.ErrNotGroup)
	}
	if !chat.CanManageMembers(*room, b.self) {
		return forbidden(chat.ErrNotOwner)
	}
	for _, id := range memberIDs {
		if room.HasMember(id) {
			continue
		}
		u, ok := b.user(id)
		if !ok {
			return notFound("user " + id)
		}
		room.Members = append(room.Members, u)
	}
	return nil
}

// RemoveMember removes a non-owner member from a group; owner only
func (b *MockBackend) RemoveMember(ctx context.Context, roomID, userID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.begin("RemoveMember", roomID, userID); err != nil {
		return err
	}
	idx := b.roomIndex(roomID)
	if idx < 0 {
		return notFound("room")
	}
	room := &b.rooms[idx]
	if !room.IsGroup {
		return badRequest(chat.ErrNotGroup)
	}
	if !room.HasMember(userID) {
		return notFound("member")
	}
	if !chat.CanRemoveMember(*room, b.self, userID) {
		return forbidden(chat.ErrNotOwner)
	}
	members := room.Members[:0]
	for _, m := range room.Members {
		if m.ID != userID {
			members = append(members, m)
		}
	}
	room.Members = members
	return nil
}

// ListMessages returns a room's messages in insertion order
func (b *MockBackend) ListMessages(ctx context.Context, roomID string) ([]chat.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.begin("ListMessages", roomID); err != nil {
		return nil, err
	}
	idx := b.roomIndex(roomID)
	if idx < 0 || !b.rooms[idx].HasMember(b.self.ID) {
		return nil, notFound("room")
	}
	msgs := append([]chat.Message{}, b.messages[roomID]...)
	return msgs, nil
}

// SendMessage appends a message from self
func (b *MockBackend) SendMessage(ctx context.Context, roomID string, out OutgoingMessage) (chat.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.begin("SendMessage", roomID, out.Kind.String(), out.Content, out.FileName); err != nil {
		return chat.Message{}, err
	}
	if err := out.Validate(); err != nil {
		return chat.Message{}, badRequest(err)
	}
	idx := b.roomIndex(roomID)
	if idx < 0 {
		return chat.Message{}, notFound("room")
	}
	if !b.rooms[idx].HasMember(b.self.ID) {
		return chat.Message{}, forbidden(chat.ErrNotMember)
	}

	self := b.self
	msg := chat.Message{
		ID:        b.id("msg"),
		RoomID:    roomID,
		SenderID:  self.ID,
		Sender:    &self,
		Kind:      out.Kind,
		Content:   strings.TrimSpace(out.Content),
		CreatedAt: b.now(),
	}
	if out.Kind != chat.KindText {
		msg.Content = ""
		msg.FileName = out.FileName
		msg.MimeType = out.MimeType
		if msg.MimeType == "" {
			msg.MimeType = chat.MimeTypeFor(out.FileName)
		}
		msg.Size = int64(len(out.Data))
		msg.MediaURL = fmt.Sprintf("https://files.crewchat.invalid/%s/%s", msg.ID, out.FileName)
	}
	b.messages[roomID] = append(b.messages[roomID], msg)
	return msg, nil
}

// DeleteMessage removes a message sent by self
func (b *MockBackend) DeleteMessage(ctx context.Context, messageID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.begin("DeleteMessage", messageID); err != nil {
		return err
	}
	for roomID, msgs := range b.messages {
		for i, m := range msgs {
			if m.ID != messageID {
				continue
			}
			if !chat.CanDeleteMessage(m, b.self) {
				return forbidden(chat.ErrNotSender)
			}
			b.messages[roomID] = append(msgs[:i:i], msgs[i+1:]...)
			return nil
		}
	}
	return notFound("message")
}

// ListUsers returns the whole directory, self included
func (b *MockBackend) ListUsers(ctx context.Context) ([]chat.User, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.begin("ListUsers"); err != nil {
		return nil, err
	}
	return append([]chat.User{}, b.users...), nil
}

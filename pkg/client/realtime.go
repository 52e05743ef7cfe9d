package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/aeolun/crewchat/pkg/chat"
	"github.com/gorilla/websocket"
)

// ConnectionStateType represents the realtime feed status
type ConnectionStateType int

const (
	StateTypeConnected ConnectionStateType = iota
	StateTypeDisconnected
	StateTypeReconnecting
)

// ConnectionStateUpdate represents a connection state change
type ConnectionStateUpdate struct {
	State   ConnectionStateType
	Attempt int
	Err     error
}

// EventType names a change pushed by the server
type EventType string

const (
	EventMessageNew     EventType = "message.new"
	EventMessageDeleted EventType = "message.deleted"
	EventRoomCreated    EventType = "room.created"
	EventRoomUpdated    EventType = "room.updated"
	EventRoomDeleted    EventType = "room.deleted"
	EventMemberAdded    EventType = "room.member_added"
	EventMemberRemoved  EventType = "room.member_removed"
)

// Event is a decoded realtime notification. Events only invalidate; the UI refetches.
type Event struct {
	Type    EventType
	RoomID  string
	Message *chat.Message // Set for message.new
}

// AffectsMessages reports whether the room's message list changed
func (e Event) AffectsMessages() bool {
	return e.Type == EventMessageNew || e.Type == EventMessageDeleted
}

// AffectsRooms reports whether the room list or a room's members changed
func (e Event) AffectsRooms() bool {
	switch e.Type {
	case EventRoomCreated, EventRoomUpdated, EventRoomDeleted, EventMemberAdded, EventMemberRemoved:
		return true
	}
	// New messages change the room list preview
	return e.Type == EventMessageNew
}

type wireEvent struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type eventPayload struct {
	RoomID  string        `json:"room_id"`
	Message *chat.Message `json:"message,omitempty"`
}

// DecodeEvent parses a {"type": ..., "payload": {...}} frame
func DecodeEvent(data []byte) (Event, error) {
	var wire wireEvent
	if err := json.Unmarshal(data, &wire); err != nil {
		return Event{}, fmt.Errorf("failed to decode event: %w", err)
	}
	if wire.Type == "" {
		return Event{}, errors.New("event has no type")
	}

	var payload eventPayload
	if len(wire.Payload) > 0 {
		if err := json.Unmarshal(wire.Payload, &payload); err != nil {
			return Event{}, fmt.Errorf("failed to decode %s payload: %w", wire.Type, err)
		}
	}
	if payload.RoomID == "" && payload.Message != nil {
		payload.RoomID = payload.Message.RoomID
	}

	return Event{Type: EventType(wire.Type), RoomID: payload.RoomID, Message: payload.Message}, nil
}

// Realtime is a websocket subscription to the chat service's change feed
type Realtime struct {
	url    string
	header http.Header
	dialer *websocket.Dialer

	mu           sync.RWMutex
	conn         *websocket.Conn
	connected    bool
	reconnecting bool
	closed       bool

	events      chan Event
	stateChange chan ConnectionStateUpdate

	// Auto-reconnect settings
	autoReconnect     bool
	reconnectDelay    time.Duration
	maxReconnectDelay time.Duration

	metrics *Metrics
	logger  *log.Logger

	shutdown chan struct{}
	wg       sync.WaitGroup
}

// NewRealtime creates a feed for wsURL authenticated with token
func NewRealtime(wsURL, token string) *Realtime {
	header := http.Header{}
	if token != "" {
		header.Set("Authorization", "Bearer "+token)
	}
	return &Realtime{
		url:               wsURL,
		header:            header,
		dialer:            &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		events:            make(chan Event, 100),
		stateChange:       make(chan ConnectionStateUpdate, 10),
		autoReconnect:     true,
		reconnectDelay:    1 * time.Second,
		maxReconnectDelay: 30 * time.Second,
		shutdown:          make(chan struct{}),
	}
}

// SetLogger sets a logger for connection events
func (r *Realtime) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// SetMetrics enables event and reconnect counters
func (r *Realtime) SetMetrics(metrics *Metrics) {
	r.metrics = metrics
}

// DisableAutoReconnect stops the feed from redialing after a drop
func (r *Realtime) DisableAutoReconnect() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.autoReconnect = false
}

func (r *Realtime) logf(format string, args ...interface{}) {
	if r.logger != nil {
		r.logger.Printf("[realtime] "+format, args...)
	}
}

// Connect dials the feed and starts the read loop
func (r *Realtime) Connect() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return errors.New("realtime feed closed")
	}
	if r.connected {
		r.mu.Unlock()
		return nil
	}
	r.mu.Unlock()

	conn, resp, err := r.dialer.Dial(r.url, r.header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", r.url, err)
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		conn.Close()
		return errors.New("realtime feed closed")
	}
	r.conn = conn
	r.connected = true
	r.mu.Unlock()

	r.logf("Connected to %s", r.url)

	r.wg.Add(1)
	go r.readLoop(conn)
	return nil
}

// Close shuts the feed down permanently and closes its channels
func (r *Realtime) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	r.connected = false
	conn := r.conn
	r.conn = nil
	r.mu.Unlock()

	close(r.shutdown)
	if conn != nil {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		conn.Close()
	}
	r.wg.Wait()
	close(r.events)
	close(r.stateChange)
}

// IsConnected returns whether the feed is live
func (r *Realtime) IsConnected() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.connected
}

// Events returns the channel of decoded events
func (r *Realtime) Events() <-chan Event {
	return r.events
}

// StateChanges returns the channel for connection state updates
func (r *Realtime) StateChanges() <-chan ConnectionStateUpdate {
	return r.stateChange
}

func (r *Realtime) readLoop(conn *websocket.Conn) {
	defer r.wg.Done()
	conn.SetReadLimit(1 << 20)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-r.shutdown:
				return
			default:
			}
			r.logf("Read error: %v", err)
			r.handleDisconnect(conn, err)
			return
		}

		event, err := DecodeEvent(data)
		if err != nil {
			r.logf("Dropping malformed event: %v", err)
			continue
		}
		r.metrics.RecordRealtimeEvent(string(event.Type))

		select {
		case r.events <- event:
		case <-r.shutdown:
			return
		}
	}
}

func (r *Realtime) handleDisconnect(conn *websocket.Conn, cause error) {
	r.mu.Lock()
	if r.conn != conn {
		// A newer connection already replaced this one
		r.mu.Unlock()
		return
	}
	r.connected = false
	r.conn = nil
	autoReconnect := r.autoReconnect
	r.mu.Unlock()
	conn.Close()

	select {
	case r.stateChange <- ConnectionStateUpdate{State: StateTypeDisconnected, Err: cause}:
	default:
	}

	if autoReconnect {
		r.wg.Add(1)
		go r.reconnectLoop()
	}
}

// reconnectLoop attempts to reconnect with exponential backoff
func (r *Realtime) reconnectLoop() {
	defer r.wg.Done()

	r.mu.Lock()
	if r.reconnecting {
		r.mu.Unlock()
		return
	}
	r.reconnecting = true
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.reconnecting = false
		r.mu.Unlock()
	}()

	delay := r.reconnectDelay
	attempt := 1

	for {
		select {
		case <-r.shutdown:
			r.logf("Reconnect loop cancelled (shutdown)")
			return
		case <-time.After(delay):
			r.metrics.RecordReconnect()
			select {
			case r.stateChange <- ConnectionStateUpdate{State: StateTypeReconnecting, Attempt: attempt}:
			default:
			}

			if err := r.Connect(); err != nil {
				r.logf("Reconnect attempt %d failed: %v", attempt, err)
				delay *= 2
				if delay > r.maxReconnectDelay {
					delay = r.maxReconnectDelay
				}
				attempt++
				continue
			}

			r.logf("Reconnected after %d attempts", attempt)
			select {
			case r.stateChange <- ConnectionStateUpdate{State: StateTypeConnected}:
			default:
			}
			return
		}
	}
}

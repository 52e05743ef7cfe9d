package client

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aeolun/crewchat/pkg/chat"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeEvent(t *testing.T) {
	tests := []struct {
		name     string
		frame    string
		wantType EventType
		wantRoom string
		wantMsg  bool
		wantErr  bool
	}{
		{
			name:     "new message",
			frame:    `{"type":"message.new","payload":{"room_id":"r1","message":{"id":"m1","room_id":"r1","sender_id":"u1","kind":"text","content":"hi"}}}`,
			wantType: EventMessageNew,
			wantRoom: "r1",
			wantMsg:  true,
		},
		{
			name:     "room id taken from message",
			frame:    `{"type":"message.new","payload":{"message":{"id":"m1","room_id":"r9","kind":"text"}}}`,
			wantType: EventMessageNew,
			wantRoom: "r9",
			wantMsg:  true,
		},
		{
			name:     "member removed",
			frame:    `{"type":"room.member_removed","payload":{"room_id":"r2"}}`,
			wantType: EventMemberRemoved,
			wantRoom: "r2",
		},
		{
			name:     "no payload",
			frame:    `{"type":"room.created"}`,
			wantType: EventRoomCreated,
		},
		{name: "missing type", frame: `{"payload":{}}`, wantErr: true},
		{name: "not json", frame: `hello`, wantErr: true},
		{name: "bad payload", frame: `{"type":"message.new","payload":"x"}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event, err := DecodeEvent([]byte(tt.frame))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantType, event.Type)
			assert.Equal(t, tt.wantRoom, event.RoomID)
			assert.Equal(t, tt.wantMsg, event.Message != nil)
		})
	}
}

func TestEventInvalidationScope(t *testing.T) {
	tests := []struct {
		eventType    EventType
		wantMessages bool
		wantRooms    bool
	}{
		{EventMessageNew, true, true},
		{EventMessageDeleted, true, false},
		{EventRoomCreated, false, true},
		{EventRoomDeleted, false, true},
		{EventMemberAdded, false, true},
		{EventMemberRemoved, false, true},
		{EventType("typing"), false, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.eventType), func(t *testing.T) {
			e := Event{Type: tt.eventType}
			assert.Equal(t, tt.wantMessages, e.AffectsMessages())
			assert.Equal(t, tt.wantRooms, e.AffectsRooms())
		})
	}
}

// startFeed serves a websocket feed. Each connection is handed to handle.
func startFeed(t *testing.T, handle func(conn *websocket.Conn, r *http.Request)) string {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		handle(conn, r)
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestRealtimeDeliversEvents(t *testing.T) {
	authHeader := make(chan string, 1)
	url := startFeed(t, func(conn *websocket.Conn, r *http.Request) {
		authHeader <- r.Header.Get("Authorization")
		conn.WriteMessage(websocket.TextMessage, []byte(`not an event`))
		conn.WriteMessage(websocket.TextMessage,
			[]byte(`{"type":"message.new","payload":{"room_id":"r1","message":{"id":"m1","room_id":"r1","kind":"voice"}}}`))
		conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"room.deleted","payload":{"room_id":"r2"}}`))
		// Hold the connection open until the client goes away
		conn.ReadMessage()
	})

	rt := NewRealtime(url, "tok")
	metrics := NewMetrics()
	rt.SetMetrics(metrics)
	require.NoError(t, rt.Connect())
	assert.True(t, rt.IsConnected())
	assert.Equal(t, "Bearer tok", <-authHeader)

	first := receiveEvent(t, rt)
	assert.Equal(t, EventMessageNew, first.Type)
	require.NotNil(t, first.Message)
	assert.Equal(t, chat.KindVoice, first.Message.Kind)

	second := receiveEvent(t, rt)
	assert.Equal(t, EventRoomDeleted, second.Type)
	assert.Equal(t, "r2", second.RoomID)

	rt.Close()
	assert.False(t, rt.IsConnected())
	rt.Close()

	_, open := <-rt.Events()
	assert.False(t, open, "events channel is closed after Close")
	assert.Error(t, rt.Connect(), "a closed feed cannot reconnect")
}

func TestRealtimeReportsDisconnect(t *testing.T) {
	url := startFeed(t, func(conn *websocket.Conn, r *http.Request) {
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "restart"))
	})

	rt := NewRealtime(url, "")
	rt.DisableAutoReconnect()
	require.NoError(t, rt.Connect())
	defer rt.Close()

	select {
	case update := <-rt.StateChanges():
		assert.Equal(t, StateTypeDisconnected, update.State)
		assert.Error(t, update.Err)
	case <-time.After(5 * time.Second):
		t.Fatal("no disconnect reported")
	}
	assert.False(t, rt.IsConnected())
}

func TestRealtimeConnectFailure(t *testing.T) {
	rt := NewRealtime("ws://127.0.0.1:1/ws", "")
	defer rt.Close()

	err := rt.Connect()
	require.Error(t, err)
	assert.False(t, rt.IsConnected())
}

func receiveEvent(t *testing.T, rt *Realtime) Event {
	t.Helper()
	select {
	case e := <-rt.Events():
		return e
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for event")
	}
	return Event{}
}

package ui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aeolun/crewchat/pkg/chat"
	"github.com/aeolun/crewchat/pkg/client"
	"github.com/aeolun/crewchat/pkg/client/audio"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
)

const (
	// requestTimeout bounds every backend call issued from the UI
	requestTimeout = 30 * time.Second

	// maxUploadBytes rejects files the API would refuse anyway
	maxUploadBytes = 25 << 20

	realtimeRetryDelay = 5 * time.Second
)

// === Result messages ===

type roomsLoadedMsg struct {
	Generation uint64
	Rooms      []chat.Room
	Err        error
}

type usersLoadedMsg struct {
	Generation uint64
	Users      []chat.User
	Err        error
}

type roomLoadedMsg struct {
	Generation uint64
	RoomID     string
	Room       chat.Room
	Err        error
}

type messagesLoadedMsg struct {
	Generation uint64
	RoomID     string
	Messages   []chat.Message
	Err        error
}

type directRoomOpenedMsg struct {
	Room chat.Room
	Err  error
}

type groupCreatedMsg struct {
	Room chat.Room
	Err  error
}

type groupDeletedMsg struct {
	RoomID string
	Err    error
}

type membersAddedMsg struct {
	RoomID string
	Count  int
	Err    error
}

type memberRemovedMsg struct {
	RoomID string
	UserID string
	Err    error
}

type messageDeletedMsg struct {
	RoomID    string
	MessageID string
	Err       error
}

type messageSentMsg struct {
	RoomID  string
	Kind    chat.MessageKind
	Message chat.Message
	// Draft is the composer text a text message was sent from
	Draft string
	Err   error
}

// Realtime feed
type realtimeEventMsg struct {
	Event client.Event
}

type realtimeStateMsg struct {
	Update client.ConnectionStateUpdate
}

// realtimeConnectedMsg is the result of dialing the feed
type realtimeConnectedMsg struct {
	Err error
}

type realtimeClosedMsg struct{}

type realtimeRetryMsg struct{}

// refetchMsg fires when a coalesced invalidation is due
type refetchMsg struct {
	Key    string
	RoomID string
}

// filePickedMsg carries the path chosen in the file picker
type filePickedMsg struct {
	Path string
}

// Voice recording
type recordingStartedMsg struct {
	Err error
}

type recordingStoppedMsg struct {
	RoomID string
	Clip   audio.Clip
	Err    error
}

type recordingTickMsg struct{}

// ClearStatusMsg clears the toast if it is still the one that scheduled it
type ClearStatusMsg struct {
	Version uint64
}

// === Fetches ===

func fetchRoomsCmd(backend client.Backend, generation uint64) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		rooms, err := backend.ListRooms(ctx)
		return roomsLoadedMsg{Generation: generation, Rooms: rooms, Err: err}
	}
}

func fetchUsersCmd(backend client.Backend, generation uint64) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		users, err := backend.ListUsers(ctx)
		return usersLoadedMsg{Generation: generation, Users: users, Err: err}
	}
}

func fetchRoomCmd(backend client.Backend, roomID string, generation uint64) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		room, err := backend.GetRoom(ctx, roomID)
		return roomLoadedMsg{Generation: generation, RoomID: roomID, Room: room, Err: err}
	}
}

func fetchMessagesCmd(backend client.Backend, roomID string, generation uint64) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		messages, err := backend.ListMessages(ctx, roomID)
		return messagesLoadedMsg{Generation: generation, RoomID: roomID, Messages: messages, Err: err}
	}
}

// === Mutations ===

func openDirectRoomCmd(backend client.Backend, userID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		room, err := backend.CreateDirectRoom(ctx, userID)
		return directRoomOpenedMsg{Room: room, Err: err}
	}
}

func createGroupCmd(backend client.Backend, name string, memberIDs []string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		room, err := backend.CreateGroup(ctx, name, memberIDs)
		return groupCreatedMsg{Room: room, Err: err}
	}
}

func deleteGroupCmd(backend client.Backend, roomID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return groupDeletedMsg{RoomID: roomID, Err: backend.DeleteGroup(ctx, roomID)}
	}
}

func addMembersCmd(backend client.Backend, roomID string, memberIDs []string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		err := backend.AddMembers(ctx, roomID, memberIDs)
		return membersAddedMsg{RoomID: roomID, Count: len(memberIDs), Err: err}
	}
}

func removeMemberCmd(backend client.Backend, roomID, userID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		err := backend.RemoveMember(ctx, roomID, userID)
		return memberRemovedMsg{RoomID: roomID, UserID: userID, Err: err}
	}
}

func deleteMessageCmd(backend client.Backend, roomID, messageID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		err := backend.DeleteMessage(ctx, messageID)
		return messageDeletedMsg{RoomID: roomID, MessageID: messageID, Err: err}
	}
}

func sendMessageCmd(backend client.Backend, roomID string, out client.OutgoingMessage) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		msg, err := backend.SendMessage(ctx, roomID, out)
		return messageSentMsg{RoomID: roomID, Kind: out.Kind, Message: msg, Err: err}
	}
}

// sendTextCmd sends the draft of roomID. The draft is echoed back so it is only cleared once the send succeeds.
func sendTextCmd(backend client.Backend, roomID, draft string, out client.OutgoingMessage) tea.Cmd {
	send := sendMessageCmd(backend, roomID, out)
	return func() tea.Msg {
		msg := send().(messageSentMsg)
		msg.Draft = draft
		return msg
	}
}

// readAttachment loads a picked file into a file message
func readAttachment(path string) (client.OutgoingMessage, error) {
	info, err := os.Stat(path)
	if err != nil {
		return client.OutgoingMessage{}, fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
	}
	if info.Size() > maxUploadBytes {
		return client.OutgoingMessage{}, fmt.Errorf("%s is %s, the limit is %s",
			filepath.Base(path), humanize.Bytes(uint64(info.Size())), humanize.Bytes(maxUploadBytes))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return client.OutgoingMessage{}, fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
	}
	name := filepath.Base(path)
	return client.OutgoingMessage{
		Kind:     chat.KindFile,
		FileName: name,
		MimeType: chat.MimeTypeFor(name),
		Data:     data,
	}, nil
}

// sendFileCmd reads path and sends it as a file message
func sendFileCmd(backend client.Backend, roomID, path string) tea.Cmd {
	return func() tea.Msg {
		out, err := readAttachment(path)
		if err != nil {
			return messageSentMsg{RoomID: roomID, Kind: chat.KindFile, Err: err}
		}
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		msg, err := backend.SendMessage(ctx, roomID, out)
		return messageSentMsg{RoomID: roomID, Kind: chat.KindFile, Message: msg, Err: err}
	}
}

// === Realtime ===

// connectRealtimeCmd dials the change feed
func connectRealtimeCmd(rt client.RealtimeInterface) tea.Cmd {
	return func() tea.Msg {
		return realtimeConnectedMsg{Err: rt.Connect()}
	}
}

// listenRealtime waits for the next event or state change from the feed
func listenRealtime(rt client.RealtimeInterface) tea.Cmd {
	return func() tea.Msg {
		select {
		case event, ok := <-rt.Events():
			if !ok {
				return realtimeClosedMsg{}
			}
			return realtimeEventMsg{Event: event}
		case update, ok := <-rt.StateChanges():
			if !ok {
				return realtimeClosedMsg{}
			}
			return realtimeStateMsg{Update: update}
		}
	}
}

func realtimeRetry() tea.Cmd {
	return tea.Tick(realtimeRetryDelay, func(time.Time) tea.Msg {
		return realtimeRetryMsg{}
	})
}

// scheduleRefetch asks the invalidator for a slot and fires a refetchMsg when it is due
func scheduleRefetch(inv *client.Invalidator, key, roomID string) tea.Cmd {
	delay, ok := inv.Schedule(key)
	if !ok {
		return nil
	}
	msg := refetchMsg{Key: key, RoomID: roomID}
	if delay <= 0 {
		return func() tea.Msg { return msg }
	}
	return tea.Tick(delay, func(time.Time) tea.Msg { return msg })
}

// === Voice ===

func startRecordingCmd(recorder VoiceRecorder) tea.Cmd {
	return func() tea.Msg {
		return recordingStartedMsg{Err: recorder.Start(context.Background())}
	}
}

func stopRecordingCmd(recorder VoiceRecorder, roomID string) tea.Cmd {
	return func() tea.Msg {
		clip, err := recorder.Stop()
		return recordingStoppedMsg{RoomID: roomID, Clip: clip, Err: err}
	}
}

func recordingTick() tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return recordingTickMsg{}
	})
}

// statusTimeout returns a command that clears the status after 3 seconds
func statusTimeout(version uint64) tea.Cmd {
	return tea.Tick(3*time.Second, func(time.Time) tea.Msg {
		return ClearStatusMsg{Version: version}
	})
}

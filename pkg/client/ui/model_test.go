package ui

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aeolun/crewchat/pkg/chat"
	"github.com/aeolun/crewchat/pkg/client"
	"github.com/aeolun/crewchat/pkg/client/audio"
	"github.com/aeolun/crewchat/pkg/client/ui/modal"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

const (
	rajRoom   = "demo-direct-raj"
	siteRoom  = "demo-site-a"
	aliceID   = "demo-alice"
	rajSender = "demo-raj"
)

func TestInitialLoad(t *testing.T) {
	m, _, _ := NewTestModel(t)

	assert.Len(t, m.rooms, 2)
	assert.Len(t, m.users, 5)
	assert.Equal(t, ViewNoRoomSelected, m.ViewState())
	assert.Equal(t, FocusRooms, m.focus)
	assert.False(t, m.loadingRooms)

	view := m.View()
	assert.Contains(t, view, "Conversations")
	assert.Contains(t, view, "Site A Crew")
	assert.Contains(t, view, "crewchat 0.0.0-test")
	assert.Contains(t, view, "No conversation selected")
}

func TestViewBeforeResize(t *testing.T) {
	m := NewModel(client.DemoSession, client.NewDemoBackend(), client.NewMockState(), nil, nil, testSettings(), nil)
	assert.Equal(t, "Loading...", m.View())
}

func TestNewModelRestoresLastRoomAndDraft(t *testing.T) {
	backend := client.NewDemoBackend()
	state := client.NewMockState()
	require.NoError(t, state.SetLastRoomID(siteRoom))
	require.NoError(t, state.SaveDraft(siteRoom, "pending note"))

	m := NewTestModelWithMocks(t, backend, state, nil)

	assert.Equal(t, siteRoom, m.ActiveRoomID())
	assert.Equal(t, ViewRoomReady, m.ViewState())
	assert.Equal(t, "pending note", m.composer.Value())
	assert.Len(t, m.messages, 3)
	require.NotNil(t, m.activeRoom)
	assert.Equal(t, "Site A Crew", m.activeRoom.Name)
}

func TestSelectRoom(t *testing.T) {
	t.Run("directly", func(t *testing.T) {
		m, _, state := NewTestModel(t)
		m = openRoom(t, m, rajRoom)

		assert.Equal(t, ViewRoomReady, m.ViewState())
		assert.Len(t, m.messages, 2)
		assert.Equal(t, 1, m.messageCursor)
		assert.Equal(t, FocusComposer, m.focus)
		assert.Equal(t, rajRoom, state.GetLastRoomID())
	})

	t.Run("with keys", func(t *testing.T) {
		m, _, state := NewTestModel(t)
		m = pressAndSettle(t, m, "down")
		m = pressAndSettle(t, m, "enter")

		assert.Equal(t, siteRoom, m.ActiveRoomID())
		assert.Equal(t, ViewRoomReady, m.ViewState())
		assert.Equal(t, siteRoom, state.GetLastRoomID())
	})

	t.Run("loading state until messages arrive", func(t *testing.T) {
		m, _, _ := NewTestModel(t)
		cmd := m.selectRoom(siteRoom)
		require.NotNil(t, cmd)
		assert.Equal(t, ViewRoomLoading, m.ViewState())
		assert.Empty(t, m.messages)
		assert.Contains(t, m.View(), "Loading messages...")
	})

	t.Run("reselecting the open room keeps its messages", func(t *testing.T) {
		m, backend, _ := NewTestModel(t)
		m = openRoom(t, m, rajRoom)
		before := len(backend.CallsFor("ListMessages"))

		m = focusPane(m, FocusRooms)
		m = settle(t, m, m.selectRoom(rajRoom))

		assert.Equal(t, before, len(backend.CallsFor("ListMessages")))
		assert.Equal(t, FocusComposer, m.focus)
		assert.Len(t, m.messages, 2)
	})
}

func TestStaleFetchResultsAreDropped(t *testing.T) {
	m, _, _ := NewTestModel(t)

	rajCmd := m.selectRoom(rajRoom)
	siteCmd := m.selectRoom(siteRoom)

	// Results for the room the user already left arrive late
	for _, msg := range execCmd(rajCmd) {
		updated, _ := m.Update(msg)
		m = updated.(Model)
	}
	assert.Equal(t, siteRoom, m.ActiveRoomID())
	assert.Equal(t, ViewRoomLoading, m.ViewState())
	assert.Empty(t, m.messages)

	m = settle(t, m, siteCmd)
	require.Len(t, m.messages, 3)
	for _, msg := range m.messages {
		assert.Equal(t, siteRoom, msg.RoomID)
	}
	require.NotNil(t, m.activeRoom)
	assert.Equal(t, siteRoom, m.activeRoom.ID)
}

func TestDraftsFollowRooms(t *testing.T) {
	m, _, state := NewTestModel(t)
	m = openRoom(t, m, rajRoom)
	m = typeText(m, "half-written")

	m = openRoom(t, m, siteRoom)
	assert.Equal(t, "", m.composer.Value())
	draft, err := state.GetDraft(rajRoom)
	require.NoError(t, err)
	assert.Equal(t, "half-written", draft)

	m = openRoom(t, m, rajRoom)
	assert.Equal(t, "half-written", m.composer.Value())
}

func TestSendText(t *testing.T) {
	t.Run("sends and clears", func(t *testing.T) {
		m, backend, state := NewTestModel(t)
		m = openRoom(t, m, rajRoom)
		m = typeText(m, "On my way")
		m = pressAndSettle(t, m, "enter")

		assert.Equal(t, "", m.composer.Value())
		assert.Equal(t, 0, m.sending)
		stored := backend.Messages(rajRoom)
		require.Len(t, stored, 3)
		assert.Equal(t, "On my way", stored[2].Content)
		assert.Len(t, m.messages, 3)

		draft, err := state.GetDraft(rajRoom)
		require.NoError(t, err)
		assert.Equal(t, "", draft)
	})

	t.Run("failure keeps the draft", func(t *testing.T) {
		m, backend, state := NewTestModel(t)
		backend.SetError("SendMessage", errors.New("gateway timeout"))
		m = openRoom(t, m, rajRoom)
		m = typeText(m, "hello?")
		m = pressAndSettle(t, m, "enter")

		assert.True(t, m.statusIsError)
		assert.True(t, strings.HasPrefix(m.statusMessage, "Failed to send text message"))
		assert.Contains(t, m.statusMessage, "gateway timeout")
		assert.Equal(t, 0, m.sending)
		assert.Len(t, m.messages, 2)
		assert.Equal(t, "hello?", m.composer.Value())

		// The draft survives leaving the room too
		m = openRoom(t, m, siteRoom)
		draft, err := state.GetDraft(rajRoom)
		require.NoError(t, err)
		assert.Equal(t, "hello?", draft)
	})

	t.Run("draft stays until the send resolves", func(t *testing.T) {
		m, backend, _ := NewTestModel(t)
		m = openRoom(t, m, rajRoom)
		m = typeText(m, "pour at 7")

		m, cmd := press(m, "enter")
		require.NotNil(t, cmd)
		assert.Equal(t, "pour at 7", m.composer.Value())
		assert.Equal(t, 1, m.sending)

		// A second enter while the first is in flight sends nothing more
		m, _ = press(m, "enter")
		assert.Equal(t, 1, m.sending)

		m = settle(t, m, cmd)
		assert.Equal(t, "", m.composer.Value())
		assert.Len(t, backend.CallsFor("SendMessage"), 1)
	})

	t.Run("text typed during the send is kept", func(t *testing.T) {
		m, _, _ := NewTestModel(t)
		m = openRoom(t, m, rajRoom)
		m = typeText(m, "first")

		m, cmd := press(m, "enter")
		m = typeText(m, " and more")
		m = settle(t, m, cmd)
		assert.Equal(t, "first and more", m.composer.Value())
	})

	t.Run("success after leaving the room clears its stored draft", func(t *testing.T) {
		m, _, state := NewTestModel(t)
		m = openRoom(t, m, rajRoom)
		m = typeText(m, "on site")

		m, cmd := press(m, "enter")
		m = openRoom(t, m, siteRoom)
		m = settle(t, m, cmd)

		draft, err := state.GetDraft(rajRoom)
		require.NoError(t, err)
		assert.Equal(t, "", draft)
		assert.Equal(t, siteRoom, m.ActiveRoomID())
	})
}

func TestBlankDraftIsNotSent(t *testing.T) {
	m, backend, _ := NewTestModel(t)
	m = openRoom(t, m, rajRoom)

	rapid.Check(t, func(rt *rapid.T) {
		draft := rapid.StringOfN(rapid.SampledFrom([]rune{' ', '\t', '\n'}), 0, 12, -1).Draw(rt, "draft")
		attempt := m
		attempt.composer.SetValue(draft)

		_, cmd := attempt.sendDraft()
		if cmd != nil {
			rt.Fatalf("blank draft %q produced a command", draft)
		}
	})
	assert.Empty(t, backend.CallsFor("SendMessage"))
}

func TestTabCyclesPanes(t *testing.T) {
	m, _, _ := NewTestModel(t)

	// Only the room list is reachable without an open room
	m, _ = press(m, "tab")
	assert.Equal(t, FocusRooms, m.focus)

	m = openRoom(t, m, siteRoom)
	require.Equal(t, FocusComposer, m.focus)

	want := []Focus{FocusMembers, FocusRooms, FocusMessages, FocusComposer}
	for _, f := range want {
		m, _ = press(m, "tab")
		assert.Equal(t, f, m.focus)
	}
}

func TestMembershipActionsGatedOnOwnership(t *testing.T) {
	t.Run("non-owner sees no owner actions", func(t *testing.T) {
		backend := client.NewDemoBackend()
		alice := chat.User{ID: aliceID, FirstName: "Alice", LastName: "Smith"}
		backend.AddRoom(chat.Room{
			ID:      "foreign",
			Name:    "Night shift",
			IsGroup: true,
			OwnerID: aliceID,
			Members: []chat.User{alice, client.DemoSession.User},
		})
		m := NewTestModelWithMocks(t, backend, client.NewMockState(), nil)
		m = openRoom(t, m, "foreign")
		m = focusPane(m, FocusMembers)

		hints := m.footerHints()
		assert.NotContains(t, hints, "Add members")
		assert.NotContains(t, hints, "Remove member")
		assert.NotContains(t, hints, "Delete group")

		for _, k := range []string{"a", "x", "D"} {
			var cmd tea.Cmd
			m, cmd = press(m, k)
			assert.Nil(t, cmd, "key %q", k)
			assert.Equal(t, modal.ModalNone, m.modalStack.TopType(), "key %q", k)
		}
		m, _ = press(m, "down")
		m, _ = press(m, "x")
		assert.Empty(t, backend.CallsFor("RemoveMember"))
	})

	t.Run("owner sees owner actions", func(t *testing.T) {
		m, _, _ := NewTestModel(t)
		m = openRoom(t, m, siteRoom)
		m = focusPane(m, FocusMembers)

		hints := m.footerHints()
		assert.Contains(t, hints, "Add members")
		assert.Contains(t, hints, "Delete group")
		// The cursor starts on the owner, who cannot be removed
		assert.NotContains(t, hints, "Remove member")

		m, _ = press(m, "down")
		assert.Contains(t, m.footerHints(), "Remove member")
	})
}

func TestOwnerRemovesMember(t *testing.T) {
	m, backend, _ := NewTestModel(t)
	m = openRoom(t, m, siteRoom)
	m = focusPane(m, FocusMembers)
	m, _ = press(m, "down")

	m = pressAndSettle(t, m, "x")

	room, ok := backend.Room(siteRoom)
	require.True(t, ok)
	assert.Len(t, room.Members, 2)
	assert.False(t, room.HasMember(aliceID))
	require.NotNil(t, m.activeRoom)
	assert.Len(t, m.activeRoom.Members, 2)
	assert.Equal(t, "Member removed", m.statusMessage)
}

func TestOwnerAddsMembers(t *testing.T) {
	m, backend, _ := NewTestModel(t)
	m = openRoom(t, m, siteRoom)
	m = focusPane(m, FocusMembers)

	m, _ = press(m, "a")
	require.Equal(t, modal.ModalAddMembers, m.modalStack.TopType())

	m, _ = press(m, " ")
	m = pressAndSettle(t, m, "enter")

	assert.Equal(t, modal.ModalNone, m.modalStack.TopType())
	room, ok := backend.Room(siteRoom)
	require.True(t, ok)
	assert.Len(t, room.Members, 4)
	require.NotNil(t, m.activeRoom)
	assert.Len(t, m.activeRoom.Members, 4)
	assert.Equal(t, "Added 1 member(s)", m.statusMessage)
}

func TestDeleteGroup(t *testing.T) {
	t.Run("confirmed", func(t *testing.T) {
		m, backend, state := NewTestModel(t)
		m = openRoom(t, m, siteRoom)
		m = focusPane(m, FocusMembers)

		m, _ = press(m, "D")
		require.Equal(t, modal.ModalConfirm, m.modalStack.TopType())
		assert.Contains(t, m.View(), "Site A Crew")

		m = pressAndSettle(t, m, "y")

		assert.Equal(t, ViewNoRoomSelected, m.ViewState())
		assert.Equal(t, FocusRooms, m.focus)
		assert.Equal(t, "", state.GetLastRoomID())
		assert.Len(t, m.rooms, 1)
		_, ok := backend.Room(siteRoom)
		assert.False(t, ok)
	})

	t.Run("cancelled", func(t *testing.T) {
		m, backend, _ := NewTestModel(t)
		m = openRoom(t, m, siteRoom)
		m = focusPane(m, FocusMembers)

		m, _ = press(m, "D")
		m = pressAndSettle(t, m, "n")

		assert.Equal(t, modal.ModalNone, m.modalStack.TopType())
		assert.Equal(t, siteRoom, m.ActiveRoomID())
		assert.Empty(t, backend.CallsFor("DeleteGroup"))
	})
}

func TestCreateGroup(t *testing.T) {
	t.Run("success opens the new group", func(t *testing.T) {
		m, backend, _ := NewTestModel(t)

		m, _ = press(m, "ctrl+n")
		require.Equal(t, modal.ModalCreateGroup, m.modalStack.TopType())
		m = typeText(m, "Pour crew")
		m, _ = press(m, "tab")
		m, _ = press(m, " ")
		m = pressAndSettle(t, m, "enter")

		assert.Equal(t, modal.ModalNone, m.modalStack.TopType())
		require.NotNil(t, m.activeRoom)
		assert.Equal(t, "Pour crew", m.activeRoom.Name)
		assert.True(t, m.activeRoom.IsGroup)
		assert.Equal(t, ViewRoomReady, m.ViewState())
		assert.Len(t, m.rooms, 3)
		assert.Equal(t, "Created Pour crew", m.statusMessage)

		calls := backend.CallsFor("CreateGroup")
		require.Len(t, calls, 1)
	})

	t.Run("failure keeps the form", func(t *testing.T) {
		m, backend, _ := NewTestModel(t)
		backend.SetError("CreateGroup", errors.New("name taken"))

		m, _ = press(m, "ctrl+n")
		m = typeText(m, "Pour crew")
		m, _ = press(m, "tab")
		m, _ = press(m, " ")
		m = pressAndSettle(t, m, "enter")

		require.Equal(t, modal.ModalCreateGroup, m.modalStack.TopType())
		assert.Equal(t, "Pour crew", m.createGrp.Name())
		assert.Len(t, m.createGrp.SelectedIDs(), 1)
		assert.False(t, m.createGrp.Submitting())
		assert.True(t, m.statusIsError)
		assert.Equal(t, ViewNoRoomSelected, m.ViewState())
	})
}

func TestStartDirectChatFromSearch(t *testing.T) {
	m, backend, _ := NewTestModel(t)

	m = typeText(m, "tom")
	listing := m.listing()
	require.Equal(t, chat.ListingUsers, listing.Mode)
	require.Len(t, listing.Users, 1)
	assert.Contains(t, m.View(), "Start a new chat")

	m = pressAndSettle(t, m, "enter")

	assert.Equal(t, "", m.search.Value())
	require.NotNil(t, m.activeRoom)
	assert.False(t, m.activeRoom.IsGroup)
	assert.True(t, m.activeRoom.HasMember("demo-tom"))
	assert.Equal(t, ViewRoomReady, m.ViewState())
	assert.Len(t, m.rooms, 3)
	assert.Len(t, backend.CallsFor("CreateDirectRoom"), 1)
}

func TestSearchEscClearsQuery(t *testing.T) {
	m, _, _ := NewTestModel(t)
	m = typeText(m, "zzz")
	assert.Contains(t, m.View(), "No people match")

	m, _ = press(m, "esc")
	assert.Equal(t, "", m.search.Value())
	assert.Equal(t, chat.ListingRooms, m.listing().Mode)
}

func TestInlineFetchErrors(t *testing.T) {
	t.Run("rooms and users", func(t *testing.T) {
		backend := client.NewDemoBackend()
		backend.SetError("ListRooms", errors.New("down"))
		backend.SetError("ListUsers", errors.New("down"))
		m := NewTestModelWithMocks(t, backend, client.NewMockState(), nil)

		assert.Contains(t, m.View(), "Error loading rooms")
		m = typeText(m, "a")
		assert.Contains(t, m.View(), "Error loading users")
	})

	t.Run("messages", func(t *testing.T) {
		m, backend, _ := NewTestModel(t)
		backend.SetError("ListMessages", errors.New("down"))
		m = openRoom(t, m, rajRoom)

		assert.Equal(t, ViewRoomReady, m.ViewState())
		assert.Contains(t, m.View(), "Error loading messages")
	})

	t.Run("room detail", func(t *testing.T) {
		m, backend, _ := NewTestModel(t)
		backend.SetError("GetRoom", errors.New("down"))
		m = openRoom(t, m, siteRoom)

		assert.Equal(t, siteRoom, m.ActiveRoomID())
		assert.Contains(t, m.View(), "Error loading room")
	})
}

func TestMissingRoomClearsSelection(t *testing.T) {
	state := client.NewMockState()
	require.NoError(t, state.SetLastRoomID("gone-room"))

	m := NewTestModelWithMocks(t, client.NewDemoBackend(), state, nil)

	assert.Equal(t, ViewNoRoomSelected, m.ViewState())
	assert.Equal(t, "", m.ActiveRoomID())
	assert.Equal(t, "", state.GetLastRoomID())
	assert.Equal(t, "That conversation no longer exists", m.statusMessage)
}

func TestDeleteOwnMessage(t *testing.T) {
	t.Run("own message after confirmation", func(t *testing.T) {
		m, backend, _ := NewTestModel(t)
		m = openRoom(t, m, rajRoom)
		m = focusPane(m, FocusMessages)

		require.Contains(t, m.footerHints(), "Delete message")
		m, _ = press(m, "d")
		require.Equal(t, modal.ModalConfirm, m.modalStack.TopType())

		m = pressAndSettle(t, m, "y")
		assert.Len(t, m.messages, 1)
		assert.Len(t, backend.Messages(rajRoom), 1)
		assert.Equal(t, "Message deleted", m.statusMessage)
	})

	t.Run("someone else's message", func(t *testing.T) {
		m, backend, _ := NewTestModel(t)
		m = openRoom(t, m, rajRoom)
		m = focusPane(m, FocusMessages)
		m, _ = press(m, "up")
		require.Equal(t, 0, m.messageCursor)

		assert.NotContains(t, m.footerHints(), "Delete message")
		m, _ = press(m, "d")
		assert.Equal(t, modal.ModalNone, m.modalStack.TopType())
		assert.Empty(t, backend.CallsFor("DeleteMessage"))
	})
}

func TestRenderedRoom(t *testing.T) {
	m, _, _ := NewTestModel(t)
	m = openRoom(t, m, siteRoom)

	view := m.View()
	assert.Contains(t, view, "Members (3)")
	assert.Contains(t, view, "owner")
	assert.Contains(t, view, "level2-drawings.pdf")
	assert.Contains(t, view, "voice message")
	assert.Contains(t, view, "budget.xlsx")
	assert.Contains(t, view, "───")
}

func TestRealtimeNotifications(t *testing.T) {
	event := func(roomID, senderID, content string) realtimeEventMsg {
		return realtimeEventMsg{Event: client.Event{
			Type:   client.EventMessageNew,
			RoomID: roomID,
			Message: &chat.Message{
				ID:        "live-" + content,
				RoomID:    roomID,
				SenderID:  senderID,
				Kind:      chat.KindText,
				Content:   content,
				CreatedAt: time.Now(),
			},
		}}
	}

	setup := func(t *testing.T) (Model, *[]string) {
		m, _, _ := NewTestModel(t)
		m = openRoom(t, m, rajRoom)
		notes := &[]string{}
		m.notify = func(title, body string) error {
			*notes = append(*notes, title+": "+body)
			return nil
		}
		return m, notes
	}

	deliver := func(t *testing.T, m Model, msg realtimeEventMsg) Model {
		updated, cmd := m.Update(msg)
		return settle(t, updated.(Model), cmd)
	}

	t.Run("inactive room", func(t *testing.T) {
		m, notes := setup(t)
		m = deliver(t, m, event(siteRoom, aliceID, "Crane arrives at noon"))
		assert.Equal(t, []string{"Alice Smith in Site A Crew: Crane arrives at noon"}, *notes)
	})

	t.Run("own message", func(t *testing.T) {
		m, notes := setup(t)
		m = deliver(t, m, event(siteRoom, client.DemoSession.User.ID, "note to self"))
		assert.Empty(t, *notes)
	})

	t.Run("active room only when idle", func(t *testing.T) {
		m, notes := setup(t)
		base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
		m.lastInteractionTime = base

		m.now = func() time.Time { return base.Add(time.Minute) }
		m = deliver(t, m, event(rajRoom, rajSender, "first"))
		assert.Empty(t, *notes)

		m.now = func() time.Time { return base.Add(m.settings.IdleNotifyAfter) }
		m = deliver(t, m, event(rajRoom, rajSender, "second"))
		assert.Equal(t, []string{"Raj Patel: second"}, *notes)
	})

	t.Run("disabled", func(t *testing.T) {
		m, notes := setup(t)
		m.settings.Notifications = false
		m = deliver(t, m, event(siteRoom, aliceID, "ignored"))
		assert.Empty(t, *notes)
	})
}

func TestRealtimeRefetch(t *testing.T) {
	t.Run("new message refetches the open room", func(t *testing.T) {
		m, backend, _ := NewTestModel(t)
		m = openRoom(t, m, rajRoom)

		backend.AddMessage(chat.Message{ID: "live-1", RoomID: rajRoom, SenderID: rajSender,
			Kind: chat.KindText, Content: "Truck is here", CreatedAt: time.Now()})

		updated, cmd := m.Update(realtimeEventMsg{Event: client.Event{Type: client.EventMessageNew, RoomID: rajRoom}})
		m = settle(t, updated.(Model), cmd)

		require.Len(t, m.messages, 3)
		assert.Equal(t, "Truck is here", m.messages[2].Content)
		assert.False(t, m.invalidator.Pending(client.MessagesKey(rajRoom)))
	})

	t.Run("bursts coalesce", func(t *testing.T) {
		m, backend, _ := NewTestModel(t)
		m = openRoom(t, m, rajRoom)
		before := len(backend.CallsFor("ListMessages"))

		ev := realtimeEventMsg{Event: client.Event{Type: client.EventMessageDeleted, RoomID: rajRoom}}
		updated, first := m.Update(ev)
		m = updated.(Model)
		assert.True(t, m.invalidator.Pending(client.MessagesKey(rajRoom)))
		updated, second := m.Update(ev)
		m = updated.(Model)

		m = settle(t, m, tea.Batch(first, second))
		assert.Equal(t, before+1, len(backend.CallsFor("ListMessages")))
	})

	t.Run("deleted room clears the selection", func(t *testing.T) {
		m, _, state := NewTestModel(t)
		m = openRoom(t, m, siteRoom)

		updated, cmd := m.Update(realtimeEventMsg{Event: client.Event{Type: client.EventRoomDeleted, RoomID: siteRoom}})
		m = settle(t, updated.(Model), cmd)

		assert.Equal(t, ViewNoRoomSelected, m.ViewState())
		assert.Equal(t, "", state.GetLastRoomID())
		assert.True(t, m.statusIsError)
		assert.Equal(t, "This conversation was deleted", m.statusMessage)
	})
}

func TestRealtimeStatus(t *testing.T) {
	m, backend, _ := NewTestModel(t)
	assert.Contains(t, m.View(), "offline")

	updated, _ := m.Update(realtimeStateMsg{Update: client.ConnectionStateUpdate{State: client.StateTypeReconnecting, Attempt: 2}})
	m = updated.(Model)
	assert.Equal(t, RealtimeReconnecting, m.rtStatus)
	assert.Contains(t, m.View(), "reconnecting")

	before := len(backend.CallsFor("ListRooms"))
	updated, cmd := m.Update(realtimeStateMsg{Update: client.ConnectionStateUpdate{State: client.StateTypeConnected}})
	m = settle(t, updated.(Model), cmd)
	assert.Equal(t, RealtimeLive, m.rtStatus)
	assert.Equal(t, before+1, len(backend.CallsFor("ListRooms")))

	updated, cmd = m.Update(realtimeConnectedMsg{Err: errors.New("dial tcp: refused")})
	m = updated.(Model)
	assert.Equal(t, RealtimeOffline, m.rtStatus)
	assert.NotNil(t, cmd)
}

func TestListenRealtime(t *testing.T) {
	rt := client.NewMockRealtime()
	ev := client.Event{Type: client.EventRoomUpdated, RoomID: siteRoom}
	rt.Push(ev)
	assert.Equal(t, realtimeEventMsg{Event: ev}, listenRealtime(rt)())

	update := client.ConnectionStateUpdate{State: client.StateTypeReconnecting, Attempt: 1}
	rt.PushState(update)
	assert.Equal(t, realtimeStateMsg{Update: update}, listenRealtime(rt)())

	rt.Close()
	assert.Equal(t, realtimeClosedMsg{}, listenRealtime(rt)())
}

func TestVoiceMessages(t *testing.T) {
	clip := audio.Clip{Data: []byte("RIFF0000WAVE"), FileName: "voice-1.wav", MimeType: "audio/wav", Duration: 2 * time.Second}

	t.Run("record and send", func(t *testing.T) {
		backend := client.NewDemoBackend()
		rec := &fakeRecorder{clip: clip}
		m := NewTestModelWithMocks(t, backend, client.NewMockState(), rec)
		m = openRoom(t, m, rajRoom)
		require.Contains(t, m.footerHints(), "Record voice")

		m = pressAndSettle(t, m, "ctrl+r")
		assert.Equal(t, audio.StateRecording, rec.State())
		assert.Contains(t, m.View(), "REC 0:03")
		assert.Contains(t, m.footerHints(), "Stop and send")

		m = pressAndSettle(t, m, "ctrl+r")
		assert.Equal(t, audio.StateIdle, rec.State())
		stored := backend.Messages(rajRoom)
		require.Len(t, stored, 3)
		assert.Equal(t, chat.KindVoice, stored[2].Kind)
		assert.Equal(t, "voice-1.wav", stored[2].FileName)
		assert.Len(t, m.messages, 3)
	})

	t.Run("device failure", func(t *testing.T) {
		rec := &fakeRecorder{startErr: fmt.Errorf("%w: arecord not found", audio.ErrDeviceUnavailable)}
		m := NewTestModelWithMocks(t, client.NewDemoBackend(), client.NewMockState(), rec)
		m = openRoom(t, m, rajRoom)

		m = pressAndSettle(t, m, "ctrl+r")
		assert.Equal(t, audio.StateIdle, rec.State())
		assert.True(t, m.statusIsError)
		assert.True(t, strings.HasPrefix(m.statusMessage, "Microphone unavailable"))
		assert.Contains(t, m.statusMessage, "arecord not found")
	})

	t.Run("empty clip", func(t *testing.T) {
		backend := client.NewDemoBackend()
		rec := &fakeRecorder{stopErr: audio.ErrEmptyClip}
		m := NewTestModelWithMocks(t, backend, client.NewMockState(), rec)
		m = openRoom(t, m, rajRoom)

		m = pressAndSettle(t, m, "ctrl+r")
		m = pressAndSettle(t, m, "ctrl+r")
		assert.Equal(t, "Nothing was recorded", m.statusMessage)
		assert.Empty(t, backend.CallsFor("SendMessage"))
	})

	t.Run("esc discards", func(t *testing.T) {
		backend := client.NewDemoBackend()
		rec := &fakeRecorder{clip: clip}
		m := NewTestModelWithMocks(t, backend, client.NewMockState(), rec)
		m = openRoom(t, m, rajRoom)

		m = pressAndSettle(t, m, "ctrl+r")
		m = pressAndSettle(t, m, "esc")
		assert.Equal(t, 1, rec.cancels)
		assert.Equal(t, FocusComposer, m.focus)
		assert.Empty(t, backend.CallsFor("SendMessage"))
	})

	t.Run("switching rooms discards the recording", func(t *testing.T) {
		backend := client.NewDemoBackend()
		rec := &fakeRecorder{clip: clip}
		m := NewTestModelWithMocks(t, backend, client.NewMockState(), rec)
		m = openRoom(t, m, rajRoom)

		m = pressAndSettle(t, m, "ctrl+r")
		require.Equal(t, audio.StateRecording, rec.State())

		m = openRoom(t, m, siteRoom)
		assert.Equal(t, audio.StateIdle, rec.State())
		assert.Equal(t, 1, rec.cancels)
		assert.Empty(t, backend.CallsFor("SendMessage"))
		assert.Len(t, backend.Messages(siteRoom), 3)
	})

	t.Run("clip goes to the room it was stopped in", func(t *testing.T) {
		backend := client.NewDemoBackend()
		rec := &fakeRecorder{clip: clip}
		m := NewTestModelWithMocks(t, backend, client.NewMockState(), rec)
		m = openRoom(t, m, rajRoom)
		m = pressAndSettle(t, m, "ctrl+r")

		m, stop := press(m, "ctrl+r")
		require.NotNil(t, stop)
		stopped := execCmd(stop)
		require.Equal(t, audio.StateIdle, rec.State())

		// The user moves on before the stopped clip is delivered
		m = openRoom(t, m, siteRoom)
		for _, msg := range stopped {
			updated, cmd := m.Update(msg)
			m = settle(t, updated.(Model), cmd)
		}

		require.Len(t, backend.Messages(rajRoom), 3)
		assert.Equal(t, chat.KindVoice, backend.Messages(rajRoom)[2].Kind)
		assert.Len(t, backend.Messages(siteRoom), 3)
	})

	t.Run("no recorder hides the hint", func(t *testing.T) {
		m, _, _ := NewTestModel(t)
		m = openRoom(t, m, rajRoom)
		assert.NotContains(t, m.footerHints(), "Record voice")
		m = pressAndSettle(t, m, "ctrl+r")
		assert.False(t, m.isRecording())
	})
}

func TestQuitReleasesRecorderAndSavesDraft(t *testing.T) {
	state := client.NewMockState()
	rec := &fakeRecorder{}
	m := NewTestModelWithMocks(t, client.NewDemoBackend(), state, rec)
	m = openRoom(t, m, rajRoom)
	m = typeText(m, "unsent")
	m = pressAndSettle(t, m, "ctrl+r")
	require.Equal(t, audio.StateRecording, rec.State())

	_, cmd := press(m, "ctrl+c")
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Equal(t, 1, rec.cancels)

	draft, err := state.GetDraft(rajRoom)
	require.NoError(t, err)
	assert.Equal(t, "unsent", draft)
}

func TestSendFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("picked file is uploaded", func(t *testing.T) {
		path := filepath.Join(dir, "site-photo.png")
		require.NoError(t, os.WriteFile(path, []byte("\x89PNG\r\n\x1a\n"), 0o644))

		m, backend, _ := NewTestModel(t)
		m = openRoom(t, m, rajRoom)
		updated, cmd := m.Update(filePickedMsg{Path: path})
		m = settle(t, updated.(Model), cmd)

		stored := backend.Messages(rajRoom)
		require.Len(t, stored, 3)
		assert.Equal(t, chat.KindFile, stored[2].Kind)
		assert.Equal(t, "site-photo.png", stored[2].FileName)
		assert.Equal(t, "image/png", stored[2].MimeType)
		assert.Equal(t, 0, m.sending)
	})

	t.Run("missing file", func(t *testing.T) {
		m, backend, _ := NewTestModel(t)
		m = openRoom(t, m, rajRoom)
		updated, cmd := m.Update(filePickedMsg{Path: filepath.Join(dir, "nope.pdf")})
		m = settle(t, updated.(Model), cmd)

		assert.True(t, m.statusIsError)
		assert.Empty(t, backend.CallsFor("SendMessage"))
	})

	t.Run("no room selected", func(t *testing.T) {
		m, _, _ := NewTestModel(t)
		updated, _ := m.Update(filePickedMsg{Path: filepath.Join(dir, "site-photo.png")})
		m = updated.(Model)
		assert.Equal(t, "Select a conversation before sending a file", m.statusMessage)
	})

	t.Run("ctrl+f opens the picker", func(t *testing.T) {
		m, _, _ := NewTestModel(t)
		m = openRoom(t, m, rajRoom)
		m, cmd := press(m, "ctrl+f")
		assert.NotNil(t, cmd)
		assert.Equal(t, modal.ModalFilePicker, m.modalStack.TopType())
	})
}

func TestFooterShowsToast(t *testing.T) {
	m, _, _ := NewTestModel(t)
	cmd := m.setStatus("Saved")
	assert.NotNil(t, cmd)
	assert.True(t, strings.Contains(m.renderFooter(), "Saved"))

	// A stale clear does not hide a newer toast
	updated, _ := m.Update(ClearStatusMsg{Version: m.statusVersion - 1})
	m = updated.(Model)
	assert.Equal(t, "Saved", m.statusMessage)

	updated, _ = m.Update(ClearStatusMsg{Version: m.statusVersion})
	m = updated.(Model)
	assert.Equal(t, "", m.statusMessage)
}

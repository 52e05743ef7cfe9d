package ui

import (
	"errors"
	"fmt"

	"github.com/aeolun/crewchat/pkg/chat"
	"github.com/aeolun/crewchat/pkg/client"
	"github.com/aeolun/crewchat/pkg/client/audio"
	"github.com/aeolun/crewchat/pkg/client/ui/modal"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// Update handles incoming messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case ClearStatusMsg:
		// Only clear if this is the latest status (version matches)
		if msg.Version == m.statusVersion {
			m.statusMessage = ""
			m.statusIsError = false
		}
		return m, nil

	case roomsLoadedMsg:
		return m.handleRoomsLoaded(msg)

	case usersLoadedMsg:
		return m.handleUsersLoaded(msg)

	case roomLoadedMsg:
		return m.handleRoomLoaded(msg)

	case messagesLoadedMsg:
		return m.handleMessagesLoaded(msg)

	case directRoomOpenedMsg:
		return m.handleDirectRoomOpened(msg)

	case groupCreatedMsg:
		return m.handleGroupCreated(msg)

	case groupDeletedMsg:
		return m.handleGroupDeleted(msg)

	case membersAddedMsg:
		if msg.Err != nil {
			return m, m.setError("Failed to add members", msg.Err)
		}
		cmd := m.refetchAfterMembership(msg.RoomID)
		return m, tea.Batch(cmd, m.setStatus(fmt.Sprintf("Added %d member(s)", msg.Count)))

	case memberRemovedMsg:
		if msg.Err != nil {
			return m, m.setError("Failed to remove member", msg.Err)
		}
		cmd := m.refetchAfterMembership(msg.RoomID)
		return m, tea.Batch(cmd, m.setStatus("Member removed"))

	case messageDeletedMsg:
		if msg.Err != nil {
			return m, m.setError("Failed to delete message", msg.Err)
		}
		cmd := m.refetchMessages(msg.RoomID)
		return m, tea.Batch(cmd, m.refetchRooms(), m.setStatus("Message deleted"))

	case messageSentMsg:
		return m.handleMessageSent(msg)

	case filePickedMsg:
		if m.activeRoomID == "" {
			return m, m.setError("Select a conversation before sending a file", nil)
		}
		m.sending++
		return m, sendFileCmd(m.backend, m.activeRoomID, msg.Path)

	case recordingStartedMsg:
		if msg.Err != nil {
			return m, m.setError("Microphone unavailable", msg.Err)
		}
		return m, recordingTick()

	case recordingTickMsg:
		if m.isRecording() {
			return m, recordingTick()
		}
		return m, nil

	case recordingStoppedMsg:
		return m.handleRecordingStopped(msg)

	case realtimeConnectedMsg:
		if msg.Err != nil {
			m.logf("Realtime feed unavailable: %v", msg.Err)
			m.rtStatus = RealtimeOffline
			return m, realtimeRetry()
		}
		m.rtStatus = RealtimeLive
		return m, nil

	case realtimeRetryMsg:
		if m.realtime == nil || m.realtime.IsConnected() {
			return m, nil
		}
		return m, connectRealtimeCmd(m.realtime)

	case realtimeStateMsg:
		return m.handleRealtimeState(msg)

	case realtimeEventMsg:
		return m.handleRealtimeEvent(msg)

	case realtimeClosedMsg:
		m.rtStatus = RealtimeOffline
		return m, nil

	case refetchMsg:
		return m.handleRefetch(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	default:
		// Directory listings and other async messages for the active modal
		if updatable, ok := m.modalStack.Top().(modal.UpdatableModal); ok {
			return m, updatable.Update(msg)
		}
		var cmd tea.Cmd
		switch m.focus {
		case FocusRooms:
			m.search, cmd = m.search.Update(msg)
		case FocusComposer:
			m.composer, cmd = m.composer.Update(msg)
		}
		return m, cmd
	}
}

// handleKeyPress routes keys to the active modal, then the command table, then the focused widget
func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.lastInteractionTime = m.now()

	if !m.modalStack.IsEmpty() {
		activeModal := m.modalStack.Top()
		handled, newModal, cmd := activeModal.HandleKey(msg)

		if newModal == nil {
			m.modalStack.Pop()
		} else if newModal.Type() != activeModal.Type() {
			m.modalStack.Pop()
			m.modalStack.Push(newModal)
		}

		if handled {
			return m, cmd
		}
		if activeModal.IsBlockingInput() {
			return m, nil
		}
	}

	if c, ok := m.lookupCommand(msg.String()); ok {
		return c.Run(m)
	}

	var cmd tea.Cmd
	switch m.focus {
	case FocusRooms:
		before := m.search.Value()
		m.search, cmd = m.search.Update(msg)
		if m.search.Value() != before {
			m.listCursor = 0
		}
	case FocusComposer:
		m.composer, cmd = m.composer.Update(msg)
	case FocusMessages:
		m.viewport, cmd = m.viewport.Update(msg)
	}
	return m, cmd
}

// === Fetch results ===

func (m Model) handleRoomsLoaded(msg roomsLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.Generation != m.roomsToken {
		return m, nil
	}
	m.loadingRooms = false
	if msg.Err != nil {
		m.logf("Failed to load rooms: %v", msg.Err)
		m.roomsErr = msg.Err
		return m, nil
	}
	m.roomsErr = nil
	m.rooms = msg.Rooms
	if m.rooms == nil {
		m.rooms = []chat.Room{}
	}
	if m.activeRoom == nil && m.activeRoomID != "" {
		for i := range m.rooms {
			if m.rooms[i].ID == m.activeRoomID {
				room := m.rooms[i]
				m.activeRoom = &room
			}
		}
	}
	m = m.moveListCursor(0)
	return m, nil
}

func (m Model) handleUsersLoaded(msg usersLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.Generation != m.usersToken {
		return m, nil
	}
	if msg.Err != nil {
		m.logf("Failed to load users: %v", msg.Err)
		m.usersErr = msg.Err
		return m, nil
	}
	m.usersErr = nil
	m.users = msg.Users
	if m.users == nil {
		m.users = []chat.User{}
	}
	m.createGrp.SetUsers(m.users)
	return m, nil
}

func (m Model) handleRoomLoaded(msg roomLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.Generation != m.roomToken || msg.RoomID != m.activeRoomID {
		return m, nil
	}
	if msg.Err != nil {
		if client.IsNotFound(msg.Err) {
			m.clearSelection()
			return m, tea.Batch(m.refetchRooms(), m.setError("That conversation no longer exists", nil))
		}
		m.logf("Failed to load room %s: %v", msg.RoomID, msg.Err)
		m.roomErr = msg.Err
		return m, nil
	}
	m.roomErr = nil
	room := msg.Room
	m.activeRoom = &room
	m = m.moveMemberCursor(0)
	if !room.IsGroup && m.focus == FocusMembers {
		m.focus = FocusComposer
		m.applyFocus()
	}
	m.resize()
	return m, nil
}

func (m Model) handleMessagesLoaded(msg messagesLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.Generation != m.messagesToken || msg.RoomID != m.activeRoomID {
		return m, nil
	}
	m.viewState = ViewRoomReady
	if msg.Err != nil {
		m.logf("Failed to load messages for %s: %v", msg.RoomID, msg.Err)
		m.messagesErr = msg.Err
		m.messages = nil
		m.refreshViewport()
		return m, nil
	}
	m.messagesErr = nil
	m.messages = msg.Messages
	// Follow the newest message
	m.messageCursor = len(m.messages) - 1
	if m.messageCursor < 0 {
		m.messageCursor = 0
	}
	m.refreshViewport()
	m.viewport.GotoBottom()
	return m, nil
}

// === Mutation results ===

func (m Model) handleDirectRoomOpened(msg directRoomOpenedMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		return m, m.setError("Failed to start chat", msg.Err)
	}
	m.search.Reset()
	m.listCursor = 0
	m.upsertRoom(msg.Room)
	selectCmd := m.selectRoom(msg.Room.ID)
	return m, tea.Batch(selectCmd, m.refetchRooms())
}

func (m Model) handleGroupCreated(msg groupCreatedMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		m.createGrp.SubmitFailed()
		return m, m.setError("Failed to create group", msg.Err)
	}
	m.createGrp.Reset()
	m.modalStack.RemoveByType(modal.ModalCreateGroup)
	m.upsertRoom(msg.Room)
	selectCmd := m.selectRoom(msg.Room.ID)
	return m, tea.Batch(selectCmd, m.refetchRooms(), m.setStatus("Created "+msg.Room.Name))
}

func (m Model) handleGroupDeleted(msg groupDeletedMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		return m, m.setError("Failed to delete group", msg.Err)
	}
	if msg.RoomID == m.activeRoomID {
		m.clearSelection()
	}
	m.removeRoom(msg.RoomID)
	return m, tea.Batch(m.refetchRooms(), m.setStatus("Group deleted"))
}

func (m Model) handleMessageSent(msg messageSentMsg) (tea.Model, tea.Cmd) {
	if m.sending > 0 {
		m.sending--
	}
	if msg.Kind == chat.KindText {
		m.textInFlight = withFlag(m.textInFlight, msg.RoomID, false)
	}
	if msg.Err != nil {
		return m, m.setError(fmt.Sprintf("Failed to send %s message", msg.Kind), msg.Err)
	}
	if msg.Kind == chat.KindText {
		m.clearSentDraft(msg.RoomID, msg.Draft)
	}
	cmd := m.refetchMessages(msg.RoomID)
	return m, tea.Batch(cmd, m.refetchRooms())
}

func (m Model) handleRecordingStopped(msg recordingStoppedMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		if errors.Is(msg.Err, audio.ErrEmptyClip) {
			return m, m.setError("Nothing was recorded", nil)
		}
		return m, m.setError("Recording failed", msg.Err)
	}
	if msg.RoomID == "" {
		return m, nil
	}
	out := client.OutgoingMessage{
		Kind:     chat.KindVoice,
		FileName: msg.Clip.FileName,
		MimeType: msg.Clip.MimeType,
		Data:     msg.Clip.Data,
	}
	m.sending++
	return m, sendMessageCmd(m.backend, msg.RoomID, out)
}

// === Realtime ===

// listen re-arms the realtime listener after each delivery
func (m Model) listen() tea.Cmd {
	if m.realtime == nil {
		return nil
	}
	return listenRealtime(m.realtime)
}

func (m Model) handleRealtimeState(msg realtimeStateMsg) (tea.Model, tea.Cmd) {
	cmds := []tea.Cmd{m.listen()}
	switch msg.Update.State {
	case client.StateTypeConnected:
		wasDown := m.rtStatus != RealtimeLive
		m.rtStatus = RealtimeLive
		if wasDown {
			// Events may have been missed while the feed was down
			cmds = append(cmds, m.refetchRooms())
			if m.activeRoomID != "" {
				cmds = append(cmds, m.refetchMessages(m.activeRoomID))
			}
		}
	case client.StateTypeReconnecting:
		m.rtStatus = RealtimeReconnecting
	case client.StateTypeDisconnected:
		if msg.Update.Err != nil {
			m.logf("Realtime feed dropped: %v", msg.Update.Err)
		}
		m.rtStatus = RealtimeReconnecting
	}
	return m, tea.Batch(cmds...)
}

func (m Model) handleRealtimeEvent(msg realtimeEventMsg) (tea.Model, tea.Cmd) {
	ev := msg.Event
	cmds := []tea.Cmd{m.listen()}

	if ev.Type == client.EventRoomDeleted && ev.RoomID != "" && ev.RoomID == m.activeRoomID {
		m.clearSelection()
		m.removeRoom(ev.RoomID)
		cmds = append(cmds, m.setError("This conversation was deleted", nil))
	}

	if ev.AffectsMessages() && ev.RoomID != "" && ev.RoomID == m.activeRoomID {
		cmds = append(cmds, scheduleRefetch(m.invalidator, client.MessagesKey(ev.RoomID), ev.RoomID))
	}
	if ev.AffectsRooms() {
		cmds = append(cmds, scheduleRefetch(m.invalidator, client.RoomsKey, ""))
		if ev.Type != client.EventMessageNew && ev.RoomID != "" && ev.RoomID == m.activeRoomID {
			cmds = append(cmds, scheduleRefetch(m.invalidator, client.RoomKey(ev.RoomID), ev.RoomID))
		}
	}
	if ev.Type == client.EventMessageNew {
		cmds = append(cmds, m.notifyCmd(ev))
	}
	return m, tea.Batch(cmds...)
}

func (m Model) handleRefetch(msg refetchMsg) (tea.Model, tea.Cmd) {
	m.invalidator.Done(msg.Key)
	switch msg.Key {
	case client.RoomsKey:
		return m, m.refetchRooms()
	case client.MessagesKey(msg.RoomID):
		return m, m.refetchMessages(msg.RoomID)
	case client.RoomKey(msg.RoomID):
		if msg.RoomID != m.activeRoomID {
			return m, nil
		}
		m.roomToken = m.nextGeneration()
		return m, fetchRoomCmd(m.backend, msg.RoomID, m.roomToken)
	}
	return m, nil
}

// === Cache invalidation ===

// refetchRooms reloads the room list; results of older room list fetches are dropped
func (m *Model) refetchRooms() tea.Cmd {
	m.roomsToken = m.nextGeneration()
	return fetchRoomsCmd(m.backend, m.roomsToken)
}

// refetchMessages reloads the message list if roomID is still active
func (m *Model) refetchMessages(roomID string) tea.Cmd {
	if roomID == "" || roomID != m.activeRoomID {
		return nil
	}
	m.messagesToken = m.nextGeneration()
	return fetchMessagesCmd(m.backend, roomID, m.messagesToken)
}

func (m *Model) refetchAfterMembership(roomID string) tea.Cmd {
	cmds := []tea.Cmd{m.refetchRooms()}
	if roomID == m.activeRoomID {
		m.roomToken = m.nextGeneration()
		cmds = append(cmds, fetchRoomCmd(m.backend, roomID, m.roomToken))
	}
	return tea.Batch(cmds...)
}

// upsertRoom puts room into the local list ahead of the refetch
func (m *Model) upsertRoom(room chat.Room) {
	for i := range m.rooms {
		if m.rooms[i].ID == room.ID {
			m.rooms[i] = room
			return
		}
	}
	m.rooms = append([]chat.Room{room}, m.rooms...)
}

func (m *Model) removeRoom(roomID string) {
	kept := make([]chat.Room, 0, len(m.rooms))
	for _, room := range m.rooms {
		if room.ID != roomID {
			kept = append(kept, room)
		}
	}
	m.rooms = kept
	*m = m.moveListCursor(0)
}

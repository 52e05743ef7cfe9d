package ui

import (
	"errors"
	"fmt"

	"github.com/aeolun/crewchat/pkg/chat"
	"github.com/aeolun/crewchat/pkg/client"
	"github.com/aeolun/crewchat/pkg/client/ui/modal"
	tea "github.com/charmbracelet/bubbletea"
)

// setStatus shows a transient success toast
func (m *Model) setStatus(message string) tea.Cmd {
	m.statusMessage = message
	m.statusIsError = false
	m.statusVersion++
	return statusTimeout(m.statusVersion)
}

// setError shows a transient error toast and logs the cause
func (m *Model) setError(message string, err error) tea.Cmd {
	if err != nil {
		m.logf("%s: %v", message, err)
		message = fmt.Sprintf("%s: %v", message, errorText(err))
	}
	m.statusMessage = message
	m.statusIsError = true
	m.statusVersion++
	return statusTimeout(m.statusVersion)
}

// errorText trims API errors to what the user needs to see
func errorText(err error) string {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return err.Error()
}

// === Room list ===

func (m Model) moveListCursor(delta int) Model {
	n := m.listing().Len()
	if n == 0 {
		m.listCursor = 0
		return m
	}
	m.listCursor += delta
	if m.listCursor < 0 {
		m.listCursor = 0
	}
	if m.listCursor >= n {
		m.listCursor = n - 1
	}
	return m
}

// openSelection opens the room under the cursor, or starts a 1:1 chat with the user under it
func (m Model) openSelection() (Model, tea.Cmd) {
	listing := m.listing()
	if m.listCursor >= listing.Len() {
		return m, nil
	}
	if listing.Mode == chat.ListingUsers {
		user := listing.Users[m.listCursor]
		return m, openDirectRoomCmd(m.backend, user.ID)
	}
	cmd := m.selectRoom(listing.Rooms[m.listCursor].ID)
	return m, cmd
}

func (m Model) openCreateGroup() (Model, tea.Cmd) {
	m.createGrp.SetUsers(m.users)
	m.modalStack.Push(m.createGrp)
	return m, nil
}

// === Message stream ===

func (m Model) moveMessageCursor(delta int) Model {
	if len(m.messages) == 0 {
		m.messageCursor = 0
		return m
	}
	m.messageCursor += delta
	if m.messageCursor < 0 {
		m.messageCursor = 0
	}
	if m.messageCursor >= len(m.messages) {
		m.messageCursor = len(m.messages) - 1
	}
	m.refreshViewport()
	m.scrollToCursor()
	return m
}

func (m Model) canDeleteSelectedMessage() bool {
	msg, ok := m.selectedMessage()
	return ok && chat.CanDeleteMessage(msg, m.self())
}

func (m Model) confirmDeleteMessage() (Model, tea.Cmd) {
	msg, ok := m.selectedMessage()
	if !ok {
		return m, nil
	}
	backend := m.backend
	roomID := m.activeRoomID
	m.modalStack.Push(modal.NewConfirmModal(
		"Delete message",
		"Delete \""+truncateString(msg.Preview(), 40)+"\"? This cannot be undone.",
		"Delete",
		func() tea.Cmd { return deleteMessageCmd(backend, roomID, msg.ID) },
	))
	return m, nil
}

// === Composer ===

// sendDraft dispatches the composer text. Whitespace-only drafts are left untouched,
// and the draft stays in the composer until the send succeeds.
func (m Model) sendDraft() (Model, tea.Cmd) {
	if m.textInFlight[m.activeRoomID] {
		return m, nil
	}
	draft := m.composer.Value()
	out, err := client.NewTextMessage(draft)
	if err != nil {
		return m, nil
	}
	m.textInFlight = withFlag(m.textInFlight, m.activeRoomID, true)
	m.sending++
	return m, sendTextCmd(m.backend, m.activeRoomID, draft, out)
}

// clearSentDraft empties the draft of roomID unless it was edited after the send
func (m *Model) clearSentDraft(roomID, sent string) {
	if roomID == m.activeRoomID {
		if m.composer.Value() != sent {
			return
		}
		m.composer.Reset()
	} else if stored, err := m.state.GetDraft(roomID); err != nil || stored != sent {
		return
	}
	if err := m.state.SaveDraft(roomID, ""); err != nil {
		m.logf("Failed to clear draft for %s: %v", roomID, err)
	}
}

// withFlag copies flags so Model values never share the map
func withFlag(flags map[string]bool, key string, on bool) map[string]bool {
	out := make(map[string]bool, len(flags)+1)
	for k, v := range flags {
		if k != key {
			out[k] = v
		}
	}
	if on {
		out[key] = true
	}
	return out
}

func (m Model) startRecording() (Model, tea.Cmd) {
	return m, startRecordingCmd(m.recorder)
}

func (m Model) stopRecording() (Model, tea.Cmd) {
	return m, stopRecordingCmd(m.recorder, m.activeRoomID)
}

func (m Model) cancelRecording() (Model, tea.Cmd) {
	if err := m.recorder.Cancel(); err != nil {
		return m, m.setError("Failed to stop recording", err)
	}
	return m, m.setStatus("Recording discarded")
}

func (m Model) openFilePicker() (Model, tea.Cmd) {
	m.modalStack.Push(m.filePicker)
	return m, m.filePicker.Init()
}

// === Membership panel ===

func (m Model) moveMemberCursor(delta int) Model {
	room, ok := m.activeGroup()
	if !ok || len(room.Members) == 0 {
		m.memberCursor = 0
		return m
	}
	m.memberCursor += delta
	if m.memberCursor < 0 {
		m.memberCursor = 0
	}
	if m.memberCursor >= len(room.Members) {
		m.memberCursor = len(room.Members) - 1
	}
	return m
}

func (m Model) openAddMembers() (Model, tea.Cmd) {
	room, ok := m.activeGroup()
	if !ok {
		return m, nil
	}
	backend := m.backend
	m.modalStack.Push(modal.NewAddMembersModal(room, m.users, m.self().ID, func(roomID string, memberIDs []string) tea.Cmd {
		return addMembersCmd(backend, roomID, memberIDs)
	}))
	return m, nil
}

func (m Model) canRemoveSelectedMember() bool {
	room, ok := m.activeGroup()
	if !ok {
		return false
	}
	member, ok := m.selectedMember()
	return ok && chat.CanRemoveMember(room, m.self(), member.ID)
}

// removeSelectedMember removes the member under the cursor without asking
func (m Model) removeSelectedMember() (Model, tea.Cmd) {
	member, ok := m.selectedMember()
	if !ok {
		return m, nil
	}
	return m, removeMemberCmd(m.backend, m.activeRoomID, member.ID)
}

func (m Model) canDeleteActiveGroup() bool {
	room, ok := m.activeGroup()
	return ok && chat.CanDeleteGroup(room, m.self())
}

func (m Model) confirmDeleteGroup() (Model, tea.Cmd) {
	room, ok := m.activeGroup()
	if !ok {
		return m, nil
	}
	backend := m.backend
	m.modalStack.Push(modal.NewConfirmModal(
		"Delete group",
		fmt.Sprintf("Delete %q and all of its messages for every member?", room.Name),
		"Delete group",
		func() tea.Cmd { return deleteGroupCmd(backend, room.ID) },
	))
	return m, nil
}

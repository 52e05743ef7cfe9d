package ui

import (
	"context"
	"log"
	"time"

	"github.com/aeolun/crewchat/pkg/chat"
	"github.com/aeolun/crewchat/pkg/client"
	"github.com/aeolun/crewchat/pkg/client/audio"
	"github.com/aeolun/crewchat/pkg/client/ui/modal"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/gen2brain/beeep"
)

// ViewState is the conversation view's position in its selection cycle
type ViewState int

const (
	ViewNoRoomSelected ViewState = iota
	ViewRoomLoading
	ViewRoomReady
)

func (v ViewState) String() string {
	switch v {
	case ViewRoomLoading:
		return "RoomSelected(loading)"
	case ViewRoomReady:
		return "RoomSelected(ready)"
	default:
		return "NoRoomSelected"
	}
}

// Focus is the pane that receives keys
type Focus int

const (
	FocusRooms Focus = iota
	FocusMessages
	FocusComposer
	FocusMembers
)

// RealtimeStatus mirrors the change feed's connection state for the header
type RealtimeStatus int

const (
	RealtimeOffline RealtimeStatus = iota
	RealtimeLive
	RealtimeReconnecting
)

// VoiceRecorder captures voice clips; *audio.Recorder implements it
type VoiceRecorder interface {
	Start(ctx context.Context) error
	Stop() (audio.Clip, error)
	Cancel() error
	State() audio.State
	Elapsed() time.Duration
}

// Settings are the user-facing knobs from the config file
type Settings struct {
	Version         string
	Notifications   bool
	IdleNotifyAfter time.Duration
	TimeFormat      string
	Location        *time.Location
	FileDir         string // Where the file picker starts
}

// DefaultSettings returns the settings used when the config leaves them unset
func DefaultSettings() Settings {
	return Settings{
		Version:         "dev",
		Notifications:   true,
		IdleNotifyAfter: 5 * time.Minute,
		TimeFormat:      "15:04",
		Location:        time.Local,
	}
}

// Model represents the application state
type Model struct {
	// Dependencies
	session     client.Session
	backend     client.Backend
	state       client.StateInterface
	realtime    client.RealtimeInterface
	recorder    VoiceRecorder
	invalidator *client.Invalidator
	settings    Settings
	logger      *log.Logger

	// Layout and modals
	width      int
	height     int
	focus      Focus
	modalStack modal.ModalStack
	createGrp  *modal.CreateGroupModal
	filePicker *modal.FilePickerModal

	// Room list pane
	search       textinput.Model
	rooms        []chat.Room
	roomsErr     error
	loadingRooms bool
	users        []chat.User
	usersErr     error
	listCursor   int

	// Active room
	viewState     ViewState
	activeRoomID  string
	activeRoom    *chat.Room
	roomErr       error
	messages      []chat.Message
	messagesErr   error
	messageCursor int
	memberCursor  int

	// Fetch generation tokens. Each fetch takes the next generation; a result is
	// applied only if it still carries the latest token for its resource.
	generation    uint64
	roomsToken    uint64
	usersToken    uint64
	roomToken     uint64
	messagesToken uint64

	// Composer
	composer textarea.Model
	sending  int // Sends in flight; input is never blocked on them
	// Rooms with a text send in flight. Enter is ignored there until it resolves.
	textInFlight map[string]bool

	// Message stream
	viewport    viewport.Model
	itemLines   map[int]int // message index -> first line in viewport content
	spinner     spinner.Model
	rtStatus    RealtimeStatus

	// Transient toast shown in the footer
	statusMessage string
	statusIsError bool
	statusVersion uint64

	// Notifications
	lastInteractionTime time.Time
	now                 func() time.Time
	notify              func(title, body string) error
}

// NewModel creates a new application model. recorder and realtime may be nil.
func NewModel(session client.Session, backend client.Backend, state client.StateInterface, realtime client.RealtimeInterface, recorder VoiceRecorder, settings Settings, logger *log.Logger) Model {
	if settings.TimeFormat == "" {
		settings.TimeFormat = "15:04"
	}
	if settings.Location == nil {
		settings.Location = time.Local
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(PrimaryColor)

	search := textinput.New()
	search.Placeholder = "Search people or rooms"
	search.Prompt = "/ "
	search.CharLimit = 64

	// Create textarea for the composer
	ta := textarea.New()
	ta.Placeholder = "Type a message..."
	ta.Prompt = ""
	ta.CharLimit = 0
	ta.SetWidth(80) // Will be resized dynamically
	ta.SetHeight(3)
	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.ShowLineNumbers = false
	ta.KeyMap.InsertNewline.SetEnabled(false) // Enter sends
	ta.FocusedStyle.Base = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(PrimaryColor).
		Padding(0, 1)
	ta.BlurredStyle.Base = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(MutedColor).
		Padding(0, 1)

	m := Model{
		session:             session,
		backend:             backend,
		state:               state,
		realtime:            realtime,
		recorder:            recorder,
		invalidator:         client.NewInvalidator(500*time.Millisecond, 3),
		settings:            settings,
		logger:              logger,
		focus:               FocusRooms,
		search:              search,
		rooms:               []chat.Room{},
		users:               []chat.User{},
		composer:            ta,
		viewport:            viewport.New(80, 20),
		itemLines:           map[int]int{},
		spinner:             s,
		lastInteractionTime: time.Now(),
		now:                 time.Now,
		notify: func(title, body string) error {
			return beeep.Notify(title, body, "")
		},
	}
	m.search.Focus()

	m.createGrp = modal.NewCreateGroupModal(nil, session.User.ID, func(name string, memberIDs []string) tea.Cmd {
		return createGroupCmd(backend, name, memberIDs)
	})
	m.filePicker = modal.NewFilePickerModal(settings.FileDir, func(path string) tea.Cmd {
		return func() tea.Msg { return filePickedMsg{Path: path} }
	})

	// Restore the room that was open when the client last quit
	m.loadingRooms = true
	m.roomsToken = m.nextGeneration()
	m.usersToken = m.nextGeneration()
	if last := state.GetLastRoomID(); last != "" {
		m.activeRoomID = last
		m.viewState = ViewRoomLoading
		m.roomToken = m.nextGeneration()
		m.messagesToken = m.nextGeneration()
		m.restoreDraft(last)
	}

	return m
}

// Init starts the initial fetches and the realtime listener
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		fetchRoomsCmd(m.backend, m.roomsToken),
		fetchUsersCmd(m.backend, m.usersToken),
		m.spinner.Tick,
		textinput.Blink,
	}
	if m.activeRoomID != "" {
		cmds = append(cmds,
			fetchRoomCmd(m.backend, m.activeRoomID, m.roomToken),
			fetchMessagesCmd(m.backend, m.activeRoomID, m.messagesToken),
		)
	}
	if m.realtime != nil {
		cmds = append(cmds, connectRealtimeCmd(m.realtime), listenRealtime(m.realtime))
	}
	return tea.Batch(cmds...)
}

func (m *Model) nextGeneration() uint64 {
	m.generation++
	return m.generation
}

func (m *Model) logf(format string, args ...interface{}) {
	if m.logger != nil {
		m.logger.Printf(format, args...)
	}
}

// self returns the signed-in user
func (m Model) self() chat.User {
	return m.session.User
}

// ViewState returns the conversation view state
func (m Model) ViewState() ViewState {
	return m.viewState
}

// ActiveRoomID returns the selected room, or "" when none is selected
func (m Model) ActiveRoomID() string {
	return m.activeRoomID
}

// listing returns what the room list pane currently shows
func (m Model) listing() chat.Listing {
	return chat.Search(m.rooms, m.users, m.search.Value(), m.self().ID)
}

// activeGroup returns the active room if it is a group with loaded detail
func (m Model) activeGroup() (chat.Room, bool) {
	if m.activeRoom == nil || !m.activeRoom.IsGroup {
		return chat.Room{}, false
	}
	return *m.activeRoom, true
}

// isOwner reports whether the current user owns the active group
func (m Model) isOwner() bool {
	room, ok := m.activeGroup()
	return ok && chat.CanManageMembers(room, m.self())
}

// selectedMessage returns the message under the cursor in the stream
func (m Model) selectedMessage() (chat.Message, bool) {
	if m.messageCursor < 0 || m.messageCursor >= len(m.messages) {
		return chat.Message{}, false
	}
	return m.messages[m.messageCursor], true
}

// selectedMember returns the member under the cursor in the membership panel
func (m Model) selectedMember() (chat.User, bool) {
	room, ok := m.activeGroup()
	if !ok || m.memberCursor < 0 || m.memberCursor >= len(room.Members) {
		return chat.User{}, false
	}
	return room.Members[m.memberCursor], true
}

// isRecording reports whether a voice clip is being captured
func (m Model) isRecording() bool {
	return m.recorder != nil && m.recorder.State() == audio.StateRecording
}

// selectRoom makes roomID active and fetches its messages and detail
func (m *Model) selectRoom(roomID string) tea.Cmd {
	if roomID == m.activeRoomID && m.viewState != ViewNoRoomSelected {
		m.focus = FocusComposer
		m.applyFocus()
		return nil
	}

	m.saveDraft()
	m.discardRecording()
	m.activeRoomID = roomID
	m.activeRoom = nil
	for i := range m.rooms {
		if m.rooms[i].ID == roomID {
			room := m.rooms[i]
			m.activeRoom = &room
			break
		}
	}
	m.viewState = ViewRoomLoading
	m.messages = nil
	m.messagesErr = nil
	m.roomErr = nil
	m.messageCursor = 0
	m.memberCursor = 0
	m.restoreDraft(roomID)
	m.focus = FocusComposer
	m.applyFocus()
	m.refreshViewport()

	if err := m.state.SetLastRoomID(roomID); err != nil {
		m.logf("Failed to remember last room: %v", err)
	}

	m.roomToken = m.nextGeneration()
	m.messagesToken = m.nextGeneration()
	return tea.Batch(
		fetchMessagesCmd(m.backend, roomID, m.messagesToken),
		fetchRoomCmd(m.backend, roomID, m.roomToken),
	)
}

// clearSelection returns to NoRoomSelected with the room list focused
func (m *Model) clearSelection() {
	m.discardRecording()
	m.activeRoomID = ""
	m.activeRoom = nil
	m.viewState = ViewNoRoomSelected
	m.messages = nil
	m.messagesErr = nil
	m.roomErr = nil
	m.messageCursor = 0
	m.memberCursor = 0
	m.composer.Reset()
	// Results still in flight for the old room must not land
	m.roomToken = m.nextGeneration()
	m.messagesToken = m.nextGeneration()
	m.focus = FocusRooms
	m.applyFocus()
	m.refreshViewport()
	if err := m.state.SetLastRoomID(""); err != nil {
		m.logf("Failed to clear last room: %v", err)
	}
}

// discardRecording drops a clip in progress; it belongs to the room being left
func (m *Model) discardRecording() {
	if !m.isRecording() {
		return
	}
	if err := m.recorder.Cancel(); err != nil {
		m.logf("Failed to cancel recording: %v", err)
	}
}

// saveDraft stores the composer text for the active room
func (m *Model) saveDraft() {
	if m.activeRoomID == "" {
		return
	}
	if err := m.state.SaveDraft(m.activeRoomID, m.composer.Value()); err != nil {
		m.logf("Failed to save draft for %s: %v", m.activeRoomID, err)
	}
}

// restoreDraft loads the saved composer text for roomID
func (m *Model) restoreDraft(roomID string) {
	m.composer.Reset()
	draft, err := m.state.GetDraft(roomID)
	if err != nil {
		m.logf("Failed to load draft for %s: %v", roomID, err)
		return
	}
	m.composer.SetValue(draft)
}

// applyFocus moves the cursor between the search box and the composer
func (m *Model) applyFocus() {
	switch m.focus {
	case FocusRooms:
		m.composer.Blur()
		m.search.Focus()
	case FocusComposer:
		m.search.Blur()
		m.composer.Focus()
	default:
		m.search.Blur()
		m.composer.Blur()
	}
}

// cycleFocus moves focus through the visible panes
func (m *Model) cycleFocus(forward bool) {
	order := []Focus{FocusRooms}
	if m.activeRoomID != "" {
		order = append(order, FocusMessages, FocusComposer)
		if _, ok := m.activeGroup(); ok {
			order = append(order, FocusMembers)
		}
	}
	idx := 0
	for i, f := range order {
		if f == m.focus {
			idx = i
			break
		}
	}
	if forward {
		idx = (idx + 1) % len(order)
	} else {
		idx = (idx - 1 + len(order)) % len(order)
	}
	m.focus = order[idx]
	m.applyFocus()
}

// saveAndQuit persists the draft, releases the recorder and quits
func (m *Model) saveAndQuit() tea.Cmd {
	m.saveDraft()
	if m.recorder != nil {
		if err := m.recorder.Cancel(); err != nil {
			m.logf("Failed to release recorder: %v", err)
		}
	}
	return tea.Quit
}

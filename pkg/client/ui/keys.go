package ui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// anyFocus marks commands that work regardless of the focused pane
const anyFocus Focus = -1

// command binds keys to an action. Available gates both execution and the footer hint,
// so a key that is not shown never does anything.
type command struct {
	Keys      []string
	Hint      string // Key label in the footer; empty hides the command from hints
	Help      string
	Focus     Focus
	Available func(m Model) bool
	Run       func(m Model) (Model, tea.Cmd)
}

func always(Model) bool { return true }

// keyCommands is the binding table, in priority order
func keyCommands() []command {
	return []command{
		// === Global ===
		{
			Keys: []string{"ctrl+c"}, Hint: "Ctrl+C", Help: "Quit", Focus: anyFocus,
			Available: always,
			Run:       func(m Model) (Model, tea.Cmd) { return m, m.saveAndQuit() },
		},
		{
			Keys: []string{"tab"}, Hint: "Tab", Help: "Switch pane", Focus: anyFocus,
			Available: always,
			Run:       func(m Model) (Model, tea.Cmd) { m.cycleFocus(true); return m, nil },
		},
		{
			Keys: []string{"shift+tab"}, Focus: anyFocus,
			Available: always,
			Run:       func(m Model) (Model, tea.Cmd) { m.cycleFocus(false); return m, nil },
		},
		{
			Keys: []string{"ctrl+n"}, Hint: "Ctrl+N", Help: "New group", Focus: anyFocus,
			Available: always,
			Run:       Model.openCreateGroup,
		},

		// === Room list ===
		{
			Keys: []string{"up"}, Focus: FocusRooms,
			Available: always,
			Run:       func(m Model) (Model, tea.Cmd) { return m.moveListCursor(-1), nil },
		},
		{
			Keys: []string{"down"}, Focus: FocusRooms,
			Available: always,
			Run:       func(m Model) (Model, tea.Cmd) { return m.moveListCursor(1), nil },
		},
		{
			Keys: []string{"enter"}, Hint: "Enter", Help: "Open", Focus: FocusRooms,
			Available: func(m Model) bool { return m.listing().Len() > 0 },
			Run:       Model.openSelection,
		},
		{
			Keys: []string{"esc"}, Hint: "Esc", Help: "Clear search", Focus: FocusRooms,
			Available: func(m Model) bool { return m.search.Value() != "" },
			Run: func(m Model) (Model, tea.Cmd) {
				m.search.Reset()
				m.listCursor = 0
				return m, nil
			},
		},

		// === Message stream ===
		{
			Keys: []string{"up", "k"}, Focus: FocusMessages,
			Available: always,
			Run:       func(m Model) (Model, tea.Cmd) { return m.moveMessageCursor(-1), nil },
		},
		{
			Keys: []string{"down", "j"}, Focus: FocusMessages,
			Available: always,
			Run:       func(m Model) (Model, tea.Cmd) { return m.moveMessageCursor(1), nil },
		},
		{
			Keys: []string{"G", "end"}, Hint: "G", Help: "Newest", Focus: FocusMessages,
			Available: func(m Model) bool { return len(m.messages) > 0 },
			Run: func(m Model) (Model, tea.Cmd) {
				m.messageCursor = len(m.messages) - 1
				m.refreshViewport()
				m.viewport.GotoBottom()
				return m, nil
			},
		},
		{
			Keys: []string{"d"}, Hint: "d", Help: "Delete message", Focus: FocusMessages,
			Available: Model.canDeleteSelectedMessage,
			Run:       Model.confirmDeleteMessage,
		},
		{
			Keys: []string{"q"}, Hint: "q", Help: "Quit", Focus: FocusMessages,
			Available: always,
			Run:       func(m Model) (Model, tea.Cmd) { return m, m.saveAndQuit() },
		},

		// === Composer ===
		{
			Keys: []string{"enter"}, Hint: "Enter", Help: "Send", Focus: FocusComposer,
			Available: func(m Model) bool { return m.activeRoomID != "" },
			Run:       Model.sendDraft,
		},
		{
			Keys: []string{"ctrl+r"}, Hint: "Ctrl+R", Help: "Record voice", Focus: FocusComposer,
			Available: func(m Model) bool { return m.recorder != nil && m.activeRoomID != "" && !m.isRecording() },
			Run:       Model.startRecording,
		},
		{
			Keys: []string{"ctrl+r"}, Hint: "Ctrl+R", Help: "Stop and send", Focus: FocusComposer,
			Available: Model.isRecording,
			Run:       Model.stopRecording,
		},
		{
			Keys: []string{"esc"}, Hint: "Esc", Help: "Discard recording", Focus: FocusComposer,
			Available: Model.isRecording,
			Run:       Model.cancelRecording,
		},
		{
			Keys: []string{"ctrl+f"}, Hint: "Ctrl+F", Help: "Send file", Focus: FocusComposer,
			Available: func(m Model) bool { return m.activeRoomID != "" && !m.isRecording() },
			Run:       Model.openFilePicker,
		},
		{
			Keys: []string{"esc"}, Focus: FocusComposer,
			Available: always,
			Run: func(m Model) (Model, tea.Cmd) {
				m.focus = FocusRooms
				m.applyFocus()
				return m, nil
			},
		},

		// === Membership panel (owner actions gated on permissions) ===
		{
			Keys: []string{"up", "k"}, Focus: FocusMembers,
			Available: always,
			Run:       func(m Model) (Model, tea.Cmd) { return m.moveMemberCursor(-1), nil },
		},
		{
			Keys: []string{"down", "j"}, Focus: FocusMembers,
			Available: always,
			Run:       func(m Model) (Model, tea.Cmd) { return m.moveMemberCursor(1), nil },
		},
		{
			Keys: []string{"a"}, Hint: "a", Help: "Add members", Focus: FocusMembers,
			Available: Model.isOwner,
			Run:       Model.openAddMembers,
		},
		{
			Keys: []string{"x"}, Hint: "x", Help: "Remove member", Focus: FocusMembers,
			Available: Model.canRemoveSelectedMember,
			Run:       Model.removeSelectedMember,
		},
		{
			Keys: []string{"D"}, Hint: "D", Help: "Delete group", Focus: FocusMembers,
			Available: Model.canDeleteActiveGroup,
			Run:       Model.confirmDeleteGroup,
		},
		{
			Keys: []string{"q"}, Hint: "q", Help: "Quit", Focus: FocusMembers,
			Available: always,
			Run:       func(m Model) (Model, tea.Cmd) { return m, m.saveAndQuit() },
		},
	}
}

func (c command) matches(key string, focus Focus) bool {
	if c.Focus != anyFocus && c.Focus != focus {
		return false
	}
	for _, k := range c.Keys {
		if k == key {
			return true
		}
	}
	return false
}

// lookupCommand returns the first available command bound to key in the current focus
func (m Model) lookupCommand(key string) (command, bool) {
	for _, c := range keyCommands() {
		if c.matches(key, m.focus) && c.Available(m) {
			return c, true
		}
	}
	return command{}, false
}

// footerHints lists the available commands for the focused pane, pane commands first
func (m Model) footerHints() string {
	var paneHints, globalHints []string
	seen := map[string]bool{}
	for _, c := range keyCommands() {
		if c.Hint == "" || seen[c.Hint] {
			continue
		}
		if c.Focus != anyFocus && c.Focus != m.focus {
			continue
		}
		if !c.Available(m) {
			continue
		}
		seen[c.Hint] = true
		hint := HintKeyStyle.Render("["+c.Hint+"]") + " " + c.Help
		if c.Focus == anyFocus {
			globalHints = append(globalHints, hint)
		} else {
			paneHints = append(paneHints, hint)
		}
	}
	return strings.Join(append(paneHints, globalHints...), "  ")
}

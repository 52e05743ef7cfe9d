package modal

import (
	"fmt"

	"github.com/aeolun/crewchat/pkg/chat"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	groupFieldName = iota
	groupFieldMembers
)

// CreateGroupModal collects a group name and its initial members.
// It stays open while the create request is in flight and is closed by the caller on success.
type CreateGroupModal struct {
	selfID       string
	name         string
	picker       *userPicker
	focusedField int
	submitting   bool
	onSubmit     func(name string, memberIDs []string) tea.Cmd
}

// NewCreateGroupModal creates the dialog over users (self is never offered)
func NewCreateGroupModal(users []chat.User, selfID string, onSubmit func(name string, memberIDs []string) tea.Cmd) *CreateGroupModal {
	return &CreateGroupModal{
		selfID:   selfID,
		picker:   newUserPicker(users, selfID),
		onSubmit: onSubmit,
	}
}

// Type returns the modal type
func (m *CreateGroupModal) Type() ModalType {
	return ModalCreateGroup
}

// SetUsers replaces the directory, keeping the current selection where possible
func (m *CreateGroupModal) SetUsers(users []chat.User) {
	m.picker.users = users
	m.picker.filter()
}

// Name returns the typed group name
func (m *CreateGroupModal) Name() string {
	return m.name
}

// SelectedIDs returns the chosen member ids
func (m *CreateGroupModal) SelectedIDs() []string {
	return m.picker.selectedIDs()
}

// CanSubmit reports whether the current input would pass validation
func (m *CreateGroupModal) CanSubmit() bool {
	return !m.submitting && chat.ValidateGroup(m.name, m.picker.selectedIDs(), m.selfID) == nil
}

// Submitting reports whether a create request is in flight
func (m *CreateGroupModal) Submitting() bool {
	return m.submitting
}

// SubmitFailed re-enables the dialog after a failed create, keeping its fields
func (m *CreateGroupModal) SubmitFailed() {
	m.submitting = false
}

// Reset clears every field
func (m *CreateGroupModal) Reset() {
	m.name = ""
	m.picker.reset()
	m.focusedField = groupFieldName
	m.submitting = false
}

// HandleKey processes keyboard input
func (m *CreateGroupModal) HandleKey(msg tea.KeyMsg) (bool, Modal, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return true, nil, nil

	case "tab", "shift+tab":
		if m.focusedField == groupFieldName {
			m.focusedField = groupFieldMembers
		} else {
			m.focusedField = groupFieldName
		}
		return true, m, nil

	case "enter":
		if !m.CanSubmit() {
			return true, m, nil
		}
		m.submitting = true
		var cmd tea.Cmd
		if m.onSubmit != nil {
			cmd = m.onSubmit(m.name, m.picker.selectedIDs())
		}
		return true, m, cmd
	}

	if m.submitting {
		return true, m, nil
	}

	if m.focusedField == groupFieldMembers {
		m.picker.handleKey(msg)
		return true, m, nil
	}

	switch msg.String() {
	case "backspace":
		if len(m.name) > 0 {
			runes := []rune(m.name)
			m.name = string(runes[:len(runes)-1])
		}
	case " ":
		m.name += " "
	default:
		if msg.Type == tea.KeyRunes {
			m.name += string(msg.Runes)
		}
	}
	return true, m, nil
}

// Render returns the modal content
func (m *CreateGroupModal) Render(width, height int) string {
	primaryColor := lipgloss.Color("205")
	mutedColor := lipgloss.Color("240")

	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(primaryColor).
		MarginBottom(1).
		Render("New Group")

	inputStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(mutedColor).
		Padding(0, 1).
		Width(46)
	if m.focusedField == groupFieldName {
		inputStyle = inputStyle.BorderForeground(lipgloss.Color("170"))
	}
	nameDisplay := m.name
	if m.focusedField == groupFieldName {
		nameDisplay += "█"
	}
	nameField := inputStyle.Render("Name: " + nameDisplay)

	selected := len(m.picker.selectedIDs())
	membersLabel := lipgloss.NewStyle().Foreground(lipgloss.Color("252")).
		Render(fmt.Sprintf("Members (%d selected)", selected))

	members := m.picker.render(m.focusedField == groupFieldMembers, "No other users")

	submitStyle := lipgloss.NewStyle().Padding(0, 2)
	submitLabel := "Create Group"
	switch {
	case m.submitting:
		submitLabel = "Creating..."
		submitStyle = submitStyle.Foreground(mutedColor)
	case m.CanSubmit():
		submitStyle = submitStyle.Bold(true).Foreground(lipgloss.Color("0")).Background(primaryColor)
	default:
		submitStyle = submitStyle.Foreground(mutedColor).Strikethrough(true)
	}
	submit := submitStyle.Render(submitLabel)

	help := lipgloss.NewStyle().
		Foreground(mutedColor).
		Italic(true).
		Render("[Tab] Switch field  [Space] Select  [Enter] Create  [Esc] Cancel")

	content := lipgloss.JoinVertical(
		lipgloss.Left,
		title,
		nameField,
		"",
		membersLabel,
		members,
		"",
		submit,
		"",
		help,
	)

	modal := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(primaryColor).
		Padding(1, 2).
		Width(56).
		Render(content)

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, modal)
}

// IsBlockingInput returns true (this modal blocks all input)
func (m *CreateGroupModal) IsBlockingInput() bool {
	return true
}

package modal

import (
	"fmt"

	"github.com/aeolun/crewchat/pkg/chat"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// AddMembersModal picks users who are not yet in a group
type AddMembersModal struct {
	room      chat.Room
	picker    *userPicker
	onConfirm func(roomID string, memberIDs []string) tea.Cmd
}

// NewAddMembersModal offers every user outside room
func NewAddMembersModal(room chat.Room, users []chat.User, selfID string, onConfirm func(roomID string, memberIDs []string) tea.Cmd) *AddMembersModal {
	return &AddMembersModal{
		room:      room,
		picker:    newUserPicker(chat.NonMembers(users, room), selfID),
		onConfirm: onConfirm,
	}
}

// Type returns the modal type
func (m *AddMembersModal) Type() ModalType {
	return ModalAddMembers
}

// SelectedIDs returns the chosen user ids
func (m *AddMembersModal) SelectedIDs() []string {
	return m.picker.selectedIDs()
}

// HandleKey processes keyboard input
func (m *AddMembersModal) HandleKey(msg tea.KeyMsg) (bool, Modal, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return true, nil, nil
	case "enter":
		ids := m.picker.selectedIDs()
		if len(ids) == 0 {
			return true, m, nil
		}
		var cmd tea.Cmd
		if m.onConfirm != nil {
			cmd = m.onConfirm(m.room.ID, ids)
		}
		return true, nil, cmd
	}
	m.picker.handleKey(msg)
	return true, m, nil
}

// Render returns the modal content
func (m *AddMembersModal) Render(width, height int) string {
	primaryColor := lipgloss.Color("205")
	mutedColor := lipgloss.Color("240")

	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(primaryColor).
		Render("Add Members")
	subtitle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("252")).
		MarginBottom(1).
		Render("to " + m.room.Name)

	selected := len(m.picker.selectedIDs())
	buttonStyle := lipgloss.NewStyle().Padding(0, 2)
	if selected > 0 {
		buttonStyle = buttonStyle.Bold(true).Foreground(lipgloss.Color("0")).Background(primaryColor)
	} else {
		buttonStyle = buttonStyle.Foreground(mutedColor)
	}
	button := buttonStyle.Render(fmt.Sprintf("Add Selected (%d)", selected))

	help := lipgloss.NewStyle().
		Foreground(mutedColor).
		Italic(true).
		Render("[↑/↓] Navigate  [Space] Select  [Enter] Add  [Esc] Cancel")

	content := lipgloss.JoinVertical(
		lipgloss.Left,
		title,
		subtitle,
		m.picker.render(true, "Everyone is already a member"),
		"",
		button,
		"",
		help,
	)

	modal := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(primaryColor).
		Padding(1, 2).
		Width(56).
		Height(min(height-4, 22)).
		Render(content)

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, modal)
}

// IsBlockingInput returns true (this modal blocks all input)
func (m *AddMembersModal) IsBlockingInput() bool {
	return true
}

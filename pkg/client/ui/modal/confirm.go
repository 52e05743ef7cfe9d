package modal

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ConfirmModal asks for a yes/no answer before a destructive action
type ConfirmModal struct {
	title     string
	message   string
	action    string
	onConfirm func() tea.Cmd
}

// NewConfirmModal creates a confirmation dialog. action labels the confirm key (e.g. "Delete").
func NewConfirmModal(title, message, action string, onConfirm func() tea.Cmd) *ConfirmModal {
	return &ConfirmModal{
		title:     title,
		message:   message,
		action:    action,
		onConfirm: onConfirm,
	}
}

// Type returns the modal type
func (m *ConfirmModal) Type() ModalType {
	return ModalConfirm
}

// HandleKey processes keyboard input
func (m *ConfirmModal) HandleKey(msg tea.KeyMsg) (bool, Modal, tea.Cmd) {
	switch msg.String() {
	case "y", "Y", "enter":
		var cmd tea.Cmd
		if m.onConfirm != nil {
			cmd = m.onConfirm()
		}
		return true, nil, cmd
	case "n", "N", "esc":
		return true, nil, nil
	}
	return true, m, nil
}

// Render returns the modal content
func (m *ConfirmModal) Render(width, height int) string {
	dangerColor := lipgloss.Color("#FF5555")

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(dangerColor).
		MarginBottom(1)

	messageStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("252")).
		MarginBottom(1)

	hintStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		Italic(true)

	content := titleStyle.Render(m.title) + "\n\n" +
		messageStyle.Render(m.message) + "\n\n" +
		hintStyle.Render("[y] "+m.action+"  [n/Esc] Cancel")

	modalWidth := 50
	if width < modalWidth+4 {
		modalWidth = width - 4
	}

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(dangerColor).
		Padding(1, 2).
		Width(modalWidth - 4).
		Render(content)

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
}

// IsBlockingInput returns whether this modal blocks input to the main view
func (m *ConfirmModal) IsBlockingInput() bool {
	return true
}

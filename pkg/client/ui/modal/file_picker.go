package modal

import (
	"os"

	"github.com/charmbracelet/bubbles/filepicker"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// pickerListHeight is the number of directory rows shown
const pickerListHeight = 12

// FilePickerModal browses the filesystem and hands the chosen path to onSelect.
// The picker is rebuilt after every selection so the same file can be chosen again.
type FilePickerModal struct {
	dir      string
	picker   filepicker.Model
	onSelect func(path string) tea.Cmd
}

// NewFilePickerModal creates a picker rooted at dir (the working directory when empty)
func NewFilePickerModal(dir string, onSelect func(path string) tea.Cmd) *FilePickerModal {
	if dir == "" {
		if wd, err := os.Getwd(); err == nil {
			dir = wd
		} else {
			dir = "."
		}
	}
	m := &FilePickerModal{dir: dir, onSelect: onSelect}
	m.picker = newFilePicker(dir)
	return m
}

func newFilePicker(dir string) filepicker.Model {
	fp := filepicker.New()
	fp.CurrentDirectory = dir
	fp.ShowHidden = false
	fp.DirAllowed = false
	fp.FileAllowed = true
	// AutoHeight sizes the list from the window; feed it the modal's own height
	fp, _ = fp.Update(tea.WindowSizeMsg{Width: 60, Height: pickerListHeight + 5})
	return fp
}

// Init starts reading the directory
func (m *FilePickerModal) Init() tea.Cmd {
	return m.picker.Init()
}

// Reset discards navigation and selection and re-reads the starting directory
func (m *FilePickerModal) Reset() tea.Cmd {
	m.picker = newFilePicker(m.dir)
	return m.picker.Init()
}

// Type returns the modal type
func (m *FilePickerModal) Type() ModalType {
	return ModalFilePicker
}

// HandleKey processes keyboard input
func (m *FilePickerModal) HandleKey(msg tea.KeyMsg) (bool, Modal, tea.Cmd) {
	switch msg.String() {
	case "esc", "q":
		return true, nil, nil
	}

	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)
	if didSelect, path := m.picker.DidSelectFile(msg); didSelect {
		var selectCmd tea.Cmd
		if m.onSelect != nil {
			selectCmd = m.onSelect(path)
		}
		return true, nil, tea.Batch(selectCmd, m.Reset())
	}
	return true, m, cmd
}

// Update forwards directory listings to the picker
func (m *FilePickerModal) Update(msg tea.Msg) tea.Cmd {
	if _, ok := msg.(tea.KeyMsg); ok {
		return nil
	}
	if _, ok := msg.(tea.WindowSizeMsg); ok {
		return nil
	}
	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)
	return cmd
}

// Render returns the modal content
func (m *FilePickerModal) Render(width, height int) string {
	primaryColor := lipgloss.Color("205")

	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(primaryColor).
		Render("Send File")
	dir := lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		MarginBottom(1).
		Render(m.picker.CurrentDirectory)
	help := lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		Italic(true).
		Render("[↑/↓] Navigate  [→/Enter] Open  [←] Up  [Esc] Cancel")

	content := lipgloss.JoinVertical(lipgloss.Left, title, dir, m.picker.View(), "", help)

	modal := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(primaryColor).
		Padding(1, 2).
		Width(min(width-4, 72)).
		Render(content)

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, modal)
}

// IsBlockingInput returns true (this modal blocks all input)
func (m *FilePickerModal) IsBlockingInput() bool {
	return true
}

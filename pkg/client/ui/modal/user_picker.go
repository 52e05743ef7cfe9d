package modal

import (
	"github.com/aeolun/crewchat/pkg/chat"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const pickerMaxVisible = 8

// userPicker is a search-filtered multi-select over a fixed set of users
type userPicker struct {
	users    []chat.User
	filtered []chat.User
	selfID   string
	query    string
	cursor   int
	selected map[string]bool
}

func newUserPicker(users []chat.User, selfID string) *userPicker {
	p := &userPicker{
		users:    users,
		selfID:   selfID,
		selected: make(map[string]bool),
	}
	p.filter()
	return p
}

func (p *userPicker) filter() {
	p.filtered = chat.FilterUsers(p.users, p.query, p.selfID)
	if p.cursor >= len(p.filtered) {
		p.cursor = max(0, len(p.filtered)-1)
	}
}

func (p *userPicker) reset() {
	p.query = ""
	p.cursor = 0
	p.selected = make(map[string]bool)
	p.filter()
}

// selectedIDs returns the chosen user ids in directory order
func (p *userPicker) selectedIDs() []string {
	ids := []string{}
	for _, u := range p.users {
		if p.selected[u.ID] {
			ids = append(ids, u.ID)
		}
	}
	return ids
}

func (p *userPicker) toggle() {
	if len(p.filtered) == 0 {
		return
	}
	id := p.filtered[p.cursor].ID
	if p.selected[id] {
		delete(p.selected, id)
	} else {
		p.selected[id] = true
	}
}

// handleKey applies navigation, selection and search keys. It reports whether the key was used.
func (p *userPicker) handleKey(msg tea.KeyMsg) bool {
	switch msg.String() {
	case "up", "ctrl+p":
		if p.cursor > 0 {
			p.cursor--
		}
		return true
	case "down", "ctrl+n":
		if p.cursor < len(p.filtered)-1 {
			p.cursor++
		}
		return true
	case " ":
		p.toggle()
		return true
	case "backspace":
		if len(p.query) > 0 {
			runes := []rune(p.query)
			p.query = string(runes[:len(runes)-1])
			p.filter()
		}
		return true
	}
	if msg.Type == tea.KeyRunes {
		p.query += string(msg.Runes)
		p.filter()
		return true
	}
	return false
}

func (p *userPicker) render(focused bool, emptyText string) string {
	searchStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1).
		Width(46)
	if focused {
		searchStyle = searchStyle.BorderForeground(lipgloss.Color("170"))
	}
	hintStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Italic(true)
	cursorStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	checkedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("46"))

	var search string
	switch {
	case p.query == "" && focused:
		search = "█" + hintStyle.Render(" Type to search...")
	case focused:
		search = p.query + "█"
	case p.query == "":
		search = hintStyle.Render("Search people")
	default:
		search = p.query
	}

	lines := []string{searchStyle.Render(search)}
	if len(p.filtered) == 0 {
		if p.query == "" {
			lines = append(lines, hintStyle.Render(emptyText))
		} else {
			lines = append(lines, hintStyle.Render("No users match your search"))
		}
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	start := 0
	if len(p.filtered) > pickerMaxVisible {
		start = p.cursor - pickerMaxVisible/2
		if start < 0 {
			start = 0
		}
		if start+pickerMaxVisible > len(p.filtered) {
			start = len(p.filtered) - pickerMaxVisible
		}
	}
	end := min(start+pickerMaxVisible, len(p.filtered))

	if start > 0 {
		lines = append(lines, hintStyle.Render("  ↑ more above"))
	}
	for i := start; i < end; i++ {
		u := p.filtered[i]
		box := "[ ]"
		if p.selected[u.ID] {
			box = checkedStyle.Render("[x]")
		}
		name := u.DisplayName()
		prefix := "  "
		if focused && i == p.cursor {
			prefix = "> "
			name = cursorStyle.Render(name)
		}
		lines = append(lines, prefix+box+" "+name)
	}
	if end < len(p.filtered) {
		lines = append(lines, hintStyle.Render("  ↓ more below"))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

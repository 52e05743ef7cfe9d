package ui

import (
	"fmt"
	"strings"

	"github.com/76creates/stickers/flexbox"
	"github.com/aeolun/crewchat/pkg/chat"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

const (
	composerHeight = 5 // textarea rows plus its border
	minRoomsWidth  = 24
)

// View renders the current state
func (m Model) View() string {
	// Don't render until we have dimensions
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	// Modals render full-screen, centered over the view
	if activeModal := m.modalStack.Top(); activeModal != nil {
		return activeModal.Render(m.width, m.height)
	}

	return m.renderMain()
}

// paneWidths splits the width between the room list, the stream and the membership panel
func (m Model) paneWidths() (rooms, messages, members int) {
	ratio := 4
	if _, ok := m.activeGroup(); ok {
		ratio = 5
		members = m.width / ratio
	}
	rooms = m.width / ratio
	if rooms < minRoomsWidth {
		rooms = minRoomsWidth
	}
	messages = m.width - rooms - members
	return rooms, messages, members
}

// contentHeight is the height between header and footer
func (m Model) contentHeight() int {
	return max(m.height-2, 3)
}

// resize fits the widgets into the message pane
func (m *Model) resize() {
	if m.width == 0 || m.height == 0 {
		return
	}
	roomsWidth, messagesWidth, _ := m.paneWidths()

	// Border (2) and padding (2), plus one spare column for rounding in the flexbox
	innerWidth := max(messagesWidth-5, 10)
	innerHeight := m.contentHeight() - 2

	m.search.Width = max(roomsWidth-8, 4)
	m.composer.SetWidth(innerWidth)
	m.viewport.Width = innerWidth
	m.viewport.Height = max(innerHeight-1-composerHeight, 1)
	m.refreshViewport()
}

// refreshViewport re-renders the message stream into the viewport
func (m *Model) refreshViewport() {
	width := m.viewport.Width
	if width <= 0 {
		width = 80
	}

	switch {
	case m.messagesErr != nil:
		m.itemLines = map[int]int{}
		m.viewport.SetContent(RenderError("Error loading messages"))
	case len(m.messages) == 0:
		m.itemLines = map[int]int{}
		if m.viewState == ViewRoomReady {
			m.viewport.SetContent(MutedTextStyle.Render("No messages yet. Say hello!"))
		} else {
			m.viewport.SetContent("")
		}
	default:
		content, starts := m.renderTimeline(width)
		m.itemLines = starts
		m.viewport.SetContent(content)
	}
}

// scrollToCursor keeps the selected message inside the viewport
func (m *Model) scrollToCursor() {
	start, ok := m.itemLines[m.messageCursor]
	if !ok {
		return
	}
	end := m.viewport.TotalLineCount()
	if next, ok := m.itemLines[m.messageCursor+1]; ok {
		end = next
	}

	if start < m.viewport.YOffset {
		m.viewport.SetYOffset(start)
	} else if end > m.viewport.YOffset+m.viewport.Height {
		m.viewport.SetYOffset(end - m.viewport.Height)
	}
}

// renderMain lays out header, panes and footer
func (m Model) renderMain() string {
	contentHeight := m.contentHeight()
	roomsWidth, _, membersWidth := m.paneWidths()

	layout := flexbox.NewHorizontal(m.width, contentHeight)

	roomsStyle := PaneStyle
	if m.focus == FocusRooms {
		roomsStyle = FocusedPaneStyle
	}
	roomsCol := layout.NewColumn().AddCells(
		flexbox.NewCell(1, 1).
			SetStyle(roomsStyle.Width(roomsWidth - 2).Height(contentHeight - 2)).
			SetContent(m.renderRoomPane(roomsWidth - 4)),
	)

	messagesStyle := PaneStyle
	if m.focus == FocusMessages || m.focus == FocusComposer {
		messagesStyle = FocusedPaneStyle
	}
	messagesCol := layout.NewColumn().AddCells(
		flexbox.NewCell(3, 1).
			SetStyle(messagesStyle).
			SetContent(m.renderMessagePane()),
	)

	columns := []*flexbox.Column{roomsCol, messagesCol}
	if room, ok := m.activeGroup(); ok {
		membersStyle := PaneStyle
		if m.focus == FocusMembers {
			membersStyle = FocusedPaneStyle
		}
		membersCol := layout.NewColumn().AddCells(
			flexbox.NewCell(1, 1).
				SetStyle(membersStyle.Width(membersWidth - 2).Height(contentHeight - 2)).
				SetContent(m.renderMembersPane(room, membersWidth-4)),
		)
		columns = append(columns, membersCol)
	}
	layout.AddColumns(columns)

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.renderHeader(),
		layout.Render(),
		m.renderFooter(),
	)
}

// renderHeader renders the title bar with the user and feed status
func (m Model) renderHeader() string {
	left := HeaderStyle.Render(fmt.Sprintf("crewchat %s", m.settings.Version))

	var feed string
	switch m.rtStatus {
	case RealtimeLive:
		feed = lipgloss.NewStyle().Foreground(SuccessColor).Render("● live")
	case RealtimeReconnecting:
		feed = lipgloss.NewStyle().Foreground(WarningColor).Render("◌ reconnecting")
	default:
		feed = MutedTextStyle.Render("○ offline")
	}
	status := m.self().DisplayName() + "  " + feed
	if m.sending > 0 {
		status = m.spinner.View() + " sending  " + status
	}
	right := StatusStyle.Render(status)

	spacer := strings.Repeat(" ", max(0, m.width-lipgloss.Width(left)-lipgloss.Width(right)))
	return left + spacer + right
}

// renderFooter renders key hints and the transient toast
func (m Model) renderFooter() string {
	footerContent := m.footerHints()

	if m.statusMessage != "" {
		if m.statusIsError {
			footerContent += "  " + RenderError(m.statusMessage)
		} else {
			footerContent += "  " + SuccessStyle.Render(m.statusMessage)
		}
	}

	// FooterStyle has Padding(0, 1)
	return FooterStyle.Render(truncateString(footerContent, m.width-2))
}

// === Room list pane ===

func (m Model) renderRoomPane(width int) string {
	lines := []string{
		PaneTitleStyle.Render("Conversations"),
		m.search.View(),
		"",
	}

	listing := m.listing()
	// Each room takes two lines; leave room for the title block
	available := max(m.contentHeight()-2-len(lines), 2)

	if listing.Mode == chat.ListingUsers {
		lines = append(lines, MutedTextStyle.Render("Start a new chat"))
		available--
		switch {
		case m.usersErr != nil:
			lines = append(lines, RenderError("Error loading users"))
		case len(listing.Users) == 0:
			lines = append(lines, MutedTextStyle.Render("No people match "+fmt.Sprintf("%q", listing.Query)))
		default:
			first, last := visibleWindow(len(listing.Users), m.listCursor, available)
			for i := first; i < last; i++ {
				lines = append(lines, m.renderListRow(listing.Users[i].DisplayName(), i == m.listCursor, width))
			}
		}
		return strings.Join(lines, "\n")
	}

	switch {
	case m.roomsErr != nil:
		lines = append(lines, RenderError("Error loading rooms"))
	case m.loadingRooms && len(listing.Rooms) == 0:
		lines = append(lines, m.spinner.View()+" Loading conversations...")
	case len(listing.Rooms) == 0:
		lines = append(lines, MutedTextStyle.Render("No conversations yet."))
		lines = append(lines, MutedTextStyle.Render("Type a name to start one."))
	default:
		first, last := visibleWindow(len(listing.Rooms), m.listCursor, available/2)
		for i := first; i < last; i++ {
			lines = append(lines, m.renderRoomRow(listing.Rooms[i], i == m.listCursor, width)...)
		}
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderListRow(label string, selected bool, width int) string {
	if selected {
		return SelectedItemStyle.Render(truncateString("▸ "+label, width))
	}
	return UnselectedItemStyle.Render(truncateString("  "+label, width))
}

// renderRoomRow renders a room name with its marker, then a preview of its last message
func (m Model) renderRoomRow(room chat.Room, selected bool, width int) []string {
	marker := "@ "
	if room.IsGroup {
		marker = "# "
	}
	name := marker + room.DisplayName(m.self().ID)
	if room.ID == m.activeRoomID {
		name += " •"
	}
	title := m.renderListRow(name, selected, width)

	preview := "No messages yet"
	if room.LastMessage != nil {
		preview = room.LastMessage.Preview()
		if !room.LastMessage.CreatedAt.IsZero() {
			when := humanize.RelTime(room.LastMessage.CreatedAt, m.now(), "ago", "from now")
			preview = when + " · " + preview
		}
	}
	return []string{title, MutedTextStyle.Render(truncateString("    "+preview, width))}
}

// visibleWindow returns the [first, last) range of rows to show so the cursor stays visible
func visibleWindow(total, cursor, rows int) (int, int) {
	if rows <= 0 {
		rows = 1
	}
	if total <= rows {
		return 0, total
	}
	first := cursor - rows/2
	if first < 0 {
		first = 0
	}
	if first+rows > total {
		first = total - rows
	}
	return first, first + rows
}

// === Message pane ===

func (m Model) renderMessagePane() string {
	if m.viewState == ViewNoRoomSelected {
		return lipgloss.JoinVertical(lipgloss.Left,
			PaneTitleStyle.Render("No conversation selected"),
			"",
			"Pick a conversation on the left, or type a name to start a new one.",
			"",
			MutedTextStyle.Render("Press [Ctrl+N] to create a group."),
		)
	}

	title := m.renderRoomTitle()

	var body string
	switch {
	case m.viewState == ViewRoomLoading && len(m.messages) == 0:
		body = lipgloss.NewStyle().Height(m.viewport.Height).Render(m.spinner.View() + " Loading messages...")
	default:
		body = m.viewport.View()
	}

	return lipgloss.JoinVertical(lipgloss.Left, title, body, m.composer.View())
}

func (m Model) renderRoomTitle() string {
	var name string
	switch {
	case m.activeRoom != nil:
		name = m.activeRoom.DisplayName(m.self().ID)
		if m.activeRoom.IsGroup {
			name += MutedTextStyle.Render(fmt.Sprintf("  %d members", len(m.activeRoom.Members)))
		}
	default:
		name = "Loading..."
	}
	title := PaneTitleStyle.Render(name)

	if m.roomErr != nil {
		title += "  " + RenderError("Error loading room")
	}
	if m.isRecording() {
		elapsed := m.recorder.Elapsed()
		title += "  " + RecordingStyle.Render(fmt.Sprintf("● REC %d:%02d", int(elapsed.Minutes()), int(elapsed.Seconds())%60))
	}
	return title
}

// === Membership panel ===

func (m Model) renderMembersPane(room chat.Room, width int) string {
	lines := []string{
		PaneTitleStyle.Render(fmt.Sprintf("Members (%d)", len(room.Members))),
		"",
	}
	if m.roomErr != nil {
		lines = append(lines, RenderError("Error loading room"))
	}

	selfID := m.self().ID
	for i, member := range room.Members {
		label := member.DisplayName()
		if member.ID == selfID {
			label += " (you)"
		}
		selected := m.focus == FocusMembers && i == m.memberCursor
		row := m.renderListRow(label, selected, width-8)
		if member.ID == room.OwnerID {
			row += " " + OwnerBadgeStyle.Render("owner")
		}
		lines = append(lines, row)
	}
	return strings.Join(lines, "\n")
}

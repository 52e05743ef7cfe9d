package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/aeolun/crewchat/pkg/chat"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

// dayDividerLayout is how day dividers name the calendar day
const dayDividerLayout = "Monday, January 2, 2006"

// renderTimeline renders the day-grouped message stream. It also returns the first line of
// each message so the viewport can keep the selected message visible.
func (m Model) renderTimeline(width int) (string, map[int]int) {
	lines := []string{}
	starts := map[int]int{}
	selfID := m.self().ID

	msgIndex := 0
	for _, item := range chat.GroupByDay(m.messages, m.settings.Location) {
		if item.Kind == chat.ItemDivider {
			if len(lines) > 0 {
				lines = append(lines, "")
			}
			lines = append(lines, MutedTextStyle.Render(formatDayDivider(item.Day)))
			continue
		}

		msg := item.Message
		starts[msgIndex] = len(lines)
		selected := m.focus == FocusMessages && msgIndex == m.messageCursor
		lines = append(lines, m.renderMessageLines(msg, width, selected, msg.SenderID == selfID)...)
		msgIndex++
	}

	return strings.Join(lines, "\n"), starts
}

func formatDayDivider(day time.Time) string {
	return "─── " + day.Format(dayDividerLayout) + " ───"
}

// renderMessageLines renders one message as "[15:04] Name body", continuation lines indented
func (m Model) renderMessageLines(msg chat.Message, width int, selected, own bool) []string {
	gutter := "  "
	if selected {
		gutter = SelectedItemStyle.Render("▸ ")
	}

	timestamp := MessageTimeStyle.Render("[" + msg.CreatedAt.In(m.settings.Location).Format(m.settings.TimeFormat) + "]")
	authorStyle := MessageAuthorStyle
	if own {
		authorStyle = MessageOwnAuthorStyle
	}
	author := authorStyle.Render(m.senderName(msg))

	prefix := gutter + timestamp + " " + author + " "
	prefixWidth := lipgloss.Width(prefix)
	bodyWidth := width - prefixWidth
	if bodyWidth < 20 {
		// Narrow panes put the body under the header line
		body := renderMessageBody(msg, width-4)
		out := []string{strings.TrimRight(prefix, " ")}
		for _, line := range body {
			out = append(out, "    "+line)
		}
		return out
	}

	body := renderMessageBody(msg, bodyWidth)
	out := make([]string, 0, len(body))
	indent := strings.Repeat(" ", prefixWidth)
	for i, line := range body {
		if i == 0 {
			out = append(out, prefix+line)
		} else {
			out = append(out, indent+line)
		}
	}
	return out
}

// senderName prefers the embedded sender, then the room roster, then the raw id
func (m Model) senderName(msg chat.Message) string {
	if msg.Sender != nil {
		return msg.Sender.DisplayName()
	}
	if m.activeRoom != nil {
		for _, member := range m.activeRoom.Members {
			if member.ID == msg.SenderID {
				return member.DisplayName()
			}
		}
	}
	for _, user := range m.users {
		if user.ID == msg.SenderID {
			return user.DisplayName()
		}
	}
	return msg.SenderID
}

// renderMessageBody renders the payload of a message according to its kind
func renderMessageBody(msg chat.Message, width int) []string {
	switch msg.Kind {
	case chat.KindVoice:
		return []string{
			AttachmentStyle.Render("▶ voice message" + sizeSuffix(msg.Size)),
			LinkStyle.Render(truncateString(msg.MediaURL, width)),
		}
	case chat.KindFile:
		return renderFileBody(msg, width)
	default:
		var lines []string
		for _, paragraph := range strings.Split(msg.Content, "\n") {
			for _, line := range wrapText(paragraph, width) {
				lines = append(lines, MessageContentStyle.Render(line))
			}
		}
		return lines
	}
}

func renderFileBody(msg chat.Message, width int) []string {
	name := msg.FileName
	if name == "" {
		name = "attachment"
	}
	link := LinkStyle.Render(truncateString(msg.MediaURL, width))

	switch chat.ClassifyAttachment(msg) {
	case chat.PreviewImage:
		return []string{AttachmentStyle.Render("[image] " + name + sizeSuffix(msg.Size)), link}
	case chat.PreviewVideo:
		return []string{AttachmentStyle.Render("▶ video: " + name + sizeSuffix(msg.Size)), link}
	case chat.PreviewPDF:
		thumb := LinkStyle.Render(truncateString(chat.PDFThumbnailURL(msg.MediaURL), width-10))
		return []string{
			AttachmentStyle.Render("[preview] ") + thumb,
			link,
			MutedTextStyle.Render(name + sizeSuffix(msg.Size)),
		}
	default:
		return []string{AttachmentStyle.Render(fileIconLabel(chat.FileIcon(name)) + " " + name + sizeSuffix(msg.Size)), link}
	}
}

// fileIconLabel is the text glyph for a file icon
func fileIconLabel(icon chat.FileIconKind) string {
	switch icon {
	case chat.IconDocument:
		return "[doc]"
	case chat.IconChart:
		return "[sheet]"
	case chat.IconPresentation:
		return "[slides]"
	default:
		return "[file]"
	}
}

func sizeSuffix(size int64) string {
	if size <= 0 {
		return ""
	}
	return fmt.Sprintf(" (%s)", humanize.Bytes(uint64(size)))
}

// wrapText wraps text to fit within width, breaking on word boundaries
func wrapText(text string, width int) []string {
	if width <= 0 {
		return []string{text}
	}

	var lines []string
	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{""}
	}

	currentLine := ""
	for _, word := range words {
		// Words longer than the line are hard-broken
		for lipgloss.Width(word) > width {
			if currentLine != "" {
				lines = append(lines, currentLine)
				currentLine = ""
			}
			head, rest := splitAtWidth(word, width)
			lines = append(lines, head)
			word = rest
		}
		if word == "" {
			continue
		}

		testLine := currentLine
		if testLine != "" {
			testLine += " "
		}
		testLine += word

		if lipgloss.Width(testLine) > width {
			lines = append(lines, currentLine)
			currentLine = word
		} else {
			currentLine = testLine
		}
	}
	if currentLine != "" {
		lines = append(lines, currentLine)
	}
	return lines
}

// splitAtWidth splits s after the rune that fills width columns
func splitAtWidth(s string, width int) (string, string) {
	w := 0
	for i, r := range s {
		rw := lipgloss.Width(string(r))
		if w+rw > width && i > 0 {
			return s[:i], s[i:]
		}
		w += rw
	}
	return s, ""
}

// truncateString cuts s to maxLen visible columns, keeping ANSI sequences intact
func truncateString(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	if lipgloss.Width(s) <= maxLen {
		return s
	}

	var result strings.Builder
	currentWidth := 0
	inEscape := false
	limit := maxLen - 1 // Room for the ellipsis

	for _, r := range s {
		// Track ANSI escape sequences (don't count toward width)
		if r == '\x1b' {
			inEscape = true
		}
		if inEscape {
			result.WriteRune(r)
			if r == 'm' {
				inEscape = false
			}
			continue
		}

		rw := lipgloss.Width(string(r))
		if currentWidth+rw > limit {
			break
		}
		result.WriteRune(r)
		currentWidth += rw
	}

	result.WriteString("…")
	return result.String()
}

package ui

import (
	"github.com/aeolun/crewchat/pkg/client"
	tea "github.com/charmbracelet/bubbletea"
)

// shouldNotify decides whether a new message deserves a desktop notification:
// always for rooms that are not open, and for the open room once the user has gone idle
func (m Model) shouldNotify(ev client.Event) bool {
	if !m.settings.Notifications || ev.Message == nil {
		return false
	}
	if ev.Message.SenderID == m.self().ID {
		return false
	}
	if ev.RoomID != m.activeRoomID {
		return true
	}
	if m.settings.IdleNotifyAfter <= 0 {
		return false
	}
	return m.now().Sub(m.lastInteractionTime) >= m.settings.IdleNotifyAfter
}

// notificationText builds the title and body for a message notification
func (m Model) notificationText(ev client.Event) (string, string) {
	msg := ev.Message
	title := msg.SenderName()
	for _, room := range m.rooms {
		if room.ID != ev.RoomID {
			continue
		}
		if msg.Sender == nil {
			for _, member := range room.Members {
				if member.ID == msg.SenderID {
					title = member.DisplayName()
				}
			}
		}
		if room.IsGroup {
			title += " in " + room.Name
		}
		break
	}
	return title, truncateString(msg.Preview(), 120)
}

// notifyCmd sends the desktop notification off the update loop
func (m Model) notifyCmd(ev client.Event) tea.Cmd {
	if !m.shouldNotify(ev) || m.notify == nil {
		return nil
	}
	title, body := m.notificationText(ev)
	notify := m.notify
	logger := m.logger
	return func() tea.Msg {
		if err := notify(title, body); err != nil && logger != nil {
			logger.Printf("Failed to send notification: %v", err)
		}
		return nil
	}
}

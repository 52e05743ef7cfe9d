package chat

import "time"

// TimelineItemKind tags an entry in a grouped timeline
type TimelineItemKind int

const (
	ItemDivider TimelineItemKind = iota
	ItemMessage
)

// TimelineItem is either a day divider or a message
type TimelineItem struct {
	Kind    TimelineItemKind
	Day     time.Time // Midnight of the calendar day, set for dividers
	Message Message   // Set for messages
}

// Divider returns a divider item for day
func Divider(day time.Time) TimelineItem {
	return TimelineItem{Kind: ItemDivider, Day: day}
}

// MessageItem wraps msg as a timeline item
func MessageItem(msg Message) TimelineItem {
	return TimelineItem{Kind: ItemMessage, Message: msg}
}

// GroupByDay interleaves day dividers with messages. The input order is kept as-is; a divider is
// emitted whenever a message's calendar day in loc differs from the previous message's.
func GroupByDay(messages []Message, loc *time.Location) []TimelineItem {
	if loc == nil {
		loc = time.Local
	}
	items := make([]TimelineItem, 0, len(messages)+1)
	var prevDay time.Time
	for i, msg := range messages {
		day := startOfDay(msg.CreatedAt, loc)
		if i == 0 || !day.Equal(prevDay) {
			items = append(items, Divider(day))
		}
		prevDay = day
		items = append(items, MessageItem(msg))
	}
	return items
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

package client

import (
	"time"

	"github.com/aeolun/crewchat/pkg/chat"
)

// DemoSession is the user the demo backend acts as
var DemoSession = Session{
	User: chat.User{ID: "demo-me", FirstName: "Morgan", LastName: "Lee", Email: "morgan@crewchat.invalid"},
}

// NewDemoBackend returns a MockBackend seeded with a small site crew and some history
func NewDemoBackend() *MockBackend {
	me := DemoSession.User
	alice := chat.User{ID: "demo-alice", FirstName: "Alice", LastName: "Smith"}
	raj := chat.User{ID: "demo-raj", FirstName: "Raj", LastName: "Patel"}
	dana := chat.User{ID: "demo-dana", FirstName: "Dana", LastName: "Okafor"}
	tom := chat.User{ID: "demo-tom", FirstName: "Tom", LastName: "Becker"}

	b := NewMockBackend(me, alice, raj, dana, tom)

	yesterday := time.Now().Add(-24 * time.Hour).Truncate(time.Hour)
	today := time.Now().Add(-2 * time.Hour).Truncate(time.Minute)

	b.AddRoom(chat.Room{ID: "demo-direct-raj", Members: []chat.User{me, raj}, CreatedAt: yesterday})
	b.AddRoom(chat.Room{
		ID:        "demo-site-a",
		Name:      "Site A Crew",
		IsGroup:   true,
		OwnerID:   me.ID,
		Members:   []chat.User{me, alice, dana},
		CreatedAt: yesterday,
	})

	b.AddMessage(chat.Message{ID: "demo-m1", RoomID: "demo-direct-raj", SenderID: raj.ID, Sender: &raj,
		Kind: chat.KindText, Content: "Concrete truck is booked for 7am.", CreatedAt: yesterday})
	b.AddMessage(chat.Message{ID: "demo-m2", RoomID: "demo-direct-raj", SenderID: me.ID, Sender: &me,
		Kind: chat.KindText, Content: "Thanks, I'll have the crew on site at 6:30.", CreatedAt: yesterday.Add(5 * time.Minute)})
	b.AddMessage(chat.Message{ID: "demo-m3", RoomID: "demo-site-a", SenderID: alice.ID, Sender: &alice,
		Kind: chat.KindFile, FileName: "level2-drawings.pdf", MimeType: "application/pdf", Size: 2_348_000,
		MediaURL: "https://files.crewchat.invalid/demo-m3/level2-drawings.pdf", CreatedAt: yesterday.Add(time.Hour)})
	b.AddMessage(chat.Message{ID: "demo-m4", RoomID: "demo-site-a", SenderID: dana.ID, Sender: &dana,
		Kind: chat.KindVoice, FileName: "voice-demo.wav", MimeType: "audio/wav", Size: 88_200,
		MediaURL: "https://files.crewchat.invalid/demo-m4/voice-demo.wav", CreatedAt: today})
	b.AddMessage(chat.Message{ID: "demo-m5", RoomID: "demo-site-a", SenderID: alice.ID, Sender: &alice,
		Kind: chat.KindFile, FileName: "budget.xlsx", Size: 48_100,
		MimeType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		MediaURL: "https://files.crewchat.invalid/demo-m5/budget.xlsx", CreatedAt: today.Add(10 * time.Minute)})

	return b
}

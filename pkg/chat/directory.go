package chat

import (
	"strings"

	"golang.org/x/text/cases"
)

// ListingMode says which list the room pane is showing
type ListingMode int

const (
	ListingRooms ListingMode = iota // Empty query: the user's rooms
	ListingUsers                    // Non-empty query: users to start a chat with
)

// Listing is the room pane content for one query. Only the slice matching Mode is populated.
type Listing struct {
	Mode  ListingMode
	Query string
	Users []User
	Rooms []Room
}

// Len returns the number of visible entries
func (l Listing) Len() int {
	if l.Mode == ListingUsers {
		return len(l.Users)
	}
	return len(l.Rooms)
}

// MatchName reports whether query is a case-insensitive substring of name.
// An empty query matches everything.
func MatchName(name, query string) bool {
	query = strings.TrimSpace(query)
	if query == "" {
		return true
	}
	fold := cases.Fold()
	return strings.Contains(fold.String(name), fold.String(query))
}

// FilterUsers returns the users matching query, excluding selfID, in source order
func FilterUsers(users []User, query, selfID string) []User {
	filtered := make([]User, 0, len(users))
	for _, user := range users {
		if user.ID == selfID {
			continue
		}
		if !MatchName(user.DisplayName(), query) {
			continue
		}
		filtered = append(filtered, user)
	}
	return filtered
}

// FilterRooms returns the rooms whose display name matches query, in source order
func FilterRooms(rooms []Room, query, selfID string) []Room {
	filtered := make([]Room, 0, len(rooms))
	for _, room := range rooms {
		if MatchName(room.DisplayName(selfID), query) {
			filtered = append(filtered, room)
		}
	}
	return filtered
}

// NonMembers returns the users that are not in room
func NonMembers(users []User, room Room) []User {
	out := make([]User, 0, len(users))
	for _, user := range users {
		if !room.HasMember(user.ID) {
			out = append(out, user)
		}
	}
	return out
}

// Search builds the room pane listing: users when query is non-empty, rooms otherwise
func Search(rooms []Room, users []User, query, selfID string) Listing {
	query = strings.TrimSpace(query)
	if query != "" {
		return Listing{Mode: ListingUsers, Query: query, Users: FilterUsers(users, query, selfID)}
	}
	return Listing{Mode: ListingRooms, Rooms: FilterRooms(rooms, "", selfID)}
}

package chat

import "strings"

// CanDeleteGroup reports whether user may delete the room
func CanDeleteGroup(room Room, user User) bool {
	return room.IsGroup && user.ID != "" && user.ID == room.OwnerID
}

// CanManageMembers reports whether user may add or remove members
func CanManageMembers(room Room, user User) bool {
	return CanDeleteGroup(room, user)
}

// CanRemoveMember reports whether actor may remove targetID from the room.
// The owner can never be removed, so a group always keeps its owner.
func CanRemoveMember(room Room, actor User, targetID string) bool {
	if !CanManageMembers(room, actor) {
		return false
	}
	return targetID != room.OwnerID && room.HasMember(targetID)
}

// CanDeleteMessage reports whether user sent msg
func CanDeleteMessage(msg Message, user User) bool {
	return user.ID != "" && msg.SenderID == user.ID
}

// NormalizeMembers drops selfID, blanks and duplicates while keeping order
func NormalizeMembers(memberIDs []string, selfID string) []string {
	seen := make(map[string]bool, len(memberIDs))
	out := make([]string, 0, len(memberIDs))
	for _, id := range memberIDs {
		if id == "" || id == selfID || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// ValidateGroup checks the group creation form
func ValidateGroup(name string, memberIDs []string, selfID string) error {
	if strings.TrimSpace(name) == "" {
		return ErrGroupNameRequired
	}
	if len(NormalizeMembers(memberIDs, selfID)) == 0 {
		return ErrGroupMembersRequired
	}
	return nil
}

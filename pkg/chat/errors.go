package chat

import "errors"

var (
	ErrNotOwner             = errors.New("only the group owner can do that")
	ErrNotSender            = errors.New("only the sender can delete a message")
	ErrNotGroup             = errors.New("room is not a group")
	ErrNotMember            = errors.New("user is not a member of the room")
	ErrGroupNameRequired    = errors.New("group name is required")
	ErrGroupMembersRequired = errors.New("select at least one member")
	ErrEmptyMessage         = errors.New("message is empty")
)

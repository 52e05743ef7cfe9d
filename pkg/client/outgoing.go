package client

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/aeolun/crewchat/pkg/chat"
)

// OutgoingMessage is the payload of a SendMessage call. Text messages carry Content;
// voice and file messages carry Data plus the file metadata.
type OutgoingMessage struct {
	Kind     chat.MessageKind
	Content  string
	FileName string
	MimeType string
	Data     []byte
}

// NewTextMessage trims content and rejects empty drafts
func NewTextMessage(content string) (OutgoingMessage, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return OutgoingMessage{}, chat.ErrEmptyMessage
	}
	return OutgoingMessage{Kind: chat.KindText, Content: content}, nil
}

// Validate checks that the payload matches its kind
func (o OutgoingMessage) Validate() error {
	switch o.Kind {
	case chat.KindText:
		if strings.TrimSpace(o.Content) == "" {
			return chat.ErrEmptyMessage
		}
	case chat.KindVoice, chat.KindFile:
		if len(o.Data) == 0 {
			return chat.ErrEmptyMessage
		}
		if o.FileName == "" {
			return fmt.Errorf("%s message needs a file name", o.Kind)
		}
	default:
		return fmt.Errorf("unknown message kind %q", o.Kind)
	}
	return nil
}

// APIError is a non-2xx response from the chat API
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("chat api: %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("chat api: %d %s", e.Status, e.Message)
}

// IsNotFound reports whether err is a 404 from the API
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// IsForbidden reports whether err is a 403 from the API
func IsForbidden(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusForbidden
}

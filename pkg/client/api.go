package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/aeolun/crewchat/pkg/chat"
	"github.com/google/uuid"
)

const maxResponseBytes = 16 << 20

// APIClient talks to the chat REST API over HTTP
type APIClient struct {
	baseURL string
	token   string
	http    *http.Client
	metrics *Metrics
	logger  *log.Logger
}

// NewAPIClient creates a client for the API rooted at baseURL (e.g. "https://ops.example.com")
func NewAPIClient(baseURL, token string, timeout time.Duration) *APIClient {
	return &APIClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: timeout},
	}
}

// SetLogger sets a logger for request failures
func (c *APIClient) SetLogger(logger *log.Logger) {
	c.logger = logger
}

// SetMetrics enables request metrics
func (c *APIClient) SetMetrics(metrics *Metrics) {
	c.metrics = metrics
}

func (c *APIClient) logf(format string, args ...interface{}) {
	if c.logger != nil {
		c.logger.Printf("[api] "+format, args...)
	}
}

// ListRooms returns the rooms the current user belongs to
func (c *APIClient) ListRooms(ctx context.Context) ([]chat.Room, error) {
	var rooms []chat.Room
	if err := c.getJSON(ctx, "list rooms", "/api/chat/rooms", &rooms); err != nil {
		return nil, err
	}
	if rooms == nil {
		rooms = []chat.Room{}
	}
	return rooms, nil
}

// GetRoom fetches a single room with its members
func (c *APIClient) GetRoom(ctx context.Context, roomID string) (chat.Room, error) {
	var room chat.Room
	err := c.getJSON(ctx, "get room", "/api/chat/rooms/"+url.PathEscape(roomID), &room)
	return room, err
}

// ListMessages returns a room's messages in server order
func (c *APIClient) ListMessages(ctx context.Context, roomID string) ([]chat.Message, error) {
	var messages []chat.Message
	if err := c.getJSON(ctx, "list messages", "/api/chat/rooms/"+url.PathEscape(roomID)+"/messages", &messages); err != nil {
		return nil, err
	}
	if messages == nil {
		messages = []chat.Message{}
	}
	return messages, nil
}

// CreateDirectRoom locates or creates the 1:1 room with userID
func (c *APIClient) CreateDirectRoom(ctx context.Context, userID string) (chat.Room, error) {
	var room chat.Room
	err := c.sendJSON(ctx, "create direct room", http.MethodPost, "/api/chat/rooms/direct",
		map[string]string{"user_id": userID}, &room)
	return room, err
}

// CreateGroup creates a group owned by the current user
func (c *APIClient) CreateGroup(ctx context.Context, name string, memberIDs []string) (chat.Room, error) {
	var room chat.Room
	err := c.sendJSON(ctx, "create group", http.MethodPost, "/api/chat/rooms/group",
		map[string]interface{}{"name": name, "member_ids": memberIDs}, &room)
	return room, err
}

// DeleteGroup deletes a group room
func (c *APIClient) DeleteGroup(ctx context.Context, roomID string) error {
	return c.sendJSON(ctx, "delete group", http.MethodDelete, "/api/chat/rooms/"+url.PathEscape(roomID), nil, nil)
}

// AddMembers adds users to a group
func (c *APIClient) AddMembers(ctx context.Context, roomID string, memberIDs []string) error {
	return c.sendJSON(ctx, "add members", http.MethodPost, "/api/chat/rooms/"+url.PathEscape(roomID)+"/members",
		map[string]interface{}{"member_ids": memberIDs}, nil)
}

// RemoveMember removes a user from a group
func (c *APIClient) RemoveMember(ctx context.Context, roomID, userID string) error {
	path := "/api/chat/rooms/" + url.PathEscape(roomID) + "/members/" + url.PathEscape(userID)
	return c.sendJSON(ctx, "remove member", http.MethodDelete, path, nil, nil)
}

// DeleteMessage deletes a message sent by the current user
func (c *APIClient) DeleteMessage(ctx context.Context, messageID string) error {
	return c.sendJSON(ctx, "delete message", http.MethodDelete, "/api/chat/messages/"+url.PathEscape(messageID), nil, nil)
}

// ListUsers returns every user that can be chatted with
func (c *APIClient) ListUsers(ctx context.Context) ([]chat.User, error) {
	var users []chat.User
	if err := c.getJSON(ctx, "list users", "/api/users", &users); err != nil {
		return nil, err
	}
	if users == nil {
		users = []chat.User{}
	}
	return users, nil
}

// SendMessage posts a message. Text goes as JSON; voice and file payloads go as multipart uploads.
func (c *APIClient) SendMessage(ctx context.Context, roomID string, msg OutgoingMessage) (chat.Message, error) {
	if err := msg.Validate(); err != nil {
		return chat.Message{}, err
	}
	path := "/api/chat/rooms/" + url.PathEscape(roomID) + "/messages"

	var sent chat.Message
	if msg.Kind == chat.KindText {
		body := map[string]string{"kind": msg.Kind.String(), "content": msg.Content}
		if err := c.sendJSON(ctx, "send message", http.MethodPost, path, body, &sent); err != nil {
			return chat.Message{}, err
		}
		c.metrics.RecordMessageSent(msg.Kind.String())
		return sent, nil
	}

	body, contentType, err := encodeUpload(msg)
	if err != nil {
		return chat.Message{}, err
	}
	if err := c.do(ctx, "send message", http.MethodPost, path, body, contentType, &sent); err != nil {
		return chat.Message{}, err
	}
	c.metrics.RecordMessageSent(msg.Kind.String())
	return sent, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// encodeUpload builds the multipart body for a voice or file message
func encodeUpload(msg OutgoingMessage) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if err := w.WriteField("kind", msg.Kind.String()); err != nil {
		return nil, "", fmt.Errorf("failed to write kind field: %w", err)
	}

	mimeType := msg.MimeType
	if mimeType == "" {
		mimeType = chat.MimeTypeFor(msg.FileName)
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, quoteEscaper.Replace(msg.FileName)))
	h.Set("Content-Type", mimeType)
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create file part: %w", err)
	}
	if _, err := part.Write(msg.Data); err != nil {
		return nil, "", fmt.Errorf("failed to write file part: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finish upload body: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

func (c *APIClient) getJSON(ctx context.Context, op, path string, out interface{}) error {
	return c.do(ctx, op, http.MethodGet, path, nil, "", out)
}

func (c *APIClient) sendJSON(ctx context.Context, op, method, path string, in, out interface{}) error {
	if in == nil {
		return c.do(ctx, op, method, path, nil, "", out)
	}
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to marshal %s request: %w", op, err)
	}
	return c.do(ctx, op, method, path, bytes.NewReader(payload), "application/json", out)
}

func (c *APIClient) do(ctx context.Context, op, method, path string, body io.Reader, contentType string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.RecordRequest(op, "error", time.Since(start))
		c.logf("%s %s failed: %v", method, path, err)
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	c.metrics.RecordRequest(op, strconv.Itoa(resp.StatusCode), time.Since(start))
	if err != nil {
		return fmt.Errorf("failed to read %s response: %w", op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := decodeAPIError(resp.StatusCode, data)
		c.logf("%s %s: %v", method, path, apiErr)
		return apiErr
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", op, err)
	}
	return nil
}

// decodeAPIError reads {"error": "..."} bodies, falling back to the raw text
func decodeAPIError(status int, data []byte) *APIError {
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &body); err == nil {
		if body.Error != "" {
			return &APIError{Status: status, Message: body.Error}
		}
		if body.Message != "" {
			return &APIError{Status: status, Message: body.Message}
		}
	}
	text := strings.TrimSpace(string(data))
	if len(text) > 200 {
		text = text[:200]
	}
	return &APIError{Status: status, Message: text}
}

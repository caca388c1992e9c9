package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	commonhttp "showroom-workers/internal/common/http"
)

var ErrUnexpectedStatus = errors.New("unexpected chat api status")

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"

	VisibilityPrivate = "private"
)

// Entry is one message as returned by the chat API. Raw keeps the untrusted
// payload for ParsePayload.
type Entry struct {
	Role string
	ID   string
	Raw  json.RawMessage
}

func newEntry(raw json.RawMessage) Entry {
	entry := Entry{Raw: raw}
	var head struct {
		Role string `json:"role"`
		ID   string `json:"id"`
	}
	if len(raw) > 0 && raw[0] == '{' && json.Unmarshal(raw, &head) == nil {
		entry.Role = head.Role
		entry.ID = head.ID
	}
	return entry
}

func syntheticEntry(id, content string) Entry {
	raw, _ := json.Marshal(map[string]string{
		"role":    RoleAssistant,
		"id":      id,
		"content": content,
	})
	return Entry{Role: RoleAssistant, ID: id, Raw: raw}
}

// FirstAssistant returns the first assistant entry in store order.
func FirstAssistant(entries []Entry) (Entry, bool) {
	for _, e := range entries {
		if e.Role == RoleAssistant {
			return e, true
		}
	}
	return Entry{}, false
}

type Part struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type Message struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Parts     []Part    `json:"parts"`
}

type CreateChatRequest struct {
	ID                     string  `json:"id"`
	Message                Message `json:"message"`
	SelectedChatModel      string  `json:"selectedChatModel"`
	SelectedVisibilityType string  `json:"selectedVisibilityType"`
}

// NewUserMessage builds the single text-part user message the chat API expects.
func NewUserMessage(id, text string, at time.Time) Message {
	return Message{
		ID:        id,
		CreatedAt: at,
		Role:      RoleUser,
		Content:   text,
		Parts:     []Part{{Type: "text", Text: text}},
	}
}

// Store talks to the chat application's /api/chat endpoint.
type Store struct {
	baseURL string
	model   string
	client  *commonhttp.Client
}

func NewStore(baseURL, chatModel string, client *commonhttp.Client) *Store {
	return &Store{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   chatModel,
		client:  client,
	}
}

// CreateChat posts the opening user message of a new private chat.
func (s *Store) CreateChat(ctx context.Context, chatID string, msg Message) error {
	req := CreateChatRequest{
		ID:                     chatID,
		Message:                msg,
		SelectedChatModel:      s.model,
		SelectedVisibilityType: VisibilityPrivate,
	}

	resp, err := s.client.PostJSON(ctx, s.baseURL+"/api/chat", req)
	if err != nil {
		return fmt.Errorf("create chat %s: %w", chatID, err)
	}
	if !resp.OK() {
		return fmt.Errorf("%w: create chat %s: %d %s", ErrUnexpectedStatus, chatID, resp.StatusCode, string(resp.Body))
	}
	return nil
}

// FetchMessages returns the entries of a chat. Stream transcripts and non-JSON
// bodies come back as a single synthetic assistant entry.
func (s *Store) FetchMessages(ctx context.Context, chatID string) ([]Entry, error) {
	endpoint := s.baseURL + "/api/chat?chatId=" + url.QueryEscape(chatID)

	resp, err := s.client.Get(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("fetch chat %s: %w", chatID, err)
	}
	if !resp.OK() {
		return nil, fmt.Errorf("%w: fetch chat %s: %d %s", ErrUnexpectedStatus, chatID, resp.StatusCode, string(resp.Body))
	}
	return DecodeMessages(resp.Body), nil
}

// DecodeMessages interprets a chat API body.
func DecodeMessages(body []byte) []Entry {
	text := string(body)
	if strings.TrimSpace(text) == "" {
		return []Entry{}
	}

	// Markers are only sniffed on non-JSON bodies; a JSON list may carry
	// stream-encoded content inside its entries.
	trimmed := bytes.TrimSpace(body)
	if !json.Valid(trimmed) {
		if strings.Contains(text, contentPrefix) || strings.Contains(text, "f:{") {
			return []Entry{syntheticEntry("extracted-content", ExtractStreamContent(text))}
		}
		return []Entry{syntheticEntry("raw-content", text)}
	}

	var list []json.RawMessage
	switch trimmed[0] {
	case '[':
		_ = json.Unmarshal(trimmed, &list)
	case '{':
		var envelope struct {
			Messages json.RawMessage `json:"messages"`
		}
		if json.Unmarshal(trimmed, &envelope) == nil {
			_ = json.Unmarshal(envelope.Messages, &list)
		}
	}

	entries := make([]Entry, 0, len(list))
	for _, raw := range list {
		entries = append(entries, newEntry(raw))
	}
	return entries
}

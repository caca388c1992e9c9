package chat

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	commonhttp "showroom-workers/internal/common/http"
)

func newTestStore(t *testing.T, handler http.HandlerFunc) *Store {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewStore(server.URL+"/", "chat-model", commonhttp.NewClient(time.Second))
}

func TestStore_CreateChat(t *testing.T) {
	var got CreateChatRequest
	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/chat", r.URL.Path)
		raw, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(raw, &got))
		w.WriteHeader(http.StatusOK)
	})

	at := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	err := store.CreateChat(context.Background(), "chat-1", NewUserMessage("msg-1", "compare please", at))
	require.NoError(t, err)

	assert.Equal(t, "chat-1", got.ID)
	assert.Equal(t, "chat-model", got.SelectedChatModel)
	assert.Equal(t, "private", got.SelectedVisibilityType)
	assert.Equal(t, "user", got.Message.Role)
	assert.Equal(t, "compare please", got.Message.Content)
	assert.Equal(t, []Part{{Type: "text", Text: "compare please"}}, got.Message.Parts)
	assert.True(t, at.Equal(got.Message.CreatedAt))
}

func TestStore_CreateChat_NonOK(t *testing.T) {
	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte("no session"))
	})

	err := store.CreateChat(context.Background(), "chat-1", NewUserMessage("m", "q", time.Now()))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnexpectedStatus)
	assert.Contains(t, err.Error(), "401 no session")
}

func TestStore_FetchMessages(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantErr   bool
		wantRoles []string
		wantIDs   []string
		wantText  string
	}{
		{
			name:    "non-2xx is an error",
			status:  http.StatusInternalServerError,
			body:    "boom",
			wantErr: true,
		},
		{
			name:      "blank body",
			status:    http.StatusOK,
			body:      "  \n",
			wantRoles: []string{},
		},
		{
			name:      "array",
			status:    http.StatusOK,
			body:      `[{"role":"user","id":"u1","content":"q"},{"role":"assistant","id":"a1","content":"answer"}]`,
			wantRoles: []string{"user", "assistant"},
			wantIDs:   []string{"u1", "a1"},
			wantText:  "answer",
		},
		{
			name:      "messages envelope",
			status:    http.StatusOK,
			body:      `{"messages":[{"role":"assistant","id":"a1","parts":[{"type":"text","text":"p"}]}]}`,
			wantRoles: []string{"assistant"},
			wantIDs:   []string{"a1"},
			wantText:  "p",
		},
		{
			name:      "object without messages",
			status:    http.StatusOK,
			body:      `{"chat":{"id":"c"}}`,
			wantRoles: []string{},
		},
		{
			name:      "stream transcript",
			status:    http.StatusOK,
			body:      "f:{\"messageId\":\"x\"}\n0:\"Hello \"\n0:\"world\"\ne:{}\nd:{}",
			wantRoles: []string{"assistant"},
			wantIDs:   []string{"extracted-content"},
			wantText:  "Hello world",
		},
		{
			name:   "array with stream-encoded assistant content",
			status: http.StatusOK,
			body: `[{"role":"user","id":"u1","content":"compare"},` +
				`{"role":"assistant","id":"a1","content":"f:{\"messageId\":\"m\"}\n0:\"Hello \"\n0:\"world\"\ne:{\"finishReason\":\"stop\"}"}]`,
			wantRoles: []string{"user", "assistant"},
			wantIDs:   []string{"u1", "a1"},
			wantText:  "Hello world",
		},
		{
			name:      "plain text body",
			status:    http.StatusOK,
			body:      "The Fortuner is better off-road.",
			wantRoles: []string{"assistant"},
			wantIDs:   []string{"raw-content"},
			wantText:  "The Fortuner is better off-road.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "chat 1", r.URL.Query().Get("chatId"))
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			entries, err := store.FetchMessages(context.Background(), "chat 1")
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrUnexpectedStatus)
				return
			}
			require.NoError(t, err)

			roles := make([]string, 0, len(entries))
			ids := make([]string, 0, len(entries))
			for _, e := range entries {
				roles = append(roles, e.Role)
				ids = append(ids, e.ID)
			}
			assert.Equal(t, tt.wantRoles, roles)
			if tt.wantIDs != nil {
				assert.Equal(t, tt.wantIDs, ids)
			}

			if tt.wantText != "" {
				entry, ok := FirstAssistant(entries)
				require.True(t, ok)
				assert.Equal(t, tt.wantText, NormalizeText(entry.Raw))
			}
		})
	}
}

func TestDecodeMessages_BareStringEntries(t *testing.T) {
	entries := DecodeMessages([]byte(`["hello", {"role":"assistant","content":"x"}]`))
	require.Len(t, entries, 2)
	assert.Empty(t, entries[0].Role)
	assert.Equal(t, "hello", NormalizeText(entries[0].Raw))

	entry, ok := FirstAssistant(entries)
	require.True(t, ok)
	assert.Equal(t, "x", NormalizeText(entry.Raw))
}

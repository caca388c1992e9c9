package awaitcomparison

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"showroom-workers/internal/catalog"
	"showroom-workers/internal/chat"
	"showroom-workers/internal/common/errors"
	commonhttp "showroom-workers/internal/common/http"
	"showroom-workers/internal/common/logger"
	"showroom-workers/internal/comparison"
	"showroom-workers/internal/models"
)

var noWait = comparison.SleeperFunc(func(ctx context.Context, d time.Duration) error { return ctx.Err() })

// newChatServer answers with pending until the given call, then with reply.
func newChatServer(t *testing.T, readyOn int32, reply string) (*httptest.Server, *int32) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "chat-42", r.URL.Query().Get("chatId"))
		n := atomic.AddInt32(&calls, 1)
		if readyOn > 0 && n >= readyOn {
			_, _ = w.Write([]byte(reply))
			return
		}
		_, _ = w.Write([]byte(`[{"role":"user","id":"m1","content":"compare please"}]`))
	}))
	t.Cleanup(server.Close)
	return server, &calls
}

func createTestHandler(t *testing.T, serverURL string) *Handler {
	store := chat.NewStore(serverURL, "chat-model", commonhttp.NewClient(time.Second))
	poller := comparison.NewPoller(store, comparison.DefaultPollConfig(), logger.NewTestLogger(t), comparison.WithSleeper(noWait))
	return NewHandler(&Config{Timeout: 10 * time.Second}, poller, catalog.Default(), logger.NewTestLogger(t))
}

func TestHandler_Execute_AssistantReply(t *testing.T) {
	server, calls := newChatServer(t, 2, `[
		{"role":"user","id":"m1","content":"compare please"},
		{"role":"assistant","id":"m2","parts":[{"type":"text","text":"The Camry is smoother."}]}
	]`)
	h := createTestHandler(t, server.URL)

	output, err := h.Execute(context.Background(), &Input{ChatID: "chat-42"})
	require.NoError(t, err)
	assert.Equal(t, "The Camry is smoother.", output.Text)
	assert.Equal(t, comparison.SourceAssistant, output.Source)
	assert.Equal(t, 2, output.Attempts)
	assert.Equal(t, int32(2), atomic.LoadInt32(calls))
}

func TestHandler_Execute_FallbackFromCatalogReferences(t *testing.T) {
	server, calls := newChatServer(t, 0, "")
	h := createTestHandler(t, server.URL)

	output, err := h.Execute(context.Background(), &Input{ChatID: "chat-42", MaxAttempts: 3, Car1ID: "8", Car2ID: "Hyrider"})
	require.NoError(t, err)

	cat := catalog.Default()
	camry, _ := cat.Find("8")
	hyrider, _ := cat.Find("9")
	assert.Equal(t, comparison.FallbackReport(camry, hyrider), output.Text)
	assert.Equal(t, comparison.SourceFallback, output.Source)
	assert.Equal(t, int32(3), atomic.LoadInt32(calls))
}

func TestHandler_Execute_InlineCarsForFallback(t *testing.T) {
	server, _ := newChatServer(t, 0, "")
	h := createTestHandler(t, server.URL)

	a := &models.Car{Name: "Alpha", Power: "100 HP"}
	b := &models.Car{Name: "Beta", Power: "200 HP"}
	output, err := h.Execute(context.Background(), &Input{ChatID: "chat-42", MaxAttempts: 1, Car1: a, Car2: b})
	require.NoError(t, err)
	assert.Equal(t, comparison.FallbackReport(*a, *b), output.Text)
}

func TestHandler_Execute_NoticeWithoutCars(t *testing.T) {
	server, _ := newChatServer(t, 0, "")
	h := createTestHandler(t, server.URL)

	output, err := h.Execute(context.Background(), &Input{ChatID: "chat-42", MaxAttempts: 2, Car1ID: "1", Car2ID: "unknown"})
	require.NoError(t, err)
	assert.Equal(t, comparison.TimeoutNotice, output.Text)
	assert.Equal(t, comparison.SourceNotice, output.Source)
	assert.Equal(t, 2, output.Attempts)
}

func TestHandler_Execute_InvalidInput(t *testing.T) {
	h := createTestHandler(t, "http://127.0.0.1:0")

	for _, input := range []*Input{{ChatID: "  "}, {ChatID: "chat-42", MaxAttempts: -1}} {
		_, err := h.Execute(context.Background(), input)
		stdErr, ok := errors.AsStandardError(err)
		require.True(t, ok)
		assert.Equal(t, errors.ErrCodeInvalidInput, stdErr.Code)
	}
}

package comparison

import (
	"context"
	stderrors "errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"showroom-workers/internal/catalog"
	"showroom-workers/internal/chat"
	"showroom-workers/internal/common/config"
	"showroom-workers/internal/common/logger"
	"showroom-workers/internal/common/metrics"
	"showroom-workers/internal/models"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fetchResult struct {
	entries []chat.Entry
	err     error
}

// scriptedFetcher replays results in order and repeats the last one.
type scriptedFetcher struct {
	mu      sync.Mutex
	results []fetchResult
	calls   int
}

func (f *scriptedFetcher) FetchMessages(ctx context.Context, chatID string) ([]chat.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	idx := f.calls
	if idx >= len(f.results) {
		idx = len(f.results) - 1
	}
	f.calls++
	r := f.results[idx]
	return r.entries, r.err
}

type recordingSleeper struct {
	delays []time.Duration
}

func (s *recordingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	s.delays = append(s.delays, d)
	return ctx.Err()
}

func entries(t *testing.T, raws ...string) []chat.Entry {
	t.Helper()
	return chat.DecodeMessages([]byte("[" + strings.Join(raws, ",") + "]"))
}

func testConfig() PollConfig {
	return PollConfig{
		MaxAttempts:     20,
		BaseDelay:       2 * time.Second,
		ErrorDelay:      2 * time.Second,
		FinalErrorDelay: 5 * time.Second,
		FinalWindow:     3,
	}
}

func newTestPoller(t *testing.T, fetcher MessageFetcher) (*Poller, *recordingSleeper) {
	sleeper := &recordingSleeper{}
	return NewPoller(fetcher, testConfig(), logger.NewTestLogger(t), WithSleeper(sleeper)), sleeper
}

func cars(t *testing.T) (*models.Car, *models.Car) {
	t.Helper()
	c := catalog.Default()
	a, ok := c.Find("Camry")
	require.True(t, ok)
	b, ok := c.Find("Hyrider")
	require.True(t, ok)
	return &a, &b
}

func TestPoll_AssistantTextOnFirstAttempt(t *testing.T) {
	fetcher := &scriptedFetcher{results: []fetchResult{
		{entries: entries(t, `{"role":"user","content":"q"}`, `{"role":"assistant","content":"Camry wins on comfort."}`)},
	}}
	poller, sleeper := newTestPoller(t, fetcher)

	result := poller.Poll(context.Background(), "chat-1", PollOptions{})

	assert.Equal(t, Result{Text: "Camry wins on comfort.", Source: SourceAssistant, Attempts: 1}, result)
	assert.Equal(t, 1, fetcher.calls)
	assert.Equal(t, []time.Duration{2 * time.Second}, sleeper.delays)
}

func TestPoll_ExhaustedBudgetReturnsFallback(t *testing.T) {
	for _, budget := range []int{1, 3, 7} {
		fetcher := &scriptedFetcher{results: []fetchResult{
			{entries: entries(t, `{"role":"user","content":"q"}`)},
		}}
		poller, _ := newTestPoller(t, fetcher)
		a, b := cars(t)

		result := poller.Poll(context.Background(), "chat-1", PollOptions{MaxAttempts: budget, Car1: a, Car2: b})

		assert.Equal(t, budget, fetcher.calls)
		assert.Equal(t, SourceFallback, result.Source)
		assert.Equal(t, budget, result.Attempts)
		assert.Equal(t, FallbackReport(*a, *b), result.Text)
	}
}

func TestPoll_NoCarsReturnsNotice(t *testing.T) {
	fetcher := &scriptedFetcher{results: []fetchResult{{entries: nil}}}
	poller, _ := newTestPoller(t, fetcher)
	a, _ := cars(t)

	result := poller.Poll(context.Background(), "chat-1", PollOptions{MaxAttempts: 4, Car1: a})

	assert.Equal(t, TimeoutNotice, result.Text)
	assert.Equal(t, SourceNotice, result.Source)
	assert.Equal(t, 4, fetcher.calls)
}

func TestPoll_FetchErrorsDoNotPropagate(t *testing.T) {
	fetcher := &scriptedFetcher{results: []fetchResult{
		{err: stderrors.New("connection refused")},
		{err: chat.ErrUnexpectedStatus},
		{entries: entries(t, `{"role":"assistant","parts":[{"type":"text","text":"finally"}]}`)},
	}}
	poller, sleeper := newTestPoller(t, fetcher)

	result := poller.Poll(context.Background(), "chat-1", PollOptions{})

	assert.Equal(t, "finally", result.Text)
	assert.Equal(t, 3, result.Attempts)
	assert.Equal(t, []time.Duration{
		2 * time.Second, 2 * time.Second,
		2 * time.Second, 2 * time.Second,
		2 * time.Second,
	}, sleeper.delays)
}

func TestPoll_ErrorDelayLengthensInFinalWindow(t *testing.T) {
	fetcher := &scriptedFetcher{results: []fetchResult{{err: stderrors.New("timeout")}}}
	poller, sleeper := newTestPoller(t, fetcher)

	result := poller.Poll(context.Background(), "chat-1", PollOptions{MaxAttempts: 5})

	assert.Equal(t, SourceNotice, result.Source)
	base, short, long := 2*time.Second, 2*time.Second, 5*time.Second
	assert.Equal(t, []time.Duration{
		base, short,
		base, short,
		base, long,
		base, long,
		base, long,
	}, sleeper.delays)
}

func TestPoll_EncodedStreamIsCleaned(t *testing.T) {
	stream := `{"role":"assistant","content":"f:{\"messageId\":\"m\"}\n0:\"Hello \"\n0:\"world\"\ne:{\"finishReason\":\"stop\"}"}`
	fetcher := &scriptedFetcher{results: []fetchResult{{entries: entries(t, stream)}}}
	poller, _ := newTestPoller(t, fetcher)

	result := poller.Poll(context.Background(), "chat-1", PollOptions{})

	assert.Equal(t, "Hello world", result.Text)
	assert.Equal(t, SourceAssistant, result.Source)
}

func TestPoll_EmptyAssistantKeepsPolling(t *testing.T) {
	fetcher := &scriptedFetcher{results: []fetchResult{
		{entries: entries(t, `{"role":"assistant","parts":[]}`)},
		{entries: entries(t, `{"role":"assistant","content":""}`)},
		{entries: entries(t, `{"role":"assistant","content":"ready"}`)},
	}}
	poller, _ := newTestPoller(t, fetcher)

	result := poller.Poll(context.Background(), "chat-1", PollOptions{})

	assert.Equal(t, "ready", result.Text)
	assert.Equal(t, 3, fetcher.calls)
}

func TestPoll_FirstAssistantInStoreOrder(t *testing.T) {
	fetcher := &scriptedFetcher{results: []fetchResult{
		{entries: entries(t,
			`{"role":"assistant","id":"b","content":"first"}`,
			`{"role":"assistant","id":"a","content":"second"}`,
		)},
	}}
	poller, _ := newTestPoller(t, fetcher)

	assert.Equal(t, "first", poller.Poll(context.Background(), "chat-1", PollOptions{}).Text)
}

func TestPoll_FirstAssistantEmptyIsNotSkipped(t *testing.T) {
	fetcher := &scriptedFetcher{results: []fetchResult{
		{entries: entries(t,
			`{"role":"assistant","content":""}`,
			`{"role":"assistant","content":"later"}`,
		)},
	}}
	poller, _ := newTestPoller(t, fetcher)

	result := poller.Poll(context.Background(), "chat-1", PollOptions{MaxAttempts: 2})

	assert.Equal(t, SourceNotice, result.Source)
	assert.Equal(t, 2, fetcher.calls)
}

func TestPoll_ContextCancelledResolvesToFallback(t *testing.T) {
	fetcher := &scriptedFetcher{results: []fetchResult{{entries: nil}}}
	poller := NewPoller(fetcher, testConfig(), logger.NewTestLogger(t))
	a, b := cars(t)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	result := poller.Poll(ctx, "chat-1", PollOptions{Car1: a, Car2: b})

	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, SourceFallback, result.Source)
	assert.Equal(t, 1, result.Attempts)
	assert.Zero(t, fetcher.calls)
}

func TestPoll_RecordsMetrics(t *testing.T) {
	before := testutil.ToFloat64(metrics.ComparisonPollResults.WithLabelValues(string(SourceNotice)))
	errorsBefore := testutil.ToFloat64(metrics.ComparisonPollAttempts.WithLabelValues("error"))

	fetcher := &scriptedFetcher{results: []fetchResult{{err: stderrors.New("down")}}}
	poller, _ := newTestPoller(t, fetcher)
	poller.Poll(context.Background(), "chat-1", PollOptions{MaxAttempts: 2})

	assert.Equal(t, before+1, testutil.ToFloat64(metrics.ComparisonPollResults.WithLabelValues(string(SourceNotice))))
	assert.Equal(t, errorsBefore+2, testutil.ToFloat64(metrics.ComparisonPollAttempts.WithLabelValues("error")))
}

func TestTimerSleeper(t *testing.T) {
	require.NoError(t, TimerSleeper.Sleep(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, TimerSleeper.Sleep(ctx, time.Hour), context.Canceled)
}

func TestNewPollConfig(t *testing.T) {
	cfg := NewPollConfig(config.ComparisonConfig{
		MaxAttempts:     10,
		BaseDelay:       1500,
		ErrorDelay:      2000,
		FinalErrorDelay: 5000,
		FinalWindow:     2,
	})
	assert.Equal(t, PollConfig{
		MaxAttempts:     10,
		BaseDelay:       1500 * time.Millisecond,
		ErrorDelay:      2 * time.Second,
		FinalErrorDelay: 5 * time.Second,
		FinalWindow:     2,
	}, cfg)
	assert.Equal(t, 20, DefaultPollConfig().MaxAttempts)
}

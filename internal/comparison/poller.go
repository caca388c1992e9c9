package comparison

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"showroom-workers/internal/chat"
	"showroom-workers/internal/common/config"
	"showroom-workers/internal/common/logger"
	"showroom-workers/internal/common/metrics"
	"showroom-workers/internal/models"
)

type Source string

const (
	SourceAssistant Source = "assistant"
	SourceFallback  Source = "fallback"
	SourceNotice    Source = "notice"
)

// MessageFetcher is satisfied by *chat.Store.
type MessageFetcher interface {
	FetchMessages(ctx context.Context, chatID string) ([]chat.Entry, error)
}

// Sleeper waits for d or until ctx is done.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

type SleeperFunc func(ctx context.Context, d time.Duration) error

func (f SleeperFunc) Sleep(ctx context.Context, d time.Duration) error { return f(ctx, d) }

// TimerSleeper sleeps on a real timer.
var TimerSleeper Sleeper = SleeperFunc(func(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
})

type PollConfig struct {
	MaxAttempts     int
	BaseDelay       time.Duration
	ErrorDelay      time.Duration
	FinalErrorDelay time.Duration
	// FinalWindow is how many trailing attempts use FinalErrorDelay after a
	// failed fetch.
	FinalWindow int
}

func DefaultPollConfig() PollConfig {
	return PollConfig{
		MaxAttempts:     20,
		BaseDelay:       2 * time.Second,
		ErrorDelay:      2 * time.Second,
		FinalErrorDelay: 5 * time.Second,
		FinalWindow:     3,
	}
}

func NewPollConfig(cfg config.ComparisonConfig) PollConfig {
	return PollConfig{
		MaxAttempts:     cfg.MaxAttempts,
		BaseDelay:       config.GetDuration(cfg.BaseDelay),
		ErrorDelay:      config.GetDuration(cfg.ErrorDelay),
		FinalErrorDelay: config.GetDuration(cfg.FinalErrorDelay),
		FinalWindow:     cfg.FinalWindow,
	}
}

type PollOptions struct {
	// MaxAttempts overrides PollConfig.MaxAttempts when positive.
	MaxAttempts int
	Car1        *models.Car
	Car2        *models.Car
}

type Result struct {
	Text     string `json:"comparison"`
	Source   Source `json:"source"`
	Attempts int    `json:"attempts"`
}

type Poller struct {
	fetcher MessageFetcher
	sleeper Sleeper
	config  PollConfig
	logger  logger.Logger
	tracer  trace.Tracer
}

type PollerOption func(*Poller)

func WithSleeper(s Sleeper) PollerOption {
	return func(p *Poller) { p.sleeper = s }
}

func NewPoller(fetcher MessageFetcher, cfg PollConfig, log logger.Logger, opts ...PollerOption) *Poller {
	p := &Poller{
		fetcher: fetcher,
		sleeper: TimerSleeper,
		config:  cfg,
		logger:  log,
		tracer:  otel.Tracer("showroom-workers/comparison"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Poll waits for the assistant's answer in chatID. It never fails: when the
// budget runs out, or ctx ends, it resolves to the fallback report if both
// cars are known and to TimeoutNotice otherwise.
func (p *Poller) Poll(ctx context.Context, chatID string, opts PollOptions) Result {
	maxAttempts := opts.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = p.config.MaxAttempts
	}

	ctx, span := p.tracer.Start(ctx, "comparison.poll", trace.WithAttributes(
		attribute.String("chat.id", chatID),
		attribute.Int("poll.max_attempts", maxAttempts),
	))
	defer span.End()

	log := p.logger.WithFields(map[string]interface{}{"chatId": chatID})
	log.Info("polling for comparison result", map[string]interface{}{"maxAttempts": maxAttempts})

	attempts := 0
	for attempts < maxAttempts {
		attempts++

		if err := p.sleeper.Sleep(ctx, p.config.BaseDelay); err != nil {
			break
		}

		entries, err := p.fetcher.FetchMessages(ctx, chatID)
		if err != nil {
			metrics.ComparisonPollAttempts.WithLabelValues("error").Inc()
			log.Warn("poll attempt failed", map[string]interface{}{
				"attempt": attempts,
				"error":   err.Error(),
			})
			if err := p.sleeper.Sleep(ctx, p.errorDelay(attempts, maxAttempts)); err != nil {
				break
			}
			continue
		}

		if len(entries) == 0 {
			metrics.ComparisonPollAttempts.WithLabelValues("empty").Inc()
			log.Debug("no messages yet", map[string]interface{}{"attempt": attempts})
			continue
		}

		entry, ok := chat.FirstAssistant(entries)
		if !ok {
			metrics.ComparisonPollAttempts.WithLabelValues("pending").Inc()
			log.Debug("no assistant message yet", map[string]interface{}{"attempt": attempts})
			continue
		}

		payload := chat.ParsePayload(entry.Raw)
		if payload.Empty() {
			metrics.ComparisonPollAttempts.WithLabelValues("pending").Inc()
			log.Debug("assistant message has no content yet", map[string]interface{}{"attempt": attempts})
			continue
		}

		metrics.ComparisonPollAttempts.WithLabelValues("found").Inc()
		log.Info("comparison result received", map[string]interface{}{
			"attempt":     attempts,
			"payloadKind": payload.Kind.String(),
		})
		return p.finish(span, Result{Text: payload.Text, Source: SourceAssistant, Attempts: attempts})
	}

	log.Warn("comparison polling exhausted", map[string]interface{}{
		"attempts":  attempts,
		"cancelled": ctx.Err() != nil,
	})

	if opts.Car1 != nil && opts.Car2 != nil {
		return p.finish(span, Result{Text: FallbackReport(*opts.Car1, *opts.Car2), Source: SourceFallback, Attempts: attempts})
	}
	return p.finish(span, Result{Text: TimeoutNotice, Source: SourceNotice, Attempts: attempts})
}

// errorDelay is the extra wait after a failed fetch; the last FinalWindow
// attempts wait longer.
func (p *Poller) errorDelay(attempt, maxAttempts int) time.Duration {
	if attempt > maxAttempts-p.config.FinalWindow {
		return p.config.FinalErrorDelay
	}
	return p.config.ErrorDelay
}

func (p *Poller) finish(span trace.Span, result Result) Result {
	metrics.ComparisonPollResults.WithLabelValues(string(result.Source)).Inc()
	span.SetAttributes(
		attribute.String("poll.source", string(result.Source)),
		attribute.Int("poll.attempts", result.Attempts),
	)
	return result
}

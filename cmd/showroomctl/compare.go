package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"showroom-workers/internal/catalog"
	"showroom-workers/internal/chat"
	"showroom-workers/internal/common/config"
	commonhttp "showroom-workers/internal/common/http"
	"showroom-workers/internal/comparison"
	"showroom-workers/internal/models"
)

type chatFlags struct {
	baseURL  string
	model    string
	attempts int
	delay    time.Duration
}

func (f *chatFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.baseURL, "chat-url", "", "Chat API base URL (overrides apis.chat.base_url)")
	cmd.Flags().StringVar(&f.model, "chat-model", "chat-model", "Chat model used when --chat-url is set")
	cmd.Flags().IntVar(&f.attempts, "attempts", 0, "Poll attempts (0 uses comparison.max_attempts)")
	cmd.Flags().DurationVar(&f.delay, "delay", -1, "Delay between polls (negative uses comparison.base_delay)")
}

// session builds the chat store and poller from flags, falling back to the
// config file when no chat URL is given.
func (f *chatFlags) session() (*chat.Store, *comparison.Poller, error) {
	pollCfg := comparison.DefaultPollConfig()
	baseURL, model, timeout := f.baseURL, f.model, 10*time.Second

	if baseURL == "" {
		cfg, err := loadConfig()
		if err != nil {
			return nil, nil, err
		}
		baseURL = cfg.APIs.Chat.BaseURL
		model = cfg.APIs.Chat.ChatModel
		timeout = config.GetDuration(cfg.APIs.Chat.Timeout)
		pollCfg = comparison.NewPollConfig(cfg.Comparison)
	}
	if f.delay >= 0 {
		pollCfg.BaseDelay = f.delay
		pollCfg.ErrorDelay = f.delay
		pollCfg.FinalErrorDelay = f.delay
	}

	store := chat.NewStore(baseURL, model, commonhttp.NewClient(timeout))
	return store, comparison.NewPoller(store, pollCfg, cliLogger()), nil
}

func newCompareCmd() *cobra.Command {
	var flags chatFlags
	cmd := &cobra.Command{
		Use:   "compare <car1> <car2>",
		Short: "Start a comparison chat and wait for the answer",
		Long: `Resolves both cars from the catalog by id or name, opens a chat with the
comparison query and polls it. Without an answer in time the offline
fallback report is printed instead.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, poller, err := flags.session()
			if err != nil {
				return err
			}
			return runCompare(cmd.Context(), cmd.OutOrStdout(), store, poller, catalog.Default(), args[0], args[1], flags.attempts)
		},
	}
	flags.register(cmd)
	return cmd
}

type compareResult struct {
	ChatID string `json:"chatId"`
	Car1   string `json:"car1"`
	Car2   string `json:"car2"`
	comparison.Result
}

func runCompare(ctx context.Context, out io.Writer, store *chat.Store, poller *comparison.Poller, cat *catalog.Catalog, ref1, ref2 string, attempts int) error {
	car1, ok := cat.Find(ref1)
	if !ok {
		return fmt.Errorf("car not found: %s", ref1)
	}
	car2, ok := cat.Find(ref2)
	if !ok {
		return fmt.Errorf("car not found: %s", ref2)
	}

	chatID := uuid.NewString()
	msg := chat.NewUserMessage(uuid.NewString(), comparison.GenerateQuery(car1, car2), time.Now().UTC())
	if err := store.CreateChat(ctx, chatID, msg); err != nil {
		return err
	}

	result := poller.Poll(ctx, chatID, comparison.PollOptions{MaxAttempts: attempts, Car1: &car1, Car2: &car2})
	return printComparison(out, compareResult{ChatID: chatID, Car1: car1.Name, Car2: car2.Name, Result: result})
}

func newPollCmd() *cobra.Command {
	var flags chatFlags
	var car1, car2 string
	cmd := &cobra.Command{
		Use:   "poll <chatId>",
		Short: "Poll an existing chat for the assistant's answer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, poller, err := flags.session()
			if err != nil {
				return err
			}
			return runPoll(cmd.Context(), cmd.OutOrStdout(), poller, catalog.Default(), args[0], car1, car2, flags.attempts)
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&car1, "car1", "", "First car (id or name) for the fallback report")
	cmd.Flags().StringVar(&car2, "car2", "", "Second car (id or name) for the fallback report")
	return cmd
}

func runPoll(ctx context.Context, out io.Writer, poller *comparison.Poller, cat *catalog.Catalog, chatID, ref1, ref2 string, attempts int) error {
	opts := comparison.PollOptions{MaxAttempts: attempts}
	if car, ok := cat.Find(ref1); ok {
		opts.Car1 = &car
	}
	if car, ok := cat.Find(ref2); ok {
		opts.Car2 = &car
	}

	result := poller.Poll(ctx, chatID, opts)
	return printComparison(out, compareResult{ChatID: chatID, Car1: carName(opts.Car1), Car2: carName(opts.Car2), Result: result})
}

func carName(car *models.Car) string {
	if car == nil {
		return ""
	}
	return car.Name
}

func printComparison(out io.Writer, r compareResult) error {
	if jsonOutput {
		return printJSON(out, r)
	}
	fmt.Fprintf(out, "chat: %s\nsource: %s (after %d attempts)\n\n", r.ChatID, r.Source, r.Attempts)
	return markdown(out, r.Text)
}

package awaitcomparison

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"showroom-workers/internal/catalog"
	"showroom-workers/internal/common/errors"
	"showroom-workers/internal/common/logger"
	"showroom-workers/internal/common/metrics"
	"showroom-workers/internal/comparison"
	"showroom-workers/internal/models"
)

const TaskType = "await-comparison"

type Handler struct {
	config       *Config
	poller       *comparison.Poller
	catalog      *catalog.Catalog
	logger       logger.Logger
	errorHandler *errors.ErrorHandler
}

func NewHandler(config *Config, poller *comparison.Poller, cat *catalog.Catalog, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		poller:       poller,
		catalog:      cat,
		logger:       log,
		errorHandler: errors.NewErrorHandler(log),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.errorHandler.HandleJobError(context.Background(), client, job,
			errors.NewInvalidInputError(fmt.Sprintf("parse input: %v", err)))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.errorHandler.HandleJobError(context.Background(), client, job, err)
		return
	}

	h.completeJob(client, job, output)
}

// execute only fails on bad input; the poll itself always yields text.
func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if strings.TrimSpace(input.ChatID) == "" {
		return nil, errors.NewInvalidInputError("chatId is required")
	}
	if input.MaxAttempts < 0 {
		return nil, errors.NewInvalidInputError("maxAttempts must not be negative")
	}

	result := h.poller.Poll(ctx, input.ChatID, comparison.PollOptions{
		MaxAttempts: input.MaxAttempts,
		Car1:        h.car(input.Car1, input.Car1ID),
		Car2:        h.car(input.Car2, input.Car2ID),
	})

	h.logger.Info("comparison resolved", map[string]interface{}{
		"chatId":   input.ChatID,
		"source":   string(result.Source),
		"attempts": result.Attempts,
	})
	return &result, nil
}

// car returns the inline car, else the catalog entry for ref, else nil.
func (h *Handler) car(inline *models.Car, ref models.CarID) *models.Car {
	if inline != nil && strings.TrimSpace(inline.Name) != "" {
		return inline
	}
	if ref == "" || h.catalog == nil {
		return nil
	}
	if car, ok := h.catalog.Find(ref.String()); ok {
		return &car
	}
	return nil
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	if _, err := cmd.Send(context.Background()); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}

package directcomparison

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

const TaskType = "direct-comparison"

const sourceDirect = "direct"

// Handler renders the offline comparison report without touching the chat API.
type Handler struct {
	config       *Config
	catalog      *catalog.Catalog
	logger       logger.Logger
	errorHandler *errors.ErrorHandler
}

func NewHandler(config *Config, cat *catalog.Catalog, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
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

	output, err := h.execute(&input)
	if err != nil {
		h.errorHandler.HandleJobError(context.Background(), client, job, err)
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(input *Input) (*Output, error) {
	a, err := h.resolve("car1", input.Car1, input.Car1ID)
	if err != nil {
		return nil, err
	}
	b, err := h.resolve("car2", input.Car2, input.Car2ID)
	if err != nil {
		return nil, err
	}
	return &Output{
		Comparison: comparison.DirectComparison(a, b),
		Source:     sourceDirect,
	}, nil
}

func (h *Handler) resolve(field string, inline *models.Car, ref models.CarID) (models.Car, error) {
	if inline != nil && strings.TrimSpace(inline.Name) != "" {
		return *inline, nil
	}
	if ref == "" {
		return models.Car{}, errors.NewInvalidInputError(fmt.Sprintf("%s or %sId is required", field, field))
	}
	car, ok := h.catalog.Find(ref.String())
	if !ok {
		return models.Car{}, errors.NewCarNotFoundError(ref.String())
	}
	return car, nil
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

// Execute ignores ctx; the report is computed in memory.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(input)
}

package searchcars

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/elastic/go-elasticsearch/v8"

	"showroom-workers/internal/catalog"
	"showroom-workers/internal/common/errors"
	"showroom-workers/internal/common/logger"
	"showroom-workers/internal/common/metrics"
)

const TaskType = "search-cars"

type Handler struct {
	config       *Config
	es           *elasticsearch.Client
	catalog      *catalog.Catalog
	logger       logger.Logger
	errorHandler *errors.ErrorHandler
}

// NewHandler accepts a nil es client; searches then run on the static catalog.
func NewHandler(config *Config, es *elasticsearch.Client, cat *catalog.Catalog, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		es:           es,
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

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input.MinSeats < 0 || input.MaxPrice < 0 {
		return nil, errors.NewInvalidInputError("minSeats and maxPrice must not be negative")
	}

	criteria := catalog.Criteria{
		Keywords: strings.TrimSpace(input.Keywords),
		MinSeats: input.MinSeats,
		MaxPrice: input.MaxPrice,
		From:     input.From,
		Size:     input.Size,
	}.Normalize()

	if h.es != nil {
		result, err := catalog.Search(ctx, h.es, h.config.Index, criteria)
		if err == nil {
			return &Output{
				Cars:   result.Cars,
				Total:  result.TotalHits,
				From:   criteria.From,
				Size:   criteria.Size,
				Source: SourceElasticsearch,
			}, nil
		}
		h.logger.Warn("search failed, using static catalog", map[string]interface{}{
			"index": h.config.Index,
			"error": err.Error(),
		})
	}

	cars, total := h.catalog.Filter(criteria)
	return &Output{
		Cars:   cars,
		Total:  int64(total),
		From:   criteria.From,
		Size:   criteria.Size,
		Source: SourceCatalog,
	}, nil
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

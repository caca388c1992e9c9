package generatesurveyquestions

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"showroom-workers/internal/common/errors"
	"showroom-workers/internal/common/logger"
	"showroom-workers/internal/common/metrics"
	"showroom-workers/internal/models"
	"showroom-workers/internal/survey"
)

const TaskType = "generate-survey-questions"

// QuestionGenerator is satisfied by *survey.DifyClient.
type QuestionGenerator interface {
	GenerateQuestions(ctx context.Context, category string, count int) ([]models.MCQ, error)
}

type Handler struct {
	config       *Config
	generator    QuestionGenerator
	cache        *survey.QuestionCache
	logger       logger.Logger
	errorHandler *errors.ErrorHandler
}

// NewHandler accepts a nil cache.
func NewHandler(config *Config, generator QuestionGenerator, cache *survey.QuestionCache, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		generator:    generator,
		cache:        cache,
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
	category := strings.TrimSpace(input.Category)
	if category == "" {
		return nil, errors.NewInvalidInputError("category is required")
	}
	count := input.Count
	if count <= 0 {
		count = h.config.QuestionCount
	}

	if h.cache != nil && !input.Refresh {
		if questions, ok := h.cache.Get(ctx, category); ok {
			metrics.SurveyQuestionCache.WithLabelValues("hit").Inc()
			return &Output{Category: category, Questions: questions, Cached: true}, nil
		}
		metrics.SurveyQuestionCache.WithLabelValues("miss").Inc()
	}

	questions, err := h.generator.GenerateQuestions(ctx, category, count)
	if err != nil {
		return nil, mapGenerationError(err)
	}

	if h.cache != nil {
		if err := h.cache.Set(ctx, category, questions); err != nil {
			h.logger.Warn("failed to cache questions", map[string]interface{}{
				"category": category,
				"error":    err.Error(),
			})
		}
	}

	h.logger.Info("survey questions generated", map[string]interface{}{
		"category":  category,
		"questions": len(questions),
	})
	return &Output{Category: category, Questions: questions}, nil
}

func mapGenerationError(err error) error {
	switch {
	case stderrors.Is(err, survey.ErrDifyTimeout):
		return errors.NewDifyTimeoutError()
	case stderrors.Is(err, survey.ErrInvalidGeneration):
		return errors.NewQuestionGenerationFailedError(err.Error())
	default:
		return errors.NewDifyAPIError(err)
	}
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

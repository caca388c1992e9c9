package savesurveyresponse

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"showroom-workers/internal/common/errors"
	"showroom-workers/internal/common/logger"
	"showroom-workers/internal/common/metrics"
	"showroom-workers/internal/survey"
)

const TaskType = "save-survey-response"

type Handler struct {
	config       *Config
	repo         *survey.Repository
	logger       logger.Logger
	errorHandler *errors.ErrorHandler
}

func NewHandler(config *Config, repo *survey.Repository, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		repo:         repo,
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
	if err := validate(input); err != nil {
		return nil, err
	}

	result, err := h.repo.Save(ctx, survey.SaveRequest{
		Category:  strings.TrimSpace(input.Category),
		Questions: input.Questions,
		Answers:   input.Answers,
		UserID:    input.UserID,
	})
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, errors.NewQueryTimeoutError("save-survey-response")
		}
		return nil, errors.NewDatabaseInsertFailedError(err)
	}

	h.logger.Info("survey response saved", map[string]interface{}{
		"surveyId": result.SurveyID,
		"chatId":   result.ChatID,
		"answers":  len(input.Answers),
	})
	return result, nil
}

func validate(input *Input) error {
	if strings.TrimSpace(input.UserID) == "" {
		return errors.NewUnauthenticatedError("userId is required to save a survey")
	}
	if strings.TrimSpace(input.Category) == "" {
		return errors.NewInvalidInputError("category is required")
	}
	if len(input.Questions) == 0 {
		return errors.NewInvalidInputError("questions are required")
	}
	if len(input.Answers) == 0 {
		return errors.NewInvalidInputError("answers are required")
	}
	if err := survey.ValidateAnswers(input.Questions, input.Answers); err != nil {
		return errors.NewInvalidInputError(err.Error())
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

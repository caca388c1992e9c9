package startcomparison

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"

	"showroom-workers/internal/catalog"
	"showroom-workers/internal/chat"
	"showroom-workers/internal/common/errors"
	"showroom-workers/internal/common/logger"
	"showroom-workers/internal/common/metrics"
	"showroom-workers/internal/comparison"
	"showroom-workers/internal/models"
)

const TaskType = "start-comparison"

// ChatCreator is satisfied by *chat.Store.
type ChatCreator interface {
	CreateChat(ctx context.Context, chatID string, msg chat.Message) error
}

type Handler struct {
	config       *Config
	chats        ChatCreator
	catalog      *catalog.Catalog
	logger       logger.Logger
	errorHandler *errors.ErrorHandler
	newID        func() string
	now          func() time.Time
}

func NewHandler(config *Config, chats ChatCreator, cat *catalog.Catalog, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		chats:        chats,
		catalog:      cat,
		logger:       log,
		errorHandler: errors.NewErrorHandler(log),
		newID:        uuid.NewString,
		now:          func() time.Time { return time.Now().UTC() },
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
	car1, err := h.resolve("car1", input.Car1, input.Car1ID)
	if err != nil {
		return nil, err
	}
	car2, err := h.resolve("car2", input.Car2, input.Car2ID)
	if err != nil {
		return nil, err
	}

	query := comparison.GenerateQuery(car1, car2)
	chatID, messageID := h.newID(), h.newID()

	if err := h.chats.CreateChat(ctx, chatID, chat.NewUserMessage(messageID, query, h.now())); err != nil {
		return nil, errors.NewChatCreateFailedError(err).WithMetadata("chatId", chatID)
	}

	h.logger.Info("comparison chat created", map[string]interface{}{
		"chatId": chatID,
		"car1":   car1.Name,
		"car2":   car2.Name,
	})

	return &Output{
		ChatID:    chatID,
		MessageID: messageID,
		Query:     query,
		Car1:      car1,
		Car2:      car2,
	}, nil
}

func (h *Handler) resolve(field string, inline *models.Car, ref models.CarID) (models.Car, error) {
	if inline != nil && strings.TrimSpace(inline.Name) != "" {
		return *inline, nil
	}
	if strings.TrimSpace(ref.String()) == "" {
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

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}

package registry

import (
	"context"
	"strings"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"showroom-workers/internal/common/errors"
	"showroom-workers/internal/common/logger"
	"showroom-workers/internal/common/validation"
)

// InputCheck validates job variables for one task type.
type InputCheck func(variables []byte) error

// InputCheck compiles the activity's input schema. Task types without an entry
// or without a schema accept everything.
func (r *ActivityRegistry) InputCheck(taskType string) (InputCheck, error) {
	activity, ok := r.Find(taskType)
	if !ok || len(activity.InputSchema) == 0 {
		return func([]byte) error { return nil }, nil
	}

	schema, err := validation.Compile(activity.InputSchema)
	if err != nil {
		return nil, err
	}
	return func(variables []byte) error {
		result := schema.Validate(variables)
		if result.Valid {
			return nil
		}
		return errors.NewInvalidInputError(strings.Join(result.GetErrorMessages(), "; ")).
			WithMetadata("taskType", taskType)
	}, nil
}

// Guard runs the input check before next. Rejected jobs end with INVALID_INPUT.
func (r *ActivityRegistry) Guard(taskType string, next worker.JobHandler, log logger.Logger) (worker.JobHandler, error) {
	check, err := r.InputCheck(taskType)
	if err != nil {
		return nil, err
	}
	errorHandler := errors.NewErrorHandler(log)

	return func(client worker.JobClient, job entities.Job) {
		if err := check([]byte(job.Variables)); err != nil {
			errorHandler.HandleJobError(context.Background(), client, job, err)
			return
		}
		next(client, job)
	}, nil
}

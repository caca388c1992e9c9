package camunda

import (
	"context"
	"time"

	"showroom-workers/internal/common/logger"
	"showroom-workers/internal/common/metrics"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// JobRecorder receives per-job telemetry; *observability.Observability satisfies it.
type JobRecorder interface {
	RecordJobProcessed(ctx context.Context, taskType, status string)
	RecordJobDuration(ctx context.Context, taskType string, duration time.Duration)
	StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span)
}

type WorkerOptions struct {
	TaskType      string
	MaxJobsActive int
	Timeout       time.Duration
}

type Worker struct {
	worker   worker.JobWorker
	logger   logger.Logger
	taskType string
}

// Instrument wraps a handler with the active-jobs gauge, duration histogram,
// a job span and the otel job counters.
func Instrument(taskType string, handler worker.JobHandler, rec JobRecorder) worker.JobHandler {
	return func(client worker.JobClient, job entities.Job) {
		ctx := context.Background()
		if rec != nil {
			var span trace.Span
			ctx, span = rec.StartSpan(ctx, "job "+taskType,
				attribute.String("task_type", taskType),
				attribute.Int64("job_key", job.GetKey()),
			)
			defer span.End()
		}

		start := time.Now()
		metrics.WorkerJobsActive.WithLabelValues(taskType).Inc()
		defer func() {
			metrics.WorkerJobsActive.WithLabelValues(taskType).Dec()
			elapsed := time.Since(start)
			metrics.WorkerJobDuration.WithLabelValues(taskType).Observe(elapsed.Seconds())
			if rec != nil {
				rec.RecordJobProcessed(ctx, taskType, "processed")
				rec.RecordJobDuration(ctx, taskType, elapsed)
			}
		}()
		handler(client, job)
	}
}

func StartWorker(client zbc.Client, opts WorkerOptions, handler worker.JobHandler, rec JobRecorder, log logger.Logger) *Worker {
	jobWorker := client.NewJobWorker().
		JobType(opts.TaskType).
		Handler(Instrument(opts.TaskType, handler, rec)).
		MaxJobsActive(opts.MaxJobsActive).
		Timeout(opts.Timeout).
		Open()

	log.Info("worker started", map[string]interface{}{
		"taskType":      opts.TaskType,
		"maxJobsActive": opts.MaxJobsActive,
		"timeout_ms":    opts.Timeout.Milliseconds(),
	})

	return &Worker{
		worker:   jobWorker,
		logger:   log,
		taskType: opts.TaskType,
	}
}

func (w *Worker) Stop() {
	w.logger.Info("stopping worker", map[string]interface{}{"taskType": w.taskType})
	w.worker.Close()
	w.worker.AwaitClose()
}

package observability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/attribute"

	"showroom-workers/internal/common/logger"
)

func TestObservability_WithoutTracingEndpoint(t *testing.T) {
	obs := New(Config{ServiceName: "showroom-test"}, logger.NewTestLogger(t))
	defer obs.Shutdown()

	ctx, span := obs.StartSpan(context.Background(), "unit", attribute.String("chatId", "abc"))
	assert.NotNil(t, ctx)
	assert.NotNil(t, span)
	span.End()

	assert.NotPanics(t, func() {
		obs.RecordJobProcessed(ctx, "await-comparison", "completed")
		obs.RecordJobDuration(ctx, "await-comparison", 150*time.Millisecond)
	})
}

func TestObservability_ZeroValueIsSafe(t *testing.T) {
	var obs Observability
	assert.NotPanics(t, func() {
		_, span := obs.StartSpan(context.Background(), "noop")
		span.End()
		obs.RecordJobProcessed(context.Background(), "t", "failed")
		obs.RecordJobDuration(context.Background(), "t", time.Second)
		obs.Shutdown()
	})
}

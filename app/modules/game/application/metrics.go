package gameservice

import (
	"context"
	"time"
)

const serviceName = "GameService"

// Metrics records operation-level telemetry for the engine. Implemented by
// observability.OperationMetrics; NoOpMetrics for tests.
type Metrics interface {
	RecordOperationAttempt(ctx context.Context, operation, service string)
	RecordOperationSuccess(ctx context.Context, operation, service string)
	RecordOperationFailure(ctx context.Context, operation, service string)
	RecordOperationDuration(ctx context.Context, operation, service string, duration time.Duration)
}

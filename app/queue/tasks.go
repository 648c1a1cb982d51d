// Package queue carries trip generation jobs from the API to the worker over asynq.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-trip-planner/internal/types"
)

const TaskGenerateTrip = "trip:generate"

// DefaultQueue is used when no queue name is configured.
const DefaultQueue = "trip_plans"

// Enqueuer hands a generation job to the worker.
type Enqueuer interface {
	EnqueueTrip(ctx context.Context, payload types.GenerateTripPayload) error
}

// NewGenerateTripTask encodes payload as a trip:generate task.
func NewGenerateTripTask(payload types.GenerateTripPayload) (*asynq.Task, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode trip payload: %w", err)
	}
	return asynq.NewTask(TaskGenerateTrip, b), nil
}

// ParseGenerateTripPayload decodes and checks a trip:generate task body.
func ParseGenerateTripPayload(t *asynq.Task) (types.GenerateTripPayload, uuid.UUID, error) {
	var p types.GenerateTripPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return p, uuid.Nil, fmt.Errorf("bad trip payload: %w", err)
	}
	id, err := uuid.Parse(p.RequestID)
	if err != nil {
		return p, uuid.Nil, fmt.Errorf("bad request_id %q: %w", p.RequestID, err)
	}
	if p.Location == "" || p.Duration <= 0 || p.Budget <= 0 {
		return p, id, errors.New("trip payload is missing location, duration or budget")
	}
	return p, id, nil
}

var _ Enqueuer = (*AsynqEnqueuer)(nil)

type AsynqEnqueuer struct {
	client   *asynq.Client
	queue    string
	maxRetry int
	timeout  time.Duration
	logger   *slog.Logger
}

func NewAsynqEnqueuer(client *asynq.Client, queue string, maxRetry int, timeout time.Duration, logger *slog.Logger) *AsynqEnqueuer {
	if queue == "" {
		queue = DefaultQueue
	}
	return &AsynqEnqueuer{client: client, queue: queue, maxRetry: maxRetry, timeout: timeout, logger: logger}
}

// EnqueueTrip enqueues the job under the request ID as task ID, so a request is
// never queued twice while its task is still retained.
func (e *AsynqEnqueuer) EnqueueTrip(ctx context.Context, payload types.GenerateTripPayload) error {
	ctx, span := otel.Tracer("Queue").Start(ctx, "EnqueueTrip", trace.WithAttributes(
		attribute.String("messaging.system", "asynq"),
		attribute.String("messaging.destination", e.queue),
		attribute.String("request.id", payload.RequestID),
	))
	defer span.End()

	l := e.logger.With(slog.String("method", "EnqueueTrip"), slog.String("request_id", payload.RequestID))

	task, err := NewGenerateTripTask(payload)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "encode failed")
		return fmt.Errorf("%w: %v", types.ErrQueue, err)
	}

	opts := []asynq.Option{
		asynq.Queue(e.queue),
		asynq.TaskID(payload.RequestID),
		asynq.MaxRetry(e.maxRetry),
	}
	if e.timeout > 0 {
		opts = append(opts, asynq.Timeout(e.timeout))
	}

	info, err := e.client.EnqueueContext(ctx, task, opts...)
	if err != nil {
		l.ErrorContext(ctx, "Failed to enqueue trip job", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "enqueue failed")
		return fmt.Errorf("%w: %v", types.ErrQueue, err)
	}

	l.InfoContext(ctx, "Trip job enqueued", slog.String("task_id", info.ID), slog.String("queue", info.Queue))
	span.SetStatus(codes.Ok, "enqueued")
	return nil
}

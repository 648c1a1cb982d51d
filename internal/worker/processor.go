// Package worker consumes trip generation jobs and turns them into stored plans.
package worker

import (
	"context"
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

	"github.com/FACorreiaa/go-trip-planner/app/cache"
	"github.com/FACorreiaa/go-trip-planner/app/observability/metrics"
	"github.com/FACorreiaa/go-trip-planner/app/queue"
	generativeAI "github.com/FACorreiaa/go-trip-planner/internal/api/generative_ai"
	"github.com/FACorreiaa/go-trip-planner/internal/api/itinerary"
	"github.com/FACorreiaa/go-trip-planner/internal/types"
)

// PlanStore is the part of the planner repository the worker reads and writes.
type PlanStore interface {
	GetRequest(ctx context.Context, requestID uuid.UUID) (*types.TripRequest, error)
	SavePlan(ctx context.Context, plan types.TripPlan) (bool, error)
	GetPlanByRequestID(ctx context.Context, requestID uuid.UUID) (*types.TripPlan, error)
}

// Exporter publishes the generated markdown as a document.
type Exporter interface {
	Export(ctx context.Context, requestID, markdown string) (string, error)
}

type Processor struct {
	logger    *slog.Logger
	store     PlanStore
	generator generativeAI.Generator
	cache     cache.ResultCache
	exporter  Exporter
	metrics   *metrics.AppMetrics
}

// NewProcessor wires the job handler. exporter may be nil to skip PDF export.
func NewProcessor(store PlanStore, generator generativeAI.Generator, resultCache cache.ResultCache, exporter Exporter, m *metrics.AppMetrics, logger *slog.Logger) *Processor {
	return &Processor{
		logger:    logger,
		store:     store,
		generator: generator,
		cache:     resultCache,
		exporter:  exporter,
		metrics:   m,
	}
}

// Register mounts the processor on mux.
func (p *Processor) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(queue.TaskGenerateTrip, p.ProcessTask)
}

// ProcessTask is the asynq handler. Returning nil acknowledges the task; any
// other error leaves it for redelivery, except asynq.SkipRetry which archives it.
func (p *Processor) ProcessTask(ctx context.Context, t *asynq.Task) error {
	payload, requestID, err := queue.ParseGenerateTripPayload(t)
	if err != nil {
		p.logger.ErrorContext(ctx, "Dropping undecodable trip job", slog.Any("error", err))
		p.metrics.JobProcessed(ctx, metrics.OutcomeDropped)
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	return p.Process(ctx, payload, requestID)
}

func (p *Processor) Process(ctx context.Context, payload types.GenerateTripPayload, requestID uuid.UUID) error {
	ctx, span := otel.Tracer("TripWorker").Start(ctx, "Process", trace.WithAttributes(
		attribute.String("request.id", requestID.String()),
		attribute.String("trip.location", payload.Location),
	))
	defer span.End()

	l := p.logger.With(slog.String("method", "Process"), slog.String("request_id", requestID.String()))
	key := requestID.String()

	existing, err := p.store.GetPlanByRequestID(ctx, requestID)
	switch {
	case err == nil:
		l.InfoContext(ctx, "Plan already stored, refreshing cache")
		p.writeCache(ctx, l, key, itinerary.ProjectPlan(existing))
		span.SetStatus(codes.Ok, "already processed")
		p.metrics.JobProcessed(ctx, metrics.OutcomeSkipped)
		return nil
	case !errors.Is(err, types.ErrNotFound):
		return p.retry(ctx, span, l, "lookup existing plan", err)
	}

	// The job is enqueued before the request commits; wait for the row rather
	// than paying for a generation whose plan cannot be stored.
	req, err := p.store.GetRequest(ctx, requestID)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			err = fmt.Errorf("request not committed: %w", err)
		}
		return p.retry(ctx, span, l, "load request", err)
	}

	l.InfoContext(ctx, "Generating trip plan", slog.String("location", req.Location))
	prompt := itinerary.BuildPrompt(itinerary.TripParams{
		Location: req.Location,
		Duration: req.Duration,
		Budget:   req.Budget,
		FromDate: deref(req.FromDate),
		ToDate:   deref(req.ToDate),
	})
	start := time.Now()
	markdown, err := p.generator.Generate(ctx, prompt)
	p.metrics.GenerationDuration(ctx, time.Since(start))
	if err != nil {
		return p.retry(ctx, span, l, "generate", err)
	}

	parsed, err := itinerary.ParseResponse(markdown)
	if err != nil {
		return p.retry(ctx, span, l, "parse", err)
	}
	if missing := parsed.Missing(); len(missing) > 0 {
		l.WarnContext(ctx, "Generated plan is missing sections", slog.Any("sections", missing))
	}

	plan := types.TripPlan{
		ID:              uuid.New(),
		RequestID:       requestID,
		Itinerary:       parsed.Itinerary.Value(),
		BestMonth:       parsed.BestMonth.Value(),
		BudgetBreakdown: parsed.BudgetBreakdown.Value(),
		Weather:         parsed.Weather.Value(),
		Restaurants:     parsed.Restaurants.Value(),
		Hotels:          parsed.Hotels.Value(),
		MissingSections: parsed.Missing(),
	}
	inserted, err := p.store.SavePlan(ctx, plan)
	if err != nil {
		return p.retry(ctx, span, l, "persist", err)
	}

	if !inserted {
		// Another delivery stored its plan first; serve that one.
		stored, err := p.store.GetPlanByRequestID(ctx, requestID)
		if err != nil {
			return p.retry(ctx, span, l, "reload stored plan", err)
		}
		p.writeCache(ctx, l, key, itinerary.ProjectPlan(stored))
		span.SetStatus(codes.Ok, "already processed")
		p.metrics.JobProcessed(ctx, metrics.OutcomeSkipped)
		return nil
	}

	p.writeCache(ctx, l, key, itinerary.ProjectPlan(&plan))
	p.export(ctx, l, key, markdown)

	l.InfoContext(ctx, "Trip plan completed")
	span.SetStatus(codes.Ok, "completed")
	p.metrics.JobProcessed(ctx, metrics.OutcomeCompleted)
	return nil
}

func (p *Processor) retry(ctx context.Context, span trace.Span, l *slog.Logger, stage string, err error) error {
	l.ErrorContext(ctx, "Trip job failed, it will be redelivered", slog.String("stage", stage), slog.Any("error", err))
	span.RecordError(err)
	span.SetStatus(codes.Error, stage+" failed")
	p.metrics.JobProcessed(ctx, metrics.OutcomeRetry)
	return fmt.Errorf("%s: %w", stage, err)
}

func (p *Processor) writeCache(ctx context.Context, l *slog.Logger, key string, data *types.TripPlanData) {
	if err := p.cache.Set(ctx, key, data); err != nil {
		l.WarnContext(ctx, "Failed to cache trip plan", slog.Any("error", err))
	}
}

func (p *Processor) export(ctx context.Context, l *slog.Logger, requestID, markdown string) {
	if p.exporter == nil {
		return
	}
	if _, err := p.exporter.Export(ctx, requestID, markdown); err != nil {
		l.ErrorContext(ctx, "PDF export failed", slog.Any("error", err))
		p.metrics.PDFExport(ctx, metrics.OutcomeFailed)
		return
	}
	p.metrics.PDFExport(ctx, metrics.OutcomeCompleted)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

package planner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-trip-planner/app/cache"
	"github.com/FACorreiaa/go-trip-planner/app/observability/metrics"
	"github.com/FACorreiaa/go-trip-planner/app/queue"
	"github.com/FACorreiaa/go-trip-planner/app/storage"
	"github.com/FACorreiaa/go-trip-planner/internal/api/itinerary"
	"github.com/FACorreiaa/go-trip-planner/internal/types"
)

var _ Service = (*ServiceImpl)(nil)

// Service accepts trip submissions and answers result lookups.
type Service interface {
	Submit(ctx context.Context, req SubmitRequest) (uuid.UUID, error)
	GetResult(ctx context.Context, requestID uuid.UUID) (*types.TripResult, error)
}

// URLSigner hands out temporary download links for stored PDFs.
type URLSigner interface {
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}

type ServiceImpl struct {
	logger  *slog.Logger
	repo    Repository
	queue   queue.Enqueuer
	cache   cache.ResultCache
	signer  URLSigner
	urlTTL  time.Duration
	metrics *metrics.AppMetrics
}

// NewServiceImpl wires the service. signer may be nil when PDF export is disabled.
func NewServiceImpl(repo Repository, enqueuer queue.Enqueuer, resultCache cache.ResultCache, signer URLSigner, urlTTL time.Duration, m *metrics.AppMetrics, logger *slog.Logger) *ServiceImpl {
	if urlTTL <= 0 {
		urlTTL = storage.DefaultURLTTL
	}
	return &ServiceImpl{
		logger:  logger,
		repo:    repo,
		queue:   enqueuer,
		cache:   resultCache,
		signer:  signer,
		urlTTL:  urlTTL,
		metrics: m,
	}
}

func (s *ServiceImpl) Submit(ctx context.Context, in SubmitRequest) (uuid.UUID, error) {
	ctx, span := otel.Tracer("PlannerService").Start(ctx, "Submit")
	defer span.End()

	l := s.logger.With(slog.String("method", "Submit"))

	req, err := in.Validate()
	if err != nil {
		l.InfoContext(ctx, "Rejected trip submission", slog.Any("error", err))
		span.SetStatus(codes.Error, "validation failed")
		s.metrics.Submission(ctx, metrics.OutcomeInvalid)
		return uuid.Nil, err
	}

	req.ID = uuid.New()
	span.SetAttributes(
		attribute.String("request.id", req.ID.String()),
		attribute.String("trip.location", req.Location),
		attribute.Int("trip.duration", req.Duration),
	)
	l = l.With(slog.String("request_id", req.ID.String()))

	payload := types.PayloadFromRequest(req)
	err = s.repo.CreateRequest(ctx, req, func(ctx context.Context) error {
		return s.queue.EnqueueTrip(ctx, payload)
	})
	if err != nil {
		l.ErrorContext(ctx, "Failed to submit trip request", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "submit failed")
		s.metrics.Submission(ctx, metrics.OutcomeFailed)
		return uuid.Nil, err
	}

	l.InfoContext(ctx, "Trip request submitted", slog.String("location", req.Location))
	span.SetStatus(codes.Ok, "submitted")
	s.metrics.Submission(ctx, metrics.OutcomeAccepted)
	return req.ID, nil
}

func (s *ServiceImpl) GetResult(ctx context.Context, requestID uuid.UUID) (*types.TripResult, error) {
	ctx, span := otel.Tracer("PlannerService").Start(ctx, "GetResult", trace.WithAttributes(
		attribute.String("request.id", requestID.String()),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "GetResult"), slog.String("request_id", requestID.String()))
	key := requestID.String()

	data, hit, err := s.cache.Get(ctx, key)
	if err != nil {
		l.WarnContext(ctx, "Result cache unavailable, falling back to store", slog.Any("error", err))
	}
	if hit {
		span.SetAttributes(attribute.String("result.source", metrics.SourceCache))
		s.metrics.ResultServed(ctx, metrics.SourceCache)
		return s.completed(ctx, key, data), nil
	}

	plan, err := s.repo.GetPlanByRequestID(ctx, requestID)
	if errors.Is(err, types.ErrNotFound) {
		span.SetAttributes(attribute.String("result.source", metrics.SourceProcessing))
		s.metrics.ResultServed(ctx, metrics.SourceProcessing)
		return &types.TripResult{Status: types.StatusProcessing}, nil
	}
	if err != nil {
		l.ErrorContext(ctx, "Failed to load trip plan", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "store lookup failed")
		return nil, fmt.Errorf("failed to fetch result: %w", err)
	}

	data = itinerary.ProjectPlan(plan)
	if err := s.cache.Set(ctx, key, data); err != nil {
		l.WarnContext(ctx, "Failed to write result back to cache", slog.Any("error", err))
	}

	span.SetAttributes(attribute.String("result.source", metrics.SourceStore))
	span.SetStatus(codes.Ok, "completed")
	s.metrics.ResultServed(ctx, metrics.SourceStore)
	return s.completed(ctx, key, data), nil
}

func (s *ServiceImpl) completed(ctx context.Context, requestID string, data *types.TripPlanData) *types.TripResult {
	result := &types.TripResult{Status: types.StatusCompleted, Data: data}
	if s.signer == nil {
		return result
	}
	url, err := s.signer.PresignGet(ctx, storage.KeyForRequest(requestID), s.urlTTL)
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to presign pdf url",
			slog.String("request_id", requestID), slog.Any("error", err))
		return result
	}
	result.PDFURL = url
	return result
}

package planner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-trip-planner/internal/types"
)

var _ Repository = (*RepositoryImpl)(nil)

// DB is the subset of *pgxpool.Pool the repository uses.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Repository interface {
	// CreateRequest inserts req and runs beforeCommit inside the same
	// transaction. An error from beforeCommit rolls the insert back.
	CreateRequest(ctx context.Context, req types.TripRequest, beforeCommit func(ctx context.Context) error) error
	GetRequest(ctx context.Context, requestID uuid.UUID) (*types.TripRequest, error)
	// SavePlan stores plan unless one already exists for its request. It
	// reports whether a row was written.
	SavePlan(ctx context.Context, plan types.TripPlan) (bool, error)
	GetPlanByRequestID(ctx context.Context, requestID uuid.UUID) (*types.TripPlan, error)
}

type RepositoryImpl struct {
	logger *slog.Logger
	pgpool DB
}

func NewRepository(pgxpool DB, logger *slog.Logger) *RepositoryImpl {
	return &RepositoryImpl{
		logger: logger,
		pgpool: pgxpool,
	}
}

func (r *RepositoryImpl) CreateRequest(ctx context.Context, req types.TripRequest, beforeCommit func(ctx context.Context) error) error {
	ctx, span := otel.Tracer("PlannerRepo").Start(ctx, "CreateRequest", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "INSERT"),
		attribute.String("db.sql.table", "input_requests"),
		attribute.String("request.id", req.ID.String()),
	))
	defer span.End()

	l := r.logger.With(slog.String("method", "CreateRequest"), slog.String("request_id", req.ID.String()))

	tx, err := r.pgpool.Begin(ctx)
	if err != nil {
		l.ErrorContext(ctx, "Failed to begin transaction", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB transaction failed")
		return fmt.Errorf("%w: beginning transaction: %v", types.ErrPersistence, err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO input_requests (id, location, duration, budget, from_date, to_date, created_at)
		VALUES ($1, $2, $3, $4, $5::date, $6::date, NOW())
	`
	if _, err = tx.Exec(ctx, query, req.ID, req.Location, req.Duration, req.Budget, req.FromDate, req.ToDate); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			l.WarnContext(ctx, "Request ID already exists")
			return fmt.Errorf("%w: request %s already exists", types.ErrPersistence, req.ID)
		}
		l.ErrorContext(ctx, "Failed to insert trip request", slog.Any("error", err))
		return fmt.Errorf("%w: inserting trip request: %v", types.ErrPersistence, err)
	}

	if beforeCommit != nil {
		if err = beforeCommit(ctx); err != nil {
			l.WarnContext(ctx, "Rolling back trip request", slog.Any("error", err))
			span.RecordError(err)
			span.SetStatus(codes.Error, "pre-commit hook failed")
			return err
		}
	}

	if err = tx.Commit(ctx); err != nil {
		l.ErrorContext(ctx, "Failed to commit trip request", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "commit failed")
		return fmt.Errorf("%w: committing trip request: %v", types.ErrPersistence, err)
	}

	span.SetStatus(codes.Ok, "trip request stored")
	return nil
}

func (r *RepositoryImpl) GetRequest(ctx context.Context, requestID uuid.UUID) (*types.TripRequest, error) {
	ctx, span := otel.Tracer("PlannerRepo").Start(ctx, "GetRequest", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.sql.table", "input_requests"),
		attribute.String("request.id", requestID.String()),
	))
	defer span.End()

	query := `
		SELECT id, location, duration, budget::float8,
		       to_char(from_date, 'YYYY-MM-DD'), to_char(to_date, 'YYYY-MM-DD'), created_at
		FROM input_requests
		WHERE id = $1
	`
	var req types.TripRequest
	err := r.pgpool.QueryRow(ctx, query, requestID).Scan(
		&req.ID,
		&req.Location,
		&req.Duration,
		&req.Budget,
		&req.FromDate,
		&req.ToDate,
		&req.CreatedAt,
	)
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: trip request %s", types.ErrNotFound, requestID)
		}
		span.SetStatus(codes.Error, "select failed")
		return nil, fmt.Errorf("%w: reading trip request: %v", types.ErrPersistence, err)
	}

	span.SetStatus(codes.Ok, "trip request found")
	return &req, nil
}

func (r *RepositoryImpl) SavePlan(ctx context.Context, plan types.TripPlan) (bool, error) {
	ctx, span := otel.Tracer("PlannerRepo").Start(ctx, "SavePlan", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "INSERT"),
		attribute.String("db.sql.table", "trip_plans"),
		attribute.String("request.id", plan.RequestID.String()),
	))
	defer span.End()

	if plan.ID == uuid.Nil {
		plan.ID = uuid.New()
	}
	missing := plan.MissingSections
	if missing == nil {
		missing = []string{}
	}

	query := `
		INSERT INTO trip_plans (id, request_id, itinerary, best_month_to_visit, budget_breakdown,
		                        weather, restaurants, hotels, missing_sections, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		ON CONFLICT (request_id) DO NOTHING
	`
	tag, err := r.pgpool.Exec(ctx, query,
		plan.ID,
		plan.RequestID,
		plan.Itinerary,
		plan.BestMonth,
		plan.BudgetBreakdown,
		plan.Weather,
		plan.Restaurants,
		plan.Hotels,
		missing,
	)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to save trip plan",
			slog.String("request_id", plan.RequestID.String()), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		return false, fmt.Errorf("%w: saving trip plan: %v", types.ErrPersistence, err)
	}

	inserted := tag.RowsAffected() == 1
	span.SetAttributes(attribute.Bool("db.inserted", inserted))
	span.SetStatus(codes.Ok, "trip plan saved")
	return inserted, nil
}

func (r *RepositoryImpl) GetPlanByRequestID(ctx context.Context, requestID uuid.UUID) (*types.TripPlan, error) {
	ctx, span := otel.Tracer("PlannerRepo").Start(ctx, "GetPlanByRequestID", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.sql.table", "trip_plans"),
		attribute.String("request.id", requestID.String()),
	))
	defer span.End()

	query := `
		SELECT id, request_id, itinerary, best_month_to_visit, budget_breakdown,
		       weather, restaurants, hotels, missing_sections, created_at
		FROM trip_plans
		WHERE request_id = $1
	`
	var plan types.TripPlan
	err := r.pgpool.QueryRow(ctx, query, requestID).Scan(
		&plan.ID,
		&plan.RequestID,
		&plan.Itinerary,
		&plan.BestMonth,
		&plan.BudgetBreakdown,
		&plan.Weather,
		&plan.Restaurants,
		&plan.Hotels,
		&plan.MissingSections,
		&plan.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: no trip plan for request %s", types.ErrNotFound, requestID)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, fmt.Errorf("%w: reading trip plan: %v", types.ErrPersistence, err)
	}

	span.SetStatus(codes.Ok, "trip plan found")
	return &plan, nil
}

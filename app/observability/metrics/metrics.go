package metrics

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "TripPlanner"

// Outcome and source labels used on the counters below.
const (
	OutcomeAccepted  = "accepted"
	OutcomeInvalid   = "invalid"
	OutcomeFailed    = "failed"
	OutcomeCompleted = "completed"
	OutcomeSkipped   = "skipped"
	OutcomeRetry     = "retry"
	OutcomeDropped   = "dropped"

	SourceCache      = "cache"
	SourceStore      = "store"
	SourceProcessing = "processing"
)

// AppMetrics holds the application's metric instruments.
type AppMetrics struct {
	TripSubmissionsTotal      metric.Int64Counter
	ResultsServedTotal        metric.Int64Counter
	JobsProcessedTotal        metric.Int64Counter
	GenerationDurationSeconds metric.Float64Histogram
	PDFExportsTotal           metric.Int64Counter
}

var (
	appMetrics *AppMetrics
	initErr    error
	once       sync.Once
)

// New creates the instruments on the given meter.
func New(meter metric.Meter) (*AppMetrics, error) {
	var err error
	m := &AppMetrics{}

	m.TripSubmissionsTotal, err = meter.Int64Counter(
		"trip_submissions_total",
		metric.WithDescription("Trip plan submissions by outcome"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("trip_submissions_total: %w", err)
	}

	m.ResultsServedTotal, err = meter.Int64Counter(
		"trip_results_served_total",
		metric.WithDescription("Result lookups by the source that answered them"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("trip_results_served_total: %w", err)
	}

	m.JobsProcessedTotal, err = meter.Int64Counter(
		"trip_jobs_processed_total",
		metric.WithDescription("Generation jobs handled by the worker, by outcome"),
		metric.WithUnit("{job}"),
	)
	if err != nil {
		return nil, fmt.Errorf("trip_jobs_processed_total: %w", err)
	}

	m.GenerationDurationSeconds, err = meter.Float64Histogram(
		"trip_generation_duration_seconds",
		metric.WithDescription("Latency of generative AI calls"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("trip_generation_duration_seconds: %w", err)
	}

	m.PDFExportsTotal, err = meter.Int64Counter(
		"trip_pdf_exports_total",
		metric.WithDescription("PDF exports by outcome"),
		metric.WithUnit("{document}"),
	)
	if err != nil {
		return nil, fmt.Errorf("trip_pdf_exports_total: %w", err)
	}

	return m, nil
}

// InitAppMetrics creates the global instruments once, from the global MeterProvider.
func InitAppMetrics() error {
	once.Do(func() {
		appMetrics, initErr = New(otel.GetMeterProvider().Meter(meterName))
	})
	return initErr
}

// Get returns the global instruments. Panics if InitAppMetrics was not called first.
func Get() *AppMetrics {
	if appMetrics == nil {
		panic("metrics instruments not initialized. Call metrics.InitAppMetrics() first.")
	}
	return appMetrics
}

// The recording helpers below are no-ops on a nil *AppMetrics.

func (m *AppMetrics) Submission(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.TripSubmissionsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func (m *AppMetrics) ResultServed(ctx context.Context, source string) {
	if m == nil {
		return
	}
	m.ResultsServedTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("source", source)))
}

func (m *AppMetrics) JobProcessed(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.JobsProcessedTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func (m *AppMetrics) PDFExport(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.PDFExportsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func (m *AppMetrics) GenerationDuration(ctx context.Context, d time.Duration) {
	if m == nil {
		return
	}
	m.GenerationDurationSeconds.Record(ctx, d.Seconds())
}

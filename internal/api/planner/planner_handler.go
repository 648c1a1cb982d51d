package planner

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-trip-planner/internal/api"
	"github.com/FACorreiaa/go-trip-planner/internal/types"
)

type Handler struct {
	service Service
	logger  *slog.Logger
}

func NewHandler(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// SubmitTrip godoc
// @Summary      Submit Trip Request
// @Description  Stores a trip request and queues it for plan generation. Duration and budget may be strings or numbers.
// @Tags         Planner
// @Accept       json
// @Produce      json
// @Param        request body SubmitRequest true "Trip parameters"
// @Success      200 {object} SubmitResponse "Request submitted"
// @Failure      400 {object} api.ErrorBody "Validation error"
// @Failure      429 {object} api.ErrorBody "Too many requests"
// @Failure      500 {object} api.ErrorBody "Storage or queue failure"
// @Router       /generate_content [post]
func (h *Handler) SubmitTrip(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("PlannerHandler").Start(r.Context(), "SubmitTrip", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/generate_content"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "SubmitTrip"))

	var req SubmitRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.WarnContext(ctx, "Failed to decode request body", slog.Any("error", err))
		span.SetStatus(codes.Error, "bad body")
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	requestID, err := h.service.Submit(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "submit failed")
		switch {
		case errors.Is(err, types.ErrValidation):
			api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		case errors.Is(err, types.ErrQueue):
			api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to send message to queue.")
		case errors.Is(err, types.ErrPersistence):
			api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to store the request.")
		default:
			api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to process request.")
		}
		return
	}

	span.SetStatus(codes.Ok, "submitted")
	api.WriteJSONResponse(w, r, http.StatusOK, SubmitResponse{
		Message:   "Request submitted",
		RequestID: requestID.String(),
	})
}

// GetResult godoc
// @Summary      Get Trip Result
// @Description  Returns "processing" until the plan exists, then the plan sections and a time-limited PDF link.
// @Tags         Planner
// @Produce      json
// @Param        requestID path string true "Request ID (UUID)"
// @Success      200 {object} types.TripResult "Processing or completed result"
// @Failure      400 {object} api.ErrorBody "Invalid request ID"
// @Failure      500 {object} api.ErrorBody "Internal Server Error"
// @Router       /get_result/{requestID} [get]
func (h *Handler) GetResult(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("PlannerHandler").Start(r.Context(), "GetResult", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/get_result/{requestID}"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "GetResult"))

	requestID, err := uuid.Parse(chi.URLParam(r, "requestID"))
	if err != nil {
		l.WarnContext(ctx, "Invalid request ID", slog.Any("error", err))
		span.SetStatus(codes.Error, "invalid id")
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid request ID format")
		return
	}

	result, err := h.service.GetResult(ctx, requestID)
	if err != nil {
		l.ErrorContext(ctx, "Failed to fetch result", slog.String("request_id", requestID.String()), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "lookup failed")
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to fetch result.")
		return
	}

	span.SetStatus(codes.Ok, string(result.Status))
	api.WriteJSONResponse(w, r, http.StatusOK, result)
}

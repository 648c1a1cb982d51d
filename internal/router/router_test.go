package router

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-trip-planner/internal/api/planner"
	"github.com/FACorreiaa/go-trip-planner/internal/types"
)

type stubService struct {
	mock.Mock
}

func (s *stubService) Submit(ctx context.Context, req planner.SubmitRequest) (uuid.UUID, error) {
	args := s.Called(ctx, req)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (s *stubService) GetResult(ctx context.Context, requestID uuid.UUID) (*types.TripResult, error) {
	args := s.Called(ctx, requestID)
	return args.Get(0).(*types.TripResult), args.Error(1)
}

func setupRouterTest(checks map[string]HealthCheck, limit int) (http.Handler, *stubService) {
	svc := new(stubService)
	r := SetupRouter(&Config{
		PlannerHandler:  planner.NewHandler(svc, slog.Default()),
		SubmitRateLimit: limit,
		HealthChecks:    checks,
		Logger:          slog.Default(),
	})
	return r, svc
}

func TestRouter_Routes(t *testing.T) {
	r, svc := setupRouterTest(nil, 0)
	id := uuid.New()
	svc.On("Submit", mock.Anything, mock.Anything).Return(id, nil)
	svc.On("GetResult", mock.Anything, id).Return(&types.TripResult{Status: types.StatusProcessing}, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, "pong", w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Contains(t, w.Body.String(), "Trip Planner")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/generate_content",
		strings.NewReader(`{"location":"Paris","duration":3,"budget":1000}`)))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), id.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/get_result/"+id.String(), nil))
	assert.JSONEq(t, `{"status":"processing"}`, w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/generate_content", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestRouter_SubmitIsRateLimited(t *testing.T) {
	r, svc := setupRouterTest(nil, 1)
	svc.On("Submit", mock.Anything, mock.Anything).Return(uuid.New(), nil)

	codes := make([]int, 0, 2)
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/generate_content",
			strings.NewReader(`{"location":"Paris","duration":3,"budget":1000}`))
		req.RemoteAddr = "192.0.2.10:5555"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestRouter_Healthz(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		r, _ := setupRouterTest(map[string]HealthCheck{
			"postgres": func(context.Context) error { return nil },
			"redis":    func(context.Context) error { return nil },
		}, 0)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("degraded", func(t *testing.T) {
		r, _ := setupRouterTest(map[string]HealthCheck{
			"postgres": func(context.Context) error { return nil },
			"redis":    func(context.Context) error { return errors.New("connection refused") },
		}, 0)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)

		var body struct {
			Checks map[string]string `json:"checks"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "ok", body.Checks["postgres"])
		assert.Equal(t, "connection refused", body.Checks["redis"])
	})
}

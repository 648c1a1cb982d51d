package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-trip-planner/internal/types"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Submit(ctx context.Context, req SubmitRequest) (uuid.UUID, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockService) GetResult(ctx context.Context, requestID uuid.UUID) (*types.TripResult, error) {
	args := m.Called(ctx, requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.TripResult), args.Error(1)
}

func newTestRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Post("/generate_content", h.SubmitTrip)
	r.Get("/get_result/{requestID}", h.GetResult)
	return r
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestHandler_SubmitTrip(t *testing.T) {
	t.Run("accepts numbers and strings", func(t *testing.T) {
		svc := new(MockService)
		router := newTestRouter(NewHandler(svc, slog.Default()))
		id := uuid.New()
		svc.On("Submit", mock.Anything, SubmitRequest{Location: "Paris", Duration: "3", Budget: "1000.5"}).
			Return(id, nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/generate_content",
			strings.NewReader(`{"location":"Paris","duration":3,"budget":"1000.5"}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, "Request submitted", body["message"])
		assert.Equal(t, id.String(), body["request_id"])
		svc.AssertExpectations(t)
	})

	t.Run("validation error is 400", func(t *testing.T) {
		svc := new(MockService)
		router := newTestRouter(NewHandler(svc, slog.Default()))
		svc.On("Submit", mock.Anything, mock.Anything).
			Return(uuid.Nil, fmt.Errorf("%w: location is required", types.ErrValidation)).Once()

		req := httptest.NewRequest(http.MethodPost, "/generate_content", strings.NewReader(`{"duration":3,"budget":100}`))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, decodeBody(t, w)["error"], "location is required")
	})

	t.Run("malformed json is 400 without calling the service", func(t *testing.T) {
		svc := new(MockService)
		router := newTestRouter(NewHandler(svc, slog.Default()))

		req := httptest.NewRequest(http.MethodPost, "/generate_content", strings.NewReader(`{"location":`))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)
	})

	t.Run("queue failure is 500 with its own message", func(t *testing.T) {
		svc := new(MockService)
		router := newTestRouter(NewHandler(svc, slog.Default()))
		svc.On("Submit", mock.Anything, mock.Anything).
			Return(uuid.Nil, fmt.Errorf("%w: redis down", types.ErrQueue)).Once()

		req := httptest.NewRequest(http.MethodPost, "/generate_content",
			strings.NewReader(`{"location":"Paris","duration":"3","budget":"1000"}`))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "Failed to send message to queue.", decodeBody(t, w)["error"])
	})
}

func TestHandler_GetResult(t *testing.T) {
	t.Run("processing", func(t *testing.T) {
		svc := new(MockService)
		router := newTestRouter(NewHandler(svc, slog.Default()))
		id := uuid.New()
		svc.On("GetResult", mock.Anything, id).Return(&types.TripResult{Status: types.StatusProcessing}, nil).Once()

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/get_result/"+id.String(), nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"status":"processing"}`, w.Body.String())
	})

	t.Run("completed", func(t *testing.T) {
		svc := new(MockService)
		router := newTestRouter(NewHandler(svc, slog.Default()))
		id := uuid.New()
		svc.On("GetResult", mock.Anything, id).Return(&types.TripResult{
			Status: types.StatusCompleted,
			Data:   &types.TripPlanData{Itinerary: "Day 1", RestaurantNames: []string{"Le Jules Verne"}},
			PDFURL: "https://example.com/x.pdf",
		}, nil).Once()

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/get_result/"+id.String(), nil))

		assert.Equal(t, http.StatusOK, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, "completed", body["status"])
		assert.Equal(t, "https://example.com/x.pdf", body["pdf_url"])
		data := body["data"].(map[string]any)
		assert.Equal(t, "Day 1", data["itinerary"])
		assert.Equal(t, []any{"Le Jules Verne"}, data["restaurant_names"])
	})

	t.Run("invalid id", func(t *testing.T) {
		svc := new(MockService)
		router := newTestRouter(NewHandler(svc, slog.Default()))

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/get_result/not-a-uuid", nil))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "GetResult", mock.Anything, mock.Anything)
	})

	t.Run("store failure", func(t *testing.T) {
		svc := new(MockService)
		router := newTestRouter(NewHandler(svc, slog.Default()))
		svc.On("GetResult", mock.Anything, mock.Anything).Return(nil, fmt.Errorf("%w: timeout", types.ErrPersistence)).Once()

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/get_result/"+uuid.NewString(), nil))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestFlexString(t *testing.T) {
	var req SubmitRequest
	require.NoError(t, json.Unmarshal([]byte(`{"location":"Rome","duration":"4","budget":1200.75}`), &req))
	assert.Equal(t, FlexString("4"), req.Duration)
	assert.Equal(t, FlexString("1200.75"), req.Budget)

	require.NoError(t, json.Unmarshal([]byte(`{"duration":null}`), &req))
	assert.Equal(t, FlexString(""), req.Duration)

	assert.Error(t, json.Unmarshal([]byte(`{"duration":true}`), &req))
}

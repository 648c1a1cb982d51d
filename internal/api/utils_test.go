package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type trip struct {
	Location string `json:"location"`
}

func TestDecodeJSONBody(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{name: "valid", body: `{"location":"Paris"}`},
		{name: "empty", body: ``, wantErr: "body must not be empty"},
		{name: "malformed", body: `{"location":`, wantErr: "badly-formed JSON"},
		{name: "wrong type", body: `{"location":3}`, wantErr: `incorrect JSON type for field "location"`},
		{name: "unknown key", body: `{"city":"Paris"}`, wantErr: `unknown key "city"`},
		{name: "trailing data", body: `{"location":"Paris"}{}`, wantErr: "single JSON value"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			w := httptest.NewRecorder()

			var dst trip
			err := DecodeJSONBody(w, r, &dst)
			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.Equal(t, "Paris", dst.Location)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestErrorResponse(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()

	ErrorResponse(w, r, http.StatusBadRequest, "location is required")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "location is required", body["error"])
	assert.NotContains(t, body, "request_id")
}

func TestErrorResponse_CarriesRequestID(t *testing.T) {
	h := middleware.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(w, r, http.StatusInternalServerError, "boom")
	}))
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set(middleware.RequestIDHeader, "req-42")
	w := httptest.NewRecorder()

	h.ServeHTTP(w, r)

	var body ErrorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, ErrorBody{Error: "boom", RequestID: "req-42"}, body)
}

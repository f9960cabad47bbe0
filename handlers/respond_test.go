package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aircrushin/mindful-moment/services"
)

func TestHandleServiceError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
	}{
		{"validation", &services.ValidationError{Message: "Validation failed", Fields: map[string]string{"email": "is required"}}, http.StatusBadRequest, "Validation failed"},
		{"conflict", &services.ConflictError{Message: "Email already registered"}, http.StatusBadRequest, "Email already registered"},
		{"unauthorized", &services.UnauthorizedError{Message: "Invalid email or password"}, http.StatusUnauthorized, "Invalid email or password"},
		{"not found", &services.NotFoundError{Resource: "Meditation"}, http.StatusNotFound, "Meditation not found"},
		{"wrapped not found", fmt.Errorf("lookup: %w", &services.NotFoundError{Resource: "User"}), http.StatusNotFound, "User not found"},
		{"timeout", fmt.Errorf("failed to get streak: %w", context.DeadlineExceeded), http.StatusGatewayTimeout, "Request timed out"},
		{"unexpected", errors.New("connection refused on 10.0.0.3"), http.StatusInternalServerError, "Internal server error"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handleServiceError(rec, "Test", tc.err)

			assert.Equal(t, tc.wantStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.Equal(t, tc.wantError, decodeBody(t, rec)["error"])
		})
	}
}

func TestHandleServiceError_ValidationFields(t *testing.T) {
	rec := httptest.NewRecorder()
	handleServiceError(rec, "Test", &services.ValidationError{Fields: map[string]string{"rating": "must be at most 5"}})

	body := decodeBody(t, rec)
	assert.Equal(t, map[string]any{"rating": "must be at most 5"}, body["fields"])
}

func TestHandleServiceError_HidesInternalDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	handleServiceError(rec, "Test", errors.New("pq: password authentication failed for user admin"))

	assert.NotContains(t, rec.Body.String(), "password authentication")
}

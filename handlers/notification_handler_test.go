package handlers

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aircrushin/mindful-moment/internal/notification"
	"github.com/aircrushin/mindful-moment/services"
)

func TestRegisterDevice(t *testing.T) {
	userID := uuid.New()
	svc := &fakeNotificationService{device: &notification.DeviceToken{ID: uuid.New(), Token: "fcm-token", Platform: "ios"}}
	h := NewNotificationHandler(svc, testTimeout)

	rec := doRequest(t, http.HandlerFunc(h.RegisterDevice), http.MethodPost, "/api/v1/notifications/register-device",
		map[string]string{"token": "fcm-token", "platform": "ios"}, &userID)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Device registered successfully", body["message"])
	assert.Equal(t, "ios", body["device"].(map[string]any)["platform"])
}

func TestRegisterDevice_Invalid(t *testing.T) {
	userID := uuid.New()
	svc := &fakeNotificationService{err: &services.ValidationError{Fields: map[string]string{"platform": "must be one of: ios android web"}}}
	h := NewNotificationHandler(svc, testTimeout)

	rec := doRequest(t, http.HandlerFunc(h.RegisterDevice), http.MethodPost, "/api/v1/notifications/register-device",
		map[string]string{"token": "x", "platform": "desktop"}, &userID)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetNotifications_Empty(t *testing.T) {
	userID := uuid.New()
	h := NewNotificationHandler(&fakeNotificationService{}, testTimeout)

	rec := doRequest(t, http.HandlerFunc(h.GetNotifications), http.MethodGet, "/api/v1/notifications", nil, &userID)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"notifications": []}`, rec.Body.String())
}

package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/aircrushin/mindful-moment/internal/notification"
	"github.com/aircrushin/mindful-moment/middleware"
)

type NotificationService interface {
	RegisterDevice(ctx context.Context, userID uuid.UUID, req *notification.RegisterDeviceRequest) (*notification.DeviceToken, error)
	GetNotifications(ctx context.Context, userID uuid.UUID) ([]*notification.Notification, error)
}

type NotificationHandler struct {
	notificationService NotificationService
	timeout             time.Duration
}

func NewNotificationHandler(notificationService NotificationService, timeout time.Duration) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService, timeout: timeout}
}

// GET /api/v1/notifications
func (h *NotificationHandler) GetNotifications(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	notifications, err := h.notificationService.GetNotifications(ctx, userID)
	if err != nil {
		handleServiceError(w, "GetNotifications", err)
		return
	}
	if notifications == nil {
		notifications = []*notification.Notification{}
	}

	respondWithJSON(w, http.StatusOK, notification.NotificationListResponse{Notifications: notifications})
}

// POST /api/v1/notifications/register-device
func (h *NotificationHandler) RegisterDevice(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req notification.RegisterDeviceRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	device, err := h.notificationService.RegisterDevice(ctx, userID, &req)
	if err != nil {
		handleServiceError(w, "RegisterDevice", err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]any{
		"message": "Device registered successfully",
		"device":  device,
	})
}

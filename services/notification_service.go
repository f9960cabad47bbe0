package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"

	"github.com/aircrushin/mindful-moment/internal/notification"
	"github.com/aircrushin/mindful-moment/internal/validation"
)

const notificationListLimit = 50

type NotificationService struct {
	db         *pgxpool.Pool
	dispatcher *NotificationDispatcher
}

// NewNotificationService starts a dispatcher backed by this service. Call
// Stop during shutdown.
func NewNotificationService(db *pgxpool.Pool, provider PushNotificationProvider, workers int) *NotificationService {
	service := &NotificationService{db: db}
	service.dispatcher = NewNotificationDispatcher(service, provider, workers)
	return service
}

func (s *NotificationService) Stop() {
	s.dispatcher.Stop()
}

// RegisterDevice attaches a push token to the user, moving it over if another
// account registered it before.
func (s *NotificationService) RegisterDevice(ctx context.Context, userID uuid.UUID, req *notification.RegisterDeviceRequest) (*notification.DeviceToken, error) {
	if fields := validation.Struct(req); fields != nil {
		return nil, newValidationError(fields)
	}

	query := `
	INSERT INTO device_tokens (user_id, token, platform)
	VALUES ($1, $2, $3)
	ON CONFLICT (token) DO UPDATE SET
		user_id = EXCLUDED.user_id,
		platform = EXCLUDED.platform,
		updated_at = NOW()
	RETURNING id, user_id, token, platform, created_at`

	dt := &notification.DeviceToken{}
	err := s.db.QueryRow(ctx, query, userID, req.Token, req.Platform).
		Scan(&dt.ID, &dt.UserID, &dt.Token, &dt.Platform, &dt.CreatedAt)
	if err != nil {
		if pgErr, ok := pgError(err); ok && pgErr.Code == pgForeignKeyViolation {
			return nil, &NotFoundError{Resource: "User"}
		}
		return nil, fmt.Errorf("failed to register device: %w", err)
	}

	log.WithFields(log.Fields{"user_id": userID, "platform": dt.Platform}).Info("NotificationService: device registered")
	return dt, nil
}

// GetNotifications lists the user's most recent notifications, newest first.
func (s *NotificationService) GetNotifications(ctx context.Context, userID uuid.UUID) ([]*notification.Notification, error) {
	query := `
	SELECT id, user_id, type, title, body, data, status, created_at, sent_at, failed_at, failure_reason
	FROM notifications
	WHERE user_id = $1
	ORDER BY created_at DESC
	LIMIT $2`

	rows, err := s.db.Query(ctx, query, userID, notificationListLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch notifications: %w", err)
	}
	defer rows.Close()

	notifications := make([]*notification.Notification, 0)
	for rows.Next() {
		n := &notification.Notification{}
		err := rows.Scan(
			&n.ID, &n.UserID, &n.Type, &n.Title, &n.Body, &n.Data, &n.Status,
			&n.CreatedAt, &n.SentAt, &n.FailedAt, &n.FailureReason,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate notifications: %w", err)
	}

	return notifications, nil
}

// NotifyMilestone queues a milestone notification without blocking the caller.
func (s *NotificationService) NotifyMilestone(userID uuid.UUID, days int) {
	go s.dispatcher.DispatchNotification(notification.StreakMilestone(userID, days))
}

// SendStreakReminders queues a reminder for every user whose streak ends
// unless they meditate on day today. today is a streak day value.
func (s *NotificationService) SendStreakReminders(ctx context.Context, today time.Time) (int, error) {
	yesterday := today.AddDate(0, 0, -1)

	rows, err := s.db.Query(ctx, `
	SELECT user_id, current_streak
	FROM user_streaks
	WHERE last_meditation_date = $1 AND current_streak > 0`, yesterday)
	if err != nil {
		return 0, fmt.Errorf("failed to find streaks at risk: %w", err)
	}

	type atRisk struct {
		userID  uuid.UUID
		current int
	}
	candidates, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (atRisk, error) {
		var c atRisk
		err := row.Scan(&c.userID, &c.current)
		return c, err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to scan streaks at risk: %w", err)
	}

	queued := 0
	for _, c := range candidates {
		if s.dispatcher.DispatchNotification(notification.StreakRisk(c.userID, c.current)) {
			queued++
		}
	}
	return queued, nil
}

func (s *NotificationService) CreateNotification(ctx context.Context, notif *notification.Notification) error {
	data := notif.Data
	if data == nil {
		data = map[string]any{}
	}

	err := s.db.QueryRow(ctx, `
	INSERT INTO notifications (user_id, type, title, body, data, status)
	VALUES ($1, $2, $3, $4, $5, $6)
	RETURNING id, created_at`,
		notif.UserID, notif.Type, notif.Title, notif.Body, data, notification.StatusPending,
	).Scan(&notif.ID, &notif.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	notif.Status = notification.StatusPending
	return nil
}

func (s *NotificationService) DeviceTokens(ctx context.Context, userID uuid.UUID) ([]notification.DeviceToken, error) {
	rows, err := s.db.Query(ctx, `
	SELECT id, user_id, token, platform, created_at
	FROM device_tokens
	WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get device tokens: %w", err)
	}

	tokens, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (notification.DeviceToken, error) {
		var dt notification.DeviceToken
		err := row.Scan(&dt.ID, &dt.UserID, &dt.Token, &dt.Platform, &dt.CreatedAt)
		return dt, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan device tokens: %w", err)
	}
	return tokens, nil
}

func (s *NotificationService) MarkSent(ctx context.Context, notif *notification.Notification) error {
	var sentAt time.Time
	err := s.db.QueryRow(ctx, `
	UPDATE notifications
	SET status = 'sent', sent_at = NOW()
	WHERE id = $1
	RETURNING sent_at`, notif.ID).Scan(&sentAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &NotFoundError{Resource: "Notification"}
		}
		return fmt.Errorf("failed to mark notification sent: %w", err)
	}
	notif.Status = notification.StatusSent
	notif.SentAt = &sentAt
	return nil
}

func (s *NotificationService) MarkFailed(ctx context.Context, notif *notification.Notification, reason error) error {
	failureReason := reason.Error()

	var failedAt time.Time
	err := s.db.QueryRow(ctx, `
	UPDATE notifications
	SET status = 'failed', failed_at = NOW(), failure_reason = $2
	WHERE id = $1
	RETURNING failed_at`, notif.ID, failureReason).Scan(&failedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &NotFoundError{Resource: "Notification"}
		}
		return fmt.Errorf("failed to mark notification failed: %w", err)
	}
	notif.Status = notification.StatusFailed
	notif.FailedAt = &failedAt
	notif.FailureReason = &failureReason
	return nil
}

package notification

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	NotificationStreakMilestone NotificationType = "streak_milestone"
	NotificationStreakRisk      NotificationType = "streak_risk"
)

type NotificationStatus string

const (
	StatusPending NotificationStatus = "pending"
	StatusSent    NotificationStatus = "sent"
	StatusFailed  NotificationStatus = "failed"
)

type Notification struct {
	ID            uuid.UUID          `json:"id" db:"id"`
	UserID        uuid.UUID          `json:"-" db:"user_id"`
	Type          NotificationType   `json:"type" db:"type"`
	Title         string             `json:"title" db:"title"`
	Body          string             `json:"body" db:"body"`
	Data          map[string]any     `json:"data" db:"data"`
	Status        NotificationStatus `json:"status" db:"status"`
	CreatedAt     time.Time          `json:"createdAt" db:"created_at"`
	SentAt        *time.Time         `json:"sentAt,omitempty" db:"sent_at"`
	FailedAt      *time.Time         `json:"failedAt,omitempty" db:"failed_at"`
	FailureReason *string            `json:"-" db:"failure_reason"`
}

type DeviceToken struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"-" db:"user_id"`
	Token     string    `json:"token" db:"token"`
	Platform  string    `json:"platform" db:"platform"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// StreakMilestone builds the notification sent when a user's streak reaches days.
func StreakMilestone(userID uuid.UUID, days int) *Notification {
	return &Notification{
		UserID: userID,
		Type:   NotificationStreakMilestone,
		Title:  "Streak milestone",
		Body:   pluralDays(days) + " of mindfulness in a row. Keep going!",
		Data:   map[string]any{"days": days},
		Status: StatusPending,
	}
}

// StreakRisk builds the evening reminder for a streak that ends tonight.
func StreakRisk(userID uuid.UUID, current int) *Notification {
	return &Notification{
		UserID: userID,
		Type:   NotificationStreakRisk,
		Title:  "Keep your streak alive",
		Body:   "A short session today keeps your " + pluralDays(current) + " streak going.",
		Data:   map[string]any{"currentStreak": current},
		Status: StatusPending,
	}
}

func pluralDays(n int) string {
	if n == 1 {
		return "1 day"
	}
	return strconv.Itoa(n) + " days"
}

package progress

import (
	"time"

	"github.com/google/uuid"

	"github.com/aircrushin/mindful-moment/internal/streak"
)

// Entry is one recorded meditation session. Entries are never updated.
type Entry struct {
	ID              uuid.UUID `json:"id" db:"id"`
	UserID          uuid.UUID `json:"-" db:"user_id"`
	MeditationID    uuid.UUID `json:"meditationId" db:"meditation_id"`
	DurationSeconds int       `json:"durationSeconds" db:"duration_seconds"`
	Rating          *int      `json:"rating" db:"rating"`
	Notes           *string   `json:"notes" db:"notes"`
	CompletedAt     time.Time `json:"completedAt" db:"completed_at"`
}

type RecordRequest struct {
	MeditationID    string  `json:"meditationId" validate:"required,uuid"`
	DurationSeconds int     `json:"durationSeconds" validate:"required,gt=0,lte=86400"`
	Rating          *int    `json:"rating,omitempty" validate:"omitempty,min=1,max=5"`
	Notes           *string `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

type RecordResponse struct {
	Message string         `json:"message"`
	Streak  streak.Summary `json:"streak"`
}

type HistoryResponse struct {
	Streak   *streak.Streak `json:"streak"`
	Progress []*Entry       `json:"progress"`
}

package meditation

import (
	"time"

	"github.com/google/uuid"
)

type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

type Meditation struct {
	ID              uuid.UUID  `json:"id" db:"id"`
	Title           string     `json:"title" db:"title"`
	Description     *string    `json:"description" db:"description"`
	DurationMinutes int        `json:"durationMinutes" db:"duration_minutes"`
	Category        string     `json:"category" db:"category"`
	Scenario        *string    `json:"scenario" db:"scenario"`
	AudioURL        string     `json:"audioUrl" db:"audio_url"`
	ImageURL        *string    `json:"imageUrl" db:"image_url"`
	Instructor      *string    `json:"instructor" db:"instructor"`
	Difficulty      Difficulty `json:"difficulty" db:"difficulty"`
	IsFeatured      bool       `json:"isFeatured" db:"is_featured"`
	PlayCount       int        `json:"playCount" db:"play_count"`
	CreatedAt       time.Time  `json:"createdAt" db:"created_at"`
}

// Filter narrows a catalog listing. Zero values mean "no filter".
type Filter struct {
	Category        string
	DurationMinutes *int
	FeaturedOnly    bool
}

type ListResponse struct {
	Meditations []*Meditation `json:"meditations"`
}

type DetailResponse struct {
	Meditation *Meditation `json:"meditation"`
}

type CategoriesResponse struct {
	Categories []string `json:"categories"`
}

type PlayResponse struct {
	Message   string `json:"message"`
	PlayCount int    `json:"playCount"`
}

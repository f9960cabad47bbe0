package streak

import (
	"time"

	"github.com/google/uuid"
)

// DateLayout is the calendar-day format used when a day is rendered as text.
const DateLayout = "2006-01-02"

type Streak struct {
	UserID             uuid.UUID  `json:"-" db:"user_id"`
	CurrentStreak      int        `json:"currentStreak" db:"current_streak"`
	LongestStreak      int        `json:"longestStreak" db:"longest_streak"`
	LastMeditationDate *time.Time `json:"lastMeditationDate" db:"last_meditation_date"`
	TotalMinutes       int        `json:"totalMinutes" db:"total_minutes"`
	TotalSessions      int        `json:"totalSessions" db:"total_sessions"`
	UpdatedAt          time.Time  `json:"updatedAt" db:"updated_at"`
}

// Summary is the slice of a streak returned after recording a session.
type Summary struct {
	CurrentStreak int `json:"currentStreak"`
	LongestStreak int `json:"longestStreak"`
}

func (s Streak) Summary() Summary {
	return Summary{CurrentStreak: s.CurrentStreak, LongestStreak: s.LongestStreak}
}

// Milestones are the current-streak lengths that trigger a notification.
var Milestones = []int{3, 7, 14, 30, 60, 100, 180, 365}

// Day returns the calendar day of t in loc, expressed as midnight UTC.
// Two instants fall on the same streak day iff their Day values are Equal.
func Day(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDay parses a YYYY-MM-DD string into a Day value.
func ParseDay(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}

// Advance applies one completed session on day today to existing, which may
// be nil for a user without a streak row. today must be a Day value.
//
// A session on the day after the last one extends the streak, a session on
// the same day leaves it alone, and anything else restarts it at 1.
func Advance(existing *Streak, today time.Time, durationSeconds int) Streak {
	next := Streak{
		CurrentStreak:      1,
		LongestStreak:      1,
		LastMeditationDate: &today,
		TotalMinutes:       minutes(durationSeconds),
		TotalSessions:      1,
	}
	if existing == nil {
		return next
	}

	next.UserID = existing.UserID
	next.TotalMinutes += existing.TotalMinutes
	next.TotalSessions += existing.TotalSessions

	if last := existing.LastMeditationDate; last != nil {
		lastDay := Day(*last, time.UTC)
		switch {
		case lastDay.Equal(today.AddDate(0, 0, -1)):
			next.CurrentStreak = existing.CurrentStreak + 1
		case lastDay.Equal(today):
			next.CurrentStreak = existing.CurrentStreak
			// A zero-valued row that somehow carries today's date still counts today.
			if next.CurrentStreak < 1 {
				next.CurrentStreak = 1
			}
		}
	}

	next.LongestStreak = max(next.CurrentStreak, existing.LongestStreak)
	return next
}

// ReachedMilestone reports the milestone crossed when the current streak
// moved from prev to next, if any.
func ReachedMilestone(prev, next int) (int, bool) {
	if next <= prev {
		return 0, false
	}
	for _, m := range Milestones {
		if next == m {
			return m, true
		}
	}
	return 0, false
}

func minutes(durationSeconds int) int {
	if durationSeconds <= 0 {
		return 0
	}
	return durationSeconds / 60
}

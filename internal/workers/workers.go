package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"github.com/aircrushin/mindful-moment/internal/streak"
)

type StreakReminder interface {
	SendStreakReminders(ctx context.Context, today time.Time) (int, error)
}

// StartStreakReminderWorker schedules the streak-at-risk reminder on spec,
// evaluated in loc. Stop the returned cron during shutdown.
func StartStreakReminderWorker(spec string, loc *time.Location, reminder StreakReminder) (*cron.Cron, error) {
	if loc == nil {
		loc = time.UTC
	}

	c := cron.New(cron.WithLocation(loc))
	_, err := c.AddFunc(spec, func() {
		runStreakReminders(reminder, loc, time.Now())
	})
	if err != nil {
		return nil, fmt.Errorf("invalid reminder schedule %q: %w", spec, err)
	}

	c.Start()
	log.Printf("Streak reminder scheduled: %q (%s)", spec, loc)
	return c, nil
}

func runStreakReminders(reminder StreakReminder, loc *time.Location, now time.Time) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	today := streak.Day(now, loc)
	queued, err := reminder.SendStreakReminders(ctx, today)
	if err != nil {
		log.WithError(err).Error("Streak reminder run failed")
		return
	}

	log.Printf("Queued %d streak reminders for %s", queued, today.Format(streak.DateLayout))
}

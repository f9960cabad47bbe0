package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"

	"github.com/aircrushin/mindful-moment/internal/progress"
	"github.com/aircrushin/mindful-moment/internal/stats"
	"github.com/aircrushin/mindful-moment/internal/streak"
	"github.com/aircrushin/mindful-moment/internal/validation"
)

const (
	DefaultHistoryLimit = 30
	MaxHistoryLimit     = 100
	weeklyWindow        = 7 * 24 * time.Hour
)

// MilestoneNotifier is told about streak milestones after the session that
// reached them has been committed.
type MilestoneNotifier interface {
	NotifyMilestone(userID uuid.UUID, days int)
}

type ProgressService struct {
	db       *pgxpool.Pool
	loc      *time.Location
	notifier MilestoneNotifier
	now      func() time.Time
}

func NewProgressService(db *pgxpool.Pool, loc *time.Location, notifier MilestoneNotifier) *ProgressService {
	if loc == nil {
		loc = time.UTC
	}
	return &ProgressService{
		db:       db,
		loc:      loc,
		notifier: notifier,
		now:      time.Now,
	}
}

const streakColumns = `user_id, current_streak, longest_streak, last_meditation_date,
	total_minutes, total_sessions, updated_at`

func scanStreak(row pgx.Row) (*streak.Streak, error) {
	st := &streak.Streak{}
	err := row.Scan(
		&st.UserID, &st.CurrentStreak, &st.LongestStreak, &st.LastMeditationDate,
		&st.TotalMinutes, &st.TotalSessions, &st.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return st, nil
}

// RecordSession stores a completed session and advances the user's streak in
// one transaction. The streak row is locked for the duration so concurrent
// sessions of the same user apply one after the other.
func (s *ProgressService) RecordSession(ctx context.Context, userID uuid.UUID, req *progress.RecordRequest) (*progress.RecordResponse, error) {
	if fields := validation.Struct(req); fields != nil {
		return nil, newValidationError(fields)
	}
	meditationID, err := uuid.Parse(req.MeditationID)
	if err != nil {
		return nil, newValidationError(map[string]string{"meditationId": "must be a valid UUID"})
	}
	notes := req.Notes
	if notes != nil && strings.TrimSpace(*notes) == "" {
		notes = nil
	}

	completedAt := s.now()
	today := streak.Day(completedAt, s.loc)

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
	INSERT INTO user_progress (user_id, meditation_id, duration_seconds, rating, notes, completed_at)
	VALUES ($1, $2, $3, $4, $5, $6)`,
		userID, meditationID, req.DurationSeconds, req.Rating, notes, completedAt,
	)
	if err != nil {
		if pgErr, ok := pgError(err); ok && pgErr.Code == pgForeignKeyViolation {
			if strings.Contains(pgErr.ConstraintName, "user_id") {
				return nil, &NotFoundError{Resource: "User"}
			}
			return nil, &NotFoundError{Resource: "Meditation"}
		}
		return nil, fmt.Errorf("failed to insert progress: %w", err)
	}

	// Accounts without a streak row get one so the lock below has a row to hold.
	if _, err := tx.Exec(ctx,
		`INSERT INTO user_streaks (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`, userID,
	); err != nil {
		return nil, fmt.Errorf("failed to ensure streak row: %w", err)
	}

	existing, err := scanStreak(tx.QueryRow(ctx,
		`SELECT `+streakColumns+` FROM user_streaks WHERE user_id = $1 FOR UPDATE`, userID,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to lock streak: %w", err)
	}

	next := streak.Advance(existing, today, req.DurationSeconds)

	_, err = tx.Exec(ctx, `
	INSERT INTO user_streaks (user_id, current_streak, longest_streak, last_meditation_date,
		total_minutes, total_sessions, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, NOW())
	ON CONFLICT (user_id) DO UPDATE SET
		current_streak = EXCLUDED.current_streak,
		longest_streak = EXCLUDED.longest_streak,
		last_meditation_date = EXCLUDED.last_meditation_date,
		total_minutes = EXCLUDED.total_minutes,
		total_sessions = EXCLUDED.total_sessions,
		updated_at = NOW()`,
		userID, next.CurrentStreak, next.LongestStreak, today,
		next.TotalMinutes, next.TotalSessions,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to save streak: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit session: %w", err)
	}

	sessionsRecorded.Inc()
	minutesRecorded.Add(float64(req.DurationSeconds / 60))

	if days, ok := streak.ReachedMilestone(existing.CurrentStreak, next.CurrentStreak); ok {
		streakMilestones.WithLabelValues(strconv.Itoa(days)).Inc()
		log.WithFields(log.Fields{"user_id": userID, "days": days}).Info("ProgressService: streak milestone reached")
		if s.notifier != nil {
			s.notifier.NotifyMilestone(userID, days)
		}
	}

	return &progress.RecordResponse{
		Message: "Progress recorded",
		Streak:  next.Summary(),
	}, nil
}

// Stats aggregates lifetime totals from the streak row and the trailing
// seven days from individual sessions.
func (s *ProgressService) Stats(ctx context.Context, userID uuid.UUID) (*stats.UserStats, error) {
	result := &stats.UserStats{}

	st, err := s.GetStreak(ctx, userID)
	if err != nil {
		return nil, err
	}
	if st != nil {
		result.TotalMinutes = st.TotalMinutes
		result.TotalSessions = st.TotalSessions
		result.CurrentStreak = st.CurrentStreak
		result.LongestStreak = st.LongestStreak
	}

	var weeklySeconds, weeklySessions int64
	err = s.db.QueryRow(ctx, `
	SELECT COALESCE(SUM(duration_seconds), 0), COUNT(*)
	FROM user_progress
	WHERE user_id = $1 AND completed_at >= $2`,
		userID, s.now().Add(-weeklyWindow),
	).Scan(&weeklySeconds, &weeklySessions)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate weekly progress: %w", err)
	}

	result.WeeklyMinutes = int(weeklySeconds / 60)
	result.WeeklySessions = int(weeklySessions)
	return result, nil
}

// GetStreak returns nil without error when the user has no streak row.
func (s *ProgressService) GetStreak(ctx context.Context, userID uuid.UUID) (*streak.Streak, error) {
	st, err := scanStreak(s.db.QueryRow(ctx,
		`SELECT `+streakColumns+` FROM user_streaks WHERE user_id = $1`, userID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get streak: %w", err)
	}
	return st, nil
}

// History returns the user's streak and most recent sessions, newest first.
func (s *ProgressService) History(ctx context.Context, userID uuid.UUID, limit int) (*progress.HistoryResponse, error) {
	limit = ClampHistoryLimit(limit)

	st, err := s.GetStreak(ctx, userID)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(ctx, `
	SELECT id, user_id, meditation_id, duration_seconds, rating, notes, completed_at
	FROM user_progress
	WHERE user_id = $1
	ORDER BY completed_at DESC
	LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get progress: %w", err)
	}
	defer rows.Close()

	entries := make([]*progress.Entry, 0, limit)
	for rows.Next() {
		e := &progress.Entry{}
		if err := rows.Scan(&e.ID, &e.UserID, &e.MeditationID, &e.DurationSeconds, &e.Rating, &e.Notes, &e.CompletedAt); err != nil {
			return nil, fmt.Errorf("failed to scan progress: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate progress: %w", err)
	}

	return &progress.HistoryResponse{Streak: st, Progress: entries}, nil
}

// ClampHistoryLimit applies the default for non-positive limits and caps the rest.
func ClampHistoryLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultHistoryLimit
	case limit > MaxHistoryLimit:
		return MaxHistoryLimit
	default:
		return limit
	}
}

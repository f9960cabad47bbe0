package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aircrushin/mindful-moment/internal/meditation"
)

type MeditationService struct {
	db *pgxpool.Pool
}

func NewMeditationService(db *pgxpool.Pool) *MeditationService {
	return &MeditationService{db: db}
}

const meditationColumns = `id, title, description, duration_minutes, category, scenario,
	audio_url, image_url, instructor, difficulty, is_featured, play_count, created_at`

func scanMeditation(row pgx.Row) (*meditation.Meditation, error) {
	m := &meditation.Meditation{}
	err := row.Scan(
		&m.ID, &m.Title, &m.Description, &m.DurationMinutes, &m.Category, &m.Scenario,
		&m.AudioURL, &m.ImageURL, &m.Instructor, &m.Difficulty, &m.IsFeatured, &m.PlayCount, &m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// buildListQuery turns a filter into a parameterized catalog query, newest first.
func buildListQuery(filter meditation.Filter) (string, []any) {
	var (
		conditions []string
		args       []any
	)

	if filter.Category != "" {
		args = append(args, filter.Category)
		conditions = append(conditions, "category = $"+strconv.Itoa(len(args)))
	}
	if filter.DurationMinutes != nil {
		args = append(args, *filter.DurationMinutes)
		conditions = append(conditions, "duration_minutes = $"+strconv.Itoa(len(args)))
	}
	if filter.FeaturedOnly {
		conditions = append(conditions, "is_featured = TRUE")
	}

	query := `SELECT ` + meditationColumns + ` FROM meditations`
	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, " AND ")
	}
	query += ` ORDER BY created_at DESC`
	return query, args
}

func (s *MeditationService) List(ctx context.Context, filter meditation.Filter) ([]*meditation.Meditation, error) {
	query, args := buildListQuery(filter)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list meditations: %w", err)
	}
	defer rows.Close()

	meditations := make([]*meditation.Meditation, 0)
	for rows.Next() {
		m, err := scanMeditation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan meditation: %w", err)
		}
		meditations = append(meditations, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate meditations: %w", err)
	}

	return meditations, nil
}

func (s *MeditationService) Get(ctx context.Context, id uuid.UUID) (*meditation.Meditation, error) {
	query := `SELECT ` + meditationColumns + ` FROM meditations WHERE id = $1`
	m, err := scanMeditation(s.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Resource: "Meditation"}
		}
		return nil, fmt.Errorf("failed to get meditation: %w", err)
	}
	return m, nil
}

func (s *MeditationService) Categories(ctx context.Context) ([]string, error) {
	rows, err := s.db.Query(ctx, `SELECT DISTINCT category FROM meditations ORDER BY category`)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}

	categories, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to scan categories: %w", err)
	}
	return categories, nil
}

// RecordPlay increments the play counter in one statement and returns the
// new value.
func (s *MeditationService) RecordPlay(ctx context.Context, id uuid.UUID) (int, error) {
	var playCount int
	err := s.db.QueryRow(ctx,
		`UPDATE meditations SET play_count = play_count + 1 WHERE id = $1 RETURNING play_count`,
		id,
	).Scan(&playCount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, &NotFoundError{Resource: "Meditation"}
		}
		return 0, fmt.Errorf("failed to record play: %w", err)
	}

	meditationPlays.Inc()
	return playCount, nil
}

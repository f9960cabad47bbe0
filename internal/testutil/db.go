package testutil

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aircrushin/mindful-moment/internal/database"
)

var (
	migrateOnce sync.Once
	migrateErr  error
)

// SetupTestDB connects to TEST_DATABASE_URL and applies migrations. Tests are
// skipped when it is unset. Rows created through CreateTestUser and
// CreateTestMeditation are removed when the test ends.
func SetupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set; skipping database test")
	}

	migrateOnce.Do(func() {
		migrateErr = database.RunMigrations(dbURL)
	})
	if migrateErr != nil {
		t.Fatalf("Failed to migrate test database: %v", migrateErr)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, dbURL, database.PoolOptions{MaxConns: 10, MinConns: 1})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	t.Cleanup(func() {
		CleanupTestDB(t, pool)
		pool.Close()
	})
	return pool
}

// CleanupTestDB deletes test users (cascading to their rows) and test meditations.
func CleanupTestDB(t *testing.T, pool *pgxpool.Pool) {
	ctx := context.Background()
	if _, err := pool.Exec(ctx, "DELETE FROM users WHERE email LIKE 'test%@example.com'"); err != nil {
		t.Logf("Warning: failed to cleanup test users: %v", err)
	}
	if _, err := pool.Exec(ctx, "DELETE FROM meditations WHERE title LIKE 'test:%'"); err != nil {
		t.Logf("Warning: failed to cleanup test meditations: %v", err)
	}
}

// UniqueEmail returns an address matched by CleanupTestDB.
func UniqueEmail() string {
	return fmt.Sprintf("test-%s@example.com", strings.ReplaceAll(uuid.NewString(), "-", ""))
}

// CreateTestUser inserts a user with a zeroed streak row and returns its id.
func CreateTestUser(t *testing.T, pool *pgxpool.Pool) uuid.UUID {
	t.Helper()
	ctx := context.Background()

	var id uuid.UUID
	err := pool.QueryRow(ctx,
		`INSERT INTO users (email, password_hash) VALUES ($1, 'x') RETURNING id`, UniqueEmail(),
	).Scan(&id)
	if err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	if _, err := pool.Exec(ctx, `INSERT INTO user_streaks (user_id) VALUES ($1)`, id); err != nil {
		t.Fatalf("Failed to create test streak: %v", err)
	}
	return id
}

type MeditationFixture struct {
	Title           string
	Category        string
	DurationMinutes int
	Featured        bool
	CreatedAt       time.Time
}

// CreateTestMeditation inserts a catalog entry; the title is prefixed with
// "test:" for cleanup.
func CreateTestMeditation(t *testing.T, pool *pgxpool.Pool, m MeditationFixture) uuid.UUID {
	t.Helper()

	if m.Category == "" {
		m.Category = "test-" + uuid.NewString()[:8]
	}
	if m.DurationMinutes == 0 {
		m.DurationMinutes = 10
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}

	var id uuid.UUID
	err := pool.QueryRow(context.Background(), `
	INSERT INTO meditations (title, duration_minutes, category, audio_url, is_featured, created_at)
	VALUES ($1, $2, $3, 'https://cdn.example.com/audio.mp3', $4, $5)
	RETURNING id`,
		"test:"+m.Title, m.DurationMinutes, m.Category, m.Featured, m.CreatedAt,
	).Scan(&id)
	if err != nil {
		t.Fatalf("Failed to create test meditation: %v", err)
	}
	return id
}

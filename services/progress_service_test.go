package services

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aircrushin/mindful-moment/internal/progress"
	"github.com/aircrushin/mindful-moment/internal/testutil"
)

type recordingNotifier struct {
	mu         sync.Mutex
	milestones []int
}

func (r *recordingNotifier) NotifyMilestone(userID uuid.UUID, days int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.milestones = append(r.milestones, days)
}

func intPtr(v int) *int { return &v }

func TestRecordSession_Validation(t *testing.T) {
	svc := NewProgressService(nil, time.UTC, nil)
	valid := uuid.NewString()

	tests := []struct {
		name  string
		req   progress.RecordRequest
		field string
	}{
		{"missing meditation", progress.RecordRequest{DurationSeconds: 60}, "meditationId"},
		{"malformed meditation", progress.RecordRequest{MeditationID: "7", DurationSeconds: 60}, "meditationId"},
		{"zero duration", progress.RecordRequest{MeditationID: valid}, "durationSeconds"},
		{"negative duration", progress.RecordRequest{MeditationID: valid, DurationSeconds: -5}, "durationSeconds"},
		{"duration over a day", progress.RecordRequest{MeditationID: valid, DurationSeconds: 86401}, "durationSeconds"},
		{"rating too high", progress.RecordRequest{MeditationID: valid, DurationSeconds: 60, Rating: intPtr(6)}, "rating"},
		{"rating too low", progress.RecordRequest{MeditationID: valid, DurationSeconds: 60, Rating: intPtr(0)}, "rating"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := tc.req
			_, err := svc.RecordSession(context.Background(), uuid.New(), &req)

			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Contains(t, vErr.Fields, tc.field)
		})
	}

	notes := strings.Repeat("n", 2001)
	_, err := svc.RecordSession(context.Background(), uuid.New(), &progress.RecordRequest{MeditationID: valid, DurationSeconds: 60, Notes: &notes})
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Fields, "notes")
}

func TestClampHistoryLimit(t *testing.T) {
	assert.Equal(t, DefaultHistoryLimit, ClampHistoryLimit(0))
	assert.Equal(t, DefaultHistoryLimit, ClampHistoryLimit(-3))
	assert.Equal(t, 5, ClampHistoryLimit(5))
	assert.Equal(t, MaxHistoryLimit, ClampHistoryLimit(1000))
}

// sessionAt records one session with the service clock set to at.
func sessionAt(t *testing.T, svc *ProgressService, userID, meditationID uuid.UUID, at time.Time, seconds int) *progress.RecordResponse {
	t.Helper()
	svc.now = func() time.Time { return at }
	resp, err := svc.RecordSession(context.Background(), userID, &progress.RecordRequest{
		MeditationID:    meditationID.String(),
		DurationSeconds: seconds,
	})
	require.NoError(t, err)
	return resp
}

func TestRecordSession_StreakAcrossDays(t *testing.T) {
	pool := testutil.SetupTestDB(t)
	notifier := &recordingNotifier{}
	svc := NewProgressService(pool, time.UTC, notifier)

	userID := testutil.CreateTestUser(t, pool)
	medID := testutil.CreateTestMeditation(t, pool, testutil.MeditationFixture{Title: "streak"})
	day := time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC)

	resp := sessionAt(t, svc, userID, medID, day, 600)
	assert.Equal(t, "Progress recorded", resp.Message)
	assert.Equal(t, 1, resp.Streak.CurrentStreak)
	assert.Equal(t, 1, resp.Streak.LongestStreak)

	resp = sessionAt(t, svc, userID, medID, day.Add(24*time.Hour), 600)
	assert.Equal(t, 2, resp.Streak.CurrentStreak)

	// Same day again: streak unchanged, totals still grow.
	resp = sessionAt(t, svc, userID, medID, day.Add(30*time.Hour), 90)
	assert.Equal(t, 2, resp.Streak.CurrentStreak)

	resp = sessionAt(t, svc, userID, medID, day.Add(48*time.Hour), 60)
	assert.Equal(t, 3, resp.Streak.CurrentStreak)
	assert.Equal(t, []int{3}, notifier.milestones)

	// Two missed days reset the streak but keep the record.
	resp = sessionAt(t, svc, userID, medID, day.Add(5*24*time.Hour), 60)
	assert.Equal(t, 1, resp.Streak.CurrentStreak)
	assert.Equal(t, 3, resp.Streak.LongestStreak)

	st, err := svc.GetStreak(context.Background(), userID)
	require.NoError(t, err)
	require.NotNil(t, st)
	assert.Equal(t, 5, st.TotalSessions)
	assert.Equal(t, 10+10+1+1+1, st.TotalMinutes)
	assert.Equal(t, "2024-01-15", st.LastMeditationDate.Format("2006-01-02"))
}

func TestRecordSession_UnknownMeditation(t *testing.T) {
	pool := testutil.SetupTestDB(t)
	svc := NewProgressService(pool, time.UTC, nil)
	userID := testutil.CreateTestUser(t, pool)

	_, err := svc.RecordSession(context.Background(), userID, &progress.RecordRequest{
		MeditationID:    uuid.NewString(),
		DurationSeconds: 60,
	})

	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "Meditation", notFound.Resource)

	// The failed session left nothing behind.
	st, err := svc.GetStreak(context.Background(), userID)
	require.NoError(t, err)
	assert.Zero(t, st.TotalSessions)
}

func TestRecordSession_ConcurrentSessionsKeepTotals(t *testing.T) {
	pool := testutil.SetupTestDB(t)
	svc := NewProgressService(pool, time.UTC, nil)
	userID := testutil.CreateTestUser(t, pool)
	medID := testutil.CreateTestMeditation(t, pool, testutil.MeditationFixture{Title: "concurrent"})

	const sessions = 8
	var wg sync.WaitGroup
	errs := make(chan error, sessions)
	for i := 0; i < sessions; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.RecordSession(context.Background(), userID, &progress.RecordRequest{
				MeditationID:    medID.String(),
				DurationSeconds: 120,
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	st, err := svc.GetStreak(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, sessions, st.TotalSessions)
	assert.Equal(t, sessions*2, st.TotalMinutes)
	assert.Equal(t, 1, st.CurrentStreak)
}

func TestStatsAndHistory(t *testing.T) {
	pool := testutil.SetupTestDB(t)
	svc := NewProgressService(pool, time.UTC, nil)
	userID := testutil.CreateTestUser(t, pool)
	medID := testutil.CreateTestMeditation(t, pool, testutil.MeditationFixture{Title: "stats"})

	now := time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC)
	sessionAt(t, svc, userID, medID, now.Add(-10*24*time.Hour), 600) // outside the week
	sessionAt(t, svc, userID, medID, now.Add(-2*24*time.Hour), 300)
	sessionAt(t, svc, userID, medID, now.Add(-1*time.Hour), 150)

	svc.now = func() time.Time { return now }
	got, err := svc.Stats(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.TotalSessions)
	assert.Equal(t, 10+5+2, got.TotalMinutes)
	assert.Equal(t, 2, got.WeeklySessions)
	assert.Equal(t, 7, got.WeeklyMinutes, "weekly minutes floor the summed seconds")

	history, err := svc.History(context.Background(), userID, 2)
	require.NoError(t, err)
	require.Len(t, history.Progress, 2)
	assert.Equal(t, 150, history.Progress[0].DurationSeconds, "newest first")
	require.NotNil(t, history.Streak)
	assert.Equal(t, 3, history.Streak.TotalSessions)
}

func TestStats_NoStreakRow(t *testing.T) {
	pool := testutil.SetupTestDB(t)
	svc := NewProgressService(pool, time.UTC, nil)

	got, err := svc.Stats(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Zero(t, *got)
}

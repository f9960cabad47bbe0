package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aircrushin/mindful-moment/internal/notification"
	"github.com/aircrushin/mindful-moment/internal/testutil"
)

func TestRegisterDevice_Validation(t *testing.T) {
	svc := &NotificationService{}

	_, err := svc.RegisterDevice(context.Background(), uuid.New(), &notification.RegisterDeviceRequest{Token: "abc", Platform: "desktop"})

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Fields, "platform")
}

func TestNotificationService_DeviceMovesBetweenUsers(t *testing.T) {
	pool := testutil.SetupTestDB(t)
	svc := NewNotificationService(pool, &fakePush{}, 1)
	defer svc.Stop()
	ctx := context.Background()

	first := testutil.CreateTestUser(t, pool)
	second := testutil.CreateTestUser(t, pool)
	token := "device-" + testutil.UniqueEmail()

	_, err := svc.RegisterDevice(ctx, first, &notification.RegisterDeviceRequest{Token: token, Platform: "ios"})
	require.NoError(t, err)
	moved, err := svc.RegisterDevice(ctx, second, &notification.RegisterDeviceRequest{Token: token, Platform: "android"})
	require.NoError(t, err)
	assert.Equal(t, second, moved.UserID)
	assert.Equal(t, "android", moved.Platform)

	firstTokens, err := svc.DeviceTokens(ctx, first)
	require.NoError(t, err)
	assert.Empty(t, firstTokens)

	secondTokens, err := svc.DeviceTokens(ctx, second)
	require.NoError(t, err)
	assert.Len(t, secondTokens, 1)
}

func TestNotificationService_MilestoneIsPersistedAndSent(t *testing.T) {
	pool := testutil.SetupTestDB(t)
	push := &fakePush{}
	svc := NewNotificationService(pool, push, 1)
	ctx := context.Background()

	userID := testutil.CreateTestUser(t, pool)
	_, err := svc.RegisterDevice(ctx, userID, &notification.RegisterDeviceRequest{Token: "device-" + testutil.UniqueEmail(), Platform: "web"})
	require.NoError(t, err)

	require.True(t, svc.dispatcher.DispatchNotification(notification.StreakMilestone(userID, 7)))
	svc.Stop()

	list, err := svc.GetNotifications(ctx, userID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, notification.NotificationStreakMilestone, list[0].Type)
	assert.Equal(t, notification.StatusSent, list[0].Status)
	assert.NotNil(t, list[0].SentAt)
	assert.EqualValues(t, 7, list[0].Data["days"])
	assert.Equal(t, 1, push.calls)
}

func TestNotificationService_StreakReminders(t *testing.T) {
	pool := testutil.SetupTestDB(t)
	svc := NewNotificationService(pool, &fakePush{}, 1)
	ctx := context.Background()

	today := time.Date(2031, 6, 2, 0, 0, 0, 0, time.UTC)
	atRisk := testutil.CreateTestUser(t, pool)
	doneToday := testutil.CreateTestUser(t, pool)
	alreadyBroken := testutil.CreateTestUser(t, pool)

	setStreak := func(userID uuid.UUID, current int, last time.Time) {
		_, err := pool.Exec(ctx, `
		UPDATE user_streaks SET current_streak = $2, longest_streak = $2, last_meditation_date = $3
		WHERE user_id = $1`, userID, current, last)
		require.NoError(t, err)
	}
	setStreak(atRisk, 4, today.AddDate(0, 0, -1))
	setStreak(doneToday, 5, today)
	setStreak(alreadyBroken, 2, today.AddDate(0, 0, -3))

	queued, err := svc.SendStreakReminders(ctx, today)
	require.NoError(t, err)
	assert.Equal(t, 1, queued)
	svc.Stop()

	list, err := svc.GetNotifications(ctx, atRisk)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, notification.NotificationStreakRisk, list[0].Type)

	list, err = svc.GetNotifications(ctx, doneToday)
	require.NoError(t, err)
	assert.Empty(t, list)
}

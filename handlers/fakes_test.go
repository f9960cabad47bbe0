package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/aircrushin/mindful-moment/internal/meditation"
	"github.com/aircrushin/mindful-moment/internal/notification"
	"github.com/aircrushin/mindful-moment/internal/progress"
	"github.com/aircrushin/mindful-moment/internal/stats"
	"github.com/aircrushin/mindful-moment/internal/user"
	"github.com/aircrushin/mindful-moment/middleware"
)

const testTimeout = time.Second

type fakeAuthService struct {
	registerResp *user.AuthResponse
	loginResp    *user.AuthResponse
	user         *user.User
	err          error

	gotRegister *user.RegisterRequest
	gotUserID   uuid.UUID
}

func (f *fakeAuthService) Register(ctx context.Context, req *user.RegisterRequest) (*user.AuthResponse, error) {
	f.gotRegister = req
	return f.registerResp, f.err
}

func (f *fakeAuthService) Login(ctx context.Context, req *user.LoginRequest) (*user.AuthResponse, error) {
	return f.loginResp, f.err
}

func (f *fakeAuthService) GetUser(ctx context.Context, userID uuid.UUID) (*user.User, error) {
	f.gotUserID = userID
	return f.user, f.err
}

func (f *fakeAuthService) UpdateProfile(ctx context.Context, userID uuid.UUID, req *user.UpdateProfileRequest) (*user.User, error) {
	f.gotUserID = userID
	return f.user, f.err
}

func (f *fakeAuthService) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	f.gotUserID = userID
	return f.err
}

type fakeMeditationService struct {
	meditations []*meditation.Meditation
	categories  []string
	playCount   int
	err         error

	gotFilter meditation.Filter
	gotID     uuid.UUID
}

func (f *fakeMeditationService) List(ctx context.Context, filter meditation.Filter) ([]*meditation.Meditation, error) {
	f.gotFilter = filter
	return f.meditations, f.err
}

func (f *fakeMeditationService) Get(ctx context.Context, id uuid.UUID) (*meditation.Meditation, error) {
	f.gotID = id
	if f.err != nil {
		return nil, f.err
	}
	return f.meditations[0], nil
}

func (f *fakeMeditationService) Categories(ctx context.Context) ([]string, error) {
	return f.categories, f.err
}

func (f *fakeMeditationService) RecordPlay(ctx context.Context, id uuid.UUID) (int, error) {
	f.gotID = id
	return f.playCount, f.err
}

type fakeProgressService struct {
	recordResp *progress.RecordResponse
	stats      *stats.UserStats
	history    *progress.HistoryResponse
	err        error

	gotUserID uuid.UUID
	gotReq    *progress.RecordRequest
	gotLimit  int
	deadline  bool
}

func (f *fakeProgressService) RecordSession(ctx context.Context, userID uuid.UUID, req *progress.RecordRequest) (*progress.RecordResponse, error) {
	f.gotUserID, f.gotReq = userID, req
	_, f.deadline = ctx.Deadline()
	return f.recordResp, f.err
}

func (f *fakeProgressService) Stats(ctx context.Context, userID uuid.UUID) (*stats.UserStats, error) {
	f.gotUserID = userID
	return f.stats, f.err
}

func (f *fakeProgressService) History(ctx context.Context, userID uuid.UUID, limit int) (*progress.HistoryResponse, error) {
	f.gotUserID, f.gotLimit = userID, limit
	return f.history, f.err
}

type fakeNotificationService struct {
	device        *notification.DeviceToken
	notifications []*notification.Notification
	err           error
}

func (f *fakeNotificationService) RegisterDevice(ctx context.Context, userID uuid.UUID, req *notification.RegisterDeviceRequest) (*notification.DeviceToken, error) {
	return f.device, f.err
}

func (f *fakeNotificationService) GetNotifications(ctx context.Context, userID uuid.UUID) ([]*notification.Notification, error) {
	return f.notifications, f.err
}

// doRequest serves one request; a non-nil userID is attached as the
// authenticated caller.
func doRequest(t *testing.T, h http.Handler, method, target string, body any, userID *uuid.UUID) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}

	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != nil {
		req = req.WithContext(middleware.WithUserID(req.Context(), *userID))
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

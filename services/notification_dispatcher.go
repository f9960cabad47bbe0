package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/aircrushin/mindful-moment/internal/notification"
)

type PushNotificationProvider interface {
	SendPush(ctx context.Context, tokens []notification.DeviceToken, title, body string, data map[string]any) error
}

// NotificationStore is the persistence the dispatcher writes through.
type NotificationStore interface {
	CreateNotification(ctx context.Context, notif *notification.Notification) error
	DeviceTokens(ctx context.Context, userID uuid.UUID) ([]notification.DeviceToken, error)
	MarkSent(ctx context.Context, notif *notification.Notification) error
	MarkFailed(ctx context.Context, notif *notification.Notification, reason error) error
}

// NotificationDispatcher persists and pushes notifications on a fixed pool
// of workers so callers never wait on FCM.
type NotificationDispatcher struct {
	store          NotificationStore
	pushProvider   PushNotificationProvider
	workers        int
	jobQueue       chan *notification.Notification
	stopChan       chan struct{}
	stopOnce       sync.Once
	wg             sync.WaitGroup
	enqueueTimeout time.Duration
	jobTimeout     time.Duration
}

func NewNotificationDispatcher(store NotificationStore, provider PushNotificationProvider, workers int) *NotificationDispatcher {
	if workers < 1 {
		workers = 1
	}
	if provider == nil {
		provider = notification.LogPushProvider{}
	}

	dispatcher := &NotificationDispatcher{
		store:          store,
		pushProvider:   provider,
		workers:        workers,
		jobQueue:       make(chan *notification.Notification, 100),
		stopChan:       make(chan struct{}),
		enqueueTimeout: 5 * time.Second,
		jobTimeout:     10 * time.Second,
	}

	dispatcher.startWorkers()
	return dispatcher
}

func (d *NotificationDispatcher) startWorkers() {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker(i)
	}
}

func (d *NotificationDispatcher) worker(id int) {
	defer d.wg.Done()
	for {
		select {
		case notif := <-d.jobQueue:
			d.processJob(notif)
		case <-d.stopChan:
			// Drain what is already queued before exiting.
			for {
				select {
				case notif := <-d.jobQueue:
					d.processJob(notif)
				default:
					log.Debugf("Notification worker %d stopped", id)
					return
				}
			}
		}
	}
}

func (d *NotificationDispatcher) processJob(notif *notification.Notification) {
	ctx, cancel := context.WithTimeout(context.Background(), d.jobTimeout)
	defer cancel()

	logger := log.WithFields(log.Fields{"user_id": notif.UserID, "type": notif.Type})

	if err := d.store.CreateNotification(ctx, notif); err != nil {
		logger.WithError(err).Error("Failed to persist notification")
		notificationsDispatched.WithLabelValues(string(notif.Type), "error").Inc()
		return
	}

	tokens, err := d.store.DeviceTokens(ctx, notif.UserID)
	if err != nil {
		logger.WithError(err).Error("Failed to load device tokens")
		d.markAsFailed(ctx, notif, err)
		return
	}

	if len(tokens) > 0 {
		if err := d.pushProvider.SendPush(ctx, tokens, notif.Title, notif.Body, notif.Data); err != nil {
			logger.WithError(err).Warn("Push failed")
			d.markAsFailed(ctx, notif, err)
			return
		}
	} else {
		logger.Debug("Skipping push: no registered devices")
	}

	d.markAsSent(ctx, notif)
}

// DispatchNotification queues notif, giving up if the queue stays full for
// the enqueue timeout or the dispatcher is stopping.
func (d *NotificationDispatcher) DispatchNotification(notif *notification.Notification) bool {
	select {
	case <-d.stopChan:
		log.Warnf("Dropping %s notification for user %s: dispatcher stopped", notif.Type, notif.UserID)
		return false
	default:
	}

	timer := time.NewTimer(d.enqueueTimeout)
	defer timer.Stop()

	select {
	case d.jobQueue <- notif:
		return true
	case <-timer.C:
		log.Warnf("Failed to queue %s notification for user %s: queue full", notif.Type, notif.UserID)
		notificationsDispatched.WithLabelValues(string(notif.Type), "dropped").Inc()
		return false
	case <-d.stopChan:
		return false
	}
}

func (d *NotificationDispatcher) markAsSent(ctx context.Context, notif *notification.Notification) {
	if err := d.store.MarkSent(ctx, notif); err != nil {
		log.Printf("Failed to mark notification %s as sent: %v", notif.ID, err)
	}
	notificationsDispatched.WithLabelValues(string(notif.Type), string(notification.StatusSent)).Inc()
}

func (d *NotificationDispatcher) markAsFailed(ctx context.Context, notif *notification.Notification, reason error) {
	if err := d.store.MarkFailed(ctx, notif, reason); err != nil {
		log.Printf("Failed to mark notification %s as failed: %v", notif.ID, err)
	}
	notificationsDispatched.WithLabelValues(string(notif.Type), string(notification.StatusFailed)).Inc()
}

// Stop processes the remaining queue and waits for the workers to exit.
func (d *NotificationDispatcher) Stop() {
	d.stopOnce.Do(func() {
		log.Println("Stopping notification dispatcher...")
		close(d.stopChan)
		d.wg.Wait()
		log.Println("Notification dispatcher stopped")
	})
}

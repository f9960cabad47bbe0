package services

import "github.com/prometheus/client_golang/prometheus"

var (
	sessionsRecorded = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "meditation_sessions_recorded_total",
			Help: "Completed meditation sessions recorded",
		},
	)
	minutesRecorded = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "meditation_minutes_recorded_total",
			Help: "Whole minutes of meditation recorded",
		},
	)
	streakMilestones = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "streak_milestones_total",
			Help: "Streak milestones reached, by milestone length in days",
		},
		[]string{"days"},
	)
	registrations = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "user_registrations_total",
			Help: "Accounts created",
		},
	)
	loginFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "user_login_failures_total",
			Help: "Login attempts rejected for bad credentials",
		},
	)
	meditationPlays = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "meditation_plays_total",
			Help: "Play events recorded against the catalog",
		},
	)
	notificationsDispatched = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_dispatched_total",
			Help: "Notifications processed by the dispatcher, by outcome",
		},
		[]string{"type", "status"},
	)
)

// InitMetrics registers the domain metrics with reg.
func InitMetrics(reg prometheus.Registerer) {
	reg.MustRegister(
		sessionsRecorded,
		minutesRecorded,
		streakMilestones,
		registrations,
		loginFailures,
		meditationPlays,
		notificationsDispatched,
	)
}

package main

import (
	"net/http"
	_ "net/http/pprof"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aircrushin/mindful-moment/handlers"
	"github.com/aircrushin/mindful-moment/internal/config"
	"github.com/aircrushin/mindful-moment/middleware"
)

type routerDeps struct {
	cfg                 *config.Config
	db                  handlers.Pinger
	jwtAuth             *middleware.JWTAuth
	rateLimiter         *middleware.RateLimiter
	authService         handlers.AuthService
	meditationService   handlers.MeditationService
	progressService     handlers.ProgressService
	notificationService handlers.NotificationService
}

func newRouter(deps routerDeps) *mux.Router {
	timeout := deps.cfg.RequestTimeout

	healthHandler := handlers.NewHealthHandler(deps.db, "mindful-moment-api")
	authHandler := handlers.NewAuthHandler(deps.authService, timeout)
	meditationHandler := handlers.NewMeditationHandler(deps.meditationService, timeout)
	progressHandler := handlers.NewProgressHandler(deps.progressService, timeout)
	notificationHandler := handlers.NewNotificationHandler(deps.notificationService, timeout)

	r := mux.NewRouter()
	r.Use(middleware.MonitorMiddleware)
	r.Use(deps.rateLimiter.Middleware)

	r.Handle("/metrics", middleware.BasicAuthMiddleware(deps.cfg.MetricsUser, deps.cfg.MetricsPass)(promhttp.Handler())).Methods("GET")
	r.PathPrefix("/debug/pprof/").Handler(middleware.PprofSecurityMiddleware(deps.cfg.PprofSecret)(http.DefaultServeMux))

	r.HandleFunc("/health", healthHandler.Health).Methods("GET")

	// -------------------------------------------------------------------------
	// API V1 SUBROUTER
	// -------------------------------------------------------------------------
	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/health", healthHandler.Health).Methods("GET")

	api.HandleFunc("/auth/register", authHandler.Register).Methods("POST")
	api.HandleFunc("/auth/login", authHandler.Login).Methods("POST")

	api.HandleFunc("/meditations", meditationHandler.List).Methods("GET")
	api.HandleFunc("/meditations/categories", meditationHandler.Categories).Methods("GET")
	api.HandleFunc("/meditations/{id}", meditationHandler.Get).Methods("GET")
	api.HandleFunc("/meditations/{id}/play", meditationHandler.Play).Methods("POST")

	// -------------------------------------------------------------------------
	// PROTECTED ROUTES (REQUIRE AUTH HEADER)
	// -------------------------------------------------------------------------
	protected := api.PathPrefix("").Subrouter()
	protected.Use(deps.jwtAuth.Middleware)

	protected.HandleFunc("/auth/me", authHandler.Me).Methods("GET")
	protected.HandleFunc("/auth/me", authHandler.UpdateProfile).Methods("PATCH")
	protected.HandleFunc("/auth/me", authHandler.DeleteAccount).Methods("DELETE")

	protected.HandleFunc("/progress", progressHandler.Record).Methods("POST")
	protected.HandleFunc("/progress", progressHandler.History).Methods("GET")
	protected.HandleFunc("/progress/stats", progressHandler.Stats).Methods("GET")

	protected.HandleFunc("/notifications", notificationHandler.GetNotifications).Methods("GET")
	protected.HandleFunc("/notifications/register-device", notificationHandler.RegisterDevice).Methods("POST")

	return r
}

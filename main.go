package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	gorillaHandlers "github.com/gorilla/handlers"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"

	"github.com/aircrushin/mindful-moment/internal/config"
	"github.com/aircrushin/mindful-moment/internal/database"
	"github.com/aircrushin/mindful-moment/internal/logging"
	"github.com/aircrushin/mindful-moment/internal/notification"
	"github.com/aircrushin/mindful-moment/internal/workers"
	"github.com/aircrushin/mindful-moment/middleware"
	"github.com/aircrushin/mindful-moment/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logging.Setup(cfg.LogLevel, cfg.IsProduction())

	if cfg.MigrateOnStart {
		if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
	}

	dbPool, err := database.NewPostgresPool(context.Background(), cfg.DatabaseURL, database.PoolOptions{
		MaxConns: cfg.DBMaxConns,
		MinConns: cfg.DBMinConns,
	})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() {
		log.Println("Closing database connection pool...")
		dbPool.Close()
	}()
	log.Println("Successfully connected to Postgres")

	middleware.InitPrometheus(prometheus.DefaultRegisterer)
	services.InitMetrics(prometheus.DefaultRegisterer)

	pushProvider := newPushProvider(cfg)
	jwtAuth := middleware.NewJWTAuth(cfg.JWTSecret, cfg.TokenTTL)

	notificationService := services.NewNotificationService(dbPool, pushProvider, cfg.NotificationWorkers)
	authService := services.NewAuthService(dbPool, jwtAuth, cfg.BcryptCost)
	meditationService := services.NewMeditationService(dbPool)
	progressService := services.NewProgressService(dbPool, cfg.StreakLocation(), notificationService)

	reminders, err := workers.StartStreakReminderWorker(cfg.ReminderCron, cfg.StreakLocation(), notificationService)
	if err != nil {
		log.Fatalf("Failed to schedule streak reminders: %v", err)
	}

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	cleanupCtx, stopCleanup := context.WithCancel(context.Background())
	go rateLimiter.CleanupVisitors(cleanupCtx)

	router := newRouter(routerDeps{
		cfg:                 cfg,
		db:                  dbPool,
		jwtAuth:             jwtAuth,
		rateLimiter:         rateLimiter,
		authService:         authService,
		meditationService:   meditationService,
		progressService:     progressService,
		notificationService: notificationService,
	})

	corsHandler := gorillaHandlers.CORS(
		gorillaHandlers.AllowedOrigins(cfg.AllowedOrigins),
		gorillaHandlers.AllowedMethods([]string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}),
		gorillaHandlers.AllowedHeaders([]string{"Content-Type", "Authorization", "X-Pprof-Secret"}),
		gorillaHandlers.ExposedHeaders([]string{"Content-Length"}),
	)

	accessLog := log.StandardLogger().WriterLevel(log.InfoLevel)
	defer accessLog.Close()

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      gorillaHandlers.CombinedLoggingHandler(accessLog, corsHandler(router)),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("Starting server on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Error starting server:", err)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	sig := <-sigChan
	log.Println("Got signal:", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	<-reminders.Stop().Done()
	stopCleanup()
	notificationService.Stop()

	log.Println("Server shutdown complete")
}

func newPushProvider(cfg *config.Config) services.PushNotificationProvider {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	fcmService, err := notification.NewFCMService(ctx, cfg.FCMCredentialsJSON, cfg.FCMCredentialsFile)
	if err != nil {
		log.Printf("Warning: Could not initialize FCM, push notifications will only be logged: %v", err)
		return notification.LogPushProvider{}
	}

	log.Println("FCM Push Provider initialized successfully")
	return fcmService
}

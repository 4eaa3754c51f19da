package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/raahat-suraksha/safety-backend/internal/alert"
	"github.com/raahat-suraksha/safety-backend/internal/assessment"
	"github.com/raahat-suraksha/safety-backend/internal/common/health"
	"github.com/raahat-suraksha/safety-backend/internal/common/logging"
	"github.com/raahat-suraksha/safety-backend/internal/common/middleware"
	"github.com/raahat-suraksha/safety-backend/internal/common/repository"
	"github.com/raahat-suraksha/safety-backend/internal/config"
	"github.com/raahat-suraksha/safety-backend/internal/database"
	"github.com/raahat-suraksha/safety-backend/internal/ingress"
	"github.com/raahat-suraksha/safety-backend/internal/live"
	"github.com/raahat-suraksha/safety-backend/internal/training"
	"github.com/raahat-suraksha/safety-backend/internal/zoneindex"

	_ "github.com/raahat-suraksha/safety-backend/docs"
)

// @title Tourist Safety Assessment API
// @version 1.0
// @description Hybrid rule-based and ML fusion safety-scoring pipeline for tourist GPS telemetry.

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the admin JWT token.

// @tag.name tourists
// @tag.description Tourist registration and lookup
// @tag.name assessment
// @tag.description Location ingestion and emergency reporting
// @tag.name alerts
// @tag.description Alert listing, filing and resolution
// @tag.name training
// @tag.description Training Scheduler operator endpoints
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	cfg := config.Load()

	loggerConfig := &logging.LoggerConfig{
		Level:      logging.LogLevel(cfg.LogLevel),
		Format:     "json",
		Output:     os.Stdout,
		AddSource:  true,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	}
	logger := logging.NewLogger(loggerConfig)
	logging.InitDefaultLogger(loggerConfig)

	logger.Info("Starting Tourist Safety Assessment API", "version", "1.0.0")

	logger.Info("Connecting to database...")
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		log.Fatal("Failed to connect to database:", err)
	}
	defer database.Close(db)
	logger.Info("Database connected successfully")

	slowQueryLogger := logging.NewSlowQueryLogger(logger, 100*time.Millisecond)
	db.Logger = slowQueryLogger

	logger.Info("Connecting to Redis...")
	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		logger.Error("Failed to connect to Redis", "error", err)
		log.Fatal("Failed to connect to Redis:", err)
	}
	defer redisClient.Close()
	logger.Info("Redis connected successfully")

	tourists := repository.NewTouristRepository(db)
	locations := repository.NewLocationRepository(db)
	assessments := repository.NewAssessmentRepository(db)
	alerts := repository.NewAlertRepository(db)

	healthChecker := health.NewHealthChecker(db, redisClient, "Tourist Safety Assessment API", "1.0.0")
	healthHandler := health.NewHandler(healthChecker)
	metricsHandler := health.NewMetricsHandler(healthChecker)
	logger.Info("Health check system initialized")

	zones := zoneindex.New(db, logger)
	if err := zones.Refresh(context.Background()); err != nil {
		logger.Error("Failed to build initial zone index", "error", err)
		log.Fatal("Failed to build initial zone index:", err)
	}
	logger.Info("Zone index built")

	registry := training.NewRegistry(redisClient, logger)

	auditLogger := logging.NewAuditLogger(logger, db)

	dispatcher := alert.New(alerts, alert.Config{
		WebhookURL:   cfg.WebhookURL,
		WebhookToken: cfg.WebhookToken,
		Timeout:      cfg.WebhookTimeout,
	}, auditLogger, logger)

	liveHub := live.NewHub(redisClient, logger)
	liveCtx, stopLiveHub := context.WithCancel(context.Background())
	defer stopLiveHub()
	go liveHub.Run(liveCtx)

	engine := assessment.New(db, tourists, locations, assessments, zones, registry, dispatcher, liveHub, auditLogger, logger, assessment.Config{
		DetectorSoftDeadline: cfg.DetectorSoftDeadline,
	})

	scheduler := training.NewScheduler(locations, registry, logger, training.Config{
		Period:      cfg.TrainingPeriod,
		FitDeadline: cfg.TrainingFitDeadline,
		Window:      cfg.TrainingWindow,
	})
	scheduler.Start(context.Background())
	logger.Info("Training scheduler started", "period", cfg.TrainingPeriod)

	backpressure := ingress.NewBackpressure(cfg.IngressHighWaterMark, float64(cfg.IngressHighWaterMark), cfg.IngressHighWaterMark)
	handler := ingress.New(tourists, locations, assessments, alerts, engine, dispatcher, scheduler, backpressure, auditLogger)

	r := gin.New()

	r.Use(gzip.Gzip(gzip.DefaultCompression))
	logger.Info("Response compression enabled (gzip)")

	r.Use(logging.RequestLoggingMiddleware(logger))
	r.Use(logging.PerformanceLoggingMiddleware(logger, 1*time.Second))
	r.Use(logging.ErrorLoggingMiddleware(logger))
	r.Use(logging.RecoveryLoggingMiddleware(logger))

	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSAllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.APIVersionMiddleware(nil))

	ingress.RegisterRoutes(r, handler, middleware.AdminAuth(cfg.JWTSecret))

	// /health itself is served by ingress.Handler.Health (it checks the
	// tourist store specifically); only the k8s-probe and detailed
	// variants are mounted here to avoid a duplicate route.
	r.GET("/health/live", healthHandler.HandleLiveness)
	r.GET("/health/ready", healthHandler.HandleReadiness)
	r.GET("/health/detailed", healthHandler.HandleDetailed)
	health.SetupMetricsRoutes(r, metricsHandler)
	logger.Info("Health check endpoints configured")

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.GET("/ws/tracking", liveHub.HandleWebSocket)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		logger.Info("Tourist Safety Assessment API starting",
			"port", cfg.Port,
			"health_check", "http://localhost:"+cfg.Port+"/health",
			"api_docs", "http://localhost:"+cfg.Port+"/swagger/index.html",
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed to start", "error", err)
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Warn("Shutting down server...")

	logger.Info("Stopping training scheduler...")
	scheduler.Stop()
	logger.Info("Training scheduler stopped")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
		log.Fatal("Server forced to shutdown:", err)
	}

	logger.Info("Server exited gracefully")
}

package app

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/dealsense/salesapi/internal/config"
	"github.com/dealsense/salesapi/internal/database"
	"github.com/dealsense/salesapi/internal/handlers"
	"github.com/dealsense/salesapi/internal/llm"
	"github.com/dealsense/salesapi/internal/middleware"
	"github.com/dealsense/salesapi/internal/services"
	"github.com/dealsense/salesapi/internal/storage"
	"github.com/dealsense/salesapi/internal/stt"
	"github.com/dealsense/salesapi/pkg/models"
)

type App struct {
	config   *config.Config
	logger   *logrus.Logger
	db       *database.Database
	services *services.Services
	handlers *handlers.Handlers
	router   *gin.Engine
}

func New(cfg *config.Config) (*App, error) {
	app := &App{
		config: cfg,
		logger: setupLogger(cfg),
	}

	db, err := database.New(cfg, app.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	svc, err := services.New(cfg, app.logger, db)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}
	app.services = svc

	llmClient, err := llm.NewClient(cfg.LLM, app.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM client: %w", err)
	}

	sttClient, err := stt.NewClient(cfg.STT, app.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize transcription client: %w", err)
	}

	store, err := storage.NewS3Store(cfg, app.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize object storage: %w", err)
	}

	app.handlers = handlers.New(app.logger, svc, llmClient, sttClient, store)

	app.setupRouter()

	return app, nil
}

func (a *App) Router() *gin.Engine {
	return a.router
}

func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("Shutting down application...")

	if err := a.services.Close(); err != nil {
		a.logger.WithError(err).Error("Error closing event bus")
	}

	if err := a.db.Close(); err != nil {
		a.logger.WithError(err).Error("Error closing database connections")
		return err
	}

	return nil
}

func setupLogger(cfg *config.Config) *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.Logging.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	return logger
}

func (a *App) setupRouter() {
	if a.config.Server.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(middleware.Logger(a.logger))
	router.Use(middleware.Recovery(a.logger))
	router.Use(middleware.CORS(a.config))

	// Health and metrics endpoints stay unauthenticated
	router.GET("/health", a.handlers.Health.Check)
	if a.config.Monitoring.Enabled {
		router.GET(a.config.Monitoring.MetricsPath, gin.WrapH(promhttp.Handler()))
	}

	paidTiers := []models.Tier{models.TierBasic, models.TierPro, models.TierBusiness}
	coachTiers := []models.Tier{models.TierPro, models.TierBusiness}

	api := router.Group("/api/v1")
	api.Use(middleware.Auth(a.services.Auth, a.logger))

	ocr := api.Group("/ocr")
	ocr.Use(middleware.RequireTier(a.services.Profiles, a.logger, paidTiers...))
	ocr.POST("/card",
		middleware.Quota(a.services.Quota, a.services.Metrics, models.FeatureOCR, a.logger),
		a.handlers.OCR.ScanCard)

	analysis := api.Group("/analysis")
	analysis.Use(middleware.RequireTier(a.services.Profiles, a.logger, paidTiers...))
	analysis.POST("/transcript",
		middleware.Quota(a.services.Quota, a.services.Metrics, models.FeatureAnalyze, a.logger),
		a.handlers.Analysis.AnalyzeTranscript)

	email := api.Group("/email")
	email.Use(middleware.RequireTier(a.services.Profiles, a.logger, paidTiers...))
	email.POST("/followup",
		middleware.Quota(a.services.Quota, a.services.Metrics, models.FeatureEmail, a.logger),
		a.handlers.Email.DraftFollowUp)

	coaching := api.Group("/coaching")
	coaching.Use(middleware.RequireTier(a.services.Profiles, a.logger, coachTiers...))
	coaching.POST("/tip",
		middleware.Quota(a.services.Quota, a.services.Metrics, models.FeatureCoach, a.logger),
		a.handlers.Coaching.Tip)

	transcription := api.Group("/transcription")
	transcription.Use(middleware.RequireTier(a.services.Profiles, a.logger, paidTiers...))
	transcription.POST("/jobs",
		middleware.Quota(a.services.Quota, a.services.Metrics, models.FeatureTranscribe, a.logger),
		a.handlers.Transcription.Submit)
	transcription.GET("/jobs/:jobId", a.handlers.Transcription.Status)

	files := api.Group("/files")
	files.Use(middleware.RequireTier(a.services.Profiles, a.logger, paidTiers...))
	files.POST("/upload-url",
		middleware.Quota(a.services.Quota, a.services.Metrics, models.FeatureUpload, a.logger),
		a.handlers.Files.UploadURL)
	files.GET("/download-url", a.handlers.Files.DownloadURL)
	files.DELETE("/*key", a.handlers.Files.Delete)

	usage := api.Group("/usage")
	usage.Use(middleware.RequireTier(a.services.Profiles, a.logger, paidTiers...))
	usage.GET("/stats", a.handlers.Usage.Stats)

	a.router = router
}

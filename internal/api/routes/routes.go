package routes

import (
	"context"
	"fmt"

	"github.com/brokeranalysis/trust-service/internal/api/handlers"
	"github.com/brokeranalysis/trust-service/internal/cache"
	"github.com/brokeranalysis/trust-service/internal/config"
	"github.com/brokeranalysis/trust-service/internal/models"
	"github.com/brokeranalysis/trust-service/internal/monitoring"
	"github.com/brokeranalysis/trust-service/internal/repository"
	"github.com/brokeranalysis/trust-service/internal/scheduler"
	"github.com/brokeranalysis/trust-service/internal/scoring"
	"github.com/brokeranalysis/trust-service/internal/service"
	"github.com/brokeranalysis/trust-service/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Setup wires storage, monitoring, the scoring pipeline, and routes onto
// the router.
func Setup(router *gin.Engine, cfg *config.Config) {
	db, err := initDatabase(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}

	brokerRepo := repository.NewBrokerRepository(db)
	telemetryRepo := repository.NewTelemetryRepository(db)
	engine := scoring.NewEngine()

	monitor := monitoring.NewService(telemetryRepo,
		monitoring.WithBufferSize(cfg.MonitoringBufferSize),
		monitoring.WithFlushInterval(cfg.MonitoringFlushInterval),
	)
	monitor.Start(context.Background())

	var scoreCache service.ScoreCache
	if cfg.RedisURL != "" {
		redisCache, err := cache.NewRedisScoreCache(context.Background(), cfg.RedisURL, cfg.ScoreCacheTTL)
		if err != nil {
			logger.Error("Score cache unavailable, continuing without it", zap.Error(err))
		} else {
			scoreCache = redisCache
		}
	}

	trustService := service.NewTrustService(brokerRepo, engine, monitor, scoreCache)

	if cfg.RecalcCron != "" {
		sched := scheduler.New(trustService)
		if err := sched.Register(cfg.RecalcCron); err != nil {
			logger.Fatal("Failed to register recalculation schedule", zap.Error(err))
		}
		sched.Start()
		logger.Info("Scheduled trust score recalculation", zap.String("cron", cfg.RecalcCron))
	}

	trustHandler := handlers.NewTrustHandler(trustService)
	monitoringHandler := handlers.NewMonitoringHandler(monitor)

	router.HandleMethodNotAllowed = true

	// Health check
	router.GET("/health", trustHandler.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		v1.GET("/brokers/:id/trust-score", trustHandler.GetBrokerTrustScore)

		// Admin routes
		admin := v1.Group("/admin")
		{
			admin.POST("/trust-scores/recalculate", trustHandler.RecalculateTrustScores)
			admin.GET("/monitoring/performance", monitoringHandler.GetPerformanceStats)
			admin.GET("/monitoring/quality", monitoringHandler.GetQualityStats)
		}
	}
}

func initDatabase(cfg *config.Config) (*gorm.DB, error) {
	var db *gorm.DB
	var err error

	if cfg.DatabaseURL == "" {
		logger.Info("No database URL configured, using in-memory SQLite")
		// Pure Go SQLite, no CGO required
		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize in-memory database: %w", err)
		}
	} else {
		logger.Info("Connecting to PostgreSQL database")
		db, err = gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
		if err != nil {
			return nil, err
		}
	}

	err = db.AutoMigrate(
		&models.Broker{},
		&models.PerformanceMetric{},
		&models.QualityMetric{},
		&models.ErrorEvent{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	logger.Info("Database initialized successfully")
	return db, nil
}

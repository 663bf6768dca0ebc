package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"freight-quote-service/internal/carriers"
	"freight-quote-service/internal/config"
	"freight-quote-service/internal/events"
	"freight-quote-service/internal/handlers"
	"freight-quote-service/internal/metrics"
	"freight-quote-service/internal/middleware"
	"freight-quote-service/internal/models"
	"freight-quote-service/internal/repository"
	"freight-quote-service/internal/services"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}

	log := newLogger(cfg)
	log.WithField("environment", cfg.Server.Env).Info("Starting Freight Quote Service...")

	// Connect to database
	db, err := connectDatabase(cfg.GetDatabaseDSN(), cfg.IsProduction())
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}
	log.Info("Database connected successfully")

	if err := runMigrations(db); err != nil {
		log.WithError(err).Fatal("Failed to run migrations")
	}
	log.Info("Database migrations completed")

	if err := repository.SeedPricingSettings(db, cfg.Quoting.DefaultPolicy, log.WithField("component", "seed")); err != nil {
		log.WithError(err).Warn("Failed to seed pricing settings")
	}

	// Redis is optional - margin lookups go straight to the database without it
	redisClient := connectRedis(cfg.RedisURL, log)
	if redisClient != nil {
		defer redisClient.Close()
	}

	// NATS is optional - quote events are skipped without it
	var publisher *events.Publisher
	if cfg.NATSURL != "" {
		publisher, err = events.NewPublisher(cfg.NATSURL, log)
		if err != nil {
			log.WithError(err).Warn("Failed to initialize events publisher (events won't be published)")
			publisher = nil
		} else {
			defer publisher.Close()
			log.Info("NATS events publisher initialized")
		}
	} else {
		log.Info("NATS_URL not configured, quote events disabled")
	}

	// Rating gateways
	gatewayFactory := carriers.NewGatewayFactory(log.WithField("component", "gateway_factory"))
	gatewayFactory.Register(carriers.GatewayFreight, cfg.Gateways.Freight)
	gatewayFactory.Register(carriers.GatewayReefer, cfg.Gateways.Reefer)
	log.WithField("gateways", gatewayFactory.Available()).Info("Rating gateways registered")

	// Repositories
	marginRepo := repository.NewMarginRepository(db, redisClient)
	resultRepo := repository.NewResultRepository(db)
	historicalRepo := repository.NewHistoricalRepository(db)

	quoteMetrics := metrics.New()

	var eventPublisher services.EventPublisher
	if publisher != nil {
		eventPublisher = publisher
	}

	orchestrator := services.NewQuoteOrchestrator(gatewayFactory, marginRepo, resultRepo, eventPublisher, services.OrchestratorConfig{
		BatchInterval: cfg.Quoting.BatchInterval,
		DefaultPolicy: cfg.Quoting.DefaultPolicy,
		Logger:        logrus.NewEntry(log),
		Metrics:       quoteMetrics,
	})
	historicalService := services.NewHistoricalService(historicalRepo, orchestrator, logrus.NewEntry(log))

	quoteHandler := handlers.NewQuoteHandler(orchestrator, historicalService, historicalRepo, logrus.NewEntry(log))
	pricingHandler := handlers.NewPricingHandler(marginRepo, cfg.Quoting.DefaultPolicy)

	router := setupRouter(cfg, log, quoteHandler, pricingHandler, quoteMetrics)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithField("addr", srv.Addr).Info("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("Server forced to shutdown")
	}
	log.Info("Server exited")
}

func newLogger(cfg *config.Config) *logrus.Logger {
	log := logrus.New()
	if cfg.IsProduction() {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	return log
}

// connectDatabase establishes a connection to the PostgreSQL database
func connectDatabase(databaseURL string, production bool) (*gorm.DB, error) {
	logLevel := logger.Info
	if production {
		logLevel = logger.Warn
	}

	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Configure connection pool
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db, nil
}

// runMigrations runs database migrations
func runMigrations(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.MarginRule{},
		&models.PricingSettings{},
		&models.ShipmentResultRecord{},
		&models.HistoricalShipment{},
	)
}

func connectRedis(redisURL string, log *logrus.Logger) *redis.Client {
	if redisURL == "" {
		log.Info("REDIS_URL not configured, caching disabled")
		return nil
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		log.WithError(err).Warn("Failed to parse Redis URL, continuing without caching")
		return nil
	}
	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.WithError(err).Warn("Failed to connect to Redis, continuing without caching")
		client.Close()
		return nil
	}

	log.Info("Connected to Redis for caching")
	return client
}

// setupRouter configures the Gin router with routes and middleware
func setupRouter(cfg *config.Config, log *logrus.Logger, quoteHandler *handlers.QuoteHandler, pricingHandler *handlers.PricingHandler, quoteMetrics *metrics.Metrics) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.CORS())
	router.Use(middleware.CustomerMiddleware())
	router.Use(middleware.LoggingMiddleware(log))
	router.Use(middleware.ErrorHandler(log))

	router.GET("/metrics", gin.WrapH(quoteMetrics.Handler()))
	handlers.RegisterRoutes(router, quoteHandler, pricingHandler)

	return router
}

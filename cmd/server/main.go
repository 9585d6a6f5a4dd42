package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/agrostack/milletlink/internal/config"
	"github.com/agrostack/milletlink/internal/market/entity"
	"github.com/agrostack/milletlink/internal/market/gateway"
	"github.com/agrostack/milletlink/internal/market/handler"
	"github.com/agrostack/milletlink/internal/market/repository"
	"github.com/agrostack/milletlink/internal/market/service"
	"github.com/agrostack/milletlink/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zapLogger, err := initLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("Starting milletlink service",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
	)

	db, err := initDatabase(cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}

	if err := entity.AutoMigrate(db); err != nil {
		zapLogger.Fatal("Failed to auto-migrate tables", zap.Error(err))
	}
	zapLogger.Info("Database migration completed")

	rdb := initRedis(cfg.Redis, zapLogger)

	gw := gateway.NewRazorpayGateway(cfg.Razorpay.KeyID, cfg.Razorpay.KeySecret, cfg.Razorpay.Timeout)
	if cfg.Razorpay.DemoMode() {
		zapLogger.Warn("Payment gateway credentials not configured, running in demo mode")
	}

	repos := repository.NewRepositories(db)
	services := service.NewServices(repos, db, rdb, gw, cfg, zapLogger)
	handlers := handler.NewHandlers(services)

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(zapLogger))
	router.Use(middleware.CORS())
	router.Use(middleware.RequestID())

	router.GET("/health/live", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "milletlink"})
	})
	router.GET("/health/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "milletlink"})
	})

	router.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service":    "milletlink",
			"version":    Version,
			"build_time": BuildTime,
		})
	})

	v1 := router.Group("/api/v1")

	// Public provenance lookups and the shop catalog need no auth.
	traceability := v1.Group("/traceability")
	{
		traceability.GET("", handlers.Traceability.List)
		traceability.GET("/search", handlers.Traceability.Search)
		traceability.GET("/:id", handlers.Traceability.Get)
	}
	shop := v1.Group("/shop")
	{
		shop.GET("/products", handlers.Consumer.ListProducts)
		shop.GET("/products/:id", handlers.Consumer.GetProduct)
	}

	auth := v1.Group("")
	auth.Use(middleware.JWTAuth(cfg.JWT.Secret))
	{
		farmer := auth.Group("/farmer", middleware.RequireRole(entity.RoleFarmer))
		{
			farmer.POST("/supplies", handlers.Farmer.AddSupply)
			farmer.GET("/supplies", handlers.Farmer.ListSupplies)
			farmer.GET("/supplies/:id", handlers.Farmer.GetSupply)
			farmer.GET("/payments", handlers.Farmer.PaymentHistory)
			farmer.GET("/payments/:id/receipt", handlers.Farmer.PaymentReceipt)
			farmer.GET("/sales-summary", handlers.Farmer.SalesSummary)
		}

		shg := auth.Group("/shg", middleware.RequireRole(entity.RoleSHG))
		{
			shg.GET("/supplies", handlers.SHG.ListSupplies)
			shg.POST("/supplies/:id/accept", handlers.SHG.AcceptSupply)
			shg.POST("/supplies/:id/complete", handlers.SHG.CompleteSupply)
			shg.POST("/products", handlers.SHG.CreateProduct)
			shg.GET("/products", handlers.SHG.ListProducts)
			shg.GET("/orders", handlers.SHG.ListOrders)
			shg.PATCH("/orders/:id/status", handlers.SHG.UpdateOrderStatus)
			shg.POST("/payments/farmer", handlers.SHG.PayFarmer)
			shg.GET("/payments", handlers.SHG.PaymentHistory)
			shg.GET("/dashboard", handlers.SHG.Dashboard)
		}

		consumer := auth.Group("/consumer", middleware.RequireRole(entity.RoleConsumer))
		{
			consumer.POST("/orders", handlers.Consumer.PlaceOrder)
			consumer.GET("/orders", handlers.Consumer.ListOrders)
			consumer.GET("/orders/:id/track", handlers.Consumer.TrackOrder)
			consumer.POST("/payments/order", handlers.Payment.CreateGatewayOrder)
			consumer.POST("/payments/verify", handlers.Payment.Verify)
			consumer.GET("/payments/:id", handlers.Payment.Detail)
		}
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		zapLogger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("Server exited")
}

func initLogger(cfg config.LogConfig) (*zap.Logger, error) {
	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}
	switch cfg.Level {
	case "debug":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	}
	return zapCfg.Build()
}

func initDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
		// Maps driver duplicate-key errors onto gorm.ErrDuplicatedKey so the
		// repository layer can classify them.
		TranslateError: true,
	}
	db, err := gorm.Open(postgres.Open(cfg.DSN()), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	return db, nil
}

// initRedis returns nil when redis is unreachable; cached lookups degrade to
// the database.
func initRedis(cfg config.RedisConfig, zapLogger *zap.Logger) *redis.Client {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		zapLogger.Warn("Redis unavailable, traceability cache disabled", zap.Error(err))
		return nil
	}
	return rdb
}

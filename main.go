package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/lokeshwar-Vaccel/Accel-ERP-sub007/apperrors"
	"github.com/lokeshwar-Vaccel/Accel-ERP-sub007/controllers"
	"github.com/lokeshwar-Vaccel/Accel-ERP-sub007/database"
	"github.com/lokeshwar-Vaccel/Accel-ERP-sub007/logger"
	"github.com/lokeshwar-Vaccel/Accel-ERP-sub007/middleware"
	aws_pkg "github.com/lokeshwar-Vaccel/Accel-ERP-sub007/pkg/aws"
	"github.com/lokeshwar-Vaccel/Accel-ERP-sub007/repository"
	"github.com/lokeshwar-Vaccel/Accel-ERP-sub007/routes"
	"github.com/lokeshwar-Vaccel/Accel-ERP-sub007/services"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const serviceName = "purchase-import-service"

func main() {
	// Load .env file (optional, falls back to system env)
	_ = godotenv.Load()
	logger.Initialize(os.Getenv("APP_ENV"))

	cfg, err := LoadConfig()
	if err != nil {
		zap.L().Fatal("Failed to load configuration", zap.Error(err))
	}

	rootCtx, stop := context.WithCancel(context.Background())
	defer stop()

	// --- 1. Infrastructure ---

	var awsCfg *sdkaws.Config
	if loaded, err := aws_pkg.LoadAWSConfig(rootCtx); err != nil {
		zap.L().Warn("AWS config unavailable, AWS integrations disabled", zap.Error(err))
	} else {
		awsCfg = &loaded
	}

	if awsCfg != nil && cfg.CloudWatchEnabled {
		cw, err := aws_pkg.NewCloudWatchLogsClient(rootCtx, *awsCfg, serviceName)
		if err != nil {
			zap.L().Warn("CloudWatch Logs unavailable", zap.Error(err))
		} else {
			logger.InitializeWithWriter(cfg.Environment, cw)
		}
	}
	defer logger.Log.Sync()

	if err := database.ConnectWithConfig(cfg.MongoURI, cfg.MongoDB); err != nil {
		zap.L().Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	indexCtx, cancelIdx := context.WithTimeout(rootCtx, 30*time.Second)
	if err := database.EnsureIndexes(indexCtx, database.DB); err != nil {
		zap.L().Warn("Failed to ensure indexes", zap.Error(err))
	}
	cancelIdx()

	var rdb *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			zap.L().Warn("Failed to parse REDIS_URL, async imports disabled", zap.Error(err))
		} else {
			rdb = redis.NewClient(opts)
		}
	}

	// --- 2. Dependency Injection ---

	integrations := services.ImportIntegrations{TopicArn: cfg.ImportSNSTopicArn}
	var metrics *aws_pkg.MetricsClient
	if awsCfg != nil {
		metrics = aws_pkg.NewMetricsClient(*awsCfg)
		integrations.Metrics = metrics
		if cfg.S3Bucket != "" {
			integrations.Archiver = aws_pkg.NewS3Archiver(aws_pkg.NewS3Client(*awsCfg), cfg.S3Bucket, cfg.S3Prefix)
		}
		if cfg.ImportSNSTopicArn != "" {
			integrations.Events = aws_pkg.NewSNSClient(*awsCfg)
		}
		if cfg.ImportRunsTable != "" {
			integrations.Runs = repository.NewDynamoImportRunRepository(dynamodb.NewFromConfig(*awsCfg), cfg.ImportRunsTable)
		}
	}

	importService := services.NewPurchaseImportService(
		repository.NewProductRepository(database.DB),
		repository.NewPurchaseOrderRepository(database.DB),
		repository.NewStockLocationRepository(database.DB),
		integrations,
		logger.Log.Named("purchase_import"),
	)

	var jobs controllers.ImportJobAPI
	if rdb != nil {
		importJobs := services.NewImportJobs(
			services.NewRedisJobQueue(rdb),
			importService,
			cfg.ImportStorageDir,
			cfg.ImportTimeout,
			logger.Log.Named("import_worker"),
		)
		importJobs.Start(rootCtx)
		jobs = importJobs
	}

	importController := controllers.NewPurchaseImportController(
		importService,
		jobs,
		controllers.NewUploadValidator(cfg.MaxUploadBytes),
		cfg.ImportTimeout,
	)

	// --- 3. HTTP Server & Middleware ---

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	limiter := middleware.NewRateLimiter(rate.Every(time.Minute/100), 50, 5*time.Minute)
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-rootCtx.Done():
				return
			case now := <-ticker.C:
				limiter.Cleanup(now)
			}
		}
	}()

	r := gin.New()
	r.MaxMultipartMemory = cfg.MaxUploadBytes
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(logger.Log))
	r.Use(middleware.MetricsMiddleware(metrics, serviceName))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))
	r.Use(middleware.RateLimitMiddleware(limiter))
	r.Use(middleware.Timeout(cfg.ImportTimeout + 30*time.Second))
	r.Use(apperrors.ErrorMiddleware())

	routes.RegisterRoutes(r, middleware.AuthMiddleware(cfg.JWTSecret), importController)

	// --- 4. Graceful Shutdown ---

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zap.L().Info("Purchase Import Service starting", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zap.L().Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zap.L().Info("Shutting down Purchase Import Service...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zap.L().Error("Server forced to shutdown", zap.Error(err))
	}
	if rdb != nil {
		if err := rdb.Close(); err != nil {
			zap.L().Error("Failed to close Redis", zap.Error(err))
		}
	}
	if err := database.Close(); err != nil {
		zap.L().Error("Failed to close MongoDB", zap.Error(err))
	}

	zap.L().Info("Purchase Import Service stopped gracefully")
}

package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	aws_pkg "github.com/lokeshwar-Vaccel/Accel-ERP-sub007/pkg/aws"
	"go.uber.org/zap"
)

// Config holds all environment variables for the purchase import service.
type Config struct {
	Port        string
	Environment string

	MongoURI string
	MongoDB  string
	RedisURL string

	JWTSecret      string
	AllowedOrigins string

	ImportStorageDir string
	MaxUploadBytes   int64
	ImportTimeout    time.Duration

	S3Bucket          string
	S3Prefix          string
	ImportSNSTopicArn string
	ImportRunsTable   string

	CloudWatchEnabled bool
	UseSecrets        bool
	SecretsPrefix     string
}

// LoadConfig reads Config from the environment and validates it. With
// AWS_USE_SECRETS=true the JWT secret and Mongo URI are read from Secrets
// Manager, falling back to env vars on failure.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Port:              getEnv("PORT", "8086"),
		Environment:       getEnv("APP_ENV", "development"),
		MongoURI:          os.Getenv("MONGO_URI"),
		MongoDB:           getEnv("MONGO_DB", "accel_erp"),
		RedisURL:          os.Getenv("REDIS_URL"),
		JWTSecret:         os.Getenv("JWT_SECRET"),
		AllowedOrigins:    os.Getenv("ALLOWED_ORIGINS"),
		ImportStorageDir:  getEnv("IMPORT_STORAGE_DIR", "./data/purchase_imports"),
		S3Bucket:          os.Getenv("AWS_S3_BUCKET"),
		S3Prefix:          getEnv("AWS_S3_PREFIX", "purchase-imports"),
		ImportSNSTopicArn: os.Getenv("IMPORT_SNS_TOPIC_ARN"),
		ImportRunsTable:   os.Getenv("DDB_TABLE_IMPORT_RUNS"),
		CloudWatchEnabled: os.Getenv("CLOUDWATCH_ENABLED") == "true",
		UseSecrets:        os.Getenv("AWS_USE_SECRETS") == "true",
		SecretsPrefix:     getEnv("AWS_SECRETS_PREFIX", aws_pkg.DefaultSecretsPrefix),
	}

	maxMB, err := getEnvInt("MAX_UPLOAD_MB", 10)
	if err != nil {
		return nil, err
	}
	cfg.MaxUploadBytes = int64(maxMB) * 1024 * 1024

	timeoutSec, err := getEnvInt("IMPORT_TIMEOUT_SECONDS", 300)
	if err != nil {
		return nil, err
	}
	cfg.ImportTimeout = time.Duration(timeoutSec) * time.Second

	if cfg.UseSecrets {
		loadSecrets(cfg)
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.MongoURI == "" {
		return nil, fmt.Errorf("MONGO_URI is required")
	}
	if maxMB <= 0 {
		return nil, fmt.Errorf("MAX_UPLOAD_MB must be positive")
	}
	if timeoutSec <= 0 {
		return nil, fmt.Errorf("IMPORT_TIMEOUT_SECONDS must be positive")
	}
	return cfg, nil
}

func loadSecrets(cfg *Config) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	awsCfg, err := aws_pkg.LoadAWSConfig(ctx)
	if err != nil {
		zap.L().Warn("Secrets Manager unavailable, using env", zap.Error(err))
		return
	}
	secrets := aws_pkg.NewServiceSecrets(awsCfg, cfg.SecretsPrefix)

	found, failed := secrets.Lookup(ctx, "JWT_SECRET", "MONGO_URI")
	for key, err := range failed {
		zap.L().Warn("failed to read secret, using env", zap.String("key", key), zap.Error(err))
	}
	if v, ok := found["JWT_SECRET"]; ok {
		cfg.JWTSecret = v
	}
	if v, ok := found["MONGO_URI"]; ok {
		cfg.MongoURI = v
	}
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

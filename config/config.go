package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"

	StorageLocal = "local"
	StorageS3    = "s3"
)

// failure policy values accepted by CODEC_ERROR_POLICY and MISSING_PRIOR_POLICY
const (
	CodecErrorAbort        = "abort"
	CodecErrorKeepOriginal = "keep-original"

	MissingPriorSkip = "skip"
	MissingPriorFail = "fail"
)

const (
	defaultMaxUploadMB         = 20
	defaultMetadataQueueSize   = 200
	defaultNumMetadataWorkers  = 2
	defaultCacheTTLSeconds     = 300
	defaultMediaURL            = "/media/"
	defaultCORSAllowedOrigin   = "http://localhost:5173"
	defaultS3Region            = "us-east-1"
	defaultPort                = "8080"
	defaultDatabaseSQLitePath  = "portfolio.db"
	defaultMediaStorageSubPath = "media_storage"
)

type S3Options struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	PublicBaseURL   string // used to build attachment URLs; falls back to MEDIA_URL
	PathStyle       bool
}

type Config struct {
	Port string
	Env  string

	// database
	DBDriver    string
	DatabaseDSN string // sqlite file path or mysql DSN

	// attachment storage
	StorageBackend   string
	MediaStoragePath string // local root for attachments
	MediaURL         string // public URL prefix for attachments
	S3               S3Options

	// ingestion
	MaxUploadBytes     int64
	CodecErrorPolicy   string
	MissingPriorPolicy string
	MediaPolicyFile    string // optional YAML override of the compression table

	// http
	CORSAllowedOrigins []string

	// public read cache; empty RedisURL disables it
	RedisURL        string
	CacheTTLSeconds int

	// metadata backfill worker settings
	MetadataQueueSize  int
	NumMetadataWorkers int
}

// IsDevelopment reports whether APP_ENV asks for development logging
func (c Config) IsDevelopment() bool {
	return c.Env == "development" || c.Env == "dev"
}

func getEnvOrDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvIntOrDefault(envVar string, defaultVal int) int {
	valStr := os.Getenv(envVar)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(valStr)
	if err != nil || val <= 0 {
		log.Printf("Warning: Invalid %s '%s'. Using default %d. Error: %v", envVar, valStr, defaultVal, err)
		return defaultVal
	}
	return val
}

func getEnvBool(envVar string) bool {
	v, err := strconv.ParseBool(os.Getenv(envVar))
	return err == nil && v
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func LoadConfig() (Config, error) {
	driver := strings.ToLower(getEnvOrDefault("DB_DRIVER", DriverSQLite))
	if driver != DriverSQLite && driver != DriverMySQL {
		return Config{}, fmt.Errorf("unsupported DB_DRIVER '%s' (want %s or %s)", driver, DriverSQLite, DriverMySQL)
	}

	dsn := os.Getenv("DATABASE_DSN")
	if dsn == "" {
		if driver == DriverMySQL {
			return Config{}, fmt.Errorf("DATABASE_DSN is required when DB_DRIVER=%s", DriverMySQL)
		}
		dsn = getEnvOrDefault("DATABASE_PATH", defaultDatabaseSQLitePath)
	}

	mediaStorage := getEnvOrDefault("MEDIA_STORAGE_PATH", filepath.Join(".", defaultMediaStorageSubPath))
	absMediaStorage, err := filepath.Abs(mediaStorage)
	if err != nil {
		return Config{}, fmt.Errorf("failed to get absolute path for media storage '%s': %w", mediaStorage, err)
	}

	backend := strings.ToLower(getEnvOrDefault("STORAGE_BACKEND", StorageLocal))
	if backend != StorageLocal && backend != StorageS3 {
		return Config{}, fmt.Errorf("unsupported STORAGE_BACKEND '%s'", backend)
	}

	s3Opts := S3Options{
		Bucket:          strings.TrimSpace(os.Getenv("S3_BUCKET")),
		Region:          getEnvOrDefault("S3_REGION", defaultS3Region),
		Endpoint:        strings.TrimSpace(os.Getenv("S3_ENDPOINT")),
		AccessKeyID:     strings.TrimSpace(os.Getenv("S3_ACCESS_KEY_ID")),
		SecretAccessKey: strings.TrimSpace(os.Getenv("S3_SECRET_ACCESS_KEY")),
		PublicBaseURL:   strings.TrimRight(strings.TrimSpace(os.Getenv("S3_PUBLIC_BASE_URL")), "/"),
		PathStyle:       getEnvBool("S3_PATH_STYLE"),
	}
	if backend == StorageS3 && s3Opts.Bucket == "" {
		return Config{}, fmt.Errorf("S3_BUCKET is required when STORAGE_BACKEND=%s", StorageS3)
	}

	mediaURL := getEnvOrDefault("MEDIA_URL", defaultMediaURL)
	if !strings.HasSuffix(mediaURL, "/") {
		mediaURL += "/"
	}

	codecPolicy := strings.ToLower(getEnvOrDefault("CODEC_ERROR_POLICY", CodecErrorAbort))
	if codecPolicy != CodecErrorAbort && codecPolicy != CodecErrorKeepOriginal {
		return Config{}, fmt.Errorf("unsupported CODEC_ERROR_POLICY '%s'", codecPolicy)
	}
	priorPolicy := strings.ToLower(getEnvOrDefault("MISSING_PRIOR_POLICY", MissingPriorSkip))
	if priorPolicy != MissingPriorSkip && priorPolicy != MissingPriorFail {
		return Config{}, fmt.Errorf("unsupported MISSING_PRIOR_POLICY '%s'", priorPolicy)
	}

	origins := splitList(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if len(origins) == 0 {
		origins = []string{defaultCORSAllowedOrigin}
	}

	cfg := Config{
		Port:               getEnvOrDefault("PORT", defaultPort),
		Env:                strings.ToLower(getEnvOrDefault("APP_ENV", "production")),
		DBDriver:           driver,
		DatabaseDSN:        dsn,
		StorageBackend:     backend,
		MediaStoragePath:   absMediaStorage,
		MediaURL:           mediaURL,
		S3:                 s3Opts,
		MaxUploadBytes:     int64(getEnvIntOrDefault("MAX_UPLOAD_MB", defaultMaxUploadMB)) * 1024 * 1024,
		CodecErrorPolicy:   codecPolicy,
		MissingPriorPolicy: priorPolicy,
		MediaPolicyFile:    os.Getenv("MEDIA_POLICY_FILE"),
		CORSAllowedOrigins: origins,
		RedisURL:           os.Getenv("REDIS_URL"),
		CacheTTLSeconds:    getEnvIntOrDefault("CACHE_TTL_SECONDS", defaultCacheTTLSeconds),
		MetadataQueueSize:  getEnvIntOrDefault("METADATA_QUEUE_SIZE", defaultMetadataQueueSize),
		NumMetadataWorkers: getEnvIntOrDefault("NUM_METADATA_WORKERS", defaultNumMetadataWorkers),
	}

	return cfg, nil
}

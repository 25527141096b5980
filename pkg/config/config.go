package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port            string
	Env             string        // development, staging, production
	APIWriteTimeout time.Duration // 긴 시계열 CSV 응답 고려

	// Database
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// Pipeline
	Pipeline PipelineConfig

	// HTTP price source
	HTTP HTTPConfig

	// Logging
	LogLevel  string
	LogFormat string

	// Monitoring
	MetricsEnabled bool
	MetricsPort    string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
	TTL      time.Duration // 시계열 캐시 TTL
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	URL      string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// HTTPConfig holds outgoing HTTP client settings
type HTTPConfig struct {
	Timeout       time.Duration
	MaxRetries    int
	RatePerSecond float64 // 0 = 무제한
}

// PipelineConfig holds roll/stitch pipeline settings
type PipelineConfig struct {
	RollConfigPath string  // 종목별 롤 파라미터 YAML
	Source         string  // csv | db | http
	PriceDir       string  // CSV 월물 가격 디렉터리
	PriceURL       string  // HTTP 월물 가격 base URL
	Workers        int     // 동시 처리 종목 수
	RatePerSecond  float64 // 종목 시작 속도 제한 (0 = 무제한)
	StitchMethod   string  // panama | ratio | difference
	ScheduleCron   string  // 일일 업데이트 cron (초 포함)
}

// Source kinds
const (
	SourceCSV  = "csv"
	SourceDB   = "db"
	SourceHTTP = "http"
)

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	// Try multiple paths for .env file
	loadEnvFile()

	cfg := &Config{
		// Server
		Port:            getEnv("PORT", "8089"),
		Env:             getEnv("ENV", "development"),
		APIWriteTimeout: getEnvAsDuration("API_WRITE_TIMEOUT", "60s"),

		// Database
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			Name:            getEnv("DB_NAME", "rollstitch"),
			User:            getEnv("DB_USER", "rollstitch"),
			Password:        getEnv("DB_PASSWORD", ""),
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 25),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 5),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		// Redis
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
			TTL:      getEnvAsDuration("REDIS_TTL", "24h"),
		},

		// Pipeline
		Pipeline: PipelineConfig{
			RollConfigPath: getEnv("ROLL_CONFIG_PATH", "configs/roll_config.yaml"),
			Source:         getEnv("PRICE_SOURCE", SourceCSV),
			PriceDir:       getEnv("PRICE_DIR", "data/contracts"),
			PriceURL:       getEnv("PRICE_URL", ""),
			Workers:        getEnvAsInt("PIPELINE_WORKERS", 4),
			RatePerSecond:  getEnvAsFloat("PIPELINE_RATE_PER_SEC", 0),
			StitchMethod:   getEnv("STITCH_METHOD", "panama"),
			ScheduleCron:   getEnv("SCHEDULE_CRON", "0 30 18 * * 1-5"),
		},

		// HTTP
		HTTP: HTTPConfig{
			Timeout:       getEnvAsDuration("HTTP_TIMEOUT", "30s"),
			MaxRetries:    getEnvAsInt("HTTP_MAX_RETRIES", 3),
			RatePerSecond: getEnvAsFloat("HTTP_RATE_PER_SEC", 0),
		},

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		// Monitoring
		MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
		MetricsPort:    getEnv("METRICS_PORT", "9090"),
	}

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	// Validate environment
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	switch c.Pipeline.Source {
	case SourceCSV:
		if c.Pipeline.PriceDir == "" {
			return fmt.Errorf("PRICE_DIR is required when PRICE_SOURCE=csv")
		}
	case SourceDB:
		// Database URL is required for the db source
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is required when PRICE_SOURCE=db")
		}
	case SourceHTTP:
		if c.Pipeline.PriceURL == "" {
			return fmt.Errorf("PRICE_URL is required when PRICE_SOURCE=http")
		}
	default:
		return fmt.Errorf("PRICE_SOURCE must be one of: csv, db, http")
	}

	if c.Pipeline.Workers < 1 {
		return fmt.Errorf("PIPELINE_WORKERS must be >= 1")
	}
	if c.Pipeline.RatePerSecond < 0 {
		return fmt.Errorf("PIPELINE_RATE_PER_SEC must be >= 0")
	}

	switch c.Pipeline.StitchMethod {
	case "panama", "ratio", "difference":
	default:
		return fmt.Errorf("STITCH_METHOD must be one of: panama, ratio, difference")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	// Try paths in order of priority
	paths := []string{
		".env",         // Current directory
		"backend/.env", // From project root
	}

	// Also try relative to executable
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		// Fallback to default
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}

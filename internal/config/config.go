// internal/config/config.go

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Environment string
	Server      ServerConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	NATS        NATSConfig
	Vendor      VendorConfig
	AI          AIConfig
	Pipeline    PipelineConfig
	Cache       CacheConfig
	Lock        LockConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	CorsOrigins     []string
}

// DatabaseConfig holds the analysis-history database configuration.
// The store is optional: an empty Host disables it.
type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Database     string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
	SSLMode      string
}

// RedisConfig holds cache/lock backend configuration. An empty URL
// disables caching and locking (the pipeline still runs).
type RedisConfig struct {
	URL          string
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// NATSConfig holds event bus configuration. An empty URL disables
// event publishing.
type NATSConfig struct {
	URL            string
	MaxReconnects  int
	ReconnectWait  time.Duration
	ConnectTimeout time.Duration
	EventsSubject  string
}

// VendorConfig holds social-data vendor API configuration
type VendorConfig struct {
	BaseURL       string
	APIToken      string
	Timeout       time.Duration
	RequestDelay  time.Duration
	RetryAttempts int
	RetryBaseWait time.Duration
	RetryMaxWait  time.Duration
}

// AIConfig holds configuration for the AI collaborators
type AIConfig struct {
	BaseURL     string
	APIKey      string
	TextModel   string
	VisionModel string
	NicheModel  string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// PipelineConfig is the single canonical home for every threshold,
// weight and cap the pipeline uses. Values are tunable via environment
// without code changes.
type PipelineConfig struct {
	// Discovery
	MaxPostsPerUser    int
	MaxHashtags        int
	VideosPerHashtag   int
	TargetTrendCount   int
	OverallTrendCap    int
	SearchWindowDays   int
	WidenedWindowDays  int
	BackupHashtags     []string
	FallbackTags       []string
	TopPostsForAI      int

	// Quality cascade
	StrictMinEngagement float64
	StrictMinViews      int
	StrictMinLikes      int
	RelaxedMinViews     int
	RelaxedMinLikes     int
	QualityMaxAgeDays   int
	RankedPoolSize      int

	// Composite score weights
	ViewWeight       float64
	LikeWeight       float64
	CommentWeight    float64
	ShareWeight      float64
	EngagementWeight float64

	// Lock-contention behaviour
	BusyWait         time.Duration
	BusyPollInterval time.Duration
}

// CacheConfig holds the per-namespace TTL table
type CacheConfig struct {
	ProfileTTL   time.Duration
	PostsTTL     time.Duration
	TrendsTTL    time.Duration
	AnalysisTTL  time.Duration
	RelevanceTTL time.Duration
}

// LockConfig holds distributed lock configuration
type LockConfig struct {
	TTL time.Duration
}

// Load loads configuration from environment variables
func Load() (Config, error) {
	config := Config{
		Environment: getEnv("APP_ENV", "development"),
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvAsInt("SERVER_PORT", 8080),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 120*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			CorsOrigins:     getEnvAsSlice("SERVER_CORS_ORIGINS", []string{"*"}),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", ""),
			Port:         getEnvAsInt("DB_PORT", 5432),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", "postgres"),
			Database:     getEnv("DB_NAME", "trendscout"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			MaxLifetime:  getEnvAsDuration("DB_MAX_LIFETIME", 5*time.Minute),
			SSLMode:      getEnv("DB_SSL_MODE", "disable"),
		},
		Redis: RedisConfig{
			URL:          getEnv("REDIS_URL", ""),
			DialTimeout:  getEnvAsDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getEnvAsDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getEnvAsDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		NATS: NATSConfig{
			URL:            getEnv("NATS_URL", ""),
			MaxReconnects:  getEnvAsInt("NATS_MAX_RECONNECTS", 10),
			ReconnectWait:  getEnvAsDuration("NATS_RECONNECT_WAIT", 1*time.Second),
			ConnectTimeout: getEnvAsDuration("NATS_CONNECT_TIMEOUT", 2*time.Second),
			EventsSubject:  getEnv("NATS_EVENTS_SUBJECT", "trends.analysis.completed"),
		},
		Vendor: VendorConfig{
			BaseURL:       getEnv("VENDOR_BASE_URL", "https://ensembledata.com/apis"),
			APIToken:      getEnv("VENDOR_API_TOKEN", ""),
			Timeout:       getEnvAsDuration("VENDOR_TIMEOUT", 30*time.Second),
			RequestDelay:  getEnvAsDuration("VENDOR_REQUEST_DELAY", 1*time.Second),
			RetryAttempts: getEnvAsInt("VENDOR_RETRY_ATTEMPTS", 3),
			RetryBaseWait: getEnvAsDuration("VENDOR_RETRY_BASE_WAIT", 1*time.Second),
			RetryMaxWait:  getEnvAsDuration("VENDOR_RETRY_MAX_WAIT", 10*time.Second),
		},
		AI: AIConfig{
			BaseURL:     getEnv("AI_BASE_URL", "https://api.openai.com/v1"),
			APIKey:      getEnv("AI_API_KEY", ""),
			TextModel:   getEnv("AI_TEXT_MODEL", "gpt-4o"),
			VisionModel: getEnv("AI_VISION_MODEL", "gpt-4o"),
			NicheModel:  getEnv("AI_NICHE_MODEL", "gpt-4o"),
			Temperature: getEnvAsFloat("AI_TEMPERATURE", 0.3),
			MaxTokens:   getEnvAsInt("AI_MAX_TOKENS", 500),
			Timeout:     getEnvAsDuration("AI_TIMEOUT", 60*time.Second),
		},
		Pipeline: PipelineConfig{
			MaxPostsPerUser:   getEnvAsInt("PIPELINE_MAX_POSTS_PER_USER", 20),
			MaxHashtags:       getEnvAsInt("PIPELINE_MAX_HASHTAGS", 5),
			VideosPerHashtag:  getEnvAsInt("PIPELINE_VIDEOS_PER_HASHTAG", 2),
			TargetTrendCount:  getEnvAsInt("PIPELINE_TARGET_TREND_COUNT", 10),
			OverallTrendCap:   getEnvAsInt("PIPELINE_OVERALL_TREND_CAP", 15),
			SearchWindowDays:  getEnvAsInt("PIPELINE_SEARCH_WINDOW_DAYS", 7),
			WidenedWindowDays: getEnvAsInt("PIPELINE_WIDENED_WINDOW_DAYS", 30),
			BackupHashtags: getEnvAsSlice("PIPELINE_BACKUP_HASHTAGS", []string{
				"fyp", "viral", "trending", "foryou", "tiktok",
				"dance", "comedy", "music", "lifestyle",
			}),
			FallbackTags: getEnvAsSlice("PIPELINE_FALLBACK_TAGS", []string{
				"contentcreator", "creative", "creator", "content", "original",
			}),
			TopPostsForAI: getEnvAsInt("PIPELINE_TOP_POSTS_FOR_AI", 5),

			StrictMinEngagement: getEnvAsFloat("PIPELINE_STRICT_MIN_ENGAGEMENT", 0.02),
			StrictMinViews:      getEnvAsInt("PIPELINE_STRICT_MIN_VIEWS", 10000),
			StrictMinLikes:      getEnvAsInt("PIPELINE_STRICT_MIN_LIKES", 200),
			RelaxedMinViews:     getEnvAsInt("PIPELINE_RELAXED_MIN_VIEWS", 5000),
			RelaxedMinLikes:     getEnvAsInt("PIPELINE_RELAXED_MIN_LIKES", 50),
			QualityMaxAgeDays:   getEnvAsInt("PIPELINE_QUALITY_MAX_AGE_DAYS", 14),
			RankedPoolSize:      getEnvAsInt("PIPELINE_RANKED_POOL_SIZE", 30),

			ViewWeight:       getEnvAsFloat("PIPELINE_VIEW_WEIGHT", 0.3),
			LikeWeight:       getEnvAsFloat("PIPELINE_LIKE_WEIGHT", 8),
			CommentWeight:    getEnvAsFloat("PIPELINE_COMMENT_WEIGHT", 15),
			ShareWeight:      getEnvAsFloat("PIPELINE_SHARE_WEIGHT", 20),
			EngagementWeight: getEnvAsFloat("PIPELINE_ENGAGEMENT_WEIGHT", 50000),

			BusyWait:         getEnvAsDuration("PIPELINE_BUSY_WAIT", 10*time.Second),
			BusyPollInterval: getEnvAsDuration("PIPELINE_BUSY_POLL_INTERVAL", 2*time.Second),
		},
		Cache: CacheConfig{
			ProfileTTL:   getEnvAsDuration("CACHE_PROFILE_TTL", 30*time.Minute),
			PostsTTL:     getEnvAsDuration("CACHE_POSTS_TTL", 15*time.Minute),
			TrendsTTL:    getEnvAsDuration("CACHE_TRENDS_TTL", 5*time.Minute),
			AnalysisTTL:  getEnvAsDuration("CACHE_ANALYSIS_TTL", 5*time.Minute),
			RelevanceTTL: getEnvAsDuration("CACHE_RELEVANCE_TTL", 1*time.Hour),
		},
		Lock: LockConfig{
			TTL: getEnvAsDuration("LOCK_TTL", 30*time.Second),
		},
	}

	return config, validate(config)
}

// validate checks if config is valid
func validate(config Config) error {
	if config.Vendor.APIToken == "" && config.Environment != "development" {
		return fmt.Errorf("VENDOR_API_TOKEN must be set in non-development environments")
	}
	if config.Pipeline.TargetTrendCount <= 0 {
		return fmt.Errorf("PIPELINE_TARGET_TREND_COUNT must be positive")
	}
	if config.Pipeline.OverallTrendCap < config.Pipeline.TargetTrendCount {
		return fmt.Errorf("PIPELINE_OVERALL_TREND_CAP must be at least the target trend count")
	}
	if config.Pipeline.WidenedWindowDays < config.Pipeline.SearchWindowDays {
		return fmt.Errorf("PIPELINE_WIDENED_WINDOW_DAYS must not be narrower than the search window")
	}

	return nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

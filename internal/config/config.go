package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/dealsense/salesapi/pkg/models"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Kafka      KafkaConfig      `mapstructure:"kafka"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Quota      QuotaConfig      `mapstructure:"quota"`
	LLM        LLMConfig        `mapstructure:"llm"`
	STT        STTConfig        `mapstructure:"stt"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
	Security   SecurityConfig   `mapstructure:"security"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	URL            string        `mapstructure:"url"`
	MaxConnections int           `mapstructure:"max_connections"`
	MaxIdleTime    time.Duration `mapstructure:"max_idle_time"`
	MaxLifetime    time.Duration `mapstructure:"max_lifetime"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

type RedisConfig struct {
	URL        string        `mapstructure:"url"`
	MaxRetries int           `mapstructure:"max_retries"`
	PoolSize   int           `mapstructure:"pool_size"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

type KafkaConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Brokers []string `mapstructure:"brokers"`
	Topics  struct {
		UsageEvents string `mapstructure:"usage_events"`
	} `mapstructure:"topics"`
}

type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

// QuotaConfig carries the monthly cap table: feature -> tier -> cap, 0 means
// unlimited. Caps are adjusted in configuration, never in endpoint code.
type QuotaConfig struct {
	Limits map[string]map[string]int `mapstructure:"limits"`
}

// Policy converts the raw config table into the immutable runtime policy.
// Unknown tier keys are dropped rather than guessed at.
func (q QuotaConfig) Policy() models.RateLimitPolicy {
	policy := make(models.RateLimitPolicy, len(q.Limits))
	for feature, table := range q.Limits {
		caps := make(map[models.Tier]int, len(table))
		for tierName, limit := range table {
			tier, err := models.ParseTier(tierName)
			if err != nil {
				continue
			}
			caps[tier] = limit
		}
		policy[models.Feature(feature)] = caps
	}
	return policy
}

type LLMConfig struct {
	APIKey         string        `mapstructure:"api_key"`
	BaseURL        string        `mapstructure:"base_url"`
	Model          string        `mapstructure:"model"`
	MaxTokens      int           `mapstructure:"max_tokens"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	CoachTimeout   time.Duration `mapstructure:"coach_timeout"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelay     time.Duration `mapstructure:"retry_delay"`
}

type STTConfig struct {
	APIKey         string        `mapstructure:"api_key"`
	BaseURL        string        `mapstructure:"base_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

type StorageConfig struct {
	Endpoint        string        `mapstructure:"endpoint"`
	Region          string        `mapstructure:"region"`
	AccessKeyID     string        `mapstructure:"access_key_id"`
	SecretAccessKey string        `mapstructure:"secret_access_key"`
	Bucket          string        `mapstructure:"bucket"`
	PresignExpiry   time.Duration `mapstructure:"presign_expiry"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type MonitoringConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	MetricsPath string `mapstructure:"metrics_path"`
}

type SecurityConfig struct {
	CORS CORSConfig `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
	AllowedHeaders []string `mapstructure:"allowed_headers"`
}

func Load() (*Config, error) {
	viper.SetConfigName("app")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	viper.AddConfigPath(".")

	setDefaults()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		// Config file is optional, continue with env vars and defaults
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults() {
	// Server defaults
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.mode", "development")

	// Database defaults
	viper.SetDefault("database.max_connections", 25)
	viper.SetDefault("database.max_idle_time", "15m")
	viper.SetDefault("database.max_lifetime", "1h")
	viper.SetDefault("database.connect_timeout", "10s")

	// Redis defaults
	viper.SetDefault("redis.max_retries", 3)
	viper.SetDefault("redis.pool_size", 10)
	viper.SetDefault("redis.timeout", "5s")

	// Kafka defaults
	viper.SetDefault("kafka.enabled", false)
	viper.SetDefault("kafka.topics.usage_events", "usage-events")

	// Auth defaults
	viper.SetDefault("auth.token_ttl", "24h")

	// Monthly quota caps per feature and tier; 0 means unlimited
	viper.SetDefault("quota.limits.ocr", map[string]int{"basic": 50, "pro": 500, "business": 0})
	viper.SetDefault("quota.limits.analyze", map[string]int{"basic": 20, "pro": 200, "business": 0})
	viper.SetDefault("quota.limits.email", map[string]int{"basic": 30, "pro": 300, "business": 0})
	viper.SetDefault("quota.limits.coach", map[string]int{"basic": 0, "pro": 1000, "business": 0})
	viper.SetDefault("quota.limits.transcribe", map[string]int{"basic": 10, "pro": 100, "business": 0})
	viper.SetDefault("quota.limits.upload", map[string]int{"basic": 100, "pro": 1000, "business": 0})

	// LLM provider defaults
	viper.SetDefault("llm.base_url", "https://api.anthropic.com/v1/messages")
	viper.SetDefault("llm.model", "claude-3-5-sonnet-20241022")
	viper.SetDefault("llm.max_tokens", 2048)
	viper.SetDefault("llm.request_timeout", "60s")
	viper.SetDefault("llm.coach_timeout", "10s")
	viper.SetDefault("llm.max_retries", 2)
	viper.SetDefault("llm.retry_delay", "1s")

	// STT provider defaults
	viper.SetDefault("stt.base_url", "https://api.assemblyai.com/v2")
	viper.SetDefault("stt.request_timeout", "30s")

	// Storage defaults
	viper.SetDefault("storage.region", "auto")
	viper.SetDefault("storage.presign_expiry", "15m")

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")

	// Monitoring defaults
	viper.SetDefault("monitoring.enabled", true)
	viper.SetDefault("monitoring.metrics_path", "/metrics")

	// Security defaults
	viper.SetDefault("security.cors.allowed_origins", []string{"http://localhost:3000"})
	viper.SetDefault("security.cors.allowed_methods", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	viper.SetDefault("security.cors.allowed_headers", []string{"Origin", "Content-Type", "Authorization"})
}

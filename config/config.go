package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	OpenAI    OpenAIConfig
	Database  DatabaseConfig
	Jobs      JobsConfig
	Storage   StorageConfig
	Upload    UploadConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	TrustedProxies []string `mapstructure:"trusted_proxies"` // peers allowed to set X-Forwarded-For
}

// OpenAIConfig holds the vision model configuration
type OpenAIConfig struct {
	APIKey    string        `mapstructure:"api_key"`
	BaseURL   string        `mapstructure:"base_url"`
	Model     string        `mapstructure:"model"`
	MaxTokens int           `mapstructure:"max_tokens"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// DatabaseConfig holds Postgres configuration
type DatabaseConfig struct {
	URL         string `mapstructure:"url"`
	AutoMigrate bool   `mapstructure:"auto_migrate"`
}

// JobsConfig holds scan job configuration
type JobsConfig struct {
	Store         string        `mapstructure:"store"` // "memory" or "redis"
	RedisURL      string        `mapstructure:"redis_url"`
	TTL           time.Duration `mapstructure:"ttl"`
	Workers       int           `mapstructure:"workers"`
	PollInterval  time.Duration `mapstructure:"poll_interval"`
	SweepSchedule string        `mapstructure:"sweep_schedule"`
}

// StorageConfig holds label image archive configuration
type StorageConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	Prefix    string `mapstructure:"prefix"`
	PublicURL string `mapstructure:"public_url"`
}

// UploadConfig holds upload limits
type UploadConfig struct {
	MaxBytes int64 `mapstructure:"max_bytes"`
}

// RateLimitConfig holds rate limiting configuration, in requests per minute
type RateLimitConfig struct {
	PerIP int `mapstructure:"per_ip"`
	LLM   int `mapstructure:"llm"`
}

// Load loads configuration from a .env file, environment variables and config files
func Load() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/labelscan/")

	// Environment variable settings
	v.SetEnvPrefix("LABELSCAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set default values
	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// loadEnvFile loads ./.env when present. Variables already set in the
// environment are not overridden.
func loadEnvFile() error {
	err := godotenv.Load()
	if err != nil && errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:*"})
	v.SetDefault("server.trusted_proxies", []string{})

	// OpenAI defaults
	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("openai.max_tokens", 500)
	v.SetDefault("openai.timeout", "60s")

	// Database defaults
	v.SetDefault("database.url", "")
	v.SetDefault("database.auto_migrate", true)

	// Job defaults
	v.SetDefault("jobs.store", "memory")
	v.SetDefault("jobs.redis_url", "")
	v.SetDefault("jobs.ttl", "1h")
	v.SetDefault("jobs.workers", 4)
	v.SetDefault("jobs.poll_interval", "1s")
	v.SetDefault("jobs.sweep_schedule", "@every 10m")

	// Storage defaults
	v.SetDefault("storage.enabled", false)
	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.region", "eu-central-1")
	v.SetDefault("storage.prefix", "labels")
	v.SetDefault("storage.public_url", "")

	// Upload defaults
	v.SetDefault("upload.max_bytes", 10<<20) // 10 MiB

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 30)
	v.SetDefault("ratelimit.llm", 60)
}

// validate validates the configuration
func validate(config *Config) error {
	if config.OpenAI.APIKey == "" {
		return fmt.Errorf("OpenAI API key is required (set LABELSCAN_OPENAI_API_KEY)")
	}

	if config.Database.URL == "" {
		return fmt.Errorf("database URL is required (set LABELSCAN_DATABASE_URL)")
	}

	if config.Jobs.Store != "memory" && config.Jobs.Store != "redis" {
		return fmt.Errorf("job store must be 'memory' or 'redis', got: %s", config.Jobs.Store)
	}

	if config.Jobs.Store == "redis" && config.Jobs.RedisURL == "" {
		return fmt.Errorf("Redis URL is required when job store is 'redis'")
	}

	if config.Jobs.Workers < 1 {
		return fmt.Errorf("jobs.workers must be at least 1, got: %d", config.Jobs.Workers)
	}

	if config.Storage.Enabled && config.Storage.Bucket == "" {
		return fmt.Errorf("storage bucket is required when storage is enabled")
	}

	if config.Upload.MaxBytes <= 0 {
		return fmt.Errorf("upload.max_bytes must be positive, got: %d", config.Upload.MaxBytes)
	}

	return nil
}

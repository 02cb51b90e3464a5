package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/ignite/campaign-optimizer/internal/engine"
)

// Config holds all configuration for the application
type Config struct {
	Server         ServerConfig                  `yaml:"server"`
	Budget         BudgetConfig                  `yaml:"budget"`
	Batch          BatchConfig                   `yaml:"batch"`
	Rules          []*engine.OptimizationRule    `yaml:"rules"`
	BidAdjustments engine.StaticAdjustmentTables `yaml:"bid_adjustments"`
	Redis          RedisConfig                   `yaml:"redis"`
	Database       DatabaseConfig                `yaml:"database"`
	Storage        StorageConfig                 `yaml:"storage"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// GetHost returns the server host, with container detection
func (c ServerConfig) GetHost() string {
	// On ECS/container, listen on all interfaces
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return "0.0.0.0"
	}
	// Allow override via environment
	if host := os.Getenv("SERVER_HOST"); host != "" {
		return host
	}
	return c.Host
}

// BudgetConfig holds the shared budget pool the allocator and alerting work
// against.
type BudgetConfig struct {
	MonthlyTotal float64 `yaml:"monthly_total"`
}

// BatchConfig holds decision batch scheduling configuration
type BatchConfig struct {
	IntervalSeconds int `yaml:"interval_seconds"`
}

// Interval returns the batch interval as a duration
func (c BatchConfig) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}

// RedisConfig holds the snapshot cache configuration
type RedisConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Addr       string `yaml:"addr"`
	Password   string `yaml:"password"`
	DB         int    `yaml:"db"`
	TTLSeconds int    `yaml:"ttl_seconds"`
}

// TTL returns the cache entry lifetime as a duration
func (c RedisConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

// DatabaseConfig holds the Postgres connection for rule sets and the
// decision log
type DatabaseConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
}

// StorageConfig holds batch archive storage configuration
type StorageConfig struct {
	Type          string `yaml:"type"` // "aws" or "local"
	LocalPath     string `yaml:"local_path"`
	S3Bucket      string `yaml:"s3_bucket"`
	DynamoDBTable string `yaml:"dynamodb_table"`
	AWSRegion     string `yaml:"aws_region"`
	AWSProfile    string `yaml:"aws_profile"` // Empty string uses default credential chain (IAM role on ECS)
}

// GetAWSProfile returns the AWS profile, with environment variable override
func (c StorageConfig) GetAWSProfile() string {
	if envProfile := os.Getenv("AWS_PROFILE_OVERRIDE"); envProfile != "" {
		if envProfile == "none" || envProfile == "iam" {
			return "" // Use default credential chain (IAM role)
		}
		return envProfile
	}
	// On ECS/Lambda, don't use a profile - use IAM role
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return ""
	}
	return c.AWSProfile
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	// Set defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Batch.IntervalSeconds == 0 {
		cfg.Batch.IntervalSeconds = 3600
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = "localhost:6379"
	}
	if cfg.Redis.TTLSeconds == 0 {
		cfg.Redis.TTLSeconds = 3600
	}
	if cfg.Storage.Type == "" {
		cfg.Storage.Type = "local"
	}
	if cfg.Storage.LocalPath == "" {
		cfg.Storage.LocalPath = "./data"
	}
	if cfg.Storage.AWSRegion == "" {
		cfg.Storage.AWSRegion = "us-east-1"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations the engine would refuse at startup. A
// single malformed rule fails the whole file.
func (c *Config) Validate() error {
	if c.Budget.MonthlyTotal < 0 {
		return fmt.Errorf("budget.monthly_total must not be negative")
	}
	if err := engine.ValidateRules(c.Rules); err != nil {
		return fmt.Errorf("rules: %w", err)
	}
	return nil
}

// LoadFromEnv loads configuration with environment variable overrides.
// It automatically loads a .env file (if present) before reading env vars,
// so secrets can live in .env locally and in real env vars on ECS.
func LoadFromEnv(path string) (*Config, error) {
	// Load .env file if it exists (no error if missing)
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	// Override with environment variables if present
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Redis.Addr = addr
		cfg.Redis.Enabled = true
	}
	if password := os.Getenv("REDIS_PASSWORD"); password != "" {
		cfg.Redis.Password = password
	}
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		cfg.Database.URL = dbURL
		if !cfg.Database.Enabled {
			cfg.Database.Enabled = true
		}
	}
	if bucket := os.Getenv("STORAGE_S3_BUCKET"); bucket != "" {
		cfg.Storage.S3Bucket = bucket
	}
	if table := os.Getenv("STORAGE_DYNAMODB_TABLE"); table != "" {
		cfg.Storage.DynamoDBTable = table
	}
	if region := os.Getenv("AWS_REGION"); region != "" {
		cfg.Storage.AWSRegion = region
	}

	return cfg, nil
}

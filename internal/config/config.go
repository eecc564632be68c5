// Package config handles configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	// Server configuration
	Host string `envconfig:"VULNSCOUT_HOST" yaml:"host"`
	Port int    `envconfig:"VULNSCOUT_PORT" yaml:"port"`

	// Completion service (OpenAI-compatible) configuration
	Completion CompletionConfig `yaml:"completion"`

	// Shodan device-search configuration
	Shodan ShodanConfig `yaml:"shodan"`

	// Pipeline configuration
	Pipeline PipelineConfig `yaml:"pipeline"`

	// Evaluation harness configuration
	Evaluation EvaluationConfig `yaml:"evaluation"`

	// Load test harness configuration
	LoadTest LoadTestConfig `yaml:"load_test"`

	// Bus configuration
	Bus BusConfig `yaml:"bus"`

	// Metrics history configuration
	History HistoryConfig `yaml:"history"`

	// Logging configuration
	Log LogConfig `yaml:"log"`

	// Security configuration
	Security SecurityConfig `yaml:"security"`
}

// CompletionConfig holds completion-service connection settings.
type CompletionConfig struct {
	BaseURL     string        `envconfig:"OPENAI_BASE_URL" yaml:"base_url"`
	APIKey      string        `envconfig:"OPENAI_API_KEY" yaml:"api_key"`
	Model       string        `envconfig:"OPENAI_MODEL" yaml:"model"`
	Temperature float64       `envconfig:"OPENAI_TEMPERATURE" yaml:"temperature"`
	MaxTokens   int           `envconfig:"OPENAI_MAX_TOKENS" yaml:"max_tokens"`
	Timeout     time.Duration `envconfig:"OPENAI_TIMEOUT" yaml:"timeout"`
}

// ShodanConfig holds device-search connection settings.
type ShodanConfig struct {
	BaseURL string        `envconfig:"SHODAN_BASE_URL" yaml:"base_url"`
	APIKey  string        `envconfig:"SHODAN_API_KEY" yaml:"api_key"`
	Timeout time.Duration `envconfig:"SHODAN_TIMEOUT" yaml:"timeout"`
}

// PipelineConfig holds pipeline defaults.
type PipelineConfig struct {
	DefaultLimit int `envconfig:"VULNSCOUT_DEFAULT_LIMIT" yaml:"default_limit"`
}

// EvaluationConfig holds sequential-harness settings.
type EvaluationConfig struct {
	Iterations int           `envconfig:"VULNSCOUT_EVAL_ITERATIONS" yaml:"iterations"`
	Cooldown   time.Duration `envconfig:"VULNSCOUT_EVAL_COOLDOWN" yaml:"cooldown"`
	OutputDir  string        `envconfig:"VULNSCOUT_EVAL_OUTPUT_DIR" yaml:"output_dir"`
}

// LoadTestConfig holds load-harness settings.
type LoadTestConfig struct {
	Users     int    `envconfig:"VULNSCOUT_LOAD_USERS" yaml:"users"`
	OutputDir string `envconfig:"VULNSCOUT_LOAD_OUTPUT_DIR" yaml:"output_dir"`
}

// BusConfig holds event bus settings.
type BusConfig struct {
	Type         string `envconfig:"VULNSCOUT_BUS_TYPE" yaml:"type"`
	KafkaBrokers string `envconfig:"VULNSCOUT_KAFKA_BROKERS" yaml:"kafka_brokers"`
	KafkaGroup   string `envconfig:"VULNSCOUT_KAFKA_GROUP" yaml:"kafka_group"`
}

// HistoryConfig holds latency-history storage settings.
type HistoryConfig struct {
	Enabled  bool   `envconfig:"VULNSCOUT_HISTORY_ENABLED" yaml:"enabled"`
	RedisURL string `envconfig:"VULNSCOUT_REDIS_URL" yaml:"redis_url"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `envconfig:"VULNSCOUT_LOG_LEVEL" yaml:"level"`
	Format string `envconfig:"VULNSCOUT_LOG_FORMAT" yaml:"format"`
}

// SecurityConfig holds security settings.
type SecurityConfig struct {
	RateLimit int `envconfig:"VULNSCOUT_RATE_LIMIT" yaml:"rate_limit"` // req/sec per client, 0 = disabled
}

// Load loads configuration from environment variables and optional config file.
func Load(configPath string) (*Config, error) {
	cfg := &Config{}

	// Set defaults first
	setDefaults(cfg)

	// Load from YAML file if provided (overrides defaults)
	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
	}

	// Override with environment variables (highest priority)
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("processing env config: %w", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables only.
func LoadFromEnv() (*Config, error) {
	return Load("")
}

func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, cfg)
}

func setDefaults(cfg *Config) {
	cfg.Host = "0.0.0.0"
	cfg.Port = 8080

	cfg.Completion = CompletionConfig{
		BaseURL:     "https://api.openai.com/v1",
		Model:       "gpt-3.5-turbo",
		Temperature: 0.7,
		MaxTokens:   500,
		Timeout:     60 * time.Second,
	}

	cfg.Shodan = ShodanConfig{
		BaseURL: "https://api.shodan.io",
		Timeout: 30 * time.Second,
	}

	cfg.Pipeline = PipelineConfig{
		DefaultLimit: 5,
	}

	cfg.Evaluation = EvaluationConfig{
		Iterations: 10,
		Cooldown:   time.Second,
		OutputDir:  "evaluation_results",
	}

	cfg.LoadTest = LoadTestConfig{
		Users:     10,
		OutputDir: "load_test_results",
	}

	cfg.Bus = BusConfig{
		Type: "memory",
	}

	cfg.History = HistoryConfig{
		RedisURL: "redis://localhost:6379",
	}

	cfg.Log = LogConfig{
		Level:  "info",
		Format: "text",
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	var errs []string

	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, "port must be between 1 and 65535")
	}

	if c.Completion.Model == "" {
		errs = append(errs, "completion model must not be empty")
	}

	if c.Completion.Temperature < 0 || c.Completion.Temperature > 2 {
		errs = append(errs, "completion temperature must be between 0 and 2")
	}

	if c.Completion.MaxTokens < 1 {
		errs = append(errs, "completion max_tokens must be positive")
	}

	if c.Pipeline.DefaultLimit < 1 {
		errs = append(errs, "pipeline default_limit must be positive")
	}

	if c.Evaluation.Iterations < 1 {
		errs = append(errs, "evaluation iterations must be positive")
	}

	if c.Evaluation.Cooldown < 0 {
		errs = append(errs, "evaluation cooldown must not be negative")
	}

	if c.LoadTest.Users < 1 {
		errs = append(errs, "load_test users must be positive")
	}

	validBusTypes := map[string]bool{"memory": true, "kafka": true}
	if !validBusTypes[c.Bus.Type] {
		errs = append(errs, fmt.Sprintf("invalid bus type: %s (must be memory or kafka)", c.Bus.Type))
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Log.Level] {
		errs = append(errs, fmt.Sprintf("invalid log level: %s (must be debug, info, warn, or error)", c.Log.Level))
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[c.Log.Format] {
		errs = append(errs, fmt.Sprintf("invalid log format: %s (must be text or json)", c.Log.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// Address returns the server address.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

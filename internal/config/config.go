// Package config provides configuration loading and validation for the
// server and CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Defaults applied by MergeWithDefaults when neither the file nor the
// environment sets a value.
const (
	DefaultPort            = 8080
	DefaultMaxTaskDuration = 30 * time.Minute
	DefaultScheduleHour    = 9
	DefaultImageModel      = "dall-e-3"
)

// Config is the engine configuration. It can be loaded from a JSON file and
// overlaid with environment variables; all fields are optional.
type Config struct {
	// Server
	Port        int    `json:"port,omitempty"`
	DatabaseURL string `json:"database_url,omitempty"` // PostgreSQL connection URL; empty uses the in-memory store

	// Providers
	LLMProvider   string `json:"llm_provider,omitempty"` // "gemini" (default) or "openai"
	GeminiAPIKey  string `json:"gemini_api_key,omitempty"`
	OpenAIAPIKey  string `json:"openai_api_key,omitempty"`
	OpenAIBaseURL string `json:"openai_base_url,omitempty"`
	ImageModel    string `json:"image_model,omitempty"`

	// Tasks
	MaxTaskDuration     string   `json:"max_task_duration,omitempty"` // Go duration, e.g. "30m"
	ScheduleHour        *int     `json:"schedule_hour,omitempty"`     // Local hour new records are scheduled for
	StructuredPlatforms []string `json:"structured_platforms,omitempty"`

	Verbose bool `json:"verbose,omitempty"`
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// FromEnv reads the configuration from environment variables. Unset
// variables leave the zero value.
func FromEnv() Config {
	cfg := Config{
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		LLMProvider:     os.Getenv("LLM_PROVIDER"),
		GeminiAPIKey:    os.Getenv("GEMINI_API_KEY"),
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:   os.Getenv("OPENAI_BASE_URL"),
		ImageModel:      os.Getenv("IMAGE_MODEL"),
		MaxTaskDuration: os.Getenv("MAX_TASK_DURATION"),
	}
	if v, err := strconv.Atoi(os.Getenv("PORT")); err == nil {
		cfg.Port = v
	}
	if v, err := strconv.Atoi(os.Getenv("SCHEDULE_HOUR")); err == nil {
		cfg.ScheduleHour = &v
	}
	if v := os.Getenv("STRUCTURED_PLATFORMS"); v != "" {
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				cfg.StructuredPlatforms = append(cfg.StructuredPlatforms, p)
			}
		}
	}
	return cfg
}

// Validate checks that the configuration has valid values. Required API keys
// are checked by the commands that need them.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("config error: 'port' must be between 0 and 65535")
	}

	switch c.LLMProvider {
	case "", "gemini", "openai":
	default:
		return fmt.Errorf("config error: unknown 'llm_provider' %q", c.LLMProvider)
	}

	if c.MaxTaskDuration != "" {
		d, err := time.ParseDuration(c.MaxTaskDuration)
		if err != nil {
			return fmt.Errorf("config error: invalid 'max_task_duration': %w", err)
		}
		if d <= 0 {
			return fmt.Errorf("config error: 'max_task_duration' must be positive")
		}
	}

	if c.ScheduleHour != nil && (*c.ScheduleHour < 0 || *c.ScheduleHour > 23) {
		return fmt.Errorf("config error: 'schedule_hour' must be between 0 and 23")
	}

	return nil
}

// MergeWithDefaults returns a new Config with unset fields filled from
// defaults, then from the built-in defaults.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.Port == 0 {
		result.Port = defaults.Port
	}
	if result.Port == 0 {
		result.Port = DefaultPort
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.LLMProvider == "" {
		result.LLMProvider = defaults.LLMProvider
	}
	if result.GeminiAPIKey == "" {
		result.GeminiAPIKey = defaults.GeminiAPIKey
	}
	if result.OpenAIAPIKey == "" {
		result.OpenAIAPIKey = defaults.OpenAIAPIKey
	}
	if result.OpenAIBaseURL == "" {
		result.OpenAIBaseURL = defaults.OpenAIBaseURL
	}
	if result.ImageModel == "" {
		result.ImageModel = defaults.ImageModel
	}
	if result.ImageModel == "" {
		result.ImageModel = DefaultImageModel
	}
	if result.MaxTaskDuration == "" {
		result.MaxTaskDuration = defaults.MaxTaskDuration
	}
	if result.ScheduleHour == nil {
		result.ScheduleHour = defaults.ScheduleHour
	}
	if len(result.StructuredPlatforms) == 0 {
		result.StructuredPlatforms = defaults.StructuredPlatforms
	}

	// Bools cannot distinguish unset from false, so CLI flags always win.

	return result
}

// TaskDuration returns the per-task wall-clock budget.
func (c *Config) TaskDuration() time.Duration {
	if d, err := time.ParseDuration(c.MaxTaskDuration); err == nil && d > 0 {
		return d
	}
	return DefaultMaxTaskDuration
}

// Hour returns the schedule hour for new records.
func (c *Config) Hour() int {
	if c.ScheduleHour == nil {
		return DefaultScheduleHour
	}
	return *c.ScheduleHour
}

// LLMAPIKey returns the key for the configured text provider.
func (c *Config) LLMAPIKey() string {
	if c.LLMProvider == "openai" {
		return c.OpenAIAPIKey
	}
	return c.GeminiAPIKey
}

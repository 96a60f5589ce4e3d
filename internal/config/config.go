package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"   validate:"required"`
	Database DatabaseConfig `mapstructure:"database"`
	LLM      LLMConfig      `mapstructure:"llm"      validate:"required"`
	Governor GovernorConfig `mapstructure:"governor" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
// The database is optional: with an empty URL the server runs without
// detection history.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"omitempty,uri"`
}

// LLMConfig contains all vision model integration related settings.
type LLMConfig struct {
	GeminiAPIKey       string `mapstructure:"gemini_api_key"       validate:"required"`
	ModelName          string `mapstructure:"model_name"           validate:"required"`
	PromptTemplatePath string `mapstructure:"prompt_template_path" validate:"required"`
}

// GovernorConfig tunes the request governor placed in front of the vision
// API: the pacing queue's admission limits and the retrier's backoff.
type GovernorConfig struct {
	// Concurrency is the maximum number of API calls in flight at once.
	Concurrency int `mapstructure:"concurrency" validate:"required,gte=1"`

	// MinIntervalMs is the minimum gap between the starts of consecutive
	// API calls, in milliseconds.
	MinIntervalMs int `mapstructure:"min_interval_ms" validate:"gte=0"`

	// MaxRetries bounds how many times a transient failure is retried.
	MaxRetries int `mapstructure:"max_retries" validate:"gte=0"`

	// BaseDelayMs seeds the exponential backoff, in milliseconds.
	BaseDelayMs int `mapstructure:"base_delay_ms" validate:"gte=1"`

	// MaxDelayMs caps the exponential backoff term, in milliseconds.
	// Server-advertised retry hints are allowed to exceed it.
	MaxDelayMs int `mapstructure:"max_delay_ms" validate:"gte=1,gtefield=BaseDelayMs"`

	// JitterRatio scales the randomized perturbation applied to backoff
	// delays. Zero disables jitter.
	JitterRatio float64 `mapstructure:"jitter_ratio" validate:"gte=0"`
}

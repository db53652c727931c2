package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"    validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database"  validate:"required"`
	Scheduler SchedulerConfig `mapstructure:"scheduler" validate:"required"`
	LLM       LLMConfig       `mapstructure:"llm"       validate:"required"`
	TTS       TTSConfig       `mapstructure:"tts"       validate:"required"`
	Storage   StorageConfig   `mapstructure:"storage"   validate:"required"`
	Pipeline  PipelineConfig  `mapstructure:"pipeline"`
}

// ServerConfig contains all HTTP server related settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`

	// ShutdownTimeoutSeconds bounds graceful shutdown of the HTTP server and
	// the job scheduler.
	ShutdownTimeoutSeconds int `mapstructure:"shutdown_timeout_seconds" validate:"gte=0"`
}

// DatabaseConfig contains all database related settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required"`
}

// SchedulerConfig contains job scheduling settings.
type SchedulerConfig struct {
	// MaxConcurrentJobs is the global cap on simultaneously running
	// generation jobs, enforced at admission.
	MaxConcurrentJobs int `mapstructure:"max_concurrent_jobs" validate:"required,gt=0"`
}

// LLMConfig contains all script generation related settings.
type LLMConfig struct {
	GeminiAPIKey      string `mapstructure:"gemini_api_key" validate:"required"`
	ModelName         string `mapstructure:"model_name"     validate:"required"`
	MaxRetries        int    `mapstructure:"max_retries"    validate:"gte=0"`
	RetryDelaySeconds int    `mapstructure:"retry_delay_seconds" validate:"gte=0"`
}

// TTSConfig contains speech synthesis settings.
type TTSConfig struct {
	APIKey       string `mapstructure:"api_key"  validate:"required"`
	Endpoint     string `mapstructure:"endpoint"`
	DefaultVoice string `mapstructure:"default_voice" validate:"required"`
	LanguageCode string `mapstructure:"language_code"`
}

// StorageConfig contains artifact storage settings. When Bucket is empty,
// artifacts are written to the local directory only.
type StorageConfig struct {
	Bucket   string `mapstructure:"bucket"`
	Region   string `mapstructure:"region"`
	LocalDir string `mapstructure:"local_dir" validate:"required"`
}

// PipelineConfig contains tunable pipeline behavior.
type PipelineConfig struct {
	// StageWeights overrides the default per-stage progress weights, keyed
	// by status name. Empty means defaults.
	StageWeights map[string]float64 `mapstructure:"stage_weights"`
}

package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load reads configuration from environment variables and optionally a
// config.yaml in the working directory. Environment variables use the
// PODFORGE_ prefix with underscores for nesting (PODFORGE_SERVER_PORT) and
// take precedence over file values.
// Returns a populated Config struct or an error if loading or validation
// fails.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("PODFORGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; the environment can carry
		// everything.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// AutomaticEnv alone does not surface env-only keys through Unmarshal;
	// binding each known key makes the precedence explicit.
	for _, key := range configKeys() {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.shutdown_timeout_seconds", 30)

	v.SetDefault("scheduler.max_concurrent_jobs", 2)

	v.SetDefault("llm.model_name", "gemini-2.0-flash")
	v.SetDefault("llm.max_retries", 3)
	v.SetDefault("llm.retry_delay_seconds", 2)

	v.SetDefault("tts.endpoint", "https://texttospeech.googleapis.com/v1/text:synthesize")
	v.SetDefault("tts.default_voice", "en-US-Standard-A")
	v.SetDefault("tts.language_code", "en-US")

	v.SetDefault("storage.local_dir", "data/artifacts")
}

func configKeys() []string {
	return []string{
		"server.port",
		"server.log_level",
		"server.shutdown_timeout_seconds",
		"database.url",
		"scheduler.max_concurrent_jobs",
		"llm.gemini_api_key",
		"llm.model_name",
		"llm.max_retries",
		"llm.retry_delay_seconds",
		"tts.api_key",
		"tts.endpoint",
		"tts.default_voice",
		"tts.language_code",
		"storage.bucket",
		"storage.region",
		"storage.local_dir",
	}
}

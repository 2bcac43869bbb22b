package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// envPrefix is the prefix for environment variable overrides, so
// server.port becomes HANZI_SERVER_PORT.
const envPrefix = "HANZI"

// Load configuration from environment variables and optionally config files.
// Environment variables take precedence over values from config files.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	// Optional config file in the working directory; absence is fine, the
	// defaults plus environment variables are a complete configuration.
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults registers every known key with viper. Registering a key is what
// makes its environment variable visible to Unmarshal, so even keys without a
// meaningful default get a zero value here.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")

	v.SetDefault("database.url", "")

	v.SetDefault("study.batch_size", 10)
	v.SetDefault("study.session_page_size", 20)

	// Scheduler overrides default to zero, meaning "use the built-in value".
	v.SetDefault("study.scheduler.difficulty_increase_factor", 0.0)
	v.SetDefault("study.scheduler.difficulty_decrease_factor", 0.0)
	v.SetDefault("study.scheduler.streak_bonus_factor", 0.0)
	v.SetDefault("study.scheduler.streak_bonus_threshold", 0)
	v.SetDefault("study.scheduler.incorrect_interval_factor", 0.0)
	v.SetDefault("study.scheduler.min_interval_hours", 0.0)
	v.SetDefault("study.scheduler.max_interval_hours", 0.0)
	v.SetDefault("study.scheduler.new_card_weight", 0.0)
	v.SetDefault("study.scheduler.learning_weight", 0.0)
	v.SetDefault("study.scheduler.review_weight", 0.0)
	v.SetDefault("study.scheduler.mastered_weight", 0.0)
	v.SetDefault("study.scheduler.overdue_weight", 0.0)
}

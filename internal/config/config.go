package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"   validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Study    StudyConfig    `mapstructure:"study"    validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required"`
}

// StudyConfig contains the study flow settings and scheduler tuning knobs.
type StudyConfig struct {
	// BatchSize is the target number of cards per study batch.
	BatchSize int `mapstructure:"batch_size" validate:"required,gt=0,lte=100"`

	// SessionPageSize is the default page size when listing past sessions.
	SessionPageSize int `mapstructure:"session_page_size" validate:"required,gt=0,lte=100"`

	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

// SchedulerConfig overrides individual scheduler parameters. Zero values keep
// the built-in defaults, so a deployment only sets the knobs it cares about.
type SchedulerConfig struct {
	DifficultyIncreaseFactor float64 `mapstructure:"difficulty_increase_factor" validate:"omitempty,gt=1"`
	DifficultyDecreaseFactor float64 `mapstructure:"difficulty_decrease_factor" validate:"omitempty,gt=0,lt=1"`
	StreakBonusFactor        float64 `mapstructure:"streak_bonus_factor"        validate:"omitempty,gt=0,lt=1"`
	StreakBonusThreshold     int     `mapstructure:"streak_bonus_threshold"     validate:"omitempty,gt=0"`
	MinDifficulty            float64 `mapstructure:"min_difficulty"             validate:"omitempty,gt=0"`
	MaxDifficulty            float64 `mapstructure:"max_difficulty"             validate:"omitempty,gt=0"`

	MasteredMinAttempts int     `mapstructure:"mastered_min_attempts" validate:"omitempty,gt=0"`
	MasteredMinAccuracy float64 `mapstructure:"mastered_min_accuracy" validate:"omitempty,gt=0,lte=1"`
	ReviewMinAttempts   int     `mapstructure:"review_min_attempts"   validate:"omitempty,gt=0"`
	ReviewMinAccuracy   float64 `mapstructure:"review_min_accuracy"   validate:"omitempty,gt=0,lte=1"`
	LearningMinAttempts int     `mapstructure:"learning_min_attempts" validate:"omitempty,gt=0"`
	LearningMinAccuracy float64 `mapstructure:"learning_min_accuracy" validate:"omitempty,gt=0,lte=1"`

	NewCardIntervalHours      float64 `mapstructure:"new_card_interval_hours"      validate:"omitempty,gt=0"`
	LearningBaseIntervalHours float64 `mapstructure:"learning_base_interval_hours" validate:"omitempty,gt=0"`
	ReviewBaseIntervalHours   float64 `mapstructure:"review_base_interval_hours"   validate:"omitempty,gt=0"`
	MasteredBaseIntervalHours float64 `mapstructure:"mastered_base_interval_hours" validate:"omitempty,gt=0"`

	IncorrectIntervalFactor float64 `mapstructure:"incorrect_interval_factor" validate:"omitempty,gt=0"`
	MinIntervalHours        float64 `mapstructure:"min_interval_hours"        validate:"omitempty,gt=0"`
	MaxIntervalHours        float64 `mapstructure:"max_interval_hours"        validate:"omitempty,gt=0"`

	NewCardWeight  float64 `mapstructure:"new_card_weight" validate:"omitempty,gt=0"`
	LearningWeight float64 `mapstructure:"learning_weight" validate:"omitempty,gt=0"`
	ReviewWeight   float64 `mapstructure:"review_weight"   validate:"omitempty,gt=0"`
	MasteredWeight float64 `mapstructure:"mastered_weight" validate:"omitempty,gt=0"`
	UnseenBoost    float64 `mapstructure:"unseen_boost"    validate:"omitempty,gt=0"`

	OverdueWeight   float64 `mapstructure:"overdue_weight"    validate:"omitempty,gt=0"`
	OverdueBoostCap float64 `mapstructure:"overdue_boost_cap" validate:"omitempty,gt=0"`

	CandidatePoolFactor int `mapstructure:"candidate_pool_factor" validate:"omitempty,gt=0"`
}

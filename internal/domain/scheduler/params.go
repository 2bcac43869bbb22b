package scheduler

import (
	"github.com/hanzistudy/hanzi-api/internal/domain"
)

// MasteryThreshold is one rung of the mastery ladder: a card reaches Level
// once it has at least MinAttempts cumulative quiz attempts with at least
// MinAccuracy cumulative accuracy.
type MasteryThreshold struct {
	MinAttempts int
	MinAccuracy float64
	Level       domain.MasteryLevel
}

// Params defines all configurable parameters for the adaptive scheduler.
type Params struct {
	// Difficulty score adjustments and bounds
	DifficultyIncreaseFactor float64
	DifficultyDecreaseFactor float64
	StreakBonusFactor        float64
	StreakBonusThreshold     int
	MinDifficulty            float64
	MaxDifficulty            float64

	// MasteryThresholds is checked in order; the first threshold the
	// cumulative counters satisfy wins. Must be sorted from the most to the
	// least demanding rung.
	MasteryThresholds []MasteryThreshold

	// Base review intervals per mastery level, in hours
	BaseIntervalHours map[domain.MasteryLevel]float64

	// Interval adjustment and clamp bounds (hours)
	IncorrectIntervalFactor float64
	MinIntervalHours        float64
	MaxIntervalHours        float64

	// Selection weights per mastery level
	NewCardWeight  float64
	LearningWeight float64
	ReviewWeight   float64
	MasteredWeight float64

	// UnseenBoost multiplies NewCardWeight for cards with no progress record,
	// so brand-new cards rank above everything that has been attempted.
	UnseenBoost float64

	// Overdue boost: priority is multiplied by
	// OverdueWeight * (1 + min(overdueHours/24, OverdueBoostCap)).
	OverdueWeight   float64
	OverdueBoostCap float64

	// CandidatePoolFactor sizes the weighted-sampling pool as a multiple of
	// the target batch size.
	CandidatePoolFactor int
}

// ParamsConfig allows overriding the default parameters when creating a new
// Params instance. Zero values leave the corresponding default in place.
type ParamsConfig struct {
	DifficultyIncreaseFactor float64
	DifficultyDecreaseFactor float64
	StreakBonusFactor        float64
	StreakBonusThreshold     int
	MinDifficulty            float64
	MaxDifficulty            float64

	MasteredMinAttempts int
	MasteredMinAccuracy float64
	ReviewMinAttempts   int
	ReviewMinAccuracy   float64
	LearningMinAttempts int
	LearningMinAccuracy float64

	NewCardIntervalHours      float64
	LearningBaseIntervalHours float64
	ReviewBaseIntervalHours   float64
	MasteredBaseIntervalHours float64

	IncorrectIntervalFactor float64
	MinIntervalHours        float64
	MaxIntervalHours        float64

	NewCardWeight  float64
	LearningWeight float64
	ReviewWeight   float64
	MasteredWeight float64
	UnseenBoost    float64

	OverdueWeight   float64
	OverdueBoostCap float64

	CandidatePoolFactor int
}

// NewDefaultParams creates a new Params instance with default values.
func NewDefaultParams() *Params {
	return &Params{
		DifficultyIncreaseFactor: 1.4,
		DifficultyDecreaseFactor: 0.85,
		StreakBonusFactor:        0.9,
		StreakBonusThreshold:     3,
		MinDifficulty:            0.1,
		MaxDifficulty:            5.0,

		// First match wins, so the ladder runs top-down.
		MasteryThresholds: []MasteryThreshold{
			{MinAttempts: 10, MinAccuracy: 0.8, Level: domain.MasteryMastered},
			{MinAttempts: 5, MinAccuracy: 0.6, Level: domain.MasteryReview},
			{MinAttempts: 2, MinAccuracy: 0.4, Level: domain.MasteryLearning},
		},

		BaseIntervalHours: map[domain.MasteryLevel]float64{
			domain.MasteryNew:      1,
			domain.MasteryLearning: 6,
			domain.MasteryReview:   24,
			domain.MasteryMastered: 168, // 1 week
		},

		IncorrectIntervalFactor: 0.5,
		MinIntervalHours:        0.5, // 30 minutes
		MaxIntervalHours:        720, // 30 days

		NewCardWeight:  2.0,
		LearningWeight: 1.2,
		ReviewWeight:   1.0,
		MasteredWeight: 0.3,
		UnseenBoost:    2.0,

		OverdueWeight:   1.5,
		OverdueBoostCap: 2.0,

		CandidatePoolFactor: 2,
	}
}

// NewParams creates a new Params instance with custom configuration.
// Only non-zero fields in the config override the defaults.
func NewParams(config ParamsConfig) *Params {
	params := NewDefaultParams()

	if config.DifficultyIncreaseFactor > 0 {
		params.DifficultyIncreaseFactor = config.DifficultyIncreaseFactor
	}
	if config.DifficultyDecreaseFactor > 0 {
		params.DifficultyDecreaseFactor = config.DifficultyDecreaseFactor
	}
	if config.StreakBonusFactor > 0 {
		params.StreakBonusFactor = config.StreakBonusFactor
	}
	if config.StreakBonusThreshold > 0 {
		params.StreakBonusThreshold = config.StreakBonusThreshold
	}
	if config.MinDifficulty > 0 {
		params.MinDifficulty = config.MinDifficulty
	}
	if config.MaxDifficulty > 0 {
		params.MaxDifficulty = config.MaxDifficulty
	}

	if config.MasteredMinAttempts > 0 {
		params.MasteryThresholds[0].MinAttempts = config.MasteredMinAttempts
	}
	if config.MasteredMinAccuracy > 0 {
		params.MasteryThresholds[0].MinAccuracy = config.MasteredMinAccuracy
	}
	if config.ReviewMinAttempts > 0 {
		params.MasteryThresholds[1].MinAttempts = config.ReviewMinAttempts
	}
	if config.ReviewMinAccuracy > 0 {
		params.MasteryThresholds[1].MinAccuracy = config.ReviewMinAccuracy
	}
	if config.LearningMinAttempts > 0 {
		params.MasteryThresholds[2].MinAttempts = config.LearningMinAttempts
	}
	if config.LearningMinAccuracy > 0 {
		params.MasteryThresholds[2].MinAccuracy = config.LearningMinAccuracy
	}

	if config.NewCardIntervalHours > 0 {
		params.BaseIntervalHours[domain.MasteryNew] = config.NewCardIntervalHours
	}
	if config.LearningBaseIntervalHours > 0 {
		params.BaseIntervalHours[domain.MasteryLearning] = config.LearningBaseIntervalHours
	}
	if config.ReviewBaseIntervalHours > 0 {
		params.BaseIntervalHours[domain.MasteryReview] = config.ReviewBaseIntervalHours
	}
	if config.MasteredBaseIntervalHours > 0 {
		params.BaseIntervalHours[domain.MasteryMastered] = config.MasteredBaseIntervalHours
	}

	if config.IncorrectIntervalFactor > 0 {
		params.IncorrectIntervalFactor = config.IncorrectIntervalFactor
	}
	if config.MinIntervalHours > 0 {
		params.MinIntervalHours = config.MinIntervalHours
	}
	if config.MaxIntervalHours > 0 {
		params.MaxIntervalHours = config.MaxIntervalHours
	}

	if config.NewCardWeight > 0 {
		params.NewCardWeight = config.NewCardWeight
	}
	if config.LearningWeight > 0 {
		params.LearningWeight = config.LearningWeight
	}
	if config.ReviewWeight > 0 {
		params.ReviewWeight = config.ReviewWeight
	}
	if config.MasteredWeight > 0 {
		params.MasteredWeight = config.MasteredWeight
	}
	if config.UnseenBoost > 0 {
		params.UnseenBoost = config.UnseenBoost
	}

	if config.OverdueWeight > 0 {
		params.OverdueWeight = config.OverdueWeight
	}
	if config.OverdueBoostCap > 0 {
		params.OverdueBoostCap = config.OverdueBoostCap
	}

	if config.CandidatePoolFactor > 0 {
		params.CandidatePoolFactor = config.CandidatePoolFactor
	}

	return params
}

// selectionWeight returns the base selection weight for a mastery level.
func (p *Params) selectionWeight(level domain.MasteryLevel) float64 {
	switch level {
	case domain.MasteryLearning:
		return p.LearningWeight
	case domain.MasteryReview:
		return p.ReviewWeight
	case domain.MasteryMastered:
		return p.MasteredWeight
	default:
		return p.NewCardWeight
	}
}

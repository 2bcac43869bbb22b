package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// MasteryLevel is a coarse bucket describing how well a user knows a card.
// It is derived from cumulative quiz accuracy and attempt count rather than
// stored state machine transitions, so it can always be recomputed from the
// counters.
type MasteryLevel int

// Mastery levels, ordered from least to most familiar.
const (
	MasteryNew      MasteryLevel = 0
	MasteryLearning MasteryLevel = 1
	MasteryReview   MasteryLevel = 2
	MasteryMastered MasteryLevel = 3
)

// String returns the lowercase name of the mastery level.
func (m MasteryLevel) String() string {
	switch m {
	case MasteryNew:
		return "new"
	case MasteryLearning:
		return "learning"
	case MasteryReview:
		return "review"
	case MasteryMastered:
		return "mastered"
	default:
		return "unknown"
	}
}

// Default difficulty bounds for CardProgress validation. These mirror the
// scheduler's clamp range; progress outside this range is never persisted.
const (
	MinDifficultyScore = 0.1
	MaxDifficultyScore = 5.0

	// InitialDifficultyScore is the difficulty assigned to a card before any
	// quiz attempt has been made.
	InitialDifficultyScore = 1.0
)

// Common validation errors for CardProgress
var (
	ErrEmptyProgressUserID    = errors.New("card progress user ID cannot be empty")
	ErrEmptyProgressCardID    = errors.New("card progress card ID cannot be empty")
	ErrInvalidDifficulty      = errors.New("difficulty score out of range")
	ErrInvalidMasteryLevel    = errors.New("invalid mastery level")
	ErrInvalidQuizCounters    = errors.New("quiz correct count cannot exceed quiz attempts")
	ErrNegativeQuizCounters   = errors.New("quiz counters cannot be negative")
	ErrNegativeConsecutive    = errors.New("consecutive correct count cannot be negative")
	ErrNegativeFlipCount      = errors.New("flip count cannot be negative")
)

// CardProgress tracks a single user's learning state for a single card.
// A record exists only once the user has interacted with the card at least
// once; absence of a record means the card is new with maximal selection
// priority.
type CardProgress struct {
	UserID                uuid.UUID    `json:"user_id"`
	CardID                uuid.UUID    `json:"card_id"`
	MasteryLevel          MasteryLevel `json:"mastery_level"`
	DifficultyScore       float64      `json:"difficulty_score"`
	QuizAttempts          int          `json:"quiz_attempts"`
	QuizCorrect           int          `json:"quiz_correct"`
	ConsecutiveCorrect    int          `json:"consecutive_correct"`
	FlipCount             int          `json:"flip_count"`
	FirstFlippedAt        time.Time    `json:"first_flipped_at"`
	LastFlippedAt         time.Time    `json:"last_flipped_at"`
	LastQuizAttemptAt     time.Time    `json:"last_quiz_attempt_at"`
	NextReviewAt          time.Time    `json:"next_review_at"`
	TotalStudyTimeSeconds int64        `json:"total_study_time_seconds"`
	CreatedAt             time.Time    `json:"created_at"`
	UpdatedAt             time.Time    `json:"updated_at"`
}

// NewCardProgress creates a fresh progress record for a user and card.
// New cards start at difficulty 1.0, mastery New, and are immediately due.
func NewCardProgress(userID, cardID uuid.UUID, now time.Time) (*CardProgress, error) {
	progress := &CardProgress{
		UserID:          userID,
		CardID:          cardID,
		MasteryLevel:    MasteryNew,
		DifficultyScore: InitialDifficultyScore,
		NextReviewAt:    now,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := progress.Validate(); err != nil {
		return nil, err
	}

	return progress, nil
}

// Validate checks if the CardProgress has valid data.
// Returns an error if any field fails validation.
func (p *CardProgress) Validate() error {
	if p.UserID == uuid.Nil {
		return ErrEmptyProgressUserID
	}

	if p.CardID == uuid.Nil {
		return ErrEmptyProgressCardID
	}

	if p.DifficultyScore < MinDifficultyScore || p.DifficultyScore > MaxDifficultyScore {
		return ErrInvalidDifficulty
	}

	if p.MasteryLevel < MasteryNew || p.MasteryLevel > MasteryMastered {
		return ErrInvalidMasteryLevel
	}

	if p.QuizAttempts < 0 || p.QuizCorrect < 0 {
		return ErrNegativeQuizCounters
	}

	if p.QuizCorrect > p.QuizAttempts {
		return ErrInvalidQuizCounters
	}

	if p.ConsecutiveCorrect < 0 {
		return ErrNegativeConsecutive
	}

	if p.FlipCount < 0 {
		return ErrNegativeFlipCount
	}

	return nil
}

// Accuracy returns the cumulative quiz accuracy, or 0 when no attempts exist.
func (p *CardProgress) Accuracy() float64 {
	if p.QuizAttempts == 0 {
		return 0
	}
	return float64(p.QuizCorrect) / float64(p.QuizAttempts)
}

// IsDue reports whether the card is due for review at the given time.
func (p *CardProgress) IsDue(now time.Time) bool {
	return !p.NextReviewAt.After(now)
}

// Note: progress transitions (flip counting, quiz outcome application) are
// computed by the scheduler package, which returns new CardProgress values
// rather than mutating existing ones.

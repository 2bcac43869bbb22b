package scheduler

import (
	"time"

	"github.com/hanzistudy/hanzi-api/internal/domain"
)

// calculateDifficultyScore determines the new difficulty score after a quiz
// answer.
//
// The difficulty score scales review spacing - higher values mean the card is
// harder for this user and will come back sooner. Correct answers shrink the
// score by DifficultyDecreaseFactor, with an extra StreakBonusFactor shrink
// once the consecutive-correct streak reaches StreakBonusThreshold. Incorrect
// answers grow it by DifficultyIncreaseFactor. The result is always clamped
// to [MinDifficulty, MaxDifficulty].
//
// consecutiveCorrect is the streak AFTER the current answer has been counted.
func calculateDifficultyScore(
	current float64,
	isCorrect bool,
	consecutiveCorrect int,
	params *Params,
) float64 {
	var score float64
	if isCorrect {
		score = current * params.DifficultyDecreaseFactor

		if consecutiveCorrect >= params.StreakBonusThreshold {
			score *= params.StreakBonusFactor
		}
	} else {
		score = current * params.DifficultyIncreaseFactor
	}

	if score < params.MinDifficulty {
		score = params.MinDifficulty
	}
	if score > params.MaxDifficulty {
		score = params.MaxDifficulty
	}

	return score
}

// calculateMasteryLevel recomputes the mastery level from the cumulative quiz
// counters. The level is a pure function of (attempts, correct): two users
// arriving at the same counters by different paths always land on the same
// level, which keeps the computation safe to replay from the interaction log.
//
// The thresholds are checked in order and the first satisfied rung wins;
// cards with no attempts are always New.
func calculateMasteryLevel(quizAttempts, quizCorrect int, params *Params) domain.MasteryLevel {
	if quizAttempts == 0 {
		return domain.MasteryNew
	}

	accuracy := float64(quizCorrect) / float64(quizAttempts)

	for _, threshold := range params.MasteryThresholds {
		if quizAttempts >= threshold.MinAttempts && accuracy >= threshold.MinAccuracy {
			return threshold.Level
		}
	}

	return domain.MasteryNew
}

// nextProgress creates a new CardProgress with all quiz-driven fields updated
// for one answer. It counts the attempt, adjusts the streak, then derives
// difficulty, mastery, and the next review time from the post-increment
// counters. The input is never mutated.
func nextProgress(
	progress *domain.CardProgress,
	isCorrect bool,
	now time.Time,
	params *Params,
) *domain.CardProgress {
	next := *progress

	next.QuizAttempts++
	if isCorrect {
		next.QuizCorrect++
		next.ConsecutiveCorrect++
	} else {
		next.ConsecutiveCorrect = 0
	}

	next.DifficultyScore = calculateDifficultyScore(
		progress.DifficultyScore,
		isCorrect,
		next.ConsecutiveCorrect,
		params,
	)
	next.MasteryLevel = calculateMasteryLevel(next.QuizAttempts, next.QuizCorrect, params)
	next.NextReviewAt = calculateNextReviewTime(
		next.MasteryLevel,
		next.DifficultyScore,
		isCorrect,
		now,
		params,
	)

	next.LastQuizAttemptAt = now
	next.UpdatedAt = now

	return &next
}

// nextFlip creates a new CardProgress with the passive-exposure counters
// updated for one flip. Difficulty, mastery, and review scheduling are
// untouched: flipping a card is not evidence either way.
func nextFlip(progress *domain.CardProgress, now time.Time) *domain.CardProgress {
	next := *progress

	next.FlipCount++
	if next.FirstFlippedAt.IsZero() {
		next.FirstFlippedAt = now
	}
	next.LastFlippedAt = now
	next.UpdatedAt = now

	return &next
}

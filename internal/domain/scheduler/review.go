package scheduler

import (
	"time"

	"github.com/hanzistudy/hanzi-api/internal/domain"
)

// calculateNextReviewTime determines when a card should next be eligible for
// review.
//
// The base interval comes from the mastery level (new cards return within the
// hour, mastered cards rest for a week). Difficulty then stretches or
// compresses it: a correct answer on an easy card (score < 1) pushes the next
// review far out, while an incorrect answer on a hard card brings it back
// quickly. The final interval is clamped to
// [MinIntervalHours, MaxIntervalHours].
//
// Deterministic given its inputs; no randomness is involved.
func calculateNextReviewTime(
	mastery domain.MasteryLevel,
	difficulty float64,
	isCorrect bool,
	now time.Time,
	params *Params,
) time.Time {
	base := params.BaseIntervalHours[mastery]

	var multiplier float64
	if isCorrect {
		multiplier = 1.0 / difficulty
	} else {
		multiplier = difficulty * params.IncorrectIntervalFactor
	}

	hours := base * multiplier

	if hours < params.MinIntervalHours {
		hours = params.MinIntervalHours
	}
	if hours > params.MaxIntervalHours {
		hours = params.MaxIntervalHours
	}

	return now.Add(time.Duration(hours * float64(time.Hour)))
}

package scheduler

import (
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hanzistudy/hanzi-api/internal/domain"
)

const floatTolerance = 1e-9

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < floatTolerance
}

func mustNewProgress(t *testing.T, now time.Time) *domain.CardProgress {
	t.Helper()
	progress, err := domain.NewCardProgress(uuid.New(), uuid.New(), now)
	if err != nil {
		t.Fatalf("Failed to create progress: %v", err)
	}
	return progress
}

func TestCalculateDifficultyScore(t *testing.T) {
	t.Parallel() // Enable parallel execution
	params := NewDefaultParams()

	testCases := []struct {
		name      string
		current   float64
		isCorrect bool
		streak    int
		expected  float64
	}{
		{
			name:      "Correct answer should decrease difficulty",
			current:   1.0,
			isCorrect: true,
			streak:    1,
			expected:  0.85, // 1.0 * 0.85
		},
		{
			name:      "Streak below threshold gets no bonus",
			current:   1.0,
			isCorrect: true,
			streak:    2,
			expected:  0.85,
		},
		{
			name:      "Streak at threshold gets bonus shrink",
			current:   1.0,
			isCorrect: true,
			streak:    3,
			expected:  0.765, // 1.0 * 0.85 * 0.9
		},
		{
			name:      "Streak above threshold keeps bonus",
			current:   2.0,
			isCorrect: true,
			streak:    7,
			expected:  1.53, // 2.0 * 0.85 * 0.9
		},
		{
			name:      "Incorrect answer should increase difficulty",
			current:   1.0,
			isCorrect: false,
			streak:    0,
			expected:  1.4, // 1.0 * 1.4
		},
		{
			name:      "Score clamped at lower bound",
			current:   0.1,
			isCorrect: true,
			streak:    5,
			expected:  0.1, // 0.1 * 0.85 * 0.9 = 0.0765 → clamped
		},
		{
			name:      "Score clamped at upper bound",
			current:   4.5,
			isCorrect: false,
			streak:    0,
			expected:  5.0, // 4.5 * 1.4 = 6.3 → clamped
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			score := calculateDifficultyScore(tc.current, tc.isCorrect, tc.streak, params)

			if !almostEqual(score, tc.expected) {
				t.Errorf("Expected score %f, got %f", tc.expected, score)
			}
		})
	}
}

func TestDifficultyScoreStaysInBounds(t *testing.T) {
	t.Parallel()
	params := NewDefaultParams()

	// Any chain of answers must keep the score inside the clamp bounds.
	score := domain.InitialDifficultyScore
	answers := []bool{false, false, false, false, false, true, true, true, true, true, true, true, false}
	streak := 0
	for i, correct := range answers {
		if correct {
			streak++
		} else {
			streak = 0
		}
		score = calculateDifficultyScore(score, correct, streak, params)

		if score < params.MinDifficulty || score > params.MaxDifficulty {
			t.Fatalf("Score %f out of bounds after answer %d", score, i)
		}
	}
}

func TestCalculateMasteryLevel(t *testing.T) {
	t.Parallel()
	params := NewDefaultParams()

	testCases := []struct {
		name     string
		attempts int
		correct  int
		expected domain.MasteryLevel
	}{
		{
			name:     "No attempts is always New",
			attempts: 0,
			correct:  0,
			expected: domain.MasteryNew,
		},
		{
			name:     "Single correct attempt stays New",
			attempts: 1,
			correct:  1,
			expected: domain.MasteryNew,
		},
		{
			name:     "Two attempts at half accuracy reaches Learning",
			attempts: 2,
			correct:  1,
			expected: domain.MasteryLearning,
		},
		{
			name:     "Perfect accuracy but few attempts caps at Learning",
			attempts: 4,
			correct:  4,
			expected: domain.MasteryLearning,
		},
		{
			name:     "Five attempts at sixty percent reaches Review",
			attempts: 5,
			correct:  3,
			expected: domain.MasteryReview,
		},
		{
			name:     "Ten attempts at eighty percent reaches Mastered",
			attempts: 10,
			correct:  8,
			expected: domain.MasteryMastered,
		},
		{
			name:     "Ten attempts at seventy percent stays Review",
			attempts: 10,
			correct:  7,
			expected: domain.MasteryReview,
		},
		{
			name:     "Many attempts at low accuracy falls back to New",
			attempts: 100,
			correct:  30,
			expected: domain.MasteryNew,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			level := calculateMasteryLevel(tc.attempts, tc.correct, params)

			if level != tc.expected {
				t.Errorf("Expected level %s, got %s", tc.expected, level)
			}
		})
	}
}

func TestMasteryLevelIsPathIndependent(t *testing.T) {
	t.Parallel()
	params := NewDefaultParams()

	// Two histories arriving at the same counters must land on the same level.
	a := calculateMasteryLevel(10, 8, params)
	b := calculateMasteryLevel(10, 8, params)

	if a != b {
		t.Errorf("Same counters produced different levels: %s vs %s", a, b)
	}
}

func TestNextProgressCorrectAnswer(t *testing.T) {
	t.Parallel()
	params := NewDefaultParams()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	progress := mustNewProgress(t, now.Add(-time.Hour))

	next := nextProgress(progress, true, now, params)

	if next.QuizAttempts != 1 {
		t.Errorf("Expected 1 attempt, got %d", next.QuizAttempts)
	}
	if next.QuizCorrect != 1 {
		t.Errorf("Expected 1 correct, got %d", next.QuizCorrect)
	}
	if next.ConsecutiveCorrect != 1 {
		t.Errorf("Expected streak 1, got %d", next.ConsecutiveCorrect)
	}
	if !almostEqual(next.DifficultyScore, 0.85) {
		t.Errorf("Expected difficulty 0.85, got %f", next.DifficultyScore)
	}
	if next.MasteryLevel != domain.MasteryNew {
		t.Errorf("Expected mastery New, got %s", next.MasteryLevel)
	}

	// Interval is the 1h base stretched by 1/0.85.
	wantHours := 1.0 / 0.85
	wantReview := now.Add(time.Duration(wantHours * float64(time.Hour)))
	if diff := next.NextReviewAt.Sub(wantReview); diff < -time.Second || diff > time.Second {
		t.Errorf("Expected next review near %v, got %v", wantReview, next.NextReviewAt)
	}

	if !next.LastQuizAttemptAt.Equal(now) {
		t.Errorf("Expected last attempt %v, got %v", now, next.LastQuizAttemptAt)
	}

	// The input record must be untouched.
	if progress.QuizAttempts != 0 || !almostEqual(progress.DifficultyScore, 1.0) {
		t.Error("Input progress was mutated")
	}
}

func TestNextProgressIncorrectAnswerResetsStreak(t *testing.T) {
	t.Parallel()
	params := NewDefaultParams()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	progress := mustNewProgress(t, now.Add(-time.Hour))
	progress.QuizAttempts = 4
	progress.QuizCorrect = 4
	progress.ConsecutiveCorrect = 4

	next := nextProgress(progress, false, now, params)

	if next.ConsecutiveCorrect != 0 {
		t.Errorf("Expected streak reset to 0, got %d", next.ConsecutiveCorrect)
	}
	if next.QuizAttempts != 5 {
		t.Errorf("Expected 5 attempts, got %d", next.QuizAttempts)
	}
	if next.QuizCorrect != 4 {
		t.Errorf("Expected 4 correct, got %d", next.QuizCorrect)
	}
	if !almostEqual(next.DifficultyScore, 1.4) {
		t.Errorf("Expected difficulty 1.4, got %f", next.DifficultyScore)
	}
	if next.MasteryLevel != domain.MasteryReview {
		t.Errorf("Expected mastery Review, got %s", next.MasteryLevel)
	}
}

func TestNextFlip(t *testing.T) {
	t.Parallel()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	later := now.Add(5 * time.Minute)

	progress := mustNewProgress(t, now.Add(-time.Hour))
	progress.DifficultyScore = 2.4
	progress.MasteryLevel = domain.MasteryLearning

	first := nextFlip(progress, now)

	if first.FlipCount != 1 {
		t.Errorf("Expected flip count 1, got %d", first.FlipCount)
	}
	if !first.FirstFlippedAt.Equal(now) {
		t.Errorf("Expected first flip at %v, got %v", now, first.FirstFlippedAt)
	}

	second := nextFlip(first, later)

	if second.FlipCount != 2 {
		t.Errorf("Expected flip count 2, got %d", second.FlipCount)
	}
	if !second.FirstFlippedAt.Equal(now) {
		t.Error("First flip time must not move on later flips")
	}
	if !second.LastFlippedAt.Equal(later) {
		t.Errorf("Expected last flip at %v, got %v", later, second.LastFlippedAt)
	}

	// Flips carry no scheduling signal.
	if !almostEqual(second.DifficultyScore, 2.4) || second.MasteryLevel != domain.MasteryLearning {
		t.Error("Flip must not change difficulty or mastery")
	}
	if !second.NextReviewAt.Equal(progress.NextReviewAt) {
		t.Error("Flip must not change the next review time")
	}
}

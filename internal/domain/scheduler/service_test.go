package scheduler

import (
	"testing"
	"time"

	"github.com/hanzistudy/hanzi-api/internal/domain"
)

func TestApplyAnswerNilProgress(t *testing.T) {
	t.Parallel()
	svc := NewDefaultService()

	_, err := svc.ApplyAnswer(nil, true, time.Now())
	if err != ErrNilProgress {
		t.Errorf("Expected ErrNilProgress, got %v", err)
	}
}

func TestApplyFlipNilProgress(t *testing.T) {
	t.Parallel()
	svc := NewDefaultService()

	_, err := svc.ApplyFlip(nil, time.Now())
	if err != ErrNilProgress {
		t.Errorf("Expected ErrNilProgress, got %v", err)
	}
}

func TestApplyAnswerReachesMastered(t *testing.T) {
	t.Parallel()
	svc := NewDefaultService()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	progress := mustNewProgress(t, now.Add(-24*time.Hour))
	progress.QuizAttempts = 9
	progress.QuizCorrect = 8
	progress.ConsecutiveCorrect = 3
	progress.DifficultyScore = 0.5
	progress.MasteryLevel = domain.MasteryReview

	next, err := svc.ApplyAnswer(progress, true, now)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if next.QuizAttempts != 10 || next.QuizCorrect != 9 {
		t.Errorf("Expected 10/9 counters, got %d/%d", next.QuizAttempts, next.QuizCorrect)
	}
	if next.ConsecutiveCorrect != 4 {
		t.Errorf("Expected streak 4, got %d", next.ConsecutiveCorrect)
	}
	if next.MasteryLevel != domain.MasteryMastered {
		t.Errorf("Expected Mastered, got %s", next.MasteryLevel)
	}

	// 0.5 * 0.85 * 0.9 with the streak bonus active.
	if !almostEqual(next.DifficultyScore, 0.3825) {
		t.Errorf("Expected difficulty 0.3825, got %f", next.DifficultyScore)
	}

	// 168h base stretched by 1/0.3825.
	wantHours := 168.0 / 0.3825
	wantReview := now.Add(time.Duration(wantHours * float64(time.Hour)))
	if diff := next.NextReviewAt.Sub(wantReview); diff < -time.Second || diff > time.Second {
		t.Errorf("Expected next review near %v, got %v", wantReview, next.NextReviewAt)
	}
}

func TestApplyAnswerWithCustomParams(t *testing.T) {
	t.Parallel()
	svc := NewServiceWithParams(NewParams(ParamsConfig{
		DifficultyDecreaseFactor: 0.5,
	}))
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	progress := mustNewProgress(t, now)

	next, err := svc.ApplyAnswer(progress, true, now)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if !almostEqual(next.DifficultyScore, 0.5) {
		t.Errorf("Expected difficulty 0.5 with custom factor, got %f", next.DifficultyScore)
	}
}

func TestApplyFlipLeavesSchedulingAlone(t *testing.T) {
	t.Parallel()
	svc := NewDefaultService()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	progress := mustNewProgress(t, now.Add(-time.Hour))
	progress.DifficultyScore = 1.7
	progress.MasteryLevel = domain.MasteryLearning

	next, err := svc.ApplyFlip(progress, now)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if next.FlipCount != 1 {
		t.Errorf("Expected flip count 1, got %d", next.FlipCount)
	}
	if !almostEqual(next.DifficultyScore, 1.7) {
		t.Errorf("Flip changed difficulty to %f", next.DifficultyScore)
	}
	if next.MasteryLevel != domain.MasteryLearning {
		t.Errorf("Flip changed mastery to %s", next.MasteryLevel)
	}
	if next.QuizAttempts != 0 {
		t.Errorf("Flip changed quiz attempts to %d", next.QuizAttempts)
	}
}

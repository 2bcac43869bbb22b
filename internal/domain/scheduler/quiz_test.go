package scheduler

import (
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/hanzistudy/hanzi-api/internal/domain"
)

func testCard(hanzi, pinyin, english string) *domain.Card {
	return &domain.Card{
		ID:      uuid.New(),
		DeckID:  uuid.New(),
		Hanzi:   hanzi,
		Pinyin:  pinyin,
		English: english,
	}
}

func testSiblings() []*domain.Card {
	return []*domain.Card{
		testCard("谢谢", "xièxie", "thank you"),
		testCard("再见", "zàijiàn", "goodbye"),
		testCard("请", "qǐng", "please"),
		testCard("对不起", "duìbuqǐ", "sorry"),
		testCard("是", "shì", "yes"),
	}
}

func TestGenerateChineseToEnglish(t *testing.T) {
	t.Parallel()
	gen := NewQuizGenerator(rand.New(rand.NewSource(1)))
	target := testCard("你好", "nǐ hǎo", "hello")

	question, err := gen.Generate(target, testSiblings(), domain.DirectionChineseToEnglish)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if question.Question != "What does '你好' (nǐ hǎo) mean?" {
		t.Errorf("Unexpected question text: %q", question.Question)
	}
	if question.CorrectAnswer != "hello" {
		t.Errorf("Expected correct answer %q, got %q", "hello", question.CorrectAnswer)
	}
	if question.CardID != target.ID {
		t.Error("Question must reference the target card")
	}
	if question.Direction != domain.DirectionChineseToEnglish {
		t.Errorf("Unexpected direction %q", question.Direction)
	}
	if len(question.Options) != 4 {
		t.Fatalf("Expected 4 options, got %d", len(question.Options))
	}
}

func TestGenerateEnglishToChinese(t *testing.T) {
	t.Parallel()
	gen := NewQuizGenerator(rand.New(rand.NewSource(1)))
	target := testCard("你好", "nǐ hǎo", "hello")

	question, err := gen.Generate(target, testSiblings(), domain.DirectionEnglishToChinese)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if question.Question != "How do you say 'hello' in Chinese?" {
		t.Errorf("Unexpected question text: %q", question.Question)
	}
	if question.CorrectAnswer != "你好 (nǐ hǎo)" {
		t.Errorf("Expected correct answer %q, got %q", "你好 (nǐ hǎo)", question.CorrectAnswer)
	}
	if len(question.Options) != 4 {
		t.Fatalf("Expected 4 options, got %d", len(question.Options))
	}
}

func TestGenerateOptionsAlwaysContainCorrectAnswer(t *testing.T) {
	t.Parallel()
	target := testCard("你好", "nǐ hǎo", "hello")
	siblings := testSiblings()

	// The shuffle must never drop or duplicate the correct answer.
	for seed := int64(0); seed < 25; seed++ {
		gen := NewQuizGenerator(rand.New(rand.NewSource(seed)))

		question, err := gen.Generate(target, siblings, domain.DirectionChineseToEnglish)
		if err != nil {
			t.Fatalf("Seed %d: unexpected error: %v", seed, err)
		}

		found := 0
		unique := make(map[string]bool, len(question.Options))
		for _, option := range question.Options {
			if option == question.CorrectAnswer {
				found++
			}
			if unique[option] {
				t.Errorf("Seed %d: duplicate option %q", seed, option)
			}
			unique[option] = true
		}
		if found != 1 {
			t.Errorf("Seed %d: correct answer appeared %d times", seed, found)
		}
	}
}

func TestGenerateFewSiblingsDegradesToSingleOption(t *testing.T) {
	t.Parallel()
	gen := NewQuizGenerator(rand.New(rand.NewSource(1)))
	target := testCard("你好", "nǐ hǎo", "hello")
	siblings := []*domain.Card{
		testCard("谢谢", "xièxie", "thank you"),
		testCard("再见", "zàijiàn", "goodbye"),
	}

	question, err := gen.Generate(target, siblings, domain.DirectionChineseToEnglish)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if !question.IsDegenerate() {
		t.Fatalf("Expected degenerate question, got %d options", len(question.Options))
	}
	if question.Options[0] != "hello" {
		t.Errorf("Expected the only option to be the correct answer, got %q", question.Options[0])
	}
}

func TestGenerateExcludesTargetFromDistractors(t *testing.T) {
	t.Parallel()
	gen := NewQuizGenerator(rand.New(rand.NewSource(1)))
	target := testCard("你好", "nǐ hǎo", "hello")

	// Exactly three siblings, one of which is the target itself: the usable
	// pool shrinks below the distractor count.
	siblings := []*domain.Card{
		target,
		testCard("谢谢", "xièxie", "thank you"),
		testCard("再见", "zàijiàn", "goodbye"),
	}

	question, err := gen.Generate(target, siblings, domain.DirectionChineseToEnglish)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if !question.IsDegenerate() {
		t.Errorf("Expected degenerate question, got %d options", len(question.Options))
	}
}

func TestGenerateNilTarget(t *testing.T) {
	t.Parallel()
	gen := NewQuizGenerator(rand.New(rand.NewSource(1)))

	_, err := gen.Generate(nil, testSiblings(), domain.DirectionChineseToEnglish)
	if err != ErrNilTargetCard {
		t.Errorf("Expected ErrNilTargetCard, got %v", err)
	}
}

func TestGenerateInvalidDirection(t *testing.T) {
	t.Parallel()
	gen := NewQuizGenerator(rand.New(rand.NewSource(1)))
	target := testCard("你好", "nǐ hǎo", "hello")

	_, err := gen.Generate(target, testSiblings(), domain.StudyDirection("upside_down"))
	if err != domain.ErrInvalidDirection {
		t.Errorf("Expected ErrInvalidDirection, got %v", err)
	}
}

func TestAnswerMatches(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		correct  string
		selected string
		expected bool
	}{
		{
			name:     "Exact match",
			correct:  "hello",
			selected: "hello",
			expected: true,
		},
		{
			name:     "Case insensitive",
			correct:  "Hello",
			selected: "hELLO",
			expected: true,
		},
		{
			name:     "Surrounding whitespace ignored",
			correct:  "hello",
			selected: "  hello \n",
			expected: true,
		},
		{
			name:     "Chinese answer with pinyin",
			correct:  "你好 (nǐ hǎo)",
			selected: "你好 (nǐ hǎo)",
			expected: true,
		},
		{
			name:     "Different answers",
			correct:  "hello",
			selected: "goodbye",
			expected: false,
		},
		{
			name:     "Interior whitespace is significant",
			correct:  "thank you",
			selected: "thankyou",
			expected: false,
		},
		{
			name:     "Empty submission",
			correct:  "hello",
			selected: "",
			expected: false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := AnswerMatches(tc.correct, tc.selected); got != tc.expected {
				t.Errorf("AnswerMatches(%q, %q) = %t, want %t", tc.correct, tc.selected, got, tc.expected)
			}
		})
	}
}

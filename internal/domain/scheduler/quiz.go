package scheduler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/hanzistudy/hanzi-api/internal/domain"
)

// distractorCount is the number of incorrect options in a full quiz question.
const distractorCount = 3

// Quiz generation errors
var (
	ErrNilTargetCard = errors.New("quiz target card cannot be nil")
)

// QuizQuestion is an ephemeral multiple-choice question built from a target
// card and its deck siblings. It is never persisted: the correct answer is a
// pure function of the target card and direction, so grading can regenerate
// it at submission time.
type QuizQuestion struct {
	CardID        uuid.UUID             `json:"card_id"`
	Question      string                `json:"question"`
	Options       []string              `json:"options"`
	CorrectAnswer string                `json:"correct_answer"`
	Direction     domain.StudyDirection `json:"direction"`
}

// IsDegenerate reports whether the question offers no real choice because
// the deck had too few sibling cards for distractors. Degenerate questions
// are valid and must still grade correctly.
func (q *QuizQuestion) IsDegenerate() bool {
	return len(q.Options) == 1
}

// QuizGenerator builds multiple-choice questions. Distractor sampling and
// option shuffling draw from the injected Rand.
type QuizGenerator struct {
	rng Rand
}

// NewQuizGenerator creates a QuizGenerator. A nil rng uses a time-seeded
// concurrency-safe source.
func NewQuizGenerator(rng Rand) *QuizGenerator {
	if rng == nil {
		rng = NewLockedRand()
	}
	return &QuizGenerator{rng: rng}
}

// Generate builds a question for the target card. siblings are the other
// cards of the same deck and supply the distractor pool; the target itself is
// skipped if present. With fewer than three siblings the question degrades to
// a single correct option. Otherwise exactly three distinct distractors are
// drawn uniformly without replacement and the four options are shuffled so
// position never reveals the answer.
func (g *QuizGenerator) Generate(
	target *domain.Card,
	siblings []*domain.Card,
	direction domain.StudyDirection,
) (*QuizQuestion, error) {
	if target == nil {
		return nil, ErrNilTargetCard
	}
	if !direction.IsValid() {
		return nil, domain.ErrInvalidDirection
	}

	question, correct := promptFor(target, direction)

	pool := make([]*domain.Card, 0, len(siblings))
	for _, card := range siblings {
		if card == nil || card.ID == target.ID {
			continue
		}
		pool = append(pool, card)
	}

	if len(pool) < distractorCount {
		return &QuizQuestion{
			CardID:        target.ID,
			Question:      question,
			Options:       []string{correct},
			CorrectAnswer: correct,
			Direction:     direction,
		}, nil
	}

	options := make([]string, 0, distractorCount+1)
	options = append(options, correct)
	for _, card := range g.sample(pool, distractorCount) {
		options = append(options, optionFor(card, direction))
	}

	g.shuffle(options)

	return &QuizQuestion{
		CardID:        target.ID,
		Question:      question,
		Options:       options,
		CorrectAnswer: correct,
		Direction:     direction,
	}, nil
}

// promptFor returns the question text and correct answer for a card in the
// given direction.
func promptFor(card *domain.Card, direction domain.StudyDirection) (question, correct string) {
	if direction == domain.DirectionChineseToEnglish {
		return fmt.Sprintf("What does '%s' (%s) mean?", card.Hanzi, card.Pinyin), card.English
	}
	return fmt.Sprintf("How do you say '%s' in Chinese?", card.English), card.Chinese()
}

// optionFor formats a distractor card the same way the correct answer is
// formatted for the direction.
func optionFor(card *domain.Card, direction domain.StudyDirection) string {
	if direction == domain.DirectionChineseToEnglish {
		return card.English
	}
	return card.Chinese()
}

// sample draws count distinct cards uniformly without replacement.
func (g *QuizGenerator) sample(pool []*domain.Card, count int) []*domain.Card {
	picked := make([]*domain.Card, len(pool))
	copy(picked, pool)

	for i := 0; i < count; i++ {
		j := i + g.rng.Intn(len(picked)-i)
		picked[i], picked[j] = picked[j], picked[i]
	}

	return picked[:count]
}

// shuffle permutes the options in place (Fisher-Yates).
func (g *QuizGenerator) shuffle(options []string) {
	for i := len(options) - 1; i > 0; i-- {
		j := g.rng.Intn(i + 1)
		options[i], options[j] = options[j], options[i]
	}
}

// CorrectAnswerFor returns the correct answer for a card in the given
// direction. The answer is a pure function of the card and direction, so
// grading regenerates it instead of persisting the generated question.
func CorrectAnswerFor(card *domain.Card, direction domain.StudyDirection) string {
	return optionFor(card, direction)
}

// ExplanationFor returns the feedback text shown after an incorrect answer.
func ExplanationFor(card *domain.Card, direction domain.StudyDirection) string {
	if direction == domain.DirectionChineseToEnglish {
		return fmt.Sprintf("'%s' (%s) means '%s'", card.Hanzi, card.Pinyin, card.English)
	}
	return fmt.Sprintf("'%s' is '%s' in Chinese", card.English, card.Chinese())
}

// AnswerMatches reports whether a submitted answer matches the correct one.
// Comparison is case-insensitive and ignores surrounding whitespace, so
// shuffle order and cosmetic differences never change the verdict.
func AnswerMatches(correct, selected string) bool {
	return strings.EqualFold(strings.TrimSpace(correct), strings.TrimSpace(selected))
}

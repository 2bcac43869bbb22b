package study

import (
	"context"
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hanzistudy/hanzi-api/internal/domain"
	"github.com/hanzistudy/hanzi-api/internal/domain/scheduler"
	"github.com/hanzistudy/hanzi-api/internal/platform/logger"
)

// testEnv bundles a service wired to in-memory fakes.
type testEnv struct {
	service      StudyService
	decks        *fakeDeckStore
	cards        *fakeCardStore
	progress     *fakeProgressStore
	sessions     *fakeSessionStore
	interactions *fakeInteractionStore
	userID       uuid.UUID
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		decks:        newFakeDeckStore(),
		cards:        newFakeCardStore(),
		progress:     newFakeProgressStore(),
		sessions:     newFakeSessionStore(),
		interactions: newFakeInteractionStore(),
		userID:       uuid.New(),
	}

	log, _ := logger.NewTestLogger()
	rng := rand.New(rand.NewSource(42))

	env.service = NewStudyService(ServiceParams{
		TxRunner:     fakeTxRunner{},
		Decks:        env.decks,
		Cards:        env.cards,
		Progress:     env.progress,
		Sessions:     env.sessions,
		Interactions: env.interactions,
		Scheduler:    scheduler.NewDefaultService(),
		Selector:     scheduler.NewSelector(nil, rng),
		Quizzes:      scheduler.NewQuizGenerator(rng),
		BatchSize:    3,
		Logger:       log,
	})

	return env
}

func TestStartSession(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("creates and persists an active session", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		deck, _ := seedDeck(t, env.decks, env.cards, env.userID, 4)

		session, err := env.service.StartSession(ctx, env.userID, deck.ID, domain.DirectionChineseToEnglish)
		require.NoError(t, err)
		assert.Equal(t, env.userID, session.UserID)
		assert.Equal(t, deck.ID, session.DeckID)
		assert.Equal(t, domain.DirectionChineseToEnglish, session.Direction)
		assert.Zero(t, session.CardsStudied)
		assert.False(t, session.IsEnded())

		stored, err := env.sessions.GetByID(ctx, session.ID)
		require.NoError(t, err)
		assert.Equal(t, session.ID, stored.ID)
	})

	t.Run("rejects unknown direction", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		deck, _ := seedDeck(t, env.decks, env.cards, env.userID, 1)

		_, err := env.service.StartSession(ctx, env.userID, deck.ID, domain.StudyDirection("sideways"))
		assert.ErrorIs(t, err, ErrInvalidDirection)
	})

	t.Run("rejects missing deck", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)

		_, err := env.service.StartSession(ctx, env.userID, uuid.New(), domain.DirectionChineseToEnglish)
		assert.ErrorIs(t, err, ErrDeckNotFound)
	})

	t.Run("rejects deck owned by another user", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		otherUser := uuid.New()
		deck, _ := seedDeck(t, env.decks, env.cards, otherUser, 1)

		_, err := env.service.StartSession(ctx, env.userID, deck.ID, domain.DirectionChineseToEnglish)
		assert.ErrorIs(t, err, ErrDeckNotOwned)
	})
}

func TestNextBatch(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("returns cards from the session's deck", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		deck, cards := seedDeck(t, env.decks, env.cards, env.userID, 6)
		session := startedSession(t, env.sessions, env.userID, deck.ID, domain.DirectionChineseToEnglish)

		batch, err := env.service.NextBatch(ctx, env.userID, session.ID)
		require.NoError(t, err)
		require.Len(t, batch, 3)

		deckIDs := make(map[uuid.UUID]bool, len(cards))
		for _, card := range cards {
			deckIDs[card.ID] = true
		}
		seen := make(map[uuid.UUID]bool)
		for _, card := range batch {
			assert.True(t, deckIDs[card.ID], "batch card %s not in deck", card.ID)
			assert.False(t, seen[card.ID], "batch contains duplicate card %s", card.ID)
			seen[card.ID] = true
		}
	})

	t.Run("empty deck yields empty batch", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		deck, _ := seedDeck(t, env.decks, env.cards, env.userID, 0)
		session := startedSession(t, env.sessions, env.userID, deck.ID, domain.DirectionChineseToEnglish)

		batch, err := env.service.NextBatch(ctx, env.userID, session.ID)
		require.NoError(t, err)
		assert.Empty(t, batch)
	})

	t.Run("rejects ended session", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		deck, _ := seedDeck(t, env.decks, env.cards, env.userID, 2)
		session := endedSession(t, env.sessions, env.userID, deck.ID)

		_, err := env.service.NextBatch(ctx, env.userID, session.ID)
		assert.ErrorIs(t, err, ErrSessionEnded)
	})

	t.Run("rejects session owned by another user", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		deck, _ := seedDeck(t, env.decks, env.cards, env.userID, 2)
		session := startedSession(t, env.sessions, env.userID, deck.ID, domain.DirectionChineseToEnglish)

		_, err := env.service.NextBatch(ctx, uuid.New(), session.ID)
		assert.ErrorIs(t, err, ErrSessionNotOwned)
	})

	t.Run("rejects unknown session", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)

		_, err := env.service.NextBatch(ctx, env.userID, uuid.New())
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})
}

func TestRecordFlip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("creates progress and logs the interaction", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		deck, cards := seedDeck(t, env.decks, env.cards, env.userID, 2)
		session := startedSession(t, env.sessions, env.userID, deck.ID, domain.DirectionChineseToEnglish)

		progress, err := env.service.RecordFlip(ctx, env.userID, session.ID, cards[0].ID, 850)
		require.NoError(t, err)
		assert.Equal(t, 1, progress.FlipCount)
		assert.False(t, progress.FirstFlippedAt.IsZero())

		// Flips never touch scheduling state.
		assert.Equal(t, domain.InitialDifficultyScore, progress.DifficultyScore)
		assert.Equal(t, domain.MasteryNew, progress.MasteryLevel)
		assert.Zero(t, progress.QuizAttempts)

		stored, err := env.progress.Get(ctx, env.userID, cards[0].ID)
		require.NoError(t, err)
		assert.Equal(t, 1, stored.FlipCount)

		logged, err := env.interactions.ListBySession(ctx, session.ID)
		require.NoError(t, err)
		require.Len(t, logged, 1)
		assert.Equal(t, domain.InteractionFlip, logged[0].Type)
		assert.Equal(t, cards[0].ID, logged[0].CardID)
		assert.Equal(t, 850, logged[0].ResponseTimeMs)
	})

	t.Run("repeated flips accumulate", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		deck, cards := seedDeck(t, env.decks, env.cards, env.userID, 1)
		session := startedSession(t, env.sessions, env.userID, deck.ID, domain.DirectionChineseToEnglish)

		for i := 0; i < 3; i++ {
			_, err := env.service.RecordFlip(ctx, env.userID, session.ID, cards[0].ID, 500)
			require.NoError(t, err)
		}

		stored, err := env.progress.Get(ctx, env.userID, cards[0].ID)
		require.NoError(t, err)
		assert.Equal(t, 3, stored.FlipCount)
	})

	t.Run("rejects card from another deck", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		deck, _ := seedDeck(t, env.decks, env.cards, env.userID, 1)
		_, otherCards := seedDeck(t, env.decks, env.cards, env.userID, 1)
		session := startedSession(t, env.sessions, env.userID, deck.ID, domain.DirectionChineseToEnglish)

		_, err := env.service.RecordFlip(ctx, env.userID, session.ID, otherCards[0].ID, 500)
		assert.ErrorIs(t, err, ErrCardNotInDeck)
	})

	t.Run("rejects unknown card", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		deck, _ := seedDeck(t, env.decks, env.cards, env.userID, 1)
		session := startedSession(t, env.sessions, env.userID, deck.ID, domain.DirectionChineseToEnglish)

		_, err := env.service.RecordFlip(ctx, env.userID, session.ID, uuid.New(), 500)
		assert.ErrorIs(t, err, ErrCardNotFound)
	})
}

func TestAskQuestion(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("builds a four-option question with the correct answer present", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		deck, cards := seedDeck(t, env.decks, env.cards, env.userID, 5)
		session := startedSession(t, env.sessions, env.userID, deck.ID, domain.DirectionChineseToEnglish)

		question, err := env.service.AskQuestion(ctx, env.userID, session.ID, cards[0].ID)
		require.NoError(t, err)
		assert.Equal(t, cards[0].ID, question.CardID)
		require.Len(t, question.Options, 4)
		assert.Contains(t, question.Options, cards[0].English)
		assert.Equal(t, cards[0].English, question.CorrectAnswer)
		assert.False(t, question.IsDegenerate())
	})

	t.Run("small deck degrades to a single option", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		deck, cards := seedDeck(t, env.decks, env.cards, env.userID, 2)
		session := startedSession(t, env.sessions, env.userID, deck.ID, domain.DirectionEnglishToChinese)

		question, err := env.service.AskQuestion(ctx, env.userID, session.ID, cards[1].ID)
		require.NoError(t, err)
		assert.True(t, question.IsDegenerate())
		assert.Equal(t, cards[1].Chinese(), question.CorrectAnswer)
	})
}

func TestSubmitAnswer(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("correct answer advances progress and session", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		deck, cards := seedDeck(t, env.decks, env.cards, env.userID, 5)
		session := startedSession(t, env.sessions, env.userID, deck.ID, domain.DirectionChineseToEnglish)

		result, err := env.service.SubmitAnswer(ctx, env.userID, session.ID, cards[0].ID, cards[0].English, 1200)
		require.NoError(t, err)
		assert.True(t, result.Correct)
		assert.Equal(t, cards[0].English, result.CorrectAnswer)
		assert.Empty(t, result.Explanation)

		require.NotNil(t, result.Progress)
		assert.Equal(t, 1, result.Progress.QuizAttempts)
		assert.Equal(t, 1, result.Progress.QuizCorrect)
		assert.Equal(t, 1, result.Progress.ConsecutiveCorrect)
		assert.InDelta(t, 0.85, result.Progress.DifficultyScore, 1e-9)

		require.NotNil(t, result.Session)
		assert.Equal(t, 1, result.Session.CardsStudied)
		assert.Equal(t, 1, result.Session.CorrectAnswers)

		stored, err := env.sessions.GetByID(ctx, session.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, stored.CardsStudied)
		assert.Equal(t, 1, stored.CorrectAnswers)

		logged, err := env.interactions.ListBySession(ctx, session.ID)
		require.NoError(t, err)
		require.Len(t, logged, 1)
		assert.Equal(t, domain.InteractionQuizCorrect, logged[0].Type)
	})

	t.Run("grading ignores case and surrounding whitespace", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		deck, cards := seedDeck(t, env.decks, env.cards, env.userID, 5)
		session := startedSession(t, env.sessions, env.userID, deck.ID, domain.DirectionChineseToEnglish)

		result, err := env.service.SubmitAnswer(ctx, env.userID, session.ID, cards[0].ID, "  WATER ", 900)
		require.NoError(t, err)
		assert.True(t, result.Correct)
	})

	t.Run("incorrect answer carries an explanation and raises difficulty", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		deck, cards := seedDeck(t, env.decks, env.cards, env.userID, 5)
		session := startedSession(t, env.sessions, env.userID, deck.ID, domain.DirectionChineseToEnglish)

		result, err := env.service.SubmitAnswer(ctx, env.userID, session.ID, cards[0].ID, "fire", 1500)
		require.NoError(t, err)
		assert.False(t, result.Correct)
		assert.Equal(t, cards[0].English, result.CorrectAnswer)
		assert.Equal(t, "'水' (shuǐ) means 'water'", result.Explanation)
		assert.InDelta(t, 1.4, result.Progress.DifficultyScore, 1e-9)
		assert.Zero(t, result.Progress.ConsecutiveCorrect)

		assert.Equal(t, 1, result.Session.CardsStudied)
		assert.Zero(t, result.Session.CorrectAnswers)

		logged, err := env.interactions.ListBySession(ctx, session.ID)
		require.NoError(t, err)
		require.Len(t, logged, 1)
		assert.Equal(t, domain.InteractionQuizIncorrect, logged[0].Type)
	})

	t.Run("english to chinese grades against the chinese rendering", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		deck, cards := seedDeck(t, env.decks, env.cards, env.userID, 5)
		session := startedSession(t, env.sessions, env.userID, deck.ID, domain.DirectionEnglishToChinese)

		result, err := env.service.SubmitAnswer(ctx, env.userID, session.ID, cards[0].ID, cards[0].Chinese(), 1100)
		require.NoError(t, err)
		assert.True(t, result.Correct)
		assert.Equal(t, cards[0].Chinese(), result.CorrectAnswer)
	})

	t.Run("rejects ended session", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		deck, cards := seedDeck(t, env.decks, env.cards, env.userID, 2)
		session := endedSession(t, env.sessions, env.userID, deck.ID)

		_, err := env.service.SubmitAnswer(ctx, env.userID, session.ID, cards[0].ID, "water", 800)
		assert.ErrorIs(t, err, ErrSessionEnded)
	})
}

func TestEndSession(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("finalizes the session and credits deck study time", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		deck, _ := seedDeck(t, env.decks, env.cards, env.userID, 2)
		session := startedSession(t, env.sessions, env.userID, deck.ID, domain.DirectionChineseToEnglish)

		ended, err := env.service.EndSession(ctx, env.userID, session.ID, 15)
		require.NoError(t, err)
		assert.True(t, ended.IsEnded())
		assert.Equal(t, 15, ended.SessionDurationMinutes)

		stored, err := env.sessions.GetByID(ctx, session.ID)
		require.NoError(t, err)
		assert.True(t, stored.IsEnded())

		updatedDeck, err := env.decks.GetByID(ctx, deck.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(900), updatedDeck.TotalStudyTimeSeconds)
	})

	t.Run("cannot end a session twice", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		deck, _ := seedDeck(t, env.decks, env.cards, env.userID, 1)
		session := startedSession(t, env.sessions, env.userID, deck.ID, domain.DirectionChineseToEnglish)

		_, err := env.service.EndSession(ctx, env.userID, session.ID, 10)
		require.NoError(t, err)

		_, err = env.service.EndSession(ctx, env.userID, session.ID, 10)
		assert.ErrorIs(t, err, ErrSessionEnded)
	})

	t.Run("rejects negative duration", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		deck, _ := seedDeck(t, env.decks, env.cards, env.userID, 1)
		session := startedSession(t, env.sessions, env.userID, deck.ID, domain.DirectionChineseToEnglish)

		_, err := env.service.EndSession(ctx, env.userID, session.ID, -1)
		assert.ErrorIs(t, err, ErrInvalidDuration)
	})
}

func TestListSessions(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("returns the user's sessions for the deck", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		deck, _ := seedDeck(t, env.decks, env.cards, env.userID, 1)
		startedSession(t, env.sessions, env.userID, deck.ID, domain.DirectionChineseToEnglish)
		startedSession(t, env.sessions, env.userID, deck.ID, domain.DirectionEnglishToChinese)

		sessions, err := env.service.ListSessions(ctx, env.userID, deck.ID, 10, 0)
		require.NoError(t, err)
		assert.Len(t, sessions, 2)
	})

	t.Run("rejects deck owned by another user", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		deck, _ := seedDeck(t, env.decks, env.cards, uuid.New(), 1)

		_, err := env.service.ListSessions(ctx, env.userID, deck.ID, 10, 0)
		assert.ErrorIs(t, err, ErrDeckNotOwned)
	})
}

func TestSessionStatistics(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	env := newTestEnv(t)
	deck, cards := seedDeck(t, env.decks, env.cards, env.userID, 5)
	session := startedSession(t, env.sessions, env.userID, deck.ID, domain.DirectionChineseToEnglish)

	_, err := env.service.RecordFlip(ctx, env.userID, session.ID, cards[0].ID, 400)
	require.NoError(t, err)
	_, err = env.service.RecordFlip(ctx, env.userID, session.ID, cards[1].ID, 600)
	require.NoError(t, err)
	_, err = env.service.SubmitAnswer(ctx, env.userID, session.ID, cards[0].ID, cards[0].English, 1000)
	require.NoError(t, err)
	_, err = env.service.SubmitAnswer(ctx, env.userID, session.ID, cards[1].ID, "wrong", 1000)
	require.NoError(t, err)

	stats, err := env.service.SessionStatistics(ctx, env.userID, session.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.TotalInteractions)
	assert.Equal(t, 2, stats.FlipCount)
	assert.Equal(t, 2, stats.QuizCount)
	assert.Equal(t, 1, stats.CorrectCount)
	assert.InDelta(t, 0.5, stats.Accuracy, 1e-9)
	assert.Equal(t, 2, stats.UniqueCards)
	assert.InDelta(t, 750.0, stats.AverageResponseTimeMs, 1e-9)
	assert.Equal(t, 2, stats.Session.CardsStudied)
	assert.Equal(t, 1, stats.Session.CorrectAnswers)
}

func TestDeckStatistics(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("untouched deck counts every card as new and due", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		deck, _ := seedDeck(t, env.decks, env.cards, env.userID, 4)

		stats, err := env.service.DeckStatistics(ctx, env.userID, deck.ID)
		require.NoError(t, err)
		assert.Equal(t, 4, stats.TotalCards)
		assert.Equal(t, 4, stats.MasteryCounts["new"])
		assert.Equal(t, 4, stats.DueCount)
		assert.Equal(t, domain.InitialDifficultyScore, stats.AverageDifficulty)
		assert.Zero(t, stats.Accuracy)
	})

	t.Run("reflects quiz history and study time", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		deck, cards := seedDeck(t, env.decks, env.cards, env.userID, 4)
		session := startedSession(t, env.sessions, env.userID, deck.ID, domain.DirectionChineseToEnglish)

		_, err := env.service.SubmitAnswer(ctx, env.userID, session.ID, cards[0].ID, cards[0].English, 900)
		require.NoError(t, err)
		_, err = env.service.SubmitAnswer(ctx, env.userID, session.ID, cards[1].ID, "wrong", 900)
		require.NoError(t, err)
		_, err = env.service.EndSession(ctx, env.userID, session.ID, 2)
		require.NoError(t, err)

		stats, err := env.service.DeckStatistics(ctx, env.userID, deck.ID)
		require.NoError(t, err)
		assert.Equal(t, 4, stats.TotalCards)

		// Two answered cards remain below the learning thresholds, two are unseen.
		assert.Equal(t, 4, stats.MasteryCounts["new"])
		assert.InDelta(t, 0.5, stats.Accuracy, 1e-9)
		assert.InDelta(t, (0.85+1.4)/2, stats.AverageDifficulty, 1e-9)
		assert.Equal(t, int64(120), stats.TotalStudyTimeSeconds)

		// Both answered cards are rescheduled into the future; only the two
		// unseen cards are due.
		assert.Equal(t, 2, stats.DueCount)
	})
}

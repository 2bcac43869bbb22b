package study

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hanzistudy/hanzi-api/internal/domain"
	"github.com/hanzistudy/hanzi-api/internal/domain/scheduler"
	"github.com/hanzistudy/hanzi-api/internal/platform/logger"
	"github.com/hanzistudy/hanzi-api/internal/store"
)

// defaultBatchSize is used when no batch size is configured.
const defaultBatchSize = 10

// Verify interface compliance at compile time
var _ StudyService = (*studyServiceImpl)(nil)

// ServiceParams bundles the dependencies of the study service.
type ServiceParams struct {
	TxRunner     store.TxRunner
	Decks        store.DeckStore
	Cards        store.CardStore
	Progress     store.CardProgressStore
	Sessions     store.StudySessionStore
	Interactions store.CardInteractionStore

	// Scheduler computes progress transitions; Selector and Quizzes pick
	// cards and build questions. Nil Selector/Quizzes get defaults.
	Scheduler scheduler.Service
	Selector  *scheduler.Selector
	Quizzes   *scheduler.QuizGenerator

	// BatchSize is the target number of cards per batch; zero uses the default.
	BatchSize int

	Logger *slog.Logger
}

// studyServiceImpl implements the StudyService interface.
type studyServiceImpl struct {
	txRunner     store.TxRunner
	decks        store.DeckStore
	cards        store.CardStore
	progress     store.CardProgressStore
	sessions     store.StudySessionStore
	interactions store.CardInteractionStore
	scheduler    scheduler.Service
	selector     *scheduler.Selector
	quizzes      *scheduler.QuizGenerator
	batchSize    int
	logger       *slog.Logger
}

// NewStudyService creates a new StudyService implementation.
func NewStudyService(params ServiceParams) StudyService {
	// ALLOW-PANIC: Constructor enforcing required dependencies
	if params.TxRunner == nil {
		panic("txRunner cannot be nil")
	}
	if params.Decks == nil {
		panic("deck store cannot be nil")
	}
	if params.Cards == nil {
		panic("card store cannot be nil")
	}
	if params.Progress == nil {
		panic("progress store cannot be nil")
	}
	if params.Sessions == nil {
		panic("session store cannot be nil")
	}
	if params.Interactions == nil {
		panic("interaction store cannot be nil")
	}
	if params.Scheduler == nil {
		panic("scheduler service cannot be nil")
	}

	if params.Selector == nil {
		params.Selector = scheduler.NewSelector(nil, nil)
	}
	if params.Quizzes == nil {
		params.Quizzes = scheduler.NewQuizGenerator(nil)
	}
	if params.BatchSize <= 0 {
		params.BatchSize = defaultBatchSize
	}
	if params.Logger == nil {
		params.Logger = slog.Default()
	}

	return &studyServiceImpl{
		txRunner:     params.TxRunner,
		decks:        params.Decks,
		cards:        params.Cards,
		progress:     params.Progress,
		sessions:     params.Sessions,
		interactions: params.Interactions,
		scheduler:    params.Scheduler,
		selector:     params.Selector,
		quizzes:      params.Quizzes,
		batchSize:    params.BatchSize,
		logger:       params.Logger.With(slog.String("component", "study_service")),
	}
}

// StartSession implements StudyService.StartSession.
func (s *studyServiceImpl) StartSession(
	ctx context.Context,
	userID, deckID uuid.UUID,
	direction domain.StudyDirection,
) (*domain.StudySession, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if !direction.IsValid() {
		log.Warn("invalid study direction",
			slog.String("user_id", userID.String()),
			slog.String("direction", string(direction)))
		return nil, ErrInvalidDirection
	}

	if _, err := s.loadOwnedDeck(ctx, userID, deckID); err != nil {
		return nil, err
	}

	session, err := domain.NewStudySession(userID, deckID, direction)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		log.Error("failed to persist study session",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()),
			slog.String("deck_id", deckID.String()))
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}

	log.Info("study session started",
		slog.String("session_id", session.ID.String()),
		slog.String("user_id", userID.String()),
		slog.String("deck_id", deckID.String()),
		slog.String("direction", string(direction)))
	return session, nil
}

// NextBatch implements StudyService.NextBatch.
func (s *studyServiceImpl) NextBatch(
	ctx context.Context,
	userID, sessionID uuid.UUID,
) ([]*domain.Card, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	session, err := s.loadActiveSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	cards, err := s.cards.ListByDeck(ctx, session.DeckID)
	if err != nil {
		return nil, fmt.Errorf("failed to list deck cards: %w", err)
	}

	progressByCard, err := s.progressByCard(ctx, userID, session.DeckID)
	if err != nil {
		return nil, err
	}

	cardIDs := make([]uuid.UUID, len(cards))
	cardsByID := make(map[uuid.UUID]*domain.Card, len(cards))
	for i, card := range cards {
		cardIDs[i] = card.ID
		cardsByID[card.ID] = card
	}

	selected := s.selector.Select(cardIDs, progressByCard, s.batchSize, time.Now().UTC())

	batch := make([]*domain.Card, 0, len(selected))
	for _, id := range selected {
		batch = append(batch, cardsByID[id])
	}

	log.Debug("selected study batch",
		slog.String("session_id", sessionID.String()),
		slog.Int("deck_size", len(cards)),
		slog.Int("batch_size", len(batch)))
	return batch, nil
}

// RecordFlip implements StudyService.RecordFlip.
func (s *studyServiceImpl) RecordFlip(
	ctx context.Context,
	userID, sessionID, cardID uuid.UUID,
	responseTimeMs int,
) (*domain.CardProgress, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	session, err := s.loadActiveSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	if _, err := s.loadSessionCard(ctx, session, cardID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	var updated *domain.CardProgress
	err = s.txRunner.RunInTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		progressStore := s.progress.WithTx(tx)
		interactionStore := s.interactions.WithTx(tx)

		current, err := s.getOrCreateProgress(ctx, progressStore, userID, cardID, now)
		if err != nil {
			return err
		}

		updated, err = s.scheduler.ApplyFlip(current, now)
		if err != nil {
			return fmt.Errorf("failed to apply flip: %w", err)
		}

		if err := progressStore.Upsert(ctx, updated); err != nil {
			return fmt.Errorf("failed to save progress: %w", err)
		}

		interaction, err := domain.NewCardInteraction(
			sessionID, userID, cardID,
			domain.InteractionFlip, session.Direction,
			responseTimeMs, now,
		)
		if err != nil {
			return fmt.Errorf("failed to create interaction: %w", err)
		}
		if err := interactionStore.Create(ctx, interaction); err != nil {
			return fmt.Errorf("failed to log interaction: %w", err)
		}

		return nil
	})
	if err != nil {
		if isServiceSentinel(err) {
			return nil, err
		}
		log.Error("failed to record flip",
			slog.String("error", err.Error()),
			slog.String("session_id", sessionID.String()),
			slog.String("card_id", cardID.String()))
		return nil, NewServiceError("record_flip", "failed to record flip", err)
	}

	log.Debug("flip recorded",
		slog.String("session_id", sessionID.String()),
		slog.String("card_id", cardID.String()),
		slog.Int("flip_count", updated.FlipCount))
	return updated, nil
}

// AskQuestion implements StudyService.AskQuestion.
func (s *studyServiceImpl) AskQuestion(
	ctx context.Context,
	userID, sessionID, cardID uuid.UUID,
) (*scheduler.QuizQuestion, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	session, err := s.loadActiveSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	card, err := s.loadSessionCard(ctx, session, cardID)
	if err != nil {
		return nil, err
	}

	siblings, err := s.cards.ListByDeck(ctx, session.DeckID)
	if err != nil {
		return nil, fmt.Errorf("failed to list deck cards: %w", err)
	}

	question, err := s.quizzes.Generate(card, siblings, session.Direction)
	if err != nil {
		log.Error("failed to generate quiz question",
			slog.String("error", err.Error()),
			slog.String("card_id", cardID.String()))
		return nil, NewServiceError("ask_question", "failed to generate question", err)
	}

	log.Debug("quiz question generated",
		slog.String("session_id", sessionID.String()),
		slog.String("card_id", cardID.String()),
		slog.Int("option_count", len(question.Options)))
	return question, nil
}

// SubmitAnswer implements StudyService.SubmitAnswer.
// Grading regenerates the correct answer from the card and session direction,
// so no generated question state needs to survive between requests.
func (s *studyServiceImpl) SubmitAnswer(
	ctx context.Context,
	userID, sessionID, cardID uuid.UUID,
	answer string,
	responseTimeMs int,
) (*AnswerResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	session, err := s.loadActiveSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	card, err := s.loadSessionCard(ctx, session, cardID)
	if err != nil {
		return nil, err
	}

	correct := scheduler.CorrectAnswerFor(card, session.Direction)
	isCorrect := scheduler.AnswerMatches(correct, answer)

	interactionType := domain.InteractionQuizIncorrect
	if isCorrect {
		interactionType = domain.InteractionQuizCorrect
	}

	now := time.Now().UTC()

	var updated *domain.CardProgress
	updatedSession := session.WithAnswer(isCorrect)
	err = s.txRunner.RunInTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		progressStore := s.progress.WithTx(tx)
		interactionStore := s.interactions.WithTx(tx)
		sessionStore := s.sessions.WithTx(tx)

		current, err := s.getOrCreateProgress(ctx, progressStore, userID, cardID, now)
		if err != nil {
			return err
		}

		updated, err = s.scheduler.ApplyAnswer(current, isCorrect, now)
		if err != nil {
			return fmt.Errorf("failed to apply answer: %w", err)
		}

		if err := progressStore.Upsert(ctx, updated); err != nil {
			return fmt.Errorf("failed to save progress: %w", err)
		}

		interaction, err := domain.NewCardInteraction(
			sessionID, userID, cardID,
			interactionType, session.Direction,
			responseTimeMs, now,
		)
		if err != nil {
			return fmt.Errorf("failed to create interaction: %w", err)
		}
		if err := interactionStore.Create(ctx, interaction); err != nil {
			return fmt.Errorf("failed to log interaction: %w", err)
		}

		if err := sessionStore.Update(ctx, updatedSession); err != nil {
			return fmt.Errorf("failed to update session counters: %w", err)
		}

		return nil
	})
	if err != nil {
		if isServiceSentinel(err) {
			return nil, err
		}
		log.Error("failed to submit answer",
			slog.String("error", err.Error()),
			slog.String("session_id", sessionID.String()),
			slog.String("card_id", cardID.String()))
		return nil, NewServiceError("submit_answer", "failed to submit answer", err)
	}

	result := &AnswerResult{
		Correct:       isCorrect,
		CorrectAnswer: correct,
		Progress:      updated,
		Session:       updatedSession,
	}
	if !isCorrect {
		result.Explanation = scheduler.ExplanationFor(card, session.Direction)
	}

	log.Debug("answer graded",
		slog.String("session_id", sessionID.String()),
		slog.String("card_id", cardID.String()),
		slog.Bool("correct", isCorrect),
		slog.String("mastery_level", updated.MasteryLevel.String()),
		slog.Float64("difficulty_score", updated.DifficultyScore))
	return result, nil
}

// EndSession implements StudyService.EndSession.
func (s *studyServiceImpl) EndSession(
	ctx context.Context,
	userID, sessionID uuid.UUID,
	durationMinutes int,
) (*domain.StudySession, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if durationMinutes < 0 {
		return nil, ErrInvalidDuration
	}

	session, err := s.loadOwnedSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	ended, err := session.WithEnd(durationMinutes, now)
	if err != nil {
		if errors.Is(err, domain.ErrSessionAlreadyEnded) {
			return nil, ErrSessionEnded
		}
		return nil, fmt.Errorf("failed to end session: %w", err)
	}

	err = s.txRunner.RunInTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if err := s.sessions.WithTx(tx).Update(ctx, ended); err != nil {
			return fmt.Errorf("failed to finalize session: %w", err)
		}

		seconds := int64(durationMinutes) * 60
		if err := s.decks.WithTx(tx).AddStudyTime(ctx, session.DeckID, seconds); err != nil {
			return fmt.Errorf("failed to add deck study time: %w", err)
		}

		return nil
	})
	if err != nil {
		log.Error("failed to end study session",
			slog.String("error", err.Error()),
			slog.String("session_id", sessionID.String()))
		return nil, NewServiceError("end_session", "failed to end session", err)
	}

	log.Info("study session ended",
		slog.String("session_id", sessionID.String()),
		slog.String("deck_id", session.DeckID.String()),
		slog.Int("cards_studied", ended.CardsStudied),
		slog.Int("correct_answers", ended.CorrectAnswers),
		slog.Int("duration_minutes", durationMinutes))
	return ended, nil
}

// ListSessions implements StudyService.ListSessions.
func (s *studyServiceImpl) ListSessions(
	ctx context.Context,
	userID, deckID uuid.UUID,
	limit, offset int,
) ([]*domain.StudySession, error) {
	if _, err := s.loadOwnedDeck(ctx, userID, deckID); err != nil {
		return nil, err
	}

	sessions, err := s.sessions.ListByUserAndDeck(ctx, userID, deckID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return sessions, nil
}

// SessionStatistics implements StudyService.SessionStatistics.
func (s *studyServiceImpl) SessionStatistics(
	ctx context.Context,
	userID, sessionID uuid.UUID,
) (*SessionStatistics, error) {
	session, err := s.loadOwnedSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	interactions, err := s.interactions.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list interactions: %w", err)
	}

	stats := &SessionStatistics{
		Session:           session,
		TotalInteractions: len(interactions),
	}

	uniqueCards := make(map[uuid.UUID]bool)
	var responseTimeSum, timedInteractions int
	for _, interaction := range interactions {
		uniqueCards[interaction.CardID] = true
		if interaction.Type.IsQuiz() {
			stats.QuizCount++
			if interaction.Type == domain.InteractionQuizCorrect {
				stats.CorrectCount++
			}
		} else {
			stats.FlipCount++
		}
		if interaction.ResponseTimeMs > 0 {
			responseTimeSum += interaction.ResponseTimeMs
			timedInteractions++
		}
	}

	stats.UniqueCards = len(uniqueCards)
	if stats.QuizCount > 0 {
		stats.Accuracy = float64(stats.CorrectCount) / float64(stats.QuizCount)
	}
	if timedInteractions > 0 {
		stats.AverageResponseTimeMs = float64(responseTimeSum) / float64(timedInteractions)
	}

	return stats, nil
}

// DeckStatistics implements StudyService.DeckStatistics.
func (s *studyServiceImpl) DeckStatistics(
	ctx context.Context,
	userID, deckID uuid.UUID,
) (*DeckStatistics, error) {
	deck, err := s.loadOwnedDeck(ctx, userID, deckID)
	if err != nil {
		return nil, err
	}

	cards, err := s.cards.ListByDeck(ctx, deckID)
	if err != nil {
		return nil, fmt.Errorf("failed to list deck cards: %w", err)
	}

	records, err := s.progress.ListByUserAndDeck(ctx, userID, deckID)
	if err != nil {
		return nil, fmt.Errorf("failed to list card progress: %w", err)
	}

	now := time.Now().UTC()
	stats := &DeckStatistics{
		DeckID:     deckID,
		TotalCards: len(cards),
		MasteryCounts: map[string]int{
			domain.MasteryNew.String():      0,
			domain.MasteryLearning.String(): 0,
			domain.MasteryReview.String():   0,
			domain.MasteryMastered.String(): 0,
		},
		TotalStudyTimeSeconds: deck.TotalStudyTimeSeconds,
	}

	var totalAttempts, totalCorrect int
	var difficultySum float64
	for _, record := range records {
		stats.MasteryCounts[record.MasteryLevel.String()]++
		totalAttempts += record.QuizAttempts
		totalCorrect += record.QuizCorrect
		difficultySum += record.DifficultyScore
		if record.IsDue(now) {
			stats.DueCount++
		}
	}

	// Cards without a progress record are new and immediately due.
	unseen := len(cards) - len(records)
	if unseen > 0 {
		stats.MasteryCounts[domain.MasteryNew.String()] += unseen
		stats.DueCount += unseen
	}

	if len(records) > 0 {
		stats.AverageDifficulty = difficultySum / float64(len(records))
	} else {
		stats.AverageDifficulty = domain.InitialDifficultyScore
	}
	if totalAttempts > 0 {
		stats.Accuracy = float64(totalCorrect) / float64(totalAttempts)
	}

	return stats, nil
}

// loadOwnedDeck fetches a deck and verifies ownership.
func (s *studyServiceImpl) loadOwnedDeck(
	ctx context.Context,
	userID, deckID uuid.UUID,
) (*domain.Deck, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	deck, err := s.decks.GetByID(ctx, deckID)
	if err != nil {
		if errors.Is(err, store.ErrDeckNotFound) {
			return nil, ErrDeckNotFound
		}
		return nil, fmt.Errorf("failed to get deck: %w", err)
	}

	if deck.UserID != userID {
		log.Warn("user does not own deck",
			slog.String("user_id", userID.String()),
			slog.String("deck_id", deckID.String()),
			slog.String("owner_id", deck.UserID.String()))
		return nil, ErrDeckNotOwned
	}

	return deck, nil
}

// loadOwnedSession fetches a session and verifies ownership.
func (s *studyServiceImpl) loadOwnedSession(
	ctx context.Context,
	userID, sessionID uuid.UUID,
) (*domain.StudySession, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, store.ErrSessionNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	if session.UserID != userID {
		log.Warn("user does not own session",
			slog.String("user_id", userID.String()),
			slog.String("session_id", sessionID.String()),
			slog.String("owner_id", session.UserID.String()))
		return nil, ErrSessionNotOwned
	}

	return session, nil
}

// loadActiveSession fetches an owned session and rejects finalized ones.
func (s *studyServiceImpl) loadActiveSession(
	ctx context.Context,
	userID, sessionID uuid.UUID,
) (*domain.StudySession, error) {
	session, err := s.loadOwnedSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	if session.IsEnded() {
		return nil, ErrSessionEnded
	}

	return session, nil
}

// loadSessionCard fetches a card and verifies it belongs to the session's deck.
func (s *studyServiceImpl) loadSessionCard(
	ctx context.Context,
	session *domain.StudySession,
	cardID uuid.UUID,
) (*domain.Card, error) {
	card, err := s.cards.GetByID(ctx, cardID)
	if err != nil {
		if errors.Is(err, store.ErrCardNotFound) {
			return nil, ErrCardNotFound
		}
		return nil, fmt.Errorf("failed to get card: %w", err)
	}

	if card.DeckID != session.DeckID {
		return nil, ErrCardNotInDeck
	}

	return card, nil
}

// getOrCreateProgress loads the progress record, creating a fresh one for a
// card the user has never touched.
func (s *studyServiceImpl) getOrCreateProgress(
	ctx context.Context,
	progressStore store.CardProgressStore,
	userID, cardID uuid.UUID,
	now time.Time,
) (*domain.CardProgress, error) {
	progress, err := progressStore.Get(ctx, userID, cardID)
	if err == nil {
		return progress, nil
	}
	if !errors.Is(err, store.ErrProgressNotFound) {
		return nil, fmt.Errorf("failed to get progress: %w", err)
	}

	progress, err = domain.NewCardProgress(userID, cardID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to create progress: %w", err)
	}
	return progress, nil
}

// progressByCard loads the user's deck progress into a lookup map for the selector.
func (s *studyServiceImpl) progressByCard(
	ctx context.Context,
	userID, deckID uuid.UUID,
) (map[uuid.UUID]*domain.CardProgress, error) {
	records, err := s.progress.ListByUserAndDeck(ctx, userID, deckID)
	if err != nil {
		return nil, fmt.Errorf("failed to list card progress: %w", err)
	}

	byCard := make(map[uuid.UUID]*domain.CardProgress, len(records))
	for _, record := range records {
		byCard[record.CardID] = record
	}
	return byCard, nil
}

// isServiceSentinel reports whether the error is one of the service's own
// sentinel errors that should pass through unwrapped.
func isServiceSentinel(err error) bool {
	return errors.Is(err, ErrDeckNotFound) ||
		errors.Is(err, ErrDeckNotOwned) ||
		errors.Is(err, ErrSessionNotFound) ||
		errors.Is(err, ErrSessionNotOwned) ||
		errors.Is(err, ErrSessionEnded) ||
		errors.Is(err, ErrCardNotFound) ||
		errors.Is(err, ErrCardNotInDeck) ||
		errors.Is(err, ErrInvalidDirection) ||
		errors.Is(err, ErrInvalidDuration)
}

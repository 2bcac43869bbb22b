package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hanzistudy/hanzi-api/internal/domain"
	"github.com/hanzistudy/hanzi-api/internal/platform/logger"
	"github.com/hanzistudy/hanzi-api/internal/store"
)

// nullableTime converts a domain time into a SQL value, mapping the zero time
// to NULL. Progress and session rows use NULL for "never happened".
func nullableTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}

// PostgresCardProgressStore implements the store.CardProgressStore interface
// using a PostgreSQL database as the storage backend.
type PostgresCardProgressStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresCardProgressStore creates a new PostgreSQL implementation of the
// CardProgressStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresCardProgressStore(db store.DBTX, logger *slog.Logger) *PostgresCardProgressStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresCardProgressStore{
		db:     db,
		logger: logger.With(slog.String("component", "card_progress_store")),
	}
}

// Ensure PostgresCardProgressStore implements store.CardProgressStore interface
var _ store.CardProgressStore = (*PostgresCardProgressStore)(nil)

const progressColumns = `
	user_id, card_id, mastery_level, difficulty_score,
	quiz_attempts, quiz_correct, consecutive_correct,
	flip_count, first_flipped_at, last_flipped_at, last_quiz_attempt_at,
	next_review_at, total_study_time_seconds, created_at, updated_at
`

// scanProgress reads one progress row into a domain value, converting NULL
// timestamps back to zero times.
func scanProgress(row interface{ Scan(dest ...any) error }) (*domain.CardProgress, error) {
	var progress domain.CardProgress
	var firstFlipped, lastFlipped, lastQuiz sql.NullTime

	err := row.Scan(
		&progress.UserID,
		&progress.CardID,
		&progress.MasteryLevel,
		&progress.DifficultyScore,
		&progress.QuizAttempts,
		&progress.QuizCorrect,
		&progress.ConsecutiveCorrect,
		&progress.FlipCount,
		&firstFlipped,
		&lastFlipped,
		&lastQuiz,
		&progress.NextReviewAt,
		&progress.TotalStudyTimeSeconds,
		&progress.CreatedAt,
		&progress.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	progress.FirstFlippedAt = firstFlipped.Time
	progress.LastFlippedAt = lastFlipped.Time
	progress.LastQuizAttemptAt = lastQuiz.Time

	return &progress, nil
}

// Get implements store.CardProgressStore.Get
// It retrieves the progress record for a user and card pair.
// Returns store.ErrProgressNotFound if no record exists yet.
func (s *PostgresCardProgressStore) Get(
	ctx context.Context,
	userID, cardID uuid.UUID,
) (*domain.CardProgress, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT ` + progressColumns + `
		FROM card_progress
		WHERE user_id = $1 AND card_id = $2
	`

	progress, err := scanProgress(s.db.QueryRowContext(ctx, query, userID, cardID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("card progress not found",
				slog.String("user_id", userID.String()),
				slog.String("card_id", cardID.String()))
			return nil, store.ErrProgressNotFound
		}
		log.Error("failed to get card progress",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()),
			slog.String("card_id", cardID.String()))
		return nil, err
	}

	return progress, nil
}

// Upsert implements store.CardProgressStore.Upsert
// It inserts the progress record or replaces the existing row for the same
// (user_id, card_id) pair. The scheduler always computes the full next state,
// so the row is overwritten wholesale.
func (s *PostgresCardProgressStore) Upsert(
	ctx context.Context,
	progress *domain.CardProgress,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := progress.Validate(); err != nil {
		log.Warn("card progress validation failed during upsert",
			slog.String("error", err.Error()),
			slog.String("user_id", progress.UserID.String()),
			slog.String("card_id", progress.CardID.String()))
		return err
	}

	query := `
		INSERT INTO card_progress (` + progressColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (user_id, card_id) DO UPDATE SET
			mastery_level = EXCLUDED.mastery_level,
			difficulty_score = EXCLUDED.difficulty_score,
			quiz_attempts = EXCLUDED.quiz_attempts,
			quiz_correct = EXCLUDED.quiz_correct,
			consecutive_correct = EXCLUDED.consecutive_correct,
			flip_count = EXCLUDED.flip_count,
			first_flipped_at = EXCLUDED.first_flipped_at,
			last_flipped_at = EXCLUDED.last_flipped_at,
			last_quiz_attempt_at = EXCLUDED.last_quiz_attempt_at,
			next_review_at = EXCLUDED.next_review_at,
			total_study_time_seconds = EXCLUDED.total_study_time_seconds,
			updated_at = EXCLUDED.updated_at
	`

	_, err := s.db.ExecContext(
		ctx,
		query,
		progress.UserID,
		progress.CardID,
		progress.MasteryLevel,
		progress.DifficultyScore,
		progress.QuizAttempts,
		progress.QuizCorrect,
		progress.ConsecutiveCorrect,
		progress.FlipCount,
		nullableTime(progress.FirstFlippedAt),
		nullableTime(progress.LastFlippedAt),
		nullableTime(progress.LastQuizAttemptAt),
		progress.NextReviewAt,
		progress.TotalStudyTimeSeconds,
		progress.CreatedAt,
		progress.UpdatedAt,
	)

	if err != nil {
		if IsForeignKeyViolation(err) {
			log.Warn("foreign key violation during progress upsert",
				slog.String("error", err.Error()),
				slog.String("card_id", progress.CardID.String()))
			return fmt.Errorf("%w: card with ID %s not found",
				store.ErrInvalidEntity, progress.CardID)
		}

		log.Error("failed to upsert card progress",
			slog.String("error", err.Error()),
			slog.String("user_id", progress.UserID.String()),
			slog.String("card_id", progress.CardID.String()))
		return err
	}

	log.Debug("card progress upserted",
		slog.String("user_id", progress.UserID.String()),
		slog.String("card_id", progress.CardID.String()),
		slog.String("mastery_level", progress.MasteryLevel.String()))
	return nil
}

// ListByUserAndDeck implements store.CardProgressStore.ListByUserAndDeck
// It retrieves the user's progress for every card in the deck. Cards without
// a progress row are absent from the result.
func (s *PostgresCardProgressStore) ListByUserAndDeck(
	ctx context.Context,
	userID, deckID uuid.UUID,
) ([]*domain.CardProgress, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT ` + progressColumnsPrefixed + `
		FROM card_progress p
		JOIN cards c ON c.id = p.card_id
		WHERE p.user_id = $1 AND c.deck_id = $2
	`

	rows, err := s.db.QueryContext(ctx, query, userID, deckID)
	if err != nil {
		log.Error("failed to query card progress by deck",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()),
			slog.String("deck_id", deckID.String()))
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	var records []*domain.CardProgress
	for rows.Next() {
		progress, err := scanProgress(rows)
		if err != nil {
			log.Error("failed to scan card progress row",
				slog.String("error", err.Error()))
			return nil, err
		}
		records = append(records, progress)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows",
			slog.String("error", err.Error()))
		return nil, err
	}

	if records == nil {
		records = []*domain.CardProgress{}
	}

	log.Debug("found card progress by deck",
		slog.String("user_id", userID.String()),
		slog.String("deck_id", deckID.String()),
		slog.Int("count", len(records)))
	return records, nil
}

const progressColumnsPrefixed = `
	p.user_id, p.card_id, p.mastery_level, p.difficulty_score,
	p.quiz_attempts, p.quiz_correct, p.consecutive_correct,
	p.flip_count, p.first_flipped_at, p.last_flipped_at, p.last_quiz_attempt_at,
	p.next_review_at, p.total_study_time_seconds, p.created_at, p.updated_at
`

// WithTx implements store.CardProgressStore.WithTx
// It returns a new CardProgressStore instance that uses the provided transaction.
func (s *PostgresCardProgressStore) WithTx(tx *sql.Tx) store.CardProgressStore {
	return &PostgresCardProgressStore{
		db:     tx,
		logger: s.logger,
	}
}

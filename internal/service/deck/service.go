// Package deck implements deck and card management: creating decks, importing
// cards in bulk, and deleting either. Study flow lives in the study package.
package deck

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/hanzistudy/hanzi-api/internal/domain"
	"github.com/hanzistudy/hanzi-api/internal/platform/logger"
	"github.com/hanzistudy/hanzi-api/internal/store"
)

// Common error types for DeckService
var (
	// ErrDeckNotFound indicates that the deck does not exist.
	ErrDeckNotFound = errors.New("deck not found")

	// ErrDeckNotOwned indicates that the user does not own the deck.
	ErrDeckNotOwned = errors.New("unauthorized access: deck not owned by user")

	// ErrDeckNameTaken indicates the user already has a deck with this name.
	ErrDeckNameTaken = errors.New("deck name already in use")

	// ErrCardNotFound indicates that the card does not exist.
	ErrCardNotFound = errors.New("card not found")

	// ErrNoCards indicates an import request carried no cards.
	ErrNoCards = errors.New("at least one card is required")
)

// NewCardData is the input for one card in a bulk import.
type NewCardData struct {
	Hanzi   string
	Pinyin  string
	English string
}

// DeckService manages a user's decks and their cards. All operations verify
// ownership before touching anything.
type DeckService interface {
	// CreateDeck creates an empty deck for the user.
	// Returns ErrDeckNameTaken if the user already has a deck with the name.
	CreateDeck(ctx context.Context, userID uuid.UUID, name, description string) (*domain.Deck, error)

	// GetDeck retrieves one of the user's decks.
	GetDeck(ctx context.Context, userID, deckID uuid.UUID) (*domain.Deck, error)

	// ListDecks returns all decks owned by the user.
	ListDecks(ctx context.Context, userID uuid.UUID) ([]*domain.Deck, error)

	// AddCards imports cards into the deck in a single transaction; either
	// every card is created or none are.
	AddCards(ctx context.Context, userID, deckID uuid.UUID, cards []NewCardData) ([]*domain.Card, error)

	// ListCards returns the deck's cards in creation order.
	ListCards(ctx context.Context, userID, deckID uuid.UUID) ([]*domain.Card, error)

	// DeleteCard removes a single card from one of the user's decks.
	DeleteCard(ctx context.Context, userID, cardID uuid.UUID) error

	// DeleteDeck removes a deck and everything under it.
	DeleteDeck(ctx context.Context, userID, deckID uuid.UUID) error
}

// Verify interface compliance at compile time
var _ DeckService = (*deckServiceImpl)(nil)

type deckServiceImpl struct {
	txRunner store.TxRunner
	decks    store.DeckStore
	cards    store.CardStore
	logger   *slog.Logger
}

// NewDeckService creates a new DeckService implementation.
func NewDeckService(txRunner store.TxRunner, decks store.DeckStore, cards store.CardStore, log *slog.Logger) DeckService {
	if txRunner == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("txRunner cannot be nil")
	}
	if decks == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("deck store cannot be nil")
	}
	if cards == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("card store cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}

	return &deckServiceImpl{
		txRunner: txRunner,
		decks:    decks,
		cards:    cards,
		logger:   log.With(slog.String("component", "deck_service")),
	}
}

func (s *deckServiceImpl) CreateDeck(
	ctx context.Context,
	userID uuid.UUID,
	name, description string,
) (*domain.Deck, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	deck, err := domain.NewDeck(userID, name, description)
	if err != nil {
		return nil, err
	}

	if err := s.decks.Create(ctx, deck); err != nil {
		if errors.Is(err, store.ErrDeckNameExists) {
			return nil, fmt.Errorf("%w: %q", ErrDeckNameTaken, name)
		}
		log.Error("failed to create deck",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, fmt.Errorf("failed to create deck: %w", err)
	}

	log.Info("deck created",
		slog.String("deck_id", deck.ID.String()),
		slog.String("user_id", userID.String()))
	return deck, nil
}

func (s *deckServiceImpl) GetDeck(ctx context.Context, userID, deckID uuid.UUID) (*domain.Deck, error) {
	return s.loadOwnedDeck(ctx, userID, deckID)
}

func (s *deckServiceImpl) ListDecks(ctx context.Context, userID uuid.UUID) ([]*domain.Deck, error) {
	decks, err := s.decks.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list decks: %w", err)
	}
	return decks, nil
}

func (s *deckServiceImpl) AddCards(
	ctx context.Context,
	userID, deckID uuid.UUID,
	cards []NewCardData,
) ([]*domain.Card, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if len(cards) == 0 {
		return nil, ErrNoCards
	}

	if _, err := s.loadOwnedDeck(ctx, userID, deckID); err != nil {
		return nil, err
	}

	created := make([]*domain.Card, 0, len(cards))
	for _, data := range cards {
		card, err := domain.NewCard(deckID, data.Hanzi, data.Pinyin, data.English)
		if err != nil {
			return nil, err
		}
		created = append(created, card)
	}

	err := s.txRunner.RunInTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		return s.cards.WithTx(tx).CreateMultiple(ctx, created)
	})
	if err != nil {
		log.Error("failed to import cards",
			slog.String("error", err.Error()),
			slog.String("deck_id", deckID.String()),
			slog.Int("card_count", len(created)))
		return nil, fmt.Errorf("failed to import cards: %w", err)
	}

	log.Info("cards imported",
		slog.String("deck_id", deckID.String()),
		slog.Int("card_count", len(created)))
	return created, nil
}

func (s *deckServiceImpl) ListCards(ctx context.Context, userID, deckID uuid.UUID) ([]*domain.Card, error) {
	if _, err := s.loadOwnedDeck(ctx, userID, deckID); err != nil {
		return nil, err
	}

	cards, err := s.cards.ListByDeck(ctx, deckID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cards: %w", err)
	}
	return cards, nil
}

func (s *deckServiceImpl) DeleteCard(ctx context.Context, userID, cardID uuid.UUID) error {
	card, err := s.cards.GetByID(ctx, cardID)
	if err != nil {
		if errors.Is(err, store.ErrCardNotFound) {
			return ErrCardNotFound
		}
		return fmt.Errorf("failed to get card: %w", err)
	}

	if _, err := s.loadOwnedDeck(ctx, userID, card.DeckID); err != nil {
		return err
	}

	if err := s.cards.Delete(ctx, cardID); err != nil {
		if errors.Is(err, store.ErrCardNotFound) {
			return ErrCardNotFound
		}
		return fmt.Errorf("failed to delete card: %w", err)
	}
	return nil
}

func (s *deckServiceImpl) DeleteDeck(ctx context.Context, userID, deckID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if _, err := s.loadOwnedDeck(ctx, userID, deckID); err != nil {
		return err
	}

	if err := s.decks.Delete(ctx, deckID); err != nil {
		if errors.Is(err, store.ErrDeckNotFound) {
			return ErrDeckNotFound
		}
		return fmt.Errorf("failed to delete deck: %w", err)
	}

	log.Info("deck deleted",
		slog.String("deck_id", deckID.String()),
		slog.String("user_id", userID.String()))
	return nil
}

func (s *deckServiceImpl) loadOwnedDeck(ctx context.Context, userID, deckID uuid.UUID) (*domain.Deck, error) {
	deck, err := s.decks.GetByID(ctx, deckID)
	if err != nil {
		if errors.Is(err, store.ErrDeckNotFound) {
			return nil, ErrDeckNotFound
		}
		return nil, fmt.Errorf("failed to get deck: %w", err)
	}

	if deck.UserID != userID {
		return nil, ErrDeckNotOwned
	}

	return deck, nil
}

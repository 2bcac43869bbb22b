package study

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hanzistudy/hanzi-api/internal/domain"
	"github.com/hanzistudy/hanzi-api/internal/store"
)

// fakeTxRunner executes the transaction function directly with a nil
// transaction handle. The fake stores ignore WithTx, so everything runs
// against their in-memory state.
type fakeTxRunner struct{}

func (fakeTxRunner) RunInTransaction(ctx context.Context, fn store.TxFn) error {
	return fn(ctx, nil)
}

type fakeDeckStore struct {
	mu    sync.Mutex
	decks map[uuid.UUID]*domain.Deck
}

func newFakeDeckStore() *fakeDeckStore {
	return &fakeDeckStore{decks: make(map[uuid.UUID]*domain.Deck)}
}

func (s *fakeDeckStore) Create(ctx context.Context, deck *domain.Deck) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.decks[deck.ID] = deck
	return nil
}

func (s *fakeDeckStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Deck, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	deck, ok := s.decks[id]
	if !ok {
		return nil, store.ErrDeckNotFound
	}
	copied := *deck
	return &copied, nil
}

func (s *fakeDeckStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Deck, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := []*domain.Deck{}
	for _, deck := range s.decks {
		if deck.UserID == userID {
			copied := *deck
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (s *fakeDeckStore) AddStudyTime(ctx context.Context, id uuid.UUID, seconds int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	deck, ok := s.decks[id]
	if !ok {
		return store.ErrDeckNotFound
	}
	deck.TotalStudyTimeSeconds += seconds
	return nil
}

func (s *fakeDeckStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.decks[id]; !ok {
		return store.ErrDeckNotFound
	}
	delete(s.decks, id)
	return nil
}

func (s *fakeDeckStore) WithTx(tx *sql.Tx) store.DeckStore { return s }

type fakeCardStore struct {
	mu    sync.Mutex
	cards map[uuid.UUID]*domain.Card
	order []uuid.UUID
}

func newFakeCardStore() *fakeCardStore {
	return &fakeCardStore{cards: make(map[uuid.UUID]*domain.Card)}
}

func (s *fakeCardStore) Create(ctx context.Context, card *domain.Card) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cards[card.ID] = card
	s.order = append(s.order, card.ID)
	return nil
}

func (s *fakeCardStore) CreateMultiple(ctx context.Context, cards []*domain.Card) error {
	for _, card := range cards {
		if err := s.Create(ctx, card); err != nil {
			return err
		}
	}
	return nil
}

func (s *fakeCardStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	card, ok := s.cards[id]
	if !ok {
		return nil, store.ErrCardNotFound
	}
	copied := *card
	return &copied, nil
}

func (s *fakeCardStore) ListByDeck(ctx context.Context, deckID uuid.UUID) ([]*domain.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := []*domain.Card{}
	for _, id := range s.order {
		if card := s.cards[id]; card != nil && card.DeckID == deckID {
			copied := *card
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (s *fakeCardStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cards[id]; !ok {
		return store.ErrCardNotFound
	}
	delete(s.cards, id)
	return nil
}

func (s *fakeCardStore) WithTx(tx *sql.Tx) store.CardStore { return s }

type progressKey struct {
	userID uuid.UUID
	cardID uuid.UUID
}

type fakeProgressStore struct {
	mu      sync.Mutex
	records map[progressKey]*domain.CardProgress
}

func newFakeProgressStore() *fakeProgressStore {
	return &fakeProgressStore{records: make(map[progressKey]*domain.CardProgress)}
}

func (s *fakeProgressStore) Get(ctx context.Context, userID, cardID uuid.UUID) (*domain.CardProgress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[progressKey{userID, cardID}]
	if !ok {
		return nil, store.ErrProgressNotFound
	}
	copied := *record
	return &copied, nil
}

func (s *fakeProgressStore) Upsert(ctx context.Context, progress *domain.CardProgress) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *progress
	s.records[progressKey{progress.UserID, progress.CardID}] = &copied
	return nil
}

func (s *fakeProgressStore) ListByUserAndDeck(ctx context.Context, userID, deckID uuid.UUID) ([]*domain.CardProgress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := []*domain.CardProgress{}
	for key, record := range s.records {
		if key.userID == userID {
			copied := *record
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (s *fakeProgressStore) WithTx(tx *sql.Tx) store.CardProgressStore { return s }

type fakeSessionStore struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*domain.StudySession
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: make(map[uuid.UUID]*domain.StudySession)}
}

func (s *fakeSessionStore) Create(ctx context.Context, session *domain.StudySession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *session
	s.sessions[session.ID] = &copied
	return nil
}

func (s *fakeSessionStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.StudySession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, store.ErrSessionNotFound
	}
	copied := *session
	return &copied, nil
}

func (s *fakeSessionStore) Update(ctx context.Context, session *domain.StudySession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[session.ID]; !ok {
		return store.ErrSessionNotFound
	}
	copied := *session
	s.sessions[session.ID] = &copied
	return nil
}

func (s *fakeSessionStore) ListByUserAndDeck(
	ctx context.Context,
	userID, deckID uuid.UUID,
	limit, offset int,
) ([]*domain.StudySession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	matched := []*domain.StudySession{}
	for _, session := range s.sessions {
		if session.UserID == userID && session.DeckID == deckID {
			copied := *session
			matched = append(matched, &copied)
		}
	}
	if offset >= len(matched) {
		return []*domain.StudySession{}, nil
	}
	matched = matched[offset:]
	if limit > 0 && limit < len(matched) {
		matched = matched[:limit]
	}
	return matched, nil
}

func (s *fakeSessionStore) WithTx(tx *sql.Tx) store.StudySessionStore { return s }

type fakeInteractionStore struct {
	mu           sync.Mutex
	interactions []*domain.CardInteraction
}

func newFakeInteractionStore() *fakeInteractionStore {
	return &fakeInteractionStore{}
}

func (s *fakeInteractionStore) Create(ctx context.Context, interaction *domain.CardInteraction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *interaction
	s.interactions = append(s.interactions, &copied)
	return nil
}

func (s *fakeInteractionStore) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]*domain.CardInteraction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := []*domain.CardInteraction{}
	for _, interaction := range s.interactions {
		if interaction.SessionID == sessionID {
			copied := *interaction
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (s *fakeInteractionStore) WithTx(tx *sql.Tx) store.CardInteractionStore { return s }

// seedDeck creates a deck with the given number of cards.
func seedDeck(t *testing.T, decks *fakeDeckStore, cards *fakeCardStore, userID uuid.UUID, cardCount int) (*domain.Deck, []*domain.Card) {
	t.Helper()

	vocabulary := []struct {
		hanzi, pinyin, english string
	}{
		{"水", "shuǐ", "water"},
		{"火", "huǒ", "fire"},
		{"山", "shān", "mountain"},
		{"月", "yuè", "moon"},
		{"书", "shū", "book"},
		{"狗", "gǒu", "dog"},
		{"猫", "māo", "cat"},
		{"茶", "chá", "tea"},
	}
	if cardCount > len(vocabulary) {
		t.Fatalf("seedDeck supports at most %d cards, got %d", len(vocabulary), cardCount)
	}

	deck, err := domain.NewDeck(userID, fmt.Sprintf("HSK deck %s", uuid.New()), "")
	if err != nil {
		t.Fatalf("failed to create deck: %v", err)
	}
	if err := decks.Create(context.Background(), deck); err != nil {
		t.Fatalf("failed to store deck: %v", err)
	}

	created := make([]*domain.Card, 0, cardCount)
	for i := 0; i < cardCount; i++ {
		word := vocabulary[i]
		card, err := domain.NewCard(deck.ID, word.hanzi, word.pinyin, word.english)
		if err != nil {
			t.Fatalf("failed to create card: %v", err)
		}
		if err := cards.Create(context.Background(), card); err != nil {
			t.Fatalf("failed to store card: %v", err)
		}
		created = append(created, card)
	}

	return deck, created
}

// startedSession persists an active session directly in the fake store.
func startedSession(t *testing.T, sessions *fakeSessionStore, userID, deckID uuid.UUID, direction domain.StudyDirection) *domain.StudySession {
	t.Helper()

	session, err := domain.NewStudySession(userID, deckID, direction)
	if err != nil {
		t.Fatalf("failed to create session: %v", err)
	}
	if err := sessions.Create(context.Background(), session); err != nil {
		t.Fatalf("failed to store session: %v", err)
	}
	return session
}

// endedSession persists an already-finalized session.
func endedSession(t *testing.T, sessions *fakeSessionStore, userID, deckID uuid.UUID) *domain.StudySession {
	t.Helper()

	session := startedSession(t, sessions, userID, deckID, domain.DirectionChineseToEnglish)
	ended, err := session.WithEnd(5, time.Now().UTC())
	if err != nil {
		t.Fatalf("failed to end session: %v", err)
	}
	if err := sessions.Update(context.Background(), ended); err != nil {
		t.Fatalf("failed to store ended session: %v", err)
	}
	return ended
}

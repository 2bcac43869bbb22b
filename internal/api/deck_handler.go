package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/hanzistudy/hanzi-api/internal/api/shared"
	"github.com/hanzistudy/hanzi-api/internal/domain"
	"github.com/hanzistudy/hanzi-api/internal/platform/logger"
	"github.com/hanzistudy/hanzi-api/internal/redact"
	"github.com/hanzistudy/hanzi-api/internal/service/deck"
)

// DeckResponse represents the response data for a deck
type DeckResponse struct {
	ID                    string    `json:"id"`
	Name                  string    `json:"name"`
	Description           string    `json:"description,omitempty"`
	TotalStudyTimeSeconds int64     `json:"total_study_time_seconds"`
	CreatedAt             time.Time `json:"created_at"`
}

// CreateDeckRequest is the request body for creating a deck
type CreateDeckRequest struct {
	Name        string `json:"name"        validate:"required,max=100"`
	Description string `json:"description" validate:"max=500"`
}

// AddCardsRequest is the request body for bulk card import
type AddCardsRequest struct {
	Cards []NewCardRequest `json:"cards" validate:"required,min=1,dive"`
}

// NewCardRequest is one card in a bulk import
type NewCardRequest struct {
	Hanzi   string `json:"hanzi"   validate:"required"`
	Pinyin  string `json:"pinyin"`
	English string `json:"english" validate:"required"`
}

// DeckHandler handles deck management HTTP requests
type DeckHandler struct {
	deckService deck.DeckService
	logger      *slog.Logger
}

// NewDeckHandler creates a new DeckHandler
func NewDeckHandler(deckService deck.DeckService, log *slog.Logger) *DeckHandler {
	if deckService == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("deck service cannot be nil for DeckHandler")
	}
	if log == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for DeckHandler")
	}

	return &DeckHandler{
		deckService: deckService,
		logger:      log.With(slog.String("component", "deck_handler")),
	}
}

// CreateDeck handles POST /decks requests.
func (h *DeckHandler) CreateDeck(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req CreateDeckRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		log.Warn("invalid request format", slog.String("error", redact.Error(err)))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	created, err := h.deckService.CreateDeck(r.Context(), userID, req.Name, req.Description)
	if err != nil {
		HandleServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, deckToResponse(created))
}

// ListDecks handles GET /decks requests.
func (h *DeckHandler) ListDecks(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	decks, err := h.deckService.ListDecks(r.Context(), userID)
	if err != nil {
		HandleServiceError(w, r, err)
		return
	}

	responses := make([]DeckResponse, 0, len(decks))
	for _, d := range decks {
		responses = append(responses, deckToResponse(d))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, map[string]interface{}{"decks": responses})
}

// GetDeck handles GET /decks/{deckID} requests.
func (h *DeckHandler) GetDeck(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	deckID, ok := requirePathUUID(w, r, "deckID")
	if !ok {
		return
	}

	found, err := h.deckService.GetDeck(r.Context(), userID, deckID)
	if err != nil {
		HandleServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, deckToResponse(found))
}

// AddCards handles POST /decks/{deckID}/cards requests.
func (h *DeckHandler) AddCards(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	deckID, ok := requirePathUUID(w, r, "deckID")
	if !ok {
		return
	}

	var req AddCardsRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		log.Warn("invalid request format", slog.String("error", redact.Error(err)))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	data := make([]deck.NewCardData, 0, len(req.Cards))
	for _, card := range req.Cards {
		data = append(data, deck.NewCardData{
			Hanzi:   card.Hanzi,
			Pinyin:  card.Pinyin,
			English: card.English,
		})
	}

	created, err := h.deckService.AddCards(r.Context(), userID, deckID, data)
	if err != nil {
		HandleServiceError(w, r, err)
		return
	}

	responses := make([]CardResponse, 0, len(created))
	for _, card := range created {
		responses = append(responses, cardToResponse(card))
	}
	shared.RespondWithJSON(w, r, http.StatusCreated, map[string]interface{}{"cards": responses})
}

// ListCards handles GET /decks/{deckID}/cards requests.
func (h *DeckHandler) ListCards(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	deckID, ok := requirePathUUID(w, r, "deckID")
	if !ok {
		return
	}

	cards, err := h.deckService.ListCards(r.Context(), userID, deckID)
	if err != nil {
		HandleServiceError(w, r, err)
		return
	}

	responses := make([]CardResponse, 0, len(cards))
	for _, card := range cards {
		responses = append(responses, cardToResponse(card))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, map[string]interface{}{"cards": responses})
}

// DeleteCard handles DELETE /cards/{cardID} requests.
func (h *DeckHandler) DeleteCard(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	cardID, ok := requirePathUUID(w, r, "cardID")
	if !ok {
		return
	}

	if err := h.deckService.DeleteCard(r.Context(), userID, cardID); err != nil {
		HandleServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeleteDeck handles DELETE /decks/{deckID} requests.
func (h *DeckHandler) DeleteDeck(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	deckID, ok := requirePathUUID(w, r, "deckID")
	if !ok {
		return
	}

	if err := h.deckService.DeleteDeck(r.Context(), userID, deckID); err != nil {
		HandleServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func deckToResponse(d *domain.Deck) DeckResponse {
	return DeckResponse{
		ID:                    d.ID.String(),
		Name:                  d.Name,
		Description:           d.Description,
		TotalStudyTimeSeconds: d.TotalStudyTimeSeconds,
		CreatedAt:             d.CreatedAt,
	}
}

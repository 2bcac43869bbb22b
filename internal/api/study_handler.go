package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/hanzistudy/hanzi-api/internal/api/shared"
	"github.com/hanzistudy/hanzi-api/internal/domain"
	"github.com/hanzistudy/hanzi-api/internal/domain/scheduler"
	"github.com/hanzistudy/hanzi-api/internal/platform/logger"
	"github.com/hanzistudy/hanzi-api/internal/redact"
	"github.com/hanzistudy/hanzi-api/internal/service/study"
)

// SessionResponse represents the response data for a study session
type SessionResponse struct {
	ID                     string     `json:"id"`
	DeckID                 string     `json:"deck_id"`
	Direction              string     `json:"direction"`
	CardsStudied           int        `json:"cards_studied"`
	CorrectAnswers         int        `json:"correct_answers"`
	SessionDurationMinutes int        `json:"session_duration_minutes"`
	EndedAt                *time.Time `json:"ended_at,omitempty"`
	CreatedAt              time.Time  `json:"created_at"`
}

// CardResponse represents the response data for a card
type CardResponse struct {
	ID      string `json:"id"`
	DeckID  string `json:"deck_id"`
	Hanzi   string `json:"hanzi"`
	Pinyin  string `json:"pinyin"`
	English string `json:"english"`
}

// ProgressResponse represents the response data for card progress
type ProgressResponse struct {
	CardID             string    `json:"card_id"`
	MasteryLevel       string    `json:"mastery_level"`
	DifficultyScore    float64   `json:"difficulty_score"`
	QuizAttempts       int       `json:"quiz_attempts"`
	QuizCorrect        int       `json:"quiz_correct"`
	ConsecutiveCorrect int       `json:"consecutive_correct"`
	FlipCount          int       `json:"flip_count"`
	NextReviewAt       time.Time `json:"next_review_at"`
}

// QuestionResponse represents a generated quiz question. The correct answer
// is deliberately absent; grading happens server-side on submission.
type QuestionResponse struct {
	CardID    string   `json:"card_id"`
	Question  string   `json:"question"`
	Options   []string `json:"options"`
	Direction string   `json:"direction"`
}

// AnswerResponse represents the grading outcome of a submitted answer
type AnswerResponse struct {
	Correct       bool             `json:"correct"`
	CorrectAnswer string           `json:"correct_answer"`
	Explanation   string           `json:"explanation,omitempty"`
	Progress      ProgressResponse `json:"progress"`
	Session       SessionResponse  `json:"session"`
}

// StartSessionRequest is the request body for starting a study session
type StartSessionRequest struct {
	Direction string `json:"direction" validate:"required,oneof=chinese_to_english english_to_chinese"`
}

// FlipRequest is the request body for recording a card flip
type FlipRequest struct {
	CardID         string `json:"card_id"         validate:"required,uuid"`
	ResponseTimeMs int    `json:"response_time_ms" validate:"gte=0"`
}

// SubmitAnswerRequest is the request body for submitting a quiz answer
type SubmitAnswerRequest struct {
	CardID         string `json:"card_id"         validate:"required,uuid"`
	Answer         string `json:"answer"          validate:"required"`
	ResponseTimeMs int    `json:"response_time_ms" validate:"gte=0"`
}

// EndSessionRequest is the request body for ending a study session
type EndSessionRequest struct {
	DurationMinutes int `json:"duration_minutes" validate:"gte=0"`
}

// StudyHandler handles study-session HTTP requests
type StudyHandler struct {
	studyService study.StudyService
	logger       *slog.Logger
}

// NewStudyHandler creates a new StudyHandler
func NewStudyHandler(studyService study.StudyService, log *slog.Logger) *StudyHandler {
	if studyService == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("study service cannot be nil for StudyHandler")
	}
	if log == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for StudyHandler")
	}

	return &StudyHandler{
		studyService: studyService,
		logger:       log.With(slog.String("component", "study_handler")),
	}
}

// StartSession handles POST /decks/{deckID}/sessions requests.
func (h *StudyHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	deckID, ok := requirePathUUID(w, r, "deckID")
	if !ok {
		return
	}

	var req StartSessionRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		log.Warn("invalid request format", slog.String("error", redact.Error(err)))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	session, err := h.studyService.StartSession(r.Context(), userID, deckID, domain.StudyDirection(req.Direction))
	if err != nil {
		HandleServiceError(w, r, err)
		return
	}

	log.Debug("session started",
		slog.String("session_id", session.ID.String()),
		slog.String("deck_id", deckID.String()))
	shared.RespondWithJSON(w, r, http.StatusCreated, sessionToResponse(session))
}

// NextBatch handles GET /sessions/{sessionID}/batch requests.
func (h *StudyHandler) NextBatch(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	sessionID, ok := requirePathUUID(w, r, "sessionID")
	if !ok {
		return
	}

	batch, err := h.studyService.NextBatch(r.Context(), userID, sessionID)
	if err != nil {
		HandleServiceError(w, r, err)
		return
	}

	cards := make([]CardResponse, 0, len(batch))
	for _, card := range batch {
		cards = append(cards, cardToResponse(card))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, map[string]interface{}{"cards": cards})
}

// RecordFlip handles POST /sessions/{sessionID}/flips requests.
func (h *StudyHandler) RecordFlip(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	sessionID, ok := requirePathUUID(w, r, "sessionID")
	if !ok {
		return
	}

	var req FlipRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		log.Warn("invalid request format", slog.String("error", redact.Error(err)))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}
	cardID := mustParseUUID(req.CardID)

	progress, err := h.studyService.RecordFlip(r.Context(), userID, sessionID, cardID, req.ResponseTimeMs)
	if err != nil {
		HandleServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, progressToResponse(progress))
}

// AskQuestion handles GET /sessions/{sessionID}/cards/{cardID}/question requests.
func (h *StudyHandler) AskQuestion(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	sessionID, ok := requirePathUUID(w, r, "sessionID")
	if !ok {
		return
	}
	cardID, ok := requirePathUUID(w, r, "cardID")
	if !ok {
		return
	}

	question, err := h.studyService.AskQuestion(r.Context(), userID, sessionID, cardID)
	if err != nil {
		HandleServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, questionToResponse(question))
}

// SubmitAnswer handles POST /sessions/{sessionID}/answers requests.
func (h *StudyHandler) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	sessionID, ok := requirePathUUID(w, r, "sessionID")
	if !ok {
		return
	}

	var req SubmitAnswerRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		log.Warn("invalid request format", slog.String("error", redact.Error(err)))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}
	cardID := mustParseUUID(req.CardID)

	result, err := h.studyService.SubmitAnswer(r.Context(), userID, sessionID, cardID, req.Answer, req.ResponseTimeMs)
	if err != nil {
		HandleServiceError(w, r, err)
		return
	}

	log.Debug("answer submitted",
		slog.String("session_id", sessionID.String()),
		slog.String("card_id", cardID.String()),
		slog.Bool("correct", result.Correct))
	shared.RespondWithJSON(w, r, http.StatusOK, AnswerResponse{
		Correct:       result.Correct,
		CorrectAnswer: result.CorrectAnswer,
		Explanation:   result.Explanation,
		Progress:      progressToResponse(result.Progress),
		Session:       sessionToResponse(result.Session),
	})
}

// EndSession handles POST /sessions/{sessionID}/end requests.
func (h *StudyHandler) EndSession(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	sessionID, ok := requirePathUUID(w, r, "sessionID")
	if !ok {
		return
	}

	var req EndSessionRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		log.Warn("invalid request format", slog.String("error", redact.Error(err)))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	session, err := h.studyService.EndSession(r.Context(), userID, sessionID, req.DurationMinutes)
	if err != nil {
		HandleServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, sessionToResponse(session))
}

// ListSessions handles GET /decks/{deckID}/sessions requests.
func (h *StudyHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	deckID, ok := requirePathUUID(w, r, "deckID")
	if !ok {
		return
	}

	limit := queryInt(r, "limit", 20)
	offset := queryInt(r, "offset", 0)

	sessions, err := h.studyService.ListSessions(r.Context(), userID, deckID, limit, offset)
	if err != nil {
		HandleServiceError(w, r, err)
		return
	}

	responses := make([]SessionResponse, 0, len(sessions))
	for _, session := range sessions {
		responses = append(responses, sessionToResponse(session))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, map[string]interface{}{"sessions": responses})
}

// SessionStatistics handles GET /sessions/{sessionID}/stats requests.
func (h *StudyHandler) SessionStatistics(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	sessionID, ok := requirePathUUID(w, r, "sessionID")
	if !ok {
		return
	}

	stats, err := h.studyService.SessionStatistics(r.Context(), userID, sessionID)
	if err != nil {
		HandleServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, map[string]interface{}{
		"session":                  sessionToResponse(stats.Session),
		"total_interactions":       stats.TotalInteractions,
		"flip_count":               stats.FlipCount,
		"quiz_count":               stats.QuizCount,
		"correct_count":            stats.CorrectCount,
		"accuracy":                 stats.Accuracy,
		"unique_cards":             stats.UniqueCards,
		"average_response_time_ms": stats.AverageResponseTimeMs,
	})
}

// DeckStatistics handles GET /decks/{deckID}/stats requests.
func (h *StudyHandler) DeckStatistics(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	deckID, ok := requirePathUUID(w, r, "deckID")
	if !ok {
		return
	}

	stats, err := h.studyService.DeckStatistics(r.Context(), userID, deckID)
	if err != nil {
		HandleServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, stats)
}

// queryInt parses an integer query parameter, falling back to a default for
// missing or malformed values.
func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return fallback
	}
	return value
}

func sessionToResponse(session *domain.StudySession) SessionResponse {
	response := SessionResponse{
		ID:                     session.ID.String(),
		DeckID:                 session.DeckID.String(),
		Direction:              string(session.Direction),
		CardsStudied:           session.CardsStudied,
		CorrectAnswers:         session.CorrectAnswers,
		SessionDurationMinutes: session.SessionDurationMinutes,
		CreatedAt:              session.CreatedAt,
	}
	if session.IsEnded() {
		ended := session.EndedAt
		response.EndedAt = &ended
	}
	return response
}

func cardToResponse(card *domain.Card) CardResponse {
	return CardResponse{
		ID:      card.ID.String(),
		DeckID:  card.DeckID.String(),
		Hanzi:   card.Hanzi,
		Pinyin:  card.Pinyin,
		English: card.English,
	}
}

func progressToResponse(progress *domain.CardProgress) ProgressResponse {
	return ProgressResponse{
		CardID:             progress.CardID.String(),
		MasteryLevel:       progress.MasteryLevel.String(),
		DifficultyScore:    progress.DifficultyScore,
		QuizAttempts:       progress.QuizAttempts,
		QuizCorrect:        progress.QuizCorrect,
		ConsecutiveCorrect: progress.ConsecutiveCorrect,
		FlipCount:          progress.FlipCount,
		NextReviewAt:       progress.NextReviewAt,
	}
}

func questionToResponse(question *scheduler.QuizQuestion) QuestionResponse {
	return QuestionResponse{
		CardID:    question.CardID.String(),
		Question:  question.Question,
		Options:   question.Options,
		Direction: string(question.Direction),
	}
}

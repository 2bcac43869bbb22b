// Package scheduler implements the adaptive study scheduler: the difficulty
// model, review scheduling, card selection, and quiz generation that decide
// what a user studies next and when a card comes back.
package scheduler

import (
	"errors"
	"time"

	"github.com/hanzistudy/hanzi-api/internal/domain"
)

// Common errors
var (
	ErrNilProgress = errors.New("card progress cannot be nil")
)

// Service defines the interface for progress-updating scheduler operations.
// Both methods are pure: they return new CardProgress values and never touch
// storage.
type Service interface {
	// ApplyAnswer computes the progress record that results from one quiz
	// answer: counters, streak, difficulty, mastery, and next review time.
	ApplyAnswer(
		progress *domain.CardProgress,
		isCorrect bool,
		now time.Time,
	) (*domain.CardProgress, error)

	// ApplyFlip computes the progress record that results from one passive
	// flip. Only the exposure counters change.
	ApplyFlip(
		progress *domain.CardProgress,
		now time.Time,
	) (*domain.CardProgress, error)
}

// defaultService is the standard implementation of the Service interface.
type defaultService struct {
	params *Params
}

// NewDefaultService creates a scheduler service with default parameters.
func NewDefaultService() Service {
	return &defaultService{
		params: NewDefaultParams(),
	}
}

// NewServiceWithParams creates a scheduler service with custom parameters.
func NewServiceWithParams(params *Params) Service {
	if params == nil {
		params = NewDefaultParams()
	}
	return &defaultService{
		params: params,
	}
}

// ApplyAnswer implements the Service interface.
func (s *defaultService) ApplyAnswer(
	progress *domain.CardProgress,
	isCorrect bool,
	now time.Time,
) (*domain.CardProgress, error) {
	if progress == nil {
		return nil, ErrNilProgress
	}

	return nextProgress(progress, isCorrect, now, s.params), nil
}

// ApplyFlip implements the Service interface.
func (s *defaultService) ApplyFlip(
	progress *domain.CardProgress,
	now time.Time,
) (*domain.CardProgress, error) {
	if progress == nil {
		return nil, ErrNilProgress
	}

	return nextFlip(progress, now), nil
}

package scheduler

import (
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/hanzistudy/hanzi-api/internal/domain"
)

// Selector picks the next batch of cards for a study session. Cards are
// ranked by a priority score that favors unseen, difficult, and overdue
// cards, then the batch is drawn either deterministically or by weighted
// random sampling depending on how much of the ranking it would consume.
type Selector struct {
	params *Params
	rng    Rand
}

// NewSelector creates a Selector. A nil params uses the defaults; a nil rng
// uses a time-seeded concurrency-safe source.
func NewSelector(params *Params, rng Rand) *Selector {
	if params == nil {
		params = NewDefaultParams()
	}
	if rng == nil {
		rng = NewLockedRand()
	}
	return &Selector{params: params, rng: rng}
}

// rankedCard pairs a card id with its computed selection priority.
type rankedCard struct {
	id       uuid.UUID
	priority float64
}

// Select returns up to targetCount card ids from deckCards, ordered and
// sampled by priority. Cards absent from progressByCard are treated as brand
// new and outrank everything with progress. An empty deck yields an empty
// batch, not an error.
//
// When the batch would consume more than half of the ranked candidates the
// pick is deterministic top-N; otherwise a pool of the top
// CandidatePoolFactor*targetCount candidates is sampled without replacement,
// weighted by priority, so sessions stay varied without losing the bias
// toward due, new, and difficult cards.
func (s *Selector) Select(
	deckCards []uuid.UUID,
	progressByCard map[uuid.UUID]*domain.CardProgress,
	targetCount int,
	now time.Time,
) []uuid.UUID {
	if len(deckCards) == 0 || targetCount <= 0 {
		return []uuid.UUID{}
	}

	ranked := make([]rankedCard, 0, len(deckCards))
	for _, cardID := range deckCards {
		progress := progressByCard[cardID]

		var priority float64
		if progress == nil {
			priority = s.params.NewCardWeight * s.params.UnseenBoost
		} else {
			priority = s.cardPriority(progress, now)
		}

		ranked = append(ranked, rankedCard{id: cardID, priority: priority})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].priority > ranked[j].priority
	})

	selectedCount := targetCount
	if len(ranked) < selectedCount {
		selectedCount = len(ranked)
	}

	// Small decks are picked deterministically; randomizing a batch that
	// already covers most of the ranking adds nothing.
	if selectedCount <= targetCount/2 {
		ids := make([]uuid.UUID, selectedCount)
		for i := 0; i < selectedCount; i++ {
			ids[i] = ranked[i].id
		}
		return ids
	}

	return s.weightedSelection(ranked, selectedCount)
}

// cardPriority computes the selection priority for a card with progress.
func (s *Selector) cardPriority(progress *domain.CardProgress, now time.Time) float64 {
	priority := s.params.selectionWeight(progress.MasteryLevel) * progress.DifficultyScore

	if progress.IsDue(now) {
		overdueHours := now.Sub(progress.NextReviewAt).Hours()
		boost := 1.0 + math.Min(overdueHours/24, s.params.OverdueBoostCap)
		priority *= s.params.OverdueWeight * boost
	}

	return priority
}

// weightedSelection draws count cards from the top of the ranking using
// weighted random sampling without replacement, with priority as weight.
func (s *Selector) weightedSelection(ranked []rankedCard, count int) []uuid.UUID {
	poolSize := count * s.params.CandidatePoolFactor
	if poolSize > len(ranked) {
		poolSize = len(ranked)
	}
	candidates := ranked[:poolSize]

	if len(candidates) <= count {
		ids := make([]uuid.UUID, len(candidates))
		for i, c := range candidates {
			ids[i] = c.id
		}
		return ids
	}

	remaining := make([]rankedCard, len(candidates))
	copy(remaining, candidates)

	selected := make([]uuid.UUID, 0, count)
	for len(selected) < count && len(remaining) > 0 {
		total := 0.0
		for _, c := range remaining {
			total += c.priority
		}

		idx := len(remaining) - 1
		r := s.rng.Float64() * total
		for i, c := range remaining {
			r -= c.priority
			if r < 0 {
				idx = i
				break
			}
		}

		selected = append(selected, remaining[idx].id)
		remaining = append(remaining[:idx], remaining[idx+1:]...)
	}

	return selected
}

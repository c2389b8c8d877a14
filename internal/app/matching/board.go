// Package matching implements the vocabulary match-up game: two shuffled
// columns, Indonesian on the left and English on the right, paired by id.
package matching

import (
	"context"
	"math/rand/v2"
	"sync"

	"github.com/PabloGalante/englishmaster/internal/domain"
	"github.com/PabloGalante/englishmaster/internal/observability"
)

type Card struct {
	ID   int
	Text string
}

// Outcome is the result of a selection.
type Outcome int

const (
	// Ignored means the card is unknown or already matched.
	Ignored Outcome = iota
	// Pending means only one side is selected so far.
	Pending
	Correct
	Wrong
)

func (o Outcome) String() string {
	switch o {
	case Ignored:
		return "ignored"
	case Pending:
		return "pending"
	case Correct:
		return "correct"
	case Wrong:
		return "wrong"
	default:
		return "unknown"
	}
}

// Board is safe for concurrent use.
type Board struct {
	mu      sync.Mutex
	left    []Card
	right   []Card
	matched map[int]bool
	selL    *int
	selR    *int
}

// NewBoard shuffles both columns independently with rng. A nil rng uses the
// global source.
func NewBoard(pairs []domain.VocabularyPair, rng *rand.Rand) *Board {
	b := &Board{
		left:    make([]Card, 0, len(pairs)),
		right:   make([]Card, 0, len(pairs)),
		matched: make(map[int]bool, len(pairs)),
	}
	for _, p := range pairs {
		b.left = append(b.left, Card{ID: p.ID, Text: p.Indonesian})
		b.right = append(b.right, Card{ID: p.ID, Text: p.English})
	}

	shuffle := rand.Shuffle
	if rng != nil {
		shuffle = rng.Shuffle
	}
	shuffle(len(b.left), func(i, j int) { b.left[i], b.left[j] = b.left[j], b.left[i] })
	shuffle(len(b.right), func(i, j int) { b.right[i], b.right[j] = b.right[j], b.right[i] })
	return b
}

// Generate fetches pairs on topic and builds a fresh board.
func Generate(ctx context.Context, tutor domain.Tutor, topic string) (*Board, error) {
	pairs, err := tutor.GenerateVocabularyPairs(ctx, topic)
	if err != nil {
		observability.LoggerFromContext(ctx).Error("failed to generate vocabulary", "topic", topic, "error", err)
		return nil, err
	}
	return NewBoard(pairs, nil), nil
}

func (b *Board) Left() []Card {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Card(nil), b.left...)
}

func (b *Board) Right() []Card {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Card(nil), b.right...)
}

// SelectLeft selects an Indonesian card. Once both sides are selected the
// pair is judged and both selections are cleared.
func (b *Board) SelectLeft(id int) Outcome {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.selectable(b.left, id) {
		return Ignored
	}
	b.selL = &id
	return b.judge()
}

// SelectRight selects an English card.
func (b *Board) SelectRight(id int) Outcome {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.selectable(b.right, id) {
		return Ignored
	}
	b.selR = &id
	return b.judge()
}

// Selection reports the currently selected ids on each side.
func (b *Board) Selection() (left, right int, hasLeft, hasRight bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.selL != nil {
		left, hasLeft = *b.selL, true
	}
	if b.selR != nil {
		right, hasRight = *b.selR, true
	}
	return
}

func (b *Board) IsMatched(id int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.matched[id]
}

// Progress returns matched and total pair counts.
func (b *Board) Progress() (matched, total int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.matched), len(b.left)
}

func (b *Board) Complete() bool {
	matched, total := b.Progress()
	return total > 0 && matched == total
}

// ─────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────

// Caller must hold b.mu.
func (b *Board) selectable(column []Card, id int) bool {
	if b.matched[id] {
		return false
	}
	for _, c := range column {
		if c.ID == id {
			return true
		}
	}
	return false
}

// Caller must hold b.mu.
func (b *Board) judge() Outcome {
	if b.selL == nil || b.selR == nil {
		return Pending
	}

	l, r := *b.selL, *b.selR
	b.selL, b.selR = nil, nil
	if l != r {
		return Wrong
	}
	b.matched[l] = true
	return Correct
}

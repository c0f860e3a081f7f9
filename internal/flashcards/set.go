package flashcards

import (
	"strings"
	"time"
)

// UntitledSet labels sets the server returned without a title.
const UntitledSet = "Untitled Flashcard Set"

// Difficulty grades a card. The zero value means the server did not grade it.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Card is a single question/answer pair inside a set.
type Card struct {
	ID           string
	Question     string
	Answer       string
	ReviewCount  int
	LastReviewed *time.Time
	Starred      bool
	Difficulty   Difficulty
}

// Clone returns a deep copy of the card.
func (c Card) Clone() Card {
	if c.LastReviewed != nil {
		ts := *c.LastReviewed
		c.LastReviewed = &ts
	}
	return c
}

// Equal reports whether two cards carry the same values.
func (c Card) Equal(other Card) bool {
	if c.ID != other.ID || c.Question != other.Question || c.Answer != other.Answer ||
		c.ReviewCount != other.ReviewCount || c.Starred != other.Starred || c.Difficulty != other.Difficulty {
		return false
	}
	switch {
	case c.LastReviewed == nil && other.LastReviewed == nil:
		return true
	case c.LastReviewed == nil || other.LastReviewed == nil:
		return false
	default:
		return c.LastReviewed.Equal(*other.LastReviewed)
	}
}

// Set is an ordered collection of cards generated from one document. Card
// order defines navigation order.
type Set struct {
	ID         string
	DocumentID string
	Title      string
	Cards      []Card
	CreatedAt  time.Time
}

// DisplayTitle returns the title or the generated fallback label.
func (s Set) DisplayTitle() string {
	if title := strings.TrimSpace(s.Title); title != "" {
		return title
	}
	return UntitledSet
}

// Clone returns a deep copy of the set.
func (s Set) Clone() Set {
	if s.Cards != nil {
		cards := make([]Card, len(s.Cards))
		for i, card := range s.Cards {
			cards[i] = card.Clone()
		}
		s.Cards = cards
	}
	return s
}

// Equal reports whether two sets carry the same values.
func (s Set) Equal(other Set) bool {
	if s.ID != other.ID || s.DocumentID != other.DocumentID || s.Title != other.Title ||
		!s.CreatedAt.Equal(other.CreatedAt) || len(s.Cards) != len(other.Cards) {
		return false
	}
	for i := range s.Cards {
		if !s.Cards[i].Equal(other.Cards[i]) {
			return false
		}
	}
	return true
}

// CardIndex returns the position of the card with the given id, or -1.
func (s Set) CardIndex(cardID string) int {
	for i, card := range s.Cards {
		if card.ID == cardID {
			return i
		}
	}
	return -1
}

// ReviewedCount returns how many cards have been revealed at least once.
func (s Set) ReviewedCount() int {
	reviewed := 0
	for _, card := range s.Cards {
		if card.ReviewCount > 0 {
			reviewed++
		}
	}
	return reviewed
}

// StarredCount returns how many cards are starred.
func (s Set) StarredCount() int {
	starred := 0
	for _, card := range s.Cards {
		if card.Starred {
			starred++
		}
	}
	return starred
}

// Progress returns the share of reviewed cards as a whole percentage.
func (s Set) Progress() int {
	if len(s.Cards) == 0 {
		return 0
	}
	return (s.ReviewedCount()*100 + len(s.Cards)/2) / len(s.Cards)
}

// CloneSets deep copies a collection of sets.
func CloneSets(sets []Set) []Set {
	if sets == nil {
		return nil
	}
	out := make([]Set, len(sets))
	for i, set := range sets {
		out[i] = set.Clone()
	}
	return out
}

// EqualSets reports whether two collections hold equal sets in the same order.
func EqualSets(a, b []Set) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

// FindSet returns the index of the set with the given id, or -1.
func FindSet(sets []Set, setID string) int {
	for i, set := range sets {
		if set.ID == setID {
			return i
		}
	}
	return -1
}

package testsupport

import (
	"context"
	"errors"
	"sync"

	"studyhall/internal/flashcards"
)

// ErrFakeFailure is returned by FakeAPI calls configured to fail.
var ErrFakeFailure = errors.New("fake backend failure")

// FakeAPI is an in-memory flashcard backend. Star and review mutate the held
// sets and return the whole set the way the real backend does.
type FakeAPI struct {
	mu      sync.Mutex
	sets    map[string][]flashcards.Set
	failing map[string]bool
	calls   []string
}

// NewFakeAPI seeds the fake with sets for one document.
func NewFakeAPI(documentID string, sets ...flashcards.Set) *FakeAPI {
	return &FakeAPI{
		sets:    map[string][]flashcards.Set{documentID: flashcards.CloneSets(sets)},
		failing: make(map[string]bool),
	}
}

// FailCard makes every mutation on cardID fail.
func (f *FakeAPI) FailCard(cardID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failing[cardID] = true
}

// Calls lists the operations served so far, in order.
func (f *FakeAPI) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *FakeAPI) ListFlashcards(_ context.Context, documentID string) ([]flashcards.Set, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "list:"+documentID)
	return flashcards.CloneSets(f.sets[documentID]), nil
}

func (f *FakeAPI) ReviewCard(_ context.Context, cardID string, _ int) (flashcards.Set, error) {
	return f.mutate("review:"+cardID, cardID, func(card *flashcards.Card) {
		card.ReviewCount++
	})
}

func (f *FakeAPI) ToggleStar(_ context.Context, cardID string) (flashcards.Set, error) {
	return f.mutate("star:"+cardID, cardID, func(card *flashcards.Card) {
		card.Starred = !card.Starred
	})
}

func (f *FakeAPI) DeleteSet(_ context.Context, setID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "delete:"+setID)
	for doc, sets := range f.sets {
		for i, set := range sets {
			if set.ID == setID {
				f.sets[doc] = append(sets[:i:i], sets[i+1:]...)
				return nil
			}
		}
	}
	return ErrFakeFailure
}

func (f *FakeAPI) mutate(call, cardID string, apply func(*flashcards.Card)) (flashcards.Set, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	if f.failing[cardID] {
		return flashcards.Set{}, ErrFakeFailure
	}
	for _, sets := range f.sets {
		for i := range sets {
			for j := range sets[i].Cards {
				if sets[i].Cards[j].ID == cardID {
					apply(&sets[i].Cards[j])
					return sets[i].Clone(), nil
				}
			}
		}
	}
	return flashcards.Set{}, ErrFakeFailure
}

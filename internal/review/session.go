package review

import (
	"errors"
	"time"

	"studyhall/internal/flashcards"
)

var (
	// ErrCardBusy reports a mutation attempted while another on the same card
	// is still in flight.
	ErrCardBusy = errors.New("card has a pending change")
	// ErrCardNotFound reports a card id absent from every loaded set.
	ErrCardNotFound = errors.New("card not found")
	// ErrSetNotFound reports a set id absent from the loaded collection.
	ErrSetNotFound = errors.New("flashcard set not found")
)

// Face is the visible side of the current card.
type Face int

const (
	FaceQuestion Face = iota
	FaceAnswer
)

func (f Face) String() string {
	if f == FaceAnswer {
		return "answer"
	}
	return "question"
}

// State is the session's top-level mode.
type State int

const (
	StateClosed State = iota
	StateViewing
)

func (s State) String() string {
	if s == StateViewing {
		return "viewing"
	}
	return "closed"
}

// Session holds one document's sets and the viewer position. It is not safe
// for concurrent use; Controller serializes access.
type Session struct {
	documentID string
	sets       []flashcards.Set
	openSet    string
	index      int
	face       Face
	busy       map[string]struct{}
}

// NewSession returns a closed session over sets.
func NewSession(documentID string, sets []flashcards.Set) *Session {
	return &Session{
		documentID: documentID,
		sets:       flashcards.CloneSets(sets),
		busy:       make(map[string]struct{}),
	}
}

// DocumentID returns the document whose sets the session holds.
func (s *Session) DocumentID() string { return s.documentID }

// Sets returns a deep copy of the loaded sets.
func (s *Session) Sets() []flashcards.Set { return flashcards.CloneSets(s.sets) }

// State reports whether a set is open.
func (s *Session) State() State {
	if s.openSet == "" {
		return StateClosed
	}
	return StateViewing
}

// Index returns the current card position within the open set.
func (s *Session) Index() int { return s.index }

// Face returns the visible side of the current card.
func (s *Session) Face() Face { return s.face }

// Busy reports whether the card has a mutation in flight.
func (s *Session) Busy(cardID string) bool {
	_, ok := s.busy[cardID]
	return ok
}

// PendingCount returns the number of cards with a mutation in flight.
func (s *Session) PendingCount() int { return len(s.busy) }

// OpenSet returns a copy of the open set.
func (s *Session) OpenSet() (flashcards.Set, bool) {
	idx := flashcards.FindSet(s.sets, s.openSet)
	if s.openSet == "" || idx < 0 {
		return flashcards.Set{}, false
	}
	return s.sets[idx].Clone(), true
}

// Current returns a copy of the current card.
func (s *Session) Current() (flashcards.Card, bool) {
	set := s.openSetRef()
	if set == nil || s.index < 0 || s.index >= len(set.Cards) {
		return flashcards.Card{}, false
	}
	return set.Cards[s.index].Clone(), true
}

// Card returns a copy of the card with the given id from any loaded set.
func (s *Session) Card(cardID string) (flashcards.Card, bool) {
	setIdx, cardIdx, ok := s.locate(cardID)
	if !ok {
		return flashcards.Card{}, false
	}
	return s.sets[setIdx].Cards[cardIdx].Clone(), true
}

// SetOf returns the id of the loaded set holding cardID, or "".
func (s *Session) SetOf(cardID string) string {
	setIdx, _, ok := s.locate(cardID)
	if !ok {
		return ""
	}
	return s.sets[setIdx].ID
}

// Open shows set from its first card, question side up. The set replaces any
// loaded set with the same id, or is appended when it is new.
func (s *Session) Open(set flashcards.Set) {
	if idx := flashcards.FindSet(s.sets, set.ID); idx >= 0 {
		s.sets[idx] = s.mergeSet(s.sets[idx], set, "")
	} else {
		s.sets = append(s.sets, set.Clone())
	}
	s.openSet = set.ID
	s.index = 0
	s.face = FaceQuestion
}

// OpenByID opens a loaded set.
func (s *Session) OpenByID(setID string) error {
	idx := flashcards.FindSet(s.sets, setID)
	if idx < 0 {
		return ErrSetNotFound
	}
	s.openSet = setID
	s.index = 0
	s.face = FaceQuestion
	return nil
}

// Close returns to the set list.
func (s *Session) Close() {
	s.openSet = ""
	s.index = 0
	s.face = FaceQuestion
}

// Flip toggles the visible face. It reports true, with the current card and
// its index, only on a question to answer transition.
func (s *Session) Flip() (flashcards.Card, int, bool) {
	card, ok := s.Current()
	if !ok {
		return flashcards.Card{}, 0, false
	}
	if s.face == FaceAnswer {
		s.face = FaceQuestion
		return flashcards.Card{}, 0, false
	}
	s.face = FaceAnswer
	return card, s.index, true
}

// Next advances one card. It is a no-op on the last card.
func (s *Session) Next() bool {
	set := s.openSetRef()
	if set == nil || s.index >= len(set.Cards)-1 {
		return false
	}
	s.index++
	s.face = FaceQuestion
	return true
}

// Previous moves back one card. It is a no-op on the first card.
func (s *Session) Previous() bool {
	if s.openSetRef() == nil || s.index <= 0 {
		return false
	}
	s.index--
	s.face = FaceQuestion
	return true
}

// ApplyStar optimistically flips the card's starred flag, marks it busy, and
// returns the pre-mutation snapshot for rollback.
func (s *Session) ApplyStar(cardID string) (flashcards.Card, error) {
	card, err := s.beginMutation(cardID)
	if err != nil {
		return flashcards.Card{}, err
	}
	snapshot := card.Clone()
	card.Starred = !card.Starred
	return snapshot, nil
}

// ApplyReview optimistically bumps the card's review count and last-reviewed
// time, marks it busy, and returns the pre-mutation snapshot and the card's
// index within its set.
func (s *Session) ApplyReview(cardID string, now time.Time) (flashcards.Card, int, error) {
	card, err := s.beginMutation(cardID)
	if err != nil {
		return flashcards.Card{}, 0, err
	}
	_, cardIdx, _ := s.locate(cardID)
	snapshot := card.Clone()
	card.ReviewCount++
	reviewed := now
	card.LastReviewed = &reviewed
	return snapshot, cardIdx, nil
}

// Reconcile settles a successful mutation of cardID with the set the server
// returned. The mutated card takes the server's values; other cards take them
// too unless they have their own mutation in flight. Local card order is kept.
func (s *Session) Reconcile(cardID string, server flashcards.Set) {
	defer delete(s.busy, cardID)
	setIdx, _, ok := s.locate(cardID)
	if !ok {
		return
	}
	if server.ID != "" && server.ID != s.sets[setIdx].ID {
		if idx := flashcards.FindSet(s.sets, server.ID); idx >= 0 {
			setIdx = idx
		}
	}
	s.sets[setIdx] = s.mergeSet(s.sets[setIdx], server, cardID)
}

// Rollback restores cardID to its pre-mutation snapshot and clears its busy
// marker. No other card is touched.
func (s *Session) Rollback(cardID string, snapshot flashcards.Card) {
	defer delete(s.busy, cardID)
	setIdx, cardIdx, ok := s.locate(cardID)
	if !ok {
		return
	}
	s.sets[setIdx].Cards[cardIdx] = snapshot.Clone()
}

// ReplaceSets installs a fresh collection from the backend. Cards with a
// mutation in flight keep their optimistic local values. The open set stays
// open when it is still present, with the index clamped to its new length;
// otherwise the session closes.
func (s *Session) ReplaceSets(sets []flashcards.Set) {
	local := make(map[string]flashcards.Card, len(s.busy))
	for id := range s.busy {
		if card, ok := s.Card(id); ok {
			local[id] = card
		}
	}
	next := flashcards.CloneSets(sets)
	for i := range next {
		for j, card := range next[i].Cards {
			if pending, ok := local[card.ID]; ok {
				next[i].Cards[j] = pending
			}
		}
	}
	s.sets = next

	set := s.openSetRef()
	if set == nil {
		s.Close()
		return
	}
	if s.index >= len(set.Cards) {
		s.index = max(len(set.Cards)-1, 0)
		s.face = FaceQuestion
	}
}

// RemoveSet drops a set after the backend confirmed its deletion.
func (s *Session) RemoveSet(setID string) bool {
	idx := flashcards.FindSet(s.sets, setID)
	if idx < 0 {
		return false
	}
	for _, card := range s.sets[idx].Cards {
		delete(s.busy, card.ID)
	}
	s.sets = append(s.sets[:idx], s.sets[idx+1:]...)
	if s.openSet == setID {
		s.Close()
	}
	return true
}

func (s *Session) beginMutation(cardID string) (*flashcards.Card, error) {
	setIdx, cardIdx, ok := s.locate(cardID)
	if !ok {
		return nil, ErrCardNotFound
	}
	if s.Busy(cardID) {
		return nil, ErrCardBusy
	}
	s.busy[cardID] = struct{}{}
	return &s.sets[setIdx].Cards[cardIdx], nil
}

func (s *Session) openSetRef() *flashcards.Set {
	if s.openSet == "" {
		return nil
	}
	idx := flashcards.FindSet(s.sets, s.openSet)
	if idx < 0 {
		return nil
	}
	return &s.sets[idx]
}

// locate finds a card, preferring the open set.
func (s *Session) locate(cardID string) (int, int, bool) {
	if set := s.openSetRef(); set != nil {
		if cardIdx := set.CardIndex(cardID); cardIdx >= 0 {
			return flashcards.FindSet(s.sets, s.openSet), cardIdx, true
		}
	}
	for i := range s.sets {
		if cardIdx := s.sets[i].CardIndex(cardID); cardIdx >= 0 {
			return i, cardIdx, true
		}
	}
	return 0, 0, false
}

// mergeSet folds server values into local by card id. Busy cards other than
// settled keep their local values; review counts never move backwards.
func (s *Session) mergeSet(local, server flashcards.Set, settled string) flashcards.Set {
	merged := local.Clone()
	if server.Title != "" {
		merged.Title = server.Title
	}
	if server.DocumentID != "" {
		merged.DocumentID = server.DocumentID
	}
	if !server.CreatedAt.IsZero() {
		merged.CreatedAt = server.CreatedAt
	}
	if len(merged.Cards) == 0 {
		merged.Cards = server.Clone().Cards
		return merged
	}
	for i, card := range merged.Cards {
		idx := server.CardIndex(card.ID)
		if idx < 0 {
			continue
		}
		if card.ID != settled && s.Busy(card.ID) {
			continue
		}
		incoming := server.Cards[idx].Clone()
		if incoming.ReviewCount < card.ReviewCount && card.ID != settled {
			incoming.ReviewCount = card.ReviewCount
			incoming.LastReviewed = card.LastReviewed
		}
		merged.Cards[i] = incoming
	}
	return merged
}

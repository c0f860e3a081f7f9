package review

import (
	"errors"
	"testing"
	"time"

	"studyhall/internal/flashcards"
)

func sampleSet(id string, n int) flashcards.Set {
	set := flashcards.Set{ID: id, DocumentID: "doc-1", Title: "Set " + id}
	for i := range n {
		set.Cards = append(set.Cards, flashcards.Card{
			ID:       id + "-c" + string(rune('0'+i)),
			Question: "q",
			Answer:   "a",
		})
	}
	return set
}

func TestOpenStartsAtFirstQuestion(t *testing.T) {
	s := NewSession("doc-1", []flashcards.Set{sampleSet("a", 3)})
	if s.State() != StateClosed {
		t.Fatalf("expected closed session, got %s", s.State())
	}
	if err := s.OpenByID("a"); err != nil {
		t.Fatalf("OpenByID: %v", err)
	}
	s.Next()
	s.Flip()
	if err := s.OpenByID("a"); err != nil {
		t.Fatalf("OpenByID: %v", err)
	}
	if s.Index() != 0 || s.Face() != FaceQuestion || s.State() != StateViewing {
		t.Fatalf("unexpected state after reopen: index=%d face=%s state=%s", s.Index(), s.Face(), s.State())
	}
	if err := s.OpenByID("missing"); !errors.Is(err, ErrSetNotFound) {
		t.Fatalf("expected ErrSetNotFound, got %v", err)
	}
}

func TestNavigationClampsAtEnds(t *testing.T) {
	s := NewSession("doc-1", nil)
	s.Open(sampleSet("a", 5))
	for range 10 {
		s.Next()
	}
	if s.Index() != 4 {
		t.Fatalf("expected index 4 after ten Next calls, got %d", s.Index())
	}
	for range 10 {
		s.Previous()
	}
	if s.Index() != 0 {
		t.Fatalf("expected index 0 after ten Previous calls, got %d", s.Index())
	}
}

func TestNavigationResetsFace(t *testing.T) {
	s := NewSession("doc-1", nil)
	s.Open(sampleSet("a", 2))
	s.Flip()
	if !s.Next() {
		t.Fatal("expected Next to move")
	}
	if s.Face() != FaceQuestion {
		t.Fatalf("expected question face after Next, got %s", s.Face())
	}
	s.Flip()
	s.Previous()
	if s.Face() != FaceQuestion {
		t.Fatalf("expected question face after Previous, got %s", s.Face())
	}
}

func TestFlipReportsOnlyReveal(t *testing.T) {
	s := NewSession("doc-1", nil)
	s.Open(sampleSet("a", 2))
	card, index, reveal := s.Flip()
	if !reveal || card.ID != "a-c0" || index != 0 {
		t.Fatalf("expected reveal of a-c0 at 0, got %v %q %d", reveal, card.ID, index)
	}
	if _, _, reveal := s.Flip(); reveal {
		t.Fatal("answer to question must not report a reveal")
	}
	if s.Face() != FaceQuestion {
		t.Fatalf("expected question face, got %s", s.Face())
	}
}

func TestEmptySetHasNoCurrentCard(t *testing.T) {
	s := NewSession("doc-1", nil)
	s.Open(flashcards.Set{ID: "empty"})
	if _, ok := s.Current(); ok {
		t.Fatal("expected no current card")
	}
	if _, _, reveal := s.Flip(); reveal {
		t.Fatal("flip on empty set must be a no-op")
	}
	if s.Next() || s.Previous() {
		t.Fatal("navigation on empty set must be a no-op")
	}
}

func TestApplyStarMarksBusyAndRollsBack(t *testing.T) {
	s := NewSession("doc-1", []flashcards.Set{sampleSet("a", 3)})
	snapshot, err := s.ApplyStar("a-c1")
	if err != nil {
		t.Fatalf("ApplyStar: %v", err)
	}
	if snapshot.Starred {
		t.Fatal("snapshot must hold the pre-mutation value")
	}
	card, _ := s.Card("a-c1")
	if !card.Starred || !s.Busy("a-c1") {
		t.Fatalf("expected starred busy card, got %+v busy=%v", card, s.Busy("a-c1"))
	}
	if _, err := s.ApplyStar("a-c1"); !errors.Is(err, ErrCardBusy) {
		t.Fatalf("expected ErrCardBusy, got %v", err)
	}
	if _, err := s.ApplyStar("nope"); !errors.Is(err, ErrCardNotFound) {
		t.Fatalf("expected ErrCardNotFound, got %v", err)
	}

	s.Rollback("a-c1", snapshot)
	card, _ = s.Card("a-c1")
	if card.Starred || s.Busy("a-c1") {
		t.Fatalf("expected rollback to clear star and busy marker, got %+v", card)
	}
}

func TestRollbackTouchesOnlyTargetCard(t *testing.T) {
	s := NewSession("doc-1", []flashcards.Set{sampleSet("a", 3)})
	snapA, _ := s.ApplyStar("a-c0")
	if _, err := s.ApplyStar("a-c2"); err != nil {
		t.Fatalf("ApplyStar: %v", err)
	}
	s.Rollback("a-c0", snapA)

	first, _ := s.Card("a-c0")
	third, _ := s.Card("a-c2")
	if first.Starred {
		t.Fatal("expected a-c0 rolled back")
	}
	if !third.Starred || !s.Busy("a-c2") {
		t.Fatal("rollback of a-c0 must not touch a-c2")
	}
}

func TestApplyReviewStampsCard(t *testing.T) {
	s := NewSession("doc-1", []flashcards.Set{sampleSet("a", 3)})
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	snapshot, index, err := s.ApplyReview("a-c2", now)
	if err != nil {
		t.Fatalf("ApplyReview: %v", err)
	}
	if index != 2 {
		t.Fatalf("expected card index 2, got %d", index)
	}
	card, _ := s.Card("a-c2")
	if card.ReviewCount != snapshot.ReviewCount+1 {
		t.Fatalf("expected review count bump, got %d", card.ReviewCount)
	}
	if card.LastReviewed == nil || !card.LastReviewed.Equal(now) {
		t.Fatalf("unexpected last reviewed: %v", card.LastReviewed)
	}
}

func TestReconcileKeepsOtherBusyCards(t *testing.T) {
	s := NewSession("doc-1", []flashcards.Set{sampleSet("a", 3)})
	s.ApplyStar("a-c0")
	s.ApplyStar("a-c1")

	// Server has applied only the a-c0 change so far.
	server := sampleSet("a", 3)
	server.Title = "Renamed"
	server.Cards[0].Starred = true
	s.Reconcile("a-c0", server)

	set := s.Sets()[0]
	if set.Title != "Renamed" {
		t.Fatalf("expected server title, got %q", set.Title)
	}
	if !set.Cards[0].Starred || s.Busy("a-c0") {
		t.Fatal("expected a-c0 settled with server value")
	}
	if !set.Cards[1].Starred || !s.Busy("a-c1") {
		t.Fatal("in-flight a-c1 must keep its optimistic value")
	}
}

func TestReplaceSetsPreservesOpenSetAndPendingCards(t *testing.T) {
	s := NewSession("doc-1", []flashcards.Set{sampleSet("a", 4), sampleSet("b", 2)})
	s.OpenByID("a")
	s.Next()
	s.Next()
	s.Next()
	s.ApplyStar("a-c0")

	fresh := []flashcards.Set{sampleSet("a", 2), sampleSet("b", 2)}
	s.ReplaceSets(fresh)
	if s.State() != StateViewing || s.Index() != 1 {
		t.Fatalf("expected open set with clamped index, got %s index=%d", s.State(), s.Index())
	}
	card, _ := s.Card("a-c0")
	if !card.Starred {
		t.Fatal("pending optimistic value must survive a refresh")
	}

	s.ReplaceSets([]flashcards.Set{sampleSet("b", 2)})
	if s.State() != StateClosed {
		t.Fatal("expected session to close when the open set disappears")
	}
}

func TestRemoveSetClosesOpenSet(t *testing.T) {
	s := NewSession("doc-1", []flashcards.Set{sampleSet("a", 1), sampleSet("b", 1)})
	s.OpenByID("b")
	if !s.RemoveSet("b") {
		t.Fatal("expected RemoveSet to report removal")
	}
	if s.State() != StateClosed || len(s.Sets()) != 1 {
		t.Fatalf("unexpected state after remove: %s sets=%d", s.State(), len(s.Sets()))
	}
	if s.RemoveSet("b") {
		t.Fatal("second remove must report false")
	}
}

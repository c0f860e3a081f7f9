package documents

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"studyhall/internal/flashcards"
)

type scriptedLister struct {
	mu     sync.Mutex
	script [][]flashcards.Document
	errs   []error
	calls  int
}

func (s *scriptedLister) ListDocuments(context.Context) ([]flashcards.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := min(s.calls, len(s.script)-1)
	s.calls++
	if idx < len(s.errs) && s.errs[idx] != nil {
		return nil, s.errs[idx]
	}
	return append([]flashcards.Document(nil), s.script[idx]...), nil
}

func doc(id string, status flashcards.DocumentStatus) flashcards.Document {
	return flashcards.Document{ID: id, Title: id, Status: status}
}

func TestWatcherStopsWhenNothingProcessing(t *testing.T) {
	lister := &scriptedLister{script: [][]flashcards.Document{
		{doc("a", flashcards.StatusProcessing), doc("b", flashcards.StatusReady)},
		{doc("a", flashcards.StatusProcessing), doc("b", flashcards.StatusReady)},
		{doc("a", flashcards.StatusReady), doc("b", flashcards.StatusReady)},
	}}
	var updates int
	w := NewWatcher(lister, time.Millisecond, 0, nil)
	docs, err := w.Run(context.Background(), func([]flashcards.Document) { updates++ })
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if lister.calls != 3 || updates != 3 {
		t.Fatalf("expected 3 polls and updates, got %d and %d", lister.calls, updates)
	}
	if flashcards.AnyProcessing(docs) {
		t.Fatalf("expected settled documents, got %+v", docs)
	}
}

func TestWatcherReturnsImmediatelyWhenSettled(t *testing.T) {
	lister := &scriptedLister{script: [][]flashcards.Document{{doc("a", flashcards.StatusFailed)}}}
	w := NewWatcher(lister, time.Hour, 0, nil)
	if _, err := w.Run(context.Background(), nil); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if lister.calls != 1 {
		t.Fatalf("expected a single fetch, got %d", lister.calls)
	}
}

func TestWatcherHonoursMaxPolls(t *testing.T) {
	lister := &scriptedLister{script: [][]flashcards.Document{{doc("a", flashcards.StatusProcessing)}}}
	w := NewWatcher(lister, time.Millisecond, 3, nil)
	_, err := w.Run(context.Background(), nil)
	if !errors.Is(err, ErrMaxPolls) {
		t.Fatalf("expected ErrMaxPolls, got %v", err)
	}
	if lister.calls != 3 {
		t.Fatalf("expected 3 polls, got %d", lister.calls)
	}
}

func TestWatcherKeepsPollingThroughErrors(t *testing.T) {
	lister := &scriptedLister{
		script: [][]flashcards.Document{
			nil,
			{doc("a", flashcards.StatusReady)},
		},
		errs: []error{errors.New("offline")},
	}
	w := NewWatcher(lister, time.Millisecond, 0, nil)
	docs, err := w.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(docs) != 1 || docs[0].Status != flashcards.StatusReady {
		t.Fatalf("unexpected documents: %+v", docs)
	}
}

func TestWatcherStopsOnCancel(t *testing.T) {
	lister := &scriptedLister{script: [][]flashcards.Document{{doc("a", flashcards.StatusProcessing)}}}
	w := NewWatcher(lister, time.Hour, 0, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := w.Run(ctx, nil)
		done <- err
	}()
	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop after cancel")
	}
}

package daemon

import (
	"context"
	"sync"
	"testing"
	"time"

	"studyhall/internal/flashcards"
	"studyhall/internal/logging"
	"studyhall/internal/store"
	"studyhall/internal/testsupport"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events map[string][]flashcards.StatusEvent
	notify chan struct{}
}

func newRecordingPublisher() *recordingPublisher {
	return &recordingPublisher{events: make(map[string][]flashcards.StatusEvent), notify: make(chan struct{}, 16)}
}

func (p *recordingPublisher) Publish(owner string, event flashcards.StatusEvent) {
	p.mu.Lock()
	p.events[owner] = append(p.events[owner], event)
	p.mu.Unlock()
	p.notify <- struct{}{}
}

func (p *recordingPublisher) wait(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-p.notify:
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out waiting for event %d", i+1)
		}
	}
}

func runProcessor(t *testing.T, p *Processor) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = p.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func TestProcessorMarksDocumentsAndPublishes(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	pub := newRecordingPublisher()
	p := NewProcessor(st, pub, nil, logging.NewNop())
	runProcessor(t, p)

	ctx := context.Background()
	good, err := st.CreateDocument(ctx, "alice", store.NewDocument{FileName: "notes.md", Content: []byte("# Notes\r\nCells divide.\r\n")})
	if err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}
	bad, err := st.CreateDocument(ctx, "alice", store.NewDocument{FileName: "image.png", Content: []byte{0x89, 'P', 'N', 'G', 0x00, 0xff}})
	if err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}
	p.Enqueue(good.ID)
	p.Enqueue(bad.ID)
	pub.wait(t, 2)

	pub.mu.Lock()
	events := append([]flashcards.StatusEvent(nil), pub.events["alice"]...)
	pub.mu.Unlock()
	got := make(map[string]flashcards.DocumentStatus, len(events))
	for _, event := range events {
		got[event.DocumentID] = event.Status
	}
	if len(events) != 2 || got[good.ID] != flashcards.StatusReady || got[bad.ID] != flashcards.StatusFailed {
		t.Fatalf("unexpected events %+v", events)
	}

	text, err := st.DocumentText(ctx, "alice", good.ID)
	if err != nil {
		t.Fatalf("DocumentText: %v", err)
	}
	if text != "# Notes\nCells divide." {
		t.Fatalf("unexpected extracted text %q", text)
	}
}

func TestProcessorRecoversUnfinishedDocuments(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	doc, err := st.CreateDocument(context.Background(), "bob", store.NewDocument{FileName: "left.txt", Content: []byte("left over")})
	if err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}

	pub := newRecordingPublisher()
	runProcessor(t, NewProcessor(st, pub, nil, logging.NewNop()))
	pub.wait(t, 1)

	got, err := st.GetDocument(context.Background(), "bob", doc.ID)
	if err != nil {
		t.Fatalf("GetDocument: %v", err)
	}
	if got.Status != flashcards.StatusReady {
		t.Fatalf("expected ready, got %s", got.Status)
	}
}

func TestEnqueueIgnoresDuplicates(t *testing.T) {
	p := NewProcessor(nil, nil, nil, nil)
	p.Enqueue("a")
	p.Enqueue("a")
	p.Enqueue("b")
	if got := p.Pending(); got != 2 {
		t.Fatalf("expected 2 pending, got %d", got)
	}
}

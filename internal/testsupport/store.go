package testsupport

import (
	"context"
	"testing"

	"studyhall/internal/config"
	"studyhall/internal/flashcards"
	"studyhall/internal/store"
)

// MustOpenStore opens the backend store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(context.Background(), cfg.DatabasePath())
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// NewReadyDocument stores a document that has finished processing.
func NewReadyDocument(t testing.TB, st *store.Store, owner, title, text string) flashcards.Document {
	t.Helper()

	ctx := context.Background()
	doc, err := st.CreateDocument(ctx, owner, store.NewDocument{Title: title, FileName: title + ".txt", Content: []byte(text)})
	if err != nil {
		t.Fatalf("store.CreateDocument: %v", err)
	}
	if err := st.CompleteProcessing(ctx, doc.ID, flashcards.StatusReady, text); err != nil {
		t.Fatalf("store.CompleteProcessing: %v", err)
	}
	doc.Status = flashcards.StatusReady
	return doc
}

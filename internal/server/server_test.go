package server_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studyhall/internal/flashcards"
	"studyhall/internal/generator"
	"studyhall/internal/server"
	"studyhall/internal/store"
	"studyhall/internal/studyapi"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type fakeGenerator struct {
	enabled   bool
	cards     []generator.Card
	questions []generator.Question
	err       error
}

func (f *fakeGenerator) Enabled() bool { return f.enabled }

func (f *fakeGenerator) Flashcards(_ context.Context, _, _ string, count int) ([]generator.Card, error) {
	if f.err != nil {
		return nil, f.err
	}
	if count < len(f.cards) {
		return f.cards[:count], nil
	}
	return f.cards, nil
}

func (f *fakeGenerator) Summarize(context.Context, string, string) (string, error) {
	return "Cells divide by mitosis.", f.err
}

func (f *fakeGenerator) Answer(_ context.Context, _, _ string, history []flashcards.ChatMessage, question string) (string, error) {
	return "answer to " + question, f.err
}

func (f *fakeGenerator) Quiz(_ context.Context, _, _ string, count int, _ flashcards.Difficulty) ([]generator.Question, error) {
	if f.err != nil {
		return nil, f.err
	}
	if count < len(f.questions) {
		return f.questions[:count], nil
	}
	return f.questions, nil
}

func (f *fakeGenerator) Explain(_ context.Context, _, _, concept string) (string, error) {
	return "explanation of " + concept, f.err
}

type recordingQueue struct {
	mu  sync.Mutex
	ids []string
}

func (q *recordingQueue) Enqueue(id string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.ids = append(q.ids, id)
}

func (q *recordingQueue) snapshot() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]string(nil), q.ids...)
}

type harness struct {
	srv    *server.Server
	store  *store.Store
	auth   *server.Authenticator
	http   *httptest.Server
	queue  *recordingQueue
	client *studyapi.Client
}

func newHarness(t *testing.T, cfg server.Config, gen server.Generator) *harness {
	t.Helper()
	st, err := store.Open(context.Background(), filepath.Join(t.TempDir(), "studyhall.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	auth, err := server.NewAuthenticator(testSecret, time.Hour)
	require.NoError(t, err)

	queue := &recordingQueue{}
	deps := server.Deps{Store: st, Auth: auth, Processor: queue}
	if gen != nil {
		deps.Generator = gen
	}
	srv, err := server.New(cfg, deps)
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		srv.Hub().Close()
		ts.Close()
	})

	h := &harness{srv: srv, store: st, auth: auth, http: ts, queue: queue}
	h.client = h.clientFor(t, "alice")
	return h
}

func (h *harness) clientFor(t *testing.T, subject string) *studyapi.Client {
	t.Helper()
	token, err := h.auth.Mint(subject)
	require.NoError(t, err)
	client, err := studyapi.New(studyapi.Config{BaseURL: h.http.URL, Token: token, Timeout: 5 * time.Second})
	require.NoError(t, err)
	return client
}

func (h *harness) readyDocument(t *testing.T, owner, title string) flashcards.Document {
	t.Helper()
	ctx := context.Background()
	doc, err := h.store.CreateDocument(ctx, owner, store.NewDocument{Title: title, FileName: title, Content: []byte("cells divide")})
	require.NoError(t, err)
	require.NoError(t, h.store.CompleteProcessing(ctx, doc.ID, flashcards.StatusReady, "cells divide"))
	return doc
}

func (h *harness) seedSet(t *testing.T, owner string, doc flashcards.Document, n int) flashcards.Set {
	t.Helper()
	cards := make([]store.NewCard, n)
	for i := range cards {
		cards[i] = store.NewCard{Question: "Q" + string(rune('1'+i)), Answer: "A" + string(rune('1'+i))}
	}
	set, err := h.store.CreateSet(context.Background(), owner, doc.ID, "Biology Flashcards", cards)
	require.NoError(t, err)
	return set
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	var apiErr *studyapi.APIError
	require.True(t, errors.As(err, &apiErr), "expected API error, got %v", err)
	return apiErr.StatusCode
}

func TestHealthAndMetrics(t *testing.T) {
	h := newHarness(t, server.Config{}, nil)
	require.NoError(t, h.client.Health(context.Background()))

	resp, err := http.Get(h.http.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRejectsMissingAndInvalidTokens(t *testing.T) {
	h := newHarness(t, server.Config{}, nil)

	resp, err := http.Get(h.http.URL + "/api/flashcards")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	other, err := server.NewAuthenticator("another-secret-0123456789", time.Hour)
	require.NoError(t, err)
	forged, err := other.Mint("alice")
	require.NoError(t, err)
	client, err := studyapi.New(studyapi.Config{BaseURL: h.http.URL, Token: forged})
	require.NoError(t, err)
	_, err = client.ListAllFlashcards(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, studyapi.ErrUnauthorized)
}

func TestFlashcardRoundTrip(t *testing.T) {
	h := newHarness(t, server.Config{}, nil)
	ctx := context.Background()
	doc := h.readyDocument(t, "alice", "biology.txt")
	seeded := h.seedSet(t, "alice", doc, 3)

	sets, err := h.client.ListFlashcards(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, sets, 1)
	require.Len(t, sets[0].Cards, 3)
	assert.Equal(t, seeded.ID, sets[0].ID)

	card := sets[0].Cards[1]
	starred, err := h.client.ToggleStar(ctx, card.ID)
	require.NoError(t, err)
	assert.True(t, starred.Cards[1].Starred)
	assert.False(t, starred.Cards[0].Starred)

	reviewed, err := h.client.ReviewCard(ctx, card.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, reviewed.Cards[1].ReviewCount)
	require.NotNil(t, reviewed.Cards[1].LastReviewed)

	_, err = h.client.ReviewCard(ctx, card.ID, 2)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))

	all, err := h.client.ListAllFlashcards(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)

	require.NoError(t, h.client.DeleteSet(ctx, seeded.ID))
	sets, err = h.client.ListFlashcards(ctx, doc.ID)
	require.NoError(t, err)
	assert.Empty(t, sets)

	err = h.client.DeleteSet(ctx, seeded.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, studyapi.ErrNotFound)
}

func TestOwnersAreIsolated(t *testing.T) {
	h := newHarness(t, server.Config{}, nil)
	ctx := context.Background()
	doc := h.readyDocument(t, "alice", "biology.txt")
	set := h.seedSet(t, "alice", doc, 2)

	bob := h.clientFor(t, "bob")
	_, err := bob.ListFlashcards(ctx, doc.ID)
	assert.ErrorIs(t, err, studyapi.ErrNotFound)
	_, err = bob.ToggleStar(ctx, set.Cards[0].ID)
	assert.ErrorIs(t, err, studyapi.ErrNotFound)

	all, err := bob.ListAllFlashcards(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestUploadEnqueuesProcessing(t *testing.T) {
	h := newHarness(t, server.Config{}, nil)
	ctx := context.Background()

	doc, err := h.client.UploadDocument(ctx, "Cell Biology", "cells.md", strings.NewReader("# Cells\nCells divide."))
	require.NoError(t, err)
	assert.Equal(t, flashcards.StatusProcessing, doc.Status)
	assert.Equal(t, "Cell Biology", doc.Title)
	assert.Equal(t, []string{doc.ID}, h.queue.snapshot())

	docs, err := h.client.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 1)

	got, err := h.client.GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "cells.md", got.FileName)

	require.NoError(t, h.client.DeleteDocument(ctx, doc.ID))
	_, err = h.client.GetDocument(ctx, doc.ID)
	assert.ErrorIs(t, err, studyapi.ErrNotFound)
}

func TestUploadRejectsOversizedFile(t *testing.T) {
	h := newHarness(t, server.Config{MaxUploadBytes: 16}, nil)
	_, err := h.client.UploadDocument(context.Background(), "", "big.txt", bytes.NewReader(bytes.Repeat([]byte("x"), 64)))
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))
	assert.Empty(t, h.queue.snapshot())
}

func TestGenerationUnavailableWithoutLLM(t *testing.T) {
	h := newHarness(t, server.Config{}, nil)
	doc := h.readyDocument(t, "alice", "biology.txt")

	_, err := h.client.GenerateFlashcards(context.Background(), doc.ID, 5)
	require.Error(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, statusOf(t, err))
	assert.Contains(t, studyapi.Message(err), "not configured")
}

func TestGenerateFlashcardsStoresSet(t *testing.T) {
	gen := &fakeGenerator{enabled: true, cards: []generator.Card{
		{Question: "What divides?", Answer: "Cells", Difficulty: flashcards.DifficultyEasy},
		{Question: "How?", Answer: "Mitosis", Difficulty: flashcards.DifficultyMedium},
		{Question: "Where?", Answer: "Everywhere"},
	}}
	h := newHarness(t, server.Config{DefaultGenerateCount: 2}, gen)
	ctx := context.Background()
	doc := h.readyDocument(t, "alice", "cell_biology.txt")

	set, err := h.client.GenerateFlashcards(ctx, doc.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, "Cell Biology Flashcards", set.Title)
	require.Len(t, set.Cards, 2)
	assert.Equal(t, flashcards.DifficultyMedium, set.Cards[1].Difficulty)

	summary, err := h.client.GenerateSummary(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "Cells divide by mitosis.", summary.Summary)
	stored, err := h.client.GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "Cells divide by mitosis.", stored.Summary)

	answer, err := h.client.Chat(ctx, doc.ID, "what divides?")
	require.NoError(t, err)
	assert.Equal(t, "answer to what divides?", answer.Answer)
	history, err := h.client.ChatHistory(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "user", history[0].Role)
	assert.Equal(t, "assistant", history[1].Role)

	dash, err := h.client.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, dash.Overview.TotalDocuments)
	assert.Equal(t, 2, dash.Overview.TotalFlashcards)
}

func TestGenerateRejectsUnreadyDocument(t *testing.T) {
	h := newHarness(t, server.Config{}, &fakeGenerator{enabled: true})
	doc, err := h.store.CreateDocument(context.Background(), "alice", store.NewDocument{FileName: "notes.txt", Content: []byte("notes")})
	require.NoError(t, err)

	_, err = h.client.GenerateFlashcards(context.Background(), doc.ID, 3)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))
}

func TestGenerationFailureIsBadGateway(t *testing.T) {
	h := newHarness(t, server.Config{}, &fakeGenerator{enabled: true, err: errors.New("provider down")})
	doc := h.readyDocument(t, "alice", "biology.txt")

	_, err := h.client.GenerateFlashcards(context.Background(), doc.ID, 3)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadGateway, statusOf(t, err))
}

func TestGenerationIsRateLimitedPerSubject(t *testing.T) {
	gen := &fakeGenerator{enabled: true, cards: []generator.Card{{Question: "Q", Answer: "A"}}}
	h := newHarness(t, server.Config{GenerateRatePerMinute: 1}, gen)
	ctx := context.Background()
	doc := h.readyDocument(t, "alice", "biology.txt")

	_, err := h.client.GenerateFlashcards(ctx, doc.ID, 1)
	require.NoError(t, err)
	_, err = h.client.GenerateFlashcards(ctx, doc.ID, 1)
	require.Error(t, err)
	assert.Equal(t, http.StatusTooManyRequests, statusOf(t, err))

	bobDoc := h.readyDocument(t, "bob", "chemistry.txt")
	_, err = h.clientFor(t, "bob").GenerateFlashcards(ctx, bobDoc.ID, 1)
	assert.NoError(t, err)
}

func TestStatusEventsArePushedToOwner(t *testing.T) {
	h := newHarness(t, server.Config{}, nil)
	eventsURL, err := h.client.EventsURL()
	require.NoError(t, err)

	conn, resp, err := websocket.DefaultDialer.Dial(eventsURL, h.client.AuthHeader())
	require.NoError(t, err)
	defer conn.Close()
	assert.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)

	require.Eventually(t, func() bool { return h.srv.Hub().Subscribers("alice") == 1 }, 2*time.Second, 10*time.Millisecond)

	h.srv.Hub().Publish("bob", flashcards.StatusEvent{DocumentID: "other", Status: flashcards.StatusReady})
	h.srv.Hub().Publish("alice", flashcards.StatusEvent{DocumentID: "doc-1", Status: flashcards.StatusReady})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var event flashcards.StatusEvent
	require.NoError(t, conn.ReadJSON(&event))
	assert.Equal(t, "doc-1", event.DocumentID)
	assert.Equal(t, flashcards.StatusReady, event.Status)
}

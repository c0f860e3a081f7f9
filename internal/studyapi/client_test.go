package studyapi_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"studyhall/internal/flashcards"
	"studyhall/internal/services"
	"studyhall/internal/studyapi"
)

func newClient(t *testing.T, handler http.HandlerFunc) *studyapi.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client, err := studyapi.New(studyapi.Config{BaseURL: server.URL, Token: "secret"})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return client
}

func writeData(t *testing.T, w http.ResponseWriter, data any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]any{"success": true, "data": data}); err != nil {
		t.Fatalf("encode response: %v", err)
	}
}

func TestNewRejectsBadBaseURL(t *testing.T) {
	if _, err := studyapi.New(studyapi.Config{BaseURL: "ftp://example.com"}); err == nil {
		t.Fatal("expected error for non-http base url")
	}
}

func TestListFlashcardsSendsTokenAndNormalizes(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/api/flashcards/doc-1" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Fatalf("unexpected authorization header %q", got)
		}
		if got := r.Header.Get("X-Request-ID"); got != "req-9" {
			t.Fatalf("unexpected request id %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"success":true,"data":[{"_id":"s1","title":"Set","cards":[{"_id":"c1","question":"Q","answer":"A","isStarted":true}]}]}`)
	})

	ctx := services.WithRequestID(context.Background(), "req-9")
	sets, err := client.ListFlashcards(ctx, "doc-1")
	if err != nil {
		t.Fatalf("ListFlashcards returned error: %v", err)
	}
	if len(sets) != 1 || sets[0].ID != "s1" || sets[0].DocumentID != "doc-1" {
		t.Fatalf("unexpected sets %+v", sets)
	}
	if !sets[0].Cards[0].Starred {
		t.Fatal("expected legacy starred spelling to decode as starred")
	}
}

func TestListFlashcardsAcceptsWrappedPayload(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"data":{"flashcards":[{"_id":"s1","cards":[]},{"_id":"s2","cards":[]}]}}`)
	})
	sets, err := client.ListFlashcards(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("ListFlashcards returned error: %v", err)
	}
	if len(sets) != 2 {
		t.Fatalf("expected 2 sets, got %d", len(sets))
	}
}

func TestReviewCardSendsIndex(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/flashcards/c2/review" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var body struct {
			CardIndex int `json:"cardIndex"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body.CardIndex != 1 {
			t.Fatalf("unexpected card index %d", body.CardIndex)
		}
		writeData(t, w, flashcards.Set{ID: "s1", Cards: []flashcards.Card{{ID: "c1"}, {ID: "c2", ReviewCount: 1}}})
	})
	set, err := client.ReviewCard(context.Background(), "c2", 1)
	if err != nil {
		t.Fatalf("ReviewCard returned error: %v", err)
	}
	if set.Cards[1].ReviewCount != 1 {
		t.Fatalf("unexpected set %+v", set)
	}
}

func TestToggleStarUsesPut(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/api/flashcards/c1/star" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		writeData(t, w, flashcards.Set{ID: "s1", Cards: []flashcards.Card{{ID: "c1", Starred: true}}})
	})
	set, err := client.ToggleStar(context.Background(), "c1")
	if err != nil {
		t.Fatalf("ToggleStar returned error: %v", err)
	}
	if !set.Cards[0].Starred {
		t.Fatal("expected starred card")
	}
}

func TestErrorPayloadsBecomeAPIErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		marker  error
		message string
	}{
		{name: "message field", status: http.StatusBadRequest, body: `{"success":false,"message":"quiz already completed"}`, marker: studyapi.ErrRejected, message: "quiz already completed"},
		{name: "error field", status: http.StatusNotFound, body: `{"success":false,"error":"Flashcard not found"}`, marker: studyapi.ErrNotFound, message: "Flashcard not found"},
		{name: "unauthorized", status: http.StatusUnauthorized, body: ``, marker: studyapi.ErrUnauthorized, message: "unauthorized"},
		{name: "plain text", status: http.StatusInternalServerError, body: "database locked", marker: studyapi.ErrRejected, message: "database locked"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = io.WriteString(w, tc.body)
			})
			_, err := client.ToggleStar(context.Background(), "c1")
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, tc.marker) {
				t.Fatalf("expected marker %v, got %v", tc.marker, err)
			}
			var apiErr *studyapi.APIError
			if !errors.As(err, &apiErr) || apiErr.StatusCode != tc.status {
				t.Fatalf("expected APIError with status %d, got %v", tc.status, err)
			}
			if got := studyapi.Message(err); got != tc.message {
				t.Fatalf("Message = %q, want %q", got, tc.message)
			}
		})
	}
}

func TestSuccessFalseIsRejected(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"success":false,"message":"set is locked"}`)
	})
	err := client.DeleteSet(context.Background(), "s1")
	if !errors.Is(err, studyapi.ErrRejected) || studyapi.Message(err) != "set is locked" {
		t.Fatalf("expected rejection with server message, got %v", err)
	}
}

func TestOversizedResponseIsRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeData(t, w, map[string]any{"flashcardSets": []any{}, "padding": strings.Repeat("x", 4096)})
	}))
	t.Cleanup(server.Close)
	client, err := studyapi.New(studyapi.Config{BaseURL: server.URL}, studyapi.WithMaxResponseBody(1024))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	_, err = client.ListFlashcards(context.Background(), "doc")
	if !errors.Is(err, studyapi.ErrRejected) {
		t.Fatalf("expected oversized body rejected, got %v", err)
	}
	if !strings.Contains(err.Error(), "exceeds 1024 bytes") {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := server.URL
	server.Close()

	client, err := studyapi.New(studyapi.Config{BaseURL: url})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	_, err = client.ListFlashcards(context.Background(), "doc")
	if !errors.Is(err, studyapi.ErrTransport) {
		t.Fatalf("expected transport error, got %v", err)
	}
	if studyapi.Message(err) != "could not reach the study backend" {
		t.Fatalf("unexpected message %q", studyapi.Message(err))
	}
}

func TestGenerateFlashcardsPayload(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/ai/generate-flashcards" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body["documentId"] != "doc-1" || body["count"] != float64(7) {
			t.Fatalf("unexpected body %v", body)
		}
		w.WriteHeader(http.StatusCreated)
		writeData(t, w, flashcards.Set{ID: "new", DocumentID: "doc-1"})
	})
	set, err := client.GenerateFlashcards(context.Background(), "doc-1", 7)
	if err != nil {
		t.Fatalf("GenerateFlashcards returned error: %v", err)
	}
	if set.ID != "new" {
		t.Fatalf("unexpected set %+v", set)
	}
}

func TestUploadDocumentMultipart(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/documents/upload" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		if r.FormValue("title") != "Cells" {
			t.Fatalf("unexpected title %q", r.FormValue("title"))
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		defer file.Close()
		content, _ := io.ReadAll(file)
		if header.Filename != "cells.txt" || string(content) != "mitochondria" {
			t.Fatalf("unexpected upload %q %q", header.Filename, content)
		}
		writeData(t, w, flashcards.Document{ID: "d1", Title: "Cells", Status: flashcards.StatusProcessing})
	})
	doc, err := client.UploadDocument(context.Background(), "Cells", "/tmp/cells.txt", strings.NewReader("mitochondria"))
	if err != nil {
		t.Fatalf("UploadDocument returned error: %v", err)
	}
	if doc.ID != "d1" || doc.Status != flashcards.StatusProcessing {
		t.Fatalf("unexpected document %+v", doc)
	}
}

func TestChatAndHistory(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/ai/chat":
			writeData(t, w, flashcards.ChatAnswer{Question: "why?", Answer: "because"})
		case "/api/ai/chat-history/d1":
			writeData(t, w, []flashcards.ChatMessage{{Role: "user", Content: "why?"}, {Role: "assistant", Content: "because"}})
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	})
	answer, err := client.Chat(context.Background(), "d1", " why? ")
	if err != nil || answer.Answer != "because" {
		t.Fatalf("Chat = %+v, %v", answer, err)
	}
	history, err := client.ChatHistory(context.Background(), "d1")
	if err != nil || len(history) != 2 {
		t.Fatalf("ChatHistory = %+v, %v", history, err)
	}
	if _, err := client.Chat(context.Background(), "d1", "  "); !errors.Is(err, studyapi.ErrRejected) {
		t.Fatalf("expected empty question rejected, got %v", err)
	}
}

func TestEventsURL(t *testing.T) {
	client, err := studyapi.New(studyapi.Config{BaseURL: "https://study.example.com/base/", Token: "tok"})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	got, err := client.EventsURL()
	if err != nil {
		t.Fatalf("EventsURL returned error: %v", err)
	}
	if got != "wss://study.example.com/base/api/documents/events" {
		t.Fatalf("unexpected events url %q", got)
	}
	if client.AuthHeader().Get("Authorization") != "Bearer tok" {
		t.Fatal("expected auth header")
	}
}

package studyapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"studyhall/internal/flashcards"
)

// setList decodes either a bare array of sets or an object wrapping the array
// under "flashcards", both of which the backend has returned.
type setList []flashcards.Set

func (l *setList) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var wrapped struct {
			Flashcards []flashcards.Set `json:"flashcards"`
		}
		if err := json.Unmarshal(trimmed, &wrapped); err != nil {
			return err
		}
		*l = wrapped.Flashcards
		return nil
	}
	var sets []flashcards.Set
	if err := json.Unmarshal(trimmed, &sets); err != nil {
		return err
	}
	*l = sets
	return nil
}

// ListFlashcards returns every set generated from the document.
func (c *Client) ListFlashcards(ctx context.Context, documentID string) ([]flashcards.Set, error) {
	var sets setList
	if err := c.doJSON(ctx, "list flashcards", http.MethodGet, c.endpoint("api", "flashcards", documentID), nil, &sets); err != nil {
		return nil, err
	}
	out := []flashcards.Set(sets)
	for i := range out {
		if out[i].DocumentID == "" {
			out[i].DocumentID = documentID
		}
	}
	return out, nil
}

// ListAllFlashcards returns every set owned by the caller.
func (c *Client) ListAllFlashcards(ctx context.Context) ([]flashcards.Set, error) {
	var sets setList
	if err := c.doJSON(ctx, "list all flashcards", http.MethodGet, c.endpoint("api", "flashcards"), nil, &sets); err != nil {
		return nil, err
	}
	return []flashcards.Set(sets), nil
}

// ReviewCard records that the card's answer was revealed. The index is the
// card's position within its set.
func (c *Client) ReviewCard(ctx context.Context, cardID string, index int) (flashcards.Set, error) {
	var set flashcards.Set
	payload := map[string]int{"cardIndex": index}
	err := c.doJSON(ctx, "review card", http.MethodPost, c.endpoint("api", "flashcards", cardID, "review"), payload, &set)
	return set, err
}

// ToggleStar flips the card's starred flag on the server.
func (c *Client) ToggleStar(ctx context.Context, cardID string) (flashcards.Set, error) {
	var set flashcards.Set
	err := c.doJSON(ctx, "toggle star", http.MethodPut, c.endpoint("api", "flashcards", cardID, "star"), nil, &set)
	return set, err
}

// DeleteSet removes a whole flashcard set.
func (c *Client) DeleteSet(ctx context.Context, setID string) error {
	return c.doJSON(ctx, "delete flashcard set", http.MethodDelete, c.endpoint("api", "flashcards", setID), nil, nil)
}

// GenerateFlashcards asks the backend to generate a new set of count cards
// from the document.
func (c *Client) GenerateFlashcards(ctx context.Context, documentID string, count int) (flashcards.Set, error) {
	var set flashcards.Set
	if strings.TrimSpace(documentID) == "" {
		return set, Wrap(ErrRejected, "generate flashcards", "document id required", nil)
	}
	payload := struct {
		DocumentID string `json:"documentId"`
		Count      int    `json:"count"`
	}{DocumentID: documentID, Count: count}
	err := c.doJSON(ctx, "generate flashcards", http.MethodPost, c.endpoint("api", "ai", "generate-flashcards"), payload, &set)
	return set, err
}

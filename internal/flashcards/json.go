package flashcards

import (
	"encoding/json"
	"time"
)

// cardWire carries every spelling the backend has used across revisions.
type cardWire struct {
	MongoID      string     `json:"_id,omitempty"`
	ID           string     `json:"id,omitempty"`
	Question     string     `json:"question"`
	Answer       string     `json:"answer"`
	ReviewCount  int        `json:"reviewCount"`
	LastReviewed *time.Time `json:"lastReviewed"`
	IsStarred    *bool      `json:"isStarred,omitempty"`
	IsStarted    *bool      `json:"isStarted,omitempty"`
	InStarted    *bool      `json:"inStarted,omitempty"`
	Difficulty   Difficulty `json:"difficulty,omitempty"`
}

// MarshalJSON encodes the canonical wire form: "_id" and "isStarred".
func (c Card) MarshalJSON() ([]byte, error) {
	starred := c.Starred
	return json.Marshal(cardWire{
		MongoID:      c.ID,
		Question:     c.Question,
		Answer:       c.Answer,
		ReviewCount:  c.ReviewCount,
		LastReviewed: c.LastReviewed,
		IsStarred:    &starred,
		Difficulty:   c.Difficulty,
	})
}

// UnmarshalJSON accepts "_id" or "id" and treats the card as starred when any
// of isStarred, isStarted, or inStarted is true.
func (c *Card) UnmarshalJSON(data []byte) error {
	var wire cardWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	*c = Card{
		ID:           firstNonEmpty(wire.MongoID, wire.ID),
		Question:     wire.Question,
		Answer:       wire.Answer,
		ReviewCount:  max(wire.ReviewCount, 0),
		LastReviewed: wire.LastReviewed,
		Starred:      isTrue(wire.IsStarred) || isTrue(wire.IsStarted) || isTrue(wire.InStarted),
		Difficulty:   wire.Difficulty,
	}
	return nil
}

type setWire struct {
	MongoID    string    `json:"_id,omitempty"`
	ID         string    `json:"id,omitempty"`
	DocumentID string    `json:"documentId,omitempty"`
	Title      string    `json:"title"`
	Cards      []Card    `json:"cards"`
	CreatedAt  time.Time `json:"createdAt"`
}

// MarshalJSON encodes the canonical wire form of a set.
func (s Set) MarshalJSON() ([]byte, error) {
	cards := s.Cards
	if cards == nil {
		cards = []Card{}
	}
	return json.Marshal(setWire{
		MongoID:    s.ID,
		DocumentID: s.DocumentID,
		Title:      s.Title,
		Cards:      cards,
		CreatedAt:  s.CreatedAt,
	})
}

// UnmarshalJSON accepts either identifier key.
func (s *Set) UnmarshalJSON(data []byte) error {
	var wire setWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	*s = Set{
		ID:         firstNonEmpty(wire.MongoID, wire.ID),
		DocumentID: wire.DocumentID,
		Title:      wire.Title,
		Cards:      wire.Cards,
		CreatedAt:  wire.CreatedAt,
	}
	return nil
}

// UnmarshalJSON accepts either identifier key.
func (d *Document) UnmarshalJSON(data []byte) error {
	type plain Document
	var wire struct {
		plain
		AltID string `json:"id"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	*d = Document(wire.plain)
	if d.ID == "" {
		d.ID = wire.AltID
	}
	return nil
}

func isTrue(v *bool) bool {
	return v != nil && *v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

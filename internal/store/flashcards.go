package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"studyhall/internal/flashcards"
)

// NewCard is a generated question/answer pair.
type NewCard struct {
	Question   string
	Answer     string
	Difficulty flashcards.Difficulty
}

// CreateSet stores a generated set for one of the owner's documents.
func (s *Store) CreateSet(ctx context.Context, owner, documentID, title string, cards []NewCard) (flashcards.Set, error) {
	if len(cards) == 0 {
		return flashcards.Set{}, invalid("create set", "at least one card is required")
	}
	if _, err := s.GetDocument(ctx, owner, documentID); err != nil {
		return flashcards.Set{}, err
	}
	setID, err := newID()
	if err != nil {
		return flashcards.Set{}, err
	}
	ts := s.timestamp()
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO flashcard_sets (id, owner, document_id, title, created_at) VALUES (?, ?, ?, ?, ?)`,
			setID, owner, documentID, strings.TrimSpace(title), ts,
		); err != nil {
			return fmt.Errorf("insert set: %w", err)
		}
		for i, card := range cards {
			question := strings.TrimSpace(card.Question)
			answer := strings.TrimSpace(card.Answer)
			if question == "" || answer == "" {
				return invalid("create set", fmt.Sprintf("card %d is missing a question or answer", i+1))
			}
			difficulty := card.Difficulty
			if difficulty == "" {
				difficulty = flashcards.DifficultyMedium
			}
			cardID, err := newID()
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO flashcards (id, set_id, position, question, answer, difficulty) VALUES (?, ?, ?, ?, ?, ?)`,
				cardID, setID, i, question, answer, difficulty,
			); err != nil {
				return fmt.Errorf("insert card: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return flashcards.Set{}, err
	}
	return s.GetSet(ctx, owner, setID)
}

// ListSets returns the sets generated from one document, newest first.
func (s *Store) ListSets(ctx context.Context, owner, documentID string) ([]flashcards.Set, error) {
	return s.querySets(ctx,
		`SELECT id, document_id, title, created_at FROM flashcard_sets
        WHERE owner = ? AND document_id = ? ORDER BY created_at DESC, id`, owner, documentID)
}

// ListAllSets returns every set the owner has, newest first.
func (s *Store) ListAllSets(ctx context.Context, owner string) ([]flashcards.Set, error) {
	return s.querySets(ctx,
		`SELECT id, document_id, title, created_at FROM flashcard_sets
        WHERE owner = ? ORDER BY created_at DESC, id`, owner)
}

// GetSet fetches one set with its cards.
func (s *Store) GetSet(ctx context.Context, owner, setID string) (flashcards.Set, error) {
	sets, err := s.querySets(ctx,
		`SELECT id, document_id, title, created_at FROM flashcard_sets WHERE id = ? AND owner = ?`, setID, owner)
	if err != nil {
		return flashcards.Set{}, err
	}
	if len(sets) == 0 {
		return flashcards.Set{}, notFound("get set", "flashcard set")
	}
	return sets[0], nil
}

// ReviewCard bumps a card's review count and stamps it, returning the whole
// set. index is the position the client believes the card holds; a mismatch
// is rejected so a stale client cannot review the wrong card.
func (s *Store) ReviewCard(ctx context.Context, owner, cardID string, index int) (flashcards.Set, error) {
	setID, position, err := s.locateCard(ctx, owner, cardID)
	if err != nil {
		return flashcards.Set{}, err
	}
	if index >= 0 && index != position {
		return flashcards.Set{}, invalid("review card", "card index does not match")
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE flashcards SET review_count = review_count + 1, last_reviewed = ? WHERE id = ?`,
		s.timestamp(), cardID)
	if err != nil {
		return flashcards.Set{}, fmt.Errorf("review card: %w", err)
	}
	return s.GetSet(ctx, owner, setID)
}

// ToggleStar flips a card's starred flag, returning the whole set.
func (s *Store) ToggleStar(ctx context.Context, owner, cardID string) (flashcards.Set, error) {
	setID, _, err := s.locateCard(ctx, owner, cardID)
	if err != nil {
		return flashcards.Set{}, err
	}
	if _, err := s.db.ExecContext(ctx,
		`UPDATE flashcards SET starred = 1 - starred WHERE id = ?`, cardID); err != nil {
		return flashcards.Set{}, fmt.Errorf("toggle star: %w", err)
	}
	return s.GetSet(ctx, owner, setID)
}

// DeleteSet removes a set and its cards.
func (s *Store) DeleteSet(ctx context.Context, owner, setID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM flashcard_sets WHERE id = ? AND owner = ?`, setID, owner)
	if err != nil {
		return fmt.Errorf("delete set: %w", err)
	}
	return requireAffected(res, "delete set", "flashcard set")
}

func (s *Store) locateCard(ctx context.Context, owner, cardID string) (string, int, error) {
	var (
		setID    string
		position int
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT c.set_id, c.position FROM flashcards c
        JOIN flashcard_sets fs ON fs.id = c.set_id
        WHERE c.id = ? AND fs.owner = ?`, cardID, owner).Scan(&setID, &position)
	if errors.Is(err, sql.ErrNoRows) {
		return "", 0, notFound("locate card", "flashcard")
	}
	if err != nil {
		return "", 0, fmt.Errorf("locate card: %w", err)
	}
	return setID, position, nil
}

func (s *Store) querySets(ctx context.Context, query string, args ...any) ([]flashcards.Set, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query sets: %w", err)
	}
	sets := make([]flashcards.Set, 0)
	for rows.Next() {
		var (
			set       flashcards.Set
			createdAt string
		)
		if err := rows.Scan(&set.ID, &set.DocumentID, &set.Title, &createdAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan set: %w", err)
		}
		set.CreatedAt = parseTime(createdAt)
		sets = append(sets, set)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate sets: %w", err)
	}
	rows.Close()

	for i := range sets {
		cards, err := s.setCards(ctx, sets[i].ID)
		if err != nil {
			return nil, err
		}
		sets[i].Cards = cards
	}
	return sets, nil
}

func (s *Store) setCards(ctx context.Context, setID string) ([]flashcards.Card, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, question, answer, difficulty, review_count, last_reviewed, starred
        FROM flashcards WHERE set_id = ? ORDER BY position`, setID)
	if err != nil {
		return nil, fmt.Errorf("query cards: %w", err)
	}
	defer rows.Close()

	cards := make([]flashcards.Card, 0)
	for rows.Next() {
		var (
			card         flashcards.Card
			difficulty   string
			lastReviewed sql.NullString
			starred      int
		)
		if err := rows.Scan(&card.ID, &card.Question, &card.Answer, &difficulty, &card.ReviewCount, &lastReviewed, &starred); err != nil {
			return nil, fmt.Errorf("scan card: %w", err)
		}
		card.Difficulty = flashcards.Difficulty(difficulty)
		card.LastReviewed = parseNullableTime(lastReviewed)
		card.Starred = starred != 0
		cards = append(cards, card)
	}
	return cards, rows.Err()
}

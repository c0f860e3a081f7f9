package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"studyhall/internal/flashcards"
)

// AppendChat records chat turns for one of the owner's documents.
func (s *Store) AppendChat(ctx context.Context, owner, documentID string, messages ...flashcards.ChatMessage) error {
	if _, err := s.GetDocument(ctx, owner, documentID); err != nil {
		return err
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, msg := range messages {
			created := msg.CreatedAt
			if created.IsZero() {
				created = s.now()
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO chat_messages (owner, document_id, role, content, created_at) VALUES (?, ?, ?, ?, ?)`,
				owner, documentID, msg.Role, msg.Content, created.UTC().Format(time.RFC3339Nano),
			); err != nil {
				return fmt.Errorf("insert chat message: %w", err)
			}
		}
		return nil
	})
}

// ChatHistory returns a document's chat turns, oldest first.
func (s *Store) ChatHistory(ctx context.Context, owner, documentID string) ([]flashcards.ChatMessage, error) {
	if _, err := s.GetDocument(ctx, owner, documentID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT role, content, created_at FROM chat_messages
        WHERE owner = ? AND document_id = ? ORDER BY id`, owner, documentID)
	if err != nil {
		return nil, fmt.Errorf("query chat history: %w", err)
	}
	defer rows.Close()

	messages := make([]flashcards.ChatMessage, 0)
	for rows.Next() {
		var (
			msg       flashcards.ChatMessage
			createdAt string
		)
		if err := rows.Scan(&msg.Role, &msg.Content, &createdAt); err != nil {
			return nil, fmt.Errorf("scan chat message: %w", err)
		}
		msg.CreatedAt = parseTime(createdAt)
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

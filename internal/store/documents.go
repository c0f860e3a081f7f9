package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"studyhall/internal/flashcards"
)

const documentColumns = `id, title, file_name, file_size, status, summary, created_at`

// NewDocument describes an upload.
type NewDocument struct {
	Title    string
	FileName string
	Content  []byte
}

// CreateDocument stores an upload in the processing state.
func (s *Store) CreateDocument(ctx context.Context, owner string, in NewDocument) (flashcards.Document, error) {
	title := strings.TrimSpace(in.Title)
	fileName := strings.TrimSpace(in.FileName)
	if title == "" {
		title = fileName
	}
	if title == "" {
		return flashcards.Document{}, invalid("create document", "title is required")
	}
	if len(in.Content) == 0 {
		return flashcards.Document{}, invalid("create document", "file is empty")
	}
	id, err := newID()
	if err != nil {
		return flashcards.Document{}, err
	}
	ts := s.timestamp()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO documents (id, owner, title, file_name, file_size, content, status, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, owner, title, fileName, len(in.Content), string(in.Content), flashcards.StatusProcessing, ts, ts,
	)
	if err != nil {
		return flashcards.Document{}, fmt.Errorf("insert document: %w", err)
	}
	return s.GetDocument(ctx, owner, id)
}

// ListDocuments returns the owner's documents, newest first.
func (s *Store) ListDocuments(ctx context.Context, owner string) ([]flashcards.Document, error) {
	return s.queryDocuments(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE owner = ? ORDER BY created_at DESC, id`, owner)
}

// RecentDocuments returns up to limit of the owner's newest documents.
func (s *Store) RecentDocuments(ctx context.Context, owner string, limit int) ([]flashcards.Document, error) {
	return s.queryDocuments(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE owner = ? ORDER BY created_at DESC, id LIMIT ?`, owner, limit)
}

// ProcessingDocuments returns every document still awaiting processing,
// oldest first, across owners.
func (s *Store) ProcessingDocuments(ctx context.Context) ([]flashcards.Document, error) {
	return s.queryDocuments(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE status = ? ORDER BY created_at, id`, flashcards.StatusProcessing)
}

// GetDocument fetches one of the owner's documents.
func (s *Store) GetDocument(ctx context.Context, owner, id string) (flashcards.Document, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE id = ? AND owner = ?`, id, owner)
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return flashcards.Document{}, notFound("get document", "document")
	}
	if err != nil {
		return flashcards.Document{}, fmt.Errorf("get document: %w", err)
	}
	return doc, nil
}

// DocumentOwner returns the owner of a document regardless of caller.
func (s *Store) DocumentOwner(ctx context.Context, id string) (string, error) {
	var owner string
	err := s.db.QueryRowContext(ctx, `SELECT owner FROM documents WHERE id = ?`, id).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return "", notFound("document owner", "document")
	}
	if err != nil {
		return "", fmt.Errorf("document owner: %w", err)
	}
	return owner, nil
}

// RawContent returns the uploaded bytes of a document as text.
func (s *Store) RawContent(ctx context.Context, id string) (string, error) {
	var content string
	err := s.db.QueryRowContext(ctx, `SELECT content FROM documents WHERE id = ?`, id).Scan(&content)
	if errors.Is(err, sql.ErrNoRows) {
		return "", notFound("raw content", "document")
	}
	if err != nil {
		return "", fmt.Errorf("raw content: %w", err)
	}
	return content, nil
}

// DocumentText returns the extracted text of a ready document.
func (s *Store) DocumentText(ctx context.Context, owner, id string) (string, error) {
	var (
		text   string
		status string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT extracted_text, status FROM documents WHERE id = ? AND owner = ?`, id, owner).Scan(&text, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return "", notFound("document text", "document")
	}
	if err != nil {
		return "", fmt.Errorf("document text: %w", err)
	}
	if flashcards.DocumentStatus(status) != flashcards.StatusReady {
		return "", invalid("document text", "document is not ready")
	}
	return text, nil
}

// CompleteProcessing records the outcome of text extraction. Only documents
// still processing are updated; any other document reports ErrNotFound.
func (s *Store) CompleteProcessing(ctx context.Context, id string, status flashcards.DocumentStatus, text string) error {
	if status != flashcards.StatusReady && status != flashcards.StatusFailed {
		return invalid("complete processing", fmt.Sprintf("unexpected status %q", status))
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE documents SET status = ?, extracted_text = ?, updated_at = ? WHERE id = ? AND status = ?`,
		status, text, s.timestamp(), id, flashcards.StatusProcessing)
	if err != nil {
		return fmt.Errorf("complete processing: %w", err)
	}
	return requireAffected(res, "complete processing", "document")
}

// SetSummary stores a generated summary.
func (s *Store) SetSummary(ctx context.Context, owner, id, summary string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE documents SET summary = ?, updated_at = ? WHERE id = ? AND owner = ?`,
		summary, s.timestamp(), id, owner)
	if err != nil {
		return fmt.Errorf("set summary: %w", err)
	}
	return requireAffected(res, "set summary", "document")
}

// RenameDocument changes the title of one of the owner's documents.
func (s *Store) RenameDocument(ctx context.Context, owner, id, title string) (flashcards.Document, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return flashcards.Document{}, invalid("rename document", "title is required")
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE documents SET title = ?, updated_at = ? WHERE id = ? AND owner = ?`,
		title, s.timestamp(), id, owner)
	if err != nil {
		return flashcards.Document{}, fmt.Errorf("rename document: %w", err)
	}
	if err := requireAffected(res, "rename document", "document"); err != nil {
		return flashcards.Document{}, err
	}
	return s.GetDocument(ctx, owner, id)
}

// DeleteDocument removes a document with its sets, quizzes and chat history.
func (s *Store) DeleteDocument(ctx context.Context, owner, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ? AND owner = ?`, id, owner)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return requireAffected(res, "delete document", "document")
}

func (s *Store) queryDocuments(ctx context.Context, query string, args ...any) ([]flashcards.Document, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	docs := make([]flashcards.Document, 0)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(row scanner) (flashcards.Document, error) {
	var (
		doc       flashcards.Document
		status    string
		createdAt string
	)
	if err := row.Scan(&doc.ID, &doc.Title, &doc.FileName, &doc.FileSize, &status, &doc.Summary, &createdAt); err != nil {
		return flashcards.Document{}, err
	}
	doc.Status = flashcards.DocumentStatus(status)
	doc.CreatedAt = parseTime(createdAt)
	return doc, nil
}

func requireAffected(res sql.Result, op, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: rows affected: %w", op, err)
	}
	if n == 0 {
		return notFound(op, what)
	}
	return nil
}

package store

import (
	"context"
	"fmt"

	"studyhall/internal/flashcards"
)

// Dashboard aggregates the owner's study progress.
func (s *Store) Dashboard(ctx context.Context, owner string, recent int) (flashcards.Dashboard, error) {
	var overview flashcards.Overview
	err := s.db.QueryRowContext(ctx, `SELECT
            (SELECT COUNT(*) FROM documents WHERE owner = ?),
            (SELECT COUNT(*) FROM flashcard_sets WHERE owner = ?),
            COUNT(c.id),
            COALESCE(SUM(CASE WHEN c.review_count > 0 THEN 1 ELSE 0 END), 0),
            COALESCE(SUM(c.starred), 0)
        FROM flashcards c JOIN flashcard_sets fs ON fs.id = c.set_id
        WHERE fs.owner = ?`, owner, owner, owner).Scan(
		&overview.TotalDocuments,
		&overview.TotalFlashcardSets,
		&overview.TotalFlashcards,
		&overview.ReviewedFlashcards,
		&overview.StarredFlashcards,
	)
	if err != nil {
		return flashcards.Dashboard{}, fmt.Errorf("dashboard overview: %w", err)
	}
	err = s.db.QueryRowContext(ctx, `SELECT
            COUNT(*),
            COALESCE(SUM(CASE WHEN completed_at IS NOT NULL THEN 1 ELSE 0 END), 0),
            CAST(COALESCE(ROUND(AVG(CASE WHEN completed_at IS NOT NULL THEN score END)), 0) AS INTEGER)
        FROM quizzes WHERE owner = ?`, owner).Scan(
		&overview.TotalQuizzes,
		&overview.CompletedQuizzes,
		&overview.AverageScore,
	)
	if err != nil {
		return flashcards.Dashboard{}, fmt.Errorf("dashboard quizzes: %w", err)
	}
	docs, err := s.RecentDocuments(ctx, owner, recent)
	if err != nil {
		return flashcards.Dashboard{}, err
	}
	return flashcards.Dashboard{Overview: overview, RecentDocuments: docs}, nil
}

package studyapi

import (
	"context"
	"net/http"
	"strings"

	"studyhall/internal/flashcards"
)

// GenerateSummary asks the backend to summarize the document.
func (c *Client) GenerateSummary(ctx context.Context, documentID string) (flashcards.Summary, error) {
	var summary flashcards.Summary
	payload := map[string]string{"documentId": documentID}
	err := c.doJSON(ctx, "generate summary", http.MethodPost, c.endpoint("api", "ai", "generate-summary"), payload, &summary)
	if summary.DocumentID == "" {
		summary.DocumentID = documentID
	}
	return summary, err
}

// Chat asks a question about the document.
func (c *Client) Chat(ctx context.Context, documentID, question string) (flashcards.ChatAnswer, error) {
	var answer flashcards.ChatAnswer
	question = strings.TrimSpace(question)
	if question == "" {
		return answer, Wrap(ErrRejected, "chat", "question required", nil)
	}
	payload := map[string]string{"documentId": documentID, "question": question}
	err := c.doJSON(ctx, "chat", http.MethodPost, c.endpoint("api", "ai", "chat"), payload, &answer)
	return answer, err
}

// ChatHistory returns the document's chat transcript, oldest first.
func (c *Client) ChatHistory(ctx context.Context, documentID string) ([]flashcards.ChatMessage, error) {
	var messages []flashcards.ChatMessage
	if err := c.doJSON(ctx, "chat history", http.MethodGet, c.endpoint("api", "ai", "chat-history", documentID), nil, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

// Dashboard returns aggregated study progress.
func (c *Client) Dashboard(ctx context.Context) (flashcards.Dashboard, error) {
	var dashboard flashcards.Dashboard
	err := c.doJSON(ctx, "dashboard", http.MethodGet, c.endpoint("api", "progress", "dashboard"), nil, &dashboard)
	return dashboard, err
}

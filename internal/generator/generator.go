package generator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	openai "github.com/sashabaranov/go-openai"

	"studyhall/internal/flashcards"
)

// maxSourceRunes bounds the document text sent with each request.
const maxSourceRunes = 60000

// Card is one generated question/answer pair.
type Card struct {
	Question   string                `json:"question"`
	Answer     string                `json:"answer"`
	Difficulty flashcards.Difficulty `json:"difficulty"`
}

// Flashcards asks the model for count cards drawn from text. Cards missing a
// question or answer are dropped; extra cards are trimmed.
func (c *Client) Flashcards(ctx context.Context, title, text string, count int) ([]Card, error) {
	if count <= 0 {
		return nil, errors.New("generate flashcards: count must be positive")
	}
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("generate flashcards: document has no text")
	}
	prompt := fmt.Sprintf("Create exactly %d flashcards.\n\nDocument title: %s\n\nMaterial:\n%s",
		count, title, truncateRunes(text, maxSourceRunes))
	content, err := c.complete(ctx, "generate flashcards", []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: flashcardSystemPrompt},
		{Role: openai.ChatMessageRoleUser, Content: prompt},
	}, true)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Flashcards []Card `json:"flashcards"`
	}
	if err := DecodeJSON(content, &payload); err != nil || len(payload.Flashcards) == 0 {
		var bare []Card
		if bareErr := DecodeJSON(content, &bare); bareErr != nil {
			if err == nil {
				err = bareErr
			}
			return nil, fmt.Errorf("generate flashcards: parse payload: %w", err)
		}
		payload.Flashcards = bare
	}

	cards := make([]Card, 0, len(payload.Flashcards))
	for _, card := range payload.Flashcards {
		card.Question = strings.TrimSpace(card.Question)
		card.Answer = strings.TrimSpace(card.Answer)
		if card.Question == "" || card.Answer == "" {
			continue
		}
		card.Difficulty = normalizeDifficulty(card.Difficulty)
		cards = append(cards, card)
		if len(cards) == count {
			break
		}
	}
	if len(cards) == 0 {
		return nil, errors.New("generate flashcards: model returned no usable cards")
	}
	return cards, nil
}

// Summarize returns a plain-text summary of text.
func (c *Client) Summarize(ctx context.Context, title, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", errors.New("summarize: document has no text")
	}
	prompt := fmt.Sprintf("Document title: %s\n\nMaterial:\n%s", title, truncateRunes(text, maxSourceRunes))
	return c.complete(ctx, "summarize", []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: summarySystemPrompt},
		{Role: openai.ChatMessageRoleUser, Content: prompt},
	}, false)
}

// Answer replies to question about text, continuing history.
func (c *Client) Answer(ctx context.Context, title, text string, history []flashcards.ChatMessage, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", errors.New("chat: question required")
	}
	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: chatSystemPrompt},
		{Role: openai.ChatMessageRoleSystem, Content: fmt.Sprintf("Document title: %s\n\nDocument text:\n%s", title, truncateRunes(text, maxSourceRunes))},
	}
	for _, msg := range history {
		role := openai.ChatMessageRoleUser
		if msg.Role == openai.ChatMessageRoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: msg.Content})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: question})
	return c.complete(ctx, "chat", messages, false)
}

func normalizeDifficulty(d flashcards.Difficulty) flashcards.Difficulty {
	switch flashcards.Difficulty(strings.ToLower(strings.TrimSpace(string(d)))) {
	case flashcards.DifficultyEasy:
		return flashcards.DifficultyEasy
	case flashcards.DifficultyHard:
		return flashcards.DifficultyHard
	default:
		return flashcards.DifficultyMedium
	}
}

func truncateRunes(text string, limit int) string {
	if utf8.RuneCountInString(text) <= limit {
		return text
	}
	runes := []rune(text)
	return string(runes[:limit])
}

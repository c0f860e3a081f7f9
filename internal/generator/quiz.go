package generator

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"studyhall/internal/flashcards"
)

// Question is one generated multiple-choice question.
type Question struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer"`
	Explanation   string   `json:"explanation"`
}

// Quiz asks the model for count multiple-choice questions drawn from text.
// Questions whose answer cannot be matched to an option are dropped.
func (c *Client) Quiz(ctx context.Context, title, text string, count int, difficulty flashcards.Difficulty) ([]Question, error) {
	if count <= 0 {
		return nil, errors.New("generate quiz: count must be positive")
	}
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("generate quiz: document has no text")
	}
	prompt := fmt.Sprintf("Create exactly %d %s questions.\n\nDocument title: %s\n\nMaterial:\n%s",
		count, normalizeDifficulty(difficulty), title, truncateRunes(text, maxSourceRunes))
	content, err := c.complete(ctx, "generate quiz", []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: quizSystemPrompt},
		{Role: openai.ChatMessageRoleUser, Content: prompt},
	}, true)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Questions []Question `json:"questions"`
	}
	if err := DecodeJSON(content, &payload); err != nil || len(payload.Questions) == 0 {
		var bare []Question
		if bareErr := DecodeJSON(content, &bare); bareErr != nil {
			if err == nil {
				err = bareErr
			}
			return nil, fmt.Errorf("generate quiz: parse payload: %w", err)
		}
		payload.Questions = bare
	}

	questions := make([]Question, 0, len(payload.Questions))
	for _, q := range payload.Questions {
		q.Question = strings.TrimSpace(q.Question)
		q.Explanation = strings.TrimSpace(q.Explanation)
		options := make([]string, 0, len(q.Options))
		for _, option := range q.Options {
			if option = strings.TrimSpace(option); option != "" && !slices.Contains(options, option) {
				options = append(options, option)
			}
		}
		q.Options = options
		q.CorrectAnswer = matchOption(options, q.CorrectAnswer)
		if q.Question == "" || len(options) < 2 || q.CorrectAnswer == "" {
			continue
		}
		questions = append(questions, q)
		if len(questions) == count {
			break
		}
	}
	if len(questions) == 0 {
		return nil, errors.New("generate quiz: model returned no usable questions")
	}
	return questions, nil
}

// Explain describes concept as the document presents it.
func (c *Client) Explain(ctx context.Context, title, text, concept string) (string, error) {
	concept = strings.TrimSpace(concept)
	if concept == "" {
		return "", errors.New("explain: concept required")
	}
	if strings.TrimSpace(text) == "" {
		return "", errors.New("explain: document has no text")
	}
	prompt := fmt.Sprintf("Explain: %s\n\nDocument title: %s\n\nMaterial:\n%s",
		concept, title, truncateRunes(text, maxSourceRunes))
	return c.complete(ctx, "explain", []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: explainSystemPrompt},
		{Role: openai.ChatMessageRoleUser, Content: prompt},
	}, false)
}

// matchOption resolves a model's answer to one of options. Models sometimes
// answer with the option letter or its 1-based number instead of the text.
func matchOption(options []string, answer string) string {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return ""
	}
	for _, option := range options {
		if strings.EqualFold(option, answer) {
			return option
		}
	}
	label := strings.TrimRight(strings.ToUpper(answer), ").:")
	if len(label) == 1 && label[0] >= 'A' && int(label[0]-'A') < len(options) {
		return options[label[0]-'A']
	}
	if n, err := strconv.Atoi(label); err == nil && n >= 1 && n <= len(options) {
		return options[n-1]
	}
	return ""
}

package flashcards

import (
	"encoding/json"
	"time"
)

// QuizQuestion is one multiple-choice question.
type QuizQuestion struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer,omitempty"`
	Explanation   string   `json:"explanation,omitempty"`
}

// Quiz is a generated multiple-choice quiz. Score is a percentage and is only
// meaningful once CompletedAt is set.
type Quiz struct {
	ID             string         `json:"_id"`
	DocumentID     string         `json:"documentId"`
	Title          string         `json:"title"`
	Difficulty     Difficulty     `json:"difficulty"`
	Questions      []QuizQuestion `json:"questions"`
	TotalQuestions int            `json:"totalQuestions"`
	Score          int            `json:"score"`
	CompletedAt    *time.Time     `json:"completedAt,omitempty"`
	CreatedAt      time.Time      `json:"createdAt"`
}

// Completed reports whether the quiz has been submitted.
func (q Quiz) Completed() bool {
	return q.CompletedAt != nil
}

// Redacted returns a copy with answers and explanations removed so an open
// quiz can be handed to the taker.
func (q Quiz) Redacted() Quiz {
	out := q
	out.Questions = make([]QuizQuestion, len(q.Questions))
	for i, question := range q.Questions {
		out.Questions[i] = QuizQuestion{
			Question: question.Question,
			Options:  append([]string(nil), question.Options...),
		}
	}
	return out
}

// QuizAnswer is the option chosen for one question.
type QuizAnswer struct {
	QuestionIndex  int    `json:"questionIndex"`
	SelectedAnswer string `json:"selectedAnswer"`
}

// QuestionResult grades one answered question.
type QuestionResult struct {
	QuestionIndex  int      `json:"questionIndex"`
	Question       string   `json:"question"`
	Options        []string `json:"options"`
	CorrectAnswer  string   `json:"correctAnswer"`
	SelectedAnswer string   `json:"selectedAnswer"`
	IsCorrect      bool     `json:"isCorrect"`
	Explanation    string   `json:"explanation"`
}

// UnmarshalJSON also accepts the "explaination" spelling older backends send.
func (r *QuestionResult) UnmarshalJSON(data []byte) error {
	type plain QuestionResult
	var wire struct {
		plain
		Misspelled string `json:"explaination"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	*r = QuestionResult(wire.plain)
	r.Explanation = firstNonEmpty(r.Explanation, wire.Misspelled)
	return nil
}

// QuizResults is a graded quiz.
type QuizResults struct {
	Quiz    Quiz             `json:"quiz"`
	Results []QuestionResult `json:"results"`
}

// Correct counts the correctly answered questions.
func (r QuizResults) Correct() int {
	n := 0
	for _, result := range r.Results {
		if result.IsCorrect {
			n++
		}
	}
	return n
}

// Explanation is a generated explanation of a concept from a document.
type Explanation struct {
	Concept     string `json:"concept"`
	Explanation string `json:"explanation"`
}

// UnmarshalJSON also accepts the "explaination" spelling.
func (e *Explanation) UnmarshalJSON(data []byte) error {
	var wire struct {
		Concept     string `json:"concept"`
		Explanation string `json:"explanation"`
		Misspelled  string `json:"explaination"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	*e = Explanation{Concept: wire.Concept, Explanation: firstNonEmpty(wire.Explanation, wire.Misspelled)}
	return nil
}

// ScorePercent rounds correct out of total to a whole percentage.
func ScorePercent(correct, total int) int {
	if total <= 0 {
		return 0
	}
	return (correct*100 + total/2) / total
}

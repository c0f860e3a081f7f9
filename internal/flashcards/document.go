package flashcards

import "time"

// DocumentStatus tracks server-side processing of an uploaded document.
type DocumentStatus string

const (
	StatusProcessing DocumentStatus = "processing"
	StatusReady      DocumentStatus = "ready"
	StatusFailed     DocumentStatus = "failed"
)

// Valid reports whether the status is one the backend emits.
func (s DocumentStatus) Valid() bool {
	switch s {
	case StatusProcessing, StatusReady, StatusFailed:
		return true
	default:
		return false
	}
}

// Document is an uploaded study source.
type Document struct {
	ID        string         `json:"_id"`
	Title     string         `json:"title"`
	FileName  string         `json:"fileName"`
	FileSize  int64          `json:"fileSize"`
	Status    DocumentStatus `json:"status"`
	Summary   string         `json:"summary,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}

// AnyProcessing reports whether at least one document is still processing.
func AnyProcessing(docs []Document) bool {
	for _, doc := range docs {
		if doc.Status == StatusProcessing {
			return true
		}
	}
	return false
}

// StatusEvent announces a document status change on the push channel.
type StatusEvent struct {
	DocumentID string         `json:"documentId"`
	Status     DocumentStatus `json:"status"`
}

// ChatMessage is one exchange in a document's chat history.
type ChatMessage struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"timestamp"`
}

// ChatAnswer is the reply to a single chat question.
type ChatAnswer struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Summary is a generated document summary.
type Summary struct {
	DocumentID string `json:"documentId"`
	Summary    string `json:"summary"`
}

// Overview aggregates study progress for the dashboard.
type Overview struct {
	TotalDocuments     int `json:"totalDocuments"`
	TotalFlashcardSets int `json:"totalFlashcardSets"`
	TotalFlashcards    int `json:"totalFlashcards"`
	ReviewedFlashcards int `json:"reviewedFlashcards"`
	StarredFlashcards  int `json:"starredFlashcards"`
	TotalQuizzes       int `json:"totalQuizzes"`
	CompletedQuizzes   int `json:"completedQuizzes"`
	AverageScore       int `json:"averageScore"`
}

// Dashboard is the progress read model.
type Dashboard struct {
	Overview        Overview   `json:"overview"`
	RecentDocuments []Document `json:"recentDocuments"`
}

package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/cors"

	"studyhall/internal/flashcards"
	"studyhall/internal/generator"
	"studyhall/internal/logging"
	"studyhall/internal/store"
)

// Generator produces study material from document text.
type Generator interface {
	Enabled() bool
	Flashcards(ctx context.Context, title, text string, count int) ([]generator.Card, error)
	Summarize(ctx context.Context, title, text string) (string, error)
	Answer(ctx context.Context, title, text string, history []flashcards.ChatMessage, question string) (string, error)
	Quiz(ctx context.Context, title, text string, count int, difficulty flashcards.Difficulty) ([]generator.Question, error)
	Explain(ctx context.Context, title, text, concept string) (string, error)
}

// Enqueuer accepts uploaded documents for background processing.
type Enqueuer interface {
	Enqueue(documentID string)
}

// Config holds the tunables the handlers need.
type Config struct {
	Bind                  string
	AllowedOrigins        []string
	GenerateRatePerMinute int
	MaxUploadBytes        int64
	DefaultGenerateCount  int
}

// Deps are the collaborators a Server is built from. Generator and Processor
// may be nil.
type Deps struct {
	Store     *store.Store
	Auth      *Authenticator
	Generator Generator
	Processor Enqueuer
	Hub       *Hub
	Metrics   *Metrics
	Logger    *slog.Logger
}

// Server is the development backend's HTTP surface.
type Server struct {
	cfg       Config
	store     *store.Store
	auth      *Authenticator
	gen       Generator
	processor Enqueuer
	hub       *Hub
	metrics   *Metrics
	logger    *slog.Logger
	validate  *validator.Validate
	limiter   *subjectLimiter
	handler   http.Handler

	listener net.Listener
	server   *http.Server
}

// New wires routes and middleware.
func New(cfg Config, deps Deps) (*Server, error) {
	if deps.Store == nil || deps.Auth == nil {
		return nil, errors.New("server: store and authenticator are required")
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 10 << 20
	}
	if cfg.DefaultGenerateCount <= 0 {
		cfg.DefaultGenerateCount = 5
	}
	logger := deps.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	metrics := deps.Metrics
	if metrics == nil {
		metrics = NewMetrics()
	}
	hub := deps.Hub
	if hub == nil {
		hub = NewHub(cfg.AllowedOrigins, logger, metrics)
	}
	s := &Server{
		cfg:       cfg,
		store:     deps.Store,
		auth:      deps.Auth,
		gen:       deps.Generator,
		processor: deps.Processor,
		hub:       hub,
		metrics:   metrics,
		logger:    logger.With(logging.String(logging.FieldComponent, "api-server")),
		validate:  newValidator(),
		limiter:   newSubjectLimiter(cfg.GenerateRatePerMinute),
	}
	s.handler = s.routes()
	return s, nil
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Hub returns the status push hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Metrics returns the server's collectors.
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", s.metrics.Handler())

	mux.HandleFunc("GET /api/flashcards", s.requireAuth(s.handleListAllSets))
	mux.HandleFunc("GET /api/flashcards/{documentId}", s.requireAuth(s.handleListSets))
	mux.HandleFunc("POST /api/flashcards/{cardId}/review", s.requireAuth(s.handleReviewCard))
	mux.HandleFunc("PUT /api/flashcards/{cardId}/star", s.requireAuth(s.handleToggleStar))
	mux.HandleFunc("DELETE /api/flashcards/{setId}", s.requireAuth(s.handleDeleteSet))

	mux.HandleFunc("GET /api/documents", s.requireAuth(s.handleListDocuments))
	mux.HandleFunc("POST /api/documents/upload", s.requireAuth(s.handleUploadDocument))
	mux.HandleFunc("GET /api/documents/events", s.requireAuth(s.handleDocumentEvents))
	mux.HandleFunc("GET /api/documents/{documentId}", s.requireAuth(s.handleGetDocument))
	mux.HandleFunc("PUT /api/documents/{documentId}", s.requireAuth(s.handleUpdateDocument))
	mux.HandleFunc("DELETE /api/documents/{documentId}", s.requireAuth(s.handleDeleteDocument))

	mux.HandleFunc("GET /api/quizzes/{documentId}", s.requireAuth(s.handleListQuizzes))
	mux.HandleFunc("GET /api/quizzes/{first}/{second}", s.requireAuth(s.handleQuizRead))
	mux.HandleFunc("POST /api/quizzes/{quizId}/submit", s.requireAuth(s.handleSubmitQuiz))
	mux.HandleFunc("DELETE /api/quizzes/{quizId}", s.requireAuth(s.handleDeleteQuiz))

	mux.HandleFunc("POST /api/ai/generate-flashcards", s.requireAuth(s.rateLimited(s.handleGenerateFlashcards)))
	mux.HandleFunc("POST /api/ai/generate-summary", s.requireAuth(s.rateLimited(s.handleGenerateSummary)))
	mux.HandleFunc("POST /api/ai/chat", s.requireAuth(s.rateLimited(s.handleChat)))
	mux.HandleFunc("POST /api/ai/generate-quiz", s.requireAuth(s.rateLimited(s.handleGenerateQuiz)))
	mux.HandleFunc("POST /api/ai/explain-concept", s.requireAuth(s.rateLimited(s.handleExplainConcept)))
	mux.HandleFunc("GET /api/ai/chat-history/{documentId}", s.requireAuth(s.handleChatHistory))

	mux.HandleFunc("GET /api/progress/dashboard", s.requireAuth(s.handleDashboard))

	var handler http.Handler = mux
	handler = s.withRequestContext(handler)
	if len(s.cfg.AllowedOrigins) > 0 {
		handler = cors.New(cors.Options{
			AllowedOrigins:   s.cfg.AllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"Content-Type", "Authorization", requestIDHeader, "Accept", "Origin"},
			ExposedHeaders:   []string{requestIDHeader},
			AllowCredentials: true,
			MaxAge:           86400,
		}).Handler(handler)
	}
	return handler
}

// Start listens on the configured bind address and serves until ctx ends.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.cfg.Bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener
	s.server = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       60 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

// Serve blocks until the server stops. It returns nil after a graceful
// shutdown.
func (s *Server) Serve() error {
	if s.server == nil || s.listener == nil {
		return errors.New("server not started")
	}
	if err := s.server.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("api serve: %w", err)
	}
	return nil
}

// Addr returns the bound listener address.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.Close()
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, envelope{Success: true, Message: "ok"})
}

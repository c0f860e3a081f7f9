package daemon

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"studyhall/internal/flashcards"
	"studyhall/internal/logging"
	"studyhall/internal/server"
	"studyhall/internal/services"
	"studyhall/internal/store"
)

// Publisher receives document status changes.
type Publisher interface {
	Publish(owner string, event flashcards.StatusEvent)
}

// Processor extracts text from uploaded documents one at a time and marks
// them ready or failed.
type Processor struct {
	store     *store.Store
	publisher Publisher
	metrics   *server.Metrics
	logger    *slog.Logger

	mu      sync.Mutex
	pending []string
	queued  map[string]struct{}
	wake    chan struct{}
}

// NewProcessor builds a processor. publisher and metrics may be nil.
func NewProcessor(st *store.Store, publisher Publisher, metrics *server.Metrics, logger *slog.Logger) *Processor {
	return &Processor{
		store:     st,
		publisher: publisher,
		metrics:   metrics,
		logger:    logging.NewComponentLogger(logger, "processor"),
		queued:    make(map[string]struct{}),
		wake:      make(chan struct{}, 1),
	}
}

// Enqueue schedules a document. Duplicate ids already waiting are ignored.
func (p *Processor) Enqueue(documentID string) {
	p.mu.Lock()
	if _, ok := p.queued[documentID]; ok {
		p.mu.Unlock()
		return
	}
	p.queued[documentID] = struct{}{}
	p.pending = append(p.pending, documentID)
	p.mu.Unlock()

	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// Pending returns the number of documents waiting to be processed.
func (p *Processor) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pending)
}

// Run requeues documents left processing by a previous run, then works the
// queue until ctx ends.
func (p *Processor) Run(ctx context.Context) error {
	p.recover(ctx)
	for {
		id, ok := p.next()
		if !ok {
			select {
			case <-ctx.Done():
				return nil
			case <-p.wake:
				continue
			}
		}
		p.process(ctx, id)
		if ctx.Err() != nil {
			return nil
		}
	}
}

func (p *Processor) recover(ctx context.Context) {
	docs, err := p.store.ProcessingDocuments(ctx)
	if err != nil {
		logging.WarnWithContext(p.logger, "failed to load unfinished documents", "processing_recovery_failed",
			logging.Error(err),
			logging.Hint("check the database file and restart studyhalld"),
			logging.Impact("documents uploaded before the restart stay processing"),
		)
		return
	}
	for _, doc := range docs {
		p.Enqueue(doc.ID)
	}
	if len(docs) > 0 {
		p.logger.Info("requeued unfinished documents",
			logging.Int("count", len(docs)),
			logging.EventType("processing_recovered"),
		)
	}
}

func (p *Processor) next() (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.pending) == 0 {
		return "", false
	}
	id := p.pending[0]
	p.pending = p.pending[1:]
	delete(p.queued, id)
	return id, true
}

func (p *Processor) process(ctx context.Context, documentID string) {
	ctx = services.WithDocumentID(ctx, documentID)
	logger := logging.WithContext(ctx, p.logger)

	raw, err := p.store.RawContent(ctx, documentID)
	if errors.Is(err, services.ErrNotFound) {
		logger.Debug("document deleted before processing")
		return
	}
	if err != nil {
		logging.WarnWithContext(logger, "failed to read document content", "processing_read_failed",
			logging.Error(err),
			logging.Hint("check the database file; the document is retried on restart"),
			logging.Impact("document stays processing"),
		)
		return
	}

	status := flashcards.StatusReady
	text, err := ExtractText(raw)
	if err != nil {
		status = flashcards.StatusFailed
		logging.WarnWithContext(logger, "document text extraction failed", "processing_failed",
			logging.Error(err),
			logging.Hint("upload a UTF-8 text or markdown file"),
			logging.Impact("document is marked failed and cannot be studied"),
		)
	}
	if err := p.store.CompleteProcessing(ctx, documentID, status, text); err != nil {
		if !errors.Is(err, services.ErrNotFound) {
			logging.ErrorWithContext(logger, "failed to record processing result", "processing_store_failed", logging.Error(err))
		}
		return
	}
	p.metrics.DocumentProcessed(string(status))
	logger.Info("document processed",
		logging.String("status", string(status)),
		logging.Int("characters", len([]rune(text))),
		logging.EventType("document_processed"),
	)

	if p.publisher == nil {
		return
	}
	owner, err := p.store.DocumentOwner(ctx, documentID)
	if err != nil {
		logger.Debug("document owner lookup failed", logging.Error(err))
		return
	}
	p.publisher.Publish(owner, flashcards.StatusEvent{DocumentID: documentID, Status: status})
}

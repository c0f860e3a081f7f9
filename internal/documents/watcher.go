package documents

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"studyhall/internal/flashcards"
	"studyhall/internal/logging"
)

// ErrMaxPolls reports that documents were still processing when the poll
// budget ran out.
var ErrMaxPolls = errors.New("documents still processing after maximum polls")

// Lister fetches the current document list.
type Lister interface {
	ListDocuments(ctx context.Context) ([]flashcards.Document, error)
}

// UpdateFunc receives every fetched or pushed document list.
type UpdateFunc func(docs []flashcards.Document)

// Watcher polls the document list while anything is processing.
type Watcher struct {
	lister   Lister
	interval time.Duration
	maxPolls int
	logger   *slog.Logger
}

// NewWatcher builds a polling watcher. A maxPolls of zero polls until nothing
// is processing.
func NewWatcher(lister Lister, interval time.Duration, maxPolls int, logger *slog.Logger) *Watcher {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Watcher{
		lister:   lister,
		interval: interval,
		maxPolls: maxPolls,
		logger:   logger.With(logging.String(logging.FieldComponent, "documents-watcher")),
	}
}

// Run fetches immediately and then on every tick until no document is
// processing, the poll budget is spent, or ctx ends. Fetch failures are
// logged and count as a poll; the last good list is kept.
func (w *Watcher) Run(ctx context.Context, update UpdateFunc) ([]flashcards.Document, error) {
	var (
		docs  []flashcards.Document
		polls int
	)
	poll := func() bool {
		polls++
		fresh, err := w.lister.ListDocuments(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return false
			}
			logging.WarnWithContext(w.logger, "document poll failed", "document_poll_failed",
				logging.Error(err),
				logging.Int("poll", polls),
				logging.Hint("check backend connectivity"),
				logging.Impact("status shown may be stale"),
			)
			return false
		}
		docs = fresh
		if update != nil {
			update(docs)
		}
		return !flashcards.AnyProcessing(docs)
	}

	if poll() {
		return docs, nil
	}
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		if w.maxPolls > 0 && polls >= w.maxPolls {
			return docs, ErrMaxPolls
		}
		select {
		case <-ctx.Done():
			return docs, ctx.Err()
		case <-ticker.C:
			if poll() {
				w.logger.Debug("document processing settled", logging.Int("polls", polls))
				return docs, nil
			}
		}
	}
}

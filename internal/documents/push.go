package documents

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"studyhall/internal/flashcards"
	"studyhall/internal/logging"
)

// EventSource describes how to reach the backend's status stream.
type EventSource interface {
	Lister
	EventsURL() (string, error)
	AuthHeader() http.Header
}

// PushWatcher consumes document status events over a websocket.
type PushWatcher struct {
	source   EventSource
	fallback *Watcher
	dialer   *websocket.Dialer
	logger   *slog.Logger
}

// NewPushWatcher wraps fallback with a websocket subscription.
func NewPushWatcher(source EventSource, fallback *Watcher, logger *slog.Logger) *PushWatcher {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &PushWatcher{
		source:   source,
		fallback: fallback,
		dialer:   websocket.DefaultDialer,
		logger:   logger.With(logging.String(logging.FieldComponent, "documents-push")),
	}
}

// Run fetches the list once, then applies pushed status events until nothing
// is processing. When the stream cannot be opened or closes early it hands
// over to the polling watcher.
func (p *PushWatcher) Run(ctx context.Context, update UpdateFunc) ([]flashcards.Document, error) {
	docs, err := p.source.ListDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	if update != nil {
		update(docs)
	}
	if !flashcards.AnyProcessing(docs) {
		return docs, nil
	}

	conn, err := p.dial(ctx)
	if err != nil {
		logging.WarnWithContext(p.logger, "status stream unavailable; polling instead", "document_push_unavailable",
			logging.Error(err),
			logging.Hint("check that the backend exposes /api/documents/events"),
			logging.Impact("status updates arrive on the poll interval"),
		)
		return p.fallback.Run(ctx, update)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	for {
		var event flashcards.StatusEvent
		if err := conn.ReadJSON(&event); err != nil {
			if ctx.Err() != nil {
				return docs, ctx.Err()
			}
			logging.WarnWithContext(p.logger, "status stream closed; polling instead", "document_push_dropped",
				logging.Error(err),
				logging.Impact("status updates arrive on the poll interval"),
			)
			return p.fallback.Run(ctx, update)
		}
		if !applyEvent(docs, event) {
			p.logger.Debug("status event for unknown document", logging.DocumentID(event.DocumentID))
			continue
		}
		if update != nil {
			update(docs)
		}
		if !flashcards.AnyProcessing(docs) {
			return docs, nil
		}
	}
}

func (p *PushWatcher) dial(ctx context.Context) (*websocket.Conn, error) {
	endpoint, err := p.source.EventsURL()
	if err != nil {
		return nil, err
	}
	conn, resp, err := p.dialer.DialContext(ctx, endpoint, p.source.AuthHeader())
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		if errors.Is(err, websocket.ErrBadHandshake) && resp != nil {
			return nil, fmt.Errorf("dial %s: handshake status %d", endpoint, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial %s: %w", endpoint, err)
	}
	return conn, nil
}

func applyEvent(docs []flashcards.Document, event flashcards.StatusEvent) bool {
	for i := range docs {
		if docs[i].ID == event.DocumentID {
			docs[i].Status = event.Status
			return true
		}
	}
	return false
}

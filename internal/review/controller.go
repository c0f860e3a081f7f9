package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"studyhall/internal/flashcards"
	"studyhall/internal/logging"
	"studyhall/internal/studyapi"
)

// ErrDeclined reports a delete the user did not confirm.
var ErrDeclined = errors.New("deletion not confirmed")

// API is the slice of the backend client a review session needs.
type API interface {
	ListFlashcards(ctx context.Context, documentID string) ([]flashcards.Set, error)
	ReviewCard(ctx context.Context, cardID string, index int) (flashcards.Set, error)
	ToggleStar(ctx context.Context, cardID string) (flashcards.Set, error)
	DeleteSet(ctx context.Context, setID string) error
}

// Cache persists the last known sets per document.
type Cache interface {
	Read(ctx context.Context, documentID string) ([]flashcards.Set, bool, error)
	Write(ctx context.Context, documentID string, sets []flashcards.Set) error
}

// Confirmer asks the user to approve a destructive action.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, prompt string) (bool, error)

// Confirm implements Confirmer.
func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) (bool, error) {
	return f(ctx, prompt)
}

// Confirmed approves without asking. Use it when the caller has already
// obtained confirmation through its own interface.
var Confirmed Confirmer = ConfirmFunc(func(context.Context, string) (bool, error) { return true, nil })

// Notice is a user-visible failure message.
type Notice struct {
	ID      int
	SetID   string
	CardID  string
	Message string
	Err     error
	At      time.Time
}

// Mutation names the kind of background change a Pending tracks.
type Mutation string

const (
	MutationStar   Mutation = "star"
	MutationReview Mutation = "review"
)

// Pending tracks one background mutation.
type Pending struct {
	CardID string
	Kind   Mutation

	done chan struct{}
	err  error
}

// Done is closed once the mutation has reconciled or rolled back.
func (p *Pending) Done() <-chan struct{} { return p.done }

// Wait blocks until the mutation resolves and returns its error.
func (p *Pending) Wait() error {
	<-p.done
	return p.err
}

// Err returns the result of a resolved mutation, or nil while it is in flight.
func (p *Pending) Err() error {
	select {
	case <-p.done:
		return p.err
	default:
		return nil
	}
}

// View is an immutable snapshot of controller state for rendering.
type View struct {
	DocumentID string
	Sets       []flashcards.Set
	State      State
	Set        flashcards.Set
	Card       flashcards.Card
	HasCard    bool
	Index      int
	Face       Face
	CardBusy   bool
	Pending    int
	Notices    []Notice
	Offline    bool
}

// Option customizes a Controller.
type Option func(*Controller)

// WithCache enables cache-then-network loading and write-through on every
// state change.
func WithCache(cache Cache) Option {
	return func(c *Controller) {
		c.cache = cache
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithClock overrides the time source used for optimistic review stamps.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
	}
}

// Controller runs a review session against the backend.
type Controller struct {
	api    API
	cache  Cache
	logger *slog.Logger
	now    func() time.Time

	mu         sync.Mutex
	session    *Session
	notices    []Notice
	nextNotice int
	offline    bool

	cacheMu sync.Mutex
	wg      sync.WaitGroup
}

// NewController builds a closed session for documentID.
func NewController(documentID string, api API, opts ...Option) *Controller {
	c := &Controller{
		api:     api,
		logger:  logging.NewNop(),
		now:     time.Now,
		session: NewSession(documentID, nil),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(
		logging.String(logging.FieldComponent, "review"),
		logging.DocumentID(documentID),
	)
	return c
}

// DocumentID returns the document under review.
func (c *Controller) DocumentID() string {
	return c.session.DocumentID()
}

// Load paints from the cache and then refreshes from the backend. It reports
// whether anything was painted from the cache; a refresh error is returned
// alongside and recorded as a notice.
func (c *Controller) Load(ctx context.Context) (bool, error) {
	cached := c.LoadCached(ctx)
	return cached, c.Refresh(ctx)
}

// LoadCached installs cached sets, if any.
func (c *Controller) LoadCached(ctx context.Context) bool {
	if c.cache == nil {
		return false
	}
	sets, ok, err := c.cache.Read(ctx, c.DocumentID())
	if err != nil {
		logging.WarnWithContext(c.logger, "flashcard cache read failed", "cache_read_failed",
			logging.Error(err),
			logging.Hint("run 'studyhall cache clear' if this persists"),
			logging.Impact("sets load from the backend only"),
		)
		return false
	}
	if !ok {
		return false
	}
	c.mu.Lock()
	c.session.ReplaceSets(sets)
	c.offline = true
	c.mu.Unlock()
	c.logger.Debug("painted flashcards from cache", logging.Int("sets", len(sets)))
	return true
}

// Refresh fetches the sets from the backend, replaces local state, and writes
// the cache. On failure the current state is kept.
func (c *Controller) Refresh(ctx context.Context) error {
	sets, err := c.api.ListFlashcards(ctx, c.DocumentID())
	if err != nil {
		c.mu.Lock()
		c.addNoticeLocked("", "", "Failed to load flashcards", err)
		c.mu.Unlock()
		return err
	}
	c.mu.Lock()
	c.session.ReplaceSets(sets)
	c.offline = false
	c.mu.Unlock()
	c.persist(ctx)
	c.logger.Debug("refreshed flashcards", logging.Int("sets", len(sets)))
	return nil
}

// Open shows a loaded set from its first card.
func (c *Controller) Open(setID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.session.OpenByID(setID); err != nil {
		return err
	}
	c.notices = nil
	return nil
}

// OpenSet shows set, adding it to the collection when it is new.
func (c *Controller) OpenSet(set flashcards.Set) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session.Open(set)
	c.notices = nil
}

// Close returns to the set list.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session.Close()
}

// Next advances one card.
func (c *Controller) Next() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.Next()
}

// Previous moves back one card.
func (c *Controller) Previous() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.Previous()
}

// Flip toggles the visible face. Revealing an answer records a review of the
// current card; the returned Pending is nil when no review was started. A
// busy card stays question side up and ErrCardBusy is returned.
func (c *Controller) Flip() (*Pending, error) {
	c.mu.Lock()
	if current, ok := c.session.Current(); ok && c.session.Face() == FaceQuestion && c.session.Busy(current.ID) {
		c.mu.Unlock()
		return nil, ErrCardBusy
	}
	card, index, reveal := c.session.Flip()
	if !reveal {
		c.mu.Unlock()
		return nil, nil
	}
	snapshot, _, err := c.session.ApplyReview(card.ID, c.now().UTC())
	c.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return c.launch(MutationReview, card.ID, snapshot, func(ctx context.Context) (flashcards.Set, error) {
		return c.api.ReviewCard(ctx, card.ID, index)
	}), nil
}

// Review records a review of cardID without touching the viewer position.
func (c *Controller) Review(cardID string) (*Pending, error) {
	c.mu.Lock()
	snapshot, index, err := c.session.ApplyReview(cardID, c.now().UTC())
	c.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return c.launch(MutationReview, cardID, snapshot, func(ctx context.Context) (flashcards.Set, error) {
		return c.api.ReviewCard(ctx, cardID, index)
	}), nil
}

// ToggleStar flips the starred flag of cardID.
func (c *Controller) ToggleStar(cardID string) (*Pending, error) {
	c.mu.Lock()
	snapshot, err := c.session.ApplyStar(cardID)
	c.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return c.launch(MutationStar, cardID, snapshot, func(ctx context.Context) (flashcards.Set, error) {
		return c.api.ToggleStar(ctx, cardID)
	}), nil
}

// ToggleCurrentStar flips the starred flag of the card on screen.
func (c *Controller) ToggleCurrentStar() (*Pending, error) {
	c.mu.Lock()
	card, ok := c.session.Current()
	c.mu.Unlock()
	if !ok {
		return nil, ErrCardNotFound
	}
	return c.ToggleStar(card.ID)
}

// DeleteSet asks confirm and, once approved, deletes the set on the backend.
// Local state changes only after the backend confirms. A declined prompt
// returns ErrDeclined and leaves everything untouched.
func (c *Controller) DeleteSet(ctx context.Context, setID string, confirm Confirmer) error {
	c.mu.Lock()
	idx := flashcards.FindSet(c.session.sets, setID)
	var title string
	if idx >= 0 {
		title = c.session.sets[idx].DisplayTitle()
	}
	c.mu.Unlock()
	if idx < 0 {
		return ErrSetNotFound
	}
	if confirm == nil {
		return fmt.Errorf("delete %s: no confirmer", setID)
	}
	ok, err := confirm.Confirm(ctx, fmt.Sprintf("Delete %q? This cannot be undone.", title))
	if err != nil {
		return err
	}
	if !ok {
		return ErrDeclined
	}
	if err := c.api.DeleteSet(ctx, setID); err != nil {
		c.mu.Lock()
		c.addNoticeLocked(setID, "", "Failed to delete flashcard set", err)
		c.mu.Unlock()
		return err
	}
	c.mu.Lock()
	c.session.RemoveSet(setID)
	c.mu.Unlock()
	c.persist(ctx)
	c.logger.Info("flashcard set deleted",
		logging.SetID(setID),
		logging.EventType("set_deleted"),
	)
	return nil
}

// Notices returns the recorded failure messages, oldest first.
func (c *Controller) Notices() []Notice {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Notice(nil), c.notices...)
}

// DismissNotice removes one notice.
func (c *Controller) DismissNotice(id int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, n := range c.notices {
		if n.ID == id {
			c.notices = append(c.notices[:i], c.notices[i+1:]...)
			return
		}
	}
}

// Snapshot returns the current state for rendering.
func (c *Controller) Snapshot() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	view := View{
		DocumentID: c.session.DocumentID(),
		Sets:       c.session.Sets(),
		State:      c.session.State(),
		Index:      c.session.Index(),
		Face:       c.session.Face(),
		Pending:    c.session.PendingCount(),
		Notices:    append([]Notice(nil), c.notices...),
		Offline:    c.offline,
	}
	if set, ok := c.session.OpenSet(); ok {
		view.Set = set
	}
	if card, ok := c.session.Current(); ok {
		view.Card = card
		view.HasCard = true
		view.CardBusy = c.session.Busy(card.ID)
	}
	return view
}

// Wait blocks until every background mutation has resolved.
func (c *Controller) Wait() {
	c.wg.Wait()
}

func (c *Controller) launch(kind Mutation, cardID string, snapshot flashcards.Card, call func(context.Context) (flashcards.Set, error)) *Pending {
	pending := &Pending{CardID: cardID, Kind: kind, done: make(chan struct{})}
	c.persist(context.Background())
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer close(pending.done)
		set, err := call(context.Background())
		pending.err = err
		c.settle(kind, cardID, snapshot, set, err)
	}()
	return pending
}

func (c *Controller) settle(kind Mutation, cardID string, snapshot flashcards.Card, set flashcards.Set, err error) {
	c.mu.Lock()
	if err != nil {
		c.session.Rollback(cardID, snapshot)
		action := "Failed to update star"
		if kind == MutationReview {
			action = "Failed to record review"
		}
		c.addNoticeLocked(c.session.SetOf(cardID), cardID, action, err)
	} else {
		c.session.Reconcile(cardID, set)
	}
	c.mu.Unlock()
	c.persist(context.Background())
	if err == nil {
		c.logger.Debug("card mutation confirmed",
			logging.CardID(cardID),
			logging.String("mutation", string(kind)),
		)
	}
}

func (c *Controller) addNoticeLocked(setID, cardID, action string, err error) {
	c.nextNotice++
	c.notices = append(c.notices, Notice{
		ID:      c.nextNotice,
		SetID:   setID,
		CardID:  cardID,
		Message: fmt.Sprintf("%s: %s", action, studyapi.Message(err)),
		Err:     err,
		At:      c.now(),
	})
	logging.WarnWithContext(c.logger, action, "review_mutation_failed",
		logging.CardID(cardID),
		logging.SetID(setID),
		logging.Error(err),
		logging.Hint("check backend connectivity and credentials"),
		logging.Impact("local change reverted"),
	)
}

// persist writes the current sets to the cache. Writes are serialized and
// each takes its snapshot inside the serialization, so the cache never moves
// back to an older state.
func (c *Controller) persist(ctx context.Context) {
	if c.cache == nil {
		return
	}
	c.cacheMu.Lock()
	defer c.cacheMu.Unlock()
	c.mu.Lock()
	sets := c.session.Sets()
	c.mu.Unlock()
	if err := c.cache.Write(ctx, c.DocumentID(), sets); err != nil {
		logging.WarnWithContext(c.logger, "flashcard cache write failed", "cache_write_failed",
			logging.Error(err),
			logging.Hint("check cache.path permissions"),
			logging.Impact("next launch may paint stale sets"),
		)
	}
}

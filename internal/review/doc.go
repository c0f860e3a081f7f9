// Package review drives flashcard review sessions.
//
// Session is a pure state machine over one document's flashcard sets: which
// set is open, the current card, the visible face, and which cards have a
// mutation in flight. It performs no I/O, so every transition is testable
// without a backend.
//
// Controller wraps a Session with the backend API and the local cache. It
// paints from the cache, refreshes from the backend, and runs star and review
// mutations optimistically: the change is applied and cached immediately, the
// request runs in the background, and the result either reconciles the card
// with the server's copy or rolls that card alone back to its snapshot and
// records a Notice. Deleting a set is confirm-then-apply and never optimistic.
//
// A card with a mutation in flight is busy; further mutations on it fail with
// ErrCardBusy until the first resolves. Mutations on different cards proceed
// independently.
package review

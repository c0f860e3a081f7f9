// Package tui renders an interactive review session in the terminal.
//
// The bubbletea Model drives a review.Controller: a list view of the
// document's flashcard sets and a card view that flips, steps, stars, and
// deletes. Backend mutations complete in the background and arrive as
// messages, so the screen always shows the optimistic state first.
package tui

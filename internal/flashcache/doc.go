// Package flashcache mirrors the last known flashcard sets per document in a
// local SQLite file so review sessions can paint before the network answers.
//
// The cache is advisory. Entries carry the shape version they were written
// with; entries from another version, and entries whose payload no longer
// decodes, read as absent so callers fall through to the backend and overwrite
// them. Absence is never an error.
package flashcache

// Package store persists the development backend's documents, flashcard sets,
// and chat history in SQLite.
//
// Every query is scoped to an owner, the authenticated subject of the
// request, so one database serves several users without leaking rows across
// them. Public identifiers are nanoids. Missing rows surface as
// services.ErrNotFound and bad input as services.ErrValidation so handlers can
// map them to HTTP statuses without inspecting SQL errors.
package store

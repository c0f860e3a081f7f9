// Package flashcards defines the study domain shared by the API client, the
// local cache, the review session, and the development backend: flashcard
// sets, cards, documents, and the small read models served alongside them.
//
// Wire normalization lives here. Cards decode every historical spelling of the
// starred flag and both identifier keys, and always encode the canonical form,
// so the rest of the module only ever sees Card.Starred and Card.ID.
package flashcards

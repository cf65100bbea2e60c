package search

import "errors"

var (
	// ErrNotFound is returned by an index when it attempts to mutate
	// a document that does not exist.
	ErrNotFound = errors.New("not found")

	// ErrMissingArticleID is returned when an index attempts to store a
	// document with an invalid / missing article ID.
	ErrMissingArticleID = errors.New("document has missing / invalid article id")

	// ErrBrokenRelation is returned by the document projector when one of
	// the article's relations contains an unreadable entry. Projection
	// fails as a whole rather than producing a partial document.
	ErrBrokenRelation = errors.New("article relation contains an unreadable entry")
)

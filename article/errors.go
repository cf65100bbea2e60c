package article

import "errors"

var (
	// ErrNotFound is returned by a store when it attempts to look up
	// an article that does not exist.
	ErrNotFound = errors.New("not found")

	// ErrMissingID is returned when a store attempts to persist an
	// article with an invalid / missing ID.
	ErrMissingID = errors.New("article has missing / invalid id")
)

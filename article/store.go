package article

import "github.com/google/uuid"

// Store should be implemented by objects that can persist and look up
// articles together with their relations. The search core only depends on
// lookups: the indexer re-fetches an article by ID at job-execution time
// so that it always projects the latest persisted state.
type Store interface {
	// Upsert creates a new article or fully replaces an existing one,
	// including its authors, categories and comments.
	Upsert(a *Article) error

	// Find looks up an article by its ID with all relations populated.
	Find(id uuid.UUID) (*Article, error)

	// Delete removes an article and its relations.
	Delete(id uuid.UUID) error
}

package search

import (
	"context"

	"github.com/google/uuid"
)

// Index should be implemented by objects that can index, delete and search
// article documents.
type Index interface {
	// Index adds a new document or fully replaces an existing index
	// entry for the same article ID.
	Index(id uuid.UUID, doc *Document) error

	// Delete removes the document for the given article ID. Deleting a
	// document that is already gone is a no-op: jobs can be delivered
	// more than once and deletes must stay idempotent.
	Delete(id uuid.UUID) error

	// Search builds the request for q and opts, submits it to the engine
	// and returns the engine response unmodified. Engine errors propagate
	// to the caller, no partial results are fabricated.
	Search(ctx context.Context, q string, opts Options) (*Response, error)
}

package memory

import (
	"testing"

	"github.com/google/uuid"
	check "gopkg.in/check.v1"

	"github.com/miguelff/articlesearch/article"
	"github.com/miguelff/articlesearch/article/store/storetest"
)

// Initialize and register an instance of the inMemoryStoreTestSuite to be
// executed by the check testing package.
var _ = check.Suite(new(inMemoryStoreTestSuite))

// Test registers the [check] library with the go testing library and enables
// the running of the test suite using the go testing library.
func Test(t *testing.T) {
	check.TestingT(t)
}

// inMemoryStoreTestSuite embeds and runs the BaseSuite test methods against
// an in-memory store.
type inMemoryStoreTestSuite struct {
	storetest.BaseSuite
}

// SetUpTest runs before each test and provides it with a fresh store.
func (s *inMemoryStoreTestSuite) SetUpTest(c *check.C) {
	s.SetStore(NewInMemoryStore())
}

// TestStoredArticlesAreIsolatedFromCallers verifies that mutating an
// article after upserting it does not leak into the stored copy.
func (s *inMemoryStoreTestSuite) TestStoredArticlesAreIsolatedFromCallers(c *check.C) {
	store := NewInMemoryStore()

	a := &article.Article{
		ID:    uuid.New(),
		Title: "Quantum gravity primer",
		Categories: []*article.Category{
			{ID: uuid.New(), Title: "physics"},
		},
	}
	c.Assert(store.Upsert(a), check.IsNil)

	a.Title = "mutated"
	a.Categories[0].Title = "mutated"

	found, err := store.Find(a.ID)
	c.Assert(err, check.IsNil)
	c.Assert(found.Title, check.Equals, "Quantum gravity primer")
	c.Assert(found.Categories[0].Title, check.Equals, "physics")
}

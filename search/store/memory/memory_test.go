package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	check "gopkg.in/check.v1"

	"github.com/miguelff/articlesearch/search"
	"github.com/miguelff/articlesearch/search/searchtest"
)

// Initialize and register an instance of the inMemoryIndexTestSuite to be
// executed by the check testing package.
var _ = check.Suite(new(inMemoryIndexTestSuite))

// Test registers the [check] library with the go testing library and enables
// the running of the test suite using the go testing library.
func Test(t *testing.T) {
	check.TestingT(t)
}

// inMemoryIndexTestSuite embeds and runs the BaseSuite test methods against
// a bleve-backed in-memory index.
type inMemoryIndexTestSuite struct {
	idx *InMemoryIndex
	searchtest.BaseSuite
}

// SetUpTest runs before each test and provides it with a fresh index.
func (s *inMemoryIndexTestSuite) SetUpTest(c *check.C) {
	idx, err := NewInMemoryIndex()
	c.Assert(err, check.IsNil)

	s.SetIndex(idx)
	s.idx = idx
}

// TearDownTest releases the index created for the test.
func (s *inMemoryIndexTestSuite) TearDownTest(c *check.C) {
	if s.idx != nil {
		c.Assert(s.idx.Close(), check.IsNil)
	}
}

// TestSortOptionOrdersByField verifies that a sort selection overrides the
// default relevance ordering.
func (s *inMemoryIndexTestSuite) TestSortOptionOrdersByField(c *check.C) {
	olderID, newerID := uuid.New(), uuid.New()

	older := &search.Document{
		Title:       "Zebras of the savanna",
		PublishedOn: time.Date(2018, 2, 1, 0, 0, 0, 0, time.UTC),
	}
	c.Assert(s.idx.Index(olderID, older), check.IsNil)

	newer := &search.Document{
		Title:       "Aardvarks of the savanna",
		PublishedOn: time.Date(2022, 9, 1, 0, 0, 0, 0, time.UTC),
	}
	c.Assert(s.idx.Index(newerID, newer), check.IsNil)

	res, err := s.idx.Search(
		context.TODO(), "savanna", search.Options{Sort: "published_on"},
	)
	c.Assert(err, check.IsNil)
	c.Assert(len(res.Hits.Hits), check.Equals, 2)
	c.Assert(res.Hits.Hits[0].ID, check.Equals, newerID.String())
	c.Assert(res.Hits.Hits[1].ID, check.Equals, olderID.String())
}

// TestSearchHighlightsMatches verifies that matched fields carry highlight
// fragments keyed by their schema names.
func (s *inMemoryIndexTestSuite) TestSearchHighlightsMatches(c *check.C) {
	doc := &search.Document{
		Title:   "Quantum gravity primer",
		Content: "Loop quantum gravity and string theory compared",
	}
	c.Assert(s.idx.Index(uuid.New(), doc), check.IsNil)

	res, err := s.idx.Search(context.TODO(), "quantum", search.Options{})
	c.Assert(err, check.IsNil)
	c.Assert(len(res.Hits.Hits), check.Equals, 1)

	highlight := res.Hits.Hits[0].Highlight
	c.Assert(len(highlight["title"]) > 0, check.Equals, true)
	c.Assert(len(highlight["content"]) > 0, check.Equals, true)
}

// Package searchtest defines a set of re-usable tests that can be executed
// against any concrete type that implements the search.Index interface.
package searchtest

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	check "gopkg.in/check.v1"

	"github.com/miguelff/articlesearch/search"
)

// BaseSuite defines re-usable index related tests shared by every
// search.Index implementation.
type BaseSuite struct {
	idx search.Index
}

// SetIndex sets BaseSuite's index field.
func (s *BaseSuite) SetIndex(index search.Index) {
	s.idx = index
}

// TestIndexingDocument verifies the indexing logic for new and existing
// documents.
func (s *BaseSuite) TestIndexingDocument(c *check.C) {
	id := uuid.New()
	doc := physicsDoc()

	err := s.idx.Index(id, doc)
	c.Assert(err, check.IsNil, check.Commentf("++++Index insert++++: %v", err))

	// Replace the existing document and verify the update took effect.
	updatedDoc := physicsDoc()
	updatedDoc.Title = "Quantum gravity, revisited"

	err = s.idx.Index(id, updatedDoc)
	c.Assert(err, check.IsNil, check.Commentf("++++Index update++++: %v", err))

	res, err := s.idx.Search(context.TODO(), "quantum", search.Options{})
	c.Assert(err, check.IsNil)
	c.Assert(res.Hits.Total.Count, check.Equals, uint64(1))
	c.Assert(res.Hits.Hits[0].ID, check.Equals, id.String())
	c.Assert(res.Hits.Hits[0].Source, check.DeepEquals, *updatedDoc)

	// Index a document without an ID.
	err = s.idx.Index(uuid.Nil, physicsDoc())
	c.Assert(errors.Is(err, search.ErrMissingArticleID), check.Equals, true)
}

// TestBlankQueryBrowsesByRecency verifies that a blank query matches every
// document and orders the results newest first.
func (s *BaseSuite) TestBlankQueryBrowsesByRecency(c *check.C) {
	oldID, newID := uuid.New(), uuid.New()

	older := physicsDoc()
	older.PublishedOn = time.Date(2019, 3, 4, 0, 0, 0, 0, time.UTC)
	c.Assert(s.idx.Index(oldID, older), check.IsNil)

	newer := gardeningDoc()
	newer.PublishedOn = time.Date(2021, 7, 8, 0, 0, 0, 0, time.UTC)
	c.Assert(s.idx.Index(newID, newer), check.IsNil)

	res, err := s.idx.Search(context.TODO(), "", search.Options{})
	c.Assert(err, check.IsNil)
	c.Assert(res.Hits.Total.Count, check.Equals, uint64(2))
	c.Assert(res.Hits.Hits[0].ID, check.Equals, newID.String())
	c.Assert(res.Hits.Hits[1].ID, check.Equals, oldID.String())
}

// TestCategorySelectionNarrowsHits verifies that an active category
// selection restricts the hit list to exact category matches.
func (s *BaseSuite) TestCategorySelectionNarrowsHits(c *check.C) {
	physicsID := uuid.New()
	c.Assert(s.idx.Index(physicsID, physicsDoc()), check.IsNil)
	c.Assert(s.idx.Index(uuid.New(), gardeningDoc()), check.IsNil)

	res, err := s.idx.Search(
		context.TODO(), "", search.Options{Category: "physics"},
	)
	c.Assert(err, check.IsNil)
	c.Assert(len(res.Hits.Hits), check.Equals, 1)
	c.Assert(res.Hits.Hits[0].ID, check.Equals, physicsID.String())
}

// TestCategoryFacetCounts verifies that the categories facet reports a
// bucket per indexed category title.
func (s *BaseSuite) TestCategoryFacetCounts(c *check.C) {
	c.Assert(s.idx.Index(uuid.New(), physicsDoc()), check.IsNil)
	c.Assert(s.idx.Index(uuid.New(), gardeningDoc()), check.IsNil)

	res, err := s.idx.Search(context.TODO(), "", search.Options{})
	c.Assert(err, check.IsNil)

	buckets, err := res.FacetBuckets("categories")
	c.Assert(err, check.IsNil)

	counts := make(map[string]uint64, len(buckets))
	for _, bucket := range buckets {
		key, isString := bucket.Key.(string)
		c.Assert(isString, check.Equals, true)
		counts[key] = bucket.DocCount
	}

	c.Assert(counts["physics"], check.Equals, uint64(1))
	c.Assert(counts["gardening"], check.Equals, uint64(1))
}

// TestDeletingDocumentIsIdempotent verifies that deleting a document twice
// (simulating duplicate job delivery) does not fail and leaves the index in
// the same deleted state.
func (s *BaseSuite) TestDeletingDocumentIsIdempotent(c *check.C) {
	id := uuid.New()
	c.Assert(s.idx.Index(id, physicsDoc()), check.IsNil)

	c.Assert(s.idx.Delete(id), check.IsNil)
	c.Assert(s.idx.Delete(id), check.IsNil)

	res, err := s.idx.Search(context.TODO(), "quantum", search.Options{})
	c.Assert(err, check.IsNil)
	c.Assert(res.Hits.Total.Count, check.Equals, uint64(0))

	// Deleting a document without an ID must still be rejected.
	err = s.idx.Delete(uuid.Nil)
	c.Assert(errors.Is(err, search.ErrMissingArticleID), check.Equals, true)
}

func physicsDoc() *search.Document {
	return &search.Document{
		Title:       "Quantum gravity primer",
		Abstract:    "An introduction to quantum gravity",
		Content:     "Loop quantum gravity and string theory compared at length",
		PublishedOn: time.Date(2020, 1, 15, 0, 0, 0, 0, time.UTC),
		Authors:     []search.DocumentAuthor{{FullName: "Ada Lovelace"}},
		Categories:  []string{"physics"},
		Comments: []search.DocumentComment{
			{
				Body:         "Wonderfully clear",
				Stars:        5,
				Pick:         true,
				User:         "carl",
				UserLocation: "Ithaca",
			},
		},
	}
}

func gardeningDoc() *search.Document {
	return &search.Document{
		Title:       "Gardening at night",
		Abstract:    "Growing vegetables after sunset",
		Content:     "Tomatoes and runner beans do surprisingly well in the dark",
		PublishedOn: time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC),
		Authors:     []search.DocumentAuthor{{FullName: "Gertrude Jekyll"}},
		Categories:  []string{"gardening"},
		Comments: []search.DocumentComment{
			{
				Body:         "My beans disagree",
				Stars:        2,
				Pick:         false,
				User:         "fred",
				UserLocation: "Leeds",
			},
		},
	}
}

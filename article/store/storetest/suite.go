// Package storetest defines a set of re-usable tests that can be executed
// against any concrete type that implements the article.Store interface.
package storetest

import (
	"errors"
	"time"

	"github.com/google/uuid"
	check "gopkg.in/check.v1"

	"github.com/miguelff/articlesearch/article"
)

// BaseSuite defines re-usable store related tests shared by every
// article.Store implementation.
type BaseSuite struct {
	store article.Store
}

// SetStore sets BaseSuite's store field.
func (s *BaseSuite) SetStore(store article.Store) {
	s.store = store
}

// TestUpsertAssignsIDToNewArticles verifies that persisting an article
// without an ID assigns one.
func (s *BaseSuite) TestUpsertAssignsIDToNewArticles(c *check.C) {
	a := makeArticle()
	a.ID = uuid.Nil

	c.Assert(s.store.Upsert(a), check.IsNil)
	c.Assert(a.ID, check.Not(check.Equals), uuid.Nil)
}

// TestUpsertAndFindArticle verifies the persistence round trip, including
// relation ordering.
func (s *BaseSuite) TestUpsertAndFindArticle(c *check.C) {
	a := makeArticle()
	c.Assert(s.store.Upsert(a), check.IsNil)

	found, err := s.store.Find(a.ID)
	c.Assert(err, check.IsNil)

	// Compare the publication date semantically before aligning the
	// representations: drivers may decode it into a different location.
	c.Assert(found.PublishedOn.Equal(a.PublishedOn), check.Equals, true)
	found.PublishedOn = a.PublishedOn
	c.Assert(found, check.DeepEquals, a)
}

// TestUpsertReplacesRelations verifies that a second upsert fully replaces
// the article's relations instead of accumulating them.
func (s *BaseSuite) TestUpsertReplacesRelations(c *check.C) {
	a := makeArticle()
	c.Assert(s.store.Upsert(a), check.IsNil)

	a.Title = "Quantum gravity, revisited"
	a.Categories = a.Categories[:1]
	a.Comments = nil
	c.Assert(s.store.Upsert(a), check.IsNil)

	found, err := s.store.Find(a.ID)
	c.Assert(err, check.IsNil)
	c.Assert(found.Title, check.Equals, "Quantum gravity, revisited")
	c.Assert(len(found.Categories), check.Equals, 1)
	c.Assert(len(found.Comments), check.Equals, 0)
}

// TestFindMissingArticle verifies the not-found behavior.
func (s *BaseSuite) TestFindMissingArticle(c *check.C) {
	_, err := s.store.Find(uuid.New())
	c.Assert(errors.Is(err, article.ErrNotFound), check.Equals, true)
}

// TestDeleteArticle verifies deletion and its reporting for repeated
// attempts.
func (s *BaseSuite) TestDeleteArticle(c *check.C) {
	a := makeArticle()
	c.Assert(s.store.Upsert(a), check.IsNil)

	c.Assert(s.store.Delete(a.ID), check.IsNil)

	_, err := s.store.Find(a.ID)
	c.Assert(errors.Is(err, article.ErrNotFound), check.Equals, true)

	err = s.store.Delete(a.ID)
	c.Assert(errors.Is(err, article.ErrNotFound), check.Equals, true)
}

func makeArticle() *article.Article {
	return &article.Article{
		ID:          uuid.New(),
		Title:       "Quantum gravity primer",
		Abstract:    "An introduction to quantum gravity",
		Content:     "Loop quantum gravity and string theory compared at length",
		PublishedOn: time.Date(2020, 1, 15, 0, 0, 0, 0, time.UTC),
		Categories: []*article.Category{
			{ID: uuid.New(), Title: "physics"},
			{ID: uuid.New(), Title: "cosmology"},
		},
		Authors: []*article.Author{
			{ID: uuid.New(), FirstName: "Ada", LastName: "Lovelace"},
			{ID: uuid.New(), FirstName: "Charles", LastName: "Babbage"},
		},
		Comments: []*article.Comment{
			{
				ID:           uuid.New(),
				Body:         "Wonderfully clear",
				Stars:        5,
				Pick:         true,
				User:         "carl",
				UserLocation: "Ithaca",
			},
		},
	}
}

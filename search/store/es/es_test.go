package es

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	check "gopkg.in/check.v1"

	"github.com/miguelff/articlesearch/search"
	"github.com/miguelff/articlesearch/search/searchtest"
)

// Initialize and register an instance of the esIndexTestSuite to be
// executed by the check testing package.
var _ = check.Suite(new(esIndexTestSuite))

// Test registers the [check] library with the go testing library and enables
// the running of the test suite using the go testing library.
func Test(t *testing.T) {
	check.TestingT(t)
}

// esIndexTestSuite embeds and runs the BaseSuite test methods against an
// elasticsearch-backed index.
type esIndexTestSuite struct {
	idx *ArticleIndex
	searchtest.BaseSuite
}

// SetUpSuite runs only once before all tests in the test suite. it's
// responsible for setting up required resources necessary for
// running the entire suite.
func (s *esIndexTestSuite) SetUpSuite(c *check.C) {
	nodeList := os.Getenv("ES_NODES")
	if nodeList == "" {
		c.Skip("Missing ES_NODES envvar: skipping elasticsearch index test suite")
	}

	idx, err := NewArticleIndex(strings.Split(nodeList, ","), true)
	if err != nil {
		c.Fatal(err)
	}

	s.SetIndex(idx)
	s.idx = idx
}

// SetUpTest runs before each test in the test suite. it's responsible for
// resetting the articles index.
func (s *esIndexTestSuite) SetUpTest(c *check.C) {
	if s.idx != nil {
		_, err := s.idx.client.Indices.Delete([]string{indexName})
		c.Assert(err, check.IsNil)

		err = initIndex(s.idx.client)
		c.Assert(err, check.IsNil)
	}
}

// TearDownSuite runs only once after all tests in the test suite. it's
// responsible for releasing all resources that were used to run the suite.
func (s *esIndexTestSuite) TearDownSuite(c *check.C) {
	if s.idx != nil {
		_, err := s.idx.client.Indices.Delete([]string{indexName})
		c.Assert(err, check.IsNil)
	}
}

// TestCrossFilteredFacets verifies the facet independence rule against a
// live engine: selecting a category keeps the full category counts but
// narrows the author counts.
func (s *esIndexTestSuite) TestCrossFilteredFacets(c *check.C) {
	c.Assert(s.idx.Index(uuid.New(), &search.Document{
		Title:       "Quantum gravity primer",
		Content:     "Loop quantum gravity compared",
		PublishedOn: time.Date(2020, 1, 15, 0, 0, 0, 0, time.UTC),
		Authors:     []search.DocumentAuthor{{FullName: "Ada Lovelace"}},
		Categories:  []string{"physics"},
	}), check.IsNil)

	c.Assert(s.idx.Index(uuid.New(), &search.Document{
		Title:       "Gardening at night",
		Content:     "Tomatoes in the dark",
		PublishedOn: time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC),
		Authors:     []search.DocumentAuthor{{FullName: "Gertrude Jekyll"}},
		Categories:  []string{"gardening"},
	}), check.IsNil)

	res, err := s.idx.Search(
		context.TODO(), "", search.Options{Category: "physics"},
	)
	c.Assert(err, check.IsNil)

	// The category selection must not suppress other category buckets.
	categoryBuckets, err := res.FacetBuckets("categories")
	c.Assert(err, check.IsNil)
	c.Assert(len(categoryBuckets), check.Equals, 2)

	// The same selection narrows the author buckets.
	authorBuckets, err := res.FacetBuckets("authors")
	c.Assert(err, check.IsNil)
	c.Assert(len(authorBuckets), check.Equals, 1)
	c.Assert(authorBuckets[0].Key, check.Equals, "Ada Lovelace")
}

// TestSuggestionsForMisspelledQuery verifies that a non-blank query carries
// spelling suggestions for both suggesters.
func (s *esIndexTestSuite) TestSuggestionsForMisspelledQuery(c *check.C) {
	c.Assert(s.idx.Index(uuid.New(), &search.Document{
		Title:   "Quantum gravity primer",
		Content: "Loop quantum gravity compared",
	}), check.IsNil)

	res, err := s.idx.Search(context.TODO(), "quantun", search.Options{})
	c.Assert(err, check.IsNil)

	_, hasTitleSuggest := res.Suggest["suggest_title"]
	c.Assert(hasTitleSuggest, check.Equals, true)

	_, hasBodySuggest := res.Suggest["suggest_body"]
	c.Assert(hasBodySuggest, check.Equals, true)
}

package search

import (
	"net/url"

	check "gopkg.in/check.v1"
)

// Initialize and register an instance of the queryBuilderTestSuite to be
// executed by the check testing package.
var _ = check.Suite(new(queryBuilderTestSuite))

type queryBuilderTestSuite struct{}

func (s *queryBuilderTestSuite) TestBlankQueryMatchesAllAndBrowsesByRecency(c *check.C) {
	req := Build("  ", Options{})

	c.Assert(req["query"], check.DeepEquals, map[string]interface{}{
		"match_all": map[string]interface{}{},
	})
	c.Assert(req["sort"], check.DeepEquals, []interface{}{
		map[string]interface{}{"published_on": "desc"},
	})

	_, hasSuggest := req["suggest"]
	c.Assert(hasSuggest, check.Equals, false)

	_, hasTrackScores := req["track_scores"]
	c.Assert(hasTrackScores, check.Equals, false)

	_, hasPostFilter := req["post_filter"]
	c.Assert(hasPostFilter, check.Equals, false)
}

func (s *queryBuilderTestSuite) TestRelevanceClauseBoostsAndRequiresAllTerms(c *check.C) {
	req := Build("quantum gravity", Options{})

	c.Assert(req["query"], check.DeepEquals, map[string]interface{}{
		"bool": map[string]interface{}{
			"should": []interface{}{
				map[string]interface{}{
					"multi_match": map[string]interface{}{
						"query":    "quantum gravity",
						"operator": "and",
						"fields":   []string{"title^10", "abstract^2", "content"},
					},
				},
			},
		},
	})

	// Relevance ordering stays in effect: no explicit sort clause.
	_, hasSort := req["sort"]
	c.Assert(hasSort, check.Equals, false)
}

func (s *queryBuilderTestSuite) TestCategorySelectionCrossFiltersFacets(c *check.C) {
	req := Build("quantum", Options{Category: "physics"})
	aggs := req["aggregations"].(map[string]interface{})

	categoryTerm := map[string]interface{}{
		"term": map[string]interface{}{"categories": "physics"},
	}
	unfiltered := map[string]interface{}{
		"match_all": map[string]interface{}{},
	}

	// The category facet never consults its own selection.
	c.Assert(facetFilter(aggs, "categories"), check.DeepEquals, unfiltered)

	// The author and date facets narrow by the category selection.
	c.Assert(facetFilter(aggs, "authors"), check.DeepEquals, categoryTerm)
	c.Assert(facetFilter(aggs, "published"), check.DeepEquals, categoryTerm)
}

func (s *queryBuilderTestSuite) TestAuthorSelectionCrossFiltersFacets(c *check.C) {
	req := Build("quantum", Options{Author: "Ada Lovelace"})
	aggs := req["aggregations"].(map[string]interface{})

	authorTerm := map[string]interface{}{
		"term": map[string]interface{}{"authors.full_name.raw": "Ada Lovelace"},
	}
	unfiltered := map[string]interface{}{
		"match_all": map[string]interface{}{},
	}

	c.Assert(facetFilter(aggs, "categories"), check.DeepEquals, authorTerm)
	c.Assert(facetFilter(aggs, "authors"), check.DeepEquals, unfiltered)
	c.Assert(facetFilter(aggs, "published"), check.DeepEquals, unfiltered)
}

// Each facet only ever consults one of the two selections, even when both
// are active. The asymmetry is long-standing documented behavior.
func (s *queryBuilderTestSuite) TestFacetFiltersAreNotCombined(c *check.C) {
	req := Build("quantum", Options{Author: "Ada Lovelace", Category: "physics"})
	aggs := req["aggregations"].(map[string]interface{})

	authorTerm := map[string]interface{}{
		"term": map[string]interface{}{"authors.full_name.raw": "Ada Lovelace"},
	}
	categoryTerm := map[string]interface{}{
		"term": map[string]interface{}{"categories": "physics"},
	}

	c.Assert(facetFilter(aggs, "categories"), check.DeepEquals, authorTerm)
	c.Assert(facetFilter(aggs, "authors"), check.DeepEquals, categoryTerm)
	c.Assert(facetFilter(aggs, "published"), check.DeepEquals, categoryTerm)
}

func (s *queryBuilderTestSuite) TestFacetBucketClauses(c *check.C) {
	req := Build("quantum", Options{})
	aggs := req["aggregations"].(map[string]interface{})

	categories := aggs["categories"].(map[string]interface{})
	c.Assert(categories["aggregations"], check.DeepEquals, map[string]interface{}{
		"categories": map[string]interface{}{
			"terms": map[string]interface{}{"field": "categories"},
		},
	})

	authors := aggs["authors"].(map[string]interface{})
	c.Assert(authors["aggregations"], check.DeepEquals, map[string]interface{}{
		"authors": map[string]interface{}{
			"terms": map[string]interface{}{"field": "authors.full_name.raw"},
		},
	})

	published := aggs["published"].(map[string]interface{})
	c.Assert(published["aggregations"], check.DeepEquals, map[string]interface{}{
		"published": map[string]interface{}{
			"date_histogram": map[string]interface{}{
				"field":             "published_on",
				"calendar_interval": "week",
			},
		},
	})
}

func (s *queryBuilderTestSuite) TestSortOptionTracksScores(c *check.C) {
	req := Build("quantum", Options{Sort: "title"})

	c.Assert(req["sort"], check.DeepEquals, []interface{}{
		map[string]interface{}{"title": "desc"},
	})
	c.Assert(req["track_scores"], check.Equals, true)
}

func (s *queryBuilderTestSuite) TestHighlightingClause(c *check.C) {
	req := Build("quantum", Options{})

	c.Assert(req["highlight"], check.DeepEquals, map[string]interface{}{
		"pre_tags":  []string{`<em class="label label-highlight">`},
		"post_tags": []string{`</em>`},
		"fields": map[string]interface{}{
			"title":    map[string]interface{}{"number_of_fragments": 0},
			"abstract": map[string]interface{}{"number_of_fragments": 0},
			"content":  map[string]interface{}{"fragment_size": 50},
		},
	})
}

func (s *queryBuilderTestSuite) TestSuggestionClauses(c *check.C) {
	req := Build("quantun", Options{})

	c.Assert(req["suggest"], check.DeepEquals, map[string]interface{}{
		"text": "quantun",
		"suggest_title": map[string]interface{}{
			"term": map[string]interface{}{
				"field":        "title.tokenized",
				"suggest_mode": "always",
			},
		},
		"suggest_body": map[string]interface{}{
			"term": map[string]interface{}{
				"field":        "content.tokenized",
				"suggest_mode": "always",
			},
		},
	})
}

func (s *queryBuilderTestSuite) TestPostFilterCombinesActiveSelections(c *check.C) {
	req := Build("quantum", Options{Author: "Ada Lovelace", Category: "physics"})

	c.Assert(req["post_filter"], check.DeepEquals, map[string]interface{}{
		"bool": map[string]interface{}{
			"must": []interface{}{
				map[string]interface{}{
					"term": map[string]interface{}{"categories": "physics"},
				},
				map[string]interface{}{
					"term": map[string]interface{}{"authors.full_name.raw": "Ada Lovelace"},
				},
			},
		},
	})
}

func (s *queryBuilderTestSuite) TestParseOptionsIgnoresUnrecognizedParams(c *check.C) {
	opts := ParseOptions(url.Values{
		"sort":         []string{"title"},
		"author":       []string{"Ada Lovelace"},
		"page":         []string{"3"},
		"utm_campaign": []string{"newsletter"},
	})

	c.Assert(opts, check.DeepEquals, Options{
		Sort:   "title",
		Author: "Ada Lovelace",
	})
}

func facetFilter(aggs map[string]interface{}, name string) interface{} {
	return aggs[name].(map[string]interface{})["filter"]
}

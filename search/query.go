package search

import (
	"net/url"
	"strings"
)

// Markers wrapped around matched terms in highlighted fragments.
const (
	highlightPreTag  = `<em class="label label-highlight">`
	highlightPostTag = `</em>`
)

// Options carries the recognized selections that narrow or re-order a
// search: a facet filter per facet dimension and an optional sort field.
// The zero value requests an unfiltered, relevance-ordered search.
type Options struct {
	// Sort orders results descending by the named field instead of by
	// relevance score.
	Sort string

	// Author restricts the authors facet filter to an exact full name.
	Author string

	// Category restricts the category facet filter to an exact title.
	Category string
}

// ParseOptions extracts the recognized search options from a set of URL
// query parameters. Unrecognized parameters are deliberately ignored so
// that callers can grow their query strings without breaking this core.
func ParseOptions(params url.Values) Options {
	return Options{
		Sort:     params.Get("sort"),
		Author:   params.Get("author"),
		Category: params.Get("category"),
	}
}

// Request is the engine-ready search request body assembled by Build.
// It is built fresh per call and must not be mutated once submitted.
type Request map[string]interface{}

// Build assembles the search request for the query expression q and the
// provided options: a relevance clause, the three cross-filtered facet
// aggregations, highlighting, sort order and, for non-blank queries,
// term-level spelling suggestions.
func Build(q string, opts Options) Request {
	req := Request{
		"query":        relevanceClause(q),
		"aggregations": aggregationClauses(opts),
		"highlight":    highlightClause(),
	}

	if isBlank(q) {
		// With relevance ranking disabled, fall back to recency-first
		// browsing order.
		req["sort"] = []interface{}{
			map[string]interface{}{fieldPublishedOn: "desc"},
		}
	} else {
		req["suggest"] = suggestClauses(q)
	}

	if opts.Sort != "" {
		// Sorting by a field disables relevance scoring, so ask the
		// engine to keep computing scores for display purposes.
		req["sort"] = []interface{}{
			map[string]interface{}{opts.Sort: "desc"},
		}
		req["track_scores"] = true
	}

	if filter := postFilterClause(opts); filter != nil {
		req["post_filter"] = filter
	}

	return req
}

// postFilterClause narrows the hit list by the active facet selections.
// Running as a post filter keeps the aggregations unaffected: they apply
// their own cross-filters instead.
func postFilterClause(opts Options) map[string]interface{} {
	var filters []interface{}

	if opts.Category != "" {
		filters = append(filters, termFilter(fieldCategories, opts.Category))
	}

	if opts.Author != "" {
		filters = append(filters, termFilter(fieldAuthorFullNameRaw, opts.Author))
	}

	if len(filters) == 0 {
		return nil
	}

	return map[string]interface{}{
		"bool": map[string]interface{}{"must": filters},
	}
}

// relevanceClause matches everything for a blank query and otherwise
// requires every significant term of q to match at least one of the title,
// abstract or content fields, with title matches weighted 10x and abstract
// matches 2x.
func relevanceClause(q string) map[string]interface{} {
	if isBlank(q) {
		return map[string]interface{}{
			"match_all": map[string]interface{}{},
		}
	}

	return map[string]interface{}{
		"bool": map[string]interface{}{
			"should": []interface{}{
				map[string]interface{}{
					"multi_match": map[string]interface{}{
						"query":    q,
						"operator": "and",
						"fields": []string{
							fieldTitle + "^10",
							fieldAbstract + "^2",
							fieldContent,
						},
					},
				},
			},
		},
	}
}

// aggregationClauses builds the three facet aggregations. Each facet is
// computed under a filter built from the *other* active facet selections,
// never its own: picking a category must not suppress the remaining
// category counts but does narrow the author and date counts.
//
// Known asymmetry kept on purpose: when both author and category are
// selected the filters are not combined, each aggregation only consults
// one of the two. Callers rely on the resulting counts, so do not "fix"
// this without product sign-off.
func aggregationClauses(opts Options) map[string]interface{} {
	authorFilter := matchAllFilter()
	if opts.Author != "" {
		authorFilter = termFilter(fieldAuthorFullNameRaw, opts.Author)
	}

	categoryFilter := matchAllFilter()
	if opts.Category != "" {
		categoryFilter = termFilter(fieldCategories, opts.Category)
	}

	return map[string]interface{}{
		"categories": map[string]interface{}{
			"filter": authorFilter,
			"aggregations": map[string]interface{}{
				"categories": map[string]interface{}{
					"terms": map[string]interface{}{"field": fieldCategories},
				},
			},
		},
		"authors": map[string]interface{}{
			"filter": categoryFilter,
			"aggregations": map[string]interface{}{
				"authors": map[string]interface{}{
					"terms": map[string]interface{}{"field": fieldAuthorFullNameRaw},
				},
			},
		},
		"published": map[string]interface{}{
			"filter": categoryFilter,
			"aggregations": map[string]interface{}{
				"published": map[string]interface{}{
					"date_histogram": map[string]interface{}{
						"field":             fieldPublishedOn,
						"calendar_interval": "week",
					},
				},
			},
		},
	}
}

// highlightClause requests whole-field fragments for title and abstract and
// 50-character fragments for content.
func highlightClause() map[string]interface{} {
	return map[string]interface{}{
		"pre_tags":  []string{highlightPreTag},
		"post_tags": []string{highlightPostTag},
		"fields": map[string]interface{}{
			fieldTitle:    map[string]interface{}{"number_of_fragments": 0},
			fieldAbstract: map[string]interface{}{"number_of_fragments": 0},
			fieldContent:  map[string]interface{}{"fragment_size": 50},
		},
	}
}

// suggestClauses requests two independent term-level spelling suggestions
// against the tokenized title and content fields. The "always" mode makes
// the engine surface alternate spellings even for terms that already match.
func suggestClauses(q string) map[string]interface{} {
	return map[string]interface{}{
		"text": q,
		"suggest_title": map[string]interface{}{
			"term": map[string]interface{}{
				"field":        fieldTitleTokenized,
				"suggest_mode": "always",
			},
		},
		"suggest_body": map[string]interface{}{
			"term": map[string]interface{}{
				"field":        fieldContentTokenized,
				"suggest_mode": "always",
			},
		},
	}
}

func termFilter(field, value string) map[string]interface{} {
	return map[string]interface{}{
		"term": map[string]interface{}{field: value},
	}
}

func matchAllFilter() map[string]interface{} {
	return map[string]interface{}{
		"match_all": map[string]interface{}{},
	}
}

func isBlank(q string) bool {
	return strings.TrimSpace(q) == ""
}

package search

import "encoding/json"

// Response mirrors the engine's reply to a search request. The façade
// passes it through as-is: hits, aggregations and suggestions keep the
// engine's own shape and no local recovery or re-ranking is applied.
type Response struct {
	Took         int                        `json:"took"`
	Hits         Hits                       `json:"hits"`
	Aggregations map[string]json.RawMessage `json:"aggregations,omitempty"`
	Suggest      map[string][]Suggestion    `json:"suggest,omitempty"`
}

// Hits is the matched-document section of a search response.
type Hits struct {
	Total    Total    `json:"total"`
	MaxScore *float64 `json:"max_score"`
	Hits     []Hit    `json:"hits"`
}

// Total is the approximated total number of search results.
type Total struct {
	Count uint64 `json:"value"`
}

// Hit is a single ranked search result.
type Hit struct {
	ID        string              `json:"_id"`
	Score     *float64            `json:"_score"`
	Source    Document            `json:"_source"`
	Highlight map[string][]string `json:"highlight,omitempty"`
	Sort      []interface{}       `json:"sort,omitempty"`
}

// Suggestion is a term-level spelling suggestion entry for one term of the
// query text.
type Suggestion struct {
	Text    string             `json:"text"`
	Offset  int                `json:"offset"`
	Length  int                `json:"length"`
	Options []SuggestionOption `json:"options"`
}

// SuggestionOption is a candidate replacement for a suggested term.
type SuggestionOption struct {
	Text  string  `json:"text"`
	Score float64 `json:"score"`
	Freq  int     `json:"freq"`
}

// FilteredAggregation is the response shape of one of the cross-filtered
// facet aggregations: the document count under the facet's filter plus a
// single named sub-aggregation holding the buckets.
type FilteredAggregation struct {
	DocCount uint64                     `json:"doc_count"`
	Buckets  map[string]BucketContainer `json:"-"`
}

// BucketContainer wraps the bucket list of a terms or date-histogram
// sub-aggregation.
type BucketContainer struct {
	Buckets []Bucket `json:"buckets"`
}

// Bucket is a single facet bucket: its key and the number of matching
// documents.
type Bucket struct {
	Key         interface{} `json:"key"`
	KeyAsString string      `json:"key_as_string,omitempty"`
	DocCount    uint64      `json:"doc_count"`
}

// UnmarshalJSON decodes the dynamic sub-aggregation keys alongside the
// fixed doc_count field.
func (a *FilteredAggregation) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	a.Buckets = make(map[string]BucketContainer, len(raw))
	for key, value := range raw {
		if key == "doc_count" {
			if err := json.Unmarshal(value, &a.DocCount); err != nil {
				return err
			}

			continue
		}

		var container BucketContainer
		if err := json.Unmarshal(value, &container); err != nil {
			// Not every sibling key is a bucket container (e.g. "meta").
			continue
		}

		a.Buckets[key] = container
	}

	return nil
}

// FacetBuckets decodes and returns the buckets of the named facet
// aggregation, or nil when the response carries no such aggregation.
func (r *Response) FacetBuckets(name string) ([]Bucket, error) {
	raw, exists := r.Aggregations[name]
	if !exists {
		return nil, nil
	}

	var agg FilteredAggregation
	if err := json.Unmarshal(raw, &agg); err != nil {
		return nil, err
	}

	return agg.Buckets[name].Buckets, nil
}

// Package memory provides a bleve-backed, in-process search.Index meant for
// development and tests. It approximates the elasticsearch implementation:
// facet counts are computed over the (filtered) result set rather than
// cross-filtered per facet, the published facet omits the weekly histogram,
// and no spelling suggestions are produced.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/blevesearch/bleve"
	"github.com/blevesearch/bleve/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/search/query"
	"github.com/google/uuid"

	"github.com/miguelff/articlesearch/search"
)

// Static and compile-time check to ensure InMemoryIndex implements
// search.Index.
var _ search.Index = (*InMemoryIndex)(nil)

// Size of the result page returned by a single search.
const batchSize = 10

// Maximum number of buckets reported per facet.
const maxFacetBuckets = 10

// bleveDoc is the reduced shape of a document held by the bleve index.
// Full documents are kept alongside in the docs map and re-attached to
// search hits by ID.
type bleveDoc struct {
	Title       string
	Abstract    string
	Content     string
	PublishedOn time.Time
	Authors     []string
	Categories  []string
}

// Sortable option fields mapped to their bleveDoc counterparts.
var sortableFields = map[string]string{
	"title":        "Title",
	"published_on": "PublishedOn",
}

// InMemoryIndex is a search.Index implementation that uses an in-memory
// bleve instance to index and search article documents.
type InMemoryIndex struct {
	mu   sync.RWMutex
	docs map[string]*search.Document
	idx  bleve.Index
}

// NewInMemoryIndex instantiates and returns an index that uses an in-memory
// bleve instance to store article documents.
func NewInMemoryIndex() (*InMemoryIndex, error) {
	mapping := bleve.NewIndexMapping()

	// Authors and categories back exact-match facet filters, so they
	// must not pass through the default text analyzer.
	exact := bleve.NewTextFieldMapping()
	exact.Analyzer = keyword.Name

	docMapping := bleve.NewDocumentMapping()
	docMapping.AddFieldMappingsAt("Authors", exact)
	docMapping.AddFieldMappingsAt("Categories", exact)
	mapping.DefaultMapping = docMapping

	idx, err := bleve.NewMemOnly(mapping)
	if err != nil {
		return nil, err
	}

	return &InMemoryIndex{
		idx:  idx,
		docs: make(map[string]*search.Document),
	}, nil
}

// Close releases the resources held by the underlying bleve index.
func (s *InMemoryIndex) Close() error {
	return s.idx.Close()
}

// Index adds a new document or fully replaces an existing index entry for
// the same article ID.
func (s *InMemoryIndex) Index(id uuid.UUID, doc *search.Document) error {
	if id == uuid.Nil {
		return fmt.Errorf("index: %w", search.ErrMissingArticleID)
	}

	dCopy := copyDoc(doc)
	key := id.String()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.idx.Index(key, makeBleveDoc(dCopy)); err != nil {
		return fmt.Errorf("index: %w", err)
	}

	s.docs[key] = dCopy

	return nil
}

// Delete removes the document for the given article ID. Deleting a missing
// document is a no-op so that duplicate job deliveries stay harmless.
func (s *InMemoryIndex) Delete(id uuid.UUID) error {
	if id == uuid.Nil {
		return fmt.Errorf("delete: %w", search.ErrMissingArticleID)
	}

	key := id.String()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.docs[key]; !exists {
		return nil
	}

	if err := s.idx.Delete(key); err != nil {
		return fmt.Errorf("delete: %w", err)
	}

	delete(s.docs, key)

	return nil
}

// Search runs q and opts against the bleve index and assembles a response
// that mirrors the engine response shape.
func (s *InMemoryIndex) Search(
	ctx context.Context, q string, opts search.Options,
) (*search.Response, error) {

	searchReq := bleve.NewSearchRequestOptions(s.makeBleveQuery(q, opts), batchSize, 0, false)
	searchReq.Highlight = bleve.NewHighlight()
	searchReq.AddFacet("categories", bleve.NewFacetRequest("Categories", maxFacetBuckets))
	searchReq.AddFacet("authors", bleve.NewFacetRequest("Authors", maxFacetBuckets))

	if sortField, sortable := sortableFields[opts.Sort]; sortable {
		searchReq.SortBy([]string{"-" + sortField})
	} else if isBlank(q) {
		searchReq.SortBy([]string{"-PublishedOn"})
	}

	sr, err := s.idx.SearchInContext(ctx, searchReq)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	res := &search.Response{
		Took: int(sr.Took.Milliseconds()),
		Hits: search.Hits{
			Total:    search.Total{Count: sr.Total},
			MaxScore: &sr.MaxScore,
		},
	}

	for _, hit := range sr.Hits {
		doc, exists := s.docs[hit.ID]
		if !exists {
			continue
		}

		score := hit.Score
		res.Hits.Hits = append(res.Hits.Hits, search.Hit{
			ID:        hit.ID,
			Score:     &score,
			Source:    *copyDoc(doc),
			Highlight: renameFragmentFields(hit.Fragments),
		})
	}

	aggregations, err := makeAggregations(sr)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	res.Aggregations = aggregations

	return res, nil
}

// makeBleveQuery translates the relevance and filter semantics of the
// engine request: every term of q must match at least one of title,
// abstract or content (title weighted highest), and active facet
// selections narrow the result set with exact term filters.
func (s *InMemoryIndex) makeBleveQuery(q string, opts search.Options) query.Query {
	var baseQuery query.Query = bleve.NewMatchAllQuery()

	if !isBlank(q) {
		titleMatch := bleve.NewMatchQuery(q)
		titleMatch.SetField("Title")
		titleMatch.SetBoost(10)
		titleMatch.SetOperator(query.MatchQueryOperatorAnd)

		abstractMatch := bleve.NewMatchQuery(q)
		abstractMatch.SetField("Abstract")
		abstractMatch.SetBoost(2)
		abstractMatch.SetOperator(query.MatchQueryOperatorAnd)

		contentMatch := bleve.NewMatchQuery(q)
		contentMatch.SetField("Content")
		contentMatch.SetOperator(query.MatchQueryOperatorAnd)

		baseQuery = bleve.NewDisjunctionQuery(titleMatch, abstractMatch, contentMatch)
	}

	filters := []query.Query{baseQuery}

	if opts.Category != "" {
		categoryTerm := bleve.NewTermQuery(opts.Category)
		categoryTerm.SetField("Categories")
		filters = append(filters, categoryTerm)
	}

	if opts.Author != "" {
		authorTerm := bleve.NewTermQuery(opts.Author)
		authorTerm.SetField("Authors")
		filters = append(filters, authorTerm)
	}

	if len(filters) == 1 {
		return baseQuery
	}

	return bleve.NewConjunctionQuery(filters...)
}

// makeAggregations re-shapes bleve facet results into the engine's
// filtered-aggregation response form.
func makeAggregations(sr *bleve.SearchResult) (map[string]json.RawMessage, error) {
	aggregations := make(map[string]json.RawMessage, len(sr.Facets))

	for name, facet := range sr.Facets {
		buckets := make([]map[string]interface{}, 0, len(facet.Terms))
		for _, term := range facet.Terms {
			buckets = append(buckets, map[string]interface{}{
				"key":       term.Term,
				"doc_count": term.Count,
			})
		}

		raw, err := json.Marshal(map[string]interface{}{
			"doc_count": facet.Total,
			name:        map[string]interface{}{"buckets": buckets},
		})
		if err != nil {
			return nil, err
		}

		aggregations[name] = raw
	}

	return aggregations, nil
}

// renameFragmentFields maps bleve document field names in highlight
// fragments back to their schema counterparts.
func renameFragmentFields(fragments map[string][]string) map[string][]string {
	if len(fragments) == 0 {
		return nil
	}

	names := map[string]string{
		"Title":    "title",
		"Abstract": "abstract",
		"Content":  "content",
	}

	renamed := make(map[string][]string, len(fragments))
	for field, fragmentList := range fragments {
		if name, known := names[field]; known {
			renamed[name] = fragmentList
		}
	}

	return renamed
}

func makeBleveDoc(doc *search.Document) bleveDoc {
	bDoc := bleveDoc{
		Title:       doc.Title,
		Abstract:    doc.Abstract,
		Content:     doc.Content,
		PublishedOn: doc.PublishedOn,
		Categories:  append([]string(nil), doc.Categories...),
	}

	for _, author := range doc.Authors {
		bDoc.Authors = append(bDoc.Authors, author.FullName)
	}

	return bDoc
}

func copyDoc(doc *search.Document) *search.Document {
	dCopy := new(search.Document)
	*dCopy = *doc

	dCopy.Authors = append([]search.DocumentAuthor(nil), doc.Authors...)
	dCopy.Categories = append([]string(nil), doc.Categories...)
	dCopy.Comments = append([]search.DocumentComment(nil), doc.Comments...)

	return dCopy
}

func isBlank(q string) bool {
	return strings.TrimSpace(q) == ""
}

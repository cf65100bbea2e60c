package es

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/google/uuid"

	"github.com/miguelff/articlesearch/search"
)

// Static and compile-time check to ensure ArticleIndex implements
// search.Index.
var _ search.Index = (*ArticleIndex)(nil)

// The name of the elasticsearch index to use.
const indexName = "articles"

type esUpdateRes struct {
	Result string `json:"result"`
}

type esErrorRes struct {
	Error esError `json:"error"`
}

type esError struct {
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

func (e esError) Error() string {
	return fmt.Sprintf("%s: %s", e.Type, e.Reason)
}

// ArticleIndex is a search.Index implementation that uses elasticsearch to
// index and search article documents.
type ArticleIndex struct {
	client      *elasticsearch.Client
	refreshOpts func(*esapi.UpdateRequest)
}

// NewArticleIndex instantiates and returns an index that uses an
// elasticsearch instance to store and query article documents. The articles
// index is created with the shared schema mapping if it does not exist yet.
func NewArticleIndex(
	esNodes []string, shouldSyncUpdates bool,
) (*ArticleIndex, error) {

	cfg := elasticsearch.Config{
		Addresses: esNodes,
	}

	c, err := elasticsearch.NewClient(cfg)
	if err != nil {
		return nil, err
	}

	if err = initIndex(c); err != nil {
		return nil, err
	}

	refreshOpts := c.Update.WithRefresh("false")

	if shouldSyncUpdates {
		refreshOpts = c.Update.WithRefresh("true")
	}

	return &ArticleIndex{
		client:      c,
		refreshOpts: refreshOpts,
	}, nil
}

// Index adds a new document or fully replaces an existing index entry for
// the same article ID.
func (s *ArticleIndex) Index(id uuid.UUID, doc *search.Document) error {
	if id == uuid.Nil {
		return fmt.Errorf("index: %w", search.ErrMissingArticleID)
	}

	var buf bytes.Buffer

	forUpdate := map[string]interface{}{
		"doc":           doc,
		"doc_as_upsert": true,
	}

	if err := json.NewEncoder(&buf).Encode(forUpdate); err != nil {
		return fmt.Errorf("index: %w", err)
	}

	res, err := s.client.Update(indexName, id.String(), &buf, s.refreshOpts)
	if err != nil {
		return fmt.Errorf("index: %w", err)
	}

	var updateRes esUpdateRes
	if err = unmarshalResponse(res, &updateRes); err != nil {
		return fmt.Errorf("index: %w", err)
	}

	return nil
}

// Delete removes the document for the given article ID. Deleting a missing
// document is treated as a success: the job runner may deliver the same
// delete more than once, or deliver it after the document was already
// removed by a racing update.
func (s *ArticleIndex) Delete(id uuid.UUID) error {
	if id == uuid.Nil {
		return fmt.Errorf("delete: %w", search.ErrMissingArticleID)
	}

	res, err := s.client.Delete(indexName, id.String())
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}

	if res.StatusCode == http.StatusNotFound {
		_ = res.Body.Close()

		return nil
	}

	if err = unmarshalResponse(res, nil); err != nil {
		return fmt.Errorf("delete: %w", err)
	}

	return nil
}

// Search builds the engine request for q and opts, submits it and returns
// the engine response as-is.
func (s *ArticleIndex) Search(
	ctx context.Context, q string, opts search.Options,
) (*search.Response, error) {

	var buf bytes.Buffer

	if err := json.NewEncoder(&buf).Encode(search.Build(q, opts)); err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	res, err := s.client.Search(
		s.client.Search.WithContext(ctx),
		s.client.Search.WithIndex(indexName),
		s.client.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	var searchRes search.Response
	if err = unmarshalResponse(res, &searchRes); err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	return &searchRes, nil
}

func initIndex(client *elasticsearch.Client) error {
	mappingsReader := strings.NewReader(search.Mappings)

	res, err := client.Indices.Create(
		indexName,
		client.Indices.Create.WithBody(mappingsReader),
	)
	// For cases where index creation fails due to client issues,
	// ie network connection issues.
	if err != nil {
		return fmt.Errorf("failed to create ES index: %w", err)
	}

	// For cases where index creation fails due to other issues,
	// ie invalid params.
	if res.IsError() {
		err = unMarshalError(res)

		esErr, isEsErr := err.(esError)
		if isEsErr && esErr.Type == "resource_already_exists_exception" {
			return nil
		}

		return fmt.Errorf("failed to create ES index: %w", err)
	}

	return nil
}

func unMarshalError(res *esapi.Response) error {
	return unmarshalResponse(res, nil)
}

func unmarshalResponse(res *esapi.Response, into interface{}) error {
	defer func() {
		res.Body.Close()
	}()

	if res.IsError() {
		var errRes esErrorRes
		if err := json.NewDecoder(res.Body).Decode(&errRes); err != nil {
			return err
		}

		return errRes.Error
	}

	if into == nil {
		return nil
	}

	return json.NewDecoder(res.Body).Decode(into)
}

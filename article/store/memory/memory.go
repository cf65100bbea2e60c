// Package memory provides an in-memory article.Store for development and
// tests.
package memory

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/miguelff/articlesearch/article"
)

// Static and compile-time check to ensure InMemoryStore implements
// article.Store.
var _ article.Store = (*InMemoryStore)(nil)

// InMemoryStore is an article.Store implementation that keeps articles in a
// mutex-guarded map. Articles are deep-copied on the way in and out so that
// callers can never mutate stored state through retained pointers.
type InMemoryStore struct {
	mu       sync.RWMutex
	articles map[uuid.UUID]*article.Article
}

// NewInMemoryStore instantiates and returns an empty in-memory article
// store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		articles: make(map[uuid.UUID]*article.Article),
	}
}

// Upsert creates a new article or fully replaces an existing one. Articles
// without an ID get one assigned.
func (s *InMemoryStore) Upsert(a *article.Article) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.articles[a.ID] = copyArticle(a)

	return nil
}

// Find looks up an article by its ID.
func (s *InMemoryStore) Find(id uuid.UUID) (*article.Article, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, exists := s.articles[id]
	if !exists {
		return nil, fmt.Errorf("find article: %w", article.ErrNotFound)
	}

	return copyArticle(a), nil
}

// Delete removes an article and its relations.
func (s *InMemoryStore) Delete(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.articles[id]; !exists {
		return fmt.Errorf("delete article: %w", article.ErrNotFound)
	}

	delete(s.articles, id)

	return nil
}

func copyArticle(a *article.Article) *article.Article {
	aCopy := new(article.Article)
	*aCopy = *a

	aCopy.Categories = make([]*article.Category, len(a.Categories))
	for i, category := range a.Categories {
		if category == nil {
			continue
		}

		cCopy := *category
		aCopy.Categories[i] = &cCopy
	}

	aCopy.Authors = make([]*article.Author, len(a.Authors))
	for i, author := range a.Authors {
		if author == nil {
			continue
		}

		authorCopy := *author
		aCopy.Authors[i] = &authorCopy
	}

	aCopy.Comments = make([]*article.Comment, len(a.Comments))
	for i, comment := range a.Comments {
		if comment == nil {
			continue
		}

		commentCopy := *comment
		aCopy.Comments[i] = &commentCopy
	}

	return aCopy
}

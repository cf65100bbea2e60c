package search

import (
	"fmt"
	"html"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/miguelff/articlesearch/article"
)

var repeatedSpaceRegex = regexp.MustCompile(`\s+`)

// Pool of sanitizer policies shared by concurrent projections.
var policyPool = sync.Pool{
	New: func() interface{} {
		return bluemonday.StrictPolicy()
	},
}

// Document is the flat, indexable projection of an article. It matches the
// properties declared by Mappings: categories are flattened to a list of
// plain title strings while authors and comments retain nested structure.
// A document is built fresh for every index operation and never mutated
// after submission.
type Document struct {
	Title       string            `json:"title"`
	Abstract    string            `json:"abstract"`
	Content     string            `json:"content"`
	PublishedOn time.Time         `json:"published_on"`
	Authors     []DocumentAuthor  `json:"authors"`
	Categories  []string          `json:"categories"`
	Comments    []DocumentComment `json:"comments"`
}

// DocumentAuthor is the indexed shape of an article author. Only the
// computed full name is indexed.
type DocumentAuthor struct {
	FullName string `json:"full_name"`
}

// DocumentComment is the indexed shape of a reader comment.
type DocumentComment struct {
	Body         string `json:"body"`
	Stars        int    `json:"stars"`
	Pick         bool   `json:"pick"`
	User         string `json:"user"`
	UserLocation string `json:"user_location"`
}

// Project converts an article into its indexable document. The conversion is
// pure: it never mutates the article and yields the same document for the
// same article state. Text fields are stripped of any HTML markup before
// indexing.
//
// A nil entry in any of the article's relations (a dangling reference in the
// persistence layer) fails the whole projection with ErrBrokenRelation.
func Project(a *article.Article) (*Document, error) {
	doc := &Document{
		Title:       sanitize(a.Title),
		Abstract:    sanitize(a.Abstract),
		Content:     sanitize(a.Content),
		PublishedOn: a.PublishedOn.UTC(),
		Authors:     make([]DocumentAuthor, len(a.Authors)),
		Categories:  make([]string, len(a.Categories)),
		Comments:    make([]DocumentComment, len(a.Comments)),
	}

	for i, author := range a.Authors {
		if author == nil {
			return nil, fmt.Errorf("project article %s: authors: %w", a.ID, ErrBrokenRelation)
		}

		doc.Authors[i] = DocumentAuthor{FullName: author.FullName()}
	}

	for i, category := range a.Categories {
		if category == nil {
			return nil, fmt.Errorf("project article %s: categories: %w", a.ID, ErrBrokenRelation)
		}

		doc.Categories[i] = category.Title
	}

	for i, comment := range a.Comments {
		if comment == nil {
			return nil, fmt.Errorf("project article %s: comments: %w", a.ID, ErrBrokenRelation)
		}

		doc.Comments[i] = DocumentComment{
			Body:         sanitize(comment.Body),
			Stars:        comment.Stars,
			Pick:         comment.Pick,
			User:         comment.User,
			UserLocation: comment.UserLocation,
		}
	}

	return doc, nil
}

// sanitize strips all HTML tags and collapses repeated white space so that
// only readable text gets indexed.
func sanitize(s string) string {
	policy := policyPool.Get().(*bluemonday.Policy)
	defer policyPool.Put(policy)

	clean := repeatedSpaceRegex.ReplaceAllString(policy.Sanitize(s), " ")

	return strings.TrimSpace(html.UnescapeString(clean))
}

package article

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Article defines a published piece of content together with its authors,
// categories and reader comments. Articles are owned by the persistence
// layer; the search core only reads them when (re-)building index documents.
type Article struct {
	// ID of the article.
	ID uuid.UUID

	// Title of the article.
	Title string

	// Short lead-in shown on listing pages.
	Abstract string

	// Body of the article.
	Content string

	// Publication date of the article.
	PublishedOn time.Time

	// Categories the article is filed under, in display order.
	Categories []*Category

	// Authors of the article, in byline order.
	Authors []*Author

	// Reader comments on the article, oldest first.
	Comments []*Comment
}

// Category defines a subject an article can be filed under. Categories are
// shared between articles.
type Category struct {
	// ID of the category.
	ID uuid.UUID

	// Title of the category.
	Title string
}

// Author defines a person credited for an article.
type Author struct {
	// ID of the author.
	ID uuid.UUID

	// First name of the author.
	FirstName string

	// Last name of the author.
	LastName string
}

// FullName returns the author's display name composed from the first and
// last name fields.
func (a *Author) FullName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

// Comment defines a reader comment on an article. Comments are only
// searchable through their parent article.
type Comment struct {
	// ID of the comment.
	ID uuid.UUID

	// Body of the comment.
	Body string

	// Star rating the commenter gave the article.
	Stars int

	// Pick indicates the comment was marked as an editor's pick.
	Pick bool

	// User name of the commenter.
	User string

	// UserLocation is the free-form location of the commenter.
	UserLocation string
}

// Package pg provides a PostgreSQL-backed article.Store. Relations are
// stored in child tables keyed by article ID and ordered by an explicit
// position column so that byline and display order survive the round trip.
package pg

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	// Registers the postgres driver with database/sql.
	_ "github.com/lib/pq"

	"github.com/miguelff/articlesearch/article"
)

// Static and compile-time check to ensure PostgresStore implements
// article.Store.
var _ article.Store = (*PostgresStore)(nil)

var (
	createTablesQuery = `
					CREATE TABLE IF NOT EXISTS articles (
						id UUID PRIMARY KEY,
						title TEXT NOT NULL DEFAULT '',
						abstract TEXT NOT NULL DEFAULT '',
						content TEXT NOT NULL DEFAULT '',
						published_on DATE NOT NULL
					);

					CREATE TABLE IF NOT EXISTS article_categories (
						article_id UUID NOT NULL REFERENCES articles(id) ON DELETE CASCADE,
						category_id UUID NOT NULL,
						title TEXT NOT NULL,
						position INT NOT NULL,
						PRIMARY KEY (article_id, position)
					);

					CREATE TABLE IF NOT EXISTS article_authors (
						article_id UUID NOT NULL REFERENCES articles(id) ON DELETE CASCADE,
						author_id UUID NOT NULL,
						first_name TEXT NOT NULL DEFAULT '',
						last_name TEXT NOT NULL DEFAULT '',
						position INT NOT NULL,
						PRIMARY KEY (article_id, position)
					);

					CREATE TABLE IF NOT EXISTS article_comments (
						article_id UUID NOT NULL REFERENCES articles(id) ON DELETE CASCADE,
						comment_id UUID NOT NULL,
						body TEXT NOT NULL DEFAULT '',
						stars INT NOT NULL DEFAULT 0,
						pick BOOLEAN NOT NULL DEFAULT FALSE,
						user_name TEXT NOT NULL DEFAULT '',
						user_location TEXT NOT NULL DEFAULT '',
						position INT NOT NULL,
						PRIMARY KEY (article_id, position)
					);
					`

	upsertArticleQuery = `
					INSERT INTO articles (id, title, abstract, content, published_on)
					VALUES ($1, $2, $3, $4, $5)
					ON CONFLICT (id)
					DO UPDATE SET title=$2, abstract=$3, content=$4, published_on=$5
					`

	findArticleQuery = `
					SELECT title, abstract, content, published_on
					FROM articles WHERE id=$1
					`

	deleteArticleQuery = "DELETE FROM articles WHERE id=$1"

	deleteCategoriesQuery = "DELETE FROM article_categories WHERE article_id=$1"
	insertCategoryQuery   = `
					INSERT INTO article_categories (article_id, category_id, title, position)
					VALUES ($1, $2, $3, $4)
					`
	findCategoriesQuery = `
					SELECT category_id, title FROM article_categories
					WHERE article_id=$1 ORDER BY position
					`

	deleteAuthorsQuery = "DELETE FROM article_authors WHERE article_id=$1"
	insertAuthorQuery  = `
					INSERT INTO article_authors (article_id, author_id, first_name, last_name, position)
					VALUES ($1, $2, $3, $4, $5)
					`
	findAuthorsQuery = `
					SELECT author_id, first_name, last_name FROM article_authors
					WHERE article_id=$1 ORDER BY position
					`

	deleteCommentsQuery = "DELETE FROM article_comments WHERE article_id=$1"
	insertCommentQuery  = `
					INSERT INTO article_comments (article_id, comment_id, body, stars, pick, user_name, user_location, position)
					VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
					`
	findCommentsQuery = `
					SELECT comment_id, body, stars, pick, user_name, user_location
					FROM article_comments
					WHERE article_id=$1 ORDER BY position
					`
)

// PostgresStore implements a persistent article store backed by a
// PostgreSQL instance.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore returns a PostgresStore instance connected to the
// provided DSN.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	return &PostgresStore{db: db}, nil
}

// Migrate creates the article tables if they do not exist yet.
func (s *PostgresStore) Migrate() error {
	if _, err := s.db.Exec(createTablesQuery); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	return nil
}

// Close terminates the connection to the backing database instance.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// Upsert creates a new article or fully replaces an existing one, including
// its relations. Articles without an ID get one assigned.
func (s *PostgresStore) Upsert(a *article.Article) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("upsert article: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.Exec(
		upsertArticleQuery,
		a.ID, a.Title, a.Abstract, a.Content, a.PublishedOn,
	)
	if err != nil {
		return fmt.Errorf("upsert article: %w", err)
	}

	if err = replaceRelations(tx, a); err != nil {
		return fmt.Errorf("upsert article: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("upsert article: %w", err)
	}

	return nil
}

// Find looks up an article by its ID with all relations populated.
func (s *PostgresStore) Find(id uuid.UUID) (*article.Article, error) {
	a := &article.Article{ID: id}

	row := s.db.QueryRow(findArticleQuery, id)
	err := row.Scan(&a.Title, &a.Abstract, &a.Content, &a.PublishedOn)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("find article: %w", article.ErrNotFound)
	}

	if err != nil {
		return nil, fmt.Errorf("find article: %w", err)
	}

	if a.Categories, err = findCategories(s.db, id); err != nil {
		return nil, fmt.Errorf("find article: %w", err)
	}

	if a.Authors, err = findAuthors(s.db, id); err != nil {
		return nil, fmt.Errorf("find article: %w", err)
	}

	if a.Comments, err = findComments(s.db, id); err != nil {
		return nil, fmt.Errorf("find article: %w", err)
	}

	return a, nil
}

// Delete removes an article; the relation rows cascade.
func (s *PostgresStore) Delete(id uuid.UUID) error {
	res, err := s.db.Exec(deleteArticleQuery, id)
	if err != nil {
		return fmt.Errorf("delete article: %w", err)
	}

	deleted, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete article: %w", err)
	}

	if deleted == 0 {
		return fmt.Errorf("delete article: %w", article.ErrNotFound)
	}

	return nil
}

func replaceRelations(tx *sql.Tx, a *article.Article) error {
	for _, query := range []string{
		deleteCategoriesQuery, deleteAuthorsQuery, deleteCommentsQuery,
	} {
		if _, err := tx.Exec(query, a.ID); err != nil {
			return err
		}
	}

	for i, category := range a.Categories {
		if category == nil {
			continue
		}

		_, err := tx.Exec(insertCategoryQuery, a.ID, category.ID, category.Title, i)
		if err != nil {
			return err
		}
	}

	for i, author := range a.Authors {
		if author == nil {
			continue
		}

		_, err := tx.Exec(
			insertAuthorQuery,
			a.ID, author.ID, author.FirstName, author.LastName, i,
		)
		if err != nil {
			return err
		}
	}

	for i, comment := range a.Comments {
		if comment == nil {
			continue
		}

		_, err := tx.Exec(
			insertCommentQuery,
			a.ID, comment.ID, comment.Body, comment.Stars, comment.Pick,
			comment.User, comment.UserLocation, i,
		)
		if err != nil {
			return err
		}
	}

	return nil
}

func findCategories(db *sql.DB, id uuid.UUID) ([]*article.Category, error) {
	rows, err := db.Query(findCategoriesQuery, id)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var categories []*article.Category
	for rows.Next() {
		category := new(article.Category)
		if err := rows.Scan(&category.ID, &category.Title); err != nil {
			return nil, err
		}

		categories = append(categories, category)
	}

	return categories, rows.Err()
}

func findAuthors(db *sql.DB, id uuid.UUID) ([]*article.Author, error) {
	rows, err := db.Query(findAuthorsQuery, id)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var authors []*article.Author
	for rows.Next() {
		author := new(article.Author)
		if err := rows.Scan(&author.ID, &author.FirstName, &author.LastName); err != nil {
			return nil, err
		}

		authors = append(authors, author)
	}

	return authors, rows.Err()
}

func findComments(db *sql.DB, id uuid.UUID) ([]*article.Comment, error) {
	rows, err := db.Query(findCommentsQuery, id)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var comments []*article.Comment
	for rows.Next() {
		comment := new(article.Comment)
		err := rows.Scan(
			&comment.ID, &comment.Body, &comment.Stars, &comment.Pick,
			&comment.User, &comment.UserLocation,
		)
		if err != nil {
			return nil, err
		}

		comments = append(comments, comment)
	}

	return comments, rows.Err()
}

package indexer

import (
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/juju/clock"
	"github.com/sirupsen/logrus"

	"github.com/miguelff/articlesearch/article"
	"github.com/miguelff/articlesearch/dispatch"
	"github.com/miguelff/articlesearch/search"
)

// StoreAPI defines a minimum set of API methods for looking up articles at
// job-execution time.
type StoreAPI interface {
	// Find looks up an article by its ID with all relations populated.
	Find(id uuid.UUID) (*article.Article, error)
}

// IndexAPI defines a minimum set of API methods for mutating the search
// index.
type IndexAPI interface {
	// Index adds a new document or fully replaces an existing index
	// entry for the same article ID.
	Index(id uuid.UUID, doc *search.Document) error

	// Delete removes the document for the given article ID.
	Delete(id uuid.UUID) error
}

// Config defines configurations for the indexer service.
type Config struct {
	// API for looking up articles when executing jobs.
	StoreAPI StoreAPI

	// API for mutating the search index.
	IndexAPI IndexAPI

	// Source of index mutation jobs to execute.
	Jobs dispatch.Consumer

	// The amount of time to wait before re-entering the consume loop
	// after a delivery error.
	RetryInterval time.Duration

	// A clock instance for generating time-related events. If not
	// specified, the default wall-clock will be used instead.
	Clock clock.Clock

	// The logger to use. If not defined an output-discarding logger will
	// be used instead.
	Logger *logrus.Entry
}

func (config *Config) validate() error {
	var err error

	if config.StoreAPI == nil {
		err = multierror.Append(err, fmt.Errorf("store API not provided"))
	}

	if config.IndexAPI == nil {
		err = multierror.Append(err, fmt.Errorf("index API not provided"))
	}

	if config.Jobs == nil {
		err = multierror.Append(err, fmt.Errorf("job consumer not provided"))
	}

	if config.RetryInterval == 0 {
		config.RetryInterval = 5 * time.Second
	}

	if config.Clock == nil {
		config.Clock = clock.WallClock
	}

	if config.Logger == nil {
		config.Logger = logrus.NewEntry(&logrus.Logger{Out: io.Discard})
	}

	return err
}

// Package indexer implements the service that keeps the search index in
// sync with the article store. It consumes index mutation jobs, re-fetches
// the referenced article and re-projects it into a fresh document, so the
// index converges on the persisted state regardless of delivery order.
package indexer

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/miguelff/articlesearch/article"
	"github.com/miguelff/articlesearch/dispatch"
	"github.com/miguelff/articlesearch/search"
	"github.com/miguelff/articlesearch/service"
)

// Static and compile-time check to ensure Service implements
// service.Service.
var _ service.Service = (*Service)(nil)

// Service consumes dispatch jobs and applies the resulting index
// mutations.
type Service struct {
	config Config
}

// New creates and returns a fully configured indexer service instance.
func New(config Config) (*Service, error) {
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("indexer service: config validation failed: %w", err)
	}

	return &Service{config: config}, nil
}

// Name returns the name of the service.
func (svc *Service) Name() string { return "indexer" }

// Run consumes and applies jobs until the context gets cancelled. Delivery
// errors are logged and the consume loop re-enters after the configured
// retry interval.
func (svc *Service) Run(ctx context.Context) error {
	svc.config.Logger.Info("started service")
	defer svc.config.Logger.Info("stopped service")

	for {
		err := svc.config.Jobs.Consume(ctx, svc.apply)
		if ctx.Err() != nil {
			return nil
		}

		if err != nil {
			svc.config.Logger.WithField("err", err).Error("job consumption failed")
		}

		select {
		case <-ctx.Done():
			return nil
		case <-svc.config.Clock.After(svc.config.RetryInterval):
		}
	}
}

// apply executes a single index mutation job. Applying the same job twice,
// or applying an update after a delete, leaves the index consistent: when
// the article no longer exists at execution time, delete wins.
func (svc *Service) apply(ctx context.Context, job dispatch.Job) error {
	svc.config.Logger.WithFields(logrus.Fields{
		"op":        job.Op,
		"entity_id": job.EntityID,
	}).Debug("applying index mutation job")

	switch job.Op {
	case dispatch.OpDelete:
		return svc.delete(job)
	case dispatch.OpIndex, dispatch.OpUpdate:
		return svc.index(job)
	default:
		svc.config.Logger.WithField("op", job.Op).Warn(
			"skipping job with unknown operation",
		)

		return nil
	}
}

func (svc *Service) index(job dispatch.Job) error {
	a, err := svc.config.StoreAPI.Find(job.EntityID)
	if errors.Is(err, article.ErrNotFound) {
		// The article was removed after this job was enqueued.
		return svc.delete(job)
	}

	if err != nil {
		return fmt.Errorf("index article %s: %w", job.EntityID, err)
	}

	doc, err := search.Project(a)
	if err != nil {
		return fmt.Errorf("index article %s: %w", job.EntityID, err)
	}

	if err := svc.config.IndexAPI.Index(job.EntityID, doc); err != nil {
		return fmt.Errorf("index article %s: %w", job.EntityID, err)
	}

	return nil
}

func (svc *Service) delete(job dispatch.Job) error {
	err := svc.config.IndexAPI.Delete(job.EntityID)
	if err != nil && !errors.Is(err, search.ErrNotFound) {
		return fmt.Errorf("delete article %s: %w", job.EntityID, err)
	}

	return nil
}

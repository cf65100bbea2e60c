package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/miguelff/articlesearch/article"
	articlememory "github.com/miguelff/articlesearch/article/store/memory"
	"github.com/miguelff/articlesearch/article/store/pg"
	"github.com/miguelff/articlesearch/dispatch"
	kafkaqueue "github.com/miguelff/articlesearch/dispatch/queue/kafka"
	memoryqueue "github.com/miguelff/articlesearch/dispatch/queue/memory"
	"github.com/miguelff/articlesearch/search"
	"github.com/miguelff/articlesearch/search/store/es"
	searchmemory "github.com/miguelff/articlesearch/search/store/memory"
	"github.com/miguelff/articlesearch/service"
	"github.com/miguelff/articlesearch/service/indexer"
)

var (
	appName = "articlesearch-indexer"
	appSHA  = "latest-app-git-sha" // Populated by the compiler at the linking stage.
	logger  *logrus.Entry
)

// Buffer size for the in-memory queue used in local dev mode.
const memoryQueueSize = 128

func main() {
	host, _ := os.Hostname()
	rootLogger := logrus.New()
	rootLogger.SetFormatter(new(logrus.JSONFormatter))
	logger = rootLogger.WithFields(logrus.Fields{
		"app":  appName,
		"sha":  appSHA,
		"host": host,
	})

	if err := configureAppEnv().Run(os.Args); err != nil {
		logger.WithField("err", err).Error("shutting down due to an error")
		_ = os.Stderr.Sync()

		os.Exit(1)
	}
}

func configureAppEnv() *cli.App {
	app := cli.NewApp()
	app.Name = appName
	app.Version = appSHA
	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "article-store-uri",
			Value:   "in-memory://",
			EnvVars: []string{"ARTICLE_STORE_URI"},
			Usage:   "URI for connecting to the article store (supported URI's: in-memory://, postgresql://user@host:5432/articles?sslmode=disable)",
		},
		&cli.StringFlag{
			Name:    "search-index-uri",
			Value:   "in-memory://",
			EnvVars: []string{"SEARCH_INDEX_URI"},
			Usage:   "URI for connecting to the search index (supported URI's: in-memory://, es://node1:9200,...,nodeN:9200)",
		},
		&cli.StringFlag{
			Name:    "queue-uri",
			Value:   "in-memory://",
			EnvVars: []string{"QUEUE_URI"},
			Usage:   "URI for connecting to the index mutation queue (supported URI's: in-memory://, kafka://broker1:9092,...,brokerN:9092/topic)",
		},
		&cli.StringFlag{
			Name:    "queue-group",
			Value:   "articlesearch-indexer",
			EnvVars: []string{"QUEUE_GROUP"},
			Usage:   "Consumer group ID to use when consuming from a kafka-backed queue",
		},
		&cli.DurationFlag{
			Name:    "indexer-retry-interval",
			Value:   5 * time.Second,
			EnvVars: []string{"INDEXER_RETRY_INTERVAL"},
			Usage:   "Time to wait before re-entering the job consume loop after a delivery error",
		},
	}

	app.Action = execute

	return app
}

func execute(appCtx *cli.Context) error {
	store, err := getArticleStore(appCtx.String("article-store-uri"))
	if err != nil {
		return err
	}

	index, err := getSearchIndex(appCtx.String("search-index-uri"))
	if err != nil {
		return err
	}

	consumer, err := getJobConsumer(
		appCtx.String("queue-uri"), appCtx.String("queue-group"),
	)
	if err != nil {
		return err
	}

	var svcGrp service.Group

	indexerSvc, err := indexer.New(indexer.Config{
		StoreAPI:      store,
		IndexAPI:      index,
		Jobs:          consumer,
		RetryInterval: appCtx.Duration("indexer-retry-interval"),
		Logger:        logger.WithField("service", "indexer"),
	})
	if err != nil {
		return err
	}
	svcGrp = append(svcGrp, indexerSvc)

	ctx, cancelFn := context.WithCancel(context.Background())
	defer cancelFn()

	// Launch a separate process to listen and respond to os signals
	// and trigger a graceful shutdown.
	go func() {
		signalChan := make(chan os.Signal, 1)
		signal.Notify(signalChan, syscall.SIGINT, syscall.SIGHUP)

		select {
		case s := <-signalChan:
			logger.WithField("signal", s.String()).Info("shutting down due to os signal")
			cancelFn()
		case <-ctx.Done():
		}
	}()

	if err := svcGrp.Execute(ctx); err != nil {
		return err
	}

	logger.Info("shutdown complete")

	return nil
}

func getArticleStore(storeURI string) (article.Store, error) {
	if storeURI == "" {
		return nil, fmt.Errorf("article store URI must be specified with --article-store-uri")
	}

	url, err := url.Parse(storeURI)
	if err != nil {
		return nil, fmt.Errorf("failed to parse article store URI: %w", err)
	}

	switch url.Scheme {
	case "in-memory":
		logger.Info("using in-memory article store")

		return articlememory.NewInMemoryStore(), nil
	case "postgresql":
		logger.Info("using postgres article store")

		store, err := pg.NewPostgresStore(storeURI)
		if err != nil {
			return nil, err
		}

		if err := store.Migrate(); err != nil {
			return nil, err
		}

		return store, nil
	default:
		return nil, fmt.Errorf("unsupported article store URI scheme: %q", url.Scheme)
	}
}

func getSearchIndex(indexURI string) (search.Index, error) {
	if indexURI == "" {
		return nil, fmt.Errorf("search index URI must be specified with --search-index-uri")
	}

	url, err := url.Parse(indexURI)
	if err != nil {
		return nil, fmt.Errorf("failed to parse search index URI: %w", err)
	}

	switch url.Scheme {
	case "in-memory":
		logger.Info("using in-memory search index")

		return searchmemory.NewInMemoryIndex()
	case "es":
		nodes := strings.Split(url.Host, ",")
		for i := 0; i < len(nodes); i++ {
			nodes[i] = "http://" + nodes[i]
		}

		logger.Info("using ES search index")

		return es.NewArticleIndex(nodes, false)
	default:
		return nil, fmt.Errorf("unsupported search index URI scheme: %q", url.Scheme)
	}
}

func getJobConsumer(queueURI, groupID string) (dispatch.Consumer, error) {
	if queueURI == "" {
		return nil, fmt.Errorf("queue URI must be specified with --queue-uri")
	}

	url, err := url.Parse(queueURI)
	if err != nil {
		return nil, fmt.Errorf("failed to parse queue URI: %w", err)
	}

	switch url.Scheme {
	case "in-memory":
		logger.Info("using in-memory queue")

		return memoryqueue.NewQueue(memoryQueueSize), nil
	case "kafka":
		topic := strings.TrimPrefix(url.Path, "/")
		if topic == "" {
			return nil, fmt.Errorf("kafka queue URI must include a topic: %q", queueURI)
		}

		brokers := strings.Split(url.Host, ",")

		logger.Info("using kafka queue")

		return kafkaqueue.NewConsumer(
			brokers, topic, groupID, logger.WithField("component", "queue"),
		), nil
	default:
		return nil, fmt.Errorf("unsupported queue URI scheme: %q", url.Scheme)
	}
}

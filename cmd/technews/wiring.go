package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/pevans/technews/collection"
	"github.com/pevans/technews/config"
	"github.com/pevans/technews/feedsource"
	"github.com/pevans/technews/newsapi"
	"github.com/pevans/technews/storage"
	"github.com/pevans/technews/telemetry"
)

const (
	mongoDatabase   = "technews"
	mongoCollection = "recent"
	connectTimeout  = 10 * time.Second
)

// closer releases a backend opened by the helpers below.
type closer func() error

func noopCloser() error { return nil }

// openStorage connects the recent-items backend named by sc.
func openStorage(ctx context.Context, sc config.StorageConfig) (storage.Storage, closer, error) {
	switch sc.Type {
	case config.StorageMemory:
		return storage.NewMemory(sc.QuotaBytes), noopCloser, nil

	case config.StorageSQLite, config.StoragePostgres:
		driver := storage.DriverSQLite
		if sc.Type == config.StoragePostgres {
			driver = storage.DriverPostgres
		}
		s, err := storage.NewSQL(driver, sc.DSN, sc.QuotaBytes)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil

	case config.StorageRedis:
		opts, err := redis.ParseURL(sc.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid redis dsn: %w", err)
		}
		rdb := redis.NewClient(opts)

		pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			rdb.Close()
			return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		return storage.NewRedis(rdb, sc.Prefix, sc.QuotaBytes), rdb.Close, nil

	case config.StorageMongo:
		connCtx, cancel := context.WithTimeout(ctx, connectTimeout)
		defer cancel()

		client, err := mongo.Connect(connCtx, options.Client().ApplyURI(sc.DSN))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to mongo: %w", err)
		}
		if err := client.Ping(connCtx, nil); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, nil, fmt.Errorf("failed to ping mongo: %w", err)
		}

		coll := client.Database(mongoDatabase).Collection(mongoCollection)
		return storage.NewMongo(coll, sc.QuotaBytes), func() error {
			return client.Disconnect(context.Background())
		}, nil
	}

	return nil, nil, fmt.Errorf("invalid storage type: %q", sc.Type)
}

// newPipeline builds the article pipeline over the configured upstream.
func newPipeline(c *config.Config, logger *zap.Logger) (*collection.Pipeline, error) {
	opts := []collection.Option{
		collection.WithPageSize(c.NewsAPI.PageSize),
		collection.WithLogger(logger),
	}

	switch c.Upstream.Type {
	case config.UpstreamRSS:
		src := feedsource.New(c.Upstream.FeedsByLang(), feedsource.WithLogger(logger))
		return collection.NewPipeline(src, append(opts, collection.WithQuery(c.Upstream.Query))...), nil

	case config.UpstreamNewsAPI:
		if c.NewsAPI.Key == "" {
			return nil, errors.New("newsapi key is required (set TECHNEWS_NEWSAPI_KEY)")
		}
		client := newsapi.NewClient(c.NewsAPI.BaseURL, c.NewsAPI.Key, newsapi.WithDefaultQuery(c.NewsAPI.Query))
		return collection.NewPipeline(client, append(opts, collection.WithQuery(c.NewsAPI.Query))...), nil
	}

	return nil, fmt.Errorf("invalid upstream type: %q", c.Upstream.Type)
}

// newRecorder builds the web-vitals recorder: always the NDJSON file, plus
// NATS when a URL is configured.
func newRecorder(tc config.TelemetryConfig, logger *zap.Logger) (*telemetry.Recorder, *telemetry.FileSink, closer, error) {
	file := telemetry.NewFileSink(tc.Path)
	if tc.NATSURL == "" {
		return telemetry.NewRecorder(file, logger), file, noopCloser, nil
	}

	ns, err := telemetry.ConnectNATS(tc.NATSURL, tc.NATSSubject)
	if err != nil {
		return nil, nil, nil, err
	}
	return telemetry.NewRecorder(telemetry.MultiSink{file, ns}, logger), file, ns.Close, nil
}

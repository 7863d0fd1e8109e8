// ABOUTME: Store wiring for CLI commands
// ABOUTME: Opens the configured backend and wraps it with the Redis cache when REDIS_URL is set
package cli

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/harperreed/orgmap/cache"
	"github.com/harperreed/orgmap/config"
	"github.com/harperreed/orgmap/db"
	"github.com/harperreed/orgmap/directory"
	"github.com/harperreed/orgmap/docstore"
)

// openBackend opens one storage backend without a cache.
func openBackend(ctx context.Context, cfg *config.Config, backend string) (db.Store, error) {
	switch backend {
	case config.StoreSQLite:
		return db.OpenSQLiteStore(cfg.DBPath)
	case config.StoreBadger:
		return docstore.OpenBadgerStore(cfg.BadgerDir)
	case config.StoreMongo:
		return docstore.OpenMongoStore(ctx, cfg.MongoURI, cfg.MongoDB)
	default:
		return nil, fmt.Errorf("unknown store backend %q", backend)
	}
}

func openStore(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (db.Store, error) {
	store, err := openBackend(ctx, cfg, cfg.Store)
	if err != nil {
		return nil, withCode(exitStore, fmt.Errorf("open %s store: %w", cfg.Store, err))
	}
	fields := logrus.Fields{"store": cfg.Store}
	if cfg.RedisURL == "" {
		log.WithFields(fields).Debug("store opened")
		return store, nil
	}

	client, err := cache.Dial(ctx, cfg.RedisURL)
	if err != nil {
		_ = store.Close()
		return nil, withCode(exitStore, err)
	}
	fields["cache_ttl"] = cfg.CacheTTL.String()
	log.WithFields(fields).Debug("store opened with redis cache")
	return cache.NewCachedStore(store, client, cfg.CacheTTL, log), nil
}

// openService opens the store and builds the directory service over it.
// The caller closes the returned store.
func (a *app) openService(ctx context.Context, opts ...directory.Option) (*directory.Service, db.Store, error) {
	store, err := openStore(ctx, a.cfg, a.log)
	if err != nil {
		return nil, nil, err
	}
	return directory.NewService(store, a.log, opts...), store, nil
}

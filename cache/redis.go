// ABOUTME: Redis read-through cache for per-account person lists
// ABOUTME: Wraps any Store; writes bump a per-account generation and drop the cached list
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/harperreed/orgmap/db"
	"github.com/harperreed/orgmap/models"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	keyPrefix = "orgmap:persons:"
	genPrefix = "orgmap:persons-gen:"
)

var errStaleFill = errors.New("person list changed while loading")

// CachedStore serves ListPersons from Redis. A Redis failure is logged and the
// call falls through to the wrapped store.
type CachedStore struct {
	db.Store
	client *redis.Client
	ttl    time.Duration
	log    logrus.FieldLogger
}

var _ db.Store = (*CachedStore)(nil)

// Dial parses redisURL and checks the server is reachable.
func Dial(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return client, nil
}

// NewCachedStore wraps store with client.
func NewCachedStore(store db.Store, client *redis.Client, ttl time.Duration, log logrus.FieldLogger) *CachedStore {
	return &CachedStore{Store: store, client: client, ttl: ttl, log: log}
}

func key(accountID string) string {
	return keyPrefix + accountID
}

func genKey(accountID string) string {
	return genPrefix + accountID
}

func (c *CachedStore) ListPersons(ctx context.Context, accountID string) ([]models.Person, error) {
	raw, err := c.client.Get(ctx, key(accountID)).Bytes()
	switch {
	case err == nil:
		var persons []models.Person
		if err := json.Unmarshal(raw, &persons); err == nil {
			return persons, nil
		}
		c.log.WithField("account_id", accountID).Warn("discarding undecodable cached person list")
	case err != redis.Nil:
		c.log.WithError(err).WithField("account_id", accountID).Warn("person cache read failed")
	}

	gen, genErr := c.generation(ctx, accountID)
	persons, err := c.Store.ListPersons(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if genErr != nil {
		c.log.WithError(genErr).WithField("account_id", accountID).Warn("person cache read failed")
		return persons, nil
	}
	c.fill(ctx, accountID, gen, persons)
	return persons, nil
}

// generation returns the invalidation counter of accountID. A missing
// counter reads as zero.
func (c *CachedStore) generation(ctx context.Context, accountID string) (int64, error) {
	gen, err := c.client.Get(ctx, genKey(accountID)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return gen, err
}

// fill caches persons only if no invalidation ran since gen was read.
func (c *CachedStore) fill(ctx context.Context, accountID string, gen int64, persons []models.Person) {
	log := c.log.WithField("account_id", accountID)
	data, err := json.Marshal(persons)
	if err != nil {
		log.WithError(err).Warn("person cache write failed")
		return
	}

	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, genKey(accountID)).Int64()
		if err != nil && err != redis.Nil {
			return err
		}
		if cur != gen {
			return errStaleFill
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key(accountID), data, c.ttl)
			return nil
		})
		return err
	}, genKey(accountID))

	switch {
	case err == nil:
	case errors.Is(err, errStaleFill), errors.Is(err, redis.TxFailedErr):
		log.Debug("skipping stale person list")
	default:
		log.WithError(err).Warn("person cache write failed")
	}
}

func (c *CachedStore) CreatePerson(ctx context.Context, person *models.Person) error {
	if err := c.Store.CreatePerson(ctx, person); err != nil {
		return err
	}
	c.invalidate(ctx, person.AccountID)
	return nil
}

func (c *CachedStore) SavePersons(ctx context.Context, accountID string, persons []models.Person) error {
	defer c.invalidate(ctx, accountID)
	return c.Store.SavePersons(ctx, accountID, persons)
}

func (c *CachedStore) ApplyBulkUpdate(ctx context.Context, accountID string, updates []models.RelationUpdate) error {
	defer c.invalidate(ctx, accountID)
	return c.Store.ApplyBulkUpdate(ctx, accountID, updates)
}

func (c *CachedStore) DeletePerson(ctx context.Context, accountID, email string) error {
	defer c.invalidate(ctx, accountID)
	return c.Store.DeletePerson(ctx, accountID, email)
}

// Invalidate bumps the generation of accountID and drops its cached list, so
// a load that started before the write cannot cache what it read.
func (c *CachedStore) Invalidate(ctx context.Context, accountID string) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, genKey(accountID))
		pipe.Del(ctx, key(accountID))
		return nil
	})
	return err
}

func (c *CachedStore) invalidate(ctx context.Context, accountID string) {
	if err := c.Invalidate(ctx, accountID); err != nil {
		c.log.WithError(err).WithField("account_id", accountID).Warn("person cache invalidation failed")
	}
}

// Close closes the wrapped store and the Redis client.
func (c *CachedStore) Close() error {
	storeErr := c.Store.Close()
	if err := c.client.Close(); err != nil && storeErr == nil {
		return err
	}
	return storeErr
}

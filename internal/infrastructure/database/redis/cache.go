package redis

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/turtacn/LegisGraph/internal/domain/legislation"
	"github.com/turtacn/LegisGraph/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/LegisGraph/pkg/errors"
)

var (
	ErrCacheMiss           = errors.New(errors.ErrCodeCacheMiss, "cache miss")
	ErrSerializationFailed = errors.New(errors.ErrCodeSerialization, "serialization failed")
)

const (
	DefaultPrefix    = "legisgraph:"
	DefaultTTL       = 24 * time.Hour
	defaultJitter    = 0.1
	resultsNamespace = "result:"
)

// ResultCache stores results as JSON under <prefix>result:<content hash>.
// Concurrent lookups of one key share a single round trip.
type ResultCache struct {
	client *Client
	logger logging.Logger
	prefix string
	ttl    time.Duration
	jitter float64
	group  singleflight.Group
}

var _ legislation.ResultCache = (*ResultCache)(nil)

type CacheOption func(*ResultCache)

func WithPrefix(prefix string) CacheOption {
	return func(c *ResultCache) { c.prefix = prefix }
}

func WithTTL(ttl time.Duration) CacheOption {
	return func(c *ResultCache) { c.ttl = ttl }
}

// WithJitter spreads expirations by +/- fraction of the TTL.  Zero disables
// jitter.
func WithJitter(fraction float64) CacheOption {
	return func(c *ResultCache) { c.jitter = fraction }
}

func NewResultCache(client *Client, log logging.Logger, opts ...CacheOption) *ResultCache {
	if log == nil {
		log = logging.NewNopLogger()
	}
	c := &ResultCache{
		client: client,
		logger: log,
		prefix: DefaultPrefix,
		ttl:    DefaultTTL,
		jitter: defaultJitter,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *ResultCache) fullKey(key string) string {
	return c.prefix + resultsNamespace + key
}

func (c *ResultCache) jitterTTL(ttl time.Duration) time.Duration {
	if ttl <= 0 || c.jitter <= 0 {
		return ttl
	}
	delta := float64(ttl) * c.jitter * (rand.Float64()*2 - 1)
	return ttl + time.Duration(delta)
}

// GetResult returns the cached result or ErrCacheMiss.
func (c *ResultCache) GetResult(ctx context.Context, key string) (*legislation.Result, error) {
	fullKey := c.fullKey(key)
	v, err, _ := c.group.Do(fullKey, func() (interface{}, error) {
		data, err := c.client.Get(ctx, fullKey).Bytes()
		if stderrors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeCacheError, "failed to get from cache")
		}
		return data, nil
	})
	if err != nil {
		return nil, err
	}

	var res legislation.Result
	if err := json.Unmarshal(v.([]byte), &res); err != nil {
		c.logger.Warn("Dropping undecodable cache entry", logging.String("key", fullKey), logging.Err(err))
		_ = c.client.Del(ctx, fullKey).Err()
		return nil, ErrCacheMiss
	}
	return &res, nil
}

// SetResult stores result under key with the configured TTL.
func (c *ResultCache) SetResult(ctx context.Context, key string, result *legislation.Result) error {
	data, err := json.Marshal(result)
	if err != nil {
		return ErrSerializationFailed.WithCause(err)
	}
	if err := c.client.Set(ctx, c.fullKey(key), data, c.jitterTTL(c.ttl)).Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "failed to set cache")
	}
	return nil
}

// Invalidate drops the cached results of keys.
func (c *ResultCache) Invalidate(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.fullKey(k)
	}
	if err := c.client.Del(ctx, full...).Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "failed to invalidate cache")
	}
	return nil
}

//Personal.AI order the ending

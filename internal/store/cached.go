package store

import (
	"context"
	"time"

	"github.com/wonny/rollstitch/backend/internal/contracts"
	"github.com/wonny/rollstitch/backend/pkg/logger"
	"github.com/wonny/rollstitch/backend/pkg/redis"
)

// CachedStore puts a Redis read-through cache in front of a SeriesStore.
// Saves write the backing store first, then refresh the cache entry.
// Cache failures are logged and never fail the call.
type CachedStore struct {
	next  contracts.SeriesStore
	cache SeriesCache
	log   *logger.Logger
}

// SeriesCache is the JSON cache used by CachedStore (redis.Cache)
type SeriesCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

var _ SeriesCache = (*redis.Cache)(nil)

var _ contracts.SeriesStore = (*CachedStore)(nil)

// NewCachedStore wraps next with cache
func NewCachedStore(next contracts.SeriesStore, cache SeriesCache, log *logger.Logger) *CachedStore {
	if log == nil {
		log = logger.Nop()
	}
	return &CachedStore{
		next:  next,
		cache: cache,
		log:   log.WithField("module", "series_cache"),
	}
}

// GetRollCalendar reads through the cache
func (c *CachedStore) GetRollCalendar(ctx context.Context, instrument string) (*contracts.RollSchedule, error) {
	var out contracts.RollSchedule
	key := redis.RollCalendarKey(instrument)
	if c.lookup(ctx, key, &out) {
		return &out, nil
	}

	schedule, err := c.next.GetRollCalendar(ctx, instrument)
	if err != nil {
		return nil, err
	}
	if !schedule.Empty() {
		c.store(ctx, key, schedule, redis.TTLLong)
	}
	return schedule, nil
}

// SaveRollCalendar writes through and refreshes the cache
func (c *CachedStore) SaveRollCalendar(ctx context.Context, instrument string, schedule *contracts.RollSchedule) error {
	if err := c.next.SaveRollCalendar(ctx, instrument, schedule); err != nil {
		return err
	}
	c.store(ctx, redis.RollCalendarKey(instrument), schedule, redis.TTLLong)
	return nil
}

// GetMultiplePrices reads through the cache
func (c *CachedStore) GetMultiplePrices(ctx context.Context, instrument string) (*contracts.MultiplePriceSeries, error) {
	var out contracts.MultiplePriceSeries
	key := redis.MultiplePricesKey(instrument)
	if c.lookup(ctx, key, &out) {
		return &out, nil
	}

	series, err := c.next.GetMultiplePrices(ctx, instrument)
	if err != nil {
		return nil, err
	}
	if !series.Empty() {
		c.store(ctx, key, series, redis.TTLDaily)
	}
	return series, nil
}

// SaveMultiplePrices writes through and refreshes the cache
func (c *CachedStore) SaveMultiplePrices(ctx context.Context, instrument string, series *contracts.MultiplePriceSeries) error {
	if err := c.next.SaveMultiplePrices(ctx, instrument, series); err != nil {
		return err
	}
	c.store(ctx, redis.MultiplePricesKey(instrument), series, redis.TTLDaily)
	return nil
}

// GetAdjustedPrices reads through the cache
func (c *CachedStore) GetAdjustedPrices(ctx context.Context, instrument string) (*contracts.AdjustedPriceSeries, error) {
	var out contracts.AdjustedPriceSeries
	key := redis.AdjustedPricesKey(instrument)
	if c.lookup(ctx, key, &out) {
		return &out, nil
	}

	series, err := c.next.GetAdjustedPrices(ctx, instrument)
	if err != nil {
		return nil, err
	}
	if !series.Empty() {
		c.store(ctx, key, series, redis.TTLDaily)
	}
	return series, nil
}

// SaveAdjustedPrices writes through and refreshes the cache
func (c *CachedStore) SaveAdjustedPrices(ctx context.Context, instrument string, series *contracts.AdjustedPriceSeries) error {
	if err := c.next.SaveAdjustedPrices(ctx, instrument, series); err != nil {
		return err
	}
	c.store(ctx, redis.AdjustedPricesKey(instrument), series, redis.TTLDaily)
	return nil
}

func (c *CachedStore) lookup(ctx context.Context, key string, dest interface{}) bool {
	found, err := c.cache.Get(ctx, key, dest)
	if err != nil {
		c.log.WithError(err).WithField("key", key).Warn("Cache read failed")
		return false
	}
	return found
}

// store refreshes key. A failed refresh evicts the key so the next read goes
// to the backing store instead of a stale entry.
func (c *CachedStore) store(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	err := c.cache.Set(ctx, key, value, ttl)
	if err == nil {
		return
	}
	c.log.WithError(err).WithField("key", key).Warn("Cache write failed, evicting")
	if err := c.cache.Delete(ctx, key); err != nil {
		c.log.WithError(err).WithField("key", key).Error("Cache eviction failed")
	}
}

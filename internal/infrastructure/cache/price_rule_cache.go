package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/erp/pricing/internal/domain/pricing"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	defaultRuleCacheTTL = 30 * time.Second
	activeRulesKey      = "rules:active"
)

// CachedPriceRuleRepository keeps the active rule set in memory for a short TTL.
// Concurrent misses share a single database load. Save invalidates the cache.
type CachedPriceRuleRepository struct {
	next   pricing.PriceRuleRepository
	ttl    time.Duration
	now    func() time.Time
	logger *zap.Logger
	group  singleflight.Group

	mu        sync.RWMutex
	rules     []pricing.PriceRule
	expiresAt time.Time
	// generation is bumped on invalidation so a load that started before a
	// Save does not repopulate the cache with stale rules
	generation uint64

	hits   int64
	misses int64
}

// PriceRuleCacheOption is a functional option for configuring the cache
type PriceRuleCacheOption func(*CachedPriceRuleRepository)

// WithRuleCacheTTL sets how long the active rules stay cached
func WithRuleCacheTTL(ttl time.Duration) PriceRuleCacheOption {
	return func(c *CachedPriceRuleRepository) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithRuleCacheLogger sets the logger for the cache
func WithRuleCacheLogger(logger *zap.Logger) PriceRuleCacheOption {
	return func(c *CachedPriceRuleRepository) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithRuleCacheClock overrides the time source
func WithRuleCacheClock(now func() time.Time) PriceRuleCacheOption {
	return func(c *CachedPriceRuleRepository) {
		c.now = now
	}
}

// NewCachedPriceRuleRepository wraps a rule repository with an active-rule cache
func NewCachedPriceRuleRepository(next pricing.PriceRuleRepository, opts ...PriceRuleCacheOption) *CachedPriceRuleRepository {
	c := &CachedPriceRuleRepository{
		next:   next,
		ttl:    defaultRuleCacheTTL,
		now:    time.Now,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FindActive returns the cached active rules, loading them on a miss
func (c *CachedPriceRuleRepository) FindActive(ctx context.Context) ([]pricing.PriceRule, error) {
	c.mu.RLock()
	if c.rules != nil && c.now().Before(c.expiresAt) {
		rules := c.rules
		c.mu.RUnlock()
		atomic.AddInt64(&c.hits, 1)
		return rules, nil
	}
	generation := c.generation
	c.mu.RUnlock()

	atomic.AddInt64(&c.misses, 1)
	v, err, shared := c.group.Do(activeRulesKey, func() (any, error) {
		rules, err := c.next.FindActive(ctx)
		if err != nil {
			return nil, err
		}
		if rules == nil {
			rules = []pricing.PriceRule{}
		}
		c.mu.Lock()
		if c.generation == generation {
			c.rules = rules
			c.expiresAt = c.now().Add(c.ttl)
		}
		c.mu.Unlock()
		return rules, nil
	})
	if err != nil {
		return nil, err
	}
	c.logger.Debug("price rule cache miss", zap.Bool("shared_load", shared))
	return v.([]pricing.PriceRule), nil
}

// FindByID reads through to the underlying repository
func (c *CachedPriceRuleRepository) FindByID(ctx context.Context, id uuid.UUID) (*pricing.PriceRule, error) {
	return c.next.FindByID(ctx, id)
}

// FindAll reads through to the underlying repository
func (c *CachedPriceRuleRepository) FindAll(ctx context.Context) ([]pricing.PriceRule, error) {
	return c.next.FindAll(ctx)
}

// Save stores the rule and drops the cached rule set
func (c *CachedPriceRuleRepository) Save(ctx context.Context, rule *pricing.PriceRule) error {
	if err := c.next.Save(ctx, rule); err != nil {
		return err
	}
	c.Invalidate()
	return nil
}

// Invalidate drops the cached rule set
func (c *CachedPriceRuleRepository) Invalidate() {
	c.mu.Lock()
	c.rules = nil
	c.generation++
	c.mu.Unlock()
	c.group.Forget(activeRulesKey)
}

// Stats returns the cache hit and miss counts
func (c *CachedPriceRuleRepository) Stats() (hits, misses int64) {
	return atomic.LoadInt64(&c.hits), atomic.LoadInt64(&c.misses)
}

// Ensure CachedPriceRuleRepository implements pricing.PriceRuleRepository
var _ pricing.PriceRuleRepository = (*CachedPriceRuleRepository)(nil)

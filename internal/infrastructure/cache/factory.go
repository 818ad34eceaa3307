package cache

import (
	"fmt"

	"github.com/erp/pricing/internal/domain/pricing"
	"github.com/erp/pricing/internal/infrastructure/config"
	"go.uber.org/zap"
)

// UsageStoreFactory creates the promotion usage store selected by configuration
type UsageStoreFactory struct {
	backend     string
	redisConfig config.RedisConfig
	promotions  PromotionFinder
	database    pricing.UsageStore
	logger      *zap.Logger
	// allowDatabaseFallback lets a redis backend degrade to the database store
	allowDatabaseFallback bool
}

// UsageStoreFactoryOption is a functional option for configuring the factory
type UsageStoreFactoryOption func(*UsageStoreFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) UsageStoreFactoryOption {
	return func(f *UsageStoreFactory) {
		f.logger = logger
	}
}

// WithDatabaseFallback controls whether to fall back to the database store when Redis is unavailable.
// Default is true (allow fallback)
func WithDatabaseFallback(allow bool) UsageStoreFactoryOption {
	return func(f *UsageStoreFactory) {
		f.allowDatabaseFallback = allow
	}
}

// NewUsageStoreFactory creates a new factory. database is the transactional
// store used for the database backend and as the Redis fallback.
func NewUsageStoreFactory(
	backend string,
	redisCfg config.RedisConfig,
	promotions PromotionFinder,
	database pricing.UsageStore,
	opts ...UsageStoreFactoryOption,
) *UsageStoreFactory {
	f := &UsageStoreFactory{
		backend:               backend,
		redisConfig:           redisCfg,
		promotions:            promotions,
		database:              database,
		logger:                zap.NewNop(),
		allowDatabaseFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateRedisStore creates a Redis-based usage store
func (f *UsageStoreFactory) CreateRedisStore() (*RedisUsageTracker, error) {
	client, err := NewRedisClient(f.redisConfig.Addr(), f.redisConfig.Password, f.redisConfig.DB)
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis usage store: %w", err)
	}
	return NewRedisUsageTracker(client, f.promotions, ""), nil
}

// CreateInMemoryStore creates an in-memory usage store.
// WARNING: In-memory stores do not share counters across process instances,
// so usage caps are only enforced per instance.
func (f *UsageStoreFactory) CreateInMemoryStore() *InMemoryUsageTracker {
	return NewInMemoryUsageTracker(f.promotions)
}

// CreateStore creates the configured usage store and returns a function that
// releases its resources. The name of the backend actually used is returned
// for logging and metrics.
func (f *UsageStoreFactory) CreateStore() (pricing.UsageStore, string, func() error, error) {
	noop := func() error { return nil }

	switch f.backend {
	case config.UsageBackendMemory:
		f.logger.Warn("using in-memory promotion usage store; caps are enforced per instance only")
		return f.CreateInMemoryStore(), config.UsageBackendMemory, noop, nil

	case config.UsageBackendRedis:
		store, err := f.CreateRedisStore()
		if err == nil {
			f.logger.Info("using Redis promotion usage store", zap.String("addr", f.redisConfig.Addr()))
			return store, config.UsageBackendRedis, store.Close, nil
		}
		if !f.allowDatabaseFallback || f.database == nil {
			return nil, "", nil, fmt.Errorf("Redis required for promotion usage but unavailable: %w", err)
		}
		f.logger.Warn("Redis unavailable, falling back to database promotion usage store", zap.Error(err))
		return f.database, config.UsageBackendDatabase, noop, nil

	case config.UsageBackendDatabase, "":
		if f.database == nil {
			return nil, "", nil, fmt.Errorf("database usage store is not configured")
		}
		return f.database, config.UsageBackendDatabase, noop, nil

	default:
		return nil, "", nil, fmt.Errorf("unknown usage backend: %s", f.backend)
	}
}

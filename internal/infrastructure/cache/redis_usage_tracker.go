package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/erp/pricing/internal/domain/pricing"
	"github.com/erp/pricing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const defaultUsageKeyPrefix = "pricing:usage:"

// recordUsageScript checks and increments both counters in one atomic step.
//
// KEYS[1] set of recorded order ids
// KEYS[2] global usage counter
// KEYS[3] hash of per-customer usage counts
// ARGV[1] order id, ARGV[2] customer id
// ARGV[3] global cap, ARGV[4] per-customer cap (-1 when uncapped)
// ARGV[5] usage count to start from when the counter is missing
var recordUsageScript = redis.NewScript(`
if redis.call('SISMEMBER', KEYS[1], ARGV[1]) == 1 then
  return 'already_recorded'
end
local used = tonumber(redis.call('GET', KEYS[2]) or ARGV[5])
local cap = tonumber(ARGV[3])
if cap >= 0 and used >= cap then
  return 'limit_exceeded'
end
local mine = tonumber(redis.call('HGET', KEYS[3], ARGV[2]) or '0')
local customerCap = tonumber(ARGV[4])
if customerCap >= 0 and mine >= customerCap then
  return 'customer_limit_exceeded'
end
redis.call('SADD', KEYS[1], ARGV[1])
redis.call('SET', KEYS[2], used + 1)
redis.call('HINCRBY', KEYS[3], ARGV[2], 1)
return 'recorded'
`)

// RedisUsageTracker implements pricing.UsageStore using Redis.
// This is suitable for distributed deployments where multiple instances
// need to share usage counters. All keys of one promotion share a hash tag
// so the script also runs on Redis Cluster.
type RedisUsageTracker struct {
	client     redis.UniversalClient
	promotions PromotionFinder
	keyPrefix  string
}

// NewRedisClient creates a Redis client and checks the connection
func NewRedisClient(addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// NewRedisUsageTracker creates a tracker with an existing Redis client
func NewRedisUsageTracker(client redis.UniversalClient, promotions PromotionFinder, keyPrefix string) *RedisUsageTracker {
	if keyPrefix == "" {
		keyPrefix = defaultUsageKeyPrefix
	}
	return &RedisUsageTracker{
		client:     client,
		promotions: promotions,
		keyPrefix:  keyPrefix,
	}
}

func (s *RedisUsageTracker) keys(promotionID uuid.UUID) []string {
	tag := s.keyPrefix + "{" + promotionID.String() + "}"
	return []string{tag + ":orders", tag + ":count", tag + ":customers"}
}

func capArg(limit *int) int {
	if limit == nil {
		return -1
	}
	return *limit
}

// Record records one usage of a promotion by an order
func (s *RedisUsageTracker) Record(ctx context.Context, req pricing.UsageRequest) (pricing.UsageOutcome, error) {
	promo, err := s.promotions.FindByID(ctx, req.PromotionID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return "", pricing.ErrPromotionNotFound
		}
		return "", err
	}

	result, err := recordUsageScript.Run(ctx, s.client, s.keys(req.PromotionID),
		req.OrderID.String(),
		req.CustomerID.String(),
		capArg(promo.MaxUsageCount),
		capArg(promo.MaxUsagePerCustomer),
		promo.CurrentUsageCount,
	).Text()
	if err != nil {
		return "", fmt.Errorf("failed to record promotion usage: %w", err)
	}

	outcome := pricing.UsageOutcome(result)
	switch outcome {
	case pricing.UsageRecorded, pricing.UsageAlreadyRecorded, pricing.UsageLimitExceeded, pricing.UsageCustomerLimitExceeded:
		return outcome, nil
	default:
		return "", fmt.Errorf("unexpected usage script result %q", result)
	}
}

// UsageCount returns the global usage count held in Redis for a promotion
func (s *RedisUsageTracker) UsageCount(ctx context.Context, promotionID uuid.UUID) (int, error) {
	n, err := s.client.Get(ctx, s.keys(promotionID)[1]).Int()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read promotion usage: %w", err)
	}
	return n, nil
}

// CustomerUsageCount returns how many usages a customer has recorded for a promotion
func (s *RedisUsageTracker) CustomerUsageCount(ctx context.Context, promotionID, customerID uuid.UUID) (int, error) {
	n, err := s.client.HGet(ctx, s.keys(promotionID)[2], customerID.String()).Int()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read customer usage: %w", err)
	}
	return n, nil
}

// Close closes the Redis client
func (s *RedisUsageTracker) Close() error {
	return s.client.Close()
}

// Ensure RedisUsageTracker implements pricing.UsageStore
var _ pricing.UsageStore = (*RedisUsageTracker)(nil)

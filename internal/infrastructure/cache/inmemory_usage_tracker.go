package cache

import (
	"context"
	"errors"
	"sync"

	"github.com/erp/pricing/internal/domain/pricing"
	"github.com/erp/pricing/internal/domain/shared"
	"github.com/google/uuid"
)

// PromotionFinder loads the caps of a promotion
type PromotionFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*pricing.Promotion, error)
}

type orderKey struct {
	promotionID uuid.UUID
	orderID     uuid.UUID
}

type customerKey struct {
	promotionID uuid.UUID
	customerID  uuid.UUID
}

// InMemoryUsageTracker implements pricing.UsageStore with process-local maps.
// It is suitable for single-instance deployments and testing; counters are
// not shared with other instances and are lost on restart.
type InMemoryUsageTracker struct {
	promotions PromotionFinder

	mu        sync.Mutex
	orders    map[orderKey]struct{}
	global    map[uuid.UUID]int
	customers map[customerKey]int
}

// NewInMemoryUsageTracker creates a new in-memory usage tracker
func NewInMemoryUsageTracker(promotions PromotionFinder) *InMemoryUsageTracker {
	return &InMemoryUsageTracker{
		promotions: promotions,
		orders:     make(map[orderKey]struct{}),
		global:     make(map[uuid.UUID]int),
		customers:  make(map[customerKey]int),
	}
}

// Record records one usage of a promotion by an order
func (s *InMemoryUsageTracker) Record(ctx context.Context, req pricing.UsageRequest) (pricing.UsageOutcome, error) {
	promo, err := s.promotions.FindByID(ctx, req.PromotionID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return "", pricing.ErrPromotionNotFound
		}
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ok := orderKey{promotionID: req.PromotionID, orderID: req.OrderID}
	if _, seen := s.orders[ok]; seen {
		return pricing.UsageAlreadyRecorded, nil
	}

	used, tracked := s.global[req.PromotionID]
	if !tracked {
		used = promo.CurrentUsageCount
	}
	if promo.MaxUsageCount != nil && used >= *promo.MaxUsageCount {
		return pricing.UsageLimitExceeded, nil
	}

	ck := customerKey{promotionID: req.PromotionID, customerID: req.CustomerID}
	if promo.MaxUsagePerCustomer != nil && s.customers[ck] >= *promo.MaxUsagePerCustomer {
		return pricing.UsageCustomerLimitExceeded, nil
	}

	s.orders[ok] = struct{}{}
	s.global[req.PromotionID] = used + 1
	s.customers[ck]++
	return pricing.UsageRecorded, nil
}

// CustomerUsageCount returns how many usages a customer has recorded for a promotion
func (s *InMemoryUsageTracker) CustomerUsageCount(_ context.Context, promotionID, customerID uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.customers[customerKey{promotionID: promotionID, customerID: customerID}], nil
}

// UsageCount returns the global usage count tracked for a promotion.
// Promotions this process has not recorded yet report zero.
func (s *InMemoryUsageTracker) UsageCount(_ context.Context, promotionID uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.global[promotionID], nil
}

// Ensure InMemoryUsageTracker implements pricing.UsageStore
var _ pricing.UsageStore = (*InMemoryUsageTracker)(nil)

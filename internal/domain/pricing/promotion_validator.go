package pricing

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/erp/pricing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PromotionValidation is the outcome of validating a promotion code
type PromotionValidation struct {
	Valid             bool
	Promotion         *Promotion
	Reason            ValidationReason
	Message           string
	EstimatedDiscount decimal.Decimal
}

func rejected(promotion *Promotion, reason ValidationReason) *PromotionValidation {
	return &PromotionValidation{
		Valid:             false,
		Promotion:         promotion,
		Reason:            reason,
		Message:           reason.Message(),
		EstimatedDiscount: decimal.Zero,
	}
}

// PromotionValidator decides whether a promotion applies to a customer and order.
// Gates run in order and the first failure is reported:
//  1. the code exists
//  2. the promotion is valid (active, started, not expired, below global cap
//     as stored and as counted by the usage tracker)
//  3. the customer is eligible, directly or through a parent customer
//  4. the customer is below the per-customer cap
//  5. the order total meets the minimum
type PromotionValidator struct {
	promotions PromotionRepository
	usage      UsageCounter
	hierarchy  *CustomerHierarchyResolver
}

// NewPromotionValidator creates a validator. usage may be nil when usage is not
// tracked, in which case only Promotion.CurrentUsageCount is checked.
func NewPromotionValidator(promotions PromotionRepository, usage UsageCounter, hierarchy *CustomerHierarchyResolver) *PromotionValidator {
	return &PromotionValidator{
		promotions: promotions,
		usage:      usage,
		hierarchy:  hierarchy,
	}
}

// Validate runs all five gates for a promotion code
func (v *PromotionValidator) Validate(ctx context.Context, code string, customer Customer, orderTotal decimal.Decimal, now time.Time) (*PromotionValidation, error) {
	promotion, reason, err := v.Resolve(ctx, code, customer, now)
	if err != nil {
		return nil, err
	}
	if reason != ReasonNone {
		return rejected(promotion, reason), nil
	}
	if orderTotal.LessThan(promotion.MinimumOrderAmount) {
		return rejected(promotion, ReasonMinimumNotMet), nil
	}

	return &PromotionValidation{
		Valid:             true,
		Promotion:         promotion,
		EstimatedDiscount: promotion.EstimateDiscount(orderTotal),
	}, nil
}

// Resolve looks up a code and runs gates 1 to 4. The minimum order amount is
// left to the caller, which may know the order total only later.
func (v *PromotionValidator) Resolve(ctx context.Context, code string, customer Customer, now time.Time) (*Promotion, ValidationReason, error) {
	normalized := NormalizePromotionCode(code)
	if normalized == "" {
		return nil, ReasonNotFound, nil
	}

	promotion, err := v.promotions.FindByCode(ctx, normalized)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ReasonNotFound, nil
		}
		return nil, ReasonNone, fmt.Errorf("failed to load promotion %q: %w", normalized, err)
	}

	reason, err := v.Check(ctx, promotion, customer, now)
	if err != nil {
		return nil, ReasonNone, err
	}
	return promotion, reason, nil
}

// Check runs gates 2 to 4 against an already loaded promotion
func (v *PromotionValidator) Check(ctx context.Context, promotion *Promotion, customer Customer, now time.Time) (ValidationReason, error) {
	return v.check(ctx, promotion, newCustomerScope(customer), now)
}

// GetAvailablePromotions returns the auto-applied promotions a customer can
// use right now, including those inherited from a parent customer
func (v *PromotionValidator) GetAvailablePromotions(ctx context.Context, customer Customer, now time.Time) ([]Promotion, error) {
	candidates, err := v.promotions.FindAutoApplied(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load auto-applied promotions: %w", err)
	}

	scope := newCustomerScope(customer)
	available := make([]Promotion, 0, len(candidates))
	for i := range candidates {
		promotion := &candidates[i]
		if promotion.RequiresCode {
			continue
		}
		reason, err := v.check(ctx, promotion, scope, now)
		if err != nil {
			return nil, err
		}
		if reason == ReasonNone {
			available = append(available, *promotion)
		}
	}

	sort.SliceStable(available, func(i, j int) bool {
		return available[i].Code < available[j].Code
	})
	return available, nil
}

func (v *PromotionValidator) check(ctx context.Context, promotion *Promotion, scope *customerScope, now time.Time) (ValidationReason, error) {
	if reason := promotion.ValidityReason(now); reason != ReasonNone {
		return reason, nil
	}

	if promotion.MaxUsageCount != nil && v.usage != nil {
		used, err := v.usage.UsageCount(ctx, promotion.ID)
		if err != nil {
			return ReasonNone, fmt.Errorf("failed to read promotion usage: %w", err)
		}
		if promotion.HasReachedLimitAt(used) {
			return ReasonLimitReached, nil
		}
	}

	eligible, err := v.isEligible(ctx, promotion, scope)
	if err != nil {
		return ReasonNone, err
	}
	if !eligible {
		return ReasonNotEligible, nil
	}

	if promotion.MaxUsagePerCustomer != nil && v.usage != nil {
		count, err := v.usage.CustomerUsageCount(ctx, promotion.ID, scope.customer.ID)
		if err != nil {
			return ReasonNone, fmt.Errorf("failed to read customer usage: %w", err)
		}
		if promotion.HasReachedCustomerLimit(count) {
			return ReasonCustomerLimitReached, nil
		}
	}

	return ReasonNone, nil
}

func (v *PromotionValidator) isEligible(ctx context.Context, promotion *Promotion, scope *customerScope) (bool, error) {
	if promotion.IsEligibleCustomer(scope.customer, nil) {
		return true, nil
	}
	if !promotion.needsAncestors() || v.hierarchy == nil {
		return false, nil
	}
	ancestors, err := scope.ancestors(ctx, v.hierarchy)
	if err != nil {
		return false, fmt.Errorf("failed to resolve customer hierarchy: %w", err)
	}
	return promotion.IsEligibleCustomer(scope.customer, ancestors), nil
}

// customerScope memoizes the parent chain while several promotions are checked
type customerScope struct {
	customer  Customer
	chain     []uuid.UUID
	chainDone bool
}

func newCustomerScope(customer Customer) *customerScope {
	return &customerScope{customer: customer}
}

func (s *customerScope) ancestors(ctx context.Context, resolver *CustomerHierarchyResolver) ([]uuid.UUID, error) {
	if s.chainDone {
		return s.chain, nil
	}
	chain, err := resolver.Ancestors(ctx, s.customer)
	if err != nil {
		return nil, err
	}
	s.chain = chain
	s.chainDone = true
	return chain, nil
}

package pricing

import (
	"time"

	"github.com/erp/pricing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RuleScope is the targeting dimension of a price rule
type RuleScope string

// Rule scopes
const (
	ScopeProduct      RuleScope = "product"
	ScopeCategory     RuleScope = "category"
	ScopeManufacturer RuleScope = "manufacturer"
	ScopeCustomerTier RuleScope = "customer_tier"
	ScopeCustomer     RuleScope = "customer"
	ScopeCustomerType RuleScope = "customer_type"
)

// IsValid reports whether the scope is known
func (s RuleScope) IsValid() bool {
	switch s {
	case ScopeProduct, ScopeCategory, ScopeManufacturer, ScopeCustomerTier, ScopeCustomer, ScopeCustomerType:
		return true
	default:
		return false
	}
}

// DiscountType tells how a rule's DiscountValue is interpreted
type DiscountType string

// Discount types
const (
	DiscountPercentage  DiscountType = "percentage"
	DiscountFixedAmount DiscountType = "fixed_amount"
)

// IsValid reports whether the discount type is known
func (d DiscountType) IsValid() bool {
	return d == DiscountPercentage || d == DiscountFixedAmount
}

// RuleTarget is what a price rule applies to. The set of implementations is
// closed: each scope has exactly one variant carrying only its own key.
type RuleTarget interface {
	Scope() RuleScope
	Matches(q RuleQuery) bool
	isRuleTarget()
}

// ProductTarget targets a single product
type ProductTarget struct {
	ProductID uuid.UUID
}

func (ProductTarget) Scope() RuleScope { return ScopeProduct }
func (t ProductTarget) Matches(q RuleQuery) bool { return q.ProductID == t.ProductID }
func (ProductTarget) isRuleTarget() {}

// CategoryTarget targets every product in a category
type CategoryTarget struct {
	CategoryID uuid.UUID
}

func (CategoryTarget) Scope() RuleScope { return ScopeCategory }
func (t CategoryTarget) Matches(q RuleQuery) bool {
	return q.CategoryID != nil && *q.CategoryID == t.CategoryID
}
func (CategoryTarget) isRuleTarget() {}

// ManufacturerTarget targets every product of a manufacturer
type ManufacturerTarget struct {
	ManufacturerID uuid.UUID
}

func (ManufacturerTarget) Scope() RuleScope { return ScopeManufacturer }
func (t ManufacturerTarget) Matches(q RuleQuery) bool {
	return q.ManufacturerID != nil && *q.ManufacturerID == t.ManufacturerID
}
func (ManufacturerTarget) isRuleTarget() {}

// TierTarget targets every customer of a tier
type TierTarget struct {
	Tier CustomerTier
}

func (TierTarget) Scope() RuleScope { return ScopeCustomerTier }
func (t TierTarget) Matches(q RuleQuery) bool {
	return ParseCustomerTier(string(q.Customer.Tier)) == ParseCustomerTier(string(t.Tier))
}
func (TierTarget) isRuleTarget() {}

// CustomerTarget targets one customer
type CustomerTarget struct {
	CustomerID uuid.UUID
}

func (CustomerTarget) Scope() RuleScope { return ScopeCustomer }
func (t CustomerTarget) Matches(q RuleQuery) bool { return q.Customer.ID == t.CustomerID }
func (CustomerTarget) isRuleTarget() {}

// CustomerTypeTarget targets every customer of a type
type CustomerTypeTarget struct {
	Type CustomerType
}

func (CustomerTypeTarget) Scope() RuleScope { return ScopeCustomerType }
func (t CustomerTypeTarget) Matches(q RuleQuery) bool {
	return ParseCustomerType(string(q.Customer.Type)) == ParseCustomerType(string(t.Type))
}
func (CustomerTypeTarget) isRuleTarget() {}

// PriceRule is an administrator-configured, scoped and time-bounded discount
type PriceRule struct {
	shared.BaseEntity
	Name            string
	Target          RuleTarget
	DiscountType    DiscountType
	DiscountValue   decimal.Decimal
	MinimumQuantity *int
	MaximumQuantity *int
	StartDate       *time.Time
	EndDate         *time.Time
	IsActive        bool
	Priority        int
}

// Scope returns the scope of the rule's target
func (r *PriceRule) Scope() RuleScope {
	if r.Target == nil {
		return ""
	}
	return r.Target.Scope()
}

// Validate checks the rule's internal consistency
func (r *PriceRule) Validate() error {
	if r.Target == nil {
		return newRuleError("Price rule must have a target")
	}
	if !r.DiscountType.IsValid() {
		return newRuleError("Unknown discount type: " + string(r.DiscountType))
	}
	if r.DiscountValue.IsNegative() {
		return newRuleError("Discount value cannot be negative")
	}
	if r.DiscountType == DiscountPercentage && r.DiscountValue.GreaterThan(hundred) {
		return newRuleError("Percentage discount cannot exceed 100")
	}
	if r.MinimumQuantity != nil && *r.MinimumQuantity < 0 {
		return newRuleError("Minimum quantity cannot be negative")
	}
	if r.MinimumQuantity != nil && r.MaximumQuantity != nil && *r.MinimumQuantity > *r.MaximumQuantity {
		return newRuleError("Minimum quantity cannot exceed maximum quantity")
	}
	if r.StartDate != nil && r.EndDate != nil && r.StartDate.After(*r.EndDate) {
		return newRuleError("Start date cannot be after end date")
	}
	return nil
}

// IsValidAt reports whether the rule is active and inside its date window.
// Missing bounds are open-ended.
func (r *PriceRule) IsValidAt(now time.Time) bool {
	if !r.IsActive {
		return false
	}
	if r.StartDate != nil && now.Before(*r.StartDate) {
		return false
	}
	if r.EndDate != nil && now.After(*r.EndDate) {
		return false
	}
	return true
}

// AppliesToQuantity reports whether quantity lies within the inclusive bounds
func (r *PriceRule) AppliesToQuantity(quantity int) bool {
	if r.MinimumQuantity != nil && quantity < *r.MinimumQuantity {
		return false
	}
	if r.MaximumQuantity != nil && quantity > *r.MaximumQuantity {
		return false
	}
	return true
}

// UnitDiscount returns the per-unit amount this rule takes off the given
// reference price. The result never exceeds the reference price.
func (r *PriceRule) UnitDiscount(reference decimal.Decimal) decimal.Decimal {
	if !reference.IsPositive() {
		return decimal.Zero
	}
	var amount decimal.Decimal
	switch r.DiscountType {
	case DiscountPercentage:
		amount = reference.Mul(r.DiscountValue).Div(hundred)
	case DiscountFixedAmount:
		amount = r.DiscountValue
	default:
		return decimal.Zero
	}
	if amount.GreaterThan(reference) {
		return reference
	}
	return amount
}

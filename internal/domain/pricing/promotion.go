package pricing

import (
	"slices"
	"strings"
	"time"

	"github.com/erp/pricing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// PromotionType is the kind of benefit a promotion grants
type PromotionType string

// Promotion types
const (
	PromotionPercentageDiscount  PromotionType = "percentage_discount"
	PromotionFixedAmountDiscount PromotionType = "fixed_amount_discount"
	PromotionFreeShipping        PromotionType = "free_shipping"
	PromotionBuyOneGetOne        PromotionType = "buy_one_get_one"
	PromotionBuyXGetYFree        PromotionType = "buy_x_get_y_free"
	PromotionGiftWithPurchase    PromotionType = "gift_with_purchase"
	PromotionBundleDiscount      PromotionType = "bundle_discount"
)

// IsValid reports whether the promotion type is known
func (t PromotionType) IsValid() bool {
	switch t {
	case PromotionPercentageDiscount, PromotionFixedAmountDiscount, PromotionFreeShipping,
		PromotionBuyOneGetOne, PromotionBuyXGetYFree, PromotionGiftWithPurchase, PromotionBundleDiscount:
		return true
	default:
		return false
	}
}

// AffectsPrice reports whether the type reduces item prices.
// Free shipping and gifts are fulfilled elsewhere.
func (t PromotionType) AffectsPrice() bool {
	return t != PromotionFreeShipping && t != PromotionGiftWithPurchase
}

// ValidationReason explains why a promotion does not apply.
// The empty reason means the promotion applies.
type ValidationReason string

// Validation reasons, in gate order
const (
	ReasonNone                 ValidationReason = ""
	ReasonNotFound             ValidationReason = "not_found"
	ReasonInactive             ValidationReason = "inactive"
	ReasonNotStarted           ValidationReason = "not_started"
	ReasonExpired              ValidationReason = "expired"
	ReasonLimitReached         ValidationReason = "limit_reached"
	ReasonNotEligible          ValidationReason = "not_eligible"
	ReasonCustomerLimitReached ValidationReason = "customer_limit_reached"
	ReasonMinimumNotMet        ValidationReason = "minimum_not_met"

	// ReasonProductNotEligible is reported on a line whose product the
	// applied promotion does not cover
	ReasonProductNotEligible ValidationReason = "product_not_eligible"
)

var reasonMessages = map[ValidationReason]string{
	ReasonNotFound:             "Promotion code not found",
	ReasonInactive:             "Promotion is not active",
	ReasonNotStarted:           "Promotion has not started yet",
	ReasonExpired:              "Promotion has expired",
	ReasonLimitReached:         "Promotion usage limit has been reached",
	ReasonNotEligible:          "Customer is not eligible for this promotion",
	ReasonCustomerLimitReached: "Customer has reached the usage limit for this promotion",
	ReasonMinimumNotMet:        "Order total does not meet the promotion minimum",
	ReasonProductNotEligible:   "Product is not covered by this promotion",
}

// Message returns a human readable explanation
func (r ValidationReason) Message() string {
	return reasonMessages[r]
}

// NormalizePromotionCode trims and upper-cases a promotion code.
// A new Caser is used per call because casers are stateful.
func NormalizePromotionCode(code string) string {
	return cases.Upper(language.Und).String(strings.TrimSpace(code))
}

// Promotion is a customer-facing discount instrument
type Promotion struct {
	shared.BaseEntity
	Code        string
	Name        string
	Description string
	Type        PromotionType
	Value       decimal.Decimal

	// BuyQuantity and GetQuantity parameterize buy-X-get-Y and bundle promotions
	BuyQuantity int
	GetQuantity int

	MinimumOrderAmount    decimal.Decimal
	MaximumDiscountAmount *decimal.Decimal

	StartDate *time.Time
	EndDate   *time.Time
	IsActive  bool

	MaxUsageCount       *int
	MaxUsagePerCustomer *int
	CurrentUsageCount   int

	AppliesToAllProducts bool
	ProductIDs           []uuid.UUID
	CategoryIDs          []uuid.UUID

	AppliesToAllCustomers bool
	RequiredCustomerTier  *CustomerTier
	RequiredCustomerType  *CustomerType
	CustomerID            *uuid.UUID
	ApplyToChildCustomers bool

	RequiresCode                bool
	CanStackWithOtherPromotions bool
	CanStackWithTierPricing     bool
}

// Validate checks the promotion's internal consistency
func (p *Promotion) Validate() error {
	if NormalizePromotionCode(p.Code) == "" {
		return newPromotionError("Promotion code cannot be empty")
	}
	if !p.Type.IsValid() {
		return newPromotionError("Unknown promotion type: " + string(p.Type))
	}
	if p.Value.IsNegative() {
		return newPromotionError("Promotion value cannot be negative")
	}
	if (p.Type == PromotionPercentageDiscount || p.Type == PromotionBundleDiscount) && p.Value.GreaterThan(hundred) {
		return newPromotionError("Percentage value cannot exceed 100")
	}
	if p.Type == PromotionBuyXGetYFree && (p.BuyQuantity <= 0 || p.GetQuantity <= 0) {
		return newPromotionError("Buy-X-get-Y promotions need positive buy and get quantities")
	}
	if p.Type == PromotionBundleDiscount && p.BuyQuantity <= 0 {
		return newPromotionError("Bundle promotions need a positive bundle quantity")
	}
	if p.MinimumOrderAmount.IsNegative() {
		return newPromotionError("Minimum order amount cannot be negative")
	}
	if p.MaximumDiscountAmount != nil && p.MaximumDiscountAmount.IsNegative() {
		return newPromotionError("Maximum discount amount cannot be negative")
	}
	if p.MaxUsageCount != nil && *p.MaxUsageCount < 0 {
		return newPromotionError("Maximum usage count cannot be negative")
	}
	if p.MaxUsagePerCustomer != nil && *p.MaxUsagePerCustomer < 0 {
		return newPromotionError("Maximum usage per customer cannot be negative")
	}
	if p.StartDate != nil && p.EndDate != nil && p.StartDate.After(*p.EndDate) {
		return newPromotionError("Start date cannot be after end date")
	}
	return nil
}

// HasReachedLimit reports whether the global usage cap is used up
func (p *Promotion) HasReachedLimit() bool {
	return p.MaxUsageCount != nil && p.CurrentUsageCount >= *p.MaxUsageCount
}

// HasReachedLimitAt reports whether the global cap is used up when the
// tracker has counted tracked usages, whichever count is higher
func (p *Promotion) HasReachedLimitAt(tracked int) bool {
	return p.MaxUsageCount != nil && max(p.CurrentUsageCount, tracked) >= *p.MaxUsageCount
}

// HasReachedCustomerLimit reports whether a customer with the given usage
// count may no longer use the promotion
func (p *Promotion) HasReachedCustomerLimit(customerUsage int) bool {
	return p.MaxUsagePerCustomer != nil && customerUsage >= *p.MaxUsagePerCustomer
}

// ValidityReason returns why the promotion is not currently valid, or
// ReasonNone. Checks run in a fixed order: active, started, expired, limit.
func (p *Promotion) ValidityReason(now time.Time) ValidationReason {
	switch {
	case !p.IsActive:
		return ReasonInactive
	case p.StartDate != nil && now.Before(*p.StartDate):
		return ReasonNotStarted
	case p.EndDate != nil && now.After(*p.EndDate):
		return ReasonExpired
	case p.HasReachedLimit():
		return ReasonLimitReached
	default:
		return ReasonNone
	}
}

// IsValid reports active, inside the date window and below the usage cap
func (p *Promotion) IsValid(now time.Time) bool {
	return p.ValidityReason(now) == ReasonNone
}

// IsEligibleCustomer applies the customer eligibility rules. ancestors holds
// the customer's parent chain, nearest first.
func (p *Promotion) IsEligibleCustomer(customer Customer, ancestors []uuid.UUID) bool {
	if p.AppliesToAllCustomers {
		return true
	}
	if p.RequiredCustomerTier != nil && ParseCustomerTier(string(*p.RequiredCustomerTier)) == ParseCustomerTier(string(customer.Tier)) {
		return true
	}
	if p.RequiredCustomerType != nil && ParseCustomerType(string(*p.RequiredCustomerType)) == ParseCustomerType(string(customer.Type)) {
		return true
	}
	if p.CustomerID != nil {
		if *p.CustomerID == customer.ID {
			return true
		}
		if p.ApplyToChildCustomers && slices.Contains(ancestors, *p.CustomerID) {
			return true
		}
	}
	return false
}

// needsAncestors reports whether eligibility can depend on the parent chain
func (p *Promotion) needsAncestors() bool {
	return !p.AppliesToAllCustomers && p.CustomerID != nil && p.ApplyToChildCustomers
}

// AppliesToProduct reports whether the product takes part in the promotion
func (p *Promotion) AppliesToProduct(product Product) bool {
	if p.AppliesToAllProducts {
		return true
	}
	if slices.Contains(p.ProductIDs, product.ID) {
		return true
	}
	return product.CategoryID != nil && slices.Contains(p.CategoryIDs, *product.CategoryID)
}

// LineDiscount returns the raw, uncapped discount a single line earns.
// Fixed-amount promotions are order level and return zero here.
func (p *Promotion) LineDiscount(unitPrice decimal.Decimal, quantity int) decimal.Decimal {
	if quantity <= 0 || !unitPrice.IsPositive() {
		return decimal.Zero
	}
	subtotal := unitPrice.Mul(decimal.NewFromInt(int64(quantity)))

	switch p.Type {
	case PromotionPercentageDiscount:
		return subtotal.Mul(p.Value).Div(hundred)
	case PromotionBuyOneGetOne:
		return unitPrice.Mul(decimal.NewFromInt(int64(quantity / 2)))
	case PromotionBuyXGetYFree:
		group := p.BuyQuantity + p.GetQuantity
		if p.BuyQuantity <= 0 || p.GetQuantity <= 0 {
			return decimal.Zero
		}
		free := (quantity / group) * p.GetQuantity
		return unitPrice.Mul(decimal.NewFromInt(int64(free)))
	case PromotionBundleDiscount:
		if p.BuyQuantity <= 0 || quantity < p.BuyQuantity {
			return decimal.Zero
		}
		return subtotal.Mul(p.Value).Div(hundred)
	default:
		return decimal.Zero
	}
}

// CapDiscount limits an amount to MaximumDiscountAmount when one is set
func (p *Promotion) CapDiscount(amount decimal.Decimal) decimal.Decimal {
	if amount.IsNegative() {
		return decimal.Zero
	}
	if p.MaximumDiscountAmount != nil && amount.GreaterThan(*p.MaximumDiscountAmount) {
		return *p.MaximumDiscountAmount
	}
	return amount
}

// EstimateDiscount estimates the discount for an order total without line
// detail. Only percentage and fixed-amount promotions can be estimated.
func (p *Promotion) EstimateDiscount(orderTotal decimal.Decimal) decimal.Decimal {
	if !orderTotal.IsPositive() {
		return decimal.Zero
	}
	var amount decimal.Decimal
	switch p.Type {
	case PromotionPercentageDiscount:
		amount = orderTotal.Mul(p.Value).Div(hundred)
	case PromotionFixedAmountDiscount:
		amount = decimal.Min(p.Value, orderTotal)
	default:
		return decimal.Zero
	}
	return p.CapDiscount(amount).Round(2)
}

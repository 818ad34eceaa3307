package pricing

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// CustomerTier is the purchase-volume grade assigned to a customer.
// Tiers are maintained outside the engine; the engine only reads them.
type CustomerTier string

// Known customer tiers, best first
const (
	TierA CustomerTier = "A"
	TierB CustomerTier = "B"
	TierC CustomerTier = "C"
)

// ParseCustomerTier normalizes a raw tier value. Unrecognized values are kept
// as-is so they can be reported, but they never carry a discount.
func ParseCustomerTier(raw string) CustomerTier {
	return CustomerTier(strings.ToUpper(strings.TrimSpace(raw)))
}

// IsKnown reports whether the tier is one of A, B or C
func (t CustomerTier) IsKnown() bool {
	switch t {
	case TierA, TierB, TierC:
		return true
	default:
		return false
	}
}

// String returns the tier code
func (t CustomerTier) String() string {
	return string(t)
}

var hundred = decimal.NewFromInt(100)

// TierDiscountTable maps customer tiers to a discount percentage (0-100).
// It is immutable after construction and safe for concurrent use.
type TierDiscountTable struct {
	rates map[CustomerTier]decimal.Decimal
}

// DefaultTierDiscounts returns the stock percentages: A=15%, B=10%, C=5%
func DefaultTierDiscounts() map[CustomerTier]decimal.Decimal {
	return map[CustomerTier]decimal.Decimal{
		TierA: decimal.NewFromInt(15),
		TierB: decimal.NewFromInt(10),
		TierC: decimal.NewFromInt(5),
	}
}

// DefaultTierDiscountTable creates a table with the stock percentages
func DefaultTierDiscountTable() *TierDiscountTable {
	return &TierDiscountTable{rates: DefaultTierDiscounts()}
}

// NewTierDiscountTable creates a table from the given percentages.
// Every percentage must lie within [0, 100].
func NewTierDiscountTable(rates map[CustomerTier]decimal.Decimal) (*TierDiscountTable, error) {
	table := &TierDiscountTable{rates: make(map[CustomerTier]decimal.Decimal, len(rates))}
	for tier, pct := range rates {
		if pct.IsNegative() || pct.GreaterThan(hundred) {
			return nil, fmt.Errorf("tier %s discount must be between 0 and 100, got %s", tier, pct.String())
		}
		table.rates[ParseCustomerTier(string(tier))] = pct
	}
	return table, nil
}

// GetTierDiscountPercentage returns the discount percentage for a tier.
// Unknown tiers get 0 instead of an error so a price can always be produced.
func (t *TierDiscountTable) GetTierDiscountPercentage(tier CustomerTier) decimal.Decimal {
	if t == nil {
		return decimal.Zero
	}
	if pct, ok := t.rates[ParseCustomerTier(string(tier))]; ok {
		return pct
	}
	return decimal.Zero
}

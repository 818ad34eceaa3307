package pricing

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// RuleQuery describes the line being priced for rule matching
type RuleQuery struct {
	ProductID      uuid.UUID
	CategoryID     *uuid.UUID
	ManufacturerID *uuid.UUID
	Customer       Customer
	Quantity       int
	At             time.Time
}

// NewRuleQuery builds a query for a product/customer/quantity at a point in time
func NewRuleQuery(product Product, customer Customer, quantity int, at time.Time) RuleQuery {
	return RuleQuery{
		ProductID:      product.ID,
		CategoryID:     product.CategoryID,
		ManufacturerID: product.ManufacturerID,
		Customer:       customer,
		Quantity:       quantity,
		At:             at,
	}
}

// RuleMatcher selects the single best price rule for a line.
// It holds no state and is safe for concurrent use.
type RuleMatcher struct{}

// NewRuleMatcher creates a RuleMatcher
func NewRuleMatcher() *RuleMatcher {
	return &RuleMatcher{}
}

// Candidates returns every rule that applies to the query, best first
func (m *RuleMatcher) Candidates(rules []PriceRule, q RuleQuery) []*PriceRule {
	candidates := make([]*PriceRule, 0)
	for i := range rules {
		rule := &rules[i]
		if rule.Target == nil || !rule.Target.Matches(q) {
			continue
		}
		if !rule.AppliesToQuantity(q.Quantity) {
			continue
		}
		if !rule.IsValidAt(q.At) {
			continue
		}
		candidates = append(candidates, rule)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return outranks(candidates[i], candidates[j])
	})
	return candidates
}

// FindBestRule returns the winning rule, or nil when no rule applies.
// Precedence: higher priority, then most recently created, then lowest ID.
func (m *RuleMatcher) FindBestRule(rules []PriceRule, q RuleQuery) *PriceRule {
	candidates := m.Candidates(rules, q)
	if len(candidates) == 0 {
		return nil
	}
	return candidates[0]
}

// outranks reports whether a takes precedence over b
func outranks(a, b *PriceRule) bool {
	if a.Priority != b.Priority {
		return a.Priority > b.Priority
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID.String() < b.ID.String()
}

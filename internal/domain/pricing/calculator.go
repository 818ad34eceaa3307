package pricing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/erp/pricing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const defaultProductLoadConcurrency = 8

// LineItem is one product and quantity of an order
type LineItem struct {
	ProductID uuid.UUID
	Quantity  int
}

// PriceCalculationResult is the priced line. Percentages are shares of the
// base price; amounts are per-unit discounts multiplied by the quantity.
type PriceCalculationResult struct {
	ProductID uuid.UUID
	Quantity  int
	BasePrice decimal.Decimal

	TierDiscountPercent      decimal.Decimal
	TierDiscountAmount       decimal.Decimal
	RuleDiscountPercent      decimal.Decimal
	RuleDiscountAmount       decimal.Decimal
	PromotionDiscountPercent decimal.Decimal
	PromotionDiscountAmount  decimal.Decimal

	FinalUnitPrice       decimal.Decimal
	LineTotal            decimal.Decimal
	TotalDiscount        decimal.Decimal
	TotalDiscountPercent decimal.Decimal

	AppliedRuleID      *uuid.UUID
	AppliedPromotionID *uuid.UUID
	PromotionCode      string
	PromotionReason    ValidationReason
}

// PromotionSummary describes the promotion applied to an order
type PromotionSummary struct {
	ID             uuid.UUID
	Code           string
	Name           string
	Type           PromotionType
	DiscountAmount decimal.Decimal
}

// OrderPriceResult is the priced order
type OrderPriceResult struct {
	Lines            []PriceCalculationResult
	Subtotal         decimal.Decimal
	TotalDiscount    decimal.Decimal
	Total            decimal.Decimal
	AppliedPromotion *PromotionSummary
	PromotionReason  ValidationReason
}

// CalculatorOption configures a PriceCalculator
type CalculatorOption func(*PriceCalculator)

// WithClock overrides the time source
func WithClock(now func() time.Time) CalculatorOption {
	return func(c *PriceCalculator) {
		if now != nil {
			c.now = now
		}
	}
}

// WithAutoApplyPromotions enables picking the best code-less promotion when
// no code is given
func WithAutoApplyPromotions(enabled bool) CalculatorOption {
	return func(c *PriceCalculator) {
		c.autoApply = enabled
	}
}

// WithProductLoadConcurrency bounds concurrent product lookups in a batch
func WithProductLoadConcurrency(n int) CalculatorOption {
	return func(c *PriceCalculator) {
		if n > 0 {
			c.loadLimit = n
		}
	}
}

// PriceCalculator composes tier, rule and promotion discounts into final
// prices. It only reads its collaborators and is safe for concurrent use.
type PriceCalculator struct {
	products  ProductReader
	customers CustomerReader
	rules     PriceRuleReader
	tiers     *TierDiscountTable
	matcher   *RuleMatcher
	validator *PromotionValidator
	autoApply bool
	loadLimit int
	now       func() time.Time
}

// NewPriceCalculator creates a calculator. validator may be nil to disable
// promotions entirely.
func NewPriceCalculator(
	products ProductReader,
	customers CustomerReader,
	rules PriceRuleReader,
	tiers *TierDiscountTable,
	validator *PromotionValidator,
	opts ...CalculatorOption,
) *PriceCalculator {
	if tiers == nil {
		tiers = DefaultTierDiscountTable()
	}
	c := &PriceCalculator{
		products:  products,
		customers: customers,
		rules:     rules,
		tiers:     tiers,
		matcher:   NewRuleMatcher(),
		validator: validator,
		loadLimit: defaultProductLoadConcurrency,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CalculatePrice prices a single product for a customer. It behaves exactly
// like a one-line CalculatePrices.
func (c *PriceCalculator) CalculatePrice(ctx context.Context, productID, customerID uuid.UUID, quantity int, code string) (*PriceCalculationResult, error) {
	order, err := c.CalculatePrices(ctx, []LineItem{{ProductID: productID, Quantity: quantity}}, customerID, code)
	if err != nil {
		return nil, err
	}
	line := order.Lines[0]
	return &line, nil
}

// CalculatePrices prices an order. At most one promotion applies per order;
// its capped discount is spread over the eligible lines in whole cents.
// Unknown products or customers abort the calculation, while every promotion
// problem degrades to no promotion discount with the reason in the result.
func (c *PriceCalculator) CalculatePrices(ctx context.Context, items []LineItem, customerID uuid.UUID, code string) (*OrderPriceResult, error) {
	if len(items) == 0 {
		return nil, ErrNoItems
	}
	for _, item := range items {
		if item.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}
	}

	now := c.now()

	customer, err := c.loadCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	products, err := c.loadProducts(ctx, items)
	if err != nil {
		return nil, err
	}
	rules, err := c.rules.FindActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load price rules: %w", err)
	}

	drafts := make([]lineDraft, len(items))
	for i, item := range items {
		query := NewRuleQuery(products[i], *customer, item.Quantity, now)
		drafts[i] = lineDraft{
			product:  products[i],
			quantity: item.Quantity,
			rule:     c.matcher.FindBestRule(rules, query),
		}
	}

	pass, reason, err := c.choosePromotion(ctx, code, *customer, drafts, now)
	if err != nil {
		return nil, err
	}
	return pass.result(NormalizePromotionCode(code), reason), nil
}

func (c *PriceCalculator) loadCustomer(ctx context.Context, id uuid.UUID) (*Customer, error) {
	customer, err := c.customers.FindCustomer(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("failed to load customer %s: %w", id, err)
	}
	return customer, nil
}

func (c *PriceCalculator) loadProducts(ctx context.Context, items []LineItem) ([]Product, error) {
	products := make([]Product, len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.loadLimit)
	for i, item := range items {
		g.Go(func() error {
			product, err := c.products.FindProduct(gctx, item.ProductID)
			if err != nil {
				if errors.Is(err, shared.ErrNotFound) {
					return ErrProductNotFound
				}
				return fmt.Errorf("failed to load product %s: %w", item.ProductID, err)
			}
			products[i] = *product
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return products, nil
}

// choosePromotion prices the order with the promotion that applies to it.
// A code is validated through gates 1 to 4 and the order minimum. Without a
// code, and with auto-apply on, the available promotion giving the largest
// order discount wins; it must beat the order priced without any promotion.
func (c *PriceCalculator) choosePromotion(ctx context.Context, code string, customer Customer, drafts []lineDraft, now time.Time) (*orderPass, ValidationReason, error) {
	baseline := c.price(drafts, customer, nil)
	if c.validator == nil {
		return baseline, ReasonNone, nil
	}

	if strings.TrimSpace(code) != "" {
		promotion, reason, err := c.validator.Resolve(ctx, code, customer, now)
		if err != nil {
			return nil, ReasonNone, err
		}
		if reason != ReasonNone {
			return baseline, reason, nil
		}
		pass := c.price(drafts, customer, promotion)
		if pass.postRuleSubtotal.LessThan(promotion.MinimumOrderAmount) {
			return baseline, ReasonMinimumNotMet, nil
		}
		return pass, ReasonNone, nil
	}

	if !c.autoApply {
		return baseline, ReasonNone, nil
	}

	available, err := c.validator.GetAvailablePromotions(ctx, customer, now)
	if err != nil {
		return nil, ReasonNone, err
	}
	best := baseline
	// available is ordered by code, so a strict comparison keeps the lowest code on ties
	for i := range available {
		promotion := &available[i]
		pass := c.price(drafts, customer, promotion)
		if pass.postRuleSubtotal.LessThan(promotion.MinimumOrderAmount) {
			continue
		}
		if pass.totalDiscount().GreaterThan(best.totalDiscount()) {
			best = pass
		}
	}
	return best, ReasonNone, nil
}

// lineDraft is a line with its product loaded and its rule chosen
type lineDraft struct {
	product  Product
	quantity int
	rule     *PriceRule
}

// pricedLine carries the unrounded per-unit figures of one line
type pricedLine struct {
	lineDraft
	tierPercent decimal.Decimal
	tierUnit    decimal.Decimal
	ruleUnit    decimal.Decimal
	afterRule   decimal.Decimal
	eligible    bool
	promotion   decimal.Decimal // allocated line amount
}

func (l *pricedLine) qty() decimal.Decimal {
	return decimal.NewFromInt(int64(l.quantity))
}

// orderPass is one pricing of the whole order under a given promotion
type orderPass struct {
	lines            []pricedLine
	promotion        *Promotion
	postRuleSubtotal decimal.Decimal
	results          []PriceCalculationResult
}

func (c *PriceCalculator) price(drafts []lineDraft, customer Customer, promotion *Promotion) *orderPass {
	tierPercent := c.tiers.GetTierDiscountPercentage(customer.Tier)
	if promotion != nil && !promotion.CanStackWithTierPricing {
		tierPercent = decimal.Zero
	}

	pass := &orderPass{
		lines:            make([]pricedLine, len(drafts)),
		promotion:        promotion,
		postRuleSubtotal: decimal.Zero,
	}
	for i, draft := range drafts {
		base := draft.product.BasePrice
		afterTier := base.Mul(hundred.Sub(tierPercent)).Div(hundred)
		ruleUnit := decimal.Zero
		if draft.rule != nil {
			ruleUnit = draft.rule.UnitDiscount(afterTier)
		}
		line := pricedLine{
			lineDraft:   draft,
			tierPercent: tierPercent,
			tierUnit:    base.Sub(afterTier),
			ruleUnit:    ruleUnit,
			afterRule:   afterTier.Sub(ruleUnit),
			promotion:   decimal.Zero,
		}
		pass.postRuleSubtotal = pass.postRuleSubtotal.Add(line.afterRule.Mul(line.qty()))
		pass.lines[i] = line
	}

	if promotion != nil {
		pass.allocatePromotion()
	}
	pass.results = pass.buildLines()
	return pass
}

// allocatePromotion computes each eligible line's raw contribution, caps the
// order total once and spreads it across lines in whole cents
func (p *orderPass) allocatePromotion() {
	promotion := p.promotion
	weights := make([]int64, len(p.lines))
	raw := decimal.Zero
	eligibleSubtotal := decimal.Zero
	var totalWeight int64

	for i := range p.lines {
		line := &p.lines[i]
		if !promotion.AppliesToProduct(line.product) {
			continue
		}
		line.eligible = true
		subtotal := line.afterRule.Mul(line.qty())
		eligibleSubtotal = eligibleSubtotal.Add(subtotal)

		contribution := subtotal
		if promotion.Type != PromotionFixedAmountDiscount {
			contribution = promotion.LineDiscount(line.afterRule, line.quantity)
			raw = raw.Add(contribution)
		}
		weights[i] = toCents(contribution)
		totalWeight += weights[i]
	}

	if promotion.Type == PromotionFixedAmountDiscount {
		raw = decimal.Min(promotion.Value, eligibleSubtotal)
	}
	total := decimal.Min(promotion.CapDiscount(raw), eligibleSubtotal)
	cents := toCents(total)
	if cents <= 0 || totalWeight <= 0 {
		return
	}

	for i, allocated := range allocateCents(cents, weights) {
		p.lines[i].promotion = fromCents(allocated)
	}
}

func (p *orderPass) buildLines() []PriceCalculationResult {
	results := make([]PriceCalculationResult, len(p.lines))
	for i := range p.lines {
		line := &p.lines[i]
		qty := line.qty()
		base := line.product.BasePrice

		// the promotion is settled on the line total so the allocated cents
		// survive exactly; the unit price is derived from that total
		unit := clamp(line.afterRule, decimal.Zero, base).Round(4)
		subtotal := unit.Mul(qty)
		promoAmount := decimal.Min(line.promotion, subtotal).Round(2)
		lineTotal := subtotal.Sub(promoAmount).Round(2)
		final := unit
		if promoAmount.IsPositive() {
			final = lineTotal.Div(qty).Round(4)
		}

		gross := base.Mul(qty)
		totalDiscount := gross.Sub(lineTotal)

		result := PriceCalculationResult{
			ProductID:                line.product.ID,
			Quantity:                 line.quantity,
			BasePrice:                base,
			TierDiscountPercent:      line.tierPercent,
			TierDiscountAmount:       line.tierUnit.Mul(qty).Round(2),
			RuleDiscountPercent:      shareOf(line.ruleUnit, base),
			RuleDiscountAmount:       line.ruleUnit.Mul(qty).Round(2),
			PromotionDiscountPercent: shareOf(promoAmount, gross),
			PromotionDiscountAmount:  promoAmount,
			FinalUnitPrice:           final,
			LineTotal:                lineTotal,
			TotalDiscount:            totalDiscount,
			TotalDiscountPercent:     shareOf(totalDiscount, gross),
		}
		if !base.IsPositive() {
			result.TierDiscountPercent = decimal.Zero
		}
		if line.rule != nil {
			ruleID := line.rule.ID
			result.AppliedRuleID = &ruleID
		}
		results[i] = result
	}
	return results
}

func (p *orderPass) totalDiscount() decimal.Decimal {
	total := decimal.Zero
	for _, line := range p.results {
		total = total.Add(line.TotalDiscount)
	}
	return total
}

// result assembles the order, tagging lines with the promotion outcome.
// attemptedCode is reported on lines when a code was rejected.
func (p *orderPass) result(attemptedCode string, reason ValidationReason) *OrderPriceResult {
	order := &OrderPriceResult{
		Lines:           p.results,
		Subtotal:        decimal.Zero,
		TotalDiscount:   decimal.Zero,
		Total:           decimal.Zero,
		PromotionReason: reason,
	}

	promotionAmount := decimal.Zero
	for i := range order.Lines {
		line := &order.Lines[i]
		order.Subtotal = order.Subtotal.Add(line.BasePrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
		order.Total = order.Total.Add(line.LineTotal)

		switch {
		case p.promotion == nil:
			line.PromotionCode = attemptedCode
			line.PromotionReason = reason
		case p.lines[i].eligible:
			promotionID := p.promotion.ID
			line.AppliedPromotionID = &promotionID
			line.PromotionCode = p.promotion.Code
			promotionAmount = promotionAmount.Add(line.PromotionDiscountAmount)
		default:
			line.PromotionCode = p.promotion.Code
			line.PromotionReason = ReasonProductNotEligible
		}
	}
	order.TotalDiscount = order.Subtotal.Sub(order.Total)

	if p.promotion != nil {
		order.AppliedPromotion = &PromotionSummary{
			ID:             p.promotion.ID,
			Code:           p.promotion.Code,
			Name:           p.promotion.Name,
			Type:           p.promotion.Type,
			DiscountAmount: promotionAmount,
		}
	}
	return order
}

func clamp(v, lo, hi decimal.Decimal) decimal.Decimal {
	if v.LessThan(lo) {
		return lo
	}
	if v.GreaterThan(hi) {
		return hi
	}
	return v
}

// shareOf returns part as a percentage of whole, or zero when whole is not positive
func shareOf(part, whole decimal.Decimal) decimal.Decimal {
	if !whole.IsPositive() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(hundred).Round(2)
}

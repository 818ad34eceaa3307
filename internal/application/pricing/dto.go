package pricing

import (
	"time"

	"github.com/erp/pricing/internal/domain/pricing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// Calculation DTOs
// =============================================================================

// CalculatePriceRequest asks for the price of one product
type CalculatePriceRequest struct {
	ProductID     uuid.UUID `json:"product_id" binding:"required"`
	CustomerID    uuid.UUID `json:"customer_id" binding:"required"`
	Quantity      int       `json:"quantity" binding:"required,gt=0"`
	PromotionCode string    `json:"promotion_code" binding:"omitempty,max=50"`
}

// LineItemRequest is one order line
type LineItemRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Quantity  int       `json:"quantity" binding:"required,gt=0"`
}

// CalculatePricesRequest asks for the price of a whole order
type CalculatePricesRequest struct {
	CustomerID    uuid.UUID         `json:"customer_id" binding:"required"`
	Items         []LineItemRequest `json:"items" binding:"required,min=1,max=500,dive"`
	PromotionCode string            `json:"promotion_code" binding:"omitempty,max=50"`
}

// PriceCalculationResponse is one priced line
type PriceCalculationResponse struct {
	ProductID uuid.UUID       `json:"product_id"`
	Quantity  int             `json:"quantity"`
	BasePrice decimal.Decimal `json:"base_price"`

	TierDiscountPercent      decimal.Decimal `json:"tier_discount_percent"`
	TierDiscountAmount       decimal.Decimal `json:"tier_discount_amount"`
	RuleDiscountPercent      decimal.Decimal `json:"rule_discount_percent"`
	RuleDiscountAmount       decimal.Decimal `json:"rule_discount_amount"`
	PromotionDiscountPercent decimal.Decimal `json:"promotion_discount_percent"`
	PromotionDiscountAmount  decimal.Decimal `json:"promotion_discount_amount"`

	FinalUnitPrice       decimal.Decimal `json:"final_unit_price"`
	LineTotal            decimal.Decimal `json:"line_total"`
	TotalDiscount        decimal.Decimal `json:"total_discount"`
	TotalDiscountPercent decimal.Decimal `json:"total_discount_percent"`

	AppliedRuleID      *uuid.UUID `json:"applied_rule_id,omitempty"`
	AppliedPromotionID *uuid.UUID `json:"applied_promotion_id,omitempty"`
	PromotionCode      string     `json:"promotion_code,omitempty"`
	PromotionReason    string     `json:"promotion_reason,omitempty"`
	PromotionMessage   string     `json:"promotion_message,omitempty"`
}

// AppliedPromotionResponse describes the promotion applied to an order
type AppliedPromotionResponse struct {
	ID             uuid.UUID       `json:"id"`
	Code           string          `json:"code"`
	Name           string          `json:"name"`
	Type           string          `json:"type"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
}

// OrderPriceResponse is a priced order
type OrderPriceResponse struct {
	Lines            []PriceCalculationResponse `json:"lines"`
	Subtotal         decimal.Decimal            `json:"subtotal"`
	TotalDiscount    decimal.Decimal            `json:"total_discount"`
	Total            decimal.Decimal            `json:"total"`
	AppliedPromotion *AppliedPromotionResponse  `json:"applied_promotion,omitempty"`
	PromotionReason  string                     `json:"promotion_reason,omitempty"`
	PromotionMessage string                     `json:"promotion_message,omitempty"`
}

// ToPriceCalculationResponse converts a priced line
func ToPriceCalculationResponse(r *pricing.PriceCalculationResult) PriceCalculationResponse {
	return PriceCalculationResponse{
		ProductID:                r.ProductID,
		Quantity:                 r.Quantity,
		BasePrice:                r.BasePrice,
		TierDiscountPercent:      r.TierDiscountPercent,
		TierDiscountAmount:       r.TierDiscountAmount,
		RuleDiscountPercent:      r.RuleDiscountPercent,
		RuleDiscountAmount:       r.RuleDiscountAmount,
		PromotionDiscountPercent: r.PromotionDiscountPercent,
		PromotionDiscountAmount:  r.PromotionDiscountAmount,
		FinalUnitPrice:           r.FinalUnitPrice,
		LineTotal:                r.LineTotal,
		TotalDiscount:            r.TotalDiscount,
		TotalDiscountPercent:     r.TotalDiscountPercent,
		AppliedRuleID:            r.AppliedRuleID,
		AppliedPromotionID:       r.AppliedPromotionID,
		PromotionCode:            r.PromotionCode,
		PromotionReason:          string(r.PromotionReason),
		PromotionMessage:         r.PromotionReason.Message(),
	}
}

// ToOrderPriceResponse converts a priced order
func ToOrderPriceResponse(r *pricing.OrderPriceResult) OrderPriceResponse {
	lines := make([]PriceCalculationResponse, len(r.Lines))
	for i := range r.Lines {
		lines[i] = ToPriceCalculationResponse(&r.Lines[i])
	}
	resp := OrderPriceResponse{
		Lines:            lines,
		Subtotal:         r.Subtotal,
		TotalDiscount:    r.TotalDiscount,
		Total:            r.Total,
		PromotionReason:  string(r.PromotionReason),
		PromotionMessage: r.PromotionReason.Message(),
	}
	if p := r.AppliedPromotion; p != nil {
		resp.AppliedPromotion = &AppliedPromotionResponse{
			ID:             p.ID,
			Code:           p.Code,
			Name:           p.Name,
			Type:           string(p.Type),
			DiscountAmount: p.DiscountAmount,
		}
	}
	return resp
}

// =============================================================================
// Promotion DTOs
// =============================================================================

// ValidatePromotionRequest asks whether a code applies to an order
type ValidatePromotionRequest struct {
	Code       string          `json:"code" binding:"required,max=50"`
	CustomerID uuid.UUID       `json:"customer_id" binding:"required"`
	OrderTotal decimal.Decimal `json:"order_total"`
}

// PromotionResponse represents a promotion in API responses
type PromotionResponse struct {
	ID                          uuid.UUID        `json:"id"`
	Code                        string           `json:"code"`
	Name                        string           `json:"name"`
	Description                 string           `json:"description,omitempty"`
	Type                        string           `json:"type"`
	Value                       decimal.Decimal  `json:"value"`
	BuyQuantity                 int              `json:"buy_quantity,omitempty"`
	GetQuantity                 int              `json:"get_quantity,omitempty"`
	MinimumOrderAmount          decimal.Decimal  `json:"minimum_order_amount"`
	MaximumDiscountAmount       *decimal.Decimal `json:"maximum_discount_amount,omitempty"`
	StartDate                   *time.Time       `json:"start_date,omitempty"`
	EndDate                     *time.Time       `json:"end_date,omitempty"`
	RequiresCode                bool             `json:"requires_code"`
	CanStackWithOtherPromotions bool             `json:"can_stack_with_other_promotions"`
	CanStackWithTierPricing     bool             `json:"can_stack_with_tier_pricing"`
	// InheritedFrom is the parent customer the promotion was granted to
	InheritedFrom               *uuid.UUID       `json:"inherited_from,omitempty"`
}

// ToPromotionResponse converts a domain promotion
func ToPromotionResponse(p *pricing.Promotion) PromotionResponse {
	return PromotionResponse{
		ID:                          p.ID,
		Code:                        p.Code,
		Name:                        p.Name,
		Description:                 p.Description,
		Type:                        string(p.Type),
		Value:                       p.Value,
		BuyQuantity:                 p.BuyQuantity,
		GetQuantity:                 p.GetQuantity,
		MinimumOrderAmount:          p.MinimumOrderAmount,
		MaximumDiscountAmount:       p.MaximumDiscountAmount,
		StartDate:                   p.StartDate,
		EndDate:                     p.EndDate,
		RequiresCode:                p.RequiresCode,
		CanStackWithOtherPromotions: p.CanStackWithOtherPromotions,
		CanStackWithTierPricing:     p.CanStackWithTierPricing,
	}
}

// ToPromotionResponses converts a list of domain promotions
func ToPromotionResponses(promotions []pricing.Promotion) []PromotionResponse {
	responses := make([]PromotionResponse, len(promotions))
	for i := range promotions {
		responses[i] = ToPromotionResponse(&promotions[i])
	}
	return responses
}

// PromotionValidationResponse is the outcome of validating a code
type PromotionValidationResponse struct {
	Valid             bool               `json:"valid"`
	Reason            string             `json:"reason,omitempty"`
	Message           string             `json:"message,omitempty"`
	EstimatedDiscount decimal.Decimal    `json:"estimated_discount"`
	Promotion         *PromotionResponse `json:"promotion,omitempty"`
}

// ToPromotionValidationResponse converts a validation outcome
func ToPromotionValidationResponse(v *pricing.PromotionValidation) PromotionValidationResponse {
	resp := PromotionValidationResponse{
		Valid:             v.Valid,
		Reason:            string(v.Reason),
		Message:           v.Message,
		EstimatedDiscount: v.EstimatedDiscount,
	}
	if v.Promotion != nil {
		p := ToPromotionResponse(v.Promotion)
		resp.Promotion = &p
	}
	return resp
}

// =============================================================================
// Usage DTOs
// =============================================================================

// RecordUsageRequest records one promotion usage by one order
type RecordUsageRequest struct {
	PromotionID uuid.UUID `json:"-"` // Set from the URL path
	CustomerID  uuid.UUID `json:"customer_id" binding:"required"`
	OrderID     uuid.UUID `json:"order_id" binding:"required"`
}

// UsageResponse reports what recording a usage did
type UsageResponse struct {
	PromotionID uuid.UUID `json:"promotion_id"`
	CustomerID  uuid.UUID `json:"customer_id"`
	OrderID     uuid.UUID `json:"order_id"`
	Outcome     string    `json:"outcome"`
}

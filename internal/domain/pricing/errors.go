package pricing

import "github.com/erp/pricing/internal/domain/shared"

// Pricing domain errors
var (
	ErrProductNotFound   = shared.NewDomainError("PRODUCT_NOT_FOUND", "Product not found")
	ErrCustomerNotFound  = shared.NewDomainError("CUSTOMER_NOT_FOUND", "Customer not found")
	ErrPromotionNotFound = shared.NewDomainError("PROMOTION_NOT_FOUND", "Promotion not found")
	ErrInvalidQuantity   = shared.NewDomainError("INVALID_INPUT", "Quantity must be greater than zero")
	ErrNoItems           = shared.NewDomainError("INVALID_INPUT", "At least one item is required")
)

// newRuleError creates an INVALID_PRICE_RULE error
func newRuleError(message string) *shared.DomainError {
	return shared.NewDomainError("INVALID_PRICE_RULE", message)
}

// newPromotionError creates an INVALID_PROMOTION error
func newPromotionError(message string) *shared.DomainError {
	return shared.NewDomainError("INVALID_PROMOTION", message)
}

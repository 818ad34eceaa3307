package pricing

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CustomerType classifies a customer's business (hospital, pharmacy, ...)
type CustomerType string

// Common customer types
const (
	CustomerTypeHospital    CustomerType = "hospital"
	CustomerTypePharmacy    CustomerType = "pharmacy"
	CustomerTypeClinic      CustomerType = "clinic"
	CustomerTypeDistributor CustomerType = "distributor"
)

// ParseCustomerType normalizes a raw customer type
func ParseCustomerType(raw string) CustomerType {
	return CustomerType(strings.ToLower(strings.TrimSpace(raw)))
}

// Customer is the read-only view of a customer the pricing engine needs
type Customer struct {
	ID       uuid.UUID
	Code     string
	Name     string
	Tier     CustomerTier
	Type     CustomerType
	ParentID *uuid.UUID
}

// HasParent reports whether the customer is a branch of another customer
func (c Customer) HasParent() bool {
	return c.ParentID != nil && *c.ParentID != uuid.Nil
}

// Product is the read-only view of a product the pricing engine needs
type Product struct {
	ID             uuid.UUID
	Code           string
	Name           string
	BasePrice      decimal.Decimal
	CategoryID     *uuid.UUID
	ManufacturerID *uuid.UUID
}

// InCategory reports whether the product belongs to the given category
func (p Product) InCategory(categoryID uuid.UUID) bool {
	return p.CategoryID != nil && *p.CategoryID == categoryID
}

package models

import (
	"time"

	"github.com/erp/pricing/internal/domain/pricing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductModel is the pricing view of a catalog product.
type ProductModel struct {
	BaseModel
	Code           string          `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name           string          `gorm:"type:varchar(200);not null"`
	BasePrice      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	CategoryID     *uuid.UUID      `gorm:"type:uuid;index"`
	ManufacturerID *uuid.UUID      `gorm:"type:uuid;index"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a pricing Product.
func (m *ProductModel) ToDomain() *pricing.Product {
	return &pricing.Product{
		ID:             m.ID,
		Code:           m.Code,
		Name:           m.Name,
		BasePrice:      m.BasePrice,
		CategoryID:     m.CategoryID,
		ManufacturerID: m.ManufacturerID,
	}
}

// ProductModelFromDomain creates a new persistence model from a pricing Product.
func ProductModelFromDomain(p *pricing.Product) *ProductModel {
	now := time.Now()
	return &ProductModel{
		BaseModel:      BaseModel{ID: p.ID, CreatedAt: now, UpdatedAt: now},
		Code:           p.Code,
		Name:           p.Name,
		BasePrice:      p.BasePrice,
		CategoryID:     p.CategoryID,
		ManufacturerID: p.ManufacturerID,
	}
}

// CustomerModel is the pricing view of a customer and its place in the
// headquarters/branch hierarchy.
type CustomerModel struct {
	BaseModel
	Code         string     `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name         string     `gorm:"type:varchar(200);not null"`
	Tier         string     `gorm:"type:varchar(10);not null;default:'C'"`
	CustomerType string     `gorm:"type:varchar(30);not null"`
	ParentID     *uuid.UUID `gorm:"type:uuid;index"`
}

// TableName returns the table name for GORM
func (CustomerModel) TableName() string {
	return "customers"
}

// ToDomain converts the persistence model to a pricing Customer.
func (m *CustomerModel) ToDomain() *pricing.Customer {
	return &pricing.Customer{
		ID:       m.ID,
		Code:     m.Code,
		Name:     m.Name,
		Tier:     pricing.ParseCustomerTier(m.Tier),
		Type:     pricing.ParseCustomerType(m.CustomerType),
		ParentID: m.ParentID,
	}
}

// CustomerModelFromDomain creates a new persistence model from a pricing Customer.
func CustomerModelFromDomain(c *pricing.Customer) *CustomerModel {
	now := time.Now()
	return &CustomerModel{
		BaseModel:    BaseModel{ID: c.ID, CreatedAt: now, UpdatedAt: now},
		Code:         c.Code,
		Name:         c.Name,
		Tier:         string(pricing.ParseCustomerTier(string(c.Tier))),
		CustomerType: string(pricing.ParseCustomerType(string(c.Type))),
		ParentID:     c.ParentID,
	}
}

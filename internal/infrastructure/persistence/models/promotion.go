package models

import (
	"time"

	"github.com/erp/pricing/internal/domain/pricing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PromotionModel is the persistence model for the Promotion domain entity.
// CurrentUsageCount is maintained by the usage tracker, not by Save.
type PromotionModel struct {
	BaseModel
	Code                  string              `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name                  string              `gorm:"type:varchar(200);not null"`
	Description           string              `gorm:"type:text"`
	PromotionType         string              `gorm:"type:varchar(30);not null"`
	Value                 decimal.Decimal     `gorm:"type:decimal(18,4);not null;default:0"`
	BuyQuantity           int                 `gorm:"not null;default:0"`
	GetQuantity           int                 `gorm:"not null;default:0"`
	MinimumOrderAmount    decimal.Decimal     `gorm:"type:decimal(18,4);not null;default:0"`
	MaximumDiscountAmount decimal.NullDecimal `gorm:"type:decimal(18,4)"`
	StartDate             *time.Time
	EndDate               *time.Time
	IsActive              bool `gorm:"not null;index"`
	MaxUsageCount         *int
	MaxUsagePerCustomer   *int
	CurrentUsageCount     int `gorm:"not null;default:0"`

	AppliesToAllProducts  bool       `gorm:"not null"`
	AppliesToAllCustomers bool       `gorm:"not null"`
	RequiredCustomerTier  *string    `gorm:"type:varchar(10)"`
	RequiredCustomerType  *string    `gorm:"type:varchar(30)"`
	CustomerID            *uuid.UUID `gorm:"type:uuid;index"`
	ApplyToChildCustomers bool       `gorm:"not null"`

	RequiresCode                bool `gorm:"not null;index"`
	CanStackWithOtherPromotions bool `gorm:"not null"`
	CanStackWithTierPricing     bool `gorm:"not null"`

	Products   []PromotionProductModel  `gorm:"foreignKey:PromotionID;constraint:OnDelete:CASCADE"`
	Categories []PromotionCategoryModel `gorm:"foreignKey:PromotionID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (PromotionModel) TableName() string {
	return "promotions"
}

// PromotionProductModel scopes a promotion to one product
type PromotionProductModel struct {
	PromotionID uuid.UUID `gorm:"type:uuid;primaryKey"`
	ProductID   uuid.UUID `gorm:"type:uuid;primaryKey;index"`
}

// TableName returns the table name for GORM
func (PromotionProductModel) TableName() string {
	return "promotion_products"
}

// PromotionCategoryModel scopes a promotion to one category
type PromotionCategoryModel struct {
	PromotionID uuid.UUID `gorm:"type:uuid;primaryKey"`
	CategoryID  uuid.UUID `gorm:"type:uuid;primaryKey;index"`
}

// TableName returns the table name for GORM
func (PromotionCategoryModel) TableName() string {
	return "promotion_categories"
}

// ToDomain converts the persistence model to a domain Promotion.
// Products and Categories must be preloaded for the scopes to be filled.
func (m *PromotionModel) ToDomain() *pricing.Promotion {
	p := &pricing.Promotion{
		BaseEntity:                  m.BaseModel.Entity(),
		Code:                        m.Code,
		Name:                        m.Name,
		Description:                 m.Description,
		Type:                        pricing.PromotionType(m.PromotionType),
		Value:                       m.Value,
		BuyQuantity:                 m.BuyQuantity,
		GetQuantity:                 m.GetQuantity,
		MinimumOrderAmount:          m.MinimumOrderAmount,
		StartDate:                   m.StartDate,
		EndDate:                     m.EndDate,
		IsActive:                    m.IsActive,
		MaxUsageCount:               m.MaxUsageCount,
		MaxUsagePerCustomer:         m.MaxUsagePerCustomer,
		CurrentUsageCount:           m.CurrentUsageCount,
		AppliesToAllProducts:        m.AppliesToAllProducts,
		AppliesToAllCustomers:       m.AppliesToAllCustomers,
		CustomerID:                  m.CustomerID,
		ApplyToChildCustomers:       m.ApplyToChildCustomers,
		RequiresCode:                m.RequiresCode,
		CanStackWithOtherPromotions: m.CanStackWithOtherPromotions,
		CanStackWithTierPricing:     m.CanStackWithTierPricing,
	}
	if m.MaximumDiscountAmount.Valid {
		limit := m.MaximumDiscountAmount.Decimal
		p.MaximumDiscountAmount = &limit
	}
	if m.RequiredCustomerTier != nil {
		tier := pricing.ParseCustomerTier(*m.RequiredCustomerTier)
		p.RequiredCustomerTier = &tier
	}
	if m.RequiredCustomerType != nil {
		ct := pricing.ParseCustomerType(*m.RequiredCustomerType)
		p.RequiredCustomerType = &ct
	}
	for _, pp := range m.Products {
		p.ProductIDs = append(p.ProductIDs, pp.ProductID)
	}
	for _, pc := range m.Categories {
		p.CategoryIDs = append(p.CategoryIDs, pc.CategoryID)
	}
	return p
}

// FromDomain populates the persistence model from a domain Promotion.
// The code is stored normalized so lookups can match exactly.
func (m *PromotionModel) FromDomain(p *pricing.Promotion) {
	m.SetEntity(p.BaseEntity)
	m.Code = pricing.NormalizePromotionCode(p.Code)
	m.Name = p.Name
	m.Description = p.Description
	m.PromotionType = string(p.Type)
	m.Value = p.Value
	m.BuyQuantity = p.BuyQuantity
	m.GetQuantity = p.GetQuantity
	m.MinimumOrderAmount = p.MinimumOrderAmount
	m.MaximumDiscountAmount = decimal.NullDecimal{}
	if p.MaximumDiscountAmount != nil {
		m.MaximumDiscountAmount = decimal.NewNullDecimal(*p.MaximumDiscountAmount)
	}
	m.StartDate = p.StartDate
	m.EndDate = p.EndDate
	m.IsActive = p.IsActive
	m.MaxUsageCount = p.MaxUsageCount
	m.MaxUsagePerCustomer = p.MaxUsagePerCustomer
	m.CurrentUsageCount = p.CurrentUsageCount
	m.AppliesToAllProducts = p.AppliesToAllProducts
	m.AppliesToAllCustomers = p.AppliesToAllCustomers
	m.RequiredCustomerTier = nil
	if p.RequiredCustomerTier != nil {
		v := string(pricing.ParseCustomerTier(string(*p.RequiredCustomerTier)))
		m.RequiredCustomerTier = &v
	}
	m.RequiredCustomerType = nil
	if p.RequiredCustomerType != nil {
		v := string(pricing.ParseCustomerType(string(*p.RequiredCustomerType)))
		m.RequiredCustomerType = &v
	}
	m.CustomerID = p.CustomerID
	m.ApplyToChildCustomers = p.ApplyToChildCustomers
	m.RequiresCode = p.RequiresCode
	m.CanStackWithOtherPromotions = p.CanStackWithOtherPromotions
	m.CanStackWithTierPricing = p.CanStackWithTierPricing

	m.Products = make([]PromotionProductModel, 0, len(p.ProductIDs))
	for _, id := range p.ProductIDs {
		m.Products = append(m.Products, PromotionProductModel{PromotionID: p.ID, ProductID: id})
	}
	m.Categories = make([]PromotionCategoryModel, 0, len(p.CategoryIDs))
	for _, id := range p.CategoryIDs {
		m.Categories = append(m.Categories, PromotionCategoryModel{PromotionID: p.ID, CategoryID: id})
	}
}

// PromotionModelFromDomain creates a new persistence model from a domain Promotion.
func PromotionModelFromDomain(p *pricing.Promotion) *PromotionModel {
	m := &PromotionModel{}
	m.FromDomain(p)
	return m
}

package models

import (
	"fmt"
	"time"

	"github.com/erp/pricing/internal/domain/pricing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PriceRuleModel is the persistence model for the PriceRule domain entity.
// The target is stored as a scope plus either an id (product, category,
// manufacturer, customer) or a value (tier, customer type).
type PriceRuleModel struct {
	BaseModel
	Name            string          `gorm:"type:varchar(200);not null"`
	Scope           string          `gorm:"type:varchar(30);not null;index:idx_price_rule_scope_target,priority:1"`
	TargetID        *uuid.UUID      `gorm:"type:uuid;index:idx_price_rule_scope_target,priority:2"`
	TargetValue     *string         `gorm:"type:varchar(50)"`
	DiscountType    string          `gorm:"type:varchar(20);not null"`
	DiscountValue   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	MinimumQuantity *int
	MaximumQuantity *int
	StartDate       *time.Time
	EndDate         *time.Time
	IsActive        bool `gorm:"not null;index"`
	Priority        int  `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (PriceRuleModel) TableName() string {
	return "price_rules"
}

// ToDomain converts the persistence model to a domain PriceRule.
// It fails when the stored scope and target columns do not form a valid target.
func (m *PriceRuleModel) ToDomain() (*pricing.PriceRule, error) {
	target, err := m.target()
	if err != nil {
		return nil, err
	}
	return &pricing.PriceRule{
		BaseEntity:      m.BaseModel.Entity(),
		Name:            m.Name,
		Target:          target,
		DiscountType:    pricing.DiscountType(m.DiscountType),
		DiscountValue:   m.DiscountValue,
		MinimumQuantity: m.MinimumQuantity,
		MaximumQuantity: m.MaximumQuantity,
		StartDate:       m.StartDate,
		EndDate:         m.EndDate,
		IsActive:        m.IsActive,
		Priority:        m.Priority,
	}, nil
}

func (m *PriceRuleModel) target() (pricing.RuleTarget, error) {
	scope := pricing.RuleScope(m.Scope)
	switch scope {
	case pricing.ScopeProduct, pricing.ScopeCategory, pricing.ScopeManufacturer, pricing.ScopeCustomer:
		if m.TargetID == nil {
			return nil, fmt.Errorf("price rule %s: scope %s requires target_id", m.ID, scope)
		}
		id := *m.TargetID
		switch scope {
		case pricing.ScopeProduct:
			return pricing.ProductTarget{ProductID: id}, nil
		case pricing.ScopeCategory:
			return pricing.CategoryTarget{CategoryID: id}, nil
		case pricing.ScopeManufacturer:
			return pricing.ManufacturerTarget{ManufacturerID: id}, nil
		default:
			return pricing.CustomerTarget{CustomerID: id}, nil
		}
	case pricing.ScopeCustomerTier, pricing.ScopeCustomerType:
		if m.TargetValue == nil || *m.TargetValue == "" {
			return nil, fmt.Errorf("price rule %s: scope %s requires target_value", m.ID, scope)
		}
		if scope == pricing.ScopeCustomerTier {
			return pricing.TierTarget{Tier: pricing.ParseCustomerTier(*m.TargetValue)}, nil
		}
		return pricing.CustomerTypeTarget{Type: pricing.ParseCustomerType(*m.TargetValue)}, nil
	default:
		return nil, fmt.Errorf("price rule %s: unknown scope %q", m.ID, m.Scope)
	}
}

// FromDomain populates the persistence model from a domain PriceRule.
func (m *PriceRuleModel) FromDomain(r *pricing.PriceRule) {
	m.SetEntity(r.BaseEntity)
	m.Name = r.Name
	m.Scope = string(r.Scope())
	m.TargetID = nil
	m.TargetValue = nil
	switch t := r.Target.(type) {
	case pricing.ProductTarget:
		m.TargetID = &t.ProductID
	case pricing.CategoryTarget:
		m.TargetID = &t.CategoryID
	case pricing.ManufacturerTarget:
		m.TargetID = &t.ManufacturerID
	case pricing.CustomerTarget:
		m.TargetID = &t.CustomerID
	case pricing.TierTarget:
		v := string(pricing.ParseCustomerTier(string(t.Tier)))
		m.TargetValue = &v
	case pricing.CustomerTypeTarget:
		v := string(pricing.ParseCustomerType(string(t.Type)))
		m.TargetValue = &v
	}
	m.DiscountType = string(r.DiscountType)
	m.DiscountValue = r.DiscountValue
	m.MinimumQuantity = r.MinimumQuantity
	m.MaximumQuantity = r.MaximumQuantity
	m.StartDate = r.StartDate
	m.EndDate = r.EndDate
	m.IsActive = r.IsActive
	m.Priority = r.Priority
}

// PriceRuleModelFromDomain creates a new persistence model from a domain PriceRule.
func PriceRuleModelFromDomain(r *pricing.PriceRule) *PriceRuleModel {
	m := &PriceRuleModel{}
	m.FromDomain(r)
	return m
}

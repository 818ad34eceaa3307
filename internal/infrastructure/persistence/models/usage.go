package models

import (
	"time"

	"github.com/google/uuid"
)

// PromotionUsageModel is one row per (promotion, order) in the usage ledger.
// The unique index makes replays of the same order a no-op.
type PromotionUsageModel struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	PromotionID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_promotion_usage_order,priority:1"`
	OrderID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_promotion_usage_order,priority:2"`
	CustomerID  uuid.UUID `gorm:"type:uuid;not null;index"`
	UsedAt      time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (PromotionUsageModel) TableName() string {
	return "promotion_usages"
}

// CustomerPromotionUsageModel counts how often a customer used a promotion
type CustomerPromotionUsageModel struct {
	PromotionID uuid.UUID `gorm:"type:uuid;primaryKey"`
	CustomerID  uuid.UUID `gorm:"type:uuid;primaryKey"`
	UsageCount  int       `gorm:"not null;default:0"`
	UpdatedAt   time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CustomerPromotionUsageModel) TableName() string {
	return "customer_promotion_usages"
}

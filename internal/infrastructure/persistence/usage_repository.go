package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/erp/pricing/internal/domain/pricing"
	"github.com/erp/pricing/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// errUsageRejected rolls back a usage transaction that hit a cap
var errUsageRejected = errors.New("promotion usage rejected")

// GormUsageTracker records promotion usage in the database.
//
// The ledger insert, the global counter and the per-customer counter are
// updated in one transaction. Each counter is incremented by a conditional
// UPDATE whose WHERE clause carries the cap, so the check and the increment
// are a single statement and concurrent orders serialize on the row lock.
type GormUsageTracker struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGormUsageTracker creates a new GormUsageTracker
func NewGormUsageTracker(db *gorm.DB) *GormUsageTracker {
	return &GormUsageTracker{db: db, now: time.Now}
}

// Record records one usage of a promotion by an order
func (r *GormUsageTracker) Record(ctx context.Context, req pricing.UsageRequest) (pricing.UsageOutcome, error) {
	outcome := pricing.UsageRecorded

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var promo models.PromotionModel
		if err := tx.Select("id", "max_usage_per_customer").
			Where("id = ?", req.PromotionID).
			Take(&promo).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pricing.ErrPromotionNotFound
			}
			return err
		}

		now := r.now()
		usage := models.PromotionUsageModel{
			ID:          uuid.New(),
			PromotionID: req.PromotionID,
			OrderID:     req.OrderID,
			CustomerID:  req.CustomerID,
			UsedAt:      now,
		}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&usage)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			outcome = pricing.UsageAlreadyRecorded
			return nil
		}

		res = tx.Model(&models.PromotionModel{}).
			Where("id = ? AND (max_usage_count IS NULL OR current_usage_count < max_usage_count)", req.PromotionID).
			UpdateColumn("current_usage_count", gorm.Expr("current_usage_count + 1"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			outcome = pricing.UsageLimitExceeded
			return errUsageRejected
		}

		counter := models.CustomerPromotionUsageModel{
			PromotionID: req.PromotionID,
			CustomerID:  req.CustomerID,
			UpdatedAt:   now,
		}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&counter).Error; err != nil {
			return err
		}

		q := tx.Model(&models.CustomerPromotionUsageModel{}).
			Where("promotion_id = ? AND customer_id = ?", req.PromotionID, req.CustomerID)
		if promo.MaxUsagePerCustomer != nil {
			q = q.Where("usage_count < ?", *promo.MaxUsagePerCustomer)
		}
		res = q.UpdateColumns(map[string]any{
			"usage_count": gorm.Expr("usage_count + 1"),
			"updated_at":  now,
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			outcome = pricing.UsageCustomerLimitExceeded
			return errUsageRejected
		}
		return nil
	})

	if errors.Is(err, errUsageRejected) {
		return outcome, nil
	}
	if err != nil {
		return "", err
	}
	return outcome, nil
}

// UsageCount returns the stored global usage count of a promotion.
// Unknown promotions report zero.
func (r *GormUsageTracker) UsageCount(ctx context.Context, promotionID uuid.UUID) (int, error) {
	var promo models.PromotionModel
	err := r.db.WithContext(ctx).
		Select("current_usage_count").
		Where("id = ?", promotionID).
		Take(&promo).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return promo.CurrentUsageCount, nil
}

// CustomerUsageCount returns how many recorded usages a customer has for a promotion
func (r *GormUsageTracker) CustomerUsageCount(ctx context.Context, promotionID, customerID uuid.UUID) (int, error) {
	var counter models.CustomerPromotionUsageModel
	err := r.db.WithContext(ctx).
		Where("promotion_id = ? AND customer_id = ?", promotionID, customerID).
		Take(&counter).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return counter.UsageCount, nil
}

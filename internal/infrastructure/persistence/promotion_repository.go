package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/erp/pricing/internal/domain/pricing"
	"github.com/erp/pricing/internal/domain/shared"
	"github.com/erp/pricing/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// promotionUpdateColumns lists what Save overwrites on an existing promotion.
// current_usage_count is owned by the usage tracker.
var promotionUpdateColumns = []string{
	"code", "name", "description", "promotion_type", "value", "buy_quantity", "get_quantity",
	"minimum_order_amount", "maximum_discount_amount", "start_date", "end_date", "is_active",
	"max_usage_count", "max_usage_per_customer", "applies_to_all_products", "applies_to_all_customers",
	"required_customer_tier", "required_customer_type", "customer_id", "apply_to_child_customers",
	"requires_code", "can_stack_with_other_promotions", "can_stack_with_tier_pricing", "updated_at",
}

// GormPromotionRepository implements pricing.PromotionRepository using GORM
type GormPromotionRepository struct {
	db *gorm.DB
}

// NewGormPromotionRepository creates a new GormPromotionRepository
func NewGormPromotionRepository(db *gorm.DB) *GormPromotionRepository {
	return &GormPromotionRepository{db: db}
}

func (r *GormPromotionRepository) withScopes(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Products").Preload("Categories")
}

// FindByCode finds a promotion by its code, ignoring case and surrounding spaces
func (r *GormPromotionRepository) FindByCode(ctx context.Context, code string) (*pricing.Promotion, error) {
	normalized := pricing.NormalizePromotionCode(code)
	if normalized == "" {
		return nil, shared.ErrNotFound
	}
	var model models.PromotionModel
	if err := r.withScopes(ctx).Where("code = ?", normalized).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByID finds a promotion by its ID
func (r *GormPromotionRepository) FindByID(ctx context.Context, id uuid.UUID) (*pricing.Promotion, error) {
	var model models.PromotionModel
	if err := r.withScopes(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAutoApplied returns active promotions that do not require a code, by code
func (r *GormPromotionRepository) FindAutoApplied(ctx context.Context) ([]pricing.Promotion, error) {
	var rows []models.PromotionModel
	if err := r.withScopes(ctx).
		Where("is_active = ? AND requires_code = ?", true, false).
		Order("code").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	promotions := make([]pricing.Promotion, 0, len(rows))
	for i := range rows {
		promotions = append(promotions, *rows[i].ToDomain())
	}
	return promotions, nil
}

// Save creates or updates a promotion and replaces its product and category scopes.
// The usage counter of an existing promotion is left untouched.
func (r *GormPromotionRepository) Save(ctx context.Context, promotion *pricing.Promotion) error {
	if err := promotion.Validate(); err != nil {
		return err
	}
	promotion.Touch(time.Now())
	model := models.PromotionModelFromDomain(promotion)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				DoUpdates: clause.AssignmentColumns(promotionUpdateColumns),
			}).
			Create(model).Error; err != nil {
			return err
		}

		if err := tx.Where("promotion_id = ?", model.ID).Delete(&models.PromotionProductModel{}).Error; err != nil {
			return err
		}
		if len(model.Products) > 0 {
			if err := tx.Create(&model.Products).Error; err != nil {
				return err
			}
		}

		if err := tx.Where("promotion_id = ?", model.ID).Delete(&models.PromotionCategoryModel{}).Error; err != nil {
			return err
		}
		if len(model.Categories) > 0 {
			if err := tx.Create(&model.Categories).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return shared.ErrAlreadyExists
	}
	return err
}

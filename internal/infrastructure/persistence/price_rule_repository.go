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

// GormPriceRuleRepository implements pricing.PriceRuleRepository using GORM
type GormPriceRuleRepository struct {
	db *gorm.DB
}

// NewGormPriceRuleRepository creates a new GormPriceRuleRepository
func NewGormPriceRuleRepository(db *gorm.DB) *GormPriceRuleRepository {
	return &GormPriceRuleRepository{db: db}
}

// FindByID finds a price rule by its ID
func (r *GormPriceRuleRepository) FindByID(ctx context.Context, id uuid.UUID) (*pricing.PriceRule, error) {
	var model models.PriceRuleModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain()
}

// FindActive returns every rule flagged active, highest priority first
func (r *GormPriceRuleRepository) FindActive(ctx context.Context) ([]pricing.PriceRule, error) {
	var rows []models.PriceRuleModel
	if err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("priority DESC").
		Order("created_at").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toPriceRules(rows)
}

// FindAll returns every rule, active or not
func (r *GormPriceRuleRepository) FindAll(ctx context.Context) ([]pricing.PriceRule, error) {
	var rows []models.PriceRuleModel
	if err := r.db.WithContext(ctx).
		Order("priority DESC").
		Order("created_at").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toPriceRules(rows)
}

// Save creates or updates a price rule after validating it
func (r *GormPriceRuleRepository) Save(ctx context.Context, rule *pricing.PriceRule) error {
	if err := rule.Validate(); err != nil {
		return err
	}
	rule.Touch(time.Now())

	model := models.PriceRuleModelFromDomain(rule)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(model).Error
}

func toPriceRules(rows []models.PriceRuleModel) ([]pricing.PriceRule, error) {
	rules := make([]pricing.PriceRule, 0, len(rows))
	for i := range rows {
		rule, err := rows[i].ToDomain()
		if err != nil {
			return nil, err
		}
		rules = append(rules, *rule)
	}
	return rules, nil
}

package pricing

import (
	"context"

	"github.com/google/uuid"
)

// ProductReader looks up product pricing data.
// Implementations return shared.ErrNotFound for unknown ids.
type ProductReader interface {
	FindProduct(ctx context.Context, id uuid.UUID) (*Product, error)
}

// CustomerReader looks up customers.
// Implementations return shared.ErrNotFound for unknown ids.
type CustomerReader interface {
	FindCustomer(ctx context.Context, id uuid.UUID) (*Customer, error)
}

// PriceRuleReader provides the rules the calculator matches against
type PriceRuleReader interface {
	// FindActive returns all rules flagged active; date windows are checked by the matcher
	FindActive(ctx context.Context) ([]PriceRule, error)
}

// PriceRuleRepository is the full price rule store
type PriceRuleRepository interface {
	PriceRuleReader
	FindByID(ctx context.Context, id uuid.UUID) (*PriceRule, error)
	FindAll(ctx context.Context) ([]PriceRule, error)
	Save(ctx context.Context, rule *PriceRule) error
}

// PromotionRepository is the promotion store
type PromotionRepository interface {
	// FindByCode looks up a promotion by its normalized code
	FindByCode(ctx context.Context, code string) (*Promotion, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Promotion, error)
	// FindAutoApplied returns active promotions that need no code
	FindAutoApplied(ctx context.Context) ([]Promotion, error)
	Save(ctx context.Context, promotion *Promotion) error
}

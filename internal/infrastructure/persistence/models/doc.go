// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer pure and free
// from ORM concerns.
//
// Key Principles:
// 1. Domain entities should be free of GORM tags and infrastructure concerns
// 2. Persistence models contain all GORM annotations and table mappings
// 3. Mappers convert between domain entities and persistence models
// 4. Repositories use persistence models for database operations
//
// Structure:
// - base.go: Base persistence model shared by all tables
// - catalog.go: Product and customer read models used for pricing
// - price_rule.go: Price rules and their target encoding
// - promotion.go: Promotions with their product and category scopes
// - usage.go: Promotion usage ledger and per-customer counters
package models

// All returns every pricing model in dependency order, for AutoMigrate.
func All() []any {
	return []any{
		&ProductModel{},
		&CustomerModel{},
		&PriceRuleModel{},
		&PromotionModel{},
		&PromotionProductModel{},
		&PromotionCategoryModel{},
		&PromotionUsageModel{},
		&CustomerPromotionUsageModel{},
	}
}

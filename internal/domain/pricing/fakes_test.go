package pricing

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/erp/pricing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

// memoryStore is an in-memory implementation of every reader the pricing
// domain depends on
type memoryStore struct {
	mu         sync.Mutex
	products   map[uuid.UUID]Product
	customers  map[uuid.UUID]Customer
	rules      []PriceRule
	promotions []Promotion
	usage      map[[2]uuid.UUID]int
	global     map[uuid.UUID]int

	customerLookups int
	failWith        error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		products:  make(map[uuid.UUID]Product),
		customers: make(map[uuid.UUID]Customer),
		usage:     make(map[[2]uuid.UUID]int),
		global:    make(map[uuid.UUID]int),
	}
}

func (s *memoryStore) addProduct(p Product) Product {
	s.products[p.ID] = p
	return p
}

func (s *memoryStore) addCustomer(c Customer) Customer {
	s.customers[c.ID] = c
	return c
}

func (s *memoryStore) addRule(r PriceRule) PriceRule {
	s.rules = append(s.rules, r)
	return r
}

func (s *memoryStore) addPromotion(p Promotion) Promotion {
	p.Code = NormalizePromotionCode(p.Code)
	s.promotions = append(s.promotions, p)
	return p
}

func (s *memoryStore) FindProduct(_ context.Context, id uuid.UUID) (*Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return nil, s.failWith
	}
	p, ok := s.products[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &p, nil
}

func (s *memoryStore) FindCustomer(_ context.Context, id uuid.UUID) (*Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.customerLookups++
	c, ok := s.customers[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &c, nil
}

func (s *memoryStore) FindActive(_ context.Context) ([]PriceRule, error) {
	active := make([]PriceRule, 0, len(s.rules))
	for _, r := range s.rules {
		if r.IsActive {
			active = append(active, r)
		}
	}
	return active, nil
}

func (s *memoryStore) FindByCode(_ context.Context, code string) (*Promotion, error) {
	for i := range s.promotions {
		if s.promotions[i].Code == code {
			p := s.promotions[i]
			return &p, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (s *memoryStore) FindByID(_ context.Context, id uuid.UUID) (*Promotion, error) {
	for i := range s.promotions {
		if s.promotions[i].ID == id {
			p := s.promotions[i]
			return &p, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (s *memoryStore) FindAutoApplied(_ context.Context) ([]Promotion, error) {
	result := make([]Promotion, 0)
	for _, p := range s.promotions {
		if p.IsActive && !p.RequiresCode {
			result = append(result, p)
		}
	}
	return result, nil
}

func (s *memoryStore) Save(_ context.Context, promotion *Promotion) error {
	s.promotions = append(s.promotions, *promotion)
	return nil
}

func (s *memoryStore) UsageCount(_ context.Context, promotionID uuid.UUID) (int, error) {
	return s.global[promotionID], nil
}

func (s *memoryStore) CustomerUsageCount(_ context.Context, promotionID, customerID uuid.UUID) (int, error) {
	return s.usage[[2]uuid.UUID{promotionID, customerID}], nil
}

// fixtures

var fixedNow = time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func intPtr(v int) *int { return &v }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func timePtr(t time.Time) *time.Time { return &t }

func uuidPtr(id uuid.UUID) *uuid.UUID { return &id }

func newEntity(createdAt time.Time) shared.BaseEntity {
	return shared.BaseEntity{ID: uuid.New(), CreatedAt: createdAt, UpdatedAt: createdAt}
}

func testCustomer(tier CustomerTier) Customer {
	return Customer{
		ID:   uuid.New(),
		Code: "CUST-001",
		Name: "Test Pharmacy",
		Tier: tier,
		Type: CustomerTypePharmacy,
	}
}

func testProduct(price string) Product {
	return Product{
		ID:        uuid.New(),
		Code:      "SKU-001",
		Name:      "Amoxicillin 500mg",
		BasePrice: dec(price),
	}
}

func percentageRule(target RuleTarget, value string) PriceRule {
	return PriceRule{
		BaseEntity:    newEntity(fixedNow.Add(-24 * time.Hour)),
		Name:          "rule",
		Target:        target,
		DiscountType:  DiscountPercentage,
		DiscountValue: dec(value),
		IsActive:      true,
	}
}

func percentagePromotion(code, value string) Promotion {
	return Promotion{
		BaseEntity:              newEntity(fixedNow.Add(-24 * time.Hour)),
		Code:                    code,
		Name:                    code,
		Type:                    PromotionPercentageDiscount,
		Value:                   dec(value),
		MinimumOrderAmount:      decimal.Zero,
		IsActive:                true,
		AppliesToAllProducts:    true,
		AppliesToAllCustomers:   true,
		RequiresCode:            true,
		CanStackWithTierPricing: true,
	}
}

func assertDecimal(t *testing.T, expected string, actual decimal.Decimal) {
	t.Helper()
	assert.True(t, dec(expected).Equal(actual), "expected %s, got %s", expected, actual.String())
}

package pricing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/erp/pricing/internal/domain/pricing"
	"github.com/erp/pricing/internal/domain/shared"
	"github.com/erp/pricing/internal/infrastructure/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// =============================================================================
// Mock Repositories
// =============================================================================

type MockProductReader struct {
	mock.Mock
}

func (m *MockProductReader) FindProduct(ctx context.Context, id uuid.UUID) (*pricing.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pricing.Product), args.Error(1)
}

type MockCustomerReader struct {
	mock.Mock
}

func (m *MockCustomerReader) FindCustomer(ctx context.Context, id uuid.UUID) (*pricing.Customer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pricing.Customer), args.Error(1)
}

type MockPriceRuleReader struct {
	mock.Mock
}

func (m *MockPriceRuleReader) FindActive(ctx context.Context) ([]pricing.PriceRule, error) {
	args := m.Called(ctx)
	return args.Get(0).([]pricing.PriceRule), args.Error(1)
}

type MockPromotionRepository struct {
	mock.Mock
}

func (m *MockPromotionRepository) FindByCode(ctx context.Context, code string) (*pricing.Promotion, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pricing.Promotion), args.Error(1)
}

func (m *MockPromotionRepository) FindByID(ctx context.Context, id uuid.UUID) (*pricing.Promotion, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pricing.Promotion), args.Error(1)
}

func (m *MockPromotionRepository) FindAutoApplied(ctx context.Context) ([]pricing.Promotion, error) {
	args := m.Called(ctx)
	return args.Get(0).([]pricing.Promotion), args.Error(1)
}

func (m *MockPromotionRepository) Save(ctx context.Context, promotion *pricing.Promotion) error {
	args := m.Called(ctx, promotion)
	return args.Error(0)
}

type MockUsageStore struct {
	mock.Mock
}

func (m *MockUsageStore) Record(ctx context.Context, req pricing.UsageRequest) (pricing.UsageOutcome, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(pricing.UsageOutcome), args.Error(1)
}

func (m *MockUsageStore) UsageCount(ctx context.Context, promotionID uuid.UUID) (int, error) {
	args := m.Called(ctx, promotionID)
	return args.Int(0), args.Error(1)
}

func (m *MockUsageStore) CustomerUsageCount(ctx context.Context, promotionID, customerID uuid.UUID) (int, error) {
	args := m.Called(ctx, promotionID, customerID)
	return args.Int(0), args.Error(1)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishUsageRecorded(ctx context.Context, evt pricing.UsageRecordedEvent) error {
	args := m.Called(ctx, evt)
	return args.Error(0)
}

// =============================================================================
// Fixtures
// =============================================================================

var fixedNow = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

type serviceFixture struct {
	products   *MockProductReader
	customers  *MockCustomerReader
	rules      *MockPriceRuleReader
	promotions *MockPromotionRepository
	usage      *MockUsageStore
	publisher  *MockPublisher
	service    *Service

	calculator *pricing.PriceCalculator
	validator  *pricing.PromotionValidator
	hierarchy  *pricing.CustomerHierarchyResolver
	clock      func() time.Time
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	f := &serviceFixture{
		products:   new(MockProductReader),
		customers:  new(MockCustomerReader),
		rules:      new(MockPriceRuleReader),
		promotions: new(MockPromotionRepository),
		usage:      new(MockUsageStore),
		publisher:  new(MockPublisher),
	}
	clock := func() time.Time { return fixedNow }

	hierarchy := pricing.NewCustomerHierarchyResolver(f.customers, 5)
	validator := pricing.NewPromotionValidator(f.promotions, f.usage, hierarchy)
	calculator := pricing.NewPriceCalculator(f.products, f.customers, f.rules, nil, validator,
		pricing.WithClock(clock))

	f.calculator, f.validator, f.hierarchy, f.clock = calculator, validator, hierarchy, clock
	f.service = f.newService()
	return f
}

func (f *serviceFixture) newService(opts ...Option) *Service {
	opts = append([]Option{
		WithPublisher(f.publisher),
		WithUsageBackend("memory"),
		WithClock(f.clock),
	}, opts...)
	return NewService(f.calculator, f.validator, f.customers, f.usage, opts...)
}

func (f *serviceFixture) assertExpectations(t *testing.T) {
	f.products.AssertExpectations(t)
	f.customers.AssertExpectations(t)
	f.rules.AssertExpectations(t)
	f.promotions.AssertExpectations(t)
	f.usage.AssertExpectations(t)
	f.publisher.AssertExpectations(t)
}

func tierACustomer() *pricing.Customer {
	return &pricing.Customer{ID: uuid.New(), Code: "H-001", Name: "City Hospital", Tier: pricing.TierA, Type: pricing.CustomerTypeHospital}
}

func hundredProduct() *pricing.Product {
	return &pricing.Product{ID: uuid.New(), Code: "AMOX-500", Name: "Amoxicillin 500mg", BasePrice: decimal.NewFromInt(100)}
}

func tenPercentPromotion() *pricing.Promotion {
	return &pricing.Promotion{
		BaseEntity:              shared.NewBaseEntity(),
		Code:                    "SAVE10",
		Name:                    "Save 10%",
		Type:                    pricing.PromotionPercentageDiscount,
		Value:                   decimal.NewFromInt(10),
		IsActive:                true,
		AppliesToAllProducts:    true,
		AppliesToAllCustomers:   true,
		RequiresCode:            true,
		CanStackWithTierPricing: true,
	}
}

func useSpanRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})
	return recorder
}

// =============================================================================
// Tests
// =============================================================================

func TestService_CalculatePrice(t *testing.T) {
	recorder := useSpanRecorder(t)
	f := newServiceFixture(t)
	customer := tierACustomer()
	product := hundredProduct()
	promotion := tenPercentPromotion()

	f.customers.On("FindCustomer", mock.Anything, customer.ID).Return(customer, nil)
	f.products.On("FindProduct", mock.Anything, product.ID).Return(product, nil)
	f.rules.On("FindActive", mock.Anything).Return([]pricing.PriceRule{}, nil)
	f.promotions.On("FindByCode", mock.Anything, "SAVE10").Return(promotion, nil)

	resp, err := f.service.CalculatePrice(context.Background(), CalculatePriceRequest{
		ProductID:     product.ID,
		CustomerID:    customer.ID,
		Quantity:      2,
		PromotionCode: " save10 ",
	})
	require.NoError(t, err)

	// 100 less 15% tier, then 10% of 85
	assert.True(t, decimal.NewFromFloat(76.5).Equal(resp.FinalUnitPrice), resp.FinalUnitPrice.String())
	assert.True(t, decimal.NewFromInt(153).Equal(resp.LineTotal), resp.LineTotal.String())
	assert.Equal(t, &promotion.ID, resp.AppliedPromotionID)
	assert.Empty(t, resp.PromotionReason)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "pricing.calculate_price", spans[0].Name())
	f.assertExpectations(t)
}

func TestService_CalculatePrice_InvalidRequest(t *testing.T) {
	f := newServiceFixture(t)

	tests := []struct {
		name string
		req  CalculatePriceRequest
	}{
		{"missing product", CalculatePriceRequest{CustomerID: uuid.New(), Quantity: 1}},
		{"missing customer", CalculatePriceRequest{ProductID: uuid.New(), Quantity: 1}},
		{"zero quantity", CalculatePriceRequest{ProductID: uuid.New(), CustomerID: uuid.New()}},
		{"negative quantity", CalculatePriceRequest{ProductID: uuid.New(), CustomerID: uuid.New(), Quantity: -3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.service.CalculatePrice(context.Background(), tt.req)
			var domainErr *shared.DomainError
			require.ErrorAs(t, err, &domainErr)
			assert.Equal(t, "INVALID_INPUT", domainErr.Code)
		})
	}
	// nothing reached the stores
	f.assertExpectations(t)
}

func TestService_CalculatePrice_UnknownCustomer(t *testing.T) {
	f := newServiceFixture(t)
	id := uuid.New()
	f.customers.On("FindCustomer", mock.Anything, id).Return(nil, shared.ErrNotFound)

	_, err := f.service.CalculatePrice(context.Background(), CalculatePriceRequest{
		ProductID: uuid.New(), CustomerID: id, Quantity: 1,
	})
	assert.ErrorIs(t, err, pricing.ErrCustomerNotFound)
}

func TestService_CalculatePrices_ReportsPromotionReason(t *testing.T) {
	f := newServiceFixture(t)
	customer := tierACustomer()
	first, second := hundredProduct(), hundredProduct()

	f.customers.On("FindCustomer", mock.Anything, customer.ID).Return(customer, nil)
	f.products.On("FindProduct", mock.Anything, first.ID).Return(first, nil)
	f.products.On("FindProduct", mock.Anything, second.ID).Return(second, nil)
	f.rules.On("FindActive", mock.Anything).Return([]pricing.PriceRule{}, nil)
	f.promotions.On("FindByCode", mock.Anything, "GONE").Return(nil, shared.ErrNotFound)

	resp, err := f.service.CalculatePrices(context.Background(), CalculatePricesRequest{
		CustomerID: customer.ID,
		Items: []LineItemRequest{
			{ProductID: first.ID, Quantity: 1},
			{ProductID: second.ID, Quantity: 3},
		},
		PromotionCode: "gone",
	})
	require.NoError(t, err)

	require.Len(t, resp.Lines, 2)
	assert.Nil(t, resp.AppliedPromotion)
	assert.Equal(t, string(pricing.ReasonNotFound), resp.PromotionReason)
	assert.NotEmpty(t, resp.PromotionMessage)
	assert.True(t, decimal.NewFromInt(340).Equal(resp.Total), resp.Total.String())
	f.assertExpectations(t)
}

func TestService_CalculatePrices_RejectsEmptyOrder(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.service.CalculatePrices(context.Background(), CalculatePricesRequest{CustomerID: uuid.New()})
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "INVALID_INPUT", domainErr.Code)

	_, err = f.service.CalculatePrices(context.Background(), CalculatePricesRequest{
		CustomerID: uuid.New(),
		Items:      []LineItemRequest{{ProductID: uuid.New(), Quantity: 0}},
	})
	require.ErrorAs(t, err, &domainErr)
}

func TestService_ValidatePromotion(t *testing.T) {
	f := newServiceFixture(t)
	customer := tierACustomer()
	promotion := tenPercentPromotion()
	promotion.MinimumOrderAmount = decimal.NewFromInt(500)

	f.customers.On("FindCustomer", mock.Anything, customer.ID).Return(customer, nil)
	f.promotions.On("FindByCode", mock.Anything, "SAVE10").Return(promotion, nil)

	t.Run("below minimum", func(t *testing.T) {
		resp, err := f.service.ValidatePromotion(context.Background(), ValidatePromotionRequest{
			Code: "SAVE10", CustomerID: customer.ID, OrderTotal: decimal.NewFromInt(200),
		})
		require.NoError(t, err)
		assert.False(t, resp.Valid)
		assert.Equal(t, string(pricing.ReasonMinimumNotMet), resp.Reason)
		require.NotNil(t, resp.Promotion)
		assert.Equal(t, "SAVE10", resp.Promotion.Code)
	})

	t.Run("valid", func(t *testing.T) {
		resp, err := f.service.ValidatePromotion(context.Background(), ValidatePromotionRequest{
			Code: "save10", CustomerID: customer.ID, OrderTotal: decimal.NewFromInt(1000),
		})
		require.NoError(t, err)
		assert.True(t, resp.Valid)
		assert.True(t, decimal.NewFromInt(100).Equal(resp.EstimatedDiscount), resp.EstimatedDiscount.String())
	})

	t.Run("negative total", func(t *testing.T) {
		_, err := f.service.ValidatePromotion(context.Background(), ValidatePromotionRequest{
			Code: "SAVE10", CustomerID: customer.ID, OrderTotal: decimal.NewFromInt(-1),
		})
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_INPUT", domainErr.Code)
	})
}

func TestService_ValidatePromotion_StoreFailure(t *testing.T) {
	f := newServiceFixture(t)
	customer := tierACustomer()
	f.customers.On("FindCustomer", mock.Anything, customer.ID).Return(customer, nil)
	f.promotions.On("FindByCode", mock.Anything, "SAVE10").Return(nil, errors.New("connection reset"))

	_, err := f.service.ValidatePromotion(context.Background(), ValidatePromotionRequest{
		Code: "SAVE10", CustomerID: customer.ID, OrderTotal: decimal.NewFromInt(10),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestService_GetAvailablePromotions(t *testing.T) {
	f := newServiceFixture(t)
	customer := tierACustomer()

	auto := tenPercentPromotion()
	auto.Code = "AUTO-SPRING"
	auto.RequiresCode = false
	expired := tenPercentPromotion()
	expired.Code = "AUTO-WINTER"
	expired.RequiresCode = false
	end := fixedNow.Add(-time.Hour)
	expired.EndDate = &end

	f.customers.On("FindCustomer", mock.Anything, customer.ID).Return(customer, nil)
	f.promotions.On("FindAutoApplied", mock.Anything).Return([]pricing.Promotion{*auto, *expired}, nil)

	resp, err := f.service.GetAvailablePromotions(context.Background(), customer.ID)
	require.NoError(t, err)
	require.Len(t, resp, 1)
	assert.Equal(t, "AUTO-SPRING", resp[0].Code)
	assert.False(t, resp[0].RequiresCode)

	_, err = f.service.GetAvailablePromotions(context.Background(), uuid.Nil)
	assert.Error(t, err)
}

func TestService_GetAvailablePromotions_InheritedFrom(t *testing.T) {
	f := newServiceFixture(t)
	f.service = f.newService(WithHierarchy(f.hierarchy))

	hq := tierACustomer()
	branch := tierACustomer()
	branch.ParentID = &hq.ID

	group := tenPercentPromotion()
	group.Code = "AUTO-GROUP"
	group.RequiresCode = false
	group.AppliesToAllCustomers = false
	group.CustomerID = &hq.ID
	group.ApplyToChildCustomers = true

	everyone := tenPercentPromotion()
	everyone.Code = "AUTO-ALL"
	everyone.RequiresCode = false

	f.customers.On("FindCustomer", mock.Anything, branch.ID).Return(branch, nil)
	f.customers.On("FindCustomer", mock.Anything, hq.ID).Return(hq, nil)
	f.promotions.On("FindAutoApplied", mock.Anything).Return([]pricing.Promotion{*group, *everyone}, nil)

	resp, err := f.service.GetAvailablePromotions(context.Background(), branch.ID)
	require.NoError(t, err)
	require.Len(t, resp, 2)
	assert.Equal(t, "AUTO-ALL", resp[0].Code)
	assert.Nil(t, resp[0].InheritedFrom)
	assert.Equal(t, "AUTO-GROUP", resp[1].Code)
	require.NotNil(t, resp[1].InheritedFrom)
	assert.Equal(t, hq.ID, *resp[1].InheritedFrom)

	t.Run("headquarters sees its own promotion as direct", func(t *testing.T) {
		resp, err := f.service.GetAvailablePromotions(context.Background(), hq.ID)
		require.NoError(t, err)
		require.Len(t, resp, 2)
		assert.Nil(t, resp[1].InheritedFrom)
	})
}

func TestService_RecordPromotionUsage_EventCarriesHeadquarters(t *testing.T) {
	f := newServiceFixture(t)
	f.service = f.newService(WithHierarchy(f.hierarchy))

	hq := tierACustomer()
	branch := tierACustomer()
	branch.ParentID = &hq.ID
	req := RecordUsageRequest{PromotionID: uuid.New(), CustomerID: branch.ID, OrderID: uuid.New()}

	f.usage.On("Record", mock.Anything, mock.Anything).Return(pricing.UsageRecorded, nil).Once()
	f.customers.On("FindCustomer", mock.Anything, branch.ID).Return(branch, nil)
	f.customers.On("FindCustomer", mock.Anything, hq.ID).Return(hq, nil)
	f.publisher.On("PublishUsageRecorded", mock.Anything, mock.MatchedBy(func(evt pricing.UsageRecordedEvent) bool {
		return evt.CustomerID == branch.ID && evt.HeadquartersID != nil && *evt.HeadquartersID == hq.ID
	})).Return(nil).Once()

	_, err := f.service.RecordPromotionUsage(context.Background(), req)
	require.NoError(t, err)

	t.Run("unknown customer is published without headquarters", func(t *testing.T) {
		stranger := uuid.New()
		f.usage.On("Record", mock.Anything, mock.Anything).Return(pricing.UsageRecorded, nil).Once()
		f.customers.On("FindCustomer", mock.Anything, stranger).Return(nil, shared.ErrNotFound)
		f.publisher.On("PublishUsageRecorded", mock.Anything, mock.MatchedBy(func(evt pricing.UsageRecordedEvent) bool {
			return evt.CustomerID == stranger && evt.HeadquartersID == nil
		})).Return(nil).Once()

		_, err := f.service.RecordPromotionUsage(context.Background(),
			RecordUsageRequest{PromotionID: uuid.New(), CustomerID: stranger, OrderID: uuid.New()})
		require.NoError(t, err)
	})

	f.assertExpectations(t)
}

func TestService_RecordPromotionUsage(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	ctx := logger.WithContext(context.Background(), zap.New(core))

	f := newServiceFixture(t)
	req := RecordUsageRequest{PromotionID: uuid.New(), CustomerID: uuid.New(), OrderID: uuid.New()}
	usageReq := pricing.UsageRequest{PromotionID: req.PromotionID, CustomerID: req.CustomerID, OrderID: req.OrderID}

	f.usage.On("Record", mock.Anything, usageReq).Return(pricing.UsageRecorded, nil).Once()
	f.publisher.On("PublishUsageRecorded", mock.Anything, pricing.UsageRecordedEvent{
		PromotionID: req.PromotionID,
		CustomerID:  req.CustomerID,
		OrderID:     req.OrderID,
		RecordedAt:  fixedNow,
	}).Return(nil).Once()

	resp, err := f.service.RecordPromotionUsage(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, string(pricing.UsageRecorded), resp.Outcome)

	entries := recorded.FilterMessage("Promotion usage recorded").All()
	require.Len(t, entries, 1)
	assert.Equal(t, req.OrderID.String(), entries[0].ContextMap()["order_id"])

	// replays are not announced again
	f.usage.On("Record", mock.Anything, usageReq).Return(pricing.UsageAlreadyRecorded, nil).Once()
	resp, err = f.service.RecordPromotionUsage(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, string(pricing.UsageAlreadyRecorded), resp.Outcome)

	f.assertExpectations(t)
}

func TestService_RecordPromotionUsage_LimitIsOutcome(t *testing.T) {
	f := newServiceFixture(t)
	req := RecordUsageRequest{PromotionID: uuid.New(), CustomerID: uuid.New(), OrderID: uuid.New()}
	f.usage.On("Record", mock.Anything, mock.Anything).Return(pricing.UsageCustomerLimitExceeded, nil)

	resp, err := f.service.RecordPromotionUsage(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, string(pricing.UsageCustomerLimitExceeded), resp.Outcome)
	f.publisher.AssertNotCalled(t, "PublishUsageRecorded", mock.Anything, mock.Anything)
}

func TestService_RecordPromotionUsage_PublishFailureIsLogged(t *testing.T) {
	core, recorded := observer.New(zapcore.WarnLevel)
	ctx := logger.WithContext(context.Background(), zap.New(core))

	f := newServiceFixture(t)
	req := RecordUsageRequest{PromotionID: uuid.New(), CustomerID: uuid.New(), OrderID: uuid.New()}
	f.usage.On("Record", mock.Anything, mock.Anything).Return(pricing.UsageRecorded, nil)
	f.publisher.On("PublishUsageRecorded", mock.Anything, mock.Anything).Return(errors.New("broker down"))

	resp, err := f.service.RecordPromotionUsage(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, string(pricing.UsageRecorded), resp.Outcome)
	assert.Equal(t, 1, recorded.FilterMessage("Failed to publish promotion usage event").Len())
}

func TestService_RecordPromotionUsage_Errors(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.service.RecordPromotionUsage(context.Background(), RecordUsageRequest{CustomerID: uuid.New(), OrderID: uuid.New()})
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "INVALID_INPUT", domainErr.Code)

	f.usage.On("Record", mock.Anything, mock.Anything).Return(pricing.UsageOutcome(""), pricing.ErrPromotionNotFound)
	_, err = f.service.RecordPromotionUsage(context.Background(), RecordUsageRequest{
		PromotionID: uuid.New(), CustomerID: uuid.New(), OrderID: uuid.New(),
	})
	assert.ErrorIs(t, err, pricing.ErrPromotionNotFound)
}

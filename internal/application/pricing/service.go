package pricing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/erp/pricing/internal/domain/pricing"
	"github.com/erp/pricing/internal/domain/shared"
	"github.com/erp/pricing/internal/infrastructure/logger"
	"github.com/erp/pricing/internal/infrastructure/telemetry"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const spanService = "pricing"

// Service exposes the pricing engine operations to the transport layer
type Service struct {
	calculator   *pricing.PriceCalculator
	promotions   *pricing.PromotionValidator
	customers    pricing.CustomerReader
	hierarchy    *pricing.CustomerHierarchyResolver
	usage        pricing.UsageTracker
	publisher    pricing.UsageEventPublisher
	metrics      *telemetry.PricingMetrics
	usageBackend string
	validate     *validator.Validate
	now          func() time.Time
}

// Option configures a Service
type Option func(*Service)

// WithPublisher announces recorded usages through publisher
func WithPublisher(publisher pricing.UsageEventPublisher) Option {
	return func(s *Service) {
		s.publisher = publisher
	}
}

// WithHierarchy resolves parent customers for inherited promotions and
// usage events. Without it both are reported without hierarchy data.
func WithHierarchy(hierarchy *pricing.CustomerHierarchyResolver) Option {
	return func(s *Service) {
		s.hierarchy = hierarchy
	}
}

// WithMetrics records business metrics. nil disables them.
func WithMetrics(metrics *telemetry.PricingMetrics) Option {
	return func(s *Service) {
		s.metrics = metrics
	}
}

// WithUsageBackend names the usage store in metrics
func WithUsageBackend(backend string) Option {
	return func(s *Service) {
		s.usageBackend = backend
	}
}

// WithClock overrides the time source used for promotion windows
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService creates a new pricing Service
func NewService(
	calculator *pricing.PriceCalculator,
	promotions *pricing.PromotionValidator,
	customers pricing.CustomerReader,
	usage pricing.UsageTracker,
	opts ...Option,
) *Service {
	// request DTOs carry gin binding tags; validate them again here so the
	// service is safe to call without the HTTP layer
	v := validator.New(validator.WithRequiredStructEnabled())
	v.SetTagName("binding")

	s := &Service{
		calculator:   calculator,
		promotions:   promotions,
		customers:    customers,
		usage:        usage,
		usageBackend: "unknown",
		validate:     v,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CalculatePrice prices one product for a customer
func (s *Service) CalculatePrice(ctx context.Context, req CalculatePriceRequest) (*PriceCalculationResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, spanService, "calculate_price",
		telemetry.WithAttribute(telemetry.SpanAttrProductID, req.ProductID.String()),
		telemetry.WithAttribute(telemetry.SpanAttrCustomerID, req.CustomerID.String()),
		telemetry.WithAttribute(telemetry.SpanAttrQuantity, req.Quantity),
	)
	defer span.End()

	if err := s.validateRequest(req); err != nil {
		return nil, err
	}
	ctx = logger.WithCustomerID(ctx, req.CustomerID.String())

	start := time.Now()
	result, err := s.calculator.CalculatePrice(ctx, req.ProductID, req.CustomerID, req.Quantity, req.PromotionCode)
	if err != nil {
		s.metrics.RecordCalculation(ctx, "error", "", time.Since(start))
		telemetry.RecordError(span, err)
		logCalculationError(ctx, err)
		return nil, err
	}
	s.metrics.RecordCalculation(ctx, "ok", string(result.PromotionReason), time.Since(start))

	telemetry.SetAttributes(span,
		"final_unit_price", result.FinalUnitPrice.String(),
		telemetry.SpanAttrReason, string(result.PromotionReason),
	)
	logger.L(ctx).Debug("Price calculated",
		zap.String("product_id", req.ProductID.String()),
		zap.Int("quantity", req.Quantity),
		zap.String("final_unit_price", result.FinalUnitPrice.String()),
	)

	resp := ToPriceCalculationResponse(result)
	return &resp, nil
}

// CalculatePrices prices a whole order
func (s *Service) CalculatePrices(ctx context.Context, req CalculatePricesRequest) (*OrderPriceResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, spanService, "calculate_prices",
		telemetry.WithAttribute(telemetry.SpanAttrCustomerID, req.CustomerID.String()),
		telemetry.WithAttribute(telemetry.SpanAttrItemCount, len(req.Items)),
	)
	defer span.End()

	if err := s.validateRequest(req); err != nil {
		return nil, err
	}
	ctx = logger.WithCustomerID(ctx, req.CustomerID.String())

	items := make([]pricing.LineItem, len(req.Items))
	for i, item := range req.Items {
		items[i] = pricing.LineItem{ProductID: item.ProductID, Quantity: item.Quantity}
	}

	start := time.Now()
	result, err := s.calculator.CalculatePrices(ctx, items, req.CustomerID, req.PromotionCode)
	if err != nil {
		s.metrics.RecordCalculation(ctx, "error", "", time.Since(start))
		telemetry.RecordError(span, err)
		logCalculationError(ctx, err)
		return nil, err
	}
	s.metrics.RecordCalculation(ctx, "ok", string(result.PromotionReason), time.Since(start))

	telemetry.SetAttributes(span,
		"order_total_after_discount", result.Total.String(),
		telemetry.SpanAttrReason, string(result.PromotionReason),
	)
	if result.AppliedPromotion != nil {
		telemetry.SetAttributes(span, telemetry.SpanAttrPromotionCode, result.AppliedPromotion.Code)
	}

	resp := ToOrderPriceResponse(result)
	return &resp, nil
}

// ValidatePromotion checks a promotion code against a customer and order total
func (s *Service) ValidatePromotion(ctx context.Context, req ValidatePromotionRequest) (*PromotionValidationResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, spanService, "validate_promotion",
		telemetry.WithAttribute(telemetry.SpanAttrCustomerID, req.CustomerID.String()),
		telemetry.WithAttribute(telemetry.SpanAttrPromotionCode, pricing.NormalizePromotionCode(req.Code)),
	)
	defer span.End()

	if err := s.validateRequest(req); err != nil {
		return nil, err
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrOrderTotal, req.OrderTotal.String())
	if req.OrderTotal.IsNegative() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Order total cannot be negative")
	}
	ctx = logger.WithCustomerID(ctx, req.CustomerID.String())

	customer, err := s.loadCustomer(ctx, req.CustomerID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	validation, err := s.promotions.Validate(ctx, req.Code, *customer, req.OrderTotal, s.now())
	if err != nil {
		telemetry.RecordError(span, err)
		logger.L(ctx).Error("Failed to validate promotion", zap.Error(err))
		return nil, err
	}
	s.metrics.RecordValidation(ctx, string(validation.Reason))
	telemetry.SetAttributes(span,
		"promotion_valid", validation.Valid,
		telemetry.SpanAttrReason, string(validation.Reason),
	)

	resp := ToPromotionValidationResponse(validation)
	return &resp, nil
}

// GetAvailablePromotions lists the code-less promotions a customer can use now
func (s *Service) GetAvailablePromotions(ctx context.Context, customerID uuid.UUID) ([]PromotionResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, spanService, "get_available_promotions",
		telemetry.WithAttribute(telemetry.SpanAttrCustomerID, customerID.String()),
	)
	defer span.End()

	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Customer ID is required")
	}
	ctx = logger.WithCustomerID(ctx, customerID.String())

	customer, err := s.loadCustomer(ctx, customerID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	promotions, err := s.promotions.GetAvailablePromotions(ctx, *customer, s.now())
	if err != nil {
		telemetry.RecordError(span, err)
		logger.L(ctx).Error("Failed to list available promotions", zap.Error(err))
		return nil, err
	}
	telemetry.SetAttributes(span, "promotion_count", len(promotions))

	resp := ToPromotionResponses(promotions)
	for i := range promotions {
		owner, err := s.inheritedFrom(ctx, *customer, &promotions[i])
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
		resp[i].InheritedFrom = owner
	}
	return resp, nil
}

// inheritedFrom returns the parent customer a promotion reaches the customer
// through, or nil when the customer qualifies on its own
func (s *Service) inheritedFrom(ctx context.Context, customer pricing.Customer, promotion *pricing.Promotion) (*uuid.UUID, error) {
	if s.hierarchy == nil || promotion.CustomerID == nil || !promotion.ApplyToChildCustomers {
		return nil, nil
	}
	if promotion.IsEligibleCustomer(customer, nil) {
		return nil, nil
	}
	owner := *promotion.CustomerID
	ok, err := s.hierarchy.IsAncestor(ctx, customer, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve customer hierarchy: %w", err)
	}
	if !ok {
		return nil, nil
	}
	return &owner, nil
}

// RecordPromotionUsage records that an order used a promotion. Limit outcomes
// are returned as outcomes, not errors. A recorded usage is announced to the
// configured publisher; publish failures are logged only.
func (s *Service) RecordPromotionUsage(ctx context.Context, req RecordUsageRequest) (*UsageResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, spanService, "record_promotion_usage",
		telemetry.WithAttribute(telemetry.SpanAttrPromotionID, req.PromotionID.String()),
		telemetry.WithAttribute(telemetry.SpanAttrCustomerID, req.CustomerID.String()),
		telemetry.WithAttribute(telemetry.SpanAttrOrderID, req.OrderID.String()),
	)
	defer span.End()

	if req.PromotionID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Promotion ID is required")
	}
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}
	ctx = logger.WithCustomerID(ctx, req.CustomerID.String())
	ctx = logger.WithOrderID(ctx, req.OrderID.String())

	outcome, err := s.usage.Record(ctx, pricing.UsageRequest{
		PromotionID: req.PromotionID,
		CustomerID:  req.CustomerID,
		OrderID:     req.OrderID,
	})
	if err != nil {
		telemetry.RecordError(span, err)
		if !errors.Is(err, pricing.ErrPromotionNotFound) {
			logger.L(ctx).Error("Failed to record promotion usage",
				zap.String("promotion_id", req.PromotionID.String()),
				zap.Error(err),
			)
		}
		return nil, err
	}
	s.metrics.RecordUsage(ctx, string(outcome), s.usageBackend)
	telemetry.SetAttributes(span, telemetry.SpanAttrOutcome, string(outcome))

	log := logger.L(ctx).With(zap.String("promotion_id", req.PromotionID.String()), zap.String("outcome", string(outcome)))
	switch {
	case outcome == pricing.UsageRecorded:
		log.Info("Promotion usage recorded")
		s.publishUsage(ctx, req)
	case outcome.IsLimit():
		log.Warn("Promotion usage rejected")
	default:
		log.Debug("Promotion usage already recorded")
	}

	return &UsageResponse{
		PromotionID: req.PromotionID,
		CustomerID:  req.CustomerID,
		OrderID:     req.OrderID,
		Outcome:     string(outcome),
	}, nil
}

func (s *Service) publishUsage(ctx context.Context, req RecordUsageRequest) {
	if s.publisher == nil {
		return
	}
	evt := pricing.UsageRecordedEvent{
		PromotionID: req.PromotionID,
		CustomerID:  req.CustomerID,
		OrderID:     req.OrderID,
		RecordedAt:  s.now().UTC(),
	}
	if hq, ok := s.headquarters(ctx, req.CustomerID); ok {
		evt.HeadquartersID = &hq
	}
	if err := s.publisher.PublishUsageRecorded(ctx, evt); err != nil {
		logger.L(ctx).Warn("Failed to publish promotion usage event", zap.Error(err))
	}
}

// headquarters resolves the topmost parent of a customer for usage events.
// Lookup failures leave the event without it.
func (s *Service) headquarters(ctx context.Context, customerID uuid.UUID) (uuid.UUID, bool) {
	if s.hierarchy == nil {
		return uuid.Nil, false
	}
	customer, err := s.customers.FindCustomer(ctx, customerID)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			logger.L(ctx).Warn("Failed to load customer for usage event", zap.Error(err))
		}
		return uuid.Nil, false
	}
	hq, err := s.hierarchy.Headquarters(ctx, *customer)
	if err != nil {
		logger.L(ctx).Warn("Failed to resolve customer headquarters", zap.Error(err))
		return uuid.Nil, false
	}
	return hq, true
}

func (s *Service) loadCustomer(ctx context.Context, id uuid.UUID) (*pricing.Customer, error) {
	customer, err := s.customers.FindCustomer(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, pricing.ErrCustomerNotFound
		}
		return nil, fmt.Errorf("failed to load customer %s: %w", id, err)
	}
	return customer, nil
}

func (s *Service) validateRequest(req any) error {
	if err := s.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Invalid %s: failed on %s", verrs[0].Field(), verrs[0].Tag()))
		}
		return shared.NewDomainError("INVALID_INPUT", err.Error())
	}
	return nil
}

// logCalculationError logs unexpected failures; missing products and
// customers are client errors and only logged at debug level
func logCalculationError(ctx context.Context, err error) {
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		logger.L(ctx).Debug("Price calculation rejected", zap.String("code", domainErr.Code), zap.Error(err))
		return
	}
	logger.L(ctx).Error("Price calculation failed", zap.Error(err))
}

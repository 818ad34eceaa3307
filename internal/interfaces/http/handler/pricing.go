package handler

import (
	"context"
	"net/http"

	pricingapp "github.com/erp/pricing/internal/application/pricing"
	"github.com/erp/pricing/internal/domain/pricing"
	"github.com/erp/pricing/internal/interfaces/http/dto"
	"github.com/erp/pricing/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// PricingService is the application surface the pricing endpoints drive
type PricingService interface {
	CalculatePrice(ctx context.Context, req pricingapp.CalculatePriceRequest) (*pricingapp.PriceCalculationResponse, error)
	CalculatePrices(ctx context.Context, req pricingapp.CalculatePricesRequest) (*pricingapp.OrderPriceResponse, error)
	ValidatePromotion(ctx context.Context, req pricingapp.ValidatePromotionRequest) (*pricingapp.PromotionValidationResponse, error)
	GetAvailablePromotions(ctx context.Context, customerID uuid.UUID) ([]pricingapp.PromotionResponse, error)
	RecordPromotionUsage(ctx context.Context, req pricingapp.RecordUsageRequest) (*pricingapp.UsageResponse, error)
}

// PricingHandler handles price calculation and promotion endpoints
type PricingHandler struct {
	BaseHandler
	service PricingService
}

// NewPricingHandler creates a new PricingHandler
func NewPricingHandler(service PricingService) *PricingHandler {
	return &PricingHandler{service: service}
}

// Routes returns the pricing route group
func (h *PricingHandler) Routes() *router.DomainGroup {
	g := router.NewDomainGroup("pricing", "/pricing")
	g.POST("/calculate", h.CalculatePrice)
	g.POST("/calculate-batch", h.CalculatePrices)
	g.GET("/customers/:id/promotions", h.GetAvailablePromotions)

	promotions := g.Group("promotions", "/promotions")
	promotions.POST("/validate", h.ValidatePromotion)
	promotions.POST("/:id/usages", h.RecordPromotionUsage)
	return g
}

// CalculatePrice godoc
//
//	@ID				calculatePrice
//	@Summary		Calculate the price of one product
//	@Description	Apply tier, price rule and promotion discounts to one product for one customer
//	@Tags			pricing
//	@Accept			json
//	@Produce		json
//	@Param			request	body		pricingapp.CalculatePriceRequest	true	"Price calculation request"
//	@Success		200		{object}	APIResponse[pricingapp.PriceCalculationResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Router			/pricing/calculate [post]
func (h *PricingHandler) CalculatePrice(c *gin.Context) {
	var req pricingapp.CalculatePriceRequest
	if !h.BindJSON(c, &req) {
		return
	}

	result, err := h.service.CalculatePrice(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// CalculatePrices godoc
//
//	@ID				calculatePrices
//	@Summary		Calculate the prices of an order
//	@Description	Price every line of an order and spread at most one promotion across the eligible lines
//	@Tags			pricing
//	@Accept			json
//	@Produce		json
//	@Param			request	body		pricingapp.CalculatePricesRequest	true	"Batch price calculation request"
//	@Success		200		{object}	APIResponse[pricingapp.OrderPriceResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		413		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Router			/pricing/calculate-batch [post]
func (h *PricingHandler) CalculatePrices(c *gin.Context) {
	var req pricingapp.CalculatePricesRequest
	if !h.BindJSON(c, &req) {
		return
	}

	result, err := h.service.CalculatePrices(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// ValidatePromotion godoc
//
//	@ID				validatePromotion
//	@Summary		Validate a promotion code
//	@Description	Check a promotion code against a customer and order total. An inapplicable code returns valid=false with the reason.
//	@Tags			promotions
//	@Accept			json
//	@Produce		json
//	@Param			request	body		pricingapp.ValidatePromotionRequest	true	"Promotion validation request"
//	@Success		200		{object}	APIResponse[pricingapp.PromotionValidationResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Router			/pricing/promotions/validate [post]
func (h *PricingHandler) ValidatePromotion(c *gin.Context) {
	var req pricingapp.ValidatePromotionRequest
	if !h.BindJSON(c, &req) {
		return
	}

	result, err := h.service.ValidatePromotion(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// GetAvailablePromotions godoc
//
//	@ID				getAvailablePromotions
//	@Summary		List available promotions
//	@Description	List the promotions without a code that a customer qualifies for, including those inherited from a parent customer
//	@Tags			promotions
//	@Produce		json
//	@Param			id	path		string	true	"Customer ID"	format(uuid)
//	@Success		200	{object}	APIResponse[[]pricingapp.PromotionResponse]
//	@Failure		400	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Failure		500	{object}	ErrorResponse
//	@Router			/pricing/customers/{id}/promotions [get]
func (h *PricingHandler) GetAvailablePromotions(c *gin.Context) {
	customerID, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}

	promotions, err := h.service.GetAvailablePromotions(c.Request.Context(), customerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, promotions)
}

// RecordPromotionUsage godoc
//
//	@ID				recordPromotionUsage
//	@Summary		Record a promotion usage
//	@Description	Record an order's use of a promotion. A first recording answers 201, a replay of the same order 200 and a reached cap 409.
//	@Tags			promotions
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string							true	"Promotion ID"	format(uuid)
//	@Param			request	body		pricingapp.RecordUsageRequest	true	"Usage request"
//	@Success		201		{object}	APIResponse[pricingapp.UsageResponse]
//	@Success		200		{object}	APIResponse[pricingapp.UsageResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		409		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Router			/pricing/promotions/{id}/usages [post]
func (h *PricingHandler) RecordPromotionUsage(c *gin.Context) {
	promotionID, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req pricingapp.RecordUsageRequest
	if !h.BindJSON(c, &req) {
		return
	}
	req.PromotionID = promotionID

	result, err := h.service.RecordPromotionUsage(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	switch pricing.UsageOutcome(result.Outcome) {
	case pricing.UsageRecorded:
		h.Created(c, result)
	case pricing.UsageLimitExceeded:
		h.Error(c, http.StatusConflict, dto.ErrCodeUsageLimitReached, "Promotion usage limit reached")
	case pricing.UsageCustomerLimitExceeded:
		h.Error(c, http.StatusConflict, dto.ErrCodeUsageLimitReached, "Customer usage limit for this promotion reached")
	default:
		h.Success(c, result)
	}
}

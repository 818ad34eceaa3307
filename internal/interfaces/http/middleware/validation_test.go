package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/erp/pricing/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type lineRequest struct {
	ProductID string `json:"product_id" binding:"required,uuid"`
	Quantity  int    `json:"quantity" binding:"required,gt=0"`
}

type orderRequest struct {
	CustomerID    string        `json:"customer_id" binding:"required"`
	Items         []lineRequest `json:"items" binding:"required,min=1,max=2,dive"`
	PromotionCode string        `json:"promotion_code" binding:"omitempty,max=5"`
}

func newValidationRouter() *gin.Engine {
	SetupValidator()
	router := gin.New()
	router.Use(RequestID())
	router.POST("/test", func(c *gin.Context) {
		var req orderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.JSON(http.StatusOK, dto.NewSuccessResponse(nil))
	})
	return router
}

func postJSON(router http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderRequestID, "req-validation")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestSetupValidator(t *testing.T) {
	SetupValidator()

	v, ok := binding.Validator.Engine().(*validator.Validate)
	assert.True(t, ok)
	assert.NotNil(t, v)
}

func TestHandleValidationError_FieldDetails(t *testing.T) {
	router := newValidationRouter()

	w := postJSON(router, `{"customer_id":"c1","items":[{"product_id":"not-a-uuid","quantity":0}],"promotion_code":"TOOLONG"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
	assert.Equal(t, "Request validation failed", resp.Error.Message)
	assert.Equal(t, "req-validation", resp.Error.RequestID)

	fields := map[string]string{}
	for _, d := range resp.Error.Details {
		fields[d.Field] = d.Message
	}
	assert.Equal(t, "Invalid UUID format", fields["product_id"])
	assert.Equal(t, "This field is required", fields["quantity"]) // zero int fails required first
	assert.Equal(t, "Must be at most 5 characters", fields["promotion_code"])
}

func TestHandleValidationError_EmptyItems(t *testing.T) {
	router := newValidationRouter()

	w := postJSON(router, `{"customer_id":"c1","items":[]}`)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	require.Len(t, resp.Error.Details, 1)
	assert.Equal(t, "items", resp.Error.Details[0].Field)
	assert.Equal(t, "Must contain at least 1 items", resp.Error.Details[0].Message)
}

func TestHandleValidationError_MalformedJSON(t *testing.T) {
	router := newValidationRouter()

	w := postJSON(router, `{"customer_id":`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), dto.ErrCodeInvalidJSON)
	assert.NotContains(t, w.Body.String(), `"details"`)
}

func TestHandleValidationError_ValidInput(t *testing.T) {
	router := newValidationRouter()

	w := postJSON(router, `{"customer_id":"c1","items":[{"product_id":"7f0c9c52-6c1e-4c4e-9d6c-6f2f5f0a1b2c","quantity":3}]}`)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGetValidationMessage(t *testing.T) {
	type sample struct {
		Required string   `validate:"required"`
		MinSlice []string `validate:"min=2"`
		MaxStr   string   `validate:"max=3"`
		GT       int      `validate:"gt=5"`
		GTE      int      `validate:"gte=10"`
		UUID     string   `validate:"uuid"`
	}

	v := validator.New()
	err := v.Struct(sample{MinSlice: []string{"a"}, MaxStr: "abcd", GT: 1, GTE: 2, UUID: "x"})
	require.Error(t, err)

	expected := map[string]string{
		"Required": "This field is required",
		"MinSlice": "Must contain at least 2 items",
		"MaxStr":   "Must be at most 3 characters",
		"GT":       "Must be greater than 5",
		"GTE":      "Must be greater than or equal to 10",
		"UUID":     "Invalid UUID format",
	}
	var validationErrs validator.ValidationErrors
	require.ErrorAs(t, err, &validationErrs)
	for _, e := range validationErrs {
		assert.Equal(t, expected[e.Field()], getValidationMessage(e), e.Field())
	}
	assert.Len(t, validationErrs, len(expected))
}

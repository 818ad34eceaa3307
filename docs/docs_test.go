package docs_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/erp/pricing/docs"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

type swaggerDoc struct {
	BasePath    string                                `json:"basePath"`
	Paths       map[string]map[string]json.RawMessage `json:"paths"`
	Definitions map[string]json.RawMessage            `json:"definitions"`
}

var pricingRoutes = map[string]string{
	"/pricing/calculate":                 "post",
	"/pricing/calculate-batch":           "post",
	"/pricing/promotions/validate":       "post",
	"/pricing/customers/{id}/promotions": "get",
	"/pricing/promotions/{id}/usages":    "post",
}

func assertPricingDoc(t *testing.T, raw []byte) {
	t.Helper()
	var doc swaggerDoc
	require.NoError(t, json.Unmarshal(raw, &doc))

	assert.Equal(t, "/api/v1", doc.BasePath)
	assert.Len(t, doc.Paths, len(pricingRoutes))
	for path, method := range pricingRoutes {
		require.Contains(t, doc.Paths, path)
		assert.Contains(t, doc.Paths[path], method, path)
	}
	assert.Contains(t, doc.Definitions, "handler.ErrorResponse")
	assert.Contains(t, doc.Definitions, "handler.APIResponse-pricing_OrderPriceResponse")
}

func TestSwaggerInfo_ReadDoc(t *testing.T) {
	assertPricingDoc(t, []byte(docs.SwaggerInfo.ReadDoc()))
}

func TestSwaggerHandler_ServesDocJSON(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil)
	engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assertPricingDoc(t, w.Body.Bytes())
}

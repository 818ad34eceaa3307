package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(engine *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestNewRouter(t *testing.T) {
	r := NewRouter(gin.New())

	assert.NotNil(t, r)
	assert.Equal(t, "v1", r.apiVersion)
	assert.Empty(t, r.registrars)
}

func TestRouterWithAPIVersion(t *testing.T) {
	r := NewRouter(gin.New(), WithAPIVersion("v2"))

	assert.Equal(t, "v2", r.apiVersion)
}

func TestRouterSetup(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine, WithAPIVersion("v2"))

	group := NewDomainGroup("pricing", "/pricing")
	group.POST("/calculate", func(c *gin.Context) {
		c.String(http.StatusOK, "priced")
	})
	r.Register(group).Setup()

	w := serve(engine, http.MethodPost, "/api/v2/pricing/calculate")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "priced", w.Body.String())

	assert.Equal(t, http.StatusNotFound, serve(engine, http.MethodPost, "/api/v1/pricing/calculate").Code)
}

func TestDomainGroup(t *testing.T) {
	t.Run("name and prefix", func(t *testing.T) {
		g := NewDomainGroup("pricing", "/pricing")
		assert.Equal(t, "pricing", g.Name())
		assert.Equal(t, "/pricing", g.Prefix())
	})

	t.Run("methods are kept apart", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("pricing", "/pricing")
		g.GET("/customers/:id/promotions", func(c *gin.Context) {
			c.String(http.StatusOK, c.Param("id"))
		}).POST("/calculate", func(c *gin.Context) {
			c.String(http.StatusOK, "post")
		})
		g.RegisterRoutes(engine.Group("/api/v1"))

		w := serve(engine, http.MethodGet, "/api/v1/pricing/customers/c-42/promotions")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "c-42", w.Body.String())

		assert.Equal(t, http.StatusOK, serve(engine, http.MethodPost, "/api/v1/pricing/calculate").Code)
		assert.Equal(t, http.StatusNotFound, serve(engine, http.MethodGet, "/api/v1/pricing/calculate").Code)
	})

	t.Run("applies middleware", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("pricing", "/pricing")
		g.Use(func(c *gin.Context) {
			c.Header("X-Test-Middleware", "applied")
			c.Next()
		})
		g.GET("/ping", func(c *gin.Context) {
			c.String(http.StatusOK, "ok")
		})
		g.RegisterRoutes(engine.Group("/api/v1"))

		w := serve(engine, http.MethodGet, "/api/v1/pricing/ping")
		assert.Equal(t, "applied", w.Header().Get("X-Test-Middleware"))
	})

	t.Run("subgroups nest under the parent prefix", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("pricing", "/pricing")
		promotions := g.Group("promotions", "/promotions")
		promotions.POST("/validate", func(c *gin.Context) {
			c.String(http.StatusOK, "validated")
		})
		promotions.POST("/:id/usages", func(c *gin.Context) {
			c.String(http.StatusCreated, c.Param("id"))
		})
		g.RegisterRoutes(engine.Group("/api/v1"))

		w1 := serve(engine, http.MethodPost, "/api/v1/pricing/promotions/validate")
		assert.Equal(t, http.StatusOK, w1.Code)
		assert.Equal(t, "validated", w1.Body.String())

		w2 := serve(engine, http.MethodPost, "/api/v1/pricing/promotions/p-7/usages")
		assert.Equal(t, http.StatusCreated, w2.Code)
		assert.Equal(t, "p-7", w2.Body.String())
	})
}

func TestMultipleDomainGroups(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)

	pricing := NewDomainGroup("pricing", "/pricing")
	pricing.POST("/calculate", func(c *gin.Context) {
		c.String(http.StatusOK, "pricing")
	})
	system := NewDomainGroup("system", "/system")
	system.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	r.Register(pricing).Register(system)
	r.Setup()

	assert.Equal(t, "pricing", serve(engine, http.MethodPost, "/api/v1/pricing/calculate").Body.String())
	assert.Equal(t, "pong", serve(engine, http.MethodGet, "/api/v1/system/ping").Body.String())
}

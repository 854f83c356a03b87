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
	r := NewRouter(engine, WithAPIVersion("v1"))

	group := NewDomainGroup("jobs", "/jobs")
	group.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	r.Register(group).Setup()

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/jobs/ping", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())
}

func TestRouterMiddlewareScopedToAPI(t *testing.T) {
	engine := gin.New()
	engine.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	deny := func(c *gin.Context) { c.AbortWithStatus(http.StatusUnauthorized) }
	group := NewDomainGroup("jobs", "/jobs").GET("", func(c *gin.Context) { c.Status(http.StatusOK) })
	NewRouter(engine, WithMiddleware(deny)).Register(group).Setup()

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/jobs", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestDomainGroup(t *testing.T) {
	t.Run("creates group with name and prefix", func(t *testing.T) {
		g := NewDomainGroup("contract-groups", "/contract-groups")
		assert.Equal(t, "contract-groups", g.Name())
		assert.Equal(t, "/contract-groups", g.Prefix())
	})

	t.Run("registers every method", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("test", "/test")
		g.GET("/a", func(c *gin.Context) { c.String(http.StatusOK, "a") }).
			POST("/b", func(c *gin.Context) { c.String(http.StatusOK, "b") }).
			PATCH("/c", func(c *gin.Context) { c.String(http.StatusOK, "c") })
		g.RegisterRoutes(engine.Group("/api/v1"))

		tests := []struct {
			method string
			path   string
			body   string
		}{
			{http.MethodGet, "/api/v1/test/a", "a"},
			{http.MethodPost, "/api/v1/test/b", "b"},
			{http.MethodPatch, "/api/v1/test/c", "c"},
		}
		for _, tt := range tests {
			w := httptest.NewRecorder()
			engine.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, http.StatusOK, w.Code, "route %s %s", tt.method, tt.path)
			assert.Equal(t, tt.body, w.Body.String())
		}
	})

	t.Run("applies group middleware", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("test", "/test")
		g.Use(func(c *gin.Context) {
			c.Header("X-Group", "test")
			c.Next()
		})
		g.GET("/items", func(c *gin.Context) { c.Status(http.StatusOK) })
		g.RegisterRoutes(engine.Group("/api/v1"))

		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/test/items", nil))
		assert.Equal(t, "test", w.Header().Get("X-Group"))
	})

	t.Run("nests subgroups", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("billing", "/billing")
		g.Group("invoicers", "/invoicers").GET("/:id/export", func(c *gin.Context) {
			c.String(http.StatusOK, c.Param("id"))
		})
		g.RegisterRoutes(engine.Group("/api/v1"))

		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/billing/invoicers/42/export", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "42", w.Body.String())
	})
}

func TestDomainGroupRoutes(t *testing.T) {
	noop := func(c *gin.Context) {}
	g := NewDomainGroup("billing", "/billing").GET("", noop).POST("/generate", noop)
	g.Group("jobs", "/jobs").GET("/:id", noop)

	assert.Equal(t, []string{
		"GET /billing",
		"POST /billing/generate",
		"GET /billing/jobs/:id",
	}, g.Routes())
}

package router

import (
	"github.com/erp/billing/internal/infrastructure/auth"
	"github.com/erp/billing/internal/infrastructure/config"
	"github.com/erp/billing/internal/infrastructure/logger"
	"github.com/erp/billing/internal/interfaces/http/handler"
	"github.com/erp/billing/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// EngineConfig holds everything NewEngine mounts
type EngineConfig struct {
	HTTP           config.HTTPConfig
	ServiceName    string
	TracingEnabled bool
	Meter          metric.Meter      // nil disables HTTP metrics
	JWT            *auth.JWTService  // required when HTTP.AuthEnabled
	Logger         *zap.Logger
	Health         *handler.HealthHandler
	Handlers       Handlers
}

// NewEngine builds the gin engine of the billing API: global middleware,
// health checks, then the versioned API behind authentication
func NewEngine(cfg EngineConfig) (*gin.Engine, error) {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		return nil, err
	}

	engine.Use(
		middleware.Tracing(middleware.TracingConfig{ServiceName: cfg.ServiceName, Enabled: cfg.TracingEnabled}),
		logger.GinMiddleware(log),
		logger.Recovery(log),
		middleware.SpanEnricher(),
		middleware.HTTPMetrics(cfg.Meter),
		middleware.CORS(cfg.HTTP.CORSAllowOrigins),
		middleware.Secure(),
		middleware.BodyLimit(cfg.HTTP.MaxBodySize),
	)

	if cfg.Health != nil {
		engine.GET("/health", cfg.Health.Health)
	}

	api := []gin.HandlerFunc{middleware.Timeout(cfg.HTTP.RequestTimeout)}
	if cfg.HTTP.AuthEnabled {
		jwtCfg := middleware.DefaultJWTConfig(cfg.JWT)
		jwtCfg.Logger = log
		api = append(api, middleware.JWTAuthMiddlewareWithConfig(jwtCfg))
	}

	r := NewRouter(engine, WithMiddleware(api...))
	for _, g := range BillingGroups(cfg.Handlers) {
		r.Register(g)
	}
	r.Setup()

	return engine, nil
}

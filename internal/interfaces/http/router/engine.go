package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pharmacy/backend/internal/domain/identity"
	"github.com/pharmacy/backend/internal/infrastructure/auth"
	"github.com/pharmacy/backend/internal/infrastructure/logger"
	"github.com/pharmacy/backend/internal/interfaces/http/handler"
	"github.com/pharmacy/backend/internal/interfaces/http/middleware"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// APIVersion is the prefix segment of every API route
const APIVersion = "v1"

// Options configures the engine middleware chain
type Options struct {
	ServiceName      string
	Production       bool
	TracingEnabled   bool
	Meter            metric.Meter // nil disables HTTP metrics
	MaxBodySize      int64
	RateLimiter      *middleware.RateLimiter // nil disables rate limiting
	CORSAllowOrigins []string
	TrustedProxies   []string
	Logger           *zap.Logger
}

// Handlers are the route targets of the API
type Handlers struct {
	Health    *handler.HealthHandler
	Auth      *handler.AuthHandler
	Medicine  *handler.MedicineHandler
	Inventory *handler.InventoryHandler
	Sales     *handler.SalesHandler
	Customer  *handler.CustomerHandler
}

// stockWriters may change the catalog and the batch ledger
var stockWriters = []string{
	string(identity.RolePharmacyManager),
	string(identity.RolePharmacist),
}

// NewEngine builds the gin engine: global middleware, /health and the /api/v1 routes
func NewEngine(opts Options, jwtService *auth.JWTService, h Handlers) (*gin.Engine, error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Production {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(opts.TrustedProxies); err != nil {
		return nil, err
	}

	cors := middleware.DefaultCORSConfig()
	if len(opts.CORSAllowOrigins) > 0 {
		cors.AllowOrigins = opts.CORSAllowOrigins
	}

	engine.Use(
		middleware.RequestID(),
		logger.Recovery(opts.Logger),
		middleware.Tracing(opts.ServiceName, opts.TracingEnabled),
		middleware.SpanEnricher(),
		logger.GinMiddleware(opts.Logger),
		middleware.HTTPMetrics(opts.Meter, opts.Logger),
		middleware.SecureWithConfig(middleware.SecurityConfig{HSTSEnabled: opts.Production, HSTSMaxAge: int((365 * 24 * time.Hour).Seconds())}),
		middleware.CORSWithConfig(cors),
	)
	if opts.MaxBodySize > 0 {
		engine.Use(middleware.BodyLimit(opts.MaxBodySize))
	}
	engine.NoRoute(middleware.NoRoute())

	engine.GET("/health", h.Health.Health)

	authenticated := middleware.JWTAuthMiddleware(jwtService, opts.Logger)
	writers := middleware.RequireRoles(stockWriters...)

	var perClient []gin.HandlerFunc
	if opts.RateLimiter != nil {
		perClient = append(perClient, middleware.RateLimit(opts.RateLimiter))
	}

	authGroup := NewDomainGroup("auth", "/auth").Use(perClient...).
		POST("/login", h.Auth.Login).
		POST("/refresh", h.Auth.Refresh).
		GET("/me", authenticated, h.Auth.Me)

	medicines := NewDomainGroup("medicines", "/medicines").Use(authenticated).Use(perClient...).
		GET("", h.Medicine.List).
		GET("/:id", h.Medicine.Get).
		GET("/:id/batches", h.Medicine.Batches).
		POST("", writers, h.Medicine.Create).
		PUT("/:id", writers, h.Medicine.Update).
		POST("/:id/activate", writers, h.Medicine.Activate).
		POST("/:id/deactivate", writers, h.Medicine.Deactivate)

	inventory := NewDomainGroup("inventory", "/inventory").Use(authenticated).Use(perClient...).
		GET("", h.Inventory.List).
		GET("/low-stock", h.Inventory.LowStock).
		GET("/expiring", h.Inventory.Expiring).
		POST("", writers, h.Inventory.Intake)

	sales := NewDomainGroup("sales", "/sales").Use(authenticated).Use(perClient...).
		POST("", h.Sales.Create).
		GET("", h.Sales.List).
		GET("/:invoiceNumber", h.Sales.Get)

	customers := NewDomainGroup("customers", "/customers").Use(authenticated).Use(perClient...).
		GET("", h.Customer.List).
		GET("/:id", h.Customer.Get).
		GET("/:id/purchase-history", h.Customer.PurchaseHistory)

	NewRouter(engine, WithAPIVersion(APIVersion)).
		Register(authGroup).
		Register(medicines).
		Register(inventory).
		Register(sales).
		Register(customers).
		Setup()

	return engine, nil
}

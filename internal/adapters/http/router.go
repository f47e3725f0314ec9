package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/meli/ecommerce-orders-api/internal/adapters/config"
	"github.com/meli/ecommerce-orders-api/internal/adapters/http/controllers"
	"github.com/meli/ecommerce-orders-api/internal/adapters/http/handlers"
	"github.com/meli/ecommerce-orders-api/internal/adapters/http/middleware"
)

const defaultShutdownTimeout = 2 * time.Second

// Metrics is the request observer plus the handler exposing what it collected.
type Metrics interface {
	middleware.RequestObserver
	Handler() http.Handler
}

type Router struct {
	healthController *controllers.HealthController
	orderController  *controllers.OrderController
	docsController   *controllers.DocsController
	rateLimiter      middleware.RateLimiter
	rateLimit        config.RateLimitConfig
	metrics          Metrics
}

// NewRouter wires the controllers. rateLimiter is only used when rateLimit is
// enabled, and metrics may be nil.
func NewRouter(
	healthController *controllers.HealthController,
	orderController *controllers.OrderController,
	docsController *controllers.DocsController,
	rateLimiter middleware.RateLimiter,
	rateLimit config.RateLimitConfig,
	metrics Metrics,
) *Router {
	return &Router{
		healthController: healthController,
		orderController:  orderController,
		docsController:   docsController,
		rateLimiter:      rateLimiter,
		rateLimit:        rateLimit,
		metrics:          metrics,
	}
}

func (r *Router) SetupRoutes(router *gin.Engine) {
	handlers.UseJSONFieldNames()

	if r.metrics != nil {
		router.Use(middleware.Metrics(r.metrics))
		router.GET("/metrics", gin.WrapH(r.metrics.Handler()))
	}
	if r.docsController != nil {
		router.GET("/swagger/doc.json", r.docsController.OpenAPI)
	}

	writeLimit := func(c *gin.Context) { c.Next() }
	if r.rateLimit.Enabled && r.rateLimiter != nil {
		writeLimit = middleware.RateLimit(r.rateLimiter, r.rateLimit.Limit, r.rateLimit.Window)
	}

	apiGroup := router.Group("/api")
	v1Group := apiGroup.Group("/v1")
	{
		v1Group.Use(middleware.LogRequest())
		v1Group.GET("/health", r.healthController.Health)

		orders := v1Group.Group("/orders")
		orders.POST("", writeLimit, r.orderController.CreateOrder)
		orders.GET("", r.orderController.ListActiveOrders)
		orders.GET("/:id", r.orderController.GetOrderByID)
		orders.DELETE("/:id", writeLimit, r.orderController.SoftDeleteOrder)
	}
}

// Engine builds a gin engine with recovery and every route registered.
func (r *Router) Engine() *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())
	r.SetupRoutes(engine)
	return engine
}

func (r *Router) ListenAndServe(ctx context.Context, config config.HTTPConfig) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%s", config.BindInterface, config.Port),
		Handler:           r.Engine(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	shutdownTimeout := config.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = defaultShutdownTimeout
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

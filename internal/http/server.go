// README: API surface; registers HTTP routes and delegates to module services.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"gswash/internal/geocode"
	"gswash/internal/http/handlers"
	"gswash/internal/http/middleware"
	"gswash/internal/infra"
	"gswash/internal/modules/delegate"
	"gswash/internal/modules/loyalty"
	"gswash/internal/modules/order"
	"gswash/internal/modules/pricing"
	"gswash/internal/modules/watch"
	"gswash/internal/notify"
)

type ServerDeps struct {
	Order    *order.Service
	Pricing  *pricing.Service
	Watch    *watch.Service
	Delegate *delegate.Service
	Loyalty  *loyalty.Store
	Notify   *notify.Service
	Geocode  *geocode.Service
	Verifier infra.TokenVerifier
	Log      *zap.Logger
}

// NewRouter builds the gin engine. Customer routes only need a verified
// identity; transition routes additionally require operator capability.
func NewRouter(deps ServerDeps) http.Handler {
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(middleware.Recovery(deps.Log), middleware.Logging(deps.Log))

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	orderHandler := handlers.NewOrderHandler(deps.Order, deps.Pricing, deps.Geocode)
	streamHandler := handlers.NewStreamHandler(deps.Watch)
	delegateHandler := handlers.NewDelegateHandler(deps.Delegate, deps.Notify, deps.Loyalty)

	api := r.Group("/api", middleware.Auth(deps.Verifier))

	api.GET("/packages", orderHandler.Packages)
	api.POST("/orders", orderHandler.Create)
	api.GET("/orders", orderHandler.List)
	api.GET("/orders/last-completed", orderHandler.LastCompleted)
	api.GET("/orders/:id", orderHandler.Get)
	api.POST("/orders/:id/cancel", orderHandler.Cancel)
	api.POST("/orders/:id/pay", orderHandler.Pay)

	api.GET("/stream/orders", streamHandler.OrderList)
	api.GET("/stream/orders/:id", streamHandler.OrderDetail)
	api.GET("/stream/last-completed", streamHandler.LastCompleted)

	api.POST("/devices/token", delegateHandler.RegisterDevice)

	ops := api.Group("", middleware.RequireOperator())
	ops.POST("/orders/:id/assign", orderHandler.Assign)
	ops.POST("/orders/:id/depart", orderHandler.Depart)
	ops.POST("/orders/:id/start", orderHandler.Start)
	ops.POST("/orders/:id/complete", orderHandler.Complete)
	ops.POST("/delegates/heartbeat", delegateHandler.Heartbeat)
	ops.POST("/delegates/withdraw", delegateHandler.Withdraw)
	ops.GET("/delegates/available", delegateHandler.ListAvailable)
	ops.POST("/loyalty/rate", delegateHandler.SetLoyaltyRate)

	return r
}

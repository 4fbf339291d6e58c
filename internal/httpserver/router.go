package httpserver

import (
	"context"
	"errors"
	"io"
	"log"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/phnam24/Shop-Front-End-temp-sub000/internal/domain"
	"github.com/phnam24/Shop-Front-End-temp-sub000/internal/metrics"
	"github.com/phnam24/Shop-Front-End-temp-sub000/internal/service/checkout"
	ordersvc "github.com/phnam24/Shop-Front-End-temp-sub000/internal/service/order"
)

type sessionResolver interface {
	Resolve(ctx context.Context, token string) (*domain.Customer, error)
}

type cartService interface {
	Get(ctx context.Context, customerID string) (*domain.Cart, error)
	AddItem(ctx context.Context, customerID, productID, variantID string, quantity int) (*domain.Cart, error)
	UpdateQuantity(ctx context.Context, customerID, itemID string, quantity int) (*domain.Cart, error)
	RemoveItem(ctx context.Context, customerID, itemID string) (*domain.Cart, error)
	Clear(ctx context.Context, customerID string) (*domain.Cart, error)
	ApplyDiscountCode(ctx context.Context, customerID, code string) (*domain.Cart, error)
	RemoveDiscountCode(ctx context.Context, customerID string) (*domain.Cart, error)
	Reconcile(ctx context.Context, customerID string) (*domain.Cart, error)
}

type checkoutService interface {
	Begin(ctx context.Context, customerID string) (*checkout.View, error)
	State(ctx context.Context, customerID string) (*checkout.View, error)
	SelectAddress(ctx context.Context, customerID, addressID string) (*checkout.View, error)
	SelectPaymentMethod(ctx context.Context, customerID, method string) (*checkout.View, error)
	Advance(ctx context.Context, customerID string) (*checkout.View, error)
	GoToStep(ctx context.Context, customerID string, step int) (*checkout.View, error)
	Confirm(ctx context.Context, customerID, note string) (*domain.Order, error)
}

type orderService interface {
	Get(ctx context.Context, customerID, id string) (*domain.Order, error)
	GetByCode(ctx context.Context, customerID, code string) (*domain.Order, error)
	List(ctx context.Context, customerID string, limit, offset int) (*ordersvc.Page, error)
	Cancel(ctx context.Context, customerID, id, reason string) (*domain.Order, error)
	Advance(ctx context.Context, id string, to domain.OrderStatus, description string) (*domain.Order, error)
}

type addressBook interface {
	List(ctx context.Context, customerID string) ([]domain.Address, error)
	SetDefault(ctx context.Context, customerID, id string) (*domain.Address, error)
}

// Deps carries the services the router dispatches to.
type Deps struct {
	Sessions  sessionResolver
	Carts     cartService
	Checkout  checkoutService
	Orders    orderService
	Addresses addressBook
	Metrics   *metrics.Metrics

	// FulfillmentKey guards the fulfillment routes; empty disables them.
	FulfillmentKey string
	CORSOrigins    []string
	Readiness      []ReadinessCheck
}

func (d Deps) validate() error {
	switch {
	case d.Sessions == nil:
		return errors.New("httpserver: session resolver is required")
	case d.Carts == nil:
		return errors.New("httpserver: cart service is required")
	case d.Checkout == nil:
		return errors.New("httpserver: checkout service is required")
	case d.Orders == nil:
		return errors.New("httpserver: order service is required")
	case d.Addresses == nil:
		return errors.New("httpserver: address book is required")
	}
	return nil
}

type api struct {
	deps   Deps
	logger *log.Logger
}

// buildRouter wires routes for the API.
func buildRouter(logger *log.Logger, db *pgxpool.Pool, deps Deps) (*gin.Engine, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	useJSONFieldNames()

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.LoggerWithWriter(logger.Writer()), gin.Recovery(), deps.Metrics.Middleware())
	if len(deps.CORSOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     deps.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Authorization", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db, deps.Readiness))
	router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))

	a := &api{deps: deps, logger: logger}

	me := router.Group("/me", a.requireCustomer())
	me.GET("/cart", a.getCart)
	me.DELETE("/cart", a.clearCart)
	me.POST("/cart/items", a.addCartItem)
	me.PATCH("/cart/items/:itemId", a.updateCartItem)
	me.DELETE("/cart/items/:itemId", a.removeCartItem)
	me.POST("/cart/discount", a.applyDiscount)
	me.DELETE("/cart/discount", a.removeDiscount)
	me.POST("/cart/reconcile", a.reconcileCart)

	me.POST("/checkout", a.beginCheckout)
	me.GET("/checkout", a.checkoutState)
	me.PUT("/checkout/address", a.selectCheckoutAddress)
	me.PUT("/checkout/payment", a.selectCheckoutPayment)
	me.POST("/checkout/advance", a.advanceCheckout)
	me.POST("/checkout/step", a.goToCheckoutStep)
	me.POST("/checkout/confirm", a.confirmCheckout)

	me.GET("/orders", a.listOrders)
	me.GET("/orders/:id", a.getOrder)
	me.GET("/orders/code/:code", a.getOrderByCode)
	me.POST("/orders/:id/cancel", a.cancelOrder)

	me.GET("/addresses", a.listAddresses)
	me.PUT("/addresses/:id/default", a.setDefaultAddress)

	fulfillment := router.Group("/fulfillment", a.requireFulfillmentKey())
	fulfillment.POST("/orders/:id/status", a.advanceOrder)

	return router, nil
}

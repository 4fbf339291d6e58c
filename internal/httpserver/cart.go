package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/phnam24/Shop-Front-End-temp-sub000/internal/domain"
)

type addItemRequest struct {
	ProductID string `json:"productId" binding:"required"`
	VariantID string `json:"variantId" binding:"required"`
	// Quantity defaults to 1 when omitted.
	Quantity *int `json:"quantity"`
}

type updateQuantityRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

type discountRequest struct {
	Code string `json:"code" binding:"required,max=64"`
}

func (a *api) getCart(c *gin.Context) {
	cart, err := a.deps.Carts.Get(c.Request.Context(), customerID(c))
	a.respondCart(c, cart, err)
}

func (a *api) addCartItem(c *gin.Context) {
	var req addItemRequest
	if err := bindJSON(c, &req); err != nil {
		a.fail(c, err)
		return
	}
	qty := 1
	if req.Quantity != nil {
		qty = *req.Quantity
	}
	cart, err := a.deps.Carts.AddItem(c.Request.Context(), customerID(c), req.ProductID, req.VariantID, qty)
	a.respondCart(c, cart, err)
}

func (a *api) updateCartItem(c *gin.Context) {
	var req updateQuantityRequest
	if err := bindJSON(c, &req); err != nil {
		a.fail(c, err)
		return
	}
	cart, err := a.deps.Carts.UpdateQuantity(c.Request.Context(), customerID(c), c.Param("itemId"), *req.Quantity)
	a.respondCart(c, cart, err)
}

func (a *api) removeCartItem(c *gin.Context) {
	cart, err := a.deps.Carts.RemoveItem(c.Request.Context(), customerID(c), c.Param("itemId"))
	a.respondCart(c, cart, err)
}

func (a *api) clearCart(c *gin.Context) {
	cart, err := a.deps.Carts.Clear(c.Request.Context(), customerID(c))
	a.respondCart(c, cart, err)
}

func (a *api) applyDiscount(c *gin.Context) {
	var req discountRequest
	if err := bindJSON(c, &req); err != nil {
		a.fail(c, err)
		return
	}
	cart, err := a.deps.Carts.ApplyDiscountCode(c.Request.Context(), customerID(c), req.Code)
	a.respondCart(c, cart, err)
}

func (a *api) removeDiscount(c *gin.Context) {
	cart, err := a.deps.Carts.RemoveDiscountCode(c.Request.Context(), customerID(c))
	a.respondCart(c, cart, err)
}

func (a *api) reconcileCart(c *gin.Context) {
	cart, err := a.deps.Carts.Reconcile(c.Request.Context(), customerID(c))
	a.respondCart(c, cart, err)
}

func (a *api) respondCart(c *gin.Context, cart *domain.Cart, err error) {
	if err != nil {
		a.fail(c, err)
		return
	}
	if cart.Lines == nil {
		cart.Lines = []domain.CartLine{}
	}
	c.JSON(http.StatusOK, cart)
}

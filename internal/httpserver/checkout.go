package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/phnam24/Shop-Front-End-temp-sub000/internal/service/checkout"
)

type selectAddressRequest struct {
	AddressID string `json:"addressId" binding:"required"`
}

type selectPaymentRequest struct {
	PaymentMethod string `json:"paymentMethod" binding:"required"`
}

type goToStepRequest struct {
	Step *int `json:"step" binding:"required,min=0"`
}

type confirmRequest struct {
	Note string `json:"note" binding:"max=500"`
}

func (a *api) beginCheckout(c *gin.Context) {
	view, err := a.deps.Checkout.Begin(c.Request.Context(), customerID(c))
	a.respondView(c, view, err)
}

func (a *api) checkoutState(c *gin.Context) {
	view, err := a.deps.Checkout.State(c.Request.Context(), customerID(c))
	a.respondView(c, view, err)
}

func (a *api) selectCheckoutAddress(c *gin.Context) {
	var req selectAddressRequest
	if err := bindJSON(c, &req); err != nil {
		a.fail(c, err)
		return
	}
	view, err := a.deps.Checkout.SelectAddress(c.Request.Context(), customerID(c), req.AddressID)
	a.respondView(c, view, err)
}

func (a *api) selectCheckoutPayment(c *gin.Context) {
	var req selectPaymentRequest
	if err := bindJSON(c, &req); err != nil {
		a.fail(c, err)
		return
	}
	view, err := a.deps.Checkout.SelectPaymentMethod(c.Request.Context(), customerID(c), req.PaymentMethod)
	a.respondView(c, view, err)
}

func (a *api) advanceCheckout(c *gin.Context) {
	view, err := a.deps.Checkout.Advance(c.Request.Context(), customerID(c))
	a.respondView(c, view, err)
}

func (a *api) goToCheckoutStep(c *gin.Context) {
	var req goToStepRequest
	if err := bindJSON(c, &req); err != nil {
		a.fail(c, err)
		return
	}
	view, err := a.deps.Checkout.GoToStep(c.Request.Context(), customerID(c), *req.Step)
	a.respondView(c, view, err)
}

func (a *api) confirmCheckout(c *gin.Context) {
	var req confirmRequest
	if err := bindJSON(c, &req); err != nil {
		a.fail(c, err)
		return
	}
	order, err := a.deps.Checkout.Confirm(c.Request.Context(), customerID(c), req.Note)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

func (a *api) respondView(c *gin.Context, view *checkout.View, err error) {
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

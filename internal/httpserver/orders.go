package httpserver

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/phnam24/Shop-Front-End-temp-sub000/internal/domain"
)

var (
	errBlankCancelReason = &domain.Error{Kind: domain.KindValidation, Code: "InvalidCancelReason", Message: "reason must not be blank when given"}
	errUnknownStatus     = &domain.Error{Kind: domain.KindValidation, Code: "InvalidStatus", Message: "unknown order status"}
)

type listOrdersQuery struct {
	Limit  int `form:"limit" binding:"omitempty,min=1,max=100"`
	Offset int `form:"offset" binding:"omitempty,min=0"`
}

type cancelOrderRequest struct {
	// Reason is optional; a missing reason gets the default wording.
	Reason *string `json:"reason" binding:"omitempty,max=500"`
}

type advanceOrderRequest struct {
	Status      string `json:"status" binding:"required"`
	Description string `json:"description" binding:"max=500"`
}

func (a *api) listOrders(c *gin.Context) {
	var q listOrdersQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			a.fail(c, verrs)
			return
		}
		a.fail(c, &domain.Error{Kind: domain.KindValidation, Code: "InvalidQuery", Message: "limit and offset must be integers", Err: err})
		return
	}
	page, err := a.deps.Orders.List(c.Request.Context(), customerID(c), q.Limit, q.Offset)
	if err != nil {
		a.fail(c, err)
		return
	}
	if page.Orders == nil {
		page.Orders = []domain.Order{}
	}
	c.JSON(http.StatusOK, page)
}

func (a *api) getOrder(c *gin.Context) {
	order, err := a.deps.Orders.Get(c.Request.Context(), customerID(c), c.Param("id"))
	a.respondOrder(c, order, err)
}

func (a *api) getOrderByCode(c *gin.Context) {
	order, err := a.deps.Orders.GetByCode(c.Request.Context(), customerID(c), c.Param("code"))
	a.respondOrder(c, order, err)
}

func (a *api) cancelOrder(c *gin.Context) {
	var req cancelOrderRequest
	if err := bindJSON(c, &req); err != nil {
		a.fail(c, err)
		return
	}
	reason := ""
	if req.Reason != nil {
		reason = strings.TrimSpace(*req.Reason)
		if reason == "" {
			a.fail(c, errBlankCancelReason)
			return
		}
	}
	order, err := a.deps.Orders.Cancel(c.Request.Context(), customerID(c), c.Param("id"), reason)
	a.respondOrder(c, order, err)
}

// advanceOrder is called by the fulfillment process, not by customers.
func (a *api) advanceOrder(c *gin.Context) {
	var req advanceOrderRequest
	if err := bindJSON(c, &req); err != nil {
		a.fail(c, err)
		return
	}
	status, ok := domain.ParseOrderStatus(req.Status)
	if !ok {
		a.fail(c, errUnknownStatus)
		return
	}
	order, err := a.deps.Orders.Advance(c.Request.Context(), c.Param("id"), status, strings.TrimSpace(req.Description))
	a.respondOrder(c, order, err)
}

func (a *api) respondOrder(c *gin.Context, order *domain.Order, err error) {
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

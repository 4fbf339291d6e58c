package httpserver

import (
	"crypto/subtle"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/phnam24/Shop-Front-End-temp-sub000/internal/domain"
)

const customerCtxKey = "customer"

var (
	errMissingToken      = &domain.Error{Kind: domain.KindSession, Code: "MissingToken", Message: "bearer token required"}
	errBadFulfillmentKey = &domain.Error{Kind: domain.KindSession, Code: "InvalidFulfillmentKey", Message: "fulfillment key missing or invalid"}
)

// requireCustomer resolves the bearer token to a customer for /me routes.
func (a *api) requireCustomer() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			a.fail(c, errMissingToken)
			return
		}
		cust, err := a.deps.Sessions.Resolve(c.Request.Context(), token)
		if err != nil {
			a.fail(c, err)
			return
		}
		c.Set(customerCtxKey, cust)
		c.Next()
	}
}

func (a *api) requireFulfillmentKey() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := a.deps.FulfillmentKey
		got := c.GetHeader("X-Fulfillment-Key")
		if key == "" || subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
			a.fail(c, errBadFulfillmentKey)
			return
		}
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// customerID is only valid behind requireCustomer.
func customerID(c *gin.Context) string {
	return c.MustGet(customerCtxKey).(*domain.Customer).ID
}

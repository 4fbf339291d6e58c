package httpserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/phnam24/Shop-Front-End-temp-sub000/internal/domain"
)

func (a *api) listAddresses(c *gin.Context) {
	list, err := a.deps.Addresses.List(c.Request.Context(), customerID(c))
	if err != nil {
		a.fail(c, domain.Upstream("list addresses", err))
		return
	}
	if list == nil {
		list = []domain.Address{}
	}
	c.JSON(http.StatusOK, gin.H{"results": list})
}

func (a *api) setDefaultAddress(c *gin.Context) {
	addr, err := a.deps.Addresses.SetDefault(c.Request.Context(), customerID(c), c.Param("id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			err = domain.ErrAddressNotFound
		} else {
			err = domain.Upstream("set default address", err)
		}
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, addr)
}

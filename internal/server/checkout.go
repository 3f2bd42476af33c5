package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	checkoutdomain "github.com/Biniyam0911/HospitalManager-sub001/internal/checkout/domain"
)

func (s *Server) CreateCheckoutIntent(c *gin.Context) {
	resp, err := s.checkoutSvc.CreateIntent(c.Request.Context(), checkoutdomain.CreateIntentRequest{
		BillID: c.Param("id"),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ConfirmCheckout(c *gin.Context) {
	var req checkoutdomain.ConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.BillID = c.Param("id")

	resp, err := s.checkoutSvc.Confirm(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

package server

import (
	"net/http"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	billingdomain "github.com/Biniyam0911/HospitalManager-sub001/internal/billing/domain"
	recorderdomain "github.com/Biniyam0911/HospitalManager-sub001/internal/recorder/domain"
)

type recordPaymentRequest struct {
	Amount     string `json:"amount"`
	RecordedBy string `json:"recorded_by,omitempty"`
	Note       string `json:"note,omitempty"`
}

func (s *Server) RecordPayment(c *gin.Context) {
	var req recordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.recorderSvc.RecordPayment(c.Request.Context(), recorderdomain.RecordPaymentRequest{
		BillID:     c.Param("id"),
		Amount:     req.Amount,
		RecordedBy: req.RecordedBy,
		Note:       req.Note,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListBillPayments(c *gin.Context) {
	billID, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		AbortWithError(c, billingdomain.ErrInvalidID)
		return
	}

	payments, err := s.billingSvc.ListPayments(c.Request.Context(), billID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": payments})
}

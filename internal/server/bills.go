package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	billingdomain "github.com/Biniyam0911/HospitalManager-sub001/internal/billing/domain"
	"github.com/Biniyam0911/HospitalManager-sub001/internal/cache"
	"github.com/Biniyam0911/HospitalManager-sub001/pkg/db/pagination"
)

func (s *Server) CreateBill(c *gin.Context) {
	var req billingdomain.CreateBillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.billingSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetBill(c *gin.Context) {
	ctx := c.Request.Context()

	var cacheKey string
	if id, err := strconv.ParseInt(c.Param("id"), 10, 64); err == nil {
		cacheKey = cache.KeyBill(id)
		var cached billingdomain.Bill
		if s.cacheStore.GetJSON(ctx, cacheKey, &cached) {
			c.JSON(http.StatusOK, gin.H{"data": cached})
			return
		}
	}

	resp, err := s.billingSvc.GetByID(ctx, billingdomain.GetBillRequest{
		ID: c.Param("id"),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if cacheKey != "" {
		s.cacheStore.SetJSON(ctx, cacheKey, resp, s.policy.Get().BillCacheTTL())
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListBills(c *gin.Context) {
	var query billingdomain.ListBillRequest
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	ctx := c.Request.Context()

	// Only the unfiltered first page is cached; filtered or paginated
	// reads go to the database.
	cacheable := query.PatientID == "" && query.Status == "" && query.PageToken == "" &&
		query.Limit() == pagination.DefaultPageSize
	if cacheable {
		var cached billingdomain.ListBillResponse
		if s.cacheStore.GetJSON(ctx, cache.KeyBills, &cached) {
			c.JSON(http.StatusOK, cached)
			return
		}
	}

	resp, err := s.billingSvc.List(ctx, query)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if cacheable {
		s.cacheStore.SetJSON(ctx, cache.KeyBills, resp, s.policy.Get().BillCacheTTL())
	}

	c.JSON(http.StatusOK, resp)
}

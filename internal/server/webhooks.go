package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HandleGatewayWebhook verifies and applies a gateway event. The raw
// body is read before any binding so the signature check sees the exact
// bytes the gateway signed.
func (s *Server) HandleGatewayWebhook(c *gin.Context) {
	payload, err := c.GetRawData()
	if err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	if err := s.checkoutSvc.HandleWebhook(c.Request.Context(), payload, c.Request.Header); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}

package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/Biniyam0911/HospitalManager-sub001/internal/audit/domain"
)

type listAuditLogsQuery struct {
	EntityType string `form:"entity_type"`
	EntityID   int64  `form:"entity_id"`
	Action     string `form:"action"`
	Limit      int    `form:"limit"`
}

func (s *Server) ListAuditLogs(c *gin.Context) {
	var query listAuditLogsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	entries, err := s.auditSvc.List(c.Request.Context(), auditdomain.ListFilter{
		EntityType: query.EntityType,
		EntityID:   query.EntityID,
		Action:     query.Action,
		Limit:      query.Limit,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": entries})
}

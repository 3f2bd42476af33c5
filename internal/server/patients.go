package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	patientdomain "github.com/Biniyam0911/HospitalManager-sub001/internal/patient/domain"
)

type createPatientRequest struct {
	MRN         string `json:"mrn"`
	FullName    string `json:"full_name"`
	DateOfBirth string `json:"date_of_birth,omitempty"`
}

func (s *Server) CreatePatient(c *gin.Context) {
	var req createPatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	var dob *time.Time
	if raw := strings.TrimSpace(req.DateOfBirth); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			AbortWithError(c, newValidationError("date_of_birth", "invalid_date_of_birth", "invalid date_of_birth"))
			return
		}
		dob = &parsed
	}

	resp, err := s.patientSvc.Create(c.Request.Context(), patientdomain.CreatePatientRequest{
		MRN:         strings.TrimSpace(req.MRN),
		FullName:    strings.TrimSpace(req.FullName),
		DateOfBirth: dob,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetPatient(c *gin.Context) {
	resp, err := s.patientSvc.GetByID(c.Request.Context(), patientdomain.GetPatientRequest{
		ID: c.Param("id"),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListPatients(c *gin.Context) {
	var query patientdomain.ListPatientRequest
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.patientSvc.List(c.Request.Context(), query)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

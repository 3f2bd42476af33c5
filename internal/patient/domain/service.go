package domain

import (
	"context"
	"errors"
	"time"

	"github.com/Biniyam0911/HospitalManager-sub001/pkg/db/pagination"
)

var (
	ErrInvalidMRN   = errors.New("invalid_mrn")
	ErrInvalidName  = errors.New("invalid_name")
	ErrInvalidID    = errors.New("invalid_patient_id")
	ErrNotFound     = errors.New("patient_not_found")
	ErrDuplicateMRN = errors.New("duplicate_mrn")
)

type CreatePatientRequest struct {
	MRN         string     `json:"mrn"`
	FullName    string     `json:"full_name"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty"`
}

type GetPatientRequest struct {
	ID string
}

type ListPatientRequest struct {
	pagination.Pagination
	MRN      string `form:"mrn"`
	FullName string `form:"full_name"`
}

type ListPatientFilter struct {
	MRN      string
	FullName string
}

type ListPatientResponse struct {
	pagination.PageInfo
	Patients []Patient `json:"patients"`
}

type Service interface {
	Create(context.Context, CreatePatientRequest) (Patient, error)
	GetByID(context.Context, GetPatientRequest) (Patient, error)
	List(context.Context, ListPatientRequest) (ListPatientResponse, error)
}

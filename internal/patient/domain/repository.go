package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/Biniyam0911/HospitalManager-sub001/pkg/db/pagination"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, patient *Patient) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Patient, error)
	FindByMRN(ctx context.Context, db *gorm.DB, mrn string) (*Patient, error)
	List(ctx context.Context, db *gorm.DB, filter ListPatientFilter, cursor *pagination.Cursor, limit int) ([]*Patient, error)
}

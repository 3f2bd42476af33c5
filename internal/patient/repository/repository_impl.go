package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/Biniyam0911/HospitalManager-sub001/internal/patient/domain"
	"github.com/Biniyam0911/HospitalManager-sub001/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, patient *domain.Patient) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO patients (id, mrn, full_name, date_of_birth, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		patient.ID,
		patient.MRN,
		patient.FullName,
		patient.DateOfBirth,
		patient.CreatedAt,
		patient.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Patient, error) {
	var patient domain.Patient
	err := db.WithContext(ctx).Raw(
		`SELECT id, mrn, full_name, date_of_birth, created_at, updated_at
		 FROM patients WHERE id = ?`,
		id,
	).Scan(&patient).Error
	if err != nil {
		return nil, err
	}
	if patient.ID == 0 {
		return nil, nil
	}
	return &patient, nil
}

func (r *repo) FindByMRN(ctx context.Context, db *gorm.DB, mrn string) (*domain.Patient, error) {
	var patient domain.Patient
	err := db.WithContext(ctx).Raw(
		`SELECT id, mrn, full_name, date_of_birth, created_at, updated_at
		 FROM patients WHERE mrn = ?`,
		mrn,
	).Scan(&patient).Error
	if err != nil {
		return nil, err
	}
	if patient.ID == 0 {
		return nil, nil
	}
	return &patient, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListPatientFilter, cursor *pagination.Cursor, limit int) ([]*domain.Patient, error) {
	var patients []*domain.Patient
	stmt := db.WithContext(ctx).Model(&domain.Patient{})

	if filter.MRN != "" {
		stmt = stmt.Where("mrn = ?", filter.MRN)
	}
	if filter.FullName != "" {
		stmt = stmt.Where("full_name LIKE ?", "%"+filter.FullName+"%")
	}
	if cursor != nil {
		stmt = stmt.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	err := stmt.
		Order("created_at desc, id desc").
		Limit(limit + 1).
		Find(&patients).Error
	if err != nil {
		return nil, err
	}
	return patients, nil
}

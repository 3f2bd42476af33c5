package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Patient struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	MRN         string       `gorm:"column:mrn;type:text;not null;uniqueIndex:uq_patients_mrn" json:"mrn"`
	FullName    string       `gorm:"not null" json:"full_name"`
	DateOfBirth *time.Time   `json:"date_of_birth,omitempty"`
	CreatedAt   time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time    `gorm:"not null" json:"updated_at"`
}

func (Patient) TableName() string { return "patients" }

package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/Biniyam0911/HospitalManager-sub001/internal/clock"
	"github.com/Biniyam0911/HospitalManager-sub001/internal/migration"
	"github.com/Biniyam0911/HospitalManager-sub001/internal/patient/domain"
	patientrepo "github.com/Biniyam0911/HospitalManager-sub001/internal/patient/repository"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupPatientService(t *testing.T) domain.Service {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	require.NoError(t, migration.AutoMigrate(db))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	return New(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clock.NewFakeClock(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)),
		Repo:  patientrepo.Provide(),
	})
}

func TestCreatePatient(t *testing.T) {
	svc := setupPatientService(t)

	patient, err := svc.Create(context.Background(), domain.CreatePatientRequest{
		MRN:      "MRN-0042",
		FullName: "Hanna Girma",
	})
	require.NoError(t, err)
	require.NotZero(t, patient.ID)

	fetched, err := svc.GetByID(context.Background(), domain.GetPatientRequest{ID: patient.ID.String()})
	require.NoError(t, err)
	require.Equal(t, "MRN-0042", fetched.MRN)
}

func TestCreatePatientValidation(t *testing.T) {
	svc := setupPatientService(t)

	_, err := svc.Create(context.Background(), domain.CreatePatientRequest{FullName: "No MRN"})
	require.ErrorIs(t, err, domain.ErrInvalidMRN)

	_, err = svc.Create(context.Background(), domain.CreatePatientRequest{MRN: "MRN-1"})
	require.ErrorIs(t, err, domain.ErrInvalidName)
}

func TestCreatePatientDuplicateMRN(t *testing.T) {
	svc := setupPatientService(t)

	_, err := svc.Create(context.Background(), domain.CreatePatientRequest{
		MRN:      "MRN-7",
		FullName: "First",
	})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), domain.CreatePatientRequest{
		MRN:      "MRN-7",
		FullName: "Second",
	})
	require.ErrorIs(t, err, domain.ErrDuplicateMRN)
}

func TestListPatientsPagination(t *testing.T) {
	svc := setupPatientService(t)

	for i := 0; i < 5; i++ {
		_, err := svc.Create(context.Background(), domain.CreatePatientRequest{
			MRN:      fmt.Sprintf("MRN-%03d", i),
			FullName: fmt.Sprintf("Patient %d", i),
		})
		require.NoError(t, err)
	}

	first, err := svc.List(context.Background(), domain.ListPatientRequest{})
	require.NoError(t, err)
	require.Len(t, first.Patients, 5)
	require.False(t, first.HasMore)

	filtered, err := svc.List(context.Background(), domain.ListPatientRequest{MRN: "MRN-003"})
	require.NoError(t, err)
	require.Len(t, filtered.Patients, 1)
	require.Equal(t, "MRN-003", filtered.Patients[0].MRN)
}

func TestGetPatientErrors(t *testing.T) {
	svc := setupPatientService(t)

	_, err := svc.GetByID(context.Background(), domain.GetPatientRequest{ID: "garbage"})
	require.ErrorIs(t, err, domain.ErrInvalidID)

	node, nodeErr := snowflake.NewNode(2)
	require.NoError(t, nodeErr)
	_, err = svc.GetByID(context.Background(), domain.GetPatientRequest{ID: node.Generate().String()})
	require.ErrorIs(t, err, domain.ErrNotFound)
}

package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/Biniyam0911/HospitalManager-sub001/internal/audit/domain"
	"github.com/Biniyam0911/HospitalManager-sub001/internal/clock"
	"github.com/Biniyam0911/HospitalManager-sub001/internal/patient/domain"
	"github.com/Biniyam0911/HospitalManager-sub001/pkg/db"
	"github.com/Biniyam0911/HospitalManager-sub001/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository
	Audit auditdomain.Service `optional:"true"`
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository
	audit auditdomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("patient.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
		audit: p.Audit,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreatePatientRequest) (domain.Patient, error) {
	mrn := strings.TrimSpace(req.MRN)
	if mrn == "" {
		return domain.Patient{}, domain.ErrInvalidMRN
	}

	name := strings.TrimSpace(req.FullName)
	if name == "" {
		return domain.Patient{}, domain.ErrInvalidName
	}

	now := s.clock.Now()
	patient := domain.Patient{
		ID:          s.genID.Generate(),
		MRN:         mrn,
		FullName:    name,
		DateOfBirth: req.DateOfBirth,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Insert(ctx, s.db, &patient); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.Patient{}, domain.ErrDuplicateMRN
		}
		return domain.Patient{}, err
	}

	if s.audit != nil {
		_ = s.audit.Record(ctx, "system", auditdomain.ActionPatientCreated, "patient", int64(patient.ID), map[string]any{
			"mrn": mrn,
		})
	}

	return patient, nil
}

func (s *Service) GetByID(ctx context.Context, req domain.GetPatientRequest) (domain.Patient, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(req.ID))
	if err != nil || id == 0 {
		return domain.Patient{}, domain.ErrInvalidID
	}

	patient, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Patient{}, err
	}
	if patient == nil {
		return domain.Patient{}, domain.ErrNotFound
	}
	return *patient, nil
}

func (s *Service) List(ctx context.Context, req domain.ListPatientRequest) (domain.ListPatientResponse, error) {
	filter := domain.ListPatientFilter{
		MRN:      strings.TrimSpace(req.MRN),
		FullName: strings.TrimSpace(req.FullName),
	}

	var cursor *pagination.Cursor
	if strings.TrimSpace(req.PageToken) != "" {
		decoded, err := pagination.DecodeCursor(req.PageToken)
		if err != nil {
			return domain.ListPatientResponse{}, err
		}
		cursor = decoded
	}

	limit := req.Limit()
	items, err := s.repo.List(ctx, s.db, filter, cursor, limit)
	if err != nil {
		return domain.ListPatientResponse{}, err
	}

	items, pageInfo := pagination.BuildCursorPageInfo(items, limit, func(patient *domain.Patient) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        patient.ID.String(),
			CreatedAt: patient.CreatedAt.Format(time.RFC3339),
		})
		if err != nil {
			return ""
		}
		return token
	})

	patients := make([]domain.Patient, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		patients = append(patients, *item)
	}

	resp := domain.ListPatientResponse{Patients: patients}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp, nil
}

package patient

import (
	"github.com/Biniyam0911/HospitalManager-sub001/internal/patient/repository"
	"github.com/Biniyam0911/HospitalManager-sub001/internal/patient/service"
	"go.uber.org/fx"
)

var Module = fx.Module("patient.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)

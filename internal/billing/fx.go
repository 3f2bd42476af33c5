package billing

import (
	"github.com/Biniyam0911/HospitalManager-sub001/internal/billing/repository"
	"github.com/Biniyam0911/HospitalManager-sub001/internal/billing/service"
	"go.uber.org/fx"
)

var Module = fx.Module("billing.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)

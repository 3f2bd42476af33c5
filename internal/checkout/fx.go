package checkout

import (
	"github.com/Biniyam0911/HospitalManager-sub001/internal/checkout/repository"
	"github.com/Biniyam0911/HospitalManager-sub001/internal/checkout/service"
	"go.uber.org/fx"
)

var Module = fx.Module("checkout.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)

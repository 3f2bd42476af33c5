package recorder

import (
	"github.com/Biniyam0911/HospitalManager-sub001/internal/recorder/service"
	"go.uber.org/fx"
)

var Module = fx.Module("recorder.service",
	fx.Provide(service.New),
)

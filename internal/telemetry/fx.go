package telemetry

import (
	"github.com/mmdba/supmmdba/internal/telemetry/broadcast"
	"github.com/mmdba/supmmdba/internal/telemetry/repository"
	"github.com/mmdba/supmmdba/internal/telemetry/service"
	"go.uber.org/fx"
)

var Module = fx.Module("telemetry.service",
	fx.Provide(broadcast.NewHub),
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)

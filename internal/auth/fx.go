package auth

import (
	"github.com/mmdba/supmmdba/internal/auth/repository"
	"github.com/mmdba/supmmdba/internal/auth/service"
	"github.com/mmdba/supmmdba/internal/auth/session"
	"go.uber.org/fx"
)

var Module = fx.Module("auth.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
	fx.Provide(session.NewManager),
)

// Package seed provisions the first operator account from the
// environment so a fresh deployment has a working dashboard login.
package seed

import (
	"context"
	"errors"

	authdomain "github.com/mmdba/supmmdba/internal/auth/domain"
	"github.com/mmdba/supmmdba/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func Run(lc fx.Lifecycle, cfg config.Config, authsvc authdomain.Service, log *zap.Logger) {
	if cfg.AdminUsername == "" || cfg.AdminPassword == "" {
		return
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			err := authsvc.EnsureUser(ctx, cfg.AdminUsername, cfg.AdminPassword)
			if err != nil && !errors.Is(err, authdomain.ErrUserExists) {
				log.Error("failed to seed admin account", zap.Error(err))
			}
			return nil
		},
	})
}

var Module = fx.Module("seed",
	fx.Invoke(Run),
)

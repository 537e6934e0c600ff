// Package migration creates the database schema at startup.
package migration

import (
	authdomain "github.com/mmdba/supmmdba/internal/auth/domain"
	telemetrydomain "github.com/mmdba/supmmdba/internal/telemetry/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func Run(db *gorm.DB, log *zap.Logger) error {
	if err := db.AutoMigrate(
		&telemetrydomain.MachineEvent{},
		&telemetrydomain.SpeedSample{},
		&telemetrydomain.ProductionSample{},
		&authdomain.User{},
		&authdomain.Session{},
	); err != nil {
		return err
	}
	log.Info("database schema migrated")
	return nil
}

var Module = fx.Module("migration",
	fx.Invoke(Run),
)

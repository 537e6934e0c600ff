package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// EventQuery filters the machine event history. A nil bound means no
// bound; a Limit <= 0 means no limit.
type EventQuery struct {
	Types []string
	From  *time.Time
	To    *time.Time
	Limit int
}

type Repository interface {
	InsertEvent(ctx context.Context, db *gorm.DB, e *MachineEvent) error
	InsertSpeed(ctx context.Context, db *gorm.DB, s *SpeedSample) error
	InsertProduction(ctx context.Context, db *gorm.DB, p *ProductionSample) error

	LatestSpeed(ctx context.Context, db *gorm.DB) (*SpeedSample, error)
	SpeedSince(ctx context.Context, db *gorm.DB, since time.Time) ([]SpeedSample, error)
	LatestSpeedBefore(ctx context.Context, db *gorm.DB, before time.Time) (*SpeedSample, error)

	ProductionSince(ctx context.Context, db *gorm.DB, since time.Time) ([]ProductionSample, error)
	LatestProductionBefore(ctx context.Context, db *gorm.DB, before time.Time) (*ProductionSample, error)

	ListEvents(ctx context.Context, db *gorm.DB, q EventQuery) ([]MachineEvent, error)
	LatestEventByOriginType(ctx context.Context, db *gorm.DB, origin, eventType string) (*MachineEvent, error)

	DeleteEventsBefore(ctx context.Context, db *gorm.DB, before time.Time) (int64, error)
	DeleteSpeedBefore(ctx context.Context, db *gorm.DB, before time.Time) (int64, error)
	DeleteProductionBefore(ctx context.Context, db *gorm.DB, before time.Time) (int64, error)
}

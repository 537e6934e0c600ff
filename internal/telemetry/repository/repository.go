package repository

import (
	"context"
	"time"

	telemetrydomain "github.com/mmdba/supmmdba/internal/telemetry/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() telemetrydomain.Repository {
	return &repo{}
}

func (r *repo) InsertEvent(ctx context.Context, db *gorm.DB, e *telemetrydomain.MachineEvent) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO machine_events (id, event_code, value, info, origin, event_type, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID,
		e.EventCode,
		e.Value,
		e.Info,
		e.Origin,
		e.EventType,
		e.Timestamp,
	).Error
}

func (r *repo) InsertSpeed(ctx context.Context, db *gorm.DB, s *telemetrydomain.SpeedSample) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO speed_samples (id, event_code, value, info, origin, event_type, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		s.ID,
		s.EventCode,
		s.Value,
		s.Info,
		s.Origin,
		s.EventType,
		s.Timestamp,
	).Error
}

func (r *repo) InsertProduction(ctx context.Context, db *gorm.DB, p *telemetrydomain.ProductionSample) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO production_samples (id, event_code, value, info, origin, event_type, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID,
		p.EventCode,
		p.Value,
		p.Info,
		p.Origin,
		p.EventType,
		p.Timestamp,
	).Error
}

func (r *repo) LatestSpeed(ctx context.Context, db *gorm.DB) (*telemetrydomain.SpeedSample, error) {
	var sample telemetrydomain.SpeedSample
	err := db.WithContext(ctx).Raw(
		`SELECT id, event_code, value, info, origin, event_type, timestamp
		 FROM speed_samples ORDER BY timestamp DESC LIMIT 1`,
	).Scan(&sample).Error
	if err != nil {
		return nil, err
	}
	if sample.ID == 0 {
		return nil, nil
	}
	return &sample, nil
}

func (r *repo) SpeedSince(ctx context.Context, db *gorm.DB, since time.Time) ([]telemetrydomain.SpeedSample, error) {
	var samples []telemetrydomain.SpeedSample
	err := db.WithContext(ctx).Raw(
		`SELECT id, event_code, value, info, origin, event_type, timestamp
		 FROM speed_samples WHERE timestamp >= ? ORDER BY timestamp ASC`,
		since,
	).Scan(&samples).Error
	if err != nil {
		return nil, err
	}
	return samples, nil
}

func (r *repo) LatestSpeedBefore(ctx context.Context, db *gorm.DB, before time.Time) (*telemetrydomain.SpeedSample, error) {
	var sample telemetrydomain.SpeedSample
	err := db.WithContext(ctx).Raw(
		`SELECT id, event_code, value, info, origin, event_type, timestamp
		 FROM speed_samples WHERE timestamp < ? ORDER BY timestamp DESC LIMIT 1`,
		before,
	).Scan(&sample).Error
	if err != nil {
		return nil, err
	}
	if sample.ID == 0 {
		return nil, nil
	}
	return &sample, nil
}

func (r *repo) ProductionSince(ctx context.Context, db *gorm.DB, since time.Time) ([]telemetrydomain.ProductionSample, error) {
	var samples []telemetrydomain.ProductionSample
	err := db.WithContext(ctx).Raw(
		`SELECT id, event_code, value, info, origin, event_type, timestamp
		 FROM production_samples WHERE timestamp >= ? ORDER BY timestamp ASC`,
		since,
	).Scan(&samples).Error
	if err != nil {
		return nil, err
	}
	return samples, nil
}

func (r *repo) LatestProductionBefore(ctx context.Context, db *gorm.DB, before time.Time) (*telemetrydomain.ProductionSample, error) {
	var sample telemetrydomain.ProductionSample
	err := db.WithContext(ctx).Raw(
		`SELECT id, event_code, value, info, origin, event_type, timestamp
		 FROM production_samples WHERE timestamp < ? ORDER BY timestamp DESC LIMIT 1`,
		before,
	).Scan(&sample).Error
	if err != nil {
		return nil, err
	}
	if sample.ID == 0 {
		return nil, nil
	}
	return &sample, nil
}

func (r *repo) ListEvents(ctx context.Context, db *gorm.DB, q telemetrydomain.EventQuery) ([]telemetrydomain.MachineEvent, error) {
	tx := db.WithContext(ctx).Table("machine_events")

	if len(q.Types) > 0 {
		tx = tx.Where("event_type IN ?", q.Types)
	}
	if q.From != nil {
		tx = tx.Where("timestamp >= ?", *q.From)
	}
	if q.To != nil {
		tx = tx.Where("timestamp <= ?", *q.To)
	}

	tx = tx.Order("timestamp DESC")
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}

	var events []telemetrydomain.MachineEvent
	if err := tx.Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

func (r *repo) DeleteEventsBefore(ctx context.Context, db *gorm.DB, before time.Time) (int64, error) {
	tx := db.WithContext(ctx).Exec(`DELETE FROM machine_events WHERE timestamp < ?`, before)
	return tx.RowsAffected, tx.Error
}

func (r *repo) DeleteSpeedBefore(ctx context.Context, db *gorm.DB, before time.Time) (int64, error) {
	tx := db.WithContext(ctx).Exec(`DELETE FROM speed_samples WHERE timestamp < ?`, before)
	return tx.RowsAffected, tx.Error
}

func (r *repo) DeleteProductionBefore(ctx context.Context, db *gorm.DB, before time.Time) (int64, error) {
	tx := db.WithContext(ctx).Exec(`DELETE FROM production_samples WHERE timestamp < ?`, before)
	return tx.RowsAffected, tx.Error
}

func (r *repo) LatestEventByOriginType(ctx context.Context, db *gorm.DB, origin, eventType string) (*telemetrydomain.MachineEvent, error) {
	var event telemetrydomain.MachineEvent
	err := db.WithContext(ctx).Raw(
		`SELECT id, event_code, value, info, origin, event_type, timestamp
		 FROM machine_events WHERE origin = ? AND event_type = ?
		 ORDER BY timestamp DESC LIMIT 1`,
		origin,
		eventType,
	).Scan(&event).Error
	if err != nil {
		return nil, err
	}
	if event.ID == 0 {
		return nil, nil
	}
	return &event, nil
}

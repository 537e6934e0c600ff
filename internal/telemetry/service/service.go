package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/mmdba/supmmdba/internal/clock"
	"github.com/mmdba/supmmdba/internal/telemetry/broadcast"
	telemetrydomain "github.com/mmdba/supmmdba/internal/telemetry/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	// historyWindow is the sliding window served to the dashboard charts.
	historyWindow = time.Hour

	defaultEventLimit = 100
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  telemetrydomain.Repository
	Hub   *broadcast.Hub
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  telemetrydomain.Repository
	hub   *broadcast.Hub
	loc   *time.Location
}

func New(p Params) telemetrydomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("telemetry.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
		hub:   p.Hub,
		loc:   operatorLocation(),
	}
}

// operatorLocation resolves the civil timezone the operator filters event
// history in (Brasília). Falls back to a fixed UTC-3 zone when the host
// has no tzdata for the IANA name.
func operatorLocation() *time.Location {
	if loc, err := time.LoadLocation("America/Sao_Paulo"); err == nil {
		return loc
	}
	return time.FixedZone("-03", -3*60*60)
}

// Ingest stamps the record with the server clock, persists it in the
// category's series and, only after the write committed, publishes it on
// the category's broadcast channel. I/O records are published without
// being stored. The caller-supplied timestamp is discarded.
func (s *Service) Ingest(ctx context.Context, category telemetrydomain.Category, req telemetrydomain.IngestRequest) (*telemetrydomain.Record, error) {
	record := telemetrydomain.Record{
		ID:        s.genID.Generate(),
		EventCode: req.EventCode,
		Value:     req.Value,
		Info:      req.Info,
		Origin:    req.Origin,
		EventType: req.EventType,
		Timestamp: s.clock.Now().UTC(),
	}

	switch category {
	case telemetrydomain.CategoryStatus, telemetrydomain.CategoryAlarm,
		telemetrydomain.CategoryWarning, telemetrydomain.CategoryData:
		event := telemetrydomain.MachineEvent{
			ID:        record.ID,
			EventCode: record.EventCode,
			Value:     record.Value,
			Info:      record.Info,
			Origin:    record.Origin,
			EventType: record.EventType,
			Timestamp: record.Timestamp,
		}
		if err := s.repo.InsertEvent(ctx, s.db, &event); err != nil {
			return nil, err
		}
	case telemetrydomain.CategorySpeed:
		sample := telemetrydomain.SpeedSample{
			ID:        record.ID,
			EventCode: record.EventCode,
			Value:     record.Value,
			Info:      record.Info,
			Origin:    record.Origin,
			EventType: record.EventType,
			Timestamp: record.Timestamp,
		}
		if err := s.repo.InsertSpeed(ctx, s.db, &sample); err != nil {
			return nil, err
		}
	case telemetrydomain.CategoryProduction:
		sample := telemetrydomain.ProductionSample{
			ID:        record.ID,
			EventCode: record.EventCode,
			Value:     record.Value,
			Info:      record.Info,
			Origin:    record.Origin,
			EventType: record.EventType,
			Timestamp: record.Timestamp,
		}
		if err := s.repo.InsertProduction(ctx, s.db, &sample); err != nil {
			return nil, err
		}
	case telemetrydomain.CategoryIO:
		// broadcast-only, nothing to persist
	default:
		return nil, telemetrydomain.ErrUnknownCategory
	}

	s.hub.Publish(category, record)
	return &record, nil
}

// LatestSpeed returns the newest speed sample. With no samples stored it
// returns a zero value stamped with the current time so the dashboard
// always has something to render.
func (s *Service) LatestSpeed(ctx context.Context) (telemetrydomain.SpeedPoint, error) {
	sample, err := s.repo.LatestSpeed(ctx, s.db)
	if err != nil {
		return telemetrydomain.SpeedPoint{}, err
	}
	if sample == nil {
		return telemetrydomain.SpeedPoint{Timestamp: s.clock.Now().UTC(), Value: 0.0}, nil
	}

	value, err := strconv.ParseFloat(sample.Value, 64)
	if err != nil {
		return telemetrydomain.SpeedPoint{}, fmt.Errorf("%w: speed sample %d: %v", telemetrydomain.ErrInvalidValue, sample.ID, err)
	}
	return telemetrydomain.SpeedPoint{Timestamp: sample.Timestamp, Value: value}, nil
}

// SpeedHistory returns the last hour of speed samples ascending, with the
// newest sample before the window prepended so the chart line does not
// start blank at the left edge. A store failure degrades to an empty
// list.
func (s *Service) SpeedHistory(ctx context.Context) ([]telemetrydomain.SpeedPoint, error) {
	windowStart := s.clock.Now().UTC().Add(-historyWindow)

	inWindow, err := s.repo.SpeedSince(ctx, s.db, windowStart)
	if err != nil {
		s.log.Error("speed history query failed", zap.Error(err))
		return []telemetrydomain.SpeedPoint{}, nil
	}
	carryIn, err := s.repo.LatestSpeedBefore(ctx, s.db, windowStart)
	if err != nil {
		s.log.Error("speed carry-in query failed", zap.Error(err))
		return []telemetrydomain.SpeedPoint{}, nil
	}

	points := make([]telemetrydomain.SpeedPoint, 0, len(inWindow)+1)
	if carryIn != nil {
		value, err := strconv.ParseFloat(carryIn.Value, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: speed sample %d: %v", telemetrydomain.ErrInvalidValue, carryIn.ID, err)
		}
		points = append(points, telemetrydomain.SpeedPoint{Timestamp: carryIn.Timestamp, Value: value})
	}
	for _, sample := range inWindow {
		value, err := strconv.ParseFloat(sample.Value, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: speed sample %d: %v", telemetrydomain.ErrInvalidValue, sample.ID, err)
		}
		points = append(points, telemetrydomain.SpeedPoint{Timestamp: sample.Timestamp, Value: value})
	}
	return points, nil
}

// ProductionHistory mirrors SpeedHistory for the production count series,
// with integer values.
func (s *Service) ProductionHistory(ctx context.Context) ([]telemetrydomain.ProductionPoint, error) {
	windowStart := s.clock.Now().UTC().Add(-historyWindow)

	inWindow, err := s.repo.ProductionSince(ctx, s.db, windowStart)
	if err != nil {
		s.log.Error("production history query failed", zap.Error(err))
		return []telemetrydomain.ProductionPoint{}, nil
	}
	carryIn, err := s.repo.LatestProductionBefore(ctx, s.db, windowStart)
	if err != nil {
		s.log.Error("production carry-in query failed", zap.Error(err))
		return []telemetrydomain.ProductionPoint{}, nil
	}

	points := make([]telemetrydomain.ProductionPoint, 0, len(inWindow)+1)
	if carryIn != nil {
		value, err := strconv.ParseInt(carryIn.Value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: production sample %d: %v", telemetrydomain.ErrInvalidValue, carryIn.ID, err)
		}
		points = append(points, telemetrydomain.ProductionPoint{Timestamp: carryIn.Timestamp, Value: value})
	}
	for _, sample := range inWindow {
		value, err := strconv.ParseInt(sample.Value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: production sample %d: %v", telemetrydomain.ErrInvalidValue, sample.ID, err)
		}
		points = append(points, telemetrydomain.ProductionPoint{Timestamp: sample.Timestamp, Value: value})
	}
	return points, nil
}

// EventHistory returns machine events most-recent-first. Calendar-day
// filters are interpreted in the operator timezone and converted to UTC.
// The limit applies only when no date filter parameter was sent at all;
// an explicit date range returns every matching record.
func (s *Service) EventHistory(ctx context.Context, req telemetrydomain.EventHistoryRequest) ([]telemetrydomain.EventView, error) {
	q := telemetrydomain.EventQuery{}

	if types := strings.TrimSpace(req.Types); types != "" {
		for _, t := range strings.Split(types, ",") {
			t = strings.TrimSpace(t)
			if t != "" {
				q.Types = append(q.Types, t)
			}
		}
	}

	if req.DateFrom != "" {
		if day, err := time.ParseInLocation("2006-01-02", req.DateFrom, s.loc); err == nil {
			from := day.UTC()
			q.From = &from
		} else {
			s.log.Warn("invalid dateFrom filter, skipping", zap.String("dateFrom", req.DateFrom))
		}
	}

	if req.DateTo != "" {
		if day, err := time.ParseInLocation("2006-01-02", req.DateTo, s.loc); err == nil {
			// last instant of the civil day
			to := day.AddDate(0, 0, 1).Add(-time.Nanosecond).UTC()
			q.To = &to
		} else {
			s.log.Warn("invalid dateTo filter, skipping", zap.String("dateTo", req.DateTo))
		}
	}

	// The limit is suppressed whenever a date parameter was supplied,
	// even a malformed one, matching the upstream dashboard contract.
	if req.DateFrom == "" && req.DateTo == "" {
		q.Limit = req.Limit
		if q.Limit <= 0 {
			q.Limit = defaultEventLimit
		}
	}

	events, err := s.repo.ListEvents(ctx, s.db, q)
	if err != nil {
		return nil, err
	}

	views := make([]telemetrydomain.EventView, 0, len(events))
	for _, e := range events {
		views = append(views, telemetrydomain.EventView{
			EventCode: e.EventCode,
			Value:     e.Value,
			Info:      e.Info,
			Origin:    e.Origin,
			EventType: e.EventType,
			Timestamp: e.Timestamp,
		})
	}
	return views, nil
}

// LatestEvent returns the newest event with exactly this origin and type.
// With no match it returns a sentinel record so the dashboard widget
// always has something to render.
func (s *Service) LatestEvent(ctx context.Context, origin, eventType string) (*telemetrydomain.Record, error) {
	event, err := s.repo.LatestEventByOriginType(ctx, s.db, origin, eventType)
	if err != nil {
		return nil, err
	}
	if event != nil {
		record := event.Record()
		return &record, nil
	}

	sentinel := sentinelFor(origin, eventType, s.clock.Now().UTC())
	return &sentinel, nil
}

func sentinelFor(origin, eventType string, now time.Time) telemetrydomain.Record {
	switch eventType {
	case "Alarme":
		return telemetrydomain.Record{
			EventCode: "alarmeNOT",
			Value:     "Nenhum Alarme Ativo",
			Info:      "Não há registro do último alarme.",
			Origin:    origin,
			EventType: eventType,
			Timestamp: now,
		}
	case "Status":
		return telemetrydomain.Record{
			EventCode: "statusNOT",
			Value:     "Status Desconhecido",
			Info:      "Não há registro do último status.",
			Origin:    origin,
			EventType: eventType,
			Timestamp: now,
		}
	default:
		return telemetrydomain.Record{
			EventCode: strings.ToLower(eventType) + "NOT",
			Value:     "Sem Registro",
			Info:      "Não há registro para este tipo de evento.",
			Origin:    origin,
			EventType: eventType,
			Timestamp: now,
		}
	}
}

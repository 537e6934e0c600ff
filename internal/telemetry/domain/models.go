// Package domain contains the telemetry record types for the labeling machine.
package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

// Category identifies a telemetry stream. It selects both the storage
// series and the real-time broadcast channel for an ingested record.
type Category string

const (
	CategoryStatus     Category = "status"
	CategoryAlarm      Category = "alarmes"
	CategoryWarning    Category = "avisos"
	CategoryIO         Category = "ios"
	CategorySpeed      Category = "velocidade"
	CategoryProduction Category = "contagem"
	CategoryData       Category = "dados"
)

// Categories lists every telemetry category.
var Categories = []Category{
	CategoryStatus,
	CategoryAlarm,
	CategoryWarning,
	CategoryIO,
	CategorySpeed,
	CategoryProduction,
	CategoryData,
}

// Stored reports whether records of this category are persisted.
// I/O events are broadcast-only: digital I/O flips at a rate that would
// flood the event table, so the dashboard sees them live or not at all.
func (c Category) Stored() bool {
	return c != CategoryIO
}

// MachineEvent is a generic machine event: status transitions, alarms,
// warnings and free-form data points.
type MachineEvent struct {
	ID        snowflake.ID `json:"id" gorm:"primaryKey"`
	EventCode string       `json:"codigoEvento" gorm:"column:event_code;type:text;not null"`
	Value     string       `json:"valor" gorm:"column:value;type:text;not null"`
	Info      string       `json:"informacao" gorm:"column:info;type:text"`
	Origin    string       `json:"origem" gorm:"column:origin;type:text;not null"`
	EventType string       `json:"tipoEvento" gorm:"column:event_type;type:text;not null;index:ix_machine_events_type_ts,priority:1"`
	Timestamp time.Time    `json:"timestamp" gorm:"column:timestamp;not null;index:ix_machine_events_type_ts,priority:2"`
}

func (MachineEvent) TableName() string { return "machine_events" }

// SpeedSample is an instantaneous machine speed reading. Same shape as
// MachineEvent but kept in its own series so the high-frequency numeric
// stream does not compete with sparse categorical events, and so Value
// can be relied on to parse as a float.
type SpeedSample struct {
	ID        snowflake.ID `json:"id" gorm:"primaryKey"`
	EventCode string       `json:"codigoEvento" gorm:"column:event_code;type:text;not null"`
	Value     string       `json:"valor" gorm:"column:value;type:text;not null"`
	Info      string       `json:"informacao" gorm:"column:info;type:text"`
	Origin    string       `json:"origem" gorm:"column:origin;type:text;not null"`
	EventType string       `json:"tipoEvento" gorm:"column:event_type;type:text;not null"`
	Timestamp time.Time    `json:"timestamp" gorm:"column:timestamp;not null;index:ix_speed_samples_ts"`
}

func (SpeedSample) TableName() string { return "speed_samples" }

// ProductionSample is an instantaneous production count. Value parses as
// an integer.
type ProductionSample struct {
	ID        snowflake.ID `json:"id" gorm:"primaryKey"`
	EventCode string       `json:"codigoEvento" gorm:"column:event_code;type:text;not null"`
	Value     string       `json:"valor" gorm:"column:value;type:text;not null"`
	Info      string       `json:"informacao" gorm:"column:info;type:text"`
	Origin    string       `json:"origem" gorm:"column:origin;type:text;not null"`
	EventType string       `json:"tipoEvento" gorm:"column:event_type;type:text;not null"`
	Timestamp time.Time    `json:"timestamp" gorm:"column:timestamp;not null;index:ix_production_samples_ts"`
}

func (ProductionSample) TableName() string { return "production_samples" }

// Record is the series-independent view of a telemetry record. It is the
// payload published on broadcast channels and returned by latest-value
// queries.
type Record struct {
	ID        snowflake.ID `json:"id"`
	EventCode string       `json:"codigoEvento"`
	Value     string       `json:"valor"`
	Info      string       `json:"informacao"`
	Origin    string       `json:"origem"`
	EventType string       `json:"tipoEvento"`
	Timestamp time.Time    `json:"timestamp"`
}

func (e MachineEvent) Record() Record {
	return Record{ID: e.ID, EventCode: e.EventCode, Value: e.Value, Info: e.Info, Origin: e.Origin, EventType: e.EventType, Timestamp: e.Timestamp}
}

func (s SpeedSample) Record() Record {
	return Record{ID: s.ID, EventCode: s.EventCode, Value: s.Value, Info: s.Info, Origin: s.Origin, EventType: s.EventType, Timestamp: s.Timestamp}
}

func (p ProductionSample) Record() Record {
	return Record{ID: p.ID, EventCode: p.EventCode, Value: p.Value, Info: p.Info, Origin: p.Origin, EventType: p.EventType, Timestamp: p.Timestamp}
}

// EventView is the wire shape of one row of the event history, without
// the surrogate id.
type EventView struct {
	EventCode string    `json:"codigoEvento"`
	Value     string    `json:"valor"`
	Info      string    `json:"informacao"`
	Origin    string    `json:"origem"`
	EventType string    `json:"tipoEvento"`
	Timestamp time.Time `json:"timestamp"`
}

// SpeedPoint is one chart point of the speed series.
type SpeedPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"valor"`
}

// ProductionPoint is one chart point of the production series.
type ProductionPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Value     int64     `json:"valor"`
}

var (
	ErrUnknownCategory = errors.New("unknown telemetry category")
	ErrInvalidValue    = errors.New("invalid stored value")
)

package domain

import (
	"context"
	"time"
)

// IngestRequest is the payload the machine posts for every telemetry
// category. The caller-supplied timestamp is ignored: arrival time is
// stamped server-side, always UTC.
type IngestRequest struct {
	EventCode string    `json:"codigoEvento" binding:"required"`
	Value     string    `json:"valor" binding:"required"`
	Info      string    `json:"informacao"`
	Origin    string    `json:"origem" binding:"required"`
	EventType string    `json:"tipoEvento" binding:"required"`
	Timestamp time.Time `json:"timestamp"`
}

// EventHistoryRequest carries the raw query parameters of the event
// history endpoint. Dates are YYYY-MM-DD strings in the operator's civil
// timezone; malformed values are skipped, not rejected.
type EventHistoryRequest struct {
	Types    string
	Limit    int
	DateFrom string
	DateTo   string
}

type Service interface {
	// Ingest stamps, stores (unless the category is broadcast-only) and
	// broadcasts one telemetry record, returning the committed record.
	Ingest(ctx context.Context, category Category, req IngestRequest) (*Record, error)

	LatestSpeed(ctx context.Context) (SpeedPoint, error)
	SpeedHistory(ctx context.Context) ([]SpeedPoint, error)
	ProductionHistory(ctx context.Context) ([]ProductionPoint, error)
	EventHistory(ctx context.Context, req EventHistoryRequest) ([]EventView, error)
	LatestEvent(ctx context.Context, origin, eventType string) (*Record, error)
}

package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	telemetrydomain "github.com/mmdba/supmmdba/internal/telemetry/domain"
)

// GetLatestSpeed returns the newest speed reading, or a zero value with
// the current timestamp when nothing was recorded yet.
func (s *Server) GetLatestSpeed(c *gin.Context) {
	point, err := s.telemetrySvc.LatestSpeed(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, point)
}

// GetSpeedHistory returns the last hour of speed samples plus the
// carry-in point before the window.
func (s *Server) GetSpeedHistory(c *gin.Context) {
	points, err := s.telemetrySvc.SpeedHistory(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, points)
}

// GetProductionHistory mirrors GetSpeedHistory for production counts.
func (s *Server) GetProductionHistory(c *gin.Context) {
	points, err := s.telemetrySvc.ProductionHistory(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, points)
}

// GetEventHistory returns machine events most-recent-first, filtered by
// tipos, limite, dataInicial and dataFinal query parameters.
func (s *Server) GetEventHistory(c *gin.Context) {
	limit := 100
	if raw := strings.TrimSpace(c.Query("limite")); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			limit = parsed
		}
	}

	events, err := s.telemetrySvc.EventHistory(c.Request.Context(), telemetrydomain.EventHistoryRequest{
		Types:    c.Query("tipos"),
		Limit:    limit,
		DateFrom: strings.TrimSpace(c.Query("dataInicial")),
		DateTo:   strings.TrimSpace(c.Query("dataFinal")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, events)
}

// GetLatestAlarm returns the newest alarm of the labeling machine, or a
// sentinel record when none was ever stored.
func (s *Server) GetLatestAlarm(c *gin.Context) {
	record, err := s.telemetrySvc.LatestEvent(c.Request.Context(), "Rotuladora", "Alarme")
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

// GetLatestStatus returns the newest status of the labeling machine, or
// a sentinel record when none was ever stored.
func (s *Server) GetLatestStatus(c *gin.Context) {
	record, err := s.telemetrySvc.LatestEvent(c.Request.Context(), "Rotuladora", "Status")
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

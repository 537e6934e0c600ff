package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	telemetrydomain "github.com/mmdba/supmmdba/internal/telemetry/domain"
	"go.uber.org/zap"
)

// ingestMessages holds the user-visible texts of one telemetry endpoint.
// The machine-side integration matches on these strings, so they stay as
// the supervisory front-end shipped them.
type ingestMessages struct {
	success string
	failure string
}

var categoryMessages = map[telemetrydomain.Category]ingestMessages{
	telemetrydomain.CategoryStatus: {
		success: "Status da máquina recebido e salvo com sucesso.",
		failure: "Erro interno ao processar a requisição de status da Rotualdora.",
	},
	telemetrydomain.CategoryAlarm: {
		success: "Alarme da máquina recebido e salvo com sucesso.",
		failure: "Erro interno ao processar a requisição de Alarme da Rotualadora.",
	},
	telemetrydomain.CategoryWarning: {
		success: "Aviso da máquina recebido e salvo com sucesso.",
		failure: "Erro interno ao processar a requisição de Aviso da Rotuladora.",
	},
	telemetrydomain.CategoryIO: {
		success: "Evento de IO da máquina recebido com sucesso.",
		failure: "Erro interno ao processar a requisição de IOs da Rotuladora.",
	},
	telemetrydomain.CategorySpeed: {
		success: "Velocidade da máquina recebido e salvo com sucesso.",
		failure: "Erro interno ao processar a requisição de dados da Rotuladora.",
	},
	telemetrydomain.CategoryProduction: {
		success: "Contagem de produção da máquina recebido e salvo com sucesso.",
		failure: "Erro interno ao processar a requisição de Contagem da Rotuladora.",
	},
	telemetrydomain.CategoryData: {
		success: "Dado da maquina recebido e salvo com sucesso.",
		failure: "Erro interno ao processar a requisição de Dados da Rotuladora.",
	},
}

func (s *Server) PostStatus(c *gin.Context) {
	s.handleIngest(c, telemetrydomain.CategoryStatus)
}

func (s *Server) PostAlarm(c *gin.Context) {
	s.handleIngest(c, telemetrydomain.CategoryAlarm)
}

func (s *Server) PostWarning(c *gin.Context) {
	s.handleIngest(c, telemetrydomain.CategoryWarning)
}

func (s *Server) PostIO(c *gin.Context) {
	s.handleIngest(c, telemetrydomain.CategoryIO)
}

func (s *Server) PostSpeed(c *gin.Context) {
	s.handleIngest(c, telemetrydomain.CategorySpeed)
}

func (s *Server) PostProduction(c *gin.Context) {
	s.handleIngest(c, telemetrydomain.CategoryProduction)
}

func (s *Server) PostData(c *gin.Context) {
	s.handleIngest(c, telemetrydomain.CategoryData)
}

// handleIngest is the shared contract of all seven telemetry endpoints:
// bind and validate, hand off to the service, answer with the category's
// confirmation text. Failures are logged in full and surfaced to the
// machine as a generic 500 with category-specific text; the machine is
// expected to retry.
func (s *Server) handleIngest(c *gin.Context, category telemetrydomain.Category) {
	messages := categoryMessages[category]

	var req telemetrydomain.IngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	_, err := s.telemetrySvc.Ingest(c.Request.Context(), category, req)
	s.metrics.ObserveIngest(string(category), err)
	if err != nil {
		s.log.Error("telemetry ingestion failed",
			zap.String("category", string(category)),
			zap.String("event_code", req.EventCode),
			zap.String("origin", req.Origin),
			zap.Error(err),
		)
		c.String(http.StatusInternalServerError, messages.failure)
		c.Abort()
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": messages.success})
}

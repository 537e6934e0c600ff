package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// apiKeyHeader carries the shared secret on machine-to-server calls.
const apiKeyHeader = "X-API-Key"

// APIKeyRequired authenticates machine requests by shared API key. An
// unconfigured server-side key rejects everything rather than letting
// requests through unauthenticated.
func (s *Server) APIKeyRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(apiKeyHeader)
		if key == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, "Chave de API ausente no cabeçalho (X-API-Key).")
			return
		}

		if s.cfg.APIKey == "" || s.cfg.APIKey != key {
			c.AbortWithStatusJSON(http.StatusUnauthorized, "Chave de API inválida.")
			return
		}

		c.Next()
	}
}

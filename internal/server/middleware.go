package server

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const contextUserIDKey = "user_id"

// AuthRequired admits only requests carrying a valid, unexpired session
// cookie. Everything the dashboard reads sits behind this gate.
func (s *Server) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := s.sessions.ReadToken(c)
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		session, err := s.authsvc.Authenticate(c.Request.Context(), token)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		c.Set(contextUserIDKey, session.UserID.String())
		c.Next()
	}
}

// RequestLogger logs each request with safe fields.
func RequestLogger(log *zap.Logger) gin.HandlerFunc {
	log = log.Named("http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if strings.TrimSpace(route) == "" {
			route = "unknown"
		}
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("route", route),
			zap.Int("status", c.Writer.Status()),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		}
		if lastErr := c.Errors.Last(); lastErr != nil {
			fields = append(fields, zap.Error(lastErr.Err))
			log.Error("request failed", fields...)
			return
		}
		log.Info("request", fields...)
	}
}

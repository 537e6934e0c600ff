package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	authdomain "github.com/mmdba/supmmdba/internal/auth/domain"
)

func (s *Server) Login(c *gin.Context) {
	var req authdomain.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	result, err := s.authsvc.Login(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.sessions.Set(c, result.Token, result.ExpiresAt)
	c.JSON(http.StatusOK, gin.H{
		"username":   result.Username,
		"expires_at": result.ExpiresAt,
	})
}

func (s *Server) Logout(c *gin.Context) {
	if token, ok := s.sessions.ReadToken(c); ok {
		if err := s.authsvc.Logout(c.Request.Context(), token); err != nil {
			AbortWithError(c, err)
			return
		}
	}
	s.sessions.Clear(c)
	c.JSON(http.StatusOK, gin.H{"message": "sessão encerrada"})
}

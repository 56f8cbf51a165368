package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kuidando/kuidando/models"
	"github.com/kuidando/kuidando/server/response"
)

func (s *Server) HandleForgotPassword() gin.HandlerFunc {
	return func(c *gin.Context) {
		var request models.ForgotPassword
		if err := decode(c, &request); err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, err)
			return
		}

		if err := s.AuthService.SendEmailForPasswordReset(&request); err != nil {
			response.JSON(c, "", err.Status, nil, err)
			return
		}
		// Same answer whether or not the email exists.
		response.JSON(c, "si la cuenta existe, enviamos un enlace de recuperación", http.StatusOK, nil, nil)
	}
}

func (s *Server) ResetPassword() gin.HandlerFunc {
	return func(c *gin.Context) {
		var request models.ResetPassword
		if err := decode(c, &request); err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, err)
			return
		}

		token := c.Param("token")
		if err := s.AuthService.ResetPassword(&request, token); err != nil {
			response.JSON(c, "", err.Status, nil, err)
			return
		}
		response.JSON(c, "contraseña restablecida", http.StatusOK, nil, nil)
	}
}

package server

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	errs "github.com/kuidando/kuidando/errors"
	"github.com/kuidando/kuidando/models"
	"github.com/kuidando/kuidando/server/response"
)

var userTranslator ut.Translator

func init() {
	enLocale := en.New()
	uni := ut.New(enLocale, enLocale)
	userTranslator, _ = uni.GetTranslator("en")
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = en_translations.RegisterDefaultTranslations(v, userTranslator)
	}
}

func (s *Server) handleSignup() gin.HandlerFunc {
	return func(c *gin.Context) {
		var user models.User
		if err := decode(c, &user); err != nil {
			// Surface every failed field at once, not only the first.
			var msgs []string
			for _, e := range models.TranslateError(err, userTranslator) {
				msgs = append(msgs, e.Error())
			}
			response.JSON(c, "", http.StatusBadRequest, msgs, errs.ErrBadRequest)
			return
		}

		if err := models.ValidateWhiteSpaces(&user); err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, err)
			return
		}
		if err := models.ValidatePassword(user.Password); err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, err)
			return
		}

		userResponse, err := s.AuthService.SignupUser(&user)
		if err != nil {
			if apiErr, ok := err.(*errs.Error); ok {
				response.JSON(c, "", apiErr.Status, nil, apiErr)
				return
			}
			response.JSON(c, "", http.StatusInternalServerError, nil, err)
			return
		}

		response.JSON(c, "signup successful", http.StatusCreated, models.UserResponse{
			ID:       userResponse.ID,
			Fullname: userResponse.Fullname,
			Email:    userResponse.Email,
		}, nil)
	}
}

func (s *Server) handleLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		var loginRequest models.LoginRequest
		if err := decode(c, &loginRequest); err != nil {
			response.JSON(c, "", errs.ErrBadRequest.Status, nil, err)
			return
		}
		userResponse, err := s.AuthService.LoginUser(&loginRequest)
		if err != nil {
			response.JSON(c, "", err.Status, nil, err)
			return
		}
		response.JSON(c, "login successful", http.StatusOK, userResponse, nil)
	}
}

// handleLogout blacklists the access token so it cannot be replayed.
func (s *Server) handleLogout() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)
		token, exists := c.Get("access_token")
		if user == nil || !exists {
			respondAndAbort(c, "", http.StatusUnauthorized, nil, errs.New("unauthorized", http.StatusUnauthorized))
			return
		}
		accessToken, ok := token.(string)
		if !ok {
			respondAndAbort(c, "", http.StatusInternalServerError, nil, errs.ErrInternalServerError)
			return
		}

		if err := s.AuthService.LogoutUser(user.Email, accessToken); err != nil {
			log.Printf("logout failed: %v", err)
			response.JSON(c, "", http.StatusInternalServerError, nil, errs.ErrInternalServerError)
			return
		}
		response.JSON(c, "logout successful", http.StatusOK, nil, nil)
	}
}

func (s *Server) handleShowProfile() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := currentUserID(c)
		user, err := s.AuthService.GetUserProfile(userID)
		if err != nil {
			response.JSON(c, "", http.StatusInternalServerError, nil, errs.ErrInternalServerError)
			return
		}
		response.JSON(c, "", http.StatusOK, models.UserResponse{
			ID:       user.ID,
			Fullname: user.Fullname,
			Email:    user.Email,
		}, nil)
	}
}

func (s *Server) handleEditUserProfile() gin.HandlerFunc {
	return func(c *gin.Context) {
		var details models.EditProfileRequest
		if err := decode(c, &details); err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, err)
			return
		}
		if err := models.ValidateWhiteSpaces(&details); err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, err)
			return
		}
		if err := s.AuthService.EditUserProfile(currentUserID(c), &details); err != nil {
			response.JSON(c, "", http.StatusInternalServerError, nil, errs.ErrInternalServerError)
			return
		}
		response.JSON(c, "profile updated", http.StatusOK, nil, nil)
	}
}

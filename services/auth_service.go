package services

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/kuidando/kuidando/config"
	"github.com/kuidando/kuidando/db"
	apiError "github.com/kuidando/kuidando/errors"
	"github.com/kuidando/kuidando/models"
	"github.com/kuidando/kuidando/services/jwt"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Mailer sends transactional mail. Satisfied by mailingservices.Mailgun.
type Mailer interface {
	SendResetPassword(userEmail, resetLink string) (string, error)
}

// AuthService interface
type AuthService interface {
	SignupUser(request *models.User) (*models.User, error)
	LoginUser(loginRequest *models.LoginRequest) (*models.LoginResponse, *apiError.Error)
	LogoutUser(email, accessToken string) error
	GetUserProfile(userID uint) (*models.User, error)
	EditUserProfile(userID uint, details *models.EditProfileRequest) error
	SendEmailForPasswordReset(request *models.ForgotPassword) *apiError.Error
	ResetPassword(request *models.ResetPassword, token string) *apiError.Error
}

type authService struct {
	Config   *config.Config
	authRepo db.AuthRepository
	mail     Mailer
}

// NewAuthService instantiates an authService
func NewAuthService(authRepo db.AuthRepository, mail Mailer, conf *config.Config) AuthService {
	return &authService{
		Config:   conf,
		authRepo: authRepo,
		mail:     mail,
	}
}

func (s *authService) SignupUser(user *models.User) (*models.User, error) {
	if user == nil {
		return nil, errors.New("user is nil")
	}
	if user.Email == "" {
		return nil, errors.New("email is empty")
	}

	if err := s.authRepo.IsEmailExist(user.Email); err != nil {
		log.Printf("SignupUser error: %v", err)
		return nil, apiError.GetUniqueContraintError(err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("SignupUser error hashing password: %v", err)
		return nil, apiError.ErrInternalServerError
	}
	user.HashedPassword = string(hashedPassword)
	user.Password = ""

	user, err = s.authRepo.CreateUser(user)
	if err != nil {
		log.Printf("SignupUser error creating user: %v", err)
		return nil, apiError.ErrInternalServerError
	}

	return user, nil
}

func GenerateHashPassword(password string) (string, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(hashedPassword), err
}

// LoginUser logs in a user and returns the login response
func (a *authService) LoginUser(loginRequest *models.LoginRequest) (*models.LoginResponse, *apiError.Error) {
	foundUser, err := a.authRepo.FindUserByEmail(loginRequest.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apiError.New("invalid email or password", http.StatusUnprocessableEntity)
		}
		log.Printf("error finding user by email: %v", err)
		return nil, apiError.New("unable to find user", http.StatusInternalServerError)
	}

	if err := foundUser.VerifyPassword(loginRequest.Password); err != nil {
		return nil, apiError.ErrInvalidPassword
	}

	accessToken, refreshToken, err := jwt.GenerateTokenPair(foundUser.Email, a.Config.JWTSecret, foundUser.ID)
	if err != nil {
		log.Printf("error generating token pair for user %s: %v", foundUser.Email, err)
		return nil, apiError.ErrInternalServerError
	}

	return &models.LoginResponse{
		UserResponse: models.UserResponse{
			ID:       foundUser.ID,
			Fullname: foundUser.Fullname,
			Email:    foundUser.Email,
		},
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// LogoutUser blacklists the presented access token.
func (a *authService) LogoutUser(email, accessToken string) error {
	blacklist := &models.Blacklist{
		Email: email,
		Token: accessToken,
	}
	return a.authRepo.AddToBlackList(blacklist)
}

func (a *authService) GetUserProfile(userID uint) (*models.User, error) {
	user, err := a.authRepo.FindUserByID(userID)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (a *authService) EditUserProfile(userID uint, details *models.EditProfileRequest) error {
	if err := models.ValidateWhiteSpaces(details); err != nil {
		return err
	}
	return a.authRepo.EditUserProfile(userID, details)
}

func (a *authService) SendEmailForPasswordReset(request *models.ForgotPassword) *apiError.Error {
	user, err := a.authRepo.FindUserByEmail(request.Email)
	if err != nil {
		// do not leak whether the address is registered
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		log.Printf("password reset lookup error: %v", err)
		return apiError.ErrInternalServerError
	}

	resetToken, err := jwt.GeneratePasswordResetToken(user.ID, a.Config.JWTSecret)
	if err != nil {
		log.Printf("error generating reset token: %v", err)
		return apiError.ErrInternalServerError
	}

	baseURL := a.Config.BaseUrl
	if baseURL == "" {
		baseURL = "http://localhost:3000"
	}
	resetLink := fmt.Sprintf("%s/reset-password/%s", baseURL, resetToken)

	if _, err := a.mail.SendResetPassword(user.Email, resetLink); err != nil {
		log.Printf("error sending reset mail: %v", err)
		return apiError.New("connection to mail service interrupted", http.StatusInternalServerError)
	}
	return nil
}

func (a *authService) ResetPassword(request *models.ResetPassword, token string) *apiError.Error {
	if request.Password != request.ConfirmPassword {
		return apiError.New("passwords do not match", http.StatusBadRequest)
	}
	if err := models.ValidatePassword(request.Password); err != nil {
		return apiError.New(err.Error(), http.StatusBadRequest)
	}

	userID, err := jwt.ValidatePasswordResetToken(token, a.Config.JWTSecret)
	if err != nil {
		return apiError.New("invalid or expired reset token", http.StatusUnauthorized)
	}

	hashedPassword, err := GenerateHashPassword(request.Password)
	if err != nil {
		log.Printf("error hashing password: %v", err)
		return apiError.ErrInternalServerError
	}

	if err := a.authRepo.ResetPassword(userID, hashedPassword); err != nil {
		log.Printf("error resetting password: %v", err)
		return apiError.ErrInternalServerError
	}
	return nil
}

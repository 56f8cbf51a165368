package models

import (
	"errors"
	"fmt"

	goval "github.com/go-passwd/validator"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/leebenson/conform"
	"golang.org/x/crypto/bcrypt"
)

// User represents a registered citizen.
type User struct {
	Model
	Fullname       string `json:"fullname" binding:"required,min=2" conform:"trim"`
	Email          string `json:"email" gorm:"unique;not null" binding:"required,email" conform:"email"`
	Password       string `json:"password,omitempty" gorm:"-" validate:"omitempty,min=6"`
	HashedPassword string `json:"-"`
	IsEmailActive  bool   `json:"-"`
	ThumbNailURL   string `json:"thumbnail_url,omitempty"`
	ResetToken     string `json:"-"`
}

// Blacklist holds revoked access tokens until they expire.
type Blacklist struct {
	Model
	Email string `json:"email"`
	Token string `json:"token" gorm:"type:varchar(1000);index"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type UserResponse struct {
	ID       uint   `json:"id"`
	Fullname string `json:"fullname"`
	Email    string `json:"email"`
}

type LoginResponse struct {
	UserResponse
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type EditProfileRequest struct {
	Fullname string `json:"fullname" conform:"trim"`
}

type ForgotPassword struct {
	Email string `json:"email" binding:"required,email"`
}

type ResetPassword struct {
	Password        string `json:"password" binding:"required"`
	ConfirmPassword string `json:"confirm_password" binding:"required"`
}

// ValidatePassword enforces the password policy.
func ValidatePassword(password string) error {
	passwordValidator := goval.New(goval.MinLength(6, errors.New("password cant be less than 6 characters")),
		goval.MaxLength(72, errors.New("password cant be more than 72 characters")))
	err := passwordValidator.Validate(password)
	return err
}

// ValidateWhiteSpaces trims conform-tagged fields in place.
func ValidateWhiteSpaces(data interface{}) error {
	return conform.Strings(data)
}

// TranslateError flattens validator errors into one message per field so a
// form can show all of them simultaneously.
func TranslateError(err error, trans ut.Translator) (errs []error) {
	if err == nil {
		return nil
	}
	validatorErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []error{err}
	}
	for _, e := range validatorErrs {
		translatedErr := fmt.Errorf("%s", e.Translate(trans))
		errs = append(errs, translatedErr)
	}
	return errs
}

// VerifyPassword compares the given password with the stored hash.
func (u *User) VerifyPassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(u.HashedPassword), []byte(password))
}
